package imgutil

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Interpolator は拡大縮小に使う補間方式です。
var Interpolator draw.Interpolator = draw.CatmullRom

// DrawFit は src を dst 全体に収まるよう縮尺して中央に描画し、使った配置を返します。
// 背景は塗りつぶさないため、dst が透明ならアルファチャンネルはそのまま残ります。
func DrawFit(dst draw.Image, src image.Image) Placement {
	b := dst.Bounds()
	sb := src.Bounds()
	p := Fit(sb.Dx(), sb.Dy(), b.Dx(), b.Dy())
	DrawScaled(dst, src, p.Rect().Add(b.Min), 1)
	return p
}

// DrawScaled は src を rect に合わせて縮尺し、opacity を掛けて dst に重ねます。
func DrawScaled(dst draw.Image, src image.Image, rect image.Rectangle, opacity float64) {
	if rect.Empty() || opacity <= 0 {
		return
	}
	if opacity >= 1 {
		Interpolator.Scale(dst, rect, src, src.Bounds(), draw.Over, nil)
		return
	}

	// 一時バッファに縮尺してから一様なアルファマスクで合成する
	tmp := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	Interpolator.Scale(tmp, tmp.Bounds(), src, src.Bounds(), draw.Src, nil)
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, rect, tmp, image.Point{}, mask, image.Point{}, draw.Over)
}

// Clear は dst を完全に透明にします。
func Clear(dst draw.Image) {
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
}
