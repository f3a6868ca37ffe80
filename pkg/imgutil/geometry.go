package imgutil

import (
	"image"
	"math"
)

// Placement は画像を描画先に収めるための配置情報です。
type Placement struct {
	Scale  float64
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Fit は srcW x srcH の画像を dstW x dstH に縦横比を保って収め、中央に配置します。
// scale = min(dstW/srcW, dstH/srcH) で、余白は上下または左右に均等に割り振ります。
func Fit(srcW, srcH, dstW, dstH int) Placement {
	if srcW <= 0 || srcH <= 0 {
		return Placement{}
	}
	scale := math.Min(float64(dstW)/float64(srcW), float64(dstH)/float64(srcH))
	w := float64(srcW) * scale
	h := float64(srcH) * scale
	return Placement{
		Scale:  scale,
		X:      (float64(dstW) - w) / 2,
		Y:      (float64(dstH) - h) / 2,
		Width:  w,
		Height: h,
	}
}

// Rect は配置を整数ピクセルの矩形に丸めます。
func (p Placement) Rect() image.Rectangle {
	return PixelRect(p.X, p.Y, p.Width, p.Height)
}

// PixelRect は実数の位置とサイズを描画用の整数矩形に丸めます。
func PixelRect(x, y, w, h float64) image.Rectangle {
	return image.Rect(
		int(math.Round(x)),
		int(math.Round(y)),
		int(math.Round(x+w)),
		int(math.Round(y+h)),
	)
}
