package canvas

import (
	"image"

	"golang.org/x/image/draw"
)

// drawDashedRect は rect の外周に破線を描きます。線幅は外周線を中心に振り分けます。
func drawDashedRect(dst draw.Image, rect image.Rectangle, style OutlineStyle) {
	if style.Width <= 0 || rect.Empty() {
		return
	}
	period := style.DashOn + style.DashOff
	if period <= 0 || style.DashOn <= 0 {
		return
	}
	half := style.Width / 2
	clip := dst.Bounds()

	hline := func(y int) {
		for i, x := 0, rect.Min.X; x <= rect.Max.X; i, x = i+1, x+1 {
			if i%period >= style.DashOn {
				continue
			}
			for d := -half; d < style.Width-half; d++ {
				if p := image.Pt(x, y+d); p.In(clip) {
					dst.Set(p.X, p.Y, style.Color)
				}
			}
		}
	}
	vline := func(x int) {
		for i, y := 0, rect.Min.Y; y <= rect.Max.Y; i, y = i+1, y+1 {
			if i%period >= style.DashOn {
				continue
			}
			for d := -half; d < style.Width-half; d++ {
				if p := image.Pt(x+d, y); p.In(clip) {
					dst.Set(p.X, p.Y, style.Color)
				}
			}
		}
	}

	hline(rect.Min.Y)
	hline(rect.Max.Y)
	vline(rect.Min.X)
	vline(rect.Max.X)
}
