package canvas

import (
	"image"
	"image/color"
	"testing"

	"github.com/shouni/flame-pfp-kit/pkg/domain"
)

func solidRaster(t *testing.T, w, h int, c color.Color) *domain.RasterImage {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	r, err := domain.NewRasterImage(img)
	if err != nil {
		t.Fatalf("failed to build raster: %v", err)
	}
	return r
}

// newSceneWithBase は 200x100 の白いベース画像を持つ Scene を返します。
func newSceneWithBase(t *testing.T) *Scene {
	t.Helper()
	s := NewScene()
	s.SetBase(solidRaster(t, 200, 100, color.White))
	return s
}
