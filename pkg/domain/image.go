package domain

import (
	"errors"
	"image"
)

// ErrEmptyImage は幅または高さが 0 以下の画像を受け取ったことを示します。
var ErrEmptyImage = errors.New("image has no pixels")

// RasterImage はデコード済みのビットマップを保持する不変のハンドルです。
// ベース画像とステッカー素材の両方で利用します。
type RasterImage struct {
	img    image.Image
	width  int
	height int
}

// NewRasterImage は image.Image をラップして RasterImage を生成します。
func NewRasterImage(img image.Image) (*RasterImage, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}
	return &RasterImage{img: img, width: b.Dx(), height: b.Dy()}, nil
}

// Width はピクセル単位の幅を返します。
func (r *RasterImage) Width() int { return r.width }

// Height はピクセル単位の高さを返します。
func (r *RasterImage) Height() int { return r.height }

// Image は描画用の元画像を返します。呼び出し側は変更してはいけません。
func (r *RasterImage) Image() image.Image { return r.img }
