package canvas

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/shouni/flame-pfp-kit/pkg/imgutil"
)

const (
	// DefaultWidth / DefaultHeight はセッション中固定のキャンバスサイズです。
	DefaultWidth  = 500
	DefaultHeight = 500

	lockedOpacity   = 1.0
	editableOpacity = 0.9
)

// OutlineStyle はアクティブなステッカーの破線枠の見た目です。
type OutlineStyle struct {
	Color   color.Color
	Width   int
	DashOn  int
	DashOff int
}

// DefaultOutline は緑 2px、5px 間隔の破線です。
var DefaultOutline = OutlineStyle{
	Color:   color.RGBA{0, 255, 0, 255},
	Width:   2,
	DashOn:  5,
	DashOff: 5,
}

// Compositor は Scene からキャンバスのピクセルを生成します。
// 同じ Scene に対しては常に同じ出力になります。
type Compositor struct {
	width   int
	height  int
	outline OutlineStyle
}

// NewCompositor は width x height のキャンバス用 Compositor を生成します。
func NewCompositor(width, height int) *Compositor {
	return &Compositor{width: width, height: height, outline: DefaultOutline}
}

// Size はキャンバスサイズを返します。
func (c *Compositor) Size() (int, int) { return c.width, c.height }

// Render は新しいキャンバスに Scene を描画して返します。
func (c *Compositor) Render(s *Scene) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	c.RenderInto(dst, s)
	return dst
}

// RenderInto は dst を消去してから、ベース画像・ステッカー・選択枠の順に描画します。
func (c *Compositor) RenderInto(dst draw.Image, s *Scene) {
	imgutil.Clear(dst)
	if s.base == nil {
		// アップロード待ちの表示は UI 側の責務
		return
	}
	imgutil.DrawFit(dst, s.base.Image())

	for _, id := range s.order {
		st := s.stickers[id]
		b := st.Bounds()
		rect := imgutil.PixelRect(b.Min.X, b.Min.Y, b.Max.X-b.Min.X, b.Max.Y-b.Min.Y)

		opacity := editableOpacity
		if st.Locked {
			opacity = lockedOpacity
		}
		imgutil.DrawScaled(dst, st.Asset.Image(), rect, opacity)

		if st.ID == s.active && !st.Locked {
			drawDashedRect(dst, rect, c.outline)
		}
	}
}
