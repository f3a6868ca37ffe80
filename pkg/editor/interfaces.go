package editor

import (
	"context"
	"image"

	"github.com/shouni/flame-pfp-kit/pkg/domain"
	"github.com/shouni/flame-pfp-kit/pkg/imgutil"
)

// Transformer はプロキシ境界へ変換を依頼します。
type Transformer interface {
	Transform(ctx context.Context, req domain.TransformRequest) (*domain.TransformResponse, error)
}

// AssetSource は番号からステッカー素材とギャラリー画像を解決します。
type AssetSource interface {
	Sticker(ctx context.Context, n int) (*domain.RasterImage, string, error)
	Gallery(ctx context.Context, n int) (*domain.RasterImage, string, error)
	StickerNames() []string
	GalleryNames() []string
}

// PayloadReducer は送信用の PNG ペイロードを上限サイズ以下に収めます。
type PayloadReducer interface {
	Reduce(ctx context.Context, src image.Image) (*imgutil.Payload, error)
}

// Clipboard はエクスポート先のクリップボードです。
type Clipboard interface {
	WriteImage(ctx context.Context, png []byte) error
}
