package generator

import (
	"context"
)

// HTTPClient は、URLからデータを取得するためのインターフェースです。
// 生成結果の再取得に使います。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Describer は画像の被写体をテキストで説明するビジョン系エンドポイントです。
type Describer interface {
	Describe(ctx context.Context, img SourceImage, instruction string) (string, error)
}

// ImageGenerator はテキストプロンプトから画像を生成するエンドポイントです。
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (*Result, error)
}

// ImageEditor は元画像とプロンプトから直接画像を編集するエンドポイントです。
type ImageEditor interface {
	Edit(ctx context.Context, img SourceImage, prompt string) (*Result, error)
}

// Strategy は変換パイプラインのリモート呼び出し手順です。
// 二段階 (説明→生成) と一段階 (直接編集) の実装があります。
type Strategy interface {
	Name() string
	Apply(ctx context.Context, img SourceImage, prompt string) (*Outcome, error)
}
