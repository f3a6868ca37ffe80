package generator

import (
	"context"
	"fmt"
	"log/slog"
)

// URLValidator は取得前に URL を検証する関数です。
type URLValidator func(rawURL string) (bool, error)

// ResultFetcher は生成結果をサーバー側で取得し直します。
// ブラウザはクロスオリジンの画像をキャンバスのピクセルとして読めないため、
// ここでバイト列にしてからデータ URI として返します。
type ResultFetcher struct {
	httpClient HTTPClient
	validate   URLValidator
}

// NewResultFetcher は ResultFetcher を生成します。validate が nil なら IsSafeURL を使います。
func NewResultFetcher(httpClient HTTPClient, validate URLValidator) (*ResultFetcher, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	if validate == nil {
		validate = IsSafeURL
	}
	return &ResultFetcher{httpClient: httpClient, validate: validate}, nil
}

// Fetch は Result から画像のバイト列を取り出します。
// インラインデータがあればそれを、無ければ URL から取得します。
func (f *ResultFetcher) Fetch(ctx context.Context, res *Result) ([]byte, error) {
	if res == nil {
		return nil, ErrNoImageGenerated
	}
	if len(res.Data) > 0 {
		return res.Data, nil
	}
	if res.URL == "" {
		return nil, ErrNoImageGenerated
	}

	safe, err := f.validate(res.URL)
	if err != nil {
		slog.WarnContext(ctx, "不正なURLをブロックしました", "url", res.URL, "error", err)
		return nil, fmt.Errorf("安全ではないURLが指定されました (%s): %w", res.URL, err)
	}
	if !safe {
		slog.WarnContext(ctx, "SSRFの可能性があるURLをブロックしました", "url", res.URL)
		return nil, fmt.Errorf("安全ではないURLが指定されました: %s", res.URL)
	}

	data, err := f.httpClient.FetchBytes(ctx, res.URL)
	if err != nil {
		return nil, fmt.Errorf("生成画像のダウンロードに失敗しました: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoImageGenerated
	}
	return data, nil
}
