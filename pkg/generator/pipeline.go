package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/shouni/flame-pfp-kit/pkg/domain"
	"github.com/shouni/flame-pfp-kit/pkg/imgutil"
)

// Pipeline はプロキシ境界の中身です。
// 元画像を Strategy に渡し、結果をサーバー側で取得し直してデータ URI で返します。
type Pipeline struct {
	strategy Strategy
	fetcher  *ResultFetcher
}

// NewPipeline は Pipeline を初期化します。
func NewPipeline(strategy Strategy, fetcher *ResultFetcher) (*Pipeline, error) {
	if strategy == nil {
		return nil, fmt.Errorf("strategy is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	return &Pipeline{strategy: strategy, fetcher: fetcher}, nil
}

// Strategy は使用中の方式名を返します。
func (p *Pipeline) Strategy() string { return p.strategy.Name() }

// Transform は一回の変換要求を処理します。どの段で失敗しても結果は返しません。
func (p *Pipeline) Transform(ctx context.Context, req domain.TransformRequest) (*domain.TransformResponse, error) {
	if strings.TrimSpace(req.Image) == "" || strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrInvalidRequest
	}
	mimeType, data, err := imgutil.ParseDataURI(req.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	requestID := ulid.Make().String()
	logger := slog.With("request_id", requestID, "strategy", p.strategy.Name())
	logger.InfoContext(ctx, "変換リクエストを受け付けました", "image_bytes", len(data), "prompt", truncate(req.Prompt, logPreviewBytes))

	src := SourceImage{Data: data, MIMEType: mimeType, DataURI: req.Image}
	out, err := p.strategy.Apply(ctx, src, req.Prompt)
	if err != nil {
		logger.WarnContext(ctx, "変換に失敗しました", "error", err)
		return nil, err
	}
	if out == nil {
		return nil, ErrNoImageGenerated
	}

	imgData, err := p.fetcher.Fetch(ctx, out.Result)
	if err != nil {
		logger.WarnContext(ctx, "生成画像の取得に失敗しました", "error", err)
		return nil, err
	}

	logger.InfoContext(ctx, "変換が完了しました", "result_bytes", len(imgData))
	return &domain.TransformResponse{
		ImageURL:    imgutil.EncodeDataURI(imgData),
		Description: out.Description,
	}, nil
}
