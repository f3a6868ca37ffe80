package imgutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
)

const (
	// MaxPayloadBytes はリモート API に送る PNG の上限サイズ (4 MiB) です。
	MaxPayloadBytes = 4 * 1024 * 1024
	// PayloadSize は送信用に描画する正方形サーフェスの一辺です。
	PayloadSize = 1024
	// FallbackPayloadSize は品質を落としても収まらない場合に使う縮小サーフェスの一辺です。
	FallbackPayloadSize = 512

	// 品質は浮動小数の誤差を避けるため百分率で扱う
	startQuality     = 95
	qualityStep      = 10
	minQuality       = 30
	fallbackTrigger  = 50
	fallbackQuality  = 90
	losslessQuality  = 90
	bitsPerComponent = 8
)

// PNGEncoder は品質指定付きで画像を PNG にエンコードします。
type PNGEncoder interface {
	Encode(img image.Image, quality float64) ([]byte, error)
}

// QuantizingEncoder は品質に応じて色深度を落とし、PNG の圧縮後サイズを小さくするエンコーダーです。
// アルファ値は量子化しません。
type QuantizingEncoder struct{}

// Encode は quality (0, 1] に従って画像をエンコードします。
// 0.9 以上ではロスレス、それ未満では各チャンネルの上位 ceil(quality*8) ビットだけを残します。
func (QuantizingEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	src := img
	if quality < float64(losslessQuality)/100 {
		enc.CompressionLevel = png.BestCompression
		src = quantize(img, quantizeBits(quality))
	}

	buf := new(bytes.Buffer)
	if err := enc.Encode(buf, src); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func quantizeBits(quality float64) int {
	bits := int(math.Ceil(quality * bitsPerComponent))
	return max(1, min(bitsPerComponent, bits))
}

func quantize(img image.Image, bits int) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	if n, ok := img.(*image.NRGBA); ok && n.Stride == out.Stride {
		copy(out.Pix, n.Pix)
	} else {
		draw.Draw(out, b, img, b.Min, draw.Src)
	}
	if bits >= bitsPerComponent {
		return out
	}
	mask := uint8(0xFF << (bitsPerComponent - bits))
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] &= mask
		out.Pix[i+1] &= mask
		out.Pix[i+2] &= mask
	}
	return out
}

// Payload はサイズ調整後の PNG とその生成条件です。
type Payload struct {
	Data     []byte
	Quality  float64
	Size     int
	Attempts int
	Fallback bool
}

// DataURI はペイロードを "data:image/png;base64,..." 形式にします。
func (p *Payload) DataURI() string {
	return EncodePNGDataURI(p.Data)
}

// Reducer はキャンバスを上限サイズ以下の PNG に再エンコードします。
type Reducer struct {
	maxBytes     int
	size         int
	fallbackSize int
	encoder      PNGEncoder
}

// ReducerOption は Reducer の設定を変更します。
type ReducerOption func(*Reducer)

// WithMaxBytes は上限バイト数を変更します。
func WithMaxBytes(n int) ReducerOption {
	return func(r *Reducer) { r.maxBytes = n }
}

// WithEncoder はエンコーダーを差し替えます。
func WithEncoder(enc PNGEncoder) ReducerOption {
	return func(r *Reducer) { r.encoder = enc }
}

// WithSurfaceSizes は通常サーフェスと縮小サーフェスの一辺を変更します。
func WithSurfaceSizes(size, fallback int) ReducerOption {
	return func(r *Reducer) {
		r.size = size
		r.fallbackSize = fallback
	}
}

// NewReducer は既定値 (4 MiB, 1024px, 512px) の Reducer を生成します。
func NewReducer(opts ...ReducerOption) *Reducer {
	r := &Reducer{
		maxBytes:     MaxPayloadBytes,
		size:         PayloadSize,
		fallbackSize: FallbackPayloadSize,
		encoder:      QuantizingEncoder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reduce は src を正方形サーフェスに収めて描画し、上限サイズ以下になるまで品質を下げてエンコードします。
// 品質 0.5 以下でも超える場合は縮小サーフェスに描き直して品質 0.9 で一度だけエンコードし、その結果を無条件に採用します。
// サイズ超過ではエラーを返しません。エラーになるのはエンコード自体の失敗だけです。
func (r *Reducer) Reduce(ctx context.Context, src image.Image) (*Payload, error) {
	surface := renderSurface(src, r.size)

	quality := startQuality
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := r.encoder.Encode(surface, float64(quality)/100)
		if err != nil {
			return nil, fmt.Errorf("PNGエンコードに失敗しました (quality=%d%%): %w", quality, err)
		}
		attempts++
		if len(data) <= r.maxBytes {
			return &Payload{Data: data, Quality: float64(quality) / 100, Size: r.size, Attempts: attempts}, nil
		}

		slog.DebugContext(ctx, "ペイロードが上限を超えています", "bytes", len(data), "max", r.maxBytes, "quality", quality)
		if quality <= fallbackTrigger {
			break
		}
		quality -= qualityStep
		if quality <= minQuality {
			break
		}
	}

	small := renderSurface(src, r.fallbackSize)
	data, err := r.encoder.Encode(small, float64(fallbackQuality)/100)
	if err != nil {
		return nil, fmt.Errorf("縮小サーフェスのPNGエンコードに失敗しました: %w", err)
	}
	attempts++
	slog.InfoContext(ctx, "縮小サーフェスにフォールバックしました", "bytes", len(data), "size", r.fallbackSize)
	return &Payload{
		Data:     data,
		Quality:  float64(fallbackQuality) / 100,
		Size:     r.fallbackSize,
		Attempts: attempts,
		Fallback: true,
	}, nil
}

func renderSurface(src image.Image, size int) *image.RGBA {
	surface := image.NewRGBA(image.Rect(0, 0, size, size))
	DrawFit(surface, src)
	return surface
}
