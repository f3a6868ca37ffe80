package imgutil

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/shouni/flame-pfp-kit/pkg/domain"
)

// ErrDecode は画像としてデコードできない入力を受け取ったことを示します。
// 呼び出し側はこのエラーを受け取った時点でその操作を打ち切ります。
var ErrDecode = errors.New("image decode failed")

const defaultDataURIMime = "image/png"

// MaxDecodeDimension はデコードを許可する幅・高さの上限 (ピクセル) です。
// ヘッダ上の寸法がこれを超える画像はピクセルを展開する前に拒否します。
const MaxDecodeDimension = 8192

// Decode は r から画像を読み込み RasterImage を返します。
// 途中で切れたデータや未対応フォーマットは ErrDecode を包んだエラーになり、部分的な画像は返しません。
func Decode(ctx context.Context, r io.Reader) (*domain.RasterImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width > MaxDecodeDimension || cfg.Height > MaxDecodeDimension {
		slog.WarnContext(ctx, "画像サイズが上限を超えています", "width", cfg.Width, "height", cfg.Height, "limit", MaxDecodeDimension)
		return nil, fmt.Errorf("%w: image is %dx%d, exceeds %dx%d", ErrDecode, cfg.Width, cfg.Height, MaxDecodeDimension, MaxDecodeDimension)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	raster, err := domain.NewRasterImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	slog.DebugContext(ctx, "画像をデコードしました", "format", format, "width", raster.Width(), "height", raster.Height())
	return raster, nil
}

// DecodeBytes はバイト列から RasterImage を生成します。
func DecodeBytes(ctx context.Context, data []byte) (*domain.RasterImage, error) {
	return Decode(ctx, bytes.NewReader(data))
}

// DecodeDataURI は "data:<mime>;base64,<payload>" 形式の文字列をデコードします。
func DecodeDataURI(ctx context.Context, uri string) (*domain.RasterImage, error) {
	_, data, err := ParseDataURI(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return DecodeBytes(ctx, data)
}

// ParseDataURI はデータ URI を MIME タイプとバイト列に分解します。base64 形式のみ対応します。
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI has no payload separator")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data URI payload: %w", err)
	}
	if mime == "" {
		mime = "text/plain"
	}
	return mime, data, nil
}

// EncodeDataURI はバイト列をデータ URI に変換します。
// MIME タイプはデータから判定し、画像でなければ image/png として扱います。
func EncodeDataURI(data []byte) string {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = defaultDataURIMime
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// EncodePNGDataURI は PNG バイト列を MIME 判定なしでデータ URI に変換します。
func EncodePNGDataURI(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}
