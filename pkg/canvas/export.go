package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// ExportMIMEType はクリップボードに載せる画像の MIME タイプです。
const ExportMIMEType = "image/png"

// EncodePNG はキャンバスの内容を PNG のバイト列にします。
func EncodePNG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("canvas export: %w", err)
	}
	return buf.Bytes(), nil
}
