package adapters

import (
	"context"
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// SystemClipboard は OS のクリップボードへ PNG 画像を書き込みます。
// 初期化は最初の書き込み時に一度だけ行います。
type SystemClipboard struct {
	once    sync.Once
	initErr error
}

// NewSystemClipboard は SystemClipboard を生成します。
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

// WriteImage は PNG バイト列をクリップボードへ書き込みます。
func (c *SystemClipboard) WriteImage(ctx context.Context, png []byte) error {
	c.once.Do(func() {
		c.initErr = clipboard.Init()
	})
	if c.initErr != nil {
		return fmt.Errorf("クリップボードを初期化できません: %w", c.initErr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}
