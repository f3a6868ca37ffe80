// Package editor は単一の編集セッションの状態を所有し、名前付きの操作だけで変更します。
// 見た目に影響する変更の後は必ず commit で再描画し、変更と再描画は同じロックの中で行います。
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/shouni/flame-pfp-kit/pkg/canvas"
	"github.com/shouni/flame-pfp-kit/pkg/domain"
	"github.com/shouni/flame-pfp-kit/pkg/imgutil"
)

var (
	// ErrNoImage はベース画像が無い状態で画像が必要な操作を行ったことを示します。
	ErrNoImage = errors.New("no image uploaded")
	// ErrBusy は AI 変換が進行中のため新しい変換を受け付けないことを示します。
	ErrBusy = errors.New("AI transform already in progress")
	// ErrEmptyPrompt は変換プロンプトが空であることを示します。
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrInvalidMode は未知のモードを指定したことを示します。
	ErrInvalidMode = errors.New("invalid mode")
)

// Mode はエディタの表示モードです。
type Mode string

const (
	ModeStickers Mode = "stickers"
	ModeAI       Mode = "ai"
)

// ParseMode は文字列を Mode に変換します。
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeStickers, ModeAI:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Editor は EditorState の唯一の所有者です。
type Editor struct {
	mu sync.Mutex

	scene       *canvas.Scene
	compositor  *canvas.Compositor
	frame       *image.RGBA
	frameSeq    uint64
	mode        Mode
	aiLoading   bool
	lastError   string
	description string

	prompt      string
	transformer Transformer
	assets      AssetSource
	reducer     PayloadReducer
	clipboard   Clipboard
}

// Option は Editor の任意設定です。
type Option func(*Editor)

// WithPrompt は Transform にプロンプトが渡されなかったときの既定値を設定します。
func WithPrompt(prompt string) Option {
	return func(e *Editor) { e.prompt = prompt }
}

// WithReducer はペイロード縮小処理を差し替えます。
func WithReducer(r PayloadReducer) Option {
	return func(e *Editor) { e.reducer = r }
}

// WithClipboard はエクスポート先のクリップボードを設定します。
func WithClipboard(c Clipboard) Option {
	return func(e *Editor) { e.clipboard = c }
}

// WithCanvasSize はキャンバスサイズを設定します。
func WithCanvasSize(width, height int) Option {
	return func(e *Editor) { e.compositor = canvas.NewCompositor(width, height) }
}

// New は Editor を生成します。
func New(transformer Transformer, assets AssetSource, opts ...Option) (*Editor, error) {
	if transformer == nil {
		return nil, fmt.Errorf("transformer is required")
	}
	if assets == nil {
		return nil, fmt.Errorf("assets is required")
	}
	e := &Editor{
		scene:       canvas.NewScene(),
		compositor:  canvas.NewCompositor(canvas.DefaultWidth, canvas.DefaultHeight),
		mode:        ModeStickers,
		transformer: transformer,
		assets:      assets,
		reducer:     imgutil.NewReducer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	w, h := e.compositor.Size()
	e.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	e.commit()
	return e, nil
}

// commit は現在の状態からフレームを描き直します。呼び出し側がロックを保持していること。
func (e *Editor) commit() {
	e.compositor.RenderInto(e.frame, e.scene)
	e.frameSeq++
}

// Upload は画像を読み込んでベース画像にします。既存のステッカーは破棄されます。
// デコードに失敗した場合は状態を変更しません。
func (e *Editor) Upload(ctx context.Context, r io.Reader) error {
	img, err := imgutil.Decode(ctx, r)
	if err != nil {
		return err
	}
	e.setBase(img)
	slog.InfoContext(ctx, "画像をアップロードしました", "width", img.Width(), "height", img.Height())
	return nil
}

// UploadGallery はギャラリーの n 番目の画像をベース画像にします。
func (e *Editor) UploadGallery(ctx context.Context, n int) error {
	img, name, err := e.assets.Gallery(ctx, n)
	if err != nil {
		return err
	}
	e.setBase(img)
	slog.InfoContext(ctx, "ギャラリー画像を選択しました", "name", name)
	return nil
}

func (e *Editor) setBase(img *domain.RasterImage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.SetBase(img)
	e.description = ""
	e.commit()
}

// AddSticker はステッカー n を既定位置に追加し、アクティブにします。
// ベース画像が無い場合は素材を読み込まずに ErrNoImage を返します。
func (e *Editor) AddSticker(ctx context.Context, n int) (domain.Sticker, error) {
	e.mu.Lock()
	hasBase := e.scene.Base() != nil
	e.mu.Unlock()
	if !hasBase {
		return domain.Sticker{}, ErrNoImage
	}

	asset, name, err := e.assets.Sticker(ctx, n)
	if err != nil {
		return domain.Sticker{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.scene.AddSticker(asset, name)
	if errors.Is(err, canvas.ErrNoBaseImage) {
		// 素材の読み込み中にリセットされた
		return domain.Sticker{}, ErrNoImage
	}
	if err != nil {
		return domain.Sticker{}, err
	}
	e.commit()
	return st, nil
}

// PointerDown はポインタ位置のステッカーのドラッグを開始します。
func (e *Editor) PointerDown(p domain.Point) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.scene.PointerDown(p) {
		return false
	}
	e.commit()
	return true
}

// PointerMove はドラッグ中のステッカーを移動します。
func (e *Editor) PointerMove(p domain.Point) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.scene.PointerMove(p) {
		return false
	}
	e.commit()
	return true
}

// PointerUp はドラッグを終了します。ポインタがキャンバス外に出た場合もこれを呼びます。
func (e *Editor) PointerUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.PointerUp()
}

// LockActive はアクティブなステッカーを固定します。
func (e *Editor) LockActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.scene.LockActive() {
		return false
	}
	e.commit()
	return true
}

// RemoveActive はアクティブなステッカーを削除します。
func (e *Editor) RemoveActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.scene.RemoveActive() {
		return false
	}
	e.commit()
	return true
}

// Reset は画像・ステッカー・選択をすべて破棄してアップロード待ちに戻します。
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.Reset()
	e.description = ""
	e.lastError = ""
	e.commit()
}

// SetMode は表示モードを切り替えます。
func (e *Editor) SetMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = m
	return nil
}

// Transform は現在のベース画像を AI で変換し、成功したらベース画像を置き換えます。
// 変換中の再呼び出しはリクエストを送らずに ErrBusy を返します。
// 失敗時は画像とステッカーを変更せず、エラー文言を LastError に残します。
// 変換中に Reset や Upload が行われても、届いた結果でベース画像を置き換えます。
func (e *Editor) Transform(ctx context.Context, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		prompt = e.prompt
	}

	e.mu.Lock()
	if e.aiLoading {
		e.mu.Unlock()
		return ErrBusy
	}
	base := e.scene.Base()
	if base == nil {
		e.mu.Unlock()
		return ErrNoImage
	}
	if strings.TrimSpace(prompt) == "" {
		e.mu.Unlock()
		return ErrEmptyPrompt
	}
	e.aiLoading = true
	e.lastError = ""
	e.mu.Unlock()

	img, resp, err := e.runTransform(ctx, base, prompt)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.aiLoading = false
	if err != nil {
		e.lastError = err.Error()
		slog.ErrorContext(ctx, "AI変換に失敗しました", "error", err)
		return err
	}
	e.scene.SetBase(img)
	e.description = resp.Description
	e.commit()
	slog.InfoContext(ctx, "AI変換が完了しました", "width", img.Width(), "height", img.Height())
	return nil
}

func (e *Editor) runTransform(ctx context.Context, base *domain.RasterImage, prompt string) (*domain.RasterImage, *domain.TransformResponse, error) {
	payload, err := e.reducer.Reduce(ctx, base.Image())
	if err != nil {
		return nil, nil, err
	}
	slog.DebugContext(ctx, "ペイロードを作成しました", "bytes", len(payload.Data), "quality", payload.Quality, "fallback", payload.Fallback)

	resp, err := e.transformer.Transform(ctx, domain.TransformRequest{
		Image:  payload.DataURI(),
		Prompt: prompt,
	})
	if err != nil {
		return nil, nil, err
	}
	img, err := imgutil.DecodeDataURI(ctx, resp.ImageURL)
	if err != nil {
		return nil, nil, err
	}
	return img, resp, nil
}

// RenderPNG は現在のフレームを PNG にエンコードします。
func (e *Editor) RenderPNG() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return canvas.EncodePNG(e.frame)
}

// CopyToClipboard は現在のフレームを PNG としてクリップボードへ書き込みます。
// 失敗はログに残すだけで、エディタの状態には影響しません。
func (e *Editor) CopyToClipboard(ctx context.Context) {
	if e.clipboard == nil {
		slog.WarnContext(ctx, "クリップボードが設定されていません")
		return
	}
	data, err := e.RenderPNG()
	if err != nil {
		slog.ErrorContext(ctx, "キャンバスのエンコードに失敗しました", "error", err)
		return
	}
	if err := e.clipboard.WriteImage(ctx, data); err != nil {
		slog.ErrorContext(ctx, "クリップボードへのコピーに失敗しました", "error", err)
		return
	}
	slog.InfoContext(ctx, "キャンバスをクリップボードにコピーしました", "bytes", len(data), "mime", canvas.ExportMIMEType)
}
