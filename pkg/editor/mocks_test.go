package editor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shouni/flame-pfp-kit/pkg/domain"
	"github.com/shouni/flame-pfp-kit/pkg/imgutil"
)

// --- Mocks ---

type mockTransformer struct {
	mu            sync.Mutex
	calls         int
	lastRequest   domain.TransformRequest
	transformFunc func(ctx context.Context, req domain.TransformRequest) (*domain.TransformResponse, error)
}

func (m *mockTransformer) Transform(ctx context.Context, req domain.TransformRequest) (*domain.TransformResponse, error) {
	m.mu.Lock()
	m.calls++
	m.lastRequest = req
	m.mu.Unlock()
	return m.transformFunc(ctx, req)
}

func (m *mockTransformer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockAssets struct {
	stickers map[int]*domain.RasterImage
	gallery  map[int]*domain.RasterImage
	loads    int
}

func (m *mockAssets) Sticker(ctx context.Context, n int) (*domain.RasterImage, string, error) {
	m.loads++
	img, ok := m.stickers[n]
	if !ok {
		return nil, "", fmt.Errorf("sticker %d not found", n)
	}
	return img, fmt.Sprintf("%d.png", n), nil
}

func (m *mockAssets) Gallery(ctx context.Context, n int) (*domain.RasterImage, string, error) {
	img, ok := m.gallery[n]
	if !ok {
		return nil, "", fmt.Errorf("gallery %d not found", n)
	}
	return img, fmt.Sprintf("%d.png", n), nil
}

func (m *mockAssets) StickerNames() []string { return []string{"33.png"} }

func (m *mockAssets) GalleryNames() []string { return []string{"1.png"} }

type mockReducer struct{}

func (mockReducer) Reduce(ctx context.Context, src image.Image) (*imgutil.Payload, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, err
	}
	return &imgutil.Payload{Data: buf.Bytes(), Quality: 0.95, Size: src.Bounds().Dx()}, nil
}

type mockClipboard struct {
	data []byte
	err  error
}

func (m *mockClipboard) WriteImage(ctx context.Context, png []byte) error {
	if m.err != nil {
		return m.err
	}
	m.data = png
	return nil
}

// --- Helpers ---

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func solidRaster(t *testing.T, w, h int, c color.Color) *domain.RasterImage {
	t.Helper()
	r, err := domain.NewRasterImage(solidImage(w, h, c))
	require.NoError(t, err)
	return r
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(w, h, c)))
	return buf.Bytes()
}

func resultResponse(t *testing.T, w, h int) *domain.TransformResponse {
	t.Helper()
	return &domain.TransformResponse{
		ImageURL:    imgutil.EncodePNGDataURI(pngBytes(t, w, h, color.NRGBA{R: 255, G: 80, A: 255})),
		Description: "a cat",
	}
}

func newTestEditor(t *testing.T, tr *mockTransformer, opts ...Option) (*Editor, *mockAssets) {
	t.Helper()
	assets := &mockAssets{
		stickers: map[int]*domain.RasterImage{33: solidRaster(t, 64, 64, color.NRGBA{B: 255, A: 255})},
		gallery:  map[int]*domain.RasterImage{1: solidRaster(t, 200, 100, color.White)},
	}
	if tr == nil {
		tr = &mockTransformer{transformFunc: func(ctx context.Context, req domain.TransformRequest) (*domain.TransformResponse, error) {
			return resultResponse(t, 300, 300), nil
		}}
	}
	opts = append([]Option{WithReducer(mockReducer{})}, opts...)
	e, err := New(tr, assets, opts...)
	require.NoError(t, err)
	return e, assets
}
