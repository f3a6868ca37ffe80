package server

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shouni/flame-pfp-kit/pkg/catalog"
	"github.com/shouni/flame-pfp-kit/pkg/domain"
	"github.com/shouni/flame-pfp-kit/pkg/editor"
	"github.com/shouni/flame-pfp-kit/pkg/imgutil"
)

type mockTransformer struct {
	calls         int
	last          domain.TransformRequest
	transformFunc func(ctx context.Context, req domain.TransformRequest) (*domain.TransformResponse, error)
}

func (m *mockTransformer) Transform(ctx context.Context, req domain.TransformRequest) (*domain.TransformResponse, error) {
	m.calls++
	m.last = req
	return m.transformFunc(ctx, req)
}

func (m *mockTransformer) lastPrompt() string { return m.last.Prompt }

type mockAssets struct {
	images map[int]*domain.RasterImage
}

func (m *mockAssets) lookup(n int) (*domain.RasterImage, string, error) {
	img, ok := m.images[n]
	if !ok {
		return nil, "", fmt.Errorf("%w: %d", catalog.ErrOutOfRange, n)
	}
	return img, catalog.FileName(n), nil
}

func (m *mockAssets) Sticker(ctx context.Context, n int) (*domain.RasterImage, string, error) {
	return m.lookup(n)
}

func (m *mockAssets) Gallery(ctx context.Context, n int) (*domain.RasterImage, string, error) {
	return m.lookup(n)
}

func (m *mockAssets) StickerNames() []string { return catalog.StickerRange.Names() }

func (m *mockAssets) GalleryNames() []string { return catalog.GalleryRange.Names() }

type mockClipboard struct {
	err error
}

func (m *mockClipboard) WriteImage(ctx context.Context, png []byte) error { return m.err }

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testRaster(t *testing.T, w, h int) *domain.RasterImage {
	t.Helper()
	r, err := imgutil.DecodeBytes(context.Background(), testPNG(t, w, h))
	require.NoError(t, err)
	return r
}

func newTestEditor(t *testing.T, tr *mockTransformer) *editor.Editor {
	t.Helper()
	assets := &mockAssets{images: map[int]*domain.RasterImage{
		1:  testRaster(t, 200, 100),
		33: testRaster(t, 64, 64),
	}}
	ed, err := editor.New(tr, assets,
		editor.WithPrompt("flamify"),
		editor.WithClipboard(&mockClipboard{err: fmt.Errorf("denied")}),
		editor.WithReducer(imgutil.NewReducer(imgutil.WithSurfaceSizes(64, 32))),
	)
	require.NoError(t, err)
	return ed
}
