package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/flame-pfp-kit/pkg/domain"
	"github.com/shouni/flame-pfp-kit/pkg/editor"
	"github.com/shouni/flame-pfp-kit/pkg/imgutil"
)

func serve(t *testing.T, r *chi.Mux, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func snapshotOf(t *testing.T, w *httptest.ResponseRecorder) editor.Snapshot {
	t.Helper()
	var s editor.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	return s
}

func TestEditorRoutes(t *testing.T) {
	tr := &mockTransformer{transformFunc: func(ctx context.Context, req domain.TransformRequest) (*domain.TransformResponse, error) {
		return &domain.TransformResponse{ImageURL: imgutil.EncodePNGDataURI(testPNG(t, 50, 50))}, nil
	}}
	ed := newTestEditor(t, tr)
	r := NewRouter(tr, ed)

	t.Run("画像が無い状態でステッカーを追加すると 409", func(t *testing.T) {
		w := serve(t, r, http.MethodPost, "/editor/stickers/33", "", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("本文そのままの画像をアップロードできる", func(t *testing.T) {
		w := serve(t, r, http.MethodPost, "/editor/image", "image/png", testPNG(t, 200, 100))
		require.Equal(t, http.StatusOK, w.Code)
		s := snapshotOf(t, w)
		assert.True(t, s.HasImage)
		assert.Equal(t, 200, s.ImageWidth)
	})

	t.Run("multipart の file フィールドでもアップロードできる", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "me.png")
		require.NoError(t, err)
		_, err = fw.Write(testPNG(t, 120, 80))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		w := serve(t, r, http.MethodPost, "/editor/image", mw.FormDataContentType(), buf.Bytes())
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 120, snapshotOf(t, w).ImageWidth)
	})

	t.Run("デコードできない画像は 400", func(t *testing.T) {
		w := serve(t, r, http.MethodPost, "/editor/image", "image/png", []byte("nope"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ステッカーを追加してドラッグし、固定できる", func(t *testing.T) {
		w := serve(t, r, http.MethodPost, "/editor/stickers/33", "", nil)
		require.Equal(t, http.StatusCreated, w.Code)
		s := snapshotOf(t, w)
		require.Len(t, s.Stickers, 1)
		require.NotNil(t, s.ActiveStickerID)

		serve(t, r, http.MethodPost, "/editor/pointer/down", "application/json", []byte(`{"x":160,"y":160}`))
		w = serve(t, r, http.MethodPost, "/editor/pointer/move", "application/json", []byte(`{"x":200,"y":210}`))
		s = snapshotOf(t, w)
		assert.Equal(t, domain.Point{X: 190, Y: 200}, s.Stickers[0].Position)
		require.NotNil(t, s.DraggingID)

		w = serve(t, r, http.MethodPost, "/editor/pointer/leave", "", nil)
		assert.Nil(t, snapshotOf(t, w).DraggingID)

		w = serve(t, r, http.MethodPost, "/editor/lock", "", nil)
		s = snapshotOf(t, w)
		assert.True(t, s.Stickers[0].Locked)
		assert.Nil(t, s.ActiveStickerID)
	})

	t.Run("範囲外のステッカー番号は 404", func(t *testing.T) {
		w := serve(t, r, http.MethodPost, "/editor/stickers/99", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("素材の一覧を取得できる", func(t *testing.T) {
		w := serve(t, r, http.MethodGet, "/editor/assets", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var menu editor.AssetMenu
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &menu))
		assert.Len(t, menu.Stickers, 32)
		assert.Equal(t, "33.png", menu.Stickers[0])
		assert.Len(t, menu.Gallery, 21)
	})

	t.Run("キャンバスを PNG で取得できる", func(t *testing.T) {
		w := serve(t, r, http.MethodGet, "/editor/canvas.png", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		img, err := png.Decode(w.Body)
		require.NoError(t, err)
		assert.Equal(t, 500, img.Bounds().Dx())
	})

	t.Run("コピーはクリップボードが失敗しても 204", func(t *testing.T) {
		w := serve(t, r, http.MethodPost, "/editor/copy", "", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("モードを切り替えられる", func(t *testing.T) {
		w := serve(t, r, http.MethodPost, "/editor/mode/ai", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, editor.ModeAI, snapshotOf(t, w).Mode)

		w = serve(t, r, http.MethodPost, "/editor/mode/paint", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("変換が成功するとステッカーが消える", func(t *testing.T) {
		w := serve(t, r, http.MethodPost, "/editor/transform", "application/json", []byte(`{}`))
		require.Equal(t, http.StatusOK, w.Code)
		s := snapshotOf(t, w)
		assert.Empty(t, s.Stickers)
		assert.Equal(t, 50, s.ImageWidth)
	})

	t.Run("リセットでアップロード待ちに戻る", func(t *testing.T) {
		w := serve(t, r, http.MethodPost, "/editor/reset", "", nil)
		s := snapshotOf(t, w)
		assert.False(t, s.HasImage)

		w = serve(t, r, http.MethodGet, "/editor/state", "", nil)
		assert.False(t, snapshotOf(t, w).HasImage)
	})
}

func TestEditorRoutes_TransformFailure(t *testing.T) {
	tr := &mockTransformer{transformFunc: func(ctx context.Context, req domain.TransformRequest) (*domain.TransformResponse, error) {
		return nil, errors.New("bad key")
	}}
	ed := newTestEditor(t, tr)
	r := NewRouter(tr, ed)

	w := serve(t, r, http.MethodPost, "/editor/gallery/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(t, r, http.MethodPost, "/editor/transform", "", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	var errResp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "bad key", errResp.Error)

	w = serve(t, r, http.MethodGet, "/editor/state", "", nil)
	s := snapshotOf(t, w)
	assert.True(t, s.HasImage)
	assert.Equal(t, "bad key", s.LastError)
	assert.True(t, strings.Contains(tr.lastPrompt(), "flamify"))
}
