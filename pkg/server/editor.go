package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/shouni/flame-pfp-kit/pkg/catalog"
	"github.com/shouni/flame-pfp-kit/pkg/domain"
	"github.com/shouni/flame-pfp-kit/pkg/editor"
	"github.com/shouni/flame-pfp-kit/pkg/imgutil"
)

const maxUploadBytes = 32 << 20

type transformBody struct {
	Prompt string `json:"prompt"`
}

type editorHandlers struct {
	ed *editor.Editor
}

// editorStatus はエディタの操作エラーを HTTP ステータスに対応付けます。
func editorStatus(err error) int {
	switch {
	case errors.Is(err, editor.ErrBusy), errors.Is(err, editor.ErrNoImage):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, imgutil.ErrDecode),
		errors.Is(err, editor.ErrEmptyPrompt),
		errors.Is(err, editor.ErrInvalidMode):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (h *editorHandlers) fail(w http.ResponseWriter, r *http.Request, event string, err error) {
	status := editorStatus(err)
	logrus.WithFields(logrus.Fields{
		"event":  event,
		"status": status,
		"error":  err,
	}).Warn("editor operation rejected")
	writeError(w, r, status, err.Error())
}

func (h *editorHandlers) state(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.ed.Snapshot())
}

func (h *editorHandlers) assets(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.ed.Assets())
}

func (h *editorHandlers) canvas(w http.ResponseWriter, r *http.Request) {
	data, err := h.ed.RenderPNG()
	if err != nil {
		logError(r, "render canvas", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to render canvas")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// upload は multipart の file フィールド、またはリクエスト本文そのものを画像として読み込みます。
func (h *editorHandlers) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "Missing file")
			return
		}
		defer f.Close()
		src = f
	}

	if err := h.ed.Upload(r.Context(), src); err != nil {
		h.fail(w, r, "upload", err)
		return
	}
	render.JSON(w, r, h.ed.Snapshot())
}

func (h *editorHandlers) gallery(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid asset number")
		return
	}
	if err := h.ed.UploadGallery(r.Context(), n); err != nil {
		h.fail(w, r, "gallery", err)
		return
	}
	render.JSON(w, r, h.ed.Snapshot())
}

func (h *editorHandlers) addSticker(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid asset number")
		return
	}
	if _, err := h.ed.AddSticker(r.Context(), n); err != nil {
		h.fail(w, r, "add sticker", err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, h.ed.Snapshot())
}

func (h *editorHandlers) pointer(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	switch action {
	case "up", "leave":
		h.ed.PointerUp()
	case "down", "move":
		var p domain.Point
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
		if action == "down" {
			h.ed.PointerDown(p)
		} else {
			h.ed.PointerMove(p)
		}
	default:
		writeError(w, r, http.StatusNotFound, "Unknown pointer action")
		return
	}
	render.JSON(w, r, h.ed.Snapshot())
}

func (h *editorHandlers) lock(w http.ResponseWriter, r *http.Request) {
	h.ed.LockActive()
	render.JSON(w, r, h.ed.Snapshot())
}

func (h *editorHandlers) remove(w http.ResponseWriter, r *http.Request) {
	h.ed.RemoveActive()
	render.JSON(w, r, h.ed.Snapshot())
}

func (h *editorHandlers) reset(w http.ResponseWriter, r *http.Request) {
	h.ed.Reset()
	render.JSON(w, r, h.ed.Snapshot())
}

func (h *editorHandlers) mode(w http.ResponseWriter, r *http.Request) {
	if err := h.ed.SetMode(editor.Mode(chi.URLParam(r, "mode"))); err != nil {
		h.fail(w, r, "mode", err)
		return
	}
	render.JSON(w, r, h.ed.Snapshot())
}

func (h *editorHandlers) transform(w http.ResponseWriter, r *http.Request) {
	var body transformBody
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, r, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
	}
	if err := h.ed.Transform(r.Context(), body.Prompt); err != nil {
		h.fail(w, r, "transform", err)
		return
	}
	render.JSON(w, r, h.ed.Snapshot())
}

// copy はクリップボードの可否にかかわらず 204 を返します。
func (h *editorHandlers) copy(w http.ResponseWriter, r *http.Request) {
	h.ed.CopyToClipboard(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
