package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/shouni/flame-pfp-kit/pkg/domain"
	"github.com/shouni/flame-pfp-kit/pkg/generator"
)

// maxProxyBodyBytes は受け付けるリクエスト本文の上限です。ペイロードは 4MiB 以下に縮小済みで、base64 で約 4/3 倍になります。
const maxProxyBodyBytes = 8 << 20

// Transformer は変換パイプラインです。
type Transformer interface {
	Transform(ctx context.Context, req domain.TransformRequest) (*domain.TransformResponse, error)
}

// HandleGenerate はプロキシ境界 POST /api/generate-ai-pfp のハンドラーです。
func HandleGenerate(t Transformer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProxyBodyBytes))
		if err != nil {
			logError(r, "read body", err)
			writeError(w, r, http.StatusBadRequest, "Failed to read request body")
			return
		}
		defer r.Body.Close()

		var req domain.TransformRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
		if strings.TrimSpace(req.Image) == "" || strings.TrimSpace(req.Prompt) == "" {
			writeError(w, r, http.StatusBadRequest, generator.ErrInvalidRequest.Error())
			return
		}

		resp, err := t.Transform(r.Context(), req)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, generator.ErrInvalidRequest) {
				status = http.StatusBadRequest
			}
			logrus.WithFields(logrus.Fields{
				"event":  "transform",
				"status": status,
				"error":  err,
			}).Error("transform failed")
			writeError(w, r, status, err.Error())
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		render.JSON(w, r, resp)
	}
}
