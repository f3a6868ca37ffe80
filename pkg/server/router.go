// Package server は HTTP の入口です。プロキシ境界と、ローカル編集セッションの操作を公開します。
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/shouni/flame-pfp-kit/pkg/editor"
)

// ProxyPath はプロキシ境界のパスです。
const ProxyPath = "/api/generate-ai-pfp"

// NewRouter はプロキシと編集セッションのルートを持つルーターを返します。
// ed が nil の場合は /editor 以下を登録しません。
func NewRouter(transformer Transformer, ed *editor.Editor) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Origin", "X-Requested-With"},
		MaxAge:         300,
	}))

	r.HandleFunc(ProxyPath, HandleGenerate(transformer))

	if ed != nil {
		h := &editorHandlers{ed: ed}
		r.Route("/editor", func(r chi.Router) {
			r.Get("/state", h.state)
			r.Get("/canvas.png", h.canvas)
			r.Get("/assets", h.assets)
			r.Post("/image", h.upload)
			r.Post("/gallery/{n}", h.gallery)
			r.Post("/stickers/{n}", h.addSticker)
			r.Post("/pointer/{action}", h.pointer)
			r.Post("/lock", h.lock)
			r.Post("/remove", h.remove)
			r.Post("/reset", h.reset)
			r.Post("/mode/{mode}", h.mode)
			r.Post("/transform", h.transform)
			r.Post("/copy", h.copy)
		})
	}

	return r
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

func logError(r *http.Request, event string, err error) {
	logrus.WithFields(logrus.Fields{
		"event": event,
		"path":  r.URL.Path,
		"error": err,
	}).Error("request failed")
}
