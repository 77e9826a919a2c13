// Package httpapi assembles the public HTTP surface: platform middleware,
// operational endpoints, and the versioned API routes each domain handler
// registers itself onto.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inkwell/internal/platform/middleware"
	"inkwell/pkg/platform/httputil"
)

// Registrar is anything that can mount its routes on the versioned API.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires the middleware stack and mounts every domain handler under
// /v1. The metrics and health endpoints stay outside the versioned tree.
func NewRouter(logger *slog.Logger, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Trace)
	r.Use(middleware.RequestLogger(logger))

	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		for _, h := range handlers {
			h.Register(r)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
