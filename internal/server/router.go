// Package server exposes recorded run history over a read-only HTTP API.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(store RunStore, logger *observability.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"text-extract"}`))
	})

	h := NewRunHandler(store, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.List)
			r.Get("/{runID}", h.Get)
			r.Get("/{runID}/report", h.Report)
		})
	})

	return r
}
