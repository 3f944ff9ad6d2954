package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Pinger es lo mínimo que el health check necesita del backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responde el estado del proceso y de la persistencia.
type HealthHandler struct {
	Store   Pinger
	Version string
}

func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
}

func (h *HealthHandler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
	})
}

func (h *HealthHandler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.Store != nil {
		if err := h.Store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
