package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/boardhole/internal/outbox"
)

// OutboxHandler expone la operación del outbox: estadísticas, barrido y
// limpieza a demanda. Pensado para superficies admin, no para clientes.
type OutboxHandler struct {
	Svc     *outbox.Service
	Sweeper *outbox.Sweeper
}

func (h *OutboxHandler) Register(r chi.Router) {
	r.Get("/api/admin/outbox/stats", h.stats)
	r.Post("/api/admin/outbox/sweep", h.sweep)
	r.Post("/api/admin/outbox/cleanup", h.cleanup)
}

func (h *OutboxHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.GetStatistics(r.Context())
	if err != nil {
		writeErr(w, "server_error", "could not load statistics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"pending":    stats.Pending,
		"processing": stats.Processing,
		"sent":       stats.Sent,
		"failed":     stats.Failed,
		"total":      stats.Total(),
	})
}

func (h *OutboxHandler) sweep(w http.ResponseWriter, r *http.Request) {
	if h.Sweeper == nil {
		writeErr(w, "not_available", "sweeper disabled", http.StatusServiceUnavailable)
		return
	}
	res, err := h.Sweeper.SweepOnce(r.Context())
	if err != nil {
		writeErr(w, "server_error", "sweep failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"found":   res.Found,
		"sent":    res.Sent,
		"failed":  res.Failed,
		"skipped": res.Skipped,
	})
}

func (h *OutboxHandler) cleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Svc.CleanupOldEmails(r.Context())
	if err != nil {
		writeErr(w, "server_error", "cleanup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
