// Package handlers contiene los handlers HTTP del flujo de verificación
// de email y de operación del outbox.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/boardhole/internal/verification"
)

// VerificationHandler expone el ciclo de vida de los códigos de
// verificación: confirmar, reenviar y solicitar cambio de email.
type VerificationHandler struct {
	Svc *verification.Service
}

func (h *VerificationHandler) Register(r chi.Router) {
	r.Get("/api/auth/verify-email", h.verifyEmail)
	r.Post("/api/auth/resend-verification", h.resend)
	r.Post("/api/auth/request-email-change", h.requestEmailChange)
}

func writeErr(w http.ResponseWriter, code, desc string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": code, "error_description": desc,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeVerificationErr mapea los kinds del servicio a status HTTP.
// Código desconocido y código ya usado responden idéntico.
func writeVerificationErr(w http.ResponseWriter, err error) {
	switch {
	case verification.IsNotFound(err):
		writeErr(w, "not_found", err.Error(), http.StatusNotFound)
	case verification.IsInvalidState(err):
		writeErr(w, "invalid_state", err.Error(), http.StatusConflict)
	default:
		writeErr(w, "server_error", "internal error", http.StatusInternalServerError)
	}
}

func (h *VerificationHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeErr(w, "missing_token", "token query parameter required", http.StatusBadRequest)
		return
	}

	msg, err := h.Svc.VerifyEmail(r.Context(), token)
	if err != nil {
		writeVerificationErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

type resendIn struct {
	UserID string `json:"user_id"`
}

func (h *VerificationHandler) resend(w http.ResponseWriter, r *http.Request) {
	var in resendIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, "invalid_json", "Malformed body", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(in.UserID)
	if err != nil {
		writeErr(w, "invalid_user_id", "user_id must be a uuid", http.StatusBadRequest)
		return
	}

	msg, err := h.Svc.ResendVerificationEmail(r.Context(), userID)
	if err != nil {
		writeVerificationErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

type emailChangeIn struct {
	UserID   string `json:"user_id"`
	NewEmail string `json:"new_email"`
}

func (h *VerificationHandler) requestEmailChange(w http.ResponseWriter, r *http.Request) {
	var in emailChangeIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, "invalid_json", "Malformed body", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(in.UserID)
	if err != nil {
		writeErr(w, "invalid_user_id", "user_id must be a uuid", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.NewEmail) == "" {
		writeErr(w, "missing_new_email", "new_email required", http.StatusBadRequest)
		return
	}

	msg, err := h.Svc.RequestEmailChange(r.Context(), userID, strings.TrimSpace(in.NewEmail))
	if err != nil {
		writeVerificationErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}
