package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/boardhole/internal/domain/repository"
	"github.com/dropDatabas3/boardhole/internal/email"
	"github.com/dropDatabas3/boardhole/internal/i18n"
	"github.com/dropDatabas3/boardhole/internal/store/memory"
	"github.com/dropDatabas3/boardhole/internal/verification"
)

type testEnv struct {
	router *chi.Mux
	store  *memory.Store
	svc    *verification.Service
	user   *repository.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()

	mailer, err := email.NewService(email.ServiceConfig{
		Sender:    &email.NoopSender{},
		BaseURL:   "http://localhost:8080",
		VerifyTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	svc, err := verification.NewService(st.Verifications(), st.Users(), mailer, i18n.New("en"), nil,
		verification.Config{Expiration: 24 * time.Hour})
	require.NoError(t, err)

	user := &repository.User{
		ID:        uuid.New(),
		Username:  "jdoe",
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		CreatedAt: time.Now(),
	}
	require.NoError(t, st.Users().Save(context.Background(), user))

	r := chi.NewRouter()
	h := &VerificationHandler{Svc: svc}
	h.Register(r)

	return &testEnv{router: r, store: st, svc: svc, user: user}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestVerifyEmailEndpoint_OK(t *testing.T) {
	env := newTestEnv(t)

	v, err := env.svc.Issue(context.Background(), env.user.ID, env.user.Email, repository.VerificationSignup)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-email?token="+v.Code, nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "email verification completed", body["message"])
}

func TestVerifyEmailEndpoint_MissingToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-email", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "missing_token", decodeBody(t, rec)["error"])
}

func TestVerifyEmailEndpoint_UnknownAndUsedLookAlike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	v, err := env.svc.Issue(ctx, env.user.ID, env.user.Email, repository.VerificationSignup)
	require.NoError(t, err)

	// Consumir el código.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-email?token="+v.Code, nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Código ya usado y código inexistente: misma respuesta.
	usedReq := httptest.NewRequest(http.MethodGet, "/api/auth/verify-email?token="+v.Code, nil)
	usedRec := httptest.NewRecorder()
	env.router.ServeHTTP(usedRec, usedReq)

	ghostReq := httptest.NewRequest(http.MethodGet, "/api/auth/verify-email?token="+uuid.New().String(), nil)
	ghostRec := httptest.NewRecorder()
	env.router.ServeHTTP(ghostRec, ghostReq)

	require.Equal(t, http.StatusNotFound, usedRec.Code)
	require.Equal(t, http.StatusNotFound, ghostRec.Code)
	require.Equal(t, decodeBody(t, ghostRec), decodeBody(t, usedRec))
}

func TestResendEndpoint(t *testing.T) {
	env := newTestEnv(t)

	b, _ := json.Marshal(map[string]string{"user_id": env.user.ID.String()})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/resend-verification", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "verification email resent", decodeBody(t, rec)["message"])
}

func TestResendEndpoint_BadUserID(t *testing.T) {
	env := newTestEnv(t)

	b, _ := json.Marshal(map[string]string{"user_id": "no-es-uuid"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/resend-verification", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_user_id", decodeBody(t, rec)["error"])
}

func TestResendEndpoint_AlreadyVerified(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.user.VerifyEmail()
	require.NoError(t, env.store.Users().Save(ctx, env.user))

	b, _ := json.Marshal(map[string]string{"user_id": env.user.ID.String()})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/resend-verification", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "invalid_state", decodeBody(t, rec)["error"])
}

func TestRequestEmailChangeEndpoint(t *testing.T) {
	env := newTestEnv(t)

	b, _ := json.Marshal(map[string]string{
		"user_id":   env.user.ID.String(),
		"new_email": "nueva@example.com",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/request-email-change", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "email change verification sent", decodeBody(t, rec)["message"])
}
