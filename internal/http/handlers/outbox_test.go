package handlers

import (
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
	"github.com/dropDatabas3/boardhole/internal/outbox"
	"github.com/dropDatabas3/boardhole/internal/store/memory"
)

func newOutboxEnv(t *testing.T) (*chi.Mux, *outbox.Service, repository.EmailOutboxRepository) {
	t.Helper()
	st := memory.New()
	svc, err := outbox.NewService(st.Outbox(), outbox.Config{MaxRetryCount: 5, RetentionDays: 30})
	require.NoError(t, err)

	mailer, err := email.NewService(email.ServiceConfig{
		Sender:    &email.NoopSender{},
		BaseURL:   "http://localhost:8080",
		VerifyTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	sw := outbox.NewSweeper(svc, mailer, outbox.SweeperConfig{
		SweepInterval: time.Minute,
		WorkerCount:   1,
		SendTimeout:   time.Second,
	})

	r := chi.NewRouter()
	h := &OutboxHandler{Svc: svc, Sweeper: sw}
	h.Register(r)
	return r, svc, st.Outbox()
}

func TestOutboxStatsEndpoint(t *testing.T) {
	router, _, repo := newOutboxEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, &repository.EmailOutbox{
			ID: uuid.New(), RecipientEmail: "x@example.com", Subject: "s", Body: "b",
			Status: repository.EmailStatusPending, RetryCount: 1, CreatedAt: time.Now(),
		}))
	}
	require.NoError(t, repo.Save(ctx, &repository.EmailOutbox{
		ID: uuid.New(), RecipientEmail: "y@example.com", Subject: "s", Body: "b",
		Status: repository.EmailStatusFailed, RetryCount: 5, CreatedAt: time.Now(),
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/outbox/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.EqualValues(t, 3, out["pending"])
	require.EqualValues(t, 1, out["failed"])
	require.EqualValues(t, 4, out["total"])
}

func TestOutboxSweepEndpoint(t *testing.T) {
	router, _, repo := newOutboxEnv(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &repository.EmailOutbox{
		ID: uuid.New(), RecipientEmail: "pend@example.com", Subject: "s", Body: "b",
		Status: repository.EmailStatusPending, RetryCount: 1, CreatedAt: time.Now(),
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/outbox/sweep", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, 1, out["found"])
	require.Equal(t, 1, out["sent"])
}

func TestOutboxSweepEndpoint_Disabled(t *testing.T) {
	st := memory.New()
	svc, err := outbox.NewService(st.Outbox(), outbox.Config{})
	require.NoError(t, err)

	r := chi.NewRouter()
	h := &OutboxHandler{Svc: svc} // sin sweeper
	h.Register(r)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/outbox/sweep", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOutboxCleanupEndpoint(t *testing.T) {
	router, _, repo := newOutboxEnv(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &repository.EmailOutbox{
		ID: uuid.New(), RecipientEmail: "old@example.com", Subject: "s", Body: "b",
		Status: repository.EmailStatusSent, RetryCount: 1,
		CreatedAt: time.Now().AddDate(0, 0, -60),
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/outbox/cleanup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, 1, out["deleted"])
}
