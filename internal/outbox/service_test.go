package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/boardhole/internal/domain/repository"
	"github.com/dropDatabas3/boardhole/internal/email"
	"github.com/dropDatabas3/boardhole/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, repository.EmailOutboxRepository) {
	t.Helper()
	repo := memory.New().Outbox()
	svc, err := NewService(repo, Config{MaxRetryCount: 3, RetentionDays: 30})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	return svc, repo
}

func mustMessage(t *testing.T, to string) email.EmailMessage {
	t.Helper()
	msg, err := email.NewMessage(to, "Asunto", "<p>cuerpo</p>")
	if err != nil {
		t.Fatalf("NewMessage err: %v", err)
	}
	return msg
}

func sendErr() error { return context.DeadlineExceeded }

func TestSaveFailedEmail_CreatesPendingRow(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	if err := svc.SaveFailedEmail(ctx, mustMessage(t, "a@example.com"), sendErr()); err != nil {
		t.Fatalf("SaveFailedEmail err: %v", err)
	}

	rows, err := repo.FindRetriable(ctx, base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("FindRetriable err: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.Status != repository.EmailStatusPending {
		t.Errorf("status = %s, want PENDING", row.Status)
	}
	if row.RetryCount != 1 {
		t.Errorf("retryCount = %d, want 1", row.RetryCount)
	}
	if row.LastError == nil || *row.LastError == "" {
		t.Error("lastError vacío, se esperaba el mensaje del fallo")
	}
	if row.NextRetryAt == nil || !row.NextRetryAt.Equal(base.Add(1*time.Minute)) {
		t.Errorf("nextRetryAt = %v, want %v", row.NextRetryAt, base.Add(1*time.Minute))
	}
}

func TestSaveFailedEmail_DedupPerRecipient(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if err := svc.SaveFailedEmail(ctx, mustMessage(t, "dup@example.com"), sendErr()); err != nil {
		t.Fatalf("primer SaveFailedEmail err: %v", err)
	}
	// Segundo fallo para el mismo destinatario: no-op.
	if err := svc.SaveFailedEmail(ctx, mustMessage(t, "dup@example.com"), sendErr()); err != nil {
		t.Fatalf("segundo SaveFailedEmail err: %v", err)
	}

	n, err := repo.CountByStatus(ctx, repository.EmailStatusPending)
	if err != nil {
		t.Fatalf("CountByStatus err: %v", err)
	}
	if n != 1 {
		t.Fatalf("pending = %d, want 1", n)
	}

	// Otro destinatario sí crea fila propia.
	if err := svc.SaveFailedEmail(ctx, mustMessage(t, "otro@example.com"), sendErr()); err != nil {
		t.Fatalf("tercer SaveFailedEmail err: %v", err)
	}
	n, _ = repo.CountByStatus(ctx, repository.EmailStatusPending)
	if n != 2 {
		t.Fatalf("pending = %d, want 2", n)
	}
}

func TestFindRetriable_RespectsNextRetryAt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	if err := svc.SaveFailedEmail(ctx, mustMessage(t, "a@example.com"), sendErr()); err != nil {
		t.Fatal(err)
	}

	// Antes de nextRetryAt: nada elegible.
	svc.now = func() time.Time { return base.Add(30 * time.Second) }
	rows, err := svc.FindRetriableEmails(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d antes de la ventana, want 0", len(rows))
	}

	// Después: elegible.
	svc.now = func() time.Time { return base.Add(2 * time.Minute) }
	rows, err = svc.FindRetriableEmails(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d después de la ventana, want 1", len(rows))
	}
}

func TestRecordFailure_ReschedulesWithBackoff(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	if err := svc.SaveFailedEmail(ctx, mustMessage(t, "a@example.com"), sendErr()); err != nil {
		t.Fatal(err)
	}
	rows, _ := repo.FindRetriable(ctx, base.Add(time.Hour))
	id := rows[0].ID

	if err := svc.RecordFailure(ctx, id, "smtp 451"); err != nil {
		t.Fatalf("RecordFailure err: %v", err)
	}

	row, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if row.RetryCount != 2 {
		t.Errorf("retryCount = %d, want 2", row.RetryCount)
	}
	if row.Status != repository.EmailStatusPending {
		t.Errorf("status = %s, want PENDING", row.Status)
	}
	if row.NextRetryAt == nil || !row.NextRetryAt.Equal(base.Add(2*time.Minute)) {
		t.Errorf("nextRetryAt = %v, want %v", row.NextRetryAt, base.Add(2*time.Minute))
	}
	if row.LastError == nil || *row.LastError != "smtp 451" {
		t.Errorf("lastError = %v, want smtp 451", row.LastError)
	}
}

func TestRecordFailure_ExhaustsToFailed(t *testing.T) {
	svc, repo := newTestService(t) // MaxRetryCount = 3
	ctx := context.Background()

	if err := svc.SaveFailedEmail(ctx, mustMessage(t, "a@example.com"), sendErr()); err != nil {
		t.Fatal(err)
	}
	rows, _ := repo.FindRetriable(ctx, time.Now().Add(time.Hour))
	id := rows[0].ID

	// retryCount 1→2: sigue PENDING.
	if err := svc.RecordFailure(ctx, id, "x"); err != nil {
		t.Fatal(err)
	}
	row, _ := repo.FindByID(ctx, id)
	if row.Status != repository.EmailStatusPending {
		t.Fatalf("status tras intento 2 = %s, want PENDING", row.Status)
	}

	// retryCount 2→3 = max: FAILED, sin próximo intento.
	if err := svc.RecordFailure(ctx, id, "y"); err != nil {
		t.Fatal(err)
	}
	row, _ = repo.FindByID(ctx, id)
	if row.Status != repository.EmailStatusFailed {
		t.Fatalf("status tras intento 3 = %s, want FAILED", row.Status)
	}
	if row.NextRetryAt != nil {
		t.Errorf("nextRetryAt = %v, want nil en FAILED", row.NextRetryAt)
	}
}

func TestMarkAsSent_And_MissingIDIsBenign(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if err := svc.SaveFailedEmail(ctx, mustMessage(t, "a@example.com"), sendErr()); err != nil {
		t.Fatal(err)
	}
	rows, _ := repo.FindRetriable(ctx, time.Now().Add(time.Hour))
	id := rows[0].ID

	if err := svc.MarkAsSent(ctx, id); err != nil {
		t.Fatalf("MarkAsSent err: %v", err)
	}
	row, _ := repo.FindByID(ctx, id)
	if row.Status != repository.EmailStatusSent {
		t.Fatalf("status = %s, want SENT", row.Status)
	}

	// Un id inexistente no es error: la fila pudo ser limpiada.
	if err := svc.MarkAsSent(ctx, uuid.New()); err != nil {
		t.Errorf("MarkAsSent(id inexistente) err: %v, want nil", err)
	}
	if err := svc.RecordFailure(ctx, uuid.New(), "z"); err != nil {
		t.Errorf("RecordFailure(id inexistente) err: %v, want nil", err)
	}
}

func TestCleanupOldEmails_OnlyTerminalStates(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := func(status repository.EmailStatus, to string) uuid.UUID {
		id := uuid.New()
		if err := repo.Save(ctx, &repository.EmailOutbox{
			ID:             id,
			RecipientEmail: to,
			Subject:        "s",
			Body:           "b",
			Status:         status,
			RetryCount:     1,
			CreatedAt:      old,
		}); err != nil {
			t.Fatal(err)
		}
		return id
	}

	pendingID := seed(repository.EmailStatusPending, "p@example.com")
	processingID := seed(repository.EmailStatusProcessing, "x@example.com")
	seed(repository.EmailStatusSent, "s@example.com")
	seed(repository.EmailStatusFailed, "f@example.com")

	// Todos los registros son mucho más viejos que la retención.
	svc.now = func() time.Time { return old.AddDate(0, 6, 0) }

	deleted, err := svc.CleanupOldEmails(ctx)
	if err != nil {
		t.Fatalf("CleanupOldEmails err: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}

	// PENDING y PROCESSING sobreviven siempre.
	if _, err := repo.FindByID(ctx, pendingID); err != nil {
		t.Errorf("fila PENDING eliminada: %v", err)
	}
	if _, err := repo.FindByID(ctx, processingID); err != nil {
		t.Errorf("fila PROCESSING eliminada: %v", err)
	}
}

func TestCleanup_RetentionWindow(t *testing.T) {
	svc, repo := newTestService(t) // RetentionDays = 30
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// SENT reciente: dentro de la ventana, sobrevive.
	recent := uuid.New()
	_ = repo.Save(ctx, &repository.EmailOutbox{
		ID: recent, RecipientEmail: "r@example.com", Subject: "s", Body: "b",
		Status: repository.EmailStatusSent, RetryCount: 1,
		CreatedAt: now.AddDate(0, 0, -10),
	})
	// SENT viejo: fuera de la ventana, se elimina.
	stale := uuid.New()
	_ = repo.Save(ctx, &repository.EmailOutbox{
		ID: stale, RecipientEmail: "v@example.com", Subject: "s", Body: "b",
		Status: repository.EmailStatusSent, RetryCount: 1,
		CreatedAt: now.AddDate(0, 0, -45),
	})

	deleted, err := svc.CleanupOldEmails(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if _, err := repo.FindByID(ctx, recent); err != nil {
		t.Errorf("fila SENT reciente eliminada: %v", err)
	}
	if _, err := repo.FindByID(ctx, stale); !repository.IsNotFound(err) {
		t.Errorf("fila SENT vieja sigue presente (err=%v)", err)
	}
}

func TestGetStatistics(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	seed := func(status repository.EmailStatus, n int) {
		for i := 0; i < n; i++ {
			_ = repo.Save(ctx, &repository.EmailOutbox{
				ID: uuid.New(), RecipientEmail: "x@example.com", Subject: "s", Body: "b",
				Status: status, RetryCount: 1, CreatedAt: time.Now(),
			})
		}
	}
	seed(repository.EmailStatusPending, 3)
	seed(repository.EmailStatusProcessing, 1)
	seed(repository.EmailStatusSent, 5)
	seed(repository.EmailStatusFailed, 2)

	stats, err := svc.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("GetStatistics err: %v", err)
	}
	if stats.Pending != 3 || stats.Processing != 1 || stats.Sent != 5 || stats.Failed != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Total() != 11 {
		t.Errorf("total = %d, want 11", stats.Total())
	}
}

func TestClaimForProcessing_SingleWinner(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if err := svc.SaveFailedEmail(ctx, mustMessage(t, "a@example.com"), sendErr()); err != nil {
		t.Fatal(err)
	}
	rows, _ := repo.FindRetriable(ctx, time.Now().Add(time.Hour))
	id := rows[0].ID

	ok, err := svc.ClaimForProcessing(ctx, id)
	if err != nil || !ok {
		t.Fatalf("primer claim: ok=%v err=%v", ok, err)
	}
	ok, err = svc.ClaimForProcessing(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("segundo claim ganó, se esperaba false")
	}
}
