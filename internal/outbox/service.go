// Package outbox implementa el motor de reintentos de email: registros
// durables para envíos fallidos, política de backoff y limpieza por
// retención. Garantiza entrega at-least-once junto con el Sweeper.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/boardhole/internal/domain/repository"
	"github.com/dropDatabas3/boardhole/internal/email"
	"github.com/dropDatabas3/boardhole/internal/observability/logger"
)

// Config contiene los parámetros del motor de reintentos.
type Config struct {
	// MaxRetryCount tope de intentos antes de pasar a FAILED. Mínimo 1.
	MaxRetryCount int

	// RetentionDays ventana de retención para registros terminales.
	RetentionDays int
}

// Service decide cuándo un envío fallido se vuelve registro durable, qué
// registros están listos para reintento y cómo los actualiza cada intento.
type Service struct {
	repo          repository.EmailOutboxRepository
	maxRetryCount int
	retentionDays int
	now           func() time.Time
}

// NewService crea el motor de reintentos.
func NewService(repo repository.EmailOutboxRepository, cfg Config) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("outbox: repository is required")
	}
	if cfg.MaxRetryCount < 1 {
		cfg.MaxRetryCount = 10
	}
	if cfg.RetentionDays < 0 {
		cfg.RetentionDays = 30
	}
	return &Service{
		repo:          repo,
		maxRetryCount: cfg.MaxRetryCount,
		retentionDays: cfg.RetentionDays,
		now:           time.Now,
	}, nil
}

// MaxRetryCount retorna el tope de intentos configurado.
func (s *Service) MaxRetryCount() int { return s.maxRetryCount }

// SaveFailedEmail persiste un email cuyo envío inmediato falló.
// Si ya hay un registro PENDING para el destinatario es un no-op: el
// reintento ya está agendado y duplicarlo rompería la invariante de dedup.
func (s *Service) SaveFailedEmail(ctx context.Context, msg email.EmailMessage, sendErr error) error {
	log := logger.From(ctx).With(
		logger.Op("SaveFailedEmail"),
		logger.Recipient(msg.RecipientEmail()),
	)

	exists, err := s.repo.ExistsByRecipientAndStatus(ctx, msg.RecipientEmail(), repository.EmailStatusPending)
	if err != nil {
		return fmt.Errorf("outbox: check pending: %w", err)
	}
	if exists {
		log.Warn("pending outbox email already exists, skipping")
		return nil
	}

	now := s.now()
	nextRetry := now.Add(RetryDelay(1))
	var lastError *string
	if sendErr != nil {
		msg := sendErr.Error()
		lastError = &msg
	}

	row := &repository.EmailOutbox{
		ID:             uuid.New(),
		RecipientEmail: msg.RecipientEmail(),
		Subject:        msg.Subject(),
		Body:           msg.Body(),
		Status:         repository.EmailStatusPending,
		RetryCount:     1,
		LastError:      lastError,
		NextRetryAt:    &nextRetry,
		CreatedAt:      now,
	}
	if err := s.repo.Save(ctx, row); err != nil {
		return fmt.Errorf("outbox: save failed email: %w", err)
	}

	log.Info("failed email queued in outbox",
		logger.OutboxID(row.ID.String()),
		logger.RetryCount(row.RetryCount),
	)
	return nil
}

// FindRetriableEmails lista los registros PENDING cuya ventana de reintento
// ya venció (NextRetryAt nulo = elegible de inmediato).
func (s *Service) FindRetriableEmails(ctx context.Context) ([]*repository.EmailOutbox, error) {
	return s.repo.FindRetriable(ctx, s.now())
}

// ClaimForProcessing reclama un registro PENDING→PROCESSING de forma
// atómica. Retorna false si otro worker llegó primero.
func (s *Service) ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.ClaimProcessing(ctx, id)
}

// UpdateStatus persiste el estado en memoria de un registro.
func (s *Service) UpdateStatus(ctx context.Context, row *repository.EmailOutbox) error {
	if err := s.repo.Save(ctx, row); err != nil {
		return fmt.Errorf("outbox: update status: %w", err)
	}
	logger.From(ctx).Debug("outbox status updated",
		logger.OutboxID(row.ID.String()),
		logger.OutboxStatus(string(row.Status)),
		logger.RetryCount(row.RetryCount),
	)
	return nil
}

// MarkAsSent transiciona el registro a SENT.
// Un id inexistente se absorbe en silencio: el registro pudo haber sido
// limpiado por retención y ya no hay nada que hacer.
func (s *Service) MarkAsSent(ctx context.Context, id uuid.UUID) error {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("outbox: find for mark sent: %w", err)
	}

	row.MarkSent()
	if err := s.repo.Save(ctx, row); err != nil {
		return fmt.Errorf("outbox: mark sent: %w", err)
	}

	logger.From(ctx).Info("outbox email sent",
		logger.OutboxID(row.ID.String()),
		logger.Recipient(row.RecipientEmail),
	)
	return nil
}

// RecordFailure registra un intento fallido: incrementa retryCount y decide
// entre reprogramar (PENDING + backoff) o dar por perdido (FAILED).
// Un id inexistente se absorbe en silencio, igual que MarkAsSent.
func (s *Service) RecordFailure(ctx context.Context, id uuid.UUID, errMsg string) error {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("outbox: find for record failure: %w", err)
	}

	row.RetryCount++
	if errMsg != "" {
		row.LastError = &errMsg
	}

	log := logger.From(ctx).With(
		logger.OutboxID(row.ID.String()),
		logger.Recipient(row.RecipientEmail),
		logger.RetryCount(row.RetryCount),
	)

	if row.RetryCount >= s.maxRetryCount {
		row.Status = repository.EmailStatusFailed
		row.NextRetryAt = nil
		log.Error("outbox email exhausted retries", logger.String("last_error", errMsg))
	} else {
		row.Status = repository.EmailStatusPending
		next := s.now().Add(RetryDelay(row.RetryCount))
		row.NextRetryAt = &next
		log.Warn("outbox email send failed, retry scheduled",
			logger.String("last_error", errMsg),
			logger.String("next_retry_at", next.Format(time.RFC3339)),
		)
	}

	if err := s.repo.Save(ctx, row); err != nil {
		return fmt.Errorf("outbox: record failure: %w", err)
	}
	return nil
}

// CleanupOldEmails elimina registros terminales (SENT/FAILED) más viejos que
// la ventana de retención. Nunca toca PENDING ni PROCESSING.
func (s *Service) CleanupOldEmails(ctx context.Context) (int, error) {
	before := s.now().AddDate(0, 0, -s.retentionDays)
	statuses := []repository.EmailStatus{repository.EmailStatusSent, repository.EmailStatusFailed}

	deleted, err := s.repo.DeleteOld(ctx, statuses, before)
	if err != nil {
		return 0, fmt.Errorf("outbox: cleanup: %w", err)
	}
	if deleted > 0 {
		logger.From(ctx).Info("old outbox emails cleaned up",
			logger.Count(deleted),
			logger.Int("retention_days", s.retentionDays),
		)
	}
	return deleted, nil
}

// GetStatistics retorna los conteos por estado al momento de la llamada.
func (s *Service) GetStatistics(ctx context.Context) (repository.OutboxStats, error) {
	var stats repository.OutboxStats
	var err error

	if stats.Pending, err = s.repo.CountByStatus(ctx, repository.EmailStatusPending); err != nil {
		return repository.OutboxStats{}, fmt.Errorf("outbox: count pending: %w", err)
	}
	if stats.Processing, err = s.repo.CountByStatus(ctx, repository.EmailStatusProcessing); err != nil {
		return repository.OutboxStats{}, fmt.Errorf("outbox: count processing: %w", err)
	}
	if stats.Sent, err = s.repo.CountByStatus(ctx, repository.EmailStatusSent); err != nil {
		return repository.OutboxStats{}, fmt.Errorf("outbox: count sent: %w", err)
	}
	if stats.Failed, err = s.repo.CountByStatus(ctx, repository.EmailStatusFailed); err != nil {
		return repository.OutboxStats{}, fmt.Errorf("outbox: count failed: %w", err)
	}
	return stats, nil
}
