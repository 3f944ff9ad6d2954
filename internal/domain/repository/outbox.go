package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EmailStatus representa el estado de un registro del outbox.
type EmailStatus string

const (
	// EmailStatusPending espera un intento de envío (inicial o reintento).
	EmailStatusPending EmailStatus = "PENDING"
	// EmailStatusProcessing fue reclamado por un worker del sweep.
	EmailStatusProcessing EmailStatus = "PROCESSING"
	// EmailStatusSent terminal: el envío fue exitoso.
	EmailStatusSent EmailStatus = "SENT"
	// EmailStatusFailed terminal: se agotaron los reintentos.
	EmailStatusFailed EmailStatus = "FAILED"
)

// IsValid retorna true si el estado es conocido.
func (s EmailStatus) IsValid() bool {
	switch s {
	case EmailStatusPending, EmailStatusProcessing, EmailStatusSent, EmailStatusFailed:
		return true
	}
	return false
}

// IsTerminal retorna true para SENT y FAILED (no admiten más transiciones).
func (s EmailStatus) IsTerminal() bool {
	return s == EmailStatusSent || s == EmailStatusFailed
}

// EmailOutbox representa un email cuyo envío inmediato falló y queda
// persistido para reintentos. A lo sumo un registro PENDING por destinatario.
type EmailOutbox struct {
	ID             uuid.UUID
	RecipientEmail string
	Subject        string
	Body           string
	Status         EmailStatus
	RetryCount     int
	LastError      *string
	NextRetryAt    *time.Time
	CreatedAt      time.Time
}

// MarkSent transiciona el registro a SENT y limpia el próximo reintento.
func (o *EmailOutbox) MarkSent() {
	o.Status = EmailStatusSent
	o.NextRetryAt = nil
}

// MarkProcessing transiciona el registro a PROCESSING.
func (o *EmailOutbox) MarkProcessing() {
	o.Status = EmailStatusProcessing
}

// CanRetry retorna true si el registro está PENDING y su ventana de
// reintento ya venció (NextRetryAt nulo = elegible de inmediato).
func (o *EmailOutbox) CanRetry(now time.Time) bool {
	return o.Status == EmailStatusPending &&
		(o.NextRetryAt == nil || o.NextRetryAt.Before(now))
}

// OutboxStats agrupa los conteos por estado del outbox.
type OutboxStats struct {
	Pending    int64
	Processing int64
	Sent       int64
	Failed     int64
}

// Total retorna la suma de todos los estados.
func (s OutboxStats) Total() int64 {
	return s.Pending + s.Processing + s.Sent + s.Failed
}

// EmailOutboxRepository define operaciones sobre los registros del outbox.
type EmailOutboxRepository interface {
	// Save inserta o actualiza un registro.
	Save(ctx context.Context, outbox *EmailOutbox) error

	// FindByID busca un registro por ID.
	// Retorna ErrNotFound si no existe.
	FindByID(ctx context.Context, id uuid.UUID) (*EmailOutbox, error)

	// ExistsByRecipientAndStatus verifica si existe un registro para el
	// destinatario en el estado dado (dedup de PENDING).
	ExistsByRecipientAndStatus(ctx context.Context, recipientEmail string, status EmailStatus) (bool, error)

	// FindRetriable lista registros PENDING con NextRetryAt <= now o nulo.
	FindRetriable(ctx context.Context, now time.Time) ([]*EmailOutbox, error)

	// ClaimProcessing transiciona PENDING→PROCESSING de forma atómica.
	// Retorna false si otro worker ya reclamó el registro (o ya no está PENDING).
	ClaimProcessing(ctx context.Context, id uuid.UUID) (bool, error)

	// CountByStatus cuenta registros en el estado dado.
	CountByStatus(ctx context.Context, status EmailStatus) (int64, error)

	// DeleteOld elimina registros en los estados dados creados antes de before.
	// Retorna el número de registros eliminados.
	DeleteOld(ctx context.Context, statuses []EmailStatus, before time.Time) (int, error)
}
