package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VerificationType indica el propósito del código de verificación.
type VerificationType string

const (
	// VerificationSignup confirma el email de la cuenta recién creada.
	VerificationSignup VerificationType = "SIGNUP"
	// VerificationChangeEmail confirma un cambio de dirección de email.
	VerificationChangeEmail VerificationType = "CHANGE_EMAIL"
)

// IsValid retorna true si el tipo es conocido.
func (t VerificationType) IsValid() bool {
	return t == VerificationSignup || t == VerificationChangeEmail
}

// EmailVerification representa un código de un solo uso que liga a un
// usuario con una acción pendiente de confirmación por email.
// El código es la identidad del registro y es inmutable una vez emitido.
type EmailVerification struct {
	Code      string
	UserID    uuid.UUID
	NewEmail  string
	Type      VerificationType
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// IsExpired retorna true si el código ya venció.
func (v *EmailVerification) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

// IsValid retorna true si el código no fue usado ni expiró.
func (v *EmailVerification) IsValid(now time.Time) bool {
	return !v.Used && !v.IsExpired(now)
}

// MarkUsed consume el código (used=false → used=true, exactamente una vez).
// Retorna ErrTokenUsed si ya fue consumido y ErrTokenExpired si venció.
func (v *EmailVerification) MarkUsed(now time.Time) error {
	if v.Used {
		return ErrTokenUsed
	}
	if v.IsExpired(now) {
		return ErrTokenExpired
	}
	v.Used = true
	return nil
}

// EmailVerificationRepository define operaciones sobre códigos de verificación.
type EmailVerificationRepository interface {
	// Save inserta o actualiza un código.
	Save(ctx context.Context, verification *EmailVerification) error

	// FindByCodeAndUnused busca un código no usado.
	// Retorna ErrNotFound si no existe o ya fue usado (anti-enumeración:
	// el caller no distingue ambos casos).
	FindByCodeAndUnused(ctx context.Context, code string) (*EmailVerification, error)

	// FindValid busca un código no usado y no expirado para el usuario.
	// Retorna ErrNotFound si no existe.
	FindValid(ctx context.Context, userID uuid.UUID, code string, now time.Time) (*EmailVerification, error)

	// FindUnusedByUser lista todos los códigos no usados del usuario.
	FindUnusedByUser(ctx context.Context, userID uuid.UUID) ([]*EmailVerification, error)

	// InvalidateUserVerifications marca como usados todos los códigos no
	// usados del usuario (bulk, sin borrar).
	InvalidateUserVerifications(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired elimina códigos expirados o ya usados (cleanup job).
	// Retorna el número de registros eliminados.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
