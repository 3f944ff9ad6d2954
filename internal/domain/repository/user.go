package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User representa el agregado mínimo de usuario que el subsistema de email
// necesita: identidad, email de registro y flag de verificación.
type User struct {
	ID            uuid.UUID
	Username      string
	Name          string
	Email         string
	EmailVerified bool
	CreatedAt     time.Time
}

// VerifyEmail marca el email de la cuenta como confirmado.
func (u *User) VerifyEmail() {
	u.EmailVerified = true
}

// ChangeEmail muta el email de registro de la cuenta.
// Idempotente cuando newEmail coincide con el email actual (caso SIGNUP).
func (u *User) ChangeEmail(newEmail string) error {
	newEmail = strings.TrimSpace(newEmail)
	if newEmail == "" {
		return ErrInvalidInput
	}
	u.Email = newEmail
	return nil
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// FindByID busca un usuario por ID.
	// Retorna ErrNotFound si no existe.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Save persiste el estado actual del usuario.
	Save(ctx context.Context, user *User) error
}
