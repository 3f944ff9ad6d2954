// Package memory implementa los repositorios del dominio sobre maps en
// memoria. Útil para desarrollo y testing; no persiste entre procesos.
package memory

import (
	"context"

	"github.com/dropDatabas3/boardhole/internal/domain/repository"
)

type Store struct {
	outbox        *outboxRepo
	verifications *verificationRepo
	users         *userRepo
}

func New() *Store {
	return &Store{
		outbox:        &outboxRepo{rows: make(map[string]repository.EmailOutbox)},
		verifications: &verificationRepo{rows: make(map[string]repository.EmailVerification)},
		users:         &userRepo{rows: make(map[string]repository.User)},
	}
}

func (s *Store) Outbox() repository.EmailOutboxRepository { return s.outbox }

func (s *Store) Verifications() repository.EmailVerificationRepository { return s.verifications }

func (s *Store) Users() repository.UserRepository { return s.users }

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() {}
