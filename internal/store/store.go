// Package store selecciona y arma el backend de persistencia: postgres
// para producción, memoria para desarrollo y tests.
package store

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/boardhole/internal/config"
	"github.com/dropDatabas3/boardhole/internal/domain/repository"
	"github.com/dropDatabas3/boardhole/internal/store/memory"
	"github.com/dropDatabas3/boardhole/internal/store/pg"
)

// Store agrupa los repositorios del dominio sobre un mismo backend.
type Store interface {
	Outbox() repository.EmailOutboxRepository
	Verifications() repository.EmailVerificationRepository
	Users() repository.UserRepository

	// Ping verifica que el backend responde.
	Ping(ctx context.Context) error

	// Close libera las conexiones (idempotente).
	Close()
}

// Open arma el Store según config.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return pg.New(ctx, cfg.Storage.DSN, pg.Tuning{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Storage.Driver)
	}
}
