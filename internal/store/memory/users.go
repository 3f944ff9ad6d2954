package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dropDatabas3/boardhole/internal/domain/repository"
)

type userRepo struct {
	mu   sync.RWMutex
	rows map[string]repository.User
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.rows[id.String()]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := u
	return &out, nil
}

func (r *userRepo) Save(ctx context.Context, u *repository.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[u.ID.String()] = *u
	return nil
}
