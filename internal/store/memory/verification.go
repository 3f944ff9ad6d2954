package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/boardhole/internal/domain/repository"
)

type verificationRepo struct {
	mu   sync.RWMutex
	rows map[string]repository.EmailVerification
}

func (r *verificationRepo) Save(ctx context.Context, v *repository.EmailVerification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[v.Code] = *v
	return nil
}

func (r *verificationRepo) FindByCodeAndUnused(ctx context.Context, code string) (*repository.EmailVerification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.rows[code]
	if !ok || v.Used {
		return nil, repository.ErrNotFound
	}
	out := v
	return &out, nil
}

func (r *verificationRepo) FindValid(ctx context.Context, userID uuid.UUID, code string, now time.Time) (*repository.EmailVerification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.rows[code]
	if !ok || v.UserID != userID || !v.IsValid(now) {
		return nil, repository.ErrNotFound
	}
	out := v
	return &out, nil
}

func (r *verificationRepo) FindUnusedByUser(ctx context.Context, userID uuid.UUID) ([]*repository.EmailVerification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*repository.EmailVerification
	for _, v := range r.rows {
		if v.UserID == userID && !v.Used {
			c := v
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *verificationRepo) InvalidateUserVerifications(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.rows {
		if v.UserID == userID && !v.Used {
			v.Used = true
			r.rows[k] = v
		}
	}
	return nil
}

func (r *verificationRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for k, v := range r.rows {
		if v.Used || v.IsExpired(now) {
			delete(r.rows, k)
			deleted++
		}
	}
	return deleted, nil
}
