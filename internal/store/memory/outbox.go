package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/boardhole/internal/domain/repository"
)

type outboxRepo struct {
	mu   sync.RWMutex
	rows map[string]repository.EmailOutbox
}

func (r *outboxRepo) Save(ctx context.Context, o *repository.EmailOutbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[o.ID.String()] = cloneOutbox(o)
	return nil
}

func (r *outboxRepo) FindByID(ctx context.Context, id uuid.UUID) (*repository.EmailOutbox, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.rows[id.String()]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneOutbox(&o)
	return &out, nil
}

func (r *outboxRepo) ExistsByRecipientAndStatus(ctx context.Context, recipient string, status repository.EmailStatus) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.rows {
		if o.RecipientEmail == recipient && o.Status == status {
			return true, nil
		}
	}
	return false, nil
}

func (r *outboxRepo) FindRetriable(ctx context.Context, now time.Time) ([]*repository.EmailOutbox, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*repository.EmailOutbox
	for _, o := range r.rows {
		if o.Status != repository.EmailStatusPending {
			continue
		}
		if o.NextRetryAt != nil && o.NextRetryAt.After(now) {
			continue
		}
		c := cloneOutbox(&o)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ClaimProcessing hace el compare-and-swap bajo el lock de escritura, así
// que a lo sumo un caller gana para una misma fila PENDING.
func (r *outboxRepo) ClaimProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.rows[id.String()]
	if !ok || o.Status != repository.EmailStatusPending {
		return false, nil
	}
	o.Status = repository.EmailStatusProcessing
	r.rows[id.String()] = o
	return true, nil
}

func (r *outboxRepo) CountByStatus(ctx context.Context, status repository.EmailStatus) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, o := range r.rows {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *outboxRepo) DeleteOld(ctx context.Context, statuses []repository.EmailStatus, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for k, o := range r.rows {
		if !o.CreatedAt.Before(before) {
			continue
		}
		for _, s := range statuses {
			if o.Status == s {
				delete(r.rows, k)
				deleted++
				break
			}
		}
	}
	return deleted, nil
}

func cloneOutbox(o *repository.EmailOutbox) repository.EmailOutbox {
	c := *o
	if o.LastError != nil {
		v := *o.LastError
		c.LastError = &v
	}
	if o.NextRetryAt != nil {
		v := *o.NextRetryAt
		c.NextRetryAt = &v
	}
	return c
}
