package pg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/boardhole/internal/domain/repository"
)

type outboxRepo struct {
	pool *pgxpool.Pool
}

const outboxColumns = `id, recipient_email, subject, body, status, retry_count, last_error, next_retry_at, created_at`

func scanOutbox(row pgx.Row) (*repository.EmailOutbox, error) {
	var o repository.EmailOutbox
	err := row.Scan(
		&o.ID, &o.RecipientEmail, &o.Subject, &o.Body,
		&o.Status, &o.RetryCount, &o.LastError, &o.NextRetryAt, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *outboxRepo) Save(ctx context.Context, o *repository.EmailOutbox) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO email_outbox (`+outboxColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			retry_count = EXCLUDED.retry_count,
			last_error = EXCLUDED.last_error,
			next_retry_at = EXCLUDED.next_retry_at
	`, o.ID, o.RecipientEmail, o.Subject, o.Body,
		o.Status, o.RetryCount, o.LastError, o.NextRetryAt, o.CreatedAt)
	return err
}

func (r *outboxRepo) FindByID(ctx context.Context, id uuid.UUID) (*repository.EmailOutbox, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+outboxColumns+` FROM email_outbox WHERE id = $1
	`, id)
	return scanOutbox(row)
}

func (r *outboxRepo) ExistsByRecipientAndStatus(ctx context.Context, recipient string, status repository.EmailStatus) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM email_outbox WHERE recipient_email = $1 AND status = $2
		)
	`, recipient, status).Scan(&exists)
	return exists, err
}

func (r *outboxRepo) FindRetriable(ctx context.Context, now time.Time) ([]*repository.EmailOutbox, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+outboxColumns+` FROM email_outbox
		WHERE status = $1 AND (next_retry_at IS NULL OR next_retry_at <= $2)
		ORDER BY created_at
	`, repository.EmailStatusPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*repository.EmailOutbox
	for rows.Next() {
		o, err := scanOutbox(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ClaimProcessing reclama la fila con un UPDATE condicionado al estado:
// solo un caller observa rowsAffected=1 para una misma fila PENDING.
func (r *outboxRepo) ClaimProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE email_outbox SET status = $1
		WHERE id = $2 AND status = $3
	`, repository.EmailStatusProcessing, id, repository.EmailStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *outboxRepo) CountByStatus(ctx context.Context, status repository.EmailStatus) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM email_outbox WHERE status = $1
	`, status).Scan(&n)
	return n, err
}

func (r *outboxRepo) DeleteOld(ctx context.Context, statuses []repository.EmailStatus, before time.Time) (int, error) {
	ss := make([]string, len(statuses))
	for i, s := range statuses {
		ss[i] = string(s)
	}
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM email_outbox
		WHERE status = ANY($1) AND created_at < $2
	`, ss, before)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
