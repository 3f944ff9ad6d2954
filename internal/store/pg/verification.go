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

type verificationRepo struct {
	pool *pgxpool.Pool
}

const verificationColumns = `code, user_id, new_email, type, expires_at, used, created_at`

func scanVerification(row pgx.Row) (*repository.EmailVerification, error) {
	var v repository.EmailVerification
	err := row.Scan(
		&v.Code, &v.UserID, &v.NewEmail, &v.Type,
		&v.ExpiresAt, &v.Used, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *verificationRepo) Save(ctx context.Context, v *repository.EmailVerification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO email_verifications (`+verificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET used = EXCLUDED.used
	`, v.Code, v.UserID, v.NewEmail, v.Type, v.ExpiresAt, v.Used, v.CreatedAt)
	return err
}

func (r *verificationRepo) FindByCodeAndUnused(ctx context.Context, code string) (*repository.EmailVerification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+verificationColumns+` FROM email_verifications
		WHERE code = $1 AND used = FALSE
	`, code)
	return scanVerification(row)
}

func (r *verificationRepo) FindValid(ctx context.Context, userID uuid.UUID, code string, now time.Time) (*repository.EmailVerification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+verificationColumns+` FROM email_verifications
		WHERE code = $1 AND user_id = $2 AND used = FALSE AND expires_at > $3
	`, code, userID, now)
	return scanVerification(row)
}

func (r *verificationRepo) FindUnusedByUser(ctx context.Context, userID uuid.UUID) ([]*repository.EmailVerification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+verificationColumns+` FROM email_verifications
		WHERE user_id = $1 AND used = FALSE
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*repository.EmailVerification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Invalidar códigos previos del mismo usuario, sin borrar.
func (r *verificationRepo) InvalidateUserVerifications(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE email_verifications SET used = TRUE
		WHERE user_id = $1 AND used = FALSE
	`, userID)
	return err
}

func (r *verificationRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM email_verifications
		WHERE used = TRUE OR expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
