package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glossline/salon-bookings/internal/domain"
)

// RefreshTokensRepo is the persistence port for refresh tokens. A user holds
// at most one live token; Replace swaps it inside a transaction so a
// concurrent login cannot leave two behind.
type RefreshTokensRepo interface {
	Replace(ctx context.Context, userID, token string, expiresAt time.Time) (*domain.RefreshToken, error)
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	DeleteByUserID(ctx context.Context, userID string) error
}

type RefreshTokensRepoImpl struct{ pool *pgxpool.Pool }

func NewRefreshTokensRepo(pool *pgxpool.Pool) *RefreshTokensRepoImpl {
	return &RefreshTokensRepoImpl{pool: pool}
}

func (r *RefreshTokensRepoImpl) Replace(ctx context.Context, userID, token string, expiresAt time.Time) (*domain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id=$1`, userID); err != nil {
		return nil, mapError(err)
	}

	var rt domain.RefreshToken
	err = tx.QueryRow(ctx, `
INSERT INTO refresh_tokens (user_id, token, expires_at)
VALUES ($1,$2,$3)
RETURNING id, user_id, token, expires_at`,
		userID, token, expiresAt,
	).Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt)
	if err != nil {
		return nil, mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &rt, nil
}

func (r *RefreshTokensRepoImpl) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	const q = `SELECT id, user_id, token, expires_at FROM refresh_tokens WHERE token=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rt domain.RefreshToken
	if err := r.pool.QueryRow(ctx, q, token).Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt); err != nil {
		return nil, mapError(err)
	}
	return &rt, nil
}

func (r *RefreshTokensRepoImpl) DeleteByUserID(ctx context.Context, userID string) error {
	const q = `DELETE FROM refresh_tokens WHERE user_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, userID)
	return mapError(err)
}

var _ RefreshTokensRepo = (*RefreshTokensRepoImpl)(nil)
