package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glossline/salon-bookings/internal/domain"
)

// UsersRepo is the persistence port for user accounts. Email uniqueness is
// enforced by the store's unique constraint, not by a check-then-insert.
type UsersRepo interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	FindByResetToken(ctx context.Context, token string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) (*domain.User, error)
	SetVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	MarkEmailVerified(ctx context.Context, userID string) error
	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	ResetPassword(ctx context.Context, userID, passwordHash string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

type UsersRepoImpl struct{ pool *pgxpool.Pool }

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepoImpl { return &UsersRepoImpl{pool: pool} }

const userCols = `id, email, password_hash, first_name, last_name, phone,
country, city, avatar_id, role, enabled, email_verified,
email_verification_token, email_verification_expiry,
reset_token, reset_token_expiry, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone,
		&u.Country, &u.City, &u.AvatarID, &u.Role, &u.Enabled, &u.EmailVerified,
		&u.EmailVerificationToken, &u.EmailVerificationExpiry,
		&u.ResetToken, &u.ResetTokenExpiry, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *UsersRepoImpl) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (email, password_hash, first_name, last_name, phone,
                   country, city, avatar_id, role, enabled, email_verified,
                   email_verification_token, email_verification_expiry,
                   created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING ` + userCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone,
		u.Country, u.City, u.AvatarID, u.Role, u.Enabled, u.EmailVerified,
		u.EmailVerificationToken, u.EmailVerificationExpiry,
		u.CreatedAt, u.UpdatedAt,
	))
}

func (r *UsersRepoImpl) FindByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *UsersRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *UsersRepoImpl) FindByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email_verification_token=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q, token))
}

func (r *UsersRepoImpl) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE reset_token=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q, token))
}

func (r *UsersRepoImpl) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	const q = `
UPDATE users SET
    email=$2, password_hash=$3, first_name=$4, last_name=$5, phone=$6,
    country=$7, city=$8, avatar_id=$9, role=$10, enabled=$11, updated_at=$12
WHERE id=$1
RETURNING ` + userCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone,
		u.Country, u.City, u.AvatarID, u.Role, u.Enabled, u.UpdatedAt,
	))
}

func (r *UsersRepoImpl) SetVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	const q = `
UPDATE users
SET email_verification_token=$2, email_verification_expiry=$3, updated_at=now()
WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, userID, token, expiresAt)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkEmailVerified flips the flag and clears the token pair in one statement.
func (r *UsersRepoImpl) MarkEmailVerified(ctx context.Context, userID string) error {
	const q = `
UPDATE users
SET email_verified=true, email_verification_token=NULL,
    email_verification_expiry=NULL, updated_at=now()
WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, userID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UsersRepoImpl) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	const q = `
UPDATE users SET reset_token=$2, reset_token_expiry=$3, updated_at=now()
WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, userID, token, expiresAt)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ResetPassword stores the new hash and clears the reset pair atomically.
func (r *UsersRepoImpl) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	const q = `
UPDATE users
SET password_hash=$2, reset_token=NULL, reset_token_expiry=NULL, updated_at=now()
WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, userID, passwordHash)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UsersRepoImpl) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	const q = `UPDATE users SET password_hash=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, userID, passwordHash)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UsersRepoImpl) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM users WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UsersRepoImpl) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + userCols + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

var _ UsersRepo = (*UsersRepoImpl)(nil)
