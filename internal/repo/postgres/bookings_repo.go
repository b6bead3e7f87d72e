package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glossline/salon-bookings/internal/domain"
)

// BookingsRepo is the persistence port for bookings. Slot uniqueness is a
// partial unique index on (service_id, booking_datetime); a violation comes
// back as domain.ErrDuplicate.
type BookingsRepo interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	FindByID(ctx context.Context, id string) (*domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	ListByService(ctx context.Context, serviceID string) ([]domain.Booking, error)
	ListByCustomerEmail(ctx context.Context, email string) ([]domain.Booking, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Booking, error)
	LinkAllByEmail(ctx context.Context, customerEmail, userID string, now time.Time) ([]domain.Booking, error)
}

type BookingsRepoImpl struct{ pool *pgxpool.Pool }

func NewBookingsRepo(pool *pgxpool.Pool) *BookingsRepoImpl { return &BookingsRepoImpl{pool: pool} }

const bookingCols = `id, user_id, service_id, service_title, status,
booking_datetime, duration_minutes, price, notes,
customer_name, customer_phone, customer_email,
address, is_home_service,
created_at, updated_at, confirmed_at, completed_at, cancelled_at,
cancellation_reason`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b      domain.Booking
		userID *string
	)
	err := row.Scan(
		&b.ID, &userID, &b.ServiceID, &b.ServiceTitle, &b.Status,
		&b.BookingDateTime, &b.DurationMinutes, &b.Price, &b.Notes,
		&b.CustomerName, &b.CustomerPhone, &b.CustomerEmail,
		&b.Address, &b.IsHomeService,
		&b.CreatedAt, &b.UpdatedAt, &b.ConfirmedAt, &b.CompletedAt, &b.CancelledAt,
		&b.CancellationReason,
	)
	if err != nil {
		return nil, mapError(err)
	}
	if userID != nil {
		b.UserID = *userID
	}
	return &b, nil
}

// nullableID maps the empty string onto SQL NULL for uuid columns.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func (r *BookingsRepoImpl) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	const q = `
INSERT INTO bookings (user_id, service_id, service_title, status,
                      booking_datetime, duration_minutes, price, notes,
                      customer_name, customer_phone, customer_email,
                      address, is_home_service, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING ` + bookingCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanBooking(r.pool.QueryRow(ctx, q,
		nullableID(b.UserID), b.ServiceID, b.ServiceTitle, b.Status,
		b.BookingDateTime, b.DurationMinutes, b.Price, b.Notes,
		b.CustomerName, b.CustomerPhone, b.CustomerEmail,
		b.Address, b.IsHomeService, b.CreatedAt, b.UpdatedAt,
	))
}

func (r *BookingsRepoImpl) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanBooking(r.pool.QueryRow(ctx, q, id))
}

// Update is a full replacement; created_at is preserved by the caller.
func (r *BookingsRepoImpl) Update(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	const q = `
UPDATE bookings SET
    user_id=$2, service_id=$3, service_title=$4, status=$5,
    booking_datetime=$6, duration_minutes=$7, price=$8, notes=$9,
    customer_name=$10, customer_phone=$11, customer_email=$12,
    address=$13, is_home_service=$14, updated_at=$15,
    confirmed_at=$16, completed_at=$17, cancelled_at=$18,
    cancellation_reason=$19
WHERE id=$1
RETURNING ` + bookingCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanBooking(r.pool.QueryRow(ctx, q,
		b.ID, nullableID(b.UserID), b.ServiceID, b.ServiceTitle, b.Status,
		b.BookingDateTime, b.DurationMinutes, b.Price, b.Notes,
		b.CustomerName, b.CustomerPhone, b.CustomerEmail,
		b.Address, b.IsHomeService, b.UpdatedAt,
		b.ConfirmedAt, b.CompletedAt, b.CancelledAt,
		b.CancellationReason,
	))
}

func (r *BookingsRepoImpl) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM bookings WHERE id=$1`
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

func (r *BookingsRepoImpl) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE user_id=$1 ORDER BY booking_datetime DESC`
	return r.list(ctx, q, userID)
}

func (r *BookingsRepoImpl) ListByService(ctx context.Context, serviceID string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE service_id=$1 ORDER BY booking_datetime DESC`
	return r.list(ctx, q, serviceID)
}

func (r *BookingsRepoImpl) ListByCustomerEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE customer_email=$1 ORDER BY booking_datetime DESC`
	return r.list(ctx, q, email)
}

func (r *BookingsRepoImpl) ListAll(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + bookingCols + ` FROM bookings ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.list(ctx, q, limit, offset)
}

// LinkAllByEmail assigns every guest booking under an email to a user in one
// statement. Already-owned bookings are never touched, so repeating the call
// returns an empty set.
func (r *BookingsRepoImpl) LinkAllByEmail(ctx context.Context, customerEmail, userID string, now time.Time) ([]domain.Booking, error) {
	const q = `
UPDATE bookings SET user_id=$2, updated_at=$3
WHERE customer_email=$1 AND user_id IS NULL
RETURNING ` + bookingCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, customerEmail, userID, now)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *BookingsRepoImpl) list(ctx context.Context, q string, args ...any) ([]domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	bs := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bs = append(bs, *b)
	}
	return bs, rows.Err()
}

var _ BookingsRepo = (*BookingsRepoImpl)(nil)
