package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glossline/salon-bookings/internal/domain"
)

type ServicesRepo interface {
	Create(ctx context.Context, s *domain.SalonService) (*domain.SalonService, error)
	FindByID(ctx context.Context, id string) (*domain.SalonService, error)
	Update(ctx context.Context, s *domain.SalonService) (*domain.SalonService, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, activeOnly bool) ([]domain.SalonService, error)
}

type TestimonialsRepo interface {
	Create(ctx context.Context, t *domain.Testimonial) (*domain.Testimonial, error)
	FindByID(ctx context.Context, id string) (*domain.Testimonial, error)
	Update(ctx context.Context, t *domain.Testimonial) (*domain.Testimonial, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, approvedOnly bool) ([]domain.Testimonial, error)
}

type MediaRepo interface {
	Create(ctx context.Context, m *domain.Media) (*domain.Media, error)
	FindByID(ctx context.Context, id string) (*domain.Media, error)
	Update(ctx context.Context, m *domain.Media) (*domain.Media, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, category string) ([]domain.Media, error)
}

// --- services ---

type ServicesRepoImpl struct{ pool *pgxpool.Pool }

func NewServicesRepo(pool *pgxpool.Pool) *ServicesRepoImpl { return &ServicesRepoImpl{pool: pool} }

const serviceCols = `id, title, description, price, duration, features, image_url, active, created_at, updated_at`

func scanService(row pgx.Row) (*domain.SalonService, error) {
	var s domain.SalonService
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Price, &s.Duration,
		&s.Features, &s.ImageURL, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (r *ServicesRepoImpl) Create(ctx context.Context, s *domain.SalonService) (*domain.SalonService, error) {
	const q = `
INSERT INTO services (title, description, price, duration, features, image_url, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING ` + serviceCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanService(r.pool.QueryRow(ctx, q,
		s.Title, s.Description, s.Price, s.Duration, s.Features, s.ImageURL,
		s.Active, s.CreatedAt, s.UpdatedAt))
}

func (r *ServicesRepoImpl) FindByID(ctx context.Context, id string) (*domain.SalonService, error) {
	const q = `SELECT ` + serviceCols + ` FROM services WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanService(r.pool.QueryRow(ctx, q, id))
}

func (r *ServicesRepoImpl) Update(ctx context.Context, s *domain.SalonService) (*domain.SalonService, error) {
	const q = `
UPDATE services SET title=$2, description=$3, price=$4, duration=$5,
    features=$6, image_url=$7, active=$8, updated_at=$9
WHERE id=$1
RETURNING ` + serviceCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanService(r.pool.QueryRow(ctx, q,
		s.ID, s.Title, s.Description, s.Price, s.Duration, s.Features,
		s.ImageURL, s.Active, s.UpdatedAt))
}

func (r *ServicesRepoImpl) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, `DELETE FROM services WHERE id=$1`, id)
}

func (r *ServicesRepoImpl) List(ctx context.Context, activeOnly bool) ([]domain.SalonService, error) {
	q := `SELECT ` + serviceCols + ` FROM services ORDER BY created_at DESC`
	if activeOnly {
		q = `SELECT ` + serviceCols + ` FROM services WHERE active ORDER BY created_at DESC`
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]domain.SalonService, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// --- testimonials ---

type TestimonialsRepoImpl struct{ pool *pgxpool.Pool }

func NewTestimonialsRepo(pool *pgxpool.Pool) *TestimonialsRepoImpl {
	return &TestimonialsRepoImpl{pool: pool}
}

const testimonialCols = `id, user_id, name, rating, text, image_url, service, date, approved, featured, created_at, updated_at`

func scanTestimonial(row pgx.Row) (*domain.Testimonial, error) {
	var (
		t      domain.Testimonial
		userID *string
	)
	err := row.Scan(&t.ID, &userID, &t.Name, &t.Rating, &t.Text, &t.ImageURL,
		&t.Service, &t.Date, &t.Approved, &t.Featured, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if userID != nil {
		t.UserID = *userID
	}
	return &t, nil
}

func (r *TestimonialsRepoImpl) Create(ctx context.Context, t *domain.Testimonial) (*domain.Testimonial, error) {
	const q = `
INSERT INTO testimonials (user_id, name, rating, text, image_url, service, date, approved, featured, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING ` + testimonialCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanTestimonial(r.pool.QueryRow(ctx, q,
		nullableID(t.UserID), t.Name, t.Rating, t.Text, t.ImageURL, t.Service,
		t.Date, t.Approved, t.Featured, t.CreatedAt, t.UpdatedAt))
}

func (r *TestimonialsRepoImpl) FindByID(ctx context.Context, id string) (*domain.Testimonial, error) {
	const q = `SELECT ` + testimonialCols + ` FROM testimonials WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanTestimonial(r.pool.QueryRow(ctx, q, id))
}

func (r *TestimonialsRepoImpl) Update(ctx context.Context, t *domain.Testimonial) (*domain.Testimonial, error) {
	const q = `
UPDATE testimonials SET name=$2, rating=$3, text=$4, image_url=$5,
    service=$6, date=$7, approved=$8, featured=$9, updated_at=$10
WHERE id=$1
RETURNING ` + testimonialCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanTestimonial(r.pool.QueryRow(ctx, q,
		t.ID, t.Name, t.Rating, t.Text, t.ImageURL, t.Service, t.Date,
		t.Approved, t.Featured, t.UpdatedAt))
}

func (r *TestimonialsRepoImpl) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, `DELETE FROM testimonials WHERE id=$1`, id)
}

func (r *TestimonialsRepoImpl) List(ctx context.Context, approvedOnly bool) ([]domain.Testimonial, error) {
	q := `SELECT ` + testimonialCols + ` FROM testimonials ORDER BY date DESC`
	if approvedOnly {
		q = `SELECT ` + testimonialCols + ` FROM testimonials WHERE approved ORDER BY date DESC`
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]domain.Testimonial, 0)
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// --- media ---

type MediaRepoImpl struct{ pool *pgxpool.Pool }

func NewMediaRepo(pool *pgxpool.Pool) *MediaRepoImpl { return &MediaRepoImpl{pool: pool} }

const mediaCols = `id, name, type, url, before_url, after_url, category, alt, size, active, created_at, updated_at`

func scanMedia(row pgx.Row) (*domain.Media, error) {
	var m domain.Media
	err := row.Scan(&m.ID, &m.Name, &m.Type, &m.URL, &m.BeforeURL, &m.AfterURL,
		&m.Category, &m.Alt, &m.Size, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}

func (r *MediaRepoImpl) Create(ctx context.Context, m *domain.Media) (*domain.Media, error) {
	const q = `
INSERT INTO media (name, type, url, before_url, after_url, category, alt, size, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING ` + mediaCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanMedia(r.pool.QueryRow(ctx, q,
		m.Name, m.Type, m.URL, m.BeforeURL, m.AfterURL, m.Category, m.Alt,
		m.Size, m.Active, m.CreatedAt, m.UpdatedAt))
}

func (r *MediaRepoImpl) FindByID(ctx context.Context, id string) (*domain.Media, error) {
	const q = `SELECT ` + mediaCols + ` FROM media WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanMedia(r.pool.QueryRow(ctx, q, id))
}

func (r *MediaRepoImpl) Update(ctx context.Context, m *domain.Media) (*domain.Media, error) {
	const q = `
UPDATE media SET name=$2, type=$3, url=$4, before_url=$5, after_url=$6,
    category=$7, alt=$8, size=$9, active=$10, updated_at=$11
WHERE id=$1
RETURNING ` + mediaCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanMedia(r.pool.QueryRow(ctx, q,
		m.ID, m.Name, m.Type, m.URL, m.BeforeURL, m.AfterURL, m.Category,
		m.Alt, m.Size, m.Active, m.UpdatedAt))
}

func (r *MediaRepoImpl) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, `DELETE FROM media WHERE id=$1`, id)
}

func (r *MediaRepoImpl) List(ctx context.Context, category string) ([]domain.Media, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		rows pgx.Rows
		err  error
	)
	if category != "" {
		rows, err = r.pool.Query(ctx, `SELECT `+mediaCols+` FROM media WHERE category=$1 ORDER BY created_at DESC`, category)
	} else {
		rows, err = r.pool.Query(ctx, `SELECT `+mediaCols+` FROM media ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]domain.Media, 0)
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func deleteByID(ctx context.Context, pool *pgxpool.Pool, q, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := pool.Exec(ctx, q, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var (
	_ ServicesRepo     = (*ServicesRepoImpl)(nil)
	_ TestimonialsRepo = (*TestimonialsRepoImpl)(nil)
	_ MediaRepo        = (*MediaRepoImpl)(nil)
)
