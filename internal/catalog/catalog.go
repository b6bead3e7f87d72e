package catalog

import (
	"context"
	"fmt"

	"github.com/glossline/salon-bookings/internal/clock"
	"github.com/glossline/salon-bookings/internal/domain"
	"github.com/glossline/salon-bookings/internal/repo/postgres"
)

// Service is the content side of the salon: the service offerings customers
// book, plus testimonials and gallery media shown on the storefront.
type Service struct {
	services     postgres.ServicesRepo
	testimonials postgres.TestimonialsRepo
	media        postgres.MediaRepo
	clock        clock.Clock
}

func NewService(services postgres.ServicesRepo, testimonials postgres.TestimonialsRepo, media postgres.MediaRepo, clk clock.Clock) *Service {
	return &Service{services: services, testimonials: testimonials, media: media, clock: clk}
}

func (s *Service) CreateSalonService(ctx context.Context, svc *domain.SalonService) (*domain.SalonService, error) {
	if err := svc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	now := s.clock.Now()
	svc.CreatedAt = now
	svc.UpdatedAt = now
	return s.services.Create(ctx, svc)
}

func (s *Service) GetSalonService(ctx context.Context, id string) (*domain.SalonService, error) {
	return s.services.FindByID(ctx, id)
}

func (s *Service) UpdateSalonService(ctx context.Context, id string, svc *domain.SalonService) (*domain.SalonService, error) {
	if err := svc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	existing, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	svc.ID = existing.ID
	svc.CreatedAt = existing.CreatedAt
	svc.UpdatedAt = s.clock.Now()
	return s.services.Update(ctx, svc)
}

func (s *Service) DeleteSalonService(ctx context.Context, id string) error {
	return s.services.Delete(ctx, id)
}

func (s *Service) ListSalonServices(ctx context.Context, activeOnly bool) ([]domain.SalonService, error) {
	return s.services.List(ctx, activeOnly)
}

// Testimonials arrive unapproved and stay hidden from public listings until
// an admin flips the flag.
func (s *Service) CreateTestimonial(ctx context.Context, t *domain.Testimonial) (*domain.Testimonial, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	now := s.clock.Now()
	t.Approved = false
	t.Featured = false
	if t.Date.IsZero() {
		t.Date = now
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return s.testimonials.Create(ctx, t)
}

func (s *Service) GetTestimonial(ctx context.Context, id string) (*domain.Testimonial, error) {
	return s.testimonials.FindByID(ctx, id)
}

func (s *Service) UpdateTestimonial(ctx context.Context, id string, t *domain.Testimonial) (*domain.Testimonial, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	existing, err := s.testimonials.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.ID = existing.ID
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = s.clock.Now()
	return s.testimonials.Update(ctx, t)
}

func (s *Service) ApproveTestimonial(ctx context.Context, id string, featured bool) (*domain.Testimonial, error) {
	t, err := s.testimonials.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Approved = true
	t.Featured = featured
	t.UpdatedAt = s.clock.Now()
	return s.testimonials.Update(ctx, t)
}

func (s *Service) DeleteTestimonial(ctx context.Context, id string) error {
	return s.testimonials.Delete(ctx, id)
}

func (s *Service) ListTestimonials(ctx context.Context, approvedOnly bool) ([]domain.Testimonial, error) {
	return s.testimonials.List(ctx, approvedOnly)
}

func (s *Service) CreateMedia(ctx context.Context, m *domain.Media) (*domain.Media, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	now := s.clock.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	return s.media.Create(ctx, m)
}

func (s *Service) GetMedia(ctx context.Context, id string) (*domain.Media, error) {
	return s.media.FindByID(ctx, id)
}

func (s *Service) UpdateMedia(ctx context.Context, id string, m *domain.Media) (*domain.Media, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	existing, err := s.media.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.ID = existing.ID
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = s.clock.Now()
	return s.media.Update(ctx, m)
}

func (s *Service) DeleteMedia(ctx context.Context, id string) error {
	return s.media.Delete(ctx, id)
}

func (s *Service) ListMedia(ctx context.Context, category string) ([]domain.Media, error) {
	return s.media.List(ctx, category)
}
