package booking_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/glossline/salon-bookings/internal/domain"
)

// ---------- Mocks ----------

type memBookingsRepo struct {
	mu       sync.Mutex
	nextID   int
	bookings map[string]*domain.Booking
	// slot index mirrors the partial unique index on (service_id, datetime)
	createErr error
}

func newMemBookingsRepo() *memBookingsRepo {
	return &memBookingsRepo{bookings: make(map[string]*domain.Booking)}
}

func (m *memBookingsRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, existing := range m.bookings {
		if existing.ServiceID == b.ServiceID &&
			existing.BookingDateTime.Equal(b.BookingDateTime) &&
			existing.Status != domain.BookingCancelled &&
			existing.Status != domain.BookingNoShow {
			return nil, domain.ErrDuplicate
		}
	}
	m.nextID++
	cp := *b
	cp.ID = fmt.Sprintf("booking-%d", m.nextID)
	m.bookings[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memBookingsRepo) FindByID(_ context.Context, id string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBookingsRepo) Update(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	m.bookings[b.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memBookingsRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.bookings, id)
	return nil
}

func (m *memBookingsRepo) ListByUser(_ context.Context, userID string) ([]domain.Booking, error) {
	return m.filter(func(b *domain.Booking) bool { return b.UserID == userID })
}

func (m *memBookingsRepo) ListByService(_ context.Context, serviceID string) ([]domain.Booking, error) {
	return m.filter(func(b *domain.Booking) bool { return b.ServiceID == serviceID })
}

func (m *memBookingsRepo) ListByCustomerEmail(_ context.Context, email string) ([]domain.Booking, error) {
	return m.filter(func(b *domain.Booking) bool { return b.CustomerEmail == email })
}

func (m *memBookingsRepo) ListAll(_ context.Context, limit, offset int) ([]domain.Booking, error) {
	return m.filter(func(*domain.Booking) bool { return true })
}

func (m *memBookingsRepo) LinkAllByEmail(_ context.Context, customerEmail, userID string, now time.Time) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var linked []domain.Booking
	for _, b := range m.bookings {
		if b.CustomerEmail == customerEmail && b.UserID == "" {
			b.UserID = userID
			b.UpdatedAt = now
			linked = append(linked, *b)
		}
	}
	return linked, nil
}

func (m *memBookingsRepo) filter(keep func(*domain.Booking) bool) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Booking
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, *b)
		}
	}
	return out, nil
}

type mockMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *mockMailer) Send(toEmail, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{to: toEmail, subject: subject, body: htmlBody})
	return nil
}

func (m *mockMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *mockMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}
