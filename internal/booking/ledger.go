package booking

import (
	"context"
	"fmt"

	"github.com/glossline/salon-bookings/internal/clock"
	"github.com/glossline/salon-bookings/internal/domain"
	"github.com/glossline/salon-bookings/internal/platform/mailer"
	"github.com/glossline/salon-bookings/internal/repo/postgres"
	"github.com/glossline/salon-bookings/pkg/events"
	"github.com/glossline/salon-bookings/pkg/logger"
)

// Ledger creates bookings and walks them through their status lifecycle.
// Every new booking starts PENDING, guest or not.
type Ledger struct {
	bookings postgres.BookingsRepo
	mail     mailer.Service
	eventBus events.EventBus
	clock    clock.Clock
}

func NewLedger(bookings postgres.BookingsRepo, mail mailer.Service, eventBus events.EventBus, clk clock.Clock) *Ledger {
	return &Ledger{bookings: bookings, mail: mail, eventBus: eventBus, clock: clk}
}

func (l *Ledger) Create(ctx context.Context, req *domain.BookingRequest) (*domain.Booking, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	now := l.clock.Now()
	b := &domain.Booking{
		UserID:          req.UserID,
		ServiceID:       req.ServiceID,
		ServiceTitle:    req.ServiceTitle,
		Status:          domain.BookingPending,
		BookingDateTime: req.BookingDateTime,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Notes:           req.Notes,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		Address:         req.Address,
		IsHomeService:   req.IsHomeService,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := l.bookings.Create(ctx, b)
	if err != nil {
		return nil, err
	}

	l.sendConfirmation(ctx, created)
	l.publishCreated(ctx, created)
	return created, nil
}

// CreateGuest is Create with the user identity stripped off.
func (l *Ledger) CreateGuest(ctx context.Context, req *domain.BookingRequest) (*domain.Booking, error) {
	req.UserID = ""
	return l.Create(ctx, req)
}

func (l *Ledger) Get(ctx context.Context, id string) (*domain.Booking, error) {
	return l.bookings.FindByID(ctx, id)
}

func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	return l.bookings.ListByUser(ctx, userID)
}

func (l *Ledger) ListByService(ctx context.Context, serviceID string) ([]domain.Booking, error) {
	return l.bookings.ListByService(ctx, serviceID)
}

func (l *Ledger) ListByCustomerEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	return l.bookings.ListByCustomerEmail(ctx, email)
}

func (l *Ledger) ListAll(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	return l.bookings.ListAll(ctx, limit, offset)
}

// Update is a full replacement. It keeps the original created_at, the
// current status and the transition stamps; only the booking's descriptive
// fields change through this path.
func (l *Ledger) Update(ctx context.Context, id string, req *domain.BookingRequest) (*domain.Booking, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	existing, err := l.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	b := &domain.Booking{
		ID:              existing.ID,
		UserID:          req.UserID,
		ServiceID:       req.ServiceID,
		ServiceTitle:    req.ServiceTitle,
		Status:          existing.Status,
		BookingDateTime: req.BookingDateTime,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Notes:           req.Notes,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		Address:         req.Address,
		IsHomeService:   req.IsHomeService,
		CreatedAt:       existing.CreatedAt,
		UpdatedAt:       l.clock.Now(),
		ConfirmedAt:     existing.ConfirmedAt,
		CompletedAt:     existing.CompletedAt,
		CancelledAt:     existing.CancelledAt,

		CancellationReason: existing.CancellationReason,
	}
	return l.bookings.Update(ctx, b)
}

// UpdateStatus moves a booking along the lifecycle and stamps the matching
// transition time. Steps outside the lifecycle are rejected.
func (l *Ledger) UpdateStatus(ctx context.Context, id string, to domain.BookingStatus) (*domain.Booking, error) {
	b, err := l.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(b.Status, to) {
		return nil, fmt.Errorf("%w: cannot move booking from %s to %s", domain.ErrValidation, b.Status, to)
	}

	now := l.clock.Now()
	from := b.Status
	b.Status = to
	b.UpdatedAt = now
	switch to {
	case domain.BookingConfirmed:
		b.ConfirmedAt = &now
	case domain.BookingCompleted:
		b.CompletedAt = &now
	case domain.BookingCancelled:
		b.CancelledAt = &now
	}

	updated, err := l.bookings.Update(ctx, b)
	if err != nil {
		return nil, err
	}

	event := events.BookingStatusChangedEvent{
		BookingID: updated.ID,
		From:      string(from),
		To:        string(to),
		ChangedAt: now,
	}
	if err := l.eventBus.Publish(ctx, events.BookingStatusChanged, event); err != nil {
		logger.WarnContext(ctx, "failed to publish status change event", "error", err, "booking_id", updated.ID)
	}
	return updated, nil
}

// Cancel overwrites the status unconditionally, whatever state the booking
// is in. Cancelling twice, or cancelling a completed booking, succeeds and
// restamps cancelled_at.
func (l *Ledger) Cancel(ctx context.Context, id, reason string) (*domain.Booking, error) {
	b, err := l.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now()
	b.Status = domain.BookingCancelled
	b.CancelledAt = &now
	b.UpdatedAt = now
	b.CancellationReason = reason

	cancelled, err := l.bookings.Update(ctx, b)
	if err != nil {
		return nil, err
	}

	event := events.BookingCancelledEvent{
		BookingID:   cancelled.ID,
		Reason:      reason,
		CancelledAt: now,
	}
	if err := l.eventBus.Publish(ctx, events.BookingCancelled, event); err != nil {
		logger.WarnContext(ctx, "failed to publish cancellation event", "error", err, "booking_id", cancelled.ID)
	}
	return cancelled, nil
}

func (l *Ledger) Delete(ctx context.Context, id string) error {
	return l.bookings.Delete(ctx, id)
}

func (l *Ledger) sendConfirmation(ctx context.Context, b *domain.Booking) {
	location := "salon"
	if b.IsHomeService {
		location = "home"
	}
	body := fmt.Sprintf(
		`<p>Dear %s,</p>
<p>Thank you for booking with us! Your appointment request has been received.</p>
<table>
<tr><td><b>Service:</b></td><td>%s</td></tr>
<tr><td><b>Date:</b></td><td>%s</td></tr>
<tr><td><b>Time:</b></td><td>%s</td></tr>
<tr><td><b>Location:</b></td><td>%s service</td></tr>
</table>`,
		b.CustomerName,
		b.ServiceTitle,
		b.BookingDateTime.Format("2 Jan, 2006"),
		b.BookingDateTime.Format("03:04 PM"),
		location,
	)
	if err := l.mail.Send(b.CustomerEmail, "Booking confirmation", body); err != nil {
		logger.ErrorContext(ctx, "failed to send booking confirmation", "error", err, "booking_id", b.ID)
	}
}

func (l *Ledger) publishCreated(ctx context.Context, b *domain.Booking) {
	event := events.BookingCreatedEvent{
		BookingID:       b.ID,
		ServiceID:       b.ServiceID,
		ServiceTitle:    b.ServiceTitle,
		CustomerEmail:   b.CustomerEmail,
		CustomerName:    b.CustomerName,
		BookingDateTime: b.BookingDateTime,
		IsHomeService:   b.IsHomeService,
		Guest:           b.IsGuestBooking(),
		CreatedAt:       b.CreatedAt,
	}
	if err := l.eventBus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.WarnContext(ctx, "failed to publish booking created event", "error", err, "booking_id", b.ID)
	}
}
