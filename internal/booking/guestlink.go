package booking

import (
	"context"

	"github.com/glossline/salon-bookings/internal/clock"
	"github.com/glossline/salon-bookings/internal/domain"
	"github.com/glossline/salon-bookings/internal/repo/postgres"
	"github.com/glossline/salon-bookings/pkg/events"
	"github.com/glossline/salon-bookings/pkg/logger"
)

// GuestLinkResolver attaches guest bookings to a user identity. It runs
// automatically right after registration and on demand when a logged-in user
// claims older bookings made under their email.
type GuestLinkResolver struct {
	bookings postgres.BookingsRepo
	eventBus events.EventBus
	clock    clock.Clock
}

func NewGuestLinkResolver(bookings postgres.BookingsRepo, eventBus events.EventBus, clk clock.Clock) *GuestLinkResolver {
	return &GuestLinkResolver{bookings: bookings, eventBus: eventBus, clock: clk}
}

// LinkOne claims a single booking. Bookings that already belong to someone
// are refused, whoever the owner is.
func (r *GuestLinkResolver) LinkOne(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	b, err := r.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsGuestBooking() {
		return nil, domain.ErrNotGuestBooking
	}

	now := r.clock.Now()
	b.UserID = userID
	b.UpdatedAt = now
	linked, err := r.bookings.Update(ctx, b)
	if err != nil {
		return nil, err
	}

	r.publishLinked(ctx, linked.ID, userID)
	return linked, nil
}

// LinkAllByEmail absorbs every guest booking under an email. Idempotent: a
// second call with nothing new to claim returns an empty slice.
func (r *GuestLinkResolver) LinkAllByEmail(ctx context.Context, customerEmail, userID string) ([]domain.Booking, error) {
	linked, err := r.bookings.LinkAllByEmail(ctx, customerEmail, userID, r.clock.Now())
	if err != nil {
		return nil, err
	}
	for i := range linked {
		r.publishLinked(ctx, linked[i].ID, userID)
	}
	return linked, nil
}

func (r *GuestLinkResolver) publishLinked(ctx context.Context, bookingID, userID string) {
	event := events.BookingLinkedEvent{
		BookingID: bookingID,
		UserID:    userID,
		LinkedAt:  r.clock.Now(),
	}
	if err := r.eventBus.Publish(ctx, events.BookingLinked, event); err != nil {
		logger.WarnContext(ctx, "failed to publish booking linked event", "error", err, "booking_id", bookingID)
	}
}
