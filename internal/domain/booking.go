package domain

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingInProgress BookingStatus = "IN_PROGRESS"
	BookingCompleted  BookingStatus = "COMPLETED"
	BookingCancelled  BookingStatus = "CANCELLED"
	BookingNoShow     BookingStatus = "NO_SHOW"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingInProgress, BookingCompleted, BookingCancelled, BookingNoShow:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// forwardTransitions lists the allowed next steps of the booking lifecycle.
// Cancellation and no-show are handled separately: cancel overwrites any
// status, no-show is reachable from everywhere.
var forwardTransitions = map[BookingStatus]BookingStatus{
	BookingPending:    BookingConfirmed,
	BookingConfirmed:  BookingInProgress,
	BookingInProgress: BookingCompleted,
}

// CanTransition reports whether a status change is part of the lifecycle.
func CanTransition(from, to BookingStatus) bool {
	switch to {
	case BookingNoShow:
		return true
	case BookingCancelled:
		return from == BookingPending || from == BookingConfirmed
	default:
		return forwardTransitions[from] == to
	}
}

type Booking struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id,omitempty"` // empty for guest bookings
	ServiceID    string        `json:"service_id"`
	ServiceTitle string        `json:"service_title"`
	Status       BookingStatus `json:"status"`

	BookingDateTime time.Time `json:"booking_date_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           float64   `json:"price"`
	Notes           string    `json:"notes,omitempty"`

	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`

	Address       string `json:"address,omitempty"`
	IsHomeService bool   `json:"is_home_service"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty"`
}

func (b *Booking) IsGuestBooking() bool {
	return b.UserID == ""
}

type BookingRequest struct {
	UserID          string    `json:"user_id,omitempty"`
	ServiceID       string    `json:"service_id"`
	ServiceTitle    string    `json:"service_title"`
	BookingDateTime time.Time `json:"booking_date_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           float64   `json:"price"`
	Notes           string    `json:"notes,omitempty"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerEmail   string    `json:"customer_email"`
	Address         string    `json:"address,omitempty"`
	IsHomeService   bool      `json:"is_home_service"`
}

func (r *BookingRequest) Validate() error {
	if r.ServiceID == "" {
		return fmt.Errorf("service id is required")
	}
	if r.ServiceTitle == "" {
		return fmt.Errorf("service title is required")
	}
	if r.BookingDateTime.IsZero() {
		return fmt.Errorf("booking date and time is required")
	}
	if r.DurationMinutes <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if r.CustomerName == "" {
		return fmt.Errorf("customer name is required")
	}
	if r.CustomerPhone == "" {
		return fmt.Errorf("customer phone is required")
	}
	if r.CustomerEmail == "" {
		return fmt.Errorf("customer email is required")
	}
	if !isValidEmail(r.CustomerEmail) {
		return fmt.Errorf("invalid customer email format")
	}
	if r.IsHomeService && r.Address == "" {
		return fmt.Errorf("address is required for home service")
	}
	return nil
}

func (r *BookingRequest) Normalize() {
	r.CustomerEmail = strings.ToLower(strings.TrimSpace(r.CustomerEmail))
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	r.Address = strings.TrimSpace(r.Address)
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

type LinkBookingRequest struct {
	UserID string `json:"user_id"`
}

type LinkAllBookingsRequest struct {
	CustomerEmail string `json:"customer_email"`
	UserID        string `json:"user_id"`
}
