package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/glossline/salon-bookings/internal/booking"
	"github.com/glossline/salon-bookings/internal/domain"
	"github.com/glossline/salon-bookings/internal/http/middleware"
	"github.com/glossline/salon-bookings/internal/http/response"
)

// BookingsHandler exposes the booking lifecycle. Guest creation is open,
// everything that touches other people's bookings requires a staff role.
type BookingsHandler struct {
	ledger *booking.Ledger
	linker *booking.GuestLinkResolver
	jwt    *middleware.JWT
}

func NewBookingsHandler(ledger *booking.Ledger, linker *booking.GuestLinkResolver, jwt *middleware.JWT) *BookingsHandler {
	return &BookingsHandler{ledger: ledger, linker: linker, jwt: jwt}
}

func (h *BookingsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/guest", h.createGuest)

	r.Group(func(r chi.Router) {
		r.Use(h.jwt.Require)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Get("/user/{userID}", h.listByUser)
		r.Put("/{id}/cancel", h.cancel)
		r.Post("/{id}/link", h.link)
		r.Post("/link-all", h.linkAll)

		r.Group(func(r chi.Router) {
			r.Use(h.jwt.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin))
			r.Get("/", h.list)
			r.Get("/email/{email}", h.listByEmail)
			r.Get("/service/{serviceID}", h.listByService)
			r.Put("/{id}", h.update)
			r.Put("/{id}/status", h.updateStatus)
			r.Delete("/{id}", h.delete)
		})
	})

	return r
}

func (h *BookingsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	b, err := h.ledger.Create(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, b)
}

func (h *BookingsHandler) createGuest(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	b, err := h.ledger.CreateGuest(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, b)
}

func (h *BookingsHandler) get(w http.ResponseWriter, r *http.Request) {
	b, err := h.ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

func (h *BookingsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	bookings, err := h.ledger.ListAll(r.Context(), limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, bookings)
}

func (h *BookingsHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.ledger.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, bookings)
}

func (h *BookingsHandler) listByEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(chi.URLParam(r, "email"))
	bookings, err := h.ledger.ListByCustomerEmail(r.Context(), email)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, bookings)
}

func (h *BookingsHandler) listByService(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.ledger.ListByService(r.Context(), chi.URLParam(r, "serviceID"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, bookings)
}

func (h *BookingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	b, err := h.ledger.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

func (h *BookingsHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	status, ok := domain.ParseBookingStatus(req.Status)
	if !ok {
		response.BadRequest(w, "unknown booking status")
		return
	}
	b, err := h.ledger.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

func (h *BookingsHandler) cancel(w http.ResponseWriter, r *http.Request) {
	var req domain.CancelBookingRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	b, err := h.ledger.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

func (h *BookingsHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingsHandler) link(w http.ResponseWriter, r *http.Request) {
	var req domain.LinkBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		response.BadRequest(w, "user id is required")
		return
	}
	b, err := h.linker.LinkOne(r.Context(), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

func (h *BookingsHandler) linkAll(w http.ResponseWriter, r *http.Request) {
	var req domain.LinkAllBookingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CustomerEmail == "" || req.UserID == "" {
		response.BadRequest(w, "customer email and user id are required")
		return
	}
	linked, err := h.linker.LinkAllByEmail(r.Context(), strings.ToLower(req.CustomerEmail), req.UserID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"linked_count": len(linked),
		"bookings":     linked,
	})
}
