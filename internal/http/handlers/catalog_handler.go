package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glossline/salon-bookings/internal/catalog"
	"github.com/glossline/salon-bookings/internal/domain"
	"github.com/glossline/salon-bookings/internal/http/middleware"
	"github.com/glossline/salon-bookings/internal/http/response"
)

// CatalogHandler serves the storefront content: service offerings,
// testimonials and gallery media. Reads are public, writes are staff only.
type CatalogHandler struct {
	catalog *catalog.Service
	jwt     *middleware.JWT
}

func NewCatalogHandler(svc *catalog.Service, jwt *middleware.JWT) *CatalogHandler {
	return &CatalogHandler{catalog: svc, jwt: jwt}
}

func (h *CatalogHandler) Routes() chi.Router {
	r := chi.NewRouter()

	staff := h.jwt.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin)

	r.Route("/services", func(r chi.Router) {
		r.Get("/", h.listServices)
		r.Get("/{id}", h.getService)
		r.Group(func(r chi.Router) {
			r.Use(h.jwt.Require, staff)
			r.Post("/", h.createService)
			r.Put("/{id}", h.updateService)
			r.Delete("/{id}", h.deleteService)
		})
	})

	r.Route("/testimonials", func(r chi.Router) {
		r.Get("/", h.listTestimonials)
		r.Post("/", h.createTestimonial)
		r.Group(func(r chi.Router) {
			r.Use(h.jwt.Require, staff)
			r.Get("/{id}", h.getTestimonial)
			r.Put("/{id}", h.updateTestimonial)
			r.Put("/{id}/approve", h.approveTestimonial)
			r.Delete("/{id}", h.deleteTestimonial)
		})
	})

	r.Route("/media", func(r chi.Router) {
		r.Get("/", h.listMedia)
		r.Get("/{id}", h.getMedia)
		r.Group(func(r chi.Router) {
			r.Use(h.jwt.Require, staff)
			r.Post("/", h.createMedia)
			r.Put("/{id}", h.updateMedia)
			r.Delete("/{id}", h.deleteMedia)
		})
	})

	return r
}

func (h *CatalogHandler) createService(w http.ResponseWriter, r *http.Request) {
	var svc domain.SalonService
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	created, err := h.catalog.CreateSalonService(r.Context(), &svc)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

func (h *CatalogHandler) getService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.catalog.GetSalonService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, svc)
}

func (h *CatalogHandler) listServices(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	services, err := h.catalog.ListSalonServices(r.Context(), activeOnly)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, services)
}

func (h *CatalogHandler) updateService(w http.ResponseWriter, r *http.Request) {
	var svc domain.SalonService
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	updated, err := h.catalog.UpdateSalonService(r.Context(), chi.URLParam(r, "id"), &svc)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *CatalogHandler) deleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteSalonService(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) createTestimonial(w http.ResponseWriter, r *http.Request) {
	var t domain.Testimonial
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	created, err := h.catalog.CreateTestimonial(r.Context(), &t)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

func (h *CatalogHandler) getTestimonial(w http.ResponseWriter, r *http.Request) {
	t, err := h.catalog.GetTestimonial(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, t)
}

func (h *CatalogHandler) listTestimonials(w http.ResponseWriter, r *http.Request) {
	approvedOnly := r.URL.Query().Get("all") != "true"
	testimonials, err := h.catalog.ListTestimonials(r.Context(), approvedOnly)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, testimonials)
}

func (h *CatalogHandler) updateTestimonial(w http.ResponseWriter, r *http.Request) {
	var t domain.Testimonial
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	updated, err := h.catalog.UpdateTestimonial(r.Context(), chi.URLParam(r, "id"), &t)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *CatalogHandler) approveTestimonial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Featured bool `json:"featured"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	t, err := h.catalog.ApproveTestimonial(r.Context(), chi.URLParam(r, "id"), req.Featured)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, t)
}

func (h *CatalogHandler) deleteTestimonial(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteTestimonial(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) createMedia(w http.ResponseWriter, r *http.Request) {
	var m domain.Media
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	created, err := h.catalog.CreateMedia(r.Context(), &m)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

func (h *CatalogHandler) getMedia(w http.ResponseWriter, r *http.Request) {
	m, err := h.catalog.GetMedia(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, m)
}

func (h *CatalogHandler) listMedia(w http.ResponseWriter, r *http.Request) {
	media, err := h.catalog.ListMedia(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, media)
}

func (h *CatalogHandler) updateMedia(w http.ResponseWriter, r *http.Request) {
	var m domain.Media
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	updated, err := h.catalog.UpdateMedia(r.Context(), chi.URLParam(r, "id"), &m)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *CatalogHandler) deleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteMedia(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
