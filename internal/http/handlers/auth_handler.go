package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glossline/salon-bookings/internal/auth"
	"github.com/glossline/salon-bookings/internal/domain"
	"github.com/glossline/salon-bookings/internal/http/middleware"
	"github.com/glossline/salon-bookings/internal/http/response"
)

// AuthHandler covers registration, sessions, verification mail flows and
// account administration.
type AuthHandler struct {
	accounts     *auth.AccountService
	verification *auth.VerificationWorkflow
	jwt          *middleware.JWT
	limiter      *middleware.RateLimiter
}

func NewAuthHandler(accounts *auth.AccountService, verification *auth.VerificationWorkflow, jwt *middleware.JWT, limiter *middleware.RateLimiter) *AuthHandler {
	return &AuthHandler{accounts: accounts, verification: verification, jwt: jwt, limiter: limiter}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.limiter.Middleware())
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/forgot-password", h.forgotPassword)
		r.Post("/resend-verification", h.resendVerification)
	})

	r.Post("/refresh-token", h.refresh)
	r.Get("/verify-email", h.verifyEmail)
	r.Post("/verify-email", h.verifyEmail)
	r.Post("/reset-password", h.resetPassword)

	r.Group(func(r chi.Router) {
		r.Use(h.jwt.Require)
		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
		r.Put("/{id}", h.updateUser)
		r.Post("/{id}/change-password", h.changePassword)

		r.Group(func(r chi.Router) {
			r.Use(h.jwt.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin))
			r.Get("/", h.listUsers)
			r.Get("/{id}", h.getUser)
			r.Delete("/{id}", h.deleteUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.jwt.RequireRole(domain.RoleSuperAdmin))
			r.Post("/admins", h.createAdmin)
			r.Delete("/admins", h.removeAdmin)
		})
	})

	return r
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	resp, err := h.accounts.Register(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	resp, err := h.accounts.Login(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		response.BadRequest(w, "refresh token is required")
		return
	}
	resp, err := h.accounts.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Logout(r.Context(), user.ID); err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.BadRequest(w, "token is required")
		return
	}
	ok, err := h.verification.VerifyByToken(r.Context(), token)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if !ok {
		response.Unauthorized(w, "invalid or expired verification token")
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}

func (h *AuthHandler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		response.BadRequest(w, "email is required")
		return
	}
	if err := h.verification.ResendVerification(r.Context(), req.Email); err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "verification email sent"})
}

func (h *AuthHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		response.BadRequest(w, "email is required")
		return
	}
	if err := h.verification.InitiatePasswordReset(r.Context(), req.Email); err != nil {
		response.FromError(w, err)
		return
	}
	// Same answer for known and unknown emails.
	response.JSON(w, http.StatusOK, map[string]string{"message": "if the email exists, a reset link has been sent"})
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	ok, err := h.verification.CompletePasswordReset(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if !ok {
		response.Unauthorized(w, "invalid or expired reset token")
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "password reset"})
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if id != user.ID && user.Role == domain.RoleUser {
		response.Forbidden(w, "cannot change another user's password")
		return
	}

	var req domain.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	changed, err := h.verification.ChangePassword(r.Context(), id, req.OldPassword, req.NewPassword)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if !changed {
		response.Unauthorized(w, "old password does not match")
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, user.ToUserInfo())
}

func (h *AuthHandler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, user.ToUserInfo())
}

func (h *AuthHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	users, err := h.accounts.ListUsers(r.Context(), limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}
	infos := make([]*domain.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].ToUserInfo())
	}
	response.JSON(w, http.StatusOK, infos)
}

func (h *AuthHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if id != user.ID && user.Role == domain.RoleUser {
		response.Forbidden(w, "cannot update another user's profile")
		return
	}

	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	updated, err := h.accounts.UpdateProfile(r.Context(), id, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated.ToUserInfo())
}

func (h *AuthHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) createAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	user, err := h.accounts.CreateAdmin(r.Context(), req.Email, req.FirstName, req.LastName)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, user.ToUserInfo())
}

func (h *AuthHandler) removeAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		response.BadRequest(w, "email is required")
		return
	}
	if err := h.accounts.RemoveAdmin(r.Context(), req.Email); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// currentUser resolves the authenticated user from the token claims. Writes
// the error response itself when resolution fails.
func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	claims := middleware.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "authentication required")
		return nil, false
	}
	user, err := h.accounts.GetByEmail(r.Context(), claims.Subject)
	if err != nil {
		response.FromError(w, err)
		return nil, false
	}
	return user, true
}
