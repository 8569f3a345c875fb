package handler

import (
	"net/http"

	"donor_registry/internal/api/middleware"
	"donor_registry/internal/app/service"
	"donor_registry/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
	guard       *middleware.Guard
}

func NewAuthHandler(authService *service.AuthService, guard *middleware.Guard) *AuthHandler {
	return &AuthHandler{authService: authService, guard: guard}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.With(h.guard.Authenticated).Post("/logout", h.logout)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithError(w, r, err)
		return
	}

	if _, err := h.authService.Register(r.Context(), req); err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusCreated, "User registered successfully.")
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	if err := h.authService.Logout(r.Context(), identity); err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Logged out successfully.")
}

// WhoAmI echoes the identity carried by the presented token.
func (h *AuthHandler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message": "Token is valid!",
		"user":    identity,
	})
}
