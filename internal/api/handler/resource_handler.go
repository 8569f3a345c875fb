package handler

import (
	"encoding/json"
	"net/http"

	"donor_registry/internal/api/middleware"
	"donor_registry/internal/app/service"
	"donor_registry/internal/common"
	"donor_registry/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// ResourceHandler serves the CRUD routes of one descriptor-defined resource.
// Reads need any valid token; writes need an admin token.
type ResourceHandler struct {
	svc   *service.ResourceService
	guard *middleware.Guard
}

func NewResourceHandler(svc *service.ResourceService, guard *middleware.Guard) *ResourceHandler {
	return &ResourceHandler{svc: svc, guard: guard}
}

type createdResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

func (h *ResourceHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(read chi.Router) {
		read.Use(h.guard.Authenticated)
		read.Get("/", h.list)
		read.Get("/{id}", h.get)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(h.guard.RequireRole(model.RoleAdmin))
		admin.Post("/", h.create)
		admin.Put("/{id}", h.update)
		admin.Delete("/{id}", h.delete)
	})
}

func (h *ResourceHandler) list(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.List(r.Context())
	if err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *ResourceHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	rows, err := h.svc.Get(r.Context(), id)
	if err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *ResourceHandler) create(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	id, err := h.svc.Create(r.Context(), body)
	if err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, createdResponse{
		Message: h.svc.Descriptor().AddedMessage(),
		ID:      id,
	})
}

func (h *ResourceHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	if err := h.svc.Update(r.Context(), id, body); err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, h.svc.Descriptor().UpdatedMessage())
}

func (h *ResourceHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		common.RespondWithError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, h.svc.Descriptor().DeletedMessage())
}
