package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/recoverytrack/apiserver/internal/logger"
	"github.com/recoverytrack/apiserver/internal/services"
	"github.com/recoverytrack/apiserver/types"
)

// ResourceHandler serves the curated resource library.
type ResourceHandler struct {
	resourceService *services.ResourceService
	log             *logger.Logger
}

func NewResourceHandler(resourceService *services.ResourceService, log *logger.Logger) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService, log: log}
}

// ResourceRouter registers resource routes. Listing is public; writes go
// through requireAuth.
func ResourceRouter(r chi.Router, resourceService *services.ResourceService, requireAuth func(http.Handler) http.Handler, log *logger.Logger) {
	handler := NewResourceHandler(resourceService, log)

	r.Get("/", handler.List)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", handler.Create)
		r.Patch("/{id}/active", handler.SetActive)
	})
}

// List returns active resources, optionally narrowed by ?category=.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	resources, err := h.resourceService.List(r.Context(), category)
	if err != nil {
		respondError(r.Context(), h.log, w, err, "resources not found", "Failed to fetch resources")
		return
	}
	writeJSON(w, http.StatusOK, resources)
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateResourceRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	resource, err := h.resourceService.Create(r.Context(), types.NewResource{
		Title:       strings.TrimSpace(req.Title),
		Type:        types.ResourceType(req.Type),
		Content:     req.Content,
		Description: req.Description,
		Duration:    req.Duration,
		Category:    strings.TrimSpace(req.Category),
	})
	if err != nil {
		respondError(r.Context(), h.log, w, err, "resource not found", "failed to create resource")
		return
	}
	writeJSON(w, http.StatusCreated, resource)
}

func (h *ResourceHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SetActiveRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	resource, err := h.resourceService.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		respondError(r.Context(), h.log, w, err, "resource not found", "failed to update resource")
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

type CreateResourceRequest struct {
	Title       string  `json:"title" validate:"required"`
	Type        string  `json:"type" validate:"required,oneof=article video audio"`
	Content     string  `json:"content" validate:"required"`
	Description *string `json:"description"`
	Duration    *string `json:"duration"`
	Category    string  `json:"category" validate:"required"`
}

// SetActiveRequest toggles catalogue visibility.
type SetActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
