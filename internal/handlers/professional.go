package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/recoverytrack/apiserver/internal/logger"
	"github.com/recoverytrack/apiserver/internal/services"
	"github.com/recoverytrack/apiserver/types"
)

// ProfessionalHandler serves the professional-support directory.
type ProfessionalHandler struct {
	professionalService *services.ProfessionalService
	log                 *logger.Logger
}

func NewProfessionalHandler(professionalService *services.ProfessionalService, log *logger.Logger) *ProfessionalHandler {
	return &ProfessionalHandler{professionalService: professionalService, log: log}
}

// ProfessionalRouter registers directory routes. Listing is public; writes go
// through requireAuth.
func ProfessionalRouter(r chi.Router, professionalService *services.ProfessionalService, requireAuth func(http.Handler) http.Handler, log *logger.Logger) {
	handler := NewProfessionalHandler(professionalService, log)

	r.Get("/", handler.List)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", handler.Create)
		r.Patch("/{id}/active", handler.SetActive)
	})
}

func (h *ProfessionalHandler) List(w http.ResponseWriter, r *http.Request) {
	professionals, err := h.professionalService.List(r.Context())
	if err != nil {
		respondError(r.Context(), h.log, w, err, "professionals not found", "Failed to fetch professionals")
		return
	}
	writeJSON(w, http.StatusOK, professionals)
}

func (h *ProfessionalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProfessionalRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	professional, err := h.professionalService.Create(r.Context(), types.NewProfessional{
		Name:           strings.TrimSpace(req.Name),
		Type:           strings.TrimSpace(req.Type),
		Contact:        strings.TrimSpace(req.Contact),
		Availability:   req.Availability,
		Specialization: req.Specialization,
	})
	if err != nil {
		respondError(r.Context(), h.log, w, err, "professional not found", "failed to create professional")
		return
	}
	writeJSON(w, http.StatusCreated, professional)
}

func (h *ProfessionalHandler) SetActive(w http.ResponseWriter, r *http.Request) {
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

	professional, err := h.professionalService.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		respondError(r.Context(), h.log, w, err, "professional not found", "failed to update professional")
		return
	}
	writeJSON(w, http.StatusOK, professional)
}

type CreateProfessionalRequest struct {
	Name           string  `json:"name" validate:"required"`
	Type           string  `json:"type" validate:"required"`
	Contact        string  `json:"contact" validate:"required"`
	Availability   *string `json:"availability"`
	Specialization *string `json:"specialization"`
}
