package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/recoverytrack/apiserver/internal/logger"
	"github.com/recoverytrack/apiserver/internal/services"
	"github.com/recoverytrack/apiserver/types"
)

// MedicationHandler manages the caller's medications and dose log.
type MedicationHandler struct {
	medicationService *services.MedicationService
	log               *logger.Logger
}

func NewMedicationHandler(medicationService *services.MedicationService, log *logger.Logger) *MedicationHandler {
	return &MedicationHandler{medicationService: medicationService, log: log}
}

// MedicationRouter registers /medications routes. Every route requires
// authentication.
func MedicationRouter(r chi.Router, medicationService *services.MedicationService, log *logger.Logger) {
	handler := NewMedicationHandler(medicationService, log)

	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Get("/{id}", handler.Get)
	r.Patch("/{id}", handler.Update)
}

// MedicationLogRouter registers /medication-logs routes. Every route requires
// authentication.
func MedicationLogRouter(r chi.Router, medicationService *services.MedicationService, log *logger.Logger) {
	handler := NewMedicationHandler(medicationService, log)

	r.Get("/", handler.ListLogs)
	r.Post("/", handler.LogDose)
}

// List returns the caller's active medications.
func (h *MedicationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	meds, err := h.medicationService.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(r.Context(), h.log, w, err, "medications not found", "Failed to fetch medications")
		return
	}
	writeJSON(w, http.StatusOK, meds)
}

func (h *MedicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	med, err := h.medicationService.Get(r.Context(), userID, id)
	if err != nil {
		respondError(r.Context(), h.log, w, err, "medication not found", "failed to load medication")
		return
	}
	writeJSON(w, http.StatusOK, med)
}

func (h *MedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateMedicationRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	med, err := h.medicationService.Create(r.Context(), types.NewMedication{
		UserID:    userID,
		Name:      strings.TrimSpace(req.Name),
		Dosage:    strings.TrimSpace(req.Dosage),
		Frequency: strings.TrimSpace(req.Frequency),
		NextDose:  req.NextDose,
	})
	if err != nil {
		respondError(r.Context(), h.log, w, err, "user not found", "Failed to create medication")
		return
	}
	writeJSON(w, http.StatusCreated, med)
}

func (h *MedicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateMedicationRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	med, err := h.medicationService.Update(r.Context(), userID, id, types.MedicationPatch{
		Name:      req.Name,
		Dosage:    req.Dosage,
		Frequency: req.Frequency,
		NextDose:  req.NextDose,
		IsActive:  req.IsActive,
	})
	if err != nil {
		respondError(r.Context(), h.log, w, err, "medication not found", "failed to update medication")
		return
	}
	writeJSON(w, http.StatusOK, med)
}

// ListLogs returns the caller's dose log, newest first.
func (h *MedicationHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	logs, err := h.medicationService.ListLogs(r.Context(), userID)
	if err != nil {
		respondError(r.Context(), h.log, w, err, "medication logs not found", "Failed to fetch medication logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *MedicationHandler) LogDose(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateMedicationLogRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	log, err := h.medicationService.LogDose(r.Context(), types.NewMedicationLog{
		MedicationID: req.MedicationID,
		UserID:       userID,
		Taken:        *req.Taken,
	})
	if err != nil {
		respondError(r.Context(), h.log, w, err, "medication not found", "Failed to log medication")
		return
	}
	writeJSON(w, http.StatusCreated, log)
}

type CreateMedicationRequest struct {
	Name      string     `json:"name" validate:"required"`
	Dosage    string     `json:"dosage" validate:"required"`
	Frequency string     `json:"frequency" validate:"required"`
	NextDose  *time.Time `json:"nextDose"`
}

type UpdateMedicationRequest struct {
	Name      *string    `json:"name" validate:"omitempty,min=1"`
	Dosage    *string    `json:"dosage" validate:"omitempty,min=1"`
	Frequency *string    `json:"frequency" validate:"omitempty,min=1"`
	NextDose  *time.Time `json:"nextDose"`
	IsActive  *bool      `json:"isActive"`
}

type CreateMedicationLogRequest struct {
	MedicationID int64 `json:"medicationId" validate:"required,gt=0"`
	Taken        *bool `json:"taken" validate:"required"`
}
