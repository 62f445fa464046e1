package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/recoverytrack/apiserver/internal/logger"
	"github.com/recoverytrack/apiserver/internal/services"
	"github.com/recoverytrack/apiserver/types"
)

// MoodHandler records and lists mood check-ins.
type MoodHandler struct {
	moodService *services.MoodService
	log         *logger.Logger
}

func NewMoodHandler(moodService *services.MoodService, log *logger.Logger) *MoodHandler {
	return &MoodHandler{moodService: moodService, log: log}
}

// MoodRouter registers mood-log routes. Every route requires authentication.
func MoodRouter(r chi.Router, moodService *services.MoodService, log *logger.Logger) {
	handler := NewMoodHandler(moodService, log)

	r.Post("/", handler.Create)
	r.Get("/{userID}", handler.List)
}

// List returns the user's most recent check-ins, newest first.
func (h *MoodHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireSelf(w, r, "userID")
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	logs, err := h.moodService.ListByUser(r.Context(), userID, limit)
	if err != nil {
		respondError(r.Context(), h.log, w, err, "mood logs not found", "Failed to fetch mood logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *MoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	subject, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateMoodLogRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	if req.UserID != nil && *req.UserID != subject {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	log, err := h.moodService.Create(r.Context(), types.NewMoodLog{
		UserID:       subject,
		Mood:         req.Mood,
		CravingLevel: types.CravingLevel(req.CravingLevel),
		Notes:        req.Notes,
	})
	if err != nil {
		respondError(r.Context(), h.log, w, err, "user not found", "Failed to create mood log")
		return
	}
	writeJSON(w, http.StatusCreated, log)
}

// CreateMoodLogRequest is a mood check-in. UserID is optional and, when
// present, must match the caller.
type CreateMoodLogRequest struct {
	UserID       *int64  `json:"userId"`
	Mood         int     `json:"mood" validate:"required,min=1,max=10"`
	CravingLevel string  `json:"cravingLevel" validate:"required,oneof=none mild moderate strong"`
	Notes        *string `json:"notes"`
}
