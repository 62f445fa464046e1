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

// UserHandler serves profile reads and updates.
type UserHandler struct {
	userService *services.UserService
	log         *logger.Logger
}

func NewUserHandler(userService *services.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// UserRouter registers user routes. Every route requires authentication.
func UserRouter(r chi.Router, userService *services.UserService, log *logger.Logger) {
	handler := NewUserHandler(userService, log)

	r.Get("/{id}", handler.Get)
	r.Patch("/{id}", handler.Update)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSelf(w, r, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		respondError(r.Context(), h.log, w, err, "User not found", "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSelf(w, r, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	user, err := h.userService.Update(r.Context(), id, req.patch())
	if err != nil {
		respondError(r.Context(), h.log, w, err, "User not found", "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUserRequest lists the profile fields a user may change. Username and
// password are not among them.
type UpdateUserRequest struct {
	Email             *string    `json:"email" validate:"omitempty,email"`
	AddictionTypes    *[]string  `json:"addictionTypes" validate:"omitempty,min=1"`
	RecoveryStartDate *time.Time `json:"recoveryStartDate"`
	EmergencyContacts *[]string  `json:"emergencyContacts"`
}

func (req UpdateUserRequest) patch() types.UserPatch {
	patch := types.UserPatch{
		AddictionTypes:    req.AddictionTypes,
		RecoveryStartDate: req.RecoveryStartDate,
		EmergencyContacts: req.EmergencyContacts,
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		patch.Email = &email
	}
	return patch
}
