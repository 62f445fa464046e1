package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/recoverytrack/apiserver/internal/auth"
	"github.com/recoverytrack/apiserver/internal/logger"
	"github.com/recoverytrack/apiserver/internal/services"
	"github.com/recoverytrack/apiserver/internal/store"
	"github.com/recoverytrack/apiserver/types"
)

const (
	rateLimitScopeLogin    = "login"
	rateLimitScopeRegister = "register"
)

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	userService *services.UserService
	tokens      *auth.TokenIssuer
	log         *logger.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, tokens *auth.TokenIssuer, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		log:         log,
	}
}

// AuthRouter registers auth routes on the given router. limiter may be nil.
func AuthRouter(r chi.Router, userService *services.UserService, tokens *auth.TokenIssuer, limiter RateLimiter, log *logger.Logger) {
	handler := NewAuthHandler(userService, tokens, log)

	r.With(RateLimit(limiter, rateLimitScopeRegister, log)).Post("/register", handler.Register)
	r.With(RateLimit(limiter, rateLimitScopeLogin, log)).Post("/login", handler.Login)
	r.With(RequireAuth(tokens, log)).Get("/me", handler.Me)
}

// Register creates a new user account and returns a JWT.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), types.RegisterUser{
		Username:          strings.TrimSpace(req.Username),
		Password:          req.Password,
		Email:             strings.TrimSpace(req.Email),
		AddictionTypes:    req.AddictionTypes,
		RecoveryStartDate: *req.RecoveryStartDate,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "username or email already exists")
			return
		}
		// max counts runes; bcrypt's limit is in bytes.
		if errors.Is(err, auth.ErrPasswordTooLong) {
			writeRequestError(w, &requestError{
				message: "validation failed",
				details: map[string]string{"password": fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes)},
			})
			return
		}
		respondError(r.Context(), h.log, w, err, "user not found", "failed to create user")
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login verifies credentials and returns a JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	user, err := h.userService.Login(r.Context(), types.Credentials{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(r.Context(), h.log, w, err, "user not found", "failed to authenticate")
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user)
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		respondError(r.Context(), h.log, w, err, "user not found", "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user types.User) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		respondError(r.Context(), h.log, w, err, "user not found", "failed to create token")
		return
	}
	writeJSON(w, status, AuthResponse{Token: token, User: user})
}

type RegisterRequest struct {
	Username          string     `json:"username" validate:"required"`
	Password          string     `json:"password" validate:"required,min=8,max=72"`
	Email             string     `json:"email" validate:"required,email"`
	AddictionTypes    []string   `json:"addictionTypes" validate:"required,min=1,dive,required"`
	RecoveryStartDate *time.Time `json:"recoveryStartDate" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}
