package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/recoverytrack/apiserver/internal/logger"
	"github.com/recoverytrack/apiserver/internal/services"
	"github.com/recoverytrack/apiserver/types"
)

// CommunityHandler serves the peer-support forum.
type CommunityHandler struct {
	communityService *services.CommunityService
	log              *logger.Logger
}

func NewCommunityHandler(communityService *services.CommunityService, log *logger.Logger) *CommunityHandler {
	return &CommunityHandler{communityService: communityService, log: log}
}

// CommunityRouter registers forum routes. Reads are public; posting goes
// through requireAuth.
func CommunityRouter(r chi.Router, communityService *services.CommunityService, requireAuth func(http.Handler) http.Handler, log *logger.Logger) {
	handler := NewCommunityHandler(communityService, log)

	r.Get("/posts", handler.ListPosts)
	r.Get("/posts/{postID}/replies", handler.ListReplies)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/posts", handler.CreatePost)
		r.Post("/posts/{postID}/replies", handler.CreateReply)
	})
}

// ListPosts returns every post, newest first.
func (h *CommunityHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.communityService.ListPosts(r.Context())
	if err != nil {
		respondError(r.Context(), h.log, w, err, "posts not found", "Failed to fetch community posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *CommunityHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreatePostRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	post, err := h.communityService.CreatePost(r.Context(), types.NewCommunityPost{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		respondError(r.Context(), h.log, w, err, "user not found", "Failed to create post")
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// ListReplies returns a post's replies, oldest first.
func (h *CommunityHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIDParam(r, "postID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	replies, err := h.communityService.ListReplies(r.Context(), postID)
	if err != nil {
		respondError(r.Context(), h.log, w, err, "post not found", "Failed to fetch replies")
		return
	}
	writeJSON(w, http.StatusOK, replies)
}

func (h *CommunityHandler) CreateReply(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	postID, err := parseIDParam(r, "postID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CreateReplyRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	reply, err := h.communityService.CreateReply(r.Context(), types.NewCommunityReply{
		PostID:      postID,
		UserID:      userID,
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		respondError(r.Context(), h.log, w, err, "post not found", "Failed to create reply")
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

type CreatePostRequest struct {
	Title       string `json:"title" validate:"required"`
	Content     string `json:"content" validate:"required"`
	IsAnonymous bool   `json:"isAnonymous"`
}

type CreateReplyRequest struct {
	Content     string `json:"content" validate:"required"`
	IsAnonymous bool   `json:"isAnonymous"`
}
