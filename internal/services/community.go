package services

import (
	"context"

	"github.com/recoverytrack/apiserver/internal/mq"
	"github.com/recoverytrack/apiserver/internal/store"
	"github.com/recoverytrack/apiserver/types"
)

// CommunityService handles the peer-support forum.
type CommunityService struct {
	store  store.Storage
	events *Events
}

func NewCommunityService(s store.Storage, events *Events) *CommunityService {
	return &CommunityService{store: s, events: events}
}

func (s *CommunityService) ListPosts(ctx context.Context) ([]types.CommunityPost, error) {
	return s.store.GetAllCommunityPosts(ctx)
}

func (s *CommunityService) CreatePost(ctx context.Context, input types.NewCommunityPost) (types.CommunityPost, error) {
	post, err := s.store.CreateCommunityPost(ctx, input)
	if err != nil {
		return types.CommunityPost{}, err
	}
	s.events.publish(ctx, mq.ChannelCommunityPosts, types.EventCommunityPostCreate, post.UserID, post.ID, post.Timestamp, post)
	return post, nil
}

func (s *CommunityService) ListReplies(ctx context.Context, postID int64) ([]types.CommunityReply, error) {
	return s.store.GetRepliesByPost(ctx, postID)
}

func (s *CommunityService) CreateReply(ctx context.Context, input types.NewCommunityReply) (types.CommunityReply, error) {
	return s.store.CreateCommunityReply(ctx, input)
}
