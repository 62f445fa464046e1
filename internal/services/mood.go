package services

import (
	"context"

	"github.com/recoverytrack/apiserver/internal/mq"
	"github.com/recoverytrack/apiserver/internal/store"
	"github.com/recoverytrack/apiserver/types"
)

// MoodService records mood check-ins and announces them.
type MoodService struct {
	store  store.Storage
	events *Events
}

func NewMoodService(s store.Storage, events *Events) *MoodService {
	return &MoodService{store: s, events: events}
}

func (s *MoodService) Create(ctx context.Context, input types.NewMoodLog) (types.MoodLog, error) {
	log, err := s.store.CreateMoodLog(ctx, input)
	if err != nil {
		return types.MoodLog{}, err
	}
	s.events.publish(ctx, mq.ChannelMoodLogs, types.EventMoodLogged, log.UserID, log.ID, log.Timestamp, log)
	return log, nil
}

// ListByUser returns the user's most recent logs; limit <= 0 means the
// store default.
func (s *MoodService) ListByUser(ctx context.Context, userID int64, limit int) ([]types.MoodLog, error) {
	return s.store.GetMoodLogsByUser(ctx, userID, limit)
}
