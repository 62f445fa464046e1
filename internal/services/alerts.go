package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/recoverytrack/apiserver/internal/logger"
	"github.com/recoverytrack/apiserver/types"
)

// LowMoodThreshold is the highest mood score that raises an alert.
const LowMoodThreshold = 3

// CravingAlertHandler watches mood events and raises a warning for strong
// cravings or low moods.
type CravingAlertHandler struct {
	log    *logger.Logger
	alerts atomic.Int64
}

func NewCravingAlertHandler(log *logger.Logger) *CravingAlertHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CravingAlertHandler{log: log}
}

// Handle matches mq.EventHandler. Events other than mood.logged are ignored.
func (h *CravingAlertHandler) Handle(ctx context.Context, event types.Event) error {
	if event.Type != types.EventMoodLogged {
		return nil
	}

	var log types.MoodLog
	if err := json.Unmarshal(event.Payload, &log); err != nil {
		return fmt.Errorf("decode mood payload: %w", err)
	}

	reason := alertReason(log)
	if reason == "" {
		return nil
	}
	h.alerts.Add(1)

	alertCtx := h.log.WithFields(ctx, map[string]any{
		"user_id":       event.UserID,
		"mood_log_id":   log.ID,
		"mood":          log.Mood,
		"craving_level": string(log.CravingLevel),
		"reason":        reason,
	})
	h.log.Warn(alertCtx, "craving.alert")
	return nil
}

// Alerts returns how many alerts have been raised.
func (h *CravingAlertHandler) Alerts() int64 {
	return h.alerts.Load()
}

func alertReason(log types.MoodLog) string {
	switch {
	case log.CravingLevel == types.CravingStrong:
		return "strong_craving"
	case log.Mood <= LowMoodThreshold:
		return "low_mood"
	default:
		return ""
	}
}
