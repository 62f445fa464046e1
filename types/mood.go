package types

import "time"

// CravingLevel grades how strong a craving was at the time of a mood check-in.
type CravingLevel string

const (
	CravingNone     CravingLevel = "none"
	CravingMild     CravingLevel = "mild"
	CravingModerate CravingLevel = "moderate"
	CravingStrong   CravingLevel = "strong"
)

// MoodLog is a single mood check-in recorded by a user.
type MoodLog struct {
	// ID is the unique identifier of the mood log.
	ID int64 `json:"id" db:"id"`

	// UserID references the user who recorded the check-in.
	UserID int64 `json:"userId" db:"user_id"`

	// Mood is the self-reported mood on a 1 (worst) to 10 (best) scale.
	Mood int `json:"mood" db:"mood"`

	// CravingLevel is one of none, mild, moderate, strong.
	CravingLevel CravingLevel `json:"cravingLevel" db:"craving_level"`

	// Notes is free text attached to the check-in; null when absent.
	Notes *string `json:"notes" db:"notes"`

	// Timestamp is set by the server when the log is created.
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// NewMoodLog is the insert shape for a mood log.
type NewMoodLog struct {
	UserID       int64
	Mood         int
	CravingLevel CravingLevel
	Notes        *string
}
