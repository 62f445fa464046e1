package store

import (
	"context"
	"database/sql"

	"github.com/recoverytrack/apiserver/types"
)

// MoodLogRepository handles persistence for mood check-ins.
type MoodLogRepository struct {
	db *sql.DB
}

func NewMoodLogRepository(db *sql.DB) *MoodLogRepository {
	return &MoodLogRepository{db: db}
}

func (r *MoodLogRepository) Create(ctx context.Context, log types.MoodLog) (types.MoodLog, error) {
	const query = `
		INSERT INTO mood_logs (user_id, mood, craving_level, notes, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		log.UserID,
		log.Mood,
		log.CravingLevel,
		log.Notes,
		log.Timestamp,
	).Scan(&log.ID); err != nil {
		return types.MoodLog{}, err
	}
	return log, nil
}

// ListByUser returns at most limit logs for userID, newest first.
func (r *MoodLogRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]types.MoodLog, error) {
	if limit <= 0 {
		limit = DefaultMoodLogLimit
	}

	const query = `
		SELECT id, user_id, mood, craving_level, notes, timestamp
		FROM mood_logs
		WHERE user_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]types.MoodLog, 0)
	for rows.Next() {
		var log types.MoodLog
		if err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.Mood,
			&log.CravingLevel,
			&log.Notes,
			&log.Timestamp,
		); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
