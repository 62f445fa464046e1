package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/recoverytrack/apiserver/types"
)

// MedicationRepository handles persistence for medication schedules.
type MedicationRepository struct {
	db *sql.DB
}

func NewMedicationRepository(db *sql.DB) *MedicationRepository {
	return &MedicationRepository{db: db}
}

const medicationColumns = `id, user_id, name, dosage, frequency, next_dose, is_active`

func scanMedication(row rowScanner) (types.Medication, error) {
	var med types.Medication
	err := row.Scan(
		&med.ID,
		&med.UserID,
		&med.Name,
		&med.Dosage,
		&med.Frequency,
		&med.NextDose,
		&med.IsActive,
	)
	return med, err
}

func (r *MedicationRepository) Create(ctx context.Context, med types.Medication) (types.Medication, error) {
	const query = `
		INSERT INTO medications (user_id, name, dosage, frequency, next_dose, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		med.UserID,
		med.Name,
		med.Dosage,
		med.Frequency,
		med.NextDose,
		med.IsActive,
	).Scan(&med.ID); err != nil {
		return types.Medication{}, err
	}
	return med, nil
}

func (r *MedicationRepository) GetByID(ctx context.Context, id int64) (types.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE id = $1`
	med, err := scanMedication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Medication{}, ErrNotFound
		}
		return types.Medication{}, err
	}
	return med, nil
}

// ListActiveByUser returns the user's active medications in creation order.
func (r *MedicationRepository) ListActiveByUser(ctx context.Context, userID int64) ([]types.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE user_id = $1 AND is_active ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meds := make([]types.Medication, 0)
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, med)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return meds, nil
}

func (r *MedicationRepository) Update(ctx context.Context, med types.Medication) (types.Medication, error) {
	const query = `
		UPDATE medications
		SET name = $1,
			dosage = $2,
			frequency = $3,
			next_dose = $4,
			is_active = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		med.Name,
		med.Dosage,
		med.Frequency,
		med.NextDose,
		med.IsActive,
		med.ID,
	)
	if err != nil {
		return types.Medication{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Medication{}, err
	}
	if affected == 0 {
		return types.Medication{}, ErrNotFound
	}
	return med, nil
}

// MedicationLogRepository handles persistence for taken/missed dose records.
type MedicationLogRepository struct {
	db *sql.DB
}

func NewMedicationLogRepository(db *sql.DB) *MedicationLogRepository {
	return &MedicationLogRepository{db: db}
}

func (r *MedicationLogRepository) Create(ctx context.Context, log types.MedicationLog) (types.MedicationLog, error) {
	const query = `
		INSERT INTO medication_logs (medication_id, user_id, taken, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, log.MedicationID, log.UserID, log.Taken, log.Timestamp).Scan(&log.ID); err != nil {
		return types.MedicationLog{}, err
	}
	return log, nil
}

func (r *MedicationLogRepository) ListByUser(ctx context.Context, userID int64) ([]types.MedicationLog, error) {
	const query = `
		SELECT id, medication_id, user_id, taken, timestamp
		FROM medication_logs
		WHERE user_id = $1
		ORDER BY timestamp DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]types.MedicationLog, 0)
	for rows.Next() {
		var log types.MedicationLog
		if err := rows.Scan(&log.ID, &log.MedicationID, &log.UserID, &log.Taken, &log.Timestamp); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
