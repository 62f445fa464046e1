package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/recoverytrack/apiserver/types"
)

// ProfessionalRepository handles persistence for the support directory.
type ProfessionalRepository struct {
	db *sql.DB
}

func NewProfessionalRepository(db *sql.DB) *ProfessionalRepository {
	return &ProfessionalRepository{db: db}
}

const professionalColumns = `id, name, type, contact, availability, specialization, is_active`

func scanProfessional(row rowScanner) (types.Professional, error) {
	var professional types.Professional
	err := row.Scan(
		&professional.ID,
		&professional.Name,
		&professional.Type,
		&professional.Contact,
		&professional.Availability,
		&professional.Specialization,
		&professional.IsActive,
	)
	return professional, err
}

func (r *ProfessionalRepository) ListActive(ctx context.Context) ([]types.Professional, error) {
	query := `SELECT ` + professionalColumns + ` FROM professionals WHERE is_active ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	professionals := make([]types.Professional, 0)
	for rows.Next() {
		professional, err := scanProfessional(rows)
		if err != nil {
			return nil, err
		}
		professionals = append(professionals, professional)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return professionals, nil
}

func (r *ProfessionalRepository) Create(ctx context.Context, professional types.Professional) (types.Professional, error) {
	const query = `
		INSERT INTO professionals (name, type, contact, availability, specialization, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		professional.Name,
		professional.Type,
		professional.Contact,
		professional.Availability,
		professional.Specialization,
		professional.IsActive,
	).Scan(&professional.ID); err != nil {
		return types.Professional{}, err
	}
	return professional, nil
}

func (r *ProfessionalRepository) SetActive(ctx context.Context, id int64, active bool) (types.Professional, error) {
	query := `UPDATE professionals SET is_active = $1 WHERE id = $2 RETURNING ` + professionalColumns
	professional, err := scanProfessional(r.db.QueryRowContext(ctx, query, active, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Professional{}, ErrNotFound
		}
		return types.Professional{}, err
	}
	return professional, nil
}
