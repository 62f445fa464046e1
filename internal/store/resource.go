package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/recoverytrack/apiserver/types"
)

// ResourceRepository handles persistence for the educational catalog.
type ResourceRepository struct {
	db *sql.DB
}

func NewResourceRepository(db *sql.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

const resourceColumns = `id, title, type, content, description, duration, category, is_active`

func scanResource(row rowScanner) (types.Resource, error) {
	var resource types.Resource
	err := row.Scan(
		&resource.ID,
		&resource.Title,
		&resource.Type,
		&resource.Content,
		&resource.Description,
		&resource.Duration,
		&resource.Category,
		&resource.IsActive,
	)
	return resource, err
}

// ListActive returns active resources ordered by id. An empty category
// matches every resource.
func (r *ResourceRepository) ListActive(ctx context.Context, category string) ([]types.Resource, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if category == "" {
		query := `SELECT ` + resourceColumns + ` FROM resources WHERE is_active ORDER BY id`
		rows, err = r.db.QueryContext(ctx, query)
	} else {
		query := `SELECT ` + resourceColumns + ` FROM resources WHERE is_active AND category = $1 ORDER BY id`
		rows, err = r.db.QueryContext(ctx, query, category)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resources := make([]types.Resource, 0)
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return resources, nil
}

func (r *ResourceRepository) Create(ctx context.Context, resource types.Resource) (types.Resource, error) {
	const query = `
		INSERT INTO resources (title, type, content, description, duration, category, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		resource.Title,
		resource.Type,
		resource.Content,
		resource.Description,
		resource.Duration,
		resource.Category,
		resource.IsActive,
	).Scan(&resource.ID); err != nil {
		return types.Resource{}, err
	}
	return resource, nil
}

func (r *ResourceRepository) SetActive(ctx context.Context, id int64, active bool) (types.Resource, error) {
	query := `UPDATE resources SET is_active = $1 WHERE id = $2 RETURNING ` + resourceColumns
	resource, err := scanResource(r.db.QueryRowContext(ctx, query, active, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Resource{}, ErrNotFound
		}
		return types.Resource{}, err
	}
	return resource, nil
}
