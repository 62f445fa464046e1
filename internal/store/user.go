package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/recoverytrack/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, password_hash, email, addiction_types, recovery_start_date, emergency_contacts, created_at`

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		pq.Array(&user.AddictionTypes),
		&user.RecoveryStartDate,
		pq.Array(&user.EmergencyContacts),
		&user.CreatedAt,
	)
	if err != nil {
		return types.User{}, err
	}
	user.AddictionTypes = orEmpty(user.AddictionTypes)
	user.EmergencyContacts = orEmpty(user.EmergencyContacts)
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// ExistsByUsernameOrEmail reports whether either identity is already taken.
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.AddictionTypes = orEmpty(user.AddictionTypes)
	user.EmergencyContacts = orEmpty(user.EmergencyContacts)

	const query = `
		INSERT INTO users (username, password_hash, email, addiction_types, recovery_start_date, emergency_contacts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.PasswordHash,
		user.Email,
		pq.Array(user.AddictionTypes),
		user.RecoveryStartDate,
		pq.Array(user.EmergencyContacts),
		user.CreatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, translateWriteError(err)
	}
	return user, nil
}

// Update rewrites the mutable profile columns of an existing user.
func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		UPDATE users
		SET email = $1,
			addiction_types = $2,
			recovery_start_date = $3,
			emergency_contacts = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Email,
		pq.Array(orEmpty(user.AddictionTypes)),
		user.RecoveryStartDate,
		pq.Array(orEmpty(user.EmergencyContacts)),
		user.ID,
	)
	if err != nil {
		return types.User{}, translateWriteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}
