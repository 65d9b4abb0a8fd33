package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/models"
)

// userRepository implements UserRepository
type userRepository struct {
	db dbExecutor
}

// NewUserRepository creates a new user repository
func NewUserRepository(db dbExecutor) UserRepository {
	return &userRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users WHERE id = $1
	`

	var u models.User
	err := r.db.QueryRow(query, id).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound(fmt.Sprintf("user %s not found", id), nil)
		}
		return nil, errors.DatabaseError("failed to get user", err)
	}
	return &u, nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users WHERE email = $1
	`

	var u models.User
	err := r.db.QueryRow(query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("user not found", nil)
		}
		return nil, errors.DatabaseError("failed to get user", err)
	}
	return &u, nil
}

// Create creates a new user
func (r *userRepository) Create(user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(query,
		user.ID, user.Email, user.PasswordHash, user.Role,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return errors.DatabaseError("failed to create user", err)
	}
	return nil
}

// Delete removes a user; the profile and everything under it cascade
func (r *userRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.DatabaseError("failed to delete user", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("failed to get rows affected", err)
	}
	if affected == 0 {
		return errors.NotFound(fmt.Sprintf("user %s not found", id), nil)
	}
	return nil
}
