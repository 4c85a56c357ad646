package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/umnlabs/checkoff/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByAuthUserID(ctx context.Context, authUserID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type userRepository struct {
	*PostgresRepository
}

func NewUserRepository(db *sql.DB, logger zerolog.Logger) UserRepository {
	return &userRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, auth_user_id, email, first_name, last_name, section, role, initials, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByAuthUserID(ctx context.Context, authUserID string) (*models.User, error) {
	query := `
		SELECT id, auth_user_id, email, first_name, last_name, section, role, initials, created_at, updated_at
		FROM users
		WHERE auth_user_id = $1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, authUserID))
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, auth_user_id, email, first_name, last_name, section, role, initials, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.AuthUserID,
		user.Email,
		nullString(user.FirstName),
		nullString(user.LastName),
		nullString(user.Section),
		user.Role.String(),
		nullString(user.Initials),
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	var (
		user      models.User
		firstName sql.NullString
		lastName  sql.NullString
		section   sql.NullString
		initials  sql.NullString
		role      string
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(
		&user.ID,
		&user.AuthUserID,
		&user.Email,
		&firstName,
		&lastName,
		&section,
		&role,
		&initials,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.Section = section.String
	user.Initials = initials.String
	user.Role = models.Role(role)
	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt

	return &user, nil
}
