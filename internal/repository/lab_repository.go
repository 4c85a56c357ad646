package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/umnlabs/checkoff/internal/models"
)

type LabRepository interface {
	GetByCode(ctx context.Context, code string) (*models.Lab, error)
	Create(ctx context.Context, lab *models.Lab) error
}

type labRepository struct {
	*PostgresRepository
}

func NewLabRepository(db *sql.DB, logger zerolog.Logger) LabRepository {
	return &labRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *labRepository) GetByCode(ctx context.Context, code string) (*models.Lab, error) {
	query := `
		SELECT id, code, title, section, due_date, created_at, updated_at
		FROM labs
		WHERE code = $1
	`

	var (
		lab     models.Lab
		title   sql.NullString
		section sql.NullString
		dueDate sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&lab.ID,
		&lab.Code,
		&title,
		&section,
		&dueDate,
		&lab.CreatedAt,
		&lab.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	lab.Title = title.String
	lab.Section = section.String
	if dueDate.Valid {
		due := dueDate.Time
		lab.DueDate = &due
	}

	return &lab, nil
}

func (r *labRepository) Create(ctx context.Context, lab *models.Lab) error {
	query := `
		INSERT INTO labs (id, code, title, section, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var dueDate sql.NullTime
	if lab.DueDate != nil {
		dueDate = sql.NullTime{Time: *lab.DueDate, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		lab.ID,
		lab.Code,
		nullString(lab.Title),
		nullString(lab.Section),
		dueDate,
		time.Now(),
		time.Now(),
	)

	return err
}
