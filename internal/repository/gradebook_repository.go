package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/umnlabs/checkoff/internal/models"
)

type GradebookRepository interface {
	Upsert(ctx context.Context, entry *models.GradebookEntry) error
	ListRows(ctx context.Context, filter models.GradebookFilter) ([]models.GradebookRow, error)
}

type gradebookRepository struct {
	*PostgresRepository
}

func NewGradebookRepository(db *sql.DB, logger zerolog.Logger) GradebookRepository {
	return &gradebookRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

// Upsert overwrites the (user, lab) projection with the newest approval,
// last-write-wins with no merge of prior values.
func (r *gradebookRepository) Upsert(ctx context.Context, entry *models.GradebookEntry) error {
	query := `
		INSERT INTO gradebook (id, user_id, lab_id, points, max_points, ta_initials, verified_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (user_id, lab_id) DO UPDATE SET
			points = EXCLUDED.points,
			max_points = EXCLUDED.max_points,
			ta_initials = EXCLUDED.ta_initials,
			verified_at = EXCLUDED.verified_at,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.LabID,
		entry.Points,
		entry.MaxPoints,
		entry.TAInitials,
		entry.VerifiedAt,
		nullString(entry.Notes),
		time.Now(),
	)

	return err
}

func (r *gradebookRepository) ListRows(ctx context.Context, filter models.GradebookFilter) ([]models.GradebookRow, error) {
	query := `
		SELECT
			g.id, g.user_id, g.lab_id, g.points, g.max_points, g.ta_initials, g.verified_at, g.notes, g.created_at, g.updated_at,
			u.email, u.first_name, u.last_name, u.section,
			l.code, l.title
		FROM gradebook g
		JOIN users u ON g.user_id = u.id
		JOIN labs l ON g.lab_id = l.id
		WHERE ($1 = '' OR u.section = $1)
		AND ($2 = '' OR l.code = $2)
		ORDER BY g.verified_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, filter.Section, filter.LabCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.GradebookRow
	for rows.Next() {
		var (
			row       models.GradebookRow
			notes     sql.NullString
			firstName sql.NullString
			lastName  sql.NullString
			section   sql.NullString
			labTitle  sql.NullString
		)

		err := rows.Scan(
			&row.ID,
			&row.UserID,
			&row.LabID,
			&row.Points,
			&row.MaxPoints,
			&row.TAInitials,
			&row.VerifiedAt,
			&notes,
			&row.CreatedAt,
			&row.UpdatedAt,
			&row.StudentEmail,
			&firstName,
			&lastName,
			&section,
			&row.LabCode,
			&labTitle,
		)
		if err != nil {
			return nil, err
		}

		row.Notes = notes.String
		row.StudentFirstName = firstName.String
		row.StudentLastName = lastName.String
		row.StudentSection = section.String
		row.LabTitle = labTitle.String

		entries = append(entries, row)
	}

	return entries, rows.Err()
}
