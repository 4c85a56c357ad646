package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/umnlabs/checkoff/internal/models"
)

type SubmissionRepository interface {
	Upsert(ctx context.Context, submission *models.Submission) error
	GetByIDWithDetails(ctx context.Context, id string) (*models.SubmissionWithDetails, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionWithDetails, error)
	RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id, status string, expectedVersion int) (bool, error)
}

type submissionRepository struct {
	*PostgresRepository
}

func NewSubmissionRepository(db *sql.DB, logger zerolog.Logger) SubmissionRepository {
	return &submissionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

// Upsert keeps at most one submission per (user, lab) pair. A resubmission
// replaces the mutable fields, resets status to submitted and bumps version.
func (r *submissionRepository) Upsert(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (id, user_id, lab_id, video_path, notes, repo_url, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $8)
		ON CONFLICT (user_id, lab_id) DO UPDATE SET
			video_path = EXCLUDED.video_path,
			notes = EXCLUDED.notes,
			repo_url = EXCLUDED.repo_url,
			status = EXCLUDED.status,
			version = submissions.version + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING id, status, version, created_at, updated_at
	`

	return r.db.QueryRowContext(ctx, query,
		submission.ID,
		submission.UserID,
		submission.LabID,
		nullString(submission.VideoPath),
		nullString(submission.Notes),
		nullString(submission.RepoURL),
		models.SubmissionStatusSubmitted.String(),
		time.Now(),
	).Scan(
		&submission.ID,
		&submission.Status,
		&submission.Version,
		&submission.CreatedAt,
		&submission.UpdatedAt,
	)
}

const submissionDetailsColumns = `
	s.id, s.user_id, s.lab_id, s.video_path, s.notes, s.repo_url, s.status, s.version, s.created_at, s.updated_at,
	u.auth_user_id, u.email, u.first_name, u.last_name, u.section, u.role, u.initials,
	l.code, l.title, l.section, l.due_date
`

func (r *submissionRepository) GetByIDWithDetails(ctx context.Context, id string) (*models.SubmissionWithDetails, error) {
	query := `
		SELECT ` + submissionDetailsColumns + `
		FROM submissions s
		JOIN users u ON s.user_id = u.id
		JOIN labs l ON s.lab_id = l.id
		WHERE s.id = $1
	`

	detail, err := scanSubmissionDetails(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	history, err := r.loadVerifications(ctx, []string{detail.ID})
	if err != nil {
		return nil, err
	}
	detail.Verifications = history[detail.ID]

	return detail, nil
}

func (r *submissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionWithDetails, error) {
	query := `
		SELECT ` + submissionDetailsColumns + `
		FROM submissions s
		JOIN users u ON s.user_id = u.id
		JOIN labs l ON s.lab_id = l.id
		WHERE ($1 = '' OR l.code = $1)
		AND ($2 = '' OR u.section = $2)
		AND ($3 = '' OR s.status = $3)
		ORDER BY s.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, filter.LabCode, filter.Section, filter.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []models.SubmissionWithDetails
	var ids []string
	for rows.Next() {
		detail, err := scanSubmissionDetails(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
		ids = append(ids, detail.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return details, nil
	}

	history, err := r.loadVerifications(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range details {
		details[i].Verifications = history[details[i].ID]
	}

	return details, nil
}

// UpdateStatusTx advances the submission status guarded by an optimistic
// version check; the false return means the row moved under the caller.
func (r *submissionRepository) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id, status string, expectedVersion int) (bool, error) {
	query := `
		UPDATE submissions
		SET status = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
	`

	result, err := tx.ExecContext(ctx, query, status, time.Now(), id, expectedVersion)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

func (r *submissionRepository) loadVerifications(ctx context.Context, submissionIDs []string) (map[string][]models.Verification, error) {
	query := `
		SELECT id, submission_id, ta_user_id, decision, points, initials, comment, verified_at
		FROM verifications
		WHERE submission_id = ANY($1::uuid[])
		ORDER BY verified_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(submissionIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make(map[string][]models.Verification)
	for rows.Next() {
		var (
			v       models.Verification
			points  sql.NullInt64
			comment sql.NullString
		)
		err := rows.Scan(
			&v.ID,
			&v.SubmissionID,
			&v.TAUserID,
			&v.Decision,
			&points,
			&v.Initials,
			&comment,
			&v.VerifiedAt,
		)
		if err != nil {
			return nil, err
		}
		v.Points = intPtr(points)
		v.Comment = comment.String
		history[v.SubmissionID] = append(history[v.SubmissionID], v)
	}

	return history, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmissionDetails(row rowScanner) (*models.SubmissionWithDetails, error) {
	var (
		d          models.SubmissionWithDetails
		videoPath  sql.NullString
		notes      sql.NullString
		repoURL    sql.NullString
		firstName  sql.NullString
		lastName   sql.NullString
		uSection   sql.NullString
		initials   sql.NullString
		role       string
		labTitle   sql.NullString
		labSection sql.NullString
		dueDate    sql.NullTime
	)

	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.LabID,
		&videoPath,
		&notes,
		&repoURL,
		&d.Status,
		&d.Version,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.User.AuthUserID,
		&d.User.Email,
		&firstName,
		&lastName,
		&uSection,
		&role,
		&initials,
		&d.Lab.Code,
		&labTitle,
		&labSection,
		&dueDate,
	)
	if err != nil {
		return nil, err
	}

	d.VideoPath = videoPath.String
	d.Notes = notes.String
	d.RepoURL = repoURL.String
	d.User.ID = d.UserID
	d.User.FirstName = firstName.String
	d.User.LastName = lastName.String
	d.User.Section = uSection.String
	d.User.Role = models.Role(role)
	d.User.Initials = initials.String
	d.Lab.ID = d.LabID
	d.Lab.Title = labTitle.String
	d.Lab.Section = labSection.String
	if dueDate.Valid {
		due := dueDate.Time
		d.Lab.DueDate = &due
	}

	return &d, nil
}
