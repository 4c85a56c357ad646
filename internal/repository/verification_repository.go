package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/umnlabs/checkoff/internal/models"
)

type VerificationRepository interface {
	CreateTx(ctx context.Context, tx *sql.Tx, verification *models.Verification) error
	LatestApproved(ctx context.Context, submissionID string) (*models.Verification, error)
}

type verificationRepository struct {
	*PostgresRepository
}

func NewVerificationRepository(db *sql.DB, logger zerolog.Logger) VerificationRepository {
	return &verificationRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

// CreateTx appends a verification inside the caller's transaction so the
// decision record and the status update commit together.
func (r *verificationRepository) CreateTx(ctx context.Context, tx *sql.Tx, verification *models.Verification) error {
	query := `
		INSERT INTO verifications (id, submission_id, ta_user_id, decision, points, initials, comment, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.ExecContext(ctx, query,
		verification.ID,
		verification.SubmissionID,
		verification.TAUserID,
		verification.Decision,
		nullInt(verification.Points),
		verification.Initials,
		nullString(verification.Comment),
		verification.VerifiedAt,
	)

	return err
}

// LatestApproved returns the most recent approved verification for a
// submission, the record the gradebook projection is derived from.
func (r *verificationRepository) LatestApproved(ctx context.Context, submissionID string) (*models.Verification, error) {
	query := `
		SELECT id, submission_id, ta_user_id, decision, points, initials, comment, verified_at
		FROM verifications
		WHERE submission_id = $1 AND decision = 'approved'
		ORDER BY verified_at DESC
		LIMIT 1
	`

	var (
		v       models.Verification
		points  sql.NullInt64
		comment sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, submissionID).Scan(
		&v.ID,
		&v.SubmissionID,
		&v.TAUserID,
		&v.Decision,
		&points,
		&v.Initials,
		&comment,
		&v.VerifiedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	v.Points = intPtr(points)
	v.Comment = comment.String

	return &v, nil
}
