package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/umnlabs/checkoff/internal/metrics"
	"github.com/umnlabs/checkoff/internal/models"
	"github.com/umnlabs/checkoff/internal/repository"
)

const defaultApprovalPoints = 100

// ReviewService runs the reconciliation pipeline for a TA decision:
// verification record, submission status, gradebook projection, audit trail.
type ReviewService interface {
	Decide(ctx context.Context, ta *models.User, req *models.DecisionRequest) (*models.DecisionResponse, error)
}

type reviewService struct {
	submissionRepo   repository.SubmissionRepository
	verificationRepo repository.VerificationRepository
	gradebookRepo    repository.GradebookRepository
	auditRepo        repository.AuditLogRepository
	logger           zerolog.Logger
}

func NewReviewService(
	submissionRepo repository.SubmissionRepository,
	verificationRepo repository.VerificationRepository,
	gradebookRepo repository.GradebookRepository,
	auditRepo repository.AuditLogRepository,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		submissionRepo:   submissionRepo,
		verificationRepo: verificationRepo,
		gradebookRepo:    gradebookRepo,
		auditRepo:        auditRepo,
		logger:           logger,
	}
}

func (s *reviewService) Decide(ctx context.Context, ta *models.User, req *models.DecisionRequest) (*models.DecisionResponse, error) {
	// Reject malformed decisions before any row is written.
	if !models.IsValidDecision(req.Decision) {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrInvalidArgument, req.Decision)
	}

	submission, err := s.submissionRepo.GetByIDWithDetails(ctx, req.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return nil, fmt.Errorf("%w: submission %s", ErrNotFound, req.SubmissionID)
	}

	// Optimistic check against the version the reviewer read; the status
	// update below re-checks inside the transaction.
	if req.Version != nil && *req.Version != submission.Version {
		return nil, ErrConflict
	}

	// Points only mean anything on approval; anything else persists null
	// no matter what the caller sent. An approval without points is worth
	// full credit.
	var points *int
	if req.Decision == models.DecisionApproved.String() {
		points = req.Points
		if points == nil {
			full := defaultApprovalPoints
			points = &full
		}
	}

	initials := ta.ReviewerInitials()
	now := time.Now()

	verification := &models.Verification{
		ID:           uuid.New().String(),
		SubmissionID: submission.ID,
		TAUserID:     ta.ID,
		Decision:     req.Decision,
		Points:       points,
		Initials:     initials,
		Comment:      req.Comment,
		VerifiedAt:   now,
	}

	// Verification and status advance commit together; a concurrent decision
	// on the same submission loses with a conflict instead of silently
	// overwriting this one.
	err = s.submissionRepo.RunTx(ctx, func(tx *sql.Tx) error {
		if err := s.verificationRepo.CreateTx(ctx, tx, verification); err != nil {
			return fmt.Errorf("failed to create verification: %w", err)
		}

		updated, err := s.submissionRepo.UpdateStatusTx(ctx, tx, submission.ID, req.Decision, submission.Version)
		if err != nil {
			return fmt.Errorf("failed to update submission status: %w", err)
		}
		if !updated {
			return ErrConflict
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Decision == models.DecisionApproved.String() {
		s.projectGradebook(ctx, ta, submission, points, initials, req.Comment, now)
	}

	s.recordAudit(ctx, &models.AuditLogEntry{
		ID:       uuid.New().String(),
		Actor:    ta.ID,
		Action:   models.SubmissionDecisionAction(req.Decision),
		Entity:   "submission",
		EntityID: submission.ID,
		Meta: map[string]interface{}{
			"points":  points,
			"comment": req.Comment,
		},
		CreatedAt: now,
	})

	metrics.DecisionsTotal.WithLabelValues(req.Decision).Inc()

	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("decision", req.Decision).
		Str("ta", initials).
		Msg("Decision recorded")

	return &models.DecisionResponse{
		SubmissionID: submission.ID,
		Decision:     req.Decision,
		Points:       points,
		Initials:     initials,
		Version:      submission.Version + 1,
	}, nil
}

// projectGradebook upserts the materialized grade for an approval. Failure
// here never fails the decision: the intended payload is written to the audit
// log instead so the projection can be replayed later.
func (s *reviewService) projectGradebook(ctx context.Context, ta *models.User, submission *models.SubmissionWithDetails, points *int, initials, comment string, now time.Time) {
	finalPoints := defaultApprovalPoints
	if points != nil {
		finalPoints = *points
	}

	entry := &models.GradebookEntry{
		ID:         uuid.New().String(),
		UserID:     submission.UserID,
		LabID:      submission.LabID,
		Points:     finalPoints,
		MaxPoints:  defaultApprovalPoints,
		TAInitials: initials,
		VerifiedAt: now,
		Notes:      comment,
	}

	err := s.gradebookRepo.Upsert(ctx, entry)
	if err == nil {
		return
	}

	s.logger.Error().Err(err).
		Str("submission_id", submission.ID).
		Msg("Gradebook update failed; recording for replay")

	s.recordAudit(ctx, &models.AuditLogEntry{
		ID:       uuid.New().String(),
		Actor:    ta.ID,
		Action:   models.AuditActionGradebookUpdateFailed,
		Entity:   "submission",
		EntityID: submission.ID,
		Meta: map[string]interface{}{
			"type": "gradebook_update",
			"payload": map[string]interface{}{
				"student_email": submission.User.Email,
				"lab_code":      submission.Lab.Code,
				"points":        finalPoints,
				"max_points":    defaultApprovalPoints,
				"ta_initials":   initials,
				"notes":         comment,
			},
			"error": err.Error(),
		},
		CreatedAt: now,
	})
}

func (s *reviewService) recordAudit(ctx context.Context, entry *models.AuditLogEntry) {
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("action", entry.Action).
			Str("entity_id", entry.EntityID).
			Msg("Failed to write audit log entry")
	}
}
