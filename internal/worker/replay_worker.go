// Package worker hosts the gradebook replay loop. The audit log doubles as a
// work queue: approvals whose gradebook projection failed are recorded there
// and replayed here until a marker entry says they are done.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/umnlabs/checkoff/internal/metrics"
	"github.com/umnlabs/checkoff/internal/models"
	"github.com/umnlabs/checkoff/internal/repository"
)

type ReplayWorker struct {
	submissionRepo   repository.SubmissionRepository
	verificationRepo repository.VerificationRepository
	gradebookRepo    repository.GradebookRepository
	auditRepo        repository.AuditLogRepository
	interval         time.Duration
	batch            int
	logger           zerolog.Logger

	wg   sync.WaitGroup
	stop context.CancelFunc
}

func NewReplayWorker(
	submissionRepo repository.SubmissionRepository,
	verificationRepo repository.VerificationRepository,
	gradebookRepo repository.GradebookRepository,
	auditRepo repository.AuditLogRepository,
	interval time.Duration,
	batch int,
	logger zerolog.Logger,
) *ReplayWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 50
	}

	return &ReplayWorker{
		submissionRepo:   submissionRepo,
		verificationRepo: verificationRepo,
		gradebookRepo:    gradebookRepo,
		auditRepo:        auditRepo,
		interval:         interval,
		batch:            batch,
		logger:           logger,
	}
}

func (w *ReplayWorker) Start(ctx context.Context) {
	ctx, w.stop = context.WithCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.logger.Info().Dur("interval", w.interval).Msg("Gradebook replay worker started")

		for {
			select {
			case <-ctx.Done():
				w.logger.Info().Msg("Gradebook replay worker stopped")
				return
			case <-ticker.C:
				if err := w.RunOnce(ctx); err != nil {
					w.logger.Error().Err(err).Msg("Gradebook replay pass failed")
				}
			}
		}
	}()
}

func (w *ReplayWorker) Stop() {
	if w.stop != nil {
		w.stop()
	}
	w.wg.Wait()
}

// RunOnce replays one batch of recorded gradebook failures. The projection is
// re-derived from the submission's latest approved verification rather than
// the stale failure payload, which makes a replay safe to repeat.
func (w *ReplayWorker) RunOnce(ctx context.Context) error {
	failures, err := w.auditRepo.ListUnreplayedGradebookFailures(ctx, w.batch)
	if err != nil {
		return fmt.Errorf("failed to list gradebook failures: %w", err)
	}

	for _, failure := range failures {
		if err := w.replay(ctx, failure); err != nil {
			metrics.GradebookReplaysTotal.WithLabelValues("failed").Inc()
			w.logger.Error().Err(err).
				Str("audit_id", failure.ID).
				Str("submission_id", failure.EntityID).
				Msg("Gradebook replay failed; will retry on next pass")
			continue
		}
		metrics.GradebookReplaysTotal.WithLabelValues("replayed").Inc()
	}

	return nil
}

func (w *ReplayWorker) replay(ctx context.Context, failure models.AuditLogEntry) error {
	submission, err := w.submissionRepo.GetByIDWithDetails(ctx, failure.EntityID)
	if err != nil {
		return fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		// The submission was deleted since the failure; nothing to project.
		return w.markReplayed(ctx, failure, "submission no longer exists")
	}

	verification, err := w.verificationRepo.LatestApproved(ctx, submission.ID)
	if err != nil {
		return fmt.Errorf("failed to load latest approval: %w", err)
	}
	if verification == nil {
		return w.markReplayed(ctx, failure, "no approved verification on record")
	}

	points := 100
	if verification.Points != nil {
		points = *verification.Points
	}

	entry := &models.GradebookEntry{
		ID:         uuid.New().String(),
		UserID:     submission.UserID,
		LabID:      submission.LabID,
		Points:     points,
		MaxPoints:  100,
		TAInitials: verification.Initials,
		VerifiedAt: verification.VerifiedAt,
		Notes:      verification.Comment,
	}

	if err := w.gradebookRepo.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("failed to upsert gradebook entry: %w", err)
	}

	w.logger.Info().
		Str("audit_id", failure.ID).
		Str("submission_id", submission.ID).
		Int("points", points).
		Msg("Gradebook projection replayed")

	return w.markReplayed(ctx, failure, "")
}

func (w *ReplayWorker) markReplayed(ctx context.Context, failure models.AuditLogEntry, note string) error {
	meta := map[string]interface{}{
		"replays_audit_id": failure.ID,
	}
	if note != "" {
		meta["note"] = note
	}

	return w.auditRepo.Create(ctx, &models.AuditLogEntry{
		ID:        uuid.New().String(),
		Action:    models.AuditActionGradebookUpdateReplayed,
		Entity:    failure.Entity,
		EntityID:  failure.EntityID,
		Meta:      meta,
		CreatedAt: time.Now(),
	})
}
