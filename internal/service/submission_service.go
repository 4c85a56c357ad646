package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/umnlabs/checkoff/internal/models"
	"github.com/umnlabs/checkoff/internal/repository"
	"github.com/umnlabs/checkoff/internal/service/storage"
)

type SubmissionService interface {
	Create(ctx context.Context, user *models.User, req *models.CreateSubmissionRequest) (*models.SubmissionResponse, error)
	Upload(ctx context.Context, user *models.User, req *models.UploadSubmissionRequest, file io.Reader, size int64, contentType string) (*models.SubmissionResponse, error)
	List(ctx context.Context, filter models.SubmissionFilter) (*models.SubmissionsResponse, error)
	SignedVideoURL(ctx context.Context, path string) (*models.SignedURLResponse, error)
}

type submissionService struct {
	submissionRepo repository.SubmissionRepository
	labRepo        repository.LabRepository
	videoStore     storage.VideoStore
	signedURLTTL   time.Duration
	logger         zerolog.Logger
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	labRepo repository.LabRepository,
	videoStore storage.VideoStore,
	signedURLTTL time.Duration,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissionRepo: submissionRepo,
		labRepo:        labRepo,
		videoStore:     videoStore,
		signedURLTTL:   signedURLTTL,
		logger:         logger,
	}
}

// Create records a submission whose video was already placed in the object
// store by the caller. The claimed path is checked against the store before
// any row is written. Resubmission for the same (user, lab) overwrites the
// existing row and resets its status to submitted.
func (s *submissionService) Create(ctx context.Context, user *models.User, req *models.CreateSubmissionRequest) (*models.SubmissionResponse, error) {
	exists, err := s.videoStore.Exists(ctx, req.VideoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check video: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: no uploaded video at %q", ErrInvalidArgument, req.VideoPath)
	}

	return s.record(ctx, user, req)
}

func (s *submissionService) record(ctx context.Context, user *models.User, req *models.CreateSubmissionRequest) (*models.SubmissionResponse, error) {
	lab, err := s.resolveLab(ctx, req.LabCode, req.LabTitle)
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		LabID:     lab.ID,
		VideoPath: req.VideoPath,
		Notes:     req.Notes,
		RepoURL:   req.RepoURL,
	}

	if err := s.submissionRepo.Upsert(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to upsert submission: %w", err)
	}

	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("user_id", user.ID).
		Str("lab_code", lab.Code).
		Str("status", submission.Status).
		Msg("Submission recorded")

	return &models.SubmissionResponse{
		ID:        submission.ID,
		LabCode:   lab.Code,
		VideoPath: submission.VideoPath,
		Status:    submission.Status,
		Version:   submission.Version,
		CreatedAt: submission.CreatedAt,
		UpdatedAt: submission.UpdatedAt,
	}, nil
}

// Upload streams the video through the service into the object store and then
// records the submission pointing at the stored path.
func (s *submissionService) Upload(ctx context.Context, user *models.User, req *models.UploadSubmissionRequest, file io.Reader, size int64, contentType string) (*models.SubmissionResponse, error) {
	path := fmt.Sprintf("%s/%s/%d%s",
		req.LabCode,
		user.ID,
		time.Now().UnixNano(),
		filepath.Ext(req.FileName),
	)

	if err := s.videoStore.Upload(ctx, path, file, size, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload video: %w", err)
	}

	// The store just accepted the object, no need to stat it again.
	return s.record(ctx, user, &models.CreateSubmissionRequest{
		LabCode:   req.LabCode,
		LabTitle:  req.LabTitle,
		VideoPath: path,
		Notes:     req.Notes,
		RepoURL:   req.RepoURL,
	})
}

func (s *submissionService) List(ctx context.Context, filter models.SubmissionFilter) (*models.SubmissionsResponse, error) {
	if filter.Status != "" && !models.IsValidSubmissionStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, filter.Status)
	}

	submissions, err := s.submissionRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	if submissions == nil {
		submissions = []models.SubmissionWithDetails{}
	}

	return &models.SubmissionsResponse{
		Submissions: submissions,
		Total:       len(submissions),
	}, nil
}

func (s *submissionService) SignedVideoURL(ctx context.Context, path string) (*models.SignedURLResponse, error) {
	url, err := s.videoStore.PresignedGetURL(ctx, path, s.signedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create signed URL: %w", err)
	}

	return &models.SignedURLResponse{
		SignedURL: url,
		ExpiresIn: int64(s.signedURLTTL.Seconds()),
	}, nil
}

// resolveLab creates the lab row lazily on first submission for its code.
func (s *submissionService) resolveLab(ctx context.Context, code, title string) (*models.Lab, error) {
	lab, err := s.labRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up lab: %w", err)
	}
	if lab != nil {
		return lab, nil
	}

	lab = &models.Lab{
		ID:    uuid.New().String(),
		Code:  code,
		Title: title,
	}
	if err := s.labRepo.Create(ctx, lab); err != nil {
		// Two first submissions for a new lab can race on the unique code.
		existing, lookupErr := s.labRepo.GetByCode(ctx, code)
		if lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create lab: %w", err)
	}

	s.logger.Info().Str("lab_code", code).Msg("Lab created on first submission")

	return lab, nil
}
