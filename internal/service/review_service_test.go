package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/umnlabs/checkoff/internal/models"
)

type MockSubmissionRepo struct {
	mock.Mock
}

func (m *MockSubmissionRepo) Upsert(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepo) GetByIDWithDetails(ctx context.Context, id string) (*models.SubmissionWithDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubmissionWithDetails), args.Error(1)
}

func (m *MockSubmissionRepo) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionWithDetails, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubmissionWithDetails), args.Error(1)
}

func (m *MockSubmissionRepo) RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	args := m.Called(ctx)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(nil)
}

func (m *MockSubmissionRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id, status string, expectedVersion int) (bool, error) {
	args := m.Called(ctx, id, status, expectedVersion)
	return args.Bool(0), args.Error(1)
}

type MockVerificationRepo struct {
	mock.Mock
}

func (m *MockVerificationRepo) CreateTx(ctx context.Context, tx *sql.Tx, verification *models.Verification) error {
	args := m.Called(ctx, verification)
	return args.Error(0)
}

func (m *MockVerificationRepo) LatestApproved(ctx context.Context, submissionID string) (*models.Verification, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Verification), args.Error(1)
}

type MockGradebookRepo struct {
	mock.Mock
}

func (m *MockGradebookRepo) Upsert(ctx context.Context, entry *models.GradebookEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockGradebookRepo) ListRows(ctx context.Context, filter models.GradebookFilter) ([]models.GradebookRow, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GradebookRow), args.Error(1)
}

type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepo) ListUnreplayedGradebookFailures(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuditLogEntry), args.Error(1)
}

func reviewFixture() (*MockSubmissionRepo, *MockVerificationRepo, *MockGradebookRepo, *MockAuditRepo, ReviewService) {
	submissionRepo := new(MockSubmissionRepo)
	verificationRepo := new(MockVerificationRepo)
	gradebookRepo := new(MockGradebookRepo)
	auditRepo := new(MockAuditRepo)

	svc := NewReviewService(submissionRepo, verificationRepo, gradebookRepo, auditRepo, zerolog.Nop())
	return submissionRepo, verificationRepo, gradebookRepo, auditRepo, svc
}

func submissionFixture() *models.SubmissionWithDetails {
	return &models.SubmissionWithDetails{
		Submission: models.Submission{
			ID:      "sub-1",
			UserID:  "user-1",
			LabID:   "lab-1",
			Status:  models.SubmissionStatusSubmitted.String(),
			Version: 3,
		},
		User: models.User{
			ID:      "user-1",
			Email:   "swan0042@umn.edu",
			Section: "Section 010",
		},
		Lab: models.Lab{
			ID:   "lab-1",
			Code: "LAB05",
		},
	}
}

func taFixture() *models.User {
	return &models.User{
		ID:        "ta-1",
		Email:     "kowa0001@umn.edu",
		FirstName: "Jan",
		LastName:  "Kowalski",
		Role:      models.RoleTA,
	}
}

func TestDecide_ApprovalDefaultsTo100Points(t *testing.T) {
	submissionRepo, verificationRepo, gradebookRepo, auditRepo, svc := reviewFixture()

	submissionRepo.On("GetByIDWithDetails", mock.Anything, "sub-1").Return(submissionFixture(), nil)
	submissionRepo.On("RunTx", mock.Anything).Return(nil)
	verificationRepo.On("CreateTx", mock.Anything, mock.Anything).Return(nil)
	submissionRepo.On("UpdateStatusTx", mock.Anything, "sub-1", "approved", 3).Return(true, nil)
	gradebookRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(e *models.GradebookEntry) bool {
		return e.Points == 100 && e.MaxPoints == 100 && e.TAInitials == "JK"
	})).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.Decide(context.Background(), taFixture(), &models.DecisionRequest{
		SubmissionID: "sub-1",
		Decision:     "approved",
	})
	require.NoError(t, err)

	assert.Equal(t, "approved", resp.Decision)
	require.NotNil(t, resp.Points)
	assert.Equal(t, 100, *resp.Points)
	assert.Equal(t, "JK", resp.Initials)
	assert.Equal(t, 4, resp.Version)

	gradebookRepo.AssertExpectations(t)
	verificationRepo.AssertExpectations(t)
}

func TestDecide_ApprovalWithExplicitPoints(t *testing.T) {
	submissionRepo, verificationRepo, gradebookRepo, auditRepo, svc := reviewFixture()

	points := 87
	submissionRepo.On("GetByIDWithDetails", mock.Anything, "sub-1").Return(submissionFixture(), nil)
	submissionRepo.On("RunTx", mock.Anything).Return(nil)
	verificationRepo.On("CreateTx", mock.Anything, mock.MatchedBy(func(v *models.Verification) bool {
		return v.Points != nil && *v.Points == 87
	})).Return(nil)
	submissionRepo.On("UpdateStatusTx", mock.Anything, "sub-1", "approved", 3).Return(true, nil)
	gradebookRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(e *models.GradebookEntry) bool {
		return e.Points == 87
	})).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.Decide(context.Background(), taFixture(), &models.DecisionRequest{
		SubmissionID: "sub-1",
		Decision:     "approved",
		Points:       &points,
	})
	require.NoError(t, err)
	assert.Equal(t, 87, *resp.Points)
}

func TestDecide_RejectionIgnoresPoints(t *testing.T) {
	submissionRepo, verificationRepo, gradebookRepo, auditRepo, svc := reviewFixture()

	points := 50
	submissionRepo.On("GetByIDWithDetails", mock.Anything, "sub-1").Return(submissionFixture(), nil)
	submissionRepo.On("RunTx", mock.Anything).Return(nil)
	verificationRepo.On("CreateTx", mock.Anything, mock.MatchedBy(func(v *models.Verification) bool {
		return v.Points == nil
	})).Return(nil)
	submissionRepo.On("UpdateStatusTx", mock.Anything, "sub-1", "rejected", 3).Return(true, nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.Decide(context.Background(), taFixture(), &models.DecisionRequest{
		SubmissionID: "sub-1",
		Decision:     "rejected",
		Points:       &points,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Points)

	// Rejection never touches the gradebook.
	gradebookRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestDecide_InvalidDecisionWritesNothing(t *testing.T) {
	submissionRepo, verificationRepo, gradebookRepo, _, svc := reviewFixture()

	_, err := svc.Decide(context.Background(), taFixture(), &models.DecisionRequest{
		SubmissionID: "sub-1",
		Decision:     "maybe",
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	submissionRepo.AssertNotCalled(t, "GetByIDWithDetails", mock.Anything, mock.Anything)
	verificationRepo.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything)
	gradebookRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestDecide_UnknownSubmission(t *testing.T) {
	submissionRepo, _, _, _, svc := reviewFixture()

	submissionRepo.On("GetByIDWithDetails", mock.Anything, "missing").Return(nil, nil)

	_, err := svc.Decide(context.Background(), taFixture(), &models.DecisionRequest{
		SubmissionID: "missing",
		Decision:     "approved",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecide_StaleVersionConflicts(t *testing.T) {
	submissionRepo, verificationRepo, _, _, svc := reviewFixture()

	stale := 2
	submissionRepo.On("GetByIDWithDetails", mock.Anything, "sub-1").Return(submissionFixture(), nil)

	_, err := svc.Decide(context.Background(), taFixture(), &models.DecisionRequest{
		SubmissionID: "sub-1",
		Decision:     "approved",
		Version:      &stale,
	})
	assert.ErrorIs(t, err, ErrConflict)

	verificationRepo.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything)
}

func TestDecide_ConcurrentStatusUpdateConflicts(t *testing.T) {
	submissionRepo, verificationRepo, gradebookRepo, _, svc := reviewFixture()

	submissionRepo.On("GetByIDWithDetails", mock.Anything, "sub-1").Return(submissionFixture(), nil)
	submissionRepo.On("RunTx", mock.Anything).Return(nil)
	verificationRepo.On("CreateTx", mock.Anything, mock.Anything).Return(nil)
	// Another reviewer bumped the version between the read and the update.
	submissionRepo.On("UpdateStatusTx", mock.Anything, "sub-1", "approved", 3).Return(false, nil)

	_, err := svc.Decide(context.Background(), taFixture(), &models.DecisionRequest{
		SubmissionID: "sub-1",
		Decision:     "approved",
	})
	assert.ErrorIs(t, err, ErrConflict)

	gradebookRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestDecide_GradebookFailureDoesNotFailDecision(t *testing.T) {
	submissionRepo, verificationRepo, gradebookRepo, auditRepo, svc := reviewFixture()

	submissionRepo.On("GetByIDWithDetails", mock.Anything, "sub-1").Return(submissionFixture(), nil)
	submissionRepo.On("RunTx", mock.Anything).Return(nil)
	verificationRepo.On("CreateTx", mock.Anything, mock.Anything).Return(nil)
	submissionRepo.On("UpdateStatusTx", mock.Anything, "sub-1", "approved", 3).Return(true, nil)
	gradebookRepo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.Decide(context.Background(), taFixture(), &models.DecisionRequest{
		SubmissionID: "sub-1",
		Decision:     "approved",
	})
	require.NoError(t, err)
	assert.Equal(t, "approved", resp.Decision)

	// One failure entry for replay plus the regular decision entry.
	failures := 0
	decisions := 0
	for _, call := range auditRepo.Calls {
		entry := call.Arguments.Get(1).(*models.AuditLogEntry)
		switch entry.Action {
		case models.AuditActionGradebookUpdateFailed:
			failures++
			assert.Equal(t, "sub-1", entry.EntityID)
			payload := entry.Meta["payload"].(map[string]interface{})
			assert.Equal(t, "swan0042@umn.edu", payload["student_email"])
			assert.Equal(t, "LAB05", payload["lab_code"])
		case "submission_approved":
			decisions++
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, 1, decisions)
}
