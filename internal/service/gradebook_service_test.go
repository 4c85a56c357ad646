package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/umnlabs/checkoff/internal/models"
)

func TestExport_DefaultsToSummary(t *testing.T) {
	gradebookRepo := new(MockGradebookRepo)
	gradebookRepo.On("ListRows", mock.Anything, models.GradebookFilter{}).Return([]models.GradebookRow{}, nil)

	svc := NewGradebookService(gradebookRepo, zerolog.Nop())

	filename, data, err := svc.Export(context.Background(), "", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "gradebook-summary-all-"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))
	assert.NotEmpty(t, data)
}

func TestExport_UnknownFormat(t *testing.T) {
	svc := NewGradebookService(new(MockGradebookRepo), zerolog.Nop())

	_, _, err := svc.Export(context.Background(), "xlsx", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestExport_DetailedPayload(t *testing.T) {
	gradebookRepo := new(MockGradebookRepo)
	gradebookRepo.On("ListRows", mock.Anything, models.GradebookFilter{}).Return([]models.GradebookRow{
		{
			GradebookEntry: models.GradebookEntry{
				Points:     83,
				MaxPoints:  100,
				TAInitials: "JK",
				VerifiedAt: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			},
			StudentEmail: "swan0042@umn.edu",
			LabCode:      "LAB05",
			LabTitle:     "Lab 5",
		},
	}, nil)

	svc := NewGradebookService(gradebookRepo, zerolog.Nop())

	_, data, err := svc.Export(context.Background(), "detailed", "")
	require.NoError(t, err)

	body := string(data)
	assert.Contains(t, body, "swan0042@umn.edu")
	assert.Contains(t, body, "83.0%")
	assert.Contains(t, body, "2026-03-14")
}

func TestList_EmptyGradebook(t *testing.T) {
	gradebookRepo := new(MockGradebookRepo)
	gradebookRepo.On("ListRows", mock.Anything, mock.Anything).Return(nil, nil)

	svc := NewGradebookService(gradebookRepo, zerolog.Nop())

	resp, err := svc.List(context.Background(), models.GradebookFilter{})
	require.NoError(t, err)
	assert.NotNil(t, resp.Gradebook)
	assert.Len(t, resp.Gradebook, 0)
}
