package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/umnlabs/checkoff/internal/export"
	"github.com/umnlabs/checkoff/internal/models"
	"github.com/umnlabs/checkoff/internal/repository"
)

type GradebookService interface {
	List(ctx context.Context, filter models.GradebookFilter) (*models.GradebookResponse, error)
	// Export renders the gradebook as CSV and returns the download filename
	// alongside the payload.
	Export(ctx context.Context, format, section string) (string, []byte, error)
}

type gradebookService struct {
	gradebookRepo repository.GradebookRepository
	logger        zerolog.Logger
}

func NewGradebookService(gradebookRepo repository.GradebookRepository, logger zerolog.Logger) GradebookService {
	return &gradebookService{
		gradebookRepo: gradebookRepo,
		logger:        logger,
	}
}

func (s *gradebookService) List(ctx context.Context, filter models.GradebookFilter) (*models.GradebookResponse, error) {
	rows, err := s.gradebookRepo.ListRows(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gradebook: %w", err)
	}

	if rows == nil {
		rows = []models.GradebookRow{}
	}

	return &models.GradebookResponse{Gradebook: rows}, nil
}

func (s *gradebookService) Export(ctx context.Context, format, section string) (string, []byte, error) {
	if format == "" {
		format = export.FormatSummary.String()
	}
	if !export.IsValidFormat(format) {
		return "", nil, fmt.Errorf("%w: unknown export format %q", ErrInvalidArgument, format)
	}

	// The section filter is applied by the transformer so the pivoted lab
	// set is derived from exactly the same row set as the totals.
	rows, err := s.gradebookRepo.ListRows(ctx, models.GradebookFilter{})
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch gradebook for export: %w", err)
	}

	records, err := export.Transform(rows, export.Format(format), section)
	if err != nil {
		return "", nil, fmt.Errorf("failed to transform gradebook: %w", err)
	}

	data, err := export.Marshal(records)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().
		Str("format", format).
		Str("section", section).
		Int("rows", len(rows)).
		Msg("Gradebook exported")

	return export.Filename(export.Format(format), section, time.Now()), data, nil
}
