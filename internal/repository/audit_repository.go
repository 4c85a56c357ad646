package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/umnlabs/checkoff/internal/models"
)

type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLogEntry) error
	ListUnreplayedGradebookFailures(ctx context.Context, limit int) ([]models.AuditLogEntry, error)
}

type auditLogRepository struct {
	*PostgresRepository
}

func NewAuditLogRepository(db *sql.DB, logger zerolog.Logger) AuditLogRepository {
	return &auditLogRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	var meta []byte
	if entry.Meta != nil {
		var err error
		meta, err = json.Marshal(entry.Meta)
		if err != nil {
			return fmt.Errorf("failed to marshal audit meta: %w", err)
		}
	}

	query := `
		INSERT INTO audit_log (id, actor, action, entity, entity_id, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		nullString(entry.Actor),
		entry.Action,
		entry.Entity,
		nullString(entry.EntityID),
		meta,
		entry.CreatedAt,
	)

	return err
}

// ListUnreplayedGradebookFailures returns recorded gradebook projection
// failures that have no replay marker yet, oldest first. The log itself is the
// work queue; replays append a marker entry instead of mutating the failure.
func (r *auditLogRepository) ListUnreplayedGradebookFailures(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	query := `
		SELECT a.id, a.actor, a.action, a.entity, a.entity_id, a.meta, a.created_at
		FROM audit_log a
		WHERE a.action = $1
		AND NOT EXISTS (
			SELECT 1 FROM audit_log r
			WHERE r.action = $2
			AND r.meta->>'replays_audit_id' = a.id::text
		)
		ORDER BY a.created_at ASC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query,
		models.AuditActionGradebookUpdateFailed,
		models.AuditActionGradebookUpdateReplayed,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		var (
			entry    models.AuditLogEntry
			actor    sql.NullString
			entityID sql.NullString
			meta     []byte
		)

		err := rows.Scan(
			&entry.ID,
			&actor,
			&entry.Action,
			&entry.Entity,
			&entityID,
			&meta,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Actor = actor.String
		entry.EntityID = entityID.String
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &entry.Meta); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit meta: %w", err)
			}
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
