package models

import "time"

const (
	AuditActionGradebookUpdateFailed   = "gradebook_update_failed"
	AuditActionGradebookUpdateReplayed = "gradebook_update_replayed"
)

// SubmissionDecisionAction builds the audit action name for a TA decision,
// e.g. "submission_approved".
func SubmissionDecisionAction(decision string) string {
	return "submission_" + decision
}

// AuditLogEntry is append-only. Besides the plain action trail it records
// gradebook projection failures with enough metadata for later replay.
type AuditLogEntry struct {
	ID        string                 `json:"id" db:"id"`
	Actor     string                 `json:"actor,omitempty" db:"actor"`
	Action    string                 `json:"action" db:"action"`
	Entity    string                 `json:"entity" db:"entity"`
	EntityID  string                 `json:"entity_id,omitempty" db:"entity_id"`
	Meta      map[string]interface{} `json:"meta,omitempty" db:"meta"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
}
