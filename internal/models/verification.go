package models

import "time"

type Decision string

const (
	DecisionApproved     Decision = "approved"
	DecisionRejected     Decision = "rejected"
	DecisionNeedsChanges Decision = "needs_changes"
)

func (d Decision) String() string {
	return string(d)
}

func IsValidDecision(decision string) bool {
	switch decision {
	case "approved", "rejected", "needs_changes":
		return true
	default:
		return false
	}
}

// Verification is an immutable decision record; rows are only ever appended,
// multiple verifications per submission keep the re-review history.
type Verification struct {
	ID           string    `json:"id" db:"id"`
	SubmissionID string    `json:"submission_id" db:"submission_id"`
	TAUserID     string    `json:"ta_user_id" db:"ta_user_id"`
	Decision     string    `json:"decision" db:"decision"`
	Points       *int      `json:"points,omitempty" db:"points"`
	Initials     string    `json:"initials" db:"initials"`
	Comment      string    `json:"comment,omitempty" db:"comment"`
	VerifiedAt   time.Time `json:"verified_at" db:"verified_at"`
}
