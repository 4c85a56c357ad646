package models

import "time"

type Submission struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	LabID     string    `json:"lab_id" db:"lab_id"`
	VideoPath string    `json:"video_path,omitempty" db:"video_path"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	RepoURL   string    `json:"repo_url,omitempty" db:"repo_url"`
	Status    string    `json:"status" db:"status"` // submitted, approved, rejected, needs_changes
	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type SubmissionStatus string

const (
	SubmissionStatusSubmitted    SubmissionStatus = "submitted"
	SubmissionStatusApproved     SubmissionStatus = "approved"
	SubmissionStatusRejected     SubmissionStatus = "rejected"
	SubmissionStatusNeedsChanges SubmissionStatus = "needs_changes"
)

func (ss SubmissionStatus) String() string {
	return string(ss)
}

func IsValidSubmissionStatus(status string) bool {
	switch status {
	case "submitted", "approved", "rejected", "needs_changes":
		return true
	default:
		return false
	}
}

// SubmissionWithDetails is a submission joined with its owner, lab and
// verification history for the review surface.
type SubmissionWithDetails struct {
	Submission
	User          User           `json:"user"`
	Lab           Lab            `json:"lab"`
	Verifications []Verification `json:"verifications"`
}

// SubmissionFilter narrows the review listing; zero values match everything.
type SubmissionFilter struct {
	LabCode string
	Section string
	Status  string
}
