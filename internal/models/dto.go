package models

import "time"

// Data Transfer Objects

type CreateSubmissionRequest struct {
	LabCode   string `json:"lab_code" validate:"required,max=64"`
	LabTitle  string `json:"lab_title" validate:"max=255"`
	VideoPath string `json:"video_path" validate:"required,max=1024"`
	Notes     string `json:"notes" validate:"max=2000"`
	RepoURL   string `json:"repo_url" validate:"omitempty,url,max=1024"`
}

// UploadSubmissionRequest carries a multipart submission where the video is
// streamed through the service into the object store.
type UploadSubmissionRequest struct {
	LabCode  string `validate:"required,max=64"`
	LabTitle string `validate:"max=255"`
	Notes    string `validate:"max=2000"`
	RepoURL  string `validate:"omitempty,url,max=1024"`
	FileName string `validate:"required"`
}

type SubmissionResponse struct {
	ID        string    `json:"id"`
	LabCode   string    `json:"lab_code"`
	VideoPath string    `json:"video_path,omitempty"`
	Status    string    `json:"status"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DecisionRequest struct {
	SubmissionID string `json:"submission_id" validate:"required,uuid"`
	Decision     string `json:"decision" validate:"required,oneof=approved rejected needs_changes"`
	Points       *int   `json:"points,omitempty" validate:"omitempty,min=0,max=100"`
	Comment      string `json:"comment,omitempty" validate:"max=2000"`
	// Version is the submission version the reviewer read; when set, the
	// decision is rejected with a conflict if the row has moved on.
	Version *int `json:"version,omitempty"`
}

type DecisionResponse struct {
	SubmissionID string `json:"submission_id"`
	Decision     string `json:"decision"`
	Points       *int   `json:"points,omitempty"`
	Initials     string `json:"initials"`
	Version      int    `json:"version"`
}

type SignedURLRequest struct {
	Path string `json:"path" validate:"required,max=1024"`
}

type SignedURLResponse struct {
	SignedURL string `json:"signed_url"`
	ExpiresIn int64  `json:"expires_in_seconds"`
}

type CheckEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CheckEmailResponse struct {
	Allowed bool `json:"allowed"`
}

type SubmissionsResponse struct {
	Submissions []SubmissionWithDetails `json:"submissions"`
	Total       int                     `json:"total"`
}

type GradebookResponse struct {
	Gradebook []GradebookRow `json:"gradebook"`
}
