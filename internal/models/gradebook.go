package models

import "time"

// GradebookEntry is the materialized current grade for a (user, lab) pair.
// It is a projection of the latest approved verification, not a source of truth.
type GradebookEntry struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	LabID      string    `json:"lab_id" db:"lab_id"`
	Points     int       `json:"points" db:"points"`
	MaxPoints  int       `json:"max_points" db:"max_points"`
	TAInitials string    `json:"ta_initials" db:"ta_initials"`
	VerifiedAt time.Time `json:"verified_at" db:"verified_at"`
	Notes      string    `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// GradebookRow is a gradebook entry joined with student identity and lab
// fields, the shape consumed by the JSON view and the CSV export transformer.
type GradebookRow struct {
	GradebookEntry
	StudentEmail     string `json:"student_email" db:"student_email"`
	StudentFirstName string `json:"student_first_name" db:"student_first_name"`
	StudentLastName  string `json:"student_last_name" db:"student_last_name"`
	StudentSection   string `json:"student_section" db:"student_section"`
	LabCode          string `json:"lab_code" db:"lab_code"`
	LabTitle         string `json:"lab_title" db:"lab_title"`
}

type GradebookFilter struct {
	Section string
	LabCode string
}
