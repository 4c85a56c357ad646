package models

import "time"

type Lab struct {
	ID        string     `json:"id" db:"id"`
	Code      string     `json:"code" db:"code"`
	Title     string     `json:"title,omitempty" db:"title"`
	Section   string     `json:"section,omitempty" db:"section"`
	DueDate   *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
