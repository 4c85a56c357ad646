package models

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTA      Role = "ta"
	RoleAdmin   Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleStudent, RoleTA, RoleAdmin:
		return true
	default:
		return false
	}
}

// Satisfies reports whether a user holding this role passes a check for the
// required role. Admin satisfies every role.
func (r Role) Satisfies(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}

type User struct {
	ID         string    `json:"id" db:"id"`
	AuthUserID string    `json:"auth_user_id" db:"auth_user_id"`
	Email      string    `json:"email" db:"email"`
	FirstName  string    `json:"first_name,omitempty" db:"first_name"`
	LastName   string    `json:"last_name,omitempty" db:"last_name"`
	Section    string    `json:"section,omitempty" db:"section"`
	Role       Role      `json:"role" db:"role"`
	Initials   string    `json:"initials,omitempty" db:"initials"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ReviewerInitials resolves the initials recorded on verifications: stored
// initials first, then first letters of the first and last name, then "TA".
func (u *User) ReviewerInitials() string {
	if u.Initials != "" {
		return u.Initials
	}

	var initials string
	if u.FirstName != "" {
		initials += string([]rune(u.FirstName)[:1])
	}
	if u.LastName != "" {
		initials += string([]rune(u.LastName)[:1])
	}
	if initials != "" {
		return initials
	}

	return "TA"
}
