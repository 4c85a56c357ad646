package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReviewerInitials(t *testing.T) {
	testCases := []struct {
		name     string
		user     User
		expected string
	}{
		{
			name:     "stored initials win",
			user:     User{Initials: "JMK", FirstName: "Jan", LastName: "Kowalski"},
			expected: "JMK",
		},
		{
			name:     "derived from names",
			user:     User{FirstName: "Jan", LastName: "Kowalski"},
			expected: "JK",
		},
		{
			name:     "first name only",
			user:     User{FirstName: "Jan"},
			expected: "J",
		},
		{
			name:     "multibyte names",
			user:     User{FirstName: "Øyvind", LastName: "Åberg"},
			expected: "ØÅ",
		},
		{
			name:     "nothing on record",
			user:     User{},
			expected: "TA",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.user.ReviewerInitials())
		})
	}
}

func TestRoleSatisfies(t *testing.T) {
	assert.True(t, RoleTA.Satisfies(RoleTA))
	assert.True(t, RoleAdmin.Satisfies(RoleTA))
	assert.True(t, RoleAdmin.Satisfies(RoleStudent))
	assert.False(t, RoleStudent.Satisfies(RoleTA))
	assert.False(t, RoleTA.Satisfies(RoleAdmin))
}
