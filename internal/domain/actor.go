package domain

import "time"

// Actor is the user on whose behalf an operation runs.
type Actor struct {
	UserID   string
	TenantID string
	Roles    []Role
}

func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsDirectorOrAdmin reports whether the actor holds elevated privilege.
func (a Actor) IsDirectorOrAdmin() bool {
	return a.HasRole(RoleDirector) || a.HasRole(RoleAdmin)
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
