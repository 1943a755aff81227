package models

import "time"

// User represents a registered account. Every recipe, tag and ingredient in
// the system belongs to exactly one user.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	IsActive     bool      `json:"isActive"`
	IsStaff      bool      `json:"isStaff"`
	IsSuperuser  bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
