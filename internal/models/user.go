package models

import "time"

// User represents an authenticated user account.
type User struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserProfile holds optional per-user settings, keyed 1:1 with the user.
// Updates merge field-by-field rather than replacing the record.
type UserProfile struct {
	UserID                  string    `json:"user_id"`
	EstimatedAnnualEarnings *float64  `json:"estimated_annual_earnings,omitempty"`
	UpdatedAt               time.Time `json:"updated_at"`
}
