// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. PasswordHash is a bcrypt hash, never the plain text.
// The avatar lives outside this struct and is loaded on demand.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Age          int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
