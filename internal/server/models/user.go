package models

import "time"

// User is an account that can log in. PasswordHash is a bcrypt digest and
// never leaves the server.
type User struct {
	ID           string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
