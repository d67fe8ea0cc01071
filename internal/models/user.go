package models

import "time"

// User represents a user in the system
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Not serialized
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
