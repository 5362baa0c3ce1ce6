package entity

import "time"

// Roles recognized by the authorization gate. Anything else is treated as
// an ordinary user.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account row in the `users` table. The password hash
// never leaves the service: it is excluded from JSON serialization and
// callers of the service layer receive the struct with the hash intact only
// inside this package tree.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
