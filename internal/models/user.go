package models

import (
	"time"
)

// Role determines what a user may do across the application.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an authenticated user in the system.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `gorm:"size:255;not null" json:"name"`
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON
	Role     Role   `gorm:"size:20;not null;default:'user'" json:"role"`

	Invoices []Invoice `gorm:"foreignKey:UserID" json:"invoices,omitempty"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Actor is the resolved identity performing a request.
// The session layer only authenticates; everything downstream authorizes
// against this pair of id and role.
type Actor struct {
	ID   uint `json:"id"`
	Role Role `json:"role"`
}

// IsAdmin returns true if the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ActorFor builds the actor corresponding to a stored user.
func ActorFor(u *User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
