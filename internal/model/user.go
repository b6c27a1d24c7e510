// Package model defines domain entities for the application.
package model

import "time"

// DefaultUserID is the tenant that pre-multi-tenant data belongs to.
const DefaultUserID = "default"

// User is an account in the credential store.
// The username is globally unique and doubles as the user ID.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"passwordHash"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

// Public returns the user fields that may leave the server.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username}
}

// PublicUser is the client-visible part of a User.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// AuthContext holds authenticated request context.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	UserID    string
	Username  string
	ExpiresAt time.Time
}
