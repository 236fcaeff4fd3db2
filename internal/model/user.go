// Package model defines the data structures shared by the client core and the
// development backend.
package model

import "time"

// Identity is the public view of a user: what the backend returns from
// POST /sessions and PUT /profile, and what the client persists on the device.
type Identity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// User is the backend's account record.
//
// PasswordHash never leaves the server: the json:"-" tag keeps it out of every
// response, and handlers only ever serialise Identity().
type User struct {
	ID           string    `json:"id"         db:"id"`
	Name         string    `json:"name"       db:"name"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	AvatarURL    string    `json:"avatar_url" db:"avatar_url"`
	IsProvider   bool      `json:"-"          db:"is_provider"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Identity projects the record onto its public fields.
func (u *User) Identity() Identity {
	return Identity{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}
