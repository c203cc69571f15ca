package model

import "time"

// User is an account record. PlayerID is the push-addressable token the
// gateway SDK registers on the device; a user has at most one, and each
// login overwrites it (no history).
type User struct {
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	PlayerID     string    `json:"playerId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Subscribed reports whether the user is push-addressable.
func (u *User) Subscribed() bool {
	return u != nil && u.PlayerID != ""
}

// UserView hides credential material when returning users to clients.
type UserView struct {
	Name      string    `json:"name"`
	PlayerID  string    `json:"playerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// View converts the stored record into its client-safe shape.
func (u *User) View() *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		Name:      u.Name,
		PlayerID:  u.PlayerID,
		CreatedAt: u.CreatedAt,
	}
}
