package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID   `json:"id"`
	Email        string      `json:"email"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"-"`
	Avatar       string      `json:"avatar"`
	Color        string      `json:"color,omitempty"`
	Locations    []uuid.UUID `json:"locations"`
	CreatedAt    time.Time   `json:"created_at"`
}

// HasLocation reports whether cityID is among the user's visited cities.
func (u *User) HasLocation(cityID uuid.UUID) bool {
	for _, id := range u.Locations {
		if id == cityID {
			return true
		}
	}
	return false
}

// PublicUser is the projection other users are allowed to see.
type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	Color    string    `json:"color,omitempty"`
}
