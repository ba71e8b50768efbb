package domain

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	CreatedBy uuid.UUID     `json:"created_by"`
	Members   []GroupMember `json:"members"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	// Joined fields
	CreatorUsername string `json:"created_by_username,omitempty"`
}

type GroupMember struct {
	UserID uuid.UUID `json:"user_id"`
	// Color is empty while the member has no colour assigned.
	Color string `json:"color"`
	// Joined fields
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// HasMember reports whether userID is the creator or one of the members.
func (g *Group) HasMember(userID uuid.UUID) bool {
	if g.CreatedBy == userID {
		return true
	}
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
