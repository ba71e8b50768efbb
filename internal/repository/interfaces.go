package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stoiyeet/TravelShare/internal/domain"
)

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("conflicting record")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// ListWithLocations returns every user with Locations filled, in
	// registration order.
	ListWithLocations(ctx context.Context) ([]domain.User, error)
	List(ctx context.Context) ([]domain.PublicUser, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, username, avatar string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateColor(ctx context.Context, id uuid.UUID, color string) error
}

type CityRepository interface {
	// CreateForUser inserts the city and records userID as its owner in
	// one transaction.
	CreateForUser(ctx context.Context, city *domain.City, userID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.City, error)
	List(ctx context.Context) ([]domain.City, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.City, error)
	Update(ctx context.Context, city *domain.City) error
	// Delete removes the city and every ownership edge pointing at it.
	Delete(ctx context.Context, id uuid.UUID) error
	AddImages(ctx context.Context, id uuid.UUID, urls []string) (*domain.City, error)
	RemoveImage(ctx context.Context, id uuid.UUID, url string) (*domain.City, error)
	IsOwner(ctx context.Context, cityID, userID uuid.UUID) (bool, error)
	AddOwner(ctx context.Context, cityID, userID uuid.UUID) error
}

type GroupRepository interface {
	// Create stores the group together with its ordered member list.
	Create(ctx context.Context, group *domain.Group) error
	// GetByID returns the group with member usernames and avatars joined.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error)
	// ListByUser returns groups userID created or belongs to, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Group, error)
	// Update replaces the group's name and its whole member list.
	Update(ctx context.Context, group *domain.Group) error
	Delete(ctx context.Context, id uuid.UUID) error
}
