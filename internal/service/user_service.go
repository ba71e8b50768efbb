package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/stoiyeet/TravelShare/internal/domain"
	"github.com/stoiyeet/TravelShare/internal/membership"
	"github.com/stoiyeet/TravelShare/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
	palette  membership.Palette
}

func NewUserService(userRepo repository.UserRepository, palette membership.Palette) *UserService {
	return &UserService{userRepo: userRepo, palette: palette}
}

type ProfileInput struct {
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
}

type PasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List returns every user's public fields, for picking group members.
func (s *UserService) List(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.PublicUser{}
	}
	return users, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*domain.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if username != user.Username {
		existing, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrUsernameTaken
		}
	}

	avatar := user.Avatar
	if input.Avatar != nil {
		avatar = strings.TrimSpace(*input.Avatar)
		if avatar == "" {
			avatar = DefaultAvatar(user.Email)
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, username, avatar); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	user.Username = username
	user.Avatar = avatar
	return user, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, input PasswordInput) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !verifyPassword(input.CurrentPassword, user.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := hashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, userID, hash)
}

// BackfillColors gives every user without a display colour the palette
// colour derived from their username. It returns how many were updated.
func (s *UserService) BackfillColors(ctx context.Context) (int, error) {
	users, err := s.userRepo.ListWithLocations(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, u := range users {
		if u.Color != "" {
			continue
		}
		color := s.palette.ColorFor(u.Username)
		if err := s.userRepo.UpdateColor(ctx, u.ID, color); err != nil {
			return updated, fmt.Errorf("updating colour of %s: %w", u.Username, err)
		}
		slog.Info("assigned user colour", "username", u.Username, "color", color)
		updated++
	}
	return updated, nil
}
