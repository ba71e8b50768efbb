package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stoiyeet/TravelShare/internal/domain"
	"github.com/stoiyeet/TravelShare/internal/membership"
	"github.com/stoiyeet/TravelShare/internal/repository"
)

type GroupService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	editor    *membership.Editor
}

func NewGroupService(groupRepo repository.GroupRepository, userRepo repository.UserRepository, editor *membership.Editor) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		editor:    editor,
	}
}

type GroupInput struct {
	Name    string                 `json:"name"`
	Members []membership.Candidate `json:"members"`
}

// GroupResult is a saved group plus the member requests that were not
// applied as asked.
type GroupResult struct {
	*domain.Group
	Rejected []membership.Rejection `json:"rejected,omitempty"`
}

func (s *GroupService) Palette() []string {
	return s.editor.Palette()
}

func (s *GroupService) Create(ctx context.Context, userID uuid.UUID, input GroupInput) (*GroupResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrGroupNameRequired
	}

	creator, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, ErrUserNotFound
	}

	res, err := s.editor.Normalize(ctx, creator, nil, input.Members)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	group := &domain.Group{
		ID:              uuid.New(),
		Name:            name,
		CreatedBy:       userID,
		Members:         res.Members,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatorUsername: creator.Username,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}

	return &GroupResult{Group: group, Rejected: res.Rejected}, nil
}

// Get returns a group readable by its creator and members.
func (s *GroupService) Get(ctx context.Context, userID, groupID uuid.UUID) (*domain.Group, error) {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, ErrGroupForbidden
	}
	return group, nil
}

func (s *GroupService) List(ctx context.Context, userID uuid.UUID) ([]domain.Group, error) {
	groups, err := s.groupRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	return groups, nil
}

// Update renames the group and replaces its members. The creator keeps
// their colour.
func (s *GroupService) Update(ctx context.Context, userID, groupID uuid.UUID, input GroupInput) (*GroupResult, error) {
	group, err := s.loadOwned(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrGroupNameRequired
	}

	creator, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, ErrUserNotFound
	}

	res, err := s.editor.Normalize(ctx, creator, group.Members, input.Members)
	if err != nil {
		return nil, err
	}

	group.Name = name
	group.Members = res.Members
	group.UpdatedAt = time.Now()
	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("updating group: %w", err)
	}

	return &GroupResult{Group: group, Rejected: res.Rejected}, nil
}

func (s *GroupService) Delete(ctx context.Context, userID, groupID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, userID, groupID); err != nil {
		return err
	}
	return s.groupRepo.Delete(ctx, groupID)
}

func (s *GroupService) AddMember(ctx context.Context, userID, groupID uuid.UUID, candidate membership.Candidate) (*GroupResult, error) {
	group, err := s.loadOwned(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	member, rejected, err := s.editor.Add(ctx, group, candidate)
	if err != nil {
		return nil, err
	}

	group.Members = append(group.Members, *member)
	if err := s.save(ctx, group); err != nil {
		return nil, err
	}

	res := &GroupResult{Group: group}
	if rejected != nil {
		res.Rejected = []membership.Rejection{*rejected}
	}
	return res, nil
}

// RemoveMember drops memberID from the group and frees its colour. The
// creator may remove anyone else; a member may only remove themselves.
func (s *GroupService) RemoveMember(ctx context.Context, userID, groupID, memberID uuid.UUID) (*domain.Group, error) {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatedBy != userID {
		if !group.HasMember(userID) {
			return nil, ErrGroupForbidden
		}
		if memberID != userID {
			return nil, ErrNotGroupCreator
		}
	}

	members, err := s.editor.Remove(group, memberID)
	if err != nil {
		return nil, err
	}

	group.Members = members
	if err := s.save(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) SetMemberColor(ctx context.Context, userID, groupID, memberID uuid.UUID, color string) (*domain.Group, error) {
	group, err := s.loadOwned(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.editor.Recolor(group, memberID, color)
	if err != nil {
		return nil, err
	}

	group.Members = members
	if err := s.save(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// AvailableColors lists palette colours no member of the group holds.
func (s *GroupService) AvailableColors(ctx context.Context, userID, groupID uuid.UUID) ([]string, error) {
	group, err := s.Get(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	return s.editor.AvailableColors(group), nil
}

func (s *GroupService) save(ctx context.Context, group *domain.Group) error {
	group.UpdatedAt = time.Now()
	if err := s.groupRepo.Update(ctx, group); err != nil {
		return fmt.Errorf("updating group: %w", err)
	}
	return nil
}

func (s *GroupService) load(ctx context.Context, groupID uuid.UUID) (*domain.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

func (s *GroupService) loadOwned(ctx context.Context, userID, groupID uuid.UUID) (*domain.Group, error) {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatedBy != userID {
		return nil, ErrNotGroupCreator
	}
	return group, nil
}
