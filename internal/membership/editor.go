package membership

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stoiyeet/TravelShare/internal/domain"
)

var (
	ErrAlreadyMember       = errors.New("user is already a member")
	ErrNotMember           = errors.New("user is not a member of this group")
	ErrCannotRemoveCreator = errors.New("the group creator cannot be removed")
	ErrUnknownUser         = errors.New("user not found")
)

// UserResolver looks users up by username. A nil user with a nil error
// means the username does not exist.
type UserResolver interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Candidate is a requested member. In JSON it is either a bare username
// or an object {"user": "<username>", "color": "<color>"}.
type Candidate struct {
	Username string `json:"user"`
	Color    string `json:"color,omitempty"`
}

func (c *Candidate) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = Candidate{Username: name}
		return nil
	}
	var obj struct {
		User  string `json:"user"`
		Color string `json:"color"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("member must be a username or {user, color}: %w", err)
	}
	*c = Candidate{Username: obj.User, Color: obj.Color}
	return nil
}

// Rejection records a candidate or colour request the editor did not apply.
type Rejection struct {
	Username string `json:"username"`
	Color    string `json:"color,omitempty"`
	Reason   string `json:"reason"`
}

type Result struct {
	Members  []domain.GroupMember
	Rejected []Rejection
}

type Editor struct {
	palette Palette
	users   UserResolver
}

func NewEditor(palette Palette, users UserResolver) *Editor {
	return &Editor{palette: palette, users: users}
}

func (e *Editor) Palette() Palette {
	return e.palette
}

// Normalize turns a requested member list into the list to persist. It
// replaces the group's previous members; previous is only consulted for
// the creator's colour, which survives every edit.
func (e *Editor) Normalize(ctx context.Context, creator *domain.User, previous []domain.GroupMember, candidates []Candidate) (*Result, error) {
	creatorKey := creator.ID.String()
	session := NewSession(e.palette)
	session.Pin(creatorKey)
	for _, m := range previous {
		if m.UserID == creator.ID && m.Color != "" {
			_ = session.Assign(creatorKey, m.Color)
		}
	}

	res := &Result{}
	seen := map[uuid.UUID]bool{creator.ID: true}
	var members []domain.GroupMember

	for _, c := range candidates {
		username := strings.TrimSpace(c.Username)
		if username == "" {
			continue
		}

		user, err := e.users.GetByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("resolving member %q: %w", username, err)
		}
		if user == nil {
			res.Rejected = append(res.Rejected, Rejection{Username: username, Reason: ErrUnknownUser.Error()})
			continue
		}

		if user.ID == creator.ID {
			if session.ColorOf(creatorKey) == "" && c.Color != "" {
				if err := session.Assign(creatorKey, c.Color); err != nil {
					res.Rejected = append(res.Rejected, Rejection{Username: username, Color: c.Color, Reason: err.Error()})
				}
			}
			continue
		}
		if seen[user.ID] {
			res.Rejected = append(res.Rejected, Rejection{Username: username, Reason: ErrAlreadyMember.Error()})
			continue
		}
		seen[user.ID] = true

		key := user.ID.String()
		if c.Color != "" {
			if err := session.Assign(key, c.Color); err != nil {
				res.Rejected = append(res.Rejected, Rejection{Username: username, Color: c.Color, Reason: err.Error()})
			}
		}
		members = append(members, domain.GroupMember{
			UserID:   user.ID,
			Username: user.Username,
			Avatar:   user.Avatar,
			Color:    session.ColorOf(key),
		})
	}

	if session.ColorOf(creatorKey) == "" {
		if free := session.Available(); len(free) > 0 {
			_ = session.Assign(creatorKey, free[0])
		}
	}

	res.Members = append([]domain.GroupMember{{
		UserID:   creator.ID,
		Username: creator.Username,
		Avatar:   creator.Avatar,
		Color:    session.ColorOf(creatorKey),
	}}, members...)
	return res, nil
}

// Add appends one member to an existing group. A colour that is taken or
// outside the palette leaves the new member unassigned and is reported as
// a rejection rather than an error.
func (e *Editor) Add(ctx context.Context, group *domain.Group, c Candidate) (*domain.GroupMember, *Rejection, error) {
	username := strings.TrimSpace(c.Username)
	user, err := e.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving member %q: %w", username, err)
	}
	if user == nil {
		return nil, nil, ErrUnknownUser
	}
	if group.HasMember(user.ID) {
		return nil, nil, ErrAlreadyMember
	}

	session := SessionFromMembers(e.palette, group.CreatedBy.String(), group.Members)
	member := &domain.GroupMember{UserID: user.ID, Username: user.Username, Avatar: user.Avatar}

	var rejected *Rejection
	if c.Color != "" {
		if err := session.Assign(user.ID.String(), c.Color); err != nil {
			rejected = &Rejection{Username: username, Color: c.Color, Reason: err.Error()}
		}
	}
	member.Color = session.ColorOf(user.ID.String())
	return member, rejected, nil
}

// Recolor moves a member to another colour, keeping the old one when the
// requested colour cannot be taken.
func (e *Editor) Recolor(group *domain.Group, userID uuid.UUID, color string) ([]domain.GroupMember, error) {
	session := SessionFromMembers(e.palette, group.CreatedBy.String(), group.Members)
	idx := memberIndex(group.Members, userID)
	if idx < 0 {
		return nil, ErrNotMember
	}
	if err := session.Assign(userID.String(), color); err != nil {
		return nil, err
	}
	return withSessionColors(group.Members, session), nil
}

// Remove drops a member and frees its colour. The creator cannot be removed.
func (e *Editor) Remove(group *domain.Group, userID uuid.UUID) ([]domain.GroupMember, error) {
	if userID == group.CreatedBy {
		return nil, ErrCannotRemoveCreator
	}
	idx := memberIndex(group.Members, userID)
	if idx < 0 {
		return nil, ErrNotMember
	}

	out := make([]domain.GroupMember, 0, len(group.Members)-1)
	out = append(out, group.Members[:idx]...)
	out = append(out, group.Members[idx+1:]...)
	return out, nil
}

// AvailableColors lists the palette colours no member of the group holds.
func (e *Editor) AvailableColors(group *domain.Group) []string {
	return SessionFromMembers(e.palette, group.CreatedBy.String(), group.Members).Available()
}

func memberIndex(members []domain.GroupMember, userID uuid.UUID) int {
	for i, m := range members {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}

func withSessionColors(members []domain.GroupMember, s *Session) []domain.GroupMember {
	out := make([]domain.GroupMember, len(members))
	for i, m := range members {
		m.Color = s.ColorOf(m.UserID.String())
		out[i] = m
	}
	return out
}
