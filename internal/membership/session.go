package membership

import (
	"errors"

	"github.com/stoiyeet/TravelShare/internal/domain"
)

var (
	ErrColorTaken        = errors.New("color is already assigned to another member")
	ErrColorNotInPalette = errors.New("color is not part of the marker palette")
)

// Session tracks colour ownership while a member list is being edited.
// A member is unassigned until Assign succeeds, and Remove returns its
// colour to the pool. The pinned member (the group creator) keeps its
// colour when removed.
type Session struct {
	palette Palette
	holders map[string]string // color -> member
	colors  map[string]string // member -> color
	pinned  string
}

func NewSession(palette Palette) *Session {
	return &Session{
		palette: palette,
		holders: make(map[string]string),
		colors:  make(map[string]string),
	}
}

// SessionFromMembers seeds a session with the colours already held in a
// group. When stored data holds a colour twice, the earlier member keeps it
// and the later one starts unassigned.
func SessionFromMembers(palette Palette, creator string, members []domain.GroupMember) *Session {
	s := NewSession(palette)
	s.Pin(creator)
	for _, m := range members {
		if m.Color == "" {
			continue
		}
		_ = s.Assign(m.UserID.String(), m.Color)
	}
	return s
}

func (s *Session) Pin(member string) {
	s.pinned = member
}

// Assign gives color to member, releasing any colour it held before.
func (s *Session) Assign(member, color string) error {
	color = normalizeColor(color)
	if !s.palette.Contains(color) {
		return ErrColorNotInPalette
	}
	if holder, ok := s.holders[color]; ok {
		if holder == member {
			return nil
		}
		return ErrColorTaken
	}
	if prev, ok := s.colors[member]; ok {
		delete(s.holders, prev)
	}
	s.holders[color] = member
	s.colors[member] = color
	return nil
}

// Remove frees the member's colour unless the member is pinned.
func (s *Session) Remove(member string) {
	if member == s.pinned {
		return
	}
	if c, ok := s.colors[member]; ok {
		delete(s.holders, c)
		delete(s.colors, member)
	}
}

// ColorOf returns the member's colour, or "" while unassigned.
func (s *Session) ColorOf(member string) string {
	return s.colors[member]
}

// Available lists palette colours nobody holds, in palette order.
func (s *Session) Available() []string {
	out := make([]string, 0, len(s.palette))
	for _, c := range s.palette {
		if _, taken := s.holders[c]; !taken {
			out = append(out, c)
		}
	}
	return out
}
