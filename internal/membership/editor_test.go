package membership

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoiyeet/TravelShare/internal/domain"
)

type fakeUsers map[string]*domain.User

func (f fakeUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return f[username], nil
}

type failingUsers struct{}

func (failingUsers) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, errors.New("connection refused")
}

func newUsers(names ...string) fakeUsers {
	users := fakeUsers{}
	for _, n := range names {
		users[n] = &domain.User{ID: uuid.New(), Username: n}
	}
	return users
}

var testPalette = NewPalette([]string{"#111", "#222", "#333"})

func TestSession_RejectsUsedColor(t *testing.T) {
	s := NewSession(testPalette)
	require.NoError(t, s.Assign("alice", "#111"))

	err := s.Assign("bob", "#111")

	assert.ErrorIs(t, err, ErrColorTaken)
	assert.Equal(t, "", s.ColorOf("bob"), "bob should stay unassigned")
	assert.Equal(t, "#111", s.ColorOf("alice"))
}

func TestSession_RemoveFreesColor(t *testing.T) {
	s := NewSession(testPalette)
	require.NoError(t, s.Assign("bob", "#222"))
	assert.Equal(t, []string{"#111", "#333"}, s.Available())

	s.Remove("bob")

	assert.Equal(t, []string{"#111", "#222", "#333"}, s.Available())
	require.NoError(t, s.Assign("carol", "#222"))
}

func TestSession_PinnedColorSurvivesRemove(t *testing.T) {
	s := NewSession(testPalette)
	s.Pin("alice")
	require.NoError(t, s.Assign("alice", "#111"))

	s.Remove("alice")

	assert.Equal(t, "#111", s.ColorOf("alice"))
	assert.ErrorIs(t, s.Assign("bob", "#111"), ErrColorTaken)
}

func TestSession_ReassignReleasesPreviousColor(t *testing.T) {
	s := NewSession(testPalette)
	require.NoError(t, s.Assign("bob", "#111"))
	require.NoError(t, s.Assign("bob", "#222"))

	assert.Equal(t, "#222", s.ColorOf("bob"))
	assert.Equal(t, []string{"#111", "#333"}, s.Available())
}

func TestSession_RejectsColorOutsidePalette(t *testing.T) {
	s := NewSession(testPalette)
	assert.ErrorIs(t, s.Assign("bob", "#abcdef"), ErrColorNotInPalette)
}

func TestSessionFromMembers_DuplicateStoredColor(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	s := SessionFromMembers(testPalette, first.String(), []domain.GroupMember{
		{UserID: first, Color: "#111"},
		{UserID: second, Color: "#111"},
	})

	assert.Equal(t, "#111", s.ColorOf(first.String()))
	assert.Equal(t, "", s.ColorOf(second.String()))
}

func TestNormalize_CreatorFirstWithDefaultColor(t *testing.T) {
	users := newUsers("alice", "bob")
	editor := NewEditor(testPalette, users)

	res, err := editor.Normalize(context.Background(), users["alice"], nil, []Candidate{
		{Username: "bob", Color: "#222"},
	})
	require.NoError(t, err)

	require.Len(t, res.Members, 2)
	assert.Equal(t, "alice", res.Members[0].Username)
	assert.Equal(t, "#111", res.Members[0].Color, "creator gets first free colour")
	assert.Equal(t, "bob", res.Members[1].Username)
	assert.Equal(t, "#222", res.Members[1].Color)
	assert.Empty(t, res.Rejected)
}

func TestNormalize_DropsUnknownUsers(t *testing.T) {
	users := newUsers("alice", "bob")
	editor := NewEditor(testPalette, users)

	res, err := editor.Normalize(context.Background(), users["alice"], nil, []Candidate{
		{Username: "ghost"},
		{Username: "bob"},
		{Username: "  "},
	})
	require.NoError(t, err)

	require.Len(t, res.Members, 2)
	assert.Equal(t, "bob", res.Members[1].Username)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "ghost", res.Rejected[0].Username)
}

func TestNormalize_DuplicateColorLeavesSecondUnassigned(t *testing.T) {
	users := newUsers("alice", "bob", "carol")
	editor := NewEditor(testPalette, users)

	res, err := editor.Normalize(context.Background(), users["alice"], nil, []Candidate{
		{Username: "bob", Color: "#111"},
		{Username: "carol", Color: "#111"},
	})
	require.NoError(t, err)

	require.Len(t, res.Members, 3)
	assert.Equal(t, "#111", res.Members[1].Color)
	assert.Equal(t, "", res.Members[2].Color)
	assert.Equal(t, "#222", res.Members[0].Color)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "carol", res.Rejected[0].Username)
}

func TestNormalize_CreatorColorPersistsAcrossEdits(t *testing.T) {
	users := newUsers("alice", "bob")
	editor := NewEditor(testPalette, users)
	alice := users["alice"]
	previous := []domain.GroupMember{{UserID: alice.ID, Color: "#333"}}

	res, err := editor.Normalize(context.Background(), alice, previous, []Candidate{
		{Username: "bob", Color: "#333"},
		{Username: "alice", Color: "#111"},
	})
	require.NoError(t, err)

	assert.Equal(t, "#333", res.Members[0].Color)
	assert.Equal(t, "", res.Members[1].Color)
	assert.Len(t, res.Members, 2, "creator listed once")
}

func TestNormalize_SkipsRepeatedMember(t *testing.T) {
	users := newUsers("alice", "bob")
	editor := NewEditor(testPalette, users)

	res, err := editor.Normalize(context.Background(), users["alice"], nil, []Candidate{
		{Username: "bob", Color: "#222"},
		{Username: "bob", Color: "#333"},
	})
	require.NoError(t, err)

	require.Len(t, res.Members, 2)
	assert.Equal(t, "#222", res.Members[1].Color)
}

func TestNormalize_ColorsStayUnique(t *testing.T) {
	users := newUsers("alice", "b", "c", "d", "e")
	editor := NewEditor(testPalette, users)

	res, err := editor.Normalize(context.Background(), users["alice"], nil, []Candidate{
		{Username: "b", Color: "#111"},
		{Username: "c", Color: "#111"},
		{Username: "d", Color: "#222"},
		{Username: "e", Color: "#333"},
	})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, m := range res.Members {
		if m.Color == "" {
			continue
		}
		assert.False(t, seen[m.Color], "colour %s held twice", m.Color)
		seen[m.Color] = true
	}
	assert.Equal(t, "", res.Members[0].Color, "palette exhausted, creator unassigned")
}

func TestNormalize_ResolverFailure(t *testing.T) {
	editor := NewEditor(testPalette, failingUsers{})
	creator := &domain.User{ID: uuid.New(), Username: "alice"}

	_, err := editor.Normalize(context.Background(), creator, nil, []Candidate{{Username: "bob"}})
	assert.Error(t, err)
}

func TestAdd_UsedColorLeavesMemberUnassigned(t *testing.T) {
	users := newUsers("alice", "bob", "carol")
	editor := NewEditor(testPalette, users)
	group := &domain.Group{
		CreatedBy: users["alice"].ID,
		Members: []domain.GroupMember{
			{UserID: users["alice"].ID, Color: "#222"},
			{UserID: users["bob"].ID, Color: "#111"},
		},
	}

	member, rejected, err := editor.Add(context.Background(), group, Candidate{Username: "carol", Color: "#111"})
	require.NoError(t, err)

	assert.Equal(t, "", member.Color)
	require.NotNil(t, rejected)
	assert.Equal(t, ErrColorTaken.Error(), rejected.Reason)
}

func TestAdd_Errors(t *testing.T) {
	users := newUsers("alice", "bob")
	editor := NewEditor(testPalette, users)
	group := &domain.Group{
		CreatedBy: users["alice"].ID,
		Members:   []domain.GroupMember{{UserID: users["alice"].ID}, {UserID: users["bob"].ID}},
	}

	_, _, err := editor.Add(context.Background(), group, Candidate{Username: "ghost"})
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, _, err = editor.Add(context.Background(), group, Candidate{Username: "bob"})
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestRemove(t *testing.T) {
	users := newUsers("alice", "bob")
	editor := NewEditor(testPalette, users)
	group := &domain.Group{
		CreatedBy: users["alice"].ID,
		Members: []domain.GroupMember{
			{UserID: users["alice"].ID, Color: "#111"},
			{UserID: users["bob"].ID, Color: "#222"},
		},
	}

	_, err := editor.Remove(group, users["alice"].ID)
	assert.ErrorIs(t, err, ErrCannotRemoveCreator)

	_, err = editor.Remove(group, uuid.New())
	assert.ErrorIs(t, err, ErrNotMember)

	members, err := editor.Remove(group, users["bob"].ID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	group.Members = members
	assert.Equal(t, []string{"#222", "#333"}, editor.AvailableColors(group))
}

func TestRecolor(t *testing.T) {
	users := newUsers("alice", "bob")
	editor := NewEditor(testPalette, users)
	group := &domain.Group{
		CreatedBy: users["alice"].ID,
		Members: []domain.GroupMember{
			{UserID: users["alice"].ID, Color: "#111"},
			{UserID: users["bob"].ID, Color: "#222"},
		},
	}

	_, err := editor.Recolor(group, users["bob"].ID, "#111")
	assert.ErrorIs(t, err, ErrColorTaken)

	members, err := editor.Recolor(group, users["bob"].ID, "#333")
	require.NoError(t, err)
	assert.Equal(t, "#333", members[1].Color)
	assert.Equal(t, "#111", members[0].Color)
}

func TestCandidateUnmarshal(t *testing.T) {
	var got []Candidate
	err := json.Unmarshal([]byte(`["bob", {"user": "carol", "color": "#222"}]`), &got)
	require.NoError(t, err)

	assert.Equal(t, []Candidate{{Username: "bob"}, {Username: "carol", Color: "#222"}}, got)

	assert.Error(t, json.Unmarshal([]byte(`[42]`), &got))
}

func TestPalette(t *testing.T) {
	p := NewPalette([]string{" #AAA ", "#aaa", "", "#bbb"})
	assert.Equal(t, Palette{"#aaa", "#bbb"}, p)
	assert.True(t, p.Contains("#AAA"))
	assert.False(t, p.Contains("#ccc"))

	assert.Equal(t, p.ColorFor("mark"), p.ColorFor("Mark"))
	assert.Contains(t, []string{"#aaa", "#bbb"}, p.ColorFor("mark"))
	assert.Equal(t, "", Palette{}.ColorFor("mark"))
}
