package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoiyeet/TravelShare/internal/domain"
	"github.com/stoiyeet/TravelShare/internal/repository"
)

func newUser(t *testing.T, s *Store, name string) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Email: name + "@example.com", Username: name, CreatedAt: time.Now()}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestUsers_Conflicts(t *testing.T) {
	s := New()
	newUser(t, s, "alice")

	err := s.Users().Create(context.Background(), &domain.User{ID: uuid.New(), Email: "alice@example.com", Username: "other"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	bob := newUser(t, s, "bob")
	err = s.Users().UpdateProfile(context.Background(), bob.ID, "alice", "")
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestCities_DeleteRemovesOwnership(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := newUser(t, s, "alice")
	bob := newUser(t, s, "bob")

	lisbon := &domain.City{ID: uuid.New(), CityName: "Lisbon", Date: time.Now()}
	require.NoError(t, s.Cities().CreateForUser(ctx, lisbon, alice.ID))
	require.NoError(t, s.Cities().AddOwner(ctx, lisbon.ID, bob.ID))
	require.NoError(t, s.Cities().AddOwner(ctx, lisbon.ID, bob.ID))

	users, err := s.Users().ListWithLocations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{lisbon.ID}, users[0].Locations)
	assert.Equal(t, []uuid.UUID{lisbon.ID}, users[1].Locations)

	require.NoError(t, s.Cities().Delete(ctx, lisbon.ID))

	users, err = s.Users().ListWithLocations(ctx)
	require.NoError(t, err)
	for _, u := range users {
		assert.Empty(t, u.Locations)
	}
	got, err := s.Cities().GetByID(ctx, lisbon.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCities_ListOrderedByDate(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := newUser(t, s, "alice")
	now := time.Now()

	for i, name := range []string{"Rome", "Oslo", "Lima"} {
		c := &domain.City{ID: uuid.New(), CityName: name, Date: now.Add(-time.Duration(i) * time.Hour)}
		require.NoError(t, s.Cities().CreateForUser(ctx, c, alice.ID))
	}

	cities, err := s.Cities().List(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 3)
	assert.Equal(t, "Lima", cities[0].CityName)
	assert.Equal(t, "Rome", cities[2].CityName)
}

func TestCities_Images(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := newUser(t, s, "alice")
	c := &domain.City{ID: uuid.New(), CityName: "Lisbon"}
	require.NoError(t, s.Cities().CreateForUser(ctx, c, alice.ID))

	got, err := s.Cities().AddImages(ctx, c.ID, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Images)

	got, err = s.Cities().RemoveImage(ctx, c.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.Images)

	got, err = s.Cities().AddImages(ctx, uuid.New(), []string{"x"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGroups_ListByUserAndColorConflict(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := newUser(t, s, "alice")
	bob := newUser(t, s, "bob")
	carol := newUser(t, s, "carol")

	older := &domain.Group{
		ID: uuid.New(), Name: "Old", CreatedBy: alice.ID, CreatedAt: time.Now().Add(-time.Hour),
		Members: []domain.GroupMember{{UserID: alice.ID, Color: "#111"}, {UserID: bob.ID, Color: "#222"}},
	}
	newer := &domain.Group{
		ID: uuid.New(), Name: "New", CreatedBy: carol.ID, CreatedAt: time.Now(),
		Members: []domain.GroupMember{{UserID: carol.ID}, {UserID: bob.ID}},
	}
	require.NoError(t, s.Groups().Create(ctx, older))
	require.NoError(t, s.Groups().Create(ctx, newer))

	groups, err := s.Groups().ListByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "New", groups[0].Name)
	assert.Equal(t, "carol", groups[0].CreatorUsername)
	assert.Equal(t, "bob", groups[1].Members[1].Username)

	groups, err = s.Groups().ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	older.Members[1].Color = "#111"
	assert.ErrorIs(t, s.Groups().Update(ctx, older), repository.ErrConflict)
}
