package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoiyeet/TravelShare/internal/domain"
	"github.com/stoiyeet/TravelShare/internal/geocode"
	"github.com/stoiyeet/TravelShare/internal/membership"
	"github.com/stoiyeet/TravelShare/internal/ownership"
	"github.com/stoiyeet/TravelShare/internal/repository/memory"
	"github.com/stoiyeet/TravelShare/internal/storage"
)

const publicURL = "https://img.example.com"

type fakeImages struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeImages) Upload(_ context.Context, cityID uuid.UUID, index int, img storage.Image) (string, error) {
	if strings.HasPrefix(img.Filename, "bad") {
		return "", errors.New("upload rejected")
	}
	return publicURL + "/" + cityID.String() + "/" + img.Filename, nil
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *fakeImages) KeyFor(url string) (string, error) {
	key, ok := strings.CutPrefix(url, publicURL+"/")
	if !ok {
		return "", storage.ErrForeignURL
	}
	return key, nil
}

type fakeGeocoder struct {
	pos *domain.Position
	err error
}

func (f fakeGeocoder) Lookup(context.Context, string) (*domain.Position, error) {
	return f.pos, f.err
}

type env struct {
	store  *memory.Store
	auth   *AuthService
	users  *UserService
	cities *CityService
	groups *GroupService
	images *fakeImages
}

var testPalette = membership.NewPalette([]string{"#111", "#222", "#333"})

func newEnv(t *testing.T, policy ownership.Policy) *env {
	t.Helper()
	store := memory.New()
	images := &fakeImages{}
	agg := ownership.NewAggregator(store.Users(), store.Cities(), policy)
	return &env{
		store:  store,
		auth:   NewAuthService(store.Users(), testPalette, "test-secret", time.Hour),
		users:  NewUserService(store.Users(), testPalette),
		cities: NewCityService(store.Cities(), store.Groups(), agg, images, fakeGeocoder{pos: &domain.Position{Lat: 1, Lng: 2}}),
		groups: NewGroupService(store.Groups(), store.Users(), membership.NewEditor(testPalette, store.Users())),
		images: images,
	}
}

func (e *env) register(t *testing.T, username string) *domain.User {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return resp.User
}

func (e *env) createCity(t *testing.T, owner *domain.User, name string) *domain.City {
	t.Helper()
	city, err := e.cities.Create(context.Background(), owner.ID, CreateCityInput{
		CityName: name,
		Position: &domain.Position{Lat: 38.7, Lng: -9.1},
	})
	require.NoError(t, err)
	return city
}

func TestCity_LisbonLifecycle(t *testing.T) {
	for _, policy := range []ownership.Policy{ownership.PolicyAllCities, ownership.PolicyOwnedOnly} {
		t.Run(string(policy), func(t *testing.T) {
			ctx := context.Background()
			e := newEnv(t, policy)
			alice := e.register(t, "alice")
			lisbon := e.createCity(t, alice, "Lisbon")

			cities, err := e.cities.List(ctx, alice.ID, nil)
			require.NoError(t, err)
			require.Len(t, cities, 1)
			assert.Equal(t, "Lisbon", cities[0].CityName)
			require.Len(t, cities[0].Owners, 1)
			assert.Equal(t, "alice", cities[0].Owners[0].Username)
			assert.Equal(t, alice.Color, cities[0].Owners[0].Color)

			require.NoError(t, e.cities.Delete(ctx, alice.ID, lisbon.ID))

			cities, err = e.cities.List(ctx, alice.ID, nil)
			require.NoError(t, err)
			assert.Empty(t, cities)

			me, err := e.users.Me(ctx, alice.ID)
			require.NoError(t, err)
			assert.Empty(t, me.Locations)
		})
	}
}

func TestCity_DeleteRemovesFromEveryUser(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, ownership.PolicyAllCities)
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	lisbon := e.createCity(t, alice, "Lisbon")
	_, err := e.cities.Visit(ctx, bob.ID, lisbon.ID)
	require.NoError(t, err)

	require.NoError(t, e.cities.Delete(ctx, bob.ID, lisbon.ID))

	users, err := e.store.Users().ListWithLocations(ctx)
	require.NoError(t, err)
	for _, u := range users {
		assert.NotContains(t, u.Locations, lisbon.ID, u.Username)
	}
}

func TestCity_Authorization(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, ownership.PolicyAllCities)
	alice := e.register(t, "alice")
	mallory := e.register(t, "mallory")
	lisbon := e.createCity(t, alice, "Lisbon")

	name := "Hacked"
	_, err := e.cities.Update(ctx, mallory.ID, lisbon.ID, UpdateCityInput{CityName: &name})
	assert.ErrorIs(t, err, ErrNotCityOwner)

	err = e.cities.Delete(ctx, mallory.ID, lisbon.ID)
	assert.ErrorIs(t, err, ErrNotCityOwner)

	_, err = e.cities.Update(ctx, mallory.ID, uuid.New(), UpdateCityInput{CityName: &name})
	assert.ErrorIs(t, err, ErrCityNotFound)

	updated, err := e.cities.Update(ctx, alice.ID, lisbon.ID, UpdateCityInput{CityName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Hacked", updated.CityName)
	assert.InDelta(t, 38.7, updated.Position.Lat, 1e-9, "untouched fields are kept")
}

func TestCity_BatchUpload(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, ownership.PolicyAllCities)
	alice := e.register(t, "alice")
	lisbon := e.createCity(t, alice, "Lisbon")

	_, err := e.cities.UploadImages(ctx, alice.ID, lisbon.ID, []storage.Image{
		{Filename: "a.jpg", Body: strings.NewReader("a")},
		{Filename: "bad.jpg", Body: strings.NewReader("b")},
	})
	assert.ErrorIs(t, err, ErrUpstream)

	city, err := e.cities.Get(ctx, lisbon.ID)
	require.NoError(t, err)
	assert.Empty(t, city.Images, "failed batch leaves images unchanged")

	res, err := e.cities.UploadImages(ctx, alice.ID, lisbon.ID, []storage.Image{
		{Filename: "a.jpg", Body: strings.NewReader("a")},
		{Filename: "b.jpg", Body: strings.NewReader("b")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.UploadedCount)
	assert.Equal(t, res.UploadedURLs, res.City.Images)

	_, err = e.cities.UploadImages(ctx, alice.ID, lisbon.ID, make([]storage.Image, MaxBatchImages+1))
	assert.ErrorIs(t, err, ErrTooManyImages)
}

func TestCity_DeleteImage(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, ownership.PolicyAllCities)
	alice := e.register(t, "alice")
	lisbon := e.createCity(t, alice, "Lisbon")

	city, err := e.cities.UploadImage(ctx, alice.ID, lisbon.ID, storage.Image{Filename: "a.jpg", Body: strings.NewReader("a")})
	require.NoError(t, err)
	require.Len(t, city.Images, 1)

	_, err = e.cities.DeleteImage(ctx, alice.ID, lisbon.ID, "https://evil.example.com/x.jpg")
	assert.ErrorIs(t, err, ErrInvalidImageURL)

	city, err = e.cities.DeleteImage(ctx, alice.ID, lisbon.ID, city.Images[0])
	require.NoError(t, err)
	assert.Empty(t, city.Images)
	assert.Len(t, e.images.deleted, 1)
}

func TestCity_DeleteImageOfAnotherCity(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, ownership.PolicyAllCities)
	alice := e.register(t, "alice")
	mallory := e.register(t, "mallory")
	lisbon := e.createCity(t, alice, "Lisbon")
	madrid := e.createCity(t, mallory, "Madrid")

	city, err := e.cities.UploadImage(ctx, alice.ID, lisbon.ID, storage.Image{Filename: "a.jpg", Body: strings.NewReader("a")})
	require.NoError(t, err)
	require.Len(t, city.Images, 1)

	_, err = e.cities.DeleteImage(ctx, mallory.ID, madrid.ID, city.Images[0])
	assert.ErrorIs(t, err, ErrInvalidImageURL)
	assert.Empty(t, e.images.deleted, "storage object must survive")

	city, err = e.cities.Get(ctx, lisbon.ID)
	require.NoError(t, err)
	assert.Len(t, city.Images, 1)
}

func TestCity_Visit(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, ownership.PolicyAllCities)
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	lisbon := e.createCity(t, alice, "Lisbon")

	_, err := e.cities.Visit(ctx, bob.ID, uuid.New())
	assert.ErrorIs(t, err, ErrCityNotFound)

	for range 2 {
		_, err = e.cities.Visit(ctx, bob.ID, lisbon.ID)
		require.NoError(t, err)
	}

	cities, err := e.cities.List(ctx, alice.ID, nil)
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Len(t, cities[0].Owners, 2, "visiting twice adds one owner")

	name := "Lisboa"
	_, err = e.cities.Update(ctx, bob.ID, lisbon.ID, UpdateCityInput{CityName: &name})
	assert.NoError(t, err, "a visitor may edit the city")
}

func TestCity_Geocode(t *testing.T) {
	e := newEnv(t, ownership.PolicyAllCities)

	pos, err := e.cities.Geocode(context.Background(), "Lisbon")
	require.NoError(t, err)
	assert.Equal(t, &domain.Position{Lat: 1, Lng: 2}, pos)

	_, err = e.cities.Geocode(context.Background(), " ")
	assert.ErrorIs(t, err, ErrAddressRequired)

	e.cities.geocoder = fakeGeocoder{err: geocode.ErrNoResults}
	_, err = e.cities.Geocode(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrNoGeocodeResults)

	e.cities.geocoder = fakeGeocoder{err: geocode.ErrUpstream}
	_, err = e.cities.Geocode(context.Background(), "Lisbon")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestGroup_TripScenario(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, ownership.PolicyAllCities)
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	carol := e.register(t, "carol")
	e.createCity(t, alice, "Lisbon")
	e.createCity(t, bob, "Madrid")
	e.createCity(t, carol, "Oslo")

	res, err := e.groups.Create(ctx, alice.ID, GroupInput{
		Name:    "Trip",
		Members: []membership.Candidate{{Username: "bob", Color: "#222"}},
	})
	require.NoError(t, err)

	members := ownership.EffectiveMembers(res.Group)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Username)
	assert.Equal(t, "#111", members[0].Color)
	assert.Equal(t, "bob", members[1].Username)
	assert.Equal(t, "#222", members[1].Color)

	cities, err := e.cities.List(ctx, bob.ID, &res.ID)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	for _, c := range cities {
		assert.NotEqual(t, "Oslo", c.CityName)
	}

	_, err = e.cities.List(ctx, carol.ID, &res.ID)
	assert.ErrorIs(t, err, ErrGroupForbidden)

	missing := uuid.New()
	_, err = e.cities.List(ctx, alice.ID, &missing)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestGroup_UpdateRules(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, ownership.PolicyAllCities)
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	e.register(t, "carol")

	res, err := e.groups.Create(ctx, alice.ID, GroupInput{Name: "Trip", Members: []membership.Candidate{{Username: "bob"}}})
	require.NoError(t, err)

	_, err = e.groups.Update(ctx, bob.ID, res.ID, GroupInput{Name: "Mine"})
	assert.ErrorIs(t, err, ErrNotGroupCreator)

	_, err = e.groups.Update(ctx, alice.ID, uuid.New(), GroupInput{Name: "Mine"})
	assert.ErrorIs(t, err, ErrGroupNotFound)

	_, err = e.groups.Update(ctx, alice.ID, res.ID, GroupInput{Name: "  "})
	assert.ErrorIs(t, err, ErrGroupNameRequired)

	updated, err := e.groups.Update(ctx, alice.ID, res.ID, GroupInput{
		Name: "Road trip",
		Members: []membership.Candidate{
			{Username: "carol", Color: "#111"},
			{Username: "ghost"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Road trip", updated.Name)
	require.Len(t, updated.Members, 2)
	assert.Equal(t, "#111", updated.Members[0].Color, "creator keeps their colour")
	assert.Equal(t, "", updated.Members[1].Color)
	assert.Len(t, updated.Rejected, 2)

	got, err := e.groups.Get(ctx, alice.ID, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.CreatorUsername)

	_, err = e.groups.Get(ctx, bob.ID, res.ID)
	assert.ErrorIs(t, err, ErrGroupForbidden, "bob was removed")
}

func TestGroup_CreateRejectsBlankName(t *testing.T) {
	e := newEnv(t, ownership.PolicyAllCities)
	alice := e.register(t, "alice")

	_, err := e.groups.Create(context.Background(), alice.ID, GroupInput{Name: " \t"})
	assert.ErrorIs(t, err, ErrGroupNameRequired)
}

func TestGroup_Members(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, ownership.PolicyAllCities)
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	carol := e.register(t, "carol")

	res, err := e.groups.Create(ctx, alice.ID, GroupInput{Name: "Trip"})
	require.NoError(t, err)

	added, err := e.groups.AddMember(ctx, alice.ID, res.ID, membership.Candidate{Username: "bob", Color: "#111"})
	require.NoError(t, err)
	require.Len(t, added.Rejected, 1, "#111 is the creator's")
	assert.Equal(t, "", added.Members[1].Color)

	_, err = e.groups.AddMember(ctx, bob.ID, res.ID, membership.Candidate{Username: "carol"})
	assert.ErrorIs(t, err, ErrNotGroupCreator)

	g, err := e.groups.SetMemberColor(ctx, alice.ID, res.ID, bob.ID, "#333")
	require.NoError(t, err)
	assert.Equal(t, "#333", g.Members[1].Color)

	free, err := e.groups.AvailableColors(ctx, bob.ID, res.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"#222"}, free)

	_, err = e.groups.RemoveMember(ctx, carol.ID, res.ID, bob.ID)
	assert.ErrorIs(t, err, ErrGroupForbidden)

	_, err = e.groups.RemoveMember(ctx, alice.ID, res.ID, alice.ID)
	assert.ErrorIs(t, err, membership.ErrCannotRemoveCreator)

	g, err = e.groups.RemoveMember(ctx, bob.ID, res.ID, bob.ID)
	require.NoError(t, err)
	assert.Len(t, g.Members, 1)

	free, err = e.groups.AvailableColors(ctx, alice.ID, res.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"#222", "#333"}, free)

	require.NoError(t, e.groups.Delete(ctx, alice.ID, res.ID))
	groups, err := e.groups.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
