// Package memory keeps users, cities and groups in process memory. It
// backs STORE_DRIVER=memory and the service tests; data is lost on exit.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stoiyeet/TravelShare/internal/domain"
	"github.com/stoiyeet/TravelShare/internal/repository"
)

type edge struct {
	userID, cityID uuid.UUID
	addedAt        time.Time
}

type Store struct {
	mu     sync.RWMutex
	users  []*domain.User
	cities map[uuid.UUID]*domain.City
	edges  []edge
	groups map[uuid.UUID]*domain.Group
}

func New() *Store {
	return &Store{
		cities: make(map[uuid.UUID]*domain.City),
		groups: make(map[uuid.UUID]*domain.Group),
	}
}

func (s *Store) Users() *UserRepo   { return &UserRepo{s} }
func (s *Store) Cities() *CityRepo  { return &CityRepo{s} }
func (s *Store) Groups() *GroupRepo { return &GroupRepo{s} }

var (
	_ repository.UserRepository  = (*UserRepo)(nil)
	_ repository.CityRepository  = (*CityRepo)(nil)
	_ repository.GroupRepository = (*GroupRepo)(nil)
)

// userCopy must be called with s.mu held.
func (s *Store) userCopy(u *domain.User) *domain.User {
	out := *u
	out.Locations = []uuid.UUID{}
	for _, e := range s.edges {
		if e.userID == u.ID {
			out.Locations = append(out.Locations, e.cityID)
		}
	}
	return &out
}

func (s *Store) findUser(match func(*domain.User) bool) *domain.User {
	for _, u := range s.users {
		if match(u) {
			return u
		}
	}
	return nil
}

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	taken := r.s.findUser(func(u *domain.User) bool {
		return u.ID == user.ID || u.Email == user.Email || u.Username == user.Username
	})
	if taken != nil {
		return repository.ErrConflict
	}
	u := *user
	u.Locations = nil
	r.s.users = append(r.s.users, &u)
	return nil
}

func (r *UserRepo) get(match func(*domain.User) bool) *domain.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u := r.s.findUser(match)
	if u == nil {
		return nil
	}
	return r.s.userCopy(u)
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return r.get(func(u *domain.User) bool { return u.ID == id }), nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.get(func(u *domain.User) bool { return u.Email == email }), nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.get(func(u *domain.User) bool { return u.Username == username }), nil
}

func (r *UserRepo) ListWithLocations(context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, *r.s.userCopy(u))
	}
	return out, nil
}

func (r *UserRepo) List(context.Context) ([]domain.PublicUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.PublicUser, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, domain.PublicUser{ID: u.ID, Username: u.Username, Avatar: u.Avatar, Color: u.Color})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *UserRepo) UpdateProfile(_ context.Context, id uuid.UUID, username, avatar string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if other := r.s.findUser(func(u *domain.User) bool { return u.Username == username && u.ID != id }); other != nil {
		return repository.ErrConflict
	}
	if u := r.s.findUser(func(u *domain.User) bool { return u.ID == id }); u != nil {
		u.Username = username
		u.Avatar = avatar
	}
	return nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u := r.s.findUser(func(u *domain.User) bool { return u.ID == id }); u != nil {
		u.PasswordHash = hash
	}
	return nil
}

func (r *UserRepo) UpdateColor(_ context.Context, id uuid.UUID, color string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u := r.s.findUser(func(u *domain.User) bool { return u.ID == id }); u != nil {
		u.Color = color
	}
	return nil
}

type CityRepo struct{ s *Store }

func cityCopy(c *domain.City) domain.City {
	out := *c
	out.Images = append([]string{}, c.Images...)
	return out
}

func (r *CityRepo) CreateForUser(_ context.Context, city *domain.City, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cities[city.ID]; ok {
		return repository.ErrConflict
	}
	c := cityCopy(city)
	r.s.cities[city.ID] = &c
	r.s.edges = append(r.s.edges, edge{userID: userID, cityID: city.ID, addedAt: time.Now()})
	return nil
}

func (r *CityRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.City, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.cities[id]
	if !ok {
		return nil, nil
	}
	out := cityCopy(c)
	return &out, nil
}

func (r *CityRepo) List(context.Context) ([]domain.City, error) {
	return r.filter(func(uuid.UUID) bool { return true }), nil
}

func (r *CityRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]domain.City, error) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return r.filter(func(id uuid.UUID) bool { return want[id] }), nil
}

func (r *CityRepo) filter(keep func(uuid.UUID) bool) []domain.City {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.City{}
	for id, c := range r.s.cities {
		if keep(id) {
			out = append(out, cityCopy(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return strings.Compare(out[i].ID.String(), out[j].ID.String()) < 0
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func (r *CityRepo) Update(_ context.Context, city *domain.City) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.cities[city.ID]
	if !ok {
		return nil
	}
	images := c.Images
	*c = cityCopy(city)
	c.Images = images
	return nil
}

func (r *CityRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.cities, id)
	kept := r.s.edges[:0]
	for _, e := range r.s.edges {
		if e.cityID != id {
			kept = append(kept, e)
		}
	}
	r.s.edges = kept
	return nil
}

func (r *CityRepo) AddImages(_ context.Context, id uuid.UUID, urls []string) (*domain.City, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.cities[id]
	if !ok {
		return nil, nil
	}
	c.Images = append(c.Images, urls...)
	out := cityCopy(c)
	return &out, nil
}

func (r *CityRepo) RemoveImage(_ context.Context, id uuid.UUID, url string) (*domain.City, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.cities[id]
	if !ok {
		return nil, nil
	}
	kept := []string{}
	for _, img := range c.Images {
		if img != url {
			kept = append(kept, img)
		}
	}
	c.Images = kept
	out := cityCopy(c)
	return &out, nil
}

func (r *CityRepo) IsOwner(_ context.Context, cityID, userID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.edges {
		if e.cityID == cityID && e.userID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *CityRepo) AddOwner(_ context.Context, cityID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.edges {
		if e.cityID == cityID && e.userID == userID {
			return nil
		}
	}
	r.s.edges = append(r.s.edges, edge{userID: userID, cityID: cityID, addedAt: time.Now()})
	return nil
}

type GroupRepo struct{ s *Store }

// groupCopy must be called with s.mu held. It joins usernames and avatars
// and drops members whose user no longer exists.
func (s *Store) groupCopy(g *domain.Group) domain.Group {
	out := *g
	if creator := s.findUser(func(u *domain.User) bool { return u.ID == g.CreatedBy }); creator != nil {
		out.CreatorUsername = creator.Username
	}
	out.Members = []domain.GroupMember{}
	for _, m := range g.Members {
		u := s.findUser(func(u *domain.User) bool { return u.ID == m.UserID })
		if u == nil {
			continue
		}
		m.Username = u.Username
		m.Avatar = u.Avatar
		out.Members = append(out.Members, m)
	}
	return out
}

func checkColors(members []domain.GroupMember) error {
	seen := map[string]bool{}
	for _, m := range members {
		if m.Color == "" {
			continue
		}
		if seen[m.Color] {
			return repository.ErrConflict
		}
		seen[m.Color] = true
	}
	return nil
}

func (r *GroupRepo) Create(_ context.Context, g *domain.Group) error {
	if err := checkColors(g.Members); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[g.ID]; ok {
		return repository.ErrConflict
	}
	stored := *g
	stored.Members = append([]domain.GroupMember{}, g.Members...)
	r.s.groups[g.ID] = &stored
	return nil
}

func (r *GroupRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groups[id]
	if !ok {
		return nil, nil
	}
	out := r.s.groupCopy(g)
	return &out, nil
}

func (r *GroupRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Group{}
	for _, g := range r.s.groups {
		if g.HasMember(userID) {
			out = append(out, r.s.groupCopy(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *GroupRepo) Update(_ context.Context, g *domain.Group) error {
	if err := checkColors(g.Members); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.groups[g.ID]
	if !ok {
		return nil
	}
	stored.Name = g.Name
	stored.UpdatedAt = g.UpdatedAt
	stored.Members = append([]domain.GroupMember{}, g.Members...)
	return nil
}

func (r *GroupRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.groups, id)
	return nil
}
