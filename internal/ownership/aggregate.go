// Package ownership derives who has visited each city and narrows the
// result to the members of a group.
package ownership

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stoiyeet/TravelShare/internal/domain"
)

// DefaultOwnerColor is shown for visitors who have no colour of their own.
const DefaultOwnerColor = "#aaa"

// Policy decides which cities a listing contains.
type Policy string

const (
	// PolicyAllCities lists every city; unvisited ones carry no owners.
	PolicyAllCities Policy = "all"
	// PolicyOwnedOnly lists only cities at least one user has visited.
	PolicyOwnedOnly Policy = "owned"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyAllCities, PolicyOwnedOnly:
		return Policy(s), nil
	case "":
		return PolicyAllCities, nil
	}
	return "", fmt.Errorf("unknown city list policy %q", s)
}

// UserSource returns every user with username, colour and locations filled.
type UserSource interface {
	ListWithLocations(ctx context.Context) ([]domain.User, error)
}

// CitySource returns cities ordered by visit date, oldest first.
type CitySource interface {
	List(ctx context.Context) ([]domain.City, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.City, error)
}

type Aggregator struct {
	users  UserSource
	cities CitySource
	policy Policy
}

func NewAggregator(users UserSource, cities CitySource, policy Policy) *Aggregator {
	return &Aggregator{users: users, cities: cities, policy: policy}
}

func (a *Aggregator) Policy() Policy {
	return a.policy
}

// Aggregate lists cities with their owners attached. It never writes, and
// it returns either the complete list or an error.
func (a *Aggregator) Aggregate(ctx context.Context) ([]domain.AggregatedCity, error) {
	var (
		users  []domain.User
		cities []domain.City
	)

	if a.policy == PolicyOwnedOnly {
		var err error
		users, err = a.users.ListWithLocations(ctx)
		if err != nil {
			return nil, fmt.Errorf("aggregating cities: loading users: %w", err)
		}
		owners := Index(users)
		ids := make([]uuid.UUID, 0, len(owners))
		for _, u := range users {
			ids = append(ids, u.Locations...)
		}
		cities, err = a.cities.ListByIDs(ctx, dedupe(ids))
		if err != nil {
			return nil, fmt.Errorf("aggregating cities: loading cities: %w", err)
		}
		return Attach(cities, owners), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = a.users.ListWithLocations(gctx)
		if err != nil {
			return fmt.Errorf("loading users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cities, err = a.cities.List(gctx)
		if err != nil {
			return fmt.Errorf("loading cities: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregating cities: %w", err)
	}

	return Attach(cities, Index(users)), nil
}

// Index inverts users' locations into city ID -> owners. Owners appear in
// user order, then location order. A city listed twice by one user yields
// two entries for that user.
func Index(users []domain.User) map[string][]domain.Owner {
	idx := make(map[string][]domain.Owner)
	for _, u := range users {
		color := u.Color
		if color == "" {
			color = DefaultOwnerColor
		}
		for _, cityID := range u.Locations {
			key := cityID.String()
			idx[key] = append(idx[key], domain.Owner{Username: u.Username, Color: color})
		}
	}
	return idx
}

// Attach pairs each city with its owners, using an empty list for
// cities nobody has visited.
func Attach(cities []domain.City, owners map[string][]domain.Owner) []domain.AggregatedCity {
	out := make([]domain.AggregatedCity, 0, len(cities))
	for _, c := range cities {
		o := owners[c.ID.String()]
		if o == nil {
			o = []domain.Owner{}
		}
		out = append(out, domain.AggregatedCity{City: c, Owners: o})
	}
	return out
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
