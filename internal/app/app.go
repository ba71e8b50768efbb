// Package app builds the service graph shared by the server and admin
// binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stoiyeet/TravelShare/internal/config"
	"github.com/stoiyeet/TravelShare/internal/database"
	"github.com/stoiyeet/TravelShare/internal/geocode"
	"github.com/stoiyeet/TravelShare/internal/membership"
	"github.com/stoiyeet/TravelShare/internal/ownership"
	"github.com/stoiyeet/TravelShare/internal/repository"
	"github.com/stoiyeet/TravelShare/internal/repository/memory"
	postgresrepo "github.com/stoiyeet/TravelShare/internal/repository/postgres"
	"github.com/stoiyeet/TravelShare/internal/service"
	"github.com/stoiyeet/TravelShare/internal/storage"
)

type App struct {
	Auth  *service.AuthService
	City  *service.CityService
	Group *service.GroupService
	User  *service.UserService

	closers []func()
}

type repos struct {
	users  repository.UserRepository
	cities repository.CityRepository
	groups repository.GroupRepository
}

// New opens the configured store and wires every service on top of it.
// Call Close when done.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	policy, err := ownership.ParsePolicy(cfg.CityListPolicy)
	if err != nil {
		return nil, err
	}
	palette := membership.NewPalette(cfg.MarkerPalette)

	a := &App{}
	r, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var images service.ImageStore
	if cfg.S3.Enabled() {
		store, err := storage.NewImageStore(cfg.S3)
		if err != nil {
			a.Close()
			return nil, err
		}
		images = store
		slog.Info("image storage enabled", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket)
	} else {
		slog.Warn("image storage disabled, S3_ENDPOINT is not set")
	}

	aggregator := ownership.NewAggregator(r.users, r.cities, policy)
	editor := membership.NewEditor(palette, r.users)

	a.Auth = service.NewAuthService(r.users, palette, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	a.City = service.NewCityService(r.cities, r.groups, aggregator, images, geocode.NewClient(cfg.Geocoding.URL, cfg.Geocoding.Timeout))
	a.Group = service.NewGroupService(r.groups, r.users, editor)
	a.User = service.NewUserService(r.users, palette)
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config) (*repos, error) {
	if cfg.StoreDriver == "memory" {
		slog.Warn("using in-memory store, data is lost on exit")
		store := memory.New()
		return &repos{users: store.Users(), cities: store.Cities(), groups: store.Groups()}, nil
	}

	if cfg.DB.Migrate {
		if err := database.Migrate(cfg.DB); err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}
	}

	pool, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)

	return &repos{
		users:  postgresrepo.NewUserRepo(pool),
		cities: postgresrepo.NewCityRepo(pool),
		groups: postgresrepo.NewGroupRepo(pool),
	}, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
