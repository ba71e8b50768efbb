package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/stoiyeet/TravelShare/internal/app"
	"github.com/stoiyeet/TravelShare/internal/config"
	"github.com/stoiyeet/TravelShare/internal/database"
	"github.com/stoiyeet/TravelShare/internal/domain"
	"github.com/stoiyeet/TravelShare/internal/service"
	"github.com/stoiyeet/TravelShare/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}

	cliApp := &cli.App{
		Name:  "travelshare-admin",
		Usage: "maintenance tasks for the TravelShare database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}},
		},
		Before: func(c *cli.Context) error {
			logging.Setup(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "apply pending database migrations",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					return database.Migrate(cfg.DB)
				},
			},
			{
				Name:  "seed",
				Usage: "create a demo user with a couple of cities",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Value: "testuser"},
					&cli.StringFlag{Name: "email", Value: "test@example.com"},
					&cli.StringFlag{Name: "password", Value: "password1"},
				},
				Action: seed,
			},
			{
				Name:  "backfill-colors",
				Usage: "assign a palette colour to every user without one",
				Action: func(c *cli.Context) error {
					a, err := open(c)
					if err != nil {
						return err
					}
					defer a.Close()

					n, err := a.User.BackfillColors(c.Context)
					if err != nil {
						return err
					}
					slog.Info("backfilled user colours", "updated", n)
					return nil
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func open(c *cli.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(c.Context, cfg)
}

func seed(c *cli.Context) error {
	a, err := open(c)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.Auth.Register(c.Context, service.RegisterInput{
		Username: c.String("username"),
		Email:    c.String("email"),
		Password: c.String("password"),
	})
	if errors.Is(err, service.ErrEmailTaken) || errors.Is(err, service.ErrUsernameTaken) {
		slog.Info("seed user already exists, skipping", "username", c.String("username"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("registering seed user: %w", err)
	}

	cities := []service.CreateCityInput{
		{CityName: "Lisbon", Country: "Portugal", Emoji: "🇵🇹", Notes: "Pastéis de nata", Position: &domain.Position{Lat: 38.7223, Lng: -9.1393}},
		{CityName: "Madrid", Country: "Spain", Emoji: "🇪🇸", Position: &domain.Position{Lat: 40.4168, Lng: -3.7038}},
	}
	var created []*domain.City
	for i := range cities {
		date := time.Now().AddDate(0, 0, -30*(len(cities)-i))
		cities[i].Date = &date

		city, err := a.City.Create(c.Context, resp.User.ID, cities[i])
		if err != nil {
			return fmt.Errorf("creating %s: %w", cities[i].CityName, err)
		}
		created = append(created, city)
		slog.Info("seeded city", "city", city.CityName, "id", city.ID)
	}

	friend, err := a.Auth.Register(c.Context, service.RegisterInput{
		Username: c.String("username") + "_friend",
		Email:    "friend." + c.String("email"),
		Password: c.String("password"),
	})
	if err != nil {
		return fmt.Errorf("registering seed friend: %w", err)
	}
	if _, err := a.City.Visit(c.Context, friend.User.ID, created[0].ID); err != nil {
		return fmt.Errorf("visiting %s: %w", created[0].CityName, err)
	}

	slog.Info("seed complete", "user", resp.User.Username, "friend", friend.User.Username)
	return nil
}
