package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stoiyeet/TravelShare/internal/domain"
)

type CityRepo struct {
	pool *pgxpool.Pool
}

func NewCityRepo(pool *pgxpool.Pool) *CityRepo {
	return &CityRepo{pool: pool}
}

const cityColumns = `id, city_name, country, emoji, date, notes, lat, lng, images`

func (r *CityRepo) CreateForUser(ctx context.Context, city *domain.City, userID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO cities (id, city_name, country, emoji, date, notes, lat, lng, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = tx.Exec(ctx, query,
		city.ID, city.CityName, city.Country, city.Emoji, city.Date, city.Notes,
		city.Position.Lat, city.Position.Lng, images(city.Images),
	)
	if err != nil {
		return fmt.Errorf("inserting city: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_locations (user_id, city_id, added_at) VALUES ($1, $2, $3)`,
		userID, city.ID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("recording owner: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *CityRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.City, error) {
	c, err := scanCity(r.pool.QueryRow(ctx, `SELECT `+cityColumns+` FROM cities WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *CityRepo) List(ctx context.Context) ([]domain.City, error) {
	return r.list(ctx, `SELECT `+cityColumns+` FROM cities ORDER BY date, id`)
}

func (r *CityRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.City, error) {
	if len(ids) == 0 {
		return []domain.City{}, nil
	}
	return r.list(ctx,
		`SELECT `+cityColumns+` FROM cities WHERE id = ANY($1::uuid[]) ORDER BY date, id`,
		uuidStrings(ids),
	)
}

func (r *CityRepo) Update(ctx context.Context, city *domain.City) error {
	query := `
		UPDATE cities
		SET city_name = $1, country = $2, emoji = $3, date = $4, notes = $5, lat = $6, lng = $7
		WHERE id = $8`
	_, err := r.pool.Exec(ctx, query,
		city.CityName, city.Country, city.Emoji, city.Date, city.Notes,
		city.Position.Lat, city.Position.Lng, city.ID,
	)
	return err
}

// Delete relies on ON DELETE CASCADE to drop the city's ownership edges.
func (r *CityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cities WHERE id = $1`, id)
	return err
}

func (r *CityRepo) AddImages(ctx context.Context, id uuid.UUID, urls []string) (*domain.City, error) {
	c, err := scanCity(r.pool.QueryRow(ctx,
		`UPDATE cities SET images = images || $1::text[] WHERE id = $2 RETURNING `+cityColumns,
		urls, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *CityRepo) RemoveImage(ctx context.Context, id uuid.UUID, url string) (*domain.City, error) {
	c, err := scanCity(r.pool.QueryRow(ctx,
		`UPDATE cities SET images = array_remove(images, $1) WHERE id = $2 RETURNING `+cityColumns,
		url, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *CityRepo) IsOwner(ctx context.Context, cityID, userID uuid.UUID) (bool, error) {
	var owns bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_locations WHERE city_id = $1 AND user_id = $2)`,
		cityID, userID,
	).Scan(&owns)
	return owns, err
}

func (r *CityRepo) AddOwner(ctx context.Context, cityID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_locations (user_id, city_id, added_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, city_id) DO NOTHING`,
		userID, cityID, time.Now(),
	)
	return err
}

func (r *CityRepo) list(ctx context.Context, query string, args ...any) ([]domain.City, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cities := []domain.City{}
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, err
		}
		cities = append(cities, *c)
	}
	return cities, rows.Err()
}

func scanCity(row pgx.Row) (*domain.City, error) {
	var c domain.City
	err := row.Scan(
		&c.ID, &c.CityName, &c.Country, &c.Emoji, &c.Date, &c.Notes,
		&c.Position.Lat, &c.Position.Lng, &c.Images,
	)
	if err != nil {
		return nil, err
	}
	c.Images = images(c.Images)
	return &c, nil
}

func images(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}
