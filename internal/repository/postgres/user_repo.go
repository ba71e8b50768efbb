package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stoiyeet/TravelShare/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `
	u.id, u.email, u.username, u.password_hash, u.avatar, u.color, u.created_at,
	COALESCE(array_agg(l.city_id::text ORDER BY l.added_at) FILTER (WHERE l.city_id IS NOT NULL), '{}')`

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, avatar, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash,
		user.Avatar, user.Color, user.CreatedAt,
	)
	return mapErr(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.scanUser(ctx, "u.id = $1", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, "u.email = $1", email)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(ctx, "u.username = $1", username)
}

func (r *UserRepo) ListWithLocations(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN user_locations l ON l.user_id = u.id
		GROUP BY u.id
		ORDER BY u.created_at, u.id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepo) List(ctx context.Context) ([]domain.PublicUser, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, username, avatar, color FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.PublicUser
	for rows.Next() {
		var u domain.PublicUser
		if err := rows.Scan(&u.ID, &u.Username, &u.Avatar, &u.Color); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, username, avatar string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET username = $1, avatar = $2 WHERE id = $3`, username, avatar, id)
	return mapErr(err)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id)
	return err
}

func (r *UserRepo) UpdateColor(ctx context.Context, id uuid.UUID, color string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET color = $1 WHERE id = $2`, color, id)
	return err
}

func (r *UserRepo) scanUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN user_locations l ON l.user_id = u.id
		WHERE ` + where + `
		GROUP BY u.id`

	u, err := scanUserRow(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func scanUserRow(row pgx.Row) (*domain.User, error) {
	var (
		u         domain.User
		locations []string
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Avatar, &u.Color, &u.CreatedAt, &locations,
	)
	if err != nil {
		return nil, err
	}
	u.Locations, err = parseUUIDs(locations)
	if err != nil {
		return nil, fmt.Errorf("user %s locations: %w", u.ID, err)
	}
	return &u, nil
}
