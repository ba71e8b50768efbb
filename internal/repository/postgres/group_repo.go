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

type GroupRepo struct {
	pool *pgxpool.Pool
}

func NewGroupRepo(pool *pgxpool.Pool) *GroupRepo {
	return &GroupRepo{pool: pool}
}

func (r *GroupRepo) Create(ctx context.Context, g *domain.Group) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO groups (id, name, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, query, g.ID, g.Name, g.CreatedBy, g.CreatedAt, g.UpdatedAt); err != nil {
		return fmt.Errorf("inserting group: %w", err)
	}
	if err := insertMembers(ctx, tx, g.ID, g.Members); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *GroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	query := `
		SELECT g.id, g.name, g.created_by, g.created_at, g.updated_at, u.username
		FROM groups g
		JOIN users u ON g.created_by = u.id
		WHERE g.id = $1`

	var g domain.Group
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt, &g.CreatorUsername,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	members, err := r.members(ctx, []uuid.UUID{g.ID})
	if err != nil {
		return nil, err
	}
	g.Members = members[g.ID]
	if g.Members == nil {
		g.Members = []domain.GroupMember{}
	}
	return &g, nil
}

func (r *GroupRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Group, error) {
	query := `
		SELECT g.id, g.name, g.created_by, g.created_at, g.updated_at, u.username
		FROM groups g
		JOIN users u ON g.created_by = u.id
		WHERE g.created_by = $1
			OR EXISTS (SELECT 1 FROM group_members gm WHERE gm.group_id = g.id AND gm.user_id = $1)
		ORDER BY g.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []domain.Group{}
	var ids []uuid.UUID
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt, &g.CreatorUsername); err != nil {
			return nil, err
		}
		groups = append(groups, g)
		ids = append(ids, g.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return groups, nil
	}

	members, err := r.members(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		groups[i].Members = members[groups[i].ID]
		if groups[i].Members == nil {
			groups[i].Members = []domain.GroupMember{}
		}
	}
	return groups, nil
}

func (r *GroupRepo) Update(ctx context.Context, g *domain.Group) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE groups SET name = $1, updated_at = $2 WHERE id = $3`,
		g.Name, g.UpdatedAt, g.ID,
	); err != nil {
		return fmt.Errorf("updating group: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1`, g.ID); err != nil {
		return fmt.Errorf("clearing members: %w", err)
	}
	if err := insertMembers(ctx, tx, g.ID, g.Members); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *GroupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	return err
}

func (r *GroupRepo) members(ctx context.Context, groupIDs []uuid.UUID) (map[uuid.UUID][]domain.GroupMember, error) {
	query := `
		SELECT gm.group_id, gm.user_id, gm.color, u.username, u.avatar
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = ANY($1::uuid[])
		ORDER BY gm.group_id, gm.position`

	rows, err := r.pool.Query(ctx, query, uuidStrings(groupIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.GroupMember, len(groupIDs))
	for rows.Next() {
		var (
			groupID uuid.UUID
			m       domain.GroupMember
		)
		if err := rows.Scan(&groupID, &m.UserID, &m.Color, &m.Username, &m.Avatar); err != nil {
			return nil, err
		}
		out[groupID] = append(out[groupID], m)
	}
	return out, rows.Err()
}

func insertMembers(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, members []domain.GroupMember) error {
	if len(members) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, m := range members {
		batch.Queue(
			`INSERT INTO group_members (group_id, user_id, position, color) VALUES ($1, $2, $3, $4)`,
			groupID, m.UserID, i, m.Color,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting members: %w", mapErr(err))
	}
	return nil
}
