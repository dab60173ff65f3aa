package postgres

import (
	"context"

	"moneypot-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type groupsRepo struct{ pool *pgxpool.Pool }

func (r *groupsRepo) Create(ctx context.Context, name string, target int64) (models.Group, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO groups(id, name, target_amount) VALUES($1,$2,$3)`,
		id, name, target,
	)
	if err != nil {
		return models.Group{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *groupsRepo) GetByID(ctx context.Context, id string) (models.Group, error) {
	var g models.Group
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, target_amount, current_amount, version, created_at, updated_at
		   FROM groups WHERE id=$1`, id,
	).Scan(&g.ID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Version, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (r *groupsRepo) FindByName(ctx context.Context, name string) (models.Group, error) {
	var g models.Group
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, target_amount, current_amount, version, created_at, updated_at
		   FROM groups
		  WHERE LOWER(name)=LOWER($1)`, name,
	).Scan(&g.ID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Version, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// AtomicIncrement relies on the single UPDATE being a store-level
// read-modify-write; concurrent increments serialize on the row.
func (r *groupsRepo) AtomicIncrement(ctx context.Context, groupID string, delta int64) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`UPDATE groups
		    SET current_amount = current_amount + $2,
		        version = version + 1,
		        updated_at = now()
		  WHERE id = $1
		  RETURNING current_amount`,
		groupID, delta,
	).Scan(&total)
	return total, err
}

func (r *groupsRepo) Rebuild(ctx context.Context, groupID string) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`UPDATE groups
		    SET current_amount = (SELECT COALESCE(SUM(amount), 0) FROM contributions WHERE group_id = $1),
		        version = version + 1,
		        updated_at = now()
		  WHERE id = $1
		  RETURNING current_amount`,
		groupID,
	).Scan(&total)
	return total, err
}
