package postgres

import (
	"context"
	"time"

	"moneypot-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contributionsRepo struct{ pool *pgxpool.Pool }

func (r *contributionsRepo) Append(ctx context.Context, userID, groupID string, amount int64, at time.Time) (models.Contribution, error) {
	c := models.Contribution{ID: uuid.NewString(), UserID: userID, GroupID: groupID, Amount: amount}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO contributions(id, user_id, group_id, amount, created_at)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING created_at`,
		c.ID, c.UserID, c.GroupID, c.Amount, at,
	).Scan(&c.CreatedAt)
	return c, err
}

func (r *contributionsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Contribution, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, group_id, amount, created_at
		   FROM contributions
		  WHERE user_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Contribution
	for rows.Next() {
		var c models.Contribution
		if err := rows.Scan(&c.ID, &c.UserID, &c.GroupID, &c.Amount, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *contributionsRepo) SumByGroup(ctx context.Context, groupID string) (int64, error) {
	var sum int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM contributions WHERE group_id=$1`, groupID,
	).Scan(&sum)
	return sum, err
}

func (r *contributionsRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contributions`).Scan(&n)
	return n, err
}
