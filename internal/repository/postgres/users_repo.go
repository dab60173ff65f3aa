package postgres

import (
	"context"

	"moneypot-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type usersRepo struct{ pool *pgxpool.Pool }

func (r *usersRepo) Create(ctx context.Context, username, email, hash, role string) (models.User, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users(id, username, email, password_hash, role) VALUES($1,$2,$3,$4,$5)`,
		id, username, email, hash, role,
	)
	if err != nil {
		return models.User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, role, created_at, updated_at FROM users WHERE id=$1`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *usersRepo) FindByName(ctx context.Context, name string) (models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, role, created_at, updated_at
		   FROM users
		  WHERE LOWER(username)=LOWER($1)`, name,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
