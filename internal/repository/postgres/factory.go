package postgres

import (
	repo "moneypot-backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Users         repo.Users
	Groups        repo.Groups
	Contributions repo.Contributions
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:         &usersRepo{pool},
		Groups:        &groupsRepo{pool},
		Contributions: &contributionsRepo{pool},
	}
}
