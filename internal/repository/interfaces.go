package repository

import (
	"context"
	"time"

	"moneypot-backend/internal/models"
)

type Users interface {
	Create(ctx context.Context, username, email, passwordHash, role string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	// FindByName is a case-insensitive exact match.
	FindByName(ctx context.Context, name string) (models.User, error)
}

type Groups interface {
	Create(ctx context.Context, name string, target int64) (models.Group, error)
	GetByID(ctx context.Context, id string) (models.Group, error)
	// FindByName is a case-insensitive exact match.
	FindByName(ctx context.Context, name string) (models.Group, error)

	// AtomicIncrement adds delta to the group's running total in a single
	// read-modify-write statement and returns the new total. Callers must not
	// read the total and write it back themselves.
	AtomicIncrement(ctx context.Context, groupID string, delta int64) (int64, error)

	// Rebuild resets current_amount to the sum of the group's contributions.
	// Recovery path for a total left behind by a failed increment.
	Rebuild(ctx context.Context, groupID string) (int64, error)
}

type Contributions interface {
	Append(ctx context.Context, userID, groupID string, amount int64, at time.Time) (models.Contribution, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Contribution, error)
	SumByGroup(ctx context.Context, groupID string) (int64, error)
	Count(ctx context.Context) (int64, error)
}
