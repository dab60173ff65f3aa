package cache

import (
	"context"
	"time"
)

// Store is a read-through cache over serialized JSON values.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

func UserKey(id string) string { return "user:" + id }

func UserContributionsKey(userID string) string { return "contributions:user:" + userID }
