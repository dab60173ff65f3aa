package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"moneypot-backend/internal/auth"
	"moneypot-backend/internal/cache"
	"moneypot-backend/internal/models"
	repo "moneypot-backend/internal/repository"

	"github.com/jackc/pgx/v5"
)

type UserService struct {
	r        repo.Users
	tm       *auth.TokenManager
	cache    cache.Store
	cacheTTL time.Duration
}

func NewUserService(r repo.Users, tm *auth.TokenManager, cs cache.Store, ttl time.Duration) *UserService {
	return &UserService{r: r, tm: tm, cache: cs, cacheTTL: ttl}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (models.User, error) {
	u := models.User{Username: strings.TrimSpace(username), Email: strings.TrimSpace(email), Role: "user"}
	if err := u.Validate(); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if password == "" {
		return models.User{}, fmt.Errorf("%w: password required", ErrValidation)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	created, err := s.r.Create(ctx, u.Username, u.Email, hash, u.Role)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: create user: %v", ErrStoreFault, err)
	}
	return created, nil
}

// Login verifies credentials and issues an access/refresh token pair. The
// resolved identity travels in the token, not in a shared "logged in user"
// cache entry.
func (s *UserService) Login(ctx context.Context, username, password string) (access, refresh string, exp time.Time, err error) {
	u, err := s.r.FindByName(ctx, username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", time.Time{}, fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("%w: find user: %v", ErrStoreFault, err)
	}
	if auth.VerifyPassword(password, u.PasswordHash) != nil {
		return "", "", time.Time{}, fmt.Errorf("%w: invalid credentials", ErrValidation)
	}
	return s.tm.GeneratePair(u.ID, u.Role)
}

// GetByID reads a user through the cache; source is "cache" or "database".
func (s *UserService) GetByID(ctx context.Context, id string) (u models.User, source string, err error) {
	key := cache.UserKey(id)
	if raw, hit, cerr := s.cache.Get(ctx, key); cerr == nil && hit {
		if jerr := json.Unmarshal([]byte(raw), &u); jerr == nil {
			return u, "cache", nil
		}
	}

	u, err = s.r.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, "", fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.User{}, "", fmt.Errorf("%w: get user: %v", ErrStoreFault, err)
	}
	if raw, jerr := json.Marshal(u); jerr == nil {
		_ = s.cache.Set(ctx, key, string(raw), s.cacheTTL)
	}
	return u, "database", nil
}
