package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"moneypot-backend/internal/models"
	repo "moneypot-backend/internal/repository"

	"github.com/jackc/pgx/v5"
)

// DirectoryService resolves users and groups by name for the join path.
// Lookups are read-only and deliberately not gated by the admission limiter:
// joining must never starve on write pressure.
type DirectoryService struct {
	users  repo.Users
	groups repo.Groups
}

func NewDirectoryService(u repo.Users, g repo.Groups) *DirectoryService {
	return &DirectoryService{users: u, groups: g}
}

func (s *DirectoryService) FindUserByName(ctx context.Context, name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, fmt.Errorf("%w: username required", ErrValidation)
	}
	u, err := s.users.FindByName(ctx, name)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%w: find user: %v", ErrStoreFault, err)
	}
	return u, nil
}

func (s *DirectoryService) FindGroupByName(ctx context.Context, name string) (models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, fmt.Errorf("%w: group name required", ErrValidation)
	}
	g, err := s.groups.FindByName(ctx, name)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Group{}, fmt.Errorf("group %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("%w: find group: %v", ErrStoreFault, err)
	}
	return g, nil
}
