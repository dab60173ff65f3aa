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

// GroupService is the provisioning flow: groups exist before any session
// joins them.
type GroupService struct{ r repo.Groups }

func NewGroupService(r repo.Groups) *GroupService { return &GroupService{r: r} }

func (s *GroupService) Create(ctx context.Context, name string, target int64) (models.Group, error) {
	g := models.Group{Name: strings.TrimSpace(name), TargetAmount: target}
	if err := g.Validate(); err != nil {
		return models.Group{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	created, err := s.r.Create(ctx, g.Name, g.TargetAmount)
	if err != nil {
		return models.Group{}, fmt.Errorf("%w: create group: %v", ErrStoreFault, err)
	}
	return created, nil
}

func (s *GroupService) GetByName(ctx context.Context, name string) (models.Group, error) {
	g, err := s.r.FindByName(ctx, name)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Group{}, fmt.Errorf("group %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("%w: find group: %v", ErrStoreFault, err)
	}
	return g, nil
}
