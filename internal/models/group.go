package models

import (
	"errors"
	"strings"
	"time"
)

// Group is a shared savings goal. CurrentAmount only ever moves through the
// groups repo's AtomicIncrement; Version bumps on every applied increment.
type Group struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	TargetAmount  int64     `json:"target_amount"`
	CurrentAmount int64     `json:"current_amount"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (g *Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return errors.New("group name required")
	}
	if g.TargetAmount <= 0 {
		return errors.New("target amount must be > 0")
	}
	return nil
}
