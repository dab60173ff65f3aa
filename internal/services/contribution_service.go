package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"moneypot-backend/internal/admission"
	"moneypot-backend/internal/cache"
	"moneypot-backend/internal/metrics"
	"moneypot-backend/internal/models"
	repo "moneypot-backend/internal/repository"
	"moneypot-backend/internal/worker"

	"github.com/jackc/pgx/v5"
)

// ContributionService owns the write path of the ledger: append the audit
// fact, then bump the group's running total via the store's atomic increment.
// Both writes run under one admission permit.
type ContributionService struct {
	contribs repo.Contributions
	groups   repo.Groups
	gate     *admission.Limiter
	wp       *worker.Pool
	cache    cache.Store
	cacheTTL time.Duration
	log      *slog.Logger
}

func NewContributionService(c repo.Contributions, g repo.Groups, gate *admission.Limiter, wp *worker.Pool, cs cache.Store, ttl time.Duration, log *slog.Logger) *ContributionService {
	return &ContributionService{contribs: c, groups: g, gate: gate, wp: wp, cache: cs, cacheTTL: ttl, log: log}
}

// Contribute commits one contribution and returns the group's new total.
// On ErrAdmissionRejected nothing was written. If the increment fails after
// the append, the audit row exists without a matching total; a rebuild is
// queued so the two reconverge instead of silently diverging.
func (s *ContributionService) Contribute(ctx context.Context, userID, groupID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be > 0", ErrValidation)
	}

	release, ok := s.gate.Acquire(ctx)
	if !ok {
		metrics.AdmissionRejected.Inc()
		return 0, ErrAdmissionRejected
	}
	defer release()

	if _, err := s.contribs.Append(ctx, userID, groupID, amount, time.Now().UTC()); err != nil {
		metrics.ContributionsFailed.Inc()
		return 0, fmt.Errorf("%w: append contribution: %v", ErrStoreFault, err)
	}

	total, err := s.groups.AtomicIncrement(ctx, groupID, amount)
	if err != nil {
		metrics.ContributionsFailed.Inc()
		s.log.Error("increment failed after append, queueing rebuild", "group_id", groupID, "err", err)
		s.wp.Submit(func() { s.rebuild(groupID) })
		return 0, fmt.Errorf("%w: increment group total: %v", ErrStoreFault, err)
	}

	metrics.ContributionsTotal.Inc()
	s.wp.Submit(func() { s.invalidateUser(userID) })
	return total, nil
}

// Reconcile rebuilds a group's running total from the contribution sum.
func (s *ContributionService) Reconcile(ctx context.Context, groupID string) (int64, error) {
	total, err := s.groups.Rebuild(ctx, groupID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: rebuild group total: %v", ErrStoreFault, err)
	}
	return total, nil
}

// ListByUser reads a user's contributions through the cache. source reports
// where the data came from ("cache" or "database").
func (s *ContributionService) ListByUser(ctx context.Context, userID string, limit, offset int) (list []models.Contribution, source string, err error) {
	key := cache.UserContributionsKey(userID)
	if offset == 0 {
		if raw, hit, cerr := s.cache.Get(ctx, key); cerr == nil && hit {
			if jerr := json.Unmarshal([]byte(raw), &list); jerr == nil {
				return list, "cache", nil
			}
		}
	}

	list, err = s.contribs.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, "", fmt.Errorf("%w: list contributions: %v", ErrStoreFault, err)
	}
	if offset == 0 && len(list) > 0 {
		if raw, jerr := json.Marshal(list); jerr == nil {
			if cerr := s.cache.Set(ctx, key, string(raw), s.cacheTTL); cerr != nil {
				s.log.Warn("cache set failed", "key", key, "err", cerr)
			}
		}
	}
	return list, "database", nil
}

// Count is the aggregate for GET /status.
func (s *ContributionService) Count(ctx context.Context) (int64, error) {
	n, err := s.contribs.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count contributions: %v", ErrStoreFault, err)
	}
	return n, nil
}

func (s *ContributionService) rebuild(groupID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	total, err := s.groups.Rebuild(ctx, groupID)
	if err != nil {
		s.log.Error("rebuild failed", "group_id", groupID, "err", err)
		return
	}
	s.log.Info("group total rebuilt", "group_id", groupID, "current_amount", total)
}

func (s *ContributionService) invalidateUser(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.cache.Del(ctx, cache.UserContributionsKey(userID)); err != nil {
		s.log.Warn("cache invalidation failed", "user_id", userID, "err", err)
	}
}
