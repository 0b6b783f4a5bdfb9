// Package ledger is the authoritative source for plan, quota, and referral
// bookkeeping. Every operation is a short read-modify-write against the
// repositories; nothing holds a lock across a call, so concurrent answers
// are advisory-consistent rather than linearizable. The per-user request
// throttle upstream keeps true races rare, and a small quota overshoot is
// the accepted failure mode.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardpro/internal/domain"
	"cardpro/internal/infra"
)

// Limits holds the configured generation allowances per tier.
type Limits struct {
	FreeDaily       int
	StandardMonthly int
	ProMonthly      int
}

// QuotaStatus is the answer to "may this user generate right now?".
type QuotaStatus struct {
	Allowed bool
	Used    int
	Limit   int
	Plan    domain.Plan
}

// Service implements the quota/subscription and referral ledgers.
type Service struct {
	users  domain.UserRepository
	gens   domain.GenerationRepository
	limits Limits
	bonus  int
	logger infra.Logger

	// onReferralCredit runs after a referral bonus lands. It is a
	// decoupled side effect: failures inside it never touch the ledger.
	onReferralCredit func(ctx context.Context, inviterID int64, bonusDays, totalReferrals int)

	now func() time.Time
}

// NewService constructs the ledger over the given repositories.
func NewService(users domain.UserRepository, gens domain.GenerationRepository, limits Limits, bonusDays int, logger infra.Logger) *Service {
	return &Service{
		users:  users,
		gens:   gens,
		limits: limits,
		bonus:  bonusDays,
		logger: logger,
		now:    time.Now,
	}
}

// OnReferralCredit registers the out-of-band notification hook.
func (s *Service) OnReferralCredit(fn func(ctx context.Context, inviterID int64, bonusDays, totalReferrals int)) {
	s.onReferralCredit = fn
}

// GetUser fetches the raw stored record.
func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ResolveActivePlan returns the plan currently in effect. A stored paid
// plan whose expiry has passed reads as free, and the downgrade is written
// back lazily. The write is conditional on the expiry value just read, so
// concurrent resolutions at the expiry instant stay idempotent.
func (s *Service) ResolveActivePlan(ctx context.Context, userID int64) (domain.Plan, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.PlanFree, err
	}
	if user.IsFree() || user.SubExpiresAt == nil {
		return domain.PlanFree, nil
	}
	if user.SubExpiresAt.Before(s.now()) {
		if err := s.users.ClearExpiredSubscription(ctx, userID, *user.SubExpiresAt); err != nil {
			return domain.PlanFree, fmt.Errorf("clear expired subscription: %w", err)
		}
		return domain.PlanFree, nil
	}
	return user.Plan, nil
}

// CheckQuota reports whether the user may run another generation. Free
// users are counted against a daily window, paid users against a calendar
// month; both windows use server-local time.
func (s *Service) CheckQuota(ctx context.Context, userID int64) (QuotaStatus, error) {
	plan, err := s.ResolveActivePlan(ctx, userID)
	if err != nil {
		return QuotaStatus{}, err
	}

	now := s.now()
	var since time.Time
	var limit int
	switch plan {
	case domain.PlanFree:
		since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		limit = s.limits.FreeDaily
	case domain.PlanStandard:
		since = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		limit = s.limits.StandardMonthly
	case domain.PlanPro:
		since = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		limit = s.limits.ProMonthly
	}

	used, err := s.gens.CountSince(ctx, userID, since)
	if err != nil {
		return QuotaStatus{}, err
	}
	return QuotaStatus{Allowed: used < limit, Used: used, Limit: limit, Plan: plan}, nil
}

// SetSubscription overwrites plan and expiry. days <= 0 or the free plan
// clears the expiry.
func (s *Service) SetSubscription(ctx context.Context, userID int64, plan domain.Plan, days int) error {
	var expires *time.Time
	if plan != domain.PlanFree && days > 0 {
		t := s.now().AddDate(0, 0, days)
		expires = &t
	}
	return s.users.SetSubscription(ctx, userID, plan, expires)
}

// ExtendSubscription credits extra days. A user with no active paid plan
// is upgraded to pro for the credited period; otherwise the existing plan
// is kept and the expiry pushed out from max(now, current expiry).
func (s *Service) ExtendSubscription(ctx context.Context, userID int64, extraDays int) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsFree() || user.SubExpiresAt == nil {
		return s.SetSubscription(ctx, userID, domain.PlanPro, extraDays)
	}
	base := *user.SubExpiresAt
	if now := s.now(); base.Before(now) {
		base = now
	}
	newExpiry := base.AddDate(0, 0, extraDays)
	return s.users.SetSubscription(ctx, userID, user.Plan, &newExpiry)
}

// TouchActivity records an interaction and re-arms the inactivity reminder.
func (s *Service) TouchActivity(ctx context.Context, userID int64) error {
	err := s.users.TouchActivity(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}
