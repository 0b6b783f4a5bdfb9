package domain

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"
)

// Plan enumerates subscription tiers.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanStandard Plan = "standard"
	PlanPro      Plan = "pro"
)

// ParsePlan validates a raw plan string.
func ParsePlan(raw string) (Plan, error) {
	switch Plan(strings.ToLower(strings.TrimSpace(raw))) {
	case PlanFree:
		return PlanFree, nil
	case PlanStandard:
		return PlanStandard, nil
	case PlanPro:
		return PlanPro, nil
	}
	return "", fmt.Errorf("%w: unknown plan %q", ErrValidation, raw)
}

// User represents a chat account known to the service.
//
// The plan stored here is the raw value; whether it is still active is
// decided by the ledger, which lazily downgrades past-expiry subscriptions.
type User struct {
	ID                int64
	Username          string
	FullName          string
	Plan              Plan
	SubExpiresAt      *time.Time
	ReferralCode      string
	ReferredBy        *int64
	ReferralBonusDays int
	LastActiveAt      time.Time
	InactiveNotified  bool
	Blocked           bool
	CreatedAt         time.Time
}

// IsFree reports whether the stored plan is the free tier.
func (u User) IsFree() bool {
	return u.Plan == PlanFree
}

// ReferralCodeFor derives the stable referral code for a user id.
// Codes are handed out at first contact and never change, so the
// derivation must stay deterministic.
func ReferralCodeFor(userID int64) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%d", userID)))
	return "KP" + strings.ToUpper(fmt.Sprintf("%x", sum)[:8])
}
