// Package memory holds in-memory repository implementations. They mirror
// the Postgres repositories closely enough to exercise the conditional
// update semantics the ledger relies on, and back the package tests and
// local development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cardpro/internal/domain"
)

// Users is a mutex-guarded in-memory domain.UserRepository.
type Users struct {
	mu    sync.Mutex
	users map[int64]*domain.User
}

func NewUsers() *Users {
	return &Users{users: make(map[int64]*domain.User)}
}

func (m *Users) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; ok {
		return nil, fmt.Errorf("duplicate user %d", user.ID)
	}
	u := *user
	u.Plan = domain.PlanFree
	u.LastActiveAt = time.Now()
	u.CreatedAt = time.Now()
	m.users[user.ID] = &u
	out := u
	return &out, nil
}

func (m *Users) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *Users) GetByReferralCode(_ context.Context, code string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ReferralCode == code {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Users) TouchActivity(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.LastActiveAt = time.Now()
	u.InactiveNotified = false
	return nil
}

func (m *Users) SetSubscription(_ context.Context, id int64, plan domain.Plan, expiresAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Plan = plan
	u.SubExpiresAt = expiresAt
	return nil
}

func (m *Users) ClearExpiredSubscription(_ context.Context, id int64, seenExpiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	if u.SubExpiresAt == nil || !u.SubExpiresAt.Equal(seenExpiry) {
		return nil
	}
	u.Plan = domain.PlanFree
	u.SubExpiresAt = nil
	return nil
}

func (m *Users) AddReferralBonusDays(_ context.Context, id int64, days int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.ReferralBonusDays += days
	return nil
}

func (m *Users) CountReferrals(_ context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.users {
		if u.ReferredBy != nil && *u.ReferredBy == id {
			n++
		}
	}
	return n, nil
}

func (m *Users) ListInactiveSince(_ context.Context, cutoff time.Time) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		if u.LastActiveAt.Before(cutoff) && !u.InactiveNotified && !u.Blocked {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *Users) MarkInactiveNotified(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			u.InactiveNotified = true
		}
	}
	return nil
}

func (m *Users) MarkBlocked(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.Blocked = true
	}
	return nil
}

func (m *Users) ListBroadcastTargets(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for _, u := range m.users {
		if !u.Blocked {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

// Gens is a mutex-guarded in-memory domain.GenerationRepository.
type Gens struct {
	mu   sync.Mutex
	gens []domain.Generation
}

func NewGens() *Gens {
	return &Gens{}
}

func (m *Gens) Insert(_ context.Context, gen *domain.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := *gen
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	m.gens = append(m.gens, g)
	return nil
}

func (m *Gens) CountSince(_ context.Context, userID int64, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, g := range m.gens {
		if g.UserID == userID && !g.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *Gens) ListWithResult(_ context.Context, userID int64, limit, offset int) ([]domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.Generation
	for i := len(m.gens) - 1; i >= 0; i-- {
		g := m.gens[i]
		if g.UserID == userID && g.ResultText != "" {
			all = append(all, g)
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *Gens) CountWithResult(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, g := range m.gens {
		if g.UserID == userID && g.ResultText != "" {
			n++
		}
	}
	return n, nil
}

func (m *Gens) GetByID(_ context.Context, id string, userID int64) (*domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.gens {
		if g.ID == id && g.UserID == userID {
			out := g
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}
