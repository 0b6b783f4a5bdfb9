package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cardpro/internal/adapter/repo/memory"
	"cardpro/internal/domain"
)

func testService() (*Service, *memory.Users, *memory.Gens) {
	users := memory.NewUsers()
	gens := memory.NewGens()
	limits := Limits{FreeDaily: 3, StandardMonthly: 50, ProMonthly: 999999}
	svc := NewService(users, gens, limits, 3, zerolog.Nop())
	return svc, users, gens
}

func seedUser(t *testing.T, users *memory.Users, id int64, plan domain.Plan, expires *time.Time) {
	t.Helper()
	u := &domain.User{ID: id, ReferralCode: domain.ReferralCodeFor(id)}
	if _, err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user %d: %v", id, err)
	}
	if err := users.SetSubscription(context.Background(), id, plan, expires); err != nil {
		t.Fatalf("seed subscription %d: %v", id, err)
	}
}

func TestResolveActivePlanLazyExpiry(t *testing.T) {
	svc, users, _ := testService()
	ctx := context.Background()

	expired := time.Now().Add(-time.Hour)
	seedUser(t, users, 1, domain.PlanStandard, &expired)

	plan, err := svc.ResolveActivePlan(ctx, 1)
	if err != nil {
		t.Fatalf("ResolveActivePlan: %v", err)
	}
	if plan != domain.PlanFree {
		t.Fatalf("plan = %q, want free", plan)
	}

	u, err := users.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Plan != domain.PlanFree || u.SubExpiresAt != nil {
		t.Fatalf("stored record not downgraded: plan=%q expiry=%v", u.Plan, u.SubExpiresAt)
	}

	// Repeated resolution stays free and stays clean.
	plan, err = svc.ResolveActivePlan(ctx, 1)
	if err != nil || plan != domain.PlanFree {
		t.Fatalf("second resolve = (%q, %v), want (free, nil)", plan, err)
	}
}

func TestResolveActivePlanActiveSubscription(t *testing.T) {
	svc, users, _ := testService()

	future := time.Now().Add(48 * time.Hour)
	seedUser(t, users, 2, domain.PlanPro, &future)

	plan, err := svc.ResolveActivePlan(context.Background(), 2)
	if err != nil {
		t.Fatalf("ResolveActivePlan: %v", err)
	}
	if plan != domain.PlanPro {
		t.Fatalf("plan = %q, want pro", plan)
	}
}

func TestCheckQuotaFreeDailyLimit(t *testing.T) {
	svc, users, gens := testService()
	ctx := context.Background()

	seedUser(t, users, 3, domain.PlanFree, nil)

	for i := 0; i < 2; i++ {
		if err := gens.Insert(ctx, &domain.Generation{UserID: 3, CreatedAt: time.Now()}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	st, err := svc.CheckQuota(ctx, 3)
	if err != nil {
		t.Fatalf("CheckQuota: %v", err)
	}
	if !st.Allowed || st.Used != 2 || st.Limit != 3 {
		t.Fatalf("status = %+v, want allowed 2/3", st)
	}

	if err := gens.Insert(ctx, &domain.Generation{UserID: 3, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	st, err = svc.CheckQuota(ctx, 3)
	if err != nil {
		t.Fatalf("CheckQuota: %v", err)
	}
	if st.Allowed || st.Used != 3 {
		t.Fatalf("status = %+v, want denied at 3/3", st)
	}
}

func TestCheckQuotaResetsAtMidnight(t *testing.T) {
	svc, users, gens := testService()
	ctx := context.Background()

	seedUser(t, users, 4, domain.PlanFree, nil)

	yesterday := time.Date(2026, 8, 30, 23, 0, 0, 0, time.Local)
	for i := 0; i < 3; i++ {
		if err := gens.Insert(ctx, &domain.Generation{UserID: 4, CreatedAt: yesterday}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	svc.now = func() time.Time { return time.Date(2026, 8, 31, 0, 30, 0, 0, time.Local) }

	st, err := svc.CheckQuota(ctx, 4)
	if err != nil {
		t.Fatalf("CheckQuota: %v", err)
	}
	if !st.Allowed || st.Used != 0 {
		t.Fatalf("status = %+v, want fresh 0/3 after midnight", st)
	}
}

func TestCheckQuotaCountsRecordsWithoutResultText(t *testing.T) {
	svc, users, gens := testService()
	ctx := context.Background()

	seedUser(t, users, 5, domain.PlanFree, nil)
	for i := 0; i < 3; i++ {
		if err := gens.Insert(ctx, &domain.Generation{UserID: 5, ResultText: "", CreatedAt: time.Now()}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	st, err := svc.CheckQuota(ctx, 5)
	if err != nil {
		t.Fatalf("CheckQuota: %v", err)
	}
	if st.Allowed {
		t.Fatalf("resultless records must still consume quota: %+v", st)
	}

	n, err := gens.CountWithResult(ctx, 5)
	if err != nil || n != 0 {
		t.Fatalf("CountWithResult = (%d, %v), want (0, nil)", n, err)
	}
}

func TestCheckQuotaMonthlyWindowForPaidPlans(t *testing.T) {
	svc, users, gens := testService()
	ctx := context.Background()

	future := time.Now().Add(240 * time.Hour)
	seedUser(t, users, 6, domain.PlanStandard, &future)

	svc.now = func() time.Time { return time.Date(2026, 8, 15, 12, 0, 0, 0, time.Local) }

	// One generation earlier this month, one last month.
	if err := gens.Insert(ctx, &domain.Generation{UserID: 6, CreatedAt: time.Date(2026, 8, 2, 9, 0, 0, 0, time.Local)}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := gens.Insert(ctx, &domain.Generation{UserID: 6, CreatedAt: time.Date(2026, 7, 28, 9, 0, 0, 0, time.Local)}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	st, err := svc.CheckQuota(ctx, 6)
	if err != nil {
		t.Fatalf("CheckQuota: %v", err)
	}
	if st.Used != 1 || st.Limit != 50 || st.Plan != domain.PlanStandard {
		t.Fatalf("status = %+v, want used=1 limit=50 plan=standard", st)
	}
}

func TestExtendSubscriptionUpgradesFreeToPro(t *testing.T) {
	svc, users, _ := testService()
	ctx := context.Background()

	seedUser(t, users, 7, domain.PlanFree, nil)

	if err := svc.ExtendSubscription(ctx, 7, 3); err != nil {
		t.Fatalf("ExtendSubscription: %v", err)
	}

	u, err := users.GetByID(ctx, 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Plan != domain.PlanPro {
		t.Fatalf("plan = %q, want pro", u.Plan)
	}
	if u.SubExpiresAt == nil {
		t.Fatalf("expiry not set")
	}
	want := time.Now().AddDate(0, 0, 3)
	if diff := u.SubExpiresAt.Sub(want); diff > time.Minute || diff < -time.Minute {
		t.Fatalf("expiry = %v, want ≈ %v", u.SubExpiresAt, want)
	}
}

func TestExtendSubscriptionKeepsExistingPlan(t *testing.T) {
	svc, users, _ := testService()
	ctx := context.Background()

	expiry := time.Now().AddDate(0, 0, 10)
	seedUser(t, users, 8, domain.PlanStandard, &expiry)

	if err := svc.ExtendSubscription(ctx, 8, 3); err != nil {
		t.Fatalf("ExtendSubscription: %v", err)
	}

	u, err := users.GetByID(ctx, 8)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Plan != domain.PlanStandard {
		t.Fatalf("plan = %q, want standard unchanged", u.Plan)
	}
	want := time.Now().AddDate(0, 0, 13)
	if diff := u.SubExpiresAt.Sub(want); diff > time.Minute || diff < -time.Minute {
		t.Fatalf("expiry = %v, want ≈ %v", u.SubExpiresAt, want)
	}
}

func TestExtendSubscriptionFromLapsedExpiryUsesNow(t *testing.T) {
	svc, users, _ := testService()
	ctx := context.Background()

	lapsed := time.Now().AddDate(0, 0, -5)
	seedUser(t, users, 9, domain.PlanStandard, &lapsed)

	if err := svc.ExtendSubscription(ctx, 9, 3); err != nil {
		t.Fatalf("ExtendSubscription: %v", err)
	}

	u, err := users.GetByID(ctx, 9)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	want := time.Now().AddDate(0, 0, 3)
	if diff := u.SubExpiresAt.Sub(want); diff > time.Minute || diff < -time.Minute {
		t.Fatalf("expiry = %v, want ≈ now+3d", u.SubExpiresAt)
	}
}

func TestSetSubscriptionFreeClearsExpiry(t *testing.T) {
	svc, users, _ := testService()
	ctx := context.Background()

	expiry := time.Now().AddDate(0, 0, 30)
	seedUser(t, users, 10, domain.PlanPro, &expiry)

	if err := svc.SetSubscription(ctx, 10, domain.PlanFree, 0); err != nil {
		t.Fatalf("SetSubscription: %v", err)
	}
	u, err := users.GetByID(ctx, 10)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Plan != domain.PlanFree || u.SubExpiresAt != nil {
		t.Fatalf("got plan=%q expiry=%v, want free with no expiry", u.Plan, u.SubExpiresAt)
	}
}
