package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cardpro/internal/domain"
)

var prettyNum = message.NewPrinter(language.English)

// Published gpt-4o-mini rates per million tokens, used for the rough
// spend figure on the dashboard.
const (
	costPerMTokensIn  = 0.15
	costPerMTokensOut = 0.60
)

// AdminStats returns the aggregate counters for the operator dashboard.
func (a *App) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Stats.Summary(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("admin: stats query failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	cost := float64(stats.TotalTokensIn)/1e6*costPerMTokensIn +
		float64(stats.TotalTokensOut)/1e6*costPerMTokensOut
	a.json(w, http.StatusOK, map[string]any{
		"total_users":       stats.TotalUsers,
		"paid_users":        stats.PaidUsers,
		"generations_today": stats.TodayGens,
		"generations_total": stats.TotalGens,
		"tokens_in_total":   stats.TotalTokensIn,
		"tokens_out_total":  stats.TotalTokensOut,
		"tokens_in_pretty":  prettyNum.Sprintf("%d", stats.TotalTokensIn),
		"tokens_out_pretty": prettyNum.Sprintf("%d", stats.TotalTokensOut),
		"approx_cost_usd":   prettyNum.Sprintf("$%.2f", cost),
		"referrals_total":   stats.TotalReferrals,
	})
}

// AdminUserInfo returns the full account view for one user.
func (a *App) AdminUserInfo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid user id")
		return
	}

	user, err := a.Ledger.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.Logger.Error().Err(err).Int64("user_id", id).Msg("admin: user lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load user")
		return
	}

	quota, err := a.Ledger.CheckQuota(r.Context(), id)
	if err != nil {
		a.Logger.Error().Err(err).Int64("user_id", id).Msg("admin: quota check failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load quota")
		return
	}
	referrals, err := a.Ledger.CountReferrals(r.Context(), id)
	if err != nil {
		a.Logger.Warn().Err(err).Int64("user_id", id).Msg("admin: referral count failed")
	}

	resp := map[string]any{
		"id":            user.ID,
		"username":      user.Username,
		"full_name":     user.FullName,
		"plan":          quota.Plan,
		"quota_used":    quota.Used,
		"quota_limit":   quota.Limit,
		"referral_code": user.ReferralCode,
		"referrals":     referrals,
		"bonus_days":    user.ReferralBonusDays,
		"blocked":       user.Blocked,
		"created_at":    user.CreatedAt,
		"last_active":   user.LastActiveAt,
	}
	if user.SubExpiresAt != nil {
		resp["sub_expires_at"] = user.SubExpiresAt
	}
	a.json(w, http.StatusOK, resp)
}

type setPlanRequest struct {
	Plan string `json:"plan"`
	Days int    `json:"days"`
}

// AdminSetPlan activates or changes a user's subscription. This is where
// manually verified payments get applied.
func (a *App) AdminSetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid user id")
		return
	}

	var req setPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	plan, err := domain.ParsePlan(req.Plan)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown plan")
		return
	}
	if plan != domain.PlanFree && req.Days <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "days must be positive for paid plans")
		return
	}

	if err := a.Ledger.SetSubscription(r.Context(), id, plan, req.Days); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.Logger.Error().Err(err).Int64("user_id", id).Msg("admin: set plan failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to set plan")
		return
	}

	a.Logger.Info().Int64("user_id", id).Str("plan", string(plan)).Int("days", req.Days).Msg("admin: plan updated")

	if plan != domain.PlanFree {
		text := prettyNum.Sprintf("Your %s plan is active for %d days. Enjoy!", plan, req.Days)
		if err := a.Sender.Send(r.Context(), id, text, nil); err != nil {
			a.Logger.Warn().Err(err).Int64("user_id", id).Msg("admin: activation notice failed")
		}
	}

	a.json(w, http.StatusOK, map[string]any{"id": id, "plan": plan, "days": req.Days})
}

type broadcastRequest struct {
	Text string `json:"text"`
}

// AdminBroadcast sends one message to every non-blocked user. Individual
// delivery failures are counted, not fatal.
func (a *App) AdminBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := decodeJSON(r, &req); err != nil || req.Text == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "text is required")
		return
	}

	ids, err := a.Users.ListBroadcastTargets(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("admin: broadcast target query failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list recipients")
		return
	}

	sent, failed := 0, 0
	for _, id := range ids {
		if err := a.Sender.Send(r.Context(), id, req.Text, nil); err != nil {
			failed++
			continue
		}
		sent++
	}

	a.Logger.Info().Int("sent", sent).Int("failed", failed).Msg("admin: broadcast done")
	a.json(w, http.StatusOK, map[string]int{"sent": sent, "failed": failed})
}
