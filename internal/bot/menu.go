package bot

import (
	"context"

	"cardpro/internal/domain"
)

func (b *Bot) sendHelp(ctx context.Context, userID int64) {
	b.send(ctx, userID, helpText(b.cfg.FreeDailyLimit, b.cfg.PriceStandard, b.cfg.StandardMonthlyLimit, b.cfg.PricePro), backKb())
}

func (b *Bot) onProfile(ctx context.Context, from UserRef) {
	user, err := b.ledger.GetUser(ctx, from.ID)
	if err != nil {
		b.send(ctx, from.ID, retryFailureText, backKb())
		return
	}
	plan, err := b.ledger.ResolveActivePlan(ctx, from.ID)
	if err != nil {
		b.send(ctx, from.ID, retryFailureText, backKb())
		return
	}
	st, err := b.ledger.CheckQuota(ctx, from.ID)
	if err != nil {
		b.send(ctx, from.ID, retryFailureText, backKb())
		return
	}
	referrals, err := b.ledger.CountReferrals(ctx, from.ID)
	if err != nil {
		b.logger.Warn().Err(err).Int64("user_id", from.ID).Msg("bot: referral count failed")
	}

	b.send(ctx, from.ID, profileText(plan, st, user, referrals), backKb())
}

func (b *Bot) onPricing(ctx context.Context, from UserRef) {
	text := pricingText(b.cfg.FreeDailyLimit, b.cfg.PriceStandard, b.cfg.StandardMonthlyLimit, b.cfg.PricePro)
	b.send(ctx, from.ID, text, pricingKb(b.cfg.PriceStandard, b.cfg.PricePro))
}

func (b *Bot) onReferral(ctx context.Context, from UserRef) {
	user, err := b.ledger.GetUser(ctx, from.ID)
	if err != nil {
		b.send(ctx, from.ID, retryFailureText, backKb())
		return
	}
	referrals, err := b.ledger.CountReferrals(ctx, from.ID)
	if err != nil {
		b.logger.Warn().Err(err).Int64("user_id", from.ID).Msg("bot: referral count failed")
	}

	link := b.cfg.ReferralLinkBase + user.ReferralCode
	b.send(ctx, from.ID, referralText(link, referrals, user.ReferralBonusDays), backKb())
}

// onBuy shows the manual payment instructions for the chosen plan.
func (b *Bot) onBuy(ctx context.Context, from UserRef, planToken string) {
	plan, err := domain.ParsePlan(planToken)
	if err != nil || plan == domain.PlanFree {
		b.send(ctx, from.ID, mainMenuText, mainMenuKb())
		return
	}

	price := b.cfg.PriceStandard
	if plan == domain.PlanPro {
		price = b.cfg.PricePro
	}
	b.send(ctx, from.ID, paymentText(planNames[plan], price, from.ID), confirmBuyKb(string(plan)))
}

// onConfirmPayment acknowledges the user's claim of payment and pings the
// operators to verify it. Activation itself stays manual.
func (b *Bot) onConfirmPayment(ctx context.Context, from UserRef, planToken string) {
	plan, err := domain.ParsePlan(planToken)
	if err != nil || plan == domain.PlanFree {
		b.send(ctx, from.ID, mainMenuText, mainMenuKb())
		return
	}

	b.send(ctx, from.ID, paymentRequestedText(planNames[plan]), backKb())

	notice := adminPaymentNoticeText(from, planNames[plan])
	for _, adminID := range b.cfg.AdminIDs {
		b.send(ctx, adminID, notice, nil)
	}
}
