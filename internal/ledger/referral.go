package ledger

import (
	"context"
	"errors"

	"cardpro/internal/domain"
)

// GetOrCreate returns the stored user, creating the record on first
// contact. A referral code supplied with the first event sets the
// referred_by edge and credits the inviter exactly once; any later event
// (including a re-delivered first contact) only touches activity.
func (s *Service) GetOrCreate(ctx context.Context, id int64, username, fullName, refCode string) (*domain.User, bool, error) {
	existing, err := s.users.GetByID(ctx, id)
	if err == nil {
		if terr := s.users.TouchActivity(ctx, id); terr != nil {
			s.logger.Warn().Err(terr).Int64("user_id", id).Msg("ledger: touch on contact failed")
		}
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	inviterID := s.resolveInviter(ctx, id, refCode)
	user := &domain.User{
		ID:           id,
		Username:     username,
		FullName:     fullName,
		ReferralCode: domain.ReferralCodeFor(id),
		ReferredBy:   inviterID,
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		// A concurrent first contact may have won the insert. Treat the
		// duplicate as an existing user and skip the referral credit.
		if again, gerr := s.users.GetByID(ctx, id); gerr == nil {
			return again, false, nil
		}
		return nil, false, err
	}

	if inviterID != nil {
		if cerr := s.CreditReferralBonus(ctx, *inviterID, s.bonus); cerr != nil {
			s.logger.Error().Err(cerr).Int64("inviter_id", *inviterID).Msg("ledger: referral credit failed")
		}
	}
	return created, true, nil
}

// resolveInviter maps a referral code to an inviter id. Unknown codes and
// self-referrals resolve to nil; a bad code never blocks onboarding.
func (s *Service) resolveInviter(ctx context.Context, newUserID int64, refCode string) *int64 {
	if refCode == "" {
		return nil
	}
	inviter, err := s.users.GetByReferralCode(ctx, refCode)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Str("ref_code", refCode).Msg("ledger: referral lookup failed")
		}
		return nil
	}
	if inviter.ID == newUserID {
		return nil
	}
	return &inviter.ID
}

// CreditReferralBonus bumps the inviter's bonus counter and extends their
// subscription. The out-of-band notification runs afterwards on its own
// goroutine; its failure never rolls the credit back.
func (s *Service) CreditReferralBonus(ctx context.Context, inviterID int64, bonusDays int) error {
	if err := s.users.AddReferralBonusDays(ctx, inviterID, bonusDays); err != nil {
		return err
	}
	if err := s.ExtendSubscription(ctx, inviterID, bonusDays); err != nil {
		return err
	}

	if s.onReferralCredit != nil {
		total, err := s.users.CountReferrals(ctx, inviterID)
		if err != nil {
			total = 0
		}
		go s.onReferralCredit(context.WithoutCancel(ctx), inviterID, bonusDays, total)
	}
	return nil
}

// CountReferrals reports how many users the given user has invited.
func (s *Service) CountReferrals(ctx context.Context, userID int64) (int, error) {
	return s.users.CountReferrals(ctx, userID)
}
