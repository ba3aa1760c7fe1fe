package settlement

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// ClaimReferral settles a referral claim by the referee. The code is either
// the referrer's user ID or their wallet address. Each user can be referred
// at most once, enforced both by an explicit existence check and by the
// store's uniqueness constraint on the referee column, so concurrent claims
// collapse to one.
func (e *Engine) ClaimReferral(refereeID, code string) (*models.Referral, error) {
	referee, err := e.store.GetUser(refereeID)
	if err != nil {
		return nil, err
	}

	referrer, err := e.store.GetUserByIDOrWallet(code)
	if err != nil {
		return nil, err
	}
	if referrer.ID == referee.ID {
		return nil, config.ErrSelfReferral
	}

	existing, err := e.store.GetReferralByReferee(referee.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, config.ErrAlreadyClaimed
	}

	referral := models.Referral{
		ID:         uuid.NewString(),
		ReferrerID: referrer.ID,
		RefereeID:  referee.ID,
		Status:     models.ReferralCompleted,
	}
	if err := e.store.CreateReferral(referral); err != nil {
		return nil, err
	}

	// Both sides earn the referral boost. Grants are conflict-skipping so a
	// claim replayed after a partial failure converges instead of erroring.
	for _, userID := range []string{referrer.ID, referee.ID} {
		if _, err := e.ExtendBoost(userID, config.ReferralBoostMultiplier, config.ReferralBoostDurationHours, "", true); err != nil {
			return nil, err
		}
	}

	slog.Info("referral settled",
		"referralId", referral.ID,
		"referrerId", referral.ReferrerID,
		"refereeId", referral.RefereeID,
	)

	return &referral, nil
}
