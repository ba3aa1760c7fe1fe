package settlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// ExtendBoost grants a yield boost to a user. Boosts chain rather than
// overlap: the new window starts at the later of now and the latest
// non-expired boost's expiry, so earning a fresh boost never truncates time
// already banked.
//
// skipDuplicate makes an exact (multiplier, expiry) collision a silent no-op
// instead of an error; referral grants use it so replayed claims stay
// idempotent at the boost layer.
func (e *Engine) ExtendBoost(userID string, multiplier float64, durationHours int, sourceCampaignID string, skipDuplicate bool) (*models.ActiveBoost, error) {
	now := e.now().UTC()

	base := now
	if latest, err := e.store.LatestBoostExpiry(userID, now); err != nil {
		return nil, err
	} else if latest != nil && latest.After(base) {
		base = *latest
	}

	boost := models.ActiveBoost{
		ID:         uuid.NewString(),
		UserID:     userID,
		Multiplier: multiplier,
		ExpiresAt:  base.Add(time.Duration(durationHours) * time.Hour),
		CampaignID: sourceCampaignID,
	}
	if err := e.store.InsertBoost(boost, skipDuplicate); err != nil {
		return nil, err
	}
	return &boost, nil
}

// EffectiveBoost reports the multiplier currently applied to the user's
// yield. Concurrent boosts do not stack: the highest non-expired multiplier
// wins, and a user with none gets the 1.0 baseline.
func (e *Engine) EffectiveBoost(userID string) (*models.EffectiveBoost, error) {
	return e.store.EffectiveBoost(userID, e.now().UTC())
}

// ActiveBoosts lists the user's non-expired boosts, newest window first.
func (e *Engine) ActiveBoosts(userID string) ([]models.ActiveBoost, error) {
	return e.store.ListActiveBoosts(userID, e.now().UTC())
}
