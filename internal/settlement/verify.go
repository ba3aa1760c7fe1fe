package settlement

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// VerifyExternalCompletion records an advertiser-attested mission completion.
// The advertiser proved off-platform engagement through their own channel and
// pays a flat per-verification unit cost from the campaign budget; reward
// delivery, if any, happens on the advertiser's side, so no coupon is issued.
func (e *Engine) VerifyExternalCompletion(advertiserID, userID, missionID string) (*models.CompletionResult, error) {
	mission, err := e.store.GetMission(missionID)
	if err != nil {
		return nil, err
	}

	user, err := e.store.GetUser(userID)
	if err != nil {
		return nil, err
	}

	campaign, err := e.store.GetCampaignByMission(missionID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, config.ErrCampaignNotFound
	}
	if campaign.AdvertiserID != advertiserID {
		return nil, config.ErrNotCampaignOwner
	}
	if campaign.Status != models.CampaignActive {
		return nil, config.ErrCampaignInactive
	}
	if campaign.RemainingBudget < config.ExternalVerifyUnitCostCents {
		return nil, config.ErrBudgetExhausted
	}

	existing, err := e.store.GetCompletion(user.ID, missionID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == models.CompletionCompleted && !mission.Repeatable {
		return nil, config.ErrAlreadyCompleted
	}
	if deliveryOutstanding(existing) {
		return nil, config.ErrRewardPending
	}

	completionID, err := e.store.RecordCompletion(uuid.NewString(), user.ID, missionID, mission.Repeatable)
	if err != nil {
		return nil, err
	}

	// The completion stands whatever happens to the charge, same posture as a
	// funded settlement: a charge that loses the race to the last budget
	// units or participant slot is recorded as the failure it is, and the
	// advertiser sees it in the outcome.
	outcome := models.IssuanceOutcome{State: models.IssuanceNone}
	if err := e.store.ConsumeBudget(campaign.ID, config.ExternalVerifyUnitCostCents); err != nil {
		outcome.State = models.IssuanceFailed
		outcome.Reason = consumeFailureReason(err)
	} else {
		outcome.BudgetCharged = true
	}
	e.recordOutcome(completionID, outcome)

	if mission.BoostMultiplier > 0 && mission.BoostDurationHours > 0 {
		if _, err := e.ExtendBoost(user.ID, mission.BoostMultiplier, mission.BoostDurationHours, campaign.ID, false); err != nil {
			return nil, err
		}
	}

	slog.Info("external completion verified",
		"completionId", completionID,
		"advertiserId", advertiserID,
		"userId", user.ID,
		"missionId", missionID,
	)

	return &models.CompletionResult{CompletionID: completionID, Issuance: &outcome}, nil
}
