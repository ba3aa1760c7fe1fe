package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/ledger"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/store"
)

// Issuer is the ledger capability the engine depends on. The production
// implementation signs with the operator identity; tests inject a fake that
// succeeds or fails deterministically.
type Issuer interface {
	IssueReward(ctx context.Context, recipientWallet string, ledgerCampaignID int64, value models.Amount) ledger.IssuanceResult
}

// Engine coordinates mission completion bookkeeping, boost accrual, campaign
// budget consumption, and reward issuance. It holds no in-process mutable
// state: coordination is delegated to the store's transactional guarantees
// and the ledger's own serialization of writes per campaign.
type Engine struct {
	store  *store.Store
	issuer Issuer
	now    func() time.Time
}

// NewEngine creates the settlement engine.
func NewEngine(st *store.Store, issuer Issuer) *Engine {
	return &Engine{
		store:  st,
		issuer: issuer,
		now:    time.Now,
	}
}

// CompleteMission settles one mission completion for a user: eligibility
// checks, bounded reward draw, operator-signed issuance, completion and boost
// bookkeeping.
//
// The completion row is written before the ledger call so the store's
// (user, mission) uniqueness constraint closes the concurrent double-submit
// window without spending an issuance. Issuance failure does not roll the
// completion back: the boost/engagement value of completing a mission is
// independent of reward delivery, and a failed delivery stays retryable via
// RetryIssuance.
func (e *Engine) CompleteMission(ctx context.Context, userID, missionID string) (*models.CompletionResult, error) {
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
	if campaign != nil {
		if campaign.Status != models.CampaignActive {
			return nil, config.ErrCampaignInactive
		}
		if campaign.RemainingBudget <= 0 {
			return nil, config.ErrBudgetExhausted
		}
	}

	// Eligibility must be settled before any reward computation or ledger
	// call: a repeat completion of a non-repeatable mission fails here.
	existing, err := e.store.GetCompletion(userID, missionID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == models.CompletionCompleted && !mission.Repeatable {
		return nil, config.ErrAlreadyCompleted
	}
	if deliveryOutstanding(existing) {
		// Re-recording would strand the earlier budget charge; the owed
		// reward must go through RetryIssuance first.
		return nil, config.ErrRewardPending
	}

	if campaign != nil && user.WalletAddress == "" {
		return nil, config.ErrWalletRequired
	}

	completionID, err := e.store.RecordCompletion(uuid.NewString(), userID, missionID, mission.Repeatable)
	if err != nil {
		return nil, err
	}

	result := &models.CompletionResult{CompletionID: completionID}

	if campaign == nil {
		outcome := models.IssuanceOutcome{State: models.IssuanceNone}
		e.recordOutcome(completionID, outcome)
	} else {
		outcome := e.settleReward(ctx, campaign, user.WalletAddress)
		e.recordOutcome(completionID, outcome)
		result.RewardValue = &outcome.Value
		result.Issuance = &outcome
	}

	if mission.BoostMultiplier > 0 && mission.BoostDurationHours > 0 {
		campaignID := ""
		if campaign != nil {
			campaignID = campaign.ID
		}
		if _, err := e.ExtendBoost(userID, mission.BoostMultiplier, mission.BoostDurationHours, campaignID, false); err != nil {
			return nil, fmt.Errorf("extend boost after completion %s: %w", completionID, err)
		}
	}

	slog.Info("mission settled",
		"completionId", completionID,
		"userId", userID,
		"missionId", missionID,
		"funded", campaign != nil,
	)

	return result, nil
}

// settleReward draws the reward value, consumes campaign budget, and drives
// the ledger issuance. It always returns an outcome to record; it never
// returns an error because reward-delivery failures must not abort the
// completion that is already on the books.
func (e *Engine) settleReward(ctx context.Context, campaign *models.Campaign, wallet string) models.IssuanceOutcome {
	value := DrawReward(campaign.MinReward, campaign.MaxReward)
	outcome := models.IssuanceOutcome{Value: value}

	// Atomic conditional decrement: a concurrent settlement that drains the
	// budget first turns this completion into a recorded failure, not a
	// negative budget.
	if err := e.store.ConsumeBudget(campaign.ID, value); err != nil {
		outcome.State = models.IssuanceFailed
		outcome.Reason = consumeFailureReason(err)
		return outcome
	}
	outcome.BudgetCharged = true

	res := e.issuer.IssueReward(ctx, wallet, campaign.LedgerCampaignID, value)
	switch res.Status {
	case ledger.IssuanceOk:
		outcome.State = models.IssuanceSucceeded
		outcome.TxRef = res.TxRef
	default:
		outcome.State = models.IssuanceFailed
		outcome.TxRef = res.TxRef
		outcome.Reason = res.Reason()
		slog.Warn("reward issuance failed, completion stands",
			"campaignId", campaign.ID,
			"value", value.String(),
			"reason", outcome.Reason,
		)
	}
	return outcome
}

// deliveryOutstanding reports whether the completion carries a budget charge
// whose reward was never delivered. Such a row is only resolvable through
// RetryIssuance.
func deliveryOutstanding(um *models.UserMission) bool {
	if um == nil || !um.Issuance.BudgetCharged {
		return false
	}
	return um.Issuance.State == models.IssuanceFailed || um.Issuance.State == models.IssuancePending
}

// consumeFailureReason renders a budget-consumption refusal for the recorded
// outcome.
func consumeFailureReason(err error) string {
	if errors.Is(err, config.ErrCampaignFull) {
		return "campaign participant cap reached"
	}
	return "campaign budget exhausted"
}

// recordOutcome persists the issuance outcome. Failures are logged, not
// propagated: the completion row is already the source of truth and the
// outcome can be reconciled by a later retry.
func (e *Engine) recordOutcome(completionID string, outcome models.IssuanceOutcome) {
	if err := e.store.UpdateIssuanceOutcome(completionID, outcome); err != nil {
		slog.Error("failed to record issuance outcome",
			"completionId", completionID,
			"state", outcome.State,
			"error", err,
		)
	}
}
