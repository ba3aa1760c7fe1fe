package settlement

import (
	"context"
	"log/slog"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/ledger"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// RetryIssuance re-drives reward delivery for a completion whose ledger leg
// failed. The completion itself is never re-recorded and the reward value is
// never redrawn: the retry reuses the value fixed at completion time, so a
// user cannot farm the draw by forcing failures.
//
// The budget decrement is replayed only if the original attempt never charged
// it; a charged-but-unreceipted attempt retries the ledger call alone.
func (e *Engine) RetryIssuance(ctx context.Context, userID, missionID string) (*models.CompletionResult, error) {
	completion, err := e.store.GetCompletion(userID, missionID)
	if err != nil {
		return nil, err
	}
	if completion == nil || completion.Status != models.CompletionCompleted {
		return nil, config.ErrCompletionRequired
	}

	switch completion.Issuance.State {
	case models.IssuanceSucceeded:
		return nil, config.ErrIssuanceSucceeded
	case models.IssuanceNone:
		// Nothing was ever owed: the mission had no campaign funding.
		return nil, config.ErrCampaignNotFound
	}

	user, err := e.store.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user.WalletAddress == "" {
		return nil, config.ErrWalletRequired
	}

	campaign, err := e.store.GetCampaignByMission(missionID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, config.ErrCampaignNotFound
	}

	outcome := completion.Issuance
	if outcome.Value == 0 {
		// Defensive for rows recorded before the value was fixed.
		outcome.Value = DrawReward(campaign.MinReward, campaign.MaxReward)
	}

	if !outcome.BudgetCharged {
		if err := e.store.ConsumeBudget(campaign.ID, outcome.Value); err != nil {
			outcome.State = models.IssuanceFailed
			outcome.Reason = consumeFailureReason(err)
			e.recordOutcome(completion.ID, outcome)
			return nil, err
		}
		outcome.BudgetCharged = true
	}

	res := e.issuer.IssueReward(ctx, user.WalletAddress, campaign.LedgerCampaignID, outcome.Value)
	switch res.Status {
	case ledger.IssuanceOk:
		outcome.State = models.IssuanceSucceeded
		outcome.TxRef = res.TxRef
		outcome.Reason = ""
	default:
		outcome.State = models.IssuanceFailed
		outcome.TxRef = res.TxRef
		outcome.Reason = res.Reason()
	}
	e.recordOutcome(completion.ID, outcome)

	slog.Info("issuance retried",
		"completionId", completion.ID,
		"userId", userID,
		"missionId", missionID,
		"state", outcome.State,
	)

	return &models.CompletionResult{
		CompletionID: completion.ID,
		RewardValue:  &outcome.Value,
		Issuance:     &outcome,
	}, nil
}
