package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

const campaignColumns = `id, advertiser_id, mission_id, status, total_budget_cents,
	remaining_budget_cents, max_participants, participants, min_reward_cents,
	max_reward_cents, ledger_campaign_id, COALESCE(starts_at, ''), COALESCE(ends_at, ''), created_at`

func scanCampaign(row interface {
	Scan(dest ...interface{}) error
}) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(&c.ID, &c.AdvertiserID, &c.MissionID, &c.Status, &c.TotalBudget,
		&c.RemainingBudget, &c.MaxParticipants, &c.Participants, &c.MinReward,
		&c.MaxReward, &c.LedgerCampaignID, &c.StartsAt, &c.EndsAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCampaign inserts a campaign in DRAFT state with its full budget intact.
func (s *Store) CreateCampaign(c models.Campaign) error {
	var startsAt, endsAt interface{}
	if c.StartsAt != "" {
		startsAt = c.StartsAt
	}
	if c.EndsAt != "" {
		endsAt = c.EndsAt
	}

	_, err := s.conn.Exec(
		`INSERT INTO campaigns (id, advertiser_id, mission_id, status, total_budget_cents,
		   remaining_budget_cents, max_participants, participants, min_reward_cents,
		   max_reward_cents, ledger_campaign_id, starts_at, ends_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.AdvertiserID, c.MissionID, string(models.CampaignDraft),
		int64(c.TotalBudget), int64(c.TotalBudget), c.MaxParticipants,
		int64(c.MinReward), int64(c.MaxReward), c.LedgerCampaignID,
		startsAt, endsAt, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("create campaign %s: %w", c.ID, err)
	}

	slog.Info("campaign created",
		"campaignId", c.ID,
		"advertiserId", c.AdvertiserID,
		"missionId", c.MissionID,
		"totalBudget", c.TotalBudget.String(),
	)
	return nil
}

// GetCampaign returns a campaign by id, or config.ErrCampaignNotFound.
func (s *Store) GetCampaign(id string) (*models.Campaign, error) {
	row := s.conn.QueryRow(`SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, config.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign %s: %w", id, err)
	}
	return c, nil
}

// GetCampaignByMission returns the campaign funding a mission, if any.
// A nil campaign with a nil error means the mission is campaign-less.
func (s *Store) GetCampaignByMission(missionID string) (*models.Campaign, error) {
	row := s.conn.QueryRow(
		`SELECT `+campaignColumns+` FROM campaigns WHERE mission_id = ? ORDER BY created_at DESC LIMIT 1`,
		missionID,
	)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign for mission %s: %w", missionID, err)
	}
	return c, nil
}

// ListCampaignsByAdvertiser returns all campaigns owned by an advertiser.
func (s *Store) ListCampaignsByAdvertiser(advertiserID string) ([]models.Campaign, error) {
	rows, err := s.conn.Query(
		`SELECT `+campaignColumns+` FROM campaigns WHERE advertiser_id = ? ORDER BY created_at DESC`,
		advertiserID,
	)
	if err != nil {
		return nil, fmt.Errorf("list campaigns for advertiser %s: %w", advertiserID, err)
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign row: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

// UpdateDraftCampaign edits budget and reward bounds. Only DRAFT campaigns are
// editable; the remaining budget is reset to the new total.
func (s *Store) UpdateDraftCampaign(id string, totalBudget, minReward, maxReward models.Amount, maxParticipants int) error {
	res, err := s.conn.Exec(
		`UPDATE campaigns
		 SET total_budget_cents = ?, remaining_budget_cents = ?,
		     min_reward_cents = ?, max_reward_cents = ?, max_participants = ?
		 WHERE id = ? AND status = ?`,
		int64(totalBudget), int64(totalBudget), int64(minReward), int64(maxReward),
		maxParticipants, id, string(models.CampaignDraft),
	)
	if err != nil {
		return fmt.Errorf("update draft campaign %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return config.ErrCampaignNotDraft
	}

	slog.Info("draft campaign updated", "campaignId", id, "totalBudget", totalBudget.String())
	return nil
}

// ActivateCampaign transitions DRAFT -> ACTIVE. The transition is guarded by
// the funded check in the same statement, so a concurrent edit cannot activate
// an unfunded campaign.
func (s *Store) ActivateCampaign(id string) error {
	res, err := s.conn.Exec(
		`UPDATE campaigns SET status = ?
		 WHERE id = ? AND status = ? AND remaining_budget_cents > 0`,
		string(models.CampaignActive), id, string(models.CampaignDraft),
	)
	if err != nil {
		return fmt.Errorf("activate campaign %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish the rejection reason for the caller.
		c, getErr := s.GetCampaign(id)
		if getErr != nil {
			return getErr
		}
		if c.Status != models.CampaignDraft {
			return config.ErrCampaignNotDraft
		}
		return config.ErrCampaignNotFunded
	}

	slog.Info("campaign activated", "campaignId", id)
	return nil
}

// ConsumeBudget atomically decrements the remaining budget and bumps the
// participant counter. The decrement is conditional on the guards
// remaining_budget_cents >= cost and participants < max_participants, never a
// read-modify-write, so concurrent settlements cannot drive the budget
// negative or overfill the campaign. Zero rows affected means a guard lost
// the race: config.ErrCampaignFull when the participant cap is hit,
// config.ErrBudgetExhausted otherwise.
func (s *Store) ConsumeBudget(campaignID string, cost models.Amount) error {
	res, err := s.conn.Exec(
		`UPDATE campaigns
		 SET remaining_budget_cents = remaining_budget_cents - ?,
		     participants = participants + 1
		 WHERE id = ? AND status = ? AND remaining_budget_cents >= ?
		   AND participants < max_participants`,
		int64(cost), campaignID, string(models.CampaignActive), int64(cost),
	)
	if err != nil {
		return fmt.Errorf("consume budget for campaign %s: %w", campaignID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c, getErr := s.GetCampaign(campaignID)
		if getErr != nil {
			return getErr
		}
		if c.Status == models.CampaignActive && c.Participants >= c.MaxParticipants {
			slog.Warn("campaign participant cap reached", "campaignId", campaignID)
			return config.ErrCampaignFull
		}
		slog.Warn("campaign budget exhausted", "campaignId", campaignID, "cost", cost.String())
		return config.ErrBudgetExhausted
	}

	slog.Debug("campaign budget consumed", "campaignId", campaignID, "cost", cost.String())
	return nil
}
