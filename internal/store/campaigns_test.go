package store

import (
	"errors"
	"testing"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

func TestCampaignLifecycle(t *testing.T) {
	st := newTestStore(t)
	mustCreateMission(t, st, "mission-1")
	mustCreateAdvertiser(t, st, "adv-1")

	err := st.CreateCampaign(models.Campaign{
		ID:              "camp-1",
		AdvertiserID:    "adv-1",
		MissionID:       "mission-1",
		TotalBudget:     10_000,
		MaxParticipants: 100,
		MinReward:       100,
		MaxReward:       500,
	})
	if err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}

	c, err := st.GetCampaign("camp-1")
	if err != nil {
		t.Fatalf("GetCampaign: %v", err)
	}
	if c.Status != models.CampaignDraft {
		t.Errorf("new campaign status = %s, want DRAFT", c.Status)
	}
	if c.RemainingBudget != c.TotalBudget {
		t.Errorf("remaining = %d, want full budget %d", c.RemainingBudget, c.TotalBudget)
	}

	// Drafts are editable; the remaining budget follows the new total.
	if err := st.UpdateDraftCampaign("camp-1", 20_000, 200, 600, 50); err != nil {
		t.Fatalf("UpdateDraftCampaign: %v", err)
	}
	c, _ = st.GetCampaign("camp-1")
	if c.TotalBudget != 20_000 || c.RemainingBudget != 20_000 {
		t.Errorf("after update: total=%d remaining=%d, want 20000/20000", c.TotalBudget, c.RemainingBudget)
	}

	if err := st.ActivateCampaign("camp-1"); err != nil {
		t.Fatalf("ActivateCampaign: %v", err)
	}
	c, _ = st.GetCampaign("camp-1")
	if c.Status != models.CampaignActive {
		t.Errorf("status = %s, want ACTIVE", c.Status)
	}

	// Active campaigns are frozen.
	if err := st.UpdateDraftCampaign("camp-1", 30_000, 200, 600, 50); !errors.Is(err, config.ErrCampaignNotDraft) {
		t.Errorf("update active campaign err = %v, want ErrCampaignNotDraft", err)
	}
	if err := st.ActivateCampaign("camp-1"); !errors.Is(err, config.ErrCampaignNotDraft) {
		t.Errorf("re-activate err = %v, want ErrCampaignNotDraft", err)
	}
}

func TestActivateUnknownCampaign(t *testing.T) {
	st := newTestStore(t)
	if err := st.ActivateCampaign("nope"); !errors.Is(err, config.ErrCampaignNotFound) {
		t.Errorf("err = %v, want ErrCampaignNotFound", err)
	}
}

func TestConsumeBudget(t *testing.T) {
	st := newTestStore(t)
	mustCreateMission(t, st, "mission-1")
	mustCreateActiveCampaign(t, st, "camp-1", "mission-1", 1_000)

	if err := st.ConsumeBudget("camp-1", 400); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if err := st.ConsumeBudget("camp-1", 600); err != nil {
		t.Fatalf("second consume: %v", err)
	}

	c, _ := st.GetCampaign("camp-1")
	if c.RemainingBudget != 0 {
		t.Errorf("remaining = %d, want 0", c.RemainingBudget)
	}
	if c.Participants != 2 {
		t.Errorf("participants = %d, want 2", c.Participants)
	}

	// The conditional guard refuses the decrement rather than going negative.
	if err := st.ConsumeBudget("camp-1", 1); !errors.Is(err, config.ErrBudgetExhausted) {
		t.Errorf("overdraw err = %v, want ErrBudgetExhausted", err)
	}
	c, _ = st.GetCampaign("camp-1")
	if c.RemainingBudget != 0 || c.Participants != 2 {
		t.Errorf("failed consume mutated campaign: remaining=%d participants=%d", c.RemainingBudget, c.Participants)
	}
}

func TestConsumeBudgetParticipantCap(t *testing.T) {
	st := newTestStore(t)
	mustCreateMission(t, st, "mission-1")
	mustCreateAdvertiser(t, st, "adv-1")
	if err := st.CreateCampaign(models.Campaign{
		ID: "camp-1", AdvertiserID: "adv-1", MissionID: "mission-1",
		TotalBudget: 10_000, MaxParticipants: 2, MinReward: 100, MaxReward: 100,
	}); err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}
	if err := st.ActivateCampaign("camp-1"); err != nil {
		t.Fatalf("ActivateCampaign: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := st.ConsumeBudget("camp-1", 100); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}

	// Budget remains but the participant cap refuses further settlements.
	if err := st.ConsumeBudget("camp-1", 100); !errors.Is(err, config.ErrCampaignFull) {
		t.Errorf("consume past cap err = %v, want ErrCampaignFull", err)
	}
	c, _ := st.GetCampaign("camp-1")
	if c.RemainingBudget != 9_800 || c.Participants != 2 {
		t.Errorf("refused consume mutated campaign: remaining=%d participants=%d", c.RemainingBudget, c.Participants)
	}
}

func TestConsumeBudgetRequiresActive(t *testing.T) {
	st := newTestStore(t)
	mustCreateMission(t, st, "mission-1")
	mustCreateAdvertiser(t, st, "adv-1")
	if err := st.CreateCampaign(models.Campaign{
		ID: "camp-1", AdvertiserID: "adv-1", MissionID: "mission-1",
		TotalBudget: 1_000, MaxParticipants: 10, MinReward: 100, MaxReward: 100,
	}); err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}

	if err := st.ConsumeBudget("camp-1", 100); !errors.Is(err, config.ErrBudgetExhausted) {
		t.Errorf("consume on DRAFT err = %v, want ErrBudgetExhausted", err)
	}
}

func TestGetCampaignByMission(t *testing.T) {
	st := newTestStore(t)
	mustCreateMission(t, st, "funded")
	mustCreateMission(t, st, "unfunded")
	mustCreateActiveCampaign(t, st, "camp-1", "funded", 1_000)

	c, err := st.GetCampaignByMission("funded")
	if err != nil {
		t.Fatalf("GetCampaignByMission: %v", err)
	}
	if c == nil || c.ID != "camp-1" {
		t.Errorf("campaign = %+v, want camp-1", c)
	}

	c, err = st.GetCampaignByMission("unfunded")
	if err != nil {
		t.Fatalf("GetCampaignByMission(unfunded): %v", err)
	}
	if c != nil {
		t.Errorf("unfunded mission returned campaign %+v, want nil", c)
	}
}
