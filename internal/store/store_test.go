package store

import (
	"path/filepath"
	"testing"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := st.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func mustCreateMission(t *testing.T, st *Store, id string) {
	t.Helper()
	err := st.CreateMission(models.Mission{
		ID:                 id,
		Type:               "SOCIAL_FOLLOW",
		Title:              "Follow us",
		BoostMultiplier:    1.2,
		BoostDurationHours: 24,
	})
	if err != nil {
		t.Fatalf("CreateMission(%s) error = %v", id, err)
	}
}

func mustCreateAdvertiser(t *testing.T, st *Store, id string) {
	t.Helper()
	err := st.CreateAdvertiser(models.Advertiser{
		ID:     id,
		Name:   "Test Advertiser",
		APIKey: "key-" + id,
	})
	if err != nil {
		t.Fatalf("CreateAdvertiser(%s) error = %v", id, err)
	}
}

func mustCreateActiveCampaign(t *testing.T, st *Store, id, missionID string, budget models.Amount) {
	t.Helper()
	mustCreateAdvertiser(t, st, "adv-1")
	err := st.CreateCampaign(models.Campaign{
		ID:              id,
		AdvertiserID:    "adv-1",
		MissionID:       missionID,
		TotalBudget:     budget,
		MaxParticipants: 100,
		MinReward:       100,
		MaxReward:       500,
	})
	if err != nil {
		t.Fatalf("CreateCampaign(%s) error = %v", id, err)
	}
	if err := st.ActivateCampaign(id); err != nil {
		t.Fatalf("ActivateCampaign(%s) error = %v", id, err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	st := newTestStore(t)
	if err := st.RunMigrations(); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}
}
