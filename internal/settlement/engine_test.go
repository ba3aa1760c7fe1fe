package settlement

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/ledger"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/store"
)

// fakeIssuer is a deterministic Issuer for tests. It records every call and
// returns a preconfigured result.
type fakeIssuer struct {
	result ledger.IssuanceResult
	calls  int
	values []models.Amount
}

func (f *fakeIssuer) IssueReward(ctx context.Context, recipient string, ledgerCampaignID int64, value models.Amount) ledger.IssuanceResult {
	f.calls++
	f.values = append(f.values, value)
	return f.result
}

func okResult() ledger.IssuanceResult {
	return ledger.IssuanceResult{Status: ledger.IssuanceOk, TxRef: "0xabc123"}
}

func rejectedResult(kind ledger.RejectionKind) ledger.IssuanceResult {
	return ledger.IssuanceResult{Status: ledger.IssuanceRejected, Kind: kind}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.RunMigrations(); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestEngine(t *testing.T, issuer Issuer) (*Engine, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	return NewEngine(st, issuer), st
}

func seedUser(t *testing.T, st *store.Store, id, wallet string) {
	t.Helper()
	if err := st.EnsureUser(id); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	if wallet != "" {
		if err := st.SetWalletAddress(id, wallet); err != nil {
			t.Fatalf("set wallet for %s: %v", id, err)
		}
	}
}

func seedMission(t *testing.T, st *store.Store, id string, repeatable bool) {
	t.Helper()
	err := st.CreateMission(models.Mission{
		ID:                 id,
		Type:               "SOCIAL_FOLLOW",
		Title:              "Follow the project",
		BoostMultiplier:    1.2,
		BoostDurationHours: 48,
		Repeatable:         repeatable,
	})
	if err != nil {
		t.Fatalf("seed mission %s: %v", id, err)
	}
}

func seedActiveCampaign(t *testing.T, st *store.Store, id, advertiserID, missionID string, budget, min, max models.Amount) {
	t.Helper()
	seedActiveCampaignCap(t, st, id, advertiserID, missionID, budget, min, max, 1000)
}

func seedActiveCampaignCap(t *testing.T, st *store.Store, id, advertiserID, missionID string, budget, min, max models.Amount, cap int) {
	t.Helper()
	if err := st.CreateAdvertiser(models.Advertiser{
		ID:     advertiserID,
		Name:   "Test Advertiser",
		APIKey: "key-" + advertiserID,
	}); err != nil {
		t.Fatalf("seed advertiser %s: %v", advertiserID, err)
	}
	err := st.CreateCampaign(models.Campaign{
		ID:               id,
		AdvertiserID:     advertiserID,
		MissionID:        missionID,
		TotalBudget:      budget,
		MaxParticipants:  cap,
		MinReward:        min,
		MaxReward:        max,
		LedgerCampaignID: 7,
	})
	if err != nil {
		t.Fatalf("seed campaign %s: %v", id, err)
	}
	if err := st.ActivateCampaign(id); err != nil {
		t.Fatalf("activate campaign %s: %v", id, err)
	}
}

func TestCompleteMissionFunded(t *testing.T) {
	issuer := &fakeIssuer{result: okResult()}
	engine, st := newTestEngine(t, issuer)

	seedUser(t, st, "user-1", "0x1111111111111111111111111111111111111111")
	seedMission(t, st, "mission-1", false)
	seedActiveCampaign(t, st, "camp-1", "adv-1", "mission-1", 10_000, 100, 500)

	res, err := engine.CompleteMission(context.Background(), "user-1", "mission-1")
	if err != nil {
		t.Fatalf("CompleteMission: %v", err)
	}
	if res.RewardValue == nil {
		t.Fatal("expected a reward value for a funded mission")
	}
	if *res.RewardValue < 100 || *res.RewardValue > 500 {
		t.Errorf("reward %d outside campaign bounds [100, 500]", *res.RewardValue)
	}
	if res.Issuance == nil || res.Issuance.State != models.IssuanceSucceeded {
		t.Fatalf("expected SUCCEEDED issuance, got %+v", res.Issuance)
	}
	if res.Issuance.TxRef != "0xabc123" {
		t.Errorf("txRef = %q, want 0xabc123", res.Issuance.TxRef)
	}
	if issuer.calls != 1 {
		t.Errorf("issuer calls = %d, want 1", issuer.calls)
	}

	c, err := st.GetCampaign("camp-1")
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if got, want := c.RemainingBudget, models.Amount(10_000)-*res.RewardValue; got != want {
		t.Errorf("remaining budget = %d, want %d", got, want)
	}
	if c.Participants != 1 {
		t.Errorf("participants = %d, want 1", c.Participants)
	}

	boost, err := engine.EffectiveBoost("user-1")
	if err != nil {
		t.Fatalf("effective boost: %v", err)
	}
	if boost.Multiplier != 1.2 {
		t.Errorf("effective boost = %v, want 1.2", boost.Multiplier)
	}
}

func TestCompleteMissionNoDoublePayment(t *testing.T) {
	issuer := &fakeIssuer{result: okResult()}
	engine, st := newTestEngine(t, issuer)

	seedUser(t, st, "user-1", "0x1111111111111111111111111111111111111111")
	seedMission(t, st, "mission-1", false)
	seedActiveCampaign(t, st, "camp-1", "adv-1", "mission-1", 10_000, 200, 200)

	if _, err := engine.CompleteMission(context.Background(), "user-1", "mission-1"); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	_, err := engine.CompleteMission(context.Background(), "user-1", "mission-1")
	if !errors.Is(err, config.ErrAlreadyCompleted) {
		t.Fatalf("second completion err = %v, want ErrAlreadyCompleted", err)
	}

	if issuer.calls != 1 {
		t.Errorf("issuer calls = %d, want exactly 1", issuer.calls)
	}
	c, _ := st.GetCampaign("camp-1")
	if c.RemainingBudget != 9_800 {
		t.Errorf("remaining budget = %d, want 9800 (a single 200-cent charge)", c.RemainingBudget)
	}
}

func TestCompleteMissionRepeatable(t *testing.T) {
	issuer := &fakeIssuer{result: okResult()}
	engine, st := newTestEngine(t, issuer)

	seedUser(t, st, "user-1", "0x1111111111111111111111111111111111111111")
	seedMission(t, st, "daily", true)
	seedActiveCampaign(t, st, "camp-1", "adv-1", "daily", 10_000, 100, 100)

	for i := 0; i < 3; i++ {
		if _, err := engine.CompleteMission(context.Background(), "user-1", "daily"); err != nil {
			t.Fatalf("repeat %d: %v", i, err)
		}
	}
	if issuer.calls != 3 {
		t.Errorf("issuer calls = %d, want 3", issuer.calls)
	}
	c, _ := st.GetCampaign("camp-1")
	if c.RemainingBudget != 9_700 {
		t.Errorf("remaining budget = %d, want 9700", c.RemainingBudget)
	}
}

func TestCompleteMissionWalletRequired(t *testing.T) {
	issuer := &fakeIssuer{result: okResult()}
	engine, st := newTestEngine(t, issuer)

	seedUser(t, st, "user-1", "")
	seedMission(t, st, "mission-1", false)
	seedActiveCampaign(t, st, "camp-1", "adv-1", "mission-1", 10_000, 100, 500)

	_, err := engine.CompleteMission(context.Background(), "user-1", "mission-1")
	if !errors.Is(err, config.ErrWalletRequired) {
		t.Fatalf("err = %v, want ErrWalletRequired", err)
	}
	if issuer.calls != 0 {
		t.Errorf("issuer called %d times for a walletless user", issuer.calls)
	}
}

func TestCompleteMissionCampaignless(t *testing.T) {
	issuer := &fakeIssuer{result: okResult()}
	engine, st := newTestEngine(t, issuer)

	// No wallet and no campaign: the completion and boost still settle.
	seedUser(t, st, "user-1", "")
	seedMission(t, st, "mission-1", false)

	res, err := engine.CompleteMission(context.Background(), "user-1", "mission-1")
	if err != nil {
		t.Fatalf("CompleteMission: %v", err)
	}
	if res.RewardValue != nil {
		t.Errorf("campaign-less mission produced reward value %v", *res.RewardValue)
	}
	if issuer.calls != 0 {
		t.Errorf("issuer calls = %d, want 0", issuer.calls)
	}

	um, err := st.GetCompletion("user-1", "mission-1")
	if err != nil || um == nil {
		t.Fatalf("completion not recorded: %v", err)
	}
	if um.Issuance.State != models.IssuanceNone {
		t.Errorf("issuance state = %s, want NONE", um.Issuance.State)
	}

	boost, _ := engine.EffectiveBoost("user-1")
	if boost.Multiplier != 1.2 {
		t.Errorf("effective boost = %v, want 1.2", boost.Multiplier)
	}
}

func TestCompleteMissionInactiveCampaign(t *testing.T) {
	issuer := &fakeIssuer{result: okResult()}
	engine, st := newTestEngine(t, issuer)

	seedUser(t, st, "user-1", "0x1111111111111111111111111111111111111111")
	seedMission(t, st, "mission-1", false)
	if err := st.CreateAdvertiser(models.Advertiser{ID: "adv-1", Name: "Test Advertiser", APIKey: "key-adv-1"}); err != nil {
		t.Fatalf("seed advertiser: %v", err)
	}
	// DRAFT campaign, never activated.
	if err := st.CreateCampaign(models.Campaign{
		ID: "camp-1", AdvertiserID: "adv-1", MissionID: "mission-1",
		TotalBudget: 10_000, MaxParticipants: 10, MinReward: 100, MaxReward: 100,
	}); err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	_, err := engine.CompleteMission(context.Background(), "user-1", "mission-1")
	if !errors.Is(err, config.ErrCampaignInactive) {
		t.Fatalf("err = %v, want ErrCampaignInactive", err)
	}
}

func TestCompleteMissionIssuanceFailureIsolation(t *testing.T) {
	issuer := &fakeIssuer{result: rejectedResult(ledger.RejectCampaignClosed)}
	engine, st := newTestEngine(t, issuer)

	seedUser(t, st, "user-1", "0x1111111111111111111111111111111111111111")
	seedMission(t, st, "mission-1", false)
	seedActiveCampaign(t, st, "camp-1", "adv-1", "mission-1", 10_000, 300, 300)

	res, err := engine.CompleteMission(context.Background(), "user-1", "mission-1")
	if err != nil {
		t.Fatalf("completion must survive issuance failure, got: %v", err)
	}
	if res.Issuance.State != models.IssuanceFailed {
		t.Fatalf("issuance state = %s, want FAILED", res.Issuance.State)
	}

	// Completion and boost are on the books despite the failed delivery.
	um, _ := st.GetCompletion("user-1", "mission-1")
	if um == nil || um.Status != models.CompletionCompleted {
		t.Fatalf("completion not recorded: %+v", um)
	}
	if !um.Issuance.BudgetCharged {
		t.Error("budget should be marked charged for a post-decrement failure")
	}
	boost, _ := engine.EffectiveBoost("user-1")
	if boost.Multiplier != 1.2 {
		t.Errorf("effective boost = %v, want 1.2", boost.Multiplier)
	}
}

func TestBudgetMonotonicityAndExhaustion(t *testing.T) {
	issuer := &fakeIssuer{result: okResult()}
	engine, st := newTestEngine(t, issuer)

	seedMission(t, st, "mission-1", false)
	// Budget funds exactly 3 completions at the fixed 100-cent reward.
	seedActiveCampaign(t, st, "camp-1", "adv-1", "mission-1", 300, 100, 100)

	prev := models.Amount(300)
	settled := 0
	for i := 0; i < 6; i++ {
		userID := string(rune('a'+i)) + "-user"
		seedUser(t, st, userID, "0x1111111111111111111111111111111111111111")
		_, err := engine.CompleteMission(context.Background(), userID, "mission-1")
		if err != nil {
			if !errors.Is(err, config.ErrBudgetExhausted) {
				t.Fatalf("unexpected err: %v", err)
			}
		} else {
			settled++
		}

		c, getErr := st.GetCampaign("camp-1")
		if getErr != nil {
			t.Fatalf("get campaign: %v", getErr)
		}
		if c.RemainingBudget > prev {
			t.Fatalf("budget increased: %d -> %d", prev, c.RemainingBudget)
		}
		if c.RemainingBudget < 0 {
			t.Fatalf("budget went negative: %d", c.RemainingBudget)
		}
		prev = c.RemainingBudget
	}

	if settled != 3 {
		t.Errorf("settled %d completions, want 3", settled)
	}
	if issuer.calls != 3 {
		t.Errorf("issuer calls = %d, want 3", issuer.calls)
	}
}

func TestCompleteMissionParticipantCap(t *testing.T) {
	issuer := &fakeIssuer{result: okResult()}
	engine, st := newTestEngine(t, issuer)

	seedMission(t, st, "mission-1", false)
	// One participant slot, budget for many more.
	seedActiveCampaignCap(t, st, "camp-1", "adv-1", "mission-1", 10_000, 100, 100, 1)

	seedUser(t, st, "user-1", "0x1111111111111111111111111111111111111111")
	if _, err := engine.CompleteMission(context.Background(), "user-1", "mission-1"); err != nil {
		t.Fatalf("first completion: %v", err)
	}

	// The cap refuses the charge; the completion still stands with the
	// refusal on record and no issuance spent.
	seedUser(t, st, "user-2", "0x1111111111111111111111111111111111111111")
	res, err := engine.CompleteMission(context.Background(), "user-2", "mission-1")
	if err != nil {
		t.Fatalf("capped completion: %v", err)
	}
	if res.Issuance == nil || res.Issuance.State != models.IssuanceFailed {
		t.Fatalf("issuance = %+v, want FAILED", res.Issuance)
	}
	if res.Issuance.Reason != "campaign participant cap reached" {
		t.Errorf("reason = %q", res.Issuance.Reason)
	}
	if issuer.calls != 1 {
		t.Errorf("issuer calls = %d, want 1", issuer.calls)
	}

	c, _ := st.GetCampaign("camp-1")
	if c.RemainingBudget != 9_900 || c.Participants != 1 {
		t.Errorf("campaign after cap: remaining=%d participants=%d", c.RemainingBudget, c.Participants)
	}
}

func TestCompleteMissionRepeatableBlockedWhilePending(t *testing.T) {
	issuer := &fakeIssuer{result: rejectedResult(ledger.RejectUnknown)}
	engine, st := newTestEngine(t, issuer)

	seedUser(t, st, "user-1", "0x1111111111111111111111111111111111111111")
	seedMission(t, st, "daily", true)
	seedActiveCampaign(t, st, "camp-1", "adv-1", "daily", 10_000, 100, 100)

	first, err := engine.CompleteMission(context.Background(), "user-1", "daily")
	if err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if first.Issuance.State != models.IssuanceFailed || !first.Issuance.BudgetCharged {
		t.Fatalf("setup: issuance = %+v, want charged FAILED", first.Issuance)
	}

	// A charged but undelivered reward blocks re-settlement: resetting the
	// row would strand the earlier budget charge.
	if _, err := engine.CompleteMission(context.Background(), "user-1", "daily"); !errors.Is(err, config.ErrRewardPending) {
		t.Fatalf("repeat while pending err = %v, want ErrRewardPending", err)
	}
	c, _ := st.GetCampaign("camp-1")
	if c.RemainingBudget != 9_900 {
		t.Fatalf("remaining budget = %d, want 9900 (single charge)", c.RemainingBudget)
	}

	// Retry delivers the owed reward, then the mission is repeatable again.
	issuer.result = okResult()
	if _, err := engine.RetryIssuance(context.Background(), "user-1", "daily"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if _, err := engine.CompleteMission(context.Background(), "user-1", "daily"); err != nil {
		t.Fatalf("repeat after delivery: %v", err)
	}

	c, _ = st.GetCampaign("camp-1")
	if c.RemainingBudget != 9_800 {
		t.Errorf("remaining budget = %d, want 9800 (two charges)", c.RemainingBudget)
	}
	if issuer.calls != 3 {
		t.Errorf("issuer calls = %d, want 3", issuer.calls)
	}
}

func TestDrawRewardBounds(t *testing.T) {
	tests := []struct {
		name     string
		min, max models.Amount
	}{
		{"wide range", 100, 500},
		{"degenerate range", 250, 250},
		{"unit range", 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 10_000; i++ {
				v := DrawReward(tt.min, tt.max)
				if v < tt.min || v > tt.max {
					t.Fatalf("draw %d outside [%d, %d]", v, tt.min, tt.max)
				}
			}
		})
	}
}

func TestBoostChaining(t *testing.T) {
	engine, st := newTestEngine(t, &fakeIssuer{result: okResult()})
	seedUser(t, st, "user-1", "")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return base }

	first, err := engine.ExtendBoost("user-1", 1.5, 24, "", false)
	if err != nil {
		t.Fatalf("first boost: %v", err)
	}
	if got, want := first.ExpiresAt, base.Add(24*time.Hour); !got.Equal(want) {
		t.Fatalf("first expiry = %v, want %v", got, want)
	}

	// Second grant chains from the first expiry, not from now.
	second, err := engine.ExtendBoost("user-1", 1.2, 48, "", false)
	if err != nil {
		t.Fatalf("second boost: %v", err)
	}
	if got, want := second.ExpiresAt, first.ExpiresAt.Add(48*time.Hour); !got.Equal(want) {
		t.Fatalf("second expiry = %v, want %v", got, want)
	}

	// With every boost expired, the chain restarts from now.
	engine.now = func() time.Time { return base.Add(100 * 24 * time.Hour) }
	third, err := engine.ExtendBoost("user-1", 1.1, 24, "", false)
	if err != nil {
		t.Fatalf("third boost: %v", err)
	}
	if got, want := third.ExpiresAt, base.Add(100*24*time.Hour).Add(24*time.Hour); !got.Equal(want) {
		t.Fatalf("third expiry = %v, want %v", got, want)
	}
}

func TestEffectiveBoostTakesMax(t *testing.T) {
	engine, st := newTestEngine(t, &fakeIssuer{result: okResult()})
	seedUser(t, st, "user-1", "")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return base }

	for _, m := range []float64{1.2, 3.0, 1.5} {
		if _, err := engine.ExtendBoost("user-1", m, 24, "", false); err != nil {
			t.Fatalf("grant %v: %v", m, err)
		}
	}

	boost, err := engine.EffectiveBoost("user-1")
	if err != nil {
		t.Fatalf("effective boost: %v", err)
	}
	if boost.Multiplier != 3.0 {
		t.Errorf("effective = %v, want 3.0 (max, not sum)", boost.Multiplier)
	}
}

func TestEffectiveBoostBaseline(t *testing.T) {
	engine, st := newTestEngine(t, &fakeIssuer{result: okResult()})
	seedUser(t, st, "user-1", "")

	boost, err := engine.EffectiveBoost("user-1")
	if err != nil {
		t.Fatalf("effective boost: %v", err)
	}
	if boost.Multiplier != 1.0 {
		t.Errorf("baseline multiplier = %v, want 1.0", boost.Multiplier)
	}
	if boost.ExpiresAt != nil {
		t.Errorf("baseline expiry = %v, want nil", boost.ExpiresAt)
	}
}

func TestClaimReferral(t *testing.T) {
	engine, st := newTestEngine(t, &fakeIssuer{result: okResult()})
	seedUser(t, st, "referrer", "0x2222222222222222222222222222222222222222")
	seedUser(t, st, "referee", "")

	ref, err := engine.ClaimReferral("referee", "referrer")
	if err != nil {
		t.Fatalf("ClaimReferral: %v", err)
	}
	if ref.ReferrerID != "referrer" || ref.RefereeID != "referee" {
		t.Errorf("referral = %+v", ref)
	}

	// Both sides got the boost.
	for _, userID := range []string{"referrer", "referee"} {
		boost, _ := engine.EffectiveBoost(userID)
		if boost.Multiplier != config.ReferralBoostMultiplier {
			t.Errorf("%s boost = %v, want %v", userID, boost.Multiplier, config.ReferralBoostMultiplier)
		}
	}
}

func TestClaimReferralByWalletCode(t *testing.T) {
	engine, st := newTestEngine(t, &fakeIssuer{result: okResult()})
	seedUser(t, st, "referrer", "0x2222222222222222222222222222222222222222")
	seedUser(t, st, "referee", "")

	ref, err := engine.ClaimReferral("referee", "0x2222222222222222222222222222222222222222")
	if err != nil {
		t.Fatalf("ClaimReferral by wallet: %v", err)
	}
	if ref.ReferrerID != "referrer" {
		t.Errorf("referrerId = %s, want referrer", ref.ReferrerID)
	}
}

func TestClaimReferralRejections(t *testing.T) {
	engine, st := newTestEngine(t, &fakeIssuer{result: okResult()})
	seedUser(t, st, "referrer", "")
	seedUser(t, st, "referee", "")
	seedUser(t, st, "other", "")

	if _, err := engine.ClaimReferral("referee", "referrer"); err != nil {
		t.Fatalf("initial claim: %v", err)
	}

	tests := []struct {
		name      string
		refereeID string
		code      string
		want      error
	}{
		{"self referral", "other", "other", config.ErrSelfReferral},
		{"second claim", "referee", "other", config.ErrAlreadyClaimed},
		{"unknown code", "other", "nobody", config.ErrReferrerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.ClaimReferral(tt.refereeID, tt.code)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRetryIssuance(t *testing.T) {
	issuer := &fakeIssuer{result: rejectedResult(ledger.RejectUnknown)}
	engine, st := newTestEngine(t, issuer)

	seedUser(t, st, "user-1", "0x1111111111111111111111111111111111111111")
	seedMission(t, st, "mission-1", false)
	seedActiveCampaign(t, st, "camp-1", "adv-1", "mission-1", 10_000, 100, 500)

	first, err := engine.CompleteMission(context.Background(), "user-1", "mission-1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if first.Issuance.State != models.IssuanceFailed {
		t.Fatalf("setup: issuance state = %s, want FAILED", first.Issuance.State)
	}

	issuer.result = okResult()
	retried, err := engine.RetryIssuance(context.Background(), "user-1", "mission-1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if retried.Issuance.State != models.IssuanceSucceeded {
		t.Fatalf("retry state = %s, want SUCCEEDED", retried.Issuance.State)
	}
	if *retried.RewardValue != *first.RewardValue {
		t.Errorf("retry redrew the reward: %d != %d", *retried.RewardValue, *first.RewardValue)
	}

	// The budget was charged once, by the original attempt.
	c, _ := st.GetCampaign("camp-1")
	if got, want := c.RemainingBudget, models.Amount(10_000)-*first.RewardValue; got != want {
		t.Errorf("remaining budget = %d, want %d", got, want)
	}

	// A successful issuance cannot be retried.
	if _, err := engine.RetryIssuance(context.Background(), "user-1", "mission-1"); !errors.Is(err, config.ErrIssuanceSucceeded) {
		t.Errorf("retry after success err = %v, want ErrIssuanceSucceeded", err)
	}
}

func TestRetryIssuanceRequiresCompletion(t *testing.T) {
	engine, st := newTestEngine(t, &fakeIssuer{result: okResult()})
	seedUser(t, st, "user-1", "0x1111111111111111111111111111111111111111")
	seedMission(t, st, "mission-1", false)

	_, err := engine.RetryIssuance(context.Background(), "user-1", "mission-1")
	if !errors.Is(err, config.ErrCompletionRequired) {
		t.Fatalf("err = %v, want ErrCompletionRequired", err)
	}
}

func TestVerifyExternalCompletion(t *testing.T) {
	issuer := &fakeIssuer{result: okResult()}
	engine, st := newTestEngine(t, issuer)

	seedUser(t, st, "user-1", "")
	seedMission(t, st, "mission-1", false)
	seedActiveCampaign(t, st, "camp-1", "adv-1", "mission-1", 10_000, 100, 500)

	res, err := engine.VerifyExternalCompletion("adv-1", "user-1", "mission-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.CompletionID == "" {
		t.Error("missing completion id")
	}
	if issuer.calls != 0 {
		t.Errorf("verification must not issue coupons, issuer calls = %d", issuer.calls)
	}

	// Flat per-verification unit cost, not a reward draw.
	c, _ := st.GetCampaign("camp-1")
	if got, want := c.RemainingBudget, models.Amount(10_000)-config.ExternalVerifyUnitCostCents; got != want {
		t.Errorf("remaining budget = %d, want %d", got, want)
	}

	boost, _ := engine.EffectiveBoost("user-1")
	if boost.Multiplier != 1.2 {
		t.Errorf("effective boost = %v, want 1.2", boost.Multiplier)
	}
}

func TestVerifyExternalCompletionChargeRace(t *testing.T) {
	engine, st := newTestEngine(t, &fakeIssuer{result: okResult()})
	seedUser(t, st, "user-1", "")
	seedUser(t, st, "user-2", "")
	seedMission(t, st, "mission-1", false)
	seedActiveCampaignCap(t, st, "camp-1", "adv-1", "mission-1", 10_000, 100, 500, 1)

	if _, err := engine.VerifyExternalCompletion("adv-1", "user-1", "mission-1"); err != nil {
		t.Fatalf("first verify: %v", err)
	}

	// The second verification passes the budget pre-check but loses the
	// conditional charge. Completion and boost stand with the failure on
	// record, matching the funded settlement posture.
	res, err := engine.VerifyExternalCompletion("adv-1", "user-2", "mission-1")
	if err != nil {
		t.Fatalf("raced verify: %v", err)
	}
	if res.Issuance == nil || res.Issuance.State != models.IssuanceFailed {
		t.Fatalf("issuance = %+v, want FAILED", res.Issuance)
	}
	if res.Issuance.BudgetCharged {
		t.Error("raced verification must not mark the budget charged")
	}

	um, err := st.GetCompletion("user-2", "mission-1")
	if err != nil || um == nil {
		t.Fatalf("completion not recorded: %v", err)
	}
	boost, _ := engine.EffectiveBoost("user-2")
	if boost.Multiplier != 1.2 {
		t.Errorf("effective boost = %v, want 1.2", boost.Multiplier)
	}

	c, _ := st.GetCampaign("camp-1")
	if got, want := c.RemainingBudget, models.Amount(10_000)-config.ExternalVerifyUnitCostCents; got != want {
		t.Errorf("remaining budget = %d, want %d (single charge)", got, want)
	}
}

func TestVerifyExternalCompletionOwnership(t *testing.T) {
	engine, st := newTestEngine(t, &fakeIssuer{result: okResult()})
	seedUser(t, st, "user-1", "")
	seedMission(t, st, "mission-1", false)
	seedActiveCampaign(t, st, "camp-1", "adv-1", "mission-1", 10_000, 100, 500)

	_, err := engine.VerifyExternalCompletion("adv-2", "user-1", "mission-1")
	if !errors.Is(err, config.ErrNotCampaignOwner) {
		t.Fatalf("err = %v, want ErrNotCampaignOwner", err)
	}
}
