package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NetworkMode represents mainnet or testnet operation.
type NetworkMode string

const (
	NetworkMainnet NetworkMode = "mainnet"
	NetworkTestnet NetworkMode = "testnet"
)

// Amount is a monetary value in cents (two decimal places of the
// USDT-equivalent unit). Stored as an integer so budget arithmetic is exact.
type Amount int64

// String formats the amount with exactly two decimals, e.g. "12.34".
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON emits the amount as a quoted decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a quoted decimal string like "12.34".
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAmount parses a decimal string with at most two fraction digits into cents.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if s == "" || s == "." {
		return 0, fmt.Errorf("amount %q is empty", s)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than 2 decimal places", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}

	cents := w*100 + f
	if neg {
		cents = -cents
	}
	return Amount(cents), nil
}

// PrincipalKind distinguishes the two authenticated principal types.
type PrincipalKind string

const (
	PrincipalUser       PrincipalKind = "USER"
	PrincipalAdvertiser PrincipalKind = "ADVERTISER"
)

// User is an end-user principal. WalletAddress is empty until the user
// connects a wallet; reward issuance requires it.
type User struct {
	ID            string `json:"id"`
	WalletAddress string `json:"walletAddress,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

// Advertiser is an advertiser principal. The API key authenticates the
// external verification endpoint.
type Advertiser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	APIKey    string `json:"-"`
	CreatedAt string `json:"createdAt"`
}

// Mission is a reward template: completing it grants a boost and, when a
// campaign funds it, a coupon issued on the ledger.
type Mission struct {
	ID                 string  `json:"id"`
	Type               string  `json:"type"`
	Title              string  `json:"title"`
	BoostMultiplier    float64 `json:"boostMultiplier"`
	BoostDurationHours int     `json:"boostDurationHours"`
	Repeatable         bool    `json:"repeatable"`
	CreatedAt          string  `json:"createdAt"`
}

// CampaignStatus is the campaign lifecycle state.
type CampaignStatus string

const (
	CampaignDraft  CampaignStatus = "DRAFT"
	CampaignActive CampaignStatus = "ACTIVE"
	CampaignEnded  CampaignStatus = "ENDED"
)

// Campaign funds one Mission with a bounded budget. RemainingBudget is a
// local mirror of the ledger's spend counter and only ever decreases.
type Campaign struct {
	ID               string         `json:"id"`
	AdvertiserID     string         `json:"advertiserId"`
	MissionID        string         `json:"missionId"`
	Status           CampaignStatus `json:"status"`
	TotalBudget      Amount         `json:"totalBudget"`
	RemainingBudget  Amount         `json:"remainingBudget"`
	MaxParticipants  int            `json:"maxParticipants"`
	Participants     int            `json:"participants"`
	MinReward        Amount         `json:"minReward"`
	MaxReward        Amount         `json:"maxReward"`
	LedgerCampaignID int64          `json:"ledgerCampaignId"`
	StartsAt         string         `json:"startsAt,omitempty"`
	EndsAt           string         `json:"endsAt,omitempty"`
	CreatedAt        string         `json:"createdAt"`
}

// CompletionStatus is the state of a UserMission record.
type CompletionStatus string

const (
	CompletionPending   CompletionStatus = "PENDING"
	CompletionCompleted CompletionStatus = "COMPLETED"
)

// IssuanceState is the ledger-delivery state of a completion's reward.
type IssuanceState string

const (
	IssuanceNone      IssuanceState = "NONE"    // mission has no campaign funding
	IssuancePending   IssuanceState = "PENDING" // recorded, ledger call not yet resolved
	IssuanceSucceeded IssuanceState = "SUCCEEDED"
	IssuanceFailed    IssuanceState = "FAILED"
)

// IssuanceOutcome records what happened to the reward delivery for a
// completion, separated from the completion itself: a mission can be
// COMPLETED while its reward is still pending or failed.
type IssuanceOutcome struct {
	State  IssuanceState `json:"state"`
	TxRef  string        `json:"txRef,omitempty"`
	Reason string        `json:"reason,omitempty"`
	Value  Amount        `json:"value,omitempty"`

	// BudgetCharged reports whether the campaign budget decrement for this
	// completion has been applied. A failed issuance with a charged budget
	// retries the ledger call only; an uncharged one retries the decrement too.
	BudgetCharged bool `json:"-"`
}

// UserMission is the per-user completion record, unique per (user, mission).
type UserMission struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	MissionID   string           `json:"missionId"`
	Status      CompletionStatus `json:"status"`
	CompletedAt string           `json:"completedAt,omitempty"`
	Issuance    IssuanceOutcome  `json:"issuance"`
}

// ActiveBoost is an immutable time-windowed yield multiplier grant.
type ActiveBoost struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Multiplier float64   `json:"multiplier"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CampaignID string    `json:"campaignId,omitempty"`
	CreatedAt  string    `json:"createdAt"`
}

// ReferralStatus is the state of a referral claim.
type ReferralStatus string

const ReferralCompleted ReferralStatus = "COMPLETED"

// Referral records a one-time claim, unique per referee.
type Referral struct {
	ID         string         `json:"id"`
	ReferrerID string         `json:"referrerId"`
	RefereeID  string         `json:"refereeId"`
	Status     ReferralStatus `json:"status"`
	CreatedAt  string         `json:"createdAt"`
}

// CompletionResult is what CompleteMission returns to the caller. RewardValue
// is present even when issuance failed, so the client can display the amount
// that is pending retry.
type CompletionResult struct {
	CompletionID string           `json:"completionId"`
	RewardValue  *Amount          `json:"rewardValue,omitempty"`
	Issuance     *IssuanceOutcome `json:"issuance,omitempty"`
}

// EffectiveBoost is the read-time boost view for yield display.
type EffectiveBoost struct {
	Multiplier float64    `json:"multiplier"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Data interface{} `json:"data,omitempty"`
	Meta *APIMeta    `json:"meta,omitempty"`
}

// APIMeta contains pagination and execution metadata.
type APIMeta struct {
	Page          int   `json:"page,omitempty"`
	PageSize      int   `json:"pageSize,omitempty"`
	Total         int64 `json:"total,omitempty"`
	ExecutionTime int64 `json:"executionTime,omitempty"`
}

// APIError is the standard error response.
type APIError struct {
	Error APIErrorDetail `json:"error"`
}

// APIErrorDetail contains error code and message.
type APIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
