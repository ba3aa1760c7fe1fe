package config

import "errors"

// Sentinel errors for internal use.
var (
	ErrInvalidConfig = errors.New("invalid configuration")

	// Settlement validation
	ErrUserNotFound    = errors.New("user not found")
	ErrMissionNotFound = errors.New("mission not found")
	ErrWalletRequired  = errors.New("wallet address required for reward issuance")

	// Settlement state conflicts
	ErrAlreadyCompleted = errors.New("mission already completed")
	ErrAlreadyClaimed   = errors.New("referral already claimed")
	ErrSelfReferral     = errors.New("cannot refer yourself")
	ErrReferrerNotFound = errors.New("referrer not found")

	// Campaign budget
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrCampaignInactive  = errors.New("campaign is not active")
	ErrBudgetExhausted   = errors.New("campaign budget exhausted")
	ErrCampaignFull      = errors.New("campaign participant cap reached")
	ErrCampaignNotDraft  = errors.New("campaign is not editable")
	ErrCampaignNotFunded = errors.New("campaign has no remaining budget")
	ErrNotCampaignOwner  = errors.New("campaign belongs to another advertiser")

	// Issuance retry
	ErrIssuanceSucceeded  = errors.New("reward already issued")
	ErrCompletionRequired = errors.New("mission completion required before reward retry")
	ErrRewardPending      = errors.New("earlier reward delivery still pending retry")

	// Operator key
	ErrMnemonicFileNotSet = errors.New("mnemonic file path not configured")
	ErrInvalidMnemonic    = errors.New("invalid mnemonic")
	ErrKeyDerivation      = errors.New("key derivation failed")

	// Ledger
	ErrLedgerUnreachable = errors.New("ledger service unreachable")
	ErrTxReverted        = errors.New("ledger transaction reverted")
	ErrReceiptTimeout    = errors.New("receipt polling timeout")

	// Auth
	ErrInvalidAssertion = errors.New("invalid identity assertion")
	ErrSessionExpired   = errors.New("session expired or unknown")
	ErrInvalidAPIKey    = errors.New("invalid advertiser API key")
)

// Error codes — shared with frontend via API responses.
const (
	ErrorInvalidConfig = "ERROR_INVALID_CONFIG"
	ErrorDatabase      = "ERROR_DATABASE"
	ErrorInvalidBody   = "ERROR_INVALID_BODY"

	ErrorUserNotFound    = "ERROR_USER_NOT_FOUND"
	ErrorMissionNotFound = "ERROR_MISSION_NOT_FOUND"
	ErrorWalletRequired  = "ERROR_WALLET_REQUIRED"

	ErrorAlreadyCompleted = "ERROR_ALREADY_COMPLETED"
	ErrorAlreadyClaimed   = "ERROR_ALREADY_CLAIMED"
	ErrorSelfReferral     = "ERROR_SELF_REFERRAL"
	ErrorReferrerNotFound = "ERROR_REFERRER_NOT_FOUND"

	ErrorCampaignNotFound  = "ERROR_CAMPAIGN_NOT_FOUND"
	ErrorCampaignInactive  = "ERROR_CAMPAIGN_INACTIVE"
	ErrorBudgetExhausted   = "ERROR_BUDGET_EXHAUSTED"
	ErrorCampaignFull      = "ERROR_CAMPAIGN_FULL"
	ErrorCampaignNotDraft  = "ERROR_CAMPAIGN_NOT_DRAFT"
	ErrorCampaignNotFunded = "ERROR_CAMPAIGN_NOT_FUNDED"
	ErrorNotCampaignOwner  = "ERROR_NOT_CAMPAIGN_OWNER"

	ErrorIssuanceSucceeded  = "ERROR_ISSUANCE_SUCCEEDED"
	ErrorCompletionRequired = "ERROR_COMPLETION_REQUIRED"
	ErrorRewardPending      = "ERROR_REWARD_PENDING"

	ErrorUnauthorized  = "ERROR_UNAUTHORIZED"
	ErrorInvalidAPIKey = "ERROR_INVALID_API_KEY"

	ErrorIssuanceFailed = "ERROR_ISSUANCE_FAILED"
	ErrorInvalidAmount  = "ERROR_INVALID_AMOUNT"
)
