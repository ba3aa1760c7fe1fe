package config

import "time"

// Kaia Networks
const (
	KaiaMainnetChainID = 8217
	KaiaTestnetChainID = 1001 // Kairos

	KaiaRPCMainnetURL = "https://public-en.node.kaia.io"
	KaiaRPCTestnetURL = "https://public-en-kairos.node.kaia.io"
)

// Coupon Contract Addresses
const (
	KaiaMainnetCouponContract = "" // Set at deployment
	KaiaTestnetCouponContract = "0x1b8E0c9a6b30C9E0D2a4C3f55f1b0Dd6a8E4C901"
)

// BIP-44 Derivation Path — operator signing key
const (
	BIP44Purpose     = 44
	KaiaCoinType     = 60 // m/44'/60'/0'/0/0 (EVM-compatible)
	OperatorKeyIndex = 0
)

// Ledger Transaction
const (
	LedgerGasLimitAward = 150_000 // awardCoupon: mint + counter updates
	CouponTokenDecimals = 6       // USDT-equivalent face value

	GasPriceBufferNumerator   = 120 // 20% buffer over suggested gas price
	GasPriceBufferDenominator = 100

	ReceiptPollInterval = 3 * time.Second
	ReceiptPollTimeout  = 2 * time.Minute
	LedgerCallTimeout   = 30 * time.Second
)

// Settlement Policy
const (
	// ExternalVerifyUnitCostCents is the flat budget charge per completion
	// reported through the advertiser verification API.
	ExternalVerifyUnitCostCents = 100 // 1.00 per completion

	ReferralBoostMultiplier    = 1.5
	ReferralBoostDurationHours = 24
)

// Sessions
const (
	SessionTimeout     = 24 * time.Hour
	SessionTokenLength = 32 // bytes, hex-encoded = 64 chars
	AdvertiserKeyBytes = 24 // random bytes, base58-encoded

	// AssertionMaxSkew bounds how old a login assertion timestamp may be.
	AssertionMaxSkew = 5 * time.Minute
)

// Server
const (
	ServerReadTimeout    = 30 * time.Second
	ServerWriteTimeout   = 60 * time.Second
	ServerIdleTimeout    = 120 * time.Second
	ServerMaxHeaderBytes = 1 << 20
	ShutdownTimeout      = 10 * time.Second
)

// Logging
const (
	LogFilePattern = "socialyield-%s.log" // %s = YYYY-MM-DD
	LogMaxAgeDays  = 30
)
