package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	MnemonicFile string `envconfig:"SOCIALYIELD_MNEMONIC_FILE"`
	DBPath       string `envconfig:"SOCIALYIELD_DB_PATH" default:"./data/socialyield.sqlite"`
	Port         int    `envconfig:"SOCIALYIELD_PORT" default:"8080"`
	LogLevel     string `envconfig:"SOCIALYIELD_LOG_LEVEL" default:"info"`
	LogDir       string `envconfig:"SOCIALYIELD_LOG_DIR" default:"./logs"`
	Network      string `envconfig:"SOCIALYIELD_NETWORK" default:"testnet"`

	// IdentitySecret is the HMAC key shared with the identity provider.
	// Session login requests carry an assertion signed with this key.
	IdentitySecret string `envconfig:"SOCIALYIELD_IDENTITY_SECRET"`

	// CouponContract overrides the default reward-token contract address
	// for the selected network. Empty means use the built-in default.
	CouponContract string `envconfig:"SOCIALYIELD_COUPON_CONTRACT"`

	// LedgerRPCURL overrides the default Kaia RPC endpoint.
	LedgerRPCURL string `envconfig:"SOCIALYIELD_LEDGER_RPC_URL"`

	LedgerRateLimit int `envconfig:"SOCIALYIELD_LEDGER_RATE_LIMIT" default:"5"`

	// AllowedOrigins lists browser origins permitted to call the API,
	// comma-separated. Empty disables CORS headers entirely.
	AllowedOrigins []string `envconfig:"SOCIALYIELD_ALLOWED_ORIGINS"`
}

// Load reads configuration from .env file (if present) then from environment variables.
// Environment variables override .env values.
func Load() (*Config, error) {
	// Load .env file if it exists. godotenv does NOT override already-set env vars,
	// so real environment variables take precedence over .env values.
	envFiles := []string{".env"}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				slog.Warn("failed to load .env file", "file", f, "error", err)
			} else {
				slog.Info("loaded .env file", "file", f)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.Network != "mainnet" && c.Network != "testnet" {
		return fmt.Errorf("%w: network must be \"mainnet\" or \"testnet\", got %q", ErrInvalidConfig, c.Network)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be 1-65535, got %d", ErrInvalidConfig, c.Port)
	}
	if c.LedgerRateLimit < 1 {
		return fmt.Errorf("%w: ledger rate limit must be >= 1, got %d", ErrInvalidConfig, c.LedgerRateLimit)
	}
	return nil
}

// RPCURL returns the Kaia RPC endpoint for the configured network.
func (c *Config) RPCURL() string {
	if c.LedgerRPCURL != "" {
		return c.LedgerRPCURL
	}
	if c.Network == "testnet" {
		return KaiaRPCTestnetURL
	}
	return KaiaRPCMainnetURL
}

// CouponContractAddress returns the reward-token contract for the configured network.
func (c *Config) CouponContractAddress() string {
	if c.CouponContract != "" {
		return c.CouponContract
	}
	if c.Network == "testnet" {
		return KaiaTestnetCouponContract
	}
	return KaiaMainnetCouponContract
}
