package config

import (
	"errors"
	"testing"
)

func validConfig() Config {
	return Config{
		DBPath:          "./data/test.sqlite",
		Port:            8080,
		LogLevel:        "info",
		Network:         "testnet",
		LedgerRateLimit: 5,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid testnet", func(c *Config) {}, false},
		{"valid mainnet", func(c *Config) { c.Network = "mainnet" }, false},
		{"bad network", func(c *Config) { c.Network = "devnet" }, true},
		{"port zero", func(c *Config) { c.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Port = 70000 }, true},
		{"rate limit zero", func(c *Config) { c.LedgerRateLimit = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestRPCURL(t *testing.T) {
	cfg := validConfig()
	if got := cfg.RPCURL(); got != KaiaRPCTestnetURL {
		t.Errorf("testnet RPCURL() = %q, want %q", got, KaiaRPCTestnetURL)
	}

	cfg.Network = "mainnet"
	if got := cfg.RPCURL(); got != KaiaRPCMainnetURL {
		t.Errorf("mainnet RPCURL() = %q, want %q", got, KaiaRPCMainnetURL)
	}

	cfg.LedgerRPCURL = "http://localhost:8551"
	if got := cfg.RPCURL(); got != "http://localhost:8551" {
		t.Errorf("override RPCURL() = %q, want http://localhost:8551", got)
	}
}

func TestCouponContractAddress(t *testing.T) {
	cfg := validConfig()
	if got := cfg.CouponContractAddress(); got != KaiaTestnetCouponContract {
		t.Errorf("testnet contract = %q, want %q", got, KaiaTestnetCouponContract)
	}

	cfg.CouponContract = "0x000000000000000000000000000000000000dEaD"
	if got := cfg.CouponContractAddress(); got != cfg.CouponContract {
		t.Errorf("override contract = %q, want %q", got, cfg.CouponContract)
	}
}
