package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/api"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/api/middleware"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/ledger"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/logging"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/settlement"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/store"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	case "operator":
		if err := runOperator(); err != nil {
			slog.Error("operator error", "error", err)
			os.Exit(1)
		}
	case "advertiser":
		if err := runAdvertiser(); err != nil {
			slog.Error("advertiser error", "error", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("socialyield %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: socialyield <command>

Commands:
  serve       Start the HTTP server
  operator    Print the operator wallet address derived from the mnemonic
  advertiser  Register an advertiser and print its API credentials
  version     Print version information
`)
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCloser.Close()

	slog.Info("starting socialyield",
		"version", version,
		"network", cfg.Network,
		"port", cfg.Port,
		"dbPath", cfg.DBPath,
		"logLevel", cfg.LogLevel,
	)

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	slog.Info("database opened", "path", cfg.DBPath)

	if err := st.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("database migrations applied")

	ethClient, err := ethclient.Dial(cfg.RPCURL())
	if err != nil {
		return fmt.Errorf("dial ledger RPC %s: %w", cfg.RPCURL(), err)
	}
	defer ethClient.Close()

	slog.Info("ledger RPC connected", "url", cfg.RPCURL())

	keyService := ledger.NewKeyService(cfg.MnemonicFile)
	issuer := ledger.NewCouponIssuer(
		keyService,
		ethClient,
		cfg.CouponContractAddress(),
		ledger.ChainID(cfg.Network),
		cfg.LedgerRateLimit,
	)

	engine := settlement.NewEngine(st, issuer)
	sessions := middleware.NewSessionStore()
	router := api.NewRouter(st, engine, sessions, cfg)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:           addr,
		Handler:        router,
		ReadTimeout:    config.ServerReadTimeout,
		WriteTimeout:   config.ServerWriteTimeout,
		IdleTimeout:    config.ServerIdleTimeout,
		MaxHeaderBytes: config.ServerMaxHeaderBytes,
	}

	slog.Info("server configured",
		"readTimeout", config.ServerReadTimeout,
		"writeTimeout", config.ServerWriteTimeout,
		"idleTimeout", config.ServerIdleTimeout,
		"maxHeaderBytes", config.ServerMaxHeaderBytes,
	)

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("initiating graceful shutdown", "timeout", config.ShutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func runOperator() error {
	fs := flag.NewFlagSet("operator", flag.ExitOnError)
	mnemonicFile := fs.String("mnemonic-file", "", "Path to file containing 24-word BIP-39 mnemonic (default: from SOCIALYIELD_MNEMONIC_FILE)")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCloser.Close()

	if *mnemonicFile != "" {
		cfg.MnemonicFile = *mnemonicFile
	}
	if cfg.MnemonicFile == "" {
		return fmt.Errorf("--mnemonic-file is required (or set SOCIALYIELD_MNEMONIC_FILE)")
	}

	keyService := ledger.NewKeyService(cfg.MnemonicFile)
	addr, err := keyService.OperatorAddress(context.Background())
	if err != nil {
		return fmt.Errorf("derive operator address: %w", err)
	}

	fmt.Printf("operator address: %s\n", addr.Hex())
	fmt.Printf("network:          %s (chain id %d)\n", cfg.Network, ledger.ChainID(cfg.Network))
	return nil
}

func runAdvertiser() error {
	fs := flag.NewFlagSet("advertiser", flag.ExitOnError)
	name := fs.String("name", "", "Advertiser display name (required)")
	dbPath := fs.String("db", "", "Database path (default: from SOCIALYIELD_DB_PATH)")
	fs.Parse(os.Args[2:])

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCloser.Close()

	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	if err := st.RunMigrations(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	raw := make([]byte, config.AdvertiserKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate API key: %w", err)
	}
	apiKey := base58.Encode(raw)

	adv := models.Advertiser{
		ID:     uuid.NewString(),
		Name:   *name,
		APIKey: apiKey,
	}
	if err := st.CreateAdvertiser(adv); err != nil {
		return fmt.Errorf("create advertiser: %w", err)
	}

	// The API key is printed exactly once; only its holder can recover it.
	fmt.Printf("advertiser id:  %s\n", adv.ID)
	fmt.Printf("advertiser key: %s\n", apiKey)
	return nil
}
