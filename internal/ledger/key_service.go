package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
)

// KeyService derives the operator signing key on demand from the mnemonic file.
// The mnemonic is read fresh each time to minimize time secrets spend in memory.
type KeyService struct {
	mnemonicFilePath string
}

// NewKeyService creates the operator key derivation service.
func NewKeyService(mnemonicFilePath string) *KeyService {
	slog.Info("operator key service created",
		"mnemonicFileConfigured", mnemonicFilePath != "",
	)
	return &KeyService{mnemonicFilePath: mnemonicFilePath}
}

// DeriveOperatorKey derives the operator private key at m/44'/60'/0'/0/0.
// The caller MUST zero the returned private key after use.
func (ks *KeyService) DeriveOperatorKey(ctx context.Context) (*ecdsa.PrivateKey, common.Address, error) {
	if ks.mnemonicFilePath == "" {
		return nil, common.Address{}, config.ErrMnemonicFileNotSet
	}

	// Check context before potentially slow file I/O.
	if err := ctx.Err(); err != nil {
		return nil, common.Address{}, fmt.Errorf("context cancelled before key derivation: %w", err)
	}

	mnemonic, err := readMnemonicFromFile(ks.mnemonicFilePath)
	if err != nil {
		return nil, common.Address{}, err
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("mnemonic to seed: %w", err)
	}

	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("derive master key: %w", err)
	}

	privKey, err := deriveOperatorPrivKey(masterKey)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("%w: %s", config.ErrKeyDerivation, err)
	}

	addr := crypto.PubkeyToAddress(privKey.PublicKey)
	slog.Debug("operator key derived", "address", addr.Hex())
	return privKey, addr, nil
}

// OperatorAddress derives and returns the operator address without retaining
// the private key.
func (ks *KeyService) OperatorAddress(ctx context.Context) (common.Address, error) {
	privKey, addr, err := ks.DeriveOperatorKey(ctx)
	if err != nil {
		return common.Address{}, err
	}
	ZeroECDSAKey(privKey)
	return addr, nil
}

// deriveOperatorPrivKey walks m/44'/60'/0'/0/0 and returns the ECDSA key.
func deriveOperatorPrivKey(masterKey *hdkeychain.ExtendedKey) (*ecdsa.PrivateKey, error) {
	path := []uint32{
		hdkeychain.HardenedKeyStart + uint32(config.BIP44Purpose),
		hdkeychain.HardenedKeyStart + uint32(config.KaiaCoinType),
		hdkeychain.HardenedKeyStart + 0,
		0,
		uint32(config.OperatorKeyIndex),
	}

	key := masterKey
	for i, step := range path {
		child, err := key.Derive(step)
		if err != nil {
			return nil, fmt.Errorf("derive level %d: %w", i, err)
		}
		key = child
	}

	btcecKey, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extract private key: %w", err)
	}
	return btcecKey.ToECDSA(), nil
}

// readMnemonicFromFile reads a mnemonic from a file, trims whitespace, and validates it.
func readMnemonicFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read mnemonic file %q: %w", path, err)
	}

	mnemonic := strings.TrimSpace(string(data))
	if mnemonic == "" {
		return "", fmt.Errorf("mnemonic file %q is empty: %w", path, config.ErrInvalidMnemonic)
	}

	if !bip39.IsMnemonicValid(mnemonic) {
		return "", fmt.Errorf("mnemonic file %q: %w", path, config.ErrInvalidMnemonic)
	}

	words := strings.Fields(mnemonic)
	if len(words) != 24 {
		return "", fmt.Errorf("expected 24-word mnemonic, got %d words: %w", len(words), config.ErrInvalidMnemonic)
	}

	return mnemonic, nil
}

// ZeroECDSAKey overwrites the private scalar so the key cannot be reused
// after the signing call returns.
func ZeroECDSAKey(key *ecdsa.PrivateKey) {
	if key == nil || key.D == nil {
		return
	}
	key.D.SetInt64(0)
}
