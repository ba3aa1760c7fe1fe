package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/time/rate"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// EthClient defines the minimal ethclient interface needed for coupon
// issuance. This allows mocking in tests.
type EthClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// CouponIssuer drives operator-signed awardCoupon transactions against the
// reward-token contract. It is the only component holding the operator
// credential; the settlement engine sees it through the Issuer interface.
type CouponIssuer struct {
	keyService *KeyService
	client     EthClient
	contract   common.Address
	chainID    *big.Int
	limiter    *rate.Limiter
}

// NewCouponIssuer creates the issuance adapter.
func NewCouponIssuer(keyService *KeyService, client EthClient, contractAddr string, chainID *big.Int, rps int) *CouponIssuer {
	slog.Info("coupon issuer created",
		"contract", contractAddr,
		"chainID", chainID,
		"rateLimit", rps,
	)
	return &CouponIssuer{
		keyService: keyService,
		client:     client,
		contract:   common.HexToAddress(contractAddr),
		chainID:    chainID,
		// Burst(1) spreads issuance evenly, matching what public Kaia RPC
		// endpoints tolerate.
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// IssueReward mints a coupon of the given face value to the recipient wallet,
// signed by the operator identity. The result is a typed variant, never an
// error the caller has to string-match: business-rule refusals come back as
// IssuanceRejected with a RejectionKind, transport problems as
// IssuanceUnreachable. A timeout is a failure, not a retry trigger; replay
// protection on the ledger side is outside this engine's control.
func (ci *CouponIssuer) IssueReward(ctx context.Context, recipientWallet string, ledgerCampaignID int64, value models.Amount) IssuanceResult {
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, config.LedgerCallTimeout)
	defer cancel()

	if err := ci.limiter.Wait(callCtx); err != nil {
		return IssuanceResult{Status: IssuanceUnreachable, Cause: fmt.Errorf("ledger rate limit wait: %w", err)}
	}

	privKey, operatorAddr, err := ci.keyService.DeriveOperatorKey(callCtx)
	if err != nil {
		return IssuanceResult{Status: IssuanceUnreachable, Cause: fmt.Errorf("derive operator key: %w", err)}
	}
	defer ZeroECDSAKey(privKey)

	recipient := common.HexToAddress(recipientWallet)
	data := EncodeAwardCoupon(recipient, big.NewInt(ledgerCampaignID), CouponTokenUnits(value))

	slog.Info("issuing coupon",
		"recipient", recipient.Hex(),
		"ledgerCampaignId", ledgerCampaignID,
		"value", value.String(),
	)

	// Simulate first: a revert here is a business-rule rejection and costs no
	// gas. The raw revert string is classified into the closed enum.
	_, err = ci.client.CallContract(callCtx, ethereum.CallMsg{
		From: operatorAddr,
		To:   &ci.contract,
		Data: data,
	}, nil)
	if err != nil {
		if reason, ok := revertReason(err); ok {
			kind := classifyRevert(reason)
			slog.Warn("coupon issuance rejected by ledger",
				"recipient", recipient.Hex(),
				"ledgerCampaignId", ledgerCampaignID,
				"kind", kind.String(),
			)
			return IssuanceResult{Status: IssuanceRejected, Kind: kind, Cause: err}
		}
		return IssuanceResult{Status: IssuanceUnreachable, Cause: fmt.Errorf("simulate award: %w", err)}
	}

	nonce, err := ci.client.PendingNonceAt(callCtx, operatorAddr)
	if err != nil {
		return IssuanceResult{Status: IssuanceUnreachable, Cause: fmt.Errorf("get operator nonce: %w", err)}
	}

	gasPrice, err := ci.client.SuggestGasPrice(callCtx)
	if err != nil {
		return IssuanceResult{Status: IssuanceUnreachable, Cause: fmt.Errorf("suggest gas price: %w", err)}
	}
	gasPrice = BufferedGasPrice(gasPrice)

	unsignedTx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &ci.contract,
		Value:    big.NewInt(0),
		Gas:      config.LedgerGasLimitAward,
		GasPrice: gasPrice,
		Data:     data,
	})

	signer := types.NewEIP155Signer(ci.chainID)
	signedTx, err := types.SignTx(unsignedTx, signer, privKey)
	if err != nil {
		return IssuanceResult{Status: IssuanceUnreachable, Cause: fmt.Errorf("sign award transaction: %w", err)}
	}

	if err := ci.client.SendTransaction(callCtx, signedTx); err != nil {
		if reason, ok := revertReason(err); ok {
			return IssuanceResult{Status: IssuanceRejected, Kind: classifyRevert(reason), Cause: err}
		}
		return IssuanceResult{Status: IssuanceUnreachable, Cause: fmt.Errorf("broadcast award: %w", err)}
	}

	txHash := signedTx.Hash()

	receipt, err := ci.waitForReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, config.ErrTxReverted) {
			return IssuanceResult{Status: IssuanceRejected, Kind: RejectUnknown, TxRef: txHash.Hex(), Cause: err}
		}
		return IssuanceResult{Status: IssuanceUnreachable, TxRef: txHash.Hex(), Cause: err}
	}

	slog.Info("coupon issued",
		"txHash", txHash.Hex(),
		"recipient", recipient.Hex(),
		"ledgerCampaignId", ledgerCampaignID,
		"value", value.String(),
		"blockNumber", receipt.BlockNumber,
		"gasUsed", receipt.GasUsed,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return IssuanceResult{Status: IssuanceOk, TxRef: txHash.Hex()}
}

// waitForReceipt polls for a transaction receipt until mined, reverted, or timeout.
func (ci *CouponIssuer) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	slog.Debug("waiting for receipt", "txHash", txHash.Hex())

	pollCtx, cancel := context.WithTimeout(ctx, config.ReceiptPollTimeout)
	defer cancel()

	for {
		receipt, err := ci.client.TransactionReceipt(pollCtx, txHash)
		if err == nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w: tx %s reverted in block %d",
					config.ErrTxReverted, txHash.Hex(), receipt.BlockNumber.Uint64())
			}
			return receipt, nil
		}

		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("query receipt for %s: %w", txHash.Hex(), err)
		}

		// Not mined yet — wait and retry.
		select {
		case <-pollCtx.Done():
			return nil, fmt.Errorf("%w: tx %s not mined within timeout", config.ErrReceiptTimeout, txHash.Hex())
		case <-time.After(config.ReceiptPollInterval):
			slog.Debug("receipt not ready, polling again", "txHash", txHash.Hex())
		}
	}
}

// revertReason extracts the revert string from an RPC error, if present.
func revertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	msg := err.Error()
	const marker = "execution reverted"
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return "", false
	}
	reason := strings.TrimLeft(msg[idx+len(marker):], ": ")
	return reason, true
}
