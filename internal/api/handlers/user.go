package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/api/middleware"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/settlement"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/store"
)

// GetBoost handles GET /api/user/boost: the effective multiplier applied to
// the user's yield right now, plus the full non-expired boost window list.
func GetBoost(engine *settlement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())

		effective, err := engine.EffectiveBoost(userID)
		if err != nil {
			writeSettlementError(w, err)
			return
		}
		boosts, err := engine.ActiveBoosts(userID)
		if err != nil {
			writeSettlementError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{
				"effective": effective,
				"boosts":    boosts,
			},
		})
	}
}

// connectWalletRequest is the body for POST /api/user/wallet.
type connectWalletRequest struct {
	Address string `json:"address"`
}

// ConnectWallet links an EVM wallet address to the authenticated user.
// Funded-mission settlement requires it; campaign-less missions do not.
func ConnectWallet(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())

		var req connectWalletRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidBody, "invalid request body")
			return
		}
		if !common.IsHexAddress(req.Address) {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidBody, "invalid wallet address: must be 0x-prefixed hex (42 chars)")
			return
		}

		checksummed := common.HexToAddress(req.Address).Hex()
		if err := st.SetWalletAddress(userID, checksummed); err != nil {
			if errors.Is(err, config.ErrUserNotFound) {
				writeSettlementError(w, err)
				return
			}
			slog.Error("failed to set wallet address", "userId", userID, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "internal error")
			return
		}

		slog.Info("wallet connected", "userId", userID, "wallet", checksummed)
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]string{"walletAddress": checksummed},
		})
	}
}

// GetCompletions handles GET /api/user/missions: every completion record for
// the authenticated user, including reward delivery state.
func GetCompletions(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())

		completions, err := st.ListCompletionsByUser(userID)
		if err != nil {
			slog.Error("failed to list completions", "userId", userID, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "internal error")
			return
		}
		if completions == nil {
			completions = []models.UserMission{}
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{"missions": completions},
		})
	}
}
