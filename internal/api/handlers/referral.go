package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/api/middleware"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/settlement"
)

// claimReferralRequest is the body for POST /api/referral/claim. Code is the
// referrer's user id or linked wallet address.
type claimReferralRequest struct {
	Code string `json:"code"`
}

// ClaimReferral settles a one-time referral claim for the authenticated user
// and grants the mutual boost.
func ClaimReferral(engine *settlement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refereeID := middleware.UserIDFromContext(r.Context())

		var req claimReferralRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidBody, "invalid request body")
			return
		}
		if req.Code == "" {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidBody, "referral code is required")
			return
		}

		referral, err := engine.ClaimReferral(refereeID, req.Code)
		if err != nil {
			writeSettlementError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{Data: referral})
	}
}
