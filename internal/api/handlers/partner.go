package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/api/middleware"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/settlement"
)

// verifyCompletionRequest is the body for POST /api/partner/verify.
type verifyCompletionRequest struct {
	UserID    string `json:"userId"`
	MissionID string `json:"missionId"`
}

// VerifyCompletion records an advertiser-attested off-platform completion.
// The authenticated advertiser must own the campaign funding the mission; a
// flat unit cost is charged against its budget per verified completion.
func VerifyCompletion(engine *settlement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		advertiserID := middleware.AdvertiserIDFromContext(r.Context())

		var req verifyCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidBody, "invalid request body")
			return
		}
		if req.UserID == "" || req.MissionID == "" {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidBody, "userId and missionId are required")
			return
		}

		slog.Info("partner verification requested",
			"advertiserId", advertiserID,
			"userId", req.UserID,
			"missionId", req.MissionID,
		)

		result, err := engine.VerifyExternalCompletion(advertiserID, req.UserID, req.MissionID)
		if err != nil {
			writeSettlementError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: result,
			Meta: &models.APIMeta{
				ExecutionTime: time.Since(start).Milliseconds(),
			},
		})
	}
}
