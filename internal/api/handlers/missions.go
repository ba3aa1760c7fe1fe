package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/api/middleware"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/settlement"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/store"
)

// ListMissions handles GET /api/missions.
func ListMissions(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		missions, err := st.ListMissions()
		if err != nil {
			slog.Error("failed to list missions", "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "internal error")
			return
		}
		if missions == nil {
			missions = []models.Mission{}
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{"missions": missions},
		})
	}
}

// GetMission handles GET /api/missions/{missionId}.
func GetMission(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mission, err := st.GetMission(chi.URLParam(r, "missionId"))
		if err != nil {
			writeSettlementError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.APIResponse{Data: mission})
	}
}

// CompleteMission handles POST /api/missions/{missionId}/complete: the full
// settlement of one completion for the authenticated user.
func CompleteMission(engine *settlement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		userID := middleware.UserIDFromContext(r.Context())
		missionID := chi.URLParam(r, "missionId")

		slog.Info("mission completion requested", "userId", userID, "missionId", missionID)

		result, err := engine.CompleteMission(r.Context(), userID, missionID)
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

// RetryReward handles POST /api/missions/{missionId}/retry-reward: re-drives
// reward delivery for a completion whose ledger leg failed.
func RetryReward(engine *settlement.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		userID := middleware.UserIDFromContext(r.Context())
		missionID := chi.URLParam(r, "missionId")

		slog.Info("reward retry requested", "userId", userID, "missionId", missionID)

		result, err := engine.RetryIssuance(r.Context(), userID, missionID)
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
