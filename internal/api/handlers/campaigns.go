package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/api/middleware"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/store"
)

// createMissionRequest is the body for POST /api/advertiser/missions.
type createMissionRequest struct {
	Type               string  `json:"type"`
	Title              string  `json:"title"`
	BoostMultiplier    float64 `json:"boostMultiplier"`
	BoostDurationHours int     `json:"boostDurationHours"`
	Repeatable         bool    `json:"repeatable"`
}

// CreateMission registers a mission in the catalog. Missions without a
// campaign settle as boost-only.
func CreateMission(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidBody, "invalid request body")
			return
		}
		if req.Type == "" || req.Title == "" {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidBody, "type and title are required")
			return
		}
		if req.BoostMultiplier < 0 || req.BoostDurationHours < 0 {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidBody, "boost multiplier and duration must be non-negative")
			return
		}

		mission := models.Mission{
			ID:                 uuid.NewString(),
			Type:               req.Type,
			Title:              req.Title,
			BoostMultiplier:    req.BoostMultiplier,
			BoostDurationHours: req.BoostDurationHours,
			Repeatable:         req.Repeatable,
		}
		if err := st.CreateMission(mission); err != nil {
			slog.Error("failed to create mission", "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, models.APIResponse{Data: mission})
	}
}

// campaignRequest is the body for campaign create and update.
type campaignRequest struct {
	MissionID        string        `json:"missionId"`
	TotalBudget      models.Amount `json:"totalBudget"`
	MinReward        models.Amount `json:"minReward"`
	MaxReward        models.Amount `json:"maxReward"`
	MaxParticipants  int           `json:"maxParticipants"`
	LedgerCampaignID int64         `json:"ledgerCampaignId"`
}

func (req *campaignRequest) validate() (code, message string) {
	if req.MinReward <= 0 {
		return config.ErrorInvalidAmount, "minReward must be positive"
	}
	if req.MaxReward < req.MinReward {
		return config.ErrorInvalidAmount, "maxReward must be >= minReward"
	}
	if req.TotalBudget < req.MaxReward {
		return config.ErrorInvalidAmount, "totalBudget must cover at least one maxReward"
	}
	if req.MaxParticipants <= 0 {
		return config.ErrorInvalidBody, "maxParticipants must be positive"
	}
	return "", ""
}

// CreateCampaign handles POST /api/advertiser/campaigns. Campaigns start in
// DRAFT with the full budget intact and settle nothing until activated.
func CreateCampaign(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		advertiserID := middleware.AdvertiserIDFromContext(r.Context())

		var req campaignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidBody, "invalid request body")
			return
		}
		if code, msg := req.validate(); code != "" {
			writeError(w, http.StatusBadRequest, code, msg)
			return
		}

		if _, err := st.GetMission(req.MissionID); err != nil {
			writeSettlementError(w, err)
			return
		}

		campaign := models.Campaign{
			ID:               uuid.NewString(),
			AdvertiserID:     advertiserID,
			MissionID:        req.MissionID,
			TotalBudget:      req.TotalBudget,
			MaxParticipants:  req.MaxParticipants,
			MinReward:        req.MinReward,
			MaxReward:        req.MaxReward,
			LedgerCampaignID: req.LedgerCampaignID,
		}
		if err := st.CreateCampaign(campaign); err != nil {
			slog.Error("failed to create campaign", "advertiserId", advertiserID, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "internal error")
			return
		}

		created, err := st.GetCampaign(campaign.ID)
		if err != nil {
			writeSettlementError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, models.APIResponse{Data: created})
	}
}

// ListCampaigns handles GET /api/advertiser/campaigns.
func ListCampaigns(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		advertiserID := middleware.AdvertiserIDFromContext(r.Context())

		campaigns, err := st.ListCampaignsByAdvertiser(advertiserID)
		if err != nil {
			slog.Error("failed to list campaigns", "advertiserId", advertiserID, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "internal error")
			return
		}
		if campaigns == nil {
			campaigns = []models.Campaign{}
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{"campaigns": campaigns},
		})
	}
}

// ownedCampaign loads a campaign and checks advertiser ownership.
func ownedCampaign(st *store.Store, w http.ResponseWriter, r *http.Request) *models.Campaign {
	advertiserID := middleware.AdvertiserIDFromContext(r.Context())

	campaign, err := st.GetCampaign(chi.URLParam(r, "campaignId"))
	if err != nil {
		writeSettlementError(w, err)
		return nil
	}
	if campaign.AdvertiserID != advertiserID {
		writeSettlementError(w, config.ErrNotCampaignOwner)
		return nil
	}
	return campaign
}

// UpdateCampaign handles PATCH /api/advertiser/campaigns/{campaignId}.
// Only DRAFT campaigns are editable.
func UpdateCampaign(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaign := ownedCampaign(st, w, r)
		if campaign == nil {
			return
		}

		var req campaignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidBody, "invalid request body")
			return
		}
		if code, msg := req.validate(); code != "" {
			writeError(w, http.StatusBadRequest, code, msg)
			return
		}

		if err := st.UpdateDraftCampaign(campaign.ID, req.TotalBudget, req.MinReward, req.MaxReward, req.MaxParticipants); err != nil {
			writeSettlementError(w, err)
			return
		}

		updated, err := st.GetCampaign(campaign.ID)
		if err != nil {
			writeSettlementError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.APIResponse{Data: updated})
	}
}

// ActivateCampaign handles POST /api/advertiser/campaigns/{campaignId}/activate.
func ActivateCampaign(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaign := ownedCampaign(st, w, r)
		if campaign == nil {
			return
		}

		if err := st.ActivateCampaign(campaign.ID); err != nil {
			writeSettlementError(w, err)
			return
		}

		activated, err := st.GetCampaign(campaign.ID)
		if err != nil {
			writeSettlementError(w, err)
			return
		}

		slog.Info("campaign activated via api",
			"campaignId", campaign.ID,
			"advertiserId", campaign.AdvertiserID,
		)
		writeJSON(w, http.StatusOK, models.APIResponse{Data: activated})
	}
}
