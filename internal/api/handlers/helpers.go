package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.APIError{
		Error: models.APIErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// settlementErrors maps settlement sentinels to an HTTP status and wire code.
var settlementErrors = []struct {
	err    error
	status int
	code   string
}{
	{config.ErrUserNotFound, http.StatusNotFound, config.ErrorUserNotFound},
	{config.ErrMissionNotFound, http.StatusNotFound, config.ErrorMissionNotFound},
	{config.ErrCampaignNotFound, http.StatusNotFound, config.ErrorCampaignNotFound},
	{config.ErrReferrerNotFound, http.StatusNotFound, config.ErrorReferrerNotFound},
	{config.ErrWalletRequired, http.StatusPreconditionFailed, config.ErrorWalletRequired},
	{config.ErrAlreadyCompleted, http.StatusConflict, config.ErrorAlreadyCompleted},
	{config.ErrAlreadyClaimed, http.StatusConflict, config.ErrorAlreadyClaimed},
	{config.ErrSelfReferral, http.StatusBadRequest, config.ErrorSelfReferral},
	{config.ErrCampaignInactive, http.StatusConflict, config.ErrorCampaignInactive},
	{config.ErrBudgetExhausted, http.StatusConflict, config.ErrorBudgetExhausted},
	{config.ErrCampaignFull, http.StatusConflict, config.ErrorCampaignFull},
	{config.ErrRewardPending, http.StatusConflict, config.ErrorRewardPending},
	{config.ErrCampaignNotDraft, http.StatusConflict, config.ErrorCampaignNotDraft},
	{config.ErrCampaignNotFunded, http.StatusConflict, config.ErrorCampaignNotFunded},
	{config.ErrNotCampaignOwner, http.StatusForbidden, config.ErrorNotCampaignOwner},
	{config.ErrIssuanceSucceeded, http.StatusConflict, config.ErrorIssuanceSucceeded},
	{config.ErrCompletionRequired, http.StatusConflict, config.ErrorCompletionRequired},
}

// writeSettlementError resolves a settlement error to its wire form. Unmapped
// errors are internal faults.
func writeSettlementError(w http.ResponseWriter, err error) {
	for _, m := range settlementErrors {
		if m.err != nil && errors.Is(err, m.err) {
			writeError(w, m.status, m.code, m.err.Error())
			return
		}
	}
	slog.Error("unhandled settlement error", "error", err)
	writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "internal error")
}
