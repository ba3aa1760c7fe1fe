package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/api/middleware"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/store"
)

// loginRequest is the identity-provider assertion for POST /api/auth/login.
// Signature is hex HMAC-SHA256 over "<userId>.<timestamp>" keyed with the
// shared identity secret.
type loginRequest struct {
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

// Login exchanges a signed identity assertion for a bearer session. The user
// row is created on first login; wallet linking happens separately.
func Login(st *store.Store, sessions *middleware.SessionStore, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("invalid login request body", "error", err)
			writeError(w, http.StatusBadRequest, config.ErrorInvalidBody, "invalid request body")
			return
		}

		if err := middleware.VerifyAssertion(cfg.IdentitySecret, req.UserID, req.Timestamp, req.Signature, time.Now()); err != nil {
			slog.Warn("login assertion rejected", "userId", req.UserID, "remoteAddr", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, config.ErrorUnauthorized, "invalid identity assertion")
			return
		}

		if err := st.EnsureUser(req.UserID); err != nil {
			slog.Error("failed to ensure user on login", "userId", req.UserID, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "internal error")
			return
		}

		token, sess, err := sessions.Create(req.UserID, models.PrincipalUser)
		if err != nil {
			slog.Error("failed to create session", "userId", req.UserID, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{
				"token":     token,
				"expiresAt": sess.ExpiresAt.UTC().Format(time.RFC3339),
			},
		})
	}
}
