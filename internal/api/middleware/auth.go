package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/store"
)

type contextKey string

const (
	userIDKey       contextKey = "userId"
	advertiserIDKey contextKey = "advertiserId"
)

// UserIDFromContext returns the authenticated user id set by UserAuth.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// AdvertiserIDFromContext returns the authenticated advertiser id set by AdvertiserAuth.
func AdvertiserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(advertiserIDKey).(string)
	return id
}

// UserAuth requires a valid user bearer session and stores the user id on the
// request context.
func UserAuth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeAuthError(w, "missing bearer token")
				return
			}

			sess, err := sessions.Resolve(token)
			if err != nil || sess.Kind != models.PrincipalUser {
				slog.Warn("rejected user request", "path", r.URL.Path, "remoteAddr", r.RemoteAddr)
				writeAuthError(w, "invalid or expired session")
				return
			}

			setPrincipal(r.Context(), sess.PrincipalID, sess.Kind)
			ctx := context.WithValue(r.Context(), userIDKey, sess.PrincipalID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdvertiserAuth requires advertiser API-key credentials in the
// X-Advertiser-Id and X-API-Key headers and stores the advertiser id on the
// request context.
func AdvertiserAuth(st *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			advertiserID := r.Header.Get("X-Advertiser-Id")
			apiKey := r.Header.Get("X-API-Key")
			if advertiserID == "" || apiKey == "" {
				writeAuthError(w, "missing advertiser credentials")
				return
			}

			adv, err := st.AuthenticateAdvertiser(advertiserID, apiKey)
			if err != nil {
				slog.Warn("rejected advertiser request",
					"advertiserId", advertiserID,
					"path", r.URL.Path,
					"remoteAddr", r.RemoteAddr,
				)
				writeAuthError(w, "invalid advertiser credentials")
				return
			}

			setPrincipal(r.Context(), adv.ID, models.PrincipalAdvertiser)
			ctx := context.WithValue(r.Context(), advertiserIDKey, adv.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.APIError{
		Error: models.APIErrorDetail{
			Code:    config.ErrorUnauthorized,
			Message: message,
		},
	})
}
