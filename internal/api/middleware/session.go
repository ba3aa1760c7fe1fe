package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// Session is an authenticated principal bound to a bearer token.
type Session struct {
	PrincipalID string
	Kind        models.PrincipalKind
	ExpiresAt   time.Time
}

// SessionStore keeps bearer sessions in memory. Sessions do not survive a
// restart; clients re-run the assertion login, which is cheap and stateless
// on the identity provider side.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Create mints a bearer token for the principal.
func (s *SessionStore) Create(principalID string, kind models.PrincipalKind) (string, Session, error) {
	raw := make([]byte, config.SessionTokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", Session{}, err
	}
	token := hex.EncodeToString(raw)

	sess := Session{
		PrincipalID: principalID,
		Kind:        kind,
		ExpiresAt:   s.now().Add(config.SessionTimeout),
	}

	s.mu.Lock()
	s.sessions[token] = sess
	s.prune()
	s.mu.Unlock()

	slog.Info("session created", "principalId", principalID, "kind", kind)
	return token, sess, nil
}

// Resolve returns the session for a token, or config.ErrSessionExpired for
// unknown and expired tokens alike.
func (s *SessionStore) Resolve(token string) (Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || s.now().After(sess.ExpiresAt) {
		return Session{}, config.ErrSessionExpired
	}
	return sess, nil
}

// prune drops expired sessions. Caller holds the write lock.
func (s *SessionStore) prune() {
	now := s.now()
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// VerifyAssertion checks an identity-provider login assertion: an HMAC-SHA256
// over "<userId>.<unix timestamp>" keyed with the shared identity secret. The
// timestamp bounds replay to the skew window; the signature binds the user id.
func VerifyAssertion(secret, userID string, timestamp int64, signature string, now time.Time) error {
	if secret == "" || userID == "" || signature == "" {
		return config.ErrInvalidAssertion
	}

	issued := time.Unix(timestamp, 0)
	skew := now.Sub(issued)
	if skew < -config.AssertionMaxSkew || skew > config.AssertionMaxSkew {
		return config.ErrInvalidAssertion
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(userID + "." + strconv.FormatInt(timestamp, 10)))
	expected := hex.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return config.ErrInvalidAssertion
	}
	return nil
}
