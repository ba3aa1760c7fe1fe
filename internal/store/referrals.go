package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// GetReferralByReferee returns the referral row for a referee, or nil when the
// user has never claimed one.
func (s *Store) GetReferralByReferee(refereeID string) (*models.Referral, error) {
	var r models.Referral
	err := s.conn.QueryRow(
		`SELECT id, referrer_id, referee_id, status, created_at FROM referrals WHERE referee_id = ?`,
		refereeID,
	).Scan(&r.ID, &r.ReferrerID, &r.RefereeID, &r.Status, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get referral for referee %s: %w", refereeID, err)
	}
	return &r, nil
}

// CreateReferral inserts the one-time referral row. The unique constraint on
// referee_id is the backstop against a raced double-claim; a violation
// surfaces as config.ErrAlreadyClaimed.
func (s *Store) CreateReferral(r models.Referral) error {
	_, err := s.conn.Exec(
		`INSERT INTO referrals (id, referrer_id, referee_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.ReferrerID, r.RefereeID, string(models.ReferralCompleted), nowUTC(),
	)
	if isUniqueViolation(err) {
		slog.Warn("referral claim raced", "refereeId", r.RefereeID)
		return config.ErrAlreadyClaimed
	}
	if err != nil {
		return fmt.Errorf("create referral %s -> %s: %w", r.ReferrerID, r.RefereeID, err)
	}

	slog.Info("referral recorded",
		"referralId", r.ID,
		"referrerId", r.ReferrerID,
		"refereeId", r.RefereeID,
	)
	return nil
}
