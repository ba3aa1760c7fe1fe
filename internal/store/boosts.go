package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// LatestBoostExpiry returns the latest expires_at among the user's non-expired
// boosts, or nil when none are active. The settlement engine chains new boost
// windows from this instant.
func (s *Store) LatestBoostExpiry(userID string, now time.Time) (*time.Time, error) {
	var raw string
	err := s.conn.QueryRow(
		`SELECT expires_at FROM active_boosts
		 WHERE user_id = ? AND expires_at > ?
		 ORDER BY expires_at DESC LIMIT 1`,
		userID, now.UTC().Format(time.RFC3339),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest boost expiry for user %s: %w", userID, err)
	}

	expiry, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("parse boost expiry %q: %w", raw, err)
	}
	return &expiry, nil
}

// InsertBoost appends an immutable boost row. Boost rows are never mutated,
// only superseded by newer rows; expired rows are filtered at read time.
//
// skipDuplicate inserts with OR IGNORE semantics: a grant identical in
// (user, multiplier, window) to an existing row is silently dropped. Referral
// grants use this so a raced double-claim cannot error on the boost leg.
func (s *Store) InsertBoost(b models.ActiveBoost, skipDuplicate bool) error {
	verb := `INSERT`
	if skipDuplicate {
		verb = `INSERT OR IGNORE`
	}

	_, err := s.conn.Exec(
		verb+` INTO active_boosts (id, user_id, multiplier, expires_at, campaign_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Multiplier, b.ExpiresAt.UTC().Format(time.RFC3339), b.CampaignID, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("insert boost for user %s: %w", b.UserID, err)
	}

	slog.Info("boost granted",
		"userId", b.UserID,
		"multiplier", b.Multiplier,
		"expiresAt", b.ExpiresAt.UTC().Format(time.RFC3339),
	)
	return nil
}

// EffectiveBoost returns the single highest multiplier among the user's
// non-expired boosts, computed fresh at read time. Concurrent boosts do not
// stack: [1.2, 3.0, 1.5] yields 3.0.
func (s *Store) EffectiveBoost(userID string, now time.Time) (*models.EffectiveBoost, error) {
	var multiplier float64
	var raw string
	err := s.conn.QueryRow(
		`SELECT multiplier, expires_at FROM active_boosts
		 WHERE user_id = ? AND expires_at > ?
		 ORDER BY multiplier DESC, expires_at DESC LIMIT 1`,
		userID, now.UTC().Format(time.RFC3339),
	).Scan(&multiplier, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.EffectiveBoost{Multiplier: 1.0}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("effective boost for user %s: %w", userID, err)
	}

	expiry, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("parse boost expiry %q: %w", raw, err)
	}
	return &models.EffectiveBoost{Multiplier: multiplier, ExpiresAt: &expiry}, nil
}

// ListActiveBoosts returns all non-expired boosts for a user, newest window first.
func (s *Store) ListActiveBoosts(userID string, now time.Time) ([]models.ActiveBoost, error) {
	rows, err := s.conn.Query(
		`SELECT id, user_id, multiplier, expires_at, campaign_id, created_at
		 FROM active_boosts WHERE user_id = ? AND expires_at > ?
		 ORDER BY expires_at DESC`,
		userID, now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("list active boosts for user %s: %w", userID, err)
	}
	defer rows.Close()

	var boosts []models.ActiveBoost
	for rows.Next() {
		var b models.ActiveBoost
		var raw string
		if err := rows.Scan(&b.ID, &b.UserID, &b.Multiplier, &raw, &b.CampaignID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan boost row: %w", err)
		}
		expiry, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("parse boost expiry %q: %w", raw, err)
		}
		b.ExpiresAt = expiry
		boosts = append(boosts, b)
	}
	return boosts, rows.Err()
}
