package store

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// CreateAdvertiser inserts a new advertiser with its static API key.
func (s *Store) CreateAdvertiser(a models.Advertiser) error {
	_, err := s.conn.Exec(
		`INSERT INTO advertisers (id, name, api_key, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.Name, a.APIKey, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("create advertiser %s: %w", a.ID, err)
	}

	slog.Info("advertiser created", "advertiserId", a.ID, "name", a.Name)
	return nil
}

// GetAdvertiser returns an advertiser by id.
func (s *Store) GetAdvertiser(id string) (*models.Advertiser, error) {
	var a models.Advertiser
	err := s.conn.QueryRow(
		`SELECT id, name, api_key, created_at FROM advertisers WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.APIKey, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, config.ErrInvalidAPIKey
	}
	if err != nil {
		return nil, fmt.Errorf("get advertiser %s: %w", id, err)
	}
	return &a, nil
}

// AuthenticateAdvertiser verifies the static API key for an advertiser id.
// The comparison is constant-time; lookup failures and key mismatches are
// indistinguishable to the caller.
func (s *Store) AuthenticateAdvertiser(id, apiKey string) (*models.Advertiser, error) {
	a, err := s.GetAdvertiser(id)
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(a.APIKey), []byte(apiKey)) != 1 {
		slog.Warn("advertiser API key mismatch", "advertiserId", id)
		return nil, config.ErrInvalidAPIKey
	}
	return a, nil
}
