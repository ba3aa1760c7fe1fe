package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// EnsureUser creates the user row on first authentication. Existing rows are
// left untouched (the principal id is immutable once created).
func (s *Store) EnsureUser(id string) error {
	_, err := s.conn.Exec(
		`INSERT OR IGNORE INTO users (id, created_at) VALUES (?, ?)`,
		id, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("ensure user %s: %w", id, err)
	}
	return nil
}

// GetUser returns a user by id, or config.ErrUserNotFound.
func (s *Store) GetUser(id string) (*models.User, error) {
	var u models.User
	err := s.conn.QueryRow(
		`SELECT id, wallet_address, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.WalletAddress, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, config.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

// GetUserByIDOrWallet resolves a referral code: it matches either the
// principal id or the connected wallet address.
func (s *Store) GetUserByIDOrWallet(code string) (*models.User, error) {
	var u models.User
	err := s.conn.QueryRow(
		`SELECT id, wallet_address, created_at FROM users
		 WHERE id = ? OR (wallet_address != '' AND wallet_address = ?)`,
		code, code,
	).Scan(&u.ID, &u.WalletAddress, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, config.ErrReferrerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user by code: %w", err)
	}
	return &u, nil
}

// SetWalletAddress records the user's connected wallet.
func (s *Store) SetWalletAddress(userID, wallet string) error {
	res, err := s.conn.Exec(
		`UPDATE users SET wallet_address = ? WHERE id = ?`, wallet, userID,
	)
	if err != nil {
		return fmt.Errorf("set wallet for user %s: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return config.ErrUserNotFound
	}

	slog.Info("wallet address updated", "userId", userID)
	return nil
}
