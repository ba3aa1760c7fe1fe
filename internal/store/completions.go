package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

const completionColumns = `id, user_id, mission_id, status, COALESCE(completed_at, ''),
	issuance_state, issuance_tx_ref, issuance_reason, reward_cents, budget_charged`

func scanCompletion(row interface {
	Scan(dest ...interface{}) error
}) (*models.UserMission, error) {
	var um models.UserMission
	var charged int
	err := row.Scan(&um.ID, &um.UserID, &um.MissionID, &um.Status, &um.CompletedAt,
		&um.Issuance.State, &um.Issuance.TxRef, &um.Issuance.Reason,
		&um.Issuance.Value, &charged)
	if err != nil {
		return nil, err
	}
	um.Issuance.BudgetCharged = charged != 0
	return &um, nil
}

// GetCompletion returns the (user, mission) completion record, or nil if the
// user has never attempted the mission.
func (s *Store) GetCompletion(userID, missionID string) (*models.UserMission, error) {
	row := s.conn.QueryRow(
		`SELECT `+completionColumns+` FROM user_missions WHERE user_id = ? AND mission_id = ?`,
		userID, missionID,
	)
	um, err := scanCompletion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion %s/%s: %w", userID, missionID, err)
	}
	return um, nil
}

// RecordCompletion writes the COMPLETED row for (user, mission). This is the
// uniqueness-guaranteeing write and it happens before any ledger spend: for a
// non-repeatable mission a concurrent double-submit loses here, surfacing as
// config.ErrAlreadyCompleted without a second issuance.
//
// For repeatable missions an existing row is refreshed in place (same id, new
// completion timestamp, issuance reset for the new attempt).
func (s *Store) RecordCompletion(completionID, userID, missionID string, repeatable bool) (string, error) {
	now := nowUTC()

	if repeatable {
		_, err := s.conn.Exec(
			`INSERT INTO user_missions (id, user_id, mission_id, status, completed_at, issuance_state)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(user_id, mission_id) DO UPDATE SET
			   status = excluded.status,
			   completed_at = excluded.completed_at,
			   issuance_state = excluded.issuance_state,
			   issuance_tx_ref = '',
			   issuance_reason = '',
			   reward_cents = 0,
			   budget_charged = 0`,
			completionID, userID, missionID, string(models.CompletionCompleted), now,
			string(models.IssuancePending),
		)
		if err != nil {
			return "", fmt.Errorf("record repeatable completion %s/%s: %w", userID, missionID, err)
		}

		// The conflict path keeps the original row id.
		var id string
		err = s.conn.QueryRow(
			`SELECT id FROM user_missions WHERE user_id = ? AND mission_id = ?`,
			userID, missionID,
		).Scan(&id)
		if err != nil {
			return "", fmt.Errorf("resolve completion id %s/%s: %w", userID, missionID, err)
		}
		return id, nil
	}

	_, err := s.conn.Exec(
		`INSERT INTO user_missions (id, user_id, mission_id, status, completed_at, issuance_state)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		completionID, userID, missionID, string(models.CompletionCompleted), now,
		string(models.IssuancePending),
	)
	if isUniqueViolation(err) {
		slog.Warn("completion raced by concurrent submit", "userId", userID, "missionId", missionID)
		return "", config.ErrAlreadyCompleted
	}
	if err != nil {
		return "", fmt.Errorf("record completion %s/%s: %w", userID, missionID, err)
	}

	slog.Info("mission completion recorded",
		"completionId", completionID,
		"userId", userID,
		"missionId", missionID,
	)
	return completionID, nil
}

// UpdateIssuanceOutcome rewrites the issuance fields of a completion. The
// completion row itself is immutable once COMPLETED; only the reward-delivery
// outcome changes as ledger attempts resolve.
func (s *Store) UpdateIssuanceOutcome(completionID string, out models.IssuanceOutcome) error {
	charged := 0
	if out.BudgetCharged {
		charged = 1
	}
	res, err := s.conn.Exec(
		`UPDATE user_missions
		 SET issuance_state = ?, issuance_tx_ref = ?, issuance_reason = ?,
		     reward_cents = ?, budget_charged = ?
		 WHERE id = ?`,
		string(out.State), out.TxRef, out.Reason, int64(out.Value), charged, completionID,
	)
	if err != nil {
		return fmt.Errorf("update issuance outcome for %s: %w", completionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update issuance outcome for %s: no such completion", completionID)
	}

	slog.Debug("issuance outcome updated",
		"completionId", completionID,
		"state", out.State,
		"txRef", out.TxRef,
	)
	return nil
}

// ListCompletionsByUser returns all completion records for a user.
func (s *Store) ListCompletionsByUser(userID string) ([]models.UserMission, error) {
	rows, err := s.conn.Query(
		`SELECT `+completionColumns+` FROM user_missions WHERE user_id = ? ORDER BY completed_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions for user %s: %w", userID, err)
	}
	defer rows.Close()

	var completions []models.UserMission
	for rows.Next() {
		um, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion row: %w", err)
		}
		completions = append(completions, *um)
	}
	return completions, rows.Err()
}
