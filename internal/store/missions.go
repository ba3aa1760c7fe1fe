package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

const missionColumns = `id, type, title, boost_multiplier, boost_duration_hours, repeatable, created_at`

func scanMission(row interface {
	Scan(dest ...interface{}) error
}) (*models.Mission, error) {
	var m models.Mission
	var repeatable int
	err := row.Scan(&m.ID, &m.Type, &m.Title, &m.BoostMultiplier, &m.BoostDurationHours, &repeatable, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Repeatable = repeatable != 0
	return &m, nil
}

// CreateMission inserts a mission template. Missions are created when a
// campaign is authored and are read-only at settlement time.
func (s *Store) CreateMission(m models.Mission) error {
	repeatable := 0
	if m.Repeatable {
		repeatable = 1
	}
	_, err := s.conn.Exec(
		`INSERT INTO missions (id, type, title, boost_multiplier, boost_duration_hours, repeatable, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Type, m.Title, m.BoostMultiplier, m.BoostDurationHours, repeatable, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("create mission %s: %w", m.ID, err)
	}
	return nil
}

// GetMission returns a mission by id, or config.ErrMissionNotFound.
func (s *Store) GetMission(id string) (*models.Mission, error) {
	row := s.conn.QueryRow(`SELECT `+missionColumns+` FROM missions WHERE id = ?`, id)
	m, err := scanMission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, config.ErrMissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mission %s: %w", id, err)
	}
	return m, nil
}

// ListMissions returns the mission catalog ordered by creation time.
func (s *Store) ListMissions() ([]models.Mission, error) {
	rows, err := s.conn.Query(`SELECT ` + missionColumns + ` FROM missions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	var missions []models.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mission row: %w", err)
		}
		missions = append(missions, *m)
	}
	return missions, rows.Err()
}
