package report

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrSnapshotNotFound indicates no snapshot exists for the month.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persists monthly KPI snapshots in SQLite. Snapshots are
// stored as JSON blobs keyed by month, so the schema survives metric
// additions.
type SnapshotStore struct {
	db *sql.DB
}

// OpenSnapshotStore opens (and initializes) the snapshot database.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kpi_snapshots (
		month TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kpi_snapshots table: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save upserts the snapshot for its month.
func (s *SnapshotStore) Save(k MonthlyKPI) error {
	data, err := json.Marshal(k)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO kpi_snapshots (month, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(month) DO UPDATE SET
			data = ?,
			updated_at = CURRENT_TIMESTAMP
	`, k.Month, string(data), string(data))
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return nil
}

// Load returns the snapshot for the given month key (e.g. "2026-07").
func (s *SnapshotStore) Load(month string) (MonthlyKPI, error) {
	row := s.db.QueryRow("SELECT data FROM kpi_snapshots WHERE month = ?", month)

	var dataStr string
	err := row.Scan(&dataStr)
	if err == sql.ErrNoRows {
		return MonthlyKPI{}, ErrSnapshotNotFound
	}
	if err != nil {
		return MonthlyKPI{}, fmt.Errorf("failed to query snapshot: %w", err)
	}

	var k MonthlyKPI
	if err := json.Unmarshal([]byte(dataStr), &k); err != nil {
		return MonthlyKPI{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return k, nil
}

// Months lists the stored month keys, newest first.
func (s *SnapshotStore) Months() ([]string, error) {
	rows, err := s.db.Query("SELECT month FROM kpi_snapshots ORDER BY month DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var months []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		months = append(months, m)
	}
	return months, rows.Err()
}
