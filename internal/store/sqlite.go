package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for detection history
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// DefaultDBPath returns the user-scoped history database location.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "regionctl-history.db"
	}
	return filepath.Join(home, ".local", "share", "regionctl", "history.db")
}

// New creates a new Store, opening the SQLite database and running migrations
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("detection history store ready", "path", dbPath)
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// RecordDetection inserts a new Detection and sets its ID. A zero
// DetectedAt is filled with the current time.
func (s *Store) RecordDetection(d *Detection) error {
	if d.DetectedAt.IsZero() {
		d.DetectedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO detections (
			region, china_success_rate, global_success_rate,
			china_avg_latency_ms, global_avg_latency_ms, detected_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(
		query,
		d.Region, d.ChinaSuccessRate, d.GlobalSuccessRate,
		d.ChinaAvgLatencyMs, d.GlobalAvgLatencyMs, d.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert detection: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	d.ID = id
	return nil
}

// LatestDetection returns the most recent Detection, or nil when the
// history is empty.
func (s *Store) LatestDetection() (*Detection, error) {
	const query = `
		SELECT id, region, china_success_rate, global_success_rate,
		       china_avg_latency_ms, global_avg_latency_ms, detected_at
		FROM detections
		ORDER BY detected_at DESC, id DESC
		LIMIT 1
	`

	d := &Detection{}
	err := s.db.QueryRow(query).Scan(
		&d.ID, &d.Region, &d.ChinaSuccessRate, &d.GlobalSuccessRate,
		&d.ChinaAvgLatencyMs, &d.GlobalAvgLatencyMs, &d.DetectedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest detection: %w", err)
	}
	return d, nil
}

// ListDetections returns up to limit detections, most recent first.
func (s *Store) ListDetections(limit int) ([]*Detection, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
		SELECT id, region, china_success_rate, global_success_rate,
		       china_avg_latency_ms, global_avg_latency_ms, detected_at
		FROM detections
		ORDER BY detected_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var detections []*Detection
	for rows.Next() {
		d := &Detection{}
		if err := rows.Scan(
			&d.ID, &d.Region, &d.ChinaSuccessRate, &d.GlobalSuccessRate,
			&d.ChinaAvgLatencyMs, &d.GlobalAvgLatencyMs, &d.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate detections: %w", err)
	}

	return detections, nil
}
