// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package ridelog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openvelo/turbostat/pkg/turbohmi"
)

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp  DATETIME NOT NULL,
	sender     INTEGER NOT NULL,
	channel    INTEGER NOT NULL,
	field      TEXT NOT NULL,
	raw        INTEGER NOT NULL,
	value      TEXT NOT NULL,
	unit       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samples_field ON samples(field, timestamp);
`

// Store persists decoded samples to a SQLite ride database.
type Store struct {
	db *sql.DB
}

// Sample is one persisted reading.
type Sample struct {
	Timestamp time.Time
	Sender    uint8
	Channel   uint8
	Field     string
	Raw       uint64
	Value     string
	Unit      string
}

// OpenStore opens (and if necessary initializes) a ride database. Use
// ":memory:" for an ephemeral store.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ride database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ride database: %w", err)
	}
	return &Store{db: db}, nil
}

// InsertMessage persists one decoded message. Unknown fields are stored
// under an empty field name so raw traffic is never lost.
func (s *Store) InsertMessage(ctx context.Context, m *turbohmi.Message) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO samples (timestamp, sender, channel, field, raw, value, unit)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ts, m.Sender, m.Channel, m.Name, int64(m.Raw), m.Value.String(), m.Unit)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// Latest returns the most recent sample per field name.
func (s *Store) Latest(ctx context.Context) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, sender, channel, field, raw, value, unit
		FROM samples
		WHERE field != '' AND id IN (
			SELECT MAX(id) FROM samples GROUP BY field
		)
		ORDER BY field`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest samples: %w", err)
	}
	defer rows.Close()
	return scanSamples(rows)
}

// History returns all samples for one field, oldest first.
func (s *Store) History(ctx context.Context, field string, limit int) ([]Sample, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, sender, channel, field, raw, value, unit
		FROM samples WHERE field = ?
		ORDER BY id DESC LIMIT ?`, field, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()
	samples, err := scanSamples(rows)
	if err != nil {
		return nil, err
	}
	// Reverse to oldest-first.
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
	return samples, nil
}

// Count returns the total number of stored samples.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanSamples(rows *sql.Rows) ([]Sample, error) {
	var out []Sample
	for rows.Next() {
		var smp Sample
		var raw int64
		if err := rows.Scan(&smp.Timestamp, &smp.Sender, &smp.Channel,
			&smp.Field, &raw, &smp.Value, &smp.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		smp.Raw = uint64(raw)
		out = append(out, smp)
	}
	return out, rows.Err()
}
