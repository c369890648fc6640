// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package store persists extraction summaries in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/maruel/go-bmt/bmt"

	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no extraction matches.
var ErrNotFound = errors.New("store: not found")

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	run_id   TEXT PRIMARY KEY,
	identity TEXT NOT NULL,
	width    INTEGER NOT NULL,
	height   INTEGER NOT NULL,
	kind     TEXT NOT NULL,
	min      REAL,
	max      REAL,
	avg      REAL,
	summary  TEXT NOT NULL,
	created  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS extractions_identity ON extractions(identity, created);
`

var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Record is one stored extraction.
type Record struct {
	RunID   uuid.UUID    `json:"run_id"`
	Created time.Time    `json:"created"`
	Summary *bmt.Summary `json:"summary"`
}

// Store is an SQLite backed log of extractions.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save records the summary of one extraction under a new run ID.
func (s *Store) Save(ctx context.Context, sum *bmt.Summary) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, err
	}
	b, err := json.Marshal(sum)
	if err != nil {
		return uuid.Nil, err
	}
	var w, h int
	kind := "none"
	var lo, hi, avg sql.NullFloat64
	if t := sum.Thermal; t != nil {
		w, h, kind = t.Width, t.Height, t.Kind
		lo = sql.NullFloat64{Float64: t.Stats.Min, Valid: true}
		hi = sql.NullFloat64{Float64: t.Stats.Max, Valid: true}
		avg = sql.NullFloat64{Float64: t.Stats.Avg, Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO extractions (run_id, identity, width, height, kind, min, max, avg, summary, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), sum.Identity, w, h, kind, lo, hi, avg, string(b), time.Now().UnixNano())
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: save %s: %w", sum.Identity, err)
	}
	return id, nil
}

// Latest returns the most recent extraction of identity.
func (s *Store) Latest(ctx context.Context, identity string) (*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, summary, created FROM extractions WHERE identity = ? ORDER BY created DESC, run_id DESC LIMIT 1`,
		identity)
	if err != nil {
		return nil, err
	}
	out, err := scan(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// List returns up to limit extractions, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, summary, created FROM extractions ORDER BY created DESC, run_id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	return scan(rows)
}

func scan(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var id, summary string
		var created int64
		if err := rows.Scan(&id, &summary, &created); err != nil {
			return nil, err
		}
		r := Record{Created: time.Unix(0, created), Summary: &bmt.Summary{}}
		var err error
		if r.RunID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("store: run %q: %w", id, err)
		}
		if err := json.Unmarshal([]byte(summary), r.Summary); err != nil {
			return nil, fmt.Errorf("store: run %s: %w", id, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
