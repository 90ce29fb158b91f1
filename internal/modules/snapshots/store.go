// Package snapshots persists the most recent raw record snapshot so the
// dashboard can serve a tree immediately after a restart, before the first
// live fetch completes. This is boundary persistence only: the engine itself
// still rebuilds purely in memory from whichever snapshot it is handed.
package snapshots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/fabricpulse/rtms/internal/modules/normalize"
)

// Snapshot is one fetched batch of raw records with its fetch time.
type Snapshot struct {
	ID        string                `json:"id"`
	FetchedAt time.Time             `json:"fetched_at"`
	Records   []normalize.RawRecord `json:"records"`
}

// Store keeps exactly one snapshot (the latest) in the cache database,
// msgpack-encoded. Older rows are removed on every save.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a snapshot store.
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

// Migrate creates the snapshot table if missing.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			fetched_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create snapshots table: %w", err)
	}
	return nil
}

// NewSnapshot wraps a raw record batch with identity and fetch time.
func NewSnapshot(records []normalize.RawRecord, fetchedAt time.Time) Snapshot {
	return Snapshot{
		ID:        uuid.New().String(),
		FetchedAt: fetchedAt,
		Records:   records,
	}
}

// SaveLatest stores the snapshot and drops every older one.
func (s *Store) SaveLatest(snap Snapshot) error {
	payload, err := msgpack.Marshal(snap.Records)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot payload: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot save: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM snapshots"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to clear previous snapshots: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO snapshots (id, fetched_at, payload) VALUES (?, ?, ?)",
		snap.ID, snap.FetchedAt.Unix(), payload,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot save: %w", err)
	}

	s.log.Debug().
		Str("snapshot_id", snap.ID).
		Int("records", len(snap.Records)).
		Msg("Snapshot persisted")
	return nil
}

// Latest loads the stored snapshot. Returns (nil, nil) when none exists.
func (s *Store) Latest() (*Snapshot, error) {
	row := s.db.QueryRow("SELECT id, fetched_at, payload FROM snapshots ORDER BY fetched_at DESC LIMIT 1")

	var snap Snapshot
	var fetchedAt int64
	var payload []byte
	if err := row.Scan(&snap.ID, &fetchedAt, &payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if err := msgpack.Unmarshal(payload, &snap.Records); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot payload: %w", err)
	}
	snap.FetchedAt = time.Unix(fetchedAt, 0).UTC()
	return &snap, nil
}
