package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/joeyeti/datasworn/internal/types"
)

// Store records ID history. Safe for concurrent use.
type Store struct {
	db      *sqlx.DB
	queries *Queries
}

// NewStore wraps an open, migrated database.
func NewStore(db *sqlx.DB) (*Store, error) {
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, queries: queries}, nil
}

// Queries exposes the named queries, e.g. for the API key authenticator.
func (s *Store) Queries() *Queries {
	return s.queries
}

// IndexEntry is one ID published by a content version.
type IndexEntry struct {
	ID       string `db:"id"`
	TypePath string `db:"type_path"`
}

// Mapping maps a legacy ID to its current ID. A nil NewID marks the legacy
// ID as removed.
type Mapping struct {
	OldID string  `db:"old_id"`
	NewID *string `db:"new_id"`
}

// Run summarizes one recorded document migration.
type Run struct {
	RunID       types.RunID `db:"run_id"`
	Source      string      `db:"source"`
	StartedAt   time.Time   `db:"started_at"`
	StringsSeen int         `db:"strings_seen"`
	Migrated    int         `db:"migrated"`
	Removed     int         `db:"removed"`
	Unmigrated  int         `db:"unmigrated"`
}

// RecordIndex replaces the IDs recorded for version.
func (s *Store) RecordIndex(ctx context.Context, version string, entries []IndexEntry) error {
	return s.inTx(ctx, func(q *Queries) error {
		if _, err := q.ExecContext(ctx, "delete-index-version", version); err != nil {
			return fmt.Errorf("failed to clear index %s: %w", version, err)
		}
		for _, e := range entries {
			if _, err := q.ExecContext(ctx, "insert-index-entry", version, e.ID, e.TypePath); err != nil {
				return fmt.Errorf("failed to record %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

// Versions returns the content versions with a recorded index.
func (s *Store) Versions(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.queries.SelectContext(ctx, "list-index-versions", &out); err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return out, nil
}

// Index returns the IDs recorded for version, sorted.
func (s *Store) Index(ctx context.Context, version string) ([]IndexEntry, error) {
	var out []IndexEntry
	if err := s.queries.SelectContext(ctx, "list-index-entries", &out, version); err != nil {
		return nil, fmt.Errorf("failed to list index %s: %w", version, err)
	}
	return out, nil
}

// RecordMappings inserts or replaces explicit legacy ID mappings.
func (s *Store) RecordMappings(ctx context.Context, mappings []Mapping) error {
	now := time.Now().UTC()
	return s.inTx(ctx, func(q *Queries) error {
		for _, m := range mappings {
			if _, err := q.ExecContext(ctx, "upsert-legacy-mapping", m.OldID, m.NewID, now); err != nil {
				return fmt.Errorf("failed to record mapping %s: %w", m.OldID, err)
			}
		}
		return nil
	})
}

// IDMap returns every recorded mapping in the shape migration.Config takes.
func (s *Store) IDMap(ctx context.Context) (map[string]*string, error) {
	var rows []Mapping
	if err := s.queries.SelectContext(ctx, "list-legacy-mappings", &rows); err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	out := make(map[string]*string, len(rows))
	for _, r := range rows {
		out[r.OldID] = r.NewID
	}
	return out, nil
}

// ChangedWithoutMapping returns the IDs of version prev that are absent from
// version cur and have no explicit mapping, sorted. These are the IDs a
// content change broke without saying where they went.
func (s *Store) ChangedWithoutMapping(ctx context.Context, prev, cur string) ([]string, error) {
	var out []string
	if err := s.queries.SelectContext(ctx, "changed-without-mapping", &out, prev, cur); err != nil {
		return nil, fmt.Errorf("failed to compare %s and %s: %w", prev, cur, err)
	}
	return out, nil
}

// RecordRun stores a migration run summary. A zero RunID is replaced with a
// new UUIDv7.
func (s *Store) RecordRun(ctx context.Context, run Run) (types.RunID, error) {
	if run.RunID == "" {
		run.RunID = types.NewRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = types.RunIDTime(run.RunID)
	}
	_, err := s.queries.ExecContext(ctx, "insert-migration-run",
		string(run.RunID), run.Source, run.StartedAt.UTC(),
		run.StringsSeen, run.Migrated, run.Removed, run.Unmigrated)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return run.RunID, nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	var out []Run
	if err := s.queries.SelectContext(ctx, "list-migration-runs", &out, limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return out, nil
}

// APIKey is a stored API key. The key itself is never stored.
type APIKey struct {
	ID         string       `db:"api_key_id"`
	Name       string       `db:"name"`
	SecretID   string       `db:"secret_id"`
	CreatedAt  time.Time    `db:"created_at"`
	LastUsedAt sql.NullTime `db:"last_used_at"`
	RevokedAt  sql.NullTime `db:"revoked_at"`
}

// CreateAPIKey stores the HMAC of a new key and returns its ID.
func (s *Store) CreateAPIKey(ctx context.Context, name, secretID string, keyHash []byte) (string, error) {
	id := string(types.NewRunID())
	if _, err := s.queries.ExecContext(ctx, "insert-api-key", id, name, secretID, keyHash, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("failed to store API key: %w", err)
	}
	return id, nil
}

// RevokeAPIKey marks a key revoked. Returns ErrNotFound when no active key
// has the ID.
func (s *Store) RevokeAPIKey(ctx context.Context, id string) error {
	res, err := s.queries.ExecContext(ctx, "revoke-api-key", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: active API key %s", types.ErrNotFound, id)
	}
	return nil
}

// APIKeys lists stored keys, oldest first.
func (s *Store) APIKeys(ctx context.Context) ([]APIKey, error) {
	var out []APIKey
	if err := s.queries.SelectContext(ctx, "list-api-keys", &out); err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	return out, nil
}

func (s *Store) inTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(s.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
