package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/maroffo/BehindBarsPulse/internal/config"
	"github.com/maroffo/BehindBarsPulse/internal/model"
)

// PostgresStore keeps the snapshot in a single-row table. Save inserts
// the new row and deletes the old ones in one transaction, the
// table-backed equivalent of write-new-then-replace.
type PostgresStore struct {
	db  *sql.DB
	cfg config.Config
	now func() time.Time
}

func NewPostgresStore(db *sql.DB, cfg config.Config) (*PostgresStore, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS narrative_snapshot (
			id BIGSERIAL PRIMARY KEY,
			version INT NOT NULL,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("ensure snapshot table: %w", err)
	}
	return &PostgresStore{db: db, cfg: cfg, now: time.Now}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (*model.MemorySnapshot, error) {
	var version int
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT version, payload FROM narrative_snapshot
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&version, &payload)

	if err == sql.ErrNoRows {
		slog.Info("no snapshot row found, starting empty")
		return model.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot row: %w", err)
	}

	if version != model.SnapshotVersion {
		return nil, fmt.Errorf("%w: found %d, want %d", ErrVersionMismatch, version, model.SnapshotVersion)
	}

	var snap model.MemorySnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot payload: %w", err)
	}
	return &snap, nil
}

func (s *PostgresStore) Save(ctx context.Context, snap *model.MemorySnapshot) error {
	now := s.now()
	prune(snap, s.cfg, now)
	snap.Version = model.SnapshotVersion
	snap.UpdatedAt = now

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO narrative_snapshot(version, payload, updated_at)
		VALUES($1, $2, $3)
		RETURNING id
	`, snap.Version, payload, snap.UpdatedAt).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM narrative_snapshot WHERE id <> $1
	`, id)
	if err != nil {
		return fmt.Errorf("drop old snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.Info("snapshot saved", "snapshot_row", id, "threads", len(snap.Threads))
	return nil
}

func (s *PostgresStore) Close() error { return nil }
