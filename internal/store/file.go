package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maroffo/BehindBarsPulse/internal/config"
	"github.com/maroffo/BehindBarsPulse/internal/model"
)

// FileStore keeps the snapshot in a single JSON file. Saves write a
// temp file next to it and rename over, so a crashed or failed save
// never leaves a truncated snapshot behind.
type FileStore struct {
	path string
	cfg  config.Config
	now  func() time.Time
}

func NewFileStore(path string, cfg config.Config) *FileStore {
	return &FileStore{path: path, cfg: cfg, now: time.Now}
}

func (s *FileStore) Load(ctx context.Context) (*model.MemorySnapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		slog.Info("no snapshot found, starting empty", "path", s.path)
		return model.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap model.MemorySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if snap.Version != model.SnapshotVersion {
		return nil, fmt.Errorf("%w: found %d, want %d", ErrVersionMismatch, snap.Version, model.SnapshotVersion)
	}

	slog.Info("snapshot loaded", "path", s.path,
		"threads", len(snap.Threads), "characters", len(snap.Characters), "followups", len(snap.FollowUps))
	return &snap, nil
}

func (s *FileStore) Save(ctx context.Context, snap *model.MemorySnapshot) error {
	now := s.now()
	prune(snap, s.cfg, now)
	snap.Version = model.SnapshotVersion
	snap.UpdatedAt = now

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	slog.Info("snapshot saved", "path", s.path, "threads", len(snap.Threads))
	return nil
}

func (s *FileStore) Close() error { return nil }
