// Package store persists the narrative memory snapshot. Both backends
// follow the same discipline: write the new snapshot fully, then make
// it the visible one, so a failed save leaves the previous snapshot
// authoritative.
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/maroffo/BehindBarsPulse/internal/config"
	"github.com/maroffo/BehindBarsPulse/internal/model"
)

// ErrVersionMismatch means the persisted snapshot uses a different
// format version. Load never coerces; the caller must fail the run.
var ErrVersionMismatch = errors.New("snapshot format version mismatch")

type Store interface {
	// Load returns the current snapshot, or a fresh empty one if
	// nothing was ever persisted.
	Load(ctx context.Context) (*model.MemorySnapshot, error)

	// Save prunes and persists the snapshot atomically.
	Save(ctx context.Context, snap *model.MemorySnapshot) error

	Close() error
}

// prune enforces the retention ceilings on every save: archived
// threads and terminal follow-ups past the retention window are
// dropped outright, and entity-count caps are applied.
func prune(snap *model.MemorySnapshot, cfg config.Config, now time.Time) {
	ceiling := now.AddDate(0, 0, -cfg.RetentionDays)

	threads := snap.Threads[:0]
	for _, t := range snap.Threads {
		if t.Status == model.ThreadArchived && t.ArchivedAt != nil && t.ArchivedAt.Before(ceiling) {
			continue
		}
		threads = append(threads, t)
	}
	snap.Threads = threads

	if over := len(snap.Threads) - cfg.MaxThreads; over > 0 {
		snap.Threads = dropOldestArchived(snap.Threads, over)
	}

	followups := snap.FollowUps[:0]
	for _, f := range snap.FollowUps {
		if f.Status != model.FollowUpPending && f.ExpectedDate.Before(ceiling) {
			continue
		}
		followups = append(followups, f)
	}
	snap.FollowUps = followups

	if over := len(snap.Characters) - cfg.MaxCharacters; over > 0 {
		sort.SliceStable(snap.Characters, func(i, j int) bool {
			return snap.Characters[i].LastSeenAt.After(snap.Characters[j].LastSeenAt)
		})
		snap.Characters = snap.Characters[:cfg.MaxCharacters]
	}
}

// dropOldestArchived removes up to n archived threads, oldest archival
// first. Active and dormant threads are never dropped by the cap.
func dropOldestArchived(threads []model.StoryThread, n int) []model.StoryThread {
	archived := make([]int, 0, n)
	for i, t := range threads {
		if t.Status == model.ThreadArchived {
			archived = append(archived, i)
		}
	}
	sort.SliceStable(archived, func(a, b int) bool {
		ta, tb := threads[archived[a]], threads[archived[b]]
		switch {
		case ta.ArchivedAt == nil:
			return true
		case tb.ArchivedAt == nil:
			return false
		default:
			return ta.ArchivedAt.Before(*tb.ArchivedAt)
		}
	})

	drop := make(map[int]bool, n)
	for i := 0; i < len(archived) && i < n; i++ {
		drop[archived[i]] = true
	}

	out := threads[:0]
	for i, t := range threads {
		if drop[i] {
			continue
		}
		out = append(out, t)
	}
	return out
}
