package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/maroffo/BehindBarsPulse/internal/config"
	"github.com/maroffo/BehindBarsPulse/internal/model"
)

var storeNow = time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s := NewFileStore(filepath.Join(t.TempDir(), "snapshot.json"), config.Default())
	s.now = func() time.Time { return storeNow }
	return s
}

func TestFileStore_LoadMissingReturnsEmpty(t *testing.T) {
	s := newTestFileStore(t)

	snap, err := s.Load(context.Background())

	assert.Equal(t, nil, err)
	assert.Equal(t, model.SnapshotVersion, snap.Version)
	assert.Equal(t, 0, len(snap.Threads))
}

func TestFileStore_Roundtrip(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	snap := model.NewSnapshot()
	snap.Threads = []model.StoryThread{{
		ID:          "thread-1",
		Title:       "Decreto carceri",
		Keywords:    []string{"decreto", "carceri"},
		Status:      model.ThreadActive,
		ImpactScore: 62,
		LastSeenAt:  storeNow,
	}}
	snap.Characters = []model.KeyCharacter{{ID: "char-1", Name: "Carlo Nordio", LastSeenAt: storeNow}}
	snap.FollowUps = []model.FollowUp{{
		ID:           "fu-1",
		Description:  "sentenza attesa",
		ExpectedDate: storeNow.AddDate(0, 0, 10),
		Status:       model.FollowUpPending,
	}}

	err := s.Save(ctx, snap)
	assert.Equal(t, nil, err)

	loaded, err := s.Load(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, storeNow, loaded.UpdatedAt)
	assert.Equal(t, 1, len(loaded.Threads))
	assert.Equal(t, "Decreto carceri", loaded.Threads[0].Title)
	assert.Equal(t, 62.0, loaded.Threads[0].ImpactScore)
	assert.Equal(t, 1, len(loaded.Characters))
	assert.Equal(t, 1, len(loaded.FollowUps))
}

func TestFileStore_LoadVersionMismatch(t *testing.T) {
	s := newTestFileStore(t)

	err := os.WriteFile(s.path, []byte(`{"version": 99}`), 0o644)
	assert.Equal(t, nil, err)

	_, err = s.Load(context.Background())
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestFileStore_LoadCorruptFile(t *testing.T) {
	s := newTestFileStore(t)

	err := os.WriteFile(s.path, []byte("{not json"), 0o644)
	assert.Equal(t, nil, err)

	_, err = s.Load(context.Background())
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFileStore_SaveLeavesNoTempFile(t *testing.T) {
	s := newTestFileStore(t)

	err := s.Save(context.Background(), model.NewSnapshot())
	assert.Equal(t, nil, err)

	if _, err := os.Stat(s.path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind after save")
	}
}

func TestSave_PrunesExpiredArchivedThreads(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	oldArchive := storeNow.AddDate(0, 0, -120)
	recentArchive := storeNow.AddDate(0, 0, -10)

	snap := model.NewSnapshot()
	snap.Threads = []model.StoryThread{
		{ID: "gone", Status: model.ThreadArchived, ArchivedAt: &oldArchive},
		{ID: "kept-archived", Status: model.ThreadArchived, ArchivedAt: &recentArchive},
		{ID: "kept-active", Status: model.ThreadActive, LastSeenAt: storeNow},
	}

	err := s.Save(ctx, snap)
	assert.Equal(t, nil, err)

	loaded, err := s.Load(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(loaded.Threads))
	assert.Equal(t, "kept-archived", loaded.Threads[0].ID)
	assert.Equal(t, "kept-active", loaded.Threads[1].ID)
}

func TestSave_PrunesStaleTerminalFollowUps(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	snap := model.NewSnapshot()
	snap.FollowUps = []model.FollowUp{
		{ID: "gone", Status: model.FollowUpExpired, ExpectedDate: storeNow.AddDate(0, 0, -120)},
		{ID: "kept-pending", Status: model.FollowUpPending, ExpectedDate: storeNow.AddDate(0, 0, -120)},
		{ID: "kept-resolved", Status: model.FollowUpResolved, ExpectedDate: storeNow.AddDate(0, 0, -10)},
	}

	err := s.Save(ctx, snap)
	assert.Equal(t, nil, err)

	loaded, err := s.Load(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(loaded.FollowUps))
	assert.Equal(t, "kept-pending", loaded.FollowUps[0].ID)
	assert.Equal(t, "kept-resolved", loaded.FollowUps[1].ID)
}

func TestPrune_ThreadCapDropsArchivedOnly(t *testing.T) {
	cfg := config.Default()
	cfg.MaxThreads = 2

	older := storeNow.AddDate(0, 0, -30)
	newer := storeNow.AddDate(0, 0, -5)

	snap := model.NewSnapshot()
	snap.Threads = []model.StoryThread{
		{ID: "archived-old", Status: model.ThreadArchived, ArchivedAt: &older},
		{ID: "active", Status: model.ThreadActive, LastSeenAt: storeNow},
		{ID: "archived-new", Status: model.ThreadArchived, ArchivedAt: &newer},
	}

	prune(snap, cfg, storeNow)

	assert.Equal(t, 2, len(snap.Threads))
	assert.Equal(t, "active", snap.Threads[0].ID)
	assert.Equal(t, "archived-new", snap.Threads[1].ID)
}

func TestPrune_CharacterCapKeepsMostRecent(t *testing.T) {
	cfg := config.Default()
	cfg.MaxCharacters = 2

	snap := model.NewSnapshot()
	snap.Characters = []model.KeyCharacter{
		{ID: "oldest", LastSeenAt: storeNow.AddDate(0, 0, -30)},
		{ID: "newest", LastSeenAt: storeNow},
		{ID: "middle", LastSeenAt: storeNow.AddDate(0, 0, -10)},
	}

	prune(snap, cfg, storeNow)

	assert.Equal(t, 2, len(snap.Characters))
	assert.Equal(t, "newest", snap.Characters[0].ID)
	assert.Equal(t, "middle", snap.Characters[1].ID)
}
