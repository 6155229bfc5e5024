package narrative

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/maroffo/BehindBarsPulse/internal/config"
	"github.com/maroffo/BehindBarsPulse/internal/model"
	"github.com/maroffo/BehindBarsPulse/internal/similarity"
)

func testEngineParts() (config.Config, similarity.Scorer) {
	cfg := config.Default()
	scorer := similarity.Scorer{
		StoryThreshold:     cfg.StoryThreshold,
		CharacterThreshold: cfg.CharacterThreshold,
		FollowUpThreshold:  cfg.FollowUpThreshold,
	}
	return cfg, scorer
}

func newTestMatcher() *Matcher {
	cfg, scorer := testEngineParts()
	return &Matcher{cfg: cfg, scorer: scorer}
}

var testNow = time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)

func TestMatcherResolve_CreatesThread(t *testing.T) {
	m := newTestMatcher()
	snap := model.NewSnapshot()
	var stats CycleStats

	candidates := []model.StoryCandidate{{
		Title:      "Decreto carceri approvato",
		Summary:    "Il governo approva il decreto carceri.",
		Keywords:   []string{"decreto carceri", "governo"},
		Impact:     0.7,
		ArticleIDs: []string{"art-1"},
	}}

	m.Resolve(snap, candidates, testNow, &stats)

	assert.Equal(t, 1, stats.StoriesCreated)
	assert.Equal(t, 1, len(snap.Threads))

	thread := snap.Threads[0]
	assert.Equal(t, model.ThreadActive, thread.Status)
	assert.Equal(t, 1, thread.MentionCount)
	assert.Equal(t, 70.0, thread.ImpactScore)
	assert.Equal(t, 1, len(thread.Mentions))
	assert.Equal(t, testNow, thread.LastSeenAt)
}

func TestMatcherResolve_MatchesExistingThread(t *testing.T) {
	m := newTestMatcher()
	snap := model.NewSnapshot()
	snap.Threads = []model.StoryThread{{
		ID:           "thread-1",
		Title:        "Decreto carceri in parlamento",
		Keywords:     []string{"decreto", "carceri", "sovraffollamento"},
		Status:       model.ThreadDormant,
		MentionCount: 3,
		ImpactScore:  50,
		LastSeenAt:   testNow.AddDate(0, 0, -20),
	}}
	var stats CycleStats

	candidates := []model.StoryCandidate{{
		Title:      "Nuove proteste dopo il decreto",
		Summary:    "Proteste nelle carceri dopo il decreto.",
		Keywords:   []string{"decreto carceri", "sovraffollamento", "proteste"},
		ArticleIDs: []string{"art-2"},
	}}

	m.Resolve(snap, candidates, testNow, &stats)

	assert.Equal(t, 1, stats.StoriesMatched)
	assert.Equal(t, 0, stats.StoriesCreated)
	assert.Equal(t, 1, len(snap.Threads))

	thread := snap.Threads[0]
	assert.Equal(t, model.ThreadActive, thread.Status)
	assert.Equal(t, 4, thread.MentionCount)
	assert.Equal(t, 56.0, thread.ImpactScore)
	assert.Equal(t, "Proteste nelle carceri dopo il decreto.", thread.Summary)
	assert.Equal(t, testNow, thread.LastSeenAt)
}

func TestMatcherResolve_DropsMalformedCandidate(t *testing.T) {
	m := newTestMatcher()
	snap := model.NewSnapshot()
	var stats CycleStats

	candidates := []model.StoryCandidate{
		{Title: "", Keywords: []string{"carceri"}},
		{Title: "Senza keywords"},
	}

	m.Resolve(snap, candidates, testNow, &stats)

	assert.Equal(t, 2, stats.StoriesDropped)
	assert.Equal(t, 0, len(snap.Threads))
}

func TestMatcherResolve_IntraBatchDuplicatesCollapse(t *testing.T) {
	m := newTestMatcher()
	snap := model.NewSnapshot()
	var stats CycleStats

	candidates := []model.StoryCandidate{
		{Title: "Rivolta nel carcere di Poggioreale", Keywords: []string{"rivolta", "poggioreale"}, ArticleIDs: []string{"art-1"}},
		{Title: "Rivolta a Poggioreale, feriti", Keywords: []string{"rivolta", "poggioreale", "feriti"}, ArticleIDs: []string{"art-2"}},
	}

	m.Resolve(snap, candidates, testNow, &stats)

	assert.Equal(t, 1, stats.StoriesCreated)
	assert.Equal(t, 1, stats.StoriesMatched)
	assert.Equal(t, 1, len(snap.Threads))
	assert.Equal(t, 2, snap.Threads[0].MentionCount)
	assert.Equal(t, 2, len(snap.Threads[0].Mentions))
}

func TestMatcherResolve_ReplayIsDeterministic(t *testing.T) {
	m := newTestMatcher()
	candidates := []model.StoryCandidate{{
		Title:      "Decreto carceri approvato",
		Keywords:   []string{"decreto carceri"},
		ArticleIDs: []string{"art-1"},
	}}

	first := model.NewSnapshot()
	second := model.NewSnapshot()
	var stats CycleStats

	m.Resolve(first, candidates, testNow, &stats)
	m.Resolve(second, candidates, testNow, &stats)

	assert.Equal(t, first.Threads[0].ID, second.Threads[0].ID)
}

func TestApplyMention_DeduplicatesArticles(t *testing.T) {
	m := newTestMatcher()
	thread := model.StoryThread{
		Status:      model.ThreadActive,
		ImpactScore: 50,
		Mentions:    []model.Mention{{At: testNow.AddDate(0, 0, -1), ArticleID: "art-1"}},
	}

	m.applyMention(&thread, model.StoryCandidate{ArticleIDs: []string{"art-1", "art-2"}}, testNow)

	assert.Equal(t, 2, len(thread.Mentions))
}

func TestApplyMention_ImpactStaysClamped(t *testing.T) {
	m := newTestMatcher()
	thread := model.StoryThread{Status: model.ThreadActive, ImpactScore: 99}

	for i := 0; i < 10; i++ {
		m.applyMention(&thread, model.StoryCandidate{}, testNow)
	}

	if thread.ImpactScore > 100 {
		t.Errorf("impact exceeded ceiling: %f", thread.ImpactScore)
	}
}

func TestSweep_DormancyAndDecay(t *testing.T) {
	m := newTestMatcher()
	snap := model.NewSnapshot()
	snap.UpdatedAt = testNow.AddDate(0, 0, -2)
	snap.Threads = []model.StoryThread{{
		ID:          "thread-1",
		Status:      model.ThreadActive,
		ImpactScore: 60,
		LastSeenAt:  testNow.AddDate(0, 0, -20),
	}}
	var stats CycleStats

	m.Sweep(snap, testNow, &stats)

	assert.Equal(t, 1, stats.ThreadsDormant)
	assert.Equal(t, model.ThreadDormant, snap.Threads[0].Status)
	assert.Equal(t, 57.0, snap.Threads[0].ImpactScore)
}

func TestSweep_ArchivesLongDormantThread(t *testing.T) {
	m := newTestMatcher()
	snap := model.NewSnapshot()
	snap.UpdatedAt = testNow.AddDate(0, 0, -1)
	snap.Threads = []model.StoryThread{{
		ID:         "thread-1",
		Status:     model.ThreadDormant,
		LastSeenAt: testNow.AddDate(0, 0, -50),
	}}
	var stats CycleStats

	m.Sweep(snap, testNow, &stats)

	assert.Equal(t, 1, stats.ThreadsArchived)
	assert.Equal(t, model.ThreadArchived, snap.Threads[0].Status)
	if snap.Threads[0].ArchivedAt == nil {
		t.Fatal("expected ArchivedAt to be set")
	}
}

func TestSweep_NoDecayOnFreshSnapshot(t *testing.T) {
	m := newTestMatcher()
	snap := model.NewSnapshot()
	snap.Threads = []model.StoryThread{{
		Status:      model.ThreadActive,
		ImpactScore: 60,
		LastSeenAt:  testNow,
	}}
	var stats CycleStats

	m.Sweep(snap, testNow, &stats)

	assert.Equal(t, 60.0, snap.Threads[0].ImpactScore)
}

func TestSweep_SkipsArchivedThreads(t *testing.T) {
	m := newTestMatcher()
	archivedAt := testNow.AddDate(0, 0, -10)
	snap := model.NewSnapshot()
	snap.UpdatedAt = testNow.AddDate(0, 0, -2)
	snap.Threads = []model.StoryThread{{
		Status:      model.ThreadArchived,
		ImpactScore: 30,
		ArchivedAt:  &archivedAt,
		LastSeenAt:  testNow.AddDate(0, 0, -60),
	}}
	var stats CycleStats

	m.Sweep(snap, testNow, &stats)

	assert.Equal(t, 30.0, snap.Threads[0].ImpactScore)
	assert.Equal(t, model.ThreadArchived, snap.Threads[0].Status)
}

func TestMergeKeywords_DeduplicatesAndCaps(t *testing.T) {
	got := mergeKeywords([]string{"decreto", "Carceri"}, []string{"carceri", "dap", "garante"}, 3)
	assert.Equal(t, []string{"decreto", "Carceri", "dap"}, got)
}
