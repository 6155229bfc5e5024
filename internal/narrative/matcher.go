package narrative

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maroffo/BehindBarsPulse/internal/config"
	"github.com/maroffo/BehindBarsPulse/internal/model"
	"github.com/maroffo/BehindBarsPulse/internal/similarity"
)

// Matcher resolves story candidates against tracked threads and owns
// the thread lifecycle sweep.
type Matcher struct {
	cfg    config.Config
	scorer similarity.Scorer
}

// Thread IDs are derived from content so that replaying the same batch
// against the same snapshot reproduces the same snapshot.
func newThreadID(title string, day time.Time) string {
	key := "pulse:thread:" + similarity.NormalizeName(title) + ":" + day.Format("2006-01-02")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// Sweep applies impact decay and the active→dormant→archived
// transitions. Decay covers the span since the snapshot was last
// persisted, so repeated cycles never double-charge the same days.
func (m *Matcher) Sweep(snap *model.MemorySnapshot, now time.Time, stats *CycleStats) {
	var elapsedDays float64
	if !snap.UpdatedAt.IsZero() && now.After(snap.UpdatedAt) {
		elapsedDays = now.Sub(snap.UpdatedAt).Hours() / 24
	}

	for i := range snap.Threads {
		t := &snap.Threads[i]
		if t.Status == model.ThreadArchived {
			continue
		}

		if elapsedDays > 0 {
			t.ImpactScore -= elapsedDays * m.cfg.ImpactDecayPerDay
			if t.ImpactScore < 0 {
				t.ImpactScore = 0
			}
		}

		idle := now.Sub(t.LastSeenAt)
		switch t.Status {
		case model.ThreadActive:
			if idle > days(m.cfg.DormancyDays) {
				t.Status = model.ThreadDormant
				stats.ThreadsDormant++
			}
		case model.ThreadDormant:
			if idle > days(m.cfg.ArchivalDays) {
				t.Status = model.ThreadArchived
				at := now
				t.ArchivedAt = &at
				stats.ThreadsArchived++
				slog.Info("thread archived", "thread_id", t.ID, "title", t.Title)
			}
		}
	}
}

// Resolve matches every valid candidate to a thread or creates one.
// Scoring against the loaded snapshot runs concurrently; resolution is
// serialized so two candidates for the same new story cannot both
// create a thread.
func (m *Matcher) Resolve(snap *model.MemorySnapshot, candidates []model.StoryCandidate, now time.Time, stats *CycleStats) {
	var valid []model.StoryCandidate
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			slog.Warn("dropping malformed story candidate", "title", c.Title, "error", err)
			stats.StoriesDropped++
			continue
		}
		valid = append(valid, c)
	}

	matches := make([]similarity.Match, len(valid))
	var wg sync.WaitGroup
	for i := range valid {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			matches[i] = m.scorer.BestStory(valid[i], snap.Threads)
		}(i)
	}
	wg.Wait()

	baseline := len(snap.Threads)

	for i, c := range valid {
		match := matches[i]

		// Threads created earlier in this batch were not part of the
		// concurrent pass; rescore against them so intra-batch
		// duplicates collapse into one thread.
		for j := baseline; j < len(snap.Threads); j++ {
			score := m.scorer.ScoreStory(c, snap.Threads[j])
			if score >= m.scorer.StoryThreshold && (!match.OK || score > match.Score) {
				match = similarity.Match{Index: j, Score: score, OK: true}
			}
		}

		if match.OK {
			m.applyMention(&snap.Threads[match.Index], c, now)
			stats.StoriesMatched++
		} else {
			snap.Threads = append(snap.Threads, m.newThread(c, now))
			stats.StoriesCreated++
			slog.Info("thread created", "title", c.Title)
		}
	}
}

func (m *Matcher) applyMention(t *model.StoryThread, c model.StoryCandidate, now time.Time) {
	t.Status = model.ThreadActive
	t.MentionCount++
	t.ImpactScore += m.cfg.ImpactGain * (1 - t.ImpactScore/100)
	if t.ImpactScore > 100 {
		t.ImpactScore = 100
	}
	if t.ImpactScore < 0 {
		t.ImpactScore = 0
	}

	if c.Summary != "" {
		t.Summary = c.Summary
	}
	t.Keywords = mergeKeywords(t.Keywords, c.Keywords, m.cfg.MaxKeywords)
	if len(c.Embedding) > 0 {
		t.Embedding = c.Embedding
	}

	for _, articleID := range c.ArticleIDs {
		if hasMention(t.Mentions, articleID) {
			continue
		}
		t.Mentions = append(t.Mentions, model.Mention{At: now, ArticleID: articleID})
	}
	if over := len(t.Mentions) - m.cfg.MaxMentions; over > 0 {
		t.Mentions = t.Mentions[over:]
	}

	t.LastSeenAt = now
}

func (m *Matcher) newThread(c model.StoryCandidate, now time.Time) model.StoryThread {
	impact := c.Impact * 100
	if impact <= 0 {
		impact = 50
	}
	if impact > 100 {
		impact = 100
	}

	t := model.StoryThread{
		ID:           newThreadID(c.Title, now),
		Title:        strings.TrimSpace(c.Title),
		Summary:      c.Summary,
		Keywords:     mergeKeywords(nil, c.Keywords, m.cfg.MaxKeywords),
		Status:       model.ThreadActive,
		MentionCount: 1,
		ImpactScore:  impact,
		Embedding:    c.Embedding,
		CreatedAt:    now,
		LastSeenAt:   now,
	}
	for _, articleID := range c.ArticleIDs {
		t.Mentions = append(t.Mentions, model.Mention{At: now, ArticleID: articleID})
	}
	return t
}

func hasMention(mentions []model.Mention, articleID string) bool {
	if articleID == "" {
		return true
	}
	for _, m := range mentions {
		if m.ArticleID == articleID {
			return true
		}
	}
	return false
}

// mergeKeywords appends new keywords case-insensitively deduplicated,
// keeping the existing ones first and never exceeding the cap.
func mergeKeywords(existing, incoming []string, limit int) []string {
	seen := make(map[string]bool, len(existing))
	out := make([]string, 0, len(existing))
	for _, kw := range existing {
		key := strings.ToLower(strings.TrimSpace(kw))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(kw))
	}
	for _, kw := range incoming {
		if len(out) >= limit {
			break
		}
		key := strings.ToLower(strings.TrimSpace(kw))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(kw))
	}
	return out
}
