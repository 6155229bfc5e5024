// Package narrative is the continuity engine: it matches each day's
// extraction candidates against the persistent memory of story
// threads, key characters and follow-up events, and produces the
// context handed to newsletter generation.
package narrative

import (
	"time"

	"github.com/maroffo/BehindBarsPulse/internal/config"
	"github.com/maroffo/BehindBarsPulse/internal/model"
	"github.com/maroffo/BehindBarsPulse/internal/similarity"
)

type CycleStats struct {
	StoriesMatched  int `json:"stories_matched"`
	StoriesCreated  int `json:"stories_created"`
	StoriesDropped  int `json:"stories_dropped"`
	ThreadsDormant  int `json:"threads_dormant"`
	ThreadsArchived int `json:"threads_archived"`

	CharactersUpdated int `json:"characters_updated"`
	CharactersCreated int `json:"characters_created"`
	CharactersDropped int `json:"characters_dropped"`

	FollowUpsCreated  int `json:"followups_created"`
	FollowUpsUpdated  int `json:"followups_updated"`
	FollowUpsResolved int `json:"followups_resolved"`
	FollowUpsExpired  int `json:"followups_expired"`
	FollowUpsDropped  int `json:"followups_dropped"`
}

// Engine runs one collection cycle at a time. It never mutates the
// snapshot it is given; callers persist the returned working copy.
type Engine struct {
	cfg       config.Config
	matcher   *Matcher
	tracker   *Tracker
	scheduler *Scheduler
}

func NewEngine(cfg config.Config) *Engine {
	scorer := similarity.Scorer{
		StoryThreshold:     cfg.StoryThreshold,
		CharacterThreshold: cfg.CharacterThreshold,
		FollowUpThreshold:  cfg.FollowUpThreshold,
	}
	return &Engine{
		cfg:       cfg,
		matcher:   &Matcher{cfg: cfg, scorer: scorer},
		tracker:   &Tracker{cfg: cfg, scorer: scorer},
		scheduler: &Scheduler{cfg: cfg, scorer: scorer},
	}
}

// RunCycle applies one batch of extraction candidates to a working
// copy of the snapshot and returns it along with run statistics.
// Malformed candidates are dropped one by one; nothing here aborts
// the whole batch.
func (e *Engine) RunCycle(snap *model.MemorySnapshot, ex model.Extraction, now time.Time) (*model.MemorySnapshot, CycleStats) {
	work := snap.Clone()
	var stats CycleStats

	e.matcher.Sweep(work, now, &stats)
	e.matcher.Resolve(work, ex.Stories, now, &stats)
	e.tracker.Resolve(work, ex.Characters, now, &stats)
	e.scheduler.Resolve(work, ex.FollowUps, now, &stats)
	e.scheduler.Sweep(work, now, &stats)

	return work, stats
}
