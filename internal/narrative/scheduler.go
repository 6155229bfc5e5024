package narrative

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maroffo/BehindBarsPulse/internal/config"
	"github.com/maroffo/BehindBarsPulse/internal/model"
	"github.com/maroffo/BehindBarsPulse/internal/similarity"
)

// Scheduler maintains upcoming-event records: corrections, explicit
// resolutions, and the pending→expired sweep.
type Scheduler struct {
	cfg    config.Config
	scorer similarity.Scorer
}

func newFollowUpID(description string, expected time.Time) string {
	key := "pulse:followup:" + similarity.NormalizeName(description) + ":" + expected.Format("2006-01-02")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// Resolve runs before the expiry sweep so a resolution reported in the
// same cycle as the deadline wins over expiry.
func (s *Scheduler) Resolve(snap *model.MemorySnapshot, candidates []model.FollowUpCandidate, now time.Time, stats *CycleStats) {
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			slog.Warn("dropping malformed followup candidate", "description", c.Description, "error", err)
			stats.FollowUpsDropped++
			continue
		}

		match := s.scorer.BestFollowUp(c, snap.FollowUps)

		if c.Occurred {
			if !match.OK {
				slog.Debug("resolution detected with no pending followup", "description", c.Description)
				continue
			}
			f := &snap.FollowUps[match.Index]
			f.Status = model.FollowUpResolved
			at := now
			f.ResolvedAt = &at
			stats.FollowUpsResolved++
			slog.Info("followup resolved", "followup_id", f.ID, "description", f.Description)
			continue
		}

		if match.OK {
			f := &snap.FollowUps[match.Index]
			f.Description = c.Description
			f.ExpectedDate = c.ExpectedDate
			if c.StoryID != "" && snap.ThreadByID(c.StoryID) != nil {
				f.StoryID = c.StoryID
			}
			stats.FollowUpsUpdated++
			continue
		}

		storyID := c.StoryID
		if storyID != "" && snap.ThreadByID(storyID) == nil {
			// weak reference: an unknown story hint is dropped, not fatal
			storyID = ""
		}
		snap.FollowUps = append(snap.FollowUps, model.FollowUp{
			ID:           newFollowUpID(c.Description, c.ExpectedDate),
			Description:  strings.TrimSpace(c.Description),
			ExpectedDate: c.ExpectedDate,
			StoryID:      storyID,
			Status:       model.FollowUpPending,
			CreatedAt:    now,
		})
		stats.FollowUpsCreated++
	}
}

// Sweep expires every pending follow-up whose expected date is
// strictly before today. Terminal records are never touched again.
func (s *Scheduler) Sweep(snap *model.MemorySnapshot, now time.Time, stats *CycleStats) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := range snap.FollowUps {
		f := &snap.FollowUps[i]
		if f.Status != model.FollowUpPending {
			continue
		}
		if f.ExpectedDate.Before(today) {
			f.Status = model.FollowUpExpired
			stats.FollowUpsExpired++
			slog.Info("followup expired", "followup_id", f.ID, "description", f.Description)
		}
	}
}
