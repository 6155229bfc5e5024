package narrative

import (
	"sort"
	"strings"
	"time"

	"github.com/maroffo/BehindBarsPulse/internal/config"
	"github.com/maroffo/BehindBarsPulse/internal/model"
	"github.com/maroffo/BehindBarsPulse/internal/similarity"
)

// AssembleContext builds the read-only payload for content generation:
// threads ranked by impact, characters with their latest position, and
// pending follow-ups inside the look-ahead horizon. It never mutates
// the snapshot.
func AssembleContext(snap *model.MemorySnapshot, articles []model.EnrichedArticle, now time.Time, cfg config.Config) model.NarrativeContext {
	batchText, batchTokens := batchIndex(articles)

	ctx := model.NarrativeContext{GeneratedAt: now}

	for _, t := range snap.Threads {
		if t.Status != model.ThreadActive && t.Status != model.ThreadDormant {
			continue
		}
		if t.ImpactScore >= cfg.RelevanceFloor || touchesBatch(t.Keywords, batchTokens) {
			ctx.Threads = append(ctx.Threads, t)
		}
	}
	sort.SliceStable(ctx.Threads, func(i, j int) bool {
		if ctx.Threads[i].ImpactScore != ctx.Threads[j].ImpactScore {
			return ctx.Threads[i].ImpactScore > ctx.Threads[j].ImpactScore
		}
		return ctx.Threads[i].LastSeenAt.After(ctx.Threads[j].LastSeenAt)
	})

	recency := time.Duration(cfg.DormancyDays) * 24 * time.Hour
	for i := range snap.Characters {
		ch := &snap.Characters[i]
		mentioned := mentionedIn(batchText, ch)
		if !mentioned && now.Sub(ch.LastSeenAt) > recency {
			continue
		}
		ctx.Characters = append(ctx.Characters, model.CharacterDigest{
			ID:             ch.ID,
			Name:           ch.Name,
			Role:           ch.Role,
			Aliases:        append([]string(nil), ch.Aliases...),
			LatestPosition: ch.LatestPosition(),
			MentionedToday: mentioned,
		})
	}
	sort.SliceStable(ctx.Characters, func(i, j int) bool {
		if ctx.Characters[i].MentionedToday != ctx.Characters[j].MentionedToday {
			return ctx.Characters[i].MentionedToday
		}
		return ctx.Characters[i].Name < ctx.Characters[j].Name
	})

	horizon := now.AddDate(0, 0, cfg.LookaheadDays)
	for _, f := range snap.FollowUps {
		if f.Status != model.FollowUpPending || f.ExpectedDate.After(horizon) {
			continue
		}
		ctx.FollowUps = append(ctx.FollowUps, f)
	}
	sort.SliceStable(ctx.FollowUps, func(i, j int) bool {
		if !ctx.FollowUps[i].ExpectedDate.Equal(ctx.FollowUps[j].ExpectedDate) {
			return ctx.FollowUps[i].ExpectedDate.Before(ctx.FollowUps[j].ExpectedDate)
		}
		return ctx.FollowUps[i].ID < ctx.FollowUps[j].ID
	})

	return ctx
}

// batchIndex flattens the batch into one normalized text for name
// scanning and a token set for keyword overlap.
func batchIndex(articles []model.EnrichedArticle) (string, map[string]bool) {
	var sb strings.Builder
	tokens := make(map[string]bool)
	for _, a := range articles {
		for _, w := range similarity.Tokens(a.Title + " " + a.Summary) {
			sb.WriteByte(' ')
			sb.WriteString(w)
			tokens[w] = true
		}
	}
	sb.WriteByte(' ')
	return sb.String(), tokens
}

func touchesBatch(keywords []string, batchTokens map[string]bool) bool {
	for _, kw := range keywords {
		for _, w := range similarity.Tokens(kw) {
			if batchTokens[w] {
				return true
			}
		}
	}
	return false
}

// mentionedIn looks for the character's name or any alias as a
// word-bounded substring of the normalized batch text.
func mentionedIn(batchText string, ch *model.KeyCharacter) bool {
	if batchText == "" {
		return false
	}
	names := append([]string{ch.Name}, ch.Aliases...)
	for _, name := range names {
		normalized := similarity.NormalizeName(name)
		if normalized == "" {
			continue
		}
		if strings.Contains(batchText, " "+normalized+" ") {
			return true
		}
	}
	return false
}
