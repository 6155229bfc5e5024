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

// Tracker resolves character mentions to tracked figures and keeps
// their position history and alias sets bounded.
type Tracker struct {
	cfg    config.Config
	scorer similarity.Scorer
}

func newCharacterID(name string) string {
	key := "pulse:character:" + similarity.NormalizeName(name)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// Resolve is strictly serial: a character created for one candidate is
// visible to the next, so two mentions of the same new person in one
// batch merge instead of duplicating.
func (tr *Tracker) Resolve(snap *model.MemorySnapshot, candidates []model.CharacterCandidate, now time.Time, stats *CycleStats) {
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			slog.Warn("dropping malformed character candidate", "error", err)
			stats.CharactersDropped++
			continue
		}

		match := tr.scorer.BestCharacter(c, snap.Characters)
		if match.OK {
			tr.update(snap, match.Index, c, now)
			stats.CharactersUpdated++
		} else {
			snap.Characters = append(snap.Characters, tr.newCharacter(snap, c, now))
			stats.CharactersCreated++
			slog.Info("character created", "name", c.Name)
		}
	}
}

func (tr *Tracker) update(snap *model.MemorySnapshot, idx int, c model.CharacterCandidate, now time.Time) {
	ch := &snap.Characters[idx]

	if c.Role != "" {
		ch.Role = c.Role
	}

	tr.learnAlias(snap, idx, c.Name)
	for _, alias := range c.Aliases {
		tr.learnAlias(snap, idx, alias)
	}

	if c.Stance != "" {
		tr.appendPosition(ch, model.CharacterPosition{
			At:        now,
			Stance:    c.Stance,
			ArticleID: c.ArticleID,
		})
	}

	ch.LastSeenAt = now
}

// learnAlias records a new name variant. Aliases stay bounded and may
// never shadow another character's canonical name.
func (tr *Tracker) learnAlias(snap *model.MemorySnapshot, idx int, name string) {
	ch := &snap.Characters[idx]
	normalized := similarity.NormalizeName(name)
	if normalized == "" || normalized == similarity.NormalizeName(ch.Name) {
		return
	}
	for _, a := range ch.Aliases {
		if similarity.NormalizeName(a) == normalized {
			return
		}
	}
	if len(ch.Aliases) >= tr.cfg.MaxAliases {
		return
	}
	for i := range snap.Characters {
		if i != idx && similarity.NormalizeName(snap.Characters[i].Name) == normalized {
			slog.Warn("alias collides with another character, skipping",
				"alias", name, "character", ch.Name, "other", snap.Characters[i].Name)
			return
		}
	}
	ch.Aliases = append(ch.Aliases, strings.TrimSpace(name))
}

// appendPosition keeps the history a bounded ring: oldest first,
// evicted from the front. Identical consecutive updates are skipped so
// a reprocessed batch does not stack duplicates.
func (tr *Tracker) appendPosition(ch *model.KeyCharacter, pos model.CharacterPosition) {
	if last := ch.LatestPosition(); last != nil &&
		last.Stance == pos.Stance && last.ArticleID == pos.ArticleID {
		return
	}
	ch.Positions = append(ch.Positions, pos)
	if over := len(ch.Positions) - tr.cfg.MaxPositions; over > 0 {
		ch.Positions = ch.Positions[over:]
	}
}

func (tr *Tracker) newCharacter(snap *model.MemorySnapshot, c model.CharacterCandidate, now time.Time) model.KeyCharacter {
	ch := model.KeyCharacter{
		ID:         newCharacterID(c.Name),
		Name:       strings.TrimSpace(c.Name),
		Role:       c.Role,
		CreatedAt:  now,
		LastSeenAt: now,
	}

	seen := map[string]bool{similarity.NormalizeName(c.Name): true}
	for _, alias := range c.Aliases {
		if len(ch.Aliases) >= tr.cfg.MaxAliases {
			break
		}
		normalized := similarity.NormalizeName(alias)
		if normalized == "" || seen[normalized] {
			continue
		}
		if collidesWithCanonical(snap, normalized) {
			continue
		}
		seen[normalized] = true
		ch.Aliases = append(ch.Aliases, strings.TrimSpace(alias))
	}

	if c.Stance != "" {
		ch.Positions = []model.CharacterPosition{{
			At:        now,
			Stance:    c.Stance,
			ArticleID: c.ArticleID,
		}}
	}

	return ch
}

func collidesWithCanonical(snap *model.MemorySnapshot, normalized string) bool {
	for i := range snap.Characters {
		if similarity.NormalizeName(snap.Characters[i].Name) == normalized {
			return true
		}
	}
	return false
}
