// Package similarity scores extraction candidates against narrative
// memory records. All functions are pure; the resolution components
// decide what to do with the scores.
package similarity

import (
	"math"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/maroffo/BehindBarsPulse/internal/model"
)

// Honorifics and titles dropped during name normalization, so that
// "Dott. Carlo Nordio" and "Carlo Nordio" compare equal.
var honorifics = map[string]bool{
	"on":            true,
	"onorevole":     true,
	"sen":           true,
	"senatore":      true,
	"senatrice":     true,
	"dott":          true,
	"dottor":        true,
	"dottssa":       true,
	"dottoressa":    true,
	"dr":            true,
	"avv":           true,
	"avvocato":      true,
	"prof":          true,
	"professore":    true,
	"professoressa": true,
	"mons":          true,
	"don":           true,
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NormalizeName lowercases, strips diacritics and honorifics, and
// collapses whitespace.
func NormalizeName(s string) string {
	words := splitWords(foldDiacritics(strings.ToLower(s)))
	kept := words[:0]
	for _, w := range words {
		if honorifics[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// Tokens returns the lowercase, diacritic-folded words of a text,
// ignoring single-letter fragments.
func Tokens(s string) []string {
	var out []string
	for _, w := range splitWords(foldDiacritics(strings.ToLower(s))) {
		if len(w) < 2 {
			continue
		}
		out = append(out, w)
	}
	return out
}

// wordSet tokenizes every keyword, so multi-word keywords like
// "decreto carceri" overlap their single-word forms.
func wordSet(keywords []string) map[string]bool {
	set := make(map[string]bool)
	for _, kw := range keywords {
		for _, w := range Tokens(kw) {
			set[w] = true
		}
	}
	return set
}

// Jaccard computes set overlap between two token lists.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]bool, len(a))
	for _, w := range a {
		setA[w] = true
	}
	setB := make(map[string]bool, len(b))
	for _, w := range b {
		setB[w] = true
	}
	return jaccardSets(setA, setB)
}

func jaccardSets(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Cosine computes cosine similarity between two embedding vectors.
// Mismatched or empty vectors score zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func nameSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// Match is the outcome of scoring one candidate against memory.
// Index refers into the slice that was scanned; -1 when nothing
// cleared the threshold.
type Match struct {
	Index int
	Score float64
	OK    bool
}

// Scorer carries the per-kind thresholds.
type Scorer struct {
	StoryThreshold     float64
	CharacterThreshold float64
	FollowUpThreshold  float64
}

// ScoreStory blends keyword Jaccard, title token overlap and, when
// both sides carry one, embedding cosine similarity.
func (s Scorer) ScoreStory(c model.StoryCandidate, t model.StoryThread) float64 {
	kwScore := jaccardSets(wordSet(c.Keywords), wordSet(t.Keywords))
	titleScore := Jaccard(Tokens(c.Title), Tokens(t.Title))

	if len(c.Embedding) > 0 && len(t.Embedding) > 0 {
		cos := Cosine(c.Embedding, t.Embedding)
		if cos < 0 {
			cos = 0
		}
		return 0.4*kwScore + 0.2*titleScore + 0.4*cos
	}
	return 0.65*kwScore + 0.35*titleScore
}

// BestStory finds the highest-scoring non-archived thread above the
// story threshold. Exact score ties go to the most recently active
// thread so the outcome is deterministic.
func (s Scorer) BestStory(c model.StoryCandidate, threads []model.StoryThread) Match {
	best := Match{Index: -1}
	for i := range threads {
		if threads[i].Status == model.ThreadArchived {
			continue
		}
		score := s.ScoreStory(c, threads[i])
		if score < s.StoryThreshold {
			continue
		}
		if score > best.Score ||
			(score == best.Score && best.Index >= 0 && threads[i].LastSeenAt.After(threads[best.Index].LastSeenAt)) {
			best = Match{Index: i, Score: score, OK: true}
		}
	}
	return best
}

// ScoreCharacter short-circuits to 1.0 on any normalized name or alias
// match. The edit-distance fallback compares canonical names only:
// merging two different people is worse than missing a match.
func (s Scorer) ScoreCharacter(c model.CharacterCandidate, k model.KeyCharacter) float64 {
	candNames := make([]string, 0, len(c.Aliases)+1)
	candNames = append(candNames, NormalizeName(c.Name))
	for _, a := range c.Aliases {
		candNames = append(candNames, NormalizeName(a))
	}

	knownNames := make([]string, 0, len(k.Aliases)+1)
	knownNames = append(knownNames, NormalizeName(k.Name))
	for _, a := range k.Aliases {
		knownNames = append(knownNames, NormalizeName(a))
	}

	for _, cn := range candNames {
		if cn == "" {
			continue
		}
		for _, kn := range knownNames {
			if cn == kn {
				return 1
			}
		}
	}

	return nameSimilarity(NormalizeName(c.Name), NormalizeName(k.Name))
}

func (s Scorer) BestCharacter(c model.CharacterCandidate, chars []model.KeyCharacter) Match {
	best := Match{Index: -1}
	for i := range chars {
		score := s.ScoreCharacter(c, chars[i])
		if score < s.CharacterThreshold {
			continue
		}
		if score > best.Score ||
			(score == best.Score && best.Index >= 0 && chars[i].LastSeenAt.After(chars[best.Index].LastSeenAt)) {
			best = Match{Index: i, Score: score, OK: true}
		}
	}
	return best
}

// ScoreFollowUp compares descriptions by token overlap. Candidates
// tied to a different story than the record never match; sharing the
// same story nudges the score up.
func (s Scorer) ScoreFollowUp(c model.FollowUpCandidate, f model.FollowUp) float64 {
	if c.StoryID != "" && f.StoryID != "" && c.StoryID != f.StoryID {
		return 0
	}
	score := Jaccard(Tokens(c.Description), Tokens(f.Description))
	if c.StoryID != "" && c.StoryID == f.StoryID {
		score += 0.15
	}
	if score > 1 {
		score = 1
	}
	return score
}

// BestFollowUp only considers pending records; terminal follow-ups are
// never matched again.
func (s Scorer) BestFollowUp(c model.FollowUpCandidate, followups []model.FollowUp) Match {
	best := Match{Index: -1}
	for i := range followups {
		if followups[i].Status != model.FollowUpPending {
			continue
		}
		score := s.ScoreFollowUp(c, followups[i])
		if score < s.FollowUpThreshold {
			continue
		}
		if score > best.Score ||
			(score == best.Score && best.Index >= 0 && followups[i].CreatedAt.After(followups[best.Index].CreatedAt)) {
			best = Match{Index: i, Score: score, OK: true}
		}
	}
	return best
}
