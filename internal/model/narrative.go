package model

import "time"

const (
	ThreadActive   = "active"
	ThreadDormant  = "dormant"
	ThreadArchived = "archived"

	FollowUpPending  = "pending"
	FollowUpResolved = "resolved"
	FollowUpExpired  = "expired"
)

// SnapshotVersion is the persistence format version. Load fails on any
// snapshot that carries a different version.
const SnapshotVersion = 1

type Mention struct {
	At        time.Time `json:"at"`
	ArticleID string    `json:"article_id"`
}

type StoryThread struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Summary      string     `json:"summary"`
	Keywords     []string   `json:"keywords"`
	Status       string     `json:"status"`
	Mentions     []Mention  `json:"mentions"`
	MentionCount int        `json:"mention_count"`
	ImpactScore  float64    `json:"impact_score"`
	Embedding    []float32  `json:"embedding,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastSeenAt   time.Time  `json:"last_seen_at"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
}

type CharacterPosition struct {
	At        time.Time `json:"at"`
	Stance    string    `json:"stance"`
	ArticleID string    `json:"article_id"`
}

type KeyCharacter struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Role       string              `json:"role"`
	Aliases    []string            `json:"aliases"`
	Positions  []CharacterPosition `json:"positions"`
	CreatedAt  time.Time           `json:"created_at"`
	LastSeenAt time.Time           `json:"last_seen_at"`
}

// LatestPosition returns the most recent position, or nil if none was
// ever recorded. Positions are kept ordered oldest first.
func (c *KeyCharacter) LatestPosition() *CharacterPosition {
	if len(c.Positions) == 0 {
		return nil
	}
	return &c.Positions[len(c.Positions)-1]
}

type FollowUp struct {
	ID           string     `json:"id"`
	Description  string     `json:"description"`
	ExpectedDate time.Time  `json:"expected_date"`
	StoryID      string     `json:"story_id,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// MemorySnapshot is the complete persisted state of the narrative
// engine. All mutation happens on a working copy inside a cycle; the
// store swaps it in atomically on save.
type MemorySnapshot struct {
	Version    int            `json:"version"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Threads    []StoryThread  `json:"threads"`
	Characters []KeyCharacter `json:"characters"`
	FollowUps  []FollowUp     `json:"followups"`
}

func NewSnapshot() *MemorySnapshot {
	return &MemorySnapshot{Version: SnapshotVersion}
}

func (s *MemorySnapshot) ThreadByID(id string) *StoryThread {
	for i := range s.Threads {
		if s.Threads[i].ID == id {
			return &s.Threads[i]
		}
	}
	return nil
}

// Clone returns a deep copy. A cycle mutates the copy so that an
// aborted run never leaks partial state into the loaded snapshot.
func (s *MemorySnapshot) Clone() *MemorySnapshot {
	out := &MemorySnapshot{
		Version:    s.Version,
		UpdatedAt:  s.UpdatedAt,
		Threads:    make([]StoryThread, len(s.Threads)),
		Characters: make([]KeyCharacter, len(s.Characters)),
		FollowUps:  make([]FollowUp, len(s.FollowUps)),
	}

	for i, t := range s.Threads {
		t.Keywords = append([]string(nil), t.Keywords...)
		t.Mentions = append([]Mention(nil), t.Mentions...)
		t.Embedding = append([]float32(nil), t.Embedding...)
		if t.ArchivedAt != nil {
			at := *t.ArchivedAt
			t.ArchivedAt = &at
		}
		out.Threads[i] = t
	}

	for i, c := range s.Characters {
		c.Aliases = append([]string(nil), c.Aliases...)
		c.Positions = append([]CharacterPosition(nil), c.Positions...)
		out.Characters[i] = c
	}

	for i, f := range s.FollowUps {
		if f.ResolvedAt != nil {
			at := *f.ResolvedAt
			f.ResolvedAt = &at
		}
		out.FollowUps[i] = f
	}

	return out
}
