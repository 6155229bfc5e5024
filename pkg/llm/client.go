package llm

import "time"

// Article is the slice of an enriched article that extraction prompts
// need.
type Article struct {
	ID          string
	Title       string
	Link        string
	Author      string
	Source      string
	Summary     string
	PublishedAt time.Time
}

// ThreadRef describes a thread already in memory, passed to the model
// so candidates reuse known story identifiers and vocabulary.
type ThreadRef struct {
	ID       string
	Title    string
	Keywords []string
}

// CharacterRef describes a tracked figure, passed so the model reuses
// canonical names instead of inventing variants.
type CharacterRef struct {
	Name    string
	Aliases []string
}

// Candidates are flat: the model never decides whether something is an
// update or a new record, resolution against memory happens in the
// narrative engine.

type StoryCandidate struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Keywords   []string `json:"keywords"`
	Impact     float64  `json:"impact"`
	ArticleIDs []string `json:"article_ids"`
}

type CharacterCandidate struct {
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Aliases   []string `json:"aliases"`
	Stance    string   `json:"stance"`
	ArticleID string   `json:"article_id"`
}

type FollowUpCandidate struct {
	Description  string `json:"description"`
	ExpectedDate string `json:"expected_date"`
	StoryID      string `json:"story_id"`
	Occurred     bool   `json:"occurred"`
	ArticleID    string `json:"article_id"`
}

type ExtractionClient interface {
	ExtractStories(articles []Article, known []ThreadRef) ([]StoryCandidate, error)
	ExtractCharacters(articles []Article, known []CharacterRef) ([]CharacterCandidate, error)
	DetectFollowUps(articles []Article, known []ThreadRef) ([]FollowUpCandidate, error)
}

// Embedder computes embedding vectors for candidate texts. Optional:
// matching degrades to keyword heuristics without one.
type Embedder interface {
	Embed(texts []string) ([][]float32, error)
}
