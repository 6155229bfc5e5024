package model

import "time"

// EnrichedArticle is an article that already went through fetching and
// AI metadata extraction upstream. The narrative engine only reads it.
type EnrichedArticle struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Author      string    `json:"author"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary"`
	Category    string    `json:"category"`
	PublishedAt time.Time `json:"published_at"`
	Embedding   []float32 `json:"embedding,omitempty"`
}
