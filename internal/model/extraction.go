package model

import (
	"errors"
	"time"
)

var (
	ErrMissingTitle       = errors.New("story candidate missing title")
	ErrMissingKeywords    = errors.New("story candidate missing keywords")
	ErrMissingName        = errors.New("character candidate missing name")
	ErrMissingDescription = errors.New("followup candidate missing description")
	ErrMissingDate        = errors.New("followup candidate missing expected date")
)

// StoryCandidate is a raw story record from the extraction collaborator.
// Impact is the extractor's 0..1 hint; the matcher maps it onto the
// 0..100 thread scale.
type StoryCandidate struct {
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Keywords   []string  `json:"keywords"`
	Impact     float64   `json:"impact"`
	ArticleIDs []string  `json:"article_ids"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

func (c StoryCandidate) Validate() error {
	if c.Title == "" {
		return ErrMissingTitle
	}
	if len(c.Keywords) == 0 {
		return ErrMissingKeywords
	}
	return nil
}

type CharacterCandidate struct {
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Aliases   []string `json:"aliases"`
	Stance    string   `json:"stance"`
	ArticleID string   `json:"article_id"`
}

func (c CharacterCandidate) Validate() error {
	if c.Name == "" {
		return ErrMissingName
	}
	return nil
}

// FollowUpCandidate is an upcoming event detected by extraction.
// Occurred marks a resolution: the event already happened and any
// matching pending follow-up should be closed.
type FollowUpCandidate struct {
	Description  string    `json:"description"`
	ExpectedDate time.Time `json:"expected_date"`
	StoryID      string    `json:"story_id,omitempty"`
	Occurred     bool      `json:"occurred"`
	ArticleID    string    `json:"article_id"`
}

func (c FollowUpCandidate) Validate() error {
	if c.Description == "" {
		return ErrMissingDescription
	}
	if c.ExpectedDate.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// Extraction bundles all candidates produced for one article batch.
type Extraction struct {
	Stories    []StoryCandidate     `json:"stories"`
	Characters []CharacterCandidate `json:"characters"`
	FollowUps  []FollowUpCandidate  `json:"followups"`
}
