package model

import "time"

// CharacterDigest is a character with only its latest recorded
// position, as handed to content generation.
type CharacterDigest struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Role           string             `json:"role"`
	Aliases        []string           `json:"aliases,omitempty"`
	LatestPosition *CharacterPosition `json:"latest_position,omitempty"`
	MentionedToday bool               `json:"mentioned_today"`
}

// NarrativeContext is the read-only payload consumed by the newsletter
// generator. The assembler builds it; nothing downstream mutates memory.
type NarrativeContext struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Threads     []StoryThread     `json:"threads"`
	Characters  []CharacterDigest `json:"characters"`
	FollowUps   []FollowUp        `json:"followups"`
}
