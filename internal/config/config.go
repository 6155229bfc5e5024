package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the narrative engine. All values come
// from environment variables with the defaults below.
type Config struct {
	SnapshotPath string `env:"SNAPSHOT_PATH" envDefault:"data/narrative_snapshot.json"`

	// Lifecycle windows, in days.
	DormancyDays  int `env:"DORMANCY_DAYS" envDefault:"14"`
	ArchivalDays  int `env:"ARCHIVAL_DAYS" envDefault:"45"`
	RetentionDays int `env:"RETENTION_DAYS" envDefault:"90"`

	// Bounds that keep the snapshot from growing without limit.
	MaxThreads    int `env:"MAX_THREADS" envDefault:"200"`
	MaxCharacters int `env:"MAX_CHARACTERS" envDefault:"150"`
	MaxPositions  int `env:"MAX_POSITIONS" envDefault:"10"`
	MaxAliases    int `env:"MAX_ALIASES" envDefault:"8"`
	MaxKeywords   int `env:"MAX_KEYWORDS" envDefault:"25"`
	MaxMentions   int `env:"MAX_MENTIONS" envDefault:"50"`

	LookaheadDays int `env:"LOOKAHEAD_DAYS" envDefault:"14"`

	// Per-kind match thresholds. Stories favour precision over recall;
	// characters only ever fuzzy-match near-identical names.
	StoryThreshold     float64 `env:"STORY_THRESHOLD" envDefault:"0.3"`
	CharacterThreshold float64 `env:"CHARACTER_THRESHOLD" envDefault:"0.92"`
	FollowUpThreshold  float64 `env:"FOLLOWUP_THRESHOLD" envDefault:"0.35"`

	// Impact score dynamics on the 0..100 scale.
	ImpactGain        float64 `env:"IMPACT_GAIN" envDefault:"12"`
	ImpactDecayPerDay float64 `env:"IMPACT_DECAY_PER_DAY" envDefault:"1.5"`
	RelevanceFloor    float64 `env:"RELEVANCE_FLOOR" envDefault:"25"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in defaults without touching the
// environment. Used by tests.
func Default() Config {
	return Config{
		SnapshotPath:       "data/narrative_snapshot.json",
		DormancyDays:       14,
		ArchivalDays:       45,
		RetentionDays:      90,
		MaxThreads:         200,
		MaxCharacters:      150,
		MaxPositions:       10,
		MaxAliases:         8,
		MaxKeywords:        25,
		MaxMentions:        50,
		LookaheadDays:      14,
		StoryThreshold:     0.3,
		CharacterThreshold: 0.92,
		FollowUpThreshold:  0.35,
		ImpactGain:         12,
		ImpactDecayPerDay:  1.5,
		RelevanceFloor:     25,
	}
}
