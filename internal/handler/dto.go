package handler

type ThreadResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Keywords     []string `json:"keywords"`
	Status       string   `json:"status"`
	MentionCount int      `json:"mention_count"`
	ImpactScore  float64  `json:"impact_score"`
	FirstSeen    string   `json:"first_seen"`
	LastSeen     string   `json:"last_seen"`
}

type ThreadListResponse struct {
	Threads []ThreadResponse `json:"threads"`
	Total   int              `json:"total"`
}

type PositionResponse struct {
	At        string `json:"at"`
	Stance    string `json:"stance"`
	ArticleID string `json:"article_id,omitempty"`
}

type CharacterResponse struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Role           string            `json:"role"`
	Aliases        []string          `json:"aliases,omitempty"`
	LatestPosition *PositionResponse `json:"latest_position,omitempty"`
}

type CharacterListResponse struct {
	Characters []CharacterResponse `json:"characters"`
	Total      int                 `json:"total"`
}

type FollowUpResponse struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	ExpectedDate string `json:"expected_date"`
	StoryID      string `json:"story_id,omitempty"`
	Status       string `json:"status"`
}

type FollowUpListResponse struct {
	FollowUps []FollowUpResponse `json:"followups"`
	Total     int                `json:"total"`
}

type ContextResponse struct {
	GeneratedAt string              `json:"generated_at"`
	Threads     []ThreadResponse    `json:"threads"`
	Characters  []CharacterResponse `json:"characters"`
	FollowUps   []FollowUpResponse  `json:"followups"`
}
