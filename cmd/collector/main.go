package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/maroffo/BehindBarsPulse/db"
	"github.com/maroffo/BehindBarsPulse/internal/config"
	"github.com/maroffo/BehindBarsPulse/internal/model"
	"github.com/maroffo/BehindBarsPulse/internal/narrative"
	"github.com/maroffo/BehindBarsPulse/internal/store"
	"github.com/maroffo/BehindBarsPulse/pkg/llm"
)

const popTimeout = 5 * time.Second

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	snapshotStore, cleanup, err := openStore(cfg)
	if err != nil {
		log.Fatalf("error opening snapshot store: %v", err)
	}
	defer cleanup()

	useRedis := os.Getenv("REDIS_URL") != ""
	if useRedis {
		if err := db.ConnectRedis(); err != nil {
			log.Fatalf("error connecting to Redis: %v", err)
		}
		defer db.CloseRedis()
	}

	articles, ok := loadBatch(useRedis)
	if !ok {
		slog.Info("no article batch available, exiting")
		return
	}

	extractionClient, embedder := buildClients()
	if extractionClient == nil {
		log.Fatalf("no extraction API key configured (set ANTHROPIC_API_KEY or OPENAI_API_KEY)")
	}

	ctx := context.Background()

	snap, err := snapshotStore.Load(ctx)
	if err != nil {
		log.Fatalf("error loading snapshot: %v", err)
	}

	now := collectionTime()

	extraction := runExtraction(extractionClient, snap, articles)
	embedStoryCandidates(embedder, extraction.Stories)

	engine := narrative.NewEngine(cfg)
	work, stats := engine.RunCycle(snap, extraction, now)

	if err := snapshotStore.Save(ctx, work); err != nil {
		// the previously committed snapshot stays authoritative; the
		// same batch can be reprocessed on the next run
		log.Fatalf("error saving snapshot: %v", err)
	}

	slog.Info("cycle complete",
		"date", now.Format("2006-01-02"),
		"articles", len(articles),
		"stories_matched", stats.StoriesMatched,
		"stories_created", stats.StoriesCreated,
		"characters_updated", stats.CharactersUpdated,
		"characters_created", stats.CharactersCreated,
		"followups_created", stats.FollowUpsCreated,
		"followups_resolved", stats.FollowUpsResolved,
		"followups_expired", stats.FollowUpsExpired)

	narrativeCtx := narrative.AssembleContext(work, articles, now, cfg)
	publishContext(useRedis, narrativeCtx)
}

// openStore picks the postgres backend when DATABASE_URL is set, the
// JSON file backend otherwise.
func openStore(cfg config.Config) (store.Store, func(), error) {
	if os.Getenv("DATABASE_URL") != "" {
		if err := db.Connect(); err != nil {
			return nil, nil, err
		}
		s, err := store.NewPostgresStore(db.DB, cfg)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return s, db.Close, nil
	}
	return store.NewFileStore(cfg.SnapshotPath, cfg), func() {}, nil
}

// loadBatch reads the enriched article batch either from a JSON file
// (ARTICLES_FILE) or from the collect queue.
func loadBatch(useRedis bool) ([]model.EnrichedArticle, bool) {
	if path := os.Getenv("ARTICLES_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("error reading articles file: %v", err)
		}
		var articles []model.EnrichedArticle
		if err := json.Unmarshal(data, &articles); err != nil {
			log.Fatalf("error parsing articles file: %v", err)
		}
		return articles, len(articles) > 0
	}

	if !useRedis {
		slog.Error("no article source configured (set ARTICLES_FILE or REDIS_URL)")
		return nil, false
	}

	payload, err := db.PopFromQueue(db.CollectQueueKey, popTimeout)
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Fatalf("error popping article batch from Redis: %v", err)
	}

	var articles []model.EnrichedArticle
	if err := json.Unmarshal([]byte(payload), &articles); err != nil {
		log.Fatalf("error parsing article batch: %v", err)
	}
	return articles, len(articles) > 0
}

func buildClients() (llm.ExtractionClient, llm.Embedder) {
	var extraction llm.ExtractionClient
	var embedder llm.Embedder

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		openAI := llm.NewOpenAIClient(key)
		extraction = openAI
		embedder = openAI
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		extraction = llm.NewAnthropicClient(key)
	}
	return extraction, embedder
}

// collectionTime honors COLLECTION_DATE (YYYY-MM-DD) so a missed day
// can be backfilled; defaults to now.
func collectionTime() time.Time {
	raw := os.Getenv("COLLECTION_DATE")
	if raw == "" {
		return time.Now()
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		log.Fatalf("invalid COLLECTION_DATE %q: %v", raw, err)
	}
	return t
}

// runExtraction calls the three extraction passes. A failed pass is
// logged and skipped; the cycle continues with the other kinds.
func runExtraction(client llm.ExtractionClient, snap *model.MemorySnapshot, articles []model.EnrichedArticle) model.Extraction {
	llmArticles := make([]llm.Article, len(articles))
	for i, a := range articles {
		llmArticles[i] = llm.Article{
			ID:          a.ID,
			Title:       a.Title,
			Link:        a.Link,
			Author:      a.Author,
			Source:      a.Source,
			Summary:     a.Summary,
			PublishedAt: a.PublishedAt,
		}
	}

	var threadRefs []llm.ThreadRef
	for _, t := range snap.Threads {
		if t.Status == model.ThreadArchived {
			continue
		}
		threadRefs = append(threadRefs, llm.ThreadRef{ID: t.ID, Title: t.Title, Keywords: t.Keywords})
	}

	var characterRefs []llm.CharacterRef
	for _, c := range snap.Characters {
		characterRefs = append(characterRefs, llm.CharacterRef{Name: c.Name, Aliases: c.Aliases})
	}

	var extraction model.Extraction

	stories, err := client.ExtractStories(llmArticles, threadRefs)
	if err != nil {
		slog.Error("story extraction failed", "error", err)
	}
	for _, s := range stories {
		extraction.Stories = append(extraction.Stories, model.StoryCandidate{
			Title:      s.Title,
			Summary:    s.Summary,
			Keywords:   s.Keywords,
			Impact:     s.Impact,
			ArticleIDs: s.ArticleIDs,
		})
	}

	characters, err := client.ExtractCharacters(llmArticles, characterRefs)
	if err != nil {
		slog.Error("character extraction failed", "error", err)
	}
	for _, c := range characters {
		extraction.Characters = append(extraction.Characters, model.CharacterCandidate{
			Name:      c.Name,
			Role:      c.Role,
			Aliases:   c.Aliases,
			Stance:    c.Stance,
			ArticleID: c.ArticleID,
		})
	}

	followups, err := client.DetectFollowUps(llmArticles, threadRefs)
	if err != nil {
		slog.Error("followup detection failed", "error", err)
	}
	for _, f := range followups {
		expected, parseErr := time.Parse("2006-01-02", f.ExpectedDate)
		if parseErr != nil {
			// zero date; the scheduler drops and logs it as malformed
			slog.Warn("invalid followup date from extraction", "date", f.ExpectedDate, "description", f.Description)
		}
		extraction.FollowUps = append(extraction.FollowUps, model.FollowUpCandidate{
			Description:  f.Description,
			ExpectedDate: expected,
			StoryID:      f.StoryID,
			Occurred:     f.Occurred,
			ArticleID:    f.ArticleID,
		})
	}

	return extraction
}

// embedStoryCandidates attaches embedding vectors to story candidates.
// Best effort: matching falls back to keyword heuristics without them.
func embedStoryCandidates(embedder llm.Embedder, stories []model.StoryCandidate) {
	if embedder == nil || len(stories) == 0 {
		return
	}

	texts := make([]string, len(stories))
	for i, s := range stories {
		texts[i] = s.Title + ". " + s.Summary
	}

	vectors, err := embedder.Embed(texts)
	if err != nil {
		slog.Error("embedding story candidates failed", "error", err)
		return
	}
	for i := range stories {
		stories[i].Embedding = vectors[i]
	}
}

func publishContext(useRedis bool, narrativeCtx model.NarrativeContext) {
	payload, err := json.Marshal(narrativeCtx)
	if err != nil {
		slog.Error("error encoding narrative context", "error", err)
		return
	}

	if useRedis {
		if err := db.PushToQueue(db.ContextQueueKey, string(payload)); err != nil {
			slog.Error("error publishing narrative context", "error", err)
			return
		}
		slog.Info("narrative context published",
			"threads", len(narrativeCtx.Threads),
			"characters", len(narrativeCtx.Characters),
			"followups", len(narrativeCtx.FollowUps))
		return
	}

	if path := os.Getenv("CONTEXT_FILE"); path != "" {
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			slog.Error("error writing narrative context file", "error", err)
			return
		}
		slog.Info("narrative context written", "path", path)
	}
}
