package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maroffo/BehindBarsPulse/internal/config"
	"github.com/maroffo/BehindBarsPulse/internal/model"
	"github.com/maroffo/BehindBarsPulse/internal/narrative"
)

type SnapshotStore interface {
	Load(ctx context.Context) (*model.MemorySnapshot, error)
}

type ContextHandler struct {
	store SnapshotStore
	cfg   config.Config
}

func NewContextHandler(store SnapshotStore, cfg config.Config) *ContextHandler {
	return &ContextHandler{store: store, cfg: cfg}
}

// GetContext serves the narrative context assembled from the current
// snapshot, without a batch: everything above the relevance floor.
func (h *ContextHandler) GetContext(c *gin.Context) {
	snap, err := h.store.Load(c.Request.Context())
	if err != nil {
		slog.Error("error loading snapshot", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Snapshot error"})
		return
	}

	narrativeCtx := narrative.AssembleContext(snap, nil, time.Now(), h.cfg)

	res := ContextResponse{
		GeneratedAt: narrativeCtx.GeneratedAt.Format(time.RFC3339),
		Threads:     toThreadResponses(narrativeCtx.Threads),
	}
	for _, d := range narrativeCtx.Characters {
		res.Characters = append(res.Characters, toCharacterResponse(d.ID, d.Name, d.Role, d.Aliases, d.LatestPosition))
	}
	for _, f := range narrativeCtx.FollowUps {
		res.FollowUps = append(res.FollowUps, toFollowUpResponse(f))
	}

	c.JSON(http.StatusOK, res)
}

func (h *ContextHandler) GetThreads(c *gin.Context) {
	snap, err := h.store.Load(c.Request.Context())
	if err != nil {
		slog.Error("error loading snapshot", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Snapshot error"})
		return
	}

	status := c.Query("status")
	var threads []model.StoryThread
	for _, t := range snap.Threads {
		if status == "" && t.Status == model.ThreadArchived {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		threads = append(threads, t)
	}

	c.JSON(http.StatusOK, ThreadListResponse{
		Threads: toThreadResponses(threads),
		Total:   len(threads),
	})
}

func (h *ContextHandler) GetCharacters(c *gin.Context) {
	snap, err := h.store.Load(c.Request.Context())
	if err != nil {
		slog.Error("error loading snapshot", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Snapshot error"})
		return
	}

	res := CharacterListResponse{Total: len(snap.Characters)}
	for i := range snap.Characters {
		ch := &snap.Characters[i]
		res.Characters = append(res.Characters, toCharacterResponse(ch.ID, ch.Name, ch.Role, ch.Aliases, ch.LatestPosition()))
	}

	c.JSON(http.StatusOK, res)
}

func (h *ContextHandler) GetFollowUps(c *gin.Context) {
	snap, err := h.store.Load(c.Request.Context())
	if err != nil {
		slog.Error("error loading snapshot", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Snapshot error"})
		return
	}

	status := c.Query("status")
	res := FollowUpListResponse{}
	for _, f := range snap.FollowUps {
		if status != "" && f.Status != status {
			continue
		}
		res.FollowUps = append(res.FollowUps, toFollowUpResponse(f))
	}
	res.Total = len(res.FollowUps)

	c.JSON(http.StatusOK, res)
}

func (h *ContextHandler) GetHealth(c *gin.Context) {
	if _, err := h.store.Load(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"snapshot": "unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"snapshot": "available",
	})
}

func toThreadResponses(threads []model.StoryThread) []ThreadResponse {
	var out []ThreadResponse
	for _, t := range threads {
		out = append(out, ThreadResponse{
			ID:           t.ID,
			Title:        t.Title,
			Summary:      t.Summary,
			Keywords:     t.Keywords,
			Status:       t.Status,
			MentionCount: t.MentionCount,
			ImpactScore:  t.ImpactScore,
			FirstSeen:    t.CreatedAt.Format(time.RFC3339),
			LastSeen:     t.LastSeenAt.Format(time.RFC3339),
		})
	}
	return out
}

func toCharacterResponse(id, name, role string, aliases []string, pos *model.CharacterPosition) CharacterResponse {
	res := CharacterResponse{
		ID:      id,
		Name:    name,
		Role:    role,
		Aliases: aliases,
	}
	if pos != nil {
		res.LatestPosition = &PositionResponse{
			At:        pos.At.Format(time.RFC3339),
			Stance:    pos.Stance,
			ArticleID: pos.ArticleID,
		}
	}
	return res
}

func toFollowUpResponse(f model.FollowUp) FollowUpResponse {
	return FollowUpResponse{
		ID:           f.ID,
		Description:  f.Description,
		ExpectedDate: f.ExpectedDate.Format("2006-01-02"),
		StoryID:      f.StoryID,
		Status:       f.Status,
	}
}
