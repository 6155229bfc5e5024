package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"github.com/maroffo/BehindBarsPulse/internal/config"
	"github.com/maroffo/BehindBarsPulse/internal/model"
)

type fakeStore struct {
	snap *model.MemorySnapshot
	err  error
}

func (f *fakeStore) Load(ctx context.Context) (*model.MemorySnapshot, error) {
	return f.snap, f.err
}

func newTestRouter(store SnapshotStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewContextHandler(store, config.Default())
	r.GET("/context", h.GetContext)
	r.GET("/threads", h.GetThreads)
	r.GET("/characters", h.GetCharacters)
	r.GET("/followups", h.GetFollowUps)
	r.GET("/health", h.GetHealth)
	return r
}

func testSnapshot() *model.MemorySnapshot {
	now := time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)
	archivedAt := now.AddDate(0, 0, -10)

	snap := model.NewSnapshot()
	snap.UpdatedAt = now
	snap.Threads = []model.StoryThread{
		{
			ID:           "thread-1",
			Title:        "Decreto carceri",
			Keywords:     []string{"decreto", "carceri"},
			Status:       model.ThreadActive,
			MentionCount: 4,
			ImpactScore:  62,
			CreatedAt:    now.AddDate(0, 0, -30),
			LastSeenAt:   now,
		},
		{
			ID:         "thread-2",
			Title:      "Vecchia inchiesta",
			Status:     model.ThreadArchived,
			ArchivedAt: &archivedAt,
			CreatedAt:  now.AddDate(0, 0, -80),
			LastSeenAt: now.AddDate(0, 0, -60),
		},
	}
	snap.Characters = []model.KeyCharacter{{
		ID:         "char-1",
		Name:       "Carlo Nordio",
		Role:       "Ministro della Giustizia",
		Aliases:    []string{"Nordio"},
		Positions:  []model.CharacterPosition{{At: now, Stance: "Difende il decreto", ArticleID: "art-1"}},
		LastSeenAt: now,
	}}
	snap.FollowUps = []model.FollowUp{
		{ID: "fu-1", Description: "sentenza attesa", ExpectedDate: now.AddDate(0, 0, 5), Status: model.FollowUpPending, CreatedAt: now},
		{ID: "fu-2", Description: "udienza conclusa", ExpectedDate: now.AddDate(0, 0, -5), Status: model.FollowUpResolved, CreatedAt: now.AddDate(0, 0, -20)},
	}
	return snap
}

func TestGetThreads_HidesArchivedByDefault(t *testing.T) {
	r := newTestRouter(&fakeStore{snap: testSnapshot()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/threads", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res ThreadListResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "thread-1", res.Threads[0].ID)
	assert.Equal(t, 62.0, res.Threads[0].ImpactScore)
}

func TestGetThreads_StatusFilter(t *testing.T) {
	r := newTestRouter(&fakeStore{snap: testSnapshot()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/threads?status=archived", nil)
	r.ServeHTTP(w, req)

	var res ThreadListResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "thread-2", res.Threads[0].ID)
}

func TestGetThreads_StoreError(t *testing.T) {
	r := newTestRouter(&fakeStore{err: errors.New("disk gone")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/threads", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetCharacters_IncludesLatestPosition(t *testing.T) {
	r := newTestRouter(&fakeStore{snap: testSnapshot()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/characters", nil)
	r.ServeHTTP(w, req)

	var res CharacterListResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "Carlo Nordio", res.Characters[0].Name)
	if res.Characters[0].LatestPosition == nil {
		t.Fatal("expected latest position")
	}
	assert.Equal(t, "Difende il decreto", res.Characters[0].LatestPosition.Stance)
}

func TestGetFollowUps_StatusFilter(t *testing.T) {
	r := newTestRouter(&fakeStore{snap: testSnapshot()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/followups?status=pending", nil)
	r.ServeHTTP(w, req)

	var res FollowUpListResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "fu-1", res.FollowUps[0].ID)
	assert.Equal(t, "2025-03-10", res.FollowUps[0].ExpectedDate)
}

func TestGetContext_ReturnsAssembledPayload(t *testing.T) {
	r := newTestRouter(&fakeStore{snap: testSnapshot()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/context", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res ContextResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, len(res.Threads))
	assert.Equal(t, "thread-1", res.Threads[0].ID)
}

func TestGetHealth_Healthy(t *testing.T) {
	r := newTestRouter(&fakeStore{snap: testSnapshot()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetHealth_Unhealthy(t *testing.T) {
	r := newTestRouter(&fakeStore{err: errors.New("disk gone")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
