package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuttle-hub/pairing-hub/internal/application/command"
	"github.com/shuttle-hub/pairing-hub/internal/application/query"
	"github.com/shuttle-hub/pairing-hub/internal/domain/pairing"
	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
	"github.com/shuttle-hub/pairing-hub/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakePlayerRepo struct {
	players   map[player.ID]*player.Player
	sessions  map[string][]player.ID
	fetchErr  error
	updateErr error
	updated   map[player.ID]player.SkillLevel
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{
		players:  make(map[player.ID]*player.Player),
		sessions: make(map[string][]player.ID),
		updated:  make(map[player.ID]player.SkillLevel),
	}
}

func (f *fakePlayerRepo) FetchPlayers(_ context.Context, ids []player.ID) ([]*player.Player, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []*player.Player
	for _, id := range ids {
		if p, ok := f.players[id]; ok {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakePlayerRepo) FetchSessionPlayerIDs(_ context.Context, sessionID string) ([]player.ID, error) {
	ids, ok := f.sessions[sessionID]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return ids, nil
}

func (f *fakePlayerRepo) UpdateSkillLevel(_ context.Context, id player.ID, level player.SkillLevel) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated[id] = level
	return nil
}

type fakeHistoryRepo struct {
	appendErr error
	appended  int
}

func (f *fakeHistoryRepo) AppendRecord(_ context.Context, _ string, _ player.ID, _ player.PairingOutcome) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended++
	return nil
}

func (f *fakeHistoryRepo) FetchHistories(_ context.Context, ids []player.ID) (map[player.ID][]player.PairingOutcome, error) {
	out := make(map[player.ID][]player.PairingOutcome, len(ids))
	for _, id := range ids {
		out[id] = []player.PairingOutcome{}
	}
	return out, nil
}

type fakeParamsRepo struct{}

func (fakeParamsRepo) FetchLatest(context.Context) (pairing.ModelParameters, error) {
	return pairing.DefaultModelParameters(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixtures
// ─────────────────────────────────────────────────────────────────────────────

func seedPlayers(repo *fakePlayerRepo, sessionID string, n int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := player.ID(fmt.Sprintf("00000000-0000-0000-0000-%012d", i+1))
		skill := player.SkillLevel(50 + i)
		repo.players[id] = &player.Player{
			ID:     id,
			Skill:  &skill,
			Status: player.StatusActive,
		}
		repo.sessions[sessionID] = append(repo.sessions[sessionID], id)
		ids = append(ids, id.String())
	}
	return ids
}

func newTestServer(t *testing.T, players *fakePlayerRepo, history *fakeHistoryRepo) *Server {
	t.Helper()

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0

	return NewServer(cfg, Dependencies{
		GenerateSuggestions: query.NewGenerateSuggestionsHandler(players, history, fakeParamsRepo{}, nil, nil, nil),
		ExplainSuggestion:   query.NewExplainSuggestionHandler(nil, nil),
		RecordFeedback:      command.NewRecordFeedbackHandler(history, nil, nil),
		UpdateSkillLevels:   command.NewUpdateSkillLevelsHandler(players, nil, nil),
	})
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// ─────────────────────────────────────────────────────────────────────────────
// Suggestion endpoint
// ─────────────────────────────────────────────────────────────────────────────

func TestGenerateSuggestionsEndpoint(t *testing.T) {
	players := newFakePlayerRepo()
	ids := seedPlayers(players, "sess-1", 6)
	srv := newTestServer(t, players, &fakeHistoryRepo{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/sess-1/suggestions", map[string]interface{}{
		"player_ids": ids,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			SessionID   string `json:"session_id"`
			Suggestions []struct {
				PlayerA    string  `json:"player_a"`
				PlayerB    string  `json:"player_b"`
				Confidence float64 `json:"confidence"`
				Reason     string  `json:"reason"`
			} `json:"suggestions"`
			AlgorithmVersion string `json:"algorithm_version"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, "sess-1", resp.Data.SessionID)
	assert.NotEmpty(t, resp.Data.Suggestions)
	assert.Equal(t, pairing.AlgorithmVersion, resp.Data.AlgorithmVersion)

	seen := make(map[string]bool)
	for _, sug := range resp.Data.Suggestions {
		assert.False(t, seen[sug.PlayerA], "player %s appears twice", sug.PlayerA)
		assert.False(t, seen[sug.PlayerB], "player %s appears twice", sug.PlayerB)
		seen[sug.PlayerA] = true
		seen[sug.PlayerB] = true
		assert.NotEmpty(t, sug.Reason)
	}
}

func TestGenerateSuggestionsTooFewPlayers(t *testing.T) {
	players := newFakePlayerRepo()
	ids := seedPlayers(players, "sess-1", 3)
	srv := newTestServer(t, players, &fakeHistoryRepo{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/sess-1/suggestions", map[string]interface{}{
		"player_ids": ids,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient_players")
}

func TestGenerateSuggestionsMalformedBody(t *testing.T) {
	players := newFakePlayerRepo()
	srv := newTestServer(t, players, &fakeHistoryRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/sess-1/suggestions", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateSuggestionsStoreFailure(t *testing.T) {
	players := newFakePlayerRepo()
	ids := seedPlayers(players, "sess-1", 6)
	players.fetchErr = errors.New("connection refused")
	srv := newTestServer(t, players, &fakeHistoryRepo{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/sess-1/suggestions", map[string]interface{}{
		"player_ids": ids,
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

// ─────────────────────────────────────────────────────────────────────────────
// Feedback endpoint
// ─────────────────────────────────────────────────────────────────────────────

func TestRecordFeedbackEndpoint(t *testing.T) {
	players := newFakePlayerRepo()
	history := &fakeHistoryRepo{}
	srv := newTestServer(t, players, history)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/feedback", map[string]interface{}{
		"session_id":   "sess-1",
		"player_id":    "p1",
		"partner_id":   "p2",
		"feedback":     4,
		"outcome":      "win",
		"ai_suggested": true,
	})

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, history.appended)
}

func TestRecordFeedbackValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{
			name: "rating out of range",
			body: map[string]interface{}{
				"session_id": "sess-1", "player_id": "p1", "partner_id": "p2",
				"feedback": 6, "outcome": "win",
			},
		},
		{
			name: "self pairing",
			body: map[string]interface{}{
				"session_id": "sess-1", "player_id": "p1", "partner_id": "p1",
				"feedback": 3, "outcome": "win",
			},
		},
		{
			name: "bad outcome",
			body: map[string]interface{}{
				"session_id": "sess-1", "player_id": "p1", "partner_id": "p2",
				"feedback": 3, "outcome": "draw",
			},
		},
		{
			name: "missing session",
			body: map[string]interface{}{
				"player_id": "p1", "partner_id": "p2",
				"feedback": 3, "outcome": "win",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, newFakePlayerRepo(), &fakeHistoryRepo{})
			rec := doJSON(t, srv, http.MethodPost, "/api/v1/feedback", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestRecordFeedbackStoreFailure(t *testing.T) {
	history := &fakeHistoryRepo{appendErr: errors.New("disk full")}
	srv := newTestServer(t, newFakePlayerRepo(), history)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/feedback", map[string]interface{}{
		"session_id": "sess-1", "player_id": "p1", "partner_id": "p2",
		"feedback": 3, "outcome": "loss",
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Skill update endpoint
// ─────────────────────────────────────────────────────────────────────────────

func TestUpdateSkillsEndpoint(t *testing.T) {
	players := newFakePlayerRepo()
	seedPlayers(players, "sess-1", 4)
	for _, p := range players.players {
		winRate := 0.75
		p.WinRate = &winRate
		p.GamesPlayed = 20
	}
	srv := newTestServer(t, players, &fakeHistoryRepo{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/sess-1/skill-update", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, players.updated, 4)
}

func TestUpdateSkillsUnknownSession(t *testing.T) {
	srv := newTestServer(t, newFakePlayerRepo(), &fakeHistoryRepo{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/nope/skill-update", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Explanation endpoint
// ─────────────────────────────────────────────────────────────────────────────

func TestExplainSuggestionUnknown(t *testing.T) {
	srv := newTestServer(t, newFakePlayerRepo(), &fakeHistoryRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/suggestions/unknown-id/explanation", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Health and plumbing
// ─────────────────────────────────────────────────────────────────────────────

func TestHealthWithoutChecker(t *testing.T) {
	srv := newTestServer(t, newFakePlayerRepo(), &fakeHistoryRepo{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

type staticChecker struct{ components []ComponentHealth }

func (c staticChecker) CheckHealth(context.Context) []ComponentHealth { return c.components }

func TestHealthDegraded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	srv := NewServer(cfg, Dependencies{
		HealthChecker: staticChecker{components: []ComponentHealth{
			{Name: "postgres", Healthy: true},
			{Name: "redis", Healthy: false, Error: "connection refused"},
		}},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestRequestIDEcho(t *testing.T) {
	srv := newTestServer(t, newFakePlayerRepo(), &fakeHistoryRepo{})

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"request_id":"req-42"`)
}

func TestRequestIDGenerated(t *testing.T) {
	srv := newTestServer(t, newFakePlayerRepo(), &fakeHistoryRepo{})

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
