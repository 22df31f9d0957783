package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
	"github.com/shuttle-hub/pairing-hub/internal/domain/shared"
)

type fakePlayerRepo struct {
	players    map[player.ID]*player.Player
	sessionIDs map[string][]player.ID
	updated    map[player.ID]player.SkillLevel
	updateErr  error
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{
		players:    make(map[player.ID]*player.Player),
		sessionIDs: make(map[string][]player.ID),
		updated:    make(map[player.ID]player.SkillLevel),
	}
}

func (f *fakePlayerRepo) FetchPlayers(_ context.Context, ids []player.ID) ([]*player.Player, error) {
	out := make([]*player.Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.players[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlayerRepo) FetchSessionPlayerIDs(_ context.Context, sessionID string) ([]player.ID, error) {
	ids, ok := f.sessionIDs[sessionID]
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

func playerWithRecord(id string, winRate float64, games int) *player.Player {
	return &player.Player{
		ID:          player.ID(id),
		WinRate:     &winRate,
		GamesPlayed: games,
		Status:      player.StatusActive,
	}
}

func TestComputeSkillLevel(t *testing.T) {
	t.Run("even record stays at the midpoint", func(t *testing.T) {
		assert.Equal(t, 50, ComputeSkillLevel(0.5, 20).Int())
	})

	t.Run("monotonic in win rate", func(t *testing.T) {
		prev := -1
		for _, wr := range []float64{0.0, 0.2, 0.4, 0.5, 0.6, 0.8, 1.0} {
			lvl := ComputeSkillLevel(wr, 30).Int()
			assert.GreaterOrEqual(t, lvl, prev)
			prev = lvl
		}
	})

	t.Run("confidence grows with sample size", func(t *testing.T) {
		few := ComputeSkillLevel(1.0, 2).Int()
		many := ComputeSkillLevel(1.0, 100).Int()

		// Both above the midpoint, but the veteran moved much further.
		assert.Greater(t, few, 50)
		assert.Greater(t, many, few)
	})

	t.Run("ten games blend halfway", func(t *testing.T) {
		// blend = 10/(10+10) = 0.5, so a perfect record lands at 75.
		assert.Equal(t, 75, ComputeSkillLevel(1.0, 10).Int())
	})

	t.Run("stays within bounds", func(t *testing.T) {
		assert.Equal(t, 0, ComputeSkillLevel(-0.5, 1000).Int())
		assert.LessOrEqual(t, ComputeSkillLevel(2.0, 1000).Int(), 100)
	})
}

func TestUpdateSkillLevels(t *testing.T) {
	t.Run("recomputes and persists for every session player with data", func(t *testing.T) {
		repo := newFakePlayerRepo()
		repo.players["p1"] = playerWithRecord("p1", 0.8, 40)
		repo.players["p2"] = playerWithRecord("p2", 0.3, 40)
		repo.players["p3"] = &player.Player{ID: "p3", Status: player.StatusActive} // no games yet
		repo.sessionIDs["s1"] = []player.ID{"p1", "p2", "p3"}
		metrics := &fakeCommandMetrics{}
		h := NewUpdateSkillLevelsHandler(repo, metrics, nil)

		res, err := h.Handle(context.Background(), UpdateSkillLevelsCommand{SessionID: "s1"})

		require.NoError(t, err)
		assert.Equal(t, 2, res.Updated)
		assert.Equal(t, 1, res.Skipped)
		assert.Greater(t, repo.updated["p1"].Int(), 50)
		assert.Less(t, repo.updated["p2"].Int(), 50)
		assert.NotContains(t, repo.updated, player.ID("p3"))
		assert.Equal(t, 2, metrics.skillUpdates)
	})

	t.Run("unknown session propagates", func(t *testing.T) {
		h := NewUpdateSkillLevelsHandler(newFakePlayerRepo(), nil, nil)

		_, err := h.Handle(context.Background(), UpdateSkillLevelsCommand{SessionID: "nope"})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("missing session id rejected", func(t *testing.T) {
		h := NewUpdateSkillLevelsHandler(newFakePlayerRepo(), nil, nil)

		_, err := h.Handle(context.Background(), UpdateSkillLevelsCommand{})

		assert.ErrorIs(t, err, shared.ErrInvalidID)
	})

	t.Run("store update failure propagates", func(t *testing.T) {
		repo := newFakePlayerRepo()
		repo.players["p1"] = playerWithRecord("p1", 0.8, 40)
		repo.sessionIDs["s1"] = []player.ID{"p1"}
		repo.updateErr = errors.New("pg down")
		h := NewUpdateSkillLevelsHandler(repo, nil, nil)

		_, err := h.Handle(context.Background(), UpdateSkillLevelsCommand{SessionID: "s1"})

		assert.ErrorContains(t, err, "pg down")
	})
}
