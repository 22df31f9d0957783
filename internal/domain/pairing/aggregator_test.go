package pairing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
)

func TestScore(t *testing.T) {
	params := ModelParameters{
		SkillWeight:      0.4,
		PreferenceWeight: 0.3,
		HistoricalWeight: 0.3,
		Version:          "test-v1",
	}

	t.Run("weighted sum of the three factors", func(t *testing.T) {
		a := testPlayer("p1", 60)
		a.Preferences = player.Preferences{"singles": "yes"}
		a.PairingHistory = []player.PairingOutcome{
			outcome("p2", 5, player.OutcomeWin),
		}
		b := testPlayer("p2", 60)
		b.Preferences = player.Preferences{"singles": "yes"}

		confidence, factors := Score(a, b, params, DefaultOptions())

		assert.InDelta(t, 1.0, factors.SkillMatch, 0.0001)
		assert.InDelta(t, 1.0, factors.PreferenceMatch, 0.0001)
		assert.InDelta(t, 1.0, factors.HistoricalCompatibility, 0.0001)
		assert.InDelta(t, 1.0, confidence, 0.0001)
	})

	t.Run("raw factors are surfaced alongside the aggregate", func(t *testing.T) {
		a := testPlayer("p1", 60)
		b := testPlayer("p2", 80)

		confidence, factors := Score(a, b, params, DefaultOptions())

		assert.InDelta(t, 0.8, factors.SkillMatch, 0.0001)
		assert.InDelta(t, 0.5, factors.PreferenceMatch, 0.0001)
		assert.InDelta(t, 0.5, factors.HistoricalCompatibility, 0.0001)
		assert.InDelta(t, 0.4*0.8+0.3*0.5+0.3*0.5, confidence, 0.0001)
	})

	t.Run("historical data can be skipped entirely", func(t *testing.T) {
		a := testPlayer("p1", 60)
		a.PairingHistory = []player.PairingOutcome{
			outcome("p2", 1, player.OutcomeLoss),
			outcome("p2", 1, player.OutcomeLoss),
		}
		b := testPlayer("p2", 60)

		opts := DefaultOptions()
		opts.IncludeHistoricalData = false

		_, factors := Score(a, b, params, opts)

		// Forced neutral, not the poor 0.1 the history would produce.
		assert.InDelta(t, 0.5, factors.HistoricalCompatibility, 0.0001)
	})

	t.Run("confidence clamps when weights exceed one", func(t *testing.T) {
		heavy := ModelParameters{SkillWeight: 1.0, PreferenceWeight: 1.0, HistoricalWeight: 1.0, Version: "heavy"}
		a := testPlayer("p1", 60)
		b := testPlayer("p2", 60)

		confidence, _ := Score(a, b, heavy, DefaultOptions())

		assert.Equal(t, 1.0, confidence)
	})
}

func TestReason(t *testing.T) {
	t.Run("excellent skill bucket", func(t *testing.T) {
		reason := Reason(FactorScores{SkillMatch: 0.95, PreferenceMatch: 0.5, HistoricalCompatibility: 0.5}, 0.72)

		assert.Contains(t, reason, "Excellent skill level match")
		assert.Contains(t, reason, "72% confidence")
	})

	t.Run("good skill bucket", func(t *testing.T) {
		reason := Reason(FactorScores{SkillMatch: 0.7, PreferenceMatch: 0.5, HistoricalCompatibility: 0.5}, 0.6)

		assert.Contains(t, reason, "Good skill level compatibility")
		assert.NotContains(t, reason, "Excellent")
	})

	t.Run("weak skill bucket stays neutral in tone", func(t *testing.T) {
		reason := Reason(FactorScores{SkillMatch: 0.2, PreferenceMatch: 0.4, HistoricalCompatibility: 0.5}, 0.35)

		assert.NotContains(t, reason, "Excellent")
		assert.NotContains(t, reason, "Strong")
	})

	t.Run("strong preference alignment only at high match", func(t *testing.T) {
		strong := Reason(FactorScores{SkillMatch: 0.95, PreferenceMatch: 0.95, HistoricalCompatibility: 0.5}, 0.9)
		weak := Reason(FactorScores{SkillMatch: 0.95, PreferenceMatch: 0.6, HistoricalCompatibility: 0.5}, 0.8)

		assert.Contains(t, strong, "Strong preference alignment")
		assert.NotContains(t, weak, "Strong")
	})

	t.Run("never echoes raw preference values or names", func(t *testing.T) {
		reason := Reason(FactorScores{SkillMatch: 0.95, PreferenceMatch: 1.0, HistoricalCompatibility: 0.9}, 0.93)

		for _, leak := range []string{"singles", "doubles", "evening", "@", "p1", "p2"} {
			assert.NotContains(t, reason, leak)
		}
	})

	t.Run("single readable sentence within a loose length band", func(t *testing.T) {
		reason := Reason(FactorScores{SkillMatch: 0.95, PreferenceMatch: 0.95, HistoricalCompatibility: 0.9}, 0.93)

		assert.Greater(t, len(reason), 20)
		assert.Less(t, len(reason), 200)
		assert.False(t, strings.Contains(reason, "\n"))
	})

	t.Run("confidence percentage is rounded", func(t *testing.T) {
		reason := Reason(FactorScores{SkillMatch: 0.5, PreferenceMatch: 0.5, HistoricalCompatibility: 0.5}, 0.666)

		assert.Contains(t, reason, "67% confidence")
	})
}
