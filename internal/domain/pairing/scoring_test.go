package pairing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
)

// testPlayer builds a player with a known skill level.
func testPlayer(id string, skill int) *player.Player {
	lvl := player.SkillLevel(skill)
	return &player.Player{
		ID:     player.ID(id),
		Skill:  &lvl,
		Status: player.StatusActive,
	}
}

// testPlayerUnknownSkill builds a player whose skill was never assessed.
func testPlayerUnknownSkill(id string) *player.Player {
	return &player.Player{
		ID:     player.ID(id),
		Status: player.StatusActive,
	}
}

func outcome(partner string, feedback int, result player.MatchOutcome) player.PairingOutcome {
	return player.PairingOutcome{
		PartnerID:  player.ID(partner),
		Feedback:   feedback,
		Outcome:    result,
		OccurredAt: time.Now().UTC(),
	}
}

func TestSkillMatch(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *player.Player
		expected float64
	}{
		{
			name:     "equal skill levels score perfect",
			a:        testPlayer("p1", 60),
			b:        testPlayer("p2", 60),
			expected: 1.0,
		},
		{
			name:     "five point gap costs five percent",
			a:        testPlayer("p1", 60),
			b:        testPlayer("p2", 65),
			expected: 0.95,
		},
		{
			name:     "seventy point gap is incompatible",
			a:        testPlayer("p1", 10),
			b:        testPlayer("p2", 80),
			expected: 0.0,
		},
		{
			name:     "exactly fifty point gap is incompatible",
			a:        testPlayer("p1", 20),
			b:        testPlayer("p2", 70),
			expected: 0.0,
		},
		{
			name:     "forty nine point gap still scores",
			a:        testPlayer("p1", 20),
			b:        testPlayer("p2", 69),
			expected: 0.51,
		},
		{
			name:     "unknown skill on one side is neutral",
			a:        testPlayerUnknownSkill("p1"),
			b:        testPlayer("p2", 80),
			expected: 0.5,
		},
		{
			name:     "unknown skill on both sides is neutral",
			a:        testPlayerUnknownSkill("p1"),
			b:        testPlayerUnknownSkill("p2"),
			expected: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SkillMatch(tt.a, tt.b), 0.0001)
			// Symmetric by construction.
			assert.InDelta(t, tt.expected, SkillMatch(tt.b, tt.a), 0.0001)
		})
	}
}

func TestPreferenceMatch(t *testing.T) {
	tests := []struct {
		name     string
		prefsA   player.Preferences
		prefsB   player.Preferences
		expected float64
	}{
		{
			name:     "four identical shared keys score perfect",
			prefsA:   player.Preferences{"singles": "yes", "doubles": "yes", "time": "evening", "skillPreference": "similar"},
			prefsB:   player.Preferences{"singles": "yes", "doubles": "yes", "time": "evening", "skillPreference": "similar"},
			expected: 1.0,
		},
		{
			name:     "three shared keys with one equal",
			prefsA:   player.Preferences{"singles": "yes", "doubles": "no", "time": "morning"},
			prefsB:   player.Preferences{"singles": "yes", "doubles": "yes", "time": "evening"},
			expected: 1.0 / 3.0,
		},
		{
			name:     "no preferences on either side is neutral",
			prefsA:   nil,
			prefsB:   nil,
			expected: 0.5,
		},
		{
			name:     "missing preferences on one side is neutral",
			prefsA:   player.Preferences{"singles": "yes"},
			prefsB:   nil,
			expected: 0.5,
		},
		{
			name:     "disjoint preference keys are neutral",
			prefsA:   player.Preferences{"singles": "yes"},
			prefsB:   player.Preferences{"doubles": "yes"},
			expected: 0.5,
		},
		{
			name:     "extra unshared keys do not dilute the score",
			prefsA:   player.Preferences{"singles": "yes", "court": "indoor"},
			prefsB:   player.Preferences{"singles": "yes", "time": "evening"},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testPlayer("p1", 50)
			a.Preferences = tt.prefsA
			b := testPlayer("p2", 50)
			b.Preferences = tt.prefsB

			assert.InDelta(t, tt.expected, PreferenceMatch(a, b, 1.0), 0.0001)
		})
	}
}

func TestHistoricalCompatibility(t *testing.T) {
	t.Run("no prior pairings is neutral", func(t *testing.T) {
		a := testPlayer("p1", 50)
		b := testPlayer("p2", 50)

		assert.InDelta(t, 0.5, HistoricalCompatibility(a, b), 0.0001)
	})

	t.Run("two wins rated five and four", func(t *testing.T) {
		a := testPlayer("p1", 50)
		a.PairingHistory = []player.PairingOutcome{
			outcome("p2", 5, player.OutcomeWin),
			outcome("p2", 4, player.OutcomeWin),
		}
		b := testPlayer("p2", 50)

		assert.InDelta(t, 0.9, HistoricalCompatibility(a, b), 0.0001)
	})

	t.Run("losses are discounted twice as steeply", func(t *testing.T) {
		a := testPlayer("p1", 50)
		a.PairingHistory = []player.PairingOutcome{
			outcome("p2", 1, player.OutcomeLoss),
			outcome("p2", 2, player.OutcomeLoss),
		}
		b := testPlayer("p2", 50)

		assert.InDelta(t, 0.15, HistoricalCompatibility(a, b), 0.0001)
	})

	t.Run("repetition penalty kicks in at five pairings", func(t *testing.T) {
		a := testPlayer("p1", 50)
		for i := 0; i < 5; i++ {
			a.PairingHistory = append(a.PairingHistory, outcome("p2", 5, player.OutcomeWin))
		}
		b := testPlayer("p2", 50)

		// Perfect average discounted by the flat 0.25 rotation penalty.
		assert.InDelta(t, 0.75, HistoricalCompatibility(a, b), 0.0001)
	})

	t.Run("four pairings take no penalty yet", func(t *testing.T) {
		a := testPlayer("p1", 50)
		for i := 0; i < 4; i++ {
			a.PairingHistory = append(a.PairingHistory, outcome("p2", 5, player.OutcomeWin))
		}
		b := testPlayer("p2", 50)

		assert.InDelta(t, 1.0, HistoricalCompatibility(a, b), 0.0001)
	})

	t.Run("penalty floors at zero", func(t *testing.T) {
		a := testPlayer("p1", 50)
		for i := 0; i < 6; i++ {
			a.PairingHistory = append(a.PairingHistory, outcome("p2", 1, player.OutcomeLoss))
		}
		b := testPlayer("p2", 50)

		assert.InDelta(t, 0.0, HistoricalCompatibility(a, b), 0.0001)
	})

	t.Run("records with other partners are ignored", func(t *testing.T) {
		a := testPlayer("p1", 50)
		a.PairingHistory = []player.PairingOutcome{
			outcome("p3", 1, player.OutcomeLoss),
			outcome("p2", 5, player.OutcomeWin),
		}
		b := testPlayer("p2", 50)

		assert.InDelta(t, 1.0, HistoricalCompatibility(a, b), 0.0001)
	})
}
