package player

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shuttle-hub/pairing-hub/internal/domain/shared"
)

func TestSkillLevel(t *testing.T) {
	_, err := NewSkillLevel(101)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = NewSkillLevel(-1)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	lvl, err := NewSkillLevel(100)
	assert.NoError(t, err)
	assert.Equal(t, 100, lvl.Int())
}

func TestStatusEligibility(t *testing.T) {
	assert.True(t, StatusActive.IsEligible())
	assert.True(t, StatusGuest.IsEligible())
	assert.False(t, StatusInactive.IsEligible())
	assert.False(t, Status("banned").IsValid())
}

func TestPreferencesSharedKeys(t *testing.T) {
	a := Preferences{"singles": "yes", "time": "evening"}
	b := Preferences{"singles": "no", "court": "indoor"}

	assert.ElementsMatch(t, []string{"singles"}, a.SharedKeys(b))
	assert.Nil(t, a.SharedKeys(nil))
	assert.Nil(t, Preferences(nil).SharedKeys(b))
}

func TestPairingOutcomeValidate(t *testing.T) {
	valid := PairingOutcome{PartnerID: "p2", Feedback: 4, Outcome: OutcomeWin}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		rec  PairingOutcome
		want error
	}{
		{"missing partner", PairingOutcome{Feedback: 3, Outcome: OutcomeWin}, shared.ErrMissingPlayerID},
		{"rating too low", PairingOutcome{PartnerID: "p2", Feedback: 0, Outcome: OutcomeWin}, shared.ErrInvalidRating},
		{"rating too high", PairingOutcome{PartnerID: "p2", Feedback: 6, Outcome: OutcomeWin}, shared.ErrInvalidRating},
		{"bad outcome", PairingOutcome{PartnerID: "p2", Feedback: 3, Outcome: "draw"}, shared.ErrInvalidOutcome},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.rec.Validate(), tt.want)
		})
	}
}

func TestHistoryWith(t *testing.T) {
	p := &Player{
		ID: "p1",
		PairingHistory: []PairingOutcome{
			{PartnerID: "p2", Feedback: 5, Outcome: OutcomeWin},
			{PartnerID: "p3", Feedback: 2, Outcome: OutcomeLoss},
			{PartnerID: "p2", Feedback: 4, Outcome: OutcomeLoss},
		},
	}

	with2 := p.HistoryWith("p2")
	assert.Len(t, with2, 2)
	assert.Empty(t, p.HistoryWith("p9"))
}
