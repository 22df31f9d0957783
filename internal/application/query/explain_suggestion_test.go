package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuttle-hub/pairing-hub/internal/domain/pairing"
)

func TestExplainSuggestion(t *testing.T) {
	candidate := pairing.NewCandidate("p1", "p2", pairing.FactorScores{
		SkillMatch:              0.95,
		PreferenceMatch:         1.0,
		HistoricalCompatibility: 0.9,
	}, 0.93)
	candidate.Reason = pairing.Reason(candidate.Factors, candidate.Confidence)

	explanation := pairing.NewExplanation(candidate, "s1", pairing.DefaultModelParameters())

	t.Run("returns cached explanation with rendered text", func(t *testing.T) {
		cache := newFakeCache()
		cache.explanations[candidate.ID] = explanation
		h := NewExplainSuggestionHandler(cache, nil)

		res, err := h.Handle(context.Background(), ExplainSuggestionQuery{CandidateID: candidate.ID})

		require.NoError(t, err)
		assert.Equal(t, candidate.ID, res.Explanation.Candidate.ID)
		assert.Len(t, res.Explanation.Breakdown, 3)
		assert.Contains(t, res.Text, "skill factor scored")
		assert.Contains(t, res.Text, "% confidence")
	})

	t.Run("unknown candidate", func(t *testing.T) {
		h := NewExplainSuggestionHandler(newFakeCache(), nil)

		_, err := h.Handle(context.Background(), ExplainSuggestionQuery{CandidateID: "nope"})

		assert.ErrorIs(t, err, pairing.ErrSuggestionNotFound)
	})

	t.Run("cache read failure reads as expiry", func(t *testing.T) {
		cache := newFakeCache()
		cache.getErr = errors.New("redis: down")
		h := NewExplainSuggestionHandler(cache, nil)

		_, err := h.Handle(context.Background(), ExplainSuggestionQuery{CandidateID: candidate.ID})

		assert.ErrorIs(t, err, pairing.ErrSuggestionNotFound)
	})

	t.Run("no cache configured", func(t *testing.T) {
		h := NewExplainSuggestionHandler(nil, nil)

		_, err := h.Handle(context.Background(), ExplainSuggestionQuery{CandidateID: candidate.ID})

		assert.ErrorIs(t, err, pairing.ErrSuggestionNotFound)
	})
}
