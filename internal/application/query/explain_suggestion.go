package query

import (
	"context"

	"github.com/shuttle-hub/pairing-hub/internal/domain/pairing"
	"github.com/shuttle-hub/pairing-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPLAIN SUGGESTION QUERY
// Returns the detailed factor breakdown and alternatives text behind one
// selected candidate. Explanations are captured at generation time and kept
// in the short-TTL cache, so an expired candidate is simply gone.
// ══════════════════════════════════════════════════════════════════════════════

// ExplainSuggestionQuery identifies the candidate to explain.
type ExplainSuggestionQuery struct {
	// CandidateID is the suggestion candidate's UUID.
	CandidateID string
}

// ExplainSuggestionResult is the explanation plus its rendered text.
type ExplainSuggestionResult struct {
	// Explanation is the structured factor breakdown.
	Explanation pairing.Explanation `json:"explanation"`

	// Text is the human-readable rendering.
	Text string `json:"text"`
}

// ExplainSuggestionHandler handles the ExplainSuggestionQuery.
type ExplainSuggestionHandler struct {
	cache pairing.ResultCache
	log   *logger.Logger
}

// NewExplainSuggestionHandler creates a new ExplainSuggestionHandler.
func NewExplainSuggestionHandler(cache pairing.ResultCache, log *logger.Logger) *ExplainSuggestionHandler {
	if log == nil {
		log = logger.Default()
	}
	return &ExplainSuggestionHandler{
		cache: cache,
		log:   log.With(logger.Component("suggestion_engine")),
	}
}

// Handle looks up the cached explanation for a candidate. Returns
// pairing.ErrSuggestionNotFound when the candidate expired or never existed;
// a cache read failure is indistinguishable from expiry here, by the same
// degrade-not-fail rule as generation.
func (h *ExplainSuggestionHandler) Handle(ctx context.Context, q ExplainSuggestionQuery) (*ExplainSuggestionResult, error) {
	if q.CandidateID == "" {
		return nil, pairing.ErrSuggestionNotFound
	}
	if h.cache == nil {
		return nil, pairing.ErrSuggestionNotFound
	}

	exp, err := h.cache.GetExplanation(ctx, q.CandidateID)
	if err != nil {
		h.log.Warn("explanation cache read failed",
			logger.CandidateID(q.CandidateID), logger.Err(err))
		return nil, pairing.ErrSuggestionNotFound
	}
	if exp == nil {
		return nil, pairing.ErrSuggestionNotFound
	}

	return &ExplainSuggestionResult{
		Explanation: *exp,
		Text:        exp.Text(),
	}, nil
}
