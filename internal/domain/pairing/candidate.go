package pairing

import (
	"time"

	"github.com/google/uuid"

	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
)

// AlgorithmVersion identifies the selection algorithm that produced a
// suggestion set. Bumped whenever selection semantics change.
const AlgorithmVersion = "greedy-v1"

// ══════════════════════════════════════════════════════════════════════════════
// PAIRING CANDIDATE
// ══════════════════════════════════════════════════════════════════════════════

// Candidate is a scored, unordered pair of players considered for
// suggestion. Candidates are ephemeral: recomputed on every request, never
// persisted (a short-TTL cached copy for explanations aside).
type Candidate struct {
	// ID is a unique identifier for this candidate (UUID), used by the
	// explanation endpoint.
	ID string `json:"id"`

	// PlayerA and PlayerB are the pair, normalized so PlayerA < PlayerB.
	PlayerA player.ID `json:"player_a"`
	PlayerB player.ID `json:"player_b"`

	// Factors carries the three raw factor scores, each in [0,1].
	Factors FactorScores `json:"factors"`

	// Confidence is the weighted aggregate in [0,1] driving ranking.
	Confidence float64 `json:"confidence"`

	// Reason is the qualitative explanation, set on selected candidates.
	// It never contains names, emails, or raw preference values.
	Reason string `json:"reason,omitempty"`
}

// NewCandidate creates a candidate for a pair, normalizing player order so
// equal pairs always compare equal regardless of enumeration order.
func NewCandidate(a, b player.ID, factors FactorScores, confidence float64) Candidate {
	if b < a {
		a, b = b, a
	}
	return Candidate{
		ID:         uuid.NewString(),
		PlayerA:    a,
		PlayerB:    b,
		Factors:    factors,
		Confidence: confidence,
	}
}

// Involves reports whether the candidate contains the given player.
func (c Candidate) Involves(id player.ID) bool {
	return c.PlayerA == id || c.PlayerB == id
}

// Overlaps reports whether two candidates share a player.
func (c Candidate) Overlaps(other Candidate) bool {
	return c.Involves(other.PlayerA) || c.Involves(other.PlayerB)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUGGESTION SET
// ══════════════════════════════════════════════════════════════════════════════

// SuggestionSet is the ordered, player-disjoint result of one generation
// run. An empty set is a valid, successful outcome: it means no candidate
// cleared the confidence threshold and the caller may fall back to manual
// pairing.
type SuggestionSet struct {
	// ID is a unique identifier for this set (UUID).
	ID string `json:"id"`

	// SessionID is the session the suggestions were generated for.
	SessionID string `json:"session_id"`

	// Suggestions are the selected candidates in acceptance order, i.e.
	// descending confidence. No player appears in more than one candidate.
	Suggestions []Candidate `json:"suggestions"`

	// ProcessingTime is how long generation took end to end.
	ProcessingTime time.Duration `json:"processing_time"`

	// AlgorithmVersion identifies the selection algorithm used.
	AlgorithmVersion string `json:"algorithm_version"`

	// ModelVersion is the model-parameters version used for scoring.
	ModelVersion string `json:"model_version"`

	// GeneratedAt is when the set was produced.
	GeneratedAt time.Time `json:"generated_at"`
}

// NewSuggestionSet creates a suggestion set for a session.
func NewSuggestionSet(sessionID string, suggestions []Candidate, modelVersion string, processing time.Duration) SuggestionSet {
	if suggestions == nil {
		suggestions = make([]Candidate, 0)
	}
	return SuggestionSet{
		ID:               uuid.NewString(),
		SessionID:        sessionID,
		Suggestions:      suggestions,
		ProcessingTime:   processing,
		AlgorithmVersion: AlgorithmVersion,
		ModelVersion:     modelVersion,
		GeneratedAt:      time.Now().UTC(),
	}
}

// IsDisjoint verifies the disjointness invariant: no player ID appears in
// more than one selected candidate.
func (s SuggestionSet) IsDisjoint() bool {
	seen := make(map[player.ID]bool, len(s.Suggestions)*2)
	for _, c := range s.Suggestions {
		if seen[c.PlayerA] || seen[c.PlayerB] {
			return false
		}
		seen[c.PlayerA] = true
		seen[c.PlayerB] = true
	}
	return true
}

// FindCandidate returns the selected candidate with the given ID, if any.
func (s SuggestionSet) FindCandidate(candidateID string) (Candidate, bool) {
	for _, c := range s.Suggestions {
		if c.ID == candidateID {
			return c, true
		}
	}
	return Candidate{}, false
}
