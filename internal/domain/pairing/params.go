// Package pairing implements the pairing suggestion engine core: per-pair
// compatibility scoring, confidence aggregation with human-readable reasons,
// and greedy disjoint selection of the final suggestion list.
//
// Everything in this package is pure computation. Collaborator access
// (player store, history store, cache) happens in the application layer;
// the scorers here are ordinary, independently callable functions so they
// stay unit-testable without mocking anything.
package pairing

import (
	"github.com/shuttle-hub/pairing-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MODEL PARAMETERS
// ══════════════════════════════════════════════════════════════════════════════

// ModelParameters holds the factor weights used to aggregate the three factor
// scores into a single confidence value. Weights must be non-negative but
// need not sum to 1; the aggregate is clamped to [0,1].
type ModelParameters struct {
	// SkillWeight is the weight of the skill-match factor.
	SkillWeight float64 `json:"skill_weight"`

	// PreferenceWeight is the weight of the preference-match factor.
	PreferenceWeight float64 `json:"preference_weight"`

	// HistoricalWeight is the weight of the historical-compatibility factor.
	HistoricalWeight float64 `json:"historical_weight"`

	// Version is an opaque model version string, echoed into suggestion
	// sets for traceability.
	Version string `json:"version"`
}

// DefaultModelParameters returns the weights used when the store has no
// tuned parameters yet.
func DefaultModelParameters() ModelParameters {
	return ModelParameters{
		SkillWeight:      0.4,
		PreferenceWeight: 0.3,
		HistoricalWeight: 0.3,
		Version:          "default-v1",
	}
}

// Validate checks that all weights are non-negative.
func (m ModelParameters) Validate() error {
	if m.SkillWeight < 0 || m.PreferenceWeight < 0 || m.HistoricalWeight < 0 {
		return shared.NewDomainError("pairing", "Validate", shared.ErrValueOutOfRange,
			"model weights must be non-negative")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORING OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// DefaultMinConfidence is the confidence threshold applied when the caller
// does not specify one.
const DefaultMinConfidence = 0.5

// Options controls one suggestion-generation run.
type Options struct {
	// MaxSuggestions limits how many disjoint pairs are returned.
	// Zero means unbounded (limited only by the disjoint-pair count).
	MaxSuggestions int

	// IncludeHistoricalData controls whether pairing history contributes to
	// scoring. When false the historical factor is fixed at the neutral 0.5
	// and the history lookup is skipped entirely.
	IncludeHistoricalData bool

	// PreferenceWeight is reserved for future preference-factor tuning.
	// It does not alter the preference-match calculation today.
	PreferenceWeight float64

	// MinConfidence is the minimum confidence a candidate must reach to be
	// selected. Candidates below it are dropped, never errored on.
	MinConfidence float64
}

// DefaultOptions returns the documented option defaults.
func DefaultOptions() Options {
	return Options{
		MaxSuggestions:        0,
		IncludeHistoricalData: true,
		PreferenceWeight:      1.0,
		MinConfidence:         DefaultMinConfidence,
	}
}
