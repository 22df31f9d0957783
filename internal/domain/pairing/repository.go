package pairing

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATOR PORTS
// The engine's view of its external collaborators. Store failures propagate
// to the engine's caller; cache failures are recovered by the engine and
// never surface.
// ══════════════════════════════════════════════════════════════════════════════

// ParamsRepository provides the persisted model parameters.
type ParamsRepository interface {
	// FetchLatest returns the most recent model parameters. Implementations
	// return DefaultModelParameters() when nothing has been tuned yet;
	// store failures propagate as errors.
	FetchLatest(ctx context.Context) (ModelParameters, error)
}

// ResultCache memoizes model parameters, recent suggestion sets, and
// per-candidate explanations. Every method may fail; callers treat a read
// error identically to a miss and swallow write errors, so an unhealthy
// cache degrades the engine instead of failing it.
//
// A nil value with a nil error means "not cached".
type ResultCache interface {
	// GetModelParameters returns session-scoped cached model parameters.
	GetModelParameters(ctx context.Context, sessionID string) (*ModelParameters, error)

	// SetModelParameters caches model parameters for a session.
	SetModelParameters(ctx context.Context, sessionID string, params ModelParameters) error

	// GetSuggestionSet returns a cached suggestion set by its
	// session+player-set key.
	GetSuggestionSet(ctx context.Context, key string) (*SuggestionSet, error)

	// SetSuggestionSet caches a freshly generated suggestion set.
	SetSuggestionSet(ctx context.Context, key string, set SuggestionSet) error

	// GetExplanation returns a cached per-candidate explanation.
	GetExplanation(ctx context.Context, candidateID string) (*Explanation, error)

	// SetExplanation caches the explanation backing one selected candidate.
	SetExplanation(ctx context.Context, candidateID string, exp Explanation) error
}
