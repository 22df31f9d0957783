package pairing

import (
	"github.com/shuttle-hub/pairing-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// The engine's error taxonomy. Note what is deliberately absent: there is no
// "no viable suggestions" error - an empty SuggestionSet is a successful
// result - and cache failures never surface here at all.
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInsufficientPlayers - fewer than MinEligiblePlayers eligible players
	// were supplied. Surfaced immediately, before any scoring work.
	ErrInsufficientPlayers = shared.NewDomainError("pairing", "Generate", shared.ErrInvalidInput,
		"Need at least 4 players for AI pairing suggestions")

	// ErrUpstreamUnavailable - a player/history/model-parameter store call
	// failed. The underlying error is propagated to the caller unmodified;
	// the engine never silently falls back to stale or default player data.
	ErrUpstreamUnavailable = shared.NewDomainError("pairing", "Generate", shared.ErrServiceUnavailable,
		"upstream store unavailable")

	// ErrSuggestionNotFound - the candidate an explanation was requested for
	// is no longer available (expired from cache or never existed).
	ErrSuggestionNotFound = shared.NewDomainError("pairing", "Explain", shared.ErrNotFound,
		"suggestion not found or expired")
)
