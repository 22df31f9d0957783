package player

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the store contract the engine depends on.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the player store operations used by the engine.
type Repository interface {
	// FetchPlayers returns the players with the given IDs. Unknown IDs are
	// silently omitted from the result; store failures propagate as errors.
	FetchPlayers(ctx context.Context, ids []ID) ([]*Player, error)

	// FetchSessionPlayerIDs returns the IDs of players associated with a
	// session. Returns shared.ErrSessionNotFound if the session is unknown.
	FetchSessionPlayerIDs(ctx context.Context, sessionID string) ([]ID, error)

	// UpdateSkillLevel persists a recomputed skill level for a player.
	// This is the only mutation path for skill levels.
	UpdateSkillLevel(ctx context.Context, id ID, level SkillLevel) error
}

// HistoryRepository defines the append-only pairing-history store.
type HistoryRepository interface {
	// AppendRecord appends one pairing outcome for a player. Write failures
	// propagate as errors; records are never updated or deleted.
	AppendRecord(ctx context.Context, sessionID string, playerID ID, record PairingOutcome) error

	// FetchHistories returns the pairing history of each given player,
	// most recent first. Players with no history map to an empty slice.
	FetchHistories(ctx context.Context, ids []ID) (map[ID][]PairingOutcome, error)
}
