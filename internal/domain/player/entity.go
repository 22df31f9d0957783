// Package player contains the player aggregate: skill, preferences, and
// pairing history as seen by the suggestion engine. Player records are loaded
// from the store at the start of a suggestion request and are immutable for
// the duration of that request.
package player

import (
	"time"

	"github.com/shuttle-hub/pairing-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ID represents a unique player identifier.
type ID string

// IsValid checks that the ID is non-empty.
func (id ID) IsValid() bool {
	return id != ""
}

// String returns the string representation.
func (id ID) String() string {
	return string(id)
}

// SkillLevel represents a player's skill on a 0-100 scale.
// A nil *SkillLevel means the skill is unknown (new player, never assessed).
type SkillLevel int

// IsValid checks that the skill level is within range.
func (s SkillLevel) IsValid() bool {
	return s >= 0 && s <= 100
}

// Int returns the underlying int value.
func (s SkillLevel) Int() int {
	return int(s)
}

// NewSkillLevel creates a validated skill level.
func NewSkillLevel(v int) (SkillLevel, error) {
	s := SkillLevel(v)
	if !s.IsValid() {
		return 0, shared.ErrInvalidSkill
	}
	return s, nil
}

// Status represents the membership status of a player in the group.
type Status string

const (
	// StatusActive - the player is active and eligible for pairing.
	StatusActive Status = "active"

	// StatusInactive - the player left or was deactivated.
	StatusInactive Status = "inactive"

	// StatusGuest - a one-off guest; eligible for pairing.
	StatusGuest Status = "guest"
)

// IsValid checks the status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusGuest:
		return true
	default:
		return false
	}
}

// IsEligible reports whether a player with this status may be paired.
func (s Status) IsEligible() bool {
	return s == StatusActive || s == StatusGuest
}

// Preferences maps arbitrary preference keys (e.g. "singles", "doubles",
// "time", "skillPreference") to their stated values. A nil map means the
// player never filled in preferences, which is distinct from an empty one.
type Preferences map[string]string

// SharedKeys returns the preference keys present in both mappings.
func (p Preferences) SharedKeys(other Preferences) []string {
	if p == nil || other == nil {
		return nil
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		if _, ok := other[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// ══════════════════════════════════════════════════════════════════════════════
// PAIRING OUTCOME
// ══════════════════════════════════════════════════════════════════════════════

// MatchOutcome is the result of a played pairing.
type MatchOutcome string

const (
	// OutcomeWin - the pair won their match.
	OutcomeWin MatchOutcome = "win"

	// OutcomeLoss - the pair lost their match.
	OutcomeLoss MatchOutcome = "loss"
)

// IsValid checks the outcome value.
func (o MatchOutcome) IsValid() bool {
	return o == OutcomeWin || o == OutcomeLoss
}

// PairingOutcome is one append-only record of a past pairing: who the partner
// was, how the player rated it, and whether the pair won. Records carry only
// IDs - never names, emails, or other identifying attributes.
type PairingOutcome struct {
	// PartnerID is the other player of the pair.
	PartnerID ID

	// Feedback is the player-reported rating, 1-5.
	Feedback int

	// Outcome is whether the pair won or lost.
	Outcome MatchOutcome

	// AISuggested marks pairings that came from the suggestion engine.
	AISuggested bool

	// OccurredAt is when the pairing was recorded.
	OccurredAt time.Time
}

// Validate checks the outcome record.
func (p PairingOutcome) Validate() error {
	if !p.PartnerID.IsValid() {
		return shared.ErrMissingPlayerID
	}
	if p.Feedback < 1 || p.Feedback > 5 {
		return shared.ErrInvalidRating
	}
	if !p.Outcome.IsValid() {
		return shared.ErrInvalidOutcome
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PLAYER ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Player is the engine's view of a group member. The suggestion engine never
// needs (and never loads) a player's name or contact details.
type Player struct {
	// ID is the unique player identifier.
	ID ID

	// Skill is the current skill level, nil if unknown.
	Skill *SkillLevel

	// WinRate is the lifetime win rate in [0,1], nil if no games played.
	WinRate *float64

	// GamesPlayed is the number of completed games.
	GamesPlayed int

	// Status determines pairing eligibility.
	Status Status

	// Preferences holds the player's stated preferences, nil if never set.
	Preferences Preferences

	// PairingHistory holds past pairing outcomes for this player. Order is
	// not significant for scoring; only partner identity and count matter.
	PairingHistory []PairingOutcome

	// UpdatedAt is the last store update.
	UpdatedAt time.Time
}

// HasKnownSkill reports whether a skill level has been assessed.
func (p *Player) HasKnownSkill() bool {
	return p.Skill != nil
}

// SkillValue returns the skill level and whether it is known.
func (p *Player) SkillValue() (int, bool) {
	if p.Skill == nil {
		return 0, false
	}
	return p.Skill.Int(), true
}

// HistoryWith filters the pairing history to records with the given partner.
func (p *Player) HistoryWith(partnerID ID) []PairingOutcome {
	var out []PairingOutcome
	for _, rec := range p.PairingHistory {
		if rec.PartnerID == partnerID {
			out = append(out, rec)
		}
	}
	return out
}

// IsEligible reports whether this player can be included in suggestions.
func (p *Player) IsEligible() bool {
	return p.ID.IsValid() && p.Status.IsEligible()
}
