package pairing

import (
	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTOR SCORERS
// Three independent pure functions, each returning a normalized score in
// [0,1]. 0.5 is the neutral score: insufficient information, neither
// penalize nor reward.
// ══════════════════════════════════════════════════════════════════════════════

// NeutralScore is returned by every factor when there is not enough
// information to compare two players.
const NeutralScore = 0.5

// Skill-match curve constants. Each point of skill difference costs 1% of
// match quality; beyond a 50-point gap the players are considered
// incompatible on skill.
const (
	skillGapCutoff = 50
	skillGapCost   = 0.01
)

// Historical scoring constants. Losses are discounted twice as steeply as
// wins so a well-rated loss never looks as good as an equally rated win.
// Pairs with five or more prior pairings take a flat repetition penalty to
// promote rotation variety.
const (
	winFeedbackScale    = 5.0
	lossFeedbackScale   = 10.0
	repetitionThreshold = 5
	repetitionPenalty   = 0.25
)

// SkillMatch scores how well two players' skill levels line up.
//
// Unknown skill on either side scores the neutral 0.5. Identical levels
// score 1.0, and the score decays linearly until a 50-point gap, beyond
// which it is 0.
func SkillMatch(a, b *player.Player) float64 {
	sa, okA := a.SkillValue()
	sb, okB := b.SkillValue()
	if !okA || !okB {
		return NeutralScore
	}

	diff := sa - sb
	if diff < 0 {
		diff = -diff
	}
	if diff >= skillGapCutoff {
		return 0.0
	}

	return clamp01(1.0 - float64(diff)*skillGapCost)
}

// PreferenceMatch scores agreement across the preference keys both players
// have filled in. The weight parameter is reserved for future tuning and
// does not alter the calculation.
//
// Missing preferences on either side, or zero comparable keys, score the
// neutral 0.5. Otherwise the score is the fraction of shared keys whose
// values agree.
func PreferenceMatch(a, b *player.Player, weight float64) float64 {
	_ = weight

	if a.Preferences == nil || b.Preferences == nil {
		return NeutralScore
	}

	sharedKeys := a.Preferences.SharedKeys(b.Preferences)
	if len(sharedKeys) == 0 {
		return NeutralScore
	}

	matching := 0
	for _, key := range sharedKeys {
		if a.Preferences[key] == b.Preferences[key] {
			matching++
		}
	}

	return float64(matching) / float64(len(sharedKeys))
}

// HistoricalCompatibility scores two players' track record as a pair, from
// a's pairing history filtered to records with partner b.
//
// No prior pairings score the neutral 0.5. Each record scores feedback/5 for
// a win and feedback/10 for a loss; the per-record scores are averaged.
// Five or more prior pairings subtract a flat 0.25 from the average
// (floored at 0) so even a historically great pair rotates eventually.
func HistoricalCompatibility(a, b *player.Player) float64 {
	records := a.HistoryWith(b.ID)
	if len(records) == 0 {
		return NeutralScore
	}

	total := 0.0
	for _, rec := range records {
		if rec.Outcome == player.OutcomeWin {
			total += float64(rec.Feedback) / winFeedbackScale
		} else {
			total += float64(rec.Feedback) / lossFeedbackScale
		}
	}
	avg := total / float64(len(records))

	if len(records) >= repetitionThreshold {
		avg -= repetitionPenalty
	}

	return clamp01(avg)
}

// clamp01 clamps v to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
