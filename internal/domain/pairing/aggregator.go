package pairing

import (
	"fmt"
	"math"
	"strings"

	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIDENCE AGGREGATOR
// Combines the three factor scores via the model weights into a single
// confidence value, and renders the qualitative reason text.
// ══════════════════════════════════════════════════════════════════════════════

// FactorScores carries the three raw factor scores of a candidate pair.
// Factors are always surfaced alongside the aggregate so callers and tests
// can verify each contribution independently.
type FactorScores struct {
	// SkillMatch is the skill-level compatibility factor.
	SkillMatch float64 `json:"skill_match"`

	// PreferenceMatch is the stated-preference agreement factor.
	PreferenceMatch float64 `json:"preference_match"`

	// HistoricalCompatibility is the prior-pairing track-record factor.
	HistoricalCompatibility float64 `json:"historical_compatibility"`
}

// Score computes the three factors for a pair and aggregates them into a
// confidence value in [0,1] using the model weights.
//
// When opts.IncludeHistoricalData is false the historical factor is forced
// to the neutral 0.5 without touching pairing history at all.
func Score(a, b *player.Player, params ModelParameters, opts Options) (float64, FactorScores) {
	factors := FactorScores{
		SkillMatch:              SkillMatch(a, b),
		PreferenceMatch:         PreferenceMatch(a, b, opts.PreferenceWeight),
		HistoricalCompatibility: NeutralScore,
	}
	if opts.IncludeHistoricalData {
		factors.HistoricalCompatibility = HistoricalCompatibility(a, b)
	}

	confidence := params.SkillWeight*factors.SkillMatch +
		params.PreferenceWeight*factors.PreferenceMatch +
		params.HistoricalWeight*factors.HistoricalCompatibility

	return clamp01(confidence), factors
}

// Qualitative phrase buckets for reason text. The generated sentence only
// ever contains derived phrases - never raw preference values, keys, or any
// player-identifying data.
const (
	phraseSkillExcellent = "Excellent skill level match"
	phraseSkillGood      = "Good skill level compatibility"
	phraseSkillContrast  = "Mixed skill levels"

	phrasePrefsStrong = "Strong preference alignment"
	phrasePrefsSome   = "Some shared preferences"

	phraseHistoryPositive = "Positive history together"
)

// Reason builds a short human-readable sentence from qualitative buckets,
// ending with the confidence percentage.
func Reason(factors FactorScores, confidence float64) string {
	parts := make([]string, 0, 4)

	switch {
	case factors.SkillMatch >= 0.9:
		parts = append(parts, phraseSkillExcellent)
	case factors.SkillMatch >= 0.5:
		parts = append(parts, phraseSkillGood)
	default:
		parts = append(parts, phraseSkillContrast)
	}

	switch {
	case factors.PreferenceMatch >= 0.9:
		parts = append(parts, phrasePrefsStrong)
	case factors.PreferenceMatch > NeutralScore:
		parts = append(parts, phrasePrefsSome)
	}

	if factors.HistoricalCompatibility >= 0.7 {
		parts = append(parts, phraseHistoryPositive)
	}

	parts = append(parts, fmt.Sprintf("%d%% confidence", int(math.Round(confidence*100))))

	return strings.Join(parts, ", ")
}
