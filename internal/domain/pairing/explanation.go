package pairing

import (
	"fmt"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUGGESTION EXPLANATION
// Captured at generation time for each selected candidate so the explanation
// endpoint can answer without re-scoring anything.
// ══════════════════════════════════════════════════════════════════════════════

// FactorBreakdown details one factor's contribution to a candidate's
// confidence.
type FactorBreakdown struct {
	// Factor is the factor name ("skill", "preference", "historical").
	Factor string `json:"factor"`

	// Score is the raw factor score in [0,1].
	Score float64 `json:"score"`

	// Weight is the model weight applied to this factor.
	Weight float64 `json:"weight"`

	// Contribution is Score x Weight, the factor's share of the aggregate.
	Contribution float64 `json:"contribution"`
}

// Alternative summarizes a non-selected candidate that involved one of the
// explained pair's players. Only IDs and scores - nothing identifying.
type Alternative struct {
	PlayerA    string  `json:"player_a"`
	PlayerB    string  `json:"player_b"`
	Confidence float64 `json:"confidence"`
}

// Explanation is the detailed factor breakdown behind one selected
// candidate, with the closest alternatives the selector passed over.
type Explanation struct {
	// Candidate is the explained suggestion.
	Candidate Candidate `json:"candidate"`

	// SessionID is the session the suggestion belongs to.
	SessionID string `json:"session_id"`

	// ModelVersion is the model-parameters version used for scoring.
	ModelVersion string `json:"model_version"`

	// Breakdown holds the per-factor contributions.
	Breakdown []FactorBreakdown `json:"breakdown"`

	// Alternatives are the best passed-over candidates sharing a player
	// with this one, confidence descending.
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

// NewExplanation builds the breakdown for a selected candidate.
func NewExplanation(c Candidate, sessionID string, params ModelParameters) Explanation {
	return Explanation{
		Candidate:    c,
		SessionID:    sessionID,
		ModelVersion: params.Version,
		Breakdown: []FactorBreakdown{
			{
				Factor:       "skill",
				Score:        c.Factors.SkillMatch,
				Weight:       params.SkillWeight,
				Contribution: c.Factors.SkillMatch * params.SkillWeight,
			},
			{
				Factor:       "preference",
				Score:        c.Factors.PreferenceMatch,
				Weight:       params.PreferenceWeight,
				Contribution: c.Factors.PreferenceMatch * params.PreferenceWeight,
			},
			{
				Factor:       "historical",
				Score:        c.Factors.HistoricalCompatibility,
				Weight:       params.HistoricalWeight,
				Contribution: c.Factors.HistoricalCompatibility * params.HistoricalWeight,
			},
		},
	}
}

// WithAlternatives attaches the best passed-over candidates that share a
// player with the explained pair, capped at limit. The pool must already be
// in confidence-descending order.
func (e Explanation) WithAlternatives(pool []Candidate, limit int) Explanation {
	alts := make([]Alternative, 0, limit)
	for _, c := range pool {
		if c.ID == e.Candidate.ID {
			continue
		}
		if !c.Overlaps(e.Candidate) {
			continue
		}
		alts = append(alts, Alternative{
			PlayerA:    c.PlayerA.String(),
			PlayerB:    c.PlayerB.String(),
			Confidence: c.Confidence,
		})
		if len(alts) >= limit {
			break
		}
	}
	e.Alternatives = alts
	return e
}

// Text renders the explanation as a short human-readable paragraph. Like
// reason text it only ever contains derived phrases and scores.
func (e Explanation) Text() string {
	var b strings.Builder

	b.WriteString(e.Candidate.Reason)
	if e.Candidate.Reason == "" {
		b.WriteString(Reason(e.Candidate.Factors, e.Candidate.Confidence))
	}
	b.WriteString(". ")

	for _, f := range e.Breakdown {
		fmt.Fprintf(&b, "%s factor scored %.2f (weight %.2f). ", f.Factor, f.Score, f.Weight)
	}

	if len(e.Alternatives) > 0 {
		fmt.Fprintf(&b, "%d alternative pairing(s) were considered with lower or conflicting scores.", len(e.Alternatives))
	}

	return strings.TrimSpace(b.String())
}
