package pairing

import (
	"sort"

	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
)

// ══════════════════════════════════════════════════════════════════════════════
// CANDIDATE GENERATION + DISJOINT SELECTION
// Quadratic pair enumeration (n·(n−1)/2 candidates, 1225 at the 50-player
// ceiling) followed by near-linear greedy selection. Deliberately a greedy
// approximation to maximum-weight disjoint matching: deterministic and fast
// rather than provably optimal. A weighted-matching algorithm could be
// swapped in behind SelectDisjoint without touching any other contract.
// ══════════════════════════════════════════════════════════════════════════════

// MinEligiblePlayers is the smallest eligible player set suggestions can be
// generated for.
const MinEligiblePlayers = 4

// ScoreAllPairs enumerates every unordered pair from the eligible player set
// and scores each via the confidence aggregator. The result is unordered;
// SelectDisjoint owns ranking and filtering.
func ScoreAllPairs(players []*player.Player, params ModelParameters, opts Options) []Candidate {
	n := len(players)
	if n < 2 {
		return nil
	}

	candidates := make([]Candidate, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			confidence, factors := Score(players[i], players[j], params, opts)
			candidates = append(candidates, NewCandidate(players[i].ID, players[j].ID, factors, confidence))
		}
	}
	return candidates
}

// SelectDisjoint picks a ranked, player-disjoint subset of candidates.
//
// Candidates are sorted by confidence descending, ties broken by normalized
// pair order for reproducibility. The sorted list is walked greedily,
// accepting a candidate when its confidence clears minConfidence and neither
// player is already committed to an accepted pair. Selection stops once
// maxSuggestions candidates are accepted (0 = unbounded) or the list is
// exhausted. Accepted candidates are returned in acceptance order, each
// augmented with a generated reason.
//
// Zero accepted candidates is a valid outcome, not an error. With an odd
// eligible player count the last unmatched player is simply left out.
func SelectDisjoint(candidates []Candidate, maxSuggestions int, minConfidence float64) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		if sorted[i].PlayerA != sorted[j].PlayerA {
			return sorted[i].PlayerA < sorted[j].PlayerA
		}
		return sorted[i].PlayerB < sorted[j].PlayerB
	})

	selected := make([]Candidate, 0, len(sorted))
	used := make(map[player.ID]bool)

	for _, c := range sorted {
		if maxSuggestions > 0 && len(selected) >= maxSuggestions {
			break
		}
		if c.Confidence < minConfidence {
			// Sorted descending: nothing further can clear the threshold.
			break
		}
		if used[c.PlayerA] || used[c.PlayerB] {
			continue
		}

		c.Reason = Reason(c.Factors, c.Confidence)
		selected = append(selected, c)
		used[c.PlayerA] = true
		used[c.PlayerB] = true
	}

	return selected
}
