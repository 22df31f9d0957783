// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/shuttle-hub/pairing-hub/internal/domain/pairing"
	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
	"github.com/shuttle-hub/pairing-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE SUGGESTIONS QUERY
// The engine's main entry point: load model parameters (cache-first), load
// eligible players, score every unordered pair, and reduce the candidates to
// a ranked, player-disjoint suggestion list.
// ══════════════════════════════════════════════════════════════════════════════

// maxAlternativesPerExplanation bounds the passed-over candidates attached
// to each cached explanation.
const maxAlternativesPerExplanation = 3

// MetricsSink receives fire-and-forget generation telemetry. Implementations
// must never block or fail the request.
type MetricsSink interface {
	// ObserveGeneration records one completed generation run.
	ObserveGeneration(sessionID string, candidates, selected int, d time.Duration)

	// CacheHit / CacheMiss / CacheError record cache interactions by kind.
	CacheHit(kind string)
	CacheMiss(kind string)
	CacheError(kind string)
}

// GenerateSuggestionsQuery contains the parameters of one generation run.
type GenerateSuggestionsQuery struct {
	// SessionID identifies the session suggestions are generated for.
	SessionID string

	// PlayerIDs are the candidate players supplied by the caller. Players
	// that are not eligible (e.g. inactive) are excluded before scoring.
	PlayerIDs []string

	// MaxSuggestions limits the returned pairs (0 = unbounded).
	MaxSuggestions int

	// IncludeHistoricalData toggles the historical factor. Nil means the
	// default (true).
	IncludeHistoricalData *bool

	// PreferenceWeight is reserved for future preference tuning (default 1).
	PreferenceWeight float64

	// MinConfidence is the selection threshold. Nil means the default 0.5.
	MinConfidence *float64
}

// Validate checks the query and applies defaults.
func (q *GenerateSuggestionsQuery) Validate() error {
	if q.SessionID == "" {
		return fmt.Errorf("generate_suggestions: session_id is required")
	}
	if q.MaxSuggestions < 0 {
		return fmt.Errorf("generate_suggestions: max_suggestions cannot be negative")
	}
	if q.MinConfidence != nil && (*q.MinConfidence < 0 || *q.MinConfidence > 1) {
		return fmt.Errorf("generate_suggestions: min_confidence must be between 0 and 1")
	}
	return nil
}

// resolve merges the query into scoring options on top of the given defaults.
func (q *GenerateSuggestionsQuery) resolve(base pairing.Options) pairing.Options {
	opts := base
	opts.MaxSuggestions = q.MaxSuggestions
	if q.IncludeHistoricalData != nil {
		opts.IncludeHistoricalData = *q.IncludeHistoricalData
	}
	if q.PreferenceWeight > 0 {
		opts.PreferenceWeight = q.PreferenceWeight
	}
	if q.MinConfidence != nil {
		opts.MinConfidence = *q.MinConfidence
	}
	return opts
}

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

// GenerateSuggestionsHandler handles the GenerateSuggestionsQuery.
//
// The cache and metrics collaborators are optional: a nil cache means every
// run recomputes from the store, and a nil sink drops telemetry. A present
// but failing cache is treated the same as an absent one.
type GenerateSuggestionsHandler struct {
	players player.Repository
	history player.HistoryRepository
	params  pairing.ParamsRepository
	cache   pairing.ResultCache
	metrics MetricsSink
	log     *logger.Logger

	defaults        pairing.Options
	maxAlternatives int
}

// NewGenerateSuggestionsHandler creates a new GenerateSuggestionsHandler.
func NewGenerateSuggestionsHandler(
	players player.Repository,
	history player.HistoryRepository,
	params pairing.ParamsRepository,
	cache pairing.ResultCache,
	metrics MetricsSink,
	log *logger.Logger,
) *GenerateSuggestionsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GenerateSuggestionsHandler{
		players: players,
		history: history,
		params:  params,
		cache:   cache,
		metrics: metrics,
		log:     log.With(logger.Component("suggestion_engine")),

		defaults:        pairing.DefaultOptions(),
		maxAlternatives: maxAlternativesPerExplanation,
	}
}

// Configure replaces the built-in option defaults, typically with values
// from deployment configuration. A non-positive maxAlternatives keeps the
// current cap.
func (h *GenerateSuggestionsHandler) Configure(defaults pairing.Options, maxAlternatives int) {
	h.defaults = defaults
	if maxAlternatives > 0 {
		h.maxAlternatives = maxAlternatives
	}
}

// Handle executes one suggestion-generation run.
//
// Fails fast with ErrInsufficientPlayers before any store access when fewer
// than four players are supplied, and again after eligibility filtering.
// Store failures propagate to the caller; cache failures never do. An empty
// suggestion list is a successful result.
func (h *GenerateSuggestionsHandler) Handle(ctx context.Context, q GenerateSuggestionsQuery) (*pairing.SuggestionSet, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if len(q.PlayerIDs) < pairing.MinEligiblePlayers {
		return nil, pairing.ErrInsufficientPlayers
	}

	start := time.Now()
	opts := q.resolve(h.defaults)

	// 1. Model parameters, cache-first.
	params := h.loadModelParameters(ctx, q.SessionID)
	if params == nil {
		fetched, err := h.params.FetchLatest(ctx)
		if err != nil {
			return nil, err
		}
		params = &fetched
		h.storeModelParameters(ctx, q.SessionID, fetched)
	}

	// 2. Eligible players.
	ids := make([]player.ID, 0, len(q.PlayerIDs))
	for _, id := range q.PlayerIDs {
		ids = append(ids, player.ID(id))
	}
	loaded, err := h.players.FetchPlayers(ctx, ids)
	if err != nil {
		return nil, err
	}

	eligible := make([]*player.Player, 0, len(loaded))
	for _, p := range loaded {
		if p.IsEligible() {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) < pairing.MinEligiblePlayers {
		return nil, pairing.ErrInsufficientPlayers
	}

	// 3. Recent suggestion set for the same session + player set + options.
	cacheKey := suggestionCacheKey(q.SessionID, eligible, opts)
	if cached := h.loadSuggestionSet(ctx, cacheKey); cached != nil {
		h.log.Debug("returning cached suggestion set",
			logger.SessionID(q.SessionID), logger.PairCount(len(cached.Suggestions)))
		return cached, nil
	}

	// 4. Pairing history, skipped entirely when the caller opted out.
	if opts.IncludeHistoricalData {
		histories, err := h.history.FetchHistories(ctx, playerIDs(eligible))
		if err != nil {
			return nil, err
		}
		for _, p := range eligible {
			p.PairingHistory = histories[p.ID]
		}
	}

	// 5. Score all pairs, then select the disjoint ranked subset.
	candidates := pairing.ScoreAllPairs(eligible, *params, opts)
	selected := pairing.SelectDisjoint(candidates, opts.MaxSuggestions, opts.MinConfidence)

	set := pairing.NewSuggestionSet(q.SessionID, selected, params.Version, time.Since(start))

	// 6. Best-effort cache write-back; never fails the request.
	h.storeSuggestionSet(ctx, cacheKey, set)
	h.storeExplanations(ctx, set, candidates, *params)

	if h.metrics != nil {
		h.metrics.ObserveGeneration(q.SessionID, len(candidates), len(selected), set.ProcessingTime)
	}
	h.log.Info("generated pairing suggestions",
		logger.SessionID(q.SessionID),
		logger.Int("eligible_players", len(eligible)),
		logger.Int("candidates", len(candidates)),
		logger.PairCount(len(selected)),
		logger.Latency(set.ProcessingTime))

	return &set, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Cache access - every failure is logged and swallowed
// ──────────────────────────────────────────────────────────────────────────────

func (h *GenerateSuggestionsHandler) loadModelParameters(ctx context.Context, sessionID string) *pairing.ModelParameters {
	if h.cache == nil {
		return nil
	}
	params, err := h.cache.GetModelParameters(ctx, sessionID)
	if err != nil {
		h.cacheError("model_parameters", err)
		return nil
	}
	if params == nil {
		h.cacheMiss("model_parameters")
		return nil
	}
	h.cacheHit("model_parameters")
	return params
}

func (h *GenerateSuggestionsHandler) storeModelParameters(ctx context.Context, sessionID string, params pairing.ModelParameters) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetModelParameters(ctx, sessionID, params); err != nil {
		h.cacheError("model_parameters", err)
	}
}

func (h *GenerateSuggestionsHandler) loadSuggestionSet(ctx context.Context, key string) *pairing.SuggestionSet {
	if h.cache == nil {
		return nil
	}
	set, err := h.cache.GetSuggestionSet(ctx, key)
	if err != nil {
		h.cacheError("suggestion_set", err)
		return nil
	}
	if set == nil {
		h.cacheMiss("suggestion_set")
		return nil
	}
	h.cacheHit("suggestion_set")
	return set
}

func (h *GenerateSuggestionsHandler) storeSuggestionSet(ctx context.Context, key string, set pairing.SuggestionSet) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetSuggestionSet(ctx, key, set); err != nil {
		h.cacheError("suggestion_set", err)
	}
}

// storeExplanations caches a per-candidate explanation for each selected
// pair so the explanation endpoint can answer without re-scoring.
func (h *GenerateSuggestionsHandler) storeExplanations(ctx context.Context, set pairing.SuggestionSet, pool []pairing.Candidate, params pairing.ModelParameters) {
	if h.cache == nil || len(set.Suggestions) == 0 {
		return
	}

	sorted := make([]pairing.Candidate, len(pool))
	copy(sorted, pool)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Confidence > sorted[j].Confidence })

	for _, c := range set.Suggestions {
		exp := pairing.NewExplanation(c, set.SessionID, params).
			WithAlternatives(sorted, h.maxAlternatives)
		if err := h.cache.SetExplanation(ctx, c.ID, exp); err != nil {
			h.cacheError("explanation", err)
		}
	}
}

func (h *GenerateSuggestionsHandler) cacheHit(kind string) {
	if h.metrics != nil {
		h.metrics.CacheHit(kind)
	}
}

func (h *GenerateSuggestionsHandler) cacheMiss(kind string) {
	if h.metrics != nil {
		h.metrics.CacheMiss(kind)
	}
}

func (h *GenerateSuggestionsHandler) cacheError(kind string, err error) {
	h.log.Warn("cache operation failed, degrading gracefully",
		logger.String("kind", kind), logger.Err(err))
	if h.metrics != nil {
		h.metrics.CacheError(kind)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func playerIDs(players []*player.Player) []player.ID {
	ids := make([]player.ID, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	return ids
}

// suggestionCacheKey builds a short-TTL key from the session, the sorted
// eligible player set, and the scoring options, so any change to players or
// options bypasses the memoized set.
func suggestionCacheKey(sessionID string, players []*player.Player, opts pairing.Options) string {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID.String())
	}
	sort.Strings(ids)

	hash := fnv.New64a()
	fmt.Fprintf(hash, "%s|%s|%d|%t|%.3f",
		sessionID, strings.Join(ids, ","), opts.MaxSuggestions, opts.IncludeHistoricalData, opts.MinConfidence)

	return fmt.Sprintf("%s:%x", sessionID, hash.Sum64())
}
