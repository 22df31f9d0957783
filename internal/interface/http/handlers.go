package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shuttle-hub/pairing-hub/internal/application/command"
	"github.com/shuttle-hub/pairing-hub/internal/application/query"
	"github.com/shuttle-hub/pairing-hub/internal/domain/pairing"
	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
	"github.com/shuttle-hub/pairing-hub/internal/domain/shared"
)

// maxBodyBytes bounds request bodies; engine requests are small.
const maxBodyBytes = 1 << 20

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleLive always reports alive; used as a liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// handleHealth reports the health of backing services. Degraded backing
// services yield 503 so load balancers rotate the instance out.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	type healthResponse struct {
		Status     string            `json:"status"`
		Components []ComponentHealth `json:"components,omitempty"`
	}

	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
		return
	}

	components := s.deps.HealthChecker.CheckHealth(r.Context())
	status := http.StatusOK
	overall := "ok"
	for _, c := range components {
		if !c.Healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
			break
		}
	}

	writeJSON(w, r, status, healthResponse{Status: overall, Components: components})
}

// ══════════════════════════════════════════════════════════════════════════════
// SUGGESTION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// generateSuggestionsRequest is the POST body for suggestion generation.
type generateSuggestionsRequest struct {
	PlayerIDs             []string `json:"player_ids"`
	MaxSuggestions        int      `json:"max_suggestions"`
	IncludeHistoricalData *bool    `json:"include_historical_data,omitempty"`
	PreferenceWeight      float64  `json:"preference_weight,omitempty"`
	MinConfidence         *float64 `json:"min_confidence,omitempty"`
}

// handleGenerateSuggestions generates disjoint pairing suggestions for a
// session's eligible players.
func (s *Server) handleGenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	var req generateSuggestionsRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	q := query.GenerateSuggestionsQuery{
		SessionID:             sessionID,
		PlayerIDs:             req.PlayerIDs,
		MaxSuggestions:        req.MaxSuggestions,
		IncludeHistoricalData: req.IncludeHistoricalData,
		PreferenceWeight:      req.PreferenceWeight,
		MinConfidence:         req.MinConfidence,
	}

	if err := q.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	set, err := s.deps.GenerateSuggestions.Handle(r.Context(), q)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, r, http.StatusOK, set)
}

// handleExplainSuggestion returns the factor breakdown behind one suggestion.
func (s *Server) handleExplainSuggestion(w http.ResponseWriter, r *http.Request) {
	candidateID := r.PathValue("id")

	result, err := s.deps.ExplainSuggestion.Handle(r.Context(), query.ExplainSuggestionQuery{
		CandidateID: candidateID,
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// FEEDBACK HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// recordFeedbackRequest is the POST body for feedback recording.
type recordFeedbackRequest struct {
	SessionID   string `json:"session_id"`
	PlayerID    string `json:"player_id"`
	PartnerID   string `json:"partner_id"`
	Feedback    int    `json:"feedback"`
	Outcome     string `json:"outcome"`
	AISuggested bool   `json:"ai_suggested"`
}

// handleRecordFeedback appends one pairing outcome to the history store.
func (s *Server) handleRecordFeedback(w http.ResponseWriter, r *http.Request) {
	var req recordFeedbackRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cmd := command.RecordFeedbackCommand{
		SessionID:   req.SessionID,
		PlayerID:    req.PlayerID,
		PartnerID:   req.PartnerID,
		Feedback:    req.Feedback,
		Outcome:     player.MatchOutcome(req.Outcome),
		AISuggested: req.AISuggested,
	}

	if err := s.deps.RecordFeedback.Handle(r.Context(), cmd); err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]string{"status": "recorded"})
}

// handleUpdateSkills recomputes skill levels for a session's players.
func (s *Server) handleUpdateSkills(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	result, err := s.deps.UpdateSkillLevels.Handle(r.Context(), command.UpdateSkillLevelsCommand{
		SessionID: sessionID,
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeEngineError maps application errors to HTTP statuses. Unknown errors
// count as upstream failures: the stores are this service's upstream, and
// their errors pass through the engine unchanged.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pairing.ErrInsufficientPlayers):
		writeJSONError(w, http.StatusUnprocessableEntity, "insufficient_players", err.Error())

	case errors.Is(err, pairing.ErrSuggestionNotFound),
		errors.Is(err, shared.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, shared.ErrInvalidID),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrValueOutOfRange),
		errors.Is(err, shared.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())

	default:
		writeJSONError(w, http.StatusBadGateway, "upstream_error", err.Error())
	}
}

// decodeJSONBody decodes a JSON request body with a size cap.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}
