// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"time"

	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
	"github.com/shuttle-hub/pairing-hub/internal/domain/shared"
	"github.com/shuttle-hub/pairing-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD FEEDBACK COMMAND
// Appends one post-match pairing outcome to persistent history. The record
// carries only IDs, the rating, the outcome, and the AI-suggested flag -
// never a name, email, or any other identifying attribute. It becomes
// visible to historical-compatibility scoring on the next generation run.
// ══════════════════════════════════════════════════════════════════════════════

// CommandMetricsSink receives fire-and-forget write-side telemetry.
type CommandMetricsSink interface {
	// FeedbackRecorded counts one persisted feedback record.
	FeedbackRecorded(aiSuggested bool)

	// SkillLevelsUpdated counts players whose skill was recomputed.
	SkillLevelsUpdated(count int)
}

// RecordFeedbackCommand contains one player's rating of a pairing.
type RecordFeedbackCommand struct {
	// SessionID is the session the pairing was played in.
	SessionID string

	// PlayerID is the rating player.
	PlayerID string

	// PartnerID is who they were paired with.
	PartnerID string

	// Feedback is the 1-5 rating.
	Feedback int

	// Outcome is whether the pair won or lost the match.
	Outcome player.MatchOutcome

	// AISuggested marks pairings that came from the suggestion engine.
	AISuggested bool
}

// Validate rejects invalid feedback before any store write is attempted.
func (c RecordFeedbackCommand) Validate() error {
	if c.SessionID == "" {
		return shared.ErrInvalidSessionID
	}
	if c.PlayerID == "" || c.PartnerID == "" {
		return shared.ErrMissingPlayerID
	}
	if c.PlayerID == c.PartnerID {
		return shared.ErrSelfPairing
	}
	if c.Feedback < 1 || c.Feedback > 5 {
		return shared.ErrInvalidRating
	}
	if !c.Outcome.IsValid() {
		return shared.ErrInvalidOutcome
	}
	return nil
}

// RecordFeedbackHandler handles the RecordFeedbackCommand.
type RecordFeedbackHandler struct {
	history player.HistoryRepository
	metrics CommandMetricsSink
	log     *logger.Logger
}

// NewRecordFeedbackHandler creates a new RecordFeedbackHandler.
func NewRecordFeedbackHandler(history player.HistoryRepository, metrics CommandMetricsSink, log *logger.Logger) *RecordFeedbackHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordFeedbackHandler{
		history: history,
		metrics: metrics,
		log:     log.With(logger.Component("feedback_recorder")),
	}
}

// Handle validates and appends the feedback record. History store write
// failures propagate as errors.
func (h *RecordFeedbackHandler) Handle(ctx context.Context, cmd RecordFeedbackCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	record := player.PairingOutcome{
		PartnerID:   player.ID(cmd.PartnerID),
		Feedback:    cmd.Feedback,
		Outcome:     cmd.Outcome,
		AISuggested: cmd.AISuggested,
		OccurredAt:  time.Now().UTC(),
	}

	if err := h.history.AppendRecord(ctx, cmd.SessionID, player.ID(cmd.PlayerID), record); err != nil {
		return err
	}

	if h.metrics != nil {
		h.metrics.FeedbackRecorded(cmd.AISuggested)
	}
	h.log.Info("pairing feedback recorded",
		logger.SessionID(cmd.SessionID),
		logger.PlayerID(cmd.PlayerID),
		logger.Int("feedback", cmd.Feedback),
		logger.Bool("ai_suggested", cmd.AISuggested))

	return nil
}
