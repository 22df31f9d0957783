package command

import (
	"context"
	"math"

	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
	"github.com/shuttle-hub/pairing-hub/internal/domain/shared"
	"github.com/shuttle-hub/pairing-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE SKILL LEVELS COMMAND
// Recomputes each session player's skill level from aggregate win/loss data.
// Invoked out of band after matches complete - never during suggestion
// generation - and is the only mutation path for skill levels.
// ══════════════════════════════════════════════════════════════════════════════

// skillBlendSamples controls how fast the estimate moves from the
// provisional midpoint toward the win-rate-implied level as games accumulate:
// at 10 games the blend weight is 0.5, converging toward 1 with more play.
const skillBlendSamples = 10.0

// UpdateSkillLevelsCommand identifies the session whose players to update.
type UpdateSkillLevelsCommand struct {
	// SessionID is the completed session.
	SessionID string
}

// Validate checks the command.
func (c UpdateSkillLevelsCommand) Validate() error {
	if c.SessionID == "" {
		return shared.ErrInvalidSessionID
	}
	return nil
}

// UpdateSkillLevelsResult reports the outcome of one recompute run.
type UpdateSkillLevelsResult struct {
	// Updated is how many players received a new skill level.
	Updated int

	// Skipped is how many players had no win/loss data to recompute from.
	Skipped int
}

// UpdateSkillLevelsHandler handles the UpdateSkillLevelsCommand.
type UpdateSkillLevelsHandler struct {
	players player.Repository
	metrics CommandMetricsSink
	log     *logger.Logger
}

// NewUpdateSkillLevelsHandler creates a new UpdateSkillLevelsHandler.
func NewUpdateSkillLevelsHandler(players player.Repository, metrics CommandMetricsSink, log *logger.Logger) *UpdateSkillLevelsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &UpdateSkillLevelsHandler{
		players: players,
		metrics: metrics,
		log:     log.With(logger.Component("skill_updater")),
	}
}

// Handle recomputes and persists skill levels for every player associated
// with the session. Players without win/loss data keep their current level.
// Store failures propagate as errors.
func (h *UpdateSkillLevelsHandler) Handle(ctx context.Context, cmd UpdateSkillLevelsCommand) (*UpdateSkillLevelsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	ids, err := h.players.FetchSessionPlayerIDs(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}

	loaded, err := h.players.FetchPlayers(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := &UpdateSkillLevelsResult{}
	for _, p := range loaded {
		if p.WinRate == nil || p.GamesPlayed == 0 {
			result.Skipped++
			continue
		}

		level := ComputeSkillLevel(*p.WinRate, p.GamesPlayed)
		if err := h.players.UpdateSkillLevel(ctx, p.ID, level); err != nil {
			return nil, err
		}
		result.Updated++
	}

	if h.metrics != nil {
		h.metrics.SkillLevelsUpdated(result.Updated)
	}
	h.log.Info("skill levels recomputed",
		logger.SessionID(cmd.SessionID),
		logger.Int("updated", result.Updated),
		logger.Int("skipped", result.Skipped))

	return result, nil
}

// ComputeSkillLevel derives a 0-100 skill level from a win rate and sample
// size. The estimate starts at the provisional midpoint of 50 and blends
// toward the win-rate-implied level as games accumulate, so a few lucky wins
// move a new player far less than a long winning record moves a veteran.
// Monotonic increasing in winRate for any fixed gamesPlayed.
func ComputeSkillLevel(winRate float64, gamesPlayed int) player.SkillLevel {
	if winRate < 0 {
		winRate = 0
	}
	if winRate > 1 {
		winRate = 1
	}

	blend := float64(gamesPlayed) / (float64(gamesPlayed) + skillBlendSamples)
	estimate := 100.0 * (0.5 + (winRate-0.5)*blend)

	v := int(math.Round(estimate))
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return player.SkillLevel(v)
}
