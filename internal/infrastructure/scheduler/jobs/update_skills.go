// Package jobs contains the scheduled background jobs of the pairing hub.
package jobs

import (
	"context"
	"time"

	"github.com/shuttle-hub/pairing-hub/internal/application/command"
	"github.com/shuttle-hub/pairing-hub/pkg/logger"
)

// SessionSource lists sessions with recently recorded outcomes.
type SessionSource interface {
	RecentSessionIDs(ctx context.Context, since time.Time) ([]string, error)
}

// SkillUpdater recomputes skill levels for one session's players.
type SkillUpdater interface {
	Handle(ctx context.Context, cmd command.UpdateSkillLevelsCommand) (*command.UpdateSkillLevelsResult, error)
}

// UpdateSkillsJob sweeps sessions that received feedback since the last run
// and recomputes skill levels for their players. Skill estimates therefore
// trail play by at most one sweep interval, never blocking a request.
type UpdateSkillsJob struct {
	sessions SessionSource
	updater  SkillUpdater
	log      *logger.Logger

	// lookback bounds the sweep window. Slightly wider than the sweep
	// interval so a delayed run cannot skip sessions.
	lookback time.Duration
}

// NewUpdateSkillsJob creates the sweep job.
func NewUpdateSkillsJob(sessions SessionSource, updater SkillUpdater, lookback time.Duration, log *logger.Logger) *UpdateSkillsJob {
	if log == nil {
		log = logger.Default()
	}
	if lookback <= 0 {
		lookback = 30 * time.Minute
	}
	return &UpdateSkillsJob{
		sessions: sessions,
		updater:  updater,
		log:      log.With(logger.Component("update_skills_job")),
		lookback: lookback,
	}
}

// Name returns the unique job name.
func (j *UpdateSkillsJob) Name() string {
	return "update_skill_levels"
}

// Run sweeps recent sessions and recomputes skill levels. A failure on one
// session is logged and does not abort the sweep.
func (j *UpdateSkillsJob) Run(ctx context.Context) error {
	since := time.Now().UTC().Add(-j.lookback)

	sessionIDs, err := j.sessions.RecentSessionIDs(ctx, since)
	if err != nil {
		return err
	}

	var updated, skipped int
	for _, sessionID := range sessionIDs {
		result, err := j.updater.Handle(ctx, command.UpdateSkillLevelsCommand{SessionID: sessionID})
		if err != nil {
			j.log.Warn("skill update failed for session",
				logger.SessionID(sessionID),
				logger.Err(err),
			)
			continue
		}
		updated += result.Updated
		skipped += result.Skipped
	}

	j.log.Info("skill sweep finished",
		logger.Int("sessions", len(sessionIDs)),
		logger.Int("updated", updated),
		logger.Int("skipped", skipped),
	)

	return nil
}
