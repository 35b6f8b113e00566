// Package jobs contains the periodic jobs of the mentoring worker.
package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/application/command"
	"github.com/alem-hub/mentoring-hub/internal/domain/mentoring"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE FINISHED MEETINGS JOB
// Confirmed logs whose meeting has ended become done, which opens them for
// report creation.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteFinishedMeetingsJob moves confirmed logs past their meeting end to done.
type CompleteFinishedMeetingsJob struct {
	logs     mentoring.Repository
	complete *command.CompleteMentoringHandler
	logger   *logger.Logger
	now      func() time.Time

	lastRunStats atomic.Value // *CompleteStats
}

// CompleteStats contains statistics of one run.
type CompleteStats struct {
	StartedAt time.Time
	Duration  time.Duration
	Checked   int
	Completed int
	Conflicts int
	Failed    int
}

// NewCompleteFinishedMeetingsJob creates the job. A nil now means time.Now.
func NewCompleteFinishedMeetingsJob(
	logs mentoring.Repository,
	complete *command.CompleteMentoringHandler,
	log *logger.Logger,
	now func() time.Time,
) *CompleteFinishedMeetingsJob {
	if now == nil {
		now = time.Now
	}
	return &CompleteFinishedMeetingsJob{
		logs:     logs,
		complete: complete,
		logger:   log.With(logger.Component("job.complete_finished_meetings")),
		now:      now,
	}
}

// Name returns the job name.
func (j *CompleteFinishedMeetingsJob) Name() string { return "complete_finished_meetings" }

// Description returns the job description.
func (j *CompleteFinishedMeetingsJob) Description() string {
	return "Marks confirmed mentorings as done once the meeting has ended"
}

// Run executes the job.
func (j *CompleteFinishedMeetingsJob) Run(ctx context.Context) error {
	stats := &CompleteStats{StartedAt: j.now()}
	defer func() {
		stats.Duration = time.Since(stats.StartedAt)
		j.lastRunStats.Store(stats)
	}()

	confirmed, err := j.logs.ListByStatus(ctx, mentoring.StatusConfirmed)
	if err != nil {
		return err
	}

	now := j.now()
	for _, l := range confirmed {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Checked++
		if !l.MeetingEndedBefore(now) {
			continue
		}

		_, err := j.complete.Handle(ctx, command.CompleteMentoringCommand{LogID: l.ID})
		switch {
		case err == nil:
			stats.Completed++
		case shared.IsConflict(err):
			// Changed since listing; the next run sees the fresh state.
			stats.Conflicts++
		default:
			stats.Failed++
			j.logger.Warn("failed to complete mentoring", logger.MentoringLogID(l.ID), logger.Err(err))
		}
	}

	if stats.Completed > 0 || stats.Failed > 0 {
		j.logger.Info("finished meetings completed",
			logger.Int("checked", stats.Checked),
			logger.Int("completed", stats.Completed),
			logger.Int("conflicts", stats.Conflicts),
			logger.Int("failed", stats.Failed),
		)
	}
	return nil
}

// LastRunStats returns the statistics of the last run, or nil.
func (j *CompleteFinishedMeetingsJob) LastRunStats() *CompleteStats {
	if v, ok := j.lastRunStats.Load().(*CompleteStats); ok {
		return v
	}
	return nil
}
