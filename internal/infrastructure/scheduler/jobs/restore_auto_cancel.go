package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/mentoring"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESTORE AUTO-CANCEL JOB
// Timers live in process memory. After a restart every waiting log without a
// pending task is re-armed with whatever is left of its delay.
// ══════════════════════════════════════════════════════════════════════════════

// AutoCancelRegistry is the in-process auto-cancel scheduler.
type AutoCancelRegistry interface {
	Schedule(logID string, delay time.Duration) error
	Has(logID string) bool
}

// PendingLoader reads the fire times mirrored by a previous process.
type PendingLoader interface {
	LoadAll(ctx context.Context) (map[string]time.Time, error)
}

// RestoreAutoCancelJob re-schedules auto-cancel tasks for waiting logs.
type RestoreAutoCancelJob struct {
	logs     mentoring.Repository
	registry AutoCancelRegistry
	mirror   PendingLoader
	delay    time.Duration
	logger   *logger.Logger
	now      func() time.Time

	lastRunStats atomic.Value // *RestoreStats
}

// RestoreStats contains statistics of one run.
type RestoreStats struct {
	StartedAt  time.Time
	Waiting    int
	Restored   int
	FromMirror int
	Overdue    int
}

// NewRestoreAutoCancelJob creates the job. mirror may be nil.
func NewRestoreAutoCancelJob(
	logs mentoring.Repository,
	registry AutoCancelRegistry,
	mirror PendingLoader,
	delay time.Duration,
	log *logger.Logger,
	now func() time.Time,
) *RestoreAutoCancelJob {
	if now == nil {
		now = time.Now
	}
	return &RestoreAutoCancelJob{
		logs:     logs,
		registry: registry,
		mirror:   mirror,
		delay:    delay,
		logger:   log.With(logger.Component("job.restore_auto_cancel")),
		now:      now,
	}
}

// Name returns the job name.
func (j *RestoreAutoCancelJob) Name() string { return "restore_auto_cancel" }

// Description returns the job description.
func (j *RestoreAutoCancelJob) Description() string {
	return "Re-arms auto-cancel timers of waiting mentorings"
}

// Run executes the job.
func (j *RestoreAutoCancelJob) Run(ctx context.Context) error {
	stats := &RestoreStats{StartedAt: j.now()}
	defer j.lastRunStats.Store(stats)

	waiting, err := j.logs.ListByStatus(ctx, mentoring.StatusWaiting)
	if err != nil {
		return err
	}
	stats.Waiting = len(waiting)

	mirrored := j.loadMirror(ctx)
	now := j.now()

	for _, l := range waiting {
		if j.registry.Has(l.ID) {
			continue
		}

		fireAt, ok := mirrored[l.ID]
		if ok {
			stats.FromMirror++
		} else {
			fireAt = l.CreatedAt.Add(j.delay)
		}

		remaining := fireAt.Sub(now)
		if remaining < 0 {
			remaining = 0
			stats.Overdue++
		}

		if err := j.registry.Schedule(l.ID, remaining); err != nil {
			j.logger.Warn("failed to restore auto-cancel", logger.MentoringLogID(l.ID), logger.Err(err))
			continue
		}
		stats.Restored++
	}

	if stats.Restored > 0 {
		j.logger.Info("auto-cancel tasks restored",
			logger.Int("waiting", stats.Waiting),
			logger.Int("restored", stats.Restored),
			logger.Int("from_mirror", stats.FromMirror),
			logger.Int("overdue", stats.Overdue),
		)
	}
	return nil
}

func (j *RestoreAutoCancelJob) loadMirror(ctx context.Context) map[string]time.Time {
	if j.mirror == nil {
		return nil
	}
	m, err := j.mirror.LoadAll(ctx)
	if err != nil {
		j.logger.Warn("failed to read auto-cancel mirror, using created_at", logger.Err(err))
		return nil
	}
	return m
}

// LastRunStats returns the statistics of the last run, or nil.
func (j *RestoreAutoCancelJob) LastRunStats() *RestoreStats {
	if v, ok := j.lastRunStats.Load().(*RestoreStats); ok {
		return v
	}
	return nil
}
