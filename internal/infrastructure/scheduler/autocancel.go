package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/mentoring"
	"github.com/alem-hub/mentoring-hub/internal/domain/notification"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTO-CANCEL SCHEDULER
// One in-process timer per waiting mentoring log. When a timer fires the log
// is re-read and cancelled only if it is still waiting.
// ══════════════════════════════════════════════════════════════════════════════

// Outcomes reported to AutoCancelMetrics.
const (
	OutcomeCancelled = "cancelled"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// PendingStore mirrors pending tasks outside the process so that a restarted
// worker can re-arm them. The in-process registry stays authoritative.
type PendingStore interface {
	Save(ctx context.Context, logID string, fireAt time.Time) error
	Remove(ctx context.Context, logID string) error
	LoadAll(ctx context.Context) (map[string]time.Time, error)
}

// AutoCancelMetrics receives scheduler counters.
type AutoCancelMetrics interface {
	AutoCancelScheduled(pending int)
	AutoCancelPending(pending int)
	AutoCancelFired(outcome string)
}

// ErrAutoCancelStopped is returned by Schedule after Stop.
var ErrAutoCancelStopped = errors.New("auto-cancel scheduler is stopped")

// PendingTask describes a registered task.
type PendingTask struct {
	LogID  string    `json:"log_id"`
	FireAt time.Time `json:"fire_at"`
}

type autoCancelTask struct {
	seq    uint64
	fireAt time.Time
	timer  *time.Timer
}

// AutoCancelScheduler implements command.AutoCancelScheduler.
type AutoCancelScheduler struct {
	mu      sync.Mutex
	tasks   map[string]*autoCancelTask
	seq     uint64
	stopped bool

	// mirrorMu orders writes to the pending store.
	mirrorMu sync.Mutex

	logs     mentoring.Repository
	notifier notification.Notifier
	pending  PendingStore
	metrics  AutoCancelMetrics
	logger   *logger.Logger

	now         func() time.Time
	fireTimeout time.Duration
	inflight    sync.WaitGroup
}

// AutoCancelConfig contains optional collaborators of the scheduler.
type AutoCancelConfig struct {
	// Pending may be nil when no mirror is available.
	Pending PendingStore
	Metrics AutoCancelMetrics
	Now     func() time.Time

	// FireTimeout bounds the store and notification work of one fired task.
	FireTimeout time.Duration
}

// NewAutoCancelScheduler creates a scheduler with an empty registry.
func NewAutoCancelScheduler(
	logs mentoring.Repository,
	notifier notification.Notifier,
	log *logger.Logger,
	cfg AutoCancelConfig,
) *AutoCancelScheduler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.FireTimeout <= 0 {
		cfg.FireTimeout = 30 * time.Second
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopAutoCancelMetrics{}
	}
	return &AutoCancelScheduler{
		tasks:       make(map[string]*autoCancelTask),
		logs:        logs,
		notifier:    notifier,
		pending:     cfg.Pending,
		metrics:     cfg.Metrics,
		logger:      log.With(logger.Component("auto_cancel")),
		now:         cfg.Now,
		fireTimeout: cfg.FireTimeout,
	}
}

// Schedule registers a task for logID that fires after delay. A task already
// pending under logID is stopped and replaced.
func (s *AutoCancelScheduler) Schedule(logID string, delay time.Duration) error {
	if logID == "" {
		return shared.NewDomainError("mentoring", "ScheduleAutoCancel", shared.ErrInvalidInput, "log id is required")
	}
	if delay < 0 {
		delay = 0
	}

	fireAt := s.now().Add(delay)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrAutoCancelStopped
	}
	if old, ok := s.tasks[logID]; ok {
		old.timer.Stop()
	}
	s.seq++
	seq := s.seq
	task := &autoCancelTask{seq: seq, fireAt: fireAt}
	s.tasks[logID] = task
	task.timer = time.AfterFunc(delay, func() { s.fire(logID, seq) })
	pending := len(s.tasks)
	s.mu.Unlock()

	s.metrics.AutoCancelScheduled(pending)
	s.syncMirror(logID)

	s.logger.Debug("auto-cancel scheduled",
		logger.MentoringLogID(logID),
		logger.Time("fire_at", fireAt),
	)
	return nil
}

// Cancel stops and removes the task for logID. No-op when none is pending.
func (s *AutoCancelScheduler) Cancel(logID string) {
	s.mu.Lock()
	task, ok := s.tasks[logID]
	if ok {
		task.timer.Stop()
		delete(s.tasks, logID)
	}
	pending := len(s.tasks)
	s.mu.Unlock()

	if !ok {
		return
	}
	s.metrics.AutoCancelPending(pending)
	s.syncMirror(logID)
	s.logger.Debug("auto-cancel cancelled", logger.MentoringLogID(logID))
}

// Has reports whether a task is pending for logID.
func (s *AutoCancelScheduler) Has(logID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[logID]
	return ok
}

// List returns the keys of pending tasks in sorted order.
func (s *AutoCancelScheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.tasks))
	for k := range s.tasks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Pending returns pending tasks ordered by fire time.
func (s *AutoCancelScheduler) Pending() []PendingTask {
	s.mu.Lock()
	out := make([]PendingTask, 0, len(s.tasks))
	for k, t := range s.tasks {
		out = append(out, PendingTask{LogID: k, FireAt: t.fireAt})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

// Stop stops every timer and waits for callbacks already running. The mirror
// is left intact so the next worker can restore the tasks. Schedule fails
// after Stop.
func (s *AutoCancelScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for k, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, k)
	}
	s.mu.Unlock()
	s.inflight.Wait()
}

// ══════════════════════════════════════════════════════════════════════════════
// FIRING
// ══════════════════════════════════════════════════════════════════════════════

func (s *AutoCancelScheduler) fire(logID string, seq uint64) {
	if !s.begin(logID, seq) {
		return
	}
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.fireTimeout)
	defer cancel()
	defer s.finish(logID, seq)

	log := s.logger.With(logger.MentoringLogID(logID))

	defer func() {
		if r := recover(); r != nil {
			s.metrics.AutoCancelFired(OutcomeFailed)
			log.Error("auto-cancel panicked", logger.Any("panic", r))
		}
	}()

	current, err := s.logs.GetByID(ctx, logID)
	if err != nil {
		s.metrics.AutoCancelFired(OutcomeFailed)
		log.Error("auto-cancel: failed to load mentoring log", logger.Err(err))
		return
	}

	if current.Status != mentoring.StatusWaiting {
		s.metrics.AutoCancelFired(OutcomeSkipped)
		log.Info("auto-cancel skipped", logger.String("status", current.Status.String()))
		return
	}

	if err := current.AutoCancel(s.now()); err != nil {
		s.metrics.AutoCancelFired(OutcomeFailed)
		log.Error("auto-cancel: transition rejected", logger.Err(err))
		return
	}
	if err := s.logs.Update(ctx, current); err != nil {
		s.metrics.AutoCancelFired(OutcomeFailed)
		log.Warn("auto-cancel: failed to persist", logger.Err(err), logger.Bool("retryable", shared.IsRetryable(err)))
		return
	}

	s.notifier.Notify(logID, notification.MailTypeCancelToCadet)
	s.metrics.AutoCancelFired(OutcomeCancelled)
	log.Info("mentoring auto-cancelled")
}

// begin registers a callback as in flight while its task is still the current
// generation. Stop removes every task under the same lock before waiting, so
// no callback is added once Wait has started.
func (s *AutoCancelScheduler) begin(logID string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[logID]
	if !ok || task.seq != seq {
		return false
	}
	s.inflight.Add(1)
	return true
}

// finish removes the task only if it is still the generation that fired,
// so a replacement registered meanwhile survives.
func (s *AutoCancelScheduler) finish(logID string, seq uint64) {
	s.mu.Lock()
	task, ok := s.tasks[logID]
	current := ok && task.seq == seq
	if current {
		delete(s.tasks, logID)
	}
	pending := len(s.tasks)
	s.mu.Unlock()

	if current {
		s.metrics.AutoCancelPending(pending)
		s.syncMirror(logID)
	}
}

// syncMirror writes the registry's current state for logID to the pending
// store. Writes are serialized and each reads the registry after taking
// mirrorMu, so the last write always reflects the latest Schedule or Cancel.
// After Stop the mirror is left untouched.
func (s *AutoCancelScheduler) syncMirror(logID string) {
	if s.pending == nil {
		return
	}
	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()

	s.mu.Lock()
	stopped := s.stopped
	task, ok := s.tasks[logID]
	var fireAt time.Time
	if ok {
		fireAt = task.fireAt
	}
	s.mu.Unlock()

	if stopped {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if ok {
		if err := s.pending.Save(ctx, logID, fireAt); err != nil {
			s.logger.Warn("failed to mirror auto-cancel task", logger.MentoringLogID(logID), logger.Err(err))
		}
		return
	}
	if err := s.pending.Remove(ctx, logID); err != nil {
		s.logger.Warn("failed to remove mirrored auto-cancel task", logger.MentoringLogID(logID), logger.Err(err))
	}
}

type nopAutoCancelMetrics struct{}

func (nopAutoCancelMetrics) AutoCancelScheduled(int) {}
func (nopAutoCancelMetrics) AutoCancelPending(int)   {}
func (nopAutoCancelMetrics) AutoCancelFired(string)  {}
