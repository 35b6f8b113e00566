// Package messaging implements the asynchronous delivery of notification
// mail: a queue with in-memory or Redis backends and a pool of workers that
// compose, send and retry.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/notification"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
	"github.com/alem-hub/mentoring-hub/pkg/retry"
)

// Delivery outcomes reported to MailMetrics.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
	ResultSkipped = "skipped"
)

var (
	// ErrQueueStopped is returned by Start on a stopped queue.
	ErrQueueStopped = errors.New("mail queue: stopped")

	// ErrQueueRunning is returned by Start on a running queue.
	ErrQueueRunning = errors.New("mail queue: already running")
)

// MailMetrics receives delivery counters.
type MailMetrics interface {
	MailDelivered(mailType, result string)
	MailQueueDepth(depth int)
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// MailQueueConfig configures a MailQueue.
type MailQueueConfig struct {
	Backend  Backend
	Composer notification.Composer
	Mailer   notification.Mailer
	Metrics  MailMetrics
	Logger   *logger.Logger

	Workers       int
	MaxRetries    int
	RetryBaseWait time.Duration

	// SendTimeout bounds one compose-and-send attempt.
	SendTimeout time.Duration

	// PushTimeout bounds Notify's enqueue call.
	PushTimeout time.Duration

	// PollInterval is how long an idle worker waits on the backend.
	PollInterval time.Duration

	DeadLetterSize int
	Now            func() time.Time
}

func (c *MailQueueConfig) setDefaults() {
	if c.Backend == nil {
		c.Backend = NewMemoryBackend(0)
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBaseWait <= 0 {
		c.RetryBaseWait = time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
	if c.PushTimeout <= 0 {
		c.PushTimeout = 2 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIL QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// MailQueue implements notification.Notifier. Notify encodes the request and
// returns; workers started with Start deliver it.
type MailQueue struct {
	cfg         MailQueueConfig
	logger      *logger.Logger
	deadLetters *DeadLetterQueue

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

var _ notification.Notifier = (*MailQueue)(nil)

// NewMailQueue creates a MailQueue. Composer and Mailer are required.
func NewMailQueue(cfg MailQueueConfig) (*MailQueue, error) {
	if cfg.Composer == nil || cfg.Mailer == nil {
		return nil, errors.New("mail queue: composer and mailer are required")
	}
	cfg.setDefaults()

	return &MailQueue{
		cfg:         cfg,
		logger:      cfg.Logger.With(logger.Component("mail_queue")),
		deadLetters: NewDeadLetterQueue(cfg.DeadLetterSize),
	}, nil
}

// Notify enqueues a mail request. Failures are logged and counted, never
// returned, so callers are not blocked by mail delivery.
func (q *MailQueue) Notify(logID string, t notification.MailType) {
	log := q.logger.With(logger.MentoringLogID(logID), logger.MailType(t.String()))

	if !t.IsValid() || logID == "" {
		log.Warn("invalid mail request dropped")
		q.count(t, ResultDropped)
		return
	}

	payload, err := json.Marshal(notification.Request{
		MentoringLogID: logID,
		Type:           t,
		EnqueuedAt:     q.cfg.Now(),
	})
	if err != nil {
		log.Error("failed to encode mail request", logger.Err(err))
		q.count(t, ResultDropped)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.cfg.PushTimeout)
	defer cancel()

	if err := q.cfg.Backend.Push(ctx, payload); err != nil {
		log.Error("failed to enqueue mail", logger.Err(err))
		q.count(t, ResultDropped)
		return
	}
	log.Debug("mail enqueued")
}

// Start launches the workers. They run until Stop or ctx is done.
func (q *MailQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return ErrQueueStopped
	}
	if q.running {
		return ErrQueueRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.running = true

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(runCtx, i)
	}

	q.logger.Info("mail queue started", logger.Int("workers", q.cfg.Workers))
	return nil
}

// Stop signals the workers and waits for in-flight deliveries or ctx.
// Queued requests stay in the backend.
func (q *MailQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.stopped = true
		q.mu.Unlock()
		return nil
	}
	q.running = false
	q.stopped = true
	q.cancel()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("mail queue: stop: %w", ctx.Err())
	}

	if n, err := q.cfg.Backend.Len(context.WithoutCancel(ctx)); err == nil && n > 0 {
		q.logger.Warn("mail queue stopped with pending requests", logger.Int("pending", n))
	}
	q.logger.Info("mail queue stopped")
	return nil
}

// DeadLetters returns the most recent undeliverable requests.
func (q *MailQueue) DeadLetters() []DeadLetterEntry {
	return q.deadLetters.Entries()
}

// Depth returns the number of queued requests.
func (q *MailQueue) Depth(ctx context.Context) (int, error) {
	return q.cfg.Backend.Len(ctx)
}

// ─────────────────────────────────────────────────────────────────────────────
// Workers
// ─────────────────────────────────────────────────────────────────────────────

func (q *MailQueue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	log := q.logger.With(logger.Int("worker", id))

	for {
		if ctx.Err() != nil {
			return
		}

		payload, err := q.cfg.Backend.Pop(ctx, q.cfg.PollInterval)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("failed to read mail queue", logger.Err(err))
			sleep(ctx, q.cfg.PollInterval)
			continue
		}
		if payload == nil {
			continue
		}

		q.reportDepth(ctx)
		q.process(ctx, payload)
	}
}

func (q *MailQueue) process(ctx context.Context, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("panic in mail worker",
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())),
			)
		}
	}()

	var req notification.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		q.logger.Error("malformed mail request dropped", logger.Err(err))
		q.count("", ResultDropped)
		return
	}

	log := q.logger.With(logger.MentoringLogID(req.MentoringLogID), logger.MailType(req.Type.String()))
	start := q.cfg.Now()

	retrier := retry.MailRetrier(q.cfg.MaxRetries, q.cfg.RetryBaseWait,
		retry.WithRetryIf(func(err error) bool { return !retry.IsPermanent(err) }),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("mail delivery failed, retrying",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err),
			)
		}),
	)

	err := retrier.Do(ctx, func(ctx context.Context) error {
		req.Attempt++
		return q.deliver(ctx, req)
	})

	switch {
	case err == nil:
		log.Info("mail sent", logger.Int("attempts", req.Attempt), logger.Latency(q.cfg.Now().Sub(start)))
		q.count(req.Type, ResultSent)
	case errors.Is(err, errSkip):
		log.Warn("mail skipped", logger.Err(err))
		q.count(req.Type, ResultSkipped)
	default:
		log.Error("mail delivery failed", logger.Int("attempts", req.Attempt), logger.Err(err))
		q.count(req.Type, ResultFailed)
		q.deadLetters.Add(DeadLetterEntry{Request: req, Error: err.Error(), FailedAt: q.cfg.Now()})
	}
}

var errSkip = errors.New("mail not applicable")

// deliver composes and sends one mail. Missing logs or members and invalid
// recipients are permanent.
func (q *MailQueue) deliver(ctx context.Context, req notification.Request) error {
	ctx, cancel := context.WithTimeout(ctx, q.cfg.SendTimeout)
	defer cancel()

	mail, err := q.cfg.Composer.Compose(ctx, req)
	if err != nil {
		if shared.IsNotFound(err) || shared.IsValidation(err) {
			return retry.Permanent(fmt.Errorf("%w: %v", errSkip, err))
		}
		return err
	}
	if !mail.IsValid() {
		return retry.Permanent(fmt.Errorf("%w: invalid recipient %q", errSkip, mail.To))
	}

	return q.cfg.Mailer.Send(ctx, mail)
}

func (q *MailQueue) reportDepth(ctx context.Context) {
	if q.cfg.Metrics == nil {
		return
	}
	if n, err := q.cfg.Backend.Len(ctx); err == nil {
		q.cfg.Metrics.MailQueueDepth(n)
	}
}

func (q *MailQueue) count(t notification.MailType, result string) {
	if q.cfg.Metrics != nil {
		q.cfg.Metrics.MailDelivered(t.String(), result)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
