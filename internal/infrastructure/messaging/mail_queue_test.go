package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentoring-hub/internal/domain/notification"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type stubComposer struct {
	err error
}

func (c *stubComposer) Compose(_ context.Context, req notification.Request) (notification.Mail, error) {
	if c.err != nil {
		return notification.Mail{}, c.err
	}
	return notification.Mail{
		To:      req.MentoringLogID + "@example.com",
		Subject: string(req.Type),
		Body:    "body",
	}, nil
}

type flakyMailer struct {
	mu       sync.Mutex
	failures int
	sent     []notification.Mail
	attempts int
}

func (m *flakyMailer) Send(_ context.Context, mail notification.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp: 421 try again later")
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *flakyMailer) snapshot() ([]notification.Mail, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification.Mail(nil), m.sent...), m.attempts
}

type countingMailMetrics struct {
	mu      sync.Mutex
	results map[string]int
}

func (c *countingMailMetrics) MailDelivered(_, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[string]int{}
	}
	c.results[result]++
}

func (c *countingMailMetrics) MailQueueDepth(int) {}

func (c *countingMailMetrics) get(result string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results[result]
}

func startQueue(t *testing.T, cfg MailQueueConfig) *MailQueue {
	t.Helper()
	cfg.Logger = logger.Nop()
	cfg.RetryBaseWait = time.Millisecond
	cfg.PollInterval = 10 * time.Millisecond

	q, err := NewMailQueue(cfg)
	require.NoError(t, err)
	require.NoError(t, q.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = q.Stop(ctx)
	})
	return q
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestMailQueue_DeliversWithRetry(t *testing.T) {
	mailer := &flakyMailer{failures: 2}
	metrics := &countingMailMetrics{}
	q := startQueue(t, MailQueueConfig{
		Composer:   &stubComposer{},
		Mailer:     mailer,
		Metrics:    metrics,
		MaxRetries: 3,
	})

	q.Notify("log-1", notification.MailTypeReservation)

	require.Eventually(t, func() bool { return metrics.get(ResultSent) == 1 }, time.Second, 5*time.Millisecond)
	sent, attempts := mailer.snapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, "log-1@example.com", sent[0].To)
	assert.Equal(t, 3, attempts)
	assert.Empty(t, q.DeadLetters())
}

func TestMailQueue_ExhaustedRetriesGoToDeadLetters(t *testing.T) {
	mailer := &flakyMailer{failures: 100}
	metrics := &countingMailMetrics{}
	q := startQueue(t, MailQueueConfig{
		Composer:   &stubComposer{},
		Mailer:     mailer,
		Metrics:    metrics,
		MaxRetries: 1,
	})

	q.Notify("log-2", notification.MailTypeCancelToCadet)

	require.Eventually(t, func() bool { return metrics.get(ResultFailed) == 1 }, time.Second, 5*time.Millisecond)
	_, attempts := mailer.snapshot()
	assert.Equal(t, 2, attempts)

	dead := q.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, "log-2", dead[0].Request.MentoringLogID)
	assert.Equal(t, 2, dead[0].Request.Attempt)
}

func TestMailQueue_MissingLogIsSkipped(t *testing.T) {
	mailer := &flakyMailer{}
	metrics := &countingMailMetrics{}
	startQueue(t, MailQueueConfig{
		Composer:   &stubComposer{err: shared.ErrMentoringLogNotFound},
		Mailer:     mailer,
		Metrics:    metrics,
		MaxRetries: 3,
	}).Notify("gone", notification.MailTypeApproveToCadet)

	require.Eventually(t, func() bool { return metrics.get(ResultSkipped) == 1 }, time.Second, 5*time.Millisecond)
	_, attempts := mailer.snapshot()
	assert.Zero(t, attempts)
}

func TestMailQueue_NotifyDoesNotBlockWhenFull(t *testing.T) {
	metrics := &countingMailMetrics{}
	q, err := NewMailQueue(MailQueueConfig{
		Backend:  NewMemoryBackend(1),
		Composer: &stubComposer{},
		Mailer:   &flakyMailer{},
		Metrics:  metrics,
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		q.Notify("log-1", notification.MailTypeReservation)
		q.Notify("log-2", notification.MailTypeReservation)
		q.Notify("log-3", notification.MailTypeReservation)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked")
	}

	depth, err := q.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
	assert.Equal(t, 2, metrics.get(ResultDropped))
}

func TestMailQueue_InvalidType(t *testing.T) {
	metrics := &countingMailMetrics{}
	q, err := NewMailQueue(MailQueueConfig{
		Composer: &stubComposer{},
		Mailer:   &flakyMailer{},
		Metrics:  metrics,
	})
	require.NoError(t, err)

	q.Notify("log-1", notification.MailType("fax"))
	assert.Equal(t, 1, metrics.get(ResultDropped))
}

func TestMailQueue_Lifecycle(t *testing.T) {
	q, err := NewMailQueue(MailQueueConfig{Composer: &stubComposer{}, Mailer: &flakyMailer{}, Logger: logger.Nop()})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, q.Start(ctx))
	assert.ErrorIs(t, q.Start(ctx), ErrQueueRunning)
	require.NoError(t, q.Stop(ctx))
	assert.ErrorIs(t, q.Start(ctx), ErrQueueStopped)

	_, err = NewMailQueue(MailQueueConfig{Mailer: &flakyMailer{}})
	assert.Error(t, err)
}

func TestDeadLetterQueue_EvictsOldest(t *testing.T) {
	q := NewDeadLetterQueue(2)
	for _, id := range []string{"a", "b", "c"} {
		q.Add(DeadLetterEntry{Request: notification.Request{MentoringLogID: id}})
	}

	entries := q.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Request.MentoringLogID)
	assert.Equal(t, "c", entries[1].Request.MentoringLogID)
}
