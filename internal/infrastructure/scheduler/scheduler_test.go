package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentoring-hub/pkg/logger"
	"github.com/alem-hub/mentoring-hub/pkg/timeutil"
)

type funcJob struct {
	name string
	run  func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Description() string           { return "test job " + j.name }
func (j funcJob) Run(ctx context.Context) error { return j.run(ctx) }

// everyTick is due on every scheduler tick.
type everyTick struct{}

func (everyTick) Next(t time.Time) time.Time { return t }
func (everyTick) String() string             { return "every tick" }

type recorder struct {
	mu   sync.Mutex
	runs map[string][]bool
}

func (r *recorder) RecordJob(job string, _ time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[job] = append(r.runs[job], success)
}

func newTestScheduler(rec JobRecorder) *Scheduler {
	return NewScheduler(SchedulerConfig{
		Logger:            logger.Nop(),
		Recorder:          rec,
		MaxConcurrentJobs: 2,
		JobTimeout:        time.Second,
		TickInterval:      5 * time.Millisecond,
	})
}

func TestScheduler_Register(t *testing.T) {
	s := newTestScheduler(nil)
	job := funcJob{name: "a", run: func(context.Context) error { return nil }}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(funcJob{name: "b"}, nil), ErrNilSchedule)

	info, err := s.GetJobInfo("a")
	require.NoError(t, err)
	assert.Equal(t, "@every 1m0s", info.Schedule)
	assert.True(t, info.Enabled)

	_, err = s.GetJobInfo("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunNowRecordsResult(t *testing.T) {
	rec := &recorder{runs: map[string][]bool{}}
	s := newTestScheduler(rec)
	boom := errors.New("boom")
	require.NoError(t, s.Register(funcJob{name: "fails", run: func(context.Context) error { return boom }}, NewIntervalSchedule(time.Hour)))

	res, err := s.RunNow(context.Background(), "fails")
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, res)
	assert.True(t, res.Manual)
	assert.False(t, res.Success)

	info, _ := s.GetJobInfo("fails")
	assert.Equal(t, int64(1), info.RunCount)
	assert.Equal(t, int64(1), info.FailCount)
	assert.Equal(t, "boom", info.LastError)
	assert.Equal(t, []bool{false}, rec.runs["fails"])
}

func TestScheduler_PanicBecomesError(t *testing.T) {
	s := newTestScheduler(nil)
	require.NoError(t, s.Register(funcJob{name: "panics", run: func(context.Context) error { panic("bad") }}, NewIntervalSchedule(time.Hour)))

	_, err := s.RunNow(context.Background(), "panics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestScheduler_NoOverlap(t *testing.T) {
	var running, maxRunning, runs int32
	release := make(chan struct{})

	s := newTestScheduler(nil)
	require.NoError(t, s.Register(funcJob{name: "slow", run: func(ctx context.Context) error {
		n := atomic.AddInt32(&running, 1)
		defer atomic.AddInt32(&running, -1)
		for {
			m := atomic.LoadInt32(&maxRunning)
			if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
				break
			}
		}
		atomic.AddInt32(&runs, 1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}}, everyTick{}))

	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrJobBusy)

	info, _ := s.GetJobInfo("slow")
	assert.True(t, info.Running)
	assert.Positive(t, info.SkipCount)

	close(release)
	require.NoError(t, s.Stop())
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxRunning))
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestScheduler_DisabledJobDoesNotRun(t *testing.T) {
	var runs int32
	s := newTestScheduler(nil)
	require.NoError(t, s.Register(funcJob{name: "off", run: func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}}, everyTick{}))
	require.NoError(t, s.SetEnabled("off", false))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Zero(t, atomic.LoadInt32(&runs))
}

func TestCronSchedule_MonthlyInSeoul(t *testing.T) {
	c, err := ParseCron("0 9 1 * *", timeutil.SeoulTZ)
	require.NoError(t, err)

	from := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	next := c.Next(from)

	want := timeutil.DateTime(timeutil.SeoulTZ, 2026, time.November, 1, 9, 0)
	assert.True(t, next.Equal(want), "got %s", next)

	// 2026-10-31 23:30 UTC is already 08:30 on Nov 1 in Seoul.
	late := time.Date(2026, 10, 31, 23, 30, 0, 0, time.UTC)
	assert.True(t, c.Next(late).Equal(want))
}

func TestCronSchedule_Invalid(t *testing.T) {
	_, err := ParseCron("61 * * * *", nil)
	assert.Error(t, err)
	assert.Panics(t, func() { MustParseCron("nope", nil) })
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(90 * time.Second)
	from := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(90*time.Second), s.Next(from))
	assert.Equal(t, "@every 1m30s", s.String())
}
