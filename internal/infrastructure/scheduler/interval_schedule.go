package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// IntervalSchedule schedules a job to run at a fixed interval. Intervals are
// rounded down to whole seconds, with a minimum of one second.
type IntervalSchedule struct {
	Interval time.Duration
	every    cron.ConstantDelaySchedule
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	every := cron.Every(interval)
	return &IntervalSchedule{Interval: every.Delay, every: every}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return s.every.Next(t)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval)
}
