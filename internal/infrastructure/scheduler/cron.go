package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alem-hub/mentoring-hub/pkg/timeutil"
)

// cronParser accepts the standard 5-field format plus descriptors such as
// "@monthly" and "@every 10m".
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// CronSchedule is a cron expression evaluated in a fixed location.
// Examples:
//   - "*/5 * * * *" - every 5 minutes
//   - "0 9 1 * *"   - 09:00 on the first day of every month
type CronSchedule struct {
	expr     string
	location *time.Location
	inner    cron.Schedule
}

// ParseCron parses expr. A nil location means Asia/Seoul.
func ParseCron(expr string, loc *time.Location) (*CronSchedule, error) {
	if loc == nil {
		loc = timeutil.SeoulTZ
	}
	inner, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	return &CronSchedule{expr: expr, location: loc, inner: inner}, nil
}

// MustParseCron is like ParseCron but panics on error.
func MustParseCron(expr string, loc *time.Location) *CronSchedule {
	s, err := ParseCron(expr, loc)
	if err != nil {
		panic(err)
	}
	return s
}

// Next returns the first activation strictly after t.
func (c *CronSchedule) Next(t time.Time) time.Time {
	return c.inner.Next(t.In(c.location))
}

// String returns the expression and its location.
func (c *CronSchedule) String() string {
	return fmt.Sprintf("%s (%s)", c.expr, c.location)
}
