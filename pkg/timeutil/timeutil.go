// Package timeutil provides timezone utilities for the Seoul campus (UTC+9).
// Meeting windows, daily and monthly compensation caps and the settlement
// export are all evaluated on the campus calendar, not on UTC.
package timeutil

import (
	"time"
)

// SeoulTZ is the Seoul timezone (UTC+9, no DST).
var SeoulTZ = time.FixedZone("Asia/Seoul", 9*60*60)

// Common layouts used by mail bodies and the settlement export.
const (
	FormatDate     = "2006-01-02"
	FormatTime     = "15:04"
	FormatDateTime = "2006-01-02 15:04"
	FormatMonth    = "2006-01"
)

// LoadLocation resolves an IANA zone name, falling back to SeoulTZ.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return SeoulTZ
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return SeoulTZ
	}
	return loc
}

// Now returns the current time in Seoul timezone.
func Now() time.Time {
	return time.Now().In(SeoulTZ)
}

// DateTime creates a time in the given location. A nil location means SeoulTZ.
func DateTime(loc *time.Location, year int, month time.Month, day, hour, min int) time.Time {
	if loc == nil {
		loc = SeoulTZ
	}
	return time.Date(year, month, day, hour, min, 0, 0, loc)
}

// StartOfMonth returns the first instant of the month of t in loc.
func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	l := t.In(orSeoul(loc))
	return time.Date(l.Year(), l.Month(), 1, 0, 0, 0, 0, l.Location())
}

// StartOfPreviousMonth returns the first instant of the month before t.
func StartOfPreviousMonth(t time.Time, loc *time.Location) time.Time {
	return StartOfMonth(t, loc).AddDate(0, -1, 0)
}

// IsSameDay checks if two times fall on the same calendar day in loc.
func IsSameDay(t1, t2 time.Time, loc *time.Location) bool {
	loc = orSeoul(loc)
	a1, a2 := t1.In(loc), t2.In(loc)
	return a1.Year() == a2.Year() && a1.YearDay() == a2.YearDay()
}

// IsSameMonth checks if two times fall in the same calendar month in loc.
func IsSameMonth(t1, t2 time.Time, loc *time.Location) bool {
	loc = orSeoul(loc)
	a1, a2 := t1.In(loc), t2.In(loc)
	return a1.Year() == a2.Year() && a1.Month() == a2.Month()
}

// FloorHours truncates d to whole hours. Negative durations become zero.
func FloorHours(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Truncate(time.Hour)
}

// FormatIn formats t in loc with the given layout.
func FormatIn(t time.Time, loc *time.Location, layout string) string {
	return t.In(orSeoul(loc)).Format(layout)
}

func orSeoul(loc *time.Location) *time.Location {
	if loc == nil {
		return SeoulTZ
	}
	return loc
}
