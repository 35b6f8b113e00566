package report

import (
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPENSATION
// ══════════════════════════════════════════════════════════════════════════════

// Policy - правила оплаты встреч.
type Policy struct {
	// RatePerHour - сумма за один зачтённый час.
	RatePerHour int64
	// DailyCap и MonthlyCap ограничивают зачтённое время ментора.
	DailyCap   time.Duration
	MonthlyCap time.Duration
	// Location задаёт календарь, по которому считаются день и месяц.
	Location *time.Location
}

// DefaultPolicy возвращает ставку 100000 за час, 4 часа в день и 10 в месяц.
func DefaultPolicy() Policy {
	return Policy{
		RatePerHour: 100000,
		DailyCap:    4 * time.Hour,
		MonthlyCap:  10 * time.Hour,
		Location:    timeutil.SeoulTZ,
	}
}

// Compensation - результат расчёта.
type Compensation struct {
	// Base - длительность встречи, округлённая вниз до часа.
	Base time.Duration
	// Credited - сколько времени оплачивается после лимитов.
	Credited time.Duration
	// DayTotal и MonthTotal - уже учтённое время других встреч.
	DayTotal   time.Duration
	MonthTotal time.Duration
	Money      int64
}

// CalculateCompensation считает оплату встречи meeting с учётом других
// состоявшихся встреч ментора priors (текущая встреча туда не входит).
//
// База - длительность встречи, округлённая вниз до целого часа. Время прошлых
// встреч суммируется с точностью до минуты. Сначала применяется дневной лимит,
// затем месячный; при достижении лимита зачитывается только остаток.
func CalculateCompensation(p Policy, meeting shared.TimeRange, priors []shared.TimeRange) Compensation {
	loc := p.Location
	if loc == nil {
		loc = timeutil.SeoulTZ
	}

	c := Compensation{Base: timeutil.FloorHours(meeting.Duration())}

	for _, prior := range priors {
		if !prior.IsValid() || !timeutil.IsSameMonth(prior.Start, meeting.Start, loc) {
			continue
		}
		d := prior.Duration().Truncate(time.Minute)
		c.MonthTotal += d
		if timeutil.IsSameDay(prior.Start, meeting.Start, loc) {
			c.DayTotal += d
		}
	}

	credited := capRemaining(c.Base, c.DayTotal, p.DailyCap)
	credited = capRemaining(credited, c.MonthTotal, p.MonthlyCap)
	c.Credited = credited

	// Зачтённое время кратно минуте.
	c.Money = int64(credited/time.Minute) * p.RatePerHour / 60
	return c
}

func capRemaining(base, existing, limit time.Duration) time.Duration {
	if limit <= 0 {
		return base
	}
	if existing >= limit {
		return 0
	}
	if existing+base >= limit {
		return limit - existing
	}
	return base
}
