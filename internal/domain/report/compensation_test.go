package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/pkg/timeutil"
)

func window(day, hour, minute int, d time.Duration) shared.TimeRange {
	start := timeutil.DateTime(timeutil.SeoulTZ, 2024, time.May, day, hour, minute)
	return shared.TimeRange{Start: start, End: start.Add(d)}
}

func TestCalculateCompensation(t *testing.T) {
	policy := DefaultPolicy()
	rate := policy.RatePerHour

	tests := []struct {
		name     string
		meeting  shared.TimeRange
		priors   []shared.TimeRange
		credited time.Duration
		money    int64
	}{
		{
			name:     "no prior sessions",
			meeting:  window(10, 14, 0, 3*time.Hour),
			credited: 3 * time.Hour,
			money:    3 * rate,
		},
		{
			name:     "meeting floored to whole hours",
			meeting:  window(10, 14, 0, 2*time.Hour+59*time.Minute),
			credited: 2 * time.Hour,
			money:    2 * rate,
		},
		{
			name:     "short meeting earns nothing",
			meeting:  window(10, 14, 0, 50*time.Minute),
			credited: 0,
			money:    0,
		},
		{
			name:     "daily cap leaves half an hour",
			meeting:  window(10, 18, 0, 2*time.Hour),
			priors:   []shared.TimeRange{window(10, 9, 0, 3*time.Hour+30*time.Minute)},
			credited: 30 * time.Minute,
			money:    rate / 2,
		},
		{
			name:     "daily cap reached",
			meeting:  window(10, 18, 0, 2*time.Hour),
			priors:   []shared.TimeRange{window(10, 9, 0, 2*time.Hour), window(10, 12, 0, 2*time.Hour)},
			credited: 0,
			money:    0,
		},
		{
			name:     "monthly cap leaves remainder",
			meeting:  window(20, 14, 0, 3*time.Hour),
			priors:   []shared.TimeRange{window(2, 9, 0, 4*time.Hour), window(3, 9, 0, 4*time.Hour), window(4, 9, 0, time.Hour)},
			credited: time.Hour,
			money:    rate,
		},
		{
			name:    "monthly cap uses monthly total, not daily total",
			meeting: window(20, 14, 0, 2*time.Hour),
			priors: []shared.TimeRange{
				window(20, 9, 0, 2*time.Hour),
				window(2, 9, 0, 4*time.Hour),
				window(3, 9, 0, 3*time.Hour),
			},
			credited: time.Hour,
			money:    rate,
		},
		{
			name:     "monthly cap reached",
			meeting:  window(25, 14, 0, 2*time.Hour),
			priors:   []shared.TimeRange{window(2, 9, 0, 4*time.Hour), window(3, 9, 0, 4*time.Hour), window(4, 9, 0, 2*time.Hour)},
			credited: 0,
			money:    0,
		},
		{
			name:    "same month of another year is ignored",
			meeting: window(10, 14, 0, 3*time.Hour),
			priors: []shared.TimeRange{{
				Start: timeutil.DateTime(timeutil.SeoulTZ, 2023, time.May, 10, 9, 0),
				End:   timeutil.DateTime(timeutil.SeoulTZ, 2023, time.May, 10, 13, 0),
			}},
			credited: 3 * time.Hour,
			money:    3 * rate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CalculateCompensation(policy, tt.meeting, tt.priors)
			assert.Equal(t, tt.credited, c.Credited)
			assert.Equal(t, tt.money, c.Money)
		})
	}
}

func TestCalculateCompensation_DayFollowsLocation(t *testing.T) {
	policy := DefaultPolicy()

	// 16:00 UTC on the 9th is 01:00 on the 10th in Seoul.
	prior := shared.TimeRange{
		Start: time.Date(2024, time.May, 9, 16, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.May, 9, 20, 0, 0, 0, time.UTC),
	}
	meeting := window(10, 14, 0, 2*time.Hour)

	c := CalculateCompensation(policy, meeting, []shared.TimeRange{prior})
	assert.Equal(t, 4*time.Hour, c.DayTotal)
	assert.Equal(t, int64(0), c.Money)

	policy.Location = time.UTC
	c = CalculateCompensation(policy, meeting, []shared.TimeRange{prior})
	assert.Equal(t, time.Duration(0), c.DayTotal)
	assert.Equal(t, 2*policy.RatePerHour, c.Money)
}

func TestCalculateCompensation_HighRate(t *testing.T) {
	policy := DefaultPolicy()
	policy.RatePerHour = 1_000_000

	c := CalculateCompensation(policy, window(10, 10, 0, 4*time.Hour), nil)
	assert.Equal(t, 4*time.Hour, c.Credited)
	assert.Equal(t, int64(4_000_000), c.Money)

	// 3.5h already counted today leaves half an hour.
	prior := window(10, 8, 0, 3*time.Hour+30*time.Minute)
	c = CalculateCompensation(policy, window(10, 14, 0, 2*time.Hour), []shared.TimeRange{prior})
	assert.Equal(t, 30*time.Minute, c.Credited)
	assert.Equal(t, int64(500_000), c.Money)
}
