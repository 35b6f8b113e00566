package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsSameDay_UsesLocation(t *testing.T) {
	// 23:30 UTC on the 1st is already the 2nd in Seoul.
	a := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	b := time.Date(2024, 3, 2, 10, 0, 0, 0, SeoulTZ)

	assert.True(t, IsSameDay(a, b, SeoulTZ))
	assert.False(t, IsSameDay(a, b, time.UTC))
}

func TestIsSameMonth_ComparesYear(t *testing.T) {
	a := DateTime(SeoulTZ, 2023, time.May, 10, 12, 0)
	b := DateTime(SeoulTZ, 2024, time.May, 10, 12, 0)

	assert.False(t, IsSameMonth(a, b, SeoulTZ))
	assert.True(t, IsSameMonth(a, a.AddDate(0, 0, 15), SeoulTZ))
}

func TestFloorHours(t *testing.T) {
	assert.Equal(t, 2*time.Hour, FloorHours(2*time.Hour+59*time.Minute))
	assert.Equal(t, time.Duration(0), FloorHours(45*time.Minute))
	assert.Equal(t, time.Duration(0), FloorHours(-time.Hour))
}

func TestStartOfPreviousMonth(t *testing.T) {
	now := DateTime(SeoulTZ, 2024, time.January, 15, 9, 0)
	assert.Equal(t, DateTime(SeoulTZ, 2023, time.December, 1, 0, 0), StartOfPreviousMonth(now, SeoulTZ))
}

func TestLoadLocation_Fallback(t *testing.T) {
	assert.Equal(t, SeoulTZ, LoadLocation(""))
	assert.Equal(t, SeoulTZ, LoadLocation("Not/AZone"))
}
