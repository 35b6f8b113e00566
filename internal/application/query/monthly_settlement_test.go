package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
	"github.com/alem-hub/mentoring-hub/pkg/timeutil"
)

type fakeSettlementReader struct {
	rows     []SettlementRow
	from, to time.Time
}

func (f *fakeSettlementReader) ListSubmittedBetween(_ context.Context, from, to time.Time) ([]SettlementRow, error) {
	f.from, f.to = from, to
	return f.rows, nil
}

func TestMonthlySettlement_BoundsAndTotals(t *testing.T) {
	seoul := timeutil.SeoulTZ
	at := func(day, hour int) time.Time { return timeutil.DateTime(seoul, 2026, time.September, day, hour, 0) }

	reader := &fakeSettlementReader{rows: []SettlementRow{
		{MentorIntraID: "zed", MeetingStart: at(2, 10), MeetingEnd: at(2, 12), Money: 200000},
		{MentorIntraID: "amy", MeetingStart: at(5, 10), MeetingEnd: at(5, 11).Add(40 * time.Minute), Money: 100000},
		{MentorIntraID: "amy", MeetingStart: at(1, 9), MeetingEnd: at(1, 12), Money: 300000},
	}}
	h := NewGetMonthlySettlementHandler(reader, seoul, logger.Nop())

	got, err := h.Handle(context.Background(), GetMonthlySettlementQuery{Month: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	assert.True(t, reader.from.Equal(timeutil.DateTime(seoul, 2026, time.September, 1, 0, 0)))
	assert.True(t, reader.to.Equal(timeutil.DateTime(seoul, 2026, time.October, 1, 0, 0)))
	assert.Equal(t, "2026-09", got.Label())

	assert.Equal(t, int64(600000), got.TotalMoney)
	assert.Equal(t, 2+1+3, got.TotalHours)

	require.Len(t, got.Rows, 3)
	assert.Equal(t, "amy", got.Rows[0].MentorIntraID)
	assert.True(t, got.Rows[0].MeetingStart.Equal(at(1, 9)))
	assert.Equal(t, "zed", got.Rows[2].MentorIntraID)
}

func TestMonthlySettlement_RequiresMonth(t *testing.T) {
	h := NewGetMonthlySettlementHandler(&fakeSettlementReader{}, nil, logger.Nop())
	_, err := h.Handle(context.Background(), GetMonthlySettlementQuery{})
	assert.True(t, shared.IsValidation(err))
}
