package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/alem-hub/mentoring-hub/internal/application/query"
	"github.com/alem-hub/mentoring-hub/pkg/timeutil"
)

func sampleSettlement() *query.MonthlySettlement {
	start := timeutil.DateTime(timeutil.SeoulTZ, 2026, time.September, 3, 14, 0)
	return &query.MonthlySettlement{
		From: timeutil.DateTime(timeutil.SeoulTZ, 2026, time.September, 1, 0, 0),
		To:   timeutil.DateTime(timeutil.SeoulTZ, 2026, time.October, 1, 0, 0),
		Rows: []query.SettlementRow{{
			ReportID:      "r-1",
			MentorName:    "Kim Mentor",
			MentorIntraID: "m.kim",
			MentorCompany: "ACME",
			MentorDuty:    "Backend",
			Place:         "클러스터",
			MeetingStart:  start,
			MeetingEnd:    start.Add(2*time.Hour + 30*time.Minute),
			CadetName:     "Lee Cadet",
			CadetIntraID:  "c.lee",
			CadetIsCommon: true,
			Money:         200000,
		}},
		TotalMoney: 200000,
		TotalHours: 2,
	}
}

func TestSettlementWorkbook_WriteFile(t *testing.T) {
	w := NewSettlementWorkbook(timeutil.SeoulTZ)
	s := sampleSettlement()

	path, err := w.WriteFile(t.TempDir(), s)
	require.NoError(t, err)
	assert.Equal(t, "mentoring_settlement_2026-09.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{
		"Kim Mentor", "m.kim", "ACME", "Backend",
		"2026-09-03", "클러스터", "O",
		"14:00", "16:30", "2", "200000",
		"Lee Cadet", "c.lee",
	}, rows[1])

	assert.Equal(t, "합계", rows[2][0])
	assert.Equal(t, "2", rows[2][9])
	assert.Equal(t, "200000", rows[2][10])
}

func TestSettlementWorkbook_EmptyMonth(t *testing.T) {
	w := NewSettlementWorkbook(nil)
	s := &query.MonthlySettlement{From: timeutil.DateTime(nil, 2026, time.February, 1, 0, 0)}

	buf, err := w.Render(s)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "합계", rows[1][0])
}
