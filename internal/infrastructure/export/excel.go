// Package export renders monthly settlements as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/alem-hub/mentoring-hub/internal/application/query"
	"github.com/alem-hub/mentoring-hub/pkg/timeutil"
)

const sheetName = "멘토링"

var headers = []string{
	"멘토 이름", "멘토 인트라 ID", "소속", "직책",
	"날짜", "장소", "공통과정",
	"시작", "종료", "총 시간", "금액",
	"카뎃 이름", "카뎃 인트라 ID",
}

// SettlementWorkbook writes one sheet with a header row, one row per
// submitted report and a totals row.
type SettlementWorkbook struct {
	location *time.Location
}

// NewSettlementWorkbook creates a writer that renders times in loc.
func NewSettlementWorkbook(loc *time.Location) *SettlementWorkbook {
	if loc == nil {
		loc = timeutil.SeoulTZ
	}
	return &SettlementWorkbook{location: loc}
}

// FileName returns the suggested file name for the settlement month.
func (w *SettlementWorkbook) FileName(s *query.MonthlySettlement) string {
	return fmt.Sprintf("mentoring_settlement_%s.xlsx", s.Label())
}

// Render builds the workbook in memory.
func (w *SettlementWorkbook) Render(s *query.MonthlySettlement) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := w.Write(buf, s); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteFile writes the workbook into dir and returns the file path.
func (w *SettlementWorkbook) WriteFile(dir string, s *query.MonthlySettlement) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, w.FileName(s))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := w.Write(f, s); err != nil {
		return "", err
	}
	return path, f.Sync()
}

// Write renders the workbook to out.
func (w *SettlementWorkbook) Write(out io.Writer, s *query.MonthlySettlement) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle)
	_ = f.SetColWidth(sheetName, "A", lastCol, 14)

	row := 2
	for _, r := range s.Rows {
		values := []any{
			r.MentorName,
			r.MentorIntraID,
			r.MentorCompany,
			r.MentorDuty,
			timeutil.FormatIn(r.MeetingStart, w.location, timeutil.FormatDate),
			r.Place,
			commonMark(r.CadetIsCommon),
			timeutil.FormatIn(r.MeetingStart, w.location, timeutil.FormatTime),
			timeutil.FormatIn(r.MeetingEnd, w.location, timeutil.FormatTime),
			r.TotalHours(),
			r.Money,
			r.CadetName,
			r.CadetIntraID,
		}
		if err := f.SetSheetRow(sheetName, cell("A", row), &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	// Totals line up under "총 시간" and "금액".
	if err := f.SetCellValue(sheetName, cell("A", row), "합계"); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}
	_ = f.SetCellValue(sheetName, cell("J", row), s.TotalHours)
	_ = f.SetCellValue(sheetName, cell("K", row), s.TotalMoney)
	_ = f.SetCellStyle(sheetName, cell("A", row), cell(lastCol, row), headerStyle)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func commonMark(common bool) string {
	if common {
		return "O"
	}
	return "X"
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
