// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"sort"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
	"github.com/alem-hub/mentoring-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MONTHLY SETTLEMENT QUERY
// Собирает отправленные отчёты за месяц вместе с ментором, кадетом и временем
// встречи. Результат используется для выплат и выгрузки в Excel.
// ══════════════════════════════════════════════════════════════════════════════

// SettlementRow - одна строка расчёта: отправленный отчёт и его встреча.
type SettlementRow struct {
	ReportID       string `json:"report_id"`
	MentoringLogID string `json:"mentoring_log_id"`

	MentorName    string `json:"mentor_name"`
	MentorIntraID string `json:"mentor_intra_id"`
	MentorCompany string `json:"mentor_company"`
	MentorDuty    string `json:"mentor_duty"`

	Place        string    `json:"place"`
	MeetingStart time.Time `json:"meeting_start"`
	MeetingEnd   time.Time `json:"meeting_end"`

	CadetName     string `json:"cadet_name"`
	CadetIntraID  string `json:"cadet_intra_id"`
	CadetIsCommon bool   `json:"cadet_is_common"`

	// Money зафиксирована при отправке отчёта.
	Money int64 `json:"money"`
}

// TotalHours - длительность встречи в целых часах.
func (r SettlementRow) TotalHours() int {
	return int(timeutil.FloorHours(r.MeetingEnd.Sub(r.MeetingStart)) / time.Hour)
}

// SettlementReader читает отправленные отчёты, встреча которых началась
// в полуинтервале [from, to).
type SettlementReader interface {
	ListSubmittedBetween(ctx context.Context, from, to time.Time) ([]SettlementRow, error)
}

// GetMonthlySettlementQuery - параметры запроса.
type GetMonthlySettlementQuery struct {
	// Month - любой момент нужного месяца.
	Month time.Time
}

// MonthlySettlement - результат запроса.
type MonthlySettlement struct {
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
	Rows       []SettlementRow `json:"rows"`
	TotalMoney int64           `json:"total_money"`
	TotalHours int             `json:"total_hours"`
}

// Label возвращает месяц расчёта в формате 2006-01.
func (s *MonthlySettlement) Label() string {
	return s.From.Format(timeutil.FormatMonth)
}

// GetMonthlySettlementHandler обрабатывает запрос.
type GetMonthlySettlementHandler struct {
	reader   SettlementReader
	location *time.Location
	logger   *logger.Logger
}

// NewGetMonthlySettlementHandler создаёт обработчик. Месяц считается в loc.
func NewGetMonthlySettlementHandler(reader SettlementReader, loc *time.Location, log *logger.Logger) *GetMonthlySettlementHandler {
	if loc == nil {
		loc = timeutil.SeoulTZ
	}
	return &GetMonthlySettlementHandler{
		reader:   reader,
		location: loc,
		logger:   log.With(logger.Component("monthly_settlement")),
	}
}

// Handle выполняет запрос. Строки упорядочены по ментору и началу встречи.
func (h *GetMonthlySettlementHandler) Handle(ctx context.Context, q GetMonthlySettlementQuery) (*MonthlySettlement, error) {
	if q.Month.IsZero() {
		return nil, shared.NewDomainError("settlement", "GetMonthly", shared.ErrInvalidInput, "month is required")
	}

	from := timeutil.StartOfMonth(q.Month, h.location)
	to := from.AddDate(0, 1, 0)

	rows, err := h.reader.ListSubmittedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].MentorIntraID != rows[j].MentorIntraID {
			return rows[i].MentorIntraID < rows[j].MentorIntraID
		}
		return rows[i].MeetingStart.Before(rows[j].MeetingStart)
	})

	result := &MonthlySettlement{From: from, To: to, Rows: rows}
	for _, r := range rows {
		result.TotalMoney += r.Money
		result.TotalHours += r.TotalHours()
	}

	h.logger.Info("settlement computed",
		logger.String("month", result.Label()),
		logger.Int("rows", len(rows)),
		logger.Int64("total_money", result.TotalMoney),
	)
	return result, nil
}
