package jobs

import (
	"context"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/application/query"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
	"github.com/alem-hub/mentoring-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MONTHLY SETTLEMENT JOB
// Exports the previous month's submitted reports as a workbook for staff.
// ══════════════════════════════════════════════════════════════════════════════

// SettlementWriter persists a rendered settlement and returns its location.
type SettlementWriter interface {
	WriteFile(dir string, s *query.MonthlySettlement) (string, error)
}

// MonthlySettlementJob writes the settlement of the previous month.
type MonthlySettlementJob struct {
	settlement *query.GetMonthlySettlementHandler
	writer     SettlementWriter
	dir        string
	location   *time.Location
	logger     *logger.Logger
	now        func() time.Time
}

// NewMonthlySettlementJob creates the job. Files are written into dir.
func NewMonthlySettlementJob(
	settlement *query.GetMonthlySettlementHandler,
	writer SettlementWriter,
	dir string,
	loc *time.Location,
	log *logger.Logger,
	now func() time.Time,
) *MonthlySettlementJob {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = timeutil.SeoulTZ
	}
	return &MonthlySettlementJob{
		settlement: settlement,
		writer:     writer,
		dir:        dir,
		location:   loc,
		logger:     log.With(logger.Component("job.monthly_settlement")),
		now:        now,
	}
}

// Name returns the job name.
func (j *MonthlySettlementJob) Name() string { return "monthly_settlement" }

// Description returns the job description.
func (j *MonthlySettlementJob) Description() string {
	return "Exports last month's submitted reports to xlsx"
}

// Run exports the month before now.
func (j *MonthlySettlementJob) Run(ctx context.Context) error {
	_, err := j.Export(ctx, timeutil.StartOfPreviousMonth(j.now(), j.location))
	return err
}

// Export writes the settlement of the month containing month.
func (j *MonthlySettlementJob) Export(ctx context.Context, month time.Time) (string, error) {
	s, err := j.settlement.Handle(ctx, query.GetMonthlySettlementQuery{Month: month})
	if err != nil {
		return "", err
	}

	path, err := j.writer.WriteFile(j.dir, s)
	if err != nil {
		return "", err
	}

	j.logger.Info("settlement exported",
		logger.String("month", s.Label()),
		logger.String("path", path),
		logger.Int("rows", len(s.Rows)),
		logger.Int64("total_money", s.TotalMoney),
	)
	return path, nil
}
