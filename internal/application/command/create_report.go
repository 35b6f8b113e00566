package command

import (
	"context"

	"github.com/alem-hub/mentoring-hub/internal/domain/mentoring"
	"github.com/alem-hub/mentoring-hub/internal/domain/report"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// CreateReportCommand opens the report of a held meeting.
type CreateReportCommand struct {
	LogID string `validate:"required"`
}

// Validate validates the command.
func (c CreateReportCommand) Validate() error {
	return validateStruct("report", "Create", c)
}

// CreateReportHandler handles the CreateReportCommand.
type CreateReportHandler struct {
	logs    mentoring.Repository
	reports report.Repository
	tx      TxRunner
	logger  *logger.Logger
	now     Clock
	newID   IDGenerator
}

// NewCreateReportHandler creates a new CreateReportHandler.
func NewCreateReportHandler(
	logs mentoring.Repository,
	reports report.Repository,
	tx TxRunner,
	log *logger.Logger,
	now Clock,
	newID IDGenerator,
) *CreateReportHandler {
	now, newID = defaults(now, newID)
	if tx == nil {
		tx = NoTx
	}
	return &CreateReportHandler{
		logs:    logs,
		reports: reports,
		tx:      tx,
		logger:  log.With(logger.Component("create_report")),
		now:     now,
		newID:   newID,
	}
}

// Handle executes the command. The report row and the log's report link are
// written in one transaction.
func (h *CreateReportHandler) Handle(ctx context.Context, cmd CreateReportCommand) (*report.Report, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var created *report.Report
	err := h.tx.RunInTx(ctx, func(ctx context.Context) error {
		log, err := h.logs.GetByID(ctx, cmd.LogID)
		if err != nil {
			return err
		}

		now := h.now()
		id := h.newID()
		if err := log.AttachReport(id, now); err != nil {
			return err
		}

		r, err := report.NewReport(id, log.ID, log.Mentor, log.Cadet, now)
		if err != nil {
			return err
		}
		if err := h.reports.Create(ctx, r); err != nil {
			return err
		}
		if err := h.logs.Update(ctx, log); err != nil {
			return err
		}

		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("report created", logger.ReportID(created.ID), logger.MentoringLogID(cmd.LogID))
	return created, nil
}
