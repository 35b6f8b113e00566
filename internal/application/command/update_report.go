package command

import (
	"context"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/mentoring"
	"github.com/alem-hub/mentoring-hub/internal/domain/report"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
	"github.com/alem-hub/mentoring-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE / SUBMIT REPORT
// Drafts are edited by their mentor until submission. Submission checks the
// nine required fields and fixes the money owed for the meeting.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateReportCommand contains a partial update of a draft.
type UpdateReportCommand struct {
	ReportID         string `validate:"required"`
	RequesterIntraID string `validate:"required"`
	Patch            report.Patch
}

// Validate validates the command.
func (c UpdateReportCommand) Validate() error {
	return validateStruct("report", "Update", c)
}

// SubmitReportCommand submits a draft and computes its compensation.
type SubmitReportCommand struct {
	ReportID string `validate:"required"`
}

// Validate validates the command.
func (c SubmitReportCommand) Validate() error {
	return validateStruct("report", "Submit", c)
}

// SubmissionObserver is told about every submitted report.
type SubmissionObserver interface {
	ReportSubmitted(money int64, credited time.Duration)
}

// ReportHandler handles UpdateReportCommand and SubmitReportCommand.
type ReportHandler struct {
	logs     mentoring.Repository
	reports  report.Repository
	tx       TxRunner
	policy   report.Policy
	observer SubmissionObserver
	logger   *logger.Logger
	now      Clock
}

// ReportHandlerConfig contains configuration for the handler.
type ReportHandlerConfig struct {
	Policy   report.Policy
	Observer SubmissionObserver
	Now      Clock
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(
	logs mentoring.Repository,
	reports report.Repository,
	tx TxRunner,
	log *logger.Logger,
	cfg ReportHandlerConfig,
) *ReportHandler {
	if cfg.Policy.RatePerHour <= 0 {
		cfg.Policy = report.DefaultPolicy()
	}
	if tx == nil {
		tx = NoTx
	}
	now, _ := defaults(cfg.Now, nil)
	return &ReportHandler{
		logs:     logs,
		reports:  reports,
		tx:       tx,
		policy:   cfg.Policy,
		observer: cfg.Observer,
		logger:   log.With(logger.Component("report")),
		now:      now,
	}
}

// Update applies a patch to a draft and submits it when the patch asks to.
func (h *ReportHandler) Update(ctx context.Context, cmd UpdateReportCommand) (*report.Report, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	r, err := h.reports.GetByID(ctx, cmd.ReportID)
	if err != nil {
		return nil, err
	}
	if !(report.StatusValidator{Status: r.Status}).Verify() {
		return nil, shared.ErrReportNotEditable
	}
	if !r.IsOwnedBy(shared.IntraID(cmd.RequesterIntraID)) {
		return nil, shared.ErrNotReportOwner
	}

	if err := r.ApplyPatch(cmd.Patch, h.now()); err != nil {
		return nil, err
	}
	if err := h.reports.Update(ctx, r); err != nil {
		return nil, err
	}

	if cmd.Patch.Submit {
		return h.Submit(ctx, SubmitReportCommand{ReportID: r.ID})
	}
	return r, nil
}

// Submit checks completeness, computes compensation from the mentor's other
// done meetings and stores the submitted report. The log mirrors the
// submitted state in the same transaction.
func (h *ReportHandler) Submit(ctx context.Context, cmd SubmitReportCommand) (*report.Report, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var (
		submitted *report.Report
		comp      report.Compensation
	)
	err := h.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := h.reports.GetByID(ctx, cmd.ReportID)
		if err != nil {
			return err
		}
		if !r.IsEditable() {
			return shared.ErrReportNotEditable
		}
		if err := r.CheckComplete(); err != nil {
			return err
		}

		log, err := h.logs.GetByID(ctx, r.MentoringLogID)
		if err != nil {
			return err
		}
		if log.MeetingAt == nil {
			return shared.ErrMentoringNotDone
		}

		priors, err := h.priorMeetings(ctx, log)
		if err != nil {
			return err
		}
		comp = report.CalculateCompensation(h.policy, *log.MeetingAt, priors)

		now := h.now()
		if err := r.Submit(comp.Money, now); err != nil {
			return err
		}
		if err := h.reports.Update(ctx, r); err != nil {
			return err
		}

		log.MarkReportSubmitted(now)
		if err := h.logs.Update(ctx, log); err != nil {
			return err
		}

		submitted = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.observer != nil {
		h.observer.ReportSubmitted(comp.Money, comp.Credited)
	}
	h.logger.Info("report submitted",
		logger.ReportID(submitted.ID),
		logger.MentoringLogID(submitted.MentoringLogID),
		logger.Int64("money", submitted.Money),
		logger.Duration("credited", comp.Credited),
	)
	return submitted, nil
}

// priorMeetings returns the windows of the mentor's other done meetings in
// the month of the current one.
func (h *ReportHandler) priorMeetings(ctx context.Context, current *mentoring.MentoringLog) ([]shared.TimeRange, error) {
	from := timeutil.StartOfMonth(current.MeetingAt.Start, h.policy.Location)
	to := from.AddDate(0, 1, 0)

	done, err := h.logs.FindDoneByMentor(ctx, current.Mentor.ID, from, to)
	if err != nil {
		return nil, err
	}

	priors := make([]shared.TimeRange, 0, len(done))
	for _, l := range done {
		if l.ID == current.ID || l.MeetingAt == nil {
			continue
		}
		priors = append(priors, *l.MeetingAt)
	}
	return priors, nil
}
