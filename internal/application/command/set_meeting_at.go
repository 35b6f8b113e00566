package command

import (
	"context"

	"github.com/alem-hub/mentoring-hub/internal/domain/mentoring"
	"github.com/alem-hub/mentoring-hub/internal/domain/notification"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SET MEETING AT COMMAND
// The mentor answers a waiting request by confirming a meeting window or by
// rejecting it. The cadet mail is chosen by the resulting status only.
// ══════════════════════════════════════════════════════════════════════════════

// SetMeetingAtCommand contains the mentor's answer.
type SetMeetingAtCommand struct {
	LogID         string `validate:"required"`
	MentorIntraID string `validate:"required"`

	// Status is the resulting status: confirmed or rejected.
	Status mentoring.Status `validate:"required,oneof=confirmed rejected"`

	// MeetingAt is required when confirming.
	MeetingAt *RequestTime `validate:"required_if=Status confirmed,omitempty"`

	RejectMessage string `validate:"max=1000"`
}

// Validate validates the command.
func (c SetMeetingAtCommand) Validate() error {
	return validateStruct("mentoring", "SetMeetingAt", c)
}

// SetMeetingAtHandler handles the SetMeetingAtCommand.
type SetMeetingAtHandler struct {
	logs      mentoring.Repository
	scheduler AutoCancelScheduler
	notifier  notification.Notifier
	logger    *logger.Logger
	now       Clock
}

// NewSetMeetingAtHandler creates a new SetMeetingAtHandler.
func NewSetMeetingAtHandler(
	logs mentoring.Repository,
	scheduler AutoCancelScheduler,
	notifier notification.Notifier,
	log *logger.Logger,
	now Clock,
) *SetMeetingAtHandler {
	now, _ = defaults(now, nil)
	return &SetMeetingAtHandler{
		logs:      logs,
		scheduler: scheduler,
		notifier:  notifier,
		logger:    log.With(logger.Component("set_meeting_at")),
		now:       now,
	}
}

// Handle executes the command.
func (h *SetMeetingAtHandler) Handle(ctx context.Context, cmd SetMeetingAtCommand) (*mentoring.MentoringLog, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	log, err := h.logs.GetByID(ctx, cmd.LogID)
	if err != nil {
		return nil, err
	}
	if !log.IsOwnedByMentor(shared.IntraID(cmd.MentorIntraID)) {
		return nil, shared.ErrNotOwningMentor
	}

	now := h.now()
	var mail notification.MailType
	switch cmd.Status {
	case mentoring.StatusConfirmed:
		err = log.Confirm(cmd.MeetingAt.TimeRange(), now)
		mail = notification.MailTypeApproveToCadet
	case mentoring.StatusRejected:
		err = log.Reject(cmd.RejectMessage, now)
		mail = notification.MailTypeCancelToCadet
	}
	if err != nil {
		return nil, err
	}

	if err := h.logs.Update(ctx, log); err != nil {
		return nil, err
	}

	h.scheduler.Cancel(log.ID)
	h.notifier.Notify(log.ID, mail)

	h.logger.Info("mentoring answered",
		logger.MentoringLogID(log.ID),
		logger.String("status", log.Status.String()),
	)
	return log, nil
}
