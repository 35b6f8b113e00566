package command

import (
	"context"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/member"
	"github.com/alem-hub/mentoring-hub/internal/domain/mentoring"
	"github.com/alem-hub/mentoring-hub/internal/domain/notification"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLY MENTORING COMMAND
// A cadet asks a mentor for a meeting. The log starts in waiting and is
// auto-cancelled unless the mentor answers within the configured delay.
// ══════════════════════════════════════════════════════════════════════════════

// ApplyMentoringCommand contains the data of a new mentoring request.
type ApplyMentoringCommand struct {
	// CadetIntraID is the authenticated applicant.
	CadetIntraID string `validate:"required"`

	// MentorIntraID is the requested mentor.
	MentorIntraID string `validate:"required"`

	Topic   string `validate:"required,max=200"`
	Content string `validate:"max=5000"`

	// RequestTimes holds 1..3 candidate windows; the first one is required.
	RequestTimes []RequestTime `validate:"required,min=1,max=3,dive"`
}

// Validate validates the command.
func (c ApplyMentoringCommand) Validate() error {
	return validateStruct("mentoring", "Apply", c)
}

// ApplyMentoringResult contains the created log.
type ApplyMentoringResult struct {
	Log          *mentoring.MentoringLog
	AutoCancelAt time.Time
}

// ApplyMentoringHandler handles the ApplyMentoringCommand.
type ApplyMentoringHandler struct {
	members   member.Repository
	logs      mentoring.Repository
	scheduler AutoCancelScheduler
	notifier  notification.Notifier
	logger    *logger.Logger

	autoCancelDelay time.Duration
	now             Clock
	newID           IDGenerator
}

// ApplyMentoringHandlerConfig contains configuration for the handler.
type ApplyMentoringHandlerConfig struct {
	AutoCancelDelay time.Duration
	Now             Clock
	NewID           IDGenerator
}

// NewApplyMentoringHandler creates a new ApplyMentoringHandler.
func NewApplyMentoringHandler(
	members member.Repository,
	logs mentoring.Repository,
	scheduler AutoCancelScheduler,
	notifier notification.Notifier,
	log *logger.Logger,
	cfg ApplyMentoringHandlerConfig,
) *ApplyMentoringHandler {
	if cfg.AutoCancelDelay <= 0 {
		cfg.AutoCancelDelay = 24 * time.Hour
	}
	now, newID := defaults(cfg.Now, cfg.NewID)
	return &ApplyMentoringHandler{
		members:         members,
		logs:            logs,
		scheduler:       scheduler,
		notifier:        notifier,
		logger:          log.With(logger.Component("apply_mentoring")),
		autoCancelDelay: cfg.AutoCancelDelay,
		now:             now,
		newID:           newID,
	}
}

// Handle executes the command.
func (h *ApplyMentoringHandler) Handle(ctx context.Context, cmd ApplyMentoringCommand) (*ApplyMentoringResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	mentorID, err := shared.NewIntraID(cmd.MentorIntraID)
	if err != nil {
		return nil, err
	}
	cadetID, err := shared.NewIntraID(cmd.CadetIntraID)
	if err != nil {
		return nil, err
	}

	mentor, err := h.members.GetMentorByIntraID(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	cadet, err := h.members.GetCadetByIntraID(ctx, cadetID)
	if err != nil {
		return nil, err
	}

	times := make([]shared.TimeRange, len(cmd.RequestTimes))
	for i, rt := range cmd.RequestTimes {
		times[i] = rt.TimeRange()
	}

	now := h.now()
	log, err := mentoring.NewMentoringLog(h.newID(), mentor.Ref(), cadet.Ref(), cmd.Topic, cmd.Content, times, now)
	if err != nil {
		return nil, err
	}

	if err := h.logs.Create(ctx, log); err != nil {
		return nil, err
	}

	if err := h.scheduler.Schedule(log.ID, h.autoCancelDelay); err != nil {
		// The restore job re-arms waiting logs without a pending task.
		h.logger.Error("failed to schedule auto-cancel", logger.MentoringLogID(log.ID), logger.Err(err))
	}

	h.notifier.Notify(log.ID, notification.MailTypeReservation)

	h.logger.Info("mentoring requested",
		logger.MentoringLogID(log.ID),
		logger.MentorIntraID(mentor.IntraID.String()),
		logger.CadetIntraID(cadet.IntraID.String()),
	)

	return &ApplyMentoringResult{
		Log:          log,
		AutoCancelAt: now.Add(h.autoCancelDelay),
	}, nil
}
