package command

import (
	"context"

	"github.com/alem-hub/mentoring-hub/internal/domain/mentoring"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// CompleteMentoringCommand marks a confirmed meeting as held.
type CompleteMentoringCommand struct {
	LogID string `validate:"required"`
}

// Validate validates the command.
func (c CompleteMentoringCommand) Validate() error {
	return validateStruct("mentoring", "Complete", c)
}

// CompleteMentoringHandler handles the CompleteMentoringCommand.
type CompleteMentoringHandler struct {
	logs   mentoring.Repository
	logger *logger.Logger
	now    Clock
}

// NewCompleteMentoringHandler creates a new CompleteMentoringHandler.
func NewCompleteMentoringHandler(logs mentoring.Repository, log *logger.Logger, now Clock) *CompleteMentoringHandler {
	now, _ = defaults(now, nil)
	return &CompleteMentoringHandler{
		logs:   logs,
		logger: log.With(logger.Component("complete_mentoring")),
		now:    now,
	}
}

// Handle executes the command.
func (h *CompleteMentoringHandler) Handle(ctx context.Context, cmd CompleteMentoringCommand) (*mentoring.MentoringLog, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	log, err := h.logs.GetByID(ctx, cmd.LogID)
	if err != nil {
		return nil, err
	}
	if err := log.Complete(h.now()); err != nil {
		return nil, err
	}
	if err := h.logs.Update(ctx, log); err != nil {
		return nil, err
	}

	h.logger.Info("mentoring completed", logger.MentoringLogID(log.ID))
	return log, nil
}
