package command

import (
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/member"
	"github.com/alem-hub/mentoring-hub/internal/domain/mentoring"
	"github.com/alem-hub/mentoring-hub/internal/domain/notification"
	"github.com/alem-hub/mentoring-hub/internal/domain/report"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMAND SET
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies are the collaborators shared by all command handlers.
type Dependencies struct {
	Members  member.Repository
	Logs     mentoring.Repository
	Reports  report.Repository
	Tx       TxRunner
	Schedule AutoCancelScheduler
	Notifier notification.Notifier

	// Janitor may be nil when orphaned uploads are not tracked.
	Janitor  AssetJanitor
	Observer SubmissionObserver
	Logger   *logger.Logger

	AutoCancelDelay time.Duration
	Policy          report.Policy
	MaxImages       int

	Now   Clock
	NewID IDGenerator
}

// Commands is the write surface of the mentoring core. Upstream request
// handlers hold one instance.
type Commands struct {
	Apply      *ApplyMentoringHandler
	SetMeeting *SetMeetingAtHandler
	Complete   *CompleteMentoringHandler
	Create     *CreateReportHandler
	Reports    *ReportHandler
	Uploads    *UploadAssetHandler
}

// NewCommands wires every handler from deps.
func NewCommands(deps Dependencies) *Commands {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &Commands{
		Apply: NewApplyMentoringHandler(deps.Members, deps.Logs, deps.Schedule, deps.Notifier, deps.Logger,
			ApplyMentoringHandlerConfig{AutoCancelDelay: deps.AutoCancelDelay, Now: deps.Now, NewID: deps.NewID}),
		SetMeeting: NewSetMeetingAtHandler(deps.Logs, deps.Schedule, deps.Notifier, deps.Logger, deps.Now),
		Complete:   NewCompleteMentoringHandler(deps.Logs, deps.Logger, deps.Now),
		Create:     NewCreateReportHandler(deps.Logs, deps.Reports, deps.Tx, deps.Logger, deps.Now, deps.NewID),
		Reports: NewReportHandler(deps.Logs, deps.Reports, deps.Tx, deps.Logger,
			ReportHandlerConfig{Policy: deps.Policy, Observer: deps.Observer, Now: deps.Now}),
		Uploads: NewUploadAssetHandler(deps.Reports, deps.Janitor, deps.Logger, deps.MaxImages, deps.Now),
	}
}
