package command

import (
	"context"
	"errors"

	"github.com/alem-hub/mentoring-hub/internal/domain/report"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPLOAD IMAGE / SIGNATURE
// Files are stored by the upstream handler; the core records their keys.
// A key that does not fit is handed to the janitor for deletion.
// ══════════════════════════════════════════════════════════════════════════════

// UploadAssetCommand attaches an uploaded storage key to a report.
type UploadAssetCommand struct {
	ReportID         string `validate:"required"`
	RequesterIntraID string `validate:"required"`
	Key              string `validate:"required"`
}

// Validate validates the command.
func (c UploadAssetCommand) Validate() error {
	return validateStruct("report", "Upload", c)
}

// UploadAssetHandler handles image and signature uploads.
type UploadAssetHandler struct {
	reports   report.Repository
	janitor   AssetJanitor
	logger    *logger.Logger
	maxImages int
	now       Clock
}

// NewUploadAssetHandler creates a new UploadAssetHandler.
func NewUploadAssetHandler(
	reports report.Repository,
	janitor AssetJanitor,
	log *logger.Logger,
	maxImages int,
	now Clock,
) *UploadAssetHandler {
	if maxImages <= 0 {
		maxImages = report.DefaultMaxImages
	}
	now, _ = defaults(now, nil)
	return &UploadAssetHandler{
		reports:   reports,
		janitor:   janitor,
		logger:    log.With(logger.Component("upload_asset")),
		maxImages: maxImages,
		now:       now,
	}
}

// UploadImage appends an image key while the report has room for it.
func (h *UploadAssetHandler) UploadImage(ctx context.Context, cmd UploadAssetCommand) (*report.Report, error) {
	return h.attach(ctx, "UploadImage", cmd, func(r *report.Report) error {
		return r.AttachImage(cmd.Key, h.maxImages, h.now())
	})
}

// UploadSignature sets the signature key unless one is already stored.
func (h *UploadAssetHandler) UploadSignature(ctx context.Context, cmd UploadAssetCommand) (*report.Report, error) {
	return h.attach(ctx, "UploadSignature", cmd, func(r *report.Report) error {
		return r.AttachSignature(cmd.Key, h.now())
	})
}

func (h *UploadAssetHandler) attach(ctx context.Context, op string, cmd UploadAssetCommand, fn func(*report.Report) error) (*report.Report, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	r, err := h.reports.GetByID(ctx, cmd.ReportID)
	if err != nil {
		return nil, err
	}
	if !r.IsOwnedBy(shared.IntraID(cmd.RequesterIntraID)) {
		return nil, shared.ErrNotReportOwner
	}

	if err := fn(r); err != nil {
		if errors.Is(err, shared.ErrImageCapacity) ||
			errors.Is(err, shared.ErrSignatureExists) ||
			errors.Is(err, shared.ErrReportNotEditable) {
			h.orphan(ctx, op, r.ID, cmd.Key)
		}
		return nil, err
	}

	if err := h.reports.Update(ctx, r); err != nil {
		h.orphan(ctx, op, r.ID, cmd.Key)
		return nil, err
	}
	return r, nil
}

func (h *UploadAssetHandler) orphan(ctx context.Context, op, reportID, key string) {
	if h.janitor == nil {
		return
	}
	if err := h.janitor.MarkOrphaned(ctx, key); err != nil {
		h.logger.Warn("failed to mark asset orphaned",
			logger.Operation(op),
			logger.ReportID(reportID),
			logger.String("key", key),
			logger.Err(err),
		)
	}
}
