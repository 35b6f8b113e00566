package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/application/query"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/internal/infrastructure/messaging"
	"github.com/alem-hub/mentoring-hub/internal/infrastructure/scheduler"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
	"github.com/alem-hub/mentoring-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// AutoCancelInspector lists pending auto-cancel tasks.
type AutoCancelInspector interface {
	Pending() []scheduler.PendingTask
}

// JobController lists and triggers periodic jobs.
type JobController interface {
	ListJobs() []scheduler.JobInfo
	RunNow(ctx context.Context, jobName string) (*scheduler.JobResult, error)
}

// DeadLetterSource exposes undeliverable mail.
type DeadLetterSource interface {
	DeadLetters() []messaging.DeadLetterEntry
}

// OrphanedAssets tracks uploaded keys that no report references.
type OrphanedAssets interface {
	Orphaned(ctx context.Context) ([]string, error)
	Forget(ctx context.Context, keys ...string) error
}

// SettlementSource computes a monthly settlement.
type SettlementSource interface {
	Handle(ctx context.Context, q query.GetMonthlySettlementQuery) (*query.MonthlySettlement, error)
}

// SettlementRenderer writes a settlement workbook.
type SettlementRenderer interface {
	FileName(s *query.MonthlySettlement) string
	Write(out io.Writer, s *query.MonthlySettlement) error
}

// OpsHandler serves the operational endpoints of the worker. Nil
// dependencies answer 404.
type OpsHandler struct {
	AutoCancel  AutoCancelInspector
	Jobs        JobController
	DeadLetters DeadLetterSource
	Assets      OrphanedAssets
	Settlement  SettlementSource
	Renderer    SettlementRenderer
	Location    *time.Location
	Logger      *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// DEBUG ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

type pendingResponse struct {
	Count int                     `json:"count"`
	Tasks []scheduler.PendingTask `json:"tasks"`
}

// PendingAutoCancel handles GET /debug/auto-cancel.
func (h *OpsHandler) PendingAutoCancel(w http.ResponseWriter, _ *http.Request) {
	if h.AutoCancel == nil {
		WriteError(w, http.StatusNotFound, "not_configured", "auto-cancel scheduler is not configured")
		return
	}
	tasks := h.AutoCancel.Pending()
	if tasks == nil {
		tasks = []scheduler.PendingTask{}
	}
	WriteJSON(w, http.StatusOK, pendingResponse{Count: len(tasks), Tasks: tasks})
}

// ListJobs handles GET /debug/jobs.
func (h *OpsHandler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	if h.Jobs == nil {
		WriteError(w, http.StatusNotFound, "not_configured", "scheduler is not configured")
		return
	}
	WriteJSON(w, http.StatusOK, h.Jobs.ListJobs())
}

// ListDeadLetters handles GET /debug/mail/dead-letters.
func (h *OpsHandler) ListDeadLetters(w http.ResponseWriter, _ *http.Request) {
	if h.DeadLetters == nil {
		WriteError(w, http.StatusNotFound, "not_configured", "mail queue is not configured")
		return
	}
	entries := h.DeadLetters.DeadLetters()
	if entries == nil {
		entries = []messaging.DeadLetterEntry{}
	}
	WriteJSON(w, http.StatusOK, entries)
}

type orphanedResponse struct {
	Count int      `json:"count"`
	Keys  []string `json:"keys"`
}

// ListOrphanedAssets handles GET /debug/assets/orphaned.
func (h *OpsHandler) ListOrphanedAssets(w http.ResponseWriter, r *http.Request) {
	if h.Assets == nil {
		WriteError(w, http.StatusNotFound, "not_configured", "orphaned asset tracking is not configured")
		return
	}
	keys, err := h.Assets.Orphaned(r.Context())
	if err != nil {
		h.logger().Error("failed to list orphaned assets", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to list orphaned assets")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	WriteJSON(w, http.StatusOK, orphanedResponse{Count: len(keys), Keys: keys})
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

type jobRunResponse struct {
	Job      string `json:"job"`
	Success  bool   `json:"success"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// RunJob handles POST /admin/jobs/{name}/run.
func (h *OpsHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	if h.Jobs == nil {
		WriteError(w, http.StatusNotFound, "not_configured", "scheduler is not configured")
		return
	}

	name := r.PathValue("name")
	result, err := h.Jobs.RunNow(r.Context(), name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		WriteError(w, http.StatusNotFound, "job_not_found", fmt.Sprintf("job %q is not registered", name))
		return
	case errors.Is(err, scheduler.ErrJobBusy):
		WriteError(w, http.StatusConflict, "job_busy", fmt.Sprintf("job %q is already running", name))
		return
	case err != nil:
		WriteError(w, http.StatusInternalServerError, "job_error", err.Error())
		return
	}

	resp := jobRunResponse{
		Job:      result.JobName,
		Success:  result.Success,
		Duration: result.Duration.Round(time.Millisecond).String(),
	}
	if result.Error != nil {
		resp.Error = result.Error.Error()
	}
	WriteJSON(w, http.StatusOK, resp)
}

type forgetRequest struct {
	Keys []string `json:"keys"`
}

// ForgetOrphanedAssets handles POST /admin/assets/orphaned/forget. Storage
// cleanup calls it with the keys it has deleted.
func (h *OpsHandler) ForgetOrphanedAssets(w http.ResponseWriter, r *http.Request) {
	if h.Assets == nil {
		WriteError(w, http.StatusNotFound, "not_configured", "orphaned asset tracking is not configured")
		return
	}

	var req forgetRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil || len(req.Keys) == 0 {
		WriteError(w, http.StatusBadRequest, "invalid_input", "body must be {\"keys\": [...]} with at least one key")
		return
	}
	if err := h.Assets.Forget(r.Context(), req.Keys...); err != nil {
		h.logger().Error("failed to forget orphaned assets", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to forget orphaned assets")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"forgotten": len(req.Keys)})
}

// ExportSettlement handles GET /admin/settlements/{month} where month is
// YYYY-MM. The response is the xlsx workbook.
func (h *OpsHandler) ExportSettlement(w http.ResponseWriter, r *http.Request) {
	if h.Settlement == nil || h.Renderer == nil {
		WriteError(w, http.StatusNotFound, "not_configured", "settlement export is not configured")
		return
	}

	loc := h.Location
	if loc == nil {
		loc = timeutil.SeoulTZ
	}
	month, err := time.ParseInLocation(timeutil.FormatMonth, r.PathValue("month"), loc)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_month", "month must be formatted as YYYY-MM")
		return
	}

	settlement, err := h.Settlement.Handle(r.Context(), query.GetMonthlySettlementQuery{Month: month})
	if err != nil {
		status, code := statusFor(err)
		WriteError(w, status, code, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.Renderer.Write(&buf, settlement); err != nil {
		h.logger().Error("failed to render settlement", logger.Err(err), logger.String("month", settlement.Label()))
		WriteError(w, http.StatusInternalServerError, "render_failed", "failed to render workbook")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, h.Renderer.FileName(settlement)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *OpsHandler) logger() *logger.Logger {
	if h.Logger == nil {
		return logger.Nop()
	}
	return h.Logger
}

// statusFor maps domain error kinds to HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_input"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsForbidden(err):
		return http.StatusForbidden, "forbidden"
	case shared.IsConflict(err):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSES
// ══════════════════════════════════════════════════════════════════════════════

// APIError is the body of an error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes data as JSON.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an APIError.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, map[string]APIError{"error": {Code: code, Message: message}})
}
