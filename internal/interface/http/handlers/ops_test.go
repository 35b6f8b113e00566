package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentoring-hub/internal/application/query"
	"github.com/alem-hub/mentoring-hub/internal/domain/notification"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/internal/infrastructure/messaging"
	"github.com/alem-hub/mentoring-hub/internal/infrastructure/scheduler"
	"github.com/alem-hub/mentoring-hub/pkg/timeutil"
)

type fakeJobs struct {
	err error
}

func (f fakeJobs) ListJobs() []scheduler.JobInfo { return nil }

func (f fakeJobs) RunNow(_ context.Context, name string) (*scheduler.JobResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &scheduler.JobResult{JobName: name, Success: false, Error: errors.New("smtp down"), Duration: 1500 * time.Millisecond}, nil
}

type fakeSettlement struct {
	got time.Time
	err error
}

func (f *fakeSettlement) Handle(_ context.Context, q query.GetMonthlySettlementQuery) (*query.MonthlySettlement, error) {
	f.got = q.Month
	if f.err != nil {
		return nil, f.err
	}
	return &query.MonthlySettlement{From: q.Month}, nil
}

type fakeRenderer struct{}

func (fakeRenderer) FileName(s *query.MonthlySettlement) string {
	return "mentoring_settlement_" + s.Label() + ".xlsx"
}

func (fakeRenderer) Write(out io.Writer, _ *query.MonthlySettlement) error {
	_, err := out.Write([]byte("PK"))
	return err
}

type fakeDead []messaging.DeadLetterEntry

func (f fakeDead) DeadLetters() []messaging.DeadLetterEntry { return f }

type fakeAssets struct {
	keys      []string
	forgotten []string
}

func (f *fakeAssets) Orphaned(context.Context) ([]string, error) { return f.keys, nil }

func (f *fakeAssets) Forget(_ context.Context, keys ...string) error {
	f.forgotten = append(f.forgotten, keys...)
	return nil
}

func serve(h http.HandlerFunc, method, pattern, path string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(method+" "+pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestOpsHandler_PendingAutoCancel(t *testing.T) {
	h := &OpsHandler{AutoCancel: inspector(nil)}
	rec := serve(h.PendingAutoCancel, http.MethodGet, "/debug/auto-cancel", "/debug/auto-cancel")

	require.Equal(t, http.StatusOK, rec.Code)
	var body pendingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Zero(t, body.Count)
	assert.NotNil(t, body.Tasks)
}

type inspector []scheduler.PendingTask

func (i inspector) Pending() []scheduler.PendingTask { return i }

func TestOpsHandler_RunJob(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"ran", nil, http.StatusOK},
		{"unknown", fmt.Errorf("%w: x", scheduler.ErrJobNotFound), http.StatusNotFound},
		{"busy", scheduler.ErrJobBusy, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &OpsHandler{Jobs: fakeJobs{err: tc.err}}
			rec := serve(h.RunJob, http.MethodPost, "/admin/jobs/{name}/run", "/admin/jobs/monthly_settlement/run")
			assert.Equal(t, tc.want, rec.Code)
		})
	}

	h := &OpsHandler{Jobs: fakeJobs{}}
	rec := serve(h.RunJob, http.MethodPost, "/admin/jobs/{name}/run", "/admin/jobs/monthly_settlement/run")
	var body jobRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "monthly_settlement", body.Job)
	assert.False(t, body.Success)
	assert.Equal(t, "smtp down", body.Error)
	assert.Equal(t, "1.5s", body.Duration)
}

func TestOpsHandler_ExportSettlement(t *testing.T) {
	t.Run("workbook", func(t *testing.T) {
		src := &fakeSettlement{}
		h := &OpsHandler{Settlement: src, Renderer: fakeRenderer{}}
		rec := serve(h.ExportSettlement, http.MethodGet, "/admin/settlements/{month}", "/admin/settlements/2026-09")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `attachment; filename="mentoring_settlement_2026-09.xlsx"`, rec.Header().Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
		assert.True(t, timeutil.DateTime(timeutil.SeoulTZ, 2026, 9, 1, 0, 0).Equal(src.got))
	})

	t.Run("bad month", func(t *testing.T) {
		h := &OpsHandler{Settlement: &fakeSettlement{}, Renderer: fakeRenderer{}}
		rec := serve(h.ExportSettlement, http.MethodGet, "/admin/settlements/{month}", "/admin/settlements/september")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		h := &OpsHandler{
			Settlement: &fakeSettlement{err: shared.WrapError("settlement", "ListSubmitted", shared.ErrConflict, "storage failure", errors.New("eof"))},
			Renderer:   fakeRenderer{},
		}
		rec := serve(h.ExportSettlement, http.MethodGet, "/admin/settlements/{month}", "/admin/settlements/2026-09")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestOpsHandler_DeadLetters(t *testing.T) {
	h := &OpsHandler{DeadLetters: fakeDead{{
		Request: notification.Request{MentoringLogID: "log-1", Type: notification.MailTypeReservation, Attempt: 4},
		Error:   "smtp: 550 mailbox unavailable",
	}}}
	rec := serve(h.ListDeadLetters, http.MethodGet, "/debug/mail/dead-letters", "/debug/mail/dead-letters")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "550 mailbox unavailable")
}

func TestOpsHandler_OrphanedAssets(t *testing.T) {
	assets := &fakeAssets{keys: []string{"img/a.png", "sig/b.png"}}
	h := &OpsHandler{Assets: assets}

	rec := serve(h.ListOrphanedAssets, http.MethodGet, "/debug/assets/orphaned", "/debug/assets/orphaned")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed orphanedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, 2, listed.Count)

	rec = httptest.NewRecorder()
	h.ForgetOrphanedAssets(rec, httptest.NewRequest(http.MethodPost, "/admin/assets/orphaned/forget",
		bytes.NewBufferString(`{"keys":["img/a.png"]}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"img/a.png"}, assets.forgotten)

	rec = httptest.NewRecorder()
	h.ForgetOrphanedAssets(rec, httptest.NewRequest(http.MethodPost, "/admin/assets/orphaned/forget",
		bytes.NewBufferString(`{"keys":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve((&OpsHandler{}).ListOrphanedAssets, http.MethodGet, "/debug/assets/orphaned", "/debug/assets/orphaned")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthChecker_OptionalCheckDegrades(t *testing.T) {
	c := NewHealthChecker("v1")
	c.AddCheck("postgres", func(context.Context) error { return nil })
	c.AddOptionalCheck("redis", func(context.Context) error { return errors.New("dial tcp: refused") })

	status := c.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.True(t, status.Degraded)
	assert.Equal(t, "Failed checks: redis", status.Message)

	c.AddCheck("postgres", func(context.Context) error { return errors.New("down") })
	status = c.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, "Failed checks: postgres, redis", status.Message)
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := NewAPIKeyAuth("", "secret").Middleware(ok)

	for header, want := range map[string]int{"": http.StatusUnauthorized, "wrong": http.StatusUnauthorized, "secret": http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("X-API-Key", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "key %q", header)
	}

	assert.False(t, NewAPIKeyAuth("", "").IsValid(""))
}
