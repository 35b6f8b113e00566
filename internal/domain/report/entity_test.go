package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newDraft(t *testing.T) *Report {
	t.Helper()
	r, err := NewReport("report-1", "log-1",
		shared.MemberRef{ID: "mentor-1", IntraID: "mkim"},
		shared.MemberRef{ID: "cadet-1", IntraID: "jlee"}, now)
	require.NoError(t, err)
	return r
}

func completeDraft(t *testing.T) *Report {
	t.Helper()
	r := newDraft(t)
	require.NoError(t, r.AttachImage("img/1.png", DefaultMaxImages, now))
	require.NoError(t, r.AttachSignature("sig/1.png", now))
	require.NoError(t, r.ApplyPatch(Patch{
		Topic:           strPtr("pointers"),
		Place:           strPtr("cluster 2"),
		Content:         strPtr("walked through malloc"),
		FeedbackMessage: strPtr("good questions"),
		Feedback1:       strPtr("5"),
		Feedback2:       strPtr("4"),
		Feedback3:       strPtr("5"),
	}, now))
	return r
}

func TestStatusValidator(t *testing.T) {
	assert.True(t, StatusValidator{Status: StatusDrafting}.Verify())
	assert.False(t, StatusValidator{Status: StatusSubmitted}.Verify())
	assert.False(t, StatusValidator{Status: "unknown"}.Verify())
}

func TestNewReport_IsEmptyDraft(t *testing.T) {
	r := newDraft(t)
	assert.Equal(t, StatusDrafting, r.Status)
	assert.Equal(t, int64(0), r.Money)
	assert.Empty(t, r.ImageKeys)
	assert.Nil(t, r.SubmittedAt)
}

func TestApplyPatch_FeedbackCoercion(t *testing.T) {
	r := newDraft(t)
	require.NoError(t, r.ApplyPatch(Patch{Feedback1: strPtr("3"), Feedback2: strPtr("4")}, now))
	assert.Equal(t, 3, r.Feedback1)
	assert.Equal(t, 4, r.Feedback2)

	// empty and zero keep the previous score
	require.NoError(t, r.ApplyPatch(Patch{Feedback1: strPtr(""), Feedback2: strPtr("0")}, now))
	assert.Equal(t, 3, r.Feedback1)
	assert.Equal(t, 4, r.Feedback2)

	err := r.ApplyPatch(Patch{Topic: strPtr("changed"), Feedback3: strPtr("five")}, now)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Empty(t, r.Topic, "a rejected patch must not apply partially")

	for _, raw := range []string{"40000", "-3", "6"} {
		err := r.ApplyPatch(Patch{Feedback1: strPtr("5"), Feedback2: strPtr(raw)}, now)
		require.Error(t, err, raw)
		assert.True(t, shared.IsValidation(err), raw)
		assert.Equal(t, 3, r.Feedback1, raw)
		assert.Equal(t, 4, r.Feedback2, raw)
	}
}

func TestApplyPatch_OnlyPresentFields(t *testing.T) {
	r := newDraft(t)
	require.NoError(t, r.ApplyPatch(Patch{Topic: strPtr("a"), Place: strPtr("b")}, now))
	require.NoError(t, r.ApplyPatch(Patch{Place: strPtr("c")}, now))
	assert.Equal(t, "a", r.Topic)
	assert.Equal(t, "c", r.Place)
}

func TestApplyPatch_SubmittedReport(t *testing.T) {
	r := completeDraft(t)
	require.NoError(t, r.Submit(100000, now))

	err := r.ApplyPatch(Patch{Topic: strPtr("late edit")}, now)
	assert.True(t, errors.Is(err, shared.ErrReportNotEditable))
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, "pointers", r.Topic)
}

func TestAttachImage_Capacity(t *testing.T) {
	r := newDraft(t)
	require.NoError(t, r.AttachImage("a.png", 2, now))
	require.NoError(t, r.AttachImage("b.png", 2, now))

	err := r.AttachImage("c.png", 2, now)
	assert.True(t, errors.Is(err, shared.ErrImageCapacity))
	assert.Equal(t, []string{"a.png", "b.png"}, r.ImageKeys)
}

func TestAttachSignature_FirstWriteWins(t *testing.T) {
	r := newDraft(t)
	require.NoError(t, r.AttachSignature("first.png", now))
	err := r.AttachSignature("second.png", now)
	assert.True(t, errors.Is(err, shared.ErrSignatureExists))
	assert.Equal(t, "first.png", r.SignatureKey)
}

func TestAttach_SubmittedReport(t *testing.T) {
	r := newDraft(t)
	require.NoError(t, r.AttachImage("img/1.png", DefaultMaxImages, now))
	require.NoError(t, r.AttachSignature("sig/1.png", now))
	require.NoError(t, r.ApplyPatch(Patch{
		Topic: strPtr("t"), Place: strPtr("p"), Content: strPtr("c"), FeedbackMessage: strPtr("m"),
		Feedback1: strPtr("5"), Feedback2: strPtr("5"), Feedback3: strPtr("5"),
	}, now))
	require.NoError(t, r.Submit(100000, now))

	assert.ErrorIs(t, r.AttachImage("img/2.png", DefaultMaxImages, now), shared.ErrReportNotEditable)
	assert.Equal(t, []string{"img/1.png"}, r.ImageKeys)
}

func TestSubmit_MissingFields(t *testing.T) {
	full := completeDraft(t)
	require.Empty(t, full.MissingFields())

	clear := map[string]func(*Report){
		"images":          func(r *Report) { r.ImageKeys = nil },
		"signature":       func(r *Report) { r.SignatureKey = "" },
		"topic":           func(r *Report) { r.Topic = "" },
		"place":           func(r *Report) { r.Place = "" },
		"content":         func(r *Report) { r.Content = "" },
		"feedbackMessage": func(r *Report) { r.FeedbackMessage = "" },
		"feedback1":       func(r *Report) { r.Feedback1 = 0 },
		"feedback2":       func(r *Report) { r.Feedback2 = 0 },
		"feedback3":       func(r *Report) { r.Feedback3 = 0 },
	}

	for field, fn := range clear {
		t.Run(field, func(t *testing.T) {
			r := completeDraft(t)
			fn(r)

			err := r.Submit(100000, now)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))
			assert.True(t, strings.Contains(err.Error(), field))
			assert.Equal(t, StatusDrafting, r.Status)
			assert.Equal(t, int64(0), r.Money)
		})
	}
}

func TestSubmit_SetsMoney(t *testing.T) {
	r := completeDraft(t)
	require.NoError(t, r.Submit(250000, now))
	assert.Equal(t, StatusSubmitted, r.Status)
	assert.Equal(t, int64(250000), r.Money)
	require.NotNil(t, r.SubmittedAt)

	assert.True(t, errors.Is(r.Submit(1, now), shared.ErrReportNotEditable))
	assert.Equal(t, int64(250000), r.Money)
}
