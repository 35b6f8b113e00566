package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.AutoCancelScheduled(3)
	m.AutoCancelFired("cancelled")
	m.AutoCancelFired("skipped")
	m.AutoCancelFired("skipped")
	m.ReportSubmitted(150000, 90*time.Minute)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.autoCancelScheduled))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.autoCancelPending))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.autoCancelFired.WithLabelValues("skipped")))
	assert.Equal(t, 150000.0, testutil.ToFloat64(m.compensationPaid))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AutoCancelScheduled(1)
		m.MailDelivered("reservation", "sent")
		m.RecordJob("job", time.Second, true)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.MailDelivered("reservation", "sent")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `mentoring_hub_mail_deliveries_total{result="sent",type="reservation"} 1`))
}
