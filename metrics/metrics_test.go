package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordReport(t *testing.T) {
	before := testutil.ToFloat64(reportEmails)

	RecordReport(ReportSent, 2)
	RecordReport(ReportSkipped, 0)

	assert.Equal(t, before+2, testutil.ToFloat64(reportEmails))
	assert.GreaterOrEqual(t, testutil.ToFloat64(reportRuns.WithLabelValues(ReportSkipped)), 1.0)
}

func TestHandlerExposesHTTPMetrics(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/menus", "200", 10*time.Millisecond)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `emenu_http_requests_total{method="GET",path="/menus",status="200"}`)
}
