package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/test", "200"))
	RecordHTTPRequest("GET", "/api/v1/test", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/test", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordWorkerRun(t *testing.T) {
	RecordWorkerRun("test_worker", 3, nil)
	RecordWorkerRun("test_worker", 0, errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(WorkerRuns.WithLabelValues("test_worker", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(WorkerRuns.WithLabelValues("test_worker", "error")))
	assert.Equal(t, float64(3), testutil.ToFloat64(WorkerAffected.WithLabelValues("test_worker")))
}

func TestRecordEmail(t *testing.T) {
	RecordEmail("log", "welcome_test", nil)
	assert.Equal(t, float64(1), testutil.ToFloat64(EmailsSent.WithLabelValues("log", "welcome_test", "ok")))
}
