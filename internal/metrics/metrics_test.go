package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_WriteTo(t *testing.T) {
	r := NewRegistry()
	r.NewCounter("test_total", "测试计数", "kind").Inc("a")
	r.Counter("test_total").Add(2, "a")
	r.NewGauge("test_gauge", "测试仪表").Set(1.5)
	h := r.NewHistogram("test_seconds", "测试直方图", []float64{0.1, 1}, "op")
	h.Observe(0.05, "x")
	h.Observe(0.5, "x")
	h.Observe(3, "x")

	var b strings.Builder
	_, err := r.WriteTo(&b)
	require.NoError(t, err)
	out := b.String()

	assert.Contains(t, out, "# TYPE test_total counter")
	assert.Contains(t, out, `test_total{kind="a"} 3`)
	assert.Contains(t, out, "test_gauge 1.5")
	assert.Contains(t, out, `test_seconds_bucket{op="x",le="0.1"} 1`)
	assert.Contains(t, out, `test_seconds_bucket{op="x",le="1"} 2`)
	assert.Contains(t, out, `test_seconds_bucket{op="x",le="+Inf"} 3`)
	assert.Contains(t, out, `test_seconds_count{op="x"} 3`)
	assert.Equal(t, uint64(3), h.Count("x"))
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	a := r.NewCounter("dup_total", "a")
	b := r.NewCounter("dup_total", "b")
	assert.Same(t, a, b)
}

func TestRecordHelpers(t *testing.T) {
	RecordAssignment(true)
	RecordAssignment(false)
	RecordAssignmentConflict()
	c := Default().Counter(AssignmentsTotal)
	assert.GreaterOrEqual(t, c.Value("changed"), 1.0)
	assert.GreaterOrEqual(t, c.Value("no_change"), 1.0)
	assert.GreaterOrEqual(t, c.Value("conflict"), 1.0)

	RecordPayroll("2017-02", 250, false)
	assert.Equal(t, 250.0, Default().Gauge(PayrollTotalRatio).Value("2017-02"))
	RecordPayroll("2016-01", 0, true)
	assert.Equal(t, -1.0, Default().Gauge(PayrollTotalRatio).Value("2016-01"))

	RecordRanking("Deli", 8, time.Millisecond)
	assert.GreaterOrEqual(t, Default().Histogram(RankingDuration).Count("Deli"), uint64(1))

	RecordSlowQuery("query")
	assert.GreaterOrEqual(t, Default().Counter(DBSlowQueriesTotal).Value("query"), 1.0)
}

func TestHandler(t *testing.T) {
	RecordRequest("GET", "/health", 200, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), `rescheduler_http_requests_total{method="GET",path="/health",status="200"}`)
}
