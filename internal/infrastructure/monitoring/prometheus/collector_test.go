package prometheus

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/Musaid-NLQ/internal/testutil"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

func newTestCollector(t *testing.T) MetricsCollector {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, nil)
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{Subsystem: "unit"}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
}

func TestNewMetricsCollector_WithProcessMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", EnableProcessMetrics: true, EnableGoMetrics: true}, nil)
	require.NoError(t, err)
	out := scrapeMetrics(t, c)
	assert.Contains(t, out, "go_goroutines")
}

func TestRegisterCounter(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("requests_total", "help", "route")
	vec.WithLabelValues("numerical").Inc()
	vec.WithLabelValues("numerical").Add(2)

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_requests_total{route="numerical"} 3`)
}

func TestRegisterGaugeAndHistogram(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("pending", "help")
	g.WithLabelValues().Set(4)
	g.WithLabelValues().Dec()

	h := c.RegisterHistogram("latency_seconds", "help", []float64{1, 2}, "provider")
	h.WithLabelValues("gemini").Observe(1.5)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, "test_unit_pending 3")
	assert.Contains(t, out, `test_unit_latency_seconds_bucket{provider="gemini",le="2"} 1`)
	assert.Contains(t, out, `test_unit_latency_seconds_count{provider="gemini"} 1`)
}

func TestRegister_DuplicateReturnsExisting(t *testing.T) {
	c := newTestCollector(t)
	a := c.RegisterCounter("dup_total", "help", "x")
	b := c.RegisterCounter("dup_total", "help", "x")
	a.WithLabelValues("1").Inc()
	b.WithLabelValues("1").Inc()
	assert.Contains(t, scrapeMetrics(t, c), `test_unit_dup_total{x="1"} 2`)
}

func TestRegister_TypeMismatchIsNoop(t *testing.T) {
	log := testutil.NewMockLogger()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test"}, log)
	require.NoError(t, err)

	c.RegisterCounter("clash", "help")
	g := c.RegisterGauge("clash", "help")
	assert.NotPanics(t, func() { g.WithLabelValues().Set(1) })
	assert.True(t, log.HasMessage("warn", "metric type mismatch"))
}

func TestRegisterCounter_Concurrent(t *testing.T) {
	c := newTestCollector(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RegisterCounter("concurrent_total", "help").WithLabelValues().Inc()
		}()
	}
	wg.Wait()
	assert.Contains(t, scrapeMetrics(t, c), "test_unit_concurrent_total 20")
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("timer_seconds", "help", nil)
	timer := NewTimer(h.WithLabelValues())
	time.Sleep(time.Millisecond)
	assert.Greater(t, timer.ObserveDuration(), time.Duration(0))
	assert.Contains(t, scrapeMetrics(t, c), "test_unit_timer_seconds_count 1")

	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}

//Personal.AI order the ending
