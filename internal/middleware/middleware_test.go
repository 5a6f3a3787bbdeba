package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func newRouter(t *testing.T, service string) (*gin.Engine, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	gin.SetMode(gin.TestMode)
	r := gin.New()

	promMw, err := NewPrometheusMiddleware(service, registry)
	require.NoError(t, err)
	r.Use(promMw.Handler())
	return r, registry
}

func TestPrometheusMiddleware_BasicMetrics(t *testing.T) {
	r, registry := newRouter(t, "test")
	r.GET("/test", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.GET("/error", func(c *gin.Context) { c.JSON(500, gin.H{"error": "test error"}) })

	assert.Equal(t, 200, serve(r, "/test").Code)
	assert.Equal(t, 500, serve(r, "/error").Code)

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	var durationFound, errorsFound bool
	for _, mf := range metricFamilies {
		switch mf.GetName() {
		case "test_http_request_duration_seconds":
			durationFound = true
			assert.Equal(t, "Длительность HTTP-запросов.", mf.GetHelp())
			assert.Len(t, mf.GetMetric(), 2)
		case "test_http_request_errors_total":
			errorsFound = true
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, float64(1), mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, durationFound, "Duration metric not found")
	assert.True(t, errorsFound, "Errors metric not found")
}

func TestPrometheusMiddleware_InflightRequests(t *testing.T) {
	r, registry := newRouter(t, "test")

	entered := make(chan struct{})
	release := make(chan struct{})
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.JSON(200, gin.H{"ok": true})
	})

	done := make(chan struct{})
	go func() {
		serve(r, "/slow")
		close(done)
	}()
	<-entered

	inflight := func() float64 {
		metricFamilies, err := registry.Gather()
		require.NoError(t, err)
		for _, mf := range metricFamilies {
			if mf.GetName() == "test_http_requests_inflight" {
				return mf.GetMetric()[0].GetGauge().GetValue()
			}
		}
		return -1
	}
	assert.Equal(t, float64(1), inflight())

	close(release)
	<-done
	assert.Equal(t, float64(0), inflight())
}

func TestPrometheusMiddleware_ErrorCounting(t *testing.T) {
	r, registry := newRouter(t, "error_test")
	for _, code := range []int{400, 401, 404, 500, 200} {
		code := code
		r.GET("/"+strconv.Itoa(code), func(c *gin.Context) { c.Status(code) })
	}

	for _, code := range []int{400, 401, 404, 500, 200, 200} {
		serve(r, "/"+strconv.Itoa(code))
	}
	// Неизвестный маршрут тоже ошибка, путь сворачивается в одну метку
	serve(r, "/nope/1")
	serve(r, "/nope/2")

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	var totalErrors float64
	unmatched := 0
	for _, mf := range metricFamilies {
		if mf.GetName() != "error_test_http_request_errors_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			totalErrors += metric.GetCounter().GetValue()
			for _, l := range metric.GetLabel() {
				if l.GetName() == "path" && l.GetValue() == "unmatched" {
					unmatched++
				}
			}
		}
	}
	assert.Equal(t, float64(6), totalErrors)
	assert.Equal(t, 1, unmatched)
}

func TestPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware("dup", registry)
	require.NoError(t, err)
	_, err = NewPrometheusMiddleware("dup", registry)
	assert.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	r, registry := newRouter(t, "test")
	RegisterMetricsEndpoint(r, registry)
	r.GET("/api/test", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	assert.Equal(t, 200, serve(r, "/api/test").Code)

	w := serve(r, "/metrics")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "# HELP")
	assert.Contains(t, w.Body.String(), "test_http_request_duration_seconds")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRequestLogger_TraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	out := &syncBuffer{}
	r.Use(NewRequestLogger(logging.NewWriterLogger("api", out, logging.DEBUG)).Handler())

	var capturedTraceID string
	r.GET("/test", func(c *gin.Context) {
		traceID, exists := c.Get("trace_id")
		require.True(t, exists, "trace_id should be set in context")
		capturedTraceID = traceID.(string)
		c.JSON(200, gin.H{"trace_id": capturedTraceID})
	})

	w := serve(r, "/test")
	assert.Equal(t, 200, w.Code)
	require.NotEmpty(t, capturedTraceID)
	assert.Contains(t, w.Body.String(), capturedTraceID)
	assert.Equal(t, capturedTraceID, w.Header().Get("X-Trace-ID"))

	logs := out.String()
	assert.Contains(t, logs, "▶ GET /test")
	assert.Contains(t, logs, "◀ GET /test 200")
	assert.Contains(t, logs, capturedTraceID)
}

func BenchmarkPrometheusMiddleware(b *testing.B) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	promMw, err := NewPrometheusMiddleware("bench", prometheus.NewRegistry())
	if err != nil {
		b.Fatal(err)
	}
	r.Use(promMw.Handler())
	r.GET("/bench", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			serve(r, "/bench")
		}
	})
}

