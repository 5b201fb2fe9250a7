package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuongbtq/statmon/internal/api/handler"
	"github.com/cuongbtq/statmon/internal/monitor/domain"
	"github.com/cuongbtq/statmon/internal/monitor/metrics"
	"github.com/cuongbtq/statmon/internal/monitor/scheduler"
	"github.com/cuongbtq/statmon/internal/monitor/task"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardPublisher struct{}

func (discardPublisher) Publish(ctx context.Context, msg domain.Message) error { return nil }

func newMonitorRouter(t *testing.T) (http.Handler, *scheduler.Scheduler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	// The cron timer is never started, so no tick fires during the test
	timer := scheduler.NewCronTimer(logger)
	sched := scheduler.New(
		scheduler.Config{SourceName: "statmon-monitor"},
		timer,
		task.NewDefaultRegistry(&task.Config{}, logger),
		discardPublisher{},
		metrics.NewPrometheusSink(reg, logger),
		logger,
	)
	t.Cleanup(sched.Shutdown)

	r := SetupMonitorRouter(&handler.Dependencies{
		Logger:      logger,
		ServiceName: "statmon-monitor",
		Scheduler:   sched,
	}, Options{
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		MetricsPath:    "/metrics",
	})
	return r, sched
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestMonitorRouter_StartStop(t *testing.T) {
	r, sched := newMonitorRouter(t)

	w := get(r, "/start")
	require.Equal(t, http.StatusOK, w.Code)

	var ack domain.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.Equal(t, int64(1), ack.Counter)
	assert.Equal(t, "started monitoring, ping", ack.Payload)
	assert.Equal(t, "ping", ack.Name)
	assert.Equal(t, domain.Parameters{
		Key:        "ping",
		Action:     domain.ActionStart,
		SourceName: "statmon-monitor",
	}, ack.Parameters)

	job, ok := sched.Job("ping")
	require.True(t, ok)
	assert.Equal(t, int64(5000), job.IntervalMillis)
	assert.Equal(t, int64(50000), job.TTLMillis)
	assert.Equal(t, domain.TaskTypeDefault, job.TaskType)

	w = get(r, "/api/v1/jobs/ping")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/stop?key=ping")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.Equal(t, int64(2), ack.Counter)
	assert.Equal(t, "stopped monitoring, ping", ack.Payload)
	assert.Equal(t, "statmon-monitor", ack.Name)

	_, ok = sched.Job("ping")
	assert.False(t, ok)

	w = get(r, "/api/v1/jobs/ping")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMonitorRouter_RejectsBadInterval(t *testing.T) {
	r, sched := newMonitorRouter(t)

	for _, target := range []string{
		"/start?interval=abc",
		"/start?interval=0",
		"/start?interval=-5",
		"/start?interval=10000000000000",
		"/start?interval=9223372036854775808",
	} {
		w := get(r, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Contains(t, w.Body.String(), `"error"`, target)
	}

	assert.Empty(t, sched.Jobs())
	assert.Equal(t, int64(0), sched.Sequence())
}

func TestMonitorRouter_HealthAndMetrics(t *testing.T) {
	r, _ := newMonitorRouter(t)

	w := get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"service":"statmon-monitor"`)

	get(r, "/start?key=cpu&type=system&interval=1000")

	w = get(r, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "statmon_scheduler_jobs_started_total")
}

func TestMonitorRouter_CORSPreflight(t *testing.T) {
	r, _ := newMonitorRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/start", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCollectorRouter_Routes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := SetupCollectorRouter(&handler.Dependencies{
		Logger:      logger,
		ServiceName: "statmon-collector",
	}, Options{})

	routes := map[string]bool{}
	for _, route := range r.Routes() {
		routes[route.Method+" "+route.Path] = true
	}

	assert.True(t, routes["GET /health"])
	assert.True(t, routes["GET /api/v1/stats"])
	assert.True(t, routes["GET /api/v1/stats/:key/latest"])
	assert.False(t, routes["GET /metrics"])
	assert.False(t, routes["GET /start"])
}
