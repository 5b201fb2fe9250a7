package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuongbtq/statmon/internal/api/dto"
	"github.com/cuongbtq/statmon/internal/monitor/domain"
	"github.com/cuongbtq/statmon/internal/monitor/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type startCall struct {
	key      string
	interval int64
	taskType string
	taskName string
}

// fakeScheduler records calls and echoes acknowledgments
type fakeScheduler struct {
	starts   []startCall
	stops    []string
	startErr error
	jobs     []scheduler.JobInfo
}

func (f *fakeScheduler) Start(key string, intervalMillis int64, taskType, taskName string) (domain.Message, error) {
	f.starts = append(f.starts, startCall{key, intervalMillis, taskType, taskName})
	if f.startErr != nil {
		return domain.Message{}, f.startErr
	}
	return domain.Message{
		Counter: int64(len(f.starts)),
		Payload: fmt.Sprintf("started monitoring, %s", key),
		Name:    taskName,
		Parameters: domain.Parameters{
			Key:        key,
			Action:     domain.ActionStart,
			SourceName: "statmon-monitor",
		},
	}, nil
}

func (f *fakeScheduler) Stop(key string) domain.Message {
	f.stops = append(f.stops, key)
	return domain.Message{
		Counter: 99,
		Payload: fmt.Sprintf("stopped monitoring, %s", key),
		Name:    "statmon-monitor",
		Parameters: domain.Parameters{
			Key:        key,
			Action:     domain.ActionStop,
			SourceName: "statmon-monitor",
		},
	}
}

func (f *fakeScheduler) Jobs() []scheduler.JobInfo {
	return f.jobs
}

func (f *fakeScheduler) Job(key string) (scheduler.JobInfo, bool) {
	for _, j := range f.jobs {
		if j.Key == key {
			return j, true
		}
	}
	return scheduler.JobInfo{}, false
}

func newMonitorEngine(sched JobScheduler) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewMonitorHandler(&Dependencies{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Scheduler: sched,
	})

	r := gin.New()
	r.GET("/start", h.Start)
	r.GET("/stop", h.Stop)
	r.GET("/api/v1/jobs", h.ListJobs)
	r.GET("/api/v1/jobs/:key", h.GetJob)
	return r
}

func serve(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestMonitorHandler_Start(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCall   *startCall
	}{
		{
			name:       "defaults",
			target:     "/start",
			wantStatus: http.StatusOK,
			wantCall:   &startCall{"ping", 5000, "ping", "ping"},
		},
		{
			name:       "explicit parameters",
			target:     "/start?key=cpu&interval=1000&type=system&name=host-a",
			wantStatus: http.StatusOK,
			wantCall:   &startCall{"cpu", 1000, "system", "host-a"},
		},
		{
			name:       "non-integer interval",
			target:     "/start?key=cpu&interval=fast",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "fractional interval",
			target:     "/start?interval=1.5",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := &fakeScheduler{}
			w := serve(newMonitorEngine(sched), tt.target)

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantCall == nil {
				assert.Empty(t, sched.starts)
				assert.Contains(t, w.Body.String(), `"error"`)
				return
			}

			require.Len(t, sched.starts, 1)
			assert.Equal(t, *tt.wantCall, sched.starts[0])

			var msg domain.Message
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
			assert.Equal(t, "started monitoring, "+tt.wantCall.key, msg.Payload)
			assert.Equal(t, tt.wantCall.taskName, msg.Name)
			assert.Equal(t, domain.ActionStart, msg.Parameters.Action)
		})
	}
}

func TestMonitorHandler_Start_SchedulerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "non-positive interval",
			err:        fmt.Errorf("%w: %d", domain.ErrInvalidInterval, 0),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty key",
			err:        domain.ErrEmptyKey,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := &fakeScheduler{startErr: tt.err}
			w := serve(newMonitorEngine(sched), "/start?interval=0")

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMonitorHandler_Stop(t *testing.T) {
	t.Run("default key", func(t *testing.T) {
		sched := &fakeScheduler{}
		w := serve(newMonitorEngine(sched), "/stop")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"ping"}, sched.stops)
	})

	t.Run("unknown key still acknowledges", func(t *testing.T) {
		sched := &fakeScheduler{}
		w := serve(newMonitorEngine(sched), "/stop?key=never-started")

		require.Equal(t, http.StatusOK, w.Code)

		var msg domain.Message
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
		assert.Equal(t, "stopped monitoring, never-started", msg.Payload)
		assert.Equal(t, domain.ActionStop, msg.Parameters.Action)
	})
}

func TestMonitorHandler_Jobs(t *testing.T) {
	started := time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)
	sched := &fakeScheduler{jobs: []scheduler.JobInfo{
		{Key: "cpu", IntervalMillis: 1000, TTLMillis: 10000, TaskType: "system", TaskName: "host-a", StartedAt: started},
		{Key: "ping", IntervalMillis: 5000, TTLMillis: 40000, TaskType: "default", TaskName: "ping", Ticks: 2, StartedAt: started},
	}}
	r := newMonitorEngine(sched)

	t.Run("list", func(t *testing.T) {
		w := serve(r, "/api/v1/jobs")
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.ListJobsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		require.Len(t, resp.Jobs, 2)
		assert.Equal(t, "cpu", resp.Jobs[0].Key)
		assert.Equal(t, "2026-04-01T08:30:00Z", resp.Jobs[0].StartedAt)
	})

	t.Run("get", func(t *testing.T) {
		w := serve(r, "/api/v1/jobs/ping")
		require.Equal(t, http.StatusOK, w.Code)

		var job dto.JobDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
		assert.Equal(t, int64(40000), job.TTLMillis)
		assert.Equal(t, int64(2), job.Ticks)
	})

	t.Run("not found", func(t *testing.T) {
		w := serve(r, "/api/v1/jobs/disk")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("empty list", func(t *testing.T) {
		w := serve(newMonitorEngine(&fakeScheduler{}), "/api/v1/jobs")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"jobs":[],"count":0}`, w.Body.String())
	})
}
