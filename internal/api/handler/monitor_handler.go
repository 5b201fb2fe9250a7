package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/statmon/internal/api/dto"
	"github.com/cuongbtq/statmon/internal/monitor/domain"
	"github.com/cuongbtq/statmon/internal/monitor/scheduler"
	"github.com/gin-gonic/gin"
)

// Start handles GET /start
// Schedules a monitoring job or refreshes the ttl of a running one
func (h *MonitorHandler) Start(c *gin.Context) {
	var req dto.StartRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Invalid start parameters",
			slog.String("query", c.Request.URL.RawQuery),
			slog.Any("error", err),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.ErrInvalidInterval.Error(),
		})
		return
	}

	msg, err := h.scheduler.Start(req.Key, req.Interval, req.Type, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInterval) || errors.Is(err, domain.ErrEmptyKey) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		h.logger.Error("Failed to start monitoring",
			slog.String("key", req.Key),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to start monitoring",
		})
		return
	}

	c.JSON(http.StatusOK, msg)
}

// Stop handles GET /stop
// Cancels a monitoring job; stopping an unknown key still succeeds
func (h *MonitorHandler) Stop(c *gin.Context) {
	var req dto.StopRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	c.JSON(http.StatusOK, h.scheduler.Stop(req.Key))
}

// ListJobs handles GET /api/v1/jobs
func (h *MonitorHandler) ListJobs(c *gin.Context) {
	jobs := h.scheduler.Jobs()

	resp := dto.ListJobsResponse{
		Jobs:  make([]dto.JobDTO, len(jobs)),
		Count: len(jobs),
	}
	for i, j := range jobs {
		resp.Jobs[i] = toJobDTO(j)
	}

	c.JSON(http.StatusOK, resp)
}

// GetJob handles GET /api/v1/jobs/:key
func (h *MonitorHandler) GetJob(c *gin.Context) {
	key := c.Param("key")

	j, ok := h.scheduler.Job(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "job not found",
		})
		return
	}

	c.JSON(http.StatusOK, toJobDTO(j))
}

func toJobDTO(j scheduler.JobInfo) dto.JobDTO {
	return dto.JobDTO{
		Key:            j.Key,
		IntervalMillis: j.IntervalMillis,
		TTLMillis:      j.TTLMillis,
		TaskType:       j.TaskType,
		TaskName:       j.TaskName,
		Ticks:          j.Ticks,
		StartedAt:      j.StartedAt.Format(time.RFC3339),
	}
}
