package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/statmon/internal/api/dto"
	collectordomain "github.com/cuongbtq/statmon/internal/collector/domain"
	"github.com/cuongbtq/statmon/internal/collector/storage"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListStats handles GET /api/v1/stats
// Lists stored readings newest first with cursor pagination
func (h *StatsHandler) ListStats(c *gin.Context) {
	var req dto.ListStatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Invalid query parameters", slog.Any("error", err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	cursor, err := DecodeStatCursor(req.Cursor)
	if err != nil {
		h.logger.Warn("Invalid cursor", slog.Any("error", err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	stats, err := h.stats.ListStats(c.Request.Context(), storage.StatFilter{
		Key:        req.Key,
		Action:     req.Action,
		SourceName: req.SourceName,
		PageSize:   req.PageSize,
		Cursor:     cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list stats", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list stats",
		})
		return
	}

	// Storage returns one extra row when another page exists
	hasMore := len(stats) > req.PageSize
	if hasMore {
		stats = stats[:req.PageSize]
	}

	resp := dto.ListStatsResponse{
		Stats: make([]dto.StatDTO, len(stats)),
	}
	for i := range stats {
		resp.Stats[i] = toStatDTO(&stats[i])
	}

	if hasMore {
		last := stats[len(stats)-1]
		resp.NextCursor = EncodeStatCursor(&storage.StatCursor{
			ReceivedAt: last.ReceivedAt,
			ID:         last.ID,
		})
	}

	c.JSON(http.StatusOK, resp)
}

// LatestStat handles GET /api/v1/stats/:key/latest
func (h *StatsHandler) LatestStat(c *gin.Context) {
	key := c.Param("key")

	stat, err := h.stats.LatestStat(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, collectordomain.ErrStatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No stats recorded for key",
			})
			return
		}

		h.logger.Error("Failed to get latest stat",
			slog.String("key", key),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get latest stat",
		})
		return
	}

	c.JSON(http.StatusOK, toStatDTO(stat))
}

func toStatDTO(s *collectordomain.Stat) dto.StatDTO {
	return dto.StatDTO{
		ID:         s.ID,
		MessageID:  s.MessageID,
		Counter:    s.Counter,
		Key:        s.Key,
		Action:     s.Action,
		Name:       s.Name,
		SourceName: s.SourceName,
		TaskName:   s.TaskName,
		Payload:    s.Payload,
		ReceivedAt: s.ReceivedAt.Format(time.RFC3339Nano),
	}
}
