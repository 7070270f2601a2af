package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/yt-stream-go/internal/domain"
)

// HistoryHandler exposes download attempt history
type HistoryHandler struct {
	repo   domain.HistoryRepository
	logger *zap.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(repo domain.HistoryRepository, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		repo:   repo,
		logger: logger,
	}
}

// ListHistory handles GET /api/history
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	records, err := h.repo.FindRecent(limit)
	if err != nil {
		h.logger.Error("Failed to list history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"records": records,
	})
}

// GetStats handles GET /api/stats
func (h *HistoryHandler) GetStats(c *gin.Context) {
	stats := domain.DownloadStats{}
	var err error

	if stats.Total, err = h.repo.Count(); err == nil {
		if stats.Completed, err = h.repo.CountByStatus(domain.RecordCompleted); err == nil {
			if stats.Failed, err = h.repo.CountByStatus(domain.RecordFailed); err == nil {
				stats.Started, err = h.repo.CountByStatus(domain.RecordStarted)
			}
		}
	}
	if err != nil {
		h.logger.Error("Failed to compute stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
