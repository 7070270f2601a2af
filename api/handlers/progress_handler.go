package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/yt-stream-go/internal/app"
	"github.com/yourusername/yt-stream-go/internal/domain"
)

// ProgressHandler streams download progress over server-sent events
type ProgressHandler struct {
	registry *app.ProgressRegistry
	logger   *zap.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(registry *app.ProgressRegistry, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		registry: registry,
		logger:   logger,
	}
}

type progressDelta struct {
	Downloaded int64 `json:"downloaded"`
	Total      int64 `json:"total"`
	Percent    int   `json:"percent"`
}

type progressError struct {
	Message string `json:"message"`
}

// Stream handles GET /api/progress
func (h *ProgressHandler) Stream(c *gin.Context) {
	requestID := c.Query("requestId")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing requestId parameter"})
		return
	}

	ch := h.registry.Register(requestID)
	defer h.registry.CloseAndRemove(requestID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			h.logger.Debug("Progress client disconnected",
				zap.String("request_id", requestID),
			)
			return
		case ev, ok := <-ch.Events():
			if !ok {
				return
			}
			h.writeEvent(c, ev)
			if ev.Terminal() {
				return
			}
		}
	}
}

func (h *ProgressHandler) writeEvent(c *gin.Context, ev domain.ProgressEvent) {
	switch ev.Kind {
	case domain.ProgressDone:
		c.Writer.WriteString("event: done\ndata: {}\n\n")
	case domain.ProgressError:
		payload, _ := json.Marshal(progressError{Message: ev.Message})
		c.Writer.WriteString("event: error\ndata: " + string(payload) + "\n\n")
	default:
		payload, _ := json.Marshal(progressDelta{
			Downloaded: ev.Downloaded,
			Total:      ev.Total,
			Percent:    ev.Percent,
		})
		c.Writer.WriteString("data: " + string(payload) + "\n\n")
	}
	c.Writer.Flush()
}
