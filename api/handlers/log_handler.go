package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/yt-stream-go/pkg/logger"
)

const logTailBytes = 2000

// LogHandler exposes the tail of the error log behind a shared secret
type LogHandler struct {
	errlog *logger.ErrorLog
	secret string
}

// NewLogHandler creates a new log handler
func NewLogHandler(errlog *logger.ErrorLog, secret string) *LogHandler {
	return &LogHandler{
		errlog: errlog,
		secret: secret,
	}
}

// Tail handles GET /api/logs
func (h *LogHandler) Tail(c *gin.Context) {
	if h.secret == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if c.Query("secret") != h.secret {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	tail, err := h.errlog.Tail(logTailBytes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tail": tail})
}
