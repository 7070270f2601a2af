package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/yt-stream-go/internal/app"
	"github.com/yourusername/yt-stream-go/internal/domain"
)

// FormatHandler handles format listing requests
type FormatHandler struct {
	resolver *app.FormatResolver
	logger   *zap.Logger
}

// NewFormatHandler creates a new format handler
func NewFormatHandler(resolver *app.FormatResolver, logger *zap.Logger) *FormatHandler {
	return &FormatHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// ListFormats handles GET /api/formats
func (h *FormatHandler) ListFormats(c *gin.Context) {
	rawURL := c.Query("url")
	source, err := domain.ValidateSourceURL(rawURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing url parameter"})
		return
	}

	formats, backend, err := h.resolver.Resolve(c.Request.Context(), source)
	if err != nil {
		h.logger.Error("Format resolution failed",
			zap.String("url", source),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to resolve formats",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"formats": formats,
		"source":  backend,
	})
}
