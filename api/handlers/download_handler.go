package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/yt-stream-go/internal/app"
	"github.com/yourusername/yt-stream-go/internal/domain"
)

// DownloadHandler handles download streaming requests
type DownloadHandler struct {
	orchestrator *app.Orchestrator
	logger       *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(orchestrator *app.Orchestrator, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// responseSink streams media bytes straight into the HTTP response.
// Headers go out on the first Start call, so any error after that can
// only be signalled by tearing the connection down.
type responseSink struct {
	ctx     *gin.Context
	started bool
}

func (s *responseSink) Start(filename, contentType string) {
	if s.started {
		return
	}
	s.started = true
	s.ctx.Header("Content-Type", contentType)
	s.ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	s.ctx.Writer.WriteHeader(http.StatusOK)
}

func (s *responseSink) Write(p []byte) (int, error) {
	n, err := s.ctx.Writer.Write(p)
	if err == nil {
		s.ctx.Writer.Flush()
	}
	return n, err
}

// Download handles GET /api/download
func (h *DownloadHandler) Download(c *gin.Context) {
	source, err := domain.ValidateSourceURL(c.Query("url"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing url parameter"})
		return
	}

	mediaType, ok := domain.ParseMediaType(c.Query("type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type parameter, want audio or video"})
		return
	}

	formatID := c.Query("itag")
	if formatID == "" {
		formatID = c.Query("formatId")
	}

	requestID := c.Query("requestId")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	req := domain.DownloadRequest{
		URL:       source,
		MediaType: mediaType,
		FormatID:  formatID,
		RequestID: requestID,
	}

	sink := &responseSink{ctx: c}
	if err := h.orchestrator.Download(c.Request.Context(), req, sink); err != nil {
		if sink.started {
			// Bytes (or at least headers) already went out. Tear the
			// connection down so the client sees a truncated transfer;
			// returning normally would end the chunked body cleanly and a
			// partial payload would read as a successful download.
			h.logger.Warn("Download aborted mid-stream",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
			panic(http.ErrAbortHandler)
		}

		h.logger.Error("Download failed",
			zap.String("request_id", requestID),
			zap.String("url", source),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "download failed",
			"message": err.Error(),
		})
	}
}
