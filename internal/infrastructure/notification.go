package infrastructure

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/yt-stream-go/internal/domain"
)

// NotificationService posts usage telemetry to an externally configured
// webhook. It is strictly fire-and-forget: it never blocks the download
// path and never surfaces an error to its caller. Delivery failures are
// telemetry noise, not functional errors, so they are logged at debug only.
type NotificationService struct {
	config *domain.NotifyConfig
	client *http.Client
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotifyConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		client: &http.Client{Timeout: 2 * time.Second},
		logger: logger,
	}
}

// Enabled reports whether the webhook fires at all: it needs a target URL
// and a production deployment signal.
func (n *NotificationService) Enabled() bool {
	return n.config.WebhookURL != "" && n.config.Environment == "production"
}

// DownloadStarted notifies the webhook that a download began.
func (n *NotificationService) DownloadStarted(req domain.DownloadRequest) {
	if !n.Enabled() {
		return
	}

	payload := map[string]interface{}{
		"event":      "download_started",
		"url":        req.URL,
		"media_type": string(req.MediaType),
		"request_id": req.RequestID,
		"started_at": time.Now().UTC().Format(time.RFC3339),
	}

	go n.post(payload)
}

func (n *NotificationService) post(payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	resp, err := n.client.Post(n.config.WebhookURL, "application/json", bytes.NewReader(data))
	if err != nil {
		n.logger.Debug("webhook notification failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		n.logger.Debug("webhook notification rejected", zap.Int("status", resp.StatusCode))
	}
}
