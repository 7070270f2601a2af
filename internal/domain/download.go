package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DownloadRequest describes one download call. It exists only for the
// lifetime of the HTTP request and is never persisted.
type DownloadRequest struct {
	URL       string
	MediaType MediaType
	FormatID  string // optional explicit format id (itag)
	RequestID string // optional progress channel id, caller-supplied
}

// ProgressKind distinguishes flow updates from terminal events.
type ProgressKind string

const (
	ProgressDelta ProgressKind = "progress"
	ProgressDone  ProgressKind = "done"
	ProgressError ProgressKind = "error"
)

// ProgressEvent is an ephemeral progress report pushed through a progress
// channel. Percent is only meaningful when Total is known.
type ProgressEvent struct {
	Kind       ProgressKind `json:"-"`
	Downloaded int64        `json:"downloaded"`
	Total      int64        `json:"total,omitempty"`
	Percent    int          `json:"percent,omitempty"`
	Message    string       `json:"message,omitempty"`
}

// NewProgressEvent builds a delta event, computing the rounded percentage
// when the total byte count is known.
func NewProgressEvent(downloaded, total int64) ProgressEvent {
	ev := ProgressEvent{Kind: ProgressDelta, Downloaded: downloaded}
	if total > 0 {
		ev.Total = total
		ev.Percent = int(math.Round(float64(downloaded) / float64(total) * 100))
	}
	return ev
}

// DoneEvent is the terminal success event.
func DoneEvent() ProgressEvent {
	return ProgressEvent{Kind: ProgressDone}
}

// ErrorEvent is the terminal failure event carrying a non-sensitive message.
func ErrorEvent(message string) ProgressEvent {
	return ProgressEvent{Kind: ProgressError, Message: message}
}

// Terminal reports whether the event closes the channel.
func (e ProgressEvent) Terminal() bool {
	return e.Kind == ProgressDone || e.Kind == ProgressError
}

// RecordStatus is the state of a persisted download attempt.
type RecordStatus string

const (
	RecordStarted   RecordStatus = "started"
	RecordCompleted RecordStatus = "completed"
	RecordFailed    RecordStatus = "failed"
)

// DownloadRecord is the attempt telemetry persisted to the history store.
// It records what was asked for and how the attempt ended, never the media
// bytes themselves.
type DownloadRecord struct {
	ID           string       `json:"id" gorm:"primaryKey"`
	URL          string       `json:"url" gorm:"not null"`
	MediaType    string       `json:"media_type"`
	FormatID     string       `json:"format_id,omitempty"`
	Backend      string       `json:"backend,omitempty"`
	Status       RecordStatus `json:"status" gorm:"not null;index"`
	BytesSent    int64        `json:"bytes_sent"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at" gorm:"autoCreateTime"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}

// NewDownloadRecord creates a record for a freshly started download.
func NewDownloadRecord(req DownloadRequest) *DownloadRecord {
	return &DownloadRecord{
		ID:        uuid.New().String(),
		URL:       req.URL,
		MediaType: string(req.MediaType),
		FormatID:  req.FormatID,
		Status:    RecordStarted,
		CreatedAt: time.Now(),
	}
}

// MarkCompleted marks the attempt as fully delivered.
func (r *DownloadRecord) MarkCompleted(backend string, bytes int64) {
	r.Status = RecordCompleted
	r.Backend = backend
	r.BytesSent = bytes
	now := time.Now()
	r.CompletedAt = &now
}

// MarkFailed marks the attempt as failed.
func (r *DownloadRecord) MarkFailed(backend string, bytes int64, err error) {
	r.Status = RecordFailed
	r.Backend = backend
	r.BytesSent = bytes
	if err != nil {
		r.ErrorMessage = err.Error()
	}
	now := time.Now()
	r.CompletedAt = &now
}

// HistoryRepository persists download attempt records.
type HistoryRepository interface {
	Create(record *DownloadRecord) error
	Update(record *DownloadRecord) error
	FindRecent(limit int) ([]*DownloadRecord, error)
	CountByStatus(status RecordStatus) (int64, error)
	Count() (int64, error)
}

// DownloadStats summarizes the history store for /api/stats.
type DownloadStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Started   int64 `json:"started"`
}
