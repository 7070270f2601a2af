package app

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/yt-stream-go/internal/domain"
	"github.com/yourusername/yt-stream-go/pkg/logger"
)

// Sink receives the orchestrated byte stream. Start is invoked exactly once,
// before the first write, and commits the response headers.
type Sink interface {
	Start(filename, contentType string)
	io.Writer
}

// Notifier receives the fire-and-forget download-start signal.
type Notifier interface {
	DownloadStarted(req domain.DownloadRequest)
}

// Orchestrator drives one download end to end: format selection, streaming
// from the primary backend, the single fallback to the secondary, progress
// reporting and terminal bookkeeping.
type Orchestrator struct {
	resolver  *FormatResolver
	primary   domain.Backend
	secondary domain.Backend
	registry  *ProgressRegistry
	notifier  Notifier
	history   domain.HistoryRepository
	errlog    *logger.ErrorLog
	chunkSize int
	log       *zap.Logger
}

// NewOrchestrator wires the orchestrator. notifier and history may be nil.
func NewOrchestrator(
	resolver *FormatResolver,
	primary, secondary domain.Backend,
	registry *ProgressRegistry,
	notifier Notifier,
	history domain.HistoryRepository,
	errlog *logger.ErrorLog,
	chunkSize int,
	log *zap.Logger,
) *Orchestrator {
	if chunkSize <= 0 {
		chunkSize = 64 * 1024
	}
	return &Orchestrator{
		resolver:  resolver,
		primary:   primary,
		secondary: secondary,
		registry:  registry,
		notifier:  notifier,
		history:   history,
		errlog:    errlog,
		chunkSize: chunkSize,
		log:       log,
	}
}

// Download resolves a format for the request and pipes the stream to sink.
// The URL must already be validated. When the primary stream fails before
// any byte has reached the sink, the secondary backend is tried once with a
// type-based filter; after the first delivered byte the download is
// unrecoverable and only the progress channel learns about the failure.
func (o *Orchestrator) Download(ctx context.Context, req domain.DownloadRequest, sink Sink) error {
	record := domain.NewDownloadRecord(req)
	o.recordCreate(record)

	if o.notifier != nil {
		o.notifier.DownloadStarted(req)
	}

	info, source, err := o.resolver.ResolveInfo(ctx, req.URL)
	if err != nil {
		o.finishFailed(record, "", 0, req.RequestID, err, "resolution failed")
		return err
	}

	sel := selectFormat(info.Formats, req)
	filename := DownloadFilename(info.Title, req.MediaType)
	started := false

	// Metadata from the secondary backend means the primary already failed
	// once for this source; go straight to the subprocess.
	backend := o.primary
	if source != domain.BackendPrimary {
		backend = o.secondary
	}

	sent, err := o.stream(ctx, backend, req, sel, sink, filename, &started)
	if err != nil && backend == o.primary {
		var se *domain.StreamError
		if errors.As(err, &se) && se.BytesSent > 0 {
			// Bytes are already on the wire; the response cannot be
			// restarted, so no fallback.
			o.finishFailed(record, backend.Name(), se.BytesSent, req.RequestID, err, "stream interrupted")
			return err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// The caller is gone, not the backend; there is nobody left to
			// stream a fallback to.
			o.finishFailed(record, backend.Name(), sent, req.RequestID, err, "download cancelled")
			return err
		}

		o.errlog.Append("%s stream failed for %s: %v", backend.Name(), req.URL, err)
		o.log.Warn("primary stream failed before first byte, falling back",
			zap.String("url", req.URL),
			zap.Error(err))

		// Explicit format ids do not carry over between backends; fall back
		// with the type-based filter only.
		backend = o.secondary
		sent, err = o.stream(ctx, backend, req, domain.FormatSelection{MediaType: req.MediaType}, sink, filename, &started)
	}
	if err != nil {
		o.finishFailed(record, backend.Name(), sent, req.RequestID, err, "download failed")
		return err
	}

	o.registry.Finish(req.RequestID, domain.DoneEvent())
	record.MarkCompleted(backend.Name(), sent)
	o.recordUpdate(record)

	o.log.Info("download completed",
		zap.String("url", req.URL),
		zap.String("backend", backend.Name()),
		zap.Int64("bytes", sent))
	return nil
}

// stream opens one backend stream and copies it chunk by chunk to the sink,
// pushing a progress event per chunk. The returned byte count is what
// actually reached the sink.
func (o *Orchestrator) stream(
	ctx context.Context,
	backend domain.Backend,
	req domain.DownloadRequest,
	sel domain.FormatSelection,
	sink Sink,
	filename string,
	started *bool,
) (int64, error) {
	rc, total, err := backend.Open(ctx, req.URL, sel)
	if err != nil {
		return 0, &domain.StreamError{Backend: backend.Name(), BytesSent: 0, Err: err}
	}
	defer rc.Close()

	if !*started {
		sink.Start(filename, contentTypeFor(req.MediaType))
		*started = true
	}

	buf := make([]byte, o.chunkSize)
	var sent int64
	for {
		if err := ctx.Err(); err != nil {
			return sent, &domain.StreamError{Backend: backend.Name(), BytesSent: sent, Err: err}
		}

		n, readErr := rc.Read(buf)
		if n > 0 {
			written, writeErr := sink.Write(buf[:n])
			sent += int64(written)
			if writeErr != nil {
				return sent, &domain.StreamError{Backend: backend.Name(), BytesSent: sent, Err: writeErr}
			}
			o.registry.Push(req.RequestID, domain.NewProgressEvent(sent, total))
		}
		if readErr == io.EOF {
			return sent, nil
		}
		if readErr != nil {
			return sent, &domain.StreamError{Backend: backend.Name(), BytesSent: sent, Err: readErr}
		}
	}
}

// finishFailed performs the terminal bookkeeping of a failed download. The
// progress channel only ever sees the non-sensitive public message.
func (o *Orchestrator) finishFailed(record *domain.DownloadRecord, backend string, sent int64, requestID string, err error, public string) {
	o.registry.Finish(requestID, domain.ErrorEvent(public))
	o.errlog.Append("download failed for %s: %v", record.URL, err)
	record.MarkFailed(backend, sent, err)
	o.recordUpdate(record)

	o.log.Error("download failed",
		zap.String("url", record.URL),
		zap.String("backend", backend),
		zap.Int64("bytes_sent", sent),
		zap.Error(err))
}

func (o *Orchestrator) recordCreate(record *domain.DownloadRecord) {
	if o.history == nil {
		return
	}
	if err := o.history.Create(record); err != nil {
		o.log.Warn("failed to persist download record", zap.Error(err))
	}
}

func (o *Orchestrator) recordUpdate(record *domain.DownloadRecord) {
	if o.history == nil {
		return
	}
	if err := o.history.Update(record); err != nil {
		o.log.Warn("failed to update download record", zap.Error(err))
	}
}

// selectFormat resolves which concrete format to request. An explicit id is
// honored when the resolved list knows it; otherwise the highest-ranked
// entry matching the media type wins. The list is expected ranked already.
func selectFormat(formats []domain.FormatDescriptor, req domain.DownloadRequest) domain.FormatSelection {
	if req.FormatID != "" {
		for _, f := range formats {
			if f.FormatID == req.FormatID {
				return domain.FormatSelection{MediaType: req.MediaType, FormatID: f.FormatID}
			}
		}
	}
	for _, f := range formats {
		if f.MatchesType(req.MediaType) {
			return domain.FormatSelection{MediaType: req.MediaType, FormatID: f.FormatID}
		}
	}
	// Nothing matched the type filter; leave the pick to the backend.
	return domain.FormatSelection{MediaType: req.MediaType}
}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

// DownloadFilename derives the attachment filename from the source title.
// The extension is fixed by media type regardless of the actual container
// returned by the backend: it labels the stream for the saving browser, it
// does not promise transcoding.
func DownloadFilename(title string, mediaType domain.MediaType) string {
	clean := strings.Trim(unsafeFilenameChars.ReplaceAllString(title, "-"), "-. ")
	if clean == "" {
		clean = "download"
	}
	if mediaType == domain.MediaAudio {
		return clean + ".mp3"
	}
	return clean + ".mp4"
}

func contentTypeFor(mediaType domain.MediaType) string {
	if mediaType == domain.MediaAudio {
		return "audio/mpeg"
	}
	return "video/mp4"
}
