package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/yt-stream-go/internal/domain"
	"github.com/yourusername/yt-stream-go/pkg/logger"
)

// FormatResolver produces the normalized, ranked format list for a source
// URL, trying the primary backend first and the yt-dlp subprocess second.
// Backend failures on the resolution path are appended to the error log;
// the secondary is attempted at most once per call.
type FormatResolver struct {
	primary   domain.Backend
	secondary domain.Backend
	errlog    *logger.ErrorLog
	timeout   time.Duration
	log       *zap.Logger
}

// NewFormatResolver creates a resolver over the two backends. timeout bounds
// each metadata resolution attempt; zero disables the bound.
func NewFormatResolver(primary, secondary domain.Backend, errlog *logger.ErrorLog, timeout time.Duration, log *zap.Logger) *FormatResolver {
	return &FormatResolver{
		primary:   primary,
		secondary: secondary,
		errlog:    errlog,
		timeout:   timeout,
		log:       log,
	}
}

// ResolveInfo fetches metadata for url, reporting which backend produced it.
// Both-backends failure surfaces a ResolutionError carrying both causes; an
// empty format list is never silently returned as success.
func (r *FormatResolver) ResolveInfo(ctx context.Context, url string) (*domain.MediaInfo, string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	info, primaryErr := r.primary.Resolve(ctx, url)
	if primaryErr == nil && len(info.Formats) > 0 {
		domain.SortFormats(info.Formats)
		return info, r.primary.Name(), nil
	}
	if primaryErr == nil {
		primaryErr = domain.ErrNoMatchingFormat
	}

	r.errlog.Append("%s resolve failed for %s: %v", r.primary.Name(), url, primaryErr)
	r.log.Warn("primary backend resolution failed, trying secondary",
		zap.String("url", url),
		zap.Error(primaryErr))

	info, secondaryErr := r.secondary.Resolve(ctx, url)
	if secondaryErr == nil && len(info.Formats) > 0 {
		domain.SortFormats(info.Formats)
		return info, r.secondary.Name(), nil
	}
	if secondaryErr == nil {
		secondaryErr = domain.ErrNoMatchingFormat
	}

	r.errlog.Append("%s resolve failed for %s: %v", r.secondary.Name(), url, secondaryErr)
	return nil, "", &domain.ResolutionError{Primary: primaryErr, Secondary: secondaryErr}
}

// Resolve returns the ranked format list alone, for the formats endpoint.
func (r *FormatResolver) Resolve(ctx context.Context, url string) ([]domain.FormatDescriptor, string, error) {
	info, source, err := r.ResolveInfo(ctx, url)
	if err != nil {
		return nil, "", err
	}
	return info.Formats, source, nil
}
