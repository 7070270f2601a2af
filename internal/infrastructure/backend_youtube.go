package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"github.com/yourusername/yt-stream-go/internal/domain"
)

// YouTubeBackend is the in-process primary backend built on the youtube
// extraction library. All upstream requests carry the configured
// browser-like identity to reduce upstream blocking.
type YouTubeBackend struct {
	client youtube.Client
	log    *zap.Logger
}

// NewYouTubeBackend creates the primary backend.
func NewYouTubeBackend(config *domain.BackendConfig, log *zap.Logger) *YouTubeBackend {
	httpClient := &http.Client{}
	if config.ClientIdentity != "" {
		httpClient.Transport = &identityTransport{
			identity: config.ClientIdentity,
			base:     http.DefaultTransport,
		}
	}
	return &YouTubeBackend{
		client: youtube.Client{HTTPClient: httpClient},
		log:    log,
	}
}

// Name returns the backend identifier
func (b *YouTubeBackend) Name() string {
	return domain.BackendPrimary
}

// Resolve fetches video metadata and normalizes the library's format
// entries, dropping any without a usable container or any media capability.
func (b *YouTubeBackend) Resolve(ctx context.Context, url string) (*domain.MediaInfo, error) {
	video, err := b.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching video metadata: %w", err)
	}

	info := &domain.MediaInfo{
		ID:     video.ID,
		Title:  video.Title,
		Author: video.Author,
	}
	for i := range video.Formats {
		desc := normalizeYouTubeFormat(&video.Formats[i])
		if desc.Usable() {
			info.Formats = append(info.Formats, desc)
		}
	}
	return info, nil
}

// Open starts a stream for the selected format. An explicit format id is
// matched by itag; otherwise the media-type policy picks the best entry the
// library knows about.
func (b *YouTubeBackend) Open(ctx context.Context, url string, sel domain.FormatSelection) (io.ReadCloser, int64, error) {
	video, err := b.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching video metadata: %w", err)
	}

	format, err := pickYouTubeFormat(video, sel)
	if err != nil {
		return nil, 0, err
	}

	stream, size, err := b.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, 0, fmt.Errorf("starting stream: %w", err)
	}
	if size <= 0 {
		size = -1
	}
	return stream, size, nil
}

// pickYouTubeFormat matches an explicit itag first and otherwise applies
// the highest-quality policy for the requested media type.
func pickYouTubeFormat(video *youtube.Video, sel domain.FormatSelection) (*youtube.Format, error) {
	if sel.FormatID != "" {
		for i := range video.Formats {
			if strconv.Itoa(video.Formats[i].ItagNo) == sel.FormatID {
				return &video.Formats[i], nil
			}
		}
	}

	var best *youtube.Format
	for i := range video.Formats {
		f := &video.Formats[i]
		if sel.MediaType == domain.MediaAudio {
			if f.AudioChannels == 0 || f.Width != 0 || f.Height != 0 {
				continue
			}
			if best == nil || formatBitrate(f) > formatBitrate(best) {
				best = f
			}
		} else {
			if f.AudioChannels == 0 || f.Width == 0 || f.Height == 0 {
				continue
			}
			if best == nil || betterVideo(f, best) {
				best = f
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w for %s request", domain.ErrNoMatchingFormat, sel.MediaType)
	}
	return best, nil
}

func betterVideo(candidate, current *youtube.Format) bool {
	if candidate.Height != current.Height {
		return candidate.Height > current.Height
	}
	return formatBitrate(candidate) > formatBitrate(current)
}

func formatBitrate(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	return f.AverageBitrate
}

func normalizeYouTubeFormat(f *youtube.Format) domain.FormatDescriptor {
	desc := domain.FormatDescriptor{
		FormatID:     strconv.Itoa(f.ItagNo),
		Container:    containerFromMime(f.MimeType),
		QualityLabel: f.QualityLabel,
		Bitrate:      f.Bitrate,
		HasVideo:     f.Width > 0 || f.Height > 0,
		HasAudio:     f.AudioChannels > 0,
		ApproxSize:   int64(f.ContentLength),
	}
	if desc.HasAudio && !desc.HasVideo {
		desc.AudioBitrate = formatBitrate(f)
	}
	if desc.QualityLabel == "" {
		desc.QualityLabel = f.Quality
	}
	return desc
}

// containerFromMime extracts the container from a mime type such as
// "video/mp4; codecs=...".
func containerFromMime(mime string) string {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	parts := strings.Split(mime, "/")
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	if parts[1] == "3gpp" {
		return "3gp"
	}
	return parts[1]
}

// identityTransport stamps the configured browser-like identity on every
// upstream request.
type identityTransport struct {
	identity string
	base     http.RoundTripper
}

func (t *identityTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.identity)
	}
	return t.base.RoundTrip(req)
}
