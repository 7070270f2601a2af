package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/yt-stream-go/internal/domain"
)

// YTDLPBackend is the subprocess-based secondary backend. Metadata comes
// from the binary's structured JSON dump; streams are piped straight from
// its standard output so no payload is ever buffered on disk.
type YTDLPBackend struct {
	binary string
	log    *zap.Logger
}

// NewYTDLPBackend creates the secondary backend around the configured
// yt-dlp binary.
func NewYTDLPBackend(config *domain.BackendConfig, log *zap.Logger) *YTDLPBackend {
	return &YTDLPBackend{
		binary: config.YTDLPBinary,
		log:    log,
	}
}

// Name returns the backend identifier
func (b *YTDLPBackend) Name() string {
	return domain.BackendSecondary
}

// ytdlpInfo mirrors the subset of the binary's -J output that we consume.
type ytdlpInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
	Formats  []struct {
		FormatID   string  `json:"format_id"`
		Ext        string  `json:"ext"`
		ACodec     string  `json:"acodec"`
		VCodec     string  `json:"vcodec"`
		ABR        float64 `json:"abr"`
		TBR        float64 `json:"tbr"`
		Height     int     `json:"height"`
		FormatNote string  `json:"format_note"`
		Filesize   int64   `json:"filesize"`
	} `json:"formats"`
}

// Resolve dumps metadata as structured data and normalizes it.
func (b *YTDLPBackend) Resolve(ctx context.Context, url string) (*domain.MediaInfo, error) {
	args := []string{"-J", "--no-playlist", url}
	b.log.Debug("running metadata dump", zap.String("cmd", ShellEscapeCommand(b.binary, args...)))

	cmd := exec.CommandContext(ctx, b.binary, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata dump: %w", err)
	}

	var data ytdlpInfo
	if err := json.Unmarshal(output, &data); err != nil {
		return nil, fmt.Errorf("parsing yt-dlp output: %w", err)
	}

	info := &domain.MediaInfo{
		ID:     data.ID,
		Title:  data.Title,
		Author: data.Uploader,
	}
	for _, f := range data.Formats {
		hasAudio := f.ACodec != "" && f.ACodec != "none"
		hasVideo := f.VCodec != "" && f.VCodec != "none"
		label := f.FormatNote
		if label == "" && f.Height > 0 {
			label = fmt.Sprintf("%dp", f.Height)
		}
		desc := domain.FormatDescriptor{
			FormatID:     f.FormatID,
			Container:    f.Ext,
			QualityLabel: label,
			Bitrate:      int(f.TBR * 1000),
			AudioBitrate: int(f.ABR * 1000),
			HasVideo:     hasVideo,
			HasAudio:     hasAudio,
			ApproxSize:   f.Filesize,
		}
		if desc.Usable() {
			info.Formats = append(info.Formats, desc)
		}
	}
	return info, nil
}

// Open spawns the binary writing the selected format to standard output and
// returns its stdout as the stream. The total size is unknown upfront.
// Closing the stream (or cancelling ctx) terminates the process so no
// orphaned work survives a client disconnect.
func (b *YTDLPBackend) Open(ctx context.Context, url string, sel domain.FormatSelection) (io.ReadCloser, int64, error) {
	selector := formatSelector(sel)
	args := []string{"-f", selector, "-o", "-", "--no-playlist", "--quiet", url}
	b.log.Debug("spawning stream process", zap.String("cmd", ShellEscapeCommand(b.binary, args...)))

	cmd := exec.CommandContext(ctx, b.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, 0, fmt.Errorf("yt-dlp stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, 0, fmt.Errorf("starting yt-dlp: %w", err)
	}

	return &processStream{cmd: cmd, out: stdout}, -1, nil
}

// formatSelector maps a selection onto the binary's format language. An
// explicit id goes through verbatim; otherwise the type filter picks the
// best matching stream.
func formatSelector(sel domain.FormatSelection) string {
	if sel.FormatID != "" {
		return sel.FormatID
	}
	if sel.MediaType == domain.MediaAudio {
		return "bestaudio[vcodec=none]/bestaudio"
	}
	return "best[ext=mp4]/best"
}

// processStream adapts a spawned extraction process to io.ReadCloser. A
// process that exits non-zero surfaces as a read error rather than a clean
// EOF, so an empty failed stream is never mistaken for success.
type processStream struct {
	cmd  *exec.Cmd
	out  io.ReadCloser
	once sync.Once
	werr error
}

func (p *processStream) Read(buf []byte) (int, error) {
	n, err := p.out.Read(buf)
	if err == io.EOF {
		if waitErr := p.wait(); waitErr != nil {
			return n, fmt.Errorf("yt-dlp exited: %w", waitErr)
		}
	}
	return n, err
}

func (p *processStream) Close() error {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.out.Close()
	_ = p.wait()
	return nil
}

func (p *processStream) wait() error {
	p.once.Do(func() { p.werr = p.cmd.Wait() })
	return p.werr
}
