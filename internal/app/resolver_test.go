package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/yt-stream-go/internal/domain"
	"github.com/yourusername/yt-stream-go/pkg/logger"
)

// fakeBackend implements domain.Backend for testing
type fakeBackend struct {
	name        string
	info        *domain.MediaInfo
	resolveErr  error
	resolveHits int

	stream  io.ReadCloser
	total   int64
	openErr error
	opened  []domain.FormatSelection
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) Resolve(ctx context.Context, url string) (*domain.MediaInfo, error) {
	b.resolveHits++
	if b.resolveErr != nil {
		return nil, b.resolveErr
	}
	return b.info, nil
}

func (b *fakeBackend) Open(ctx context.Context, url string, sel domain.FormatSelection) (io.ReadCloser, int64, error) {
	b.opened = append(b.opened, sel)
	if b.openErr != nil {
		return nil, 0, b.openErr
	}
	return b.stream, b.total, nil
}

func testInfo(formats ...domain.FormatDescriptor) *domain.MediaInfo {
	return &domain.MediaInfo{ID: "vid", Title: "Test Video", Formats: formats}
}

func newTestResolver(primary, secondary domain.Backend) *FormatResolver {
	return NewFormatResolver(primary, secondary, logger.NewErrorLog(""), 0, zap.NewNop())
}

func TestResolvePrimarySucceeds(t *testing.T) {
	primary := &fakeBackend{
		name: domain.BackendPrimary,
		info: testInfo(
			domain.FormatDescriptor{FormatID: "18", Container: "mp4", QualityLabel: "360p", HasVideo: true, HasAudio: true},
			domain.FormatDescriptor{FormatID: "137", Container: "mp4", QualityLabel: "1080p", HasVideo: true},
		),
	}
	secondary := &fakeBackend{name: domain.BackendSecondary}

	formats, source, err := newTestResolver(primary, secondary).Resolve(context.Background(), "https://example.com/v")
	require.NoError(t, err)
	assert.Equal(t, domain.BackendPrimary, source)
	assert.Zero(t, secondary.resolveHits, "secondary should not run when primary succeeds")

	require.Len(t, formats, 2)
	assert.Equal(t, "18", formats[0].FormatID, "muxed stream ranks first")
}

func TestResolveFallsBackOnPrimaryError(t *testing.T) {
	primary := &fakeBackend{name: domain.BackendPrimary, resolveErr: errors.New("cipher changed")}
	secondary := &fakeBackend{
		name: domain.BackendSecondary,
		info: testInfo(domain.FormatDescriptor{FormatID: "22", Container: "mp4", QualityLabel: "720p", HasVideo: true, HasAudio: true}),
	}

	formats, source, err := newTestResolver(primary, secondary).Resolve(context.Background(), "https://example.com/v")
	require.NoError(t, err)
	assert.Equal(t, domain.BackendSecondary, source)
	assert.Len(t, formats, 1)
	assert.Equal(t, 1, primary.resolveHits)
	assert.Equal(t, 1, secondary.resolveHits)
}

func TestResolveEmptyPrimaryListTriggersFallback(t *testing.T) {
	primary := &fakeBackend{name: domain.BackendPrimary, info: testInfo()}
	secondary := &fakeBackend{
		name: domain.BackendSecondary,
		info: testInfo(domain.FormatDescriptor{FormatID: "22", Container: "mp4", HasVideo: true, HasAudio: true}),
	}

	_, source, err := newTestResolver(primary, secondary).Resolve(context.Background(), "https://example.com/v")
	require.NoError(t, err)
	assert.Equal(t, domain.BackendSecondary, source)
}

func TestResolveBothBackendsFail(t *testing.T) {
	primaryErr := errors.New("primary down")
	secondaryErr := errors.New("binary missing")
	primary := &fakeBackend{name: domain.BackendPrimary, resolveErr: primaryErr}
	secondary := &fakeBackend{name: domain.BackendSecondary, resolveErr: secondaryErr}

	_, _, err := newTestResolver(primary, secondary).Resolve(context.Background(), "https://example.com/v")
	require.Error(t, err)

	var resErr *domain.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.ErrorIs(t, err, primaryErr)
	assert.ErrorIs(t, err, secondaryErr)
	assert.Equal(t, 1, secondary.resolveHits, "secondary runs at most once")
}
