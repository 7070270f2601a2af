package infrastructure

import (
	"testing"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/yt-stream-go/internal/domain"
)

func TestContainerFromMime(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{`video/mp4; codecs="avc1.42001E, mp4a.40.2"`, "mp4"},
		{`audio/webm; codecs="opus"`, "webm"},
		{"video/3gpp", "3gp"},
		{"video/mp4", "mp4"},
		{"", ""},
		{"garbage", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containerFromMime(tt.mime), "mime %q", tt.mime)
	}
}

func TestNormalizeYouTubeFormat(t *testing.T) {
	t.Run("muxed video", func(t *testing.T) {
		f := youtube.Format{
			ItagNo:        22,
			MimeType:      `video/mp4; codecs="avc1"`,
			QualityLabel:  "720p",
			Bitrate:       1200000,
			Width:         1280,
			Height:        720,
			AudioChannels: 2,
			ContentLength: 1000,
		}
		desc := normalizeYouTubeFormat(&f)
		assert.Equal(t, "22", desc.FormatID)
		assert.Equal(t, "mp4", desc.Container)
		assert.Equal(t, "720p", desc.QualityLabel)
		assert.True(t, desc.HasVideo)
		assert.True(t, desc.HasAudio)
		assert.Zero(t, desc.AudioBitrate, "audio bitrate only set for audio-only entries")
		assert.Equal(t, int64(1000), desc.ApproxSize)
		assert.True(t, desc.Usable())
	})

	t.Run("audio only", func(t *testing.T) {
		f := youtube.Format{
			ItagNo:         140,
			MimeType:       `audio/mp4; codecs="mp4a.40.2"`,
			Quality:        "medium",
			AverageBitrate: 128000,
			AudioChannels:  2,
		}
		desc := normalizeYouTubeFormat(&f)
		assert.Equal(t, "140", desc.FormatID)
		assert.Equal(t, "medium", desc.QualityLabel, "falls back to Quality when no label")
		assert.False(t, desc.HasVideo)
		assert.True(t, desc.HasAudio)
		assert.Equal(t, 128000, desc.AudioBitrate)
	})
}

func testVideo() *youtube.Video {
	return &youtube.Video{
		Formats: []youtube.Format{
			{ItagNo: 22, Width: 1280, Height: 720, AudioChannels: 2, Bitrate: 1200000},
			{ItagNo: 18, Width: 640, Height: 360, AudioChannels: 2, Bitrate: 500000},
			{ItagNo: 140, AudioChannels: 2, Bitrate: 128000},
			{ItagNo: 251, AudioChannels: 2, Bitrate: 160000},
			{ItagNo: 137, Width: 1920, Height: 1080, Bitrate: 4000000},
		},
	}
}

func TestPickYouTubeFormat(t *testing.T) {
	video := testVideo()

	t.Run("explicit itag", func(t *testing.T) {
		f, err := pickYouTubeFormat(video, domain.FormatSelection{MediaType: domain.MediaVideo, FormatID: "18"})
		require.NoError(t, err)
		assert.Equal(t, 18, f.ItagNo)
	})

	t.Run("video policy wants audio and video tracks", func(t *testing.T) {
		f, err := pickYouTubeFormat(video, domain.FormatSelection{MediaType: domain.MediaVideo})
		require.NoError(t, err)
		// 137 is taller but has no audio track.
		assert.Equal(t, 22, f.ItagNo)
	})

	t.Run("audio policy picks highest bitrate", func(t *testing.T) {
		f, err := pickYouTubeFormat(video, domain.FormatSelection{MediaType: domain.MediaAudio})
		require.NoError(t, err)
		assert.Equal(t, 251, f.ItagNo)
	})

	t.Run("unknown itag falls back to policy", func(t *testing.T) {
		f, err := pickYouTubeFormat(video, domain.FormatSelection{MediaType: domain.MediaAudio, FormatID: "9999"})
		require.NoError(t, err)
		assert.Equal(t, 251, f.ItagNo)
	})

	t.Run("no candidate", func(t *testing.T) {
		videoOnly := &youtube.Video{Formats: []youtube.Format{{ItagNo: 137, Width: 1920, Height: 1080}}}
		_, err := pickYouTubeFormat(videoOnly, domain.FormatSelection{MediaType: domain.MediaAudio})
		assert.ErrorIs(t, err, domain.ErrNoMatchingFormat)
	})
}
