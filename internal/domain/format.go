package domain

import (
	"sort"
	"strings"
)

// MediaType selects whether a download should carry audio only or full video.
type MediaType string

const (
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

// ParseMediaType parses a query-string media type. Empty input defaults
// to video.
func ParseMediaType(s string) (MediaType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "video":
		return MediaVideo, true
	case "audio":
		return MediaAudio, true
	default:
		return "", false
	}
}

// FormatDescriptor is the normalized public format model. Both backends
// map their native schemas into this shape; it is immutable once produced.
type FormatDescriptor struct {
	FormatID     string `json:"formatId"`
	Container    string `json:"container"`
	QualityLabel string `json:"qualityLabel,omitempty"`
	Bitrate      int    `json:"bitrate,omitempty"`
	AudioBitrate int    `json:"audioBitrate,omitempty"`
	HasVideo     bool   `json:"hasVideo"`
	HasAudio     bool   `json:"hasAudio"`
	ApproxSize   int64  `json:"approxSizeBytes,omitempty"`
}

// Usable reports whether an entry carries enough information to be offered:
// a known container and at least one of audio or video.
func (f FormatDescriptor) Usable() bool {
	return f.Container != "" && (f.HasAudio || f.HasVideo)
}

// Progressive reports whether the entry carries both audio and video.
func (f FormatDescriptor) Progressive() bool {
	return f.HasAudio && f.HasVideo
}

// MatchesType reports whether the format satisfies the requested media type.
// Audio requests want audio-only entries; video requests want any entry with
// a video track.
func (f FormatDescriptor) MatchesType(t MediaType) bool {
	if t == MediaAudio {
		return f.HasAudio && !f.HasVideo
	}
	return f.HasVideo
}

// SortFormats orders descriptors for presentation and selection: entries with
// both audio and video first, then higher quality labels, then higher audio
// bitrate. The sort is stable so backend ordering breaks remaining ties.
func SortFormats(formats []FormatDescriptor) {
	sort.SliceStable(formats, func(i, j int) bool {
		a, b := formats[i], formats[j]
		if a.Progressive() != b.Progressive() {
			return a.Progressive()
		}
		if c := CompareQualityLabels(a.QualityLabel, b.QualityLabel); c != 0 {
			return c > 0
		}
		return a.AudioBitrate > b.AudioBitrate
	})
}

// CompareQualityLabels compares labels like "1080p60" and "720p" treating
// digit runs as numbers, so "1080p" outranks "720p" despite sorting lower
// lexically. Returns >0 when a ranks above b, <0 when below, 0 when equal.
func CompareQualityLabels(a, b string) int {
	for a != "" && b != "" {
		at, arest, aNum := nextToken(a)
		bt, brest, bNum := nextToken(b)
		if aNum && bNum {
			at, bt = strings.TrimLeft(at, "0"), strings.TrimLeft(bt, "0")
			if len(at) != len(bt) {
				return len(at) - len(bt)
			}
			if c := strings.Compare(at, bt); c != 0 {
				return c
			}
		} else if c := strings.Compare(at, bt); c != 0 {
			return c
		}
		a, b = arest, brest
	}
	return len(a) - len(b)
}

// nextToken splits off the leading run of digits or non-digits.
func nextToken(s string) (token, rest string, isNum bool) {
	isNum = s[0] >= '0' && s[0] <= '9'
	for i := 0; i < len(s); i++ {
		digit := s[i] >= '0' && s[i] <= '9'
		if digit != isNum {
			return s[:i], s[i:], isNum
		}
	}
	return s, "", isNum
}
