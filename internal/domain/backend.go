package domain

import (
	"context"
	"io"
)

// Backend names used in API responses and history records.
const (
	BackendPrimary   = "youtube"
	BackendSecondary = "ytdlp"
)

// MediaInfo is the resolved metadata for one source URL.
type MediaInfo struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Author  string             `json:"author,omitempty"`
	Formats []FormatDescriptor `json:"formats"`
}

// FormatSelection narrows which format a backend should stream. FormatID is
// backend-specific and optional; ids from one backend are not guaranteed to
// exist in the other's id space, so MediaType always applies as a fallback.
type FormatSelection struct {
	MediaType MediaType
	FormatID  string
}

// Backend is one extraction mechanism capable of producing format metadata
// and byte streams for a source URL.
type Backend interface {
	// Name identifies the backend in logs, errors and history records.
	Name() string

	// Resolve fetches metadata and the normalized format list. The list is
	// already filtered to usable entries but not yet ranked.
	Resolve(ctx context.Context, url string) (*MediaInfo, error)

	// Open starts a byte stream for the selected format. The returned total
	// is -1 when the payload size is unknown upfront. Closing the stream
	// releases the upstream connection or terminates the subprocess.
	Open(ctx context.Context, url string, sel FormatSelection) (io.ReadCloser, int64, error)
}
