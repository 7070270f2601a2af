package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidSource marks malformed or unsupported source URLs. Requests
// carrying one are rejected before either backend is invoked.
var ErrInvalidSource = errors.New("invalid source url")

// ErrNoMatchingFormat is returned when a backend has no format satisfying
// the requested media type.
var ErrNoMatchingFormat = errors.New("no matching format")

// ValidateSourceURL checks a source reference for well-formedness and
// returns its normalized form. Only http and https schemes are accepted.
func ValidateSourceURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSource)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidSource)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSource, parsed.Scheme)
	}
	return parsed.String(), nil
}

// ResolutionError reports that both backends failed to produce metadata.
type ResolutionError struct {
	Primary   error
	Secondary error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution failed: primary: %v; secondary: %v", e.Primary, e.Secondary)
}

func (e *ResolutionError) Unwrap() []error {
	return []error{e.Primary, e.Secondary}
}

// StreamError reports a stream failure together with how many bytes had
// already reached the transport, which decides whether fallback is allowed.
type StreamError struct {
	Backend   string
	BytesSent int64
	Err       error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s stream failed after %d bytes: %v", e.Backend, e.BytesSent, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
