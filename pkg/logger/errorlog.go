package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrorLog is an append-only plain-text log of extraction failures: one
// timestamped, human-readable line per event. It is intentionally separate
// from the structured zap output so it can be tailed verbatim over the API.
//
// Writes must never fail the operation being logged, so every error on this
// path is swallowed.
type ErrorLog struct {
	mu   sync.Mutex
	path string
}

// NewErrorLog creates the log for the given file path, creating parent
// directories as needed. An empty path yields a disabled log whose methods
// are all no-ops.
func NewErrorLog(path string) *ErrorLog {
	if path != "" {
		_ = os.MkdirAll(filepath.Dir(path), 0755)
	}
	return &ErrorLog{path: path}
}

// Append writes one timestamped line. Errors are swallowed.
func (l *ErrorLog) Append(format string, args ...interface{}) {
	if l == nil || l.path == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer file.Close()

	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))
	_, _ = file.WriteString(line)
}

// Tail returns up to the last maxBytes of the log. A missing file yields an
// empty string and no error.
func (l *ErrorLog) Tail(maxBytes int64) (string, error) {
	if l == nil || l.path == "" {
		return "", nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}
	if info.Size() > maxBytes {
		if _, err := file.Seek(-maxBytes, io.SeekEnd); err != nil {
			return "", err
		}
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
