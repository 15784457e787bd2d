// Package sourcelog provides the per-source log: an append-only file whose
// lines are "[<ISO-8601 timestamp>] <message>", mirrored to stdout.
package sourcelog

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TimeFormat is ISO-8601 in UTC with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Writer stamps every line it receives with the current time.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewWriter wraps out. Each Write call is treated as one or more complete
// lines, which is how log.Logger writes.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, now: time.Now}
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	stamp := "[" + w.now().UTC().Format(TimeFormat) + "] "
	var buf bytes.Buffer
	for _, line := range bytes.SplitAfter(p, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		buf.WriteString(stamp)
		buf.Write(line)
	}
	if len(p) > 0 && p[len(p)-1] != '\n' {
		buf.WriteByte('\n')
	}
	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Source is an open per-source logger.
type Source struct {
	*log.Logger
	file *os.File
}

// Open creates (or appends to) the log file at path and returns a logger
// that writes to it and to stdout. An empty path logs to stdout only.
func Open(name, path string) (*Source, error) {
	var out io.Writer = os.Stdout
	var f *os.File
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log %s: %w", path, err)
		}
		out = io.MultiWriter(f, os.Stdout)
	}
	return &Source{
		Logger: log.New(NewWriter(out), name+": ", log.Lmsgprefix),
		file:   f,
	}, nil
}

// Close closes the log file.
func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
