package sourcelog

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriter_StampsLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.now = func() time.Time { return time.Date(2026, 10, 14, 8, 5, 3, 120_000_000, time.UTC) }

	l := log.New(w, "", 0)
	l.Print("[INFO] first")
	l.Print("[WARN] second\nthird")

	want := "[2026-10-14T08:05:03.120Z] [INFO] first\n" +
		"[2026-10-14T08:05:03.120Z] [WARN] second\n" +
		"[2026-10-14T08:05:03.120Z] third\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriter_AddsMissingNewline(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Write([]byte("partial"))
	if !strings.HasSuffix(buf.String(), "partial\n") {
		t.Errorf("expected trailing newline, got %q", buf.String())
	}
}

func TestOpen_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "stock.log")

	for i := 0; i < 2; i++ {
		src, err := Open("stock", path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		src.Printf("[INFO] run %d", i)
		if err := src.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines: got %d, want 2: %q", len(lines), data)
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "[") || !strings.Contains(line, "] stock: [INFO] run") {
			t.Errorf("unexpected line format: %q", line)
		}
	}
}

func TestOpen_StdoutOnly(t *testing.T) {
	src, err := Open("lottery", "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}
