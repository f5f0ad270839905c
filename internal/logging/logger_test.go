package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("line is not valid JSON: %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelDebug, DefaultRotation())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Info("hello")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	entries := decodeLines(t, content)
	if len(entries) != 1 || entries[0]["msg"] != "hello" {
		t.Errorf("unexpected log content: %s", content)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message", "key", "value")
	logger.Error("error message", "key", "value")

	entries := decodeLines(t, buf.Bytes())
	if len(entries) != 2 {
		t.Fatalf("expected 2 log lines (WARN and ERROR only), got %d: %s", len(entries), buf.String())
	}
	for i, want := range []string{"WARN", "ERROR"} {
		if entries[i]["level"] != want {
			t.Errorf("line %d: expected level %s, got %v", i, want, entries[i]["level"])
		}
		if entries[i]["key"] != "value" {
			t.Errorf("line %d: expected key=value, got %v", i, entries[i]["key"])
		}
	}

	if logger.Enabled(LevelDebug) {
		t.Error("Enabled(DEBUG) = true for a WARN logger")
	}
	if !logger.Enabled(LevelError) {
		t.Error("Enabled(ERROR) = false for a WARN logger")
	}
}

func TestChildLoggers(t *testing.T) {
	var buf bytes.Buffer
	root := NewWriterLogger(&buf, LevelDebug)

	root.WithComponent("schedule").WithTimer(7, "producer").With("total", 3, 42, "skipped").Info("registered")
	root.Info("plain")

	entries := decodeLines(t, buf.Bytes())
	if len(entries) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(entries))
	}

	child := entries[0]
	if child["component"] != "schedule" {
		t.Errorf("component = %v, want schedule", child["component"])
	}
	if child["timer_id"] != float64(7) {
		t.Errorf("timer_id = %v, want 7", child["timer_id"])
	}
	if child["role"] != "producer" {
		t.Errorf("role = %v, want producer", child["role"])
	}
	if child["total"] != float64(3) {
		t.Errorf("total = %v, want 3", child["total"])
	}

	if _, ok := entries[1]["component"]; ok {
		t.Error("child attributes leaked into the parent logger")
	}
}

func TestWithNoArgsReturnsSameLogger(t *testing.T) {
	l := NopLogger()
	if l.With() != l {
		t.Error("With() with no args should return the receiver")
	}
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	l.Debug("x")
	l.Error("y")
	if err := l.Close(); err != nil {
		t.Errorf("Close on NopLogger returned %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidLevels(t *testing.T) {
	if got := len(ValidLevels()); got != 4 {
		t.Errorf("ValidLevels() has %d entries, want 4", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), LevelInfo, DefaultRotation())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	child := logger.WithComponent("x")
	if err := child.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo, DefaultRotation())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l := logger.WithTimer(n, "producer")
			for range 20 {
				l.Info("tick")
			}
		}(i)
	}
	wg.Wait()
	_ = logger.Close()

	content, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if got := len(decodeLines(t, content)); got != 200 {
		t.Errorf("expected 200 lines, got %d", got)
	}
}
