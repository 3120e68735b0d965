package utils

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type logRecord struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
	CID   string `json:"cid"`
}

func TestLogger_JSONModeWritesJSONWithCID(t *testing.T) {
	orig, _ := os.Getwd()
	dir := t.TempDir()
	defer os.Chdir(orig)
	_ = os.Chdir(dir)

	t.Setenv("STACKPILOT_JSON_LOGS", "1")
	t.Setenv("STACKPILOT_CORRELATION_ID", "abc123")

	l := GetLogger(true)
	l.Log("hello world")
	_ = l.Close()

	// Read the last JSON object from the log file; lumberjack writes raw JSON lines
	f, err := os.Open(filepath.Join(".stackpilot", "assistant.log"))
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	var lastLine string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lastLine = scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	var rec logRecord
	if err := json.Unmarshal([]byte(lastLine), &rec); err != nil {
		t.Fatalf("unmarshal: %v; content=%q", err, lastLine)
	}
	if rec.Level != "info" || rec.Msg != "hello world" || rec.CID != "abc123" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestLogger_CorrelationIDPrefix(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&buf)
	tagged := base.WithCorrelationID("req-1")

	tagged.Logf("classified %s", "query")
	base.Log("untagged")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "[req-1] classified query" {
		t.Errorf("unexpected tagged line: %q", lines[0])
	}
	if lines[1] != "untagged" {
		t.Errorf("correlation id leaked into the base logger: %q", lines[1])
	}
}

func TestLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.LogError(errors.New("boom"))

	if got := strings.TrimSpace(buf.String()); got != "Error: boom" {
		t.Errorf("unexpected log line: %q", got)
	}
}
