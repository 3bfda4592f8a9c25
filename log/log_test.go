package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// captureLogger returns a logger writing JSON lines into buf.
func captureLogger(buf *bytes.Buffer, level slog.Level) *Logger {
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})
	return NewWithHandler(h)
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &entry); err != nil {
		t.Fatalf("decoding log line: %v", err)
	}
	return entry
}

func TestLoggerEmitsAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := captureLogger(&buf, slog.LevelInfo)

	l.Info("operation authorized", "nonce", 7)
	entry := lastEntry(t, &buf)
	if entry["msg"] != "operation authorized" {
		t.Errorf("msg = %v, want %q", entry["msg"], "operation authorized")
	}
	if entry["nonce"] != float64(7) {
		t.Errorf("nonce = %v, want 7", entry["nonce"])
	}
}

func TestModuleAddsAttribute(t *testing.T) {
	var buf bytes.Buffer
	l := captureLogger(&buf, slog.LevelInfo).Module("keystore")

	l.Info("record saved")
	entry := lastEntry(t, &buf)
	if entry["module"] != "keystore" {
		t.Errorf("module = %v, want %q", entry["module"], "keystore")
	}
}

func TestWithPropagatesContext(t *testing.T) {
	var buf bytes.Buffer
	l := captureLogger(&buf, slog.LevelInfo).With("address", "0x01")

	l.Warn("submission failed")
	entry := lastEntry(t, &buf)
	if entry["address"] != "0x01" {
		t.Errorf("address = %v, want %q", entry["address"], "0x01")
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := captureLogger(&buf, slog.LevelInfo)

	l.Debug("suppressed")
	if buf.Len() != 0 {
		t.Errorf("debug line emitted at info level: %s", buf.String())
	}
	l.Error("emitted")
	if buf.Len() == 0 {
		t.Error("error line not emitted")
	}
}

func TestSetDefault(t *testing.T) {
	old := Default()
	defer SetDefault(old)

	var buf bytes.Buffer
	SetDefault(captureLogger(&buf, slog.LevelInfo))
	Info("via default")
	entry := lastEntry(t, &buf)
	if entry["msg"] != "via default" {
		t.Errorf("msg = %v, want %q", entry["msg"], "via default")
	}

	// nil is ignored rather than replacing the default.
	SetDefault(nil)
	if Default() == nil {
		t.Error("SetDefault(nil) cleared the default logger")
	}
}
