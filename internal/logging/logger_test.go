package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelInfo)

	logger.Debug("hidden %d", 1)
	logger.Info("shown %d", 2)
	logger.Warn("careful")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "shown 2") {
		t.Errorf("info line missing: %q", out)
	}
	if !strings.Contains(out, "WARN") {
		t.Errorf("warn line missing: %q", out)
	}

	buf.Reset()
	logger.SetLevel(LevelOff)
	logger.Error("silenced")
	if buf.Len() != 0 {
		t.Errorf("off level wrote %q", buf.String())
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelDebug)

	derived := logger.WithFields(Fields{"document": "book.docx", "run_id": "abc"}).WithField("chapter", "intro.md")
	derived.Info("compiled")

	out := buf.String()
	for _, want := range []string{`"document": "book.docx"`, `"run_id": "abc"`, `"chapter": "intro.md"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q is missing %s", out, want)
		}
	}

	// derived loggers follow the parent's level
	buf.Reset()
	logger.SetLevel(LevelError)
	derived.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("derived logger ignored level change: %q", buf.String())
	}
	if derived.IsDebugMode() {
		t.Error("IsDebugMode() = true at error level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"off", LevelOff},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGlobalLogger(t *testing.T) {
	original := GetLogger()
	defer SetLogger(original)

	var buf bytes.Buffer
	SetLogger(New(&buf, LevelWarn))
	Info("dropped")
	Warn("kept %s", "line")
	if !strings.Contains(buf.String(), "kept line") || strings.Contains(buf.String(), "dropped") {
		t.Errorf("global logger output = %q", buf.String())
	}
}
