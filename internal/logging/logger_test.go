package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestErrorKeyRenamed(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, slog.LevelInfo)
	logger.Error("boom", "error", errors.New("disk full"))

	out := buf.String()
	if !strings.Contains(out, "err=\"disk full\"") {
		t.Errorf("expected err key in output, got %q", out)
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, slog.LevelWarn)
	logger.Info("hidden")

	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}
}

func TestNewFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "application.log")
	for _, msg := range []string{"first", "second"} {
		logger, closer, err := NewFile(path, slog.LevelInfo, true)
		if err != nil {
			t.Fatal(err)
		}
		logger.Info(msg, "step", 1)
		logger.Debug("hidden")
		if err := closer.Close(); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "msg=first") || !strings.Contains(out, "msg=second") {
		t.Errorf("expected both runs in the log, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered")
	}

	if _, _, err := NewFile(filepath.Join(t.TempDir(), "missing", "x.log"), slog.LevelInfo, true); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
