package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleLevelLabelColour(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Run("enabled", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(newConsoleHandler(&buf, new(slog.LevelVar), false, true))
		logger.Warn("disk nearly full")
		out := buf.String()
		if !strings.Contains(out, "\x1b[") || !strings.Contains(out, "WARN") {
			t.Fatalf("expected coloured WARN label, got %q", out)
		}
	})
	t.Run("disabled", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(newConsoleHandler(&buf, new(slog.LevelVar), false, false))
		logger.Error("boom")
		out := buf.String()
		if strings.Contains(out, "\x1b[") || !strings.Contains(out, " ERROR boom") {
			t.Fatalf("expected plain ERROR label, got %q", out)
		}
	})
}

func TestConsoleHonoursNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, new(slog.LevelVar), false, true))
	logger.Info("hello")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("NO_COLOR set but output is coloured: %q", buf.String())
	}
}
