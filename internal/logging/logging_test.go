package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/researchcopilot/internal/config"
)

func TestInitCreatesLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "researchcopilot.log")

	cfg := config.DefaultConfig()
	cfg.LogFile = logPath
	cfg.LogFormat = "json"
	cfg.LogLevel = "info"

	logger, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })

	logger.Info("hello", slog.String("component", "test"), slog.String("token", "secret-value"))
	logger.Debug("hidden_at_info")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "hello") {
		t.Fatalf("expected log to contain message, got: %s", text)
	}
	if strings.Contains(text, "secret-value") {
		t.Error("token value must be redacted")
	}
	if strings.Contains(text, "hidden_at_info") {
		t.Error("debug record written at info level")
	}
}

func TestInitUsesConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvHome, dir)

	cfg := config.DefaultConfig()
	cfg.LogFormat = "text"
	if _, err := Init(cfg); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })

	slog.Warn("to_default_path")

	data, err := os.ReadFile(filepath.Join(dir, "logs", "researchcopilot.log"))
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(data), "msg=to_default_path") {
		t.Errorf("text handler output missing: %s", data)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
