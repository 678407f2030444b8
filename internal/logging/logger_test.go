package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesJSONToLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger, err := New(dir, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("ideas generated", zap.Int("count", 8))
	logger.Debug("hidden at info level")
	_ = logger.Sync()

	data, err := os.ReadFile(Path(dir))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `"msg":"ideas generated"`) || !strings.Contains(text, `"count":8`) {
		t.Fatalf("log missing entry: %s", text)
	}
	if strings.Contains(text, "hidden at info level") {
		t.Fatalf("debug entry written without verbose: %s", text)
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir, Options{Verbose: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("debug visible")
	_ = logger.Sync()
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "debug visible") {
		t.Fatalf("expected debug line, got %s", data)
	}
}
