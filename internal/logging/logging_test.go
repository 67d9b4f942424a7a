package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(Config{Level: "debug", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	// Invalid level falls back to info rather than failing
	logger, err := NewLogger(Config{Level: "nonsense", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	logger, err := NewLogger(Config{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.WithUserID(42).Info("hello from test")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if !strings.Contains(string(data), "hello from test") {
		t.Error("Log file should contain the message")
	}
	if !strings.Contains(string(data), `"user_id":42`) {
		t.Error("Log file should contain the user_id field")
	}
}

func TestLoggerHelpers(t *testing.T) {
	logger, err := NewDefaultLogger()
	if err != nil {
		t.Fatalf("NewDefaultLogger failed: %v", err)
	}

	// These should not panic
	logger.WithJobID("job-1").Debug("debug")
	logger.WithWorkerID("w-1").Warn("warn")
	logger.WithField("k", "v").Info("info")
	logger.LogQuotaDecision(1, "free", false, time.Minute)
	logger.LogJobEvent("job-1", "enqueued", "queued")
	logger.LogAnswerLookup("standard", "cached", true)
	logger.LogBackendCall("test-model", 10*time.Millisecond, nil)
}
