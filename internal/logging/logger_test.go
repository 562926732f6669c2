package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogger_CreatesDirAndLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, err := NewLogger(dir, "debug")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	// Directory should exist
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("log dir missing: %v", err)
	}

	log.Info("test_message_from_logging_test")
	if !log.Core().Enabled(-1) {
		t.Fatalf("debug level should be enabled")
	}

	// lumberjack opens the file lazily on first write
	if _, err := os.Stat(filepath.Join(dir, "netwatch.log")); err != nil {
		t.Fatalf("log file missing: %v", err)
	}
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := NewLogger(t.TempDir(), "chatty")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if log.Core().Enabled(-1) {
		t.Fatalf("debug should be disabled at info level")
	}
	if !log.Core().Enabled(0) {
		t.Fatalf("info should be enabled")
	}
}
