package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunLogger(t *testing.T) {
	t.Run("tees into the run log", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "logs", "toparr.log")
		console := &bytes.Buffer{}

		logger, closer, err := NewRunLogger(console, logPath, "info")
		if err != nil {
			t.Fatalf("failed to create logger: %v", err)
		}
		logger.Info("sync started", "week", 42)
		logger.Debug("hidden")
		closer.Close()

		data, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("failed to read run log: %v", err)
		}
		if !strings.Contains(string(data), "sync started") {
			t.Errorf("expected run log to contain message, got %q", data)
		}
		if strings.Contains(string(data), "hidden") {
			t.Error("debug line should be filtered at info level")
		}
		if !strings.Contains(console.String(), "sync started") {
			t.Error("expected console to receive the same line")
		}
	})

	t.Run("appends across runs", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "toparr.log")
		for _, msg := range []string{"first run", "second run"} {
			logger, closer, err := NewRunLogger(&bytes.Buffer{}, logPath, "")
			if err != nil {
				t.Fatalf("failed to create logger: %v", err)
			}
			logger.Info(msg)
			closer.Close()
		}

		content := mustRead(t, logPath)
		if !strings.Contains(content, "first run") || !strings.Contains(content, "second run") {
			t.Errorf("expected both runs in log, got %q", content)
		}
	})

	t.Run("empty path logs to console only", func(t *testing.T) {
		console := &bytes.Buffer{}
		logger, closer, err := NewRunLogger(console, "", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer closer.Close()
		logger.Warn("console only")
		if !strings.Contains(console.String(), "console only") {
			t.Error("expected console output")
		}
	})

	t.Run("bad level", func(t *testing.T) {
		_, _, err := NewRunLogger(&bytes.Buffer{}, "", "loud")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestRunLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "toparr.lock")

	first := NewRunLock(path)
	if err := first.Acquire(); err != nil {
		t.Fatalf("expected first acquire to succeed, got %v", err)
	}

	second := NewRunLock(path)
	if err := second.Acquire(); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked while held, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("failed to release: %v", err)
	}
	if err := second.Acquire(); err != nil {
		t.Errorf("expected acquire after release to succeed, got %v", err)
	}
	second.Release()
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string, got %q", a)
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
