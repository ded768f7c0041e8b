package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogFilePathDefaultsUnderWorkdir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := logFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve log path failed: %v", err)
	}
	if filepath.Base(got) != defaultFilename {
		t.Fatalf("unexpected filename: %s", filepath.Base(got))
	}
	if filepath.Base(filepath.Dir(got)) != defaultDir {
		t.Fatalf("unexpected dir: %s", filepath.Dir(got))
	}
	if _, err := os.Stat(got); err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
}

func TestReleaseModeWritesJSONFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "release.log"})
	log.Info("card_allocated")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	if !strings.Contains(string(content), `"event":"card_allocated"`) {
		t.Fatalf("expected event field, got=%s", content)
	}
	if !strings.Contains(string(content), `"service":"cardmint"`) {
		t.Fatalf("expected service field, got=%s", content)
	}
}

func TestDebugModeSkipsFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{Dir: tmpDir, Filename: "debug.log"})
	log.Info("debug_event")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create a log file")
	}
}

func TestExplicitLevelFiltersEntries(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn").Sugar()
	log.Infow("claim_ok", "reward_id", 1)
	log.Warnw("claim_lock_busy", "reward_id", 1)
	_ = log.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one entry, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode entry failed: %v", err)
	}
	if entry["event"] != "claim_lock_busy" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestResolveLevelFallsBackToMode(t *testing.T) {
	if got := resolveLevel("bogus", true).Level().String(); got != "debug" {
		t.Fatalf("expected debug, got %s", got)
	}
	if got := resolveLevel("", false).Level().String(); got != "info" {
		t.Fatalf("expected info, got %s", got)
	}
	if got := resolveLevel("error", true).Level().String(); got != "error" {
		t.Fatalf("expected error, got %s", got)
	}
}
