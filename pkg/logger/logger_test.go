package logger

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit_WritesLeveledLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	Info("suite %q started", "checkout")
	Debug("step: %s", "tap")
	Warn("slow step")
	Error("launch failed: %v", os.ErrNotExist)
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)
	for _, want := range []string{
		`[INFO] suite "checkout" started`,
		"[DEBUG] step: tap",
		"[WARN] slow step",
		"[ERROR] launch failed:",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("log file missing %q:\n%s", want, content)
		}
	}
}

func TestInit_BadPath(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "missing", "run.log")); err == nil {
		Close()
		t.Error("Init() with missing parent directory: error = nil, want non-nil")
	}
}

func TestLog_SilentUntilInitialized(t *testing.T) {
	Close()
	Info("dropped")
	Error("dropped")
}

func TestInitWriter_RedirectsOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	defer Close()

	Info("to buffer")
	if !strings.Contains(buf.String(), "[INFO] to buffer") {
		t.Errorf("buffer = %q, want it to contain %q", buf.String(), "[INFO] to buffer")
	}
}

func TestGetWriter(t *testing.T) {
	Close()
	if w := GetWriter(); w != io.Discard {
		t.Errorf("GetWriter() with no sink = %v, want io.Discard", w)
	}

	var buf bytes.Buffer
	InitWriter(&buf)
	defer Close()
	if _, err := GetWriter().Write([]byte("raw line\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "raw line") {
		t.Errorf("buffer = %q, want it to contain %q", buf.String(), "raw line")
	}
}
