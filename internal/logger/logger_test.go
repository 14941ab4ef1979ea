package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	} {
		got, err := ParseLevel(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("%q: got %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "springls.log")
	cfg := DefaultFileConfig(logFile)
	cfg.Compress = false
	log, err := NewWithFileConfig("info", cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("hidden")
	log.Info("relaxed", zap.Int("springls", 42))
	if err := log.Sync(); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(logFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		lines = append(lines, entry)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d entries, want 1", len(lines))
	}
	if lines[0]["msg"] != "relaxed" || lines[0]["springls"] != float64(42) {
		t.Errorf("unexpected entry %v", lines[0])
	}
}

func TestNoOutputIsNop(t *testing.T) {
	log, err := NewWithFileConfig("debug", FileConfig{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected nop logger")
	}
}
