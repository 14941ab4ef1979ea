package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soypat/springls"
	"github.com/soypat/springls/internal/config"
)

func TestConfigCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "--motion", "explicit", "--resolution", "20"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	if !strings.Contains(s, "motion: explicit") || !strings.Contains(s, "resolution: 20") {
		t.Errorf("unexpected output:\n%s", s)
	}
}

func TestConfigWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "springls.toml")
	root := newRootCmd()
	root.SetArgs([]string{"config", "--temporal", "rk2", "-w", path})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Simulation.Temporal != springls.RK2 {
		t.Errorf("temporal %v", cfg.Simulation.Temporal)
	}
}

func TestRunInvalid(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--field", "wind"})
	if err := root.Execute(); err == nil {
		t.Error("expected validation error")
	}
}

func TestRunSmall(t *testing.T) {
	dir := t.TempDir()
	root := newRootCmd()
	root.SetArgs([]string{"run", "--resolution", "24", "--field", "constant",
		"--duration", "0.05", "--time-step", "0.05", "--stash-interval", "1", "-o", dir})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Errorf("got %d stashes, want 2", len(matches))
	}
}
