package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/springls"
	"github.com/spf13/pflag"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"scenario":   func(c *Config) { c.Simulation.Scenario = "cube" },
		"stl":        func(c *Config) { c.Simulation.Scenario = "stl" },
		"field":      func(c *Config) { c.Simulation.Field = "wind" },
		"resolution": func(c *Config) { c.Simulation.Resolution = 2 },
		"timestep":   func(c *Config) { c.Simulation.TimeStep = 0 },
		"stash":      func(c *Config) { c.Output.StashInterval = -1 },
	} {
		c := Default()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadMergesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "springls.yaml")
	data := []byte("simulation:\n  motion: explicit\n  temporal: RK2\n  resolution: 32\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	s := cfg.Simulation
	if s.Motion != springls.Explicit || s.Temporal != springls.RK2 || s.Resolution != 32 {
		t.Errorf("file values not applied: %+v", s)
	}
	if s.Scenario != "sphere" || s.Duration != 3 || cfg.Logging.Level != "debug" {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestLoadBadScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "springls.yaml")
	if err := os.WriteFile(path, []byte("simulation:\n  motion: sideways\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown motion scheme")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := Default()
	want.Simulation.Motion = springls.Implicit
	want.Simulation.Temporal = springls.RK3
	want.Simulation.Field = "twist"
	want.Output.Preview = true
	for _, name := range []string{"out.yaml", "out.toml"} {
		path := filepath.Join(dir, "sub", name)
		if err := want.SaveTo(path); err != nil {
			t.Fatal(err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if *got != *want {
			t.Errorf("%s: got %+v, want %+v", name, *got, *want)
		}
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "springls.toml")
	data := []byte("[simulation]\nfield = \"rotation\"\nresolution = 40\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := RegisterFlags(fs)
	err := fs.Parse([]string{"--config", path, "--resolution", "48", "--motion", "explicit", "--mesh", "bunny.stl", "--debug"})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(flags.Path())
	if err != nil {
		t.Fatal(err)
	}
	if err := flags.Apply(cfg); err != nil {
		t.Fatal(err)
	}
	s := cfg.Simulation
	if s.Field != "rotation" {
		t.Errorf("file field lost: %q", s.Field)
	}
	if s.Resolution != 48 || s.Motion != springls.Explicit {
		t.Errorf("flags not applied: %+v", s)
	}
	if s.Scenario != "stl" || s.Mesh != "bunny.stl" {
		t.Errorf("mesh flag should select stl scenario: %+v", s)
	}
	if s.Duration != 3 || cfg.Logging.Level != "debug" {
		t.Errorf("unexpected %+v", cfg)
	}
}
