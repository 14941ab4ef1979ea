// Package config handles simulation configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/soypat/springls"
)

// Config holds all simulation settings.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation" toml:"simulation"`
	Output     OutputConfig     `yaml:"output" toml:"output"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
}

// SimulationConfig selects the seed surface, velocity field and schemes.
type SimulationConfig struct {
	// Seed shape: sphere, torus, box, blobs, cylinder or stl.
	Scenario string `yaml:"scenario" toml:"scenario"`
	// STL file used by the stl scenario.
	Mesh string `yaml:"mesh" toml:"mesh"`
	// Velocity field: enright, rotation, twist or constant.
	Field    string                  `yaml:"field" toml:"field"`
	Motion   springls.MotionScheme   `yaml:"motion" toml:"motion"`
	Temporal springls.TemporalScheme `yaml:"temporal" toml:"temporal"`
	Resample bool                    `yaml:"resample" toml:"resample"`
	// Voxels along the longest side of the domain.
	Resolution    int     `yaml:"resolution" toml:"resolution"`
	Duration      float64 `yaml:"duration" toml:"duration"`
	TimeStep      float64 `yaml:"time_step" toml:"time_step"`
	TrackVelocity bool    `yaml:"track_velocity" toml:"track_velocity"`
}

// OutputConfig controls what is written to disk.
type OutputConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
	// Frames between stashes. Zero disables stashing.
	StashInterval int  `yaml:"stash_interval" toml:"stash_interval"`
	Preview       bool `yaml:"preview" toml:"preview"`
	Chart         bool `yaml:"chart" toml:"chart"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Scenario:   "sphere",
			Field:      "enright",
			Motion:     springls.SemiImplicit,
			Temporal:   springls.RK4b,
			Resample:   true,
			Resolution: 64,
			Duration:   3,
			TimeStep:   0.05,
		},
		Output: OutputConfig{
			Dir:           "output",
			StashInterval: 10,
			Chart:         true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

var (
	scenarios = []string{"sphere", "torus", "box", "blobs", "cylinder", "stl"}
	fields    = []string{"enright", "rotation", "twist", "constant"}
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	s := c.Simulation
	switch {
	case !oneOf(s.Scenario, scenarios):
		return fmt.Errorf("config: unknown scenario %q, want one of %v", s.Scenario, scenarios)
	case s.Scenario == "stl" && s.Mesh == "":
		return errors.New("config: stl scenario requires a mesh path")
	case !oneOf(s.Field, fields):
		return fmt.Errorf("config: unknown field %q, want one of %v", s.Field, fields)
	case s.Resolution < 8:
		return fmt.Errorf("config: resolution %d below minimum of 8", s.Resolution)
	case s.Duration < 0:
		return errors.New("config: negative duration")
	case s.TimeStep <= 0:
		return errors.New("config: time step must be positive")
	case c.Output.StashInterval < 0:
		return errors.New("config: negative stash interval")
	}
	return nil
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
