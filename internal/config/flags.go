package config

import (
	"github.com/soypat/springls"
	"github.com/spf13/pflag"
)

// Flags holds command line overrides. Only flags set by the user are applied.
type Flags struct {
	fs         *pflag.FlagSet
	path       string
	debug      bool
	logFile    string
	scenario   string
	mesh       string
	field      string
	motion     string
	temporal   string
	resample   bool
	resolution int
	duration   float64
	timeStep   float64
	out        string
	stash      int
	preview    bool
}

// RegisterFlags registers the configuration flags on fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	d := Default()
	f := &Flags{fs: fs}
	fs.StringVarP(&f.path, "config", "c", "", "path to YAML or TOML config file")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	fs.StringVar(&f.logFile, "log-file", "", "rotating log file")
	fs.StringVar(&f.scenario, "scenario", d.Simulation.Scenario, "seed shape: sphere, torus, box, blobs, cylinder or stl")
	fs.StringVar(&f.mesh, "mesh", "", "STL seed mesh for the stl scenario")
	fs.StringVar(&f.field, "field", d.Simulation.Field, "velocity field: enright, rotation, twist or constant")
	fs.StringVar(&f.motion, "motion", d.Simulation.Motion.String(), "motion scheme: semi-implicit, explicit or implicit")
	fs.StringVar(&f.temporal, "temporal", d.Simulation.Temporal.String(), "temporal scheme: rk1, rk2, rk3, rk4a or rk4b")
	fs.BoolVar(&f.resample, "resample", d.Simulation.Resample, "clean and fill the constellation after tracking")
	fs.IntVar(&f.resolution, "resolution", d.Simulation.Resolution, "voxels along the longest side of the domain")
	fs.Float64Var(&f.duration, "duration", d.Simulation.Duration, "simulated time")
	fs.Float64Var(&f.timeStep, "time-step", d.Simulation.TimeStep, "time between frames")
	fs.StringVarP(&f.out, "output", "o", d.Output.Dir, "output directory")
	fs.IntVar(&f.stash, "stash-interval", d.Output.StashInterval, "frames between stashes, 0 disables")
	fs.BoolVar(&f.preview, "preview", d.Output.Preview, "write PNG previews with each stash")
	return f
}

// Path returns the explicit config path if provided via --config.
func (f *Flags) Path() string { return f.path }

// Apply applies changed flags to cfg.
func (f *Flags) Apply(cfg *Config) error {
	changed := f.fs.Changed
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if changed("log-file") {
		cfg.Logging.LogFile = f.logFile
	}
	if changed("scenario") {
		cfg.Simulation.Scenario = f.scenario
	}
	if changed("mesh") {
		cfg.Simulation.Mesh = f.mesh
		if !changed("scenario") {
			cfg.Simulation.Scenario = "stl"
		}
	}
	if changed("field") {
		cfg.Simulation.Field = f.field
	}
	if changed("motion") {
		m, err := springls.ParseMotionScheme(f.motion)
		if err != nil {
			return err
		}
		cfg.Simulation.Motion = m
	}
	if changed("temporal") {
		ts, err := springls.ParseTemporalScheme(f.temporal)
		if err != nil {
			return err
		}
		cfg.Simulation.Temporal = ts
	}
	if changed("resample") {
		cfg.Simulation.Resample = f.resample
	}
	if changed("resolution") {
		cfg.Simulation.Resolution = f.resolution
	}
	if changed("duration") {
		cfg.Simulation.Duration = f.duration
	}
	if changed("time-step") {
		cfg.Simulation.TimeStep = f.timeStep
	}
	if changed("output") {
		cfg.Output.Dir = f.out
	}
	if changed("stash-interval") {
		cfg.Output.StashInterval = f.stash
	}
	if changed("preview") {
		cfg.Output.Preview = f.preview
	}
	return nil
}
