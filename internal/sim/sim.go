// Package sim runs spring level set scenarios: a seed surface advected
// through a velocity field inside the unit cube, with periodic stashes of
// the surfaces and a chart of per frame metrics.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/soypat/springls"
	"github.com/soypat/springls/field"
	"github.com/soypat/springls/internal/config"
	"github.com/soypat/springls/internal/d3"
	"github.com/soypat/springls/levelset"
	"github.com/soypat/springls/render"
	"github.com/soypat/springls/shape"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Domain is the world region simulated.
var Domain = d3.Box{Max: r3.Vec{X: 1, Y: 1, Z: 1}}

// Frame holds the metrics recorded after a frame.
type Frame struct {
	Index    int     `yaml:"frame"`
	Time     float64 `yaml:"time"`
	Elements int     `yaml:"elements"`
	Added    int     `yaml:"added"`
	Removed  int     `yaml:"removed"`
	Substeps int     `yaml:"substeps"`
	// Area and Volume of the iso-surface in world units.
	Area   float64 `yaml:"area"`
	Volume float64 `yaml:"volume"`
}

// Simulation advects a spring level set frame by frame.
type Simulation struct {
	cfg    config.SimulationConfig
	out    config.OutputConfig
	log    *zap.Logger
	sls    *springls.SpringLevelSet
	adv    *springls.Advection
	field  field.Field
	frames []Frame
	files  []string
}

// New seeds the scenario described by cfg.
func New(cfg *config.Config, log *zap.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	sc := cfg.Simulation
	wm := levelset.FitMap(Domain, sc.Resolution)
	opts := springls.Options{
		Logger:        log.Named("springls"),
		HalfWidth:     levelset.HalfWidth,
		Bounds:        indexBox(wm, Domain),
		TrackVelocity: sc.TrackVelocity,
	}
	sls, err := seed(sc, wm, opts)
	if err != nil {
		return nil, fmt.Errorf("seeding %s scenario: %w", sc.Scenario, err)
	}
	f, err := velocityField(sc)
	if err != nil {
		return nil, err
	}
	if sc.TrackVelocity {
		sls.FillWithVelocityField(f, 0)
	}
	s := &Simulation{
		cfg:   sc,
		out:   cfg.Output,
		log:   log,
		sls:   sls,
		field: f,
		adv:   springls.NewAdvection(sls, f, sc.Motion, springls.AdvectionConfig{Temporal: sc.Temporal, Resample: sc.Resample}),
	}
	s.record(0, 0, 0)
	return s, nil
}

// SpringLevelSet returns the simulated surface.
func (s *Simulation) SpringLevelSet() *springls.SpringLevelSet { return s.sls }

// Frames returns the metrics of every frame so far. Frame 0 is the seed.
func (s *Simulation) Frames() []Frame { return s.frames }

// Run advances the simulation until the configured duration, stashing
// every StashInterval frames when an output directory is set.
func (s *Simulation) Run(ctx context.Context) error {
	nframes := int(math.Ceil(s.cfg.Duration/s.cfg.TimeStep - 1e-9))
	if s.out.Dir != "" && s.out.StashInterval > 0 {
		if err := s.Stash(0); err != nil {
			return err
		}
	}
	for i := 1; i <= nframes; i++ {
		if err := s.Step(ctx); err != nil {
			return err
		}
		if s.out.Dir != "" && s.out.StashInterval > 0 && (i%s.out.StashInterval == 0 || i == nframes) {
			if err := s.Stash(i); err != nil {
				return err
			}
		}
	}
	if s.out.Dir != "" && s.out.Chart {
		if err := s.WriteChart(s.path("metrics.png")); err != nil {
			return err
		}
	}
	s.summarize()
	return nil
}

// Step advances one frame.
func (s *Simulation) Step(ctx context.Context) error {
	last := s.frames[len(s.frames)-1]
	start := last.Time
	end := math.Min(start+s.cfg.TimeStep, s.cfg.Duration)
	if end <= start {
		end = start + s.cfg.TimeStep
	}
	steps, err := s.adv.Advect(ctx, start, end)
	if err != nil {
		return fmt.Errorf("frame %d: %w", last.Index+1, err)
	}
	s.record(last.Index+1, end, steps)
	f := s.frames[len(s.frames)-1]
	s.log.Info("frame",
		zap.Int("frame", f.Index),
		zap.Float64("time", f.Time),
		zap.Int("substeps", f.Substeps),
		zap.Int("elements", f.Elements),
		zap.Int("added", f.Added),
		zap.Int("removed", f.Removed),
		zap.Float64("volume", f.Volume),
	)
	return nil
}

func (s *Simulation) record(index int, t float64, substeps int) {
	sls := s.sls
	vox := sls.Map.VoxelSize()
	s.frames = append(s.frames, Frame{
		Index:    index,
		Time:     t,
		Elements: sls.Elements(),
		Added:    sls.Added(),
		Removed:  sls.Removed(),
		Substeps: substeps,
		Area:     sls.IsoSurface.Area() * vox * vox,
		Volume:   float64(sls.Signed.CountInside()) * vox * vox * vox,
	})
}

func (s *Simulation) summarize() {
	n := len(s.frames)
	if n < 2 {
		return
	}
	substeps := make([]float64, 0, n-1)
	elements := make([]float64, 0, n)
	for i, f := range s.frames {
		elements = append(elements, float64(f.Elements))
		if i > 0 {
			substeps = append(substeps, float64(f.Substeps))
		}
	}
	v0, v1 := s.frames[0].Volume, s.frames[n-1].Volume
	loss := 0.0
	if v0 > 0 {
		loss = (v0 - v1) / v0
	}
	s.log.Info("simulation done",
		zap.Int("frames", n-1),
		zap.Float64("meanSubsteps", stat.Mean(substeps, nil)),
		zap.Float64("minElements", floats.Min(elements)),
		zap.Float64("maxElements", floats.Max(elements)),
		zap.Float64("volumeLoss", loss),
	)
}

func seed(sc config.SimulationConfig, wm levelset.Map, opts springls.Options) (*springls.SpringLevelSet, error) {
	center := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	var sdf shape.SDF
	switch sc.Scenario {
	case "sphere":
		sdf = shape.Sphere(r3.Vec{X: 0.35, Y: 0.35, Z: 0.35}, 0.15)
	case "torus":
		sdf = shape.Torus(center, 0.2, 0.08)
	case "box":
		// Rounded box with a spherical bite taken out of one corner.
		b, err := shape.Box(center, d3.Elem(0.4), 0.05)
		if err != nil {
			return nil, err
		}
		sdf = shape.Difference(b, shape.Sphere(r3.Vec{X: 0.7, Y: 0.7, Z: 0.7}, 0.15))
	case "blobs":
		sdf = shape.SmoothUnion(shape.PolyMin(0.05),
			shape.Sphere(r3.Vec{X: 0.35, Y: 0.5, Z: 0.5}, 0.12),
			shape.Sphere(r3.Vec{X: 0.62, Y: 0.5, Z: 0.5}, 0.1),
		)
	case "cylinder":
		c, err := shape.Cylinder(center, 0.5, 0.15, 0)
		if err != nil {
			return nil, err
		}
		sdf = c
	case "stl":
		m, err := render.LoadSTL(sc.Mesh, 0)
		if err != nil {
			return nil, err
		}
		m.MapIntoBoundingBox(indexBox(wm, d3.NewBox(center, d3.Elem(0.6))))
		return springls.NewFromMesh(m, wm, opts)
	default:
		return nil, fmt.Errorf("unknown scenario %q", sc.Scenario)
	}
	g, err := shape.Sample(sdf, wm, opts.HalfWidth, 2)
	if err != nil {
		return nil, err
	}
	return springls.NewFromGrid(g, wm, opts)
}

func velocityField(sc config.SimulationConfig) (field.Field, error) {
	center := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	switch sc.Field {
	case "enright":
		// Full deformation cycle over the simulated time.
		return field.Enright{Period: sc.Duration}, nil
	case "rotation":
		return field.Rotation{Center: center, Axis: r3.Vec{Z: 1}, Omega: 2 * math.Pi / sc.Duration}, nil
	case "twist":
		return field.Scaled{
			F: field.Twist{Pose: d3.Transform{}.Translate(r3.Scale(-1, center))},
			S: math.Pi / sc.Duration,
		}, nil
	case "constant":
		return field.Constant{X: 0.1, Y: 0.05}, nil
	}
	return nil, fmt.Errorf("unknown field %q", sc.Field)
}

// indexBox returns the index space box enclosing the world box bb.
func indexBox(wm levelset.Map, bb d3.Box) d3.Box {
	return d3.EmptyBox().Include(wm.ApplyInverseMap(bb.Min)).Include(wm.ApplyInverseMap(bb.Max))
}
