package springls

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/soypat/springls/field"
	"github.com/soypat/springls/internal/d3"
	"github.com/soypat/springls/internal/parallel"
	"github.com/soypat/springls/levelset"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnsupportedMap is returned when advecting a spring level set whose
// map is not a translation, uniform scale, uniform scale and translation
// or rotation.
var ErrUnsupportedMap = errors.New("springls: unsupported map")

// AdvectionConfig configures an Advection.
type AdvectionConfig struct {
	Temporal TemporalScheme
	// Resample cleans and fills the constellation after tracking.
	Resample bool
}

// StepStats describes the substeps of the last Advect call.
type StepStats struct {
	Substeps int
	// Dt holds the length of every substep.
	Dt []float64
	// MaxVelocity is the largest world space speed sampled.
	MaxVelocity float64
}

// Advection moves a spring level set along a velocity field given in
// world space.
type Advection struct {
	sls      *SpringLevelSet
	field    field.Field
	motion   MotionScheme
	cfg      AdvectionConfig
	implicit *levelset.Advector
	stats    StepStats
}

// NewAdvection returns an advection of s along f. With the Implicit scheme
// the constellation of s is discarded.
func NewAdvection(s *SpringLevelSet, f field.Field, motion MotionScheme, cfg AdvectionConfig) *Advection {
	a := &Advection{sls: s, field: f, motion: motion, cfg: cfg}
	if motion == Implicit {
		a.implicit = levelset.NewAdvector(s.Signed, s.Map, f)
		s.Constellation.Reset()
	}
	return a
}

// Stats returns the substep statistics of the last Advect call.
func (a *Advection) Stats() StepStats { return a.stats }

// Advect moves the surface from time start to end and returns the number
// of substeps taken. Cancellation of ctx is checked between substeps.
func (a *Advection) Advect(ctx context.Context, start, end float64) (int, error) {
	s := a.sls
	a.stats = StepStats{}
	s.ResetMetrics()
	if a.motion == Implicit {
		a.implicit.Grid = s.Signed
		steps, err := a.implicit.Advect(ctx, start, end)
		a.stats.Substeps = steps
		s.UpdateIsoSurface()
		s.Constellation.UpdateVertexNormals()
		return steps, err
	}
	switch kind := s.Map.Kind(); kind {
	case levelset.TranslationMap, levelset.UniformScaleMap, levelset.UniformScaleTranslateMap, levelset.UnitaryMap:
	default:
		return 0, fmt.Errorf("advecting with %s: %w", kind, ErrUnsupportedMap)
	}
	const eps = 1e-30
	voxelSize := s.Map.VoxelSize()
	t := start
	for t < end {
		if err := ctx.Err(); err != nil {
			return a.stats.Substeps, err
		}
		maxV := a.maxVelocity(t)
		if maxV < eps {
			break
		}
		dt := d3.Clamp(MaxVExt*voxelSize/maxV, 0, end-t)
		if dt < eps {
			break
		}
		a.stats.MaxVelocity = math.Max(a.stats.MaxVelocity, maxV)
		a.advectSpringls(t, dt)
		if a.motion == Explicit {
			a.advectIsoSurface(t, dt)
		}
		a.stats.Dt = append(a.stats.Dt, dt)
		a.stats.Substeps++
		if a.motion == SemiImplicit {
			if err := a.track(t); err != nil {
				return a.stats.Substeps, err
			}
		}
		s.log.Debug("substep", zap.Float64("t", t), zap.Float64("dt", dt), zap.Float64("maxV", maxV))
		t += dt
	}
	if a.stats.Substeps == 0 {
		return 0, nil
	}
	if a.motion == Explicit {
		if err := a.track(t); err != nil {
			return a.stats.Substeps, err
		}
	}
	s.Constellation.UpdateVertexNormals()
	return a.stats.Substeps, nil
}

// indexVelocity returns the velocity field in index space.
func (a *Advection) indexVelocity(p r3.Vec, t float64) r3.Vec {
	return a.sls.Map.IndexVelocity(a.field, p, t)
}

// maxVelocity returns the largest world space speed over all particles
// and springl vertices at time t.
func (a *Advection) maxVelocity(t float64) float64 {
	c := &a.sls.Constellation
	m := a.sls.Map
	np := len(c.Particles)
	return parallel.MaxFloat(np+len(c.Vertices), func(i int) float64 {
		var p r3.Vec
		if i < np {
			p = c.Particles[i]
		} else {
			p = c.Vertices[i-np]
		}
		return r3.Norm(a.field.Velocity(m.ApplyMap(p), t))
	})
}

// advectSpringls integrates particles and springl vertices over [t, t+dt].
func (a *Advection) advectSpringls(t, dt float64) {
	c := &a.sls.Constellation
	m := a.sls.Map
	ts := a.cfg.Temporal
	trackPV := len(c.ParticleVelocity) > 0
	trackVV := len(c.VertexVelocity) > 0
	parallel.For(len(c.Particles), func(_, start, end int) {
		for i := start; i < end; i++ {
			c.Particles[i] = ts.Integrate(a.indexVelocity, c.Particles[i], t, dt)
			if trackPV {
				c.ParticleVelocity[i] = a.field.Velocity(m.ApplyMap(c.Particles[i]), t+dt)
			}
		}
	})
	parallel.For(len(c.Vertices), func(_, start, end int) {
		for i := start; i < end; i++ {
			c.Vertices[i] = ts.Integrate(a.indexVelocity, c.Vertices[i], t, dt)
			if trackVV {
				c.VertexVelocity[i] = a.field.Velocity(m.ApplyMap(c.Vertices[i]), t+dt)
			}
		}
	})
}

// advectIsoSurface integrates the iso-surface vertices over [t, t+dt].
func (a *Advection) advectIsoSurface(t, dt float64) {
	iso := &a.sls.IsoSurface
	ts := a.cfg.Temporal
	parallel.For(len(iso.Vertices), func(_, start, end int) {
		for i := start; i < end; i++ {
			iso.Vertices[i] = ts.Integrate(a.indexVelocity, iso.Vertices[i], t, dt)
		}
	})
}

// track relaxes the constellation, pulls the signed grid toward it and
// optionally resamples the constellation from the new iso-surface.
func (a *Advection) track(t float64) error {
	s := a.sls
	hw := s.halfWidth
	s.UpdateUnsignedLevelSet(hw)
	s.UpdateNearestNeighbors()
	s.Relax(5)
	switch a.motion {
	case SemiImplicit:
		s.UpdateUnsignedLevelSet(2.5 * hw)
		s.UpdateGradient()
		a.evolve(0.75, 32, 0.01)
	case Explicit:
		s.IsoSurface.UpdateVertexNormals()
		s.IsoSurface.Dilate(0.5)
		if err := s.UpdateSignedLevelSet(); err != nil {
			return fmt.Errorf("tracking at t=%g: %w", t, err)
		}
		s.UpdateUnsignedLevelSet(2.5 * hw)
		s.UpdateGradient()
		a.evolve(0.75, 128, 0.05)
	}
	if a.cfg.Resample {
		s.Clean()
		s.UpdateUnsignedLevelSet(hw)
		s.UpdateIsoSurface()
		s.Fill()
		return nil
	}
	s.UpdateIsoSurface()
	return nil
}

// evolve moves the zero crossing of the signed grid along the gradient
// field for at most iterations steps of length dt, tracking the grid after
// each step. It stops early once the number of voxels changing sign drops
// to tol times the largest count seen, and returns the steps taken.
func (a *Advection) evolve(dt float64, iterations int, tol float64) int {
	const minSignChanges = 32
	s := a.sls
	g := s.Signed
	stage := g.Clone()
	tracker := levelset.NewTracker(s.halfWidth)
	maxChanges := minSignChanges
	for it := 0; it < iterations; it++ {
		src, dst := g.Values(), stage.Values()
		partial := make([]int, parallel.Workers(len(src)))
		parallel.For(len(src), func(worker, start, end int) {
			changes := 0
			for n := start; n < end; n++ {
				old := src[n]
				ijk := g.Coord(n)
				v := s.Gradient.Value(ijk)
				if v == (r3.Vec{}) {
					dst[n] = old
					continue
				}
				delta := dt * r3.Dot(v, g.UpwindGradient(ijk, v))
				if old*(old-delta) < 0 {
					changes++
				}
				dst[n] = old - delta
			}
			partial[worker] = changes
		})
		g.Swap(stage)
		tracker.Track(g)
		changes := 0
		for _, c := range partial {
			changes += c
		}
		if changes > maxChanges {
			maxChanges = changes
		}
		if float64(changes)/float64(maxChanges) <= tol {
			return it + 1
		}
	}
	return iterations
}
