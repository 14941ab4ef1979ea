package levelset

import (
	"context"
	"math"

	"github.com/soypat/springls/field"
	"github.com/soypat/springls/internal/parallel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Advector moves the zero crossing of a signed grid along a velocity field
// given in world space. Each step integrates
//  phi_t + V.grad(phi) = 0
// with fifth order HJ-WENO differences and second order TVD Runge-Kutta
// in time, then tracks the grid.
type Advector struct {
	Grid    *Grid
	Map     Map
	Field   field.Field
	Tracker Tracker
	// CFL is the largest distance in voxels the surface moves per step.
	CFL float64
}

// NewAdvector returns an advector for g with the default tracker and CFL.
func NewAdvector(g *Grid, wm Map, f field.Field) *Advector {
	return &Advector{
		Grid:    g,
		Map:     wm,
		Field:   f,
		Tracker: NewTracker(g.Background),
		CFL:     0.5,
	}
}

// Advect integrates the grid from time t0 to t1 and returns the number of
// steps taken. Cancellation is checked between steps.
func (a *Advector) Advect(ctx context.Context, t0, t1 float64) (int, error) {
	const eps = 1e-30
	g := a.Grid
	vel := NewVectorGrid(g.Shape)
	stage := g.Clone()
	steps := 0
	for t := t0; t < t1; {
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		maxV := a.sampleVelocity(vel, t)
		dt := math.Min(a.CFL/math.Max(maxV, eps), t1-t)
		if dt < eps || maxV < eps {
			break
		}
		// Heun's method: phi1 = phi - dt L(phi), phi = (phi + phi1 - dt L(phi1))/2
		a.euler(stage, g, vel, dt)
		a.sampleVelocity(vel, t+dt)
		next := stage.Clone()
		a.euler(next, stage, vel, dt)
		vals, nv := g.data, next.data
		for n := range vals {
			vals[n] = 0.5 * (vals[n] + nv[n])
		}
		a.Tracker.Track(g)
		t += dt
		steps++
	}
	return steps, nil
}

// sampleVelocity stores the index space velocity at every narrow band voxel
// of the grid and returns the largest speed in voxels per unit time.
func (a *Advector) sampleVelocity(vel *VectorGrid, t float64) float64 {
	g := a.Grid
	partial := make([]float64, parallel.Workers(g.Len()))
	parallel.For(g.Len(), func(worker, start, end int) {
		max := 0.0
		for n := start; n < end; n++ {
			if math.Abs(g.data[n]) >= g.Background {
				vel.data[n] = r3.Vec{}
				continue
			}
			ijk := g.Coord(n)
			v := a.Map.IndexVelocity(a.Field, r3.Vec{X: float64(ijk[0]), Y: float64(ijk[1]), Z: float64(ijk[2])}, t)
			vel.data[n] = v
			max = math.Max(max, r3.Norm(v))
		}
		partial[worker] = max
	})
	max := 0.0
	for _, v := range partial {
		max = math.Max(max, v)
	}
	return max
}

// euler writes src advanced one forward Euler step of length dt into dst.
func (a *Advector) euler(dst, src *Grid, vel *VectorGrid, dt float64) {
	parallel.For(src.Len(), func(_, start, end int) {
		for n := start; n < end; n++ {
			v := vel.data[n]
			if v == (r3.Vec{}) {
				dst.data[n] = src.data[n]
				continue
			}
			grad := src.WENOGradient(src.Coord(n), v)
			dst.data[n] = src.data[n] - dt*r3.Dot(v, grad)
		}
	})
}
