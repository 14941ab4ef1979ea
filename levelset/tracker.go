package levelset

import (
	"math"

	"github.com/soypat/springls/internal/parallel"
)

// Tracker restores the distance property of a signed grid after it has
// been deformed, keeping its zero crossing in place.
type Tracker struct {
	// HalfWidth is the half width of the narrow band in voxels. Values
	// are clamped to ±HalfWidth.
	HalfWidth float64
	// Iterations is the number of reinitialization sweeps per Track call.
	Iterations int
	// Dt is the pseudo time step of the reinitialization equation.
	Dt float64
}

// NewTracker returns a tracker with the default parameters for a band of
// the given half width.
func NewTracker(halfWidth float64) Tracker {
	return Tracker{HalfWidth: halfWidth, Iterations: 3, Dt: 0.3}
}

// Track reinitializes g in place by integrating
//  phi_t + S(phi0)(|grad phi| - 1) = 0
// with a Godunov scheme over HJ-WENO differences. Voxels next to the zero
// crossing use the subcell fix of Russo and Smereka so the interface does not drift.
func (tr Tracker) Track(g *Grid) {
	if tr.Iterations <= 0 {
		return
	}
	hw := tr.HalfWidth
	if hw <= 0 {
		hw = HalfWidth
	}
	phi0 := g.Clone()
	next := g.Clone()
	// Distance estimate for voxels adjacent to the interface.
	interfaceD := make([]float64, g.Len())
	isInterface := make([]bool, g.Len())
	parallel.For(g.Len(), func(_, start, end int) {
		for n := start; n < end; n++ {
			ijk := g.Coord(n)
			c := phi0.data[n]
			var crossing bool
			for a := 0; a < 3 && !crossing; a++ {
				lo, hi := ijk, ijk
				lo[a]--
				hi[a]++
				crossing = (g.Contains(lo) && (phi0.Value(lo) < 0) != (c < 0)) ||
					(g.Contains(hi) && (phi0.Value(hi) < 0) != (c < 0))
			}
			if !crossing {
				continue
			}
			isInterface[n] = true
			grad := 0.0
			for a := 0; a < 3; a++ {
				lo, hi := ijk, ijk
				lo[a]--
				hi[a]++
				d := math.Max(math.Abs(phi0.clampedValue(hi)-phi0.clampedValue(lo))/2,
					math.Max(math.Abs(phi0.clampedValue(hi)-c), math.Abs(c-phi0.clampedValue(lo))))
				grad += d * d
			}
			grad = math.Max(math.Sqrt(grad), 1e-6)
			interfaceD[n] = c / grad
		}
	})
	for iter := 0; iter < tr.Iterations; iter++ {
		parallel.For(g.Len(), func(_, start, end int) {
			for n := start; n < end; n++ {
				s0 := phi0.data[n]
				cur := g.data[n]
				if isInterface[n] {
					next.data[n] = cur - tr.Dt*(math.Copysign(math.Abs(cur), s0)-interfaceD[n])
					continue
				}
				ijk := g.Coord(n)
				grad2 := 0.0
				for a := 0; a < 3; a++ {
					dm, dp := g.wenoDerivatives(ijk, a)
					if s0 > 0 {
						grad2 += math.Max(sq(math.Max(dm, 0)), sq(math.Min(dp, 0)))
					} else {
						grad2 += math.Max(sq(math.Min(dm, 0)), sq(math.Max(dp, 0)))
					}
				}
				sign := s0 / math.Sqrt(s0*s0+1)
				next.data[n] = cur - tr.Dt*sign*(math.Sqrt(grad2)-1)
			}
		})
		g.Swap(next)
	}
	for n, v := range g.data {
		g.data[n] = clampAbs(v, hw)
	}
}

func sq(x float64) float64 { return x * x }

func clampAbs(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
