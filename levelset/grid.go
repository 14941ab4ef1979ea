// Package levelset implements dense voxel level sets in index space:
// signed and unsigned distance grids, conversions from polygon meshes,
// iso-surface extraction, reinitialization and implicit advection.
package levelset

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/springls/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// MaxVoxels is the largest number of voxels a single grid may hold.
const MaxVoxels = 1 << 27

// HalfWidth is the default narrow band half width in voxels.
const HalfWidth = 3

// ErrGridTooLarge is returned when a grid would exceed MaxVoxels.
var ErrGridTooLarge = errors.New("levelset: grid exceeds maximum voxel count")

// Shape is a box of voxels in index space. Voxel (0,0,0) of a grid sits
// at index coordinate Min.
type Shape struct {
	Min  [3]int
	Dims [3]int
}

// NewShape returns the shape enclosing the index space box bb grown by
// pad voxels on every side.
func NewShape(bb d3.Box, pad int) (Shape, error) {
	if bb.Empty() {
		return Shape{}, errors.New("levelset: empty bounding box")
	}
	lo := d3.FloorElem(bb.Min)
	hi := d3.FloorElem(bb.Max)
	s := Shape{Min: [3]int{int(lo.X) - pad, int(lo.Y) - pad, int(lo.Z) - pad}}
	s.Dims = [3]int{
		int(hi.X) - int(lo.X) + 2*pad + 2,
		int(hi.Y) - int(lo.Y) + 2*pad + 2,
		int(hi.Z) - int(lo.Z) + 2*pad + 2,
	}
	if n := float64(s.Dims[0]) * float64(s.Dims[1]) * float64(s.Dims[2]); n > MaxVoxels {
		return Shape{}, fmt.Errorf("%w: %v voxels", ErrGridTooLarge, s.Dims)
	}
	return s, nil
}

// Len returns the number of voxels in the shape.
func (s Shape) Len() int { return s.Dims[0] * s.Dims[1] * s.Dims[2] }

// Contains reports whether the index coordinate ijk is inside the shape.
func (s Shape) Contains(ijk [3]int) bool {
	for a := 0; a < 3; a++ {
		if ijk[a] < s.Min[a] || ijk[a] >= s.Min[a]+s.Dims[a] {
			return false
		}
	}
	return true
}

// Offset returns the linear storage offset of ijk. ijk must be inside the shape.
func (s Shape) Offset(ijk [3]int) int {
	i, j, k := ijk[0]-s.Min[0], ijk[1]-s.Min[1], ijk[2]-s.Min[2]
	return i + s.Dims[0]*(j+s.Dims[1]*k)
}

// Coord is the inverse of Offset.
func (s Shape) Coord(n int) [3]int {
	i := n % s.Dims[0]
	n /= s.Dims[0]
	j := n % s.Dims[1]
	k := n / s.Dims[1]
	return [3]int{i + s.Min[0], j + s.Min[1], k + s.Min[2]}
}

// Bounds returns the index space box spanned by the voxel centers.
func (s Shape) Bounds() d3.Box {
	return d3.Box{
		Min: r3.Vec{X: float64(s.Min[0]), Y: float64(s.Min[1]), Z: float64(s.Min[2])},
		Max: r3.Vec{
			X: float64(s.Min[0] + s.Dims[0] - 1),
			Y: float64(s.Min[1] + s.Dims[1] - 1),
			Z: float64(s.Min[2] + s.Dims[2] - 1),
		},
	}
}

// clampCoord clamps continuous position p to the shape's voxel centers.
func (s Shape) clampCoord(p r3.Vec) r3.Vec {
	b := s.Bounds()
	return r3.Vec{
		X: d3.Clamp(p.X, b.Min.X, b.Max.X),
		Y: d3.Clamp(p.Y, b.Min.Y, b.Max.Y),
		Z: d3.Clamp(p.Z, b.Min.Z, b.Max.Z),
	}
}

// Grid is a dense scalar voxel grid. Reads outside the grid return Background.
type Grid struct {
	Shape
	Background float64
	data       []float64
}

// NewGrid returns a grid of the given shape filled with background.
func NewGrid(s Shape, background float64) *Grid {
	g := &Grid{Shape: s, Background: background, data: make([]float64, s.Len())}
	g.Fill(background)
	return g
}

// Fill sets all voxels to v.
func (g *Grid) Fill(v float64) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Value returns the voxel value at ijk.
func (g *Grid) Value(ijk [3]int) float64 {
	if !g.Contains(ijk) {
		return g.Background
	}
	return g.data[g.Offset(ijk)]
}

// Set sets the voxel value at ijk. Writes outside the grid are ignored.
func (g *Grid) Set(ijk [3]int, v float64) {
	if g.Contains(ijk) {
		g.data[g.Offset(ijk)] = v
	}
}

// Values returns the voxel storage in Offset order.
func (g *Grid) Values() []float64 { return g.data }

// clampedValue returns the value of the voxel nearest ijk that lies inside the grid.
func (g *Grid) clampedValue(ijk [3]int) float64 {
	for a := 0; a < 3; a++ {
		if ijk[a] < g.Min[a] {
			ijk[a] = g.Min[a]
		} else if hi := g.Min[a] + g.Dims[a] - 1; ijk[a] > hi {
			ijk[a] = hi
		}
	}
	return g.data[g.Offset(ijk)]
}

// Sample trilinearly interpolates the grid at continuous index position p.
// Positions outside the grid are clamped to its boundary.
func (g *Grid) Sample(p r3.Vec) float64 {
	p = g.clampCoord(p)
	f := d3.FloorElem(p)
	i, j, k := int(f.X), int(f.Y), int(f.Z)
	tx, ty, tz := p.X-f.X, p.Y-f.Y, p.Z-f.Z
	c := func(di, dj, dk int) float64 { return g.clampedValue([3]int{i + di, j + dj, k + dk}) }
	c00 := lerp(c(0, 0, 0), c(1, 0, 0), tx)
	c10 := lerp(c(0, 1, 0), c(1, 1, 0), tx)
	c01 := lerp(c(0, 0, 1), c(1, 0, 1), tx)
	c11 := lerp(c(0, 1, 1), c(1, 1, 1), tx)
	return lerp(lerp(c00, c10, ty), lerp(c01, c11, ty), tz)
}

// Gradient returns the central difference gradient at voxel ijk.
// One sided differences are used at the grid boundary.
func (g *Grid) Gradient(ijk [3]int) r3.Vec {
	var grad [3]float64
	for a := 0; a < 3; a++ {
		lo, hi := ijk, ijk
		lo[a]--
		hi[a]++
		h := 2.0
		if !g.Contains(lo) {
			lo[a]++
			h--
		}
		if !g.Contains(hi) {
			hi[a]--
			h--
		}
		if h > 0 {
			grad[a] = (g.clampedValue(hi) - g.clampedValue(lo)) / h
		}
	}
	return r3.Vec{X: grad[0], Y: grad[1], Z: grad[2]}
}

// UpwindGradient returns the first order one sided gradient at voxel ijk
// biased against the direction of v, as needed to advect along v.
func (g *Grid) UpwindGradient(ijk [3]int, v r3.Vec) r3.Vec {
	c := g.clampedValue(ijk)
	vel := [3]float64{v.X, v.Y, v.Z}
	var grad [3]float64
	for a := 0; a < 3; a++ {
		n := ijk
		if vel[a] > 0 {
			n[a]--
			grad[a] = c - g.clampedValue(n)
		} else {
			n[a]++
			grad[a] = g.clampedValue(n) - c
		}
	}
	return r3.Vec{X: grad[0], Y: grad[1], Z: grad[2]}
}

// WENOGradient returns the fifth order Hamilton-Jacobi WENO gradient at
// voxel ijk biased against the direction of v, as needed to advect along v.
func (g *Grid) WENOGradient(ijk [3]int, v r3.Vec) r3.Vec {
	vel := [3]float64{v.X, v.Y, v.Z}
	var grad [3]float64
	for a := 0; a < 3; a++ {
		minus, plus := g.wenoDerivatives(ijk, a)
		if vel[a] > 0 {
			grad[a] = minus
		} else {
			grad[a] = plus
		}
	}
	return r3.Vec{X: grad[0], Y: grad[1], Z: grad[2]}
}

// wenoDerivatives returns the backward and forward HJ-WENO derivatives of
// g along axis a at voxel ijk.
func (g *Grid) wenoDerivatives(ijk [3]int, a int) (minus, plus float64) {
	var d [6]float64 // d[m] = phi(m-2) - phi(m-3), offsets relative to ijk.
	n := ijk
	n[a] -= 3
	prev := g.clampedValue(n)
	for m := range d {
		n[a]++
		cur := g.clampedValue(n)
		d[m] = cur - prev
		prev = cur
	}
	return weno5(d[0], d[1], d[2], d[3], d[4]), weno5(d[5], d[4], d[3], d[2], d[1])
}

// weno5 combines the three third order stencils of the one sided
// differences v1..v5 with the smoothness weights of Jiang and Peng.
func weno5(v1, v2, v3, v4, v5 float64) float64 {
	const (
		c1 = 13.0 / 12
		c2 = 1.0 / 4
	)
	s1 := c1*sq(v1-2*v2+v3) + c2*sq(v1-4*v2+3*v3)
	s2 := c1*sq(v2-2*v3+v4) + c2*sq(v2-v4)
	s3 := c1*sq(v3-2*v4+v5) + c2*sq(3*v3-4*v4+v5)
	eps := 1e-6*math.Max(sq(v1), math.Max(sq(v2), math.Max(sq(v3), math.Max(sq(v4), sq(v5))))) + 1e-99
	a1 := 0.1 / sq(s1+eps)
	a2 := 0.6 / sq(s2+eps)
	a3 := 0.3 / sq(s3+eps)
	sum := a1 + a2 + a3
	p1 := v1/3 - 7*v2/6 + 11*v3/6
	p2 := -v2/6 + 5*v3/6 + v4/3
	p3 := v3/3 + 5*v4/6 - v5/6
	return (a1*p1 + a2*p2 + a3*p3) / sum
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	c := *g
	c.data = append([]float64(nil), g.data...)
	return &c
}

// Swap exchanges the voxel storage of g and o. Both must share a shape.
func (g *Grid) Swap(o *Grid) {
	if g.Shape != o.Shape {
		panic("levelset: swap of grids with different shapes")
	}
	g.data, o.data = o.data, g.data
}

// CountInside returns the number of voxels with negative values.
func (g *Grid) CountInside() int {
	n := 0
	for _, v := range g.data {
		if v < 0 {
			n++
		}
	}
	return n
}

func lerp(a, b, t float64) float64 { return a + t*(b-a) }

// VectorGrid is a dense grid of vectors sharing the layout of Grid.
type VectorGrid struct {
	Shape
	data []r3.Vec
}

// NewVectorGrid returns a zero filled vector grid.
func NewVectorGrid(s Shape) *VectorGrid {
	return &VectorGrid{Shape: s, data: make([]r3.Vec, s.Len())}
}

// Value returns the vector at ijk or the zero vector outside the grid.
func (g *VectorGrid) Value(ijk [3]int) r3.Vec {
	if !g.Contains(ijk) {
		return r3.Vec{}
	}
	return g.data[g.Offset(ijk)]
}

// Set sets the vector at ijk. Writes outside the grid are ignored.
func (g *VectorGrid) Set(ijk [3]int, v r3.Vec) {
	if g.Contains(ijk) {
		g.data[g.Offset(ijk)] = v
	}
}

// Sample trilinearly interpolates the vector field at index position p.
func (g *VectorGrid) Sample(p r3.Vec) r3.Vec {
	f := d3.FloorElem(p)
	i, j, k := int(f.X), int(f.Y), int(f.Z)
	tx, ty, tz := p.X-f.X, p.Y-f.Y, p.Z-f.Z
	var out r3.Vec
	for c := 0; c < 8; c++ {
		di, dj, dk := c&1, (c>>1)&1, (c>>2)&1
		w := weight(tx, di) * weight(ty, dj) * weight(tz, dk)
		if w == 0 {
			continue
		}
		out = r3.Add(out, r3.Scale(w, g.Value([3]int{i + di, j + dj, k + dk})))
	}
	return out
}

func weight(t float64, d int) float64 {
	if d == 0 {
		return 1 - t
	}
	return t
}
