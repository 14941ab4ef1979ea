package levelset

import (
	"fmt"

	"github.com/soypat/springls/internal/d3"
	"github.com/soypat/springls/internal/parallel"
	"github.com/soypat/springls/mesh"
	"github.com/soypat/springls/mesh/meshsdf"
	"gonum.org/v1/gonum/spatial/r3"
)

// SignedFromMesh returns the signed distance grid of the closed mesh m
// over shape s. Mesh vertices are in index space. Values are exact within
// halfWidth of the surface and ±halfWidth elsewhere, negative inside.
// Voxels on the boundary of s are assumed to be outside the mesh.
func SignedFromMesh(m *mesh.Mesh, s Shape, halfWidth float64) (*Grid, error) {
	sdf, err := meshsdf.New(m)
	if err != nil {
		return nil, fmt.Errorf("signed distance from mesh: %w", err)
	}
	band, _ := UnsignedFromPolygons(m.Vertices, m.Faces, halfWidth, s)
	g := NewGrid(s, halfWidth)
	inBand := func(n int) bool { return band.data[n] < halfWidth }
	parallel.For(s.Len(), func(_, start, end int) {
		for n := start; n < end; n++ {
			if !inBand(n) {
				continue
			}
			ijk := s.Coord(n)
			d := sdf.Evaluate(r3.Vec{X: float64(ijk[0]), Y: float64(ijk[1]), Z: float64(ijk[2])})
			g.data[n] = d3.Clamp(d, -halfWidth, halfWidth)
		}
	})
	// Voxels outside the band are outside when connected to the
	// grid boundary without crossing the band.
	outside := floodOutside(s, inBand)
	for n := range g.data {
		if !inBand(n) && !outside[n] {
			g.data[n] = -halfWidth
		}
	}
	return g, nil
}

// floodOutside marks all voxels reachable from the shape's boundary
// through voxels for which blocked returns false.
func floodOutside(s Shape, blocked func(n int) bool) []bool {
	visited := make([]bool, s.Len())
	var stack []int
	push := func(ijk [3]int) {
		if !s.Contains(ijk) {
			return
		}
		n := s.Offset(ijk)
		if visited[n] || blocked(n) {
			return
		}
		visited[n] = true
		stack = append(stack, n)
	}
	for n := 0; n < s.Len(); n++ {
		ijk := s.Coord(n)
		for a := 0; a < 3; a++ {
			if ijk[a] == s.Min[a] || ijk[a] == s.Min[a]+s.Dims[a]-1 {
				push(ijk)
				break
			}
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ijk := s.Coord(n)
		for a := 0; a < 3; a++ {
			lo, hi := ijk, ijk
			lo[a]--
			hi[a]++
			push(lo)
			push(hi)
		}
	}
	return visited
}

// SignedFromFunc samples the signed distance function f, given in world
// coordinates, over shape s through the map wm. Values are clamped to
// ±halfWidth voxels.
func SignedFromFunc(f func(r3.Vec) float64, wm Map, s Shape, halfWidth float64) *Grid {
	g := NewGrid(s, halfWidth)
	inv := 1 / wm.VoxelSize()
	parallel.For(s.Len(), func(_, start, end int) {
		for n := start; n < end; n++ {
			ijk := s.Coord(n)
			p := wm.ApplyMap(r3.Vec{X: float64(ijk[0]), Y: float64(ijk[1]), Z: float64(ijk[2])})
			g.data[n] = d3.Clamp(f(p)*inv, -halfWidth, halfWidth)
		}
	})
	return g
}
