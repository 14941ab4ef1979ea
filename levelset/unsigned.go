package levelset

import (
	"math"

	"github.com/soypat/springls/internal/d3"
	"github.com/soypat/springls/internal/parallel"
	"github.com/soypat/springls/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// UnsignedFromPolygons rasterizes the unsigned distance to the polygons
// given by faces over shape s. Voxels further than bandwidth from every
// polygon hold bandwidth. The returned index grid stores for each voxel in
// the band the index in faces of the nearest polygon.
func UnsignedFromPolygons(vertices []r3.Vec, faces [][4]int, bandwidth float64, s Shape) (*Grid, *IndexGrid) {
	dist := NewGrid(s, bandwidth)
	index := NewIndexGrid(s)
	band2 := bandwidth * bandwidth
	for i := range dist.data {
		dist.data[i] = band2
	}
	type polyBox struct{ lo, hi [3]int }
	boxes := make([]polyBox, len(faces))
	for i, f := range faces {
		bb := d3.EmptyBox()
		for k := 0; k < mesh.FaceSize(f); k++ {
			bb = bb.Include(vertices[f[k]])
		}
		lo := d3.FloorElem(r3.Sub(bb.Min, d3.Elem(bandwidth)))
		hi := d3.FloorElem(r3.Add(bb.Max, d3.Elem(bandwidth+1)))
		boxes[i] = polyBox{
			lo: [3]int{int(lo.X), int(lo.Y), int(lo.Z)},
			hi: [3]int{int(hi.X), int(hi.Y), int(hi.Z)},
		}
	}
	// Each worker owns a slab of Z layers so writes never overlap.
	parallel.ForGrain(s.Dims[2], 1, func(_, start, end int) {
		zlo, zhi := s.Min[2]+start, s.Min[2]+end-1
		for id, f := range faces {
			b := boxes[id]
			if b.hi[2] < zlo || b.lo[2] > zhi {
				continue
			}
			var tris [2][3]r3.Vec
			ntri := 1
			tris[0] = [3]r3.Vec{vertices[f[0]], vertices[f[1]], vertices[f[2]]}
			if f[3] != mesh.Unused {
				tris[1] = [3]r3.Vec{vertices[f[0]], vertices[f[2]], vertices[f[3]]}
				ntri = 2
			}
			for k := imax(b.lo[2], zlo); k <= imin(b.hi[2], zhi); k++ {
				for j := imax(b.lo[1], s.Min[1]); j <= imin(b.hi[1], s.Min[1]+s.Dims[1]-1); j++ {
					for i := imax(b.lo[0], s.Min[0]); i <= imin(b.hi[0], s.Min[0]+s.Dims[0]-1); i++ {
						ijk := [3]int{i, j, k}
						p := r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)}
						d2 := math.MaxFloat64
						for t := 0; t < ntri; t++ {
							c, _ := d3.ClosestOnTriangle(p, tris[t])
							d2 = math.Min(d2, r3.Norm2(r3.Sub(p, c)))
						}
						n := s.Offset(ijk)
						if d2 < dist.data[n] {
							dist.data[n] = d2
							index.data[n] = int32(id)
						}
					}
				}
			}
		}
	})
	parallel.For(len(dist.data), func(_, start, end int) {
		for n := start; n < end; n++ {
			dist.data[n] = math.Sqrt(dist.data[n])
		}
	})
	return dist, index
}

// AdvectionForce returns the vector field that pulls the zero crossing of
// a signed grid toward the surface described by the unsigned distance grid
// dist. Speeds are limited to one voxel per unit time.
func AdvectionForce(dist *Grid) *VectorGrid {
	force := NewVectorGrid(dist.Shape)
	parallel.For(dist.Len(), func(_, start, end int) {
		for n := start; n < end; n++ {
			d := dist.data[n]
			if d >= dist.Background {
				continue
			}
			ijk := dist.Coord(n)
			grad := dist.Gradient(ijk)
			l := r3.Norm(grad)
			if l < 1e-6 {
				continue
			}
			force.data[n] = r3.Scale(-math.Min(d, 1)/l, grad)
		}
	})
	return force
}

func imin(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func imax(a, b int) int {
	if a > b {
		return a
	}
	return b
}
