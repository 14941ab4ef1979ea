package mesh

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// FromTriangles builds an indexed mesh from a triangle soup such as the
// contents of an STL file. Vertices closer than tol share an index.
// tol should be of the order of 1/1000th of the size of the smallest
// triangle in the model. If set to 0 then it is inferred automatically.
func FromTriangles(triangles [][3]r3.Vec, tol float64) (*Mesh, error) {
	if len(triangles) == 0 {
		return nil, errors.New("no triangles to weld")
	}
	minDist2 := math.MaxFloat64
	maxDist2 := -math.MaxFloat64
	for i := range triangles {
		for j, vert := range triangles[i] {
			side2 := r3.Norm2(r3.Sub(triangles[i][(j+1)%3], vert))
			minDist2 = math.Min(minDist2, side2)
			maxDist2 = math.Max(maxDist2, side2)
		}
	}
	suggested := math.Sqrt(minDist2) / 256
	if tol > math.Sqrt(maxDist2)/2 {
		return nil, fmt.Errorf("vertex tolerance is too large to weld mesh, suggested tolerance: %g", suggested)
	}
	if tol == 0 {
		tol = suggested
	}
	if tol == 0 {
		return nil, errors.New("mesh contains degenerate triangles, specify a tolerance")
	}
	ri := 1 / tol
	m := &Mesh{}
	cache := make(map[[3]int64]int)
	var idx [3]int
	for _, tri := range triangles {
		for j, vert := range tri {
			// Scale vert to be integer in resolution-space.
			v := r3.Scale(ri, vert)
			if math.Abs(v.X) > math.MaxInt64/2 || math.Abs(v.Y) > math.MaxInt64/2 || math.Abs(v.Z) > math.MaxInt64/2 {
				return nil, errors.New("tolerance too small. overflowed int64")
			}
			key := [3]int64{int64(math.Round(v.X)), int64(math.Round(v.Y)), int64(math.Round(v.Z))}
			vertexIdx, ok := cache[key]
			if !ok {
				vertexIdx = len(m.Vertices)
				cache[key] = vertexIdx
				m.Vertices = append(m.Vertices, vert)
			}
			idx[j] = vertexIdx
		}
		if idx[0] == idx[1] || idx[1] == idx[2] || idx[2] == idx[0] {
			// Collapsed by welding.
			continue
		}
		m.AddTriangle(idx[0], idx[1], idx[2])
	}
	m.UpdateVertexNormals()
	return m, nil
}
