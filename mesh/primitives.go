package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Icosphere returns a closed triangulated sphere obtained by subdividing
// an icosahedron. Faces are wound counter-clockwise seen from outside.
func Icosphere(center r3.Vec, radius float64, subdivisions int) *Mesh {
	phi := (1 + math.Sqrt(5)) / 2
	verts := []r3.Vec{
		{X: -1, Y: phi}, {X: 1, Y: phi}, {X: -1, Y: -phi}, {X: 1, Y: -phi},
		{Y: -1, Z: phi}, {Y: 1, Z: phi}, {Y: -1, Z: -phi}, {Y: 1, Z: -phi},
		{X: phi, Z: -1}, {X: phi, Z: 1}, {X: -phi, Z: -1}, {X: -phi, Z: 1},
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	for i := range verts {
		verts[i] = r3.Unit(verts[i])
	}
	for s := 0; s < subdivisions; s++ {
		midpoints := make(map[[2]int]int)
		mid := func(a, b int) int {
			key := [2]int{a, b}
			if a > b {
				key = [2]int{b, a}
			}
			if i, ok := midpoints[key]; ok {
				return i
			}
			verts = append(verts, r3.Unit(r3.Add(verts[a], verts[b])))
			midpoints[key] = len(verts) - 1
			return len(verts) - 1
		}
		next := make([][3]int, 0, 4*len(faces))
		for _, f := range faces {
			ab, bc, ca := mid(f[0], f[1]), mid(f[1], f[2]), mid(f[2], f[0])
			next = append(next,
				[3]int{f[0], ab, ca}, [3]int{f[1], bc, ab},
				[3]int{f[2], ca, bc}, [3]int{ab, bc, ca},
			)
		}
		faces = next
	}
	m := &Mesh{Vertices: make([]r3.Vec, len(verts))}
	for i, v := range verts {
		m.Vertices[i] = r3.Add(center, r3.Scale(radius, v))
	}
	for _, f := range faces {
		m.AddTriangle(f[0], f[1], f[2])
	}
	m.UpdateVertexNormals()
	return m
}

// Box returns a closed axis aligned box made of six quads wound
// counter-clockwise seen from outside.
func Box(min, max r3.Vec) *Mesh {
	m := &Mesh{Vertices: []r3.Vec{
		{X: min.X, Y: min.Y, Z: min.Z}, {X: max.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: max.Y, Z: min.Z}, {X: min.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: min.Y, Z: max.Z}, {X: max.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: max.Y, Z: max.Z}, {X: min.X, Y: max.Y, Z: max.Z},
	}}
	m.AddQuad(0, 3, 2, 1) // -z
	m.AddQuad(4, 5, 6, 7) // +z
	m.AddQuad(0, 1, 5, 4) // -y
	m.AddQuad(2, 3, 7, 6) // +y
	m.AddQuad(0, 4, 7, 3) // -x
	m.AddQuad(1, 2, 6, 5) // +x
	m.UpdateVertexNormals()
	return m
}
