// Package mesh implements indexed polygon meshes made of triangles and
// quadrilaterals. Meshes are the explicit surfaces exchanged between
// level sets, constellations and file formats.
package mesh

import (
	"math"

	"github.com/soypat/springls/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Unused is the value of the fourth face index of a triangle.
const Unused = -1

// Mesh is an indexed polygon mesh. Faces hold four vertex indices,
// triangles carry Unused in the last slot. TriIndexes and QuadIndexes
// are the same faces flattened into per-primitive index streams.
type Mesh struct {
	Vertices      []r3.Vec
	VertexNormals []r3.Vec
	// VertexVelocity is optional. When not empty it is index aligned with Vertices.
	VertexVelocity []r3.Vec
	Faces          [][4]int
	TriIndexes     []int
	QuadIndexes    []int
}

// FaceSize returns 3 for triangles and 4 for quadrilaterals.
func FaceSize(f [4]int) int {
	if f[3] == Unused {
		return 3
	}
	return 4
}

// AddTriangle appends a triangle face referencing existing vertices.
func (m *Mesh) AddTriangle(a, b, c int) {
	m.Faces = append(m.Faces, [4]int{a, b, c, Unused})
	m.TriIndexes = append(m.TriIndexes, a, b, c)
}

// AddQuad appends a quadrilateral face referencing existing vertices.
func (m *Mesh) AddQuad(a, b, c, d int) {
	m.Faces = append(m.Faces, [4]int{a, b, c, d})
	m.QuadIndexes = append(m.QuadIndexes, a, b, c, d)
}

// Reset empties the mesh keeping allocated storage.
func (m *Mesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.VertexNormals = m.VertexNormals[:0]
	m.VertexVelocity = m.VertexVelocity[:0]
	m.Faces = m.Faces[:0]
	m.TriIndexes = m.TriIndexes[:0]
	m.QuadIndexes = m.QuadIndexes[:0]
}

// Polygon appends the vertices of face i to dst.
func (m *Mesh) Polygon(dst []r3.Vec, i int) []r3.Vec {
	f := m.Faces[i]
	for k := 0; k < FaceSize(f); k++ {
		dst = append(dst, m.Vertices[f[k]])
	}
	return dst
}

// Triangles returns the mesh as a triangle soup. Quads are split along
// their first diagonal.
func (m *Mesh) Triangles() [][3]r3.Vec {
	tris := make([][3]r3.Vec, 0, len(m.TriIndexes)/3+len(m.QuadIndexes)/2)
	for _, f := range m.Faces {
		v := m.Vertices
		tris = append(tris, [3]r3.Vec{v[f[0]], v[f[1]], v[f[2]]})
		if f[3] != Unused {
			tris = append(tris, [3]r3.Vec{v[f[0]], v[f[2]], v[f[3]]})
		}
	}
	return tris
}

// Bounds returns the bounding box of all vertices.
func (m *Mesh) Bounds() d3.Box {
	bb := d3.EmptyBox()
	for _, v := range m.Vertices {
		bb = bb.Include(v)
	}
	return bb
}

// FaceNormal returns the area weighted normal of face i. Its length
// is twice the face area.
func (m *Mesh) FaceNormal(i int) r3.Vec {
	f := m.Faces[i]
	K := FaceSize(f)
	var n r3.Vec
	for k := 0; k < K; k++ {
		n = r3.Add(n, r3.Cross(m.Vertices[f[k]], m.Vertices[f[(k+1)%K]]))
	}
	return n
}

// UpdateVertexNormals recomputes vertex normals as the normalized sum
// of the area weighted normals of adjacent faces.
func (m *Mesh) UpdateVertexNormals() {
	m.VertexNormals = resize(m.VertexNormals, len(m.Vertices))
	for i := range m.VertexNormals {
		m.VertexNormals[i] = r3.Vec{}
	}
	for i, f := range m.Faces {
		n := m.FaceNormal(i)
		for k := 0; k < FaceSize(f); k++ {
			m.VertexNormals[f[k]] = r3.Add(m.VertexNormals[f[k]], n)
		}
	}
	for i, n := range m.VertexNormals {
		m.VertexNormals[i] = normalize(n, 1e-6)
	}
}

// Dilate moves every vertex a distance d along its vertex normal.
// Vertex normals must be up to date.
func (m *Mesh) Dilate(d float64) {
	if len(m.VertexNormals) != len(m.Vertices) {
		panic("mesh: dilate requires vertex normals")
	}
	for i, n := range m.VertexNormals {
		m.Vertices[i] = r3.Add(m.Vertices[i], r3.Scale(d, n))
	}
}

// Transform applies t to all vertices and rotates the vertex normals.
func (m *Mesh) Transform(t d3.Transform) {
	for i, v := range m.Vertices {
		m.Vertices[i] = t.Transform(v)
	}
	for i, n := range m.VertexNormals {
		m.VertexNormals[i] = t.Rotate(n)
	}
}

// MapIntoBoundingBox scales and translates the mesh so its bounding box
// is centered in box and fits within it, preserving the aspect ratio.
// It returns the transform applied.
func (m *Mesh) MapIntoBoundingBox(box d3.Box) d3.Transform {
	bb := m.Bounds()
	if bb.Empty() {
		return d3.Transform{}
	}
	size := d3.Max(bb.Size())
	if size == 0 {
		return d3.Transform{}
	}
	fit := box.Size()
	s := math.Min(fit.X, math.Min(fit.Y, fit.Z)) / size
	t := d3.NewTransform(r3.Rotation{}, s, r3.Sub(box.Center(), r3.Scale(s, bb.Center())))
	m.Transform(t)
	return t
}

// Clone returns a deep copy of m.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices:       append([]r3.Vec(nil), m.Vertices...),
		VertexNormals:  append([]r3.Vec(nil), m.VertexNormals...),
		VertexVelocity: append([]r3.Vec(nil), m.VertexVelocity...),
		Faces:          append([][4]int(nil), m.Faces...),
		TriIndexes:     append([]int(nil), m.TriIndexes...),
		QuadIndexes:    append([]int(nil), m.QuadIndexes...),
	}
}

// Area returns the total surface area of the mesh.
func (m *Mesh) Area() float64 {
	var a float64
	for i := range m.Faces {
		a += 0.5 * r3.Norm(m.FaceNormal(i))
	}
	return a
}

func normalize(v r3.Vec, eps float64) r3.Vec {
	l := r3.Norm(v)
	if l < eps {
		return r3.Vec{}
	}
	return r3.Scale(1/l, v)
}

func resize(s []r3.Vec, n int) []r3.Vec {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]r3.Vec, n)
}
