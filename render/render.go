// Package render exports meshes, constellations and level set
// iso-surfaces as triangle streams, STL files and PNG previews.
package render

import (
	"io"

	"github.com/soypat/springls/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Renderer streams triangles. ReadTriangles returns io.EOF once every
// triangle has been read.
type Renderer interface {
	ReadTriangles(t [][3]r3.Vec) (int, error)
}

// MeshRenderer streams the faces of a mesh as triangles. Quads are
// split along their first diagonal.
type MeshRenderer struct {
	m         *mesh.Mesh
	transform func(r3.Vec) r3.Vec
	face      int
	// second half of a quad that did not fit the last buffer.
	pending    [3]r3.Vec
	hasPending bool
}

var _ Renderer = (*MeshRenderer)(nil)

// NewMeshRenderer returns a renderer of m. Vertices are passed through
// transform before being emitted. A nil transform is the identity, a
// level set map's ApplyMap yields world space output.
func NewMeshRenderer(m *mesh.Mesh, transform func(r3.Vec) r3.Vec) *MeshRenderer {
	if transform == nil {
		transform = func(v r3.Vec) r3.Vec { return v }
	}
	return &MeshRenderer{m: m, transform: transform}
}

// ReadTriangles implements Renderer.
func (r *MeshRenderer) ReadTriangles(dst [][3]r3.Vec) (n int, err error) {
	if r.hasPending && n < len(dst) {
		dst[n] = r.pending
		r.hasPending = false
		n++
	}
	v := r.m.Vertices
	for n < len(dst) && r.face < len(r.m.Faces) {
		f := r.m.Faces[r.face]
		r.face++
		dst[n] = [3]r3.Vec{r.transform(v[f[0]]), r.transform(v[f[1]]), r.transform(v[f[2]])}
		n++
		if f[3] == mesh.Unused {
			continue
		}
		quad := [3]r3.Vec{r.transform(v[f[0]]), r.transform(v[f[2]]), r.transform(v[f[3]])}
		if n == len(dst) {
			r.pending, r.hasPending = quad, true
			break
		}
		dst[n] = quad
		n++
	}
	if n == 0 && !r.hasPending && r.face >= len(r.m.Faces) {
		return 0, io.EOF
	}
	return n, nil
}

// Reset rewinds the renderer to the first face.
func (r *MeshRenderer) Reset() {
	r.face = 0
	r.hasPending = false
}
