package springls

import (
	"fmt"
	"math"

	"github.com/soypat/springls/internal/d3"
	"github.com/soypat/springls/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Springl is one oriented polygon of a Constellation. Its Size vertices
// are stored contiguously in the constellation's Vertices from Offset.
type Springl struct {
	ID     int
	Offset int
	Size   int
}

// Constellation is a set of springls sharing vertex and particle storage.
// Springls never share vertices. Faces, Particles, ParticleNormals and
// Springls hold one entry per springl. ParticleVelocity and ParticleLabel
// are optional; when not empty they hold one entry per springl too.
// The embedded mesh's VertexVelocity follows the same rule per vertex.
type Constellation struct {
	mesh.Mesh
	Particles        []r3.Vec
	ParticleNormals  []r3.Vec
	ParticleVelocity []r3.Vec
	ParticleLabel    []int
	Springls         []Springl
}

// NewConstellation returns a constellation with one springl per face of m.
// Vertex velocities of m, when present, are copied to the springl vertices
// and averaged into particle velocities.
func NewConstellation(m *mesh.Mesh) *Constellation {
	c := &Constellation{}
	c.Create(m)
	return c
}

// Create replaces the contents of c with one springl per face of m.
func (c *Constellation) Create(m *mesh.Mesh) {
	c.Reset()
	withVelocity := len(m.Vertices) > 0 && len(m.VertexVelocity) == len(m.Vertices)
	var poly [4]r3.Vec
	for _, f := range m.Faces {
		size := mesh.FaceSize(f)
		for k := 0; k < size; k++ {
			poly[k] = m.Vertices[f[k]]
		}
		c.add(poly[:size])
	}
	if !withVelocity {
		return
	}
	c.VertexVelocity = make([]r3.Vec, 0, len(c.Vertices))
	c.ParticleVelocity = make([]r3.Vec, 0, len(c.Springls))
	for _, f := range m.Faces {
		size := mesh.FaceSize(f)
		var mean r3.Vec
		for k := 0; k < size; k++ {
			v := m.VertexVelocity[f[k]]
			c.VertexVelocity = append(c.VertexVelocity, v)
			mean = r3.Add(mean, v)
		}
		c.ParticleVelocity = append(c.ParticleVelocity, r3.Scale(1/float64(size), mean))
	}
}

// Reset removes all springls keeping allocated storage.
func (c *Constellation) Reset() {
	c.Mesh.Reset()
	c.Particles = c.Particles[:0]
	c.ParticleNormals = c.ParticleNormals[:0]
	c.ParticleVelocity = c.ParticleVelocity[:0]
	c.ParticleLabel = c.ParticleLabel[:0]
	c.Springls = c.Springls[:0]
}

// NumSpringls returns the number of springls.
func (c *Constellation) NumSpringls() int { return len(c.Springls) }

// NumVertices returns the number of springl vertices.
func (c *Constellation) NumVertices() int { return len(c.Vertices) }

// add appends a springl with the vertices of poly. Optional arrays in use
// are extended with zero values. It returns the new springl's id.
func (c *Constellation) add(poly []r3.Vec) int {
	s := Springl{ID: len(c.Springls), Offset: len(c.Vertices), Size: len(poly)}
	face := [4]int{s.Offset, s.Offset + 1, s.Offset + 2, mesh.Unused}
	if s.Size == 4 {
		face[3] = s.Offset + 3
		c.QuadIndexes = append(c.QuadIndexes, face[:]...)
	} else {
		c.TriIndexes = append(c.TriIndexes, face[:3]...)
	}
	c.Faces = append(c.Faces, face)
	c.Vertices = append(c.Vertices, poly...)
	c.Springls = append(c.Springls, s)
	c.Particles = append(c.Particles, c.ComputeCentroid(s.ID))
	norm := c.ComputeNormal(s.ID)
	c.ParticleNormals = append(c.ParticleNormals, norm)
	for range poly {
		c.VertexNormals = append(c.VertexNormals, norm)
	}
	if len(c.ParticleVelocity) > 0 {
		c.ParticleVelocity = append(c.ParticleVelocity, r3.Vec{})
	}
	if len(c.VertexVelocity) > 0 {
		c.VertexVelocity = append(c.VertexVelocity, make([]r3.Vec, s.Size)...)
	}
	if len(c.ParticleLabel) > 0 {
		c.ParticleLabel = append(c.ParticleLabel, 0)
	}
	return s.ID
}

// Vertex returns vertex k of springl id.
func (c *Constellation) Vertex(id, k int) r3.Vec {
	return c.Vertices[c.Springls[id].Offset+k]
}

// ComputeCentroid returns the mean of the vertices of springl id.
func (c *Constellation) ComputeCentroid(id int) r3.Vec {
	s := c.Springls[id]
	return d3.Set(c.Vertices[s.Offset : s.Offset+s.Size]).Centroid()
}

// ComputeNormal returns the unit normal of springl id about its particle.
// Degenerate springls have a zero normal.
func (c *Constellation) ComputeNormal(id int) r3.Vec {
	n := c.crossSum(id)
	l := r3.Norm(n)
	if l < 1e-6 {
		return r3.Vec{}
	}
	return r3.Scale(1/l, n)
}

// Area returns the area of springl id measured as a fan about its particle.
func (c *Constellation) Area(id int) float64 {
	return 0.5 * r3.Norm(c.crossSum(id))
}

func (c *Constellation) crossSum(id int) r3.Vec {
	s := c.Springls[id]
	p := c.Particles[id]
	var sum r3.Vec
	for k := 0; k < s.Size; k++ {
		a := r3.Sub(c.Vertices[s.Offset+k], p)
		b := r3.Sub(c.Vertices[s.Offset+(k+1)%s.Size], p)
		sum = r3.Add(sum, r3.Cross(a, b))
	}
	return sum
}

// EdgeRange returns the shortest and longest edge lengths of springl id.
func (c *Constellation) EdgeRange(id int) (min, max float64) {
	s := c.Springls[id]
	min, max = math.Inf(1), math.Inf(-1)
	for k := 0; k < s.Size; k++ {
		l := r3.Norm(r3.Sub(c.Vertices[s.Offset+k], c.Vertices[s.Offset+(k+1)%s.Size]))
		min = math.Min(min, l)
		max = math.Max(max, l)
	}
	return min, max
}

// AspectRatio returns the ratio of shortest to longest edge of springl id.
func (c *Constellation) AspectRatio(id int) float64 {
	min, max := c.EdgeRange(id)
	if max <= 0 {
		return 0
	}
	return min / max
}

// ClosestPointOnEdge returns the point of edge e of springl id closest to p.
// Edge e joins vertex e to vertex e+1.
func (c *Constellation) ClosestPointOnEdge(p r3.Vec, id, e int) r3.Vec {
	s := c.Springls[id]
	q, _ := d3.ClosestOnSegment(p, c.Vertices[s.Offset+e], c.Vertices[s.Offset+(e+1)%s.Size])
	return q
}

// DistanceToEdgeSqr returns the squared distance from p to edge e of springl id.
func (c *Constellation) DistanceToEdgeSqr(p r3.Vec, id, e int) float64 {
	return r3.Norm2(r3.Sub(p, c.ClosestPointOnEdge(p, id, e)))
}

// closestOnFace returns the point of springl id closest to p.
func (c *Constellation) closestOnFace(p r3.Vec, id int) r3.Vec {
	s := c.Springls[id]
	v := c.Vertices[s.Offset : s.Offset+s.Size]
	best, _ := d3.ClosestOnTriangle(p, [3]r3.Vec{v[0], v[1], v[2]})
	if s.Size == 4 {
		q, _ := d3.ClosestOnTriangle(p, [3]r3.Vec{v[0], v[2], v[3]})
		if r3.Norm2(r3.Sub(p, q)) < r3.Norm2(r3.Sub(p, best)) {
			best = q
		}
	}
	return best
}

// DistanceToFaceSqr returns the squared distance from p to springl id.
func (c *Constellation) DistanceToFaceSqr(p r3.Vec, id int) float64 {
	return r3.Norm2(r3.Sub(p, c.closestOnFace(p, id)))
}

// SignedDistanceToFace returns the distance from p to springl id, negative
// when p lies behind the springl's particle normal.
func (c *Constellation) SignedDistanceToFace(p r3.Vec, id int) float64 {
	q := c.closestOnFace(p, id)
	d := r3.Norm(r3.Sub(p, q))
	if r3.Dot(r3.Sub(p, q), c.ParticleNormals[id]) < 0 {
		return -d
	}
	return d
}

// SpringlBounds returns the bounding box of springl id.
func (c *Constellation) SpringlBounds(id int) d3.Box {
	s := c.Springls[id]
	bb := d3.EmptyBox()
	for _, v := range c.Vertices[s.Offset : s.Offset+s.Size] {
		bb = bb.Include(v)
	}
	return bb
}

// UpdateVertexNormals recomputes particle normals from the current
// vertices and assigns each springl's normal to its vertices.
func (c *Constellation) UpdateVertexNormals() {
	if len(c.VertexNormals) != len(c.Vertices) {
		c.VertexNormals = make([]r3.Vec, len(c.Vertices))
	}
	for id, s := range c.Springls {
		n := c.ComputeNormal(id)
		c.ParticleNormals[id] = n
		for k := 0; k < s.Size; k++ {
			c.VertexNormals[s.Offset+k] = n
		}
	}
}

// Validate checks that all arrays of c are index aligned.
func (c *Constellation) Validate() error {
	n := len(c.Springls)
	if len(c.Particles) != n || len(c.ParticleNormals) != n || len(c.Faces) != n {
		return fmt.Errorf("springls: %d springls with %d particles, %d normals, %d faces",
			n, len(c.Particles), len(c.ParticleNormals), len(c.Faces))
	}
	if len(c.ParticleVelocity) != 0 && len(c.ParticleVelocity) != n {
		return fmt.Errorf("springls: %d particle velocities for %d springls", len(c.ParticleVelocity), n)
	}
	if len(c.ParticleLabel) != 0 && len(c.ParticleLabel) != n {
		return fmt.Errorf("springls: %d particle labels for %d springls", len(c.ParticleLabel), n)
	}
	nv := len(c.Vertices)
	if len(c.VertexNormals) != nv {
		return fmt.Errorf("springls: %d vertex normals for %d vertices", len(c.VertexNormals), nv)
	}
	if len(c.VertexVelocity) != 0 && len(c.VertexVelocity) != nv {
		return fmt.Errorf("springls: %d vertex velocities for %d vertices", len(c.VertexVelocity), nv)
	}
	offset, tris, quads := 0, 0, 0
	for id, s := range c.Springls {
		if s.ID != id || s.Offset != offset || s.Offset+s.Size > nv {
			return fmt.Errorf("springls: springl %d has id %d, offset %d, size %d", id, s.ID, s.Offset, s.Size)
		}
		if mesh.FaceSize(c.Faces[id]) != s.Size || c.Faces[id][0] != s.Offset {
			return fmt.Errorf("springls: face %d %v does not match springl %+v", id, c.Faces[id], s)
		}
		if s.Size == 4 {
			quads++
		} else {
			tris++
		}
		offset += s.Size
	}
	if offset != nv || len(c.TriIndexes) != 3*tris || len(c.QuadIndexes) != 4*quads {
		return fmt.Errorf("springls: %d vertices, %d tri and %d quad indices for %d triangles and %d quads",
			nv, len(c.TriIndexes), len(c.QuadIndexes), tris, quads)
	}
	return nil
}

// setVelocity assigns v to the particle and vertices of springl id.
func (c *Constellation) setVelocity(id int, v r3.Vec) {
	c.ParticleVelocity[id] = v
	if len(c.VertexVelocity) == 0 {
		return
	}
	s := c.Springls[id]
	for k := 0; k < s.Size; k++ {
		c.VertexVelocity[s.Offset+k] = v
	}
}

// compact keeps only the springls listed in keep, which must be sorted in
// ascending order, and renumbers them in that order.
func (c *Constellation) compact(keep []int) {
	hasPV := len(c.ParticleVelocity) > 0
	hasVV := len(c.VertexVelocity) > 0
	hasLabel := len(c.ParticleLabel) > 0
	c.TriIndexes = c.TriIndexes[:0]
	c.QuadIndexes = c.QuadIndexes[:0]
	offset := 0
	for id, old := range keep {
		s := c.Springls[old]
		c.Particles[id] = c.Particles[old]
		c.ParticleNormals[id] = c.ParticleNormals[old]
		if hasPV {
			c.ParticleVelocity[id] = c.ParticleVelocity[old]
		}
		if hasLabel {
			c.ParticleLabel[id] = c.ParticleLabel[old]
		}
		for k := 0; k < s.Size; k++ {
			c.Vertices[offset+k] = c.Vertices[s.Offset+k]
			c.VertexNormals[offset+k] = c.VertexNormals[s.Offset+k]
			if hasVV {
				c.VertexVelocity[offset+k] = c.VertexVelocity[s.Offset+k]
			}
		}
		face := [4]int{offset, offset + 1, offset + 2, mesh.Unused}
		if s.Size == 4 {
			face[3] = offset + 3
			c.QuadIndexes = append(c.QuadIndexes, face[:]...)
		} else {
			c.TriIndexes = append(c.TriIndexes, face[:3]...)
		}
		c.Faces[id] = face
		c.Springls[id] = Springl{ID: id, Offset: offset, Size: s.Size}
		offset += s.Size
	}
	n := len(keep)
	c.Particles = c.Particles[:n]
	c.ParticleNormals = c.ParticleNormals[:n]
	c.Faces = c.Faces[:n]
	c.Springls = c.Springls[:n]
	if hasPV {
		c.ParticleVelocity = c.ParticleVelocity[:n]
	}
	if hasLabel {
		c.ParticleLabel = c.ParticleLabel[:n]
	}
	c.Vertices = c.Vertices[:offset]
	c.VertexNormals = c.VertexNormals[:offset]
	if hasVV {
		c.VertexVelocity = c.VertexVelocity[:offset]
	}
}
