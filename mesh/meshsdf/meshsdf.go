// Package meshsdf evaluates the signed distance to a closed polygon mesh.
// Signs are resolved with angle weighted pseudo normals so the result is
// exact for watertight, consistently oriented meshes.
package meshsdf

import (
	"errors"
	"math"

	"github.com/soypat/springls/internal/d3"
	"github.com/soypat/springls/mesh"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// SDF is the signed distance field of a mesh. It is safe for
// concurrent use once created.
type SDF struct {
	tree  *kdtree.Tree
	verts []pseudoVertex
	faces faceList
	// access to edge pseudo normals using vertex index.
	// Stored with lower index first.
	pseudoEdgeN map[[2]int]r3.Vec
	// maxRadius is the largest distance between a face's centroid and its vertices.
	maxRadius float64
	bb        d3.Box
}

type pseudoVertex struct {
	V r3.Vec
	// N is the weighted pseudo normal where the weights
	// are the opening angle formed by edges for the triangle.
	N r3.Vec
}

// New builds the signed distance field of m. Quads are split into triangles.
func New(m *mesh.Mesh) (*SDF, error) {
	if len(m.Faces) == 0 {
		return nil, errors.New("meshsdf: mesh has no faces")
	}
	s := &SDF{
		verts:       make([]pseudoVertex, len(m.Vertices)),
		pseudoEdgeN: make(map[[2]int]r3.Vec),
		bb:          m.Bounds(),
	}
	for i, v := range m.Vertices {
		s.verts[i].V = v
	}
	addTri := func(vi [3]int) {
		tri := [3]r3.Vec{m.Vertices[vi[0]], m.Vertices[vi[1]], m.Vertices[vi[2]]}
		norm := d3.Normal(tri)
		if r3.Norm2(norm) == 0 {
			return
		}
		norm = r3.Unit(norm)
		c := d3.Set(tri[:]).Centroid()
		for j := range tri {
			s.maxRadius = math.Max(s.maxRadius, r3.Norm(r3.Sub(tri[j], c)))
			// Calculate vertex pseudo normal
			s1, s2 := r3.Sub(tri[(j+1)%3], tri[j]), r3.Sub(tri[(j+2)%3], tri[j])
			alpha := math.Acos(d3.Clamp(r3.Cos(s1, s2), -1, 1))
			s.verts[vi[j]].N = r3.Add(s.verts[vi[j]].N, r3.Scale(alpha, norm))
			edge := edgeKey(vi[j], vi[(j+1)%3])
			s.pseudoEdgeN[edge] = r3.Add(s.pseudoEdgeN[edge], r3.Scale(math.Pi, norm))
		}
		s.faces = append(s.faces, face{c: c, v: vi, n: norm})
	}
	for _, f := range m.Faces {
		addTri([3]int{f[0], f[1], f[2]})
		if f[3] != mesh.Unused {
			addTri([3]int{f[0], f[2], f[3]})
		}
	}
	if len(s.faces) == 0 {
		return nil, errors.New("meshsdf: all faces are degenerate")
	}
	s.tree = kdtree.New(&s.faces, true)
	return s, nil
}

// Evaluate returns the signed distance from p to the mesh surface.
// Points outside the mesh are positive.
func (s *SDF) Evaluate(p r3.Vec) float64 {
	d, _ := s.closest(p)
	return d
}

// Bounds returns the bounding box of the mesh.
func (s *SDF) Bounds() d3.Box { return s.bb }

func (s *SDF) closest(p r3.Vec) (float64, r3.Vec) {
	q := &face{c: p}
	got, _ := s.tree.Nearest(q)
	best := got.(*face)
	closest, feat := s.closestOnFace(p, best)
	bestD2 := r3.Norm2(r3.Sub(p, closest))
	// Faces whose centroid lies further than this can not be closer
	// than the face of the nearest centroid.
	r := math.Sqrt(bestD2) + s.maxRadius
	keep := kdtree.NewDistKeeper(r * r)
	s.tree.NearestSet(keep, q)
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		f := c.Comparable.(*face)
		if f == best {
			continue
		}
		pt, ft := s.closestOnFace(p, f)
		if d2 := r3.Norm2(r3.Sub(p, pt)); d2 < bestD2 {
			best, closest, feat, bestD2 = f, pt, ft, d2
		}
	}
	return s.copySign(p, best, closest, feat, math.Sqrt(bestD2)), closest
}

func (s *SDF) closestOnFace(p r3.Vec, f *face) (r3.Vec, d3.Feature) {
	return d3.ClosestOnTriangle(p, [3]r3.Vec{
		s.verts[f.v[0]].V, s.verts[f.v[1]].V, s.verts[f.v[2]].V,
	})
}

// copySign returns a value with the magnitude of dist and the sign depending
// on which side of the pseudo normal of the closest feature p lies.
func (s *SDF) copySign(p r3.Vec, f *face, closest r3.Vec, feat d3.Feature, dist float64) float64 {
	var signed float64
	switch {
	case feat.IsVertex():
		vertex := s.verts[f.v[feat-d3.FeatureV0]]
		signed = r3.Dot(vertex.N, r3.Sub(p, vertex.V))
	case feat.IsEdge():
		v1 := int(feat - d3.FeatureE0)
		norm := s.pseudoEdgeN[edgeKey(f.v[v1], f.v[(v1+1)%3])]
		signed = r3.Dot(norm, r3.Sub(p, closest))
	default:
		signed = r3.Dot(f.n, r3.Sub(p, closest))
	}
	return math.Copysign(dist, signed)
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
