package meshsdf

import (
	"math"

	"github.com/soypat/springls/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// face is a mesh triangle stored in the k-d tree by its centroid.
// A face with no normal is a query point.
type face struct {
	c r3.Vec // Centroid
	v [3]int
	n r3.Vec
}

func (f *face) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(*face)
	switch d {
	case 0:
		return f.c.X - q.c.X
	case 1:
		return f.c.Y - q.c.Y
	case 2:
		return f.c.Z - q.c.Z
	}
	panic("unreachable")
}

func (f *face) Dims() int { return 3 }

// Distance returns the squared distance between centroids.
func (f *face) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(f.c, c.(*face).c))
}

type faceList []face

// Index returns the ith element of the list of points.
func (fl *faceList) Index(i int) kdtree.Comparable { return &(*fl)[i] }

// Len returns the length of the list.
func (fl *faceList) Len() int { return len(*fl) }

// Pivot partitions the list based on the dimension specified.
func (fl *faceList) Pivot(d kdtree.Dim) int {
	p := kdPlane{dim: d, faces: *fl}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// Slice returns a slice of the list using zero-based half
// open indexing equivalent to built-in slice indexing.
func (fl *faceList) Slice(start, end int) kdtree.Interface {
	s := (*fl)[start:end]
	return &s
}

// Bounds implements the kdtree.Bounder interface and expects
// a calculation based on current faces which may be modified
// by kdtree.New()
func (fl *faceList) Bounds() *kdtree.Bounding {
	min := face{c: d3.Elem(math.MaxFloat64)}
	max := face{c: d3.Elem(-math.MaxFloat64)}
	for _, f := range *fl {
		min.c = d3.MinElem(min.c, f.c)
		max.c = d3.MaxElem(max.c, f.c)
	}
	return &kdtree.Bounding{Min: &min, Max: &max}
}

type kdPlane struct {
	dim   kdtree.Dim
	faces []face
}

func (p kdPlane) Less(i, j int) bool {
	return p.faces[i].Compare(&p.faces[j], p.dim) < 0
}
func (p kdPlane) Swap(i, j int) {
	p.faces[i], p.faces[j] = p.faces[j], p.faces[i]
}
func (p kdPlane) Len() int {
	return len(p.faces)
}
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.faces = p.faces[start:end]
	return p
}
