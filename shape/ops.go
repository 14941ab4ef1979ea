package shape

import (
	"math"

	"github.com/soypat/springls/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// MinFunc joins two distances. math.Min gives a sharp union.
type MinFunc func(a, b float64) float64

// MaxFunc joins two distances. math.Max gives a sharp intersection.
type MaxFunc func(a, b float64) float64

func poly(a, b, k float64) float64 {
	h := d3.Clamp(0.5+0.5*(b-a)/k, 0, 1)
	return b + h*(a-b) - k*h*(1-h)
}

// PolyMin returns a polynomial smooth minimum. Try k = 0.1, a bigger k
// gives a bigger fillet.
func PolyMin(k float64) MinFunc {
	return func(a, b float64) float64 { return poly(a, b, k) }
}

// PolyMax returns the polynomial smooth maximum matching PolyMin.
func PolyMax(k float64) MaxFunc {
	return func(a, b float64) float64 { return -poly(-a, -b, k) }
}

// ExpMin returns a minimum function with exponential smoothing (k = 32).
func ExpMin(k float64) MinFunc {
	return func(a, b float64) float64 {
		return -math.Log(math.Exp(-k*a)+math.Exp(-k*b)) / k
	}
}

type union struct {
	sdfs []SDF
	min  MinFunc
	bb   d3.Box
}

// Union returns the union of shapes. It panics if shapes is empty.
func Union(shapes ...SDF) SDF { return SmoothUnion(math.Min, shapes...) }

// SmoothUnion returns the union of shapes joined with min.
func SmoothUnion(min MinFunc, shapes ...SDF) SDF {
	if len(shapes) == 0 {
		panic("shape: union of no shapes")
	}
	if len(shapes) == 1 {
		return shapes[0]
	}
	u := &union{sdfs: shapes, min: min, bb: d3.EmptyBox()}
	for _, s := range shapes {
		u.bb = u.bb.Extend(s.Bounds())
	}
	return u
}

func (u *union) Evaluate(p r3.Vec) float64 {
	d := u.sdfs[0].Evaluate(p)
	for _, s := range u.sdfs[1:] {
		d = u.min(d, s.Evaluate(p))
	}
	return d
}

func (u *union) Bounds() d3.Box { return u.bb }

type diff struct {
	s0, s1 SDF
	max    MaxFunc
}

// Difference returns s0 with s1 removed.
func Difference(s0, s1 SDF) SDF { return SmoothDifference(math.Max, s0, s1) }

// SmoothDifference returns s0 with s1 removed, joined with max.
func SmoothDifference(max MaxFunc, s0, s1 SDF) SDF {
	if s0 == nil || s1 == nil {
		panic("shape: nil argument to difference")
	}
	return &diff{s0: s0, s1: s1, max: max}
}

func (d *diff) Evaluate(p r3.Vec) float64 { return d.max(d.s0.Evaluate(p), -d.s1.Evaluate(p)) }

func (d *diff) Bounds() d3.Box { return d.s0.Bounds() }

type intersection struct {
	s0, s1 SDF
	bb     d3.Box
}

// Intersect returns the region inside both s0 and s1.
func Intersect(s0, s1 SDF) SDF {
	if s0 == nil || s1 == nil {
		panic("shape: nil argument to intersection")
	}
	a, b := s0.Bounds(), s1.Bounds()
	bb := d3.Box{Min: d3.MaxElem(a.Min, b.Min), Max: d3.MinElem(a.Max, b.Max)}
	return &intersection{s0: s0, s1: s1, bb: bb}
}

func (s *intersection) Evaluate(p r3.Vec) float64 {
	return math.Max(s.s0.Evaluate(p), s.s1.Evaluate(p))
}

func (s *intersection) Bounds() d3.Box { return s.bb }

type offset struct {
	sdf SDF
	d   float64
}

// Offset grows s by distance d, or shrinks it when d is negative.
func Offset(s SDF, d float64) SDF { return offset{sdf: s, d: d} }

func (o offset) Evaluate(p r3.Vec) float64 { return o.sdf.Evaluate(p) - o.d }

func (o offset) Bounds() d3.Box {
	bb := o.sdf.Bounds()
	return d3.NewBox(bb.Center(), r3.Add(bb.Size(), d3.Elem(2*o.d)))
}

type shell struct {
	sdf   SDF
	delta float64
}

// Shell returns a hollow shell of the given thickness centered on the
// surface of s.
func Shell(s SDF, thickness float64) SDF {
	if thickness <= 0 {
		panic("shape: shell thickness must be positive")
	}
	return shell{sdf: s, delta: thickness / 2}
}

func (s shell) Evaluate(p r3.Vec) float64 { return math.Abs(s.sdf.Evaluate(p)) - s.delta }

func (s shell) Bounds() d3.Box { return s.sdf.Bounds().Enlarge(d3.Elem(2 * s.delta)) }
