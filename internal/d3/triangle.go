package d3

import "gonum.org/v1/gonum/spatial/r3"

// Feature identifies the part of a triangle that is closest to a point.
type Feature int

const (
	FeatureV0 Feature = iota
	FeatureV1
	FeatureV2
	// FeatureE0 is the edge from vertex 0 to vertex 1. FeatureE1 and
	// FeatureE2 follow in winding order.
	FeatureE0
	FeatureE1
	FeatureE2
	FeatureFace
)

// IsVertex reports whether f is one of the three triangle vertices.
func (f Feature) IsVertex() bool { return f <= FeatureV2 }

// IsEdge reports whether f is one of the three triangle edges.
func (f Feature) IsEdge() bool { return f >= FeatureE0 && f <= FeatureE2 }

// ClosestOnSegment returns the point of segment ab closest to p
// and its parameter t in [0,1] along ab.
func ClosestOnSegment(p, a, b r3.Vec) (r3.Vec, float64) {
	ab := r3.Sub(b, a)
	l2 := r3.Norm2(ab)
	if l2 == 0 {
		return a, 0
	}
	t := Clamp(r3.Dot(r3.Sub(p, a), ab)/l2, 0, 1)
	return r3.Add(a, r3.Scale(t, ab)), t
}

// ClosestOnTriangle returns the point of triangle tri closest to p and
// the triangle feature that point lies on.
func ClosestOnTriangle(p r3.Vec, tri [3]r3.Vec) (r3.Vec, Feature) {
	a, b, c := tri[0], tri[1], tri[2]
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)
	d1 := r3.Dot(ab, ap)
	d2 := r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a, FeatureV0
	}
	bp := r3.Sub(p, b)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b, FeatureV1
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return r3.Add(a, r3.Scale(v, ab)), FeatureE0
	}
	cp := r3.Sub(p, c)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c, FeatureV2
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return r3.Add(a, r3.Scale(w, ac)), FeatureE2
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return r3.Add(b, r3.Scale(w, r3.Sub(c, b))), FeatureE1
	}
	sum := va + vb + vc
	if sum == 0 {
		// Degenerate triangle, fall back to the closest edge.
		best, feat := a, FeatureV0
		bestD := r3.Norm2(r3.Sub(p, a))
		for k := 0; k < 3; k++ {
			q, _ := ClosestOnSegment(p, tri[k], tri[(k+1)%3])
			if d := r3.Norm2(r3.Sub(p, q)); d < bestD {
				best, bestD, feat = q, d, FeatureE0+Feature(k)
			}
		}
		return best, feat
	}
	denom := 1 / sum
	v := vb * denom
	w := vc * denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac))), FeatureFace
}

// Normal returns the unnormalized normal of tri following the right hand rule.
func Normal(tri [3]r3.Vec) r3.Vec {
	return r3.Cross(r3.Sub(tri[1], tri[0]), r3.Sub(tri[2], tri[0]))
}
