package d3

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform represents a 3D similarity transformation: a rotation
// followed by a uniform scaling and a translation.
// The zero value of Transform is the identity transform.
type Transform struct {
	// in order to make the zero value of Transform represent the identity
	// transform the rotation's real part and the scale are stored
	// with 1 subtracted:
	//  dq.Real = q.Real-1, ds = s-1
	// We can then check for identity in if blocks like so:
	//  if T == (Transform{})
	dq r3.Rotation
	ds float64
	t  r3.Vec
}

// NewTransform returns the transform that rotates by q, scales by
// scale and then translates by translation. The zero Rotation is
// interpreted as no rotation.
func NewTransform(q r3.Rotation, scale float64, translation r3.Vec) Transform {
	if scale <= 0 {
		panic("transform scale must be positive")
	}
	if q == (r3.Rotation{}) {
		q.Real = 1
	}
	q.Real--
	return Transform{dq: q, ds: scale - 1, t: translation}
}

func (t Transform) rotation() r3.Rotation {
	q := t.dq
	q.Real++
	return q
}

// Transform applies the Transform to the argument vector
// and returns the result.
func (t Transform) Transform(v r3.Vec) r3.Vec {
	if t == (Transform{}) {
		return v
	}
	return r3.Add(r3.Scale(t.ds+1, t.rotation().Rotate(v)), t.t)
}

// Rotate applies only the rotational part of the Transform. It is
// used for direction vectors such as normals.
func (t Transform) Rotate(v r3.Vec) r3.Vec {
	if t.dq == (r3.Rotation{}) {
		return v
	}
	return t.rotation().Rotate(v)
}

// Scale returns the uniform scaling factor of the Transform.
func (t Transform) Scale() float64 { return t.ds + 1 }

// Translation returns the translational part of the Transform.
func (t Transform) Translation() r3.Vec { return t.t }

// Translate adds Vec to the positional Transform.
func (t Transform) Translate(v r3.Vec) Transform {
	t.t = r3.Add(t.t, v)
	return t
}

// Mul returns the composition of t and b. The result applies b first.
func (t Transform) Mul(b Transform) Transform {
	if t == (Transform{}) {
		return b
	}
	if b == (Transform{}) {
		return t
	}
	q := r3.Rotation(quat.Mul(quat.Number(t.rotation()), quat.Number(b.rotation())))
	q.Real--
	return Transform{
		dq: q,
		ds: (t.ds+1)*(b.ds+1) - 1,
		t:  t.Transform(b.t),
	}
}

// Inv returns the inverse of the transform such that
// t.Inv().Mul(t) is the identity Transform.
func (t Transform) Inv() Transform {
	if t == (Transform{}) {
		return t
	}
	qinv := r3.Rotation(quat.Conj(quat.Number(t.rotation())))
	s := 1 / (t.ds + 1)
	inv := Transform{
		ds: s - 1,
		t:  r3.Scale(-s, qinv.Rotate(t.t)),
	}
	inv.dq = qinv
	inv.dq.Real--
	return inv
}

// Equals tests the equality of the Transforms to within a tolerance.
// Rotations q and -q are considered equal.
func (t Transform) Equals(b Transform, tolerance float64) bool {
	qa, qb := t.rotation(), b.rotation()
	same := math.Abs(qa.Real-qb.Real) < tolerance && math.Abs(qa.Imag-qb.Imag) < tolerance &&
		math.Abs(qa.Jmag-qb.Jmag) < tolerance && math.Abs(qa.Kmag-qb.Kmag) < tolerance
	opposite := math.Abs(qa.Real+qb.Real) < tolerance && math.Abs(qa.Imag+qb.Imag) < tolerance &&
		math.Abs(qa.Jmag+qb.Jmag) < tolerance && math.Abs(qa.Kmag+qb.Kmag) < tolerance
	return (same || opposite) && math.Abs(t.ds-b.ds) < tolerance &&
		EqualWithin(t.t, b.t, tolerance)
}
