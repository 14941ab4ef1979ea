package d3

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestTransformIdentity(t *testing.T) {
	var T Transform
	v := r3.Vec{X: 1, Y: -2, Z: 3}
	if got := T.Transform(v); got != v {
		t.Errorf("zero transform moved %v to %v", v, got)
	}
	if T.Scale() != 1 {
		t.Errorf("zero transform scale %g", T.Scale())
	}
	if NewTransform(r3.Rotation{}, 1, r3.Vec{}) != (Transform{}) {
		t.Error("NewTransform with identity arguments is not the zero Transform")
	}
}

func TestTransformInverse(t *testing.T) {
	T := NewTransform(r3.NewRotation(math.Pi/3, r3.Vec{X: 1, Y: 1}), 2.5, r3.Vec{X: 1, Y: 2, Z: 3})
	inv := T.Inv()
	for _, v := range []r3.Vec{{}, {X: 1}, {X: -3, Y: 2, Z: 0.5}} {
		got := inv.Transform(T.Transform(v))
		if !EqualWithin(got, v, 1e-12) {
			t.Errorf("round trip of %v got %v", v, got)
		}
	}
	if !inv.Mul(T).Equals(Transform{}, 1e-12) {
		t.Error("T^-1 * T is not identity")
	}
}

func TestTransformMul(t *testing.T) {
	a := NewTransform(r3.NewRotation(0.3, r3.Vec{Z: 1}), 2, r3.Vec{X: 1})
	b := NewTransform(r3.NewRotation(-1.2, r3.Vec{Y: 1}), 0.5, r3.Vec{Z: -4})
	ab := a.Mul(b)
	v := r3.Vec{X: 0.3, Y: 0.7, Z: -0.1}
	want := a.Transform(b.Transform(v))
	if got := ab.Transform(v); !EqualWithin(got, want, 1e-12) {
		t.Errorf("composition got %v, want %v", got, want)
	}
}

func TestClosestOnTriangle(t *testing.T) {
	tri := [3]r3.Vec{{}, {X: 1}, {Y: 1}}
	for _, test := range []struct {
		p    r3.Vec
		want r3.Vec
		feat Feature
	}{
		{p: r3.Vec{X: 0.2, Y: 0.2, Z: 1}, want: r3.Vec{X: 0.2, Y: 0.2}, feat: FeatureFace},
		{p: r3.Vec{X: -1, Y: -1}, want: r3.Vec{}, feat: FeatureV0},
		{p: r3.Vec{X: 2, Y: -0.5}, want: r3.Vec{X: 1}, feat: FeatureV1},
		{p: r3.Vec{Y: 3}, want: r3.Vec{Y: 1}, feat: FeatureV2},
		{p: r3.Vec{X: 0.5, Y: -1}, want: r3.Vec{X: 0.5}, feat: FeatureE0},
		{p: r3.Vec{X: 1, Y: 1}, want: r3.Vec{X: 0.5, Y: 0.5}, feat: FeatureE1},
		{p: r3.Vec{X: -1, Y: 0.5}, want: r3.Vec{Y: 0.5}, feat: FeatureE2},
	} {
		got, feat := ClosestOnTriangle(test.p, tri)
		if !EqualWithin(got, test.want, 1e-12) || feat != test.feat {
			t.Errorf("closest to %v: got %v (feature %d), want %v (feature %d)", test.p, got, feat, test.want, test.feat)
		}
	}
}

func TestClosestOnSegment(t *testing.T) {
	a, b := r3.Vec{}, r3.Vec{X: 2}
	got, tt := ClosestOnSegment(r3.Vec{X: 3, Y: 1}, a, b)
	if got != b || tt != 1 {
		t.Errorf("got %v at %g", got, tt)
	}
	got, tt = ClosestOnSegment(r3.Vec{X: 1, Y: 1}, a, a)
	if got != a || tt != 0 {
		t.Errorf("degenerate segment got %v at %g", got, tt)
	}
}
