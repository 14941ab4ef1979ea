package shape

import (
	"math"
	"testing"

	"github.com/soypat/springls/levelset"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSphereAndTorus(t *testing.T) {
	s := Sphere(r3.Vec{X: 1}, 2)
	if d := s.Evaluate(r3.Vec{X: 1}); d != -2 {
		t.Errorf("center distance %g", d)
	}
	if d := s.Evaluate(r3.Vec{X: 4}); math.Abs(d-1) > 1e-12 {
		t.Errorf("outside distance %g", d)
	}
	tor := Torus(r3.Vec{}, 3, 1)
	if d := tor.Evaluate(r3.Vec{X: 3}); d != -1 {
		t.Errorf("tube center distance %g", d)
	}
	if d := tor.Evaluate(r3.Vec{}); math.Abs(d-2) > 1e-12 {
		t.Errorf("hole distance %g", d)
	}
	if bb := tor.Bounds(); bb.Max.X != 4 || bb.Max.Z != 1 {
		t.Errorf("torus bounds %v", bb)
	}
}

func TestSDFXBox(t *testing.T) {
	b, err := Box(r3.Vec{X: 5, Y: 5, Z: 5}, r3.Vec{X: 2, Y: 4, Z: 6}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if d := b.Evaluate(r3.Vec{X: 5, Y: 5, Z: 5}); math.Abs(d+1) > 1e-9 {
		t.Errorf("center distance %g, want -1", d)
	}
	if d := b.Evaluate(r3.Vec{X: 8, Y: 5, Z: 5}); math.Abs(d-2) > 1e-9 {
		t.Errorf("outside distance %g, want 2", d)
	}
	bb := b.Bounds()
	if math.Abs(bb.Min.X-4) > 1e-9 || math.Abs(bb.Max.Z-8) > 1e-9 {
		t.Errorf("bounds %v", bb)
	}
	if _, err := Cylinder(r3.Vec{}, 2, 1, 0); err != nil {
		t.Fatal(err)
	}
}

func TestSampleSphereVolume(t *testing.T) {
	const radius = 1.0
	s := Sphere(r3.Vec{X: -1, Y: 2}, radius)
	wm := Fit(s, 40)
	g, err := Sample(s, wm, levelset.HalfWidth, 4)
	if err != nil {
		t.Fatal(err)
	}
	vox := wm.VoxelSize()
	got := float64(g.CountInside()) * vox * vox * vox
	want := 4.0 / 3 * math.Pi * radius * radius * radius
	if math.Abs(got-want)/want > 0.05 {
		t.Errorf("sampled volume %g, want about %g", got, want)
	}
	center := wm.ApplyInverseMap(r3.Vec{X: -1, Y: 2})
	if v := g.Sample(center); v != -levelset.HalfWidth {
		t.Errorf("center value %g, want clamped %v", v, -levelset.HalfWidth)
	}
}

func TestUnion(t *testing.T) {
	u := Union(Sphere(r3.Vec{}, 1), Sphere(r3.Vec{X: 5}, 1))
	if d := u.Evaluate(r3.Vec{X: 5}); d != -1 {
		t.Errorf("distance %g", d)
	}
	if bb := u.Bounds(); bb.Min.X != -1 || bb.Max.X != 6 {
		t.Errorf("bounds %v", bb)
	}
}

func TestBooleans(t *testing.T) {
	a := Sphere(r3.Vec{}, 1)
	b := Sphere(r3.Vec{X: 1}, 1)
	p := r3.Vec{X: -0.5}
	if d := Difference(a, b).Evaluate(p); math.Abs(d+0.5) > 1e-12 {
		t.Errorf("difference %g, want -0.5", d)
	}
	if d := Intersect(a, b).Evaluate(r3.Vec{X: 0.5}); math.Abs(d+0.5) > 1e-12 {
		t.Errorf("intersection %g, want -0.5", d)
	}
	if bb := Intersect(a, b).Bounds(); bb.Min.X != 0 || bb.Max.X != 1 {
		t.Errorf("intersection bounds %v", bb)
	}
	// Smooth unions never exceed the sharp union.
	sharp, smooth := Union(a, b), SmoothUnion(PolyMin(0.2), a, b)
	for _, q := range []r3.Vec{{X: 0.5, Y: 1}, {X: 3}, {Y: -2}, {X: 0.5}} {
		if smooth.Evaluate(q) > sharp.Evaluate(q)+1e-12 {
			t.Errorf("smooth union above sharp union at %v", q)
		}
	}
	if d := ExpMin(32)(1, 1); d >= 1 {
		t.Errorf("exp min %g not below 1", d)
	}
	if d := Offset(a, 0.5).Evaluate(r3.Vec{X: 1.5}); math.Abs(d) > 1e-12 {
		t.Errorf("offset surface at %g", d)
	}
	sh := Shell(a, 0.2)
	if d := sh.Evaluate(r3.Vec{X: 1}); math.Abs(d+0.1) > 1e-12 {
		t.Errorf("shell %g, want -0.1", d)
	}
	if d := sh.Evaluate(r3.Vec{}); d <= 0 {
		t.Errorf("shell center %g should be outside", d)
	}
}
