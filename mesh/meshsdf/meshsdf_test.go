package meshsdf

import (
	"math"
	"math/rand"
	"testing"

	"github.com/soypat/springls/internal/d3"
	"github.com/soypat/springls/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestBoxSDF(t *testing.T) {
	sdf, err := New(mesh.Box(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}))
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		p    r3.Vec
		want float64
	}{
		{p: r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, want: -0.5},
		{p: r3.Vec{X: 2, Y: 0.5, Z: 0.5}, want: 1},
		{p: r3.Vec{X: 0.5, Y: 0.25, Z: 0.5}, want: -0.25},
		{p: r3.Vec{X: 2, Y: 2, Z: 2}, want: math.Sqrt(3)},
		{p: r3.Vec{X: -1, Y: -1, Z: 0.5}, want: math.Sqrt(2)},
	} {
		got := sdf.Evaluate(test.p)
		if math.Abs(got-test.want) > 1e-9 {
			t.Errorf("at %v got %g, want %g", test.p, got, test.want)
		}
	}
}

func TestSphereSDFMatchesBruteForce(t *testing.T) {
	m := mesh.Icosphere(r3.Vec{X: 1, Y: -2, Z: 0.5}, 3, 2)
	sdf, err := New(m)
	if err != nil {
		t.Fatal(err)
	}
	tris := m.Triangles()
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		p := r3.Vec{
			X: 1 + 10*(rng.Float64()-0.5),
			Y: -2 + 10*(rng.Float64()-0.5),
			Z: 0.5 + 10*(rng.Float64()-0.5),
		}
		want := math.MaxFloat64
		for _, tri := range tris {
			c, _ := d3.ClosestOnTriangle(p, tri)
			want = math.Min(want, r3.Norm(r3.Sub(p, c)))
		}
		got := sdf.Evaluate(p)
		if math.Abs(math.Abs(got)-want) > 1e-9 {
			t.Fatalf("distance at %v got %g, want %g", p, math.Abs(got), want)
		}
		inside := r3.Norm(r3.Sub(p, r3.Vec{X: 1, Y: -2, Z: 0.5})) < 2.5
		if inside && got >= 0 {
			t.Errorf("point %v inside sphere got positive distance %g", p, got)
		}
		outside := r3.Norm(r3.Sub(p, r3.Vec{X: 1, Y: -2, Z: 0.5})) > 3
		if outside && got <= 0 {
			t.Errorf("point %v outside sphere got non positive distance %g", p, got)
		}
	}
}

func TestEmptyMesh(t *testing.T) {
	if _, err := New(&mesh.Mesh{}); err == nil {
		t.Error("expected error for empty mesh")
	}
}
