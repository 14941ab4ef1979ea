package springls

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/soypat/springls/field"
	"github.com/soypat/springls/internal/d3"
	"github.com/soypat/springls/levelset"
	"github.com/soypat/springls/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

func sphereLevelSet(t *testing.T, opts Options) *SpringLevelSet {
	t.Helper()
	m := mesh.Icosphere(r3.Vec{X: 1, Y: 2, Z: 3}, 6, 3)
	s, err := NewFromMesh(m, levelset.NewUniformScaleMap(0.5), opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Constellation.Validate(); err != nil {
		t.Fatal(err)
	}
	if s.Elements() < 100 {
		t.Fatalf("expected a populated constellation, got %d springls", s.Elements())
	}
	return s
}

func TestNewConstellationBox(t *testing.T) {
	m := mesh.Box(r3.Vec{}, r3.Vec{X: 2, Y: 2, Z: 2})
	c := NewConstellation(m)
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.NumSpringls() != 6 || c.NumVertices() != 24 || len(c.QuadIndexes) != 24 {
		t.Fatalf("got %d springls, %d vertices", c.NumSpringls(), c.NumVertices())
	}
	center := r3.Vec{X: 1, Y: 1, Z: 1}
	for id := range c.Springls {
		if a := c.Area(id); math.Abs(a-4) > 1e-12 {
			t.Errorf("springl %d area %g, want 4", id, a)
		}
		if r := c.AspectRatio(id); math.Abs(r-1) > 1e-12 {
			t.Errorf("springl %d aspect %g, want 1", id, r)
		}
		out := r3.Unit(r3.Sub(c.Particles[id], center))
		if !d3.EqualWithin(c.ParticleNormals[id], out, 1e-12) {
			t.Errorf("springl %d normal %v, want %v", id, c.ParticleNormals[id], out)
		}
		outside := r3.Add(c.Particles[id], out)
		if d := c.SignedDistanceToFace(outside, id); math.Abs(d-1) > 1e-12 {
			t.Errorf("springl %d signed distance %g, want 1", id, d)
		}
		inside := r3.Sub(c.Particles[id], r3.Scale(0.5, out))
		if d := c.SignedDistanceToFace(inside, id); math.Abs(d+0.5) > 1e-12 {
			t.Errorf("springl %d signed distance %g, want -0.5", id, d)
		}
	}
}

func TestConstellationVelocity(t *testing.T) {
	m := mesh.Icosphere(r3.Vec{}, 1, 0)
	m.VertexVelocity = make([]r3.Vec, len(m.Vertices))
	for i, v := range m.Vertices {
		m.VertexVelocity[i] = r3.Vec{X: v.X}
	}
	c := NewConstellation(m)
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(c.ParticleVelocity) != c.NumSpringls() {
		t.Fatalf("got %d particle velocities for %d springls", len(c.ParticleVelocity), c.NumSpringls())
	}
	for id := range c.Springls {
		want := c.ComputeCentroid(id).X
		if got := c.ParticleVelocity[id].X; math.Abs(got-want) > 1e-12 {
			t.Errorf("springl %d velocity %g, want %g", id, got, want)
		}
	}
	id := c.add([]r3.Vec{{}, {X: 1}, {Y: 1}})
	if c.ParticleVelocity[id] != (r3.Vec{}) {
		t.Error("added springl should have zero velocity")
	}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestCompactPreservesOrder(t *testing.T) {
	m := mesh.Icosphere(r3.Vec{}, 1, 1)
	m.AddQuad(0, 1, 2, 3)
	c := NewConstellation(m)
	c.ParticleLabel = make([]int, c.NumSpringls())
	for id := range c.ParticleLabel {
		c.ParticleLabel[id] = id
	}
	var keep []int
	for id := 0; id < c.NumSpringls(); id++ {
		if id%3 != 1 {
			keep = append(keep, id)
		}
	}
	want := make([]r3.Vec, len(keep))
	for i, id := range keep {
		want[i] = c.Particles[id]
	}
	c.compact(keep)
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	for i, id := range keep {
		if c.ParticleLabel[i] != id || c.Particles[i] != want[i] {
			t.Fatalf("springl %d is not former springl %d", i, id)
		}
		if got := c.ComputeCentroid(i); !d3.EqualWithin(got, want[i], 1e-12) {
			t.Fatalf("springl %d vertices moved: centroid %v, want %v", i, got, want[i])
		}
	}
}

func TestCreateInvariants(t *testing.T) {
	s := sphereLevelSet(t, Options{})
	c := &s.Constellation
	for _, sp := range c.Springls {
		if sp.Offset+sp.Size > len(c.Vertices) {
			t.Fatalf("springl %+v overflows %d vertices", sp, len(c.Vertices))
		}
	}
	for id := range c.Springls {
		if d := math.Abs(s.Signed.Sample(c.Particles[id])); d > CleanDistance+1 {
			t.Errorf("springl %d particle %g voxels from surface", id, d)
		}
	}
	if s.Added() == 0 && s.Removed() == 0 {
		t.Log("creation neither filled nor cleaned")
	}
	s.ResetMetrics()
	if s.Added() != 0 || s.Removed() != 0 {
		t.Error("metrics not reset")
	}
}

func TestNearestNeighbors(t *testing.T) {
	s := sphereLevelSet(t, Options{})
	s.UpdateUnsignedLevelSet(s.HalfWidth())
	s.UpdateNearestNeighbors()
	c := &s.Constellation
	if len(s.NearestNeighbors) != c.NumVertices() {
		t.Fatalf("got %d neighbor lists for %d vertices", len(s.NearestNeighbors), c.NumVertices())
	}
	withNeighbors := 0
	for id, sp := range c.Springls {
		for k := 0; k < sp.Size; k++ {
			nbrs := s.NearestNeighbors.Neighbors(c, id, k)
			if len(nbrs) > MaxNearestNeighbors {
				t.Fatalf("vertex %d of springl %d has %d neighbors", k, id, len(nbrs))
			}
			if !sort.SliceIsSorted(nbrs, func(i, j int) bool { return nbrs[i].Distance < nbrs[j].Distance }) {
				t.Fatalf("neighbors of vertex %d of springl %d not sorted: %v", k, id, nbrs)
			}
			for _, nb := range nbrs {
				if nb.SpringlID == id {
					t.Fatalf("springl %d is its own neighbor", id)
				}
				if nb.Distance > NearestNeighborRange*NearestNeighborRange {
					t.Fatalf("neighbor out of range: %v", nb)
				}
				want := c.DistanceToEdgeSqr(c.Vertex(id, k), nb.SpringlID, nb.EdgeID)
				if math.Abs(want-nb.Distance) > 1e-12 {
					t.Fatalf("neighbor distance %g, want %g", nb.Distance, want)
				}
			}
			if len(nbrs) > 0 {
				withNeighbors++
			}
		}
	}
	if withNeighbors < c.NumVertices()/2 {
		t.Errorf("only %d of %d vertices have neighbors", withNeighbors, c.NumVertices())
	}
	first := make(NearestNeighborMap, len(s.NearestNeighbors))
	for i, nbrs := range s.NearestNeighbors {
		first[i] = append([]Neighbor(nil), nbrs...)
	}
	s.UpdateNearestNeighbors()
	for i := range first {
		if len(first[i]) == 0 && len(s.NearestNeighbors[i]) == 0 {
			continue
		}
		if !reflect.DeepEqual(first[i], s.NearestNeighbors[i]) {
			t.Fatalf("vertex %d: rebuild gave %v, want %v", i, s.NearestNeighbors[i], first[i])
		}
	}
}

func TestCleanIdempotent(t *testing.T) {
	s := sphereLevelSet(t, Options{})
	s.UpdateNearestNeighbors()
	s.Relax(5)
	s.Clean()
	if err := s.Constellation.Validate(); err != nil {
		t.Fatal(err)
	}
	if removed := s.Clean(); removed != 0 {
		t.Errorf("second clean removed %d springls", removed)
	}
}

func TestFillThenCleanKeepsValid(t *testing.T) {
	s := sphereLevelSet(t, Options{})
	c := &s.Constellation
	var keep []int
	for id := 0; id < c.NumSpringls(); id++ {
		if id%4 != 0 {
			keep = append(keep, id)
		}
	}
	c.compact(keep)
	s.UpdateUnsignedLevelSet(s.HalfWidth())
	n := c.NumSpringls()
	added := s.Fill()
	if added == 0 {
		t.Fatal("fill added no springls after removing a quarter of them")
	}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	var valid []r3.Vec
	for id := n; id < c.NumSpringls(); id++ {
		area := c.Area(id)
		ok := area >= MinArea && area < MaxArea &&
			c.AspectRatio(id) >= MinAspectRatio &&
			math.Abs(s.Signed.Sample(c.Particles[id])) <= CleanDistance
		if ok {
			valid = append(valid, c.Particles[id])
		}
	}
	if len(valid) == 0 {
		t.Fatal("no valid filled springls")
	}
	s.Clean()
	present := make(map[r3.Vec]bool, c.NumSpringls())
	for _, p := range c.Particles {
		present[p] = true
	}
	for _, p := range valid {
		if !present[p] {
			t.Errorf("valid filled springl at %v was cleaned", p)
		}
	}
}

func TestRelaxCleanFillStable(t *testing.T) {
	s := sphereLevelSet(t, Options{})
	n0 := s.Elements()
	s.UpdateUnsignedLevelSet(s.HalfWidth())
	s.UpdateNearestNeighbors()
	s.Relax(10)
	s.UpdateUnsignedLevelSet(2.5 * s.HalfWidth())
	s.Clean()
	s.UpdateUnsignedLevelSet(s.HalfWidth())
	s.Fill()
	if err := s.Constellation.Validate(); err != nil {
		t.Fatal(err)
	}
	n := s.Elements()
	if math.Abs(float64(n-n0)) > 0.05*float64(n0) {
		t.Errorf("springl count went from %d to %d", n0, n)
	}
}

func TestRelaxAfterCleanFill(t *testing.T) {
	s := sphereLevelSet(t, Options{})
	c := &s.Constellation
	s.UpdateUnsignedLevelSet(s.HalfWidth())
	s.UpdateNearestNeighbors()
	last := c.Springls[c.NumSpringls()-1]
	for k := 0; k < last.Size; k++ {
		c.Vertices[last.Offset+k] = c.Particles[c.NumSpringls()-1]
	}
	if s.Clean() == 0 {
		t.Fatal("degenerate springl was not cleaned")
	}
	if len(s.NearestNeighbors) != 0 {
		t.Fatalf("neighbor map of %d vertices survived clean", len(s.NearestNeighbors))
	}
	s.UpdateUnsignedLevelSet(s.HalfWidth())
	s.UpdateIsoSurface()
	s.Fill()
	s.Relax(2)
	if len(s.NearestNeighbors) != c.NumVertices() {
		t.Fatalf("neighbor map has %d entries for %d vertices", len(s.NearestNeighbors), c.NumVertices())
	}
	for v, nbrs := range s.NearestNeighbors {
		for _, nb := range nbrs {
			if nb.SpringlID >= c.NumSpringls() {
				t.Fatalf("vertex %d references springl %d of %d", v, nb.SpringlID, c.NumSpringls())
			}
		}
	}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestRelaxKeepsParticles(t *testing.T) {
	s := sphereLevelSet(t, Options{})
	c := &s.Constellation
	before := append([]r3.Vec(nil), c.Particles...)
	s.UpdateNearestNeighbors()
	s.Relax(3)
	for id, p := range c.Particles {
		if p != before[id] {
			t.Fatalf("particle %d moved", id)
		}
	}
	for id := range c.Springls {
		for k := 0; k < c.Springls[id].Size; k++ {
			if !d3.IsFinite(c.Vertex(id, k)) {
				t.Fatalf("vertex %d of springl %d not finite", k, id)
			}
		}
	}
}

func TestRelaxEquilibrium(t *testing.T) {
	const r = 2 * ParticleRadius
	center := r3.Vec{X: 3, Y: -1, Z: 2}
	var tri []r3.Vec
	for k := 0; k < 3; k++ {
		a := 2 * math.Pi * float64(k) / 3
		tri = append(tri, r3.Add(center, r3.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}))
	}
	var c Constellation
	c.add(tri)
	rx := relaxer{c: &c, nn: make(NearestNeighborMap, c.NumVertices())}
	rx.relax(4)
	for k := range tri {
		if !d3.EqualWithin(c.Vertices[k], tri[k], 1e-12) {
			t.Errorf("vertex %d moved from %v to %v", k, tri[k], c.Vertices[k])
		}
	}
	if got := c.ComputeCentroid(0); !d3.EqualWithin(got, center, 1e-12) {
		t.Errorf("centroid moved to %v", got)
	}

	// A springl without neighbors shrinks toward its rest radius about
	// a fixed centroid.
	c.Reset()
	c.add([]r3.Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}})
	rx = relaxer{c: &c, nn: make(NearestNeighborMap, c.NumVertices())}
	rx.relax(10)
	if got := c.ComputeCentroid(0); !d3.EqualWithin(got, r3.Vec{}, 1e-12) {
		t.Errorf("centroid moved to %v", got)
	}
	if a := c.Area(0); a >= 4 || a <= 0 {
		t.Errorf("area %g should shrink from 4", a)
	}
}

func TestDistanceToConstellation(t *testing.T) {
	s := sphereLevelSet(t, Options{})
	s.UpdateUnsignedLevelSet(s.HalfWidth())
	c := &s.Constellation
	for id := 0; id < c.NumSpringls(); id += 7 {
		// Quads are not planar so particles sit close to, not on, their springl.
		if d := s.DistanceToConstellation(c.Particles[id]); d > FillDistance {
			t.Errorf("particle %d at distance %g from constellation", id, d)
		}
	}
	if d := s.DistanceToConstellation(r3.Vec{X: 1, Y: 2, Z: 3}); !math.IsInf(d, 1) {
		t.Errorf("sphere center should have no nearby springl, got %g", d)
	}
}

func TestFillWithNearestNeighbors(t *testing.T) {
	s := sphereLevelSet(t, Options{TrackVelocity: true})
	c := &s.Constellation
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(c.ParticleVelocity) != c.NumSpringls() || len(c.VertexVelocity) != c.NumVertices() {
		t.Fatal("velocity arrays not allocated")
	}
	vel := r3.Vec{X: 1, Y: -2, Z: 0.5}
	for id := range c.Springls {
		c.setVelocity(id, vel)
	}
	var keep []int
	for id := 0; id < c.NumSpringls(); id++ {
		if id%3 != 0 {
			keep = append(keep, id)
		}
	}
	c.compact(keep)
	s.UpdateUnsignedLevelSet(s.HalfWidth())
	n := c.NumSpringls()
	if s.Fill() == 0 {
		t.Fatal("nothing filled")
	}
	pending := append([]int(nil), s.fillList...)
	if len(pending) != c.NumSpringls()-n {
		t.Fatalf("fill list has %d entries for %d new springls", len(pending), c.NumSpringls()-n)
	}
	s.FillWithNearestNeighbors()
	if len(s.fillList) != 0 {
		t.Error("fill list not cleared")
	}
	for _, id := range pending {
		if !d3.EqualWithin(c.ParticleVelocity[id], vel, 1e-12) {
			t.Errorf("springl %d velocity %v, want %v", id, c.ParticleVelocity[id], vel)
		}
		sp := c.Springls[id]
		for k := 0; k < sp.Size; k++ {
			if !d3.EqualWithin(c.VertexVelocity[sp.Offset+k], vel, 1e-12) {
				t.Errorf("springl %d vertex velocity %v, want %v", id, c.VertexVelocity[sp.Offset+k], vel)
			}
		}
	}
}

func TestFillWithVelocityField(t *testing.T) {
	s := sphereLevelSet(t, Options{TrackVelocity: true})
	c := &s.Constellation
	var keep []int
	for id := 0; id < c.NumSpringls(); id += 2 {
		keep = append(keep, id)
	}
	c.compact(keep)
	s.UpdateUnsignedLevelSet(s.HalfWidth())
	s.Fill()
	pending := append([]int(nil), s.fillList...)
	f := field.Constant{Z: 3}
	s.FillWithVelocityField(f, 0)
	for _, id := range pending {
		if c.ParticleVelocity[id] != (r3.Vec{Z: 3}) {
			t.Fatalf("springl %d velocity %v", id, c.ParticleVelocity[id])
		}
	}
}

func TestParseSchemes(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want MotionScheme
	}{
		{"implicit", Implicit},
		{"IMPLICIT", Implicit},
		{"semi-implicit", SemiImplicit},
		{"SEMI_IMPLICIT", SemiImplicit},
		{"explicit", Explicit},
	} {
		got, err := ParseMotionScheme(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseMotionScheme(%q) = %v, %v", tc.in, got, err)
		}
	}
	if _, err := ParseMotionScheme("fast"); err == nil {
		t.Error("expected error for unknown motion scheme")
	}
	for _, ts := range []TemporalScheme{RK1, RK2, RK3, RK4a, RK4b} {
		var got TemporalScheme
		text, _ := ts.MarshalText()
		if err := got.UnmarshalText(text); err != nil || got != ts {
			t.Errorf("round trip of %v gave %v, %v", ts, got, err)
		}
	}
	if _, err := ParseTemporalScheme("rk5"); err == nil {
		t.Error("expected error for unknown temporal scheme")
	}
}

func TestIntegrateOrder(t *testing.T) {
	spin := func(p r3.Vec, _ float64) r3.Vec { return r3.Vec{X: -p.Y, Y: p.X} }
	const dt = 0.1
	exact := r3.Vec{X: math.Cos(dt), Y: math.Sin(dt)}
	for _, tc := range []struct {
		ts     TemporalScheme
		maxErr float64
	}{
		{RK1, 1e-2},
		{RK2, 2e-4},
		{RK3, 1e-5},
		{RK4a, 1e-6},
		{RK4b, 1e-6},
	} {
		got := tc.ts.Integrate(spin, r3.Vec{X: 1}, 0, dt)
		if err := r3.Norm(r3.Sub(got, exact)); err > tc.maxErr {
			t.Errorf("%v: error %g exceeds %g", tc.ts, err, tc.maxErr)
		}
	}
	// Time dependent velocity: dx/dt = t^3 is integrated exactly by fourth order schemes.
	cubic := func(_ r3.Vec, t float64) r3.Vec { return r3.Vec{X: t * t * t} }
	for _, ts := range []TemporalScheme{RK4a, RK4b} {
		got := ts.Integrate(cubic, r3.Vec{}, 1, 1)
		if want := (16.0 - 1) / 4; math.Abs(got.X-want) > 1e-12 {
			t.Errorf("%v: got %g, want %g", ts, got.X, want)
		}
	}
}

func TestAdvectTimeSteps(t *testing.T) {
	s := sphereLevelSet(t, Options{})
	const speed, voxel = 1.0, 0.5
	adv := NewAdvection(s, field.Constant{X: speed}, Explicit, AdvectionConfig{Temporal: RK1})
	const t0, t1 = 0.0, 1.1
	steps, err := adv.Advect(context.Background(), t0, t1)
	if err != nil {
		t.Fatal(err)
	}
	stats := adv.Stats()
	if steps != stats.Substeps || steps != len(stats.Dt) {
		t.Fatalf("%d steps with stats %+v", steps, stats)
	}
	sum := 0.0
	for _, dt := range stats.Dt {
		if dt > MaxVExt*voxel/speed+1e-12 {
			t.Errorf("dt %g exceeds CFL limit", dt)
		}
		sum += dt
	}
	if math.Abs(sum-(t1-t0)) > 1e-9 {
		t.Errorf("substeps sum to %g, want %g", sum, t1-t0)
	}
	if steps != 5 {
		t.Errorf("expected 5 substeps, got %d", steps)
	}
	if err := s.Constellation.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestAdvectSemiImplicitFollowsField(t *testing.T) {
	s := sphereLevelSet(t, Options{})
	before := d3.Set(s.IsoSurface.Vertices).Centroid()
	// One world unit per unit time is two voxels per unit time.
	adv := NewAdvection(s, field.Constant{X: 1}, SemiImplicit, AdvectionConfig{Resample: true})
	if _, err := adv.Advect(context.Background(), 0, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Constellation.Validate(); err != nil {
		t.Fatal(err)
	}
	after := d3.Set(s.IsoSurface.Vertices).Centroid()
	want := r3.Add(before, r3.Vec{X: 2})
	if !d3.EqualWithin(after, want, 0.5) {
		t.Errorf("iso-surface centroid %v, want %v", after, want)
	}
	particles := d3.Set(s.Constellation.Particles).Centroid()
	if !d3.EqualWithin(particles, want, 0.5) {
		t.Errorf("particle centroid %v, want %v", particles, want)
	}
}

func TestAdvectImplicit(t *testing.T) {
	s := sphereLevelSet(t, Options{})
	before := d3.Set(s.IsoSurface.Vertices).Centroid()
	adv := NewAdvection(s, field.Constant{Y: -1}, Implicit, AdvectionConfig{})
	if s.Elements() != 0 {
		t.Fatalf("implicit advection kept %d springls", s.Elements())
	}
	if _, err := adv.Advect(context.Background(), 0, 1); err != nil {
		t.Fatal(err)
	}
	after := d3.Set(s.IsoSurface.Vertices).Centroid()
	want := r3.Add(before, r3.Vec{Y: -2})
	if !d3.EqualWithin(after, want, 0.5) {
		t.Errorf("iso-surface centroid %v, want %v", after, want)
	}
}

func TestAdvectZeroVelocity(t *testing.T) {
	for _, motion := range []MotionScheme{SemiImplicit, Explicit} {
		s := sphereLevelSet(t, Options{})
		springls := append([]Springl(nil), s.Constellation.Springls...)
		vertices := append([]r3.Vec(nil), s.Constellation.Vertices...)
		particles := append([]r3.Vec(nil), s.Constellation.Particles...)
		signed := s.Signed.Clone()
		adv := NewAdvection(s, field.Constant{}, motion, AdvectionConfig{Resample: true})
		steps, err := adv.Advect(context.Background(), 0, 1)
		if err != nil {
			t.Fatal(err)
		}
		if steps != 0 {
			t.Errorf("%s: took %d substeps in a still field", motion, steps)
		}
		c := &s.Constellation
		if !reflect.DeepEqual(springls, c.Springls) || !reflect.DeepEqual(vertices, c.Vertices) ||
			!reflect.DeepEqual(particles, c.Particles) {
			t.Errorf("%s: constellation changed from %d to %d springls", motion, len(springls), c.NumSpringls())
		}
		if !reflect.DeepEqual(signed.Values(), s.Signed.Values()) {
			t.Errorf("%s: signed grid changed", motion)
		}
	}
}

func TestAdvectUnsupportedMap(t *testing.T) {
	s := sphereLevelSet(t, Options{})
	s.Map = levelset.NewAffineMap(d3.Transform{})
	adv := NewAdvection(s, field.Constant{X: 1}, SemiImplicit, AdvectionConfig{})
	_, err := adv.Advect(context.Background(), 0, 1)
	if !errors.Is(err, ErrUnsupportedMap) {
		t.Errorf("got error %v, want ErrUnsupportedMap", err)
	}
}

func TestAdvectCancel(t *testing.T) {
	s := sphereLevelSet(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	adv := NewAdvection(s, field.Constant{X: 1}, Explicit, AdvectionConfig{})
	steps, err := adv.Advect(ctx, 0, 1)
	if !errors.Is(err, context.Canceled) || steps != 0 {
		t.Errorf("got %d steps and error %v", steps, err)
	}
}

func TestNewFromGrid(t *testing.T) {
	shape, err := levelset.NewShape(d3.Box{Max: d3.Elem(20)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	center := r3.Vec{X: 10, Y: 10, Z: 10}
	g := levelset.SignedFromFunc(func(p r3.Vec) float64 {
		return r3.Norm(r3.Sub(p, center)) - 6
	}, levelset.Map{}, shape, levelset.HalfWidth)
	s, err := NewFromGrid(g, levelset.Map{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Constellation.Validate(); err != nil {
		t.Fatal(err)
	}
	for id, p := range s.Constellation.Particles {
		if d := math.Abs(r3.Norm(r3.Sub(p, center)) - 6); d > 1 {
			t.Fatalf("particle %d at %g from the sphere", id, d)
		}
	}

	empty := levelset.NewGrid(shape, levelset.HalfWidth)
	if _, err := NewFromGrid(empty, levelset.Map{}, Options{}); !errors.Is(err, ErrNoSurface) {
		t.Errorf("got %v, want ErrNoSurface", err)
	}
}
