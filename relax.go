package springls

import (
	"math"

	"github.com/soypat/springls/internal/d3"
	"github.com/soypat/springls/internal/parallel"
	"gonum.org/v1/gonum/spatial/r3"
)

// relaxer moves springl vertices so neighboring springls keep a distance
// of 2*ParticleRadius between their edges. Each iteration computes all new
// vertex positions into a staging buffer before committing them, so the
// result does not depend on the order springls are visited.
type relaxer struct {
	c       *Constellation
	nn      NearestNeighborMap
	staging []r3.Vec
}

func (r *relaxer) relax(iterations int) {
	c := r.c
	if cap(r.staging) < len(c.Vertices) {
		r.staging = make([]r3.Vec, len(c.Vertices))
	}
	r.staging = r.staging[:len(c.Vertices)]
	for it := 0; it < iterations; it++ {
		parallel.For(c.NumSpringls(), func(_, start, end int) {
			for id := start; id < end; id++ {
				r.compute(id)
			}
		})
		copy(c.Vertices, r.staging)
	}
}

// compute writes the relaxed vertices of springl id to the staging buffer.
// Vertices slide along the rays from the particle and the springl rotates
// rigidly about its particle, so the particle never moves.
func (r *relaxer) compute(id int) {
	c := r.c
	s := c.Springls[id]
	particle := c.Particles[id]
	var (
		velocity [4]r3.Vec
		tangent  [4]r3.Vec
		length   [4]float64
		spring   [4]float64
		moment   r3.Vec
	)
	for k := 0; k < s.Size; k++ {
		start := c.Vertices[s.Offset+k]
		t := r3.Sub(start, particle)
		length[k] = r3.Norm(t)
		if length[k] > 1e-6 {
			t = r3.Scale(1/length[k], t)
		}
		tangent[k] = t
		var v r3.Vec
		nbrs := r.nn[s.Offset+k]
		for _, nb := range nbrs {
			dir := r3.Sub(c.ClosestPointOnEdge(start, nb.SpringlID, nb.EdgeID), start)
			w := (r3.Norm(dir) - 2*ParticleRadius) / (MaxVExt + 2*ParticleRadius)
			w = math.Atanh(maxForce * d3.Clamp(w, -1, 1))
			v = r3.Add(v, r3.Scale(w, dir))
		}
		if len(nbrs) > 0 {
			v = r3.Scale(1/float64(len(nbrs)), v)
		}
		velocity[k] = r3.Scale(RelaxTimestep*Sharpness, v)
		spring[k] = RelaxTimestep * SpringConstant * (2*ParticleRadius - length[k])
		moment = r3.Add(moment, r3.Cross(velocity[k], tangent[k]))
	}
	rot := r3.Rotation{Real: 1}
	if m := r3.Norm(moment); m > 1e-12 {
		rot = r3.NewRotation(-m, moment)
	}
	for k := 0; k < s.Size; k++ {
		radial := math.Max(length[k]+r3.Dot(velocity[k], tangent[k])+spring[k], 0.001)
		r.staging[s.Offset+k] = r3.Add(particle, rot.Rotate(r3.Scale(radial, tangent[k])))
	}
}
