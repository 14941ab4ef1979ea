package springls

import (
	"math"
	"sort"

	"github.com/soypat/springls/internal/d3"
	"github.com/soypat/springls/internal/parallel"
	"github.com/soypat/springls/levelset"
)

// Neighbor is the nearest edge of another springl to a springl vertex.
type Neighbor struct {
	SpringlID int
	// EdgeID is the local index of the edge's first vertex.
	EdgeID int
	// Distance is the squared distance from the vertex to the edge.
	Distance float64
}

// NearestNeighborMap holds for every constellation vertex at most
// MaxNearestNeighbors neighbors sorted by ascending distance.
type NearestNeighborMap [][]Neighbor

// Neighbors returns the neighbors of vertex k of springl id.
func (m NearestNeighborMap) Neighbors(c *Constellation, id, k int) []Neighbor {
	return m[c.Springls[id].Offset+k]
}

// nearestNeighbors rebuilds nn for constellation c. Candidates are the
// springls found in index around each particle. The returned map reuses
// the storage of nn.
func nearestNeighbors(c *Constellation, index *levelset.IndexGrid, nn NearestNeighborMap) NearestNeighborMap {
	nv := len(c.Vertices)
	if cap(nn) < nv {
		nn = append(nn[:cap(nn)], make(NearestNeighborMap, nv-cap(nn))...)
	}
	nn = nn[:nv]
	n := c.NumSpringls()
	radius := int(math.Ceil(NearestNeighborRange))
	const maxDist = NearestNeighborRange * NearestNeighborRange
	parallel.For(n, func(_, start, end int) {
		var stencil []int
		var best []Neighbor
		for id := start; id < end; id++ {
			s := c.Springls[id]
			stencil = index.Stencil(stencil[:0], d3.Round(c.Particles[id]), radius, n)
			for k := 0; k < s.Size; k++ {
				p := c.Vertices[s.Offset+k]
				best = best[:0]
				for _, nid := range stencil {
					if nid == id {
						continue
					}
					nb := Neighbor{SpringlID: nid, EdgeID: -1, Distance: maxDist}
					for e := 0; e < c.Springls[nid].Size; e++ {
						if d := c.DistanceToEdgeSqr(p, nid, e); d <= nb.Distance {
							nb.EdgeID = e
							nb.Distance = d
						}
					}
					if nb.EdgeID >= 0 {
						best = append(best, nb)
					}
				}
				sort.SliceStable(best, func(i, j int) bool { return best[i].Distance < best[j].Distance })
				if len(best) > MaxNearestNeighbors {
					best = best[:MaxNearestNeighbors]
				}
				nn[s.Offset+k] = append(nn[s.Offset+k][:0], best...)
			}
		}
	})
	return nn
}
