package levelset

import (
	"github.com/soypat/springls/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// cellEdges lists the corner pairs of the 12 edges of a voxel cell.
// Corner c has offset (c&1, c>>1&1, c>>2&1).
var cellEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // x
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // y
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // z
}

// quadCells are the offsets in the plane normal to an edge of the four
// cells sharing that edge, counter-clockwise seen from the positive axis.
var quadCells = [4][2]int{{-1, -1}, {0, -1}, {0, 0}, {-1, 0}}

// ExtractIsoSurface polygonizes the iso level of g into m with surface nets:
// one vertex per cell crossing the iso level placed at the mean of the
// edge crossings, one quad per grid edge crossing the iso level. Quads are
// oriented with normals pointing toward values above iso. m is reset first.
func ExtractIsoSurface(g *Grid, iso float64, m *mesh.Mesh) {
	m.Reset()
	cdims := [3]int{g.Dims[0] - 1, g.Dims[1] - 1, g.Dims[2] - 1}
	if cdims[0] < 1 || cdims[1] < 1 || cdims[2] < 1 {
		return
	}
	cellOffset := func(c [3]int) int { return c[0] + cdims[0]*(c[1]+cdims[1]*c[2]) }
	cellVertex := make([]int32, cdims[0]*cdims[1]*cdims[2])
	local := func(i, j, k int) float64 { return g.data[i+g.Dims[0]*(j+g.Dims[1]*k)] }
	var corner [8]float64
	for k := 0; k < cdims[2]; k++ {
		for j := 0; j < cdims[1]; j++ {
			for i := 0; i < cdims[0]; i++ {
				below := 0
				for c := 0; c < 8; c++ {
					corner[c] = local(i+c&1, j+(c>>1)&1, k+(c>>2)&1) - iso
					if corner[c] < 0 {
						below++
					}
				}
				n := cellOffset([3]int{i, j, k})
				if below == 0 || below == 8 {
					cellVertex[n] = -1
					continue
				}
				var sum r3.Vec
				crossings := 0
				for _, e := range cellEdges {
					a, b := corner[e[0]], corner[e[1]]
					if (a < 0) == (b < 0) {
						continue
					}
					t := a / (a - b)
					pa, pb := cornerPos(e[0]), cornerPos(e[1])
					sum = r3.Add(sum, r3.Add(pa, r3.Scale(t, r3.Sub(pb, pa))))
					crossings++
				}
				p := r3.Scale(1/float64(crossings), sum)
				p = r3.Add(p, r3.Vec{
					X: float64(i + g.Min[0]),
					Y: float64(j + g.Min[1]),
					Z: float64(k + g.Min[2]),
				})
				cellVertex[n] = int32(len(m.Vertices))
				m.Vertices = append(m.Vertices, p)
			}
		}
	}
	// Emit a quad for every grid edge with a sign change whose four
	// surrounding cells exist.
	for k := 0; k < g.Dims[2]; k++ {
		for j := 0; j < g.Dims[1]; j++ {
			for i := 0; i < g.Dims[0]; i++ {
				p := [3]int{i, j, k}
				v0 := local(i, j, k) - iso
				for a := 0; a < 3; a++ {
					q := p
					q[a]++
					if q[a] >= g.Dims[a] {
						continue
					}
					v1 := local(q[0], q[1], q[2]) - iso
					if (v0 < 0) == (v1 < 0) {
						continue
					}
					u, v := (a+1)%3, (a+2)%3
					var quad [4]int
					ok := true
					for c, off := range quadCells {
						cell := p
						cell[u] += off[0]
						cell[v] += off[1]
						if cell[u] < 0 || cell[v] < 0 || cell[u] >= cdims[u] || cell[v] >= cdims[v] {
							ok = false
							break
						}
						vi := cellVertex[cellOffset(cell)]
						if vi < 0 {
							ok = false
							break
						}
						quad[c] = int(vi)
					}
					if !ok {
						continue
					}
					if v0 < 0 {
						// Inside to outside along +a, normal along +a.
						m.AddQuad(quad[0], quad[1], quad[2], quad[3])
					} else {
						m.AddQuad(quad[3], quad[2], quad[1], quad[0])
					}
				}
			}
		}
	}
	m.UpdateVertexNormals()
}

func cornerPos(c int) r3.Vec {
	return r3.Vec{X: float64(c & 1), Y: float64((c >> 1) & 1), Z: float64((c >> 2) & 1)}
}
