package levelset

import "sort"

// IndexGrid maps voxels to the id of the nearest polygon. Voxels with
// no polygon within the band hold -1.
type IndexGrid struct {
	Shape
	data []int32
}

// NewIndexGrid returns an index grid with every voxel unset.
func NewIndexGrid(s Shape) *IndexGrid {
	g := &IndexGrid{Shape: s, data: make([]int32, s.Len())}
	for i := range g.data {
		g.data[i] = -1
	}
	return g
}

// Value returns the id stored at ijk or -1.
func (g *IndexGrid) Value(ijk [3]int) int {
	if !g.Contains(ijk) {
		return -1
	}
	return int(g.data[g.Offset(ijk)])
}

// Set stores id at ijk. Writes outside the grid are ignored.
func (g *IndexGrid) Set(ijk [3]int, id int) {
	if g.Contains(ijk) {
		g.data[g.Offset(ijk)] = int32(id)
	}
}

// Stencil appends to dst the distinct ids in [0,limit) found in the cube
// of voxels of half width radius centered at center, in ascending order.
func (g *IndexGrid) Stencil(dst []int, center [3]int, radius, limit int) []int {
	start := len(dst)
	for k := center[2] - radius; k <= center[2]+radius; k++ {
		for j := center[1] - radius; j <= center[1]+radius; j++ {
			for i := center[0] - radius; i <= center[0]+radius; i++ {
				id := g.Value([3]int{i, j, k})
				if id < 0 || id >= limit {
					continue
				}
				dst = append(dst, id)
			}
		}
	}
	found := dst[start:]
	sort.Ints(found)
	// Remove duplicates in place.
	n := 0
	for i, id := range found {
		if i == 0 || id != found[n-1] {
			found[n] = id
			n++
		}
	}
	return dst[:start+n]
}
