// Package springls implements spring level sets: a deformable surface held
// both as a signed distance grid and as a constellation of springls, small
// oriented polygons each anchored to a particle. The constellation carries
// surface detail while the grid keeps the topology consistent; relaxation,
// cleaning and filling keep the two in agreement as the surface moves.
//
// All geometry of a SpringLevelSet lives in index space, where voxels have
// unit side. Its Map converts to world space.
package springls

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/springls/field"
	"github.com/soypat/springls/internal/d3"
	"github.com/soypat/springls/internal/parallel"
	"github.com/soypat/springls/levelset"
	"github.com/soypat/springls/mesh"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// ErrNoSurface is returned when a seed has no zero crossing.
var ErrNoSurface = errors.New("springls: seed has no surface")

// Options configures a SpringLevelSet.
type Options struct {
	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
	// HalfWidth is the narrow band half width in voxels.
	// Defaults to levelset.HalfWidth.
	HalfWidth float64
	// Padding is the number of voxels added around the seed's bounds
	// when sizing the grids. Defaults to 3*HalfWidth.
	Padding int
	// Bounds, when not empty, is the index space region the grids must
	// cover in addition to the seed.
	Bounds d3.Box
	// TrackVelocity enables per particle and per vertex velocities.
	TrackVelocity bool
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.HalfWidth <= 0 {
		o.HalfWidth = levelset.HalfWidth
	}
	if o.Padding <= 0 {
		o.Padding = int(math.Ceil(3 * o.HalfWidth))
	}
}

// SpringLevelSet couples a Constellation to the signed distance grid of
// the same surface. It exclusively owns its grids and meshes. Methods are
// not safe for concurrent use.
type SpringLevelSet struct {
	Constellation Constellation
	// IsoSurface is the zero crossing of Signed.
	IsoSurface mesh.Mesh
	Signed     *levelset.Grid
	// Unsigned is the distance to the constellation within a band and
	// Index the id of the nearest springl for each voxel of that band.
	Unsigned *levelset.Grid
	Index    *levelset.IndexGrid
	// Gradient pulls the zero crossing of Signed toward the constellation.
	Gradient         *levelset.VectorGrid
	NearestNeighbors NearestNeighborMap
	// Map transforms index space to world space.
	Map levelset.Map

	shape         levelset.Shape
	halfWidth     float64
	trackVelocity bool
	fillList      []int
	relaxer       relaxer
	cleanCount    int
	fillCount     int
	log           *zap.Logger
}

// NewFromMesh seeds a spring level set with the closed mesh m given in
// index space. wm maps index space to world space.
func NewFromMesh(m *mesh.Mesh, wm levelset.Map, opts Options) (*SpringLevelSet, error) {
	opts.defaults()
	s, err := newSpringLevelSet(m.Bounds(), wm, opts)
	if err != nil {
		return nil, err
	}
	s.Signed, err = levelset.SignedFromMesh(m, s.shape, s.halfWidth)
	if err != nil {
		return nil, fmt.Errorf("seeding from mesh: %w", err)
	}
	levelset.ExtractIsoSurface(s.Signed, 0, &s.IsoSurface)
	if err := s.create(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewFromGrid seeds a spring level set with the zero crossing of g, which
// holds signed distances in voxels. The grid is copied and redistanced
// from its iso-surface. wm maps index space to world space.
func NewFromGrid(g *levelset.Grid, wm levelset.Map, opts Options) (*SpringLevelSet, error) {
	opts.defaults()
	bb := g.Bounds()
	if opts.Bounds.Empty() {
		// The grid already covers its region.
		opts.Padding = 0
	}
	s, err := newSpringLevelSet(bb, wm, opts)
	if err != nil {
		return nil, err
	}
	s.Signed = levelset.NewGrid(s.shape, s.halfWidth)
	parallel.For(s.shape.Len(), func(_, start, end int) {
		for n := start; n < end; n++ {
			ijk := s.shape.Coord(n)
			if g.Contains(ijk) {
				s.Signed.Set(ijk, d3.Clamp(g.Value(ijk), -s.halfWidth, s.halfWidth))
			}
		}
	})
	levelset.ExtractIsoSurface(s.Signed, 0, &s.IsoSurface)
	if len(s.IsoSurface.Faces) == 0 {
		return nil, ErrNoSurface
	}
	if err := s.UpdateSignedLevelSet(); err != nil {
		return nil, fmt.Errorf("seeding from grid: %w", err)
	}
	levelset.ExtractIsoSurface(s.Signed, 0, &s.IsoSurface)
	if err := s.create(); err != nil {
		return nil, err
	}
	return s, nil
}

func newSpringLevelSet(bb d3.Box, wm levelset.Map, opts Options) (*SpringLevelSet, error) {
	if !opts.Bounds.Empty() {
		bb = bb.Extend(opts.Bounds)
	}
	shape, err := levelset.NewShape(bb, opts.Padding)
	if err != nil {
		return nil, err
	}
	return &SpringLevelSet{
		Map:           wm,
		shape:         shape,
		halfWidth:     opts.HalfWidth,
		trackVelocity: opts.TrackVelocity,
		log:           opts.Logger,
	}, nil
}

// create builds the constellation from the iso-surface and settles it.
func (s *SpringLevelSet) create() error {
	if len(s.IsoSurface.Faces) == 0 {
		return ErrNoSurface
	}
	s.Constellation.Create(&s.IsoSurface)
	if s.trackVelocity {
		s.Constellation.ParticleVelocity = make([]r3.Vec, s.Constellation.NumSpringls())
		s.Constellation.VertexVelocity = make([]r3.Vec, s.Constellation.NumVertices())
	}
	s.UpdateIsoSurface()
	for iter := 0; iter < 2; iter++ {
		s.UpdateUnsignedLevelSet(s.halfWidth)
		s.UpdateNearestNeighbors()
		s.Relax(10)
		s.UpdateUnsignedLevelSet(2.5 * s.halfWidth)
		s.Clean()
		s.UpdateUnsignedLevelSet(s.halfWidth)
		s.Fill()
		s.FillWithNearestNeighbors()
	}
	s.UpdateGradient()
	s.log.Info("spring level set created",
		zap.Int("springls", s.Constellation.NumSpringls()),
		zap.Ints("dims", s.shape.Dims[:]),
		zap.Stringer("map", s.Map),
	)
	return nil
}

// HalfWidth returns the narrow band half width in voxels.
func (s *SpringLevelSet) HalfWidth() float64 { return s.halfWidth }

// Shape returns the voxel region covered by the grids.
func (s *SpringLevelSet) Shape() levelset.Shape { return s.shape }

// Logger returns the logger diagnostics are written to.
func (s *SpringLevelSet) Logger() *zap.Logger { return s.log }

// UpdateUnsignedLevelSet rasterizes the distance to the constellation
// within distance voxels together with the nearest springl index grid.
func (s *SpringLevelSet) UpdateUnsignedLevelSet(distance float64) {
	c := &s.Constellation
	s.Unsigned, s.Index = levelset.UnsignedFromPolygons(c.Vertices, c.Faces, distance, s.shape)
}

// UpdateSignedLevelSet rebuilds the signed grid from the iso-surface.
func (s *SpringLevelSet) UpdateSignedLevelSet() error {
	g, err := levelset.SignedFromMesh(&s.IsoSurface, s.shape, s.halfWidth)
	if err != nil {
		return err
	}
	s.Signed = g
	return nil
}

// UpdateGradient recomputes the field pulling the signed grid toward the
// constellation from the unsigned grid.
func (s *SpringLevelSet) UpdateGradient() {
	s.Gradient = levelset.AdvectionForce(s.Unsigned)
}

// UpdateIsoSurface extracts the zero crossing of the signed grid.
func (s *SpringLevelSet) UpdateIsoSurface() {
	levelset.ExtractIsoSurface(s.Signed, 0, &s.IsoSurface)
}

// UpdateNearestNeighbors rebuilds the nearest neighbor map from the
// current index grid.
func (s *SpringLevelSet) UpdateNearestNeighbors() {
	if s.Index == nil {
		s.UpdateUnsignedLevelSet(s.halfWidth)
	}
	s.NearestNeighbors = nearestNeighbors(&s.Constellation, s.Index, s.NearestNeighbors)
}

// Relax runs the given number of relaxation iterations using the current
// nearest neighbor map, rebuilding it when Clean or Fill changed the
// constellation since it was built. Particles do not move.
func (s *SpringLevelSet) Relax(iterations int) {
	if len(s.NearestNeighbors) != s.Constellation.NumVertices() {
		s.UpdateNearestNeighbors()
	}
	s.relaxer.c = &s.Constellation
	s.relaxer.nn = s.NearestNeighbors
	s.relaxer.relax(iterations)
}

// DistanceToConstellation returns the distance from p to the nearest
// springl found within FillDistance voxels of p in the index grid,
// or +Inf if there is none.
func (s *SpringLevelSet) DistanceToConstellation(p r3.Vec) float64 {
	c := &s.Constellation
	ids := s.Index.Stencil(nil, d3.Round(p), int(math.Ceil(FillDistance)), c.NumSpringls())
	best := math.Inf(1)
	for _, id := range ids {
		best = math.Min(best, c.DistanceToFaceSqr(p, id))
	}
	return math.Sqrt(best)
}

// Clean removes springls far from the zero crossing of the signed grid
// and springls too small, too large or too thin. It returns the number of
// springls removed.
func (s *SpringLevelSet) Clean() int {
	c := &s.Constellation
	n := c.NumSpringls()
	if n == 0 {
		return 0
	}
	values := make([]float64, n)
	parallel.For(n, func(_, start, end int) {
		for id := start; id < end; id++ {
			values[id] = s.Signed.Sample(c.Particles[id])
		}
	})
	keep := make([]int, 0, n)
	abs := make([]float64, n)
	var far, small, thin int
	for id, v := range values {
		abs[id] = math.Abs(v)
		if abs[id] > CleanDistance {
			far++
			continue
		}
		area := c.Area(id)
		aspect := c.AspectRatio(id)
		okArea := area >= MinArea && area < MaxArea
		okAspect := aspect >= MinAspectRatio
		if okArea && okAspect {
			keep = append(keep, id)
			continue
		}
		if !okArea {
			small++
		}
		if !okAspect {
			thin++
		}
	}
	s.log.Debug("clean",
		zap.Float64("mean", stat.Mean(abs, nil)),
		zap.Float64("bias", stat.Mean(values, nil)),
		zap.Float64("min", floats.Min(abs)),
		zap.Float64("max", floats.Max(abs)),
		zap.Int("far", far),
		zap.Int("small", small),
		zap.Int("aspect", thin),
	)
	removed := n - len(keep)
	if removed == 0 {
		return 0
	}
	c.compact(keep)
	s.NearestNeighbors = s.NearestNeighbors[:0]
	s.cleanCount += removed
	return removed
}

// Fill adds a springl for every iso-surface polygon whose centroid is
// further than FillDistance from the constellation. Quads are visited
// before triangles. It returns the number of springls added.
func (s *SpringLevelSet) Fill() int {
	c := &s.Constellation
	iso := &s.IsoSurface
	s.fillList = s.fillList[:0]
	n := c.NumSpringls()
	radius := int(math.Ceil(FillDistance))
	uncovered := make([]bool, len(iso.Faces))
	parallel.For(len(iso.Faces), func(_, start, end int) {
		var stencil []int
		var poly []r3.Vec
		for i := start; i < end; i++ {
			poly = iso.Polygon(poly[:0], i)
			ref := d3.Set(poly).Centroid()
			best := math.MaxFloat32
			if s.Index != nil {
				stencil = s.Index.Stencil(stencil[:0], d3.Round(ref), radius, n)
				for _, id := range stencil {
					best = math.Min(best, c.DistanceToFaceSqr(ref, id))
				}
			}
			uncovered[i] = best > FillDistance*FillDistance
		}
	})
	added := 0
	var poly []r3.Vec
	for _, size := range [2]int{4, 3} {
		for i, f := range iso.Faces {
			if !uncovered[i] || mesh.FaceSize(f) != size {
				continue
			}
			poly = iso.Polygon(poly[:0], i)
			id := c.add(poly)
			if len(c.ParticleVelocity) > 0 {
				s.fillList = append(s.fillList, id)
			}
			added++
		}
	}
	if added > 0 {
		s.NearestNeighbors = s.NearestNeighbors[:0]
	}
	s.fillCount += added
	return added
}

// FillWithNearestNeighbors assigns the springls added by the last Fill the
// mean velocity of their neighbors with non zero velocity. Springls with
// no such neighbor are retried, up to 16 passes.
func (s *SpringLevelSet) FillWithNearestNeighbors() {
	if len(s.fillList) == 0 {
		return
	}
	c := &s.Constellation
	s.UpdateUnsignedLevelSet(s.halfWidth)
	s.UpdateNearestNeighbors()
	for pass := 0; pass < 16; pass++ {
		unfilled := 0
		for _, id := range s.fillList {
			sp := c.Springls[id]
			var vel r3.Vec
			wsum := 0.0
			for k := 0; k < sp.Size; k++ {
				for _, nb := range s.NearestNeighbors[sp.Offset+k] {
					if v := c.ParticleVelocity[nb.SpringlID]; r3.Norm2(v) > 0 {
						vel = r3.Add(vel, v)
						wsum++
					}
				}
			}
			if wsum == 0 {
				unfilled++
				continue
			}
			c.setVelocity(id, r3.Scale(1/wsum, vel))
		}
		if unfilled == 0 {
			break
		}
		s.log.Debug("unfilled springls", zap.Int("pass", pass), zap.Int("count", unfilled))
	}
	s.fillList = s.fillList[:0]
}

// FillWithVelocityField assigns the springls added by the last Fill the
// velocity of f at time t, sampled at their particles and vertices.
func (s *SpringLevelSet) FillWithVelocityField(f field.Field, t float64) {
	c := &s.Constellation
	for _, id := range s.fillList {
		sp := c.Springls[id]
		c.ParticleVelocity[id] = f.Velocity(s.Map.ApplyMap(c.Particles[id]), t)
		if len(c.VertexVelocity) == 0 {
			continue
		}
		for k := 0; k < sp.Size; k++ {
			c.VertexVelocity[sp.Offset+k] = f.Velocity(s.Map.ApplyMap(c.Vertices[sp.Offset+k]), t)
		}
	}
	s.fillList = s.fillList[:0]
}

// Elements returns the number of springls.
func (s *SpringLevelSet) Elements() int { return s.Constellation.NumSpringls() }

// Added returns the number of springls added by Fill since the last
// call to ResetMetrics.
func (s *SpringLevelSet) Added() int { return s.fillCount }

// Removed returns the number of springls removed by Clean since the last
// call to ResetMetrics.
func (s *SpringLevelSet) Removed() int { return s.cleanCount }

// ResetMetrics zeroes the added and removed counters.
func (s *SpringLevelSet) ResetMetrics() {
	s.fillCount = 0
	s.cleanCount = 0
}
