// Package shape provides signed distance functions used to seed spring
// level sets and samples them onto voxel grids.
//
// Distances are negative inside a shape and positive outside.
package shape

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	"github.com/soypat/springls/internal/d3"
	"github.com/soypat/springls/levelset"
	"gonum.org/v1/gonum/spatial/r3"
)

// SDF is a signed distance function in world space.
type SDF interface {
	Evaluate(p r3.Vec) float64
	Bounds() d3.Box
}

// Sample samples s onto a grid through wm. The grid covers the bounds of
// s grown by pad voxels and values are clamped to ±halfWidth voxels.
func Sample(s SDF, wm levelset.Map, halfWidth float64, pad int) (*levelset.Grid, error) {
	bb := s.Bounds()
	ibb := d3.EmptyBox()
	for _, corner := range [8]r3.Vec{
		bb.Min, bb.Max,
		{X: bb.Max.X, Y: bb.Min.Y, Z: bb.Min.Z}, {X: bb.Min.X, Y: bb.Max.Y, Z: bb.Min.Z},
		{X: bb.Min.X, Y: bb.Min.Y, Z: bb.Max.Z}, {X: bb.Max.X, Y: bb.Max.Y, Z: bb.Min.Z},
		{X: bb.Max.X, Y: bb.Min.Y, Z: bb.Max.Z}, {X: bb.Min.X, Y: bb.Max.Y, Z: bb.Max.Z},
	} {
		ibb = ibb.Include(wm.ApplyInverseMap(corner))
	}
	shape, err := levelset.NewShape(ibb, pad)
	if err != nil {
		return nil, fmt.Errorf("sampling shape: %w", err)
	}
	return levelset.SignedFromFunc(s.Evaluate, wm, shape, halfWidth), nil
}

// Fit returns a map with resolution voxels along the longest side of the
// bounds of s.
func Fit(s SDF, resolution int) levelset.Map {
	return levelset.FitMap(s.Bounds(), resolution)
}

type sphere struct {
	center r3.Vec
	radius float64
}

// Sphere returns an exact sphere.
func Sphere(center r3.Vec, radius float64) SDF {
	return sphere{center: center, radius: radius}
}

func (s sphere) Evaluate(p r3.Vec) float64 { return r3.Norm(r3.Sub(p, s.center)) - s.radius }

func (s sphere) Bounds() d3.Box { return d3.NewBox(s.center, d3.Elem(2*s.radius)) }

type torus struct {
	center       r3.Vec
	major, minor float64
}

// Torus returns a torus about the z axis through center.
func Torus(center r3.Vec, major, minor float64) SDF {
	return torus{center: center, major: major, minor: minor}
}

func (t torus) Evaluate(p r3.Vec) float64 {
	d := r3.Sub(p, t.center)
	q := math.Hypot(d.X, d.Y) - t.major
	return math.Hypot(q, d.Z) - t.minor
}

func (t torus) Bounds() d3.Box {
	r := t.major + t.minor
	return d3.NewBox(t.center, r3.Vec{X: 2 * r, Y: 2 * r, Z: 2 * t.minor})
}

// sdfx adapts a deadsy/sdfx solid.
type sdfx struct {
	s sdf.SDF3
}

// FromSDFX adapts a solid built with github.com/deadsy/sdfx.
func FromSDFX(s sdf.SDF3) SDF { return sdfx{s: s} }

func (x sdfx) Evaluate(p r3.Vec) float64 {
	return x.s.Evaluate(sdf.V3{X: p.X, Y: p.Y, Z: p.Z})
}

func (x sdfx) Bounds() d3.Box {
	bb := x.s.BoundingBox()
	return d3.Box{
		Min: r3.Vec{X: bb.Min.X, Y: bb.Min.Y, Z: bb.Min.Z},
		Max: r3.Vec{X: bb.Max.X, Y: bb.Max.Y, Z: bb.Max.Z},
	}
}

// Box returns a box of the given size centered at center with edges
// rounded by round.
func Box(center, size r3.Vec, round float64) (SDF, error) {
	s, err := sdf.Box3D(sdf.V3{X: size.X, Y: size.Y, Z: size.Z}, round)
	if err != nil {
		return nil, err
	}
	return FromSDFX(translate(s, center)), nil
}

// Cylinder returns a cylinder along z centered at center.
func Cylinder(center r3.Vec, height, radius, round float64) (SDF, error) {
	s, err := sdf.Cylinder3D(height, radius, round)
	if err != nil {
		return nil, err
	}
	return FromSDFX(translate(s, center)), nil
}

func translate(s sdf.SDF3, v r3.Vec) sdf.SDF3 {
	if v == (r3.Vec{}) {
		return s
	}
	return sdf.Transform3D(s, sdf.Translate3d(sdf.V3{X: v.X, Y: v.Y, Z: v.Z}))
}
