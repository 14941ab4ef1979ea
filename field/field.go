// Package field provides velocity fields sampled in world space.
package field

import (
	"math"

	"github.com/soypat/springls/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Field is a time dependent velocity field. Implementations must be safe
// for concurrent use.
type Field interface {
	Velocity(p r3.Vec, t float64) r3.Vec
}

// Func adapts a function to the Field interface.
type Func func(p r3.Vec, t float64) r3.Vec

func (f Func) Velocity(p r3.Vec, t float64) r3.Vec { return f(p, t) }

// Constant is a uniform velocity field.
type Constant r3.Vec

func (c Constant) Velocity(r3.Vec, float64) r3.Vec { return r3.Vec(c) }

// Rotation spins space rigidly about an axis through Center with
// angular speed Omega in radians per unit time.
type Rotation struct {
	Center r3.Vec
	Axis   r3.Vec
	Omega  float64
}

func (r Rotation) Velocity(p r3.Vec, _ float64) r3.Vec {
	if r3.Norm2(r.Axis) == 0 {
		return r3.Vec{}
	}
	return r3.Scale(r.Omega, r3.Cross(r3.Unit(r.Axis), r3.Sub(p, r.Center)))
}

// Enright is the periodic deformation field of the Enright test. Points
// inside the unit cube are stretched and return to their start at
// multiples of Period. A zero Period uses 3.
type Enright struct {
	Period float64
}

func (e Enright) Velocity(p r3.Vec, t float64) r3.Vec {
	period := e.Period
	if period == 0 {
		period = 3
	}
	px, py, pz := math.Pi*p.X, math.Pi*p.Y, math.Pi*p.Z
	tr := math.Cos(t * math.Pi / period)
	a := math.Sin(2 * py)
	b := -math.Sin(2 * px)
	c := math.Sin(2 * pz)
	sx, sy, sz := math.Sin(px), math.Sin(py), math.Sin(pz)
	return r3.Vec{
		X: tr * 2 * sx * sx * a * c,
		Y: tr * b * sy * sy * c,
		Z: tr * b * a * sz * sz,
	}
}

// Twist rotates the part of space above a plane about the Y axis of
// a local frame. Pose maps world to the local frame. Points whose local
// Y exceeds Position spin with unit angular speed.
type Twist struct {
	Pose     d3.Transform
	Position float64
}

func (tw Twist) Velocity(p r3.Vec, _ float64) r3.Vec {
	lt := tw.Pose.Transform(p)
	if lt.Y <= tw.Position {
		return r3.Vec{}
	}
	v := r3.Vec{X: -lt.Z, Z: lt.X}
	return tw.Pose.Inv().Rotate(v)
}

// Scaled multiplies the velocity of F by S.
type Scaled struct {
	F Field
	S float64
}

func (s Scaled) Velocity(p r3.Vec, t float64) r3.Vec {
	return r3.Scale(s.S, s.F.Velocity(p, t))
}
