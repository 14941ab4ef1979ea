package levelset

import (
	"fmt"
	"math"

	"github.com/soypat/springls/field"
	"github.com/soypat/springls/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// MapKind enumerates the index to world transformations a Map can hold.
type MapKind int

const (
	TranslationMap MapKind = iota
	UniformScaleMap
	UniformScaleTranslateMap
	// UnitaryMap is a pure rotation.
	UnitaryMap
	// AffineMap is a general similarity transform. It is the result of
	// composing maps of different kinds.
	AffineMap
)

func (k MapKind) String() string {
	switch k {
	case TranslationMap:
		return "translation"
	case UniformScaleMap:
		return "uniform-scale"
	case UniformScaleTranslateMap:
		return "uniform-scale-translate"
	case UnitaryMap:
		return "unitary"
	case AffineMap:
		return "affine"
	}
	return fmt.Sprintf("MapKind(%d)", int(k))
}

// Map transforms index space to world space. The zero value is the
// identity translation.
type Map struct {
	kind MapKind
	t    d3.Transform
	inv  d3.Transform
}

func newMap(kind MapKind, t d3.Transform) Map {
	return Map{kind: kind, t: t, inv: t.Inv()}
}

// NewTranslationMap returns a map that offsets index space by v.
func NewTranslationMap(v r3.Vec) Map {
	return newMap(TranslationMap, d3.Transform{}.Translate(v))
}

// NewUniformScaleMap returns a map with voxels of side voxelSize.
func NewUniformScaleMap(voxelSize float64) Map {
	return newMap(UniformScaleMap, d3.NewTransform(r3.Rotation{}, voxelSize, r3.Vec{}))
}

// NewUniformScaleTranslateMap returns a map with voxels of side voxelSize
// and index origin at world position origin.
func NewUniformScaleTranslateMap(voxelSize float64, origin r3.Vec) Map {
	return newMap(UniformScaleTranslateMap, d3.NewTransform(r3.Rotation{}, voxelSize, origin))
}

// NewUnitaryMap returns a map that rotates index space.
func NewUnitaryMap(q r3.Rotation) Map {
	return newMap(UnitaryMap, d3.NewTransform(q, 1, r3.Vec{}))
}

// NewAffineMap returns a map applying the similarity transform t.
func NewAffineMap(t d3.Transform) Map {
	return newMap(AffineMap, t)
}

// FitMap returns the map that places index coordinates [0,resolution]
// along the longest side of the world box bb, keeping voxels cubic.
func FitMap(bb d3.Box, resolution int) Map {
	size := d3.Max(bb.Size())
	if size <= 0 || resolution <= 0 {
		return NewTranslationMap(bb.Min)
	}
	return NewUniformScaleTranslateMap(size/float64(resolution), bb.Min)
}

// Kind returns the map's kind.
func (m Map) Kind() MapKind { return m.kind }

// Transform returns the underlying index to world transform.
func (m Map) Transform() d3.Transform { return m.t }

// ApplyMap maps an index space position to world space.
func (m Map) ApplyMap(p r3.Vec) r3.Vec { return m.t.Transform(p) }

// ApplyInverseMap maps a world space position to index space.
func (m Map) ApplyInverseMap(p r3.Vec) r3.Vec { return m.inv.Transform(p) }

// ApplyJacobian maps an index space vector, such as a velocity, to world space.
func (m Map) ApplyJacobian(v r3.Vec) r3.Vec {
	return r3.Scale(m.t.Scale(), m.t.Rotate(v))
}

// ApplyInverseJacobian maps a world space vector to index space.
func (m Map) ApplyInverseJacobian(v r3.Vec) r3.Vec {
	return r3.Scale(m.inv.Scale(), m.inv.Rotate(v))
}

// IndexVelocity samples the world space field f at the index space
// position p and returns the velocity in voxels per unit time.
func (m Map) IndexVelocity(f field.Field, p r3.Vec, t float64) r3.Vec {
	return m.ApplyInverseJacobian(f.Velocity(m.ApplyMap(p), t))
}

// VoxelSize returns the world length of a voxel side.
func (m Map) VoxelSize() float64 { return m.t.Scale() }

// Compose returns the map applying m after other.
func (m Map) Compose(other Map) Map {
	kind := AffineMap
	if m.kind == other.kind {
		kind = m.kind
	}
	return newMap(kind, m.t.Mul(other.t))
}

func (m Map) String() string {
	return fmt.Sprintf("%s(voxel=%.4g, origin=%v)", m.kind, m.VoxelSize(), m.t.Translation())
}

// Equal reports whether two maps are of the same kind and transform within tol.
func (m Map) Equal(o Map, tol float64) bool {
	return m.kind == o.kind && m.t.Equals(o.t, tol) && math.Abs(m.VoxelSize()-o.VoxelSize()) <= tol
}
