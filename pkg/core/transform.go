package core

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrSingularMatrix is returned when a transform has no inverse
	ErrSingularMatrix = errors.New("matrix is not invertible")
	// ErrNotAffine is returned for matrices with non-finite entries or a
	// bottom row other than 0 0 0 1
	ErrNotAffine = errors.New("matrix is not a finite affine transform")
)

// singularTolerance bounds |det| relative to the product of the column
// lengths of the linear part. The ratio is 1 for any rotation or uniform
// scale and 0 when the columns are linearly dependent.
const singularTolerance = 1e-10

// Transform is a 4x4 affine transform acting on points, vectors and rays.
// The zero value is not valid; use Identity or one of the constructors.
type Transform struct {
	m mgl64.Mat4
}

// Identity returns the identity transform
func Identity() Transform {
	return Transform{m: mgl64.Ident4()}
}

// Translation returns a transform that moves points by (x, y, z)
func Translation(x, y, z float64) Transform {
	return Transform{m: mgl64.Translate3D(x, y, z)}
}

// Scaling returns a transform that scales along each axis
func Scaling(x, y, z float64) Transform {
	return Transform{m: mgl64.Scale3D(x, y, z)}
}

// Rotation returns a rotation of angleDegrees around the given axis
func Rotation(angleDegrees float64, axis Vec3) Transform {
	a := axis.Normalize()
	return Transform{m: mgl64.HomogRotate3D(mgl64.DegToRad(angleDegrees), mgl64.Vec3{a.X, a.Y, a.Z})}
}

// RotationX returns a rotation of angleDegrees around the X axis
func RotationX(angleDegrees float64) Transform {
	return Transform{m: mgl64.HomogRotate3DX(mgl64.DegToRad(angleDegrees))}
}

// RotationY returns a rotation of angleDegrees around the Y axis
func RotationY(angleDegrees float64) Transform {
	return Transform{m: mgl64.HomogRotate3DY(mgl64.DegToRad(angleDegrees))}
}

// RotationZ returns a rotation of angleDegrees around the Z axis
func RotationZ(angleDegrees float64) Transform {
	return Transform{m: mgl64.HomogRotate3DZ(mgl64.DegToRad(angleDegrees))}
}

// NewTransform builds a transform from 16 values given in row-major order
func NewTransform(rowMajor [16]float64) Transform {
	var m mgl64.Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			m.Set(row, col, rowMajor[row*4+col])
		}
	}
	return Transform{m: m}
}

// Matrix exposes the underlying column-major matrix
func (t Transform) Matrix() mgl64.Mat4 {
	return t.m
}

// At returns the matrix element at the given row and column
func (t Transform) At(row, col int) float64 {
	return t.m.At(row, col)
}

// Mul returns t * other; applying the result is the same as applying other first, then t
func (t Transform) Mul(other Transform) Transform {
	return Transform{m: t.m.Mul4(other.m)}
}

// CheckAffine returns ErrNotAffine unless every entry is finite and the
// bottom row is 0 0 0 1
func (t Transform) CheckAffine() error {
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			v := t.At(row, col)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return ErrNotAffine
			}
		}
	}
	if t.At(3, 0) != 0 || t.At(3, 1) != 0 || t.At(3, 2) != 0 || t.At(3, 3) != 1 {
		return ErrNotAffine
	}
	return nil
}

// Inverse returns the inverse transform. It fails with ErrNotAffine for
// projective or non-finite matrices and with ErrSingularMatrix when the
// linear part collapses a dimension. The test is scale independent, so a
// tiny uniform scale still inverts.
func (t Transform) Inverse() (Transform, error) {
	if err := t.CheckAffine(); err != nil {
		return Transform{}, err
	}

	c0, c1, c2 := t.m.Col(0).Vec3(), t.m.Col(1).Vec3(), t.m.Col(2).Vec3()
	det := c0.Dot(c1.Cross(c2))
	scale := c0.Len() * c1.Len() * c2.Len()
	if scale == 0 || math.IsNaN(det) || math.Abs(det) <= singularTolerance*scale {
		return Transform{}, ErrSingularMatrix
	}

	// Rows of the inverse linear part are the cross products of column pairs
	inv := mgl64.Mat3FromRows(
		c1.Cross(c2).Mul(1/det),
		c2.Cross(c0).Mul(1/det),
		c0.Cross(c1).Mul(1/det),
	).Mat4()
	translation := inv.Mat3().Mul3x1(t.m.Col(3).Vec3()).Mul(-1)
	inv.SetCol(3, translation.Vec4(1))

	result := Transform{m: inv}
	if err := result.CheckAffine(); err != nil {
		return Transform{}, ErrSingularMatrix
	}
	return result, nil
}

// Transpose returns the transposed transform
func (t Transform) Transpose() Transform {
	return Transform{m: t.m.Transpose()}
}

// IsIdentity reports whether t is exactly the identity
func (t Transform) IsIdentity() bool {
	return t.m == mgl64.Ident4()
}

// ApproxEqual compares two transforms element-wise within epsilon
func (t Transform) ApproxEqual(other Transform, epsilon float64) bool {
	for i := range t.m {
		if math.Abs(t.m[i]-other.m[i]) > epsilon {
			return false
		}
	}
	return true
}

// Point applies the transform to a point (w = 1)
func (t Transform) Point(p Vec3) Vec3 {
	v := mgl64.TransformCoordinate(mgl64.Vec3{p.X, p.Y, p.Z}, t.m)
	return NewVec3(v[0], v[1], v[2])
}

// Vector applies the transform to a direction (w = 0), ignoring translation
func (t Transform) Vector(d Vec3) Vec3 {
	v := mgl64.TransformNormal(mgl64.Vec3{d.X, d.Y, d.Z}, t.m)
	return NewVec3(v[0], v[1], v[2])
}

// Ray transforms both the origin and the direction of r.
// The direction is deliberately left unnormalized so that ray parameters
// measured in the target frame equal those in the source frame.
func (t Transform) Ray(r Ray) Ray {
	return Ray{Origin: t.Point(r.Origin), Direction: t.Vector(r.Direction)}
}
