package projector

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
)

// ModelViewTransform maps directions from a sky frame into the camera
// frame. Implementations may be non-linear.
type ModelViewTransform interface {
	// Forward maps v from the sky frame into the camera frame.
	Forward(v r3.Vec) r3.Vec
	// Backward maps v from the camera frame back into the sky frame.
	Backward(v r3.Vec) r3.Vec
	// Combine right-multiplies the linear part by m.
	Combine(m mat.Matrix)
	// TransformMatrix returns the linear part as a new 4x4 matrix.
	TransformMatrix() *mat.Dense
	// Clone returns an independent copy.
	Clone() ModelViewTransform
}

// Mat4Transform is a plain rigid 4x4 model-view transform.
type Mat4Transform struct {
	m *mat.Dense
}

// NewMat4Transform returns a transform applying m.
func NewMat4Transform(m mat.Matrix) *Mat4Transform {
	return &Mat4Transform{m: mat.DenseCopyOf(m)}
}

// Forward applies the matrix to v.
func (t *Mat4Transform) Forward(v r3.Vec) r3.Vec {
	return astro.Apply(t.m, v)
}

// Backward removes the translation and applies the transposed rotation.
// The matrix is assumed orthogonal.
func (t *Mat4Transform) Backward(v r3.Vec) r3.Vec {
	return astro.ApplyTransposed(t.m, v)
}

// Combine sets the matrix to matrix·m.
func (t *Mat4Transform) Combine(m mat.Matrix) {
	t.m = astro.Mul(t.m, m)
}

// TransformMatrix returns a copy of the matrix.
func (t *Mat4Transform) TransformMatrix() *mat.Dense {
	return mat.DenseCopyOf(t.m)
}

// Clone returns a copy of t.
func (t *Mat4Transform) Clone() ModelViewTransform {
	return NewMat4Transform(t.m)
}
