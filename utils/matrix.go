package utils

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// DiagonalRegularization is the value added to the diagonal of near-singular
// symmetric systems before an LDLᵀ solve to guarantee positive definiteness.
const DiagonalRegularization = 1e-6

// SymMat3 is a symmetric 3×3 matrix stored as its upper triangle. It is the
// accumulator used for neighborhood covariances.
type SymMat3 struct {
	XX, XY, XZ float64
	YY, YZ     float64
	ZZ         float64
}

// AddOuter accumulates the outer product v·vᵀ.
func (m *SymMat3) AddOuter(v r3.Vector) {
	m.XX += v.X * v.X
	m.XY += v.X * v.Y
	m.XZ += v.X * v.Z
	m.YY += v.Y * v.Y
	m.YZ += v.Y * v.Z
	m.ZZ += v.Z * v.Z
}

// Scale multiplies every entry by s.
func (m *SymMat3) Scale(s float64) {
	m.XX *= s
	m.XY *= s
	m.XZ *= s
	m.YY *= s
	m.YZ *= s
	m.ZZ *= s
}

// AddDiagonal adds eps to each diagonal entry.
func (m *SymMat3) AddDiagonal(eps float64) {
	m.XX += eps
	m.YY += eps
	m.ZZ += eps
}

// MulVec returns m·v.
func (m SymMat3) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.XX*v.X + m.XY*v.Y + m.XZ*v.Z,
		Y: m.XY*v.X + m.YY*v.Y + m.YZ*v.Z,
		Z: m.XZ*v.X + m.YZ*v.Y + m.ZZ*v.Z,
	}
}

// SolveLDLT solves m·x = b by an LDLᵀ factorization. The second return is
// false when m is not positive definite; callers wanting a guaranteed solve
// should add DiagonalRegularization to the diagonal first.
func (m SymMat3) SolveLDLT(b r3.Vector) (r3.Vector, bool) {
	d1 := m.XX
	if d1 <= 0 {
		return r3.Vector{}, false
	}
	l21 := m.XY / d1
	l31 := m.XZ / d1
	d2 := m.YY - l21*l21*d1
	if d2 <= 0 {
		return r3.Vector{}, false
	}
	l32 := (m.YZ - l31*l21*d1) / d2
	d3 := m.ZZ - l31*l31*d1 - l32*l32*d2
	if d3 <= 0 {
		return r3.Vector{}, false
	}
	// forward substitution L·z = b
	z1 := b.X
	z2 := b.Y - l21*z1
	z3 := b.Z - l31*z1 - l32*z2
	// diagonal D·y = z
	y1 := z1 / d1
	y2 := z2 / d2
	y3 := z3 / d3
	// back substitution Lᵀ·x = y
	x3 := y3
	x2 := y2 - l32*x3
	x1 := y1 - l21*x2 - l31*x3
	return r3.Vector{X: x1, Y: x2, Z: x3}, true
}

// EigenSym3 returns the eigenvalues of m in ascending order together with the
// corresponding orthonormal eigenvectors. For rank-deficient input gonum still
// produces an orthonormal basis, so degenerate neighborhoods yield a unit
// vector from the degenerate subspace.
func EigenSym3(m SymMat3) (vals [3]float64, vecs [3]r3.Vector, ok bool) {
	sym := mat.NewSymDense(3, []float64{
		m.XX, m.XY, m.XZ,
		m.XY, m.YY, m.YZ,
		m.XZ, m.YZ, m.ZZ,
	})
	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return vals, vecs, false
	}
	v := eig.Values(nil)
	var evec mat.Dense
	eig.VectorsTo(&evec)
	for j := 0; j < 3; j++ {
		vals[j] = v[j]
		vecs[j] = r3.Vector{X: evec.At(0, j), Y: evec.At(1, j), Z: evec.At(2, j)}
	}
	return vals, vecs, true
}
