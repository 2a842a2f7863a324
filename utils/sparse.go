package utils

import (
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// DOK wraps a dictionary-of-keys sparse matrix used during assembly,
// before conversion to CSR for fast products.
type DOK struct {
	M *sparse.DOK
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		M: sparse.NewDOK(nr, nc),
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }

func (m DOK) Set(i, j int, val float64) {
	m.M.Set(i, j, val)
}

// Accumulate adds val into entry (i,j).
func (m DOK) Accumulate(i, j int, val float64) {
	m.M.Set(i, j, m.M.At(i, j)+val)
}

func (m DOK) NNZ() int { return m.M.NNZ() }

func (m DOK) ToCSR() CSR {
	return CSR{M: m.M.ToCSR()}
}

// CSR wraps a compressed-sparse-row matrix, the read-optimized form
// handed to solvers after assembly.
type CSR struct {
	M *sparse.CSR
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)    { return m.M.Dims() }
func (m CSR) At(i, j int) float64 { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix       { return m.M.T() }

func (m CSR) NNZ() int { return m.M.NNZ() }

// MulVec computes y = A*x for a dense vector x.
func (m CSR) MulVec(x Vector) (y Vector) {
	var (
		nr, _ = m.Dims()
	)
	y = NewVector(nr)
	out := mat.NewDense(nr, 1, y.DataP)
	xm := mat.NewDense(x.Len(), 1, x.DataP)
	out.Mul(m.M, xm)
	return
}

// ToDense expands the sparse matrix into dense storage so the dense
// factorization routines can consume it.
func (m CSR) ToDense() (R Matrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nr, nc)
	m.M.DoNonZero(func(i, j int, v float64) {
		R.DataP[i*nc+j] = v
	})
	return
}
