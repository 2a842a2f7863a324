package utils

import (
	"fmt"

	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

type Matrix struct {
	M        *mat.Dense
	DataP    []float64
	readOnly bool
	name     string
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v\n",
				nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{
		M:     m,
		name:  "unnamed - hint: pass a variable name to SetReadOnly()",
		DataP: m.RawMatrix().Data,
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)    { return m.M.Dims() }
func (m Matrix) At(i, j int) float64 { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix       { return m.M.T() }

func (m *Matrix) SetReadOnly(name ...string) Matrix {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m *Matrix) SetWritable() Matrix {
	m.readOnly = false
	return *m
}

func (m Matrix) Copy() (R Matrix) {
	var (
		nr, nc = m.Dims()
		dataR  = make([]float64, nr*nc)
	)
	copy(dataR, m.DataP)
	R = NewMatrix(nr, nc, dataR)
	return
}

func (m Matrix) Transpose() (R Matrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nc, nr)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.DataP[j*nr+i] = m.DataP[i*nc+j]
		}
	}
	return
}

func (m Matrix) Mul(A Matrix) (R Matrix) {
	var (
		nrM, _ = m.M.Dims()
		_, ncA = A.M.Dims()
	)
	R = NewMatrix(nrM, ncA)
	R.M.Mul(m.M, A.M)
	return
}

// MulVec right-multiplies by a vector, returning a new vector.
func (m Matrix) MulVec(v Vector) (R Vector) {
	var (
		nr, _ = m.Dims()
	)
	R = NewVector(nr)
	R.V.MulVec(m.M, v.V)
	return
}

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

func (m Matrix) Add(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	for i, val := range A.DataP {
		m.DataP[i] += val
	}
	return m
}

func (m Matrix) Subtract(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	for i, val := range A.DataP {
		m.DataP[i] -= val
	}
	return m
}

func (m Matrix) Zero() Matrix { // Changes receiver
	m.checkWritable()
	for i := range m.DataP {
		m.DataP[i] = 0
	}
	return m
}

// RowView aliases row i's storage. Mutations through the returned slice
// write into the matrix.
func (m Matrix) RowView(i int) []float64 {
	var (
		_, nc = m.Dims()
	)
	return m.DataP[i*nc : (i+1)*nc]
}

func (m Matrix) SliceRows(I Index) (R Matrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(len(I), nc)
	for iNewRow, i := range I {
		if i > nr-1 || i < 0 {
			err := fmt.Errorf("index out of bounds: index = %d, max_bounds = %d", i, nr-1)
			panic(err)
		}
		R.M.SetRow(iNewRow, m.M.RawRowView(i))
	}
	return
}

func (m Matrix) SliceCols(I Index) (R Matrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nr, len(I))
	for jNewCol, j := range I {
		if j > nc-1 || j < 0 {
			err := fmt.Errorf("index out of bounds: index = %d, max_bounds = %d", j, nc-1)
			panic(err)
		}
		for i := 0; i < nr; i++ {
			R.DataP[i*len(I)+jNewCol] = m.DataP[i*nc+j]
		}
	}
	return
}

// SumRows sums along rows, returning one value per row.
func (m Matrix) SumRows() (V Vector) {
	var (
		nr, nc = m.Dims()
	)
	V = NewVector(nr)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			V.DataP[i] += m.DataP[i*nc+j]
		}
	}
	return
}

// SumCols sums along columns, returning one value per column.
func (m Matrix) SumCols() (V Vector) {
	var (
		nr, nc = m.Dims()
	)
	V = NewVector(nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			V.DataP[j] += m.DataP[i*nc+j]
		}
	}
	return
}

// FrobNorm is the Frobenius norm, the root of the sum of squared entries.
func (m Matrix) FrobNorm() (nrm float64) {
	return mat.Norm(m.M, 2)
}

func (m Matrix) IndexedAssign(I2 Index2D, Val Index) (err error) { // Changes receiver
	m.checkWritable()
	if I2.Len != len(Val) {
		err = fmt.Errorf("length of index and values are not equal: len(I2) = %v, len(Val) = %v",
			I2.Len, len(Val))
		return
	}
	for i, val := range Val {
		m.DataP[I2.Ind[i]] = float64(val)
	}
	return
}

func (m Matrix) Inverse() (R Matrix, err error) {
	var (
		nr, nc = m.Dims()
	)
	R = m.Copy()
	iPiv := make([]int, nr)
	if ok := lapack64.Getrf(R.M.RawMatrix(), iPiv); !ok {
		err = fmt.Errorf("unable to invert, matrix is singular")
		return
	}
	work := make([]float64, nr*nc)
	if ok := lapack64.Getri(R.M.RawMatrix(), iPiv, work, nr*nc); !ok {
		err = fmt.Errorf("unable to invert, matrix is singular")
	}
	return
}

// LUSolve solves m*X = B for X using an LU factorization of m.
func (m Matrix) LUSolve(B Matrix) (X Matrix, err error) {
	var lu mat.LU
	lu.Factorize(m.M)
	X = NewMatrix(B.M.RawMatrix().Rows, B.M.RawMatrix().Cols)
	if err = lu.SolveTo(X.M, false, B.M); err != nil {
		return
	}
	X.DataP = X.M.RawMatrix().Data
	return
}

func (m Matrix) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

// NewSymTriDiagonal builds a dense symmetric matrix from its main
// diagonal d0 and first super-diagonal d1.
func NewSymTriDiagonal(d0, d1 []float64) (S *mat.SymDense) {
	var (
		n = len(d0)
	)
	S = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		S.SetSym(i, i, d0[i])
		if i < n-1 {
			S.SetSym(i, i+1, d1[i])
		}
	}
	return
}

// MatFind returns the row/column positions within MI where (MI[i,j] op val)
// holds. Works on any mat.Matrix, including sparse forms.
func MatFind(MI mat.Matrix, op EvalOp, val float64) (I2 Index2D) {
	var (
		nr, nc         = MI.Dims()
		rowInd, colInd Index
	)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if opCompare(MI.At(i, j), val, op) {
				rowInd = append(rowInd, i)
				colInd = append(colInd, j)
			}
		}
	}
	I2, _ = NewIndex2D(nr, nc, rowInd, colInd)
	return
}

func opCompare(x, val float64, op EvalOp) bool {
	switch op {
	case Equal:
		return x == val
	case Less:
		return x < val
	case LessOrEqual:
		return x <= val
	case Greater:
		return x > val
	case GreaterOrEqual:
		return x >= val
	}
	return false
}
