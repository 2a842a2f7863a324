package utils

import (
	"fmt"
)

type Index []int

func NewRange(rmin, rmax int) (r Index) {
	var (
		size = rmax - rmin + 1 // INCLUSIVE RANGE
	)
	r = make(Index, size)
	for i := range r {
		r[i] = i + rmin
	}
	return
}

func NewRangeOffset(rmin, rmax int) (r Index) {
	// Input range is "1 based" and converted to zero based index
	return NewRange(rmin-1, rmax-1)
}

func NewOnes(N int) (r Index) {
	r = make(Index, N)
	for i := 0; i < N; i++ {
		r[i] = 1
	}
	return
}

func (I Index) Add(val int) (r Index) {
	r = make(Index, len(I))
	for i, ival := range I {
		r[i] = val + ival
	}
	return
}

// Outer forms the outer product of two integer indices as a float matrix.
func (I Index) Outer(J Index) (A Matrix) {
	var (
		ni = len(I)
		nj = len(J)
	)
	A = NewMatrix(ni, nj)
	for i := 0; i < ni; i++ {
		for j := 0; j < nj; j++ {
			A.DataP[i*nj+j] = float64(I[i] * J[j])
		}
	}
	return
}

// Index2D composes row/column index pairs over an nr x nc matrix into
// flattened row-major positions.
type Index2D struct {
	RI, CI Index
	Ind    Index
	Len    int
}

func NewIndex2D(nr, nc int, RI, CI Index) (I2 Index2D, err error) {
	if len(RI) != len(CI) {
		err = fmt.Errorf("lengths of row and column indices must be the same: nr, nc = %v, %v",
			len(RI), len(CI))
		return
	}
	I2 = Index2D{
		RI:  RI,
		CI:  CI,
		Ind: make(Index, len(RI)),
		Len: len(RI),
	}
	for i := range RI {
		if RI[i] < 0 || RI[i] >= nr || CI[i] < 0 || CI[i] >= nc {
			err = fmt.Errorf("index out of bounds: ri, ci = %v, %v, nr, nc = %v, %v",
				RI[i], CI[i], nr, nc)
			return
		}
		I2.Ind[i] = CI[i] + RI[i]*nc
	}
	return
}
