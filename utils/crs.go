package utils

// CRS is a compressed-row-storage table of integer indices: a row-offset
// array of size nrows+1 delimiting variable-length rows packed into one
// flat value array. Row r occupies Data[RowPtr[r]:RowPtr[r+1]]. Offsets
// are non-decreasing.
//
// Distinct from the float-valued sparse CSR matrix wrapper: CRS holds
// adjacency lists (node ids, element ids), not matrix coefficients.
type CRS struct {
	RowPtr []int
	Data   []int
}

// NewCRS packs a ragged list of rows into compressed-row storage.
func NewCRS(rows [][]int) (R CRS) {
	R.RowPtr = make([]int, len(rows)+1)
	for i, row := range rows {
		R.RowPtr[i+1] = R.RowPtr[i] + len(row)
	}
	R.Data = make([]int, R.RowPtr[len(rows)])
	for i, row := range rows {
		copy(R.Data[R.RowPtr[i]:], row)
	}
	return
}

// NewCRSFromCounts allocates storage for rows of the given lengths,
// leaving the data zeroed for the caller to fill.
func NewCRSFromCounts(counts []int) (R CRS) {
	R.RowPtr = make([]int, len(counts)+1)
	for i, n := range counts {
		R.RowPtr[i+1] = R.RowPtr[i] + n
	}
	R.Data = make([]int, R.RowPtr[len(counts)])
	return
}

func (c CRS) NRows() int { return len(c.RowPtr) - 1 }

func (c CRS) NNZ() int { return len(c.Data) }

// Row returns the slice of values in row r, aliasing the flat storage.
func (c CRS) Row(r int) []int {
	return c.Data[c.RowPtr[r]:c.RowPtr[r+1]]
}

// RowLen returns the number of entries in row r.
func (c CRS) RowLen(r int) int {
	return c.RowPtr[r+1] - c.RowPtr[r]
}
