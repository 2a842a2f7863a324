package basis

import (
	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

// TensorLagrange is the tensor product of 1D Lagrange bases on the
// reference hypercube [-1,1]^ndim. Basis m carries the multi-index
// IJK[m]; the enumeration is lexicographic with the LAST axis varying
// fastest, so the stride between consecutive indices of axis i is
// (order+1)^(ndim-i-1).
type TensorLagrange struct {
	P, Dim  int
	NBasis  int
	Strides []int
	IJK     [][]int
	lag     Lagrange1D
	nodes   utils.Matrix
}

func NewTensorLagrange(ndim, p int) (tb *TensorLagrange) {
	var (
		nb1d = p + 1
	)
	tb = &TensorLagrange{
		P:       p,
		Dim:     ndim,
		NBasis:  utils.IntPow(nb1d, ndim),
		Strides: make([]int, ndim),
		lag:     NewLagrange1D(p),
	}
	for i := 0; i < ndim; i++ {
		tb.Strides[i] = utils.IntPow(nb1d, ndim-i-1)
	}
	tb.IJK = make([][]int, tb.NBasis)
	tb.nodes = utils.NewMatrix(tb.NBasis, ndim)
	for m := 0; m < tb.NBasis; m++ {
		ijk := make([]int, ndim)
		for d := 0; d < ndim; d++ {
			ijk[d] = (m / tb.Strides[d]) % nb1d
		}
		tb.IJK[m] = ijk
		for d := 0; d < ndim; d++ {
			tb.nodes.DataP[m*ndim+d] = tb.lag.Nodes[ijk[d]]
		}
	}
	return
}

func (tb *TensorLagrange) NumBasis() int               { return tb.NBasis }
func (tb *TensorLagrange) Order() int                  { return tb.P }
func (tb *TensorLagrange) NumDim() int                 { return tb.Dim }
func (tb *TensorLagrange) DomainType() types.DomainType { return types.HYPERCUBE }
func (tb *TensorLagrange) IsNodal() bool               { return true }
func (tb *TensorLagrange) IsOrthonormal() bool         { return false }
func (tb *TensorLagrange) RefNodes() utils.Matrix      { return tb.nodes }

func (tb *TensorLagrange) EvalAll(xi []float64) (Bi []float64) {
	var (
		evals = make([][]float64, tb.Dim)
	)
	for d := 0; d < tb.Dim; d++ {
		evals[d] = tb.lag.EvalAll(xi[d])
	}
	Bi = make([]float64, tb.NBasis)
	for m := 0; m < tb.NBasis; m++ {
		v := 1.
		for d := 0; d < tb.Dim; d++ {
			v *= evals[d][tb.IJK[m][d]]
		}
		Bi[m] = v
	}
	return
}

func (tb *TensorLagrange) EvalGradAll(xi []float64) (dBi utils.Matrix) {
	var (
		evals  = make([][]float64, tb.Dim)
		derivs = make([][]float64, tb.Dim)
	)
	for d := 0; d < tb.Dim; d++ {
		evals[d], derivs[d] = tb.lag.DerivAll(xi[d])
	}
	dBi = utils.NewMatrix(tb.NBasis, tb.Dim)
	for m := 0; m < tb.NBasis; m++ {
		for j := 0; j < tb.Dim; j++ {
			v := 1.
			for d := 0; d < tb.Dim; d++ {
				if d == j {
					v *= derivs[d][tb.IJK[m][d]]
				} else {
					v *= evals[d][tb.IJK[m][d]]
				}
			}
			dBi.DataP[m*tb.Dim+j] = v
		}
	}
	return
}

func (tb *TensorLagrange) EvalHessAll(xi []float64) (hBi utils.Matrix) {
	var (
		ndim   = tb.Dim
		evals  = make([][]float64, ndim)
		derivs = make([][]float64, ndim)
		d2s    = make([][]float64, ndim)
	)
	for d := 0; d < ndim; d++ {
		evals[d], derivs[d], d2s[d] = tb.lag.D2All(xi[d])
	}
	hBi = utils.NewMatrix(tb.NBasis, ndim*ndim)
	for m := 0; m < tb.NBasis; m++ {
		row := hBi.DataP[m*ndim*ndim : (m+1)*ndim*ndim]
		for i := 0; i < ndim; i++ {
			for j := i; j < ndim; j++ {
				v := 1.
				for d := 0; d < ndim; d++ {
					ib := tb.IJK[m][d]
					switch {
					case i == j && d == i:
						v *= d2s[d][ib]
					case d == i || d == j:
						v *= derivs[d][ib]
					default:
						v *= evals[d][ib]
					}
				}
				row[i*ndim+j] = v
				row[j*ndim+i] = v
			}
		}
	}
	return
}
