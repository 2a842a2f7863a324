package basis

import (
	"fmt"

	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

// Runtime bounds on the supported polynomial order and spatial
// dimension. Construction fails beyond these rather than falling off a
// dispatch table.
const (
	MaxOrder = 8
	MaxDim   = 4
)

// Basis evaluates a scalar polynomial basis on a reference domain. A
// basis is stateless after construction and safe to share across every
// element of the same shape and order.
type Basis interface {
	NumBasis() int
	Order() int
	NumDim() int
	DomainType() types.DomainType
	// EvalAll returns all basis values at reference point xi.
	EvalAll(xi []float64) (Bi []float64)
	// EvalGradAll returns reference gradients as an nbasis x ndim matrix.
	EvalGradAll(xi []float64) (dBi utils.Matrix)
	// EvalHessAll returns reference Hessians as an nbasis x ndim*ndim
	// matrix, row i holding d2Bi/(dxi_j dxi_k) flattened row-major,
	// symmetric in (j,k).
	EvalHessAll(xi []float64) (hBi utils.Matrix)
	// RefNodes returns the nbasis x ndim reference node coordinates for a
	// nodal basis; basis coefficient i corresponds to reference node i.
	RefNodes() utils.Matrix
	IsNodal() bool
	IsOrthonormal() bool
}

// New constructs a basis for the given family, domain shape, dimension
// and order. Unsupported combinations return an explicit error rather
// than a half-built evaluator.
func New(bt types.BasisType, dt types.DomainType, ndim, order int) (b Basis, err error) {
	if bt != types.LAGRANGE {
		err = fmt.Errorf("unsupported basis family %s", bt.Print())
		return
	}
	if ndim < 1 || ndim > MaxDim {
		err = fmt.Errorf("basis requires 1 <= ndim <= %d, got %d", MaxDim, ndim)
		return
	}
	if order < 0 || order > MaxOrder {
		err = fmt.Errorf("basis requires 0 <= order <= %d, got %d", MaxOrder, order)
		return
	}
	switch dt {
	case types.HYPERCUBE:
		b = NewTensorLagrange(ndim, order)
	case types.SIMPLEX:
		b = NewSimplexLagrange(ndim, order)
	default:
		err = fmt.Errorf("unsupported domain type %d for basis construction", dt)
	}
	return
}
