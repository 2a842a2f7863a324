package disc

import (
	"fmt"

	"github.com/numflux/galerkin/element"
	"github.com/numflux/galerkin/fespace"
	"github.com/numflux/galerkin/utils"
)

// Projection is the right-hand side of an elementwise L2 projection:
// its domain integral tests a pointwise function against the element's
// basis. Pairing it with ElementSolver recovers the best broken-L2
// approximation of the function, the standard way to set initial
// conditions.
type Projection struct {
	Func SourceFunc
	Neq  int
}

// DomainIntegral accumulates ∫ f·φ over one element into res
// (ndof x neq).
func (p Projection) DomainIntegral(el *element.FiniteElement, res utils.Matrix) {
	var (
		nbasis = el.NumBasis()
		f      = make([]float64, p.Neq)
	)
	for iqp := 0; iqp < el.NumQP(); iqp++ {
		_, w := el.QuadPoint(iqp)
		detJ := el.JacobianDetQP(iqp)
		if detJ <= 0 {
			continue
		}
		p.Func(el.TransformQP(iqp), f)
		bi := el.BasisQP(iqp)
		for itest := 0; itest < nbasis; itest++ {
			for ieq := 0; ieq < p.Neq; ieq++ {
				res.DataP[itest*p.Neq+ieq] += f[ieq] * bi[itest] * detJ * w
			}
		}
	}
}

// ElementSolver inverts one element's mass matrix, turning tested
// right-hand sides into coefficient vectors.
type ElementSolver struct {
	Mass utils.Matrix
}

// NewElementSolver assembles the element mass matrix with the
// element's own quadrature.
func NewElementSolver(el *element.FiniteElement) (es ElementSolver) {
	nbasis := el.NumBasis()
	es.Mass = utils.NewMatrix(nbasis, nbasis)
	for iqp := 0; iqp < el.NumQP(); iqp++ {
		_, w := el.QuadPoint(iqp)
		detJ := el.JacobianDetQP(iqp)
		if detJ <= 0 {
			continue
		}
		bi := el.BasisQP(iqp)
		for i := 0; i < nbasis; i++ {
			for j := 0; j < nbasis; j++ {
				es.Mass.DataP[i*nbasis+j] += bi[i] * bi[j] * detJ * w
			}
		}
	}
	return
}

// Solve fills x (ndof x neq) with the solution of Mass·x = rhs.
func (es ElementSolver) Solve(rhs, x utils.Matrix) (err error) {
	var sol utils.Matrix
	if sol, err = es.Mass.LUSolve(rhs); err != nil {
		return
	}
	copy(x.DataP, sol.DataP)
	return
}

// ProjectFunction sets u (laid out by the space's DG dof map) to the
// broken-L2 projection of f, element by element.
func ProjectFunction(fes *fespace.FESpace, neq int, f SourceFunc, u []float64) (err error) {
	proj := Projection{Func: f, Neq: neq}
	for _, el := range fes.Elements {
		var (
			res = utils.NewMatrix(el.NumBasis(), neq)
			uel = utils.NewMatrix(el.NumBasis(), neq)
		)
		proj.DomainIntegral(el, res)
		es := NewElementSolver(el)
		if err = es.Solve(res, uel); err != nil {
			return fmt.Errorf("element %d: projection solve: %w", el.Index, err)
		}
		fes.DGMap.ScatterEl(el.Index, neq, uel, u, false)
	}
	return
}
