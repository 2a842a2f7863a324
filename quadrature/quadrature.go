// Package quadrature provides reference-domain integration rules: tensor
// product Gauss-Legendre on the hypercube [-1,1]^d and Grundmann-Moeller
// on the unit simplex. Rules are sized from the polynomial order of the
// basis they will integrate so that mass and stiffness contractions stay
// exact.
package quadrature

import (
	"fmt"
	"math"

	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

// Rule holds the points and weights of a quadrature rule on a reference
// domain. Points is npoints x ndim; a 0-dimensional rule (used on the
// vertex faces of 1D elements) has an empty Points matrix and a single
// unit weight.
type Rule struct {
	Domain  types.DomainType
	Dim     int
	Points  utils.Matrix
	Weights utils.Vector
}

func (q *Rule) NumPoints() int { return q.Weights.Len() }
func (q *Rule) NumDim() int    { return q.Dim }

// Point returns quadrature point i and its weight. The returned slice
// aliases the rule's storage; callers must not mutate it.
func (q *Rule) Point(i int) (xi []float64, w float64) {
	if q.Dim > 0 {
		xi = q.Points.RowView(i)
	}
	w = q.Weights.DataP[i]
	return
}

// New dispatches on rule kind and domain shape. basisOrder is the
// polynomial order of the approximation the rule must integrate;
// unsupported kind/shape pairings return an explicit error.
func New(qt types.QuadratureType, dt types.DomainType, ndim, basisOrder int) (q *Rule, err error) {
	if ndim == 0 {
		return NewPointRule(), nil
	}
	switch {
	case qt == types.GAUSS_LEGENDRE && dt == types.HYPERCUBE:
		q, err = NewGaussLegendre(ndim, basisOrder)
	case qt == types.GRUNDMANN_MOELLER && dt == types.SIMPLEX:
		q, err = NewGrundmannMoeller(ndim, basisOrder)
	default:
		err = fmt.Errorf("no %s quadrature on domain %s",
			qt.Print(), dt.Print())
	}
	return
}

// ForDomain picks the natural rule family for a domain shape.
func ForDomain(dt types.DomainType, ndim, basisOrder int) (q *Rule, err error) {
	switch dt {
	case types.HYPERCUBE:
		return New(types.GAUSS_LEGENDRE, dt, ndim, basisOrder)
	case types.SIMPLEX:
		return New(types.GRUNDMANN_MOELLER, dt, ndim, basisOrder)
	}
	err = fmt.Errorf("no quadrature family for domain %s", dt.Print())
	return
}

// NewPointRule is the trivial rule on a zero-dimensional domain: one
// point, unit weight.
func NewPointRule() (q *Rule) {
	q = &Rule{
		Domain:  types.HYPERCUBE,
		Dim:     0,
		Weights: utils.NewVector(1, []float64{1}),
	}
	return
}

// NewGaussLegendre builds the tensor product Gauss-Legendre rule on
// [-1,1]^ndim with basisOrder+1 points per axis, exact for polynomials
// of per-axis degree 2*basisOrder+1. Point ordering follows the tensor
// basis convention: the last axis varies fastest.
func NewGaussLegendre(ndim, basisOrder int) (q *Rule, err error) {
	if ndim < 1 {
		err = fmt.Errorf("gauss-legendre rule requires ndim >= 1, got %d", ndim)
		return
	}
	if basisOrder < 0 {
		err = fmt.Errorf("gauss-legendre rule requires basisOrder >= 0, got %d", basisOrder)
		return
	}
	var (
		X, W = JacobiGQ(0, 0, basisOrder)
		n1   = basisOrder + 1
		npts = utils.IntPow(n1, ndim)
	)
	q = &Rule{
		Domain:  types.HYPERCUBE,
		Dim:     ndim,
		Points:  utils.NewMatrix(npts, ndim),
		Weights: utils.NewVector(npts),
	}
	for m := 0; m < npts; m++ {
		w := 1.
		rem := m
		for d := ndim - 1; d >= 0; d-- {
			i1 := rem % n1
			rem /= n1
			q.Points.DataP[m*ndim+d] = X.DataP[i1]
			w *= W.DataP[i1]
		}
		q.Weights.DataP[m] = w
	}
	return
}

// NewGrundmannMoeller builds the Grundmann-Moeller rule of index
// s = basisOrder+1 on the unit simplex, exact for total degree 2s+1.
// Weights alternate in sign but sum to the simplex volume 1/ndim!.
func NewGrundmannMoeller(ndim, basisOrder int) (q *Rule, err error) {
	if ndim < 1 {
		err = fmt.Errorf("grundmann-moeller rule requires ndim >= 1, got %d", ndim)
		return
	}
	if basisOrder < 0 {
		err = fmt.Errorf("grundmann-moeller rule requires basisOrder >= 0, got %d", basisOrder)
		return
	}
	var (
		s    = basisOrder + 1
		d    = ndim
		pts  [][]float64
		wts  []float64
		vol  = 1 / utils.Factorial(d)
		norm float64
	)
	for i := 0; i <= s; i++ {
		denom := float64(d + 2*s + 1 - 2*i)
		coeff := math.Pow(denom, float64(2*s+1)) /
			(utils.Factorial(i) * utils.Factorial(d+2*s+1-i))
		coeff *= math.Pow(2, float64(-2*s))
		if i%2 == 1 {
			coeff = -coeff
		}
		for _, beta := range compositions(d+1, s-i) {
			xi := make([]float64, d)
			for k := 0; k < d; k++ {
				xi[k] = (2*float64(beta[k+1]) + 1) / denom
			}
			pts = append(pts, xi)
			wts = append(wts, coeff)
			norm += coeff
		}
	}
	q = &Rule{
		Domain:  types.SIMPLEX,
		Dim:     ndim,
		Points:  utils.NewMatrix(len(pts), ndim),
		Weights: utils.NewVector(len(wts)),
	}
	// renormalize the weight sum to the exact simplex volume, absorbing
	// roundoff from the large alternating coefficient products
	scale := vol / norm
	for m, xi := range pts {
		copy(q.Points.DataP[m*ndim:(m+1)*ndim], xi)
		q.Weights.DataP[m] = wts[m] * scale
	}
	return
}

// compositions enumerates nonnegative nparts-tuples summing to total.
func compositions(nparts, total int) (out [][]int) {
	cur := make([]int, nparts)
	var recurse func(pos, rem int)
	recurse = func(pos, rem int) {
		if pos == nparts-1 {
			cur[pos] = rem
			beta := make([]int, nparts)
			copy(beta, cur)
			out = append(out, beta)
			return
		}
		for v := rem; v >= 0; v-- {
			cur[pos] = v
			recurse(pos+1, rem-v)
		}
	}
	recurse(0, total)
	return
}
