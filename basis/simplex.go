package basis

import (
	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

// SimplexLagrange is the nodal Lagrange basis on the unit simplex
// {xi_i >= 0, sum xi <= 1}, built from Silvester's principal-lattice
// construction over barycentric coordinates. Basis m carries the
// barycentric exponent multi-index Alphas[m] (length ndim+1, summing to
// the order); multi-indices are enumerated in descending lexicographic
// order, so vertex 0 (the origin, lambda_0 = 1) comes first.
type SimplexLagrange struct {
	P, Dim int
	NBasis int
	Alphas [][]int
	nodes  utils.Matrix
}

func NewSimplexLagrange(ndim, p int) (sb *SimplexLagrange) {
	sb = &SimplexLagrange{
		P:   p,
		Dim: ndim,
	}
	sb.Alphas = simplexMultiIndices(ndim+1, p)
	sb.NBasis = len(sb.Alphas)
	sb.nodes = utils.NewMatrix(sb.NBasis, ndim)
	for m, alpha := range sb.Alphas {
		for i := 0; i < ndim; i++ {
			if p == 0 {
				// single collocation point at the centroid
				sb.nodes.DataP[m*ndim+i] = 1. / float64(ndim+1)
			} else {
				sb.nodes.DataP[m*ndim+i] = float64(alpha[i+1]) / float64(p)
			}
		}
	}
	return
}

// simplexMultiIndices enumerates all nonnegative nparts-tuples summing to
// total, in descending lexicographic order.
func simplexMultiIndices(nparts, total int) (out [][]int) {
	cur := make([]int, nparts)
	var recurse func(pos, rem int)
	recurse = func(pos, rem int) {
		if pos == nparts-1 {
			cur[pos] = rem
			alpha := make([]int, nparts)
			copy(alpha, cur)
			out = append(out, alpha)
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

func (sb *SimplexLagrange) NumBasis() int                { return sb.NBasis }
func (sb *SimplexLagrange) Order() int                   { return sb.P }
func (sb *SimplexLagrange) NumDim() int                  { return sb.Dim }
func (sb *SimplexLagrange) DomainType() types.DomainType { return types.SIMPLEX }
func (sb *SimplexLagrange) IsNodal() bool                { return true }
func (sb *SimplexLagrange) IsOrthonormal() bool          { return false }
func (sb *SimplexLagrange) RefNodes() utils.Matrix       { return sb.nodes }

// barycentric converts reference coordinates to the ndim+1 barycentric
// coordinates: lambda_0 = 1 - sum(xi), lambda_{i+1} = xi_i.
func (sb *SimplexLagrange) barycentric(xi []float64) (lam []float64) {
	lam = make([]float64, sb.Dim+1)
	sum := 0.
	for i := 0; i < sb.Dim; i++ {
		lam[i+1] = xi[i]
		sum += xi[i]
	}
	lam[0] = 1 - sum
	return
}

// silvesterFactor evaluates one principal-lattice factor
// f(lam) = prod_{j<alpha} (p*lam - j)/(alpha - j)
// and its first two derivatives with respect to lam.
func silvesterFactor(alpha, p int, lam float64) (f, df, d2f float64) {
	var (
		pf = float64(p)
	)
	f = 1
	for j := 0; j < alpha; j++ {
		f *= (pf*lam - float64(j)) / float64(alpha-j)
	}
	for j := 0; j < alpha; j++ {
		cj := pf / float64(alpha-j)
		skip := 1.
		for l := 0; l < alpha; l++ {
			if l != j {
				skip *= (pf*lam - float64(l)) / float64(alpha-l)
			}
		}
		df += cj * skip
		for l := 0; l < alpha; l++ {
			if l == j {
				continue
			}
			cl := pf / float64(alpha-l)
			skip2 := 1.
			for r := 0; r < alpha; r++ {
				if r != j && r != l {
					skip2 *= (pf*lam - float64(r)) / float64(alpha-r)
				}
			}
			d2f += cj * cl * skip2
		}
	}
	return
}

func (sb *SimplexLagrange) EvalAll(xi []float64) (Bi []float64) {
	var (
		lam = sb.barycentric(xi)
	)
	Bi = make([]float64, sb.NBasis)
	for m, alpha := range sb.Alphas {
		v := 1.
		for k := 0; k <= sb.Dim; k++ {
			f, _, _ := silvesterFactor(alpha[k], sb.P, lam[k])
			v *= f
		}
		Bi[m] = v
	}
	return
}

func (sb *SimplexLagrange) EvalGradAll(xi []float64) (dBi utils.Matrix) {
	var (
		nb1 = sb.Dim + 1
		lam = sb.barycentric(xi)
		F   = make([]float64, nb1)
		dF  = make([]float64, nb1)
	)
	dBi = utils.NewMatrix(sb.NBasis, sb.Dim)
	for m, alpha := range sb.Alphas {
		for k := 0; k < nb1; k++ {
			F[k], dF[k], _ = silvesterFactor(alpha[k], sb.P, lam[k])
		}
		// skipProd[k] = prod of F over all factors but k
		for j := 0; j < sb.Dim; j++ {
			// d(lam_0)/d(xi_j) = -1, d(lam_{j+1})/d(xi_j) = +1
			dBi.DataP[m*sb.Dim+j] = dF[j+1]*skipProd(F, j+1) - dF[0]*skipProd(F, 0)
		}
	}
	return
}

func (sb *SimplexLagrange) EvalHessAll(xi []float64) (hBi utils.Matrix) {
	var (
		nb1  = sb.Dim + 1
		ndim = sb.Dim
		lam  = sb.barycentric(xi)
		F    = make([]float64, nb1)
		dF   = make([]float64, nb1)
		d2F  = make([]float64, nb1)
	)
	hBi = utils.NewMatrix(sb.NBasis, ndim*ndim)
	for m, alpha := range sb.Alphas {
		for k := 0; k < nb1; k++ {
			F[k], dF[k], d2F[k] = silvesterFactor(alpha[k], sb.P, lam[k])
		}
		// second derivative in barycentric directions k, l
		G := func(k, l int) float64 {
			if k == l {
				return d2F[k] * skipProd(F, k)
			}
			return dF[k] * dF[l] * skipProd2(F, k, l)
		}
		row := hBi.DataP[m*ndim*ndim : (m+1)*ndim*ndim]
		for i := 0; i < ndim; i++ {
			for j := i; j < ndim; j++ {
				v := G(0, 0) - G(0, j+1) - G(i+1, 0) + G(i+1, j+1)
				row[i*ndim+j] = v
				row[j*ndim+i] = v
			}
		}
	}
	return
}

func skipProd(F []float64, k int) (p float64) {
	p = 1
	for i, f := range F {
		if i != k {
			p *= f
		}
	}
	return
}

func skipProd2(F []float64, k, l int) (p float64) {
	p = 1
	for i, f := range F {
		if i != k && i != l {
			p *= f
		}
	}
	return
}
