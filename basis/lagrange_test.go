package basis

import (
	"fmt"
	"math"
	"testing"

	"github.com/numflux/galerkin/types"

	"github.com/stretchr/testify/assert"
)

func TestLagrange1D(t *testing.T) {
	{ // P=1 hardcoded path against the general formula
		lag := NewLagrange1D(1)
		assert.Equal(t, []float64{-1, 1}, lag.Nodes)
		B := lag.EvalAll(0.3)
		assert.True(t, near(B[0], 0.35, 1.e-14))
		assert.True(t, near(B[1], 0.65, 1.e-14))
		_, dB := lag.DerivAll(0.3)
		assert.True(t, near(dB[0], -0.5, 1.e-14))
		assert.True(t, near(dB[1], 0.5, 1.e-14))
	}
	{ // Kronecker property at the reference nodes
		for p := 0; p <= 8; p++ {
			lag := NewLagrange1D(p)
			for i, xi := range lag.Nodes {
				B := lag.EvalAll(xi)
				for j := range B {
					if i == j {
						assert.True(t, near(B[j], 1, 1.e-14))
					} else {
						assert.True(t, near(B[j], 0, 1.e-14))
					}
				}
			}
		}
	}
	{ // partition of unity and derivative sum at off-node points
		for p := 1; p <= 8; p++ {
			lag := NewLagrange1D(p)
			for _, xi := range []float64{-0.957, -0.3, 0.111, 0.5, 0.99} {
				var sum, dsum float64
				B := lag.EvalAll(xi)
				_, dB := lag.DerivAll(xi)
				for j := 0; j <= p; j++ {
					sum += B[j]
					dsum += dB[j]
				}
				assert.True(t, near(sum, 1, 1.e-13))
				assert.True(t, near(dsum, 0, 1.e-12))
			}
		}
	}
	{ // first and second derivatives against central differences
		var (
			h = 1.e-5
		)
		for _, p := range []int{2, 4, 7} {
			lag := NewLagrange1D(p)
			for _, xi := range []float64{-0.71, 0.05, 0.642} {
				Bp, Bm := lag.EvalAll(xi+h), lag.EvalAll(xi-h)
				_, dBp := lag.DerivAll(xi + h)
				_, dBm := lag.DerivAll(xi - h)
				_, dB := lag.DerivAll(xi)
				_, _, d2B := lag.D2All(xi)
				for j := 0; j <= p; j++ {
					assert.True(t, near(dB[j], (Bp[j]-Bm[j])/(2*h), 1.e-6))
					assert.True(t, near(d2B[j], (dBp[j]-dBm[j])/(2*h), 1.e-6))
				}
			}
		}
	}
}

func TestTensorLagrange(t *testing.T) {
	{ // basic shape bookkeeping
		for ndim := 1; ndim <= 4; ndim++ {
			for p := 0; p <= 3; p++ {
				tl := NewTensorLagrange(ndim, p)
				nb := 1
				for i := 0; i < ndim; i++ {
					nb *= p + 1
				}
				assert.Equal(t, nb, tl.NumBasis())
				assert.Equal(t, types.HYPERCUBE, tl.DomainType())
				nr, nc := tl.RefNodes().Dims()
				assert.Equal(t, nb, nr)
				assert.Equal(t, ndim, nc)
			}
		}
	}
	{ // Kronecker property at the reference nodes
		for ndim := 1; ndim <= 3; ndim++ {
			for p := 1; p <= 3; p++ {
				tl := NewTensorLagrange(ndim, p)
				nodes := tl.RefNodes()
				for i := 0; i < tl.NumBasis(); i++ {
					B := tl.EvalAll(nodes.RowView(i))
					for j := range B {
						if i == j {
							assert.True(t, near(B[j], 1, 1.e-14))
						} else {
							assert.True(t, near(B[j], 0, 1.e-14))
						}
					}
				}
			}
		}
	}
	{ // multidimensional value is the product of 1D evaluations per axis
		var (
			xi = []float64{0.3, -0.65, 0.12}
		)
		for p := 1; p <= 4; p++ {
			tl := NewTensorLagrange(3, p)
			lag := NewLagrange1D(p)
			B := tl.EvalAll(xi)
			B0, B1, B2 := lag.EvalAll(xi[0]), lag.EvalAll(xi[1]), lag.EvalAll(xi[2])
			for m := 0; m < tl.NumBasis(); m++ {
				ijk := tl.IJK[m]
				assert.True(t, near(B[m], B0[ijk[0]]*B1[ijk[1]]*B2[ijk[2]], 1.e-13))
			}
		}
	}
	{ // the last axis varies fastest in the multi-index enumeration
		tl := NewTensorLagrange(2, 2)
		assert.Equal(t, []int{0, 0}, tl.IJK[0])
		assert.Equal(t, []int{0, 1}, tl.IJK[1])
		assert.Equal(t, []int{0, 2}, tl.IJK[2])
		assert.Equal(t, []int{1, 0}, tl.IJK[3])
		assert.Equal(t, []int{2, 2}, tl.IJK[8])
	}
	{ // gradient and Hessian against central differences
		var (
			h  = 1.e-5
			xi = []float64{0.21, -0.43}
		)
		for _, p := range []int{1, 2, 4} {
			tl := NewTensorLagrange(2, p)
			nb := tl.NumBasis()
			dB := tl.EvalGradAll(xi)
			hB := tl.EvalHessAll(xi)
			for d := 0; d < 2; d++ {
				xp, xm := cloneBump(xi, d, h), cloneBump(xi, d, -h)
				Bp, Bm := tl.EvalAll(xp), tl.EvalAll(xm)
				dBp, dBm := tl.EvalGradAll(xp), tl.EvalGradAll(xm)
				for m := 0; m < nb; m++ {
					assert.True(t, near(dB.At(m, d), (Bp[m]-Bm[m])/(2*h), 1.e-6))
					for e := 0; e < 2; e++ {
						fd := (dBp.At(m, e) - dBm.At(m, e)) / (2 * h)
						assert.True(t, near(hB.At(m, e*2+d), fd, 1.e-5))
					}
				}
			}
		}
	}
}

func TestSimplexLagrange(t *testing.T) {
	{ // dimension count follows the simplicial binomial
		assert.Equal(t, 3, NewSimplexLagrange(2, 1).NumBasis())
		assert.Equal(t, 6, NewSimplexLagrange(2, 2).NumBasis())
		assert.Equal(t, 10, NewSimplexLagrange(2, 3).NumBasis())
		assert.Equal(t, 4, NewSimplexLagrange(3, 1).NumBasis())
		assert.Equal(t, 10, NewSimplexLagrange(3, 2).NumBasis())
		assert.Equal(t, 1, NewSimplexLagrange(2, 0).NumBasis())
	}
	{ // multi-index enumeration is descending lexicographic
		sb := NewSimplexLagrange(2, 2)
		assert.Equal(t, []int{2, 0, 0}, sb.Alphas[0])
		assert.Equal(t, []int{1, 1, 0}, sb.Alphas[1])
		assert.Equal(t, []int{1, 0, 1}, sb.Alphas[2])
		assert.Equal(t, []int{0, 2, 0}, sb.Alphas[3])
		assert.Equal(t, []int{0, 1, 1}, sb.Alphas[4])
		assert.Equal(t, []int{0, 0, 2}, sb.Alphas[5])
	}
	{ // Kronecker property at the principal lattice nodes
		for ndim := 1; ndim <= 3; ndim++ {
			for p := 1; p <= 3; p++ {
				sb := NewSimplexLagrange(ndim, p)
				nodes := sb.RefNodes()
				for i := 0; i < sb.NumBasis(); i++ {
					B := sb.EvalAll(nodes.RowView(i))
					for j := range B {
						if i == j {
							assert.True(t, near(B[j], 1, 1.e-14))
						} else {
							assert.True(t, near(B[j], 0, 1.e-14))
						}
					}
				}
			}
		}
	}
	{ // linear basis on the triangle is the barycentric coordinates
		sb := NewSimplexLagrange(2, 1)
		B := sb.EvalAll([]float64{0.2, 0.3})
		assert.True(t, near(B[0], 0.5, 1.e-14))
		assert.True(t, near(B[1], 0.2, 1.e-14))
		assert.True(t, near(B[2], 0.3, 1.e-14))
		dB := sb.EvalGradAll([]float64{0.2, 0.3})
		assert.True(t, nearVec([]float64{-1, -1, 1, 0, 0, 1}, dB.DataP, 1.e-14))
	}
	{ // partition of unity inside the element
		for _, p := range []int{1, 2, 4} {
			sb := NewSimplexLagrange(2, p)
			for _, xi := range [][]float64{{0.1, 0.1}, {0.6, 0.3}, {0., 0.755}} {
				var sum float64
				for _, v := range sb.EvalAll(xi) {
					sum += v
				}
				assert.True(t, near(sum, 1, 1.e-13))
			}
		}
	}
	{ // gradient and Hessian against central differences
		var (
			h  = 1.e-5
			xi = []float64{0.27, 0.33}
		)
		for _, p := range []int{1, 2, 3} {
			sb := NewSimplexLagrange(2, p)
			nb := sb.NumBasis()
			dB := sb.EvalGradAll(xi)
			hB := sb.EvalHessAll(xi)
			for d := 0; d < 2; d++ {
				xp, xm := cloneBump(xi, d, h), cloneBump(xi, d, -h)
				Bp, Bm := sb.EvalAll(xp), sb.EvalAll(xm)
				dBp, dBm := sb.EvalGradAll(xp), sb.EvalGradAll(xm)
				for m := 0; m < nb; m++ {
					assert.True(t, near(dB.At(m, d), (Bp[m]-Bm[m])/(2*h), 1.e-6))
					for e := 0; e < 2; e++ {
						fd := (dBp.At(m, e) - dBm.At(m, e)) / (2 * h)
						assert.True(t, near(hB.At(m, e*2+d), fd, 1.e-5))
					}
				}
			}
		}
	}
}

func TestBasisConstructor(t *testing.T) {
	b, err := New(types.LAGRANGE, types.HYPERCUBE, 2, 3)
	assert.NoError(t, err)
	assert.Equal(t, 16, b.NumBasis())
	b, err = New(types.LAGRANGE, types.SIMPLEX, 2, 2)
	assert.NoError(t, err)
	assert.Equal(t, 6, b.NumBasis())
	_, err = New(types.LAGRANGE, types.SIMPLEX, 0, 2)
	assert.Error(t, err)
	_, err = New(types.LAGRANGE, types.HYPERCUBE, 5, 2)
	assert.Error(t, err)
	_, err = New(types.LAGRANGE, types.HYPERCUBE, 2, MaxOrder+1)
	assert.Error(t, err)
}

func cloneBump(xi []float64, d int, h float64) (out []float64) {
	out = make([]float64, len(xi))
	copy(out, xi)
	out[d] += h
	return
}

func near(a, b float64, tolI ...float64) (l bool) {
	var (
		tol float64
	)
	if len(tolI) == 0 {
		tol = 1.e-08
	} else {
		tol = tolI[0]
	}
	bound := math.Max(tol, tol*math.Abs(a))
	val := math.Abs(a - b)
	if val <= bound {
		l = true
	} else {
		fmt.Printf("Diff = %v, Left = %v, Right = %v\n", val, a, b)
	}
	return
}

func nearVec(a, b []float64, tolI ...float64) (l bool) {
	for i, val := range a {
		if !near(b[i], val, tolI...) {
			fmt.Printf("Diff = %v, Left[%d] = %v, Right[%d] = %v\n",
				math.Abs(val-b[i]), i, val, i, b[i])
			return false
		}
	}
	return true
}
