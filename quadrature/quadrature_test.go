package quadrature

import (
	"fmt"
	"math"
	"testing"

	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"

	"github.com/stretchr/testify/assert"
)

func integrate(q *Rule, f func(xi []float64) float64) (sum float64) {
	for i := 0; i < q.NumPoints(); i++ {
		xi, w := q.Point(i)
		sum += w * f(xi)
	}
	return
}

func TestJacobiGQ(t *testing.T) {
	{ // single point Legendre rule
		X, W := JacobiGQ(0, 0, 0)
		assert.True(t, near(X.DataP[0], 0, 1.e-14))
		assert.True(t, near(W.DataP[0], 2, 1.e-14))
	}
	{ // two point rule: +-1/sqrt(3) with unit weights
		X, W := JacobiGQ(0, 0, 1)
		assert.True(t, nearVec([]float64{-1 / math.Sqrt(3), 1 / math.Sqrt(3)}, X.DataP, 1.e-14))
		assert.True(t, nearVec([]float64{1, 1}, W.DataP, 1.e-14))
	}
	{ // three point rule: +-sqrt(3/5), 0 with weights 5/9, 8/9, 5/9
		X, W := JacobiGQ(0, 0, 2)
		assert.True(t, nearVec([]float64{-math.Sqrt(0.6), 0, math.Sqrt(0.6)}, X.DataP, 1.e-13))
		assert.True(t, nearVec([]float64{5. / 9., 8. / 9., 5. / 9.}, W.DataP, 1.e-13))
	}
}

func TestGaussLegendre(t *testing.T) {
	{ // point counts and weight sums match the domain volume
		for ndim := 1; ndim <= 3; ndim++ {
			for p := 0; p <= 4; p++ {
				q, err := NewGaussLegendre(ndim, p)
				assert.NoError(t, err)
				assert.Equal(t, utils.IntPow(p+1, ndim), q.NumPoints())
				vol := integrate(q, func(xi []float64) float64 { return 1 })
				assert.True(t, near(vol, math.Pow(2, float64(ndim)), 1.e-13))
			}
		}
	}
	{ // 1D monomial exactness through degree 2p+1
		for p := 0; p <= 6; p++ {
			q, _ := NewGaussLegendre(1, p)
			for k := 0; k <= 2*p+1; k++ {
				got := integrate(q, func(xi []float64) float64 {
					return math.Pow(xi[0], float64(k))
				})
				want := 0.
				if k%2 == 0 {
					want = 2 / float64(k+1)
				}
				assert.True(t, near(got, want, 1.e-12))
			}
		}
	}
	{ // tensor rule integrates separable monomials
		q, _ := NewGaussLegendre(2, 2)
		got := integrate(q, func(xi []float64) float64 {
			return xi[0] * xi[0] * math.Pow(xi[1], 4)
		})
		assert.True(t, near(got, 4./15., 1.e-13))
		got = integrate(q, func(xi []float64) float64 {
			return xi[0] * math.Pow(xi[1], 3)
		})
		assert.True(t, near(got, 0, 1.e-13))
	}
	{ // last axis varies fastest in the point ordering
		q, _ := NewGaussLegendre(2, 1)
		g := 1 / math.Sqrt(3)
		assert.True(t, nearVec([]float64{-g, -g}, q.Points.RowView(0), 1.e-14))
		assert.True(t, nearVec([]float64{-g, g}, q.Points.RowView(1), 1.e-14))
		assert.True(t, nearVec([]float64{g, -g}, q.Points.RowView(2), 1.e-14))
	}
}

func TestGrundmannMoeller(t *testing.T) {
	{ // weights sum to the unit simplex volume 1/ndim!
		for ndim := 1; ndim <= 3; ndim++ {
			for p := 0; p <= 4; p++ {
				q, err := NewGrundmannMoeller(ndim, p)
				assert.NoError(t, err)
				vol := integrate(q, func(xi []float64) float64 { return 1 })
				assert.True(t, near(vol, 1/utils.Factorial(ndim), 1.e-13))
			}
		}
	}
	{ // point count is the simplicial binomial C(s+ndim+1, ndim+1), s=p+1
		q, _ := NewGrundmannMoeller(2, 1)
		assert.Equal(t, 10, q.NumPoints())
		q, _ = NewGrundmannMoeller(3, 0)
		assert.Equal(t, 5, q.NumPoints())
	}
	{ // triangle monomials: int x^a y^b = a! b! / (a+b+2)!
		mono := func(a, b int) func(xi []float64) float64 {
			return func(xi []float64) float64 {
				return math.Pow(xi[0], float64(a)) * math.Pow(xi[1], float64(b))
			}
		}
		exact := func(a, b int) float64 {
			return utils.Factorial(a) * utils.Factorial(b) / utils.Factorial(a+b+2)
		}
		q, _ := NewGrundmannMoeller(2, 0) // exact through degree 3
		assert.True(t, near(integrate(q, mono(1, 0)), exact(1, 0), 1.e-13))
		assert.True(t, near(integrate(q, mono(1, 1)), exact(1, 1), 1.e-13))
		assert.True(t, near(integrate(q, mono(3, 0)), exact(3, 0), 1.e-13))
		q, _ = NewGrundmannMoeller(2, 2) // exact through degree 7
		assert.True(t, near(integrate(q, mono(4, 2)), exact(4, 2), 1.e-12))
		assert.True(t, near(integrate(q, mono(5, 2)), exact(5, 2), 1.e-12))
		assert.True(t, near(integrate(q, mono(0, 7)), exact(0, 7), 1.e-12))
	}
	{ // tetrahedron monomials: int x^a y^b z^c = a! b! c! / (a+b+c+3)!
		q, _ := NewGrundmannMoeller(3, 1) // exact through degree 5
		got := integrate(q, func(xi []float64) float64 { return xi[0] * xi[1] * xi[2] })
		assert.True(t, near(got, 1./720., 1.e-13))
		got = integrate(q, func(xi []float64) float64 { return math.Pow(xi[2], 5) })
		assert.True(t, near(got, utils.Factorial(5)/utils.Factorial(8), 1.e-13))
	}
	{ // all points lie strictly inside the simplex
		q, _ := NewGrundmannMoeller(2, 3)
		for i := 0; i < q.NumPoints(); i++ {
			xi, _ := q.Point(i)
			assert.True(t, xi[0] > 0 && xi[1] > 0 && xi[0]+xi[1] < 1)
		}
	}
}

func TestRuleDispatch(t *testing.T) {
	q, err := New(types.GAUSS_LEGENDRE, types.HYPERCUBE, 2, 3)
	assert.NoError(t, err)
	assert.Equal(t, 16, q.NumPoints())
	q, err = New(types.GRUNDMANN_MOELLER, types.SIMPLEX, 2, 0)
	assert.NoError(t, err)
	assert.Equal(t, 4, q.NumPoints())
	_, err = New(types.GAUSS_LEGENDRE, types.SIMPLEX, 2, 1)
	assert.Error(t, err)
	_, err = New(types.GRUNDMANN_MOELLER, types.HYPERCUBE, 2, 1)
	assert.Error(t, err)
	{ // zero-dimensional faces integrate with a single unit weight
		q = NewPointRule()
		assert.Equal(t, 1, q.NumPoints())
		xi, w := q.Point(0)
		assert.Nil(t, xi)
		assert.True(t, near(w, 1, 1.e-15))
	}
	{ // domain-driven selection
		q, err = ForDomain(types.SIMPLEX, 2, 1)
		assert.NoError(t, err)
		assert.Equal(t, types.SIMPLEX, q.Domain)
	}
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
