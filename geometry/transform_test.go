package geometry

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// perturbedCoords places the element's reference nodes into physical
// space through the map x = (xi+1)/2 for hypercubes (identity for
// simplices) and jitters every node by a fraction of the node spacing,
// keeping the element non-degenerate.
func perturbedCoords(tr *ElementTransformation, rnd *rand.Rand, jitter float64) (coords utils.Matrix, nodes []int) {
	var (
		nn      = tr.NumNodes()
		ndim    = tr.Dim
		refs    = tr.Shape.RefNodes()
		spacing = 1 / float64(tr.Order)
	)
	coords = utils.NewMatrix(nn, ndim)
	nodes = make([]int, nn)
	for m := 0; m < nn; m++ {
		nodes[m] = m
		for d := 0; d < ndim; d++ {
			x := refs.At(m, d)
			if tr.Domain == types.HYPERCUBE {
				x = (x + 1) / 2
			}
			coords.DataP[m*ndim+d] = x + jitter*spacing*(rnd.Float64()-0.5)
		}
	}
	return
}

func TestTransformKronecker(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, dt := range []types.DomainType{types.HYPERCUBE, types.SIMPLEX} {
		for ndim := 1; ndim <= 4; ndim++ {
			for p := 1; p <= 3; p++ {
				tr, err := NewTransformation(dt, ndim, p)
				require.NoError(t, err)
				// arbitrary node positions: nodal interpolation must
				// reproduce each node exactly regardless of the others
				coords := utils.NewMatrix(tr.NumNodes(), ndim)
				nodes := make([]int, tr.NumNodes())
				for m := range nodes {
					nodes[m] = m
					for d := 0; d < ndim; d++ {
						coords.DataP[m*ndim+d] = rnd.Float64()
					}
				}
				refs := tr.Shape.RefNodes()
				for m := 0; m < tr.NumNodes(); m++ {
					x := tr.Transform(coords, nodes, refs.RowView(m))
					assert.True(t, nearVec(coords.RowView(m), x, 1.e-14))
				}
			}
		}
	}
}

func TestTransformJacobian(t *testing.T) {
	var (
		rnd = rand.New(rand.NewSource(2))
		h   = 1.e-8
	)
	fdCheck := func(tr *ElementTransformation, tol float64) {
		coords, nodes := perturbedCoords(tr, rnd, 0.2)
		xi := RefCentroid(tr.Domain, tr.Dim)
		for d := 0; d < tr.Dim; d++ {
			xi[d] += 0.1 * (rnd.Float64() - 0.5)
		}
		J := tr.Jacobian(coords, nodes, xi)
		for j := 0; j < tr.Dim; j++ {
			xp, xm := bump(xi, j, h), bump(xi, j, -h)
			fp, fm := tr.Transform(coords, nodes, xp), tr.Transform(coords, nodes, xm)
			for i := 0; i < tr.Dim; i++ {
				fd := (fp[i] - fm[i]) / (2 * h)
				assert.True(t, near(J.At(i, j), fd, tol))
			}
		}
	}
	for ndim := 1; ndim <= 4; ndim++ {
		for p := 1; p <= 8; p++ {
			tr, err := NewTransformation(types.HYPERCUBE, ndim, p)
			require.NoError(t, err)
			tol := 1.e-6 * math.Pow(10, 0.4*float64(p-1))
			fdCheck(tr, tol)
		}
	}
	for ndim := 2; ndim <= 3; ndim++ {
		for p := 1; p <= 4; p++ {
			tr, err := NewTransformation(types.SIMPLEX, ndim, p)
			require.NoError(t, err)
			tol := 1.e-6 * math.Pow(10, 0.4*float64(p-1))
			fdCheck(tr, tol)
		}
	}
}

func TestTransformHessian(t *testing.T) {
	{ // curved map x = (xi*eta, xi+eta) on an order-2 quad
		tr, _ := NewTransformation(types.HYPERCUBE, 2, 2)
		refs := tr.Shape.RefNodes()
		coords := utils.NewMatrix(tr.NumNodes(), 2)
		nodes := make([]int, tr.NumNodes())
		for m := range nodes {
			nodes[m] = m
			xi, eta := refs.At(m, 0), refs.At(m, 1)
			coords.DataP[m*2] = xi * eta
			coords.DataP[m*2+1] = xi + eta
		}
		pt := []float64{-0.2, 0.5}
		J := tr.Jacobian(coords, nodes, pt)
		assert.True(t, nearVec([]float64{0.5, -0.2, 1, 1}, J.DataP, 1.e-13))
		H := tr.Hessian(coords, nodes, pt)
		assert.True(t, nearVec([]float64{0, 1, 1, 0}, H.RowView(0), 1.e-13))
		assert.True(t, nearVec([]float64{0, 0, 0, 0}, H.RowView(1), 1.e-13))
	}
	{ // Hessian against central differences of the Jacobian
		var (
			rnd = rand.New(rand.NewSource(3))
			h   = 1.e-5
		)
		for _, dt := range []types.DomainType{types.HYPERCUBE, types.SIMPLEX} {
			tr, _ := NewTransformation(dt, 2, 3)
			coords, nodes := perturbedCoords(tr, rnd, 0.2)
			xi := RefCentroid(dt, 2)
			H := tr.Hessian(coords, nodes, xi)
			for j := 0; j < 2; j++ {
				Jp := tr.Jacobian(coords, nodes, bump(xi, j, h))
				Jm := tr.Jacobian(coords, nodes, bump(xi, j, -h))
				for k := 0; k < 2; k++ {
					for i := 0; i < 2; i++ {
						fd := (Jp.At(k, i) - Jm.At(k, i)) / (2 * h)
						assert.True(t, near(H.At(k, i*2+j), fd, 1.e-6))
					}
				}
			}
		}
	}
}

func TestVertexTables(t *testing.T) {
	{ // order-2 quad corners in last-axis-fastest order
		tr, _ := NewTransformation(types.HYPERCUBE, 2, 2)
		assert.Equal(t, []int{0, 2, 6, 8}, tr.VertexNodes)
		assert.True(t, nearVec([]float64{-1, -1, -1, 1, 1, -1, 1, 1}, tr.VertexRef.DataP, 1.e-15))
	}
	{ // order-2 triangle vertices in barycentric-slot order
		tr, _ := NewTransformation(types.SIMPLEX, 2, 2)
		assert.Equal(t, []int{0, 3, 5}, tr.VertexNodes)
		assert.True(t, nearVec([]float64{0, 0, 1, 0, 0, 1}, tr.VertexRef.DataP, 1.e-15))
	}
	{ // face vertex sets
		assert.Equal(t, []int{0, 1}, FaceVertices(types.HYPERCUBE, 2, 0))
		assert.Equal(t, []int{0, 2}, FaceVertices(types.HYPERCUBE, 2, 1))
		assert.Equal(t, []int{2, 3}, FaceVertices(types.HYPERCUBE, 2, 2))
		assert.Equal(t, []int{1, 3}, FaceVertices(types.HYPERCUBE, 2, 3))
		assert.Equal(t, []int{1, 2}, FaceVertices(types.SIMPLEX, 2, 0))
		assert.Equal(t, []int{0, 2}, FaceVertices(types.SIMPLEX, 2, 1))
		assert.Equal(t, []int{0, 1}, FaceVertices(types.SIMPLEX, 2, 2))
		assert.Equal(t, 4, NumFaces(types.HYPERCUBE, 2))
		assert.Equal(t, 3, NumFaces(types.SIMPLEX, 2))
		assert.Equal(t, types.HYPERCUBE, FaceDomain(types.SIMPLEX, 2))
		assert.Equal(t, types.SIMPLEX, FaceDomain(types.SIMPLEX, 3))
	}
}

func TestCalcOrtho(t *testing.T) {
	{ // 2D: segment running +y yields a +x normal scaled by the length
		J := utils.NewMatrix(2, 1, []float64{0, 2})
		n := CalcOrtho(J)
		assert.True(t, nearVec([]float64{2, 0}, n, 1.e-15))
		assert.True(t, near(Norm(n), 2, 1.e-15))
	}
	{ // 2D: a segment traversed in -x yields the outward +y normal
		J := utils.NewMatrix(2, 1, []float64{-1, 0})
		n := CalcOrtho(J)
		assert.True(t, nearVec([]float64{0, 1}, n, 1.e-15))
	}
	{ // 3D: the xy-plane face yields +z
		J := utils.NewMatrix(3, 2, []float64{1, 0, 0, 1, 0, 0})
		n := CalcOrtho(J)
		assert.True(t, nearVec([]float64{0, 0, 1}, n, 1.e-15))
	}
	{ // 1D point faces carry a sign-only normal
		assert.True(t, near(PointFaceNormal(0), -1, 1.e-15))
		assert.True(t, near(PointFaceNormal(1), 1, 1.e-15))
	}
}

func TestFaceToElementRef(t *testing.T) {
	tr, _ := NewTransformation(types.HYPERCUBE, 2, 1)
	elemNodes := []int{10, 11, 12, 13}
	{ // +x face traversed ascending y
		xi, err := FaceToElementRef(tr, elemNodes, []int{12, 13}, []float64{0})
		assert.NoError(t, err)
		assert.True(t, nearVec([]float64{1, 0}, xi, 1.e-15))
		xi, _ = FaceToElementRef(tr, elemNodes, []int{12, 13}, []float64{-1})
		assert.True(t, nearVec([]float64{1, -1}, xi, 1.e-15))
		xi, _ = FaceToElementRef(tr, elemNodes, []int{12, 13}, []float64{0.5})
		assert.True(t, nearVec([]float64{1, 0.5}, xi, 1.e-15))
	}
	{ // same face traversed the other way flips the parameterization
		xi, err := FaceToElementRef(tr, elemNodes, []int{13, 12}, []float64{-1})
		assert.NoError(t, err)
		assert.True(t, nearVec([]float64{1, 1}, xi, 1.e-15))
	}
	{ // a vertex not on the element is an explicit error
		_, err := FaceToElementRef(tr, elemNodes, []int{12, 99}, []float64{0})
		assert.Error(t, err)
	}
	{ // triangle side blends barycentrically
		trs, _ := NewTransformation(types.SIMPLEX, 2, 1)
		xi, err := FaceToElementRef(trs, []int{5, 6, 7}, []float64{6, 7}, []float64{0})
		assert.NoError(t, err)
		assert.True(t, nearVec([]float64{0.5, 0.5}, xi, 1.e-15))
	}
}

func TestCentroid(t *testing.T) {
	tr, _ := NewTransformation(types.HYPERCUBE, 2, 1)
	coords := utils.NewMatrix(4, 2, []float64{0, 0, 0, 1, 1, 0, 1, 1})
	x := tr.Centroid(coords, []int{0, 1, 2, 3})
	assert.True(t, nearVec([]float64{0.5, 0.5}, x, 1.e-15))
	assert.True(t, nearVec([]float64{1. / 3., 1. / 3.}, RefCentroid(types.SIMPLEX, 2), 1.e-15))
}

func bump(xi []float64, d int, h float64) (out []float64) {
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
