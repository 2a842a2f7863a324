package element

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

func TestReferenceElementCache(t *testing.T) {
	var (
		c    = NewCache(2)
		kHC  = ElementKey{types.HYPERCUBE, 2, 1, types.GAUSS_LEGENDRE, types.LAGRANGE}
		kSim = ElementKey{types.SIMPLEX, 2, 1, types.GRUNDMANN_MOELLER, types.LAGRANGE}
	)
	reHC, err := c.Element(kHC)
	assert.NoError(t, err)
	reHC2, err := c.Element(kHC)
	assert.NoError(t, err)
	assert.True(t, reHC == reHC2)
	assert.Equal(t, 1, c.NumElementTypes())

	reSim, err := c.Element(kSim)
	assert.NoError(t, err)
	assert.Equal(t, 2, c.NumElementTypes())

	// the tables satisfy partition of unity at every quadrature point
	for _, re := range []*ReferenceElement{reHC, reSim} {
		for iqp := 0; iqp < re.NumQP(); iqp++ {
			var sumB, sumG float64
			for _, v := range re.B.RowView(iqp) {
				sumB += v
			}
			for _, v := range re.GeoB.RowView(iqp) {
				sumG += v
			}
			assert.True(t, near(sumB, 1, 1.e-12))
			assert.True(t, near(sumG, 1, 1.e-12))
			for d := 0; d < re.Dim; d++ {
				var sumD float64
				for i := 0; i < re.NumBasis(); i++ {
					sumD += re.Dr[iqp].At(i, d)
				}
				assert.True(t, near(sumD, 0, 1.e-10))
			}
		}
	}

	// unsupported pairings fail loudly at construction
	_, err = c.Element(ElementKey{types.HYPERCUBE, 2, 1, types.GRUNDMANN_MOELLER, types.LAGRANGE})
	assert.Error(t, err)
	_, err = c.Element(ElementKey{types.HYPERCUBE, -1, 1, types.GAUSS_LEGENDRE, types.LAGRANGE})
	assert.Error(t, err)
}

func TestFiniteElementAffine(t *testing.T) {
	// the rectangle [0,2]x[0,1] with a Q1 map: x = xi+1, y = (eta+1)/2
	var (
		c      = NewCache(2)
		coords = coordMatrix([][]float64{
			{0, 0},
			{0, 1},
			{2, 0},
			{2, 1},
		})
	)
	re, err := c.Element(ElementKey{types.HYPERCUBE, 1, 1, types.GAUSS_LEGENDRE, types.LAGRANGE})
	assert.NoError(t, err)
	el := &FiniteElement{Ref: re, Coords: coords, Nodes: []int{0, 1, 2, 3}, Index: 0}

	assert.Equal(t, 4, el.NumBasis())
	assert.True(t, nearVec(el.Transform([]float64{0, 0}), []float64{1, 0.5}))
	assert.True(t, nearVec(el.Centroid(), []float64{1, 0.5}))
	assert.True(t, nearVec(el.NodeCoord(3), []float64{2, 1}))

	for iqp := 0; iqp < el.NumQP(); iqp++ {
		var (
			xi, _ = el.QuadPoint(iqp)
			J     = el.JacobianQP(iqp)
		)
		assert.True(t, nearVec(J.DataP, []float64{1, 0, 0, 0.5}))
		assert.True(t, near(el.JacobianDetQP(iqp), 0.5))
		assert.True(t, nearVec(el.TransformQP(iqp), el.Transform(xi)))

		// the tabulated path and the direct path agree
		gQP, err := el.PhysGradBasisQP(iqp)
		assert.NoError(t, err)
		gAt, err := el.PhysGradBasisAt(xi)
		assert.NoError(t, err)
		assert.True(t, near(gQP.Subtract(gAt).FrobNorm(), 0, 1.e-12))
		hQP, err := el.PhysHessBasisQP(iqp)
		assert.NoError(t, err)
		hAt, err := el.PhysHessBasisAt(xi)
		assert.NoError(t, err)
		assert.True(t, near(hQP.Copy().Subtract(hAt).FrobNorm(), 0, 1.e-12))

		// interpolating g = x*y is exact in Q1 here, so the contracted
		// physical Hessian is [[0,1],[1,0]] at every point
		var (
			rn = re.Basis.RefNodes()
			H  = make([]float64, 4)
		)
		for i := 0; i < el.NumBasis(); i++ {
			var (
				x = el.Transform(rn.RowView(i))
				u = x[0] * x[1]
			)
			for k := 0; k < 4; k++ {
				H[k] += u * hQP.At(i, k)
			}
		}
		assert.True(t, nearVec(H, []float64{0, 1, 1, 0}, 1.e-10))
	}
}

func TestPhysDerivativesCurved(t *testing.T) {
	// bilinear map x = xi*eta, y = xi+eta; the interpolant of
	// phi = eta*xi^2 + eta^2*xi equals x*y in physical space, so its
	// physical gradient is (y, x) and its Hessian [[0,1],[1,0]] wherever
	// the map is invertible
	var (
		c      = NewCache(2)
		coords = coordMatrix([][]float64{
			{1, -2},
			{-1, 0},
			{-1, 0},
			{1, 2},
		})
		xi = []float64{-0.2, 0.5}
	)
	re, err := c.Element(ElementKey{types.HYPERCUBE, 2, 1, types.GAUSS_LEGENDRE, types.LAGRANGE})
	assert.NoError(t, err)
	el := &FiniteElement{Ref: re, Coords: coords, Nodes: []int{0, 1, 2, 3}, Index: 0}

	J := el.Jacobian(xi)
	assert.True(t, nearVec(J.DataP, []float64{0.5, -0.2, 1, 1}))

	var (
		rn = re.Basis.RefNodes()
		u  = make([]float64, el.NumBasis())
	)
	for i := range u {
		var (
			xiI  = rn.At(i, 0)
			etaI = rn.At(i, 1)
		)
		u[i] = etaI*xiI*xiI + etaI*etaI*xiI
	}

	grad, err := el.PhysGradBasisAt(xi)
	assert.NoError(t, err)
	var g [2]float64
	for i, ui := range u {
		g[0] += ui * grad.At(i, 0)
		g[1] += ui * grad.At(i, 1)
	}
	// x = -0.1, y = 0.3 at this reference point
	assert.True(t, near(g[0], 0.3, 1.e-10))
	assert.True(t, near(g[1], -0.1, 1.e-10))

	hess, err := el.PhysHessBasisAt(xi)
	assert.NoError(t, err)
	H := make([]float64, 4)
	for i, ui := range u {
		for k := 0; k < 4; k++ {
			H[k] += ui * hess.At(i, k)
		}
	}
	assert.True(t, nearVec(H, []float64{0, 1, 1, 0}, 1.e-10))
}

func TestReferenceTraceInterior(t *testing.T) {
	// two unit squares sharing the edge x=1; left +x face against
	// right -x face with reversed traversal
	var (
		c      = NewCache(2)
		coords = coordMatrix([][]float64{
			{0, 0},
			{0, 1},
			{1, 0},
			{1, 1},
			{2, 0},
			{2, 1},
		})
		key = TraceKey{
			FaceDomain:  types.HYPERCUBE,
			DomainL:     types.HYPERCUBE,
			DomainR:     types.HYPERCUBE,
			BasisOrderL: 2,
			BasisOrderR: 2,
			GeomOrderL:  1,
			GeomOrderR:  1,
			Quadrature:  types.GAUSS_LEGENDRE,
			Basis:       types.LAGRANGE,
			InfoL:       types.NewFaceInfo(2, 0),
			InfoR:       types.NewFaceInfo(0, 1),
		}
		f = func(x []float64) float64 { return 2*x[0] + 3*x[1] - 1 }
	)
	re, err := c.Element(ElementKey{types.HYPERCUBE, 2, 1, types.GAUSS_LEGENDRE, types.LAGRANGE})
	assert.NoError(t, err)
	var (
		elL    = &FiniteElement{Ref: re, Coords: coords, Nodes: []int{0, 1, 2, 3}, Index: 0}
		elR    = &FiniteElement{Ref: re, Coords: coords, Nodes: []int{2, 3, 4, 5}, Index: 1}
		sample = TraceSample{
			TransL:    re.Geom,
			TransR:    re.Geom,
			NodesL:    elL.Nodes,
			NodesR:    elR.Nodes,
			FaceNodes: []int{2, 3},
		}
	)
	rt, err := c.Trace(key, sample)
	assert.NoError(t, err)
	rt2, err := c.Trace(key, sample)
	assert.NoError(t, err)
	assert.True(t, rt == rt2)
	assert.Equal(t, 1, c.NumTraceTypes())
	assert.Equal(t, 3, rt.NumQP())
	assert.Equal(t, 3, rt.NumBasisTrace())

	trace := &TraceSpace{
		Ref: rt, ElL: elL, ElR: elR,
		Coords:    coords,
		FaceNodes: []int{2, 3},
		BCType:    types.INTERIOR,
		InfoL:     key.InfoL,
		InfoR:     key.InfoR,
		Index:     0,
	}
	assert.False(t, trace.IsBoundary())
	assert.True(t, nearVec(trace.CentroidL(), []float64{0.5, 0.5}))
	assert.True(t, nearVec(trace.CentroidR(), []float64{1.5, 0.5}))

	// nodal coefficients interpolating f on each side
	var (
		rn     = re.Basis.RefNodes()
		uL, uR = make([]float64, re.NumBasis()), make([]float64, re.NumBasis())
	)
	for i := range uL {
		uL[i] = f(elL.Transform(rn.RowView(i)))
		uR[i] = f(elR.Transform(rn.RowView(i)))
	}

	for iqp := 0; iqp < trace.NumQP(); iqp++ {
		// both side maps land on the same physical point on x=1
		x := trace.Transform(iqp)
		assert.True(t, near(x[0], 1))
		assert.True(t, nearVec(elL.Transform(trace.RefCoordL(iqp)), x))
		assert.True(t, nearVec(elR.Transform(trace.RefCoordR(iqp)), x))

		unit, sqrtg := trace.UnitNormal(iqp)
		assert.True(t, nearVec(unit, []float64{1, 0}))
		assert.True(t, near(sqrtg, 0.5))

		var sumTrace float64
		for _, v := range trace.TraceBasisQP(iqp) {
			sumTrace += v
		}
		assert.True(t, near(sumTrace, 1, 1.e-12))

		// the side solutions agree with f at the quadrature point
		var vL, vR float64
		for i := range uL {
			vL += uL[i] * trace.BasisLQP(iqp)[i]
			vR += uR[i] * trace.BasisRQP(iqp)[i]
		}
		assert.True(t, near(vL, f(x), 1.e-10))
		assert.True(t, near(vR, f(x), 1.e-10))

		// physical gradients recover grad f = (2,3) from both sides
		gL, err := trace.PhysGradBasisL(iqp)
		assert.NoError(t, err)
		gR, err := trace.PhysGradBasisR(iqp)
		assert.NoError(t, err)
		var dL, dR [2]float64
		for i := range uL {
			dL[0] += uL[i] * gL.At(i, 0)
			dL[1] += uL[i] * gL.At(i, 1)
			dR[0] += uR[i] * gR.At(i, 0)
			dR[1] += uR[i] * gR.At(i, 1)
		}
		assert.True(t, nearVec(dL[:], []float64{2, 3}, 1.e-10))
		assert.True(t, nearVec(dR[:], []float64{2, 3}, 1.e-10))

		hL, err := trace.PhysHessBasisL(iqp)
		assert.NoError(t, err)
		var HL [4]float64
		for i := range uL {
			for k := 0; k < 4; k++ {
				HL[k] += uL[i] * hL.At(i, k)
			}
		}
		assert.True(t, nearVec(HL[:], []float64{0, 0, 0, 0}, 1.e-9))
	}
}

func TestReferenceTracePoint(t *testing.T) {
	// 1D elements have point faces: a single unit-weight quadrature
	// point, side coordinates +-1 and a face-number normal
	var (
		c      = NewCache(1)
		coords = coordMatrix([][]float64{{0}, {1}, {2}})
		key    = TraceKey{
			FaceDomain:  types.HYPERCUBE,
			DomainL:     types.HYPERCUBE,
			DomainR:     types.HYPERCUBE,
			BasisOrderL: 1,
			BasisOrderR: 1,
			GeomOrderL:  1,
			GeomOrderR:  1,
			Quadrature:  types.GAUSS_LEGENDRE,
			Basis:       types.LAGRANGE,
			InfoL:       types.NewFaceInfo(1, 0),
			InfoR:       types.NewFaceInfo(0, 0),
		}
	)
	re, err := c.Element(ElementKey{types.HYPERCUBE, 1, 1, types.GAUSS_LEGENDRE, types.LAGRANGE})
	assert.NoError(t, err)
	var (
		elL    = &FiniteElement{Ref: re, Coords: coords, Nodes: []int{0, 1}, Index: 0}
		elR    = &FiniteElement{Ref: re, Coords: coords, Nodes: []int{1, 2}, Index: 1}
		sample = TraceSample{
			TransL:    re.Geom,
			TransR:    re.Geom,
			NodesL:    elL.Nodes,
			NodesR:    elR.Nodes,
			FaceNodes: []int{1},
		}
	)
	rt, err := c.Trace(key, sample)
	assert.NoError(t, err)
	assert.Equal(t, 1, rt.NumQP())
	assert.Equal(t, 1, rt.NumBasisTrace())
	assert.True(t, nearVec(rt.XiL.RowView(0), []float64{1}))
	assert.True(t, nearVec(rt.XiR.RowView(0), []float64{-1}))
	assert.True(t, nearVec(rt.BL.RowView(0), []float64{0, 1}))
	assert.True(t, nearVec(rt.BR.RowView(0), []float64{1, 0}))

	trace := &TraceSpace{
		Ref: rt, ElL: elL, ElR: elR,
		Coords:    coords,
		FaceNodes: []int{1},
		BCType:    types.INTERIOR,
		InfoL:     key.InfoL,
		InfoR:     key.InfoR,
	}
	assert.True(t, nearVec(trace.Transform(0), []float64{1}))
	assert.True(t, nearVec(trace.TraceBasisQP(0), []float64{1}))
	unit, sqrtg := trace.UnitNormal(0)
	assert.True(t, nearVec(unit, []float64{1}))
	assert.True(t, near(sqrtg, 1))
}

func coordMatrix(rows [][]float64) (M utils.Matrix) {
	M = utils.NewMatrix(len(rows), len(rows[0]))
	for i, r := range rows {
		copy(M.DataP[i*len(r):(i+1)*len(r)], r)
	}
	return
}

func near(a, b float64, tolI ...float64) (l bool) {
	var (
		tol = 1.e-08
	)
	if len(tolI) != 0 {
		tol = tolI[0]
	}
	bound := math.Max(tol, tol*math.Abs(a))
	if math.Abs(a-b) <= bound {
		l = true
	}
	return
}

func nearVec(a, b []float64, tolI ...float64) (l bool) {
	for i, val := range a {
		if !near(val, b[i], tolI...) {
			return false
		}
	}
	return true
}
