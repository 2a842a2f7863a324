package disc

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/numflux/galerkin/fespace"
	"github.com/numflux/galerkin/mesh"
	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

func TestElementMassMatrix(t *testing.T) {
	bcs := []mesh.BC{{Type: types.EXTRAPOLATION}, {Type: types.EXTRAPOLATION},
		{Type: types.EXTRAPOLATION}, {Type: types.EXTRAPOLATION}}
	msh, err := mesh.NewUniformMesh(2, []int{1, 1}, []float64{0, 0}, []float64{1, 1}, 1, bcs)
	assert.NoError(t, err)
	fes, err := fespace.NewFESpace(msh, types.LAGRANGE, types.GAUSS_LEGENDRE, 1)
	assert.NoError(t, err)

	// bilinear mass on the unit square: tensor square of h/6 [2 1; 1 2]
	es := NewElementSolver(fes.Elements[0])
	assert.True(t, near(es.Mass.At(0, 0), 1./9, 1.e-12))
	assert.True(t, near(es.Mass.At(0, 3), 1./36, 1.e-12))
	var total float64
	for _, v := range es.Mass.DataP {
		total += v
	}
	assert.True(t, near(total, 1, 1.e-12))
}

// Projecting a polynomial that the basis spans must reproduce it
// pointwise along with its derivatives, even through the curved
// coordinates of a jittered mesh. Exercises the projection right-hand
// side, the mass solve and both derivative chain rules end to end.
func TestProjectionReconstruction(t *testing.T) {
	bcs := []mesh.BC{{Type: types.DIRICHLET}, {Type: types.DIRICHLET},
		{Type: types.DIRICHLET}, {Type: types.DIRICHLET}}
	msh, err := mesh.NewUniformMesh(2, []int{10, 4}, []float64{-1, -1}, []float64{1, 1}, 1, bcs)
	assert.NoError(t, err)
	rnd := rand.New(rand.NewSource(3))
	msh.PerturbNodes(mesh.RandomPerturb(rnd, -0.008, 0.008), msh.FlagBoundaryNodes())
	fes, err := fespace.NewFESpace(msh, types.LAGRANGE, types.GAUSS_LEGENDRE, 4)
	assert.NoError(t, err)

	f := func(x, out []float64) { out[0] = math.Pow(x[0], 4) + math.Pow(x[1], 4) }
	u := make([]float64, fes.DGMap.SizeRequirement(1))
	assert.NoError(t, ProjectFunction(fes, 1, f, u))

	var (
		unkel = utils.NewMatrix(fes.Elements[0].NumBasis(), 1)
		uh    = make([]float64, 1)
		fx    = make([]float64, 1)
	)
	for _, el := range fes.Elements {
		fes.DGMap.ExtractEl(el.Index, 1, u, unkel)
		for trial := 0; trial < 10; trial++ {
			xi := []float64{2*rnd.Float64() - 1, 2*rnd.Float64() - 1}
			x := el.Transform(xi)
			evalSolution(unkel, el.Ref.Basis.EvalAll(xi), uh)
			f(x, fx)
			assert.True(t, near(uh[0], fx[0], 1.e-8))

			gradBi, err := el.PhysGradBasisAt(xi)
			assert.NoError(t, err)
			gradUh := evalDerivative(unkel, gradBi)
			assert.True(t, near(gradUh.DataP[0], 4*math.Pow(x[0], 3), 1.e-8))
			assert.True(t, near(gradUh.DataP[1], 4*math.Pow(x[1], 3), 1.e-8))

			hessBi, err := el.PhysHessBasisAt(xi)
			assert.NoError(t, err)
			hessUh := evalDerivative(unkel, hessBi)
			assert.True(t, near(hessUh.DataP[0], 12*x[0]*x[0], 1.e-7))
			assert.True(t, near(hessUh.DataP[3], 12*x[1]*x[1], 1.e-7))
			assert.True(t, near(hessUh.DataP[1], 0, 1.e-7))
		}
	}
}

// A two-component projection keeps the components independent through
// the interleaved layout.
func TestProjectionVectorComponents(t *testing.T) {
	var (
		ext      = mesh.BC{Type: types.EXTRAPOLATION}
		msh, err = mesh.NewUniformMesh1D(3, 0, 1, 2, ext, ext)
	)
	assert.NoError(t, err)
	fes, err := fespace.NewFESpace(msh, types.LAGRANGE, types.GAUSS_LEGENDRE, 2)
	assert.NoError(t, err)

	f := func(x, out []float64) {
		out[0] = 1 + x[0]
		out[1] = x[0] * x[0]
	}
	u := make([]float64, fes.DGMap.SizeRequirement(2))
	assert.NoError(t, ProjectFunction(fes, 2, f, u))

	var (
		unkel = utils.NewMatrix(fes.Elements[0].NumBasis(), 2)
		uh    = make([]float64, 2)
		fx    = make([]float64, 2)
	)
	for _, el := range fes.Elements {
		fes.DGMap.ExtractEl(el.Index, 2, u, unkel)
		for _, s := range []float64{-0.7, 0.1, 0.9} {
			xi := []float64{s}
			f(el.Transform(xi), fx)
			evalSolution(unkel, el.Ref.Basis.EvalAll(xi), uh)
			assert.True(t, near(uh[0], fx[0], 1.e-10))
			assert.True(t, near(uh[1], fx[1], 1.e-10))
		}
	}
}
