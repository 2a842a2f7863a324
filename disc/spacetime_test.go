package disc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/numflux/galerkin/fespace"
	"github.com/numflux/galerkin/mesh"
	"github.com/numflux/galerkin/model_problems/burgers"
	"github.com/numflux/galerkin/types"
)

// slabMesh is a 4x4 slab of the unit square with the last coordinate
// as time: inflow at the bottom, outflow at the top, prescribed values
// on the spatial sides.
func slabMesh(t *testing.T) *mesh.Mesh {
	bcs := []mesh.BC{
		{Type: types.DIRICHLET, Flag: 0},
		{Type: types.SPACETIME_PAST},
		{Type: types.DIRICHLET, Flag: 0},
		{Type: types.SPACETIME_FUTURE},
	}
	msh, err := mesh.NewUniformMesh(2, []int{4, 4}, []float64{0, 0}, []float64{1, 1}, 1, bcs)
	assert.NoError(t, err)
	return msh
}

func TestSTNodeConnectivity(t *testing.T) {
	msh := slabMesh(t)
	// connecting a slab to itself pairs the bottom row with the top row
	conn, err := ComputeSTNodeConnectivity(msh, msh)
	assert.NoError(t, err)
	assert.Equal(t, 5, len(conn))
	for i := 0; i <= 4; i++ {
		assert.Equal(t, 20+i, conn[i])
	}
}

func TestSTNodeConnectivityRejects1D(t *testing.T) {
	var (
		ext      = mesh.BC{Type: types.EXTRAPOLATION}
		msh, err = mesh.NewUniformMesh1D(4, 0, 1, 1, ext, ext)
	)
	assert.NoError(t, err)
	_, err = ComputeSTNodeConnectivity(msh, msh)
	assert.Error(t, err)
}

func TestSpacetimeInfoPairing(t *testing.T) {
	msh := slabMesh(t)
	fes, err := fespace.NewFESpace(msh, types.LAGRANGE, types.GAUSS_LEGENDRE, 2)
	assert.NoError(t, err)
	conn, err := ComputeSTNodeConnectivity(msh, msh)
	assert.NoError(t, err)

	uPast := make([]float64, fes.DGMap.SizeRequirement(1))
	st, err := NewSpacetimeInfo(fes, fes, uPast, conn)
	assert.NoError(t, err)
	assert.Equal(t, 4, len(st.ConnectionTraces))
	for _, tsPast := range st.ConnectionTraces {
		assert.Equal(t, types.SPACETIME_FUTURE, tsPast.BCType)
	}
}

// A constant state solves the slab problem when the past slab carries
// the same constant and the spatial boundaries prescribe it, so the
// full spacetime residual must vanish: the volume term cancels the
// inflow, outflow and Dirichlet fluxes through the divergence theorem.
func TestSpacetimeFreeStream(t *testing.T) {
	msh := slabMesh(t)
	fes, err := fespace.NewFESpace(msh, types.LAGRANGE, types.GAUSS_LEGENDRE, 2)
	assert.NoError(t, err)
	conn, err := ComputeSTNodeConnectivity(msh, msh)
	assert.NoError(t, err)

	const uConst = 0.8
	var (
		bg = burgers.NewSpacetime([]float64{0.4}, []float64{0.3}, 0.02)
		c  = newBurgersEngine(bg)
		n  = fes.DGMap.SizeRequirement(1)
		u  = make([]float64, n)
	)
	for i := range u {
		u[i] = uConst
	}
	st, err := NewSpacetimeInfo(fes, fes, u, conn)
	assert.NoError(t, err)
	c.Spacetime = st
	c.DirichletCallbacks = []BoundaryCallback{
		func(x, out []float64) { out[0] = uConst },
	}

	res := make([]float64, n)
	assert.NoError(t, c.AssembleResidual(fes, u, res))
	assert.True(t, maxAbs(res) < 1.e-11)
	assert.True(t, c.Anomalies.Empty())
}

// Without slab coupling a past-facing trace cannot be evaluated; the
// engine records the anomaly and carries on.
func TestSpacetimeMissingCoupling(t *testing.T) {
	msh := slabMesh(t)
	fes, err := fespace.NewFESpace(msh, types.LAGRANGE, types.GAUSS_LEGENDRE, 1)
	assert.NoError(t, err)
	var (
		bg = burgers.NewSpacetime([]float64{0.4}, []float64{0}, 0)
		c  = newBurgersEngine(bg)
		n  = fes.DGMap.SizeRequirement(1)
		u  = make([]float64, n)
	)
	c.DirichletCallbacks = []BoundaryCallback{
		func(x, out []float64) { out[0] = 0 },
	}
	res := make([]float64, n)
	assert.NoError(t, c.AssembleResidual(fes, u, res))
	assert.Equal(t, 4, c.Anomalies.Count())
}
