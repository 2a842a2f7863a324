package cmd

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"github.com/numflux/galerkin/InputParameters"
	"github.com/numflux/galerkin/types"
)

func TestRunInput(t *testing.T) {
	var (
		err error
	)
	fileInput := []byte(`
Title: Test Case
CFL: 1.
InitType: gauss # Can be "sine" or "constant"
PolynomialOrder: 2
FinalTime: 4.
Dim: 1
ElementCounts: [12]
XMin: [0.]
XMax: [2.]
Advection: [1.]
Burgers: [0.5]
Viscosity: 0.001
BCs:
  x-:
    Type: dirichlet
    Flag: 0
    Value: 0.25
  x+:
    Type: extrapolation
`)
	input := InputParameters.DefaultParameters()
	if err = input.Parse(fileInput); err != nil {
		panic(err)
	}
	// Check the x- boundary entry
	assert.Equal(t, input.BCs["x-"].Type, "dirichlet")
	assert.Equal(t, input.BCs["x-"].Value, 0.25)
	input.Print()
	assert.Equal(t, input.FinalTime, 4.)
	if err = input.Validate(); err != nil {
		panic(err)
	}
	bcs, err := input.MeshBCs()
	if err != nil {
		panic(err)
	}
	assert.Equal(t, bcs[0].Type, types.DIRICHLET)
	assert.Equal(t, bcs[1].Type, types.EXTRAPOLATION)
	vals, err := input.FlagValues(types.DIRICHLET)
	if err != nil {
		panic(err)
	}
	assert.Equal(t, vals[0], 0.25)
}
