package disc

import (
	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

// PhysicalFlux evaluates the flux tensor F(u, ∇u) of the conservation
// law ∂u/∂t + ∇·F = 0.
type PhysicalFlux interface {
	NumEquations() int
	// Flux returns the neq x ndim flux tensor for state u (length neq)
	// and gradient gradU (neq x ndim).
	Flux(u []float64, gradU utils.Matrix) utils.Matrix
}

// ConvectiveNumFlux resolves the single-valued convective flux normal
// to an interface from the states on its two sides, Riemann-solver
// style.
type ConvectiveNumFlux interface {
	NumFlux(uL, uR, unitNormal []float64) []float64
}

// DiffusionFlux evaluates the diffusive flux normal to an interface
// from a single-valued state and gradient. It is applied separately
// from the convective numerical flux and must not duplicate it.
type DiffusionFlux interface {
	NormalFlux(u []float64, gradU utils.Matrix, unitNormal []float64) []float64
}

// BoundaryStateFlux is the capability a physical flux declares to
// resolve physics-specific boundary conditions: given the interior
// state it produces the exterior state and gradient for the tagged
// condition. Conditions the flux cannot serve are recorded on the
// anomaly log and answered with a usable default so the sweep can
// continue.
type BoundaryStateFlux interface {
	ApplyBC(uL []float64, gradUL utils.Matrix, unitNormal []float64,
		bc types.BCType, bcflag int, anomalies *utils.AnomalyLog) (uR []float64, gradUR utils.Matrix)
}

// NeumannDiffusionFlux is the capability a diffusion flux declares to
// consume prescribed normal-gradient data directly.
type NeumannDiffusionFlux interface {
	NeumannFlux(prescribed []float64) []float64
}

// HomogeneityDiffusionFlux is declared by diffusion fluxes that factor
// as Fv = G(u)·∇u. The tensor comes back flattened to (neq·ndim) x
// (neq·ndim): entry (ieq·ndim+k, jeq·ndim+s) scales ∂u_jeq/∂x_s in
// flux component (ieq, k). Declaring the capability enables the
// interface correction term of the DDGIC scheme.
type HomogeneityDiffusionFlux interface {
	HomogeneityTensor(u []float64) utils.Matrix
}

// CFLFlux is declared by physical fluxes that can estimate a stable
// timestep from a CFL number and a reference length scale.
type CFLFlux interface {
	DtFromCFL(cfl, referenceLength float64) float64
}

// BoundaryCallback produces prescribed boundary data (length neq) at a
// physical point (length ndim). Dirichlet callbacks return solution
// values, Neumann callbacks normal-gradient values; the face's integer
// flag selects the callback from the registered list.
type BoundaryCallback func(x []float64, out []float64)

// SourceFunc evaluates a field of neq components at a physical point;
// it serves both volumetric source terms and projection targets.
type SourceFunc func(x []float64, out []float64)
