// Package burgers is the viscous Burgers model problem: a scalar
// conservation law with a linear advection field a, a quadratic
// self-advection field b and constant-coefficient diffusion,
//
//	du/dt + div(a u + 0.5 b u^2 - mu grad u) = 0.
//
// Setting b to zero gives linear advection-diffusion, setting a and b
// to zero pure diffusion, so one model exercises every term of the
// discretization. The type set plugs into the conservation-law engine
// through its flux interfaces; the spacetime variant treats the last
// coordinate as time with unit advection speed there.
package burgers

import (
	"fmt"
	"math"

	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

// Burgers carries the coefficient fields. A and B hold one entry per
// spatial dimension; Dim is the full flux dimensionality and exceeds
// len(A) by one in spacetime form.
type Burgers struct {
	A, B []float64
	Mu   float64
	Dim  int
	// Spacetime marks the last coordinate as time: the flux component
	// there is the state itself and diffusion never acts on it.
	Spacetime bool
	// UInf supplies the far-field state for Riemann and inlet
	// conditions.
	UInf float64
}

// New builds the standard form in len(a) spatial dimensions.
func New(a, b []float64, mu float64) *Burgers {
	if len(a) != len(b) {
		panic(fmt.Sprintf("coefficient fields disagree: len(a)=%d len(b)=%d", len(a), len(b)))
	}
	return &Burgers{A: a, B: b, Mu: mu, Dim: len(a)}
}

// NewSpacetime builds the spacetime form over len(a) spatial
// dimensions plus time.
func NewSpacetime(a, b []float64, mu float64) *Burgers {
	if len(a) != len(b) {
		panic(fmt.Sprintf("coefficient fields disagree: len(a)=%d len(b)=%d", len(a), len(b)))
	}
	return &Burgers{A: a, B: b, Mu: mu, Dim: len(a) + 1, Spacetime: true}
}

func (bg *Burgers) NumEquations() int { return 1 }

// SpaceDim is the number of dimensions diffusion and the coefficient
// fields act on.
func (bg *Burgers) SpaceDim() int {
	if bg.Spacetime {
		return bg.Dim - 1
	}
	return bg.Dim
}

// Flux is the physical flux 1 x Dim: advective plus self-advective
// minus diffusive in the spatial block, the bare state in the time
// component.
func (bg *Burgers) Flux(u []float64, gradU utils.Matrix) (f utils.Matrix) {
	f = utils.NewMatrix(1, bg.Dim)
	for j := 0; j < bg.SpaceDim(); j++ {
		f.DataP[j] = bg.A[j]*u[0] + 0.5*bg.B[j]*u[0]*u[0] - bg.Mu*gradU.DataP[j]
	}
	if bg.Spacetime {
		f.DataP[bg.Dim-1] = u[0]
	}
	return
}

// normalAdvective is the advective normal flux of state u through unit
// normal n.
func (bg *Burgers) normalAdvective(u float64, unit []float64) (fn float64) {
	for j := 0; j < bg.SpaceDim(); j++ {
		fn += unit[j] * (bg.A[j]*u + 0.5*bg.B[j]*u*u)
	}
	if bg.Spacetime {
		fn += unit[bg.Dim-1] * u
	}
	return
}

// waveSpeed is the Roe-averaged characteristic speed through unit
// normal n, exact for the quadratic flux.
func (bg *Burgers) waveSpeed(uL, uR float64, unit []float64) (lambda float64) {
	for j := 0; j < bg.SpaceDim(); j++ {
		lambda += unit[j] * (bg.A[j] + 0.5*bg.B[j]*(uL+uR))
	}
	if bg.Spacetime {
		lambda += unit[bg.Dim-1]
	}
	return
}

// ApplyBC constructs exterior states for physics-level boundary
// conditions. Wall and outflow conditions extrapolate the interior
// state, Riemann and inlet conditions impose the far field. The
// returned gradient mirrors the interior one; the engine rebuilds its
// own one-sided gradient regardless.
func (bg *Burgers) ApplyBC(uL []float64, gradUL utils.Matrix, unit []float64,
	bc types.BCType, bcflag int, anomalies *utils.AnomalyLog) (uR []float64, gradUR utils.Matrix) {
	uR = []float64{uL[0]}
	gradUR = gradUL
	switch bc {
	case types.SLIP_WALL, types.WALL_GENERAL, types.OUTLET, types.EXTRAPOLATION:
	case types.RIEMANN, types.INLET:
		uR[0] = bg.UInf
	default:
		anomalies.Logf("burgers-bc", "no exterior-state rule for %s, extrapolating", bc.Print())
	}
	return
}

// DtFromCFL bounds the stable timestep from the unit-state wave speed
// and the parabolic constraint on the reference length h.
func (bg *Burgers) DtFromCFL(cfl, referenceLength float64) (dt float64) {
	var lambda float64
	for j := 0; j < bg.SpaceDim(); j++ {
		lambda += bg.A[j]*bg.A[j] + bg.B[j]*bg.B[j]
	}
	lambda = math.Sqrt(lambda)
	if bg.Spacetime {
		lambda += 1
	}
	denom := lambda/referenceLength +
		2*float64(bg.SpaceDim())*bg.Mu/(referenceLength*referenceLength)
	if denom <= 0 {
		return
	}
	dt = cfl / denom
	return
}

// UpwindFlux is the Godunov-type convective numerical flux: the
// Roe-averaged speed selects the upwind state, whose physical normal
// flux is used directly, so the flux is exactly consistent.
type UpwindFlux struct {
	*Burgers
}

func (uf UpwindFlux) NumFlux(uL, uR, unit []float64) []float64 {
	if uf.waveSpeed(uL[0], uR[0], unit) > 0 {
		return []float64{uf.normalAdvective(uL[0], unit)}
	}
	return []float64{uf.normalAdvective(uR[0], unit)}
}

// ViscousFlux is the diffusive flux mu grad(u) dot n with its Neumann
// and homogeneity capabilities.
type ViscousFlux struct {
	*Burgers
}

func (vf ViscousFlux) NormalFlux(u []float64, gradU utils.Matrix, unit []float64) (fn []float64) {
	fn = make([]float64, 1)
	for j := 0; j < vf.SpaceDim(); j++ {
		fn[0] += vf.Mu * gradU.DataP[j] * unit[j]
	}
	return
}

// NeumannFlux converts a prescribed normal derivative into the
// diffusive normal flux.
func (vf ViscousFlux) NeumannFlux(prescribed []float64) []float64 {
	return []float64{vf.Mu * prescribed[0]}
}

// HomogeneityTensor linearizes the viscous flux: G is mu times the
// identity on the spatial block, flattened Dim x Dim for the single
// equation, with zero rows and columns in the time direction.
func (vf ViscousFlux) HomogeneityTensor(u []float64) (G utils.Matrix) {
	G = utils.NewMatrix(vf.Dim, vf.Dim)
	for j := 0; j < vf.SpaceDim(); j++ {
		G.DataP[j*vf.Dim+j] = vf.Mu
	}
	return
}
