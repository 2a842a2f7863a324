// Package disc implements the conservation-law discretization: the
// domain, trace and boundary residual integrals of a discontinuous
// Galerkin scheme with DDG viscous fluxes, their finite-difference
// Jacobians, and the assembly helpers that bind them to a finite
// element space.
//
// Physics plug in through the small flux interfaces in flux.go. The
// engine requires a physical flux, a convective numerical flux and a
// diffusion flux; optional capabilities (physics-level boundary
// conditions, Neumann data handling, a homogeneity tensor, CFL
// estimates) are discovered by type assertion, so a flux type opts in
// simply by declaring the method.
package disc

import (
	"fmt"
	"math"

	"github.com/numflux/galerkin/element"
	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

// machEps is the double precision unit roundoff.
const machEps = 0x1p-52

var sqrtMachEps = math.Sqrt(machEps)

// ConservationLawDDG evaluates the weak-form residual of a
// conservation law with the Direct Discontinuous Galerkin treatment of
// viscous terms: interface gradients are single-valued combinations of
// the jump, the average one-sided gradients and a Hessian correction,
// so no auxiliary gradient variable is needed.
//
// The zero value is not usable; build instances with
// NewConservationLawDDG and set the optional members on the result.
type ConservationLawDDG struct {
	PhysFlux PhysicalFlux
	ConvFlux ConvectiveNumFlux
	DiffFlux DiffusionFlux

	// InteriorPenalty switches the single-valued gradient from DDG to
	// the interior penalty form by dropping the Hessian term.
	InteriorPenalty bool
	// SigmaIC weights the interface correction term. Zero gives
	// standard DDG, one the DDGIC scheme of Danis and Yan; the term
	// only activates when the diffusion flux exposes a homogeneity
	// tensor.
	SigmaIC float64

	// DirichletCallbacks and NeumannCallbacks hold prescribed boundary
	// data indexed by the face's integer flag.
	DirichletCallbacks []BoundaryCallback
	NeumannCallbacks   []BoundaryCallback

	// UserSource, when set, is subtracted from the domain residual.
	UserSource SourceFunc

	// Spacetime couples SPACETIME_PAST boundary faces to the preceding
	// time slab; nil when running without slab coupling.
	Spacetime *SpacetimeInfo

	// FieldNames and ResidualNames label the vector components in
	// reports and output files.
	FieldNames    []string
	ResidualNames []string

	// Anomalies collects recoverable irregularities met during a sweep
	// (unsupported boundary conditions, missing couplings). The driver
	// drains it at checkpoints; assembly never aborts on an anomaly.
	Anomalies *utils.AnomalyLog
}

// NewConservationLawDDG assembles the engine from its three flux
// ingredients. Optional members (boundary callbacks, source term,
// spacetime coupling, the interface correction weight) are set on the
// returned struct before use.
func NewConservationLawDDG(phys PhysicalFlux, conv ConvectiveNumFlux, diff DiffusionFlux) (c *ConservationLawDDG) {
	c = &ConservationLawDDG{
		PhysFlux:  phys,
		ConvFlux:  conv,
		DiffFlux:  diff,
		Anomalies: &utils.AnomalyLog{},
	}
	for ieq := 0; ieq < phys.NumEquations(); ieq++ {
		c.FieldNames = append(c.FieldNames, fmt.Sprintf("u%d", ieq))
		c.ResidualNames = append(c.ResidualNames, fmt.Sprintf("res%d", ieq))
	}
	return
}

func (c *ConservationLawDDG) NumEquations() int { return c.PhysFlux.NumEquations() }

// DtFromCFL delegates the timestep estimate to the physical flux. A
// flux without the capability yields zero, meaning no guidance.
func (c *ConservationLawDDG) DtFromCFL(cfl, referenceLength float64) (dt float64) {
	if f, ok := c.PhysFlux.(CFLFlux); ok {
		dt = f.DtFromCFL(cfl, referenceLength)
	}
	return
}

// evalSolution contracts element coefficients (ndof x neq) with basis
// values at one point into u (length neq).
func evalSolution(unkel utils.Matrix, bi []float64, u []float64) {
	var ndof, neq = unkel.Dims()
	for ieq := 0; ieq < neq; ieq++ {
		u[ieq] = 0
	}
	for ib := 0; ib < ndof; ib++ {
		b := bi[ib]
		for ieq := 0; ieq < neq; ieq++ {
			u[ieq] += unkel.DataP[ib*neq+ieq] * b
		}
	}
}

// evalDerivative contracts element coefficients with a per-dof
// derivative table (ndof x ncomp) into a neq x ncomp matrix. It serves
// both gradients (ncomp = ndim) and Hessians (ncomp = ndim^2).
func evalDerivative(unkel, table utils.Matrix) utils.Matrix {
	return unkel.Transpose().Mul(table)
}

// ddgBetas returns the jump and Hessian weights recommended by Danis
// and Yan for polynomial order p: beta0 = (p+1)^2 and beta1 =
// 1/max(2p(p+1), 1). Interior penalty drops the Hessian term.
func ddgBetas(order int, interiorPenalty bool) (beta0, beta1 float64) {
	beta0 = float64((order + 1) * (order + 1))
	beta1 = 1 / math.Max(float64(2*order*(order+1)), 1)
	if interiorPenalty {
		beta1 = 0
	}
	return
}

// fdEpsilon scales the base finite-difference step by the local flux
// magnitude so perturbations keep relative precision across problem
// scales, flooring at sqrt of machine epsilon.
func fdEpsilon(scale float64) (eps float64) {
	eps = sqrtMachEps
	if s := math.Abs(scale) * sqrtMachEps; s > eps {
		eps = s
	}
	return
}

// floorSigned floors |h| at machine epsilon preserving the sign of h,
// guarding the DDG length scale against division blow-up.
func floorSigned(h float64) float64 {
	return math.Copysign(math.Max(math.Abs(h), machEps), h)
}

// DomainIntegral accumulates the weak-form volume term of one element:
// at every quadrature point the state and its physical gradient are
// reconstructed from unkel (ndof x neq), the physical flux is
// contracted against the test-function gradients, and an optional
// source term is subtracted. res (ndof x neq) is accumulated into, not
// zeroed.
func (c *ConservationLawDDG) DomainIntegral(el *element.FiniteElement, unkel, res utils.Matrix) (err error) {
	var (
		neq    = c.NumEquations()
		nbasis = el.NumBasis()
		ndim   = el.Ref.Dim
		u      = make([]float64, neq)
		source []float64
	)
	if c.UserSource != nil {
		source = make([]float64, neq)
	}
	for iqp := 0; iqp < el.NumQP(); iqp++ {
		_, w := el.QuadPoint(iqp)
		detJ := el.JacobianDetQP(iqp)
		if detJ <= 0 {
			// Mesh deformation can transiently invert a sub-region; its
			// measure clamps to zero instead of failing the sweep.
			continue
		}
		var gradxBi utils.Matrix
		if gradxBi, err = el.PhysGradBasisQP(iqp); err != nil {
			return fmt.Errorf("element %d qp %d: %w", el.Index, iqp, err)
		}
		bi := el.BasisQP(iqp)
		evalSolution(unkel, bi, u)
		gradu := evalDerivative(unkel, gradxBi)
		flux := c.PhysFlux.Flux(u, gradu)
		for itest := 0; itest < nbasis; itest++ {
			for ieq := 0; ieq < neq; ieq++ {
				var df float64
				for jdim := 0; jdim < ndim; jdim++ {
					df += flux.DataP[ieq*ndim+jdim] * gradxBi.DataP[itest*ndim+jdim]
				}
				res.DataP[itest*neq+ieq] += df * detJ * w
			}
		}
		if c.UserSource != nil {
			c.UserSource(el.TransformQP(iqp), source)
			for itest := 0; itest < nbasis; itest++ {
				for ieq := 0; ieq < neq; ieq++ {
					res.DataP[itest*neq+ieq] -= source[ieq] * bi[itest] * detJ * w
				}
			}
		}
	}
	return
}

// DomainIntegralJacobian accumulates the dense Jacobian block of the
// volume term into dfdu, indexed (itest·neq+ieq) x (jdof·neq+jeq). The
// flux derivatives dF/du and dF/d∇u come from central differences with
// a magnitude-scaled step; the source term carries no state dependence
// and contributes nothing.
func (c *ConservationLawDDG) DomainIntegralJacobian(el *element.FiniteElement, unkel, dfdu utils.Matrix) (err error) {
	var (
		neq      = c.NumEquations()
		nbasis   = el.NumBasis()
		ndim     = el.Ref.Dim
		_, ncols = dfdu.Dims()
		u        = make([]float64, neq)
		up       = make([]float64, neq)
		um       = make([]float64, neq)
		// flux derivatives at one quadrature point, row ieq·ndim+idim
		dfluxDu     = utils.NewMatrix(neq*ndim, neq)
		dfluxDgradu = utils.NewMatrix(neq*ndim, neq*ndim)
	)
	for iqp := 0; iqp < el.NumQP(); iqp++ {
		_, w := el.QuadPoint(iqp)
		detJ := el.JacobianDetQP(iqp)
		if detJ <= 0 {
			continue
		}
		var gradxBi utils.Matrix
		if gradxBi, err = el.PhysGradBasisQP(iqp); err != nil {
			return fmt.Errorf("element %d qp %d: %w", el.Index, iqp, err)
		}
		bi := el.BasisQP(iqp)
		evalSolution(unkel, bi, u)
		gradu := evalDerivative(unkel, gradxBi)
		eps := fdEpsilon(c.PhysFlux.Flux(u, gradu).FrobNorm())
		for jeq := 0; jeq < neq; jeq++ {
			copy(up, u)
			copy(um, u)
			up[jeq] += eps
			um[jeq] -= eps
			fp := c.PhysFlux.Flux(up, gradu)
			fm := c.PhysFlux.Flux(um, gradu)
			for ieq := 0; ieq < neq; ieq++ {
				for idim := 0; idim < ndim; idim++ {
					dfluxDu.DataP[(ieq*ndim+idim)*neq+jeq] =
						(fp.DataP[ieq*ndim+idim] - fm.DataP[ieq*ndim+idim]) / (2 * eps)
				}
			}
		}
		for jeq := 0; jeq < neq; jeq++ {
			for jdim := 0; jdim < ndim; jdim++ {
				gp := gradu.Copy()
				gm := gradu.Copy()
				gp.DataP[jeq*ndim+jdim] += eps
				gm.DataP[jeq*ndim+jdim] -= eps
				fp := c.PhysFlux.Flux(u, gp)
				fm := c.PhysFlux.Flux(u, gm)
				for ieq := 0; ieq < neq; ieq++ {
					for idim := 0; idim < ndim; idim++ {
						dfluxDgradu.DataP[(ieq*ndim+idim)*(neq*ndim)+jeq*ndim+jdim] =
							(fp.DataP[ieq*ndim+idim] - fm.DataP[ieq*ndim+idim]) / (2 * eps)
					}
				}
			}
		}
		for itest := 0; itest < nbasis; itest++ {
			for ieq := 0; ieq < neq; ieq++ {
				row := itest*neq + ieq
				for jdof := 0; jdof < nbasis; jdof++ {
					for jeq := 0; jeq < neq; jeq++ {
						var v float64
						for idim := 0; idim < ndim; idim++ {
							v += dfluxDu.DataP[(ieq*ndim+idim)*neq+jeq] *
								bi[jdof] * gradxBi.DataP[itest*ndim+idim]
							for jdim := 0; jdim < ndim; jdim++ {
								v += dfluxDgradu.DataP[(ieq*ndim+idim)*(neq*ndim)+jeq*ndim+jdim] *
									gradxBi.DataP[jdof*ndim+jdim] * gradxBi.DataP[itest*ndim+idim]
							}
						}
						dfdu.DataP[row*ncols+jdof*neq+jeq] += v * detJ * w
					}
				}
			}
		}
	}
	return
}

// TraceIntegral accumulates the interface flux of one interior trace
// into the residuals of both neighboring elements with opposite signs.
// The viscous flux sees the DDG single-valued gradient: a
// beta0-weighted jump along the unit normal, the average of the
// one-sided gradients, and a beta1-weighted Hessian jump, with the
// length scale h taken as the centroid separation projected on the
// normal.
func (c *ConservationLawDDG) TraceIntegral(ts *element.TraceSpace, unkelL, unkelR, resL, resR utils.Matrix) (err error) {
	var (
		neq     = c.NumEquations()
		ndim    = ts.Ref.Dim
		nbL     = ts.ElL.NumBasis()
		nbR     = ts.ElR.NumBasis()
		centL   = ts.CentroidL()
		centR   = ts.CentroidR()
		uL      = make([]float64, neq)
		uR      = make([]float64, neq)
		uavg    = make([]float64, neq)
		gradDDG = utils.NewMatrix(neq, ndim)
		order   = ts.ElL.Ref.Key.BasisOrder
	)
	if p := ts.ElR.Ref.Key.BasisOrder; p > order {
		order = p
	}
	beta0, beta1 := ddgBetas(order, c.InteriorPenalty)
	hf, hasIC := c.DiffFlux.(HomogeneityDiffusionFlux)
	for iqp := 0; iqp < ts.NumQP(); iqp++ {
		_, w := ts.QuadPoint(iqp)
		unit, sqrtg := ts.UnitNormal(iqp)
		biL := ts.BasisLQP(iqp)
		biR := ts.BasisRQP(iqp)
		var gradBiL, gradBiR, hessBiL, hessBiR utils.Matrix
		if gradBiL, err = ts.PhysGradBasisL(iqp); err != nil {
			return fmt.Errorf("trace %d qp %d: %w", ts.Index, iqp, err)
		}
		if gradBiR, err = ts.PhysGradBasisR(iqp); err != nil {
			return fmt.Errorf("trace %d qp %d: %w", ts.Index, iqp, err)
		}
		if hessBiL, err = ts.PhysHessBasisL(iqp); err != nil {
			return fmt.Errorf("trace %d qp %d: %w", ts.Index, iqp, err)
		}
		if hessBiR, err = ts.PhysHessBasisR(iqp); err != nil {
			return fmt.Errorf("trace %d qp %d: %w", ts.Index, iqp, err)
		}
		evalSolution(unkelL, biL, uL)
		evalSolution(unkelR, biR, uR)
		var (
			graduL = evalDerivative(unkelL, gradBiL)
			graduR = evalDerivative(unkelR, gradBiR)
			hessuL = evalDerivative(unkelL, hessBiL)
			hessuR = evalDerivative(unkelR, hessBiR)
			fadvn  = c.ConvFlux.NumFlux(uL, uR, unit)
			x      = ts.Transform(iqp)
		)
		var h float64
		for idim := 0; idim < ndim; idim++ {
			h += unit[idim] * ((x[idim] - centL[idim]) + (centR[idim] - x[idim]))
		}
		h = floorSigned(h)
		for ieq := 0; ieq < neq; ieq++ {
			jump := uR[ieq] - uL[ieq]
			for idim := 0; idim < ndim; idim++ {
				var hessTerm float64
				for jdim := 0; jdim < ndim; jdim++ {
					hessTerm += (hessuR.DataP[ieq*ndim*ndim+jdim*ndim+idim] -
						hessuL.DataP[ieq*ndim*ndim+jdim*ndim+idim]) * unit[jdim]
				}
				gradDDG.DataP[ieq*ndim+idim] = beta0*jump/h*unit[idim] +
					0.5*(graduL.DataP[ieq*ndim+idim]+graduR.DataP[ieq*ndim+idim]) +
					beta1*h*hessTerm
			}
			uavg[ieq] = 0.5 * (uL[ieq] + uR[ieq])
		}
		fviscn := c.DiffFlux.NormalFlux(uavg, gradDDG, unit)
		for ieq := 0; ieq < neq; ieq++ {
			f := (fviscn[ieq] - fadvn[ieq]) * w * sqrtg
			for itest := 0; itest < nbL; itest++ {
				resL.DataP[itest*neq+ieq] += f * biL[itest]
			}
			for itest := 0; itest < nbR; itest++ {
				resR.DataP[itest*neq+ieq] -= f * biR[itest]
			}
		}
		if hasIC && c.SigmaIC != 0 {
			G := hf.HomogeneityTensor(uavg)
			for ieq := 0; ieq < neq; ieq++ {
				for k := 0; k < ndim; k++ {
					for req := 0; req < neq; req++ {
						jump := uR[req] - uL[req]
						for s := 0; s < ndim; s++ {
							ic := c.SigmaIC * G.DataP[(ieq*ndim+k)*(neq*ndim)+req*ndim+s] *
								unit[k] * jump * w * sqrtg
							// the 0.5 comes from the average operator on
							// the test-function gradients
							for itest := 0; itest < nbL; itest++ {
								resL.DataP[itest*neq+ieq] -= ic * 0.5 * gradBiL.DataP[itest*ndim+s]
							}
							for itest := 0; itest < nbR; itest++ {
								resR.DataP[itest*neq+ieq] -= ic * 0.5 * gradBiR.DataP[itest*ndim+s]
							}
						}
					}
				}
			}
		}
	}
	return
}

// BoundaryIntegral accumulates the flux of one boundary trace into the
// interior element's residual, dispatching on the boundary condition
// kind. unkelR is accepted for signature parity with TraceIntegral;
// only the spacetime coupling reaches beyond the interior data.
func (c *ConservationLawDDG) BoundaryIntegral(ts *element.TraceSpace, unkelL, unkelR, resL utils.Matrix) (err error) {
	switch ts.BCType {
	case types.DIRICHLET:
		return c.dirichletIntegral(ts, unkelL, resL)
	case types.NEUMANN:
		return c.neumannIntegral(ts, resL)
	case types.SPACETIME_PAST:
		if c.Spacetime == nil {
			c.Anomalies.Logf("spacetime", "trace %d tagged spacetime-past without slab coupling", ts.Index)
			return
		}
		return c.spacetimePastIntegral(ts, unkelL, resL)
	case types.SPACETIME_FUTURE, types.EXTRAPOLATION:
		// purely upwind at the future boundary, so both reduce to the
		// zero-jump condition
		return c.extrapolationIntegral(ts, unkelL, resL)
	case types.PARALLEL_COM:
		// a partition face on a single-rank communicator sees its own
		// state across the face
		return c.extrapolationIntegral(ts, unkelL, resL)
	default:
		if bf, ok := c.PhysFlux.(BoundaryStateFlux); ok {
			return c.generalBCIntegral(ts, bf, unkelL, resL)
		}
		c.Anomalies.Logf("boundary", "no handler for %s condition on trace %d", ts.BCType.Print(), ts.Index)
	}
	return
}

// dirichletIntegral applies a prescribed-value condition following
// Huang, Chen, Li and Yan 2016: the exterior state comes from the
// flagged callback, and the DDG gradient is one-sided with the length
// scale measured from the boundary point to the element centroid.
func (c *ConservationLawDDG) dirichletIntegral(ts *element.TraceSpace, unkelL, resL utils.Matrix) (err error) {
	var (
		neq     = c.NumEquations()
		ndim    = ts.Ref.Dim
		nbL     = ts.ElL.NumBasis()
		centL   = ts.CentroidL()
		uL      = make([]float64, neq)
		uBC     = make([]float64, neq)
		uavg    = make([]float64, neq)
		gradDDG = utils.NewMatrix(neq, ndim)
	)
	if ts.BCFlag < 0 || ts.BCFlag >= len(c.DirichletCallbacks) {
		return fmt.Errorf("trace %d: dirichlet flag %d outside the %d registered callbacks",
			ts.Index, ts.BCFlag, len(c.DirichletCallbacks))
	}
	valueAt := c.DirichletCallbacks[ts.BCFlag]
	beta0, _ := ddgBetas(ts.ElL.Ref.Key.BasisOrder, c.InteriorPenalty)
	hf, hasIC := c.DiffFlux.(HomogeneityDiffusionFlux)
	for iqp := 0; iqp < ts.NumQP(); iqp++ {
		_, w := ts.QuadPoint(iqp)
		unit, sqrtg := ts.UnitNormal(iqp)
		x := ts.Transform(iqp)
		biL := ts.BasisLQP(iqp)
		var gradBiL utils.Matrix
		if gradBiL, err = ts.PhysGradBasisL(iqp); err != nil {
			return fmt.Errorf("trace %d qp %d: %w", ts.Index, iqp, err)
		}
		evalSolution(unkelL, biL, uL)
		graduL := evalDerivative(unkelL, gradBiL)
		valueAt(x, uBC)
		fadvn := c.ConvFlux.NumFlux(uL, uBC, unit)
		var h float64
		for idim := 0; idim < ndim; idim++ {
			h += math.Abs(unit[idim] * (x[idim] - centL[idim]))
		}
		h = floorSigned(h)
		for ieq := 0; ieq < neq; ieq++ {
			jump := uBC[ieq] - uL[ieq]
			for idim := 0; idim < ndim; idim++ {
				gradDDG.DataP[ieq*ndim+idim] = beta0*jump/h*unit[idim] + graduL.DataP[ieq*ndim+idim]
			}
			uavg[ieq] = 0.5 * (uL[ieq] + uBC[ieq])
		}
		fviscn := c.DiffFlux.NormalFlux(uavg, gradDDG, unit)
		for ieq := 0; ieq < neq; ieq++ {
			f := (fviscn[ieq] - fadvn[ieq]) * w * sqrtg
			for itest := 0; itest < nbL; itest++ {
				resL.DataP[itest*neq+ieq] += f * biL[itest]
			}
		}
		if hasIC && c.SigmaIC != 0 {
			// one-sided trace: the full interior test gradient stands in
			// for the average
			G := hf.HomogeneityTensor(uavg)
			for itest := 0; itest < nbL; itest++ {
				for ieq := 0; ieq < neq; ieq++ {
					for k := 0; k < ndim; k++ {
						for req := 0; req < neq; req++ {
							jump := uBC[req] - uL[req]
							for s := 0; s < ndim; s++ {
								resL.DataP[itest*neq+ieq] -= c.SigmaIC *
									G.DataP[(ieq*ndim+k)*(neq*ndim)+req*ndim+s] * unit[k] *
									gradBiL.DataP[itest*ndim+s] * jump * w * sqrtg
							}
						}
					}
				}
			}
		}
	}
	return
}

// neumannIntegral applies a prescribed normal-gradient condition. Only
// the diffusive flux contributes; a convective term has no meaning at
// a Neumann boundary of a hyperbolic system (Li and Tang 2017, 9.1.1).
func (c *ConservationLawDDG) neumannIntegral(ts *element.TraceSpace, resL utils.Matrix) (err error) {
	var (
		neq = c.NumEquations()
		nbL = ts.ElL.NumBasis()
		gn  = make([]float64, neq)
	)
	nf, ok := c.DiffFlux.(NeumannDiffusionFlux)
	if !ok {
		c.Anomalies.Logf("boundary", "diffusion flux %T cannot consume neumann data on trace %d", c.DiffFlux, ts.Index)
		return
	}
	if ts.BCFlag < 0 || ts.BCFlag >= len(c.NeumannCallbacks) {
		return fmt.Errorf("trace %d: neumann flag %d outside the %d registered callbacks",
			ts.Index, ts.BCFlag, len(c.NeumannCallbacks))
	}
	gradientAt := c.NeumannCallbacks[ts.BCFlag]
	for iqp := 0; iqp < ts.NumQP(); iqp++ {
		_, w := ts.QuadPoint(iqp)
		_, sqrtg := ts.UnitNormal(iqp)
		gradientAt(ts.Transform(iqp), gn)
		fviscn := nf.NeumannFlux(gn)
		biL := ts.BasisLQP(iqp)
		for ieq := 0; ieq < neq; ieq++ {
			f := fviscn[ieq] * w * sqrtg
			for itest := 0; itest < nbL; itest++ {
				resL.DataP[itest*neq+ieq] += f * biL[itest]
			}
		}
	}
	return
}

// extrapolationIntegral uses the interior state and gradient as the
// exterior ones, the zero-jump boundary.
func (c *ConservationLawDDG) extrapolationIntegral(ts *element.TraceSpace, unkelL, resL utils.Matrix) (err error) {
	var (
		neq = c.NumEquations()
		nbL = ts.ElL.NumBasis()
		uL  = make([]float64, neq)
	)
	for iqp := 0; iqp < ts.NumQP(); iqp++ {
		_, w := ts.QuadPoint(iqp)
		unit, sqrtg := ts.UnitNormal(iqp)
		biL := ts.BasisLQP(iqp)
		var gradBiL utils.Matrix
		if gradBiL, err = ts.PhysGradBasisL(iqp); err != nil {
			return fmt.Errorf("trace %d qp %d: %w", ts.Index, iqp, err)
		}
		evalSolution(unkelL, biL, uL)
		graduL := evalDerivative(unkelL, gradBiL)
		fadvn := c.ConvFlux.NumFlux(uL, uL, unit)
		fviscn := c.DiffFlux.NormalFlux(uL, graduL, unit)
		for ieq := 0; ieq < neq; ieq++ {
			f := (fviscn[ieq] - fadvn[ieq]) * w * sqrtg
			for itest := 0; itest < nbL; itest++ {
				resL.DataP[itest*neq+ieq] += f * biL[itest]
			}
		}
	}
	return
}

// spacetimePastIntegral couples the bottom of the current time slab to
// the top of the preceding one: the exterior state is the past slab's
// converged solution on the connected trace, while gradients come from
// the interior side. A boundary trace aliases its element on both
// sides, so the one-sided gradients coincide, the average reduces to
// the interior gradient and the Hessian jump vanishes.
func (c *ConservationLawDDG) spacetimePastIntegral(ts *element.TraceSpace, unkelL, resL utils.Matrix) (err error) {
	var (
		neq     = c.NumEquations()
		ndim    = ts.Ref.Dim
		nbL     = ts.ElL.NumBasis()
		centL   = ts.CentroidL()
		uL      = make([]float64, neq)
		uR      = make([]float64, neq)
		uavg    = make([]float64, neq)
		gradDDG = utils.NewMatrix(neq, ndim)
	)
	tracePast, ok := c.Spacetime.ConnectionTraces[ts.Index]
	if !ok {
		return fmt.Errorf("trace %d: no past-slab connection", ts.Index)
	}
	elPast := tracePast.ElR
	if nbR := ts.ElR.NumBasis(); elPast.NumBasis() != nbR {
		return fmt.Errorf("trace %d: past element %d carries %d basis functions, current side %d",
			ts.Index, elPast.Index, elPast.NumBasis(), nbR)
	}
	unkelPast := utils.NewMatrix(elPast.NumBasis(), neq)
	c.Spacetime.FespacePast.DGMap.ExtractEl(elPast.Index, neq, c.Spacetime.UPast, unkelPast)
	order := ts.ElL.Ref.Key.BasisOrder
	if p := elPast.Ref.Key.BasisOrder; p > order {
		order = p
	}
	beta0, _ := ddgBetas(order, c.InteriorPenalty)
	for iqp := 0; iqp < ts.NumQP(); iqp++ {
		_, w := ts.QuadPoint(iqp)
		unit, sqrtg := ts.UnitNormal(iqp)
		biL := ts.BasisLQP(iqp)
		biR := ts.BasisRQP(iqp)
		var gradBiL utils.Matrix
		if gradBiL, err = ts.PhysGradBasisL(iqp); err != nil {
			return fmt.Errorf("trace %d qp %d: %w", ts.Index, iqp, err)
		}
		evalSolution(unkelL, biL, uL)
		evalSolution(unkelPast, biR, uR)
		graduL := evalDerivative(unkelL, gradBiL)
		fadvn := c.ConvFlux.NumFlux(uL, uR, unit)
		x := ts.Transform(iqp)
		// the centroid of the mirror element sits reflected across the
		// face, so the separation is twice the one-sided distance
		var h float64
		for idim := 0; idim < ndim; idim++ {
			h += unit[idim] * 2 * (x[idim] - centL[idim])
		}
		h = floorSigned(h)
		for ieq := 0; ieq < neq; ieq++ {
			jump := uR[ieq] - uL[ieq]
			for idim := 0; idim < ndim; idim++ {
				gradDDG.DataP[ieq*ndim+idim] = beta0*jump/h*unit[idim] + graduL.DataP[ieq*ndim+idim]
			}
			uavg[ieq] = 0.5 * (uL[ieq] + uR[ieq])
		}
		fviscn := c.DiffFlux.NormalFlux(uavg, gradDDG, unit)
		for ieq := 0; ieq < neq; ieq++ {
			f := (fviscn[ieq] - fadvn[ieq]) * w * sqrtg
			for itest := 0; itest < nbL; itest++ {
				resL.DataP[itest*neq+ieq] += f * biL[itest]
			}
		}
	}
	return
}

// generalBCIntegral delegates exterior-state construction to the
// physical flux, covering physics-specific conditions such as slip
// walls without adding cases to the engine. The exterior gradient
// returned by the flux is not consumed; the DDG gradient is built from
// the interior side alone.
func (c *ConservationLawDDG) generalBCIntegral(ts *element.TraceSpace, bf BoundaryStateFlux, unkelL, resL utils.Matrix) (err error) {
	var (
		neq     = c.NumEquations()
		ndim    = ts.Ref.Dim
		nbL     = ts.ElL.NumBasis()
		centL   = ts.CentroidL()
		uL      = make([]float64, neq)
		uavg    = make([]float64, neq)
		gradDDG = utils.NewMatrix(neq, ndim)
	)
	beta0, _ := ddgBetas(ts.ElL.Ref.Key.BasisOrder, c.InteriorPenalty)
	hf, hasIC := c.DiffFlux.(HomogeneityDiffusionFlux)
	for iqp := 0; iqp < ts.NumQP(); iqp++ {
		_, w := ts.QuadPoint(iqp)
		unit, sqrtg := ts.UnitNormal(iqp)
		x := ts.Transform(iqp)
		biL := ts.BasisLQP(iqp)
		var gradBiL utils.Matrix
		if gradBiL, err = ts.PhysGradBasisL(iqp); err != nil {
			return fmt.Errorf("trace %d qp %d: %w", ts.Index, iqp, err)
		}
		evalSolution(unkelL, biL, uL)
		graduL := evalDerivative(unkelL, gradBiL)
		uR, _ := bf.ApplyBC(uL, graduL, unit, ts.BCType, ts.BCFlag, c.Anomalies)
		var h float64
		for idim := 0; idim < ndim; idim++ {
			h += math.Abs(unit[idim] * (x[idim] - centL[idim]))
		}
		h = floorSigned(h)
		for ieq := 0; ieq < neq; ieq++ {
			jump := uR[ieq] - uL[ieq]
			for idim := 0; idim < ndim; idim++ {
				gradDDG.DataP[ieq*ndim+idim] = beta0*jump/h*unit[idim] + graduL.DataP[ieq*ndim+idim]
			}
			uavg[ieq] = 0.5 * (uL[ieq] + uR[ieq])
		}
		fadvn := c.ConvFlux.NumFlux(uL, uR, unit)
		fviscn := c.DiffFlux.NormalFlux(uavg, gradDDG, unit)
		for ieq := 0; ieq < neq; ieq++ {
			f := (fviscn[ieq] - fadvn[ieq]) * w * sqrtg
			for itest := 0; itest < nbL; itest++ {
				resL.DataP[itest*neq+ieq] += f * biL[itest]
			}
		}
		if hasIC && c.SigmaIC != 0 {
			G := hf.HomogeneityTensor(uavg)
			for itest := 0; itest < nbL; itest++ {
				for ieq := 0; ieq < neq; ieq++ {
					for k := 0; k < ndim; k++ {
						for req := 0; req < neq; req++ {
							jump := uR[req] - uL[req]
							for s := 0; s < ndim; s++ {
								resL.DataP[itest*neq+ieq] -= c.SigmaIC *
									G.DataP[(ieq*ndim+k)*(neq*ndim)+req*ndim+s] * unit[k] *
									gradBiL.DataP[itest*ndim+s] * jump * w * sqrtg
							}
						}
					}
				}
			}
		}
	}
	return
}

// InterfaceConservation integrates the jump in the normal physical
// flux across a trace against the trace's own basis. The result is a
// mesh-adaptation indicator that vanishes when the discrete flux is
// continuous; it drives trace selection in the moving-mesh workflow.
// On Dirichlet boundaries the exterior state is the prescribed value;
// any other boundary condition zeroes res and returns.
func (c *ConservationLawDDG) InterfaceConservation(ts *element.TraceSpace, unkelL, unkelR, res utils.Matrix) (err error) {
	var (
		neq     = c.NumEquations()
		ndim    = ts.Ref.Dim
		nbTrace = ts.NumBasisTrace()
		uL      = make([]float64, neq)
		uR      = make([]float64, neq)
		orderL  = ts.ElL.Ref.Key.BasisOrder
		orderR  = ts.ElR.Ref.Key.BasisOrder
	)
	dirichlet := false
	if ts.BCType != types.INTERIOR {
		switch ts.BCType {
		case types.DIRICHLET:
			if ts.ElL.Index != ts.ElR.Index {
				c.Anomalies.Logf("interface", "dirichlet trace %d joins distinct elements %d and %d",
					ts.Index, ts.ElL.Index, ts.ElR.Index)
			}
			if ts.BCFlag < 0 || ts.BCFlag >= len(c.DirichletCallbacks) {
				return fmt.Errorf("trace %d: dirichlet flag %d outside the %d registered callbacks",
					ts.Index, ts.BCFlag, len(c.DirichletCallbacks))
			}
			dirichlet = true
		default:
			res.Zero()
			return
		}
	}
	for iqp := 0; iqp < ts.NumQP(); iqp++ {
		_, w := ts.QuadPoint(iqp)
		unit, sqrtg := ts.UnitNormal(iqp)
		biL := ts.BasisLQP(iqp)
		biR := ts.BasisRQP(iqp)
		bitrace := ts.TraceBasisQP(iqp)
		var gradBiL, gradBiR utils.Matrix
		if gradBiL, err = ts.PhysGradBasisL(iqp); err != nil {
			return fmt.Errorf("trace %d qp %d: %w", ts.Index, iqp, err)
		}
		if gradBiR, err = ts.PhysGradBasisR(iqp); err != nil {
			return fmt.Errorf("trace %d qp %d: %w", ts.Index, iqp, err)
		}
		evalSolution(unkelL, biL, uL)
		evalSolution(unkelR, biR, uR)
		graduL := evalDerivative(unkelL, gradBiL)
		graduR := evalDerivative(unkelR, gradBiR)
		if dirichlet {
			c.DirichletCallbacks[ts.BCFlag](ts.Transform(iqp), uR)
		}
		// Order-1 elements carry piecewise constant gradients whose
		// jumps are mesh artifacts, not conservation signal; drop them.
		if orderL == 1 && orderR == 1 {
			graduL.Zero()
			graduR.Zero()
		}
		fluxL := c.PhysFlux.Flux(uL, graduL)
		fluxR := c.PhysFlux.Flux(uR, graduR)
		for ieq := 0; ieq < neq; ieq++ {
			var jump float64
			for idim := 0; idim < ndim; idim++ {
				jump += (fluxR.DataP[ieq*ndim+idim] - fluxL.DataP[ieq*ndim+idim]) * unit[idim]
			}
			// the signed normal keeps directionality, letting V-shaped
			// interface intersections cancel
			f := jump * sqrtg * w
			for itest := 0; itest < nbTrace; itest++ {
				res.DataP[itest*neq+ieq] -= f * bitrace[itest]
			}
		}
	}
	return
}
