package disc

import (
	"fmt"

	"github.com/numflux/galerkin/fespace"
	"github.com/numflux/galerkin/utils"
)

// AssembleResidual sweeps the whole space and accumulates the weak
// residual of u into res, both laid out by the DG dof map: first every
// element's volume term, then every interior trace into its two
// neighbors, then the boundary traces. res is zeroed first.
func (c *ConservationLawDDG) AssembleResidual(fes *fespace.FESpace, u, res []float64) (err error) {
	neq := c.NumEquations()
	for i := range res {
		res[i] = 0
	}
	for _, el := range fes.Elements {
		var (
			unkel = utils.NewMatrix(el.NumBasis(), neq)
			resEl = utils.NewMatrix(el.NumBasis(), neq)
		)
		fes.DGMap.ExtractEl(el.Index, neq, u, unkel)
		if err = c.DomainIntegral(el, unkel, resEl); err != nil {
			return
		}
		fes.DGMap.ScatterEl(el.Index, neq, resEl, res, true)
	}
	for _, ts := range fes.InteriorTraces() {
		var (
			unkelL = utils.NewMatrix(ts.ElL.NumBasis(), neq)
			unkelR = utils.NewMatrix(ts.ElR.NumBasis(), neq)
			resL   = utils.NewMatrix(ts.ElL.NumBasis(), neq)
			resR   = utils.NewMatrix(ts.ElR.NumBasis(), neq)
		)
		fes.DGMap.ExtractEl(ts.ElL.Index, neq, u, unkelL)
		fes.DGMap.ExtractEl(ts.ElR.Index, neq, u, unkelR)
		if err = c.TraceIntegral(ts, unkelL, unkelR, resL, resR); err != nil {
			return
		}
		fes.DGMap.ScatterEl(ts.ElL.Index, neq, resL, res, true)
		fes.DGMap.ScatterEl(ts.ElR.Index, neq, resR, res, true)
	}
	for _, ts := range fes.BoundaryTraces() {
		var (
			unkelL = utils.NewMatrix(ts.ElL.NumBasis(), neq)
			resL   = utils.NewMatrix(ts.ElL.NumBasis(), neq)
		)
		fes.DGMap.ExtractEl(ts.ElL.Index, neq, u, unkelL)
		if err = c.BoundaryIntegral(ts, unkelL, unkelL, resL); err != nil {
			return
		}
		fes.DGMap.ScatterEl(ts.ElL.Index, neq, resL, res, true)
	}
	return
}

// AssembleJacobian builds the sparse residual Jacobian at u. Volume
// blocks come from DomainIntegralJacobian; trace and boundary blocks
// from one-sided finite differences of the trace integrals with the
// same magnitude-scaled step used elsewhere. Entries accumulate in a
// dictionary and compress to CSR once complete.
func (c *ConservationLawDDG) AssembleJacobian(fes *fespace.FESpace, u []float64) (J utils.CSR, err error) {
	var (
		neq = c.NumEquations()
		n   = fes.DGMap.SizeRequirement(neq)
		dok = utils.NewDOK(n, n)
	)
	for _, el := range fes.Elements {
		var (
			nb    = el.NumBasis()
			unkel = utils.NewMatrix(nb, neq)
			dfdu  = utils.NewMatrix(nb*neq, nb*neq)
		)
		fes.DGMap.ExtractEl(el.Index, neq, u, unkel)
		if err = c.DomainIntegralJacobian(el, unkel, dfdu); err != nil {
			return
		}
		for itest := 0; itest < nb; itest++ {
			for ieq := 0; ieq < neq; ieq++ {
				row := fes.DGMap.Index(el.Index, itest, ieq, neq)
				for jdof := 0; jdof < nb; jdof++ {
					for jeq := 0; jeq < neq; jeq++ {
						v := dfdu.DataP[(itest*neq+ieq)*(nb*neq)+jdof*neq+jeq]
						if v != 0 {
							dok.Accumulate(row, fes.DGMap.Index(el.Index, jdof, jeq, neq), v)
						}
					}
				}
			}
		}
	}
	for _, ts := range fes.InteriorTraces() {
		var (
			nbL    = ts.ElL.NumBasis()
			nbR    = ts.ElR.NumBasis()
			unkelL = utils.NewMatrix(nbL, neq)
			unkelR = utils.NewMatrix(nbR, neq)
			resL0  = utils.NewMatrix(nbL, neq)
			resR0  = utils.NewMatrix(nbR, neq)
		)
		fes.DGMap.ExtractEl(ts.ElL.Index, neq, u, unkelL)
		fes.DGMap.ExtractEl(ts.ElR.Index, neq, u, unkelR)
		if err = c.TraceIntegral(ts, unkelL, unkelR, resL0, resR0); err != nil {
			return
		}
		traceFD := func(pert utils.Matrix, pertEl int) (e error) {
			nb, _ := pert.Dims()
			for jdof := 0; jdof < nb; jdof++ {
				for jeq := 0; jeq < neq; jeq++ {
					var (
						saved = pert.DataP[jdof*neq+jeq]
						eps   = fdEpsilon(saved)
						resLp = utils.NewMatrix(nbL, neq)
						resRp = utils.NewMatrix(nbR, neq)
					)
					pert.DataP[jdof*neq+jeq] = saved + eps
					if e = c.TraceIntegral(ts, unkelL, unkelR, resLp, resRp); e != nil {
						return
					}
					pert.DataP[jdof*neq+jeq] = saved
					col := fes.DGMap.Index(pertEl, jdof, jeq, neq)
					for itest := 0; itest < nbL; itest++ {
						for ieq := 0; ieq < neq; ieq++ {
							v := (resLp.DataP[itest*neq+ieq] - resL0.DataP[itest*neq+ieq]) / eps
							if v != 0 {
								dok.Accumulate(fes.DGMap.Index(ts.ElL.Index, itest, ieq, neq), col, v)
							}
						}
					}
					for itest := 0; itest < nbR; itest++ {
						for ieq := 0; ieq < neq; ieq++ {
							v := (resRp.DataP[itest*neq+ieq] - resR0.DataP[itest*neq+ieq]) / eps
							if v != 0 {
								dok.Accumulate(fes.DGMap.Index(ts.ElR.Index, itest, ieq, neq), col, v)
							}
						}
					}
				}
			}
			return
		}
		if err = traceFD(unkelL, ts.ElL.Index); err != nil {
			return
		}
		if err = traceFD(unkelR, ts.ElR.Index); err != nil {
			return
		}
	}
	for _, ts := range fes.BoundaryTraces() {
		var (
			nbL    = ts.ElL.NumBasis()
			unkelL = utils.NewMatrix(nbL, neq)
			resL0  = utils.NewMatrix(nbL, neq)
		)
		fes.DGMap.ExtractEl(ts.ElL.Index, neq, u, unkelL)
		if err = c.BoundaryIntegral(ts, unkelL, unkelL, resL0); err != nil {
			return
		}
		for jdof := 0; jdof < nbL; jdof++ {
			for jeq := 0; jeq < neq; jeq++ {
				var (
					saved = unkelL.DataP[jdof*neq+jeq]
					eps   = fdEpsilon(saved)
					resLp = utils.NewMatrix(nbL, neq)
				)
				unkelL.DataP[jdof*neq+jeq] = saved + eps
				if err = c.BoundaryIntegral(ts, unkelL, unkelL, resLp); err != nil {
					return
				}
				unkelL.DataP[jdof*neq+jeq] = saved
				col := fes.DGMap.Index(ts.ElL.Index, jdof, jeq, neq)
				for itest := 0; itest < nbL; itest++ {
					for ieq := 0; ieq < neq; ieq++ {
						v := (resLp.DataP[itest*neq+ieq] - resL0.DataP[itest*neq+ieq]) / eps
						if v != 0 {
							dok.Accumulate(fes.DGMap.Index(ts.ElL.Index, itest, ieq, neq), col, v)
						}
					}
				}
			}
		}
	}
	J = dok.ToCSR()
	return
}

// DefaultICThreshold is the interface-conservation norm above which a
// trace joins the moving-node set.
const DefaultICThreshold = 0.1

// SelectICTraces evaluates the interface-conservation indicator on
// every interior trace and returns, in trace order, the indices whose
// residual norm meets the threshold. A non-positive threshold selects
// with DefaultICThreshold. The result seeds the geometry dof map of a
// moving-mesh solve.
func (c *ConservationLawDDG) SelectICTraces(fes *fespace.FESpace, u []float64, threshold float64) (selected []int, err error) {
	if threshold <= 0 {
		threshold = DefaultICThreshold
	}
	neq := c.NumEquations()
	for _, ts := range fes.InteriorTraces() {
		var (
			unkelL = utils.NewMatrix(ts.ElL.NumBasis(), neq)
			unkelR = utils.NewMatrix(ts.ElR.NumBasis(), neq)
			icRes  = utils.NewMatrix(ts.NumBasisTrace(), neq)
		)
		fes.DGMap.ExtractEl(ts.ElL.Index, neq, u, unkelL)
		fes.DGMap.ExtractEl(ts.ElR.Index, neq, u, unkelR)
		if err = c.InterfaceConservation(ts, unkelL, unkelR, icRes); err != nil {
			return nil, fmt.Errorf("trace %d: %w", ts.Index, err)
		}
		if icRes.FrobNorm() >= threshold {
			selected = append(selected, ts.Index)
		}
	}
	return
}
