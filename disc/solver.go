package disc

import (
	"fmt"
	"math"

	"github.com/numflux/galerkin/fespace"
	"github.com/numflux/galerkin/utils"
)

// ConvergenceCriteria decides when a nonlinear solve is finished. R0 is
// captured from the first residual evaluation so TauRel measures decay
// relative to the starting point.
type ConvergenceCriteria struct {
	TauAbs float64
	TauRel float64
	KMax   int
	R0     float64
}

func DefaultConvergenceCriteria() ConvergenceCriteria {
	return ConvergenceCriteria{TauAbs: machEps, TauRel: 0, KMax: 5}
}

func (cc *ConvergenceCriteria) Done(rk float64) bool {
	return rk < cc.TauAbs+cc.TauRel*cc.R0
}

// LMSolver drives the steady residual R(u) = 0 with a regularized
// Gauss-Newton iteration after Ching et al. 2024. Each step solves the
// normal equations (J^T J + diag(lambda)) du = J^T r and steps along
// -du. The diagonal regularization scales with the column norms of J
// (More 1977), which keeps the subproblem well posed where the Jacobian
// loses rank.
type LMSolver struct {
	Engine   *ConservationLawDDG
	Criteria ConvergenceCriteria

	// LambdaU scales the column-norm regularization of the unknowns.
	LambdaU float64

	// IVis > 0 prints the residual norm every IVis iterations.
	IVis int
}

func NewLMSolver(c *ConservationLawDDG) *LMSolver {
	return &LMSolver{
		Engine:   c,
		Criteria: DefaultConvergenceCriteria(),
		LambdaU:  1.e-7,
	}
}

// Solve iterates u in place until the criteria pass or KMax steps have
// run, returning the number of steps taken.
func (s *LMSolver) Solve(fes *fespace.FESpace, u []float64) (iters int, err error) {
	var (
		res = make([]float64, len(u))
		du  utils.Matrix
		J   utils.CSR
	)
	for iters = 0; iters < s.Criteria.KMax; iters++ {
		if err = s.Engine.AssembleResidual(fes, u, res); err != nil {
			return
		}
		rk := normL2(res)
		if iters == 0 {
			s.Criteria.R0 = rk
		}
		if s.IVis > 0 && iters%s.IVis == 0 {
			fmt.Printf("itime: %6d | residual l2: %16.8f\n", iters, rk)
		}
		if s.Criteria.Done(rk) {
			return
		}
		if J, err = s.Engine.AssembleJacobian(fes, u); err != nil {
			return
		}
		if du, err = s.subproblem(J, res); err != nil {
			return
		}
		for i := range u {
			u[i] -= du.DataP[i]
		}
	}
	return
}

// subproblem forms and factors the dense regularized normal equations.
// The systems this solver sees stay small enough that a dense solve
// beats setting up an iterative method.
func (s *LMSolver) subproblem(J utils.CSR, res []float64) (du utils.Matrix, err error) {
	var (
		nr, nc = J.Dims()
		jd     = J.ToDense()
		r      = utils.NewMatrix(nr, 1)
	)
	copy(r.DataP, res)
	jt := jd.Transpose()
	normal := jt.Mul(jd)
	for j := 0; j < nc; j++ {
		var cn float64
		for i := 0; i < nr; i++ {
			v := jd.DataP[i*nc+j]
			cn += v * v
		}
		normal.DataP[j*nc+j] += s.LambdaU * math.Sqrt(cn)
	}
	return normal.LUSolve(jt.Mul(r))
}

func normL2(v []float64) (n float64) {
	for _, x := range v {
		n += x * x
	}
	return math.Sqrt(n)
}
