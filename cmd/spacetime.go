/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/numflux/galerkin/disc"
	"github.com/numflux/galerkin/fespace"
	"github.com/numflux/galerkin/mesh"
	"github.com/numflux/galerkin/model_problems/burgers"
	"github.com/numflux/galerkin/types"
)

// SpacetimeCmd represents the spacetime command
var SpacetimeCmd = &cobra.Command{
	Use:   "spacetime",
	Short: "Spacetime slab solver for one dimensional conservation laws",
	Long: `
Treats time as a second mesh dimension and solves one slab of spacetime
at a time: the top of each converged slab feeds the bottom of the next
through the past/future boundary coupling,

galerkin spacetime --slabs 4`,
	Run: func(cmd *cobra.Command, args []string) {
		stm := &SpacetimeModel{}
		fmt.Println("spacetime called")
		stm.K, _ = cmd.Flags().GetInt("k")
		stm.Kt, _ = cmd.Flags().GetInt("kt")
		stm.N, _ = cmd.Flags().GetInt("n")
		stm.Slabs, _ = cmd.Flags().GetInt("slabs")
		stm.KMax, _ = cmd.Flags().GetInt("kmax")
		stm.FinalTime, _ = cmd.Flags().GetFloat64("finalTime")
		stm.XMax, _ = cmd.Flags().GetFloat64("xMax")
		stm.A, _ = cmd.Flags().GetFloat64("advection")
		stm.B, _ = cmd.Flags().GetFloat64("burgers")
		stm.Mu, _ = cmd.Flags().GetFloat64("mu")
		RunSpacetimeSlabs(stm)
	},
}

func init() {
	rootCmd.AddCommand(SpacetimeCmd)
	SpacetimeCmd.Flags().IntP("k", "k", 24, "Number of elements along the spatial axis")
	SpacetimeCmd.Flags().Int("kt", 4, "Number of elements along the time axis of each slab")
	SpacetimeCmd.Flags().IntP("n", "n", 2, "polynomial degree")
	SpacetimeCmd.Flags().Int("slabs", 4, "Number of spacetime slabs marched to reach finalTime")
	SpacetimeCmd.Flags().Int("kmax", 8, "Maximum solver iterations per slab")
	SpacetimeCmd.Flags().Float64("finalTime", 1.0, "FinalTime - the target end time for the sim")
	SpacetimeCmd.Flags().Float64("xMax", 1.0, "Maximum X coordinate")
	SpacetimeCmd.Flags().Float64P("advection", "a", 1.0, "linear advection speed")
	SpacetimeCmd.Flags().Float64P("burgers", "b", 0.0, "burgers (quadratic) flux coefficient")
	SpacetimeCmd.Flags().Float64("mu", 0.01, "viscosity")
}

type SpacetimeModel struct {
	K, Kt, N    int // Elements in space / time per slab, polynomial degree
	Slabs, KMax int
	FinalTime   float64
	XMax, A, B  float64
	Mu          float64
}

// RunSpacetimeSlabs marches slabs of spacetime in sequence. Each slab is
// a 2D mesh whose second axis is time: the first slab takes the initial
// profile on its bottom boundary, later slabs read their bottom state
// from the converged slab below.
func RunSpacetimeSlabs(stm *SpacetimeModel) {
	var (
		bg = burgers.NewSpacetime([]float64{stm.A}, []float64{stm.B}, stm.Mu)
		c  = disc.NewConservationLawDDG(bg, burgers.UpwindFlux{Burgers: bg}, burgers.ViscousFlux{Burgers: bg})
	)
	c.DirichletCallbacks = []disc.BoundaryCallback{
		func(x, out []float64) { out[0] = pulse(x[0], stm.XMax) },
	}
	var (
		slabDt  = stm.FinalTime / float64(stm.Slabs)
		fesPrev *fespace.FESpace
		uPrev   []float64
	)
	for islab := 0; islab < stm.Slabs; islab++ {
		var (
			t0     = float64(islab) * slabDt
			t1     = t0 + slabDt
			bottom = mesh.BC{Type: types.SPACETIME_PAST}
		)
		if islab == 0 {
			bottom = mesh.BC{Type: types.DIRICHLET, Flag: 0}
		}
		bcs := []mesh.BC{
			{Type: types.DIRICHLET, Flag: 0}, // x-
			bottom,                           // t-
			{Type: types.EXTRAPOLATION},      // x+
			{Type: types.SPACETIME_FUTURE},   // t+
		}
		msh, err := mesh.NewUniformMesh(2, []int{stm.K, stm.Kt},
			[]float64{0, t0}, []float64{stm.XMax, t1}, 1, bcs)
		if err != nil {
			panic(err)
		}
		fes, err := fespace.NewFESpace(msh, types.LAGRANGE, types.GAUSS_LEGENDRE, stm.N)
		if err != nil {
			panic(err)
		}
		u := make([]float64, fes.DGMap.SizeRequirement(1))
		if islab == 0 {
			err = disc.ProjectFunction(fes, 1,
				func(x, out []float64) { out[0] = pulse(x[0], stm.XMax) }, u)
			if err != nil {
				panic(err)
			}
			c.Spacetime = nil
		} else {
			// identical element layout slab to slab, so the last
			// solution is the warm start
			copy(u, uPrev)
			conn, err := disc.ComputeSTNodeConnectivity(fesPrev.Mesh, msh)
			if err != nil {
				panic(err)
			}
			st, err := disc.NewSpacetimeInfo(fesPrev, fes, uPrev, conn)
			if err != nil {
				panic(err)
			}
			c.Spacetime = st
		}
		solver := disc.NewLMSolver(c)
		solver.Criteria.KMax = stm.KMax
		solver.Criteria.TauAbs = 1.e-10
		solver.IVis = 1
		fmt.Printf("slab %d covering t = [%6.4f, %6.4f]\n", islab, t0, t1)
		if _, err = solver.Solve(fes, u); err != nil {
			panic(err)
		}
		fesPrev, uPrev = fes, u
	}
	umin, umax := bounds(uPrev)
	fmt.Printf("Final Time = %8.4f, umin = %8.4f, umax = %8.4f\n", stm.FinalTime, umin, umax)
	if !c.Anomalies.Empty() {
		fmt.Printf("anomalies during the run:\n%s", c.Anomalies.String())
	}
}

// pulse is the inflow/initial profile, a gaussian bump that clears the
// boundaries to round-off.
func pulse(x, xmax float64) float64 {
	s := (x - 0.25*xmax) / (0.1 * xmax)
	return math.Exp(-s * s)
}
