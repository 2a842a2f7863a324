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
	"os"
	"sync"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/numflux/galerkin/InputParameters"
	"github.com/numflux/galerkin/disc"
	"github.com/numflux/galerkin/fespace"
	"github.com/numflux/galerkin/mesh"
	"github.com/numflux/galerkin/model_problems/burgers"
	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

type ScalarModel struct {
	Params   *InputParameters.RunParameters
	Graph    bool
	Delay    time.Duration
	Profile  bool
	chart    *utils.LineChart
	plotOnce sync.Once
}

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Scalar conservation law solver on a generated mesh",
	Long: `
Integrates a scalar advection-diffusion-Burgers law with the Direct
Discontinuous Galerkin method and explicit SSP-RK time stepping,

galerkin run -i input.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
			sm  = &ScalarModel{Params: InputParameters.DefaultParameters()}
		)
		fmt.Println("run called")
		inputFile, _ := cmd.Flags().GetString("input")
		if len(inputFile) != 0 {
			var data []byte
			if data, err = os.ReadFile(inputFile); err != nil {
				panic(err)
			}
			if err = sm.Params.Parse(data); err != nil {
				panic(err)
			}
		}
		if cmd.Flags().Changed("k") {
			k, _ := cmd.Flags().GetInt("k")
			for i := range sm.Params.ElementCounts {
				sm.Params.ElementCounts[i] = k
			}
		}
		if cmd.Flags().Changed("n") {
			sm.Params.PolynomialOrder, _ = cmd.Flags().GetInt("n")
		}
		if cmd.Flags().Changed("CFL") {
			sm.Params.CFL, _ = cmd.Flags().GetFloat64("CFL")
		}
		if cmd.Flags().Changed("finalTime") {
			sm.Params.FinalTime, _ = cmd.Flags().GetFloat64("finalTime")
		}
		sm.Graph, _ = cmd.Flags().GetBool("graph")
		dr, _ := cmd.Flags().GetInt("delay")
		sm.Delay = time.Duration(dr) * time.Millisecond
		sm.Profile, _ = cmd.Flags().GetBool("profile")
		if err = sm.Params.Validate(); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			exampleFile := `
########################################
Title: "Viscous Burgers"
CFL: 0.3
FinalTime: 1.
PolynomialOrder: 3
Dim: 1
ElementCounts: [40]
XMin: [0.]
XMax: [1.]
Advection: [1.]
Burgers: [0.]
Viscosity: 0.01
InitType: sine # Can be "gauss" or "constant"
InitValue: 1.
BCs:
  x-: {Type: dirichlet, Flag: 0, Value: 0.}
  x+: {Type: extrapolation}
########################################
`
			fmt.Printf("Example File:%s\n", exampleFile)
			os.Exit(1)
		}
		RunScalar(sm)
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("input", "i", "", "YAML run parameters file")
	RunCmd.Flags().IntP("k", "k", 0, "number of elements per axis, overrides the input file")
	RunCmd.Flags().IntP("n", "n", 0, "polynomial degree, overrides the input file")
	RunCmd.Flags().Float64("CFL", 0, "CFL - increase for speedup, decrease for stability")
	RunCmd.Flags().Float64("finalTime", 0, "FinalTime - the target end time for the sim")
	RunCmd.Flags().BoolP("graph", "g", false, "display a graph while computing solution (1D only)")
	RunCmd.Flags().IntP("delay", "d", 0, "milliseconds of delay for plotting")
	RunCmd.Flags().Bool("profile", false, "write a CPU profile of the run")
}

func RunScalar(sm *ScalarModel) {
	var (
		rp           = sm.Params
		logFrequency = 50
	)
	rp.Print()
	if sm.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}
	bcs, err := rp.MeshBCs()
	if err != nil {
		panic(err)
	}
	msh, err := mesh.NewUniformMesh(rp.Dim, rp.ElementCounts, rp.XMin, rp.XMax, rp.GeometricOrder, bcs)
	if err != nil {
		panic(err)
	}
	fes, err := fespace.NewFESpace(msh, types.LAGRANGE, types.GAUSS_LEGENDRE, rp.PolynomialOrder)
	if err != nil {
		panic(err)
	}
	c, err := buildEngine(rp)
	if err != nil {
		panic(err)
	}

	u := make([]float64, fes.DGMap.SizeRequirement(1))
	if err = disc.ProjectFunction(fes, 1, initialProfile(rp), u); err != nil {
		panic(err)
	}
	umin, umax := bounds(u)
	fmt.Printf("Umin, Umax = %8.5f, %8.5f\n", umin, umax)

	// the mesh never moves during the run, so factor each element's
	// mass matrix once
	solvers := make([]disc.ElementSolver, len(fes.Elements))
	for i, el := range fes.Elements {
		solvers[i] = disc.NewElementSolver(el)
	}

	hmin := math.Inf(1)
	for d := 0; d < rp.Dim; d++ {
		h := (rp.XMax[d] - rp.XMin[d]) / float64(rp.ElementCounts[d])
		hmin = math.Min(hmin, h)
	}
	dt := c.DtFromCFL(rp.CFL, hmin)
	if dt <= 0 {
		panic("the flux gives no timestep bound for these coefficients")
	}
	Ns := math.Ceil(rp.FinalTime / dt)
	dt = rp.FinalTime / Ns
	Nsteps := int(Ns)
	if rp.MaxSteps > 0 && Nsteps > rp.MaxSteps {
		Nsteps = rp.MaxSteps
	}
	fmt.Printf("dt = %8.6f, Nsteps = %d\n", dt, Nsteps)

	var (
		n     = len(u)
		res   = make([]float64, n)
		rhs   = make([]float64, n)
		resid = make([]float64, n)
		Time  float64
	)
	plotInterval := rp.PlotInterval
	if plotInterval < 1 {
		plotInterval = 1
	}
	for tstep := 0; tstep < Nsteps; tstep++ {
		if tstep%plotInterval == 0 {
			sm.plotSolution(fes, u)
		}
		for INTRK := 0; INTRK < 5; INTRK++ {
			if err = stepRHS(c, fes, solvers, u, res, rhs); err != nil {
				panic(err)
			}
			// resid = rk4a(INTRK) * resid + dt * rhsu;
			// u += rk4b(INTRK) * resid;
			for i := range resid {
				resid[i] = utils.RK4a[INTRK]*resid[i] + dt*rhs[i]
				u[i] += utils.RK4b[INTRK] * resid[i]
			}
		}
		Time += dt
		if tstep%logFrequency == 0 {
			utils.IsNanPanic(u)
			umin, umax = bounds(u)
			fmt.Printf("Time = %8.4f, max_resid[%d] = %8.4f, umin = %8.4f, umax = %8.4f\n",
				Time, tstep, maxAbs(resid), umin, umax)
		}
	}
	umin, umax = bounds(u)
	fmt.Printf("Final Time = %8.4f, umin = %8.4f, umax = %8.4f\n", Time, umin, umax)
	if sm.Profile {
		fmt.Println(utils.GetMemUsage())
	}
	if !c.Anomalies.Empty() {
		fmt.Printf("anomalies during the run:\n%s", c.Anomalies.String())
	}
}

// buildEngine wires the scalar physics into the discretization with
// the input file's boundary values.
func buildEngine(rp *InputParameters.RunParameters) (c *disc.ConservationLawDDG, err error) {
	bg := burgers.New(rp.Advection, rp.Burgers, rp.Viscosity)
	c = disc.NewConservationLawDDG(bg, burgers.UpwindFlux{Burgers: bg}, burgers.ViscousFlux{Burgers: bg})
	c.SigmaIC = rp.SigmaIC
	c.InteriorPenalty = rp.InteriorPenalty
	dvals, err := rp.FlagValues(types.DIRICHLET)
	if err != nil {
		return
	}
	for _, v := range dvals {
		v := v
		c.DirichletCallbacks = append(c.DirichletCallbacks,
			func(x, out []float64) { out[0] = v })
	}
	nvals, err := rp.FlagValues(types.NEUMANN)
	if err != nil {
		return
	}
	for _, v := range nvals {
		v := v
		c.NeumannCallbacks = append(c.NeumannCallbacks,
			func(x, out []float64) { out[0] = v })
	}
	return
}

// stepRHS evaluates the semidiscrete right-hand side du/dt = M^-1 R(u).
func stepRHS(c *disc.ConservationLawDDG, fes *fespace.FESpace,
	solvers []disc.ElementSolver, u, res, rhs []float64) (err error) {
	if err = c.AssembleResidual(fes, u, res); err != nil {
		return
	}
	for _, el := range fes.Elements {
		var (
			resEl = utils.NewMatrix(el.NumBasis(), 1)
			uEl   = utils.NewMatrix(el.NumBasis(), 1)
		)
		fes.DGMap.ExtractEl(el.Index, 1, res, resEl)
		if err = solvers[el.Index].Solve(resEl, uEl); err != nil {
			return
		}
		fes.DGMap.ScatterEl(el.Index, 1, uEl, rhs, false)
	}
	return
}

// initialProfile builds the initial condition selected by the input
// file: a product of axis sines, a centered gaussian bump, or a
// constant.
func initialProfile(rp *InputParameters.RunParameters) disc.SourceFunc {
	switch rp.InitType {
	case "sine":
		return func(x, out []float64) {
			out[0] = rp.InitValue
			for d := range x {
				out[0] *= math.Sin(2 * math.Pi * (x[d] - rp.XMin[d]) / (rp.XMax[d] - rp.XMin[d]))
			}
		}
	case "gauss":
		return func(x, out []float64) {
			var r2 float64
			for d := range x {
				span := rp.XMax[d] - rp.XMin[d]
				dx := (x[d] - 0.5*(rp.XMin[d]+rp.XMax[d])) / (0.1 * span)
				r2 += dx * dx
			}
			out[0] = rp.InitValue * math.Exp(-0.5*r2)
		}
	default:
		return func(x, out []float64) { out[0] = rp.InitValue }
	}
}

// plotSolution samples the solution at the basis nodes of every
// element and streams the profile to the chart. Only 1D runs plot.
func (sm *ScalarModel) plotSolution(fes *fespace.FESpace, u []float64) {
	if !sm.Graph || fes.Mesh.Dim != 1 {
		return
	}
	var (
		X, Y  []float64
		unkel = utils.NewMatrix(fes.Elements[0].NumBasis(), 1)
	)
	for _, el := range fes.Elements {
		fes.DGMap.ExtractEl(el.Index, 1, u, unkel)
		refNodes := el.Ref.Basis.RefNodes()
		for i := 0; i < el.NumBasis(); i++ {
			X = append(X, el.Transform(refNodes.RowView(i))[0])
			Y = append(Y, unkel.DataP[i])
		}
	}
	sm.plotOnce.Do(func() {
		var (
			xmin, xmax = sm.Params.XMin[0], sm.Params.XMax[0]
			umin, umax = bounds(u)
			span       = math.Max(umax-umin, 1.e-3)
		)
		sm.chart = utils.NewLineChart(1280, 1024, xmin, xmax,
			umin-0.2*span, umax+0.2*span)
	})
	sm.chart.Plot(sm.Delay, X, Y, 0, "U")
}

func bounds(v []float64) (vmin, vmax float64) {
	vmin, vmax = math.Inf(1), math.Inf(-1)
	for _, x := range v {
		vmin = math.Min(vmin, x)
		vmax = math.Max(vmax, x)
	}
	return
}

func maxAbs(v []float64) (m float64) {
	for _, x := range v {
		m = math.Max(m, math.Abs(x))
	}
	return
}
