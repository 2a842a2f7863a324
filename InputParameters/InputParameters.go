package InputParameters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/numflux/galerkin/mesh"
	"github.com/numflux/galerkin/types"
)

// Parameters obtained from the YAML input file
type RunParameters struct {
	Title           string  `yaml:"Title"`
	CFL             float64 `yaml:"CFL"`
	FinalTime       float64 `yaml:"FinalTime"`
	PolynomialOrder int     `yaml:"PolynomialOrder"`
	GeometricOrder  int     `yaml:"GeometricOrder"`
	Dim             int     `yaml:"Dim"`
	// ElementCounts, XMin and XMax size the generated mesh, one entry
	// per axis.
	ElementCounts []int     `yaml:"ElementCounts"`
	XMin          []float64 `yaml:"XMin"`
	XMax          []float64 `yaml:"XMax"`
	// Advection, Burgers and Viscosity are the scalar law's coefficient
	// fields, one advection entry per axis.
	Advection []float64 `yaml:"Advection"`
	Burgers   []float64 `yaml:"Burgers"`
	Viscosity float64   `yaml:"Viscosity"`
	// SigmaIC weights the interface correction term; InteriorPenalty
	// switches the single-valued gradient form.
	SigmaIC         float64 `yaml:"SigmaIC"`
	InteriorPenalty bool    `yaml:"InteriorPenalty"`
	// InitType selects the initial profile: "sine", "gauss" or
	// "constant", scaled by InitValue.
	InitType  string  `yaml:"InitType"`
	InitValue float64 `yaml:"InitValue"`
	// BCs maps a side key ("x-", "x+", "y-", "y+", "z-", "z+") to its
	// condition; sides without an entry extrapolate.
	BCs map[string]BCParameters `yaml:"BCs"`
	// MaxSteps caps the step count when positive; PlotInterval is the
	// number of steps between plot frames.
	MaxSteps     int `yaml:"MaxSteps"`
	PlotInterval int `yaml:"PlotInterval"`
}

// BCParameters is one side's boundary condition: the kind by name, the
// flag selecting a callback slot, and the prescribed value Dirichlet
// and Neumann conditions pass through that slot.
type BCParameters struct {
	Type  string  `yaml:"Type"`
	Flag  int     `yaml:"Flag"`
	Value float64 `yaml:"Value"`
}

// DefaultParameters is a ready-to-run 1D viscous Burgers setup,
// overridden field by field from the YAML input.
func DefaultParameters() *RunParameters {
	return &RunParameters{
		Title:           "burgers",
		CFL:             0.3,
		FinalTime:       1,
		PolynomialOrder: 3,
		GeometricOrder:  1,
		Dim:             1,
		ElementCounts:   []int{40},
		XMin:            []float64{0},
		XMax:            []float64{1},
		Advection:       []float64{1},
		Burgers:         []float64{0},
		Viscosity:       0.01,
		InitType:        "sine",
		InitValue:       1,
		PlotInterval:    5,
	}
}

func (rp *RunParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, rp)
}

// Validate rejects inconsistent inputs up front so the run fails
// before any allocation.
func (rp *RunParameters) Validate() (err error) {
	if rp.Dim < 1 || rp.Dim > 3 {
		return fmt.Errorf("dimension %d outside 1..3", rp.Dim)
	}
	lengths := []struct {
		name string
		n    int
	}{
		{"ElementCounts", len(rp.ElementCounts)},
		{"XMin", len(rp.XMin)},
		{"XMax", len(rp.XMax)},
		{"Advection", len(rp.Advection)},
		{"Burgers", len(rp.Burgers)},
	}
	for _, f := range lengths {
		if f.n != rp.Dim {
			return fmt.Errorf("%s needs %d entries, has %d", f.name, rp.Dim, f.n)
		}
	}
	if rp.CFL <= 0 {
		return fmt.Errorf("CFL must be positive, have %g", rp.CFL)
	}
	if rp.PolynomialOrder < 0 {
		return fmt.Errorf("polynomial order must be non-negative, have %d", rp.PolynomialOrder)
	}
	if rp.GeometricOrder < 1 {
		return fmt.Errorf("geometric order must be at least 1, have %d", rp.GeometricOrder)
	}
	switch rp.InitType {
	case "sine", "gauss", "constant":
	default:
		return fmt.Errorf("unknown initial profile %q", rp.InitType)
	}
	for key, bc := range rp.BCs {
		if _, err = sideIndex(key, rp.Dim); err != nil {
			return
		}
		if _, ok := types.BCNames[strings.ToLower(strings.TrimSpace(bc.Type))]; !ok {
			return fmt.Errorf("side %s: unknown boundary condition %q", key, bc.Type)
		}
	}
	return
}

// sideIndex places a side key in the mesh builder's tag order:
// negative sides by axis, then positive sides by axis.
func sideIndex(key string, ndim int) (idx int, err error) {
	if len(key) != 2 {
		err = fmt.Errorf("boundary side key %q is not of the form x-/x+/y-/y+/z-/z+", key)
		return
	}
	axis := int(key[0] - 'x')
	if axis < 0 || axis >= ndim {
		err = fmt.Errorf("boundary side %q names an axis outside the %d-dimensional mesh", key, ndim)
		return
	}
	switch key[1] {
	case '-':
		idx = axis
	case '+':
		idx = ndim + axis
	default:
		err = fmt.Errorf("boundary side key %q is not of the form x-/x+/y-/y+/z-/z+", key)
	}
	return
}

// MeshBCs converts the side table into the mesh builder's tag array.
// Unnamed sides extrapolate.
func (rp *RunParameters) MeshBCs() (bcs []mesh.BC, err error) {
	bcs = make([]mesh.BC, 2*rp.Dim)
	for i := range bcs {
		bcs[i] = mesh.BC{Type: types.EXTRAPOLATION}
	}
	for key, bc := range rp.BCs {
		var idx int
		if idx, err = sideIndex(key, rp.Dim); err != nil {
			return
		}
		kind, ok := types.BCNames[strings.ToLower(strings.TrimSpace(bc.Type))]
		if !ok {
			err = fmt.Errorf("side %s: unknown boundary condition %q", key, bc.Type)
			return
		}
		bcs[idx] = mesh.BC{Type: kind, Flag: bc.Flag}
	}
	return
}

// FlagValues collects the prescribed values of every side using kind,
// densely indexed by flag for the engine's callback tables.
func (rp *RunParameters) FlagValues(kind types.BCType) (vals []float64, err error) {
	for key, bc := range rp.BCs {
		k, ok := types.BCNames[strings.ToLower(strings.TrimSpace(bc.Type))]
		if !ok || k != kind {
			continue
		}
		if bc.Flag < 0 {
			err = fmt.Errorf("side %s: negative boundary flag %d", key, bc.Flag)
			return
		}
		for len(vals) <= bc.Flag {
			vals = append(vals, 0)
		}
		vals[bc.Flag] = bc.Value
	}
	return
}

func (rp *RunParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", rp.Title)
	fmt.Printf("%8.5f\t\t= CFL\n", rp.CFL)
	fmt.Printf("%8.5f\t\t= FinalTime\n", rp.FinalTime)
	fmt.Printf("[%d]\t\t\t\t= Polynomial Order\n", rp.PolynomialOrder)
	fmt.Printf("[%d]\t\t\t\t= Geometric Order\n", rp.GeometricOrder)
	fmt.Printf("%v\t\t\t= Elements\n", rp.ElementCounts)
	fmt.Printf("%v -> %v\t= Domain\n", rp.XMin, rp.XMax)
	fmt.Printf("a=%v b=%v mu=%g\t= Coefficients\n", rp.Advection, rp.Burgers, rp.Viscosity)
	fmt.Printf("[%s]\t\t\t= InitType\n", rp.InitType)
	keys := make([]string, 0, len(rp.BCs))
	for k := range rp.BCs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %v\n", key, rp.BCs[key])
	}
}
