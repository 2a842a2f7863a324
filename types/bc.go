package types

import (
	"fmt"
	"strings"
)

// BCType tags a geometric face with its boundary condition kind. INTERIOR
// marks faces between two real elements.
type BCType int

const (
	PERIODIC BCType = iota
	// PARALLEL_COM marks the boundary between processes in a
	// domain-decomposed run.
	PARALLEL_COM
	// NEUMANN prescribes the solution gradient; only the diffusive flux
	// keeps meaning at such a boundary. The flag indexes the list of
	// Neumann value callbacks.
	NEUMANN
	// DIRICHLET prescribes the solution value. The flag indexes the list
	// of Dirichlet value callbacks.
	DIRICHLET
	// EXTRAPOLATION uses the interior state as the exterior state.
	EXTRAPOLATION
	// RIEMANN resolves the exterior state from characteristics.
	RIEMANN
	NO_SLIP_ISOTHERMAL
	SLIP_WALL
	WALL_GENERAL
	INLET
	OUTLET
	// SPACETIME_PAST couples the bottom of a time slab to the top of the
	// preceding slab.
	SPACETIME_PAST
	// SPACETIME_FUTURE marks the top of a time slab; treated like
	// EXTRAPOLATION.
	SPACETIME_FUTURE
	INTERIOR
)

var (
	BCNames = map[string]BCType{
		"periodic":           PERIODIC,
		"neumann":            NEUMANN,
		"dirichlet":          DIRICHLET,
		"extrapolation":      EXTRAPOLATION,
		"riemann":            RIEMANN,
		"characteristic":     RIEMANN,
		"isothermal":         NO_SLIP_ISOTHERMAL,
		"no-slip isothermal": NO_SLIP_ISOTHERMAL,
		"slip wall":          SLIP_WALL,
		"wall":               WALL_GENERAL,
		"general wall":       WALL_GENERAL,
		"inlet":              INLET,
		"outlet":             OUTLET,
		"spacetime-past":     SPACETIME_PAST,
		"spacetime-future":   SPACETIME_FUTURE,
		"interior":           INTERIOR,
	}
	BCPrintNames = []string{
		"Periodic",
		"Parallel Communication",
		"Neumann",
		"Dirichlet",
		"Extrapolation",
		"Riemann (Characteristic)",
		"No Slip Isothermal",
		"Slip Wall",
		"General Wall",
		"Inlet",
		"Outlet",
		"Spacetime Past",
		"Spacetime Future",
		"Interior",
	}
)

func (bc BCType) Print() (txt string) {
	txt = BCPrintNames[bc]
	return
}

func NewBCType(label string) (bc BCType) {
	var (
		ok  bool
		err error
	)
	label = strings.ToLower(strings.TrimSpace(label))
	if bc, ok = BCNames[label]; !ok {
		err = fmt.Errorf("unable to use boundary condition named %s", label)
		panic(err)
	}
	return
}
