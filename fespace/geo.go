package fespace

import (
	"fmt"
	"math"
	"sort"

	"github.com/numflux/galerkin/types"
)

// NodesetDofMap selects the movable mesh nodes touched by a set of
// traces, dropping nodes on the domain boundary. It is the node
// numbering behind interface-tracking schemes that move only interior
// nodes.
type NodesetDofMap struct {
	SelectedTraces []int
	// SelectedNodes lists the chosen global nodes in ascending order;
	// InvSelectedNodes maps a global node to its position in it, with
	// len(SelectedNodes) as the not-selected sentinel.
	SelectedNodes    []int
	InvSelectedNodes []int
}

// NewNodesetDofMap gathers the face nodes of the given traces and keeps
// the ones not flagged as boundary nodes.
func NewNodesetDofMap(traces []int, fes *FESpace) (m NodesetDofMap) {
	var (
		isBdy = fes.Mesh.FlagBoundaryNodes()
		seen  = make(map[int]bool)
	)
	m.SelectedTraces = append([]int{}, traces...)
	for _, itr := range m.SelectedTraces {
		for _, n := range fes.Traces[itr].FaceNodes {
			if !isBdy[n] && !seen[n] {
				seen[n] = true
				m.SelectedNodes = append(m.SelectedNodes, n)
			}
		}
	}
	sort.Ints(m.SelectedNodes)
	m.InvSelectedNodes = invertSelection(m.SelectedNodes, fes.Mesh.NumNodes())
	return
}

func (m NodesetDofMap) NDof() int { return len(m.SelectedNodes) }

// Selected reports whether global node inode is part of the selection.
func (m NodesetDofMap) Selected(inode int) bool {
	return m.InvSelectedNodes[inode] != len(m.SelectedNodes)
}

// invertSelection builds the global-node to selected-index map with
// len(selected) as the sentinel for unselected nodes.
func invertSelection(selected []int, nnodes int) (inv []int) {
	inv = make([]int, nnodes)
	for i := range inv {
		inv[i] = len(selected)
	}
	for i, n := range selected {
		inv[n] = i
	}
	return
}

// Constraint restricts how one geometry dof may move: axes with Fixed
// set are pinned at the matching Values entry, the rest stay free
// design variables.
type Constraint struct {
	Fixed  []bool
	Values []float64
}

// FixedConstraint pins a node at coordinates x.
func FixedConstraint(x []float64) (c Constraint) {
	c.Fixed = make([]bool, len(x))
	for d := range c.Fixed {
		c.Fixed[d] = true
	}
	c.Values = append([]float64{}, x...)
	return
}

// SlideConstraint pins coordinate axis at value and leaves the other
// axes free, letting the node slide within the plane.
func SlideConstraint(ndim, axis int, value float64) (c Constraint) {
	c.Fixed = make([]bool, ndim)
	c.Values = make([]float64, ndim)
	c.Fixed[axis] = true
	c.Values[axis] = value
	return
}

// NumFree counts the unconstrained axes.
func (c Constraint) NumFree() (nv int) {
	for _, f := range c.Fixed {
		if !f {
			nv++
		}
	}
	return
}

// GeoDofMap numbers the geometric design variables of a mesh
// deformation problem. Built from a set of traces, it selects every
// node their faces touch, ascending; per-node parametric constraints
// registered before Finalize reduce the free variables of a dof below
// one per coordinate. After Finalize the flat free-variable vector has
// a fixed layout and constraints can no longer change.
type GeoDofMap struct {
	Fes *FESpace

	SelectedTraces   []int
	SelectedNodes    []int
	InvSelectedNodes []int

	Constraints map[int]Constraint // keyed by global node index

	offsets   []int
	finalized bool
}

func NewGeoDofMap(traces []int, fes *FESpace) (g *GeoDofMap) {
	var (
		seen = make(map[int]bool)
	)
	g = &GeoDofMap{
		Fes:         fes,
		Constraints: make(map[int]Constraint),
	}
	g.SelectedTraces = append([]int{}, traces...)
	for _, itr := range g.SelectedTraces {
		for _, n := range fes.Traces[itr].FaceNodes {
			if !seen[n] {
				seen[n] = true
				g.SelectedNodes = append(g.SelectedNodes, n)
			}
		}
	}
	sort.Ints(g.SelectedNodes)
	g.InvSelectedNodes = invertSelection(g.SelectedNodes, fes.Mesh.NumNodes())
	return
}

func (g *GeoDofMap) NDof() int { return len(g.SelectedNodes) }

// Selected reports whether global node inode is a geometry dof.
func (g *GeoDofMap) Selected(inode int) bool {
	return g.InvSelectedNodes[inode] != len(g.SelectedNodes)
}

// RegisterParametricNode attaches a constraint to global node inode.
// Nodes outside the selection are ignored, so callers may sweep whole
// boundary faces without checking membership. Registration after
// Finalize is an error.
func (g *GeoDofMap) RegisterParametricNode(inode int, c Constraint) (err error) {
	if g.finalized {
		err = fmt.Errorf("geometry dof map already finalized")
		return
	}
	if !g.Selected(inode) {
		return
	}
	if len(c.Fixed) != g.Fes.Mesh.Dim || len(c.Values) != g.Fes.Mesh.Dim {
		err = fmt.Errorf("constraint for node %d has %d axes, mesh has %d",
			inode, len(c.Fixed), g.Fes.Mesh.Dim)
		return
	}
	g.Constraints[inode] = c
	return
}

// Finalize freezes the constraint set and lays out the flat
// free-variable vector: dof i owns entries [offset(i), offset(i)+NV(i)).
func (g *GeoDofMap) Finalize() {
	g.offsets = make([]int, len(g.SelectedNodes)+1)
	for i, n := range g.SelectedNodes {
		nv := g.Fes.Mesh.Dim
		if c, ok := g.Constraints[n]; ok {
			nv = c.NumFree()
		}
		g.offsets[i+1] = g.offsets[i] + nv
	}
	g.finalized = true
}

func (g *GeoDofMap) Finalized() bool { return g.finalized }

// NV is the free-variable count of geometry dof igdof.
func (g *GeoDofMap) NV(igdof int) int {
	return g.offsets[igdof+1] - g.offsets[igdof]
}

// FreeOffset is the start of dof igdof's block in the free-variable
// vector.
func (g *GeoDofMap) FreeOffset(igdof int) int { return g.offsets[igdof] }

// NumFree is the total length of the free-variable vector.
func (g *GeoDofMap) NumFree() int { return g.offsets[len(g.offsets)-1] }

// ExtractFreeCoords reads the current coordinates of the free axes of
// every geometry dof into x, which must have length NumFree.
func (g *GeoDofMap) ExtractFreeCoords(x []float64) {
	var (
		coords = g.Fes.Mesh.Coords
		k      = 0
	)
	for _, n := range g.SelectedNodes {
		var (
			row     = coords.RowView(n)
			c, conz = g.Constraints[n]
		)
		for d := range row {
			if conz && c.Fixed[d] {
				continue
			}
			x[k] = row[d]
			k++
		}
	}
}

// ApplyFreeCoords writes the free-variable vector x back into the mesh
// node coordinates, restoring pinned axes to their constraint values.
func (g *GeoDofMap) ApplyFreeCoords(x []float64) {
	var (
		coords = g.Fes.Mesh.Coords
		k      = 0
	)
	for _, n := range g.SelectedNodes {
		var (
			row     = coords.RowView(n)
			c, conz = g.Constraints[n]
		)
		for d := range row {
			if conz && c.Fixed[d] {
				row[d] = c.Values[d]
				continue
			}
			row[d] = x[k]
			k++
		}
	}
}

// HyperRectangleBounds registers sliding constraints for the selected
// nodes on the boundary of the box [xmin, xmax]: each bounding plane
// pins its normal coordinate, so face nodes slide in-plane and corner
// nodes end up fully pinned.
func (g *GeoDofMap) HyperRectangleBounds(xmin, xmax []float64) (err error) {
	for _, n := range g.SelectedNodes {
		var (
			x   = g.Fes.Mesh.Coords.RowView(n)
			c   = Constraint{Fixed: make([]bool, len(x)), Values: append([]float64{}, x...)}
			any bool
		)
		for d := range x {
			tol := 1.e-10 * (xmax[d] - xmin[d])
			if math.Abs(x[d]-xmin[d]) <= tol || math.Abs(x[d]-xmax[d]) <= tol {
				c.Fixed[d] = true
				any = true
			}
		}
		if !any {
			continue
		}
		if err = g.RegisterParametricNode(n, c); err != nil {
			return
		}
	}
	return
}

// FixDirichletNodes pins every selected node lying on a Dirichlet
// boundary face at its current coordinates, so strongly imposed
// boundary data never moves.
func (g *GeoDofMap) FixDirichletNodes() (err error) {
	for _, ts := range g.Fes.BoundaryTraces() {
		if ts.BCType != types.DIRICHLET {
			continue
		}
		for _, n := range ts.FaceNodes {
			if !g.Selected(n) {
				continue
			}
			if err = g.RegisterParametricNode(n, FixedConstraint(g.Fes.Mesh.Coords.RowView(n))); err != nil {
				return
			}
		}
	}
	return
}
