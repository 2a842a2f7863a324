package fespace

import (
	"github.com/numflux/galerkin/mesh"
	"github.com/numflux/galerkin/utils"
)

// DGDofMap numbers the degrees of freedom of a broken space: every
// element owns an exclusive contiguous block of scalar dofs, one per
// basis function, so no two elements share an unknown. Vector components
// interleave fastest within a dof, then dofs, then elements.
type DGDofMap struct {
	Offsets []int // element i owns scalar dofs [Offsets[i], Offsets[i+1])
	maxDof  int
}

// NewDGDofMap lays out ndof[i] scalar dofs for element i in element
// order.
func NewDGDofMap(ndof []int) (m DGDofMap) {
	m.Offsets = make([]int, len(ndof)+1)
	for i, n := range ndof {
		m.Offsets[i+1] = m.Offsets[i] + n
		if n > m.maxDof {
			m.maxDof = n
		}
	}
	return
}

// Dof is the global scalar dof of local dof idof on element iel.
func (m DGDofMap) Dof(iel, idof int) int { return m.Offsets[iel] + idof }

// Index flattens (element, local dof, component) for a field with neq
// components.
func (m DGDofMap) Index(iel, idof, iv, neq int) int {
	return (m.Offsets[iel]+idof)*neq + iv
}

func (m DGDofMap) NDof() int          { return m.Offsets[len(m.Offsets)-1] }
func (m DGDofMap) NDofEl(iel int) int { return m.Offsets[iel+1] - m.Offsets[iel] }
func (m DGDofMap) NumElements() int   { return len(m.Offsets) - 1 }
func (m DGDofMap) MaxElDof() int      { return m.maxDof }

// SizeRequirement is the flat vector length of a field with neq
// components.
func (m DGDofMap) SizeRequirement(neq int) int { return m.NDof() * neq }

// MaxElSize is the largest per-element block length for neq components,
// the scratch a solver needs to hold any one element.
func (m DGDofMap) MaxElSize(neq int) int { return m.maxDof * neq }

// ExtractEl copies element iel's block of the flat vector u into the
// ndof x neq matrix el.
func (m DGDofMap) ExtractEl(iel, neq int, u []float64, el utils.Matrix) {
	var (
		start = m.Offsets[iel] * neq
		n     = m.NDofEl(iel) * neq
	)
	copy(el.DataP[:n], u[start:start+n])
}

// ScatterEl writes the ndof x neq matrix el into element iel's block of
// u, accumulating when add is set. Blocks of other elements are never
// touched.
func (m DGDofMap) ScatterEl(iel, neq int, el utils.Matrix, u []float64, add bool) {
	var (
		start = m.Offsets[iel] * neq
		n     = m.NDofEl(iel) * neq
	)
	if !add {
		copy(u[start:start+n], el.DataP[:n])
		return
	}
	for i := 0; i < n; i++ {
		u[start+i] += el.DataP[i]
	}
}

// CGDofMap numbers continuous degrees of freedom: the global dof of a
// local element dof is literally its mesh node index, so shared nodes
// share unknowns and isoparametric geometry and solution use one
// numbering. The zero value is an explicit empty map with no dofs.
type CGDofMap struct {
	Mesh *mesh.Mesh
}

// Dof is the global node index of local dof idof on element iel.
func (m CGDofMap) Dof(iel, idof int) int { return m.Mesh.Elements[iel].Nodes[idof] }

func (m CGDofMap) NDof() int {
	if m.Mesh == nil {
		return 0
	}
	return m.Mesh.NumNodes()
}

func (m CGDofMap) NDofEl(iel int) int {
	if m.Mesh == nil {
		return 0
	}
	return len(m.Mesh.Elements[iel].Nodes)
}

func (m CGDofMap) MaxElDof() (n int) {
	if m.Mesh == nil {
		return
	}
	for _, el := range m.Mesh.Elements {
		if len(el.Nodes) > n {
			n = len(el.Nodes)
		}
	}
	return
}

func (m CGDofMap) SizeRequirement(neq int) int { return m.NDof() * neq }
