// Package fespace assembles the finite element space over a mesh: one
// FiniteElement view per mesh element, one TraceSpace per mesh face,
// reference tables shared through a per-type cache, plus the dof maps
// and adjacency tables solvers index the space through.
package fespace

import (
	"fmt"

	"github.com/numflux/galerkin/element"
	"github.com/numflux/galerkin/mesh"
	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

// SpaceType distinguishes the broken L2 space of DG methods from the
// node-continuous isoparametric H1 space.
type SpaceType uint8

const (
	L2 SpaceType = iota
	ISOPARAMETRIC_H1
)

var (
	SpaceNames = map[string]SpaceType{
		"l2":               L2,
		"isoparametric-h1": ISOPARAMETRIC_H1,
	}
	SpacePrintNames = []string{"L2", "Isoparametric-H1"}
)

func (st SpaceType) Print() (txt string) {
	txt = SpacePrintNames[st]
	return
}

// FESpace is the discretization of a mesh: elements and traces in mesh
// order, the interior/boundary trace ranges copied from the mesh, the
// DG and CG dof maps, and the connectivity tables. Elements and traces
// alias the mesh node storage, so moving nodes is immediately visible
// through every view.
type FESpace struct {
	Mesh  *mesh.Mesh
	Type  SpaceType
	Cache *element.Cache
	Comm  utils.Comm

	Elements []*element.FiniteElement
	Traces   []*element.TraceSpace

	InteriorTraceStart, InteriorTraceEnd int
	BdyTraceStart, BdyTraceEnd           int

	DGMap DGDofMap
	CGMap CGDofMap

	// FacSurrNodes row n lists the traces whose face contains mesh node
	// n, ElSurrNodes row n the elements containing it, and FacSurrEl
	// row e the traces bounding element e.
	FacSurrNodes utils.CRS
	ElSurrNodes  utils.CRS
	FacSurrEl    utils.CRS
}

// NewFESpace builds the broken L2 space of uniform basis order over the
// mesh. The quadrature family applies where the element shape supports
// it; shapes with no rule in that family fall back to their natural
// one.
func NewFESpace(msh *mesh.Mesh, bt types.BasisType, qt types.QuadratureType, order int) (fes *FESpace, err error) {
	return newSpace(msh, bt, qt, func(mesh.Element) int { return order }, L2)
}

// NewIsoparametricFESpace builds the node-continuous H1 space in which
// every element's solution order equals its geometric order, so
// solution dofs sit exactly at mesh nodes. The basis is nodal Lagrange
// with Gauss-type quadrature.
func NewIsoparametricFESpace(msh *mesh.Mesh) (fes *FESpace, err error) {
	return newSpace(msh, types.LAGRANGE, types.GAUSS_LEGENDRE,
		func(el mesh.Element) int { return el.Order }, ISOPARAMETRIC_H1)
}

func newSpace(msh *mesh.Mesh, bt types.BasisType, qt types.QuadratureType,
	orderOf func(mesh.Element) int, st SpaceType) (fes *FESpace, err error) {
	fes = &FESpace{
		Mesh:  msh,
		Type:  st,
		Cache: element.NewCache(msh.Dim),
		Comm:  utils.SingleRank(msh.NumElements()),
	}
	fes.Elements = make([]*element.FiniteElement, 0, msh.NumElements())
	for iel, el := range msh.Elements {
		var (
			key = element.ElementKey{
				Domain:     el.Domain,
				BasisOrder: orderOf(el),
				GeomOrder:  el.Order,
				Quadrature: resolveQuadrature(qt, el.Domain),
				Basis:      bt,
			}
			ref *element.ReferenceElement
		)
		if ref, err = fes.Cache.Element(key); err != nil {
			err = fmt.Errorf("element %d: %w", iel, err)
			return
		}
		fes.Elements = append(fes.Elements, &element.FiniteElement{
			Ref:    ref,
			Coords: msh.Coords,
			Nodes:  el.Nodes,
			Index:  iel,
		})
	}

	fes.Traces = make([]*element.TraceSpace, 0, msh.NumFaces())
	for ifac := range msh.Faces {
		var ts *element.TraceSpace
		if ts, err = fes.buildTrace(ifac, bt, qt); err != nil {
			err = fmt.Errorf("face %d: %w", ifac, err)
			return
		}
		fes.Traces = append(fes.Traces, ts)
	}
	fes.InteriorTraceStart = msh.InteriorFaceStart
	fes.InteriorTraceEnd = msh.InteriorFaceEnd
	fes.BdyTraceStart = msh.BdyFaceStart
	fes.BdyTraceEnd = msh.BdyFaceEnd

	ndof := make([]int, len(fes.Elements))
	for i, fe := range fes.Elements {
		ndof[i] = fe.NumBasis()
	}
	fes.DGMap = NewDGDofMap(ndof)
	fes.CGMap = CGDofMap{Mesh: msh}
	fes.buildConnectivity()
	return
}

// buildTrace resolves both neighboring elements of mesh face ifac and
// constructs its TraceSpace view over the shared reference trace. For
// boundary faces the mesh aliases the owner on both sides, so the right
// element, nodes and transformation all coincide with the left.
func (fes *FESpace) buildTrace(ifac int, bt types.BasisType, qt types.QuadratureType) (ts *element.TraceSpace, err error) {
	var (
		fc  = fes.Mesh.Faces[ifac]
		elL = fes.Elements[fc.ElemL]
		elR = fes.Elements[fc.ElemR]
	)
	if fc.BCType == types.PARALLEL_COM {
		elR = fes.resolveGhost(fc)
	}
	var (
		key = element.TraceKey{
			FaceDomain:  fc.Domain,
			DomainL:     elL.Ref.Key.Domain,
			DomainR:     elR.Ref.Key.Domain,
			BasisOrderL: elL.Ref.Key.BasisOrder,
			BasisOrderR: elR.Ref.Key.BasisOrder,
			GeomOrderL:  elL.Ref.Key.GeomOrder,
			GeomOrderR:  elR.Ref.Key.GeomOrder,
			Quadrature:  resolveQuadrature(qt, fc.Domain),
			Basis:       bt,
			InfoL:       fc.InfoL,
			InfoR:       fc.InfoR,
		}
		sample = element.TraceSample{
			TransL:    elL.Ref.Geom,
			TransR:    elR.Ref.Geom,
			NodesL:    elL.Nodes,
			NodesR:    elR.Nodes,
			FaceNodes: fc.Nodes,
		}
		rt *element.ReferenceTrace
	)
	if rt, err = fes.Cache.Trace(key, sample); err != nil {
		return
	}
	ts = &element.TraceSpace{
		Ref:       rt,
		ElL:       elL,
		ElR:       elR,
		Coords:    fes.Mesh.Coords,
		FaceNodes: fc.Nodes,
		BCType:    fc.BCType,
		BCFlag:    fc.BCFlag,
		InfoL:     fc.InfoL,
		InfoR:     fc.InfoR,
		Index:     ifac,
	}
	return
}

// resolveGhost returns the element standing in for the far side of a
// partition face. A single-rank communicator owns both sides, so the
// ghost is the local owner itself; larger communicators substitute the
// element received from the neighboring rank during construction.
func (fes *FESpace) resolveGhost(fc mesh.Face) *element.FiniteElement {
	if fes.Comm.Size() == 1 {
		return fes.Elements[fc.ElemL]
	}
	return fes.Elements[fc.ElemR]
}

// resolveQuadrature maps the requested rule family onto one the shape
// supports: tensor Gauss-Legendre has no simplex form and
// Grundmann-Moeller no hypercube form, so each shape falls back to its
// natural family.
func resolveQuadrature(qt types.QuadratureType, dt types.DomainType) types.QuadratureType {
	switch {
	case dt == types.SIMPLEX && qt == types.GAUSS_LEGENDRE:
		return types.GRUNDMANN_MOELLER
	case dt == types.HYPERCUBE && qt == types.GRUNDMANN_MOELLER:
		return types.GAUSS_LEGENDRE
	}
	return qt
}

func (fes *FESpace) buildConnectivity() {
	var (
		nn  = fes.Mesh.NumNodes()
		fsn = make([][]int, nn)
		esn = make([][]int, nn)
		fse = make([][]int, len(fes.Elements))
	)
	for _, ts := range fes.Traces {
		for _, n := range ts.FaceNodes {
			fsn[n] = append(fsn[n], ts.Index)
		}
	}
	for iel, fe := range fes.Elements {
		for _, n := range fe.Nodes {
			esn[n] = append(esn[n], iel)
		}
	}
	// boundary traces alias one element on both sides; count them once
	for _, ts := range fes.Traces {
		if fes.Comm.Owns(ts.ElL.Index) {
			fse[ts.ElL.Index] = append(fse[ts.ElL.Index], ts.Index)
		}
		if ts.BCType == types.PARALLEL_COM {
			// the far side of a partition face is another rank's to index
			continue
		}
		if ts.ElR.Index != ts.ElL.Index && fes.Comm.Owns(ts.ElR.Index) {
			fse[ts.ElR.Index] = append(fse[ts.ElR.Index], ts.Index)
		}
	}
	fes.FacSurrNodes = utils.NewCRS(fsn)
	fes.ElSurrNodes = utils.NewCRS(esn)
	fes.FacSurrEl = utils.NewCRS(fse)
}

// NDofDG is the scalar dof count of the broken DG layout.
func (fes *FESpace) NDofDG() int { return fes.DGMap.NDof() }

// NDofCG is the scalar dof count of the node-continuous layout.
func (fes *FESpace) NDofCG() int { return fes.CGMap.NDof() }

func (fes *FESpace) NumElements() int { return len(fes.Elements) }
func (fes *FESpace) NumTraces() int   { return len(fes.Traces) }

// InteriorTraces is the contiguous interior block of the trace list.
func (fes *FESpace) InteriorTraces() []*element.TraceSpace {
	return fes.Traces[fes.InteriorTraceStart:fes.InteriorTraceEnd]
}

// BoundaryTraces is the contiguous boundary block.
func (fes *FESpace) BoundaryTraces() []*element.TraceSpace {
	return fes.Traces[fes.BdyTraceStart:fes.BdyTraceEnd]
}
