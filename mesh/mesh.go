// Package mesh builds and manipulates unstructured conforming meshes of
// hypercube and simplex elements. Faces are first-class: every mesh
// carries an explicit face list partitioned into an interior block
// followed by a boundary block, each face storing its two neighboring
// elements, its local face number and orientation on each side, and a
// boundary condition tag.
package mesh

import (
	"fmt"

	"github.com/numflux/galerkin/geometry"
	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

// Element is one geometric cell: a reference shape of a given geometric
// order plus the global indices of its nodes, listed in the shape's
// reference lattice ordering.
type Element struct {
	Domain types.DomainType
	Order  int
	Nodes  []int
}

// Face joins two elements through a shared geometric entity one
// dimension down. Nodes are stored in the left element's outward
// traversal order, so the normal computed from them points from ElemL
// into ElemR (outward for boundary faces, where ElemR aliases ElemL as
// a placeholder). InfoL/InfoR pack the local face number and
// orientation code on each side.
type Face struct {
	Domain       types.DomainType
	Order        int
	ElemL, ElemR int
	InfoL, InfoR types.FaceInfo
	BCType       types.BCType
	BCFlag       int
	Nodes        []int
}

// BC pairs a boundary condition kind with the integer flag passed
// through to the discretization's per-flag callback tables.
type BC struct {
	Type types.BCType
	Flag int
}

// Mesh is nodes, elements and faces. Coords is NumNodes x Dim and its
// rows are aliased by element views, so node motion is visible
// everywhere immediately. Faces are sorted with the interior block
// first, [InteriorFaceStart, InteriorFaceEnd), then the boundary block
// [BdyFaceStart, BdyFaceEnd).
type Mesh struct {
	Dim      int
	Coords   utils.Matrix
	Elements []Element
	Faces    []Face

	InteriorFaceStart, InteriorFaceEnd int
	BdyFaceStart, BdyFaceEnd           int
}

func (m *Mesh) NumNodes() (nn int) {
	nn, _ = m.Coords.Dims()
	return
}

func (m *Mesh) NumElements() int { return len(m.Elements) }
func (m *Mesh) NumFaces() int    { return len(m.Faces) }

// NewUniformMesh builds a Cartesian mesh of hypercube elements of the
// given geometric order over the box [xmin, xmax], nelem[d] elements
// along axis d, for ndim in 1..3. Global nodes are numbered over the
// (order*nelem[d]+1)^ndim lattice with the first axis varying fastest.
// Interior faces are grouped by normal axis; boundary faces follow,
// grouped by axis with each transverse cell contributing its negative
// then its positive side face. The 2*ndim entries of bcs are ordered
// negative sides by axis, then positive sides by axis.
func NewUniformMesh(ndim int, nelem []int, xmin, xmax []float64, order int, bcs []BC) (m *Mesh, err error) {
	if ndim < 1 || ndim > 3 {
		err = fmt.Errorf("uniform mesh supports 1 to 3 dimensions, have %d", ndim)
		return
	}
	if len(nelem) != ndim || len(xmin) != ndim || len(xmax) != ndim {
		err = fmt.Errorf("need %d entries in nelem, xmin and xmax", ndim)
		return
	}
	if len(bcs) != 2*ndim {
		err = fmt.Errorf("need %d boundary conditions (negative sides by axis, then positive), have %d",
			2*ndim, len(bcs))
		return
	}
	if order < 1 {
		err = fmt.Errorf("geometric order must be at least 1, have %d", order)
		return
	}
	for d := 0; d < ndim; d++ {
		if nelem[d] < 1 {
			err = fmt.Errorf("need at least one element along axis %d", d)
			return
		}
		if xmax[d] <= xmin[d] {
			err = fmt.Errorf("degenerate bounding box along axis %d", d)
			return
		}
	}
	m = &Mesh{Dim: ndim}

	// node lattice, first axis fastest
	var (
		nn     = make([]int, ndim) // nodes per axis
		stride = make([]int, ndim)
		nnodes = 1
	)
	for d := 0; d < ndim; d++ {
		nn[d] = order*nelem[d] + 1
		stride[d] = nnodes
		nnodes *= nn[d]
	}
	m.Coords = utils.NewMatrix(nnodes, ndim)
	for n := 0; n < nnodes; n++ {
		rem := n
		for d := 0; d < ndim; d++ {
			idx := rem % nn[d]
			rem /= nn[d]
			h := (xmax[d] - xmin[d]) / float64(order*nelem[d])
			m.Coords.DataP[n*ndim+d] = xmin[d] + float64(idx)*h
		}
	}

	// elements, first axis fastest, each with its (order+1)^ndim node
	// lattice in last-axis-fastest local ordering
	var (
		nelTotal = 1
		npe      = utils.IntPow(order+1, ndim)
	)
	for d := 0; d < ndim; d++ {
		nelTotal *= nelem[d]
	}
	m.Elements = make([]Element, 0, nelTotal)
	eIdx := make([]int, ndim)
	for e := 0; e < nelTotal; e++ {
		rem := e
		for d := 0; d < ndim; d++ {
			eIdx[d] = rem % nelem[d]
			rem /= nelem[d]
		}
		nodes := make([]int, npe)
		for loc := 0; loc < npe; loc++ {
			// local lattice is last axis fastest
			lrem := loc
			gid := 0
			for d := ndim - 1; d >= 0; d-- {
				ld := lrem % (order + 1)
				lrem /= order + 1
				gid += (order*eIdx[d] + ld) * stride[d]
			}
			nodes[loc] = gid
		}
		m.Elements = append(m.Elements, Element{Domain: types.HYPERCUBE, Order: order, Nodes: nodes})
	}

	elemID := func(idx []int) (id int) {
		for d := ndim - 1; d >= 0; d-- {
			id = id*nelem[d] + idx[d]
		}
		return
	}

	// interior faces grouped by normal axis; within a group the face
	// lattice (plane index on the normal axis, cell index on the rest)
	// advances first axis fastest
	for a := 0; a < ndim; a++ {
		counts := make([]int, ndim)
		total := 1
		for d := 0; d < ndim; d++ {
			if d == a {
				counts[d] = nelem[d] - 1
			} else {
				counts[d] = nelem[d]
			}
			total *= counts[d]
		}
		idx := make([]int, ndim)
		for k := 0; k < total; k++ {
			rem := k
			for d := 0; d < ndim; d++ {
				idx[d] = rem % counts[d]
				rem /= counts[d]
			}
			idx[a]++ // plane index runs 1..nelem[a]-1
			right := elemID(idx)
			idx[a]--
			left := elemID(idx)
			idx[a]++

			var fc Face
			if fc, err = m.buildInteriorFace(left, right, ndim+a, a); err != nil {
				return
			}
			m.Faces = append(m.Faces, fc)
		}
	}
	m.InteriorFaceStart = 0
	m.InteriorFaceEnd = len(m.Faces)
	m.BdyFaceStart = len(m.Faces)

	// boundary faces grouped by axis; each transverse cell contributes
	// its negative-side face then its positive-side face
	for a := 0; a < ndim; a++ {
		counts := make([]int, ndim)
		total := 1
		for d := 0; d < ndim; d++ {
			if d == a {
				counts[d] = 1
			} else {
				counts[d] = nelem[d]
			}
			total *= counts[d]
		}
		idx := make([]int, ndim)
		for k := 0; k < total; k++ {
			rem := k
			for d := 0; d < ndim; d++ {
				idx[d] = rem % counts[d]
				rem /= counts[d]
			}
			for side := 0; side < 2; side++ {
				if side == 0 {
					idx[a] = 0
				} else {
					idx[a] = nelem[a] - 1
				}
				var (
					owner  = elemID(idx)
					faceNr = side*ndim + a
					fc     Face
				)
				if fc, err = m.buildBoundaryFace(owner, faceNr, bcs[side*ndim+a]); err != nil {
					return
				}
				m.Faces = append(m.Faces, fc)
			}
		}
	}
	m.BdyFaceEnd = len(m.Faces)
	return
}

// NewUniformMesh1D is the 1D convenience wrapper used by the run loop.
func NewUniformMesh1D(nelem int, xmin, xmax float64, order int, left, right BC) (*Mesh, error) {
	return NewUniformMesh(1, []int{nelem}, []float64{xmin}, []float64{xmax}, order, []BC{left, right})
}

// buildInteriorFace assembles the face between elements left and right,
// seen as local face faceNrL from the left and faceNrR from the right.
// Face nodes take the left element's outward traversal order.
func (m *Mesh) buildInteriorFace(left, right, faceNrL, faceNrR int) (fc Face, err error) {
	var (
		elL    = m.Elements[left]
		elR    = m.Elements[right]
		locals []int
	)
	if locals, err = geometry.FaceNodes(elL.Domain, m.Dim, elL.Order, faceNrL); err != nil {
		return
	}
	nodes := make([]int, len(locals))
	for i, loc := range locals {
		nodes[i] = elL.Nodes[loc]
	}
	orientR := 0
	if m.Dim > 1 {
		var rightLocals []int
		if rightLocals, err = geometry.FaceNodes(elR.Domain, m.Dim, elR.Order, faceNrR); err != nil {
			return
		}
		rightNodes := make([]int, len(rightLocals))
		for i, loc := range rightLocals {
			rightNodes[i] = elR.Nodes[loc]
		}
		if orientR, err = faceOrientation(m.Dim, elL.Order, nodes, rightNodes); err != nil {
			err = fmt.Errorf("face between elements %d and %d: %w", left, right, err)
			return
		}
	}
	fc = Face{
		Domain: geometry.FaceDomain(elL.Domain, m.Dim),
		Order:  elL.Order,
		ElemL:  left,
		ElemR:  right,
		InfoL:  types.NewFaceInfo(faceNrL, 0),
		InfoR:  types.NewFaceInfo(faceNrR, orientR),
		BCType: types.INTERIOR,
		Nodes:  nodes,
	}
	return
}

// buildBoundaryFace assembles a boundary face owned by element owner at
// its local face faceNr. The right side aliases the owner as a
// placeholder.
func (m *Mesh) buildBoundaryFace(owner, faceNr int, bc BC) (fc Face, err error) {
	var (
		el     = m.Elements[owner]
		locals []int
	)
	if locals, err = geometry.FaceNodes(el.Domain, m.Dim, el.Order, faceNr); err != nil {
		return
	}
	nodes := make([]int, len(locals))
	for i, loc := range locals {
		nodes[i] = el.Nodes[loc]
	}
	fc = Face{
		Domain: geometry.FaceDomain(el.Domain, m.Dim),
		Order:  el.Order,
		ElemL:  owner,
		ElemR:  owner,
		InfoL:  types.NewFaceInfo(faceNr, 0),
		InfoR:  types.NewFaceInfo(faceNr, 0),
		BCType: bc.Type,
		BCFlag: bc.Flag,
		Nodes:  nodes,
	}
	return
}

// cornerCycle extracts the corner node ids of an ordered face node list
// as a cycle around the face perimeter: the two endpoints of a segment,
// or the four corners of a quad face walked around its boundary.
func cornerCycle(ndim, order int, nodes []int) (cycle []int, err error) {
	switch {
	case ndim == 2:
		cycle = []int{nodes[0], nodes[order]}
	case ndim == 3 && len(nodes) == (order+1)*(order+1):
		n1 := order + 1
		cycle = []int{nodes[0], nodes[order*n1], nodes[order*n1+order], nodes[order]}
	case ndim == 3 && len(nodes) == (order+1)*(order+2)/2:
		// triangular face: corners are the pure lattice vertices
		cycle = []int{nodes[0], nodes[len(nodes)-1-order], nodes[len(nodes)-1]}
	default:
		err = fmt.Errorf("no corner cycle for a %d node face in %dD", len(nodes), ndim)
	}
	return
}

// faceOrientation encodes how the right element's own outward traversal
// of a shared face relates to the stored (left) node order: the
// rotation offset of the stored first corner within the right cycle,
// plus the cycle length when the winding is reversed.
func faceOrientation(ndim, order int, stored, right []int) (orient int, err error) {
	var sc, rc []int
	if sc, err = cornerCycle(ndim, order, stored); err != nil {
		return
	}
	if rc, err = cornerCycle(ndim, order, right); err != nil {
		return
	}
	n := len(rc)
	for r := 0; r < n; r++ {
		if rc[r] != sc[0] {
			continue
		}
		if n == 1 || rc[(r+1)%n] == sc[1] {
			orient = r
			return
		}
		if rc[(r-1+n)%n] == sc[1] {
			orient = r + n
			return
		}
	}
	err = fmt.Errorf("face node cycles %v and %v do not describe the same face", sc, rc)
	return
}

// ElementCentroid is the physical image of the element's reference
// centroid.
func (m *Mesh) ElementCentroid(iel int) (x []float64, err error) {
	var (
		el = m.Elements[iel]
		tr *geometry.ElementTransformation
	)
	if tr, err = geometry.NewTransformation(el.Domain, m.Dim, el.Order); err != nil {
		return
	}
	x = tr.Transform(m.Coords, el.Nodes, geometry.RefCentroid(el.Domain, m.Dim))
	return
}

// FaceCentroid is the physical image of the face's reference centroid.
// Point faces in 1D are their own centroid.
func (m *Mesh) FaceCentroid(ifac int) (x []float64, err error) {
	var (
		fc = m.Faces[ifac]
	)
	if m.Dim == 1 {
		x = []float64{m.Coords.DataP[fc.Nodes[0]]}
		return
	}
	var tr *geometry.ElementTransformation
	if tr, err = geometry.NewTransformation(fc.Domain, m.Dim-1, fc.Order); err != nil {
		return
	}
	x = tr.Transform(m.Coords, fc.Nodes, geometry.RefCentroid(fc.Domain, m.Dim-1))
	return
}

// CalcNormal evaluates the face normal at face reference coordinate s.
// The normal points from the left element into the right one and its
// magnitude is the surface area element there. 1D point faces yield the
// signed unit direction.
func (m *Mesh) CalcNormal(ifac int, s []float64) (nrml []float64, err error) {
	var (
		fc = m.Faces[ifac]
	)
	if m.Dim == 1 {
		nrml = []float64{geometry.PointFaceNormal(fc.InfoL.FaceNr())}
		return
	}
	var tr *geometry.ElementTransformation
	if tr, err = geometry.NewTransformation(fc.Domain, m.Dim-1, fc.Order); err != nil {
		return
	}
	J := tr.Jacobian(m.Coords, fc.Nodes, s)
	nrml = geometry.CalcOrtho(J)
	return
}
