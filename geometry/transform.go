// Package geometry provides the isoparametric mapping between reference
// domains and physical space: nodal transformations of arbitrary
// geometric order, their Jacobians and Hessians, and the face normal
// calculus used by trace integrals.
package geometry

import (
	"fmt"

	"github.com/numflux/galerkin/basis"
	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

// ElementTransformation maps reference coordinates to physical space by
// nodal interpolation: x(xi) = sum_m N_m(xi) * coord[nodes[m]]. The
// shape functions are the nodal Lagrange basis of the geometric order,
// so the node ordering of an element must follow the reference-node
// enumeration of that basis. Node coordinates live in the mesh and are
// passed in on every call; the transformation itself is immutable and
// shared by all elements of the same shape and order.
type ElementTransformation struct {
	Domain types.DomainType
	Dim    int
	Order  int
	Shape  basis.Basis
	// VertexNodes[v] is the local shape-node index of canonical vertex
	// v; VertexRef row v is that vertex's reference coordinate.
	VertexNodes []int
	VertexRef   utils.Matrix
}

func NewTransformation(dt types.DomainType, ndim, order int) (tr *ElementTransformation, err error) {
	if order < 1 {
		err = fmt.Errorf("geometric order must be >= 1, got %d", order)
		return
	}
	var b basis.Basis
	if b, err = basis.New(types.LAGRANGE, dt, ndim, order); err != nil {
		return
	}
	tr = &ElementTransformation{
		Domain: dt,
		Dim:    ndim,
		Order:  order,
		Shape:  b,
	}
	tr.buildVertices()
	return
}

// NumNodes is the geometric node count of the element.
func (tr *ElementTransformation) NumNodes() int { return tr.Shape.NumBasis() }

func (tr *ElementTransformation) buildVertices() {
	var (
		ndim, p = tr.Dim, tr.Order
	)
	switch tr.Domain {
	case types.HYPERCUBE:
		nverts := utils.IntPow(2, ndim)
		tr.VertexNodes = make([]int, nverts)
		tr.VertexRef = utils.NewMatrix(nverts, ndim)
		for v := 0; v < nverts; v++ {
			idx := 0
			for d := 0; d < ndim; d++ {
				stride := utils.IntPow(p+1, ndim-d-1)
				if v>>(ndim-d-1)&1 == 1 {
					idx += p * stride
					tr.VertexRef.DataP[v*ndim+d] = 1
				} else {
					tr.VertexRef.DataP[v*ndim+d] = -1
				}
			}
			tr.VertexNodes[v] = idx
		}
	case types.SIMPLEX:
		// vertex 0 is the origin (barycentric slot 0), vertex k+1 sits at
		// unit coordinate e_k; locate each in the descending
		// lexicographic multi-index enumeration of the shape basis
		nverts := ndim + 1
		tr.VertexNodes = make([]int, nverts)
		tr.VertexRef = utils.NewMatrix(nverts, ndim)
		nodes := tr.Shape.RefNodes()
		for v := 0; v < nverts; v++ {
			want := make([]float64, ndim)
			if v > 0 {
				want[v-1] = 1
				tr.VertexRef.DataP[v*ndim+v-1] = 1
			}
			for m := 0; m < tr.Shape.NumBasis(); m++ {
				if matchCoord(nodes.RowView(m), want) {
					tr.VertexNodes[v] = m
					break
				}
			}
		}
	}
}

func matchCoord(a, b []float64) bool {
	for i := range a {
		d := a[i] - b[i]
		if d > utils.NODETOL || d < -utils.NODETOL {
			return false
		}
	}
	return true
}

// Transform evaluates the physical position of reference point xi.
func (tr *ElementTransformation) Transform(coords utils.Matrix, nodes []int, xi []float64) (x []float64) {
	return tr.TransformWith(coords, nodes, tr.Shape.EvalAll(xi))
}

// TransformWith contracts precomputed shape values against node
// coordinates; used on hot paths where the basis table is cached per
// quadrature point.
func (tr *ElementTransformation) TransformWith(coords utils.Matrix, nodes []int, shape []float64) (x []float64) {
	var (
		_, nd = coords.Dims()
	)
	x = make([]float64, nd)
	for m, gid := range nodes {
		xm := coords.RowView(gid)
		for i := 0; i < nd; i++ {
			x[i] += shape[m] * xm[i]
		}
	}
	return
}

// Jacobian evaluates dx/dxi at reference point xi. The result has one
// row per physical axis and one column per reference axis, so a face
// transformation embedded in d-space yields a d x (d-1) matrix.
func (tr *ElementTransformation) Jacobian(coords utils.Matrix, nodes []int, xi []float64) (J utils.Matrix) {
	return tr.JacobianWith(coords, nodes, tr.Shape.EvalGradAll(xi))
}

func (tr *ElementTransformation) JacobianWith(coords utils.Matrix, nodes []int, dshape utils.Matrix) (J utils.Matrix) {
	var (
		_, nd = coords.Dims()
		rdim  = tr.Dim
	)
	J = utils.NewMatrix(nd, rdim)
	for m, gid := range nodes {
		xm := coords.RowView(gid)
		dm := dshape.RowView(m)
		for i := 0; i < nd; i++ {
			for j := 0; j < rdim; j++ {
				J.DataP[i*rdim+j] += dm[j] * xm[i]
			}
		}
	}
	return
}

// Hessian evaluates d2x/dxi2 at reference point xi. Row k holds the
// flattened rdim x rdim Hessian of physical coordinate k.
func (tr *ElementTransformation) Hessian(coords utils.Matrix, nodes []int, xi []float64) (H utils.Matrix) {
	return tr.HessianWith(coords, nodes, tr.Shape.EvalHessAll(xi))
}

func (tr *ElementTransformation) HessianWith(coords utils.Matrix, nodes []int, hshape utils.Matrix) (H utils.Matrix) {
	var (
		_, nd = coords.Dims()
		nh    = tr.Dim * tr.Dim
	)
	H = utils.NewMatrix(nd, nh)
	for m, gid := range nodes {
		xm := coords.RowView(gid)
		hm := hshape.RowView(m)
		for i := 0; i < nd; i++ {
			for j := 0; j < nh; j++ {
				H.DataP[i*nh+j] += hm[j] * xm[i]
			}
		}
	}
	return
}

// RefCentroid is the centroid of the reference domain.
func RefCentroid(dt types.DomainType, ndim int) (xi []float64) {
	xi = make([]float64, ndim)
	if dt == types.SIMPLEX {
		for i := range xi {
			xi[i] = 1 / float64(ndim+1)
		}
	}
	return
}

// Centroid is the physical image of the reference centroid.
func (tr *ElementTransformation) Centroid(coords utils.Matrix, nodes []int) (x []float64) {
	return tr.Transform(coords, nodes, RefCentroid(tr.Domain, tr.Dim))
}
