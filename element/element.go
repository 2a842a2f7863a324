package element

import (
	"gonum.org/v1/gonum/mat"

	"github.com/numflux/galerkin/utils"
)

// FiniteElement is a non-owning per-element view: it points at the
// shared reference tables of its type and aliases the mesh's node list
// and coordinate array, so coordinate updates (mesh motion) are visible
// without rebuilding the element. Validity is tied to the owning space;
// callers must not resize the coordinate storage while views are held.
type FiniteElement struct {
	Ref    *ReferenceElement
	Coords utils.Matrix
	Nodes  []int
	Index  int
}

func (el *FiniteElement) NumBasis() int { return el.Ref.NumBasis() }
func (el *FiniteElement) NumQP() int    { return el.Ref.NumQP() }

// QuadPoint returns reference quadrature point iqp and its weight.
func (el *FiniteElement) QuadPoint(iqp int) (xi []float64, w float64) {
	return el.Ref.Quad.Point(iqp)
}

// BasisQP returns the basis values at quadrature point iqp, aliasing
// the shared table.
func (el *FiniteElement) BasisQP(iqp int) []float64 {
	return el.Ref.B.RowView(iqp)
}

// GradBasisQP returns the nbasis x ndim reference gradients at
// quadrature point iqp, aliasing the shared table.
func (el *FiniteElement) GradBasisQP(iqp int) utils.Matrix {
	return el.Ref.Dr[iqp]
}

// HessBasisQP returns the nbasis x ndim^2 reference Hessians at
// quadrature point iqp, aliasing the shared table.
func (el *FiniteElement) HessBasisQP(iqp int) utils.Matrix {
	return el.Ref.Hr[iqp]
}

// Transform maps reference point xi to physical coordinates.
func (el *FiniteElement) Transform(xi []float64) []float64 {
	return el.Ref.Geom.Transform(el.Coords, el.Nodes, xi)
}

// TransformQP maps quadrature point iqp to physical coordinates using
// the precomputed shape table.
func (el *FiniteElement) TransformQP(iqp int) []float64 {
	return el.Ref.Geom.TransformWith(el.Coords, el.Nodes, el.Ref.GeoB.RowView(iqp))
}

// Jacobian evaluates dx/dxi at reference point xi.
func (el *FiniteElement) Jacobian(xi []float64) utils.Matrix {
	return el.Ref.Geom.Jacobian(el.Coords, el.Nodes, xi)
}

// JacobianQP evaluates dx/dxi at quadrature point iqp using the
// precomputed shape gradient table.
func (el *FiniteElement) JacobianQP(iqp int) utils.Matrix {
	return el.Ref.Geom.JacobianWith(el.Coords, el.Nodes, el.Ref.GeoDr[iqp])
}

// JacobianDetQP is the determinant of the transformation Jacobian at
// quadrature point iqp.
func (el *FiniteElement) JacobianDetQP(iqp int) float64 {
	return mat.Det(el.JacobianQP(iqp).M)
}

// HessianQP evaluates the transformation Hessian at quadrature point
// iqp; row k holds the flattened ndim x ndim Hessian of physical
// coordinate k.
func (el *FiniteElement) HessianQP(iqp int) utils.Matrix {
	return el.Ref.Geom.HessianWith(el.Coords, el.Nodes, el.Ref.GeoHr[iqp])
}

// Centroid is the physical image of the reference centroid.
func (el *FiniteElement) Centroid() []float64 {
	return el.Ref.Geom.Centroid(el.Coords, el.Nodes)
}

// NodeCoord returns the physical coordinates of local geometric node m,
// aliasing the mesh coordinate array.
func (el *FiniteElement) NodeCoord(m int) []float64 {
	return el.Coords.RowView(el.Nodes[m])
}

// PhysGradBasisQP returns the nbasis x ndim physical-domain basis
// gradients at quadrature point iqp.
func (el *FiniteElement) PhysGradBasisQP(iqp int) (grad utils.Matrix, err error) {
	return physGradBasis(el.Ref.Dr[iqp], el.JacobianQP(iqp))
}

// PhysGradBasisAt returns the physical-domain basis gradients at an
// arbitrary reference point.
func (el *FiniteElement) PhysGradBasisAt(xi []float64) (grad utils.Matrix, err error) {
	return physGradBasis(el.Ref.Basis.EvalGradAll(xi), el.Jacobian(xi))
}

// PhysHessBasisQP returns the nbasis x ndim^2 physical-domain basis
// Hessians at quadrature point iqp.
func (el *FiniteElement) PhysHessBasisQP(iqp int) (hess utils.Matrix, err error) {
	var (
		J    = el.JacobianQP(iqp)
		grad utils.Matrix
	)
	if grad, err = physGradBasis(el.Ref.Dr[iqp], J); err != nil {
		return
	}
	return physHessBasis(grad, el.Ref.Hr[iqp], J, el.HessianQP(iqp))
}

// PhysHessBasisAt returns the physical-domain basis Hessians at an
// arbitrary reference point.
func (el *FiniteElement) PhysHessBasisAt(xi []float64) (hess utils.Matrix, err error) {
	var (
		J    = el.Jacobian(xi)
		grad utils.Matrix
	)
	if grad, err = physGradBasis(el.Ref.Basis.EvalGradAll(xi), J); err != nil {
		return
	}
	return physHessBasis(grad, el.Ref.Basis.EvalHessAll(xi), J, el.Ref.Geom.Hessian(el.Coords, el.Nodes, xi))
}

// physGradBasis converts reference gradients to physical gradients by
// the chain rule: dphi/dx = dphi/dxi * (dx/dxi)^-1.
func physGradBasis(refGrad, J utils.Matrix) (grad utils.Matrix, err error) {
	var Jinv utils.Matrix
	if Jinv, err = J.Inverse(); err != nil {
		return
	}
	grad = refGrad.Mul(Jinv)
	return
}

// physHessBasis converts reference Hessians to physical Hessians. The
// curvature of the geometric map enters through its Hessian: for each
// basis function i,
//
//	Hphys_i = Jinv^T (Href_i - sum_k dphi_i/dx_k * Hgeo_k) Jinv
//
// where Hgeo_k is the reference Hessian of physical coordinate k. For
// affine elements Hgeo vanishes and the transform reduces to the
// congruence with Jinv.
func physHessBasis(physGrad, refHess, J, geoHess utils.Matrix) (hess utils.Matrix, err error) {
	var (
		nb, nh = refHess.Dims()
		nd, _  = J.Dims()
		Jinv   utils.Matrix
	)
	if Jinv, err = J.Inverse(); err != nil {
		return
	}
	var (
		JinvT = Jinv.Transpose()
		work  = utils.NewMatrix(nd, nd)
	)
	hess = utils.NewMatrix(nb, nh)
	for i := 0; i < nb; i++ {
		for m := 0; m < nd; m++ {
			for n := 0; n < nd; n++ {
				h := refHess.At(i, m*nd+n)
				for k := 0; k < nd; k++ {
					h -= physGrad.At(i, k) * geoHess.At(k, m*nd+n)
				}
				work.DataP[m*nd+n] = h
			}
		}
		hp := JinvT.Mul(work).Mul(Jinv)
		copy(hess.RowView(i), hp.DataP)
	}
	return
}
