package element

import (
	"github.com/numflux/galerkin/geometry"
	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

// TraceSpace is the discretization on one face shared between two
// elements. Like FiniteElement it is a non-owning view: the reference
// trace holds every shared evaluation table, while the trace itself
// carries the two side elements, the face's geometric nodes and the
// boundary condition tag. For boundary faces ElR aliases ElL.
type TraceSpace struct {
	Ref       *ReferenceTrace
	ElL, ElR  *FiniteElement
	Coords    utils.Matrix
	FaceNodes []int
	BCType    types.BCType
	BCFlag    int
	InfoL     types.FaceInfo
	InfoR     types.FaceInfo
	Index     int
}

func (ts *TraceSpace) NumQP() int         { return ts.Ref.NumQP() }
func (ts *TraceSpace) NumBasisTrace() int { return ts.Ref.NumBasisTrace() }

// IsBoundary reports whether this trace sits on the domain boundary.
func (ts *TraceSpace) IsBoundary() bool { return ts.BCType != types.INTERIOR }

// QuadPoint returns face-reference quadrature point iqp and its weight.
func (ts *TraceSpace) QuadPoint(iqp int) (s []float64, w float64) {
	return ts.Ref.Quad.Point(iqp)
}

// TraceBasisQP returns the face basis values at quadrature point iqp.
func (ts *TraceSpace) TraceBasisQP(iqp int) []float64 {
	return ts.Ref.FaceB.RowView(iqp)
}

// RefCoordL returns face quadrature point iqp mapped into the left
// element's reference domain; RefCoordR the right analogue.
func (ts *TraceSpace) RefCoordL(iqp int) []float64 { return ts.Ref.XiL.RowView(iqp) }
func (ts *TraceSpace) RefCoordR(iqp int) []float64 { return ts.Ref.XiR.RowView(iqp) }

// BasisLQP returns the left element's basis values at face quadrature
// point iqp; BasisRQP the right analogue.
func (ts *TraceSpace) BasisLQP(iqp int) []float64 { return ts.Ref.BL.RowView(iqp) }
func (ts *TraceSpace) BasisRQP(iqp int) []float64 { return ts.Ref.BR.RowView(iqp) }

// Transform maps face quadrature point iqp to physical coordinates.
func (ts *TraceSpace) Transform(iqp int) (x []float64) {
	if ts.Ref.Geom == nil {
		return ts.ElL.Transform(ts.Ref.XiL.RowView(iqp))
	}
	return ts.Ref.Geom.TransformWith(ts.Coords, ts.FaceNodes, ts.Ref.FaceGeoB.RowView(iqp))
}

// FaceJacobian evaluates the ndim x (ndim-1) Jacobian of the face
// transformation at quadrature point iqp. Not defined for the point
// faces of 1D elements, whose normal comes from the face number alone.
func (ts *TraceSpace) FaceJacobian(iqp int) utils.Matrix {
	return ts.Ref.Geom.JacobianWith(ts.Coords, ts.FaceNodes, ts.Ref.FaceGeoDr[iqp])
}

// Normal returns the area-scaled normal at quadrature point iqp,
// pointing from the left element into the right. Its Euclidean norm is
// the surface Jacobian sqrt(g) that weights trace quadrature, so
// callers get unit normal and surface measure from one evaluation.
func (ts *TraceSpace) Normal(iqp int) (nrml []float64) {
	if ts.Ref.Geom == nil {
		return []float64{geometry.PointFaceNormal(ts.InfoL.FaceNr())}
	}
	return geometry.CalcOrtho(ts.FaceJacobian(iqp))
}

// UnitNormal splits the area-scaled normal into direction and measure.
func (ts *TraceSpace) UnitNormal(iqp int) (unit []float64, sqrtg float64) {
	unit = ts.Normal(iqp)
	sqrtg = geometry.Norm(unit)
	for i := range unit {
		unit[i] /= sqrtg
	}
	return
}

// JacobianL evaluates the left element's transformation Jacobian at
// face quadrature point iqp; JacobianR the right analogue.
func (ts *TraceSpace) JacobianL(iqp int) utils.Matrix {
	return ts.ElL.Ref.Geom.JacobianWith(ts.Coords, ts.ElL.Nodes, ts.Ref.GeoDrL[iqp])
}

func (ts *TraceSpace) JacobianR(iqp int) utils.Matrix {
	return ts.ElR.Ref.Geom.JacobianWith(ts.Coords, ts.ElR.Nodes, ts.Ref.GeoDrR[iqp])
}

// PhysGradBasisL returns the left element's physical-domain basis
// gradients at face quadrature point iqp; PhysGradBasisR the right
// analogue.
func (ts *TraceSpace) PhysGradBasisL(iqp int) (grad utils.Matrix, err error) {
	return physGradBasis(ts.Ref.DrL[iqp], ts.JacobianL(iqp))
}

func (ts *TraceSpace) PhysGradBasisR(iqp int) (grad utils.Matrix, err error) {
	return physGradBasis(ts.Ref.DrR[iqp], ts.JacobianR(iqp))
}

// PhysHessBasisL returns the left element's physical-domain basis
// Hessians at face quadrature point iqp; PhysHessBasisR the right
// analogue.
func (ts *TraceSpace) PhysHessBasisL(iqp int) (hess utils.Matrix, err error) {
	var (
		J    = ts.JacobianL(iqp)
		geoH = ts.ElL.Ref.Geom.HessianWith(ts.Coords, ts.ElL.Nodes, ts.Ref.GeoHrL[iqp])
		grad utils.Matrix
	)
	if grad, err = physGradBasis(ts.Ref.DrL[iqp], J); err != nil {
		return
	}
	return physHessBasis(grad, ts.Ref.HrL[iqp], J, geoH)
}

func (ts *TraceSpace) PhysHessBasisR(iqp int) (hess utils.Matrix, err error) {
	var (
		J    = ts.JacobianR(iqp)
		geoH = ts.ElR.Ref.Geom.HessianWith(ts.Coords, ts.ElR.Nodes, ts.Ref.GeoHrR[iqp])
		grad utils.Matrix
	)
	if grad, err = physGradBasis(ts.Ref.DrR[iqp], J); err != nil {
		return
	}
	return physHessBasis(grad, ts.Ref.HrR[iqp], J, geoH)
}

// CentroidL is the physical centroid of the left element; CentroidR of
// the right. The DDG length scale projects their difference onto the
// face normal.
func (ts *TraceSpace) CentroidL() []float64 { return ts.ElL.Centroid() }
func (ts *TraceSpace) CentroidR() []float64 { return ts.ElR.Centroid() }
