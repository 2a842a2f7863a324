// Package element provides the shared reference machinery behind a
// finite element space. Each distinct combination of shape, order, basis
// family and quadrature family appearing in a mesh is represented by one
// ReferenceElement (or ReferenceTrace for faces) holding the basis, the
// quadrature rule and every per-quadrature-point evaluation table; the
// lightweight FiniteElement and TraceSpace views combine those shared
// tables with the node indices and coordinates of a concrete element.
package element

import (
	"fmt"

	"github.com/numflux/galerkin/basis"
	"github.com/numflux/galerkin/geometry"
	"github.com/numflux/galerkin/quadrature"
	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

// ElementKey identifies one distinct element discretization within a
// space. Two elements with equal keys share the same ReferenceElement.
type ElementKey struct {
	Domain     types.DomainType
	BasisOrder int
	GeomOrder  int
	Quadrature types.QuadratureType
	Basis      types.BasisType
}

// TraceKey identifies one distinct trace discretization. Besides the
// face shape and the packed face number / orientation of each side, it
// carries the domain shape, basis order and geometric order of both
// neighboring elements: the side evaluation tables depend on all of
// them, so a coarser key would alias distinct tables.
type TraceKey struct {
	FaceDomain  types.DomainType
	DomainL     types.DomainType
	DomainR     types.DomainType
	BasisOrderL int
	BasisOrderR int
	GeomOrderL  int
	GeomOrderR  int
	Quadrature  types.QuadratureType
	Basis       types.BasisType
	InfoL       types.FaceInfo
	InfoR       types.FaceInfo
}

// BasisOrder is the polynomial order of the trace itself, the max of
// the two sides.
func (k TraceKey) BasisOrder() (p int) {
	p = k.BasisOrderL
	if k.BasisOrderR > p {
		p = k.BasisOrderR
	}
	return
}

// GeomOrder is the geometric order of the face, the max of the two
// sides.
func (k TraceKey) GeomOrder() (p int) {
	p = k.GeomOrderL
	if k.GeomOrderR > p {
		p = k.GeomOrderR
	}
	return
}

// ReferenceElement owns the basis, quadrature rule and geometric
// transformation of one element type together with evaluation tables at
// every quadrature point. Instances are created through a Cache, never
// mutated afterwards, and shared by every element of the same type.
type ReferenceElement struct {
	Key   ElementKey
	Dim   int
	Basis basis.Basis
	Geom  *geometry.ElementTransformation
	Quad  *quadrature.Rule
	// B row iqp holds the solution basis values at quadrature point iqp;
	// Dr[iqp] and Hr[iqp] hold the nbasis x ndim reference gradients and
	// nbasis x ndim^2 reference Hessians. GeoB, GeoDr and GeoHr are the
	// analogous tables for the geometric shape functions.
	B     utils.Matrix
	Dr    []utils.Matrix
	Hr    []utils.Matrix
	GeoB  utils.Matrix
	GeoDr []utils.Matrix
	GeoHr []utils.Matrix
}

func newReferenceElement(key ElementKey, ndim int) (re *ReferenceElement, err error) {
	var (
		b  basis.Basis
		tr *geometry.ElementTransformation
		q  *quadrature.Rule
	)
	if b, err = basis.New(key.Basis, key.Domain, ndim, key.BasisOrder); err != nil {
		return
	}
	if tr, err = geometry.NewTransformation(key.Domain, ndim, key.GeomOrder); err != nil {
		return
	}
	if q, err = quadrature.New(key.Quadrature, key.Domain, ndim, key.BasisOrder); err != nil {
		return
	}
	re = &ReferenceElement{
		Key:   key,
		Dim:   ndim,
		Basis: b,
		Geom:  tr,
		Quad:  q,
	}
	re.tabulate()
	return
}

func (re *ReferenceElement) tabulate() {
	var (
		nqp  = re.Quad.NumPoints()
		nb   = re.Basis.NumBasis()
		ngeo = re.Geom.NumNodes()
	)
	re.B = utils.NewMatrix(nqp, nb)
	re.GeoB = utils.NewMatrix(nqp, ngeo)
	re.Dr = make([]utils.Matrix, nqp)
	re.Hr = make([]utils.Matrix, nqp)
	re.GeoDr = make([]utils.Matrix, nqp)
	re.GeoHr = make([]utils.Matrix, nqp)
	for iqp := 0; iqp < nqp; iqp++ {
		xi, _ := re.Quad.Point(iqp)
		copy(re.B.RowView(iqp), re.Basis.EvalAll(xi))
		copy(re.GeoB.RowView(iqp), re.Geom.Shape.EvalAll(xi))
		re.Dr[iqp] = re.Basis.EvalGradAll(xi)
		re.Hr[iqp] = re.Basis.EvalHessAll(xi)
		re.GeoDr[iqp] = re.Geom.Shape.EvalGradAll(xi)
		re.GeoHr[iqp] = re.Geom.Shape.EvalHessAll(xi)
	}
}

func (re *ReferenceElement) NumBasis() int { return re.Basis.NumBasis() }
func (re *ReferenceElement) NumQP() int    { return re.Quad.NumPoints() }

// TraceSample carries the concrete geometry of one face used to derive
// the shared side evaluation tables of a ReferenceTrace: the
// transformations and node lists of both neighboring elements and the
// face's geometric nodes in stored order. The trace key fully determines
// the resulting tables, so any face with a matching key may serve as the
// sample.
type TraceSample struct {
	TransL, TransR *geometry.ElementTransformation
	NodesL, NodesR []int
	FaceNodes      []int
}

// ReferenceTrace owns the quadrature rule, face basis and face geometry
// of one trace type, plus side evaluation tables mapping every face
// quadrature point into both neighboring reference domains. For the
// point faces of 1D elements Geom and TraceBasis are nil: the rule is a
// single unit-weight point and the trace basis degenerates to the
// constant 1.
type ReferenceTrace struct {
	Key        TraceKey
	Dim        int // dimension of the neighboring elements; the face is Dim-1
	Quad       *quadrature.Rule
	Geom       *geometry.ElementTransformation
	TraceBasis basis.Basis
	BasisL     basis.Basis
	BasisR     basis.Basis
	// FaceB/FaceDr tabulate the trace basis on the face reference domain,
	// FaceGeoB/FaceGeoDr the face's geometric shape functions.
	FaceB     utils.Matrix
	FaceDr    []utils.Matrix
	FaceGeoB  utils.Matrix
	FaceGeoDr []utils.Matrix
	// XiL/XiR row iqp is face quadrature point iqp mapped into the left
	// and right element reference domains; the remaining tables evaluate
	// each side's solution basis and geometric shape functions there.
	XiL, XiR       utils.Matrix
	BL, BR         utils.Matrix
	DrL, DrR       []utils.Matrix
	HrL, HrR       []utils.Matrix
	GeoBL, GeoBR   utils.Matrix
	GeoDrL, GeoDrR []utils.Matrix
	GeoHrL, GeoHrR []utils.Matrix
}

func newReferenceTrace(key TraceKey, ndim int, sample TraceSample) (rt *ReferenceTrace, err error) {
	var (
		fdim = ndim - 1
	)
	rt = &ReferenceTrace{Key: key, Dim: ndim}
	if rt.Quad, err = quadrature.New(key.Quadrature, key.FaceDomain, fdim, key.BasisOrder()); err != nil {
		rt = nil
		return
	}
	if fdim > 0 {
		if rt.Geom, err = geometry.NewTransformation(key.FaceDomain, fdim, key.GeomOrder()); err != nil {
			rt = nil
			return
		}
		if rt.TraceBasis, err = basis.New(key.Basis, key.FaceDomain, fdim, key.BasisOrder()); err != nil {
			rt = nil
			return
		}
	}
	if rt.BasisL, err = basis.New(key.Basis, key.DomainL, ndim, key.BasisOrderL); err != nil {
		rt = nil
		return
	}
	if rt.BasisR, err = basis.New(key.Basis, key.DomainR, ndim, key.BasisOrderR); err != nil {
		rt = nil
		return
	}
	if err = rt.tabulate(sample); err != nil {
		rt = nil
	}
	return
}

func (rt *ReferenceTrace) checkSample(sample TraceSample) (err error) {
	if sample.TransL.Domain != rt.Key.DomainL || sample.TransL.Order != rt.Key.GeomOrderL {
		err = fmt.Errorf("left transformation %s order %d does not match trace key %s order %d",
			sample.TransL.Domain.Print(), sample.TransL.Order,
			rt.Key.DomainL.Print(), rt.Key.GeomOrderL)
		return
	}
	if sample.TransR.Domain != rt.Key.DomainR || sample.TransR.Order != rt.Key.GeomOrderR {
		err = fmt.Errorf("right transformation %s order %d does not match trace key %s order %d",
			sample.TransR.Domain.Print(), sample.TransR.Order,
			rt.Key.DomainR.Print(), rt.Key.GeomOrderR)
		return
	}
	var nfn = 1
	if rt.Geom != nil {
		nfn = rt.Geom.NumNodes()
	}
	if len(sample.FaceNodes) != nfn {
		err = fmt.Errorf("face has %d geometric nodes, want %d", len(sample.FaceNodes), nfn)
	}
	return
}

func (rt *ReferenceTrace) tabulate(sample TraceSample) (err error) {
	if err = rt.checkSample(sample); err != nil {
		return
	}
	var (
		nqp       = rt.Quad.NumPoints()
		ndim      = rt.Dim
		nbL       = rt.BasisL.NumBasis()
		nbR       = rt.BasisR.NumBasis()
		ngeoL     = sample.TransL.NumNodes()
		ngeoR     = sample.TransR.NumNodes()
		faceVerts []int
	)
	// the face's corner nodes in the canonical vertex order of the face
	// reference domain; FaceToElementRef matches them against the corner
	// nodes of each side to recover the side reference coordinates
	if rt.Geom != nil {
		faceVerts = make([]int, len(rt.Geom.VertexNodes))
		for v, ln := range rt.Geom.VertexNodes {
			faceVerts[v] = sample.FaceNodes[ln]
		}
	} else {
		faceVerts = sample.FaceNodes
	}
	rt.XiL = utils.NewMatrix(nqp, ndim)
	rt.XiR = utils.NewMatrix(nqp, ndim)
	rt.BL = utils.NewMatrix(nqp, nbL)
	rt.BR = utils.NewMatrix(nqp, nbR)
	rt.GeoBL = utils.NewMatrix(nqp, ngeoL)
	rt.GeoBR = utils.NewMatrix(nqp, ngeoR)
	rt.DrL = make([]utils.Matrix, nqp)
	rt.DrR = make([]utils.Matrix, nqp)
	rt.HrL = make([]utils.Matrix, nqp)
	rt.HrR = make([]utils.Matrix, nqp)
	rt.GeoDrL = make([]utils.Matrix, nqp)
	rt.GeoDrR = make([]utils.Matrix, nqp)
	rt.GeoHrL = make([]utils.Matrix, nqp)
	rt.GeoHrR = make([]utils.Matrix, nqp)
	rt.FaceB = utils.NewMatrix(nqp, rt.NumBasisTrace())
	if rt.TraceBasis != nil {
		rt.FaceDr = make([]utils.Matrix, nqp)
		rt.FaceGeoB = utils.NewMatrix(nqp, rt.Geom.NumNodes())
		rt.FaceGeoDr = make([]utils.Matrix, nqp)
	}
	for iqp := 0; iqp < nqp; iqp++ {
		var (
			s, _     = rt.Quad.Point(iqp)
			xiL, xiR []float64
		)
		if xiL, err = geometry.FaceToElementRef(sample.TransL, sample.NodesL, faceVerts, s); err != nil {
			return
		}
		if xiR, err = geometry.FaceToElementRef(sample.TransR, sample.NodesR, faceVerts, s); err != nil {
			return
		}
		copy(rt.XiL.RowView(iqp), xiL)
		copy(rt.XiR.RowView(iqp), xiR)
		copy(rt.BL.RowView(iqp), rt.BasisL.EvalAll(xiL))
		copy(rt.BR.RowView(iqp), rt.BasisR.EvalAll(xiR))
		copy(rt.GeoBL.RowView(iqp), sample.TransL.Shape.EvalAll(xiL))
		copy(rt.GeoBR.RowView(iqp), sample.TransR.Shape.EvalAll(xiR))
		rt.DrL[iqp] = rt.BasisL.EvalGradAll(xiL)
		rt.DrR[iqp] = rt.BasisR.EvalGradAll(xiR)
		rt.HrL[iqp] = rt.BasisL.EvalHessAll(xiL)
		rt.HrR[iqp] = rt.BasisR.EvalHessAll(xiR)
		rt.GeoDrL[iqp] = sample.TransL.Shape.EvalGradAll(xiL)
		rt.GeoDrR[iqp] = sample.TransR.Shape.EvalGradAll(xiR)
		rt.GeoHrL[iqp] = sample.TransL.Shape.EvalHessAll(xiL)
		rt.GeoHrR[iqp] = sample.TransR.Shape.EvalHessAll(xiR)
		if rt.TraceBasis != nil {
			copy(rt.FaceB.RowView(iqp), rt.TraceBasis.EvalAll(s))
			rt.FaceDr[iqp] = rt.TraceBasis.EvalGradAll(s)
			copy(rt.FaceGeoB.RowView(iqp), rt.Geom.Shape.EvalAll(s))
			rt.FaceGeoDr[iqp] = rt.Geom.Shape.EvalGradAll(s)
		} else {
			rt.FaceB.DataP[iqp] = 1
		}
	}
	return
}

func (rt *ReferenceTrace) NumQP() int { return rt.Quad.NumPoints() }

// NumBasisTrace is the size of the basis living on the face itself,
// used by interface-conservation residuals.
func (rt *ReferenceTrace) NumBasisTrace() int {
	if rt.TraceBasis == nil {
		return 1
	}
	return rt.TraceBasis.NumBasis()
}

// Cache memoizes reference elements and reference traces per distinct
// type key. Entries are appended to arena slices so that returned
// pointers stay valid for the cache's lifetime; the maps only index into
// the arenas. Get-or-create is idempotent: a second request with the
// same key returns the existing entry without recomputation.
// Construction is single threaded; once a space is built the cache is
// read only and safe to share.
type Cache struct {
	Dim      int
	elements []*ReferenceElement
	traces   []*ReferenceTrace
	elemIdx  map[ElementKey]int
	traceIdx map[TraceKey]int
}

func NewCache(ndim int) (c *Cache) {
	c = &Cache{
		Dim:      ndim,
		elemIdx:  make(map[ElementKey]int),
		traceIdx: make(map[TraceKey]int),
	}
	return
}

// Element returns the shared reference element for key, constructing it
// on first request. Unsupported key combinations surface as construction
// errors here rather than as nil tables discovered on first use.
func (c *Cache) Element(key ElementKey) (re *ReferenceElement, err error) {
	if idx, ok := c.elemIdx[key]; ok {
		re = c.elements[idx]
		return
	}
	if re, err = newReferenceElement(key, c.Dim); err != nil {
		return
	}
	c.elemIdx[key] = len(c.elements)
	c.elements = append(c.elements, re)
	return
}

// Trace returns the shared reference trace for key, constructing it
// from sample on first request. The key fully determines the resulting
// tables, so which concrete face provides the sample is immaterial.
func (c *Cache) Trace(key TraceKey, sample TraceSample) (rt *ReferenceTrace, err error) {
	if idx, ok := c.traceIdx[key]; ok {
		rt = c.traces[idx]
		return
	}
	if rt, err = newReferenceTrace(key, c.Dim, sample); err != nil {
		return
	}
	c.traceIdx[key] = len(c.traces)
	c.traces = append(c.traces, rt)
	return
}

func (c *Cache) NumElementTypes() int { return len(c.elements) }
func (c *Cache) NumTraceTypes() int   { return len(c.traces) }
