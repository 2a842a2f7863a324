package mesh

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/james-bowman/sparse"

	"github.com/numflux/galerkin/geometry"
	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

type transKey struct {
	dt    types.DomainType
	order int
}

type transCache map[transKey]*geometry.ElementTransformation

func (tc transCache) get(dt types.DomainType, ndim, order int) (tr *geometry.ElementTransformation, err error) {
	var ok bool
	if tr, ok = tc[transKey{dt, order}]; ok {
		return
	}
	if tr, err = geometry.NewTransformation(dt, ndim, order); err != nil {
		return
	}
	tc[transKey{dt, order}] = tr
	return
}

// faceVertexSet lists the global corner vertex ids of local face faceNr
// of element iel, sorted ascending for set comparison.
func (m *Mesh) faceVertexSet(tc transCache, iel, faceNr int) (verts []int, err error) {
	var (
		el = m.Elements[iel]
		tr *geometry.ElementTransformation
	)
	if tr, err = tc.get(el.Domain, m.Dim, el.Order); err != nil {
		return
	}
	vnums := geometry.FaceVertices(el.Domain, m.Dim, faceNr)
	verts = make([]int, len(vnums))
	for i, v := range vnums {
		verts[i] = el.Nodes[tr.VertexNodes[v]]
	}
	sort.Ints(verts)
	return
}

func sameVertexSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 2 {
		return types.NewFaceKey([2]int{a[0], a[1]}) == types.NewFaceKey([2]int{b[0], b[1]})
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FindInteriorFaces discovers and appends every face shared by two
// elements. Candidate element pairs are found from the element-vertex
// incidence matrix: pairs whose product entry counts at least Dim
// shared vertices can share a face, and each candidate is confirmed by
// matching local face vertex sets on both sides. The caller sets the
// face range markers afterwards.
func (m *Mesh) FindInteriorFaces() (err error) {
	var (
		ne = m.NumElements()
		nv = m.NumNodes()
		tc = transCache{}
	)
	SpEToVTmp := sparse.NewDOK(ne, nv)
	for iel, el := range m.Elements {
		var tr *geometry.ElementTransformation
		if tr, err = tc.get(el.Domain, m.Dim, el.Order); err != nil {
			return
		}
		for _, loc := range tr.VertexNodes {
			SpEToVTmp.Set(iel, el.Nodes[loc], 1)
		}
	}
	SpEToE := sparse.NewCSR(ne, ne, nil, nil, nil)
	SpEToV := SpEToVTmp.ToCSR()
	SpEToE.Mul(SpEToV, SpEToV.T())

	// MatFind walks row-major, so candidate pairs arrive in
	// deterministic discovery order
	cands := utils.MatFind(SpEToE, utils.GreaterOrEqual, float64(m.Dim))
	for k := 0; k < cands.Len; k++ {
		ei, ej := cands.RI[k], cands.CI[k]
		if ei >= ej {
			continue
		}
		var (
			nfL = geometry.NumFaces(m.Elements[ei].Domain, m.Dim)
			nfR = geometry.NumFaces(m.Elements[ej].Domain, m.Dim)
		)
	matched:
		for fl := 0; fl < nfL; fl++ {
			var vl, vr []int
			if vl, err = m.faceVertexSet(tc, ei, fl); err != nil {
				return
			}
			for fr := 0; fr < nfR; fr++ {
				if vr, err = m.faceVertexSet(tc, ej, fr); err != nil {
					return
				}
				if sameVertexSet(vl, vr) {
					var fc Face
					if fc, err = m.buildInteriorFace(ei, ej, fl, fr); err != nil {
						return
					}
					m.Faces = append(m.Faces, fc)
					break matched
				}
			}
		}
	}
	return
}

// boundaryFaceInfo reports which local face of element iel, if any, has
// exactly the given vertex set.
func (m *Mesh) boundaryFaceInfo(tc transCache, iel int, verts []int) (faceNr int, found bool, err error) {
	var (
		el     = m.Elements[iel]
		sorted = make([]int, len(verts))
	)
	copy(sorted, verts)
	sort.Ints(sorted)
	for f := 0; f < geometry.NumFaces(el.Domain, m.Dim); f++ {
		var fv []int
		if fv, err = m.faceVertexSet(tc, iel, f); err != nil {
			return
		}
		if sameVertexSet(fv, sorted) {
			faceNr, found = f, true
			return
		}
	}
	return
}

// FlagBoundaryNodes marks every node that lies on a non-interior face.
func (m *Mesh) FlagBoundaryNodes() (isBoundary []bool) {
	isBoundary = make([]bool, m.NumNodes())
	for _, fc := range m.Faces {
		if fc.BCType != types.INTERIOR {
			for _, n := range fc.Nodes {
				isBoundary[n] = true
			}
		}
	}
	return
}

// ValidateNormals checks the orientation convention at every face
// centroid: the normal must point away from the left element's centroid
// and, for interior faces, toward the right element's. Faces violating
// this land in invalid.
func (m *Mesh) ValidateNormals() (invalid []int, err error) {
	var (
		dot = func(a, b []float64) (s float64) {
			for i := range a {
				s += a[i] * b[i]
			}
			return
		}
		check func(ifac int, interior bool) error
	)
	check = func(ifac int, interior bool) (err error) {
		var (
			fc                 = m.Faces[ifac]
			cFac, cL, cR, nrml []float64
		)
		if cFac, err = m.FaceCentroid(ifac); err != nil {
			return
		}
		if cL, err = m.ElementCentroid(fc.ElemL); err != nil {
			return
		}
		s := []float64(nil)
		if m.Dim > 1 {
			s = geometry.RefCentroid(fc.Domain, m.Dim-1)
		}
		if nrml, err = m.CalcNormal(ifac, s); err != nil {
			return
		}
		internalL := make([]float64, m.Dim)
		for d := 0; d < m.Dim; d++ {
			internalL[d] = cL[d] - cFac[d]
		}
		if dot(nrml, internalL) > 0 {
			invalid = append(invalid, ifac)
			return
		}
		if interior {
			if cR, err = m.ElementCentroid(fc.ElemR); err != nil {
				return
			}
			internalR := make([]float64, m.Dim)
			for d := 0; d < m.Dim; d++ {
				internalR[d] = cR[d] - cFac[d]
			}
			if dot(nrml, internalR) < 0 {
				invalid = append(invalid, ifac)
			}
		}
		return
	}
	for ifac := m.InteriorFaceStart; ifac < m.InteriorFaceEnd; ifac++ {
		if err = check(ifac, true); err != nil {
			return
		}
	}
	for ifac := m.BdyFaceStart; ifac < m.BdyFaceEnd; ifac++ {
		if err = check(ifac, false); err != nil {
			return
		}
	}
	return
}

// BoundingBox is the axis-aligned bounding box of all mesh nodes.
func (m *Mesh) BoundingBox() (xmin, xmax []float64) {
	xmin = make([]float64, m.Dim)
	xmax = make([]float64, m.Dim)
	for d := 0; d < m.Dim; d++ {
		xmin[d] = math.Inf(1)
		xmax[d] = math.Inf(-1)
	}
	for n := 0; n < m.NumNodes(); n++ {
		for d := 0; d < m.Dim; d++ {
			x := m.Coords.DataP[n*m.Dim+d]
			xmin[d] = math.Min(xmin[d], x)
			xmax[d] = math.Max(xmax[d], x)
		}
	}
	return
}

// PerturbFunc maps a node's current coordinates xin to perturbed
// coordinates xout. The two slices never alias.
type PerturbFunc func(xin, xout []float64)

// PerturbNodes applies perturb to every node not flagged in fixed. A
// nil fixed slice leaves all nodes free.
func (m *Mesh) PerturbNodes(perturb PerturbFunc, fixed []bool) {
	var (
		nn  = m.NumNodes()
		old = make([]float64, m.Dim)
	)
	for n := 0; n < nn; n++ {
		if fixed != nil && fixed[n] {
			continue
		}
		row := m.Coords.DataP[n*m.Dim : (n+1)*m.Dim]
		copy(old, row)
		perturb(old, row)
	}
}

// RandomPerturb jitters each coordinate by an independent uniform
// deviate in [minPerturb, maxPerturb].
func RandomPerturb(rnd *rand.Rand, minPerturb, maxPerturb float64) PerturbFunc {
	return func(xin, xout []float64) {
		for d := range xin {
			xout[d] = xin[d] + minPerturb + (maxPerturb-minPerturb)*rnd.Float64()
		}
	}
}

// TaylorGreenPerturb advects nodes through the Taylor-Green vortex
// velocity field for one time unit of explicit pseudo-timestepping,
// centered on the box [xmin, xmax] and damped away from the center. L
// is the vortex length scale relative to the domain. Needs at least two
// dimensions.
func TaylorGreenPerturb(v0 float64, xmin, xmax []float64, L float64) PerturbFunc {
	var (
		ndim   = len(xmin)
		center = make([]float64, ndim)
		dlen   float64
	)
	if ndim < 2 {
		panic(fmt.Errorf("Taylor-Green perturbation needs at least 2 dimensions, have %d", ndim))
	}
	for d := 0; d < ndim; d++ {
		center[d] = 0.5 * (xmin[d] + xmax[d])
		dlen = math.Max(dlen, xmax[d]-xmin[d])
	}
	return func(xin, xout []float64) {
		copy(xout, xin)
		var (
			dt = 1. / 100
			t  = 0.
		)
		for t < 1 {
			if t+dt > 1 {
				dt = 1 - t
			}
			if ndim == 2 {
				var (
					x    = (xout[0] - center[0]) / dlen
					y    = (xout[1] - center[1]) / dlen
					mult = v0 * math.Exp(-(x*x+y*y)/0.3)
					u    = mult * math.Cos(L*math.Pi*x) * math.Sin(L*math.Pi*y)
					v    = -mult * math.Sin(L*math.Pi*x) * math.Cos(L*math.Pi*y)
				)
				xout[0] += dt * u
				xout[1] += dt * v
			} else {
				var (
					x    = (xout[0] - center[0]) / dlen
					y    = (xout[1] - center[1]) / dlen
					z    = (xout[2] - center[2]) / dlen
					mult = v0 * math.Exp(-(x*x+y*y+z*z)/0.5)
					u    = mult * math.Cos(L*math.Pi*x) * math.Sin(L*math.Pi*y) * math.Sin(L*math.Pi*z)
					v    = -mult * math.Sin(L*math.Pi*x) * math.Cos(L*math.Pi*y) * math.Sin(L*math.Pi*z)
					w    = mult * math.Sin(L*math.Pi*x) * math.Sin(L*math.Pi*y) * math.Cos(L*math.Pi*z)
				)
				xout[0] += dt * u
				xout[1] += dt * v
				xout[2] += dt * w
			}
			t += dt
		}
	}
}

// ZigZagPerturb maps the unit square onto a zig-zag pattern of five
// x-bands, pinching the y = 0.5 line alternately toward 0.3 and 0.7.
// Intended for interface-alignment experiments on [0,1]^2.
func ZigZagPerturb() PerturbFunc {
	blend := func(a1, a2, xref, yp float64) float64 {
		var yout1, yout2 float64
		if yp < 0.5 {
			yout1 = yp * a1 / 0.5
			yout2 = yp * a2 / 0.5
		} else {
			yout1 = 2*(1-a1)*(yp-1) + 1
			yout2 = 2*(1-a2)*(yp-1) + 1
		}
		return xref*yout2 + (1-xref)*yout1
	}
	return func(xin, xout []float64) {
		var (
			xp = xin[0]
			yp = xin[1]
		)
		copy(xout, xin)
		switch {
		case xp < 0.2:
			if yp < 0.5 {
				xout[1] = yp * 0.3 / 0.5
			} else {
				xref := xp / 0.2
				xout[1] = (1.39+0.01*xref)*(yp-1) + 1
			}
		case xp < 0.4:
			xout[1] = blend(0.3, 0.7, (xp-0.2)/0.2, yp)
		case xp < 0.6:
			xout[1] = blend(0.7, 0.3, (xp-0.4)/0.2, yp)
		case xp < 0.8:
			xout[1] = blend(0.3, 0.7, (xp-0.6)/0.2, yp)
		default:
			xref := (xp - 0.8) / 0.2
			var yout1, yout2 float64
			if yp < 0.5 {
				yout1 = yp * 0.7 / 0.5
				yout2 = yp * (0.7 - 0.01) / 0.5
			} else {
				yout1 = 2*(1-0.7)*(yp-1) + 1
				yout2 = 2*(1-0.7)*(yp-1) + 1
			}
			xout[1] = xref*yout2 + (1-xref)*yout1
		}
	}
}
