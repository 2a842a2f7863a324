package geometry

import (
	"fmt"
	"math"

	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"

	"gonum.org/v1/gonum/mat"
)

// NumFaces is the face count of the reference element: 2*ndim sides for
// a hypercube, ndim+1 for a simplex.
func NumFaces(dt types.DomainType, ndim int) int {
	if dt == types.HYPERCUBE {
		return 2 * ndim
	}
	return ndim + 1
}

// FaceDomain is the reference domain shape of the (ndim-1)-dimensional
// faces of an element: every 2D element has segment faces, hypercubes
// have hypercube faces and simplices simplex faces above that.
func FaceDomain(dt types.DomainType, ndim int) types.DomainType {
	if ndim-1 <= 1 {
		return types.HYPERCUBE
	}
	return dt
}

// FaceVertices lists the canonical vertex numbers lying on face faceNr.
// Hypercube face f < ndim is the -1 side of axis f and face ndim+f the
// +1 side; simplex face f is the face opposite vertex f. The result is
// a vertex set for adjacency matching, not an orientation.
func FaceVertices(dt types.DomainType, ndim, faceNr int) (verts []int) {
	switch dt {
	case types.HYPERCUBE:
		var (
			axis = faceNr % ndim
			side = faceNr / ndim
		)
		for v := 0; v < utils.IntPow(2, ndim); v++ {
			if v>>(ndim-axis-1)&1 == side {
				verts = append(verts, v)
			}
		}
	case types.SIMPLEX:
		for v := 0; v <= ndim; v++ {
			if v != faceNr {
				verts = append(verts, v)
			}
		}
	}
	return
}

// FaceNodes lists the element-local geometric node indices on face
// faceNr, ordered so that a traversal in list order carries the outward
// normal on the right (CalcOrtho of the traversal direction points out
// of the element). Supported for 1D and 2D element shapes; faces of 3D
// and higher elements return an explicit error.
func FaceNodes(dt types.DomainType, ndim, order, faceNr int) (locals []int, err error) {
	if faceNr < 0 || faceNr >= NumFaces(dt, ndim) {
		err = fmt.Errorf("face number %d out of range for %s in %dD", faceNr, dt.Print(), ndim)
		return
	}
	switch {
	case ndim == 1 && dt == types.HYPERCUBE:
		if faceNr == 0 {
			locals = []int{0}
		} else {
			locals = []int{order}
		}
	case ndim == 2 && dt == types.HYPERCUBE:
		var (
			n1 = order + 1
		)
		locals = make([]int, n1)
		for t := 0; t <= order; t++ {
			switch faceNr {
			case 0: // -x side, descending eta
				locals[t] = order - t
			case 1: // -y side, ascending xi
				locals[t] = t * n1
			case 2: // +x side, ascending eta
				locals[t] = order*n1 + t
			case 3: // +y side, descending xi
				locals[t] = (order-t)*n1 + order
			}
		}
	case ndim == 2 && dt == types.SIMPLEX:
		// counterclockwise boundary traversal: face f is opposite
		// vertex f, walked from vertex (f+1)%3 to vertex (f+2)%3
		var (
			a   = (faceNr + 1) % 3
			b   = (faceNr + 2) % 3
			pos = simplexIndexPositions(2, order)
		)
		locals = make([]int, order+1)
		for t := 0; t <= order; t++ {
			alpha := [3]int{}
			alpha[a] = order - t
			alpha[b] = t
			locals[t] = pos[alpha[0]*(order+1)*(order+1)+alpha[1]*(order+1)+alpha[2]]
		}
	case ndim == 3 && dt == types.HYPERCUBE:
		// the two in-face axes parameterize the face quad; their order is
		// chosen so the cross product of the tangents points outward
		var (
			axis = faceNr % ndim
			side = faceNr / ndim
			n1   = order + 1
			t1   = (axis + 1) % 3
			t2   = (axis + 2) % 3
		)
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		eps := 1
		if axis == 1 {
			eps = -1 // (1,0,2) is an odd permutation
		}
		sigma := -1
		if side == 1 {
			sigma = 1
		}
		if eps != sigma {
			t1, t2 = t2, t1
		}
		locals = make([]int, n1*n1)
		idx := [3]int{}
		idx[axis] = side * order
		for u := 0; u <= order; u++ {
			for v := 0; v <= order; v++ {
				idx[t1], idx[t2] = u, v
				locals[u*n1+v] = idx[0]*n1*n1 + idx[1]*n1 + idx[2]
			}
		}
	default:
		err = fmt.Errorf("no face node enumeration for %s faces in %dD", dt.Print(), ndim)
	}
	return
}

// simplexIndexPositions maps an encoded barycentric multi-index to its
// position in the descending lexicographic enumeration.
func simplexIndexPositions(ndim, order int) (pos map[int]int) {
	var (
		n1  = order + 1
		cur = make([]int, ndim+1)
		cnt int
	)
	pos = make(map[int]int)
	var recurse func(slot, rem int)
	recurse = func(slot, rem int) {
		if slot == ndim {
			cur[slot] = rem
			key := 0
			for _, a := range cur {
				key = key*n1 + a
			}
			pos[key] = cnt
			cnt++
			return
		}
		for v := rem; v >= 0; v-- {
			cur[slot] = v
			recurse(slot+1, rem-v)
		}
	}
	recurse(0, order)
	return
}

// PointFaceNormal is the outward normal of a 1D element's vertex face:
// face 0 sits at xi=-1, face 1 at xi=+1.
func PointFaceNormal(faceNr int) float64 {
	if faceNr == 0 {
		return -1
	}
	return 1
}

// CalcOrtho computes the area-scaled normal of a face from its
// d x (d-1) Jacobian: component i is the signed minor determinant
// obtained by deleting row i. The Euclidean norm of the result is the
// Riemannian area element sqrt(det(J^T J)), so weighting quadrature
// with |n| and using n/|n| as the unit normal needs no second
// factorization.
func CalcOrtho(J utils.Matrix) (nrml []float64) {
	var (
		nd, _ = J.Dims()
	)
	nrml = make([]float64, nd)
	switch nd {
	case 2:
		nrml[0] = J.DataP[1]
		nrml[1] = -J.DataP[0]
	case 3:
		nrml[0] = J.At(1, 0)*J.At(2, 1) - J.At(1, 1)*J.At(2, 0)
		nrml[1] = -(J.At(0, 0)*J.At(2, 1) - J.At(0, 1)*J.At(2, 0))
		nrml[2] = J.At(0, 0)*J.At(1, 1) - J.At(0, 1)*J.At(1, 0)
	default:
		for i := 0; i < nd; i++ {
			minor := mat.NewDense(nd-1, nd-1, nil)
			for r, rr := 0, 0; r < nd; r++ {
				if r == i {
					continue
				}
				for c := 0; c < nd-1; c++ {
					minor.Set(rr, c, J.At(r, c))
				}
				rr++
			}
			nrml[i] = mat.Det(minor)
			if i%2 == 1 {
				nrml[i] = -nrml[i]
			}
		}
	}
	return
}

// Norm is the Euclidean length of a coordinate vector.
func Norm(v []float64) (n float64) {
	for _, x := range v {
		n += x * x
	}
	return math.Sqrt(n)
}

// FaceToElementRef maps a face-reference point s into an element's
// reference domain by blending the reference coordinates of the
// element's vertices that lie on the face. faceVerts carries the face's
// global vertex ids in face-canonical order; elemNodes the element's
// global node ids. Reference-domain faces are flat, so the blend is
// exact for any geometric order.
func FaceToElementRef(tr *ElementTransformation, elemNodes, faceVerts []int, s []float64) (xi []float64, err error) {
	var (
		ndim = tr.Dim
		X    = make([][]float64, len(faceVerts))
	)
	for k, gv := range faceVerts {
		found := false
		for v, ln := range tr.VertexNodes {
			if elemNodes[ln] == gv {
				X[k] = tr.VertexRef.RowView(v)
				found = true
				break
			}
		}
		if !found {
			err = fmt.Errorf("face vertex %d is not a vertex of the element", gv)
			return
		}
	}
	xi = make([]float64, ndim)
	switch len(faceVerts) {
	case 1: // vertex face of a 1D element
		copy(xi, X[0])
	case 2: // segment
		for i := 0; i < ndim; i++ {
			xi[i] = 0.5*(1-s[0])*X[0][i] + 0.5*(1+s[0])*X[1][i]
		}
	case 3: // triangle, barycentric blend
		for i := 0; i < ndim; i++ {
			xi[i] = (1-s[0]-s[1])*X[0][i] + s[0]*X[1][i] + s[1]*X[2][i]
		}
	case 4: // quadrilateral, bilinear blend with the last axis fastest
		for i := 0; i < ndim; i++ {
			xi[i] = 0.25 * ((1-s[0])*(1-s[1])*X[0][i] +
				(1-s[0])*(1+s[1])*X[1][i] +
				(1+s[0])*(1-s[1])*X[2][i] +
				(1+s[0])*(1+s[1])*X[3][i])
		}
	default:
		err = fmt.Errorf("unsupported face vertex count %d", len(faceVerts))
	}
	return
}
