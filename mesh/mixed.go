package mesh

import (
	"fmt"

	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

// MixedUniformMesh2D builds a uniform 2D mesh with quad elements in a
// border band and pairs of triangles filling the rest. quadRatio[d] is
// the fraction of cells along axis d kept as quads, split evenly
// between the two sides; ratio 1 yields an all-quad mesh, ratio 0 an
// all-triangle one away from the border given by the other axis. bcs
// holds the boundary conditions in the order left, bottom, right, top.
func MixedUniformMesh2D(nelem []int, xmin, xmax []float64, quadRatio []float64, bcs []BC) (m *Mesh, err error) {
	if len(nelem) != 2 || len(xmin) != 2 || len(xmax) != 2 || len(quadRatio) != 2 {
		err = fmt.Errorf("mixed uniform mesh is 2D: need 2 entries in nelem, xmin, xmax and quadRatio")
		return
	}
	if len(bcs) != 4 {
		err = fmt.Errorf("need 4 boundary conditions (left, bottom, right, top), have %d", len(bcs))
		return
	}
	for d := 0; d < 2; d++ {
		if nelem[d] < 1 {
			err = fmt.Errorf("need at least one element along axis %d", d)
			return
		}
		if xmax[d] <= xmin[d] {
			err = fmt.Errorf("degenerate bounding box along axis %d", d)
			return
		}
	}
	m = &Mesh{Dim: 2}

	var (
		dx     = (xmax[0] - xmin[0]) / float64(nelem[0])
		dy     = (xmax[1] - xmin[1]) / float64(nelem[1])
		nnodex = nelem[0] + 1
		nnodey = nelem[1] + 1
	)
	m.Coords = utils.NewMatrix(nnodex*nnodey, 2)
	for iy := 0; iy < nnodey; iy++ {
		for ix := 0; ix < nnodex; ix++ {
			n := iy*nnodex + ix
			m.Coords.DataP[2*n] = xmin[0] + float64(ix)*dx
			m.Coords.DataP[2*n+1] = xmin[1] + float64(iy)*dy
		}
	}

	var (
		halfQuadX = int(float64(nelem[0]) * quadRatio[0] / 2)
		halfQuadY = int(float64(nelem[1]) * quadRatio[1] / 2)
	)
	for ixquad := 0; ixquad < nelem[0]; ixquad++ {
		for iyquad := 0; iyquad < nelem[1]; iyquad++ {
			var (
				bottomleft  = iyquad*nnodex + ixquad
				bottomright = iyquad*nnodex + ixquad + 1
				topleft     = (iyquad+1)*nnodex + ixquad
				topright    = (iyquad+1)*nnodex + ixquad + 1
			)
			isQuad := ixquad < halfQuadX ||
				(nelem[0]-ixquad) <= halfQuadX ||
				iyquad < halfQuadY ||
				(nelem[1]-iyquad) <= halfQuadY
			if isQuad {
				m.Elements = append(m.Elements, Element{
					Domain: types.HYPERCUBE,
					Order:  1,
					Nodes:  []int{bottomleft, topleft, bottomright, topright},
				})
			} else {
				m.Elements = append(m.Elements,
					Element{
						Domain: types.SIMPLEX,
						Order:  1,
						Nodes:  []int{bottomleft, bottomright, topleft},
					},
					Element{
						Domain: types.SIMPLEX,
						Order:  1,
						Nodes:  []int{topleft, bottomright, topright},
					})
			}
		}
	}

	if err = m.FindInteriorFaces(); err != nil {
		return
	}
	m.InteriorFaceStart = 0
	m.InteriorFaceEnd = len(m.Faces)
	m.BdyFaceStart = len(m.Faces)

	// candidate boundary segments with their conditions, matched against
	// element faces below
	type bseg struct {
		nodes [2]int
		bc    BC
	}
	var cands []bseg
	for ixquad := 0; ixquad < nelem[0]; ixquad++ {
		cands = append(cands,
			bseg{[2]int{ixquad, ixquad + 1}, bcs[1]},
			bseg{[2]int{nelem[1]*nnodex + ixquad, nelem[1]*nnodex + ixquad + 1}, bcs[3]})
	}
	for iyquad := 0; iyquad < nelem[1]; iyquad++ {
		cands = append(cands,
			bseg{[2]int{iyquad * nnodex, (iyquad + 1) * nnodex}, bcs[0]},
			bseg{[2]int{iyquad*nnodex + nelem[0], (iyquad+1)*nnodex + nelem[0]}, bcs[2]})
	}
	tc := transCache{}
	for iel := range m.Elements {
		for i := 0; i < len(cands); i++ {
			var (
				faceNr int
				found  bool
			)
			if faceNr, found, err = m.boundaryFaceInfo(tc, iel, cands[i].nodes[:]); err != nil {
				return
			}
			if !found {
				continue
			}
			var fc Face
			if fc, err = m.buildBoundaryFace(iel, faceNr, cands[i].bc); err != nil {
				return
			}
			m.Faces = append(m.Faces, fc)
			cands = append(cands[:i], cands[i+1:]...)
			i--
		}
	}
	if len(cands) > 0 {
		err = fmt.Errorf("%d boundary segments match no element face, first is %v",
			len(cands), cands[0].nodes)
		return
	}
	m.BdyFaceEnd = len(m.Faces)
	return
}
