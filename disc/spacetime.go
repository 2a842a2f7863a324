package disc

import (
	"fmt"
	"math"
	"sort"

	"github.com/numflux/galerkin/element"
	"github.com/numflux/galerkin/fespace"
	"github.com/numflux/galerkin/mesh"
	"github.com/numflux/galerkin/types"
)

// stNodeTol bounds the spatial mismatch allowed when identifying a
// node on the past slab's outflow with one on the current slab's
// inflow.
const stNodeTol = 1.e-8

// SpacetimeInfo carries everything a slab needs from its predecessor:
// the past finite element space, its converged solution, and the
// pairing from each SPACETIME_PAST trace of the current slab to the
// SPACETIME_FUTURE trace of the past slab it inherits data from.
type SpacetimeInfo struct {
	FespacePast *fespace.FESpace
	UPast       []float64
	// ConnectionTraces maps a current-slab trace index to the past
	// trace whose right element supplies the exterior state.
	ConnectionTraces map[int]*element.TraceSpace
}

// ComputeSTNodeConnectivity matches the nodes on the current slab's
// past-facing boundary with the nodes on the previous slab's
// future-facing boundary. Both slabs discretize space x time with the
// last coordinate as time, so two nodes connect when every spatial
// coordinate agrees within tolerance; the time coordinates differ by
// construction. The returned map takes current-mesh node indices to
// past-mesh node indices.
func ComputeSTNodeConnectivity(meshPast, meshCurrent *mesh.Mesh) (conn map[int]int, err error) {
	ndim := meshCurrent.Dim
	if ndim < 2 {
		err = fmt.Errorf("spacetime connectivity requires a space-time mesh, got dimension %d", ndim)
		return
	}
	if meshPast.Dim != ndim {
		err = fmt.Errorf("slab dimensions differ: past %d, current %d", meshPast.Dim, ndim)
		return
	}
	pastNodes := boundaryNodes(meshPast, types.SPACETIME_FUTURE)
	currentNodes := boundaryNodes(meshCurrent, types.SPACETIME_PAST)
	conn = make(map[int]int, len(currentNodes))
	for _, inode := range currentNodes {
		found := false
		for _, ipast := range pastNodes {
			match := true
			for idim := 0; idim < ndim-1; idim++ {
				if math.Abs(meshCurrent.Coords.At(inode, idim)-meshPast.Coords.At(ipast, idim)) > stNodeTol {
					match = false
					break
				}
			}
			if match {
				conn[inode] = ipast
				found = true
				break
			}
		}
		if !found {
			err = fmt.Errorf("node %d on the past-facing boundary has no spatial twin on the previous slab", inode)
			return
		}
	}
	return
}

// boundaryNodes lists, in ascending order, the mesh nodes lying on
// faces tagged with the given boundary condition.
func boundaryNodes(msh *mesh.Mesh, bc types.BCType) (nodes []int) {
	seen := make(map[int]bool)
	for ifac := msh.BdyFaceStart; ifac < msh.BdyFaceEnd; ifac++ {
		fc := &msh.Faces[ifac]
		if fc.BCType != bc {
			continue
		}
		for _, n := range fc.Nodes {
			if !seen[n] {
				seen[n] = true
				nodes = append(nodes, n)
			}
		}
	}
	sort.Ints(nodes)
	return
}

// nodeSetKey canonicalizes a face's node list so faces can be matched
// regardless of traversal order.
func nodeSetKey(nodes []int) string {
	s := append([]int(nil), nodes...)
	sort.Ints(s)
	return fmt.Sprint(s)
}

// NewSpacetimeInfo pairs every SPACETIME_PAST trace of the current
// slab with the SPACETIME_FUTURE trace of the past slab covering the
// same spatial patch, using the node connectivity from
// ComputeSTNodeConnectivity. uPast is the past slab's solution laid
// out by its DG dof map.
func NewSpacetimeInfo(fesPast, fesCurrent *fespace.FESpace, uPast []float64, currToPast map[int]int) (st *SpacetimeInfo, err error) {
	st = &SpacetimeInfo{
		FespacePast:      fesPast,
		UPast:            uPast,
		ConnectionTraces: make(map[int]*element.TraceSpace),
	}
	// index the past slab's future-facing traces by canonical node set
	pastByNodes := make(map[string]*element.TraceSpace)
	for _, tsPast := range fesPast.BoundaryTraces() {
		if tsPast.BCType != types.SPACETIME_FUTURE {
			continue
		}
		pastByNodes[nodeSetKey(fesPast.Mesh.Faces[tsPast.Index].Nodes)] = tsPast
	}
	for _, ts := range fesCurrent.BoundaryTraces() {
		if ts.BCType != types.SPACETIME_PAST {
			continue
		}
		faceNodes := fesCurrent.Mesh.Faces[ts.Index].Nodes
		mapped := make([]int, len(faceNodes))
		for i, n := range faceNodes {
			ipast, ok := currToPast[n]
			if !ok {
				err = fmt.Errorf("trace %d: node %d missing from the slab connectivity", ts.Index, n)
				return
			}
			mapped[i] = ipast
		}
		tsPast, ok := pastByNodes[nodeSetKey(mapped)]
		if !ok {
			err = fmt.Errorf("trace %d: no future-facing trace on the past slab covers its patch", ts.Index)
			return
		}
		st.ConnectionTraces[ts.Index] = tsPast
	}
	return
}
