package mesh

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/numflux/galerkin/types"
	"github.com/numflux/galerkin/utils"
)

func TestUniformMesh2D(t *testing.T) {
	var (
		bcs = []BC{
			{types.DIRICHLET, 0},
			{types.NEUMANN, 1},
			{types.EXTRAPOLATION, 0},
			{types.DIRICHLET, 2},
		}
	)
	m, err := NewUniformMesh(2, []int{4, 4}, []float64{0, 0}, []float64{1, 1}, 1, bcs)
	assert.NoError(t, err)
	assert.Equal(t, 25, m.NumNodes())
	assert.Equal(t, 16, m.NumElements())
	assert.Equal(t, 40, m.NumFaces())
	assert.Equal(t, 0, m.InteriorFaceStart)
	assert.Equal(t, 24, m.InteriorFaceEnd)
	assert.Equal(t, 24, m.BdyFaceStart)
	assert.Equal(t, 40, m.BdyFaceEnd)

	// nodes run x fastest over the 5x5 lattice
	assert.True(t, nearVec(m.Coords.RowView(7), []float64{0.5, 0.25}))
	assert.True(t, nearVec(m.Coords.RowView(24), []float64{1, 1}))

	// element 0 holds the lower left cell with nodes bl, tl, br, tr
	assert.Equal(t, []int{0, 5, 1, 6}, m.Elements[0].Nodes)
	// element index runs x fastest too
	assert.Equal(t, []int{6, 11, 7, 12}, m.Elements[5].Nodes)

	// interior faces: the x-normal group first, nodes ascending in y,
	// then the y-normal group, nodes descending in x
	for ifac, want := range map[int][]int{
		0:  {1, 6},
		5:  {8, 13},
		9:  {16, 21},
		15: {9, 8},
		17: {12, 11},
	} {
		assert.Equal(t, want, m.Faces[ifac].Nodes)
		assert.Equal(t, types.INTERIOR, m.Faces[ifac].BCType)
	}

	fc := m.Faces[0]
	assert.Equal(t, 0, fc.ElemL)
	assert.Equal(t, 1, fc.ElemR)
	assert.Equal(t, 2, fc.InfoL.FaceNr())
	assert.Equal(t, 0, fc.InfoL.Orientation())
	assert.Equal(t, 0, fc.InfoR.FaceNr())
	assert.Equal(t, 1, fc.InfoR.Orientation())

	// boundary block: x-axis left/right pairs climbing y occupy 24..31,
	// then y-axis bottom/top pairs climbing x occupy 32..39
	left := m.Faces[24]
	assert.Equal(t, []int{5, 0}, left.Nodes)
	assert.Equal(t, types.DIRICHLET, left.BCType)
	assert.Equal(t, 0, left.BCFlag)
	assert.Equal(t, left.ElemL, left.ElemR)

	right := m.Faces[25]
	assert.Equal(t, []int{4, 9}, right.Nodes)
	assert.Equal(t, types.EXTRAPOLATION, right.BCType)
	assert.Equal(t, 3, right.ElemL)

	assert.Equal(t, []int{15, 10}, m.Faces[28].Nodes)
	assert.Equal(t, []int{19, 24}, m.Faces[31].Nodes)

	bottom := m.Faces[32]
	assert.Equal(t, []int{0, 1}, bottom.Nodes)
	assert.Equal(t, types.NEUMANN, bottom.BCType)
	assert.Equal(t, 1, bottom.BCFlag)

	top := m.Faces[33]
	assert.Equal(t, []int{21, 20}, top.Nodes)
	assert.Equal(t, types.DIRICHLET, top.BCType)
	assert.Equal(t, 2, top.BCFlag)
	assert.Equal(t, 12, top.ElemL)

	assert.Equal(t, []int{24, 23}, m.Faces[39].Nodes)

	invalid, err := m.ValidateNormals()
	assert.NoError(t, err)
	assert.Equal(t, 0, len(invalid))

	// the 16 perimeter nodes are flagged, the 9 interior ones are not
	isBdy := m.FlagBoundaryNodes()
	count := 0
	for _, b := range isBdy {
		if b {
			count++
		}
	}
	assert.Equal(t, 16, count)
	assert.False(t, isBdy[12])
	assert.True(t, isBdy[10])
}

func TestUniformMesh1D(t *testing.T) {
	m, err := NewUniformMesh1D(4, 0, 2, 2,
		BC{types.DIRICHLET, 0}, BC{types.EXTRAPOLATION, 0})
	assert.NoError(t, err)
	assert.Equal(t, 9, m.NumNodes())
	assert.Equal(t, 4, m.NumElements())
	assert.Equal(t, 5, m.NumFaces())
	assert.Equal(t, 3, m.InteriorFaceEnd)
	assert.Equal(t, []int{0, 1, 2}, m.Elements[0].Nodes)
	assert.True(t, near(m.Coords.DataP[3], 0.75))

	fc := m.Faces[0]
	assert.Equal(t, []int{2}, fc.Nodes)
	assert.Equal(t, 0, fc.ElemL)
	assert.Equal(t, 1, fc.ElemR)
	assert.Equal(t, 1, fc.InfoL.FaceNr())
	assert.Equal(t, 0, fc.InfoR.FaceNr())

	// interior normals point left to right, boundary normals outward
	nrml, err := m.CalcNormal(0, nil)
	assert.NoError(t, err)
	assert.True(t, near(nrml[0], 1))
	nrml, err = m.CalcNormal(3, nil)
	assert.NoError(t, err)
	assert.True(t, near(nrml[0], -1))

	invalid, err := m.ValidateNormals()
	assert.NoError(t, err)
	assert.Equal(t, 0, len(invalid))
}

func TestUniformMesh3D(t *testing.T) {
	var (
		bcs = []BC{
			{types.DIRICHLET, 0}, {types.DIRICHLET, 0}, {types.DIRICHLET, 0},
			{types.DIRICHLET, 0}, {types.DIRICHLET, 0}, {types.DIRICHLET, 0},
		}
	)
	m, err := NewUniformMesh(3, []int{2, 2, 2}, []float64{0, 0, 0}, []float64{1, 1, 1}, 1, bcs)
	assert.NoError(t, err)
	assert.Equal(t, 27, m.NumNodes())
	assert.Equal(t, 8, m.NumElements())
	assert.Equal(t, 12, m.InteriorFaceEnd)
	assert.Equal(t, 36, m.NumFaces())

	// first x-normal face: left cell origin, quad traversal chosen so
	// the tangent cross product points from left to right
	fc := m.Faces[0]
	assert.Equal(t, 0, fc.ElemL)
	assert.Equal(t, 1, fc.ElemR)
	assert.Equal(t, []int{1, 10, 4, 13}, fc.Nodes)
	assert.Equal(t, 3, fc.InfoL.FaceNr())
	assert.Equal(t, 0, fc.InfoR.FaceNr())
	// the right side walks the same quad with reversed winding
	assert.Equal(t, 4, fc.InfoR.Orientation())

	nrml, err := m.CalcNormal(0, []float64{0, 0})
	assert.NoError(t, err)
	assert.True(t, nearVec(nrml, []float64{0.0625, 0, 0}))

	invalid, err := m.ValidateNormals()
	assert.NoError(t, err)
	assert.Equal(t, 0, len(invalid))
}

func TestFindInteriorFaces(t *testing.T) {
	// two unit quads sharing one edge
	m := &Mesh{Dim: 2}
	m.Coords = coordMatrix([][]float64{
		{0, 0}, {1, 0}, {2, 0},
		{0, 1}, {1, 1}, {2, 1},
	})
	m.Elements = []Element{
		{types.HYPERCUBE, 1, []int{0, 3, 1, 4}},
		{types.HYPERCUBE, 1, []int{1, 4, 2, 5}},
	}
	err := m.FindInteriorFaces()
	assert.NoError(t, err)
	assert.Equal(t, 1, len(m.Faces))
	fc := m.Faces[0]
	assert.Equal(t, 0, fc.ElemL)
	assert.Equal(t, 1, fc.ElemR)
	assert.Equal(t, 2, fc.InfoL.FaceNr())
	assert.Equal(t, 0, fc.InfoR.FaceNr())
	assert.Equal(t, []int{1, 4}, fc.Nodes)
}

func TestMixedMesh2D(t *testing.T) {
	var (
		bcs = []BC{
			{types.DIRICHLET, 0},
			{types.NEUMANN, 1},
			{types.EXTRAPOLATION, 0},
			{types.DIRICHLET, 2},
		}
	)
	m, err := MixedUniformMesh2D([]int{8, 8}, []float64{0, 0}, []float64{1, 1},
		[]float64{0.5, 0.5}, bcs)
	assert.NoError(t, err)

	// a 2 cell border band stays quads, the inner 4x4 block splits into
	// triangle pairs
	nquad, ntri := 0, 0
	for _, el := range m.Elements {
		switch el.Domain {
		case types.HYPERCUBE:
			nquad++
		case types.SIMPLEX:
			ntri++
		}
		assert.Equal(t, 1, el.Order)
	}
	assert.Equal(t, 48, nquad)
	assert.Equal(t, 32, ntri)

	// 112 lattice edges plus one diagonal per split cell
	assert.Equal(t, 128, m.InteriorFaceEnd)
	assert.Equal(t, 160, m.NumFaces())

	counts := map[types.BCType]int{}
	for ifac := m.BdyFaceStart; ifac < m.BdyFaceEnd; ifac++ {
		counts[m.Faces[ifac].BCType]++
	}
	assert.Equal(t, 16, counts[types.DIRICHLET])
	assert.Equal(t, 8, counts[types.NEUMANN])
	assert.Equal(t, 8, counts[types.EXTRAPOLATION])

	invalid, err := m.ValidateNormals()
	assert.NoError(t, err)
	assert.Equal(t, 0, len(invalid))
}

func TestPerturbations(t *testing.T) {
	var (
		bcs = []BC{
			{types.DIRICHLET, 0}, {types.DIRICHLET, 0},
			{types.DIRICHLET, 0}, {types.DIRICHLET, 0},
		}
		rnd = rand.New(rand.NewSource(42))
	)
	m, err := NewUniformMesh(2, []int{4, 4}, []float64{0, 0}, []float64{1, 1}, 1, bcs)
	assert.NoError(t, err)

	// random jitter with the boundary held fixed
	before := make([]float64, len(m.Coords.DataP))
	copy(before, m.Coords.DataP)
	fixed := m.FlagBoundaryNodes()
	m.PerturbNodes(RandomPerturb(rnd, -0.05, 0.05), fixed)
	for n := 0; n < m.NumNodes(); n++ {
		moved := math.Abs(m.Coords.DataP[2*n]-before[2*n]) > 1.e-12 ||
			math.Abs(m.Coords.DataP[2*n+1]-before[2*n+1]) > 1.e-12
		if fixed[n] {
			assert.False(t, moved)
		} else {
			assert.True(t, moved)
			assert.True(t, math.Abs(m.Coords.DataP[2*n]-before[2*n]) <= 0.05)
		}
	}
	invalid, err := m.ValidateNormals()
	assert.NoError(t, err)
	assert.Equal(t, 0, len(invalid))

	// the zig-zag map pinches y=0.5 toward the band targets
	zz := ZigZagPerturb()
	out := make([]float64, 2)
	zz([]float64{0.25, 0.5}, out)
	assert.True(t, nearVec(out, []float64{0.25, 0.4}))
	zz([]float64{0.1, 0.25}, out)
	assert.True(t, nearVec(out, []float64{0.1, 0.15}))

	// the boundary is pinned, so the bounding box survives the jitter
	xmin, xmax := m.BoundingBox()
	assert.True(t, nearVec(xmin, []float64{0, 0}))
	assert.True(t, nearVec(xmax, []float64{1, 1}))

	// the vortex field vanishes at the domain center
	tg := TaylorGreenPerturb(1, xmin, xmax, 1)
	tg([]float64{0.5, 0.5}, out)
	assert.True(t, nearVec(out, []float64{0.5, 0.5}))
	tg([]float64{0.3, 0.6}, out)
	assert.True(t, math.Abs(out[0]-0.3)+math.Abs(out[1]-0.6) > 1.e-4)
}

func coordMatrix(rows [][]float64) (M utils.Matrix) {
	M = utils.NewMatrix(len(rows), len(rows[0]))
	for i, r := range rows {
		copy(M.DataP[i*len(r):(i+1)*len(r)], r)
	}
	return
}

func near(a, b float64, tolI ...float64) (l bool) {
	var (
		tol = 1.e-08
	)
	if len(tolI) != 0 {
		tol = tolI[0]
	}
	bound := math.Max(tol, tol*math.Abs(a))
	if math.Abs(a-b) <= bound {
		l = true
	}
	return
}

func nearVec(a, b []float64, tolI ...float64) (l bool) {
	for i, val := range a {
		if !near(val, b[i], tolI...) {
			return false
		}
	}
	return true
}
