package types

import (
	"fmt"
	"math"
)

// FaceInfoMod packs a local face number and an orientation code into one
// integer: number = info / FaceInfoMod, orientation = info % FaceInfoMod.
const FaceInfoMod = 512

type FaceInfo uint32

func NewFaceInfo(faceNr, orientation int) FaceInfo {
	if orientation < 0 || orientation >= FaceInfoMod {
		panic(fmt.Errorf("orientation %d out of range for face info packing", orientation))
	}
	return FaceInfo(faceNr*FaceInfoMod + orientation)
}

func (fi FaceInfo) FaceNr() int      { return int(fi) / FaceInfoMod }
func (fi FaceInfo) Orientation() int { return int(fi) % FaceInfoMod }

/*
FaceKey is an always positive number that stores a face's two corner
vertices as indices in a way that can be compared. A face between
vertices [4] and [0] is always stored as [0,4], in ascending index
order, so the two elements sharing the face compute the same key.
*/
type FaceKey uint64

func NewFaceKey(verts [2]int) (packed FaceKey) {
	// Packs two index coordinates into two 32 bit unsigned integers to
	// act as a hash and an indirect access method
	var (
		limit = math.MaxUint32
	)
	for _, vert := range verts {
		if vert < 0 || vert > limit {
			panic(fmt.Errorf("unable to pack two ints into a uint64, have %d and %d as inputs",
				verts[0], verts[1]))
		}
	}
	var i1, i2 int
	if verts[0] <= verts[1] {
		i1, i2 = verts[0], verts[1]
	} else {
		i1, i2 = verts[1], verts[0]
	}
	packed = FaceKey(i1 + i2<<32)
	return
}

func (fk FaceKey) GetVertices() (verts [2]int) {
	var (
		fkTmp = fk >> 32
	)
	verts[1] = int(fkTmp)
	verts[0] = int(fk - fkTmp*(1<<32))
	return
}
