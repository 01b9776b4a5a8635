package geom

import (
	"encoding/binary"
	"math"
)

// UniformLayoutVersion identifies the byte layout of the uniform block.
// It changes whenever a field is added, removed or moved, so that a
// pipeline and a buffer from different builds can be told apart.
const UniformLayoutVersion = 1

// UniformSize is the size of the encoded uniform block in bytes.
const UniformSize = 40

// UniformField describes one member of the uniform block as it appears
// both in the encoded buffer and in the generated WGSL struct.
type UniformField struct {
	Name   string // WGSL member name
	Type   string // WGSL type
	Offset int    // byte offset in the buffer
}

// UniformFields lists the members of the uniform block in declaration
// order. The shader generator emits the WGSL struct from this table and
// Uniforms.Put writes at these offsets, so the two cannot disagree.
var UniformFields = []UniformField{
	{Name: "resolution", Type: "vec2f", Offset: 0},
	{Name: "vertCnt2", Type: "vec2f", Offset: 8},
	{Name: "miterLimit", Type: "f32", Offset: 16},
	{Name: "isRound", Type: "u32", Offset: 20},
	{Name: "pointCount", Type: "u32", Offset: 24},
	{Name: "insertCaps", Type: "u32", Offset: 28},
	{Name: "capScale", Type: "vec2f", Offset: 32},
}

// Uniforms is the per-draw configuration shared by every vertex of every
// instance.
type Uniforms struct {
	// Resolution is the viewport size in pixels.
	Resolution [2]float32

	// VertCnt2 holds the cap and join vertex counts per half, that is the
	// tessellation resolutions times two. Both are always even.
	VertCnt2 [2]float32

	// MiterLimit2 is the squared miter limit.
	MiterLimit2 float32

	RoundJoin  bool
	PointCount uint32
	InsertCaps bool

	// CapScale stretches round cap geometry into square caps.
	CapScale [2]float32
}

// Put encodes u into dst, which must be at least UniformSize bytes.
func (u *Uniforms) Put(dst []byte) {
	_ = dst[UniformSize-1]
	le := binary.LittleEndian
	le.PutUint32(dst[0:4], math.Float32bits(u.Resolution[0]))
	le.PutUint32(dst[4:8], math.Float32bits(u.Resolution[1]))
	le.PutUint32(dst[8:12], math.Float32bits(u.VertCnt2[0]))
	le.PutUint32(dst[12:16], math.Float32bits(u.VertCnt2[1]))
	le.PutUint32(dst[16:20], math.Float32bits(u.MiterLimit2))
	le.PutUint32(dst[20:24], boolBits(u.RoundJoin))
	le.PutUint32(dst[24:28], u.PointCount)
	le.PutUint32(dst[28:32], boolBits(u.InsertCaps))
	le.PutUint32(dst[32:36], math.Float32bits(u.CapScale[0]))
	le.PutUint32(dst[36:40], math.Float32bits(u.CapScale[1]))
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (u *Uniforms) MarshalBinary() ([]byte, error) {
	buf := make([]byte, UniformSize)
	u.Put(buf)
	return buf, nil
}

func boolBits(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// StripSize returns the number of vertices drawn per instance. It is the
// worst case of both halves using the larger of the two resolutions; the
// unused tail of a cheaper half collapses into zero-area triangles.
func StripSize(capVertices, joinVertices float32) uint32 {
	return uint32((max(capVertices, joinVertices) + 3) * 2)
}

// InstanceCount returns the number of instances (segments) for a line of
// n points.
func InstanceCount(n int) uint32 {
	if n < 1 {
		return 0
	}
	return uint32(n - 1) //nolint:gosec // point counts fit uint32
}
