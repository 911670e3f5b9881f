package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// InstanceGpuRecord matches the WGSL per-instance layout consumed by the
// instanced vertex shader:
//
//	struct Instance {
//	    model: mat4x4<f32>,     // offset 0
//	    normal: mat3x3<f32>,    // offset 64, three vec4-aligned columns
//	    material_index: u32,    // offset 112
//	    // 12 bytes padding     // stride 128
//	}
//
// Records are regenerated from live DynamicRenderObjects every frame and
// uploaded verbatim into the current frame-in-flight instance buffer; they
// are never persisted across frames.
type InstanceGpuRecord struct {
	Model         mgl32.Mat4
	Normal        mgl32.Mat3
	MaterialIndex uint32
}

// InstanceStride is the packed size of one record in the instance buffer.
const InstanceStride = 128

// MakeInstanceRecord derives the packed form of one object. The normal
// matrix is the inverse-transpose of the model's upper 3x3; a degenerate
// (non-invertible) model falls back to the identity normal matrix.
func MakeInstanceRecord(obj *DynamicRenderObject) InstanceGpuRecord {
	inv := obj.Transform.Inv()
	var normal mgl32.Mat3
	if inv == (mgl32.Mat4{}) {
		normal = mgl32.Ident3()
	} else {
		normal = inv.Transpose().Mat3()
	}

	return InstanceGpuRecord{
		Model:         obj.Transform,
		Normal:        normal,
		MaterialIndex: obj.MaterialIndex,
	}
}

// EncodeTo writes the record into dst, which must be at least
// InstanceStride bytes. Little-endian IEEE-754 bits, so a matrix survives
// the pack/unpack round trip exactly.
func (r *InstanceGpuRecord) EncodeTo(dst []byte) {
	_ = dst[InstanceStride-1]

	for i, v := range r.Model {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}

	// mat3x3 columns are vec4-aligned on the GPU
	for c := 0; c < 3; c++ {
		base := 64 + c*16
		binary.LittleEndian.PutUint32(dst[base:], math.Float32bits(r.Normal[c*3]))
		binary.LittleEndian.PutUint32(dst[base+4:], math.Float32bits(r.Normal[c*3+1]))
		binary.LittleEndian.PutUint32(dst[base+8:], math.Float32bits(r.Normal[c*3+2]))
		binary.LittleEndian.PutUint32(dst[base+12:], 0)
	}

	binary.LittleEndian.PutUint32(dst[112:], r.MaterialIndex)
	binary.LittleEndian.PutUint32(dst[116:], 0)
	binary.LittleEndian.PutUint32(dst[120:], 0)
	binary.LittleEndian.PutUint32(dst[124:], 0)
}

// DecodeInstanceRecord reads a record back out of a packed buffer.
func DecodeInstanceRecord(src []byte) InstanceGpuRecord {
	_ = src[InstanceStride-1]

	var r InstanceGpuRecord
	for i := range r.Model {
		r.Model[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	for c := 0; c < 3; c++ {
		base := 64 + c*16
		r.Normal[c*3] = math.Float32frombits(binary.LittleEndian.Uint32(src[base:]))
		r.Normal[c*3+1] = math.Float32frombits(binary.LittleEndian.Uint32(src[base+4:]))
		r.Normal[c*3+2] = math.Float32frombits(binary.LittleEndian.Uint32(src[base+8:]))
	}
	r.MaterialIndex = binary.LittleEndian.Uint32(src[112:])
	return r
}
