package gpu

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ericrwinkler/rusteroids-sub000/render/core"
)

// GatherItem is one live object handed to the renderer for packing. Index
// is the object's handle index, used as the deterministic tie-break when
// depth-sorting transparent instances.
type GatherItem struct {
	Object *core.DynamicRenderObject
	Index  uint32
}

// InstanceBatch is the packed result of one gather: Count records starting
// at First in Buffer. A Count of zero means "record no draw for this pass".
type InstanceBatch struct {
	Buffer      Buffer
	Count       uint32
	First       uint32
	Transparent bool
}

// InstanceRenderer packs one pool's active objects into the current
// frame-in-flight instance buffer and produces at most two batches per
// frame: one opaque, one transparent. Transparent instances are packed
// after the opaque ones in the same buffer and depth-sorted back-to-front.
type InstanceRenderer struct {
	res *ResourcePool

	// reused across frames to avoid per-frame churn
	scratch     []byte
	transparent []transparentItem
}

type transparentItem struct {
	record core.InstanceGpuRecord
	index  uint32
	depth  float32
}

func NewInstanceRenderer(res *ResourcePool) *InstanceRenderer {
	return &InstanceRenderer{res: res}
}

func (ir *InstanceRenderer) Resources() *ResourcePool { return ir.res }

// GatherAndUpload packs every item into slot's instance buffer and writes
// it through the backend. The buffer is grown as needed: every item always
// lands in the upload, never a truncated subset. viewPos is the camera
// position used for transparent ordering.
//
// On error the whole upload is abandoned and both batches are empty; the
// caller skips this pool's draws for the frame.
func (ir *InstanceRenderer) GatherAndUpload(items []GatherItem, slot int, viewPos mgl32.Vec3) (InstanceBatch, InstanceBatch, error) {
	var opaque, transparent InstanceBatch
	transparent.Transparent = true
	if len(items) == 0 {
		return opaque, transparent, nil
	}

	buf, err := ir.res.EnsureInstanceCapacity(slot, len(items))
	if err != nil {
		return opaque, transparent, fmt.Errorf("%w: %s", core.ErrUploadFailed, err)
	}

	need := len(items) * core.InstanceStride
	if cap(ir.scratch) < need {
		ir.scratch = make([]byte, need)
	}
	ir.scratch = ir.scratch[:need]

	// Opaque instances first, in gather order.
	packed := 0
	ir.transparent = ir.transparent[:0]
	for _, item := range items {
		rec := core.MakeInstanceRecord(item.Object)
		if item.Object.Transparent {
			pos := core.WorldPosition(item.Object.Transform)
			ir.transparent = append(ir.transparent, transparentItem{
				record: rec,
				index:  item.Index,
				depth:  pos.Sub(viewPos).Len(),
			})
			continue
		}
		rec.EncodeTo(ir.scratch[packed*core.InstanceStride:])
		packed++
	}
	opaque.Buffer = buf
	opaque.Count = uint32(packed)

	// Transparent instances follow, farthest first so blending composes
	// correctly. Stable sort, ties broken by handle index.
	if len(ir.transparent) > 0 {
		sort.SliceStable(ir.transparent, func(i, j int) bool {
			a, b := ir.transparent[i], ir.transparent[j]
			if a.depth != b.depth {
				return a.depth > b.depth
			}
			return a.index < b.index
		})

		transparent.Buffer = buf
		transparent.First = uint32(packed)
		for _, item := range ir.transparent {
			item.record.EncodeTo(ir.scratch[packed*core.InstanceStride:])
			packed++
		}
		transparent.Count = uint32(packed) - transparent.First
	}

	if err := ir.res.backend.WriteBuffer(buf, 0, ir.scratch); err != nil {
		return InstanceBatch{}, InstanceBatch{Transparent: true}, fmt.Errorf("%w: %s", core.ErrUploadFailed, err)
	}

	return opaque, transparent, nil
}

// RecordDraw emits one instanced draw for a non-empty batch. Empty batches
// are suppressed here so the backend never sees a zero-instance draw.
func (ir *InstanceRenderer) RecordDraw(batch InstanceBatch) error {
	if batch.Count == 0 {
		return nil
	}
	return ir.res.backend.RecordDraw(DrawCommand{
		Mesh:          ir.res.mesh,
		Instances:     batch.Buffer,
		InstanceCount: batch.Count,
		FirstInstance: batch.First,
		Transparent:   batch.Transparent,
	})
}
