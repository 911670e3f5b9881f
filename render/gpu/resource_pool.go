package gpu

import (
	"fmt"

	"github.com/eapache/queue"

	"github.com/ericrwinkler/rusteroids-sub000/render/core"
)

// DefaultInstanceCapacity is the initial per-slot instance buffer capacity
// (in records) when the pool config does not say otherwise.
const DefaultInstanceCapacity = 64

// ResourcePool owns the GPU resources of one mesh type's pool: the shared
// vertex/index buffers and one instance buffer per frame in flight. The
// instance buffers grow but never shrink; growth allocates a fresh buffer
// and retires the old one, which is only released once the last frame that
// could reference it has completed.
type ResourcePool struct {
	label   string
	backend Backend
	ring    *FrameRing
	mesh    MeshBuffers

	instances []Buffer // one per ring slot
	capacity  []uint32 // records per slot

	// retired buffers awaiting their last in-flight use, FIFO by frame
	retired *queue.Queue

	closed bool
}

type retiredBuffer struct {
	buf   Buffer
	frame uint64 // last frame that may reference it
}

// NewResourcePool creates the per-slot instance buffers eagerly so that a
// backend allocation problem surfaces at registration, not mid-frame.
func NewResourcePool(backend Backend, ring *FrameRing, mesh MeshBuffers, label string, initialCapacity int) (*ResourcePool, error) {
	if initialCapacity <= 0 {
		initialCapacity = DefaultInstanceCapacity
	}

	rp := &ResourcePool{
		label:     label,
		backend:   backend,
		ring:      ring,
		mesh:      mesh,
		instances: make([]Buffer, ring.Depth()),
		capacity:  make([]uint32, ring.Depth()),
		retired:   queue.New(),
	}

	for slot := range rp.instances {
		buf, err := backend.CreateBuffer(
			fmt.Sprintf("%s Instances [%d]", label, slot),
			uint64(initialCapacity)*core.InstanceStride,
			BufferUsageInstance,
		)
		if err != nil {
			rp.Close()
			return nil, fmt.Errorf("failed to create instance buffer for %s: %w", label, err)
		}
		rp.instances[slot] = buf
		rp.capacity[slot] = uint32(initialCapacity)
	}

	return rp, nil
}

func (rp *ResourcePool) Mesh() MeshBuffers { return rp.mesh }

// InstanceCapacity is the current record capacity of one slot's buffer.
func (rp *ResourcePool) InstanceCapacity(slot int) uint32 { return rp.capacity[slot] }

// EnsureInstanceCapacity returns the slot's instance buffer, growing it
// first if it cannot hold count records. Growth doubles until it fits, so
// repacking a large burst never truncates. The replaced buffer is retired,
// stamped with the current frame, and released only after that frame's
// completion is known.
func (rp *ResourcePool) EnsureInstanceCapacity(slot int, count int) (Buffer, error) {
	if uint32(count) <= rp.capacity[slot] {
		return rp.instances[slot], nil
	}

	newCap := rp.capacity[slot]
	if newCap == 0 {
		newCap = DefaultInstanceCapacity
	}
	for newCap < uint32(count) {
		newCap *= 2
	}

	buf, err := rp.backend.CreateBuffer(
		fmt.Sprintf("%s Instances [%d]", rp.label, slot),
		uint64(newCap)*core.InstanceStride,
		BufferUsageInstance,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to grow instance buffer for %s to %d records: %w", rp.label, newCap, err)
	}

	if old := rp.instances[slot]; old != nil {
		rp.retired.Add(retiredBuffer{buf: old, frame: rp.ring.Frame()})
	}
	rp.instances[slot] = buf
	rp.capacity[slot] = newCap

	return buf, nil
}

// ReleaseRetired frees retired buffers whose last possible in-flight use
// is at or before completedThrough. Called once per frame by the manager.
func (rp *ResourcePool) ReleaseRetired(completedThrough uint64) {
	for rp.retired.Length() > 0 {
		rb := rp.retired.Peek().(retiredBuffer)
		if rb.frame > completedThrough {
			return
		}
		rp.retired.Remove()
		rp.backend.ReleaseBuffer(rb.buf)
	}
}

// RetiredCount is the number of buffers still awaiting release.
func (rp *ResourcePool) RetiredCount() int { return rp.retired.Length() }

// Close releases every buffer the pool owns, including retired ones. The
// caller must ensure the GPU is idle first; Close does not wait.
func (rp *ResourcePool) Close() {
	if rp.closed {
		return
	}
	rp.closed = true

	for _, buf := range rp.instances {
		if buf != nil {
			rp.backend.ReleaseBuffer(buf)
		}
	}
	for rp.retired.Length() > 0 {
		rb := rp.retired.Remove().(retiredBuffer)
		rp.backend.ReleaseBuffer(rb.buf)
	}
}
