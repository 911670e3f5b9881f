package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// WgpuBackend implements Backend over a webgpu device. It records draws
// into a render pass owned by the surrounding frame loop; pipeline and
// bind-group setup stay outside, this adapter only binds geometry and
// instance data and issues the indexed draw.
type WgpuBackend struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	pass   *wgpu.RenderPassEncoder
}

func NewWgpuBackend(device *wgpu.Device, queue *wgpu.Queue) *WgpuBackend {
	return &WgpuBackend{device: device, queue: queue}
}

// SetRenderPass points the backend at the pass draws should be recorded
// into. Must be called each frame before any RecordDraw, and cleared (nil)
// once the pass ends.
func (b *WgpuBackend) SetRenderPass(pass *wgpu.RenderPassEncoder) {
	b.pass = pass
}

type wgpuBuffer struct {
	label string
	buf   *wgpu.Buffer
}

func (w *wgpuBuffer) Size() uint64  { return w.buf.GetSize() }
func (w *wgpuBuffer) Label() string { return w.label }

// Raw exposes the underlying wgpu buffer for callers that need to bind it
// outside this adapter.
func (w *wgpuBuffer) Raw() *wgpu.Buffer { return w.buf }

func wgpuUsage(usage BufferUsage) wgpu.BufferUsage {
	switch usage {
	case BufferUsageIndex:
		return wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	default:
		// instance buffers bind as per-instance vertex data
		return wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	}
}

func (b *WgpuBackend) CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error) {
	// wgpu requires copy sizes in multiples of 4
	if size%4 != 0 {
		size += 4 - size%4
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            wgpuUsage(usage),
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", label, err)
	}
	return &wgpuBuffer{label: label, buf: buf}, nil
}

func (b *WgpuBackend) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	if err := b.queue.WriteBuffer(buf.(*wgpuBuffer).buf, offset, data); err != nil {
		return fmt.Errorf("failed to write buffer %q: %w", buf.Label(), err)
	}
	return nil
}

func (b *WgpuBackend) ReleaseBuffer(buf Buffer) {
	buf.(*wgpuBuffer).buf.Release()
}

func (b *WgpuBackend) RecordDraw(cmd DrawCommand) error {
	if b.pass == nil {
		return fmt.Errorf("no render pass bound for draw of %q", cmd.Instances.Label())
	}

	b.pass.SetVertexBuffer(0, cmd.Mesh.Vertex.(*wgpuBuffer).buf, 0, wgpu.WholeSize)
	b.pass.SetVertexBuffer(1, cmd.Instances.(*wgpuBuffer).buf, 0, wgpu.WholeSize)
	b.pass.SetIndexBuffer(cmd.Mesh.Index.(*wgpuBuffer).buf, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	b.pass.DrawIndexed(cmd.Mesh.IndexCount, cmd.InstanceCount, 0, 0, cmd.FirstInstance)

	return nil
}

// SubmitFrame returns a fence backed by device polling. wgpu exposes queue
// progress through Poll rather than per-submission fences, so the fence
// waits by polling until the queue drains past this frame's work.
func (b *WgpuBackend) SubmitFrame() Fence {
	return &wgpuFence{device: b.device}
}

type wgpuFence struct {
	device *wgpu.Device
	done   bool
}

func (f *wgpuFence) Signaled() bool {
	if f.done {
		return true
	}
	f.done = f.device.Poll(false, nil)
	return f.done
}

func (f *wgpuFence) Wait() {
	if f.done {
		return
	}
	f.device.Poll(true, nil)
	f.done = true
}
