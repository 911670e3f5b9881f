// Package gpu holds the GPU-facing half of the dynamic render-object
// system: the backend contract the core consumes, the frame-in-flight
// resource ring, per-pool GPU resources, and the instance renderer that
// packs live objects into per-frame instance buffers.
//
// Nothing in this package except the wgpu adapter touches a graphics API;
// the pooling and renderer logic depend only on the Backend interface.
package gpu

// BufferUsage tells the backend what a buffer will be bound as. The
// backend maps this onto its own usage flags.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = iota
	BufferUsageIndex
	BufferUsageInstance
)

// Buffer is an opaque GPU-visible buffer with CPU-write access.
type Buffer interface {
	Size() uint64
	Label() string
}

// Fence is a completion signal for one submitted frame. Wait blocks until
// the GPU has finished consuming that frame's command buffers and every
// buffer it read from may be rewritten or released.
type Fence interface {
	Signaled() bool
	Wait()
}

// MeshBuffers is the shared geometry of one mesh type, supplied by the
// asset layer. Indices are uint16. Every pool holds exactly one of these
// and all of its instances draw with it.
type MeshBuffers struct {
	Vertex     Buffer
	Index      Buffer
	IndexCount uint32
}

// DrawCommand asks the backend to record one instanced draw: IndexCount
// indices of the mesh, InstanceCount instances starting at FirstInstance
// in the instance buffer. The backend must never be handed a command with
// InstanceCount == 0; callers suppress empty draws.
type DrawCommand struct {
	Mesh          MeshBuffers
	Instances     Buffer
	InstanceCount uint32
	FirstInstance uint32
	Transparent   bool
}

// Backend is the graphics-API boundary. Implementations must support
// creating CPU-writable buffers, recording instanced draws into the frame
// being built, and fencing frame completion. All calls come from the
// single render thread.
type Backend interface {
	CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error)
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
	ReleaseBuffer(buf Buffer)

	RecordDraw(cmd DrawCommand) error

	// SubmitFrame submits everything recorded since the previous submit
	// and returns the fence for this frame.
	SubmitFrame() Fence
}
