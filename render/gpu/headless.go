package gpu

import (
	"fmt"
	"sync"
)

// HeadlessBackend is an in-memory Backend. Buffers are byte slices, draws
// are appended to a per-frame log, and fences are either pre-signaled
// (default) or manually signaled when ManualFences is set. Used by tests
// and for running the subsystem without a GPU.
type HeadlessBackend struct {
	// ManualFences makes SubmitFrame return unsignaled fences that the
	// owner signals via SignalFrame, modeling a GPU that falls behind.
	ManualFences bool

	draws  []DrawCommand
	frames [][]DrawCommand
	fences []*manualFence

	liveBuffers int
	created     int

	failCreate error
	failWrite  error
}

func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{}
}

type headlessBuffer struct {
	label    string
	usage    BufferUsage
	data     []byte
	released bool
}

func (b *headlessBuffer) Size() uint64  { return uint64(len(b.data)) }
func (b *headlessBuffer) Label() string { return b.label }

type manualFence struct {
	ch   chan struct{}
	once sync.Once
}

func newManualFence() *manualFence {
	return &manualFence{ch: make(chan struct{})}
}

func (f *manualFence) signal() {
	f.once.Do(func() { close(f.ch) })
}

func (f *manualFence) Signaled() bool {
	select {
	case <-f.ch:
		return true
	default:
		return false
	}
}

func (f *manualFence) Wait() { <-f.ch }

func (hb *HeadlessBackend) CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error) {
	if err := hb.failCreate; err != nil {
		hb.failCreate = nil
		return nil, err
	}
	hb.liveBuffers++
	hb.created++
	return &headlessBuffer{
		label: label,
		usage: usage,
		data:  make([]byte, size),
	}, nil
}

func (hb *HeadlessBackend) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	if err := hb.failWrite; err != nil {
		hb.failWrite = nil
		return err
	}
	b := buf.(*headlessBuffer)
	if b.released {
		return fmt.Errorf("write to released buffer %q", b.label)
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("write past end of buffer %q: offset %d + %d > %d", b.label, offset, len(data), len(b.data))
	}
	copy(b.data[offset:], data)
	return nil
}

func (hb *HeadlessBackend) ReleaseBuffer(buf Buffer) {
	b := buf.(*headlessBuffer)
	if !b.released {
		b.released = true
		hb.liveBuffers--
	}
}

func (hb *HeadlessBackend) RecordDraw(cmd DrawCommand) error {
	if cmd.InstanceCount == 0 {
		return fmt.Errorf("zero-instance draw recorded for %q", cmd.Instances.Label())
	}
	hb.draws = append(hb.draws, cmd)
	return nil
}

func (hb *HeadlessBackend) SubmitFrame() Fence {
	hb.frames = append(hb.frames, hb.draws)
	hb.draws = nil

	f := newManualFence()
	hb.fences = append(hb.fences, f)
	if !hb.ManualFences {
		f.signal()
	}
	return f
}

// SignalFrame marks the n-th submitted frame (0-based) complete.
func (hb *HeadlessBackend) SignalFrame(n int) {
	hb.fences[n].signal()
}

// FrameDraws returns the draw log of the n-th submitted frame.
func (hb *HeadlessBackend) FrameDraws(n int) []DrawCommand {
	return hb.frames[n]
}

// SubmittedFrames is the number of frames submitted so far.
func (hb *HeadlessBackend) SubmittedFrames() int { return len(hb.frames) }

// LiveBuffers is the number of created-and-not-released buffers.
func (hb *HeadlessBackend) LiveBuffers() int { return hb.liveBuffers }

// CreatedBuffers is the total number of buffers ever created.
func (hb *HeadlessBackend) CreatedBuffers() int { return hb.created }

// BufferData exposes a buffer's current contents for inspection.
func (hb *HeadlessBackend) BufferData(buf Buffer) []byte {
	return buf.(*headlessBuffer).data
}

// FailNextCreate makes the next CreateBuffer call return err.
func (hb *HeadlessBackend) FailNextCreate(err error) { hb.failCreate = err }

// FailNextWrite makes the next WriteBuffer call return err.
func (hb *HeadlessBackend) FailNextWrite(err error) { hb.failWrite = err }
