package gpu

// DefaultFramesInFlight is the usual ring depth: the CPU may run up to
// three frames ahead of the GPU before blocking.
const DefaultFramesInFlight = 3

// FrameRing tracks N frames in flight. Any buffer the CPU writes and the
// GPU reads exists in N copies indexed by Slot(); the CPU only ever writes
// the current slot's copy. Before a slot is reused, BeginFrame waits on
// the fence of the frame that last used it, which is always the oldest
// outstanding frame. That wait is the subsystem's only blocking point.
//
// The ring also defines which frames are known complete: after BeginFrame
// of frame F, every frame up to F-depth has signaled. Deferred slot and
// buffer recycling keys off CompletedThrough rather than polling fences,
// so recycling is a plain counter comparison.
type FrameRing struct {
	depth  int
	frame  uint64
	fences []Fence
}

// NewFrameRing creates a ring of the given depth, clamped to a minimum of
// two (one copy would mean overwriting buffers the GPU is reading).
func NewFrameRing(depth int) *FrameRing {
	if depth < 2 {
		depth = 2
	}
	return &FrameRing{
		depth:  depth,
		fences: make([]Fence, depth),
	}
}

func (r *FrameRing) Depth() int { return r.depth }

// Frame is the current frame counter. Incremented by EndFrame.
func (r *FrameRing) Frame() uint64 { return r.frame }

// Slot is the frame-in-flight index for the current frame.
func (r *FrameRing) Slot() int { return int(r.frame % uint64(r.depth)) }

// BeginFrame makes the current slot safe to write: if the frame that last
// used this slot (frame - depth) is still outstanding, wait on its fence.
// Returns the slot index.
func (r *FrameRing) BeginFrame() int {
	slot := r.Slot()
	if f := r.fences[slot]; f != nil {
		f.Wait()
		r.fences[slot] = nil
	}
	return slot
}

// EndFrame stores this frame's fence and advances the counter.
func (r *FrameRing) EndFrame(f Fence) {
	r.fences[r.Slot()] = f
	r.frame++
}

// WaitIdle blocks until every outstanding frame has completed. Teardown
// only; per-frame code waits on at most the oldest fence via BeginFrame.
func (r *FrameRing) WaitIdle() {
	for i, f := range r.fences {
		if f != nil {
			f.Wait()
			r.fences[i] = nil
		}
	}
}

// CompletedThrough returns the highest frame number known to have
// completed, and false while no frame is old enough to be known complete.
// Valid after BeginFrame: the wait there guarantees frame-depth signaled.
func (r *FrameRing) CompletedThrough() (uint64, bool) {
	if r.frame < uint64(r.depth) {
		return 0, false
	}
	return r.frame - uint64(r.depth), true
}
