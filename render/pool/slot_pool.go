// Package pool implements the object-pool allocator behind dynamic render
// objects: a generation-counted slot pool, the per-mesh-type ObjectManager
// built on it, and the PoolManager that routes spawns and drives the
// per-frame sweep/gather/draw cycle.
package pool

import (
	"fmt"
	"math"

	"github.com/ericrwinkler/rusteroids-sub000/render/core"
)

type slotState uint8

const (
	slotAvailable slotState = iota
	slotActive
	slotPendingRelease
)

type slot[T any] struct {
	state      slotState
	generation uint32
	payload    T
}

type pendingEntry struct {
	index uint32
	frame uint64 // frame during which the slot was released
}

// SlotPool is a fixed-capacity-with-growth arena addressed by generation
// handles. Allocate and Release are O(1); every dereference validates the
// handle's generation against the slot, so a stale handle is an error,
// never a read of someone else's object.
//
// Released slots sit in PendingRelease until the caller confirms (via
// CollectPending) that no in-flight GPU frame can still reference them;
// only then do they return to the free list. The generation bumps at
// release time, which both invalidates outstanding handles immediately
// and amounts to exactly one increment per Active-to-Available cycle.
type SlotPool[T any] struct {
	id       core.PoolId
	slots    []slot[T]
	free     []uint32
	pending  []pendingEntry
	active   int
	growable bool
	budget   int // max slot count; <= 0 means unbounded
}

// NewSlotPool creates a pool with initialCapacity slots, all Available
// with generation 0 (generation 0 is a valid generation, not a sentinel).
// budget caps growth; growable false pins the pool at its initial size.
func NewSlotPool[T any](id core.PoolId, initialCapacity int, budget int, growable bool) *SlotPool[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	if budget > 0 && initialCapacity > budget {
		initialCapacity = budget
	}

	p := &SlotPool[T]{
		id:       id,
		slots:    make([]slot[T], initialCapacity),
		free:     make([]uint32, 0, initialCapacity),
		growable: growable,
		budget:   budget,
	}
	// lowest indices allocate first
	for i := initialCapacity - 1; i >= 0; i-- {
		p.free = append(p.free, uint32(i))
	}
	return p
}

func (p *SlotPool[T]) Id() core.PoolId { return p.id }

// Cap is the current allocated slot count (Available + Active + PendingRelease).
func (p *SlotPool[T]) Cap() int { return len(p.slots) }

// Active is the number of live objects.
func (p *SlotPool[T]) Active() int { return p.active }

// Pending is the number of slots awaiting safe recycling.
func (p *SlotPool[T]) Pending() int { return len(p.pending) }

// Allocate claims a slot for payload and returns its handle. With the free
// list empty the pool grows (doubling, capped by budget) when growable;
// otherwise ErrPoolExhausted. Growth past the budget is ErrBudgetExceeded.
// PendingRelease slots are never handed out.
func (p *SlotPool[T]) Allocate(payload T) (core.Handle, error) {
	if len(p.free) == 0 {
		if !p.growable {
			return core.Handle{}, fmt.Errorf("%w: pool %d has no free slot of %d", core.ErrPoolExhausted, p.id, len(p.slots))
		}
		if err := p.grow(); err != nil {
			return core.Handle{}, err
		}
	}

	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]

	s := &p.slots[idx]
	s.state = slotActive
	s.payload = payload
	p.active++

	return core.Handle{
		Pool:       p.id,
		Index:      idx,
		Generation: s.generation,
	}, nil
}

func (p *SlotPool[T]) grow() error {
	oldCap := len(p.slots)
	newCap := oldCap * 2
	if p.budget > 0 {
		if oldCap >= p.budget {
			return fmt.Errorf("%w: pool %d at budget %d", core.ErrBudgetExceeded, p.id, p.budget)
		}
		if newCap > p.budget {
			newCap = p.budget
		}
	}

	// Freshly grown slots start at generation 0, like the initial region.
	grown := make([]slot[T], newCap)
	copy(grown, p.slots)
	p.slots = grown

	for i := newCap - 1; i >= oldCap; i-- {
		p.free = append(p.free, uint32(i))
	}
	return nil
}

// Release marks the handle's slot PendingRelease, stamped with frame so
// the manager knows when recycling is safe. The handle (and any copy of
// it) is stale from this moment on.
func (p *SlotPool[T]) Release(h core.Handle, frame uint64) error {
	s, err := p.lookup(h)
	if err != nil {
		return err
	}

	if s.generation == math.MaxUint32 {
		// A wrapped counter would let an ancient handle revalidate; the
		// safety invariant itself is broken at that point.
		panic(fmt.Sprintf("slot pool %d: generation counter wrapped at index %d", p.id, h.Index))
	}
	s.generation++
	s.state = slotPendingRelease
	var zero T
	s.payload = zero

	p.active--
	p.pending = append(p.pending, pendingEntry{index: h.Index, frame: frame})
	return nil
}

// CollectPending recycles every pending slot released during or before
// completedThrough, returning how many became Available.
func (p *SlotPool[T]) CollectPending(completedThrough uint64) int {
	kept := p.pending[:0]
	recycled := 0
	for _, e := range p.pending {
		if e.frame > completedThrough {
			kept = append(kept, e)
			continue
		}
		p.slots[e.index].state = slotAvailable
		p.free = append(p.free, e.index)
		recycled++
	}
	p.pending = kept
	return recycled
}

// Get returns the payload of a live handle. The pointer is valid until the
// slot is released; callers must not hold it across a despawn.
func (p *SlotPool[T]) Get(h core.Handle) (*T, error) {
	s, err := p.lookup(h)
	if err != nil {
		return nil, err
	}
	return &s.payload, nil
}

func (p *SlotPool[T]) lookup(h core.Handle) (*slot[T], error) {
	if h.Pool != p.id || int(h.Index) >= len(p.slots) {
		return nil, fmt.Errorf("%w: handle %v out of range for pool %d", core.ErrHandleExpired, h, p.id)
	}
	s := &p.slots[h.Index]
	if s.state != slotActive || s.generation != h.Generation {
		return nil, fmt.Errorf("%w: handle %v, slot generation %d", core.ErrHandleExpired, h, s.generation)
	}
	return s, nil
}
