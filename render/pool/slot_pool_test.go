package pool

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/ericrwinkler/rusteroids-sub000/render/core"
)

func TestSlotPool_AllocateReleaseRoundTrip(t *testing.T) {
	p := NewSlotPool[int](1, 4, 0, true)

	h, err := p.Allocate(42)
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if h.Generation != 0 {
		t.Errorf("fresh slot should start at generation 0, got %d", h.Generation)
	}

	v, err := p.Get(h)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if *v != 42 {
		t.Errorf("expected payload 42, got %d", *v)
	}

	if err := p.Release(h, 0); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if p.Active() != 0 {
		t.Errorf("expected 0 active after release, got %d", p.Active())
	}
}

func TestSlotPool_StaleHandleRejection(t *testing.T) {
	p := NewSlotPool[int](1, 4, 0, true)

	h, _ := p.Allocate(1)
	if err := p.Release(h, 0); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	// Every subsequent operation on the released handle must fail.
	if _, err := p.Get(h); !errors.Is(err, core.ErrHandleExpired) {
		t.Errorf("get on stale handle: expected ErrHandleExpired, got %v", err)
	}
	if err := p.Release(h, 0); !errors.Is(err, core.ErrHandleExpired) {
		t.Errorf("double release: expected ErrHandleExpired, got %v", err)
	}

	// Same index reused after recycling: old handle still stale.
	p.CollectPending(0)
	h2, _ := p.Allocate(2)
	if h2.Index == h.Index && h2.Generation == h.Generation {
		t.Fatalf("recycled slot reused generation %d", h.Generation)
	}
	if _, err := p.Get(h); !errors.Is(err, core.ErrHandleExpired) {
		t.Errorf("stale handle after reuse: expected ErrHandleExpired, got %v", err)
	}
}

func TestSlotPool_HandleUniquenessUnderChurn(t *testing.T) {
	p := NewSlotPool[int](1, 8, 0, true)
	rng := rand.New(rand.NewSource(7))

	live := make(map[core.Handle]struct{})
	frame := uint64(0)

	for i := 0; i < 5000; i++ {
		if len(live) == 0 || rng.Intn(3) != 0 {
			h, err := p.Allocate(i)
			if err != nil {
				t.Fatalf("allocate failed at step %d: %v", i, err)
			}
			if _, dup := live[h]; dup {
				t.Fatalf("duplicate live handle %v", h)
			}
			for other := range live {
				if other.Index == h.Index {
					t.Fatalf("two live handles share index %d", h.Index)
				}
			}
			live[h] = struct{}{}
		} else {
			for h := range live {
				if err := p.Release(h, frame); err != nil {
					t.Fatalf("release failed: %v", err)
				}
				delete(live, h)
				break
			}
		}

		// Capacity invariant: live + pending never exceeds allocation.
		if p.Active()+p.Pending() > p.Cap() {
			t.Fatalf("active %d + pending %d exceeds cap %d", p.Active(), p.Pending(), p.Cap())
		}

		if i%7 == 0 {
			frame++
			p.CollectPending(frame - 1)
		}
	}
}

func TestSlotPool_PendingSlotsAreNotAllocatable(t *testing.T) {
	p := NewSlotPool[int](1, 2, 2, true)

	h1, _ := p.Allocate(1)
	h2, _ := p.Allocate(2)

	if err := p.Release(h1, 5); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	// Slot is pending, not free, and the pool is at budget: allocation
	// must fail rather than hand the pending slot out.
	if _, err := p.Allocate(3); !errors.Is(err, core.ErrBudgetExceeded) {
		t.Errorf("expected ErrBudgetExceeded while slot pending, got %v", err)
	}

	// Not yet safe at frame 4.
	p.CollectPending(4)
	if _, err := p.Allocate(3); !errors.Is(err, core.ErrBudgetExceeded) {
		t.Errorf("slot recycled too early, got %v", err)
	}

	// Safe at frame 5.
	p.CollectPending(5)
	h3, err := p.Allocate(3)
	if err != nil {
		t.Fatalf("allocate after recycle failed: %v", err)
	}
	if h3.Index != h1.Index {
		t.Errorf("expected recycled index %d, got %d", h1.Index, h3.Index)
	}
	if h3.Generation != h1.Generation+1 {
		t.Errorf("expected generation %d, got %d", h1.Generation+1, h3.Generation)
	}

	_ = h2
}

func TestSlotPool_GrowthAndBudget(t *testing.T) {
	p := NewSlotPool[int](1, 2, 3, true)

	for i := 0; i < 3; i++ {
		if _, err := p.Allocate(i); err != nil {
			t.Fatalf("allocate %d failed: %v", i, err)
		}
	}
	if p.Cap() != 3 {
		t.Errorf("expected cap 3 after growth to budget, got %d", p.Cap())
	}

	if _, err := p.Allocate(99); !errors.Is(err, core.ErrBudgetExceeded) {
		t.Errorf("expected ErrBudgetExceeded at budget, got %v", err)
	}
}

func TestSlotPool_FixedPoolExhaustion(t *testing.T) {
	p := NewSlotPool[int](1, 2, 0, false)

	p.Allocate(1)
	p.Allocate(2)
	if _, err := p.Allocate(3); !errors.Is(err, core.ErrPoolExhausted) {
		t.Errorf("expected ErrPoolExhausted for fixed pool, got %v", err)
	}
}

func TestSlotPool_GrownRegionStartsAtGenerationZero(t *testing.T) {
	p := NewSlotPool[int](1, 1, 0, true)

	p.Allocate(1)
	h, err := p.Allocate(2) // forces growth
	if err != nil {
		t.Fatalf("allocate after growth failed: %v", err)
	}
	if h.Generation != 0 {
		t.Errorf("freshly grown slot should be generation 0, got %d", h.Generation)
	}
	if v, _ := p.Get(h); *v != 2 {
		t.Errorf("generation 0 handle must dereference normally")
	}
}

func TestSlotPool_WrongPoolIdRejected(t *testing.T) {
	p := NewSlotPool[int](1, 2, 0, true)
	q := NewSlotPool[int](2, 2, 0, true)

	h, _ := p.Allocate(1)
	if _, err := q.Get(h); !errors.Is(err, core.ErrHandleExpired) {
		t.Errorf("handle from another pool: expected ErrHandleExpired, got %v", err)
	}
}
