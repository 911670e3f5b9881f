package pool

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ericrwinkler/rusteroids-sub000/render/core"
	"github.com/ericrwinkler/rusteroids-sub000/render/gpu"
)

// Config sizes one mesh type's pool.
type Config struct {
	// InitialCapacity is the slot count allocated at registration.
	InitialCapacity int
	// MaxObjects caps growth; <= 0 means unbounded.
	MaxObjects int
	// Growable false pins the pool at InitialCapacity (exhaustion instead
	// of growth).
	Growable bool
	// InstanceCapacity is the initial per-frame instance buffer capacity
	// in records; 0 picks the gpu package default.
	InstanceCapacity int
}

// DefaultConfig is a small growable pool.
func DefaultConfig() Config {
	return Config{
		InitialCapacity: 64,
		MaxObjects:      0,
		Growable:        true,
	}
}

// MaterialResolver maps a material id to the packed material index the
// shader indexes with. Supplied by the asset layer; nil resolves
// everything to index 0.
type MaterialResolver func(core.MaterialId) (index uint32, transparent bool)

// SpawnDef describes one object to spawn.
type SpawnDef struct {
	Transform   mgl32.Mat4
	Material    core.MaterialId
	Lifetime    float32 // seconds; <= 0 never expires
	Transparent bool
}

// ObjectManager owns one mesh type's objects: the slot pool they live in,
// the ordered list of active handles, and the per-frame expiry sweep. One
// ObjectManager per mesh type, always — mixing mesh types in a pool would
// force per-instance geometry rebinding and break single-draw batching.
type ObjectManager struct {
	meshType core.MeshTypeId
	pool     *SlotPool[core.DynamicRenderObject]
	renderer *gpu.InstanceRenderer
	resolve  MaterialResolver

	active []core.Handle
	gather []gpu.GatherItem

	frame uint64 // current frame, maintained by the PoolManager
}

func NewObjectManager(meshType core.MeshTypeId, id core.PoolId, cfg Config, renderer *gpu.InstanceRenderer, resolve MaterialResolver) *ObjectManager {
	return &ObjectManager{
		meshType: meshType,
		pool:     NewSlotPool[core.DynamicRenderObject](id, cfg.InitialCapacity, cfg.MaxObjects, cfg.Growable),
		renderer: renderer,
		resolve:  resolve,
	}
}

func (om *ObjectManager) MeshType() core.MeshTypeId       { return om.meshType }
func (om *ObjectManager) Renderer() *gpu.InstanceRenderer { return om.renderer }
func (om *ObjectManager) ActiveCount() int                { return om.pool.Active() }

// Spawn allocates a slot for a new object. Fails with ErrPoolExhausted or
// ErrBudgetExceeded; a failed spawn produces no visible object and leaves
// the pool untouched.
func (om *ObjectManager) Spawn(def SpawnDef, now time.Time) (core.Handle, error) {
	obj := core.DynamicRenderObject{
		Transform:   def.Transform,
		Material:    def.Material,
		SpawnTime:   now,
		Lifetime:    def.Lifetime,
		Transparent: def.Transparent,
	}
	if om.resolve != nil {
		idx, transparent := om.resolve(def.Material)
		obj.MaterialIndex = idx
		obj.Transparent = obj.Transparent || transparent
	}

	h, err := om.pool.Allocate(obj)
	if err != nil {
		return core.Handle{}, err
	}
	om.active = append(om.active, h)
	return h, nil
}

// Despawn releases the object. The slot stays PendingRelease until the
// ring confirms no in-flight frame references it. Despawning a stale
// handle is ErrHandleExpired, not an error in pool state.
func (om *ObjectManager) Despawn(h core.Handle) error {
	if err := om.pool.Release(h, om.frame); err != nil {
		return err
	}
	for i, a := range om.active {
		if a == h {
			om.active = append(om.active[:i], om.active[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateTransform replaces the object's transform.
func (om *ObjectManager) UpdateTransform(h core.Handle, transform mgl32.Mat4) error {
	obj, err := om.pool.Get(h)
	if err != nil {
		return err
	}
	obj.Transform = transform
	return nil
}

// Object returns the payload behind a live handle.
func (om *ObjectManager) Object(h core.Handle) (*core.DynamicRenderObject, error) {
	return om.pool.Get(h)
}

// ActiveHandles returns the live handles in spawn order. Order is stable
// within a frame; the slice is owned by the manager and valid until the
// next despawn or sweep.
func (om *ObjectManager) ActiveHandles() []core.Handle {
	return om.active
}

// SweepExpired despawns every object whose lifetime has elapsed at now and
// returns their handles. Runs before instance gathering, so an object
// expiring this frame never reaches this frame's draw.
func (om *ObjectManager) SweepExpired(now time.Time) []core.Handle {
	var expired []core.Handle

	kept := om.active[:0]
	for _, h := range om.active {
		obj, err := om.pool.Get(h)
		if err != nil || !obj.Expired(now) {
			kept = append(kept, h)
			continue
		}
		if err := om.pool.Release(h, om.frame); err == nil {
			expired = append(expired, h)
		}
	}
	om.active = kept
	return expired
}

// beginFrame is called by the PoolManager at the top of advance_frame.
func (om *ObjectManager) beginFrame(frame uint64) {
	om.frame = frame
}

// collectPending recycles despawned slots whose last referencing frame has
// completed.
func (om *ObjectManager) collectPending(completedThrough uint64) {
	om.pool.CollectPending(completedThrough)
}

// gatherItems rebuilds the renderer's input from the active list.
func (om *ObjectManager) gatherItems() []gpu.GatherItem {
	om.gather = om.gather[:0]
	for _, h := range om.active {
		obj, err := om.pool.Get(h)
		if err != nil {
			continue
		}
		om.gather = append(om.gather, gpu.GatherItem{Object: obj, Index: h.Index})
	}
	return om.gather
}
