package pool

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ericrwinkler/rusteroids-sub000/render/core"
	"github.com/ericrwinkler/rusteroids-sub000/render/gpu"
)

// PoolManager maps mesh types to their ObjectManagers and drives the
// per-frame cycle. The whole subsystem runs on one render thread; the GPU
// is the only other actor and is synchronized with exclusively through the
// frame ring's fences.
type PoolManager struct {
	backend gpu.Backend
	ring    *gpu.FrameRing

	byMesh map[core.MeshTypeId]*ObjectManager
	byId   []*ObjectManager // pool id - 1
	order  []core.MeshTypeId
}

// FrameStats summarizes one advance_frame for the caller to log or ignore.
type FrameStats struct {
	Frame     uint64
	Draws     int
	Instances int
	Expired   int
	// Skipped lists pools whose upload failed this frame. Their draws were
	// dropped; every other pool proceeded normally.
	Skipped []core.MeshTypeId
	Errors  []error
}

func NewPoolManager(backend gpu.Backend, framesInFlight int) *PoolManager {
	return &PoolManager{
		backend: backend,
		ring:    gpu.NewFrameRing(framesInFlight),
		byMesh:  make(map[core.MeshTypeId]*ObjectManager),
	}
}

func (pm *PoolManager) Ring() *gpu.FrameRing { return pm.ring }

// RegisterPool creates the pool for one mesh type: its slot pool, its GPU
// resources, and its instance renderer. Registering the same mesh type
// twice is a configuration error.
func (pm *PoolManager) RegisterPool(meshType core.MeshTypeId, cfg Config, mesh gpu.MeshBuffers, resolve MaterialResolver) error {
	if _, exists := pm.byMesh[meshType]; exists {
		return fmt.Errorf("%w: %s", core.ErrDuplicateMeshType, meshType)
	}

	res, err := gpu.NewResourcePool(pm.backend, pm.ring, mesh, string(meshType), cfg.InstanceCapacity)
	if err != nil {
		return fmt.Errorf("failed to register pool for %s: %w", meshType, err)
	}

	id := core.PoolId(len(pm.byId) + 1) // pool ids start at 1
	om := NewObjectManager(meshType, id, cfg, gpu.NewInstanceRenderer(res), resolve)

	pm.byMesh[meshType] = om
	pm.byId = append(pm.byId, om)
	pm.order = append(pm.order, meshType)
	return nil
}

// Pool returns the ObjectManager for a mesh type.
func (pm *PoolManager) Pool(meshType core.MeshTypeId) (*ObjectManager, error) {
	om, ok := pm.byMesh[meshType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownMeshType, meshType)
	}
	return om, nil
}

// Spawn routes to the mesh type's pool.
func (pm *PoolManager) Spawn(meshType core.MeshTypeId, def SpawnDef, now time.Time) (core.Handle, error) {
	om, err := pm.Pool(meshType)
	if err != nil {
		return core.Handle{}, err
	}
	return om.Spawn(def, now)
}

// Despawn routes by the handle's pool id.
func (pm *PoolManager) Despawn(h core.Handle) error {
	om, err := pm.owner(h)
	if err != nil {
		return err
	}
	return om.Despawn(h)
}

// UpdateTransform routes by the handle's pool id.
func (pm *PoolManager) UpdateTransform(h core.Handle, transform mgl32.Mat4) error {
	om, err := pm.owner(h)
	if err != nil {
		return err
	}
	return om.UpdateTransform(h, transform)
}

// Object routes by the handle's pool id.
func (pm *PoolManager) Object(h core.Handle) (*core.DynamicRenderObject, error) {
	om, err := pm.owner(h)
	if err != nil {
		return nil, err
	}
	return om.Object(h)
}

func (pm *PoolManager) owner(h core.Handle) (*ObjectManager, error) {
	if h.Pool == 0 || int(h.Pool) > len(pm.byId) {
		return nil, fmt.Errorf("%w: handle %v names no pool", core.ErrHandleExpired, h)
	}
	return pm.byId[h.Pool-1], nil
}

// AdvanceFrame runs one frame: wait for the slot's previous use, sweep
// expired objects, recycle slots and retired buffers that are now safe,
// gather and upload every pool's instances, record opaque draws then
// transparent draws, and submit. The sweep-gather-draw order is fixed, so
// no draw ever includes an object that expired this frame.
func (pm *PoolManager) AdvanceFrame(now time.Time, viewPos mgl32.Vec3) FrameStats {
	slot := pm.ring.BeginFrame()
	frame := pm.ring.Frame()
	stats := FrameStats{Frame: frame}

	for _, meshType := range pm.order {
		om := pm.byMesh[meshType]
		om.beginFrame(frame)
		stats.Expired += len(om.SweepExpired(now))
	}

	if completed, ok := pm.ring.CompletedThrough(); ok {
		for _, meshType := range pm.order {
			om := pm.byMesh[meshType]
			om.collectPending(completed)
			om.renderer.Resources().ReleaseRetired(completed)
		}
	}

	opaque := make([]gpu.InstanceBatch, 0, len(pm.order))
	transparent := make([]gpu.InstanceBatch, 0, len(pm.order))
	renderers := make([]*gpu.InstanceRenderer, 0, len(pm.order))

	for _, meshType := range pm.order {
		om := pm.byMesh[meshType]
		o, t, err := om.renderer.GatherAndUpload(om.gatherItems(), slot, viewPos)
		if err != nil {
			// frame-fatal for this pool only
			stats.Skipped = append(stats.Skipped, meshType)
			stats.Errors = append(stats.Errors, fmt.Errorf("pool %s: %w", meshType, err))
			continue
		}
		opaque = append(opaque, o)
		transparent = append(transparent, t)
		renderers = append(renderers, om.renderer)
		stats.Instances += int(o.Count + t.Count)
	}

	// Opaque pools before transparent, for correct blending.
	for i, batch := range opaque {
		if batch.Count == 0 {
			continue
		}
		if err := renderers[i].RecordDraw(batch); err != nil {
			stats.Errors = append(stats.Errors, err)
			continue
		}
		stats.Draws++
	}
	for i, batch := range transparent {
		if batch.Count == 0 {
			continue
		}
		if err := renderers[i].RecordDraw(batch); err != nil {
			stats.Errors = append(stats.Errors, err)
			continue
		}
		stats.Draws++
	}

	pm.ring.EndFrame(pm.backend.SubmitFrame())
	return stats
}

// Close waits out every in-flight frame and releases all pools' GPU
// resources. The manager is unusable afterwards.
func (pm *PoolManager) Close() {
	pm.ring.WaitIdle()
	for _, om := range pm.byId {
		om.renderer.Resources().Close()
	}
}
