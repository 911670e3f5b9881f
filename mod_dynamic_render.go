package rusteroids

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/ericrwinkler/rusteroids-sub000/render/gpu"
	"github.com/ericrwinkler/rusteroids-sub000/render/pool"
)

// CameraState is the view resource the instance renderer sorts transparent
// objects against.
type CameraState struct {
	Position mgl32.Vec3
}

// DynamicRenderModule installs the dynamic render-object subsystem: a
// PoolManager resource for spawning, and the per-frame advance system in
// the Render stage. With no explicit Backend it runs headless, which is
// what tests and simulation runs want; an app with a PlatformWindowModule
// passes a wgpu backend built from its GpuState.
type DynamicRenderModule struct {
	Backend        gpu.Backend
	FramesInFlight int
}

func (m DynamicRenderModule) Install(app *App) {
	backend := m.Backend
	if backend == nil {
		backend = gpu.NewHeadlessBackend()
	}

	depth := m.FramesInFlight
	if depth == 0 {
		depth = gpu.DefaultFramesInFlight
	}

	app.AddResources(pool.NewPoolManager(backend, depth), &CameraState{})
	app.UseSystem(dynamicRenderSystem, Render)
}

func dynamicRenderSystem(app *App, t *Time, cam *CameraState, pm *pool.PoolManager) {
	stats := pm.AdvanceFrame(t.Now, cam.Position)

	log := app.Logger()
	for _, err := range stats.Errors {
		log.Errorf("dynamic render frame %d: %v", stats.Frame, err)
	}
	if log.DebugEnabled() {
		log.Debugf("dynamic render frame %d: %d draws, %d instances, %d expired",
			stats.Frame, stats.Draws, stats.Instances, stats.Expired)
	}
}

// RegisterConfiguredPools registers one pool per config entry, resolving
// mesh names through the asset server and wiring its material resolver.
func RegisterConfiguredPools(pm *pool.PoolManager, assets *AssetServer, cfg *Config) error {
	for _, settings := range cfg.Pools {
		meshType, ok := assets.MeshByName(settings.Mesh)
		if !ok {
			return &UnknownMeshError{Name: settings.Mesh}
		}
		mesh, _ := assets.Mesh(meshType)
		if err := pm.RegisterPool(meshType, settings.PoolConfig(), mesh, assets.MaterialResolver()); err != nil {
			return err
		}
	}
	return nil
}

// UnknownMeshError reports a pool config naming a mesh that was never
// registered with the asset server.
type UnknownMeshError struct {
	Name string
}

func (e *UnknownMeshError) Error() string {
	return "no mesh registered under name " + e.Name
}
