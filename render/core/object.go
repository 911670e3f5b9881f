package core

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// DynamicRenderObject is the payload of one pool slot: a short-lived
// renderable spawned at runtime. It is owned exclusively by its slot and
// mutated only through the owning ObjectManager; external code holds a
// Handle, never a pointer.
type DynamicRenderObject struct {
	Transform     mgl32.Mat4
	Material      MaterialId
	MaterialIndex uint32
	SpawnTime     time.Time
	Lifetime      float32 // seconds; <= 0 means the object never expires
	Transparent   bool
}

// Expired reports whether the object's lifetime has elapsed at now.
// The boundary is inclusive: an object with Lifetime L is gone once
// elapsed >= L, so it never appears in the frame its lifetime ends.
func (o *DynamicRenderObject) Expired(now time.Time) bool {
	if o.Lifetime <= 0 {
		return false
	}
	return now.Sub(o.SpawnTime).Seconds() >= float64(o.Lifetime)
}

// TRS builds a transform matrix from position, rotation and scale.
// M = T * R * S, same convention as the rest of the engine.
func TRS(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	translate := mgl32.Translate3D(position.X(), position.Y(), position.Z())
	rotate := rotation.Mat4()
	scaled := mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())

	return translate.Mul4(rotate).Mul4(scaled)
}

// WorldPosition extracts the translation column of a transform.
func WorldPosition(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m[12], m[13], m[14]}
}
