package core

// PoolId identifies one object pool inside a PoolManager. Assigned at
// registration time and stable for the lifetime of the manager.
type PoolId uint32

// MeshTypeId is an opaque identifier for a mesh resource. The asset layer
// owns the mapping from MeshTypeId to actual vertex/index data; this
// package only routes on it. One pool holds exactly one mesh type.
type MeshTypeId string

// MaterialId is an opaque identifier for a material. Resolved to a packed
// material index by the asset layer before upload.
type MaterialId string

// Handle is an opaque reference to a pooled render object. It is never
// dereferenced directly; every access goes through the owning pool, which
// checks Generation against the slot's current generation. A handle whose
// generation no longer matches is stale and every operation on it fails
// with ErrHandleExpired.
type Handle struct {
	Pool       PoolId
	Index      uint32
	Generation uint32
}

// IsZero reports whether h is the zero handle. The zero handle is never
// returned by a successful allocation: generation 0 is valid, but pool ids
// start at 1 so that a forgotten handle cannot alias pool 0 slot 0.
func (h Handle) IsZero() bool {
	return h == Handle{}
}
