package core

import "errors"

// Error kinds returned by the pooling subsystem. All of them are recoverable
// by the caller; the pool layers never panic on bad input. Callers test with
// errors.Is since most sites wrap these with context.
var (
	// ErrHandleExpired means a handle's generation no longer matches its
	// slot (or its index is out of range). The referenced object has been
	// despawned and the slot possibly reused.
	ErrHandleExpired = errors.New("render: handle expired")

	// ErrPoolExhausted means no free slot was available and the pool is not
	// configured to grow. Transient: the caller may retry next frame.
	ErrPoolExhausted = errors.New("render: pool exhausted")

	// ErrBudgetExceeded means the pool needed to grow but growth would
	// exceed its configured object budget. Signals a capacity-planning
	// problem upstream rather than a transient condition.
	ErrBudgetExceeded = errors.New("render: pool budget exceeded")

	// ErrUploadFailed means the per-frame instance upload for one pool
	// failed. Frame-fatal for that pool only; other pools proceed.
	ErrUploadFailed = errors.New("render: instance upload failed")

	// ErrUnknownMeshType means a spawn was routed to a mesh type no pool
	// was registered for.
	ErrUnknownMeshType = errors.New("render: unknown mesh type")

	// ErrDuplicateMeshType means a pool was already registered for the
	// mesh type.
	ErrDuplicateMeshType = errors.New("render: duplicate mesh type")
)
