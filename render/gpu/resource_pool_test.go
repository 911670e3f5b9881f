package gpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourcePoolCreatesOneBufferPerSlot(t *testing.T) {
	hb := NewHeadlessBackend()
	ring := NewFrameRing(3)

	res, err := NewResourcePool(hb, ring, MeshBuffers{}, "asteroid", 16)
	require.NoError(t, err)

	assert.Equal(t, 3, hb.LiveBuffers())
	for slot := 0; slot < 3; slot++ {
		assert.Equal(t, uint32(16), res.InstanceCapacity(slot))
	}
}

func TestResourcePoolCreateFailureCleansUp(t *testing.T) {
	hb := NewHeadlessBackend()
	ring := NewFrameRing(3)

	hb.FailNextCreate(errors.New("out of device memory"))
	_, err := NewResourcePool(hb, ring, MeshBuffers{}, "asteroid", 16)
	require.Error(t, err)
	assert.Equal(t, 0, hb.LiveBuffers())
}

func TestResourcePoolGrowthRetiresOldBuffer(t *testing.T) {
	hb := NewHeadlessBackend()
	ring := NewFrameRing(2)
	res, err := NewResourcePool(hb, ring, MeshBuffers{}, "asteroid", 2)
	require.NoError(t, err)

	small, err := res.EnsureInstanceCapacity(0, 2)
	require.NoError(t, err)

	// Frame 5 forces growth: new buffer, old one retired but still live.
	for i := 0; i < 5; i++ {
		ring.BeginFrame()
		ring.EndFrame(nil)
	}
	grown, err := res.EnsureInstanceCapacity(0, 5)
	require.NoError(t, err)

	assert.NotSame(t, small, grown)
	assert.Equal(t, uint32(8), res.InstanceCapacity(0), "capacity doubles until it fits")
	assert.Equal(t, 1, res.RetiredCount())
	assert.Equal(t, 3, hb.LiveBuffers())

	// Frame 4 completing is not enough; frame 5 is.
	res.ReleaseRetired(4)
	assert.Equal(t, 1, res.RetiredCount())
	res.ReleaseRetired(5)
	assert.Equal(t, 0, res.RetiredCount())
	assert.Equal(t, 2, hb.LiveBuffers())
}

func TestResourcePoolCloseReleasesEverything(t *testing.T) {
	hb := NewHeadlessBackend()
	ring := NewFrameRing(2)
	res, err := NewResourcePool(hb, ring, MeshBuffers{}, "asteroid", 2)
	require.NoError(t, err)

	// Leave one buffer retired so Close has both kinds to free.
	_, err = res.EnsureInstanceCapacity(0, 10)
	require.NoError(t, err)
	require.Equal(t, 1, res.RetiredCount())

	res.Close()
	assert.Equal(t, 0, hb.LiveBuffers())

	res.Close() // idempotent
	assert.Equal(t, 0, hb.LiveBuffers())
}
