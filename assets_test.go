package rusteroids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"

	"github.com/ericrwinkler/rusteroids-sub000/render/gpu"
)

func TestAssetServer_RegisterMesh(t *testing.T) {
	hb := gpu.NewHeadlessBackend()
	s := NewAssetServer()

	vertices := make([]byte, 96)
	indices := []uint16{0, 1, 2, 2, 3, 0}

	id, err := s.RegisterMesh(hb, "asteroid", vertices, indices)
	require.NoError(t, err)

	mesh, ok := s.Mesh(id)
	require.True(t, ok)
	assert.Equal(t, uint32(6), mesh.IndexCount)
	assert.Equal(t, uint64(96), mesh.Vertex.Size())
	// Index data is padded to a 4-byte boundary for the upload.
	assert.Equal(t, uint64(12), mesh.Index.Size())

	byName, ok := s.MeshByName("asteroid")
	require.True(t, ok)
	assert.Equal(t, id, byName)

	_, err = s.RegisterMesh(hb, "asteroid", vertices, indices)
	assert.Error(t, err, "duplicate mesh name must be rejected")
	assert.Equal(t, 2, hb.LiveBuffers(), "failed registration must not leak buffers")
}

func TestAssetServer_RegisterMeshOddIndexCount(t *testing.T) {
	hb := gpu.NewHeadlessBackend()
	s := NewAssetServer()

	id, err := s.RegisterMesh(hb, "tri", make([]byte, 48), []uint16{0, 1, 2})
	require.NoError(t, err)

	mesh, _ := s.Mesh(id)
	assert.Equal(t, uint32(3), mesh.IndexCount)
	assert.Equal(t, uint64(8), mesh.Index.Size(), "6 index bytes pad up to 8")
}

func TestAssetServer_Materials(t *testing.T) {
	s := NewAssetServer()

	rock := s.RegisterMaterial("slategray", false)
	glass := s.RegisterMaterial("aliceblue", true)
	bogus := s.RegisterMaterial("not-a-color", false)

	m, ok := s.Material(rock)
	require.True(t, ok)
	assert.Equal(t, uint32(0), m.Index, "indices assigned in registration order")
	assert.Equal(t, colornames.Slategray, m.DebugColor)
	assert.False(t, m.Transparent)

	m, _ = s.Material(glass)
	assert.Equal(t, uint32(1), m.Index)
	assert.True(t, m.Transparent)

	m, _ = s.Material(bogus)
	assert.Equal(t, colornames.Magenta, m.DebugColor, "unknown color names fall back to magenta")

	resolve := s.MaterialResolver()
	idx, transparent := resolve(glass)
	assert.Equal(t, uint32(1), idx)
	assert.True(t, transparent)

	idx, transparent = resolve("never-registered")
	assert.Equal(t, uint32(0), idx)
	assert.False(t, transparent)
}
