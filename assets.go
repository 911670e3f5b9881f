package rusteroids

import (
	"encoding/binary"
	"fmt"
	"image/color"

	"github.com/google/uuid"
	"golang.org/x/image/colornames"

	"github.com/ericrwinkler/rusteroids-sub000/render/core"
	"github.com/ericrwinkler/rusteroids-sub000/render/gpu"
	"github.com/ericrwinkler/rusteroids-sub000/render/pool"
)

// AssetServer is the asset collaborator of the render pools: it owns the
// mapping from mesh-type ids to uploaded geometry and from material ids to
// packed material indices. Pool code treats both ids as opaque.
type AssetServer struct {
	meshes     map[core.MeshTypeId]gpu.MeshBuffers
	meshByName map[string]core.MeshTypeId
	materials  map[core.MaterialId]MaterialAsset
}

// MaterialAsset is one registered material. Index is what instances carry
// to the shader; DebugColor is a development-time stand-in for the real
// material system.
type MaterialAsset struct {
	Index       uint32
	Transparent bool
	DebugColor  color.RGBA
}

type AssetServerModule struct{}

func (m AssetServerModule) Install(app *App) {
	app.AddResources(NewAssetServer())
}

func NewAssetServer() *AssetServer {
	return &AssetServer{
		meshes:     make(map[core.MeshTypeId]gpu.MeshBuffers),
		meshByName: make(map[string]core.MeshTypeId),
		materials:  make(map[core.MaterialId]MaterialAsset),
	}
}

func makeAssetId() string {
	return uuid.NewString()
}

// RegisterMesh uploads one mesh's geometry through the backend and returns
// its mesh-type id. vertexData is the packed vertex stream; indices are
// uint16 triangle indices. name must be unique.
func (s *AssetServer) RegisterMesh(backend gpu.Backend, name string, vertexData []byte, indices []uint16) (core.MeshTypeId, error) {
	if _, exists := s.meshByName[name]; exists {
		return "", fmt.Errorf("mesh %q already registered", name)
	}

	vertexBuf, err := backend.CreateBuffer(name+" Vertices", uint64(len(vertexData)), gpu.BufferUsageVertex)
	if err != nil {
		return "", fmt.Errorf("failed to upload vertices for %q: %w", name, err)
	}
	if err := backend.WriteBuffer(vertexBuf, 0, vertexData); err != nil {
		backend.ReleaseBuffer(vertexBuf)
		return "", fmt.Errorf("failed to upload vertices for %q: %w", name, err)
	}

	indexData := make([]byte, (len(indices)*2+3)&^3) // pad to 4 bytes
	for i, v := range indices {
		binary.LittleEndian.PutUint16(indexData[i*2:], v)
	}
	indexBuf, err := backend.CreateBuffer(name+" Indices", uint64(len(indexData)), gpu.BufferUsageIndex)
	if err != nil {
		backend.ReleaseBuffer(vertexBuf)
		return "", fmt.Errorf("failed to upload indices for %q: %w", name, err)
	}
	if err := backend.WriteBuffer(indexBuf, 0, indexData); err != nil {
		backend.ReleaseBuffer(vertexBuf)
		backend.ReleaseBuffer(indexBuf)
		return "", fmt.Errorf("failed to upload indices for %q: %w", name, err)
	}

	id := core.MeshTypeId(makeAssetId())
	s.meshes[id] = gpu.MeshBuffers{
		Vertex:     vertexBuf,
		Index:      indexBuf,
		IndexCount: uint32(len(indices)),
	}
	s.meshByName[name] = id
	return id, nil
}

// Mesh returns the uploaded geometry for a mesh-type id.
func (s *AssetServer) Mesh(id core.MeshTypeId) (gpu.MeshBuffers, bool) {
	m, ok := s.meshes[id]
	return m, ok
}

// MeshByName resolves a registration name to its mesh-type id.
func (s *AssetServer) MeshByName(name string) (core.MeshTypeId, bool) {
	id, ok := s.meshByName[name]
	return id, ok
}

// RegisterMaterial registers a material under a debug color name (any
// SVG 1.1 color keyword; unknown names get magenta, the universal
// "missing material" color). Indices are assigned in registration order.
func (s *AssetServer) RegisterMaterial(colorName string, transparent bool) core.MaterialId {
	debugColor, ok := colornames.Map[colorName]
	if !ok {
		debugColor = colornames.Magenta
	}

	id := core.MaterialId(makeAssetId())
	s.materials[id] = MaterialAsset{
		Index:       uint32(len(s.materials)),
		Transparent: transparent,
		DebugColor:  debugColor,
	}
	return id
}

// Material returns a registered material.
func (s *AssetServer) Material(id core.MaterialId) (MaterialAsset, bool) {
	m, ok := s.materials[id]
	return m, ok
}

// MaterialResolver adapts the server to the pool package's resolver
// contract. Unknown materials resolve to index 0, opaque.
func (s *AssetServer) MaterialResolver() pool.MaterialResolver {
	return func(id core.MaterialId) (uint32, bool) {
		m, ok := s.materials[id]
		if !ok {
			return 0, false
		}
		return m.Index, m.Transparent
	}
}
