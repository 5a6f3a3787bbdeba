package implementations_test

import (
	"testing"

	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
	_ "github.com/annel0/voxel-world/internal/world/block/implementations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredBlocks(t *testing.T) {
	for _, id := range []block.BlockID{
		block.AirBlockID, block.StoneBlockID, block.GrassBlockID,
		block.WaterBlockID, block.SandBlockID, block.DirtBlockID,
	} {
		behavior, ok := block.Get(id)
		require.True(t, ok, "блок %d не зарегистрирован", id)
		assert.Equal(t, id, behavior.ID())
		assert.Equal(t, behavior.Name(), id.String())
	}
	assert.False(t, block.IsValidBlockID(9999))
	assert.Equal(t, "Block(9999)", block.BlockID(9999).String())
}

func TestBlockCapabilities(t *testing.T) {
	assert.Nil(t, block.AirBlockID.Model())
	assert.Equal(t, world.OcclusionNone, block.AirBlockID.Occludes())

	assert.Equal(t, world.OcclusionAll, block.StoneBlockID.Occludes())
	assert.True(t, block.StoneBlockID.Model().FullCube())

	assert.Equal(t, world.OcclusionNone, block.WaterBlockID.Occludes())
	assert.False(t, block.WaterBlockID.Model().FullCube())

	// Незарегистрированный блок не рисуется и не закрывает соседей
	assert.Nil(t, block.BlockID(500).Model())
	assert.Equal(t, world.OcclusionNone, block.BlockID(500).Occludes())
}

func TestGrassMaterials(t *testing.T) {
	s := world.NewSlice[block.BlockID](vec.NewRegion(vec.Zero, vec.Zero))
	require.NoError(t, s.SetBlock(vec.Zero, block.GrassBlockID))

	m := mesh.Generate[block.BlockID](s, s.Region(), mesh.Options{})
	require.Equal(t, 6, m.Quads())

	materials := make(map[world.Face]uint16)
	for q := 0; q < m.Quads(); q++ {
		n := m.Normals[m.Indices[q*6]]
		for _, f := range world.Faces {
			if mesh.FaceNormal(f) == n {
				materials[f] = m.Materials[q]
			}
		}
	}
	assert.Equal(t, uint16(200), materials[world.FaceYPos])
	assert.Equal(t, uint16(block.DirtBlockID), materials[world.FaceYNeg])
	assert.Equal(t, uint16(201), materials[world.FaceXNeg])
}
