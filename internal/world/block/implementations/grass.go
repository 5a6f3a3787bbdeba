package implementations

import (
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Материалы граней травы: верх травяной, низ земляной, бока отдельные
const (
	GrassTopMaterial  uint16 = 200
	GrassSideMaterial uint16 = 201
)

// NewGrassBehavior трава: куб с разными материалами граней
func NewGrassBehavior() *block.Solid {
	cube := mesh.UniformCube(GrassSideMaterial)
	cube.Materials[world.FaceYPos] = GrassTopMaterial
	cube.Materials[world.FaceYNeg] = uint16(block.DirtBlockID)

	return &block.Solid{
		BlockID:   block.GrassBlockID,
		BlockName: "Grass",
		Cube:      cube,
	}
}
