package implementations

import (
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/world/block"
)

// NewStoneBehavior камень: непрозрачный куб
func NewStoneBehavior() *block.Solid {
	return &block.Solid{
		BlockID:   block.StoneBlockID,
		BlockName: "Stone",
		Cube:      mesh.UniformCube(uint16(block.StoneBlockID)),
	}
}

// NewDirtBehavior земля
func NewDirtBehavior() *block.Solid {
	return &block.Solid{
		BlockID:   block.DirtBlockID,
		BlockName: "Dirt",
		Cube:      mesh.UniformCube(uint16(block.DirtBlockID)),
	}
}

// NewSandBehavior песок
func NewSandBehavior() *block.Solid {
	return &block.Solid{
		BlockID:   block.SandBlockID,
		BlockName: "Sand",
		Cube:      mesh.UniformCube(uint16(block.SandBlockID)),
	}
}
