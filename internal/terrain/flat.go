// Package terrain содержит примеры генераторов мира
package terrain

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Flat заполняет всё ниже Height камнем, а верхний слой травой
type Flat struct {
	Height int
}

// GenerateChunk реализует world.Generator
func (f Flat) GenerateChunk(chunk vec.Vec3) *world.Slice[block.BlockID] {
	s := world.NewChunkSlice[block.BlockID](chunk)
	if chunk.ChunkOrigin().Y >= f.Height {
		return s
	}
	for pos := range s.Region().All() {
		switch {
		case pos.Y < f.Height-1:
			_ = s.SetBlock(pos, block.StoneBlockID)
		case pos.Y == f.Height-1:
			_ = s.SetBlock(pos, block.GrassBlockID)
		}
	}
	return s
}
