package terrain

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/ojrac/opensimplex-go"
)

// Caves вырезает пещеры из результата другого генератора по
// трёхмерному симплекс-шуму. Вода и воздух не трогаются.
type Caves struct {
	Base      world.Generator[block.BlockID]
	Scale     float64 // Масштаб шума в блоках
	Threshold float64 // Блоки со значением шума выше порога становятся воздухом
	MaxY      int     // Пещеры только ниже этой высоты

	noise opensimplex.Noise
}

// NewCaves создаёт генератор пещер поверх base
func NewCaves(base world.Generator[block.BlockID], seed int64) *Caves {
	return &Caves{
		Base:      base,
		Scale:     24,
		Threshold: 0.55,
		MaxY:      -4,
		noise:     opensimplex.New(seed),
	}
}

// GenerateChunk реализует world.Generator
func (c *Caves) GenerateChunk(chunk vec.Vec3) *world.Slice[block.BlockID] {
	s := c.Base.GenerateChunk(chunk)
	if s == nil || chunk.ChunkOrigin().Y >= c.MaxY {
		return s
	}

	for pos, id := range s.All() {
		if pos.Y >= c.MaxY || id == block.AirBlockID || id == block.WaterBlockID {
			continue
		}
		v := c.noise.Eval3(float64(pos.X)/c.Scale, float64(pos.Y)/c.Scale, float64(pos.Z)/c.Scale)
		if v > c.Threshold {
			_ = s.SetBlock(pos, block.AirBlockID)
		}
	}
	return s
}
