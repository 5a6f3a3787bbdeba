package terrain

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/aquilax/go-perlin"
)

// Параметры рельефа
const (
	heightScale  = 64.0 // Горизонтальный масштаб шума в блоках
	heightAmp    = 16.0 // Амплитуда высоты
	heightOffset = -10.0
	dirtDepth    = 3 // Толщина слоя земли под травой
)

// Perlin генератор рельефа по карте высот:
// height = perlin(x/64, z/64)*16 - 10 с отбрасыванием дробной части к нулю.
// Ниже SeaLevel пустоты заполняются водой. Высоты считаются заново
// для каждого чанка, генератор не хранит состояния между вызовами.
type Perlin struct {
	SeaLevel int

	noise *perlin.Perlin
}

// NewPerlin создаёт генератор с сидом
func NewPerlin(seed int64, seaLevel int) *Perlin {
	return &Perlin{
		SeaLevel: seaLevel,
		noise:    newPerlin(seed),
	}
}

// Height возвращает высоту поверхности колонны: первый пустой блок над землёй
func (p *Perlin) Height(column vec.Vec2) int {
	n := p.noise.Noise2D(float64(column.X)/heightScale, float64(column.Y)/heightScale)
	return int(n*heightAmp + heightOffset)
}

// GenerateChunk реализует world.Generator
func (p *Perlin) GenerateChunk(chunk vec.Vec3) *world.Slice[block.BlockID] {
	s := world.NewChunkSlice[block.BlockID](chunk)
	origin := vec.FromChunkLocal(chunk, vec.Zero)

	// Карта высот одного чанка, общая для всех его слоёв
	var heights [vec.ChunkSize][vec.ChunkSize]int
	for dz := 0; dz < vec.ChunkSize; dz++ {
		for dx := 0; dx < vec.ChunkSize; dx++ {
			heights[dz][dx] = p.Height(vec.Vec2{X: origin.X + dx, Y: origin.Z + dz})
		}
	}

	for pos := range s.Region().All() {
		h := heights[pos.Z-origin.Z][pos.X-origin.X]
		if id := p.blockAt(pos, h); id != block.AirBlockID {
			_ = s.SetBlock(pos, id)
		}
	}
	return s
}

func (p *Perlin) blockAt(pos vec.Vec3, height int) block.BlockID {
	switch {
	case pos.Y >= height:
		if pos.Y < p.SeaLevel {
			return block.WaterBlockID
		}
		return block.AirBlockID
	case pos.Y == height-1:
		// Под водой поверхность песчаная
		if height <= p.SeaLevel {
			return block.SandBlockID
		}
		return block.GrassBlockID
	case pos.Y >= height-1-dirtDepth:
		return block.DirtBlockID
	default:
		return block.StoneBlockID
	}
}
