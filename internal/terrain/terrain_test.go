package terrain

import (
	"math"
	"testing"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlat(t *testing.T) {
	f := Flat{Height: 0}

	above := f.GenerateChunk(vec.Zero)
	for _, id := range above.All() {
		require.Equal(t, block.AirBlockID, id)
	}

	below := f.GenerateChunk(vec.Vec3{Y: -1})
	top, err := below.GetBlock(vec.Vec3{X: 3, Y: -1, Z: 7})
	require.NoError(t, err)
	assert.Equal(t, block.GrassBlockID, top)

	deep, _ := below.GetBlock(vec.Vec3{Y: -16})
	assert.Equal(t, block.StoneBlockID, deep)
}

func TestPerlinDeterministic(t *testing.T) {
	a := NewPerlin(42, -8)
	b := NewPerlin(42, -8)
	coords := vec.Vec3{X: 3, Y: -1, Z: -2}

	sa := a.GenerateChunk(coords)
	sb := b.GenerateChunk(coords)
	assert.Equal(t, sa.Region(), vec.ChunkRegion(coords))

	for pos, id := range sa.All() {
		other, _ := sb.GetBlock(pos)
		require.Equal(t, id, other, "позиция %v", pos)
	}
}

func TestPerlinHeightTruncatesTowardZero(t *testing.T) {
	p := NewPerlin(5, -8)
	negative := 0
	for x := -64; x < 64; x += 3 {
		column := vec.Vec2{X: x, Y: 2 * x}
		raw := p.noise.Noise2D(float64(column.X)/heightScale, float64(column.Y)/heightScale)*heightAmp + heightOffset
		if raw < 0 && raw != math.Trunc(raw) {
			negative++
		}
		require.Equal(t, int(math.Trunc(raw)), p.Height(column), "колонна %v", column)
	}
	assert.Positive(t, negative)
}

func TestPerlinSurfaceMatchesHeight(t *testing.T) {
	p := NewPerlin(9, -100)
	column := vec.Vec2{X: -20, Y: 37}
	h := p.Height(column)

	chunk := vec.Vec3{X: column.X, Y: h - 1, Z: column.Y}.ToChunkCoords()
	s := p.GenerateChunk(chunk)
	top, err := s.GetBlock(vec.Vec3{X: column.X, Y: h - 1, Z: column.Y})
	require.NoError(t, err)
	assert.Equal(t, block.GrassBlockID, top)
}

func TestPerlinColumnLayers(t *testing.T) {
	p := NewPerlin(7, -100)
	column := vec.Vec2{X: 10, Y: 20}
	h := p.Height(column)
	assert.Equal(t, h, p.Height(column))

	assert.Equal(t, block.GrassBlockID, p.blockAt(vec.Vec3{X: 10, Y: h - 1, Z: 20}, h))
	assert.Equal(t, block.DirtBlockID, p.blockAt(vec.Vec3{X: 10, Y: h - 2, Z: 20}, h))
	assert.Equal(t, block.StoneBlockID, p.blockAt(vec.Vec3{X: 10, Y: h - 10, Z: 20}, h))
	assert.Equal(t, block.AirBlockID, p.blockAt(vec.Vec3{X: 10, Y: h, Z: 20}, h))
}

func TestPerlinSeaLevel(t *testing.T) {
	p := NewPerlin(1, 0)
	assert.Equal(t, block.WaterBlockID, p.blockAt(vec.Vec3{Y: -1}, -5))
	assert.Equal(t, block.SandBlockID, p.blockAt(vec.Vec3{Y: -6}, -5))
	assert.Equal(t, block.AirBlockID, p.blockAt(vec.Vec3{Y: 0}, -5))
}

func TestCavesOnlyCarveSolid(t *testing.T) {
	base := Flat{Height: 0}
	c := NewCaves(base, 3)
	c.Threshold = -2 // Вырезать всё, что разрешено

	coords := vec.Vec3{Y: -1}
	s := c.GenerateChunk(coords)
	original := base.GenerateChunk(coords)
	for pos, id := range s.All() {
		if pos.Y < c.MaxY {
			require.Equal(t, block.AirBlockID, id, "позиция %v", pos)
		} else {
			expected, _ := original.GetBlock(pos)
			require.Equal(t, expected, id, "позиция %v", pos)
		}
	}

	// Чанки выше MaxY проходят без изменений
	assert.NotNil(t, c.GenerateChunk(vec.Zero))
}
