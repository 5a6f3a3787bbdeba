package world

import (
	"errors"
	"testing"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBlock простой тип блока для тестов пакета
type testBlock uint8

const (
	testAir testBlock = iota
	testSolid
	testGlass // Не перекрывает соседей
)

func (b testBlock) Occludes() Occlusion {
	if b == testSolid {
		return OcclusionAll
	}
	return OcclusionNone
}

func TestChunkCreateAndGetBlock(t *testing.T) {
	chunk := NewChunk[testBlock](vec.Vec3{X: 5, Y: -1, Z: 10})
	assert.Equal(t, vec.Vec3{X: 5, Y: -1, Z: 10}, chunk.Coords)

	pos := vec.Vec3{X: 3, Y: 4, Z: 15}
	b, err := chunk.GetBlock(pos)
	require.NoError(t, err)
	assert.Equal(t, testAir, b, "новый чанк заполнен значением по умолчанию")

	require.NoError(t, chunk.SetBlock(pos, testSolid))
	b, err = chunk.GetBlock(pos)
	require.NoError(t, err)
	assert.Equal(t, testSolid, b)
	assert.Equal(t, uint64(1), chunk.Edits())
}

func TestChunkOutOfBounds(t *testing.T) {
	chunk := NewChunk[testBlock](vec.Zero)

	for _, local := range []vec.Vec3{{X: 16}, {Y: -1}, {Z: 100}} {
		_, err := chunk.GetBlock(local)
		assert.True(t, errors.Is(err, ErrOutOfBounds), "GetBlock %v", local)

		err = chunk.SetBlock(local, testSolid)
		assert.True(t, errors.Is(err, ErrOutOfBounds), "SetBlock %v", local)

		_, err = chunk.OcclusionAt(local)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	}
	assert.Equal(t, uint64(0), chunk.Edits())
}

func TestChunkOcclusionCache(t *testing.T) {
	chunk := NewChunk[testBlock](vec.Zero)
	center := vec.Vec3{X: 8, Y: 8, Z: 8}

	o, err := chunk.OcclusionAt(center)
	require.NoError(t, err)
	assert.Equal(t, OcclusionNone, o)

	// Сосед сверху закрывает верхнюю грань
	require.NoError(t, chunk.SetBlock(center.Add(FaceYPos.Offset()), testSolid))
	o, _ = chunk.OcclusionAt(center)
	assert.Equal(t, OcclusionOf(FaceYPos), o)

	// Прозрачный сосед ничего не закрывает
	require.NoError(t, chunk.SetBlock(center.Add(FaceXNeg.Offset()), testGlass))
	o, _ = chunk.OcclusionAt(center)
	assert.Equal(t, OcclusionOf(FaceYPos), o)

	// Окружаем блок со всех сторон
	for _, f := range Faces {
		require.NoError(t, chunk.SetBlock(center.Add(f.Offset()), testSolid))
	}
	o, _ = chunk.OcclusionAt(center)
	assert.Equal(t, OcclusionAll, o)

	// Удаление соседа инвалидирует кэш
	require.NoError(t, chunk.SetBlock(center.Add(FaceZNeg.Offset()), testAir))
	o, _ = chunk.OcclusionAt(center)
	assert.False(t, o.Has(FaceZNeg))
	assert.Equal(t, 5, o.Count())
}

func TestChunkOcclusionIgnoresOtherChunks(t *testing.T) {
	chunk := NewChunk[testBlock](vec.Zero)
	chunk.Fill(testSolid)

	// Угловой блок: три грани выходят за пределы чанка
	o, err := chunk.OcclusionAt(vec.Zero)
	require.NoError(t, err)
	assert.Equal(t, OcclusionOf(FaceXPos, FaceYPos, FaceZPos), o)
}

func TestChunkRecomputeMatchesLazy(t *testing.T) {
	a := NewChunk[testBlock](vec.Zero)
	b := NewChunk[testBlock](vec.Zero)

	for i := 0; i < vec.ChunkVolume; i += 3 {
		local := chunkLocal(i)
		require.NoError(t, a.SetBlock(local, testSolid))
		require.NoError(t, b.SetBlock(local, testSolid))
	}
	a.RecomputeOcclusion()

	for pos := range vec.RegionChunk.All() {
		oa, _ := a.OcclusionAt(pos)
		ob, _ := b.OcclusionAt(pos)
		require.Equal(t, ob, oa, "позиция %v", pos)
	}
}

func TestChunkSnapshotLoad(t *testing.T) {
	chunk := NewChunk[testBlock](vec.Zero)
	require.NoError(t, chunk.SetBlock(vec.Vec3{X: 1, Y: 2, Z: 3}, testSolid))

	snap := chunk.Snapshot()
	require.Len(t, snap, vec.ChunkVolume)

	// Снимок не связан с чанком
	snap[0] = testGlass
	b, _ := chunk.GetBlock(vec.Zero)
	assert.Equal(t, testAir, b)

	restored := NewChunk[testBlock](vec.Zero)
	require.NoError(t, restored.Load(chunk.Snapshot()))
	b, _ = restored.GetBlock(vec.Vec3{X: 1, Y: 2, Z: 3})
	assert.Equal(t, testSolid, b)

	assert.Error(t, restored.Load(make([]testBlock, 10)))
}

func TestChunkIndexMatchesRegion(t *testing.T) {
	for i := 0; i < vec.ChunkVolume; i++ {
		local := chunkLocal(i)
		require.Equal(t, i, chunkIndex(local))
		require.Equal(t, i, vec.RegionChunk.Index(local))
	}
}
