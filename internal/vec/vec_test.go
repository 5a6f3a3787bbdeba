package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkLocalRoundTrip(t *testing.T) {
	// Обходим кубик вокруг нуля, включая отрицательные координаты
	r := NewRegion(Vec3{X: -40, Y: -40, Z: -40}, Vec3{X: 40, Y: 40, Z: 40})
	for w := range r.All() {
		chunk := w.ToChunkCoords()
		local := w.LocalInChunk()

		require.True(t, local.InChunk(), "локальные координаты вне чанка для %v: %v", w, local)
		require.Equal(t, w, FromChunkLocal(chunk, local), "round-trip для %v", w)
	}
}

func TestNegativeCoordsFloor(t *testing.T) {
	w := Vec3{X: -1, Y: -1, Z: -1}
	assert.Equal(t, Vec3{X: -1, Y: -1, Z: -1}, w.ToChunkCoords())
	assert.Equal(t, Vec3{X: 15, Y: 15, Z: 15}, w.LocalInChunk())

	w = Vec3{X: -16, Y: -17, Z: 16}
	assert.Equal(t, Vec3{X: -1, Y: -2, Z: 1}, w.ToChunkCoords())
	assert.Equal(t, Vec3{X: 0, Y: 15, Z: 0}, w.LocalInChunk())
}

func TestFloatToBlock(t *testing.T) {
	p := Vec3Float{X: -0.5, Y: 15.99, Z: 16.0}
	assert.Equal(t, Vec3{X: -1, Y: 15, Z: 16}, p.ToBlock())
	assert.Equal(t, Vec3{X: -1, Y: 0, Z: 1}, p.ToChunkCoords())
}

func TestRegionChunkIteration(t *testing.T) {
	seen := make(map[Vec3]struct{})
	for v := range RegionChunk.All() {
		assert.True(t, v.InChunk())
		seen[v] = struct{}{}
	}
	assert.Len(t, seen, ChunkVolume)
	assert.Equal(t, ChunkVolume, RegionChunk.Volume())
}

func TestRegionIterationOrder(t *testing.T) {
	r := Region{Min: Vec3{}, Max: Vec3{X: 1, Y: 1, Z: 1}}
	var got []Vec3
	for v := range r.All() {
		got = append(got, v)
	}
	want := []Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
	}
	assert.Equal(t, want, got)

	// Порядок совпадает с Index
	for i, v := range got {
		assert.Equal(t, i, r.Index(v))
		assert.Equal(t, v, r.At(i))
	}
}

func TestRegionIterationRestartable(t *testing.T) {
	r := Region{Min: Vec3{}, Max: Vec3{X: 2, Y: 0, Z: 0}}
	seq := r.All()

	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)

	count = 0
	for range seq {
		count++
	}
	assert.Equal(t, 3, count)
}

func TestEmptyRegion(t *testing.T) {
	r := Region{Min: Vec3{X: 1}, Max: Vec3{}}
	assert.True(t, r.IsEmpty())
	assert.Equal(t, 0, r.Volume())
	for range r.All() {
		t.Fatal("пустая область не должна ничего выдавать")
	}
	assert.True(t, r.Chunks().IsEmpty())
}

func TestRegionIntersectShiftContains(t *testing.T) {
	a := NewRegion(Vec3{X: 0, Y: 0, Z: 0}, Vec3{X: 10, Y: 10, Z: 10})
	b := NewRegion(Vec3{X: 5, Y: -5, Z: 8}, Vec3{X: 20, Y: 5, Z: 9})

	i := a.Intersect(b)
	assert.Equal(t, Region{Min: Vec3{X: 5, Y: 0, Z: 8}, Max: Vec3{X: 10, Y: 5, Z: 9}}, i)

	disjoint := a.Intersect(a.Shift(Vec3{X: 100}))
	assert.True(t, disjoint.IsEmpty())

	assert.True(t, a.Contains(Vec3{X: 10, Y: 0, Z: 5}))
	assert.False(t, a.Contains(Vec3{X: 11, Y: 0, Z: 5}))

	shifted := a.Shift(Vec3{X: -3, Y: 1, Z: 0})
	assert.Equal(t, Vec3{X: -3, Y: 1, Z: 0}, shifted.Min)
	assert.Equal(t, a.Size(), shifted.Size())
}

func TestRegionChunks(t *testing.T) {
	r := NewRegion(Vec3{X: -1, Y: 0, Z: 15}, Vec3{X: 16, Y: 15, Z: 16})
	assert.Equal(t, Region{Min: Vec3{X: -1, Y: 0, Z: 0}, Max: Vec3{X: 1, Y: 0, Z: 1}}, r.Chunks())

	c := ChunkRegion(Vec3{X: -1, Y: 2, Z: 0})
	assert.Equal(t, Vec3{X: -16, Y: 32, Z: 0}, c.Min)
	assert.Equal(t, Vec3{X: -1, Y: 47, Z: 15}, c.Max)
	assert.Equal(t, Vec3{X: 18, Y: 18, Z: 18}, RegionChunk.Expand(1).Size())
}
