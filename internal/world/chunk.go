package world

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/annel0/voxel-world/internal/vec"
)

const dirtyWords = vec.ChunkVolume / 64

// Chunk представляет участок мира размером 16x16x16 блоков.
// Кроме данных блоков хранит кэш маски перекрытия граней для каждого блока.
// Кэш учитывает только соседей внутри чанка; соседей из других чанков
// разрешает VoxelWorld.
type Chunk[T Block] struct {
	Coords vec.Vec3 // Координаты чанка в мире

	blocks    [vec.ChunkVolume]T
	occlusion [vec.ChunkVolume]Occlusion
	dirty     [dirtyWords]uint64 // Блоки, чей кэш перекрытия устарел
	edits     uint64             // Счетчик изменений

	mu sync.RWMutex
}

// NewChunk создаёт новый чанк, все блоки которого имеют значение по умолчанию
func NewChunk[T Block](coords vec.Vec3) *Chunk[T] {
	c := &Chunk[T]{Coords: coords}
	c.markAllDirty()
	return c
}

// chunkIndex совпадает с vec.RegionChunk.Index
func chunkIndex(local vec.Vec3) int {
	return local.X | local.Y<<vec.ChunkBits | local.Z<<(2*vec.ChunkBits)
}

func chunkLocal(i int) vec.Vec3 {
	return vec.Vec3{X: i & vec.ChunkMask, Y: (i >> vec.ChunkBits) & vec.ChunkMask, Z: i >> (2 * vec.ChunkBits)}
}

// GetBlock возвращает блок по локальным координатам
func (c *Chunk[T]) GetBlock(local vec.Vec3) (T, error) {
	if !local.InChunk() {
		var zero T
		return zero, outOfBounds(local)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[chunkIndex(local)], nil
}

// SetBlock устанавливает блок по локальным координатам
func (c *Chunk[T]) SetBlock(local vec.Vec3, value T) error {
	if !local.InChunk() {
		return outOfBounds(local)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(local, value)
	return nil
}

// setLocked меняет блок под уже взятой блокировкой записи
func (c *Chunk[T]) setLocked(local vec.Vec3, value T) {
	c.blocks[chunkIndex(local)] = value
	c.edits++

	// Кэш самого блока и его соседей внутри чанка устарел
	c.markDirty(chunkIndex(local))
	for _, f := range Faces {
		n := local.Add(f.Offset())
		if n.InChunk() {
			c.markDirty(chunkIndex(n))
		}
	}
}

// OcclusionAt возвращает грани блока, закрытые соседями внутри чанка.
// Устаревший кэш пересчитывается при чтении.
func (c *Chunk[T]) OcclusionAt(local vec.Vec3) (Occlusion, error) {
	if !local.InChunk() {
		return OcclusionNone, outOfBounds(local)
	}
	i := chunkIndex(local)

	c.mu.RLock()
	if !c.isDirty(i) {
		o := c.occlusion[i]
		c.mu.RUnlock()
		return o, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Проверяем еще раз: кэш мог пересчитать другой читатель
	if c.isDirty(i) {
		c.occlusion[i] = c.computeOcclusion(local)
		c.clearDirty(i)
	}
	return c.occlusion[i], nil
}

// RecomputeOcclusion пересчитывает весь устаревший кэш за один проход
func (c *Chunk[T]) RecomputeOcclusion() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for w := 0; w < dirtyWords; w++ {
		word := c.dirty[w]
		for word != 0 {
			b := bits.TrailingZeros64(word)
			i := w*64 + b
			c.occlusion[i] = c.computeOcclusion(chunkLocal(i))
			word &^= 1 << b
		}
		c.dirty[w] = 0
	}
}

func (c *Chunk[T]) computeOcclusion(local vec.Vec3) Occlusion {
	var o Occlusion
	for _, f := range Faces {
		n := local.Add(f.Offset())
		if n.InChunk() && hides(c.blocks[chunkIndex(n)], f) {
			o = o.With(f)
		}
	}
	return o
}

// Fill заполняет весь чанк одним значением
func (c *Chunk[T]) Fill(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.blocks {
		c.blocks[i] = value
	}
	c.edits++
	c.markAllDirty()
}

// Edits возвращает счетчик изменений чанка
func (c *Chunk[T]) Edits() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.edits
}

// Snapshot возвращает копию данных блоков в порядке vec.RegionChunk
func (c *Chunk[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, vec.ChunkVolume)
	copy(out, c.blocks[:])
	return out
}

// Load восстанавливает данные блоков из снимка
func (c *Chunk[T]) Load(data []T) error {
	if len(data) != vec.ChunkVolume {
		return fmt.Errorf("неверный размер снимка чанка: %d, ожидалось %d", len(data), vec.ChunkVolume)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	copy(c.blocks[:], data)
	c.edits++
	c.markAllDirty()
	return nil
}

func (c *Chunk[T]) markDirty(i int) {
	c.dirty[i>>6] |= 1 << (i & 63)
}

func (c *Chunk[T]) clearDirty(i int) {
	c.dirty[i>>6] &^= 1 << (i & 63)
}

func (c *Chunk[T]) isDirty(i int) bool {
	return c.dirty[i>>6]&(1<<(i&63)) != 0
}

func (c *Chunk[T]) markAllDirty() {
	for w := range c.dirty {
		c.dirty[w] = ^uint64(0)
	}
}
