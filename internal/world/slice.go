package world

import (
	"fmt"
	"iter"

	"github.com/annel0/voxel-world/internal/vec"
)

// Slice плотный срез данных мира над произвольной областью.
// Может покрывать несколько чанков. Не связан с миром после создания:
// чтение из мира копирует данные, запись в мир копирует их обратно.
type Slice[T Block] struct {
	region vec.Region
	blocks []T
}

// NewSlice создаёт срез, заполненный значениями по умолчанию
func NewSlice[T Block](region vec.Region) *Slice[T] {
	return &Slice[T]{
		region: region,
		blocks: make([]T, region.Volume()),
	}
}

// NewChunkSlice создаёт срез ровно по области чанка
func NewChunkSlice[T Block](chunk vec.Vec3) *Slice[T] {
	return NewSlice[T](vec.ChunkRegion(chunk))
}

// Region возвращает область среза
func (s *Slice[T]) Region() vec.Region {
	return s.region
}

// Len возвращает количество блоков в срезе
func (s *Slice[T]) Len() int {
	return len(s.blocks)
}

// GetBlock возвращает блок по мировым координатам
func (s *Slice[T]) GetBlock(pos vec.Vec3) (T, error) {
	if !s.region.Contains(pos) {
		var zero T
		return zero, fmt.Errorf("%w: (%d,%d,%d) вне среза %s", ErrOutOfBounds, pos.X, pos.Y, pos.Z, s.region)
	}
	return s.blocks[s.region.Index(pos)], nil
}

// SetBlock устанавливает блок по мировым координатам
func (s *Slice[T]) SetBlock(pos vec.Vec3, value T) error {
	if !s.region.Contains(pos) {
		return fmt.Errorf("%w: (%d,%d,%d) вне среза %s", ErrOutOfBounds, pos.X, pos.Y, pos.Z, s.region)
	}
	s.blocks[s.region.Index(pos)] = value
	return nil
}

// Fill заполняет весь срез одним значением
func (s *Slice[T]) Fill(value T) {
	for i := range s.blocks {
		s.blocks[i] = value
	}
}

// All обходит срез в порядке области
func (s *Slice[T]) All() iter.Seq2[vec.Vec3, T] {
	return func(yield func(vec.Vec3, T) bool) {
		i := 0
		for pos := range s.region.All() {
			if !yield(pos, s.blocks[i]) {
				return
			}
			i++
		}
	}
}

// BlockAt возвращает блок и признак того, что координата входит в срез
func (s *Slice[T]) BlockAt(pos vec.Vec3) (T, bool) {
	if !s.region.Contains(pos) {
		var zero T
		return zero, false
	}
	return s.blocks[s.region.Index(pos)], true
}

// OcclusionAt возвращает грани блока, закрытые соседями внутри среза
func (s *Slice[T]) OcclusionAt(pos vec.Vec3) Occlusion {
	var o Occlusion
	for _, f := range Faces {
		if n, ok := s.BlockAt(pos.Add(f.Offset())); ok && hides(n, f) {
			o = o.With(f)
		}
	}
	return o
}
