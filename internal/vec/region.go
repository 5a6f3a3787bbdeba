package vec

import (
	"fmt"
	"iter"
)

// Region описывает прямоугольную область с включительными границами Min и Max.
// Область с Min > Max хотя бы по одной оси пустая: она корректна и
// при обходе не выдаёт ни одной координаты.
type Region struct {
	Min Vec3
	Max Vec3
}

// RegionChunk область одного чанка в локальных координатах
var RegionChunk = Region{Min: Vec3{}, Max: Vec3{X: ChunkMask, Y: ChunkMask, Z: ChunkMask}}

// NewRegion создаёт область по двум углам в любом порядке
func NewRegion(a, b Vec3) Region {
	return Region{
		Min: Vec3{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)},
		Max: Vec3{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)},
	}
}

// ChunkRegion возвращает область блоков, которую занимает чанк
func ChunkRegion(chunk Vec3) Region {
	return RegionChunk.Shift(chunk.ChunkOrigin())
}

// String для логов
func (r Region) String() string {
	return fmt.Sprintf("[%d,%d,%d..%d,%d,%d]", r.Min.X, r.Min.Y, r.Min.Z, r.Max.X, r.Max.Y, r.Max.Z)
}

// IsEmpty возвращает true, если область не содержит ни одной координаты
func (r Region) IsEmpty() bool {
	return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y || r.Min.Z > r.Max.Z
}

// Size возвращает размеры области по осям (нули для пустой области)
func (r Region) Size() Vec3 {
	if r.IsEmpty() {
		return Vec3{}
	}
	return Vec3{
		X: r.Max.X - r.Min.X + 1,
		Y: r.Max.Y - r.Min.Y + 1,
		Z: r.Max.Z - r.Min.Z + 1,
	}
}

// Volume возвращает количество координат в области
func (r Region) Volume() int {
	s := r.Size()
	return s.X * s.Y * s.Z
}

// Contains проверяет, лежит ли координата внутри области
func (r Region) Contains(v Vec3) bool {
	return v.X >= r.Min.X && v.X <= r.Max.X &&
		v.Y >= r.Min.Y && v.Y <= r.Max.Y &&
		v.Z >= r.Min.Z && v.Z <= r.Max.Z
}

// Shift сдвигает область на вектор
func (r Region) Shift(delta Vec3) Region {
	return Region{Min: r.Min.Add(delta), Max: r.Max.Add(delta)}
}

// Expand расширяет область на n блоков во все стороны (ореол для соседей)
func (r Region) Expand(n int) Region {
	d := Vec3{X: n, Y: n, Z: n}
	return Region{Min: r.Min.Sub(d), Max: r.Max.Add(d)}
}

// Intersect возвращает пересечение областей. Для непересекающихся областей
// результат пустой.
func (r Region) Intersect(other Region) Region {
	return Region{
		Min: Vec3{X: max(r.Min.X, other.Min.X), Y: max(r.Min.Y, other.Min.Y), Z: max(r.Min.Z, other.Min.Z)},
		Max: Vec3{X: min(r.Max.X, other.Max.X), Y: min(r.Max.Y, other.Max.Y), Z: min(r.Max.Z, other.Max.Z)},
	}
}

// Index возвращает смещение координаты в плотном массиве области
// (X меняется быстрее всего, затем Y, затем Z). Координата должна лежать в области.
func (r Region) Index(v Vec3) int {
	s := r.Size()
	return (v.X - r.Min.X) + (v.Y-r.Min.Y)*s.X + (v.Z-r.Min.Z)*s.X*s.Y
}

// At обратная к Index операция
func (r Region) At(index int) Vec3 {
	s := r.Size()
	return Vec3{
		X: r.Min.X + index%s.X,
		Y: r.Min.Y + (index/s.X)%s.Y,
		Z: r.Min.Z + index/(s.X*s.Y),
	}
}

// All возвращает ленивую последовательность всех координат области
// в фиксированном порядке: X быстрее всего, затем Y, затем Z.
// Последовательность можно обходить повторно.
func (r Region) All() iter.Seq[Vec3] {
	return func(yield func(Vec3) bool) {
		if r.IsEmpty() {
			return
		}
		for z := r.Min.Z; z <= r.Max.Z; z++ {
			for y := r.Min.Y; y <= r.Max.Y; y++ {
				for x := r.Min.X; x <= r.Max.X; x++ {
					if !yield(Vec3{X: x, Y: y, Z: z}) {
						return
					}
				}
			}
		}
	}
}

// Chunks возвращает область координат чанков, покрывающих область блоков
func (r Region) Chunks() Region {
	if r.IsEmpty() {
		return Region{Min: Vec3{X: 1}, Max: Vec3{}}
	}
	return Region{Min: r.Min.ToChunkCoords(), Max: r.Max.ToChunkCoords()}
}
