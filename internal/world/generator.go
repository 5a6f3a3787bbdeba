package world

import "github.com/annel0/voxel-world/internal/vec"

// Generator стратегия первичного заполнения чанка.
// Реализация должна быть детерминированной для координаты и покрывать
// ровно область чанка. Мир вызывает генератор не более одного раза
// для каждой координаты за время своей жизни.
// Если данных для координаты нет, генератор возвращает пустой срез (или nil),
// а не ошибку.
type Generator[T Block] interface {
	GenerateChunk(chunk vec.Vec3) *Slice[T]
}

// GeneratorFunc адаптер обычной функции к Generator
type GeneratorFunc[T Block] func(chunk vec.Vec3) *Slice[T]

// GenerateChunk вызывает функцию
func (f GeneratorFunc[T]) GenerateChunk(chunk vec.Vec3) *Slice[T] {
	return f(chunk)
}

// EmptyGenerator заполняет чанки значением по умолчанию
func EmptyGenerator[T Block]() Generator[T] {
	return GeneratorFunc[T](func(chunk vec.Vec3) *Slice[T] {
		return NewChunkSlice[T](chunk)
	})
}
