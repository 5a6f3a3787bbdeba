// Package anchor управляет загрузкой чанков вокруг наблюдателей (якорей).
package anchor

import (
	"github.com/annel0/voxel-world/internal/vec"
)

// MaxRadius верхняя граница радиуса якоря в чанках
const MaxRadius = 32

// Entity наблюдаемый объект: камера, игрок или любой другой источник позиции
type Entity interface {
	Position() vec.Vec3Float
}

// EntityFunc адаптер функции к Entity
type EntityFunc func() vec.Vec3Float

// Position вызывает функцию
func (f EntityFunc) Position() vec.Vec3Float {
	return f()
}

// AnchorOptions параметры якоря
type AnchorOptions struct {
	Radius  int    // Радиус в чанках, обрезается до MaxRadius
	Cadence int    // Якорь обновляется раз в Cadence проходов; 0 и 1 - каждый проход
	Metric  Metric // Форма области
}

// Anchor держит чанки загруженными вокруг сущности.
// Радиус, метрика и частота обновления неизменны после создания.
type Anchor struct {
	ID      string
	entity  Entity
	radius  int
	cadence int
	metric  Metric

	claimed map[vec.Vec3]struct{}
	center  vec.Vec3
	updated bool // Был ли хотя бы один проход
}

// Radius возвращает радиус после ограничения
func (a *Anchor) Radius() int {
	return a.radius
}

// Cadence возвращает период обновления в проходах
func (a *Anchor) Cadence() int {
	return a.cadence
}

// Metric возвращает метрику области
func (a *Anchor) Metric() Metric {
	return a.metric
}

// Center возвращает чанк, в котором якорь находился при последнем обновлении
func (a *Anchor) Center() vec.Vec3 {
	return a.center
}

// due сообщает, должен ли якорь обновиться в проходе pass (счёт с нуля)
func (a *Anchor) due(pass uint64) bool {
	return !a.updated || pass%uint64(a.cadence) == 0
}

// desired возвращает желаемые чанки в порядке приоритета
func (a *Anchor) desired() (vec.Vec3, []vec.Vec3) {
	center := a.entity.Position().ToChunkCoords()
	offsets := Offsets(a.radius, a.metric)

	out := make([]vec.Vec3, len(offsets))
	for i, off := range offsets {
		out[i] = center.Add(off)
	}
	return center, out
}
