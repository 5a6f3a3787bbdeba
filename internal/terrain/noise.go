package terrain

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	perlinAlpha   = 2.0 // Сглаживание шума
	perlinBeta    = 2.0 // Частота шума
	perlinOctaves = 3   // Количество октав
)

// newPerlin создаёт генератор шума Перлина с указанным сидом.
// Noise2D только читает таблицы, поэтому генератор можно использовать
// из нескольких горутин.
func newPerlin(seed int64) *perlin.Perlin {
	return perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed)
}
