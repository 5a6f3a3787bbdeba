package world

import (
	"strings"

	"github.com/annel0/voxel-world/internal/vec"
)

// Face определяет одну из шести граней блока
type Face uint8

const (
	FaceXNeg Face = iota // Запад (-X)
	FaceXPos             // Восток (+X)
	FaceYNeg             // Низ (-Y)
	FaceYPos             // Верх (+Y)
	FaceZNeg             // Север (-Z)
	FaceZPos             // Юг (+Z)

	FaceCount = 6
)

// Faces все грани в фиксированном порядке
var Faces = [FaceCount]Face{FaceXNeg, FaceXPos, FaceYNeg, FaceYPos, FaceZNeg, FaceZPos}

var faceOffsets = [FaceCount]vec.Vec3{
	{X: -1}, {X: 1},
	{Y: -1}, {Y: 1},
	{Z: -1}, {Z: 1},
}

var faceNames = [FaceCount]string{"x-", "x+", "y-", "y+", "z-", "z+"}

// Offset возвращает смещение к соседнему блоку через эту грань
func (f Face) Offset() vec.Vec3 {
	return faceOffsets[f]
}

// Opposite возвращает противоположную грань
func (f Face) Opposite() Face {
	return f ^ 1
}

// Axis возвращает ось грани: 0 - X, 1 - Y, 2 - Z
func (f Face) Axis() int {
	return int(f) >> 1
}

// Positive возвращает true для граней, смотрящих в положительном направлении оси
func (f Face) Positive() bool {
	return f&1 == 1
}

func (f Face) String() string {
	if f >= FaceCount {
		return "?"
	}
	return faceNames[f]
}

// Occlusion битовая маска граней. Для значения блока означает грани,
// через которые блок полностью перекрывает видимость. Для кэша чанка
// означает грани блока, закрытые соседями.
type Occlusion uint8

const (
	OcclusionNone Occlusion = 0
	OcclusionAll  Occlusion = 1<<FaceCount - 1
)

// OcclusionOf собирает маску из набора граней
func OcclusionOf(faces ...Face) Occlusion {
	var o Occlusion
	for _, f := range faces {
		o |= 1 << f
	}
	return o
}

// Has проверяет, установлена ли грань
func (o Occlusion) Has(f Face) bool {
	return o&(1<<f) != 0
}

// With возвращает маску с установленной гранью
func (o Occlusion) With(f Face) Occlusion {
	return o | 1<<f
}

// Count возвращает количество установленных граней
func (o Occlusion) Count() int {
	n := 0
	for _, f := range Faces {
		if o.Has(f) {
			n++
		}
	}
	return n
}

func (o Occlusion) String() string {
	if o == OcclusionNone {
		return "none"
	}
	parts := make([]string, 0, FaceCount)
	for _, f := range Faces {
		if o.Has(f) {
			parts = append(parts, f.String())
		}
	}
	return strings.Join(parts, "|")
}
