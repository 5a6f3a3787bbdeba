package vec

import "math"

// Размеры чанка. Чанк всегда куб 16x16x16.
const (
	ChunkBits   = 4
	ChunkSize   = 1 << ChunkBits // 16
	ChunkMask   = ChunkSize - 1  // 0xF
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Используется и для мировых координат блока, и для координат чанка,
// и для локальных координат внутри чанка.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Vec3Float представляет трехмерный вектор с плавающими координатами
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// Zero нулевой вектор
var Zero = Vec3{}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Mul умножает вектор на скаляр
func (v Vec3) Mul(scalar int) Vec3 {
	return Vec3{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// DistanceSqTo возвращает квадрат евклидова расстояния до другого вектора
func (v Vec3) DistanceSqTo(other Vec3) int {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// DistanceTo возвращает евклидово расстояние до другого вектора
func (v Vec3) DistanceTo(other Vec3) float64 {
	return math.Sqrt(float64(v.DistanceSqTo(other)))
}

// ToChunkCoords возвращает координаты чанка, которому принадлежит блок.
// Сдвиг знаковый, поэтому округление идёт к минус бесконечности: -1 >> 4 == -1.
func (v Vec3) ToChunkCoords() Vec3 {
	return Vec3{X: v.X >> ChunkBits, Y: v.Y >> ChunkBits, Z: v.Z >> ChunkBits}
}

// LocalInChunk возвращает локальные координаты внутри чанка (всегда 0..15)
func (v Vec3) LocalInChunk() Vec3 {
	return Vec3{X: v.X & ChunkMask, Y: v.Y & ChunkMask, Z: v.Z & ChunkMask}
}

// ChunkOrigin возвращает мировые координаты первого блока чанка
func (v Vec3) ChunkOrigin() Vec3 {
	return Vec3{X: v.X << ChunkBits, Y: v.Y << ChunkBits, Z: v.Z << ChunkBits}
}

// FromChunkLocal собирает мировые координаты из координат чанка и локальных
func FromChunkLocal(chunk, local Vec3) Vec3 {
	return chunk.ChunkOrigin().Add(local)
}

// InChunk проверяет, что локальные координаты лежат в [0,16) по всем осям
func (v Vec3) InChunk() bool {
	return uint(v.X) < ChunkSize && uint(v.Y) < ChunkSize && uint(v.Z) < ChunkSize
}

// ToVec2 проецирует вектор на горизонтальную плоскость (X, Z)
func (v Vec3) ToVec2() Vec2 {
	return Vec2{X: v.X, Y: v.Z}
}

// Axis возвращает компоненту по номеру оси: 0 - X, 1 - Y, 2 - Z
func (v Vec3) Axis(i int) int {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// WithAxis возвращает копию вектора с заменённой компонентой
func (v Vec3) WithAxis(i, value int) Vec3 {
	switch i {
	case 0:
		v.X = value
	case 1:
		v.Y = value
	default:
		v.Z = value
	}
	return v
}

// ToFloat преобразует в Vec3Float
func (v Vec3) ToFloat() Vec3Float {
	return Vec3Float{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Mul умножает вектор на скаляр
func (v Vec3Float) Mul(scalar float64) Vec3Float {
	return Vec3Float{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// ToBlock возвращает координаты блока, в котором находится точка
func (v Vec3Float) ToBlock() Vec3 {
	return Vec3{
		X: int(math.Floor(v.X)),
		Y: int(math.Floor(v.Y)),
		Z: int(math.Floor(v.Z)),
	}
}

// ToChunkCoords возвращает координаты чанка, в котором находится точка
func (v Vec3Float) ToChunkCoords() Vec3 {
	return v.ToBlock().ToChunkCoords()
}
