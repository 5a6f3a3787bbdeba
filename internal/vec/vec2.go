package vec

// Vec2 представляет координаты колонки в горизонтальной плоскости.
// Y здесь соответствует мировой оси Z.
type Vec2 struct {
	X, Y int
}

// ToChunkCoords преобразует координаты колонки блоков в координаты колонки чанков
func (v Vec2) ToChunkCoords() Vec2 {
	return Vec2{X: v.X >> ChunkBits, Y: v.Y >> ChunkBits} // Деление на 16
}

// LocalInChunk возвращает локальные координаты внутри колонки чанка
func (v Vec2) LocalInChunk() Vec2 {
	return Vec2{X: v.X & ChunkMask, Y: v.Y & ChunkMask} // Модуль 16
}
