package world

import (
	"github.com/annel0/voxel-world/internal/vec"
)

// EventType определяет тип события чанка
type EventType uint8

const (
	EventTypeChunkLoad   EventType = iota // Чанк загружен в память
	EventTypeChunkUnload                  // Чанк выгружен из памяти
)

// String возвращает имя события для шины и логов
func (t EventType) String() string {
	switch t {
	case EventTypeChunkLoad:
		return "chunk.load"
	case EventTypeChunkUnload:
		return "chunk.unload"
	default:
		return "chunk.unknown"
	}
}

// ChunkEvent неизменяемая запись о переходе чанка между состояниями.
// Создаётся ровно один раз на каждый переход.
type ChunkEvent struct {
	EventType EventType
	World     string   // Идентификатор мира
	Coords    vec.Vec3 // Координаты чанка
}

// GetType возвращает тип события
func (e ChunkEvent) GetType() EventType {
	return e.EventType
}
