package world

import (
	"errors"
	"fmt"
	"strings"

	"github.com/annel0/voxel-world/internal/vec"
)

// Ошибки хранилища мира
var (
	// ErrOutOfBounds локальная координата вне [0,16). Ошибка программиста,
	// повторять операцию бессмысленно.
	ErrOutOfBounds = errors.New("coordinate out of chunk bounds")

	// ErrChunkNotResident операция над чанком, который не загружен.
	// Ожидаемая ситуация: вызывающий код должен сначала загрузить чанк.
	ErrChunkNotResident = errors.New("chunk not resident")

	// ErrGenerationStale чанк был выгружен или перезагружен во время
	// генерации меша. Запрос можно повторить.
	ErrGenerationStale = errors.New("chunk generation stale")
)

// ChunkNotResidentError перечисляет отсутствующие чанки.
// errors.Is(err, ErrChunkNotResident) возвращает true.
type ChunkNotResidentError struct {
	Coords []vec.Vec3
}

func (e *ChunkNotResidentError) Error() string {
	parts := make([]string, 0, len(e.Coords))
	for _, c := range e.Coords {
		parts = append(parts, fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z))
	}
	return fmt.Sprintf("%s: %s", ErrChunkNotResident, strings.Join(parts, ", "))
}

// Is позволяет сравнивать с ErrChunkNotResident
func (e *ChunkNotResidentError) Is(target error) bool {
	return target == ErrChunkNotResident
}

func notResident(coords ...vec.Vec3) error {
	return &ChunkNotResidentError{Coords: coords}
}

func outOfBounds(local vec.Vec3) error {
	return fmt.Errorf("%w: (%d,%d,%d)", ErrOutOfBounds, local.X, local.Y, local.Z)
}
