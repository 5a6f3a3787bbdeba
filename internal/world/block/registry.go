package block

import (
	"fmt"

	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/world"
)

// Регистр заполняется в init и дальше только читается
var registry = make(map[BlockID]BlockBehavior)

// Register добавляет поведение блока в регистр.
// Вызывается только из init, параллельную регистрацию регистр не поддерживает.
func Register(id BlockID, behavior BlockBehavior) {
	registry[id] = behavior
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (BlockBehavior, bool) {
	behavior, exists := registry[id]
	return behavior, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := registry[id]
	return exists
}

// BlockID представляет идентификатор блока.
// Нулевое значение - воздух, им заполняются новые чанки.
type BlockID uint16

// Константы ID блоков
const (
	AirBlockID   BlockID = iota // 0
	StoneBlockID                // 1
	GrassBlockID                // 2
	WaterBlockID                // 3
	SandBlockID                 // 4
	DirtBlockID                 // 5
)

// Occludes возвращает грани, которые блок закрывает для соседей.
// Незарегистрированный блок ничего не закрывает.
func (id BlockID) Occludes() world.Occlusion {
	if b, ok := registry[id]; ok {
		return b.Occludes()
	}
	return world.OcclusionNone
}

// Model возвращает модель блока или nil, если геометрии нет
func (id BlockID) Model() mesh.ModelGenerator {
	if b, ok := registry[id]; ok {
		return b.Model()
	}
	return nil
}

// String возвращает имя блока
func (id BlockID) String() string {
	if b, ok := registry[id]; ok {
		return b.Name()
	}
	return fmt.Sprintf("Block(%d)", uint16(id))
}
