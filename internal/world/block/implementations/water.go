package implementations

import (
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// WaterBehavior реализует поведение блока воды.
// Вода прозрачна: соседние грани остаются видимыми.
type WaterBehavior struct {
	model *mesh.InsetModel
}

// NewWaterBehavior создаёт воду с поверхностью, опущенной на 1/8 блока
func NewWaterBehavior() *WaterBehavior {
	return &WaterBehavior{
		model: &mesh.InsetModel{Material: uint16(block.WaterBlockID), Inset: 0.125},
	}
}

// ID возвращает идентификатор блока
func (b *WaterBehavior) ID() block.BlockID {
	return block.WaterBlockID
}

// Name возвращает имя блока
func (b *WaterBehavior) Name() string {
	return "Water"
}

// Occludes вода ничего не закрывает
func (b *WaterBehavior) Occludes() world.Occlusion {
	return world.OcclusionNone
}

// Model возвращает модель поверхности воды
func (b *WaterBehavior) Model() mesh.ModelGenerator {
	return b.model
}
