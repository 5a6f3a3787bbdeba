package implementations

import (
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// AirBehavior реализует поведение пустого блока (воздуха)
type AirBehavior struct{}

// ID возвращает идентификатор блока
func (b *AirBehavior) ID() block.BlockID {
	return block.AirBlockID
}

// Name возвращает имя блока
func (b *AirBehavior) Name() string {
	return "Air"
}

// Occludes воздух ничего не закрывает
func (b *AirBehavior) Occludes() world.Occlusion {
	return world.OcclusionNone
}

// Model у воздуха нет геометрии
func (b *AirBehavior) Model() mesh.ModelGenerator {
	return nil
}
