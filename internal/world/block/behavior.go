package block

import (
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/world"
)

// BlockBehavior определяет свойства типа блока
type BlockBehavior interface {
	ID() BlockID
	Name() string
	// Occludes грани, через которые блок закрывает соседей
	Occludes() world.Occlusion
	// Model nil для блоков без геометрии
	Model() mesh.ModelGenerator
}

// Solid базовое поведение непрозрачного куба
type Solid struct {
	BlockID   BlockID
	BlockName string
	Cube      *mesh.CubeModel
}

func (s *Solid) ID() BlockID                { return s.BlockID }
func (s *Solid) Name() string               { return s.BlockName }
func (s *Solid) Occludes() world.Occlusion  { return world.OcclusionAll }
func (s *Solid) Model() mesh.ModelGenerator { return s.Cube }
