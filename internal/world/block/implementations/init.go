// Package implementations регистрирует стандартный набор блоков.
// Подключается пустым импортом.
package implementations

import "github.com/annel0/voxel-world/internal/world/block"

// Регистрируем все типы блоков при импорте пакета
func init() {
	block.Register(block.AirBlockID, &AirBehavior{})
	block.Register(block.StoneBlockID, NewStoneBehavior())
	block.Register(block.GrassBlockID, NewGrassBehavior())
	block.Register(block.WaterBlockID, NewWaterBehavior())
	block.Register(block.SandBlockID, NewSandBehavior())
	block.Register(block.DirtBlockID, NewDirtBehavior())
}
