package mesh

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// ModelGenerator строит геометрию одного блока
type ModelGenerator interface {
	// EmitFace добавляет видимую грань face. base - минимальный угол блока
	// относительно начала меша; du и dv больше единицы только для
	// объединённых граней полных кубов.
	EmitFace(m *Mesh, face world.Face, base mgl32.Vec3, du, dv float32)

	// FullCube сообщает, что модель занимает блок целиком и её грани
	// можно объединять с соседними
	FullCube() bool
}

// Shape тип блока, пригодный для построения мешей.
// Model возвращает nil для блоков без геометрии (воздух).
type Shape interface {
	comparable
	world.Block
	Model() ModelGenerator
}

// Source источник данных для генерации: мир или срез
type Source[T Shape] interface {
	// BlockAt возвращает false, если данных для координаты нет
	BlockAt(pos vec.Vec3) (T, bool)
	// OcclusionAt возвращает грани блока, закрытые соседями
	OcclusionAt(pos vec.Vec3) world.Occlusion
}

// CubeModel единичный куб с материалом на каждую грань
type CubeModel struct {
	Materials [world.FaceCount]uint16
}

// UniformCube куб с одним материалом на всех гранях
func UniformCube(material uint16) *CubeModel {
	c := &CubeModel{}
	for i := range c.Materials {
		c.Materials[i] = material
	}
	return c
}

// EmitFace добавляет грань куба
func (c *CubeModel) EmitFace(m *Mesh, face world.Face, base mgl32.Vec3, du, dv float32) {
	m.AddQuad(face, base, du, dv, c.Materials[face])
}

// FullCube всегда true
func (c *CubeModel) FullCube() bool {
	return true
}

// InsetModel куб, утопленный сверху (например, поверхность воды).
// Верхняя грань опущена на Inset, боковые остаются полной высоты,
// поэтому модель не участвует в объединении граней.
type InsetModel struct {
	Material uint16
	Inset    float32
}

// EmitFace добавляет грань
func (c *InsetModel) EmitFace(m *Mesh, face world.Face, base mgl32.Vec3, _, _ float32) {
	if face == world.FaceYPos {
		base[1] -= c.Inset
	}
	m.AddQuad(face, base, 1, 1, c.Material)
}

// FullCube всегда false
func (c *InsetModel) FullCube() bool {
	return false
}
