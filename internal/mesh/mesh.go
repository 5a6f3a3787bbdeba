// Package mesh строит геометрию из данных мира: грани блоков, закрытые
// соседями, отбрасываются, совпадающие соседние грани по желанию
// объединяются в крупные четырёхугольники.
package mesh

import (
	"bufio"
	"fmt"
	"io"

	"github.com/annel0/voxel-world/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh буфер геометрии из четырёхугольников, разбитых на треугольники.
// Координаты вершин отсчитываются от начала области генерации.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2 // В единицах блоков: грань 3x1 имеет u в [0,3]
	Indices   []uint32
	Materials []uint16 // Материал каждого четырёхугольника
}

// Quads возвращает количество четырёхугольников
func (m *Mesh) Quads() int {
	return len(m.Materials)
}

// Empty возвращает true, если в меше нет геометрии
func (m *Mesh) Empty() bool {
	return len(m.Indices) == 0
}

var faceNormals = [world.FaceCount]mgl32.Vec3{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

// FaceNormal возвращает нормаль грани
func FaceNormal(f world.Face) mgl32.Vec3 {
	return faceNormals[f]
}

// AddQuad добавляет четырёхугольник в плоскости грани face.
// base - минимальный угол блока, du и dv - размеры по осям плоскости
// (для грани оси a это оси (a+1)%3 и (a+2)%3). Вершины идут против
// часовой стрелки, если смотреть снаружи.
func (m *Mesh) AddQuad(face world.Face, base mgl32.Vec3, du, dv float32, material uint16) {
	a := face.Axis()
	u, v := (a+1)%3, (a+2)%3

	if face.Positive() {
		base[a]++
	}
	var eu, ev mgl32.Vec3
	eu[u] = du
	ev[v] = dv

	corners := [4]mgl32.Vec3{base, base.Add(eu), base.Add(eu).Add(ev), base.Add(ev)}
	uvs := [4]mgl32.Vec2{{0, 0}, {du, 0}, {du, dv}, {0, dv}}
	if !face.Positive() {
		// Обратный обход для граней, смотрящих в отрицательную сторону
		corners[1], corners[3] = corners[3], corners[1]
		uvs[1], uvs[3] = uvs[3], uvs[1]
	}

	start := uint32(len(m.Positions))
	normal := faceNormals[face]
	for i := range corners {
		m.Positions = append(m.Positions, corners[i])
		m.Normals = append(m.Normals, normal)
		m.UVs = append(m.UVs, uvs[i])
	}
	m.Indices = append(m.Indices, start, start+1, start+2, start, start+2, start+3)
	m.Materials = append(m.Materials, material)
}

// Append дописывает геометрию другого меша
func (m *Mesh) Append(other *Mesh) {
	if other == nil {
		return
	}
	offset := uint32(len(m.Positions))
	m.Positions = append(m.Positions, other.Positions...)
	m.Normals = append(m.Normals, other.Normals...)
	m.UVs = append(m.UVs, other.UVs...)
	for _, i := range other.Indices {
		m.Indices = append(m.Indices, i+offset)
	}
	m.Materials = append(m.Materials, other.Materials...)
}

// Translate сдвигает все вершины
func (m *Mesh) Translate(offset mgl32.Vec3) {
	for i := range m.Positions {
		m.Positions[i] = m.Positions[i].Add(offset)
	}
}

// WriteOBJ записывает меш в формате Wavefront OBJ.
// Каждый материал выводится отдельной группой usemtl.
func (m *Mesh) WriteOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# voxel mesh: %d vertices, %d quads\n", len(m.Positions), m.Quads())
	for _, p := range m.Positions {
		fmt.Fprintf(bw, "v %g %g %g\n", p.X(), p.Y(), p.Z())
	}
	for _, uv := range m.UVs {
		fmt.Fprintf(bw, "vt %g %g\n", uv.X(), uv.Y())
	}
	for _, n := range m.Normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", n.X(), n.Y(), n.Z())
	}

	current := -1
	for q, material := range m.Materials {
		if int(material) != current {
			current = int(material)
			fmt.Fprintf(bw, "usemtl block_%d\n", material)
		}
		idx := m.Indices[q*6 : q*6+6]
		for tri := 0; tri < 2; tri++ {
			bw.WriteString("f")
			for _, i := range idx[tri*3 : tri*3+3] {
				// Индексы OBJ начинаются с единицы
				fmt.Fprintf(bw, " %d/%d/%d", i+1, i+1, i+1)
			}
			bw.WriteString("\n")
		}
	}
	return bw.Flush()
}
