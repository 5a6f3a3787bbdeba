package mesh

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// MissingPolicy задаёт видимость грани, сосед которой отсутствует в источнике
type MissingPolicy uint8

const (
	// MissingVisible грань рисуется: отсутствующий сосед считается пустым
	MissingVisible MissingPolicy = iota
	// MissingOccludes грань скрыта до загрузки соседа
	MissingOccludes
)

func (p MissingPolicy) String() string {
	if p == MissingOccludes {
		return "occludes"
	}
	return "visible"
}

// Options параметры генерации
type Options struct {
	Missing MissingPolicy
	Greedy  bool // Объединять совпадающие соседние грани полных кубов
}

// Generate строит меш для блоков области. Сосед вне области опрашивается
// у источника, так что границы области не порождают лишних граней, если
// источник знает соседей. Пустая область или область без геометрии
// дают пустой меш.
func Generate[T Shape](src Source[T], region vec.Region, opts Options) *Mesh {
	m := &Mesh{}
	if region.IsEmpty() {
		return m
	}
	if opts.Greedy {
		generateGreedy(m, src, region, opts)
		return m
	}

	for pos := range region.All() {
		b, ok := src.BlockAt(pos)
		if !ok {
			continue
		}
		model := b.Model()
		if model == nil {
			continue
		}

		occ := src.OcclusionAt(pos)
		base := relative(pos, region.Min)
		for _, f := range world.Faces {
			if faceVisible(src, pos, occ, f, opts.Missing) {
				model.EmitFace(m, f, base, 1, 1)
			}
		}
	}
	return m
}

func faceVisible[T Shape](src Source[T], pos vec.Vec3, occ world.Occlusion, f world.Face, missing MissingPolicy) bool {
	if occ.Has(f) {
		return false
	}
	if missing == MissingOccludes {
		if _, ok := src.BlockAt(pos.Add(f.Offset())); !ok {
			return false
		}
	}
	return true
}

func relative(pos, origin vec.Vec3) mgl32.Vec3 {
	d := pos.Sub(origin)
	return mgl32.Vec3{float32(d.X), float32(d.Y), float32(d.Z)}
}

type maskCell[T Shape] struct {
	block T
	set   bool
}

// generateGreedy для каждой грани и каждого слоя вдоль её оси строит
// двумерную маску видимых граней полных кубов и покрывает её
// максимальными прямоугольниками из одинаковых блоков
func generateGreedy[T Shape](m *Mesh, src Source[T], region vec.Region, opts Options) {
	size := region.Size()

	for _, f := range world.Faces {
		a := f.Axis()
		u, v := (a+1)%3, (a+2)%3
		width, height := size.Axis(u), size.Axis(v)
		mask := make([]maskCell[T], width*height)

		for layer := region.Min.Axis(a); layer <= region.Max.Axis(a); layer++ {
			clear(mask)

			for iv := 0; iv < height; iv++ {
				for iu := 0; iu < width; iu++ {
					pos := region.Min.WithAxis(a, layer).
						WithAxis(u, region.Min.Axis(u)+iu).
						WithAxis(v, region.Min.Axis(v)+iv)

					b, ok := src.BlockAt(pos)
					if !ok {
						continue
					}
					model := b.Model()
					if model == nil || !faceVisible(src, pos, src.OcclusionAt(pos), f, opts.Missing) {
						continue
					}
					if !model.FullCube() {
						model.EmitFace(m, f, relative(pos, region.Min), 1, 1)
						continue
					}
					mask[iu+iv*width] = maskCell[T]{block: b, set: true}
				}
			}

			for iv := 0; iv < height; iv++ {
				for iu := 0; iu < width; {
					cell := mask[iu+iv*width]
					if !cell.set {
						iu++
						continue
					}

					// Ширина прямоугольника вдоль u
					w := 1
					for iu+w < width && mask[iu+w+iv*width] == cell {
						w++
					}

					// Высота вдоль v, пока вся строка совпадает
					h := 1
				grow:
					for iv+h < height {
						for k := 0; k < w; k++ {
							if mask[iu+k+(iv+h)*width] != cell {
								break grow
							}
						}
						h++
					}

					pos := region.Min.WithAxis(a, layer).
						WithAxis(u, region.Min.Axis(u)+iu).
						WithAxis(v, region.Min.Axis(v)+iv)
					cell.block.Model().EmitFace(m, f, relative(pos, region.Min), float32(w), float32(h))

					for dv := 0; dv < h; dv++ {
						for du := 0; du < w; du++ {
							mask[iu+du+(iv+dv)*width] = maskCell[T]{}
						}
					}
					iu += w
				}
			}
		}
	}
}
