package mesh

import (
	"context"
	"fmt"

	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"go.opentelemetry.io/otel/attribute"
)

// snapshot копия чанка с ореолом в один блок. Генерация идёт по копии,
// не удерживая блокировок мира.
type snapshot[T Shape] struct {
	slice   *world.Slice[T]
	missing map[vec.Vec3]struct{}
}

func (s *snapshot[T]) BlockAt(pos vec.Vec3) (T, bool) {
	if _, gone := s.missing[pos.ToChunkCoords()]; gone {
		var zero T
		return zero, false
	}
	return s.slice.BlockAt(pos)
}

func (s *snapshot[T]) OcclusionAt(pos vec.Vec3) world.Occlusion {
	var o world.Occlusion
	for _, f := range world.Faces {
		if n, ok := s.BlockAt(pos.Add(f.Offset())); ok && n.Occludes().Has(f.Opposite()) {
			o = o.With(f)
		}
	}
	return o
}

// BuildChunk строит меш одного загруженного чанка. Вершины отсчитываются
// от начала чанка. Если чанк выгрузили или перезагрузили во время
// построения, возвращает ErrGenerationStale, и запрос можно повторить.
func BuildChunk[T Shape](ctx context.Context, w *world.VoxelWorld[T], coords vec.Vec3, opts Options) (*Mesh, error) {
	_, span := observability.Tracer().Start(ctx, "mesh.build_chunk")
	defer span.End()
	span.SetAttributes(
		attribute.Int("chunk.x", coords.X),
		attribute.Int("chunk.y", coords.Y),
		attribute.Int("chunk.z", coords.Z),
		attribute.Bool("mesh.greedy", opts.Greedy),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loadID, ok := w.LoadID(coords)
	if !ok {
		return nil, &world.ChunkNotResidentError{Coords: []vec.Vec3{coords}}
	}

	region := vec.ChunkRegion(coords)
	data, missing := w.ReadSnapshot(region.Expand(1))
	src := &snapshot[T]{slice: data, missing: make(map[vec.Vec3]struct{}, len(missing))}
	for _, c := range missing {
		src.missing[c] = struct{}{}
	}
	if _, gone := src.missing[coords]; gone {
		return nil, fmt.Errorf("%w: chunk %v evicted before snapshot", world.ErrGenerationStale, coords)
	}

	m := Generate[T](src, region, opts)

	if current, ok := w.LoadID(coords); !ok || current != loadID {
		return nil, fmt.Errorf("%w: chunk %v reloaded during build", world.ErrGenerationStale, coords)
	}
	span.SetAttributes(attribute.Int("mesh.quads", m.Quads()))
	return m, nil
}
