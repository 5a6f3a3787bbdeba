// meshdump генерирует область вокруг начала координат и пишет её меш
// в формате Wavefront OBJ.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/annel0/voxel-world/internal/anchor"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/streaming"
	"github.com/annel0/voxel-world/internal/terrain"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
	_ "github.com/annel0/voxel-world/internal/world/block/implementations"
	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	radius := flag.Int("radius", 2, "радиус области в чанках (куб)")
	seed := flag.Int64("seed", 1, "seed генератора рельефа")
	out := flag.String("out", "world.obj", "файл результата, - для stdout")
	greedy := flag.Bool("greedy", true, "объединять совпадающие грани")
	flag.Parse()

	if err := run(*radius, *seed, *out, *greedy); err != nil {
		logging.Error("❌ %v", err)
		os.Exit(1)
	}
}

func run(radius int, seed int64, out string, greedy bool) error {
	ctx := context.Background()
	w := world.NewVoxelWorld[block.BlockID](world.Options[block.BlockID]{})
	gen := terrain.NewCaves(terrain.NewPerlin(seed, -8), seed)

	for _, off := range anchor.Offsets(radius, anchor.Chebyshev) {
		if err := w.LoadChunk(ctx, off, gen); err != nil {
			return err
		}
	}

	// Границы области закрыты, наружу смотрят только поверхности рельефа
	p := streaming.NewPipeline[block.BlockID](w, nil, streaming.Options{
		Mesh:    mesh.Options{Missing: mesh.MissingOccludes, Greedy: greedy},
		Workers: 4,
	})
	if _, err := p.Process(ctx, w.DrainEvents()); err != nil {
		return err
	}

	combined := &mesh.Mesh{}
	for _, c := range p.Meshes() {
		cm, _ := p.Mesh(c)
		origin := c.ChunkOrigin()
		part := &mesh.Mesh{}
		part.Append(cm.Mesh)
		part.Translate(mgl32.Vec3{float32(origin.X), float32(origin.Y), float32(origin.Z)})
		combined.Append(part)
	}

	if err := write(out, combined); err != nil {
		return err
	}
	logging.Info("✅ %d чанков, %d граней записано в %s", w.ResidentCount(), combined.Quads(), out)
	return nil
}

func write(path string, m *mesh.Mesh) error {
	var dst io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("создание %s: %w", path, err)
		}
		defer f.Close()
		dst = f
	}

	return m.WriteOBJ(dst)
}
