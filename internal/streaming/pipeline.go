// Package streaming связывает планировщик чанков, построение мешей и шину событий.
// Pipeline создаётся на пару (тип блока, мир).
package streaming

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/annel0/voxel-world/internal/anchor"
	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/metrics"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"golang.org/x/sync/errgroup"
)

// Типы событий на шине
const (
	EventMeshReady = "mesh.ready"
	EventMeshDrop  = "mesh.drop"
)

// Options настройки конвейера
type Options struct {
	Mesh mesh.Options
	// Workers число параллельных построений мешей; 0 - по одному
	Workers int
	// MaxRetries повторы построения, устаревшего из-за перезагрузки чанка
	MaxRetries int
	// Bus получатель событий; nil - события не публикуются
	Bus     eventbus.EventBus
	Metrics *metrics.MeshMetrics
	Logger  *logging.Logger
}

// ChunkMesh готовый меш чанка. Вершины отсчитываются от начала чанка.
type ChunkMesh struct {
	Coords vec.Vec3
	LoadID uint64
	Mesh   *mesh.Mesh
}

// ChunkPayload нагрузка событий chunk.load, chunk.unload и mesh.drop
type ChunkPayload struct {
	World string `json:"world"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
}

// MeshPayload нагрузка события mesh.ready
type MeshPayload struct {
	ChunkPayload
	Quads int `json:"quads"`
}

// StepReport итог одного шага конвейера
type StepReport struct {
	Pass    anchor.PassReport
	Built   int
	Stale   int // Построения, сброшенные после всех повторов
	Dropped int
}

// Pipeline перестраивает меши по событиям мира
type Pipeline[T mesh.Shape] struct {
	world *world.VoxelWorld[T]
	sched *anchor.Scheduler[T]
	opts  Options
	log   *logging.Logger

	mu     sync.RWMutex
	meshes map[vec.Vec3]*ChunkMesh
}

// NewPipeline создаёт конвейер. sched может быть nil, тогда события
// передаются через Process.
func NewPipeline[T mesh.Shape](w *world.VoxelWorld[T], sched *anchor.Scheduler[T], opts Options) *Pipeline[T] {
	if opts.Logger == nil {
		opts.Logger = logging.GetStreamingLogger()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Pipeline[T]{
		world:  w,
		sched:  sched,
		opts:   opts,
		log:    opts.Logger,
		meshes: make(map[vec.Vec3]*ChunkMesh),
	}
}

// Step выполняет проход планировщика и перестраивает затронутые меши
func (p *Pipeline[T]) Step(ctx context.Context) (StepReport, error) {
	if p.sched == nil {
		return StepReport{}, errors.New("pipeline has no scheduler")
	}
	pass := p.sched.Update(ctx)
	report, err := p.Process(ctx, pass.Events)
	report.Pass = pass
	return report, err
}

// Run вызывает Step с периодом tick, пока ctx не отменён
func (p *Pipeline[T]) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := p.Step(ctx)
			if err != nil && ctx.Err() == nil {
				p.log.Error("Ошибка шага конвейера: %v", err)
			}
			if report.Built > 0 || report.Dropped > 0 {
				p.log.Debug("Проход %d: событий %d, мешей %d, сброшено %d",
					report.Pass.Pass, len(report.Pass.Events), report.Built, report.Dropped)
			}
		}
	}
}

// Process публикует события мира и перестраивает меши загруженных чанков
// и их соседей по граням.
func (p *Pipeline[T]) Process(ctx context.Context, events []world.ChunkEvent) (StepReport, error) {
	var report StepReport
	dirty := make(map[vec.Vec3]struct{})

	for _, ev := range events {
		p.publish(ctx, ev.EventType.String(), 5, chunkPayload(ev.World, ev.Coords))

		switch ev.EventType {
		case world.EventTypeChunkLoad:
			dirty[ev.Coords] = struct{}{}
		case world.EventTypeChunkUnload:
			delete(dirty, ev.Coords)
			if p.drop(ev.Coords) {
				report.Dropped++
				p.publish(ctx, EventMeshDrop, 1, chunkPayload(ev.World, ev.Coords))
			}
		}
		// Видимость граней на границе зависит от соседей
		for _, f := range world.Faces {
			n := ev.Coords.Add(f.Offset())
			if p.world.IsResident(n) {
				dirty[n] = struct{}{}
			}
		}
	}

	if len(dirty) == 0 {
		return report, nil
	}

	batch := make([]vec.Vec3, 0, len(dirty))
	for c := range dirty {
		batch = append(batch, c)
	}
	slices.SortFunc(batch, compareCoords)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for _, c := range batch {
		g.Go(func() error {
			built, err := p.rebuild(ctx, c)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case built:
				report.Built++
			case errors.Is(err, world.ErrGenerationStale):
				report.Stale++
				return nil
			}
			return err
		})
	}
	err := g.Wait()
	return report, err
}

// rebuild строит меш чанка с повторами для устаревших построений.
// Выгруженный чанк пропускается без ошибки.
func (p *Pipeline[T]) rebuild(ctx context.Context, c vec.Vec3) (bool, error) {
	var err error
	for attempt := 0; attempt <= p.opts.MaxRetries; attempt++ {
		loadID, ok := p.world.LoadID(c)
		if !ok {
			return false, nil
		}

		start := time.Now()
		var m *mesh.Mesh
		m, err = mesh.BuildChunk[T](ctx, p.world, c, p.opts.Mesh)
		switch {
		case err == nil:
			p.opts.Metrics.ObserveBuild(time.Since(start), m.Quads())
			if p.store(&ChunkMesh{Coords: c, LoadID: loadID, Mesh: m}) {
				p.publish(ctx, EventMeshReady, 1, MeshPayload{
					ChunkPayload: chunkPayload(p.world.ID(), c),
					Quads:        m.Quads(),
				})
				return true, nil
			}
			return false, nil
		case errors.Is(err, world.ErrGenerationStale):
			p.opts.Metrics.ObserveStale()
			p.log.Debug("Меш чанка %v устарел, попытка %d", c, attempt+1)
			continue
		case errors.Is(err, world.ErrChunkNotResident):
			return false, nil
		default:
			p.opts.Metrics.ObserveFailure()
			return false, err
		}
	}
	p.log.Warn("Меш чанка %v не построен после %d попыток: %v", c, p.opts.MaxRetries+1, err)
	return false, err
}

// store сохраняет меш, если чанк всё ещё в той же загрузке
func (p *Pipeline[T]) store(cm *ChunkMesh) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.world.LoadID(cm.Coords); !ok || current != cm.LoadID {
		return false
	}
	p.meshes[cm.Coords] = cm
	return true
}

func (p *Pipeline[T]) drop(c vec.Vec3) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.meshes[c]; !ok {
		return false
	}
	delete(p.meshes, c)
	return true
}

// Mesh возвращает последний меш чанка
func (p *Pipeline[T]) Mesh(c vec.Vec3) (*ChunkMesh, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cm, ok := p.meshes[c]
	return cm, ok
}

// Meshes возвращает координаты всех чанков с готовым мешем, по порядку
func (p *Pipeline[T]) Meshes() []vec.Vec3 {
	p.mu.RLock()
	out := make([]vec.Vec3, 0, len(p.meshes))
	for c := range p.meshes {
		out = append(out, c)
	}
	p.mu.RUnlock()
	slices.SortFunc(out, compareCoords)
	return out
}

// MeshCount возвращает количество мешей в кэше
func (p *Pipeline[T]) MeshCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.meshes)
}

func (p *Pipeline[T]) publish(ctx context.Context, eventType string, priority int, payload any) {
	if p.opts.Bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope("streaming", eventType, payload)
	if err != nil {
		p.log.Error("Ошибка кодирования события %s: %v", eventType, err)
		return
	}
	ev.Priority = priority
	if err := p.opts.Bus.Publish(ctx, ev); err != nil && !errors.Is(err, eventbus.ErrBusClosed) {
		p.log.Warn("Не удалось опубликовать %s: %v", eventType, err)
	}
}

func chunkPayload(worldID string, c vec.Vec3) ChunkPayload {
	return ChunkPayload{World: worldID, X: c.X, Y: c.Y, Z: c.Z}
}

func compareCoords(a, b vec.Vec3) int {
	if a.Z != b.Z {
		return a.Z - b.Z
	}
	if a.Y != b.Y {
		return a.Y - b.Y
	}
	return a.X - b.X
}

// MeshQuads возвращает число четырёхугольников в меше чанка
func (p *Pipeline[T]) MeshQuads(c vec.Vec3) (int, bool) {
	cm, ok := p.Mesh(c)
	if !ok {
		return 0, false
	}
	return cm.Mesh.Quads(), true
}
