package world

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/metrics"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

// Options настройки мира. Нулевое значение допустимо.
type Options[T Block] struct {
	// Archive хранит данные выгруженных чанков, чтобы повторная загрузка
	// не вызывала генератор. По умолчанию storage.NewMemoryArchive.
	Archive storage.Archive[T]

	// Metrics необязательные метрики Prometheus
	Metrics *metrics.WorldMetrics

	// Logger по умолчанию logging.GetWorldLogger()
	Logger *logging.Logger
}

// VoxelWorld бесконечная разреженная сетка чанков, единственный источник
// истины о состоянии мира. Отсутствующая запись означает "не загружен",
// что отличается от явно пустого чанка.
//
// Структурные изменения (вставка/удаление чанка) взаимоисключающие.
// Чтение и запись блоков берут общую блокировку мира и собственную
// блокировку чанка, поэтому операции над разными чанками идут параллельно.
type VoxelWorld[T Block] struct {
	id string

	mu         sync.RWMutex
	chunks     map[vec.Vec3]*residentChunk[T]
	generated  map[vec.Vec3]struct{} // Координаты, для которых генератор уже вызывался
	nextLoadID uint64

	archive storage.Archive[T]
	loads   singleflight.Group

	eventsMu sync.Mutex
	events   []ChunkEvent

	loadCount    atomic.Uint64
	unloadCount  atomic.Uint64
	restoreCount atomic.Uint64

	metrics *metrics.WorldMetrics
	log     *logging.Logger
}

type residentChunk[T Block] struct {
	chunk  *Chunk[T]
	loadID uint64 // Уникален для каждого пребывания чанка в памяти
}

// WorldStats сводная статистика мира
type WorldStats struct {
	ID        string `json:"id"`
	Resident  int    `json:"resident"`
	Generated int    `json:"generated"`
	Archived  int    `json:"archived"`
	Loads     uint64 `json:"loads"`
	Unloads   uint64 `json:"unloads"`
	Restores  uint64 `json:"restores"`
	Pending   int    `json:"pending_events"`
}

// NewVoxelWorld создаёт пустой мир
func NewVoxelWorld[T Block](opts Options[T]) *VoxelWorld[T] {
	if opts.Archive == nil {
		opts.Archive = storage.NewMemoryArchive[T]()
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetWorldLogger()
	}

	return &VoxelWorld[T]{
		id:        uuid.NewString(),
		chunks:    make(map[vec.Vec3]*residentChunk[T]),
		generated: make(map[vec.Vec3]struct{}),
		archive:   opts.Archive,
		metrics:   opts.Metrics,
		log:       opts.Logger,
	}
}

// ID возвращает идентификатор мира
func (w *VoxelWorld[T]) ID() string {
	return w.id
}

// GetBlock возвращает блок по мировым координатам.
// Второе значение false, если чанк не загружен. Генерация не запускается.
func (w *VoxelWorld[T]) GetBlock(pos vec.Vec3) (T, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	r, ok := w.chunks[pos.ToChunkCoords()]
	if !ok {
		var zero T
		return zero, false
	}

	// Локальные координаты всегда в пределах чанка
	v, _ := r.chunk.GetBlock(pos.LocalInChunk())
	return v, true
}

// BlockAt синоним GetBlock для генератора мешей
func (w *VoxelWorld[T]) BlockAt(pos vec.Vec3) (T, bool) {
	return w.GetBlock(pos)
}

// SetBlock устанавливает блок по мировым координатам
func (w *VoxelWorld[T]) SetBlock(pos vec.Vec3, value T) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	coords := pos.ToChunkCoords()
	r, ok := w.chunks[coords]
	if !ok {
		return notResident(coords)
	}
	return r.chunk.SetBlock(pos.LocalInChunk(), value)
}

// OcclusionAt возвращает грани блока, закрытые соседями. Внутри чанка
// используется кэш, на границе опрашиваются соседние чанки, если они загружены.
func (w *VoxelWorld[T]) OcclusionAt(pos vec.Vec3) Occlusion {
	w.mu.RLock()
	defer w.mu.RUnlock()

	coords := pos.ToChunkCoords()
	r, ok := w.chunks[coords]
	if !ok {
		return OcclusionNone
	}

	local := pos.LocalInChunk()
	o, _ := r.chunk.OcclusionAt(local)

	for _, f := range Faces {
		if local.Add(f.Offset()).InChunk() {
			continue
		}
		n := pos.Add(f.Offset())
		nr, ok := w.chunks[n.ToChunkCoords()]
		if !ok {
			continue
		}
		nb, _ := nr.chunk.GetBlock(n.LocalInChunk())
		if hides(nb, f) {
			o = o.With(f)
		}
	}
	return o
}

// GetSlice копирует данные области. Если хотя бы один затронутый чанк
// не загружен, возвращает ChunkNotResidentError со списком отсутствующих.
// Пустая область даёт пустой срез без ошибки.
func (w *VoxelWorld[T]) GetSlice(region vec.Region) (*Slice[T], error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if missing := w.missingLocked(region); len(missing) > 0 {
		return nil, notResident(missing...)
	}
	return w.readLocked(region), nil
}

// ReadSlice копирует данные области, оставляя значения по умолчанию
// там, где чанки не загружены
func (w *VoxelWorld[T]) ReadSlice(region vec.Region) *Slice[T] {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.readLocked(region)
}

// ReadSnapshot как ReadSlice, но дополнительно возвращает чанки области,
// которые не были загружены в момент чтения
func (w *VoxelWorld[T]) ReadSnapshot(region vec.Region) (*Slice[T], []vec.Vec3) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.readLocked(region), w.missingLocked(region)
}

func (w *VoxelWorld[T]) readLocked(region vec.Region) *Slice[T] {
	s := NewSlice[T](region)
	for cc := range region.Chunks().All() {
		r, ok := w.chunks[cc]
		if !ok {
			continue
		}
		part := region.Intersect(vec.ChunkRegion(cc))

		r.chunk.mu.RLock()
		for pos := range part.All() {
			s.blocks[region.Index(pos)] = r.chunk.blocks[chunkIndex(pos.LocalInChunk())]
		}
		r.chunk.mu.RUnlock()
	}
	return s
}

// SetSlice записывает срез в мир по принципу "всё или ничего": сначала
// проверяется, что все затронутые чанки загружены, и только потом
// изменяется хоть один из них. При ошибке мир не меняется.
func (w *VoxelWorld[T]) SetSlice(s *Slice[T]) error {
	region := s.Region()

	w.mu.RLock()
	defer w.mu.RUnlock()

	if missing := w.missingLocked(region); len(missing) > 0 {
		return notResident(missing...)
	}

	for cc := range region.Chunks().All() {
		r := w.chunks[cc]
		part := region.Intersect(vec.ChunkRegion(cc))

		r.chunk.mu.Lock()
		for pos := range part.All() {
			r.chunk.setLocked(pos.LocalInChunk(), s.blocks[region.Index(pos)])
		}
		r.chunk.mu.Unlock()
	}
	return nil
}

func (w *VoxelWorld[T]) missingLocked(region vec.Region) []vec.Vec3 {
	var missing []vec.Vec3
	for cc := range region.Chunks().All() {
		if _, ok := w.chunks[cc]; !ok {
			missing = append(missing, cc)
		}
	}
	return missing
}

// GetChunk возвращает копию данных загруженного чанка
func (w *VoxelWorld[T]) GetChunk(coords vec.Vec3) (*Slice[T], bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	r, ok := w.chunks[coords]
	if !ok {
		return nil, false
	}
	s := &Slice[T]{region: vec.ChunkRegion(coords), blocks: r.chunk.Snapshot()}
	return s, true
}

// SetChunk заменяет данные чанка. Если чанк не был загружен, он вставляется
// как сгенерированный и порождает событие Load.
func (w *VoxelWorld[T]) SetChunk(coords vec.Vec3, data *Slice[T]) error {
	chunk := NewChunk[T](coords)
	if err := fillChunk(chunk, data); err != nil {
		return err
	}

	w.mu.Lock()
	if r, ok := w.chunks[coords]; ok {
		w.mu.Unlock()
		return r.chunk.Load(chunk.blocks[:])
	}
	w.insertLocked(coords, chunk)
	w.generated[coords] = struct{}{}
	w.mu.Unlock()

	w.loadCount.Add(1)
	w.emit(EventTypeChunkLoad, coords)
	return nil
}

// LoadChunk загружает чанк. Если он уже в памяти, ничего не делает.
// Если чанк выгружался раньше, данные восстанавливаются из архива без
// вызова генератора. Иначе генератор вызывается синхронно ровно один раз.
// Параллельные вызовы для одной координаты схлопываются в один.
func (w *VoxelWorld[T]) LoadChunk(ctx context.Context, coords vec.Vec3, gen Generator[T]) error {
	if w.IsResident(coords) {
		return nil
	}

	_, err, _ := w.loads.Do(coordKey(coords), func() (interface{}, error) {
		if w.IsResident(coords) {
			return nil, nil
		}

		chunk, generated, err := w.materialize(ctx, coords, gen)
		if err != nil {
			return nil, err
		}

		w.mu.Lock()
		if _, exists := w.chunks[coords]; exists {
			w.mu.Unlock()
			return nil, nil
		}
		w.insertLocked(coords, chunk)
		if generated {
			w.generated[coords] = struct{}{}
		}
		resident := len(w.chunks)
		w.mu.Unlock()

		w.loadCount.Add(1)
		w.metrics.ChunkLoaded(resident)
		w.emit(EventTypeChunkLoad, coords)
		return nil, nil
	})
	return err
}

// materialize готовит данные чанка: из архива или через генератор
func (w *VoxelWorld[T]) materialize(ctx context.Context, coords vec.Vec3, gen Generator[T]) (*Chunk[T], bool, error) {
	chunk := NewChunk[T](coords)

	data, found, err := w.archive.Load(coords)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения чанка %v из архива: %w", coords, err)
	}
	if found {
		if err := chunk.Load(data); err != nil {
			return nil, false, fmt.Errorf("повреждённый снимок чанка %v: %w", coords, err)
		}
		w.restoreCount.Add(1)
		w.metrics.ChunkRestored()
		return chunk, false, nil
	}

	w.mu.RLock()
	_, wasGenerated := w.generated[coords]
	w.mu.RUnlock()
	if wasGenerated {
		w.log.Warn("Чанк %v уже генерировался, но отсутствует в архиве; генерируем заново", coords)
	}
	if gen == nil {
		gen = EmptyGenerator[T]()
	}

	_, span := observability.Tracer().Start(ctx, "world.generate_chunk")
	span.SetAttributes(
		attribute.Int("chunk.x", coords.X),
		attribute.Int("chunk.y", coords.Y),
		attribute.Int("chunk.z", coords.Z),
	)
	start := time.Now()
	slice := gen.GenerateChunk(coords)
	elapsed := time.Since(start)
	span.End()

	w.metrics.ObserveGeneration(elapsed)
	if err := fillChunk(chunk, slice); err != nil {
		return nil, false, err
	}
	chunk.RecomputeOcclusion()

	w.log.Trace("Чанк %v сгенерирован за %s", coords, elapsed)
	return chunk, true, nil
}

// fillChunk копирует в чанк часть среза, которая попадает в его область
func fillChunk[T Block](chunk *Chunk[T], data *Slice[T]) error {
	if data == nil {
		return nil
	}
	region := vec.ChunkRegion(chunk.Coords)
	if data.Region() == region {
		return chunk.Load(data.blocks)
	}

	part := data.Region().Intersect(region)
	chunk.mu.Lock()
	defer chunk.mu.Unlock()
	for pos := range part.All() {
		chunk.setLocked(pos.LocalInChunk(), data.blocks[data.Region().Index(pos)])
	}
	return nil
}

func (w *VoxelWorld[T]) insertLocked(coords vec.Vec3, chunk *Chunk[T]) {
	if _, exists := w.chunks[coords]; exists {
		panic(fmt.Sprintf("world %s: чанк %v вставлен дважды", w.id, coords))
	}
	w.nextLoadID++
	w.chunks[coords] = &residentChunk[T]{chunk: chunk, loadID: w.nextLoadID}
}

// UnloadChunk выгружает чанк, сохраняя его данные в архиве.
// Для отсутствующего чанка ничего не делает. Если архив не принял данные,
// чанк остаётся в памяти и возвращается ошибка.
func (w *VoxelWorld[T]) UnloadChunk(coords vec.Vec3) error {
	w.mu.Lock()
	r, ok := w.chunks[coords]
	if !ok {
		w.mu.Unlock()
		return nil
	}

	if err := w.archive.Store(coords, r.chunk.Snapshot()); err != nil {
		w.mu.Unlock()
		return fmt.Errorf("ошибка архивации чанка %v: %w", coords, err)
	}
	delete(w.chunks, coords)
	resident := len(w.chunks)
	w.mu.Unlock()

	w.unloadCount.Add(1)
	w.metrics.ChunkUnloaded(resident)
	w.emit(EventTypeChunkUnload, coords)
	return nil
}

// LoadID возвращает идентификатор текущего пребывания чанка в памяти.
// Если чанк выгрузили и загрузили снова, идентификатор изменится.
func (w *VoxelWorld[T]) LoadID(coords vec.Vec3) (uint64, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	r, ok := w.chunks[coords]
	if !ok {
		return 0, false
	}
	return r.loadID, true
}

// ChunkEdits возвращает счетчик изменений загруженного чанка
func (w *VoxelWorld[T]) ChunkEdits(coords vec.Vec3) (uint64, bool) {
	w.mu.RLock()
	r, ok := w.chunks[coords]
	w.mu.RUnlock()

	if !ok {
		return 0, false
	}
	return r.chunk.Edits(), true
}

// IsResident проверяет, загружен ли чанк
func (w *VoxelWorld[T]) IsResident(coords vec.Vec3) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	_, ok := w.chunks[coords]
	return ok
}

// WasGenerated проверяет, вызывался ли генератор для координаты
func (w *VoxelWorld[T]) WasGenerated(coords vec.Vec3) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	_, ok := w.generated[coords]
	return ok
}

// ResidentCount возвращает количество загруженных чанков
func (w *VoxelWorld[T]) ResidentCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.chunks)
}

// ResidentChunks возвращает координаты загруженных чанков в порядке Z, Y, X
func (w *VoxelWorld[T]) ResidentChunks() []vec.Vec3 {
	w.mu.RLock()
	out := make([]vec.Vec3, 0, len(w.chunks))
	for c := range w.chunks {
		out = append(out, c)
	}
	w.mu.RUnlock()

	slices.SortFunc(out, compareCoords)
	return out
}

// DrainEvents забирает накопленные события. Порядок событий совпадает
// с порядком переходов.
func (w *VoxelWorld[T]) DrainEvents() []ChunkEvent {
	w.eventsMu.Lock()
	defer w.eventsMu.Unlock()

	out := w.events
	w.events = nil
	return out
}

func (w *VoxelWorld[T]) emit(t EventType, coords vec.Vec3) {
	w.eventsMu.Lock()
	w.events = append(w.events, ChunkEvent{EventType: t, World: w.id, Coords: coords})
	w.eventsMu.Unlock()
}

// Stats возвращает статистику мира
func (w *VoxelWorld[T]) Stats() WorldStats {
	w.mu.RLock()
	resident := len(w.chunks)
	generated := len(w.generated)
	w.mu.RUnlock()

	w.eventsMu.Lock()
	pending := len(w.events)
	w.eventsMu.Unlock()

	return WorldStats{
		ID:        w.id,
		Resident:  resident,
		Generated: generated,
		Archived:  w.archive.Len(),
		Loads:     w.loadCount.Load(),
		Unloads:   w.unloadCount.Load(),
		Restores:  w.restoreCount.Load(),
		Pending:   pending,
	}
}

func coordKey(c vec.Vec3) string {
	return fmt.Sprintf("%d:%d:%d", c.X, c.Y, c.Z)
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
