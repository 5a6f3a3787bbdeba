package anchor

import (
	"context"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/metrics"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// SchedulerOptions настройки планировщика
type SchedulerOptions struct {
	// Budget максимум новых загрузок за проход на всех якорей; 0 - без ограничения
	Budget int
	// Workers размер пула фоновой генерации; 0 - генерация прямо в проходе
	Workers int

	Metrics *metrics.SchedulerMetrics
	Logger  *logging.Logger
}

// PassReport итог одного прохода
type PassReport struct {
	Pass            uint64
	Anchors         int // Якоря, обновлённые в этом проходе
	Requested       int // Загрузки, потратившие бюджет
	Released        int // Координаты, на которые не осталось заявок
	Pending         int
	Claimed         int
	BudgetExhausted bool
	Duration        time.Duration
	// Events события мира с прошлого прохода в порядке переходов
	Events []world.ChunkEvent
}

type completion struct {
	coords vec.Vec3
	err    error
}

// Scheduler загружает и выгружает чанки мира так, чтобы в памяти было
// объединение областей всех якорей. Каждая координата учитывает число
// удерживающих её якорей и выгружается, когда заявок не остаётся.
type Scheduler[T world.Block] struct {
	world *world.VoxelWorld[T]
	gen   world.Generator[T]
	opts  SchedulerOptions
	log   *logging.Logger

	mu       sync.Mutex
	anchors  []*Anchor
	claims   map[vec.Vec3]int
	pending  map[vec.Vec3]struct{}
	failed   map[vec.Vec3]struct{} // Выгрузки, отклонённые архивом
	pass     uint64
	closed   bool
	pool     pond.Pool
	ctx      context.Context
	cancel   context.CancelFunc
	doneMu   sync.Mutex
	finished []completion
}

// NewScheduler создаёт планировщик для мира и генератора
func NewScheduler[T world.Block](w *world.VoxelWorld[T], gen world.Generator[T], opts SchedulerOptions) *Scheduler[T] {
	if opts.Logger == nil {
		opts.Logger = logging.GetStreamingLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler[T]{
		world:   w,
		gen:     gen,
		opts:    opts,
		log:     opts.Logger,
		claims:  make(map[vec.Vec3]int),
		pending: make(map[vec.Vec3]struct{}),
		failed:  make(map[vec.Vec3]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	if opts.Workers > 0 {
		s.pool = pond.NewPool(opts.Workers)
	}
	return s
}

// AddAnchor регистрирует якорь. Чанки загружаются в ближайшем проходе.
func (s *Scheduler[T]) AddAnchor(entity Entity, opts AnchorOptions) *Anchor {
	radius := opts.Radius
	if radius > MaxRadius {
		s.log.Debug("Радиус якоря %d обрезан до %d", radius, MaxRadius)
		radius = MaxRadius
	}
	if radius < 0 {
		radius = 0
	}
	cadence := opts.Cadence
	if cadence < 1 {
		cadence = 1
	}
	metric := opts.Metric
	if !metric.Valid() {
		s.log.Warn("Неизвестная метрика якоря %s, используется %s", metric, Euclidean)
		metric = Euclidean
	}

	a := &Anchor{
		ID:      uuid.NewString(),
		entity:  entity,
		radius:  radius,
		cadence: cadence,
		metric:  metric,
		claimed: make(map[vec.Vec3]struct{}),
	}

	s.mu.Lock()
	s.anchors = append(s.anchors, a)
	s.mu.Unlock()
	return a
}

// RemoveAnchor снимает якорь и сразу освобождает все его заявки
func (s *Scheduler[T]) RemoveAnchor(a *Anchor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, other := range s.anchors {
		if other == a {
			s.anchors = append(s.anchors[:i], s.anchors[i+1:]...)
			break
		}
	}
	for c := range a.claimed {
		s.release(a, c)
	}
}

// Anchors возвращает количество якорей
func (s *Scheduler[T]) Anchors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.anchors)
}

// Claimed возвращает число якорей, удерживающих координату
func (s *Scheduler[T]) Claimed(coords vec.Vec3) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claims[coords]
}

// IsPending сообщает, ждёт ли чанк фоновой генерации
func (s *Scheduler[T]) IsPending(coords vec.Vec3) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[coords]
	return ok
}

// Update выполняет один проход планировщика
func (s *Scheduler[T]) Update(ctx context.Context) PassReport {
	ctx, span := observability.Tracer().Start(ctx, "anchor.update")
	defer span.End()
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	report := PassReport{Pass: s.pass}
	// После Close пул не принимает задачи
	if s.closed {
		return report
	}
	budget := s.opts.Budget

	s.finalize()
	s.retryFailedUnloads()

	// spend возвращает false, если бюджет прохода исчерпан
	spend := func() bool {
		if s.opts.Budget == 0 {
			return true
		}
		if budget == 0 {
			report.BudgetExhausted = true
			return false
		}
		budget--
		return true
	}

	// Сначала все заявки, потом все освобождения: координата, которую один
	// якорь отпускает, а другой берёт в этом же проходе, не выгружается.
	type dropped struct {
		anchor *Anchor
		coords []vec.Vec3
	}
	var releases []dropped

	for _, a := range s.anchors {
		if !a.due(s.pass) {
			continue
		}
		report.Anchors++

		center, desired := a.desired()
		a.center = center
		a.updated = true

		want := make(map[vec.Vec3]struct{}, len(desired))
		for _, c := range desired {
			want[c] = struct{}{}

			if _, ok := a.claimed[c]; ok {
				// Повторная попытка для чанка, загрузка которого не удалась
				if s.needsLoad(c) && spend() {
					report.Requested++
					s.request(ctx, c)
				}
				continue
			}

			if s.needsLoad(c) {
				if !spend() {
					continue
				}
				report.Requested++
				a.claimed[c] = struct{}{}
				s.claims[c]++
				s.request(ctx, c)
				continue
			}

			// Чанк уже в памяти или в очереди: заявка бесплатна
			a.claimed[c] = struct{}{}
			s.claims[c]++
		}

		var drop []vec.Vec3
		for c := range a.claimed {
			if _, ok := want[c]; !ok {
				drop = append(drop, c)
			}
		}
		if len(drop) > 0 {
			releases = append(releases, dropped{anchor: a, coords: drop})
		}
	}

	for _, r := range releases {
		for _, c := range r.coords {
			if s.release(r.anchor, c) {
				report.Released++
			}
		}
	}

	report.Pending = len(s.pending)
	report.Claimed = len(s.claims)
	report.Events = s.world.DrainEvents()
	report.Duration = time.Since(start)
	s.pass++

	s.opts.Metrics.ObservePass(report.Duration, report.Claimed, report.Pending, report.BudgetExhausted)
	span.SetAttributes(
		attribute.Int("pass.requested", report.Requested),
		attribute.Int("pass.events", len(report.Events)),
		attribute.Bool("pass.budget_exhausted", report.BudgetExhausted),
	)
	return report
}

// needsLoad сообщает, требует ли координата генерации или восстановления
func (s *Scheduler[T]) needsLoad(c vec.Vec3) bool {
	if _, ok := s.pending[c]; ok {
		return false
	}
	return !s.world.IsResident(c)
}

// request загружает чанк синхронно или ставит в очередь пула
func (s *Scheduler[T]) request(ctx context.Context, c vec.Vec3) {
	if s.pool == nil {
		if err := s.world.LoadChunk(ctx, c, s.gen); err != nil {
			// Заявка остаётся, загрузка повторится в следующем проходе
			s.log.Error("Ошибка загрузки чанка %v: %v", c, err)
		}
		return
	}

	if s.closed {
		return
	}
	s.pending[c] = struct{}{}
	s.pool.Submit(func() {
		err := s.world.LoadChunk(s.ctx, c, s.gen)
		s.doneMu.Lock()
		s.finished = append(s.finished, completion{coords: c, err: err})
		s.doneMu.Unlock()
	})
}

// finalize обрабатывает завершённые фоновые загрузки
func (s *Scheduler[T]) finalize() {
	s.doneMu.Lock()
	done := s.finished
	s.finished = nil
	s.doneMu.Unlock()

	for _, d := range done {
		delete(s.pending, d.coords)
		if d.err != nil {
			s.log.Error("Ошибка фоновой загрузки чанка %v: %v", d.coords, d.err)
			continue
		}
		// Последняя заявка пропала, пока чанк генерировался
		if s.claims[d.coords] == 0 {
			s.unload(d.coords)
		}
	}
}

// release снимает заявку якоря. Возвращает true, если заявок не осталось.
func (s *Scheduler[T]) release(a *Anchor, c vec.Vec3) bool {
	if _, ok := a.claimed[c]; !ok {
		return false
	}
	delete(a.claimed, c)

	s.claims[c]--
	if s.claims[c] > 0 {
		return false
	}
	delete(s.claims, c)

	// Чанк в очереди выгрузится при завершении генерации
	if _, ok := s.pending[c]; !ok {
		s.unload(c)
	}
	return true
}

func (s *Scheduler[T]) unload(c vec.Vec3) {
	if err := s.world.UnloadChunk(c); err != nil {
		s.log.Error("Ошибка выгрузки чанка %v: %v", c, err)
		s.failed[c] = struct{}{}
		return
	}
	delete(s.failed, c)
}

func (s *Scheduler[T]) retryFailedUnloads() {
	for c := range s.failed {
		if s.claims[c] > 0 {
			delete(s.failed, c)
			continue
		}
		s.unload(c)
	}
}

// Wait ждёт завершения всех фоновых загрузок. Результаты применяются
// в следующем проходе.
func (s *Scheduler[T]) Wait() {
	for {
		s.mu.Lock()
		outstanding := len(s.pending)
		s.mu.Unlock()

		s.doneMu.Lock()
		outstanding -= len(s.finished)
		s.doneMu.Unlock()

		if outstanding <= 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

// Close останавливает пул и ждёт фоновых задач
func (s *Scheduler[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.pool != nil {
		s.pool.StopAndWait()
	}
	s.cancel()
}
