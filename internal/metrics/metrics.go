// Package metrics содержит Prometheus-метрики мира, планировщика и мешинга.
// Все методы безопасны для nil-получателя: компонент без метрик просто
// не вызывает ничего лишнего.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voxel"

// Metrics объединяет наборы метрик всех компонентов
type Metrics struct {
	World     *WorldMetrics
	Scheduler *SchedulerMetrics
	Mesh      *MeshMetrics
}

// New создаёт и регистрирует все метрики в reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	w := newWorldMetrics()
	s := newSchedulerMetrics()
	m := newMeshMetrics()

	collectors := []prometheus.Collector{
		w.loads, w.unloads, w.restores, w.resident, w.generation,
		s.passes, s.passDuration, s.claims, s.pending, s.budgetExhausted,
		m.builds, m.stale, m.buildDuration, m.quads,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &Metrics{World: w, Scheduler: s, Mesh: m}, nil
}

// WorldMetrics метрики мира
type WorldMetrics struct {
	loads      prometheus.Counter
	unloads    prometheus.Counter
	restores   prometheus.Counter
	resident   prometheus.Gauge
	generation prometheus.Histogram
}

func newWorldMetrics() *WorldMetrics {
	return &WorldMetrics{
		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "chunk_loads_total",
			Help:      "Общее число загрузок чанков.",
		}),
		unloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "chunk_unloads_total",
			Help:      "Общее число выгрузок чанков.",
		}),
		restores: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "chunk_restores_total",
			Help:      "Загрузки, восстановленные из архива без генерации.",
		}),
		resident: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "resident_chunks",
			Help:      "Количество чанков в памяти.",
		}),
		generation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "generation_seconds",
			Help:      "Время генерации одного чанка.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
	}
}

// ChunkLoaded учитывает загрузку
func (m *WorldMetrics) ChunkLoaded(resident int) {
	if m == nil {
		return
	}
	m.loads.Inc()
	m.resident.Set(float64(resident))
}

// ChunkUnloaded учитывает выгрузку
func (m *WorldMetrics) ChunkUnloaded(resident int) {
	if m == nil {
		return
	}
	m.unloads.Inc()
	m.resident.Set(float64(resident))
}

// ChunkRestored учитывает восстановление из архива
func (m *WorldMetrics) ChunkRestored() {
	if m == nil {
		return
	}
	m.restores.Inc()
}

// ObserveGeneration учитывает время генерации
func (m *WorldMetrics) ObserveGeneration(d time.Duration) {
	if m == nil {
		return
	}
	m.generation.Observe(d.Seconds())
}

// SchedulerMetrics метрики планировщика загрузки
type SchedulerMetrics struct {
	passes          prometheus.Counter
	passDuration    prometheus.Histogram
	claims          prometheus.Gauge
	pending         prometheus.Gauge
	budgetExhausted prometheus.Counter
}

func newSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "passes_total",
			Help:      "Число проходов планировщика.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "pass_seconds",
			Help:      "Длительность прохода планировщика.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		claims: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "claimed_chunks",
			Help:      "Количество координат, удерживаемых якорями.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "pending_chunks",
			Help:      "Чанки, ожидающие фоновой генерации.",
		}),
		budgetExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "budget_exhausted_total",
			Help:      "Проходы, в которых закончился бюджет загрузки.",
		}),
	}
}

// ObservePass учитывает завершённый проход
func (m *SchedulerMetrics) ObservePass(d time.Duration, claims, pending int, exhausted bool) {
	if m == nil {
		return
	}
	m.passes.Inc()
	m.passDuration.Observe(d.Seconds())
	m.claims.Set(float64(claims))
	m.pending.Set(float64(pending))
	if exhausted {
		m.budgetExhausted.Inc()
	}
}

// MeshMetrics метрики построения мешей
type MeshMetrics struct {
	builds        *prometheus.CounterVec
	stale         prometheus.Counter
	buildDuration prometheus.Histogram
	quads         prometheus.Histogram
}

func newMeshMetrics() *MeshMetrics {
	return &MeshMetrics{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "builds_total",
			Help:      "Построенные меши чанков по результату.",
		}, []string{"result"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "stale_builds_total",
			Help:      "Построения, устаревшие из-за выгрузки чанка.",
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "build_seconds",
			Help:      "Время построения меша чанка.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		quads: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "quads",
			Help:      "Количество четырёхугольников в меше чанка.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

// ObserveBuild учитывает успешное построение
func (m *MeshMetrics) ObserveBuild(d time.Duration, quads int) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues("ok").Inc()
	m.buildDuration.Observe(d.Seconds())
	m.quads.Observe(float64(quads))
}

// ObserveStale учитывает устаревшее построение
func (m *MeshMetrics) ObserveStale() {
	if m == nil {
		return
	}
	m.stale.Inc()
	m.builds.WithLabelValues("stale").Inc()
}

// ObserveFailure учитывает ошибку построения
func (m *MeshMetrics) ObserveFailure() {
	if m == nil {
		return
	}
	m.builds.WithLabelValues("error").Inc()
}
