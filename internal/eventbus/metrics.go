package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsExporter публикует статистику шины в Prometheus.
// Значения читаются из EventBus.Metrics в момент сбора, поэтому
// фоновое обновление не нужно.
type MetricsExporter struct {
	published prometheus.CounterFunc
	consumed  prometheus.CounterFunc
	dropped   prometheus.CounterFunc
	inflight  prometheus.GaugeFunc
}

// NewMetricsExporter создаёт экспортер и регистрирует метрики в reg
func NewMetricsExporter(bus EventBus, reg prometheus.Registerer) (*MetricsExporter, error) {
	me := &MetricsExporter{
		published: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_published_total",
			Help:      "Общее число опубликованных сообщений.",
		}, func() float64 { return float64(bus.Metrics().Published) }),
		consumed: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_consumed_total",
			Help:      "Общее число доставленных сообщений подписчикам.",
		}, func() float64 { return float64(bus.Metrics().Consumed) }),
		dropped: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_dropped_total",
			Help:      "Сообщений, отброшенных из-за ограничения back-pressure.",
		}, func() float64 { return float64(bus.Metrics().Dropped) }),
		inflight: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "eventbus",
			Name:      "messages_inflight",
			Help:      "Количество сообщений в очередях подписчиков.",
		}, func() float64 { return float64(bus.Metrics().InFlight) }),
	}

	for _, c := range []prometheus.Collector{me.published, me.consumed, me.dropped, me.inflight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return me, nil
}
