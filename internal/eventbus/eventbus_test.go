package eventbus

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chunkPayload struct {
	X, Y, Z int
}

func collect(t *testing.T, bus EventBus, f Filter) (func() []*Envelope, Subscription) {
	t.Helper()
	var mu sync.Mutex
	var got []*Envelope
	sub, err := bus.Subscribe(context.Background(), f, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})
	require.NoError(t, err)
	return func() []*Envelope {
		mu.Lock()
		defer mu.Unlock()
		return append([]*Envelope(nil), got...)
	}, sub
}

func TestMemoryBusOrderedDelivery(t *testing.T) {
	bus := NewMemoryBus(64)
	defer bus.Close()
	events, _ := collect(t, bus, Filter{})

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		ev, err := NewEnvelope("test", "chunk.load", chunkPayload{X: i})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, ev))
	}

	require.Eventually(t, func() bool { return len(events()) == 20 }, time.Second, time.Millisecond)
	for i, ev := range events() {
		var p chunkPayload
		require.NoError(t, ev.Decode(&p))
		assert.Equal(t, i, p.X, "события должны приходить в порядке публикации")
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, 1, ev.Version)
	}
	assert.Eventually(t, func() bool { return bus.Metrics().Consumed == 20 }, time.Second, time.Millisecond)
}

func TestMemoryBusFilter(t *testing.T) {
	bus := NewMemoryBus(8)
	defer bus.Close()
	unloads, _ := collect(t, bus, Filter{Types: []string{"chunk.unload"}})
	all, _ := collect(t, bus, Filter{})

	ctx := context.Background()
	load, _ := NewEnvelope("world", "chunk.load", nil)
	unload, _ := NewEnvelope("world", "chunk.unload", nil)
	require.NoError(t, bus.Publish(ctx, load))
	require.NoError(t, bus.Publish(ctx, unload))

	require.Eventually(t, func() bool { return len(all()) == 2 }, time.Second, time.Millisecond)
	require.Len(t, unloads(), 1)
	assert.Equal(t, "chunk.unload", unloads()[0].EventType)
}

func TestMemoryBusDropsLowPriorityWhenFull(t *testing.T) {
	bus := NewMemoryBus(1)
	defer bus.Close()

	block := make(chan struct{})
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		<-block
	})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		ev, _ := NewEnvelope("test", "x", i)
		require.NoError(t, bus.Publish(ctx, ev))
	}
	close(block)

	stats := bus.Metrics()
	assert.Equal(t, uint64(5), stats.Published)
	assert.GreaterOrEqual(t, stats.Dropped, uint64(3))
}

func TestMemoryBusUnsubscribeAndClose(t *testing.T) {
	bus := NewMemoryBus(8)
	events, sub := collect(t, bus, Filter{})
	sub.Unsubscribe()

	ev, _ := NewEnvelope("test", "x", nil)
	require.NoError(t, bus.Publish(context.Background(), ev))
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, events())

	bus.Close()
	bus.Close()
	assert.ErrorIs(t, bus.Publish(context.Background(), ev), ErrBusClosed)
	_, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestLoggingListener(t *testing.T) {
	bus := NewMemoryBus(8)
	defer bus.Close()

	var mu sync.Mutex
	var buf bytes.Buffer
	logger := logging.NewWriterLogger("bus", &lockedWriter{mu: &mu, w: &buf}, logging.DEBUG)
	_, err := StartLoggingListener(bus, logger)
	require.NoError(t, err)

	ev, _ := NewEnvelope("world", "chunk.load", nil)
	require.NoError(t, bus.Publish(context.Background(), ev))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return bytes.Contains(buf.Bytes(), []byte("chunk.load"))
	}, time.Second, time.Millisecond)
}

func TestMetricsExporter(t *testing.T) {
	bus := NewMemoryBus(8)
	defer bus.Close()

	reg := prometheus.NewRegistry()
	_, err := NewMetricsExporter(bus, reg)
	require.NoError(t, err)

	ev, _ := NewEnvelope("world", "chunk.load", nil)
	require.NoError(t, bus.Publish(context.Background(), ev))

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, f := range families {
		m := f.GetMetric()[0]
		if m.GetCounter() != nil {
			values[f.GetName()] = m.GetCounter().GetValue()
		} else {
			values[f.GetName()] = m.GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(1), values["eventbus_messages_published_total"])
	assert.Contains(t, values, "eventbus_messages_inflight")

	_, err = NewMetricsExporter(bus, reg)
	assert.Error(t, err)
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
