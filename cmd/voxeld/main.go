package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-world/internal/anchor"
	"github.com/annel0/voxel-world/internal/api"
	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/metrics"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/streaming"
	"github.com/annel0/voxel-world/internal/terrain"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
	_ "github.com/annel0/voxel-world/internal/world/block/implementations"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Скорость камеры в блоках в секунду
const cameraSpeed = 12.0

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $VOXEL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.InitDefaultLogger("voxeld", cfg.Logging.Dir); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()
	if cfg.Logging.Level != "" {
		level, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		logging.SetDefaultLevel(level)
	}

	logging.Info("🧊 Запуск voxel-world: радиус %d, seed %d", cfg.Streaming.Radius, cfg.Terrain.Seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			logging.Error("❌ Ошибка инициализации трассировки: %v", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(sctx); err != nil {
					logging.Warn("Ошибка остановки трассировки: %v", err)
				}
			}()
			logging.Info("📈 OpenTelemetry трассировка включена")
		}
	}

	if err := run(ctx, cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 voxel-world остановлен")
}

func run(ctx context.Context, cfg *config.Config) error {
	// === МЕТРИКИ ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("регистрация метрик: %w", err)
	}

	// === ШИНА СОБЫТИЙ ===
	bus := eventbus.NewMemoryBus(1024)
	defer bus.Close()
	if _, err := eventbus.NewMetricsExporter(bus, reg); err != nil {
		return fmt.Errorf("метрики шины: %w", err)
	}
	if _, err := eventbus.StartLoggingListener(bus, logging.GetComponentLogger("eventbus")); err != nil {
		return err
	}

	// === МИР ===
	archive, err := newArchive(cfg.Archive)
	if err != nil {
		return err
	}
	defer archive.Close()

	w := world.NewVoxelWorld[block.BlockID](world.Options[block.BlockID]{
		Archive: archive,
		Metrics: m.World,
	})

	var gen world.Generator[block.BlockID] = terrain.NewPerlin(cfg.Terrain.Seed, cfg.Terrain.SeaLevel)
	if cfg.Terrain.Caves {
		gen = terrain.NewCaves(gen, cfg.Terrain.Seed)
	}

	sched := anchor.NewScheduler[block.BlockID](w, gen, anchor.SchedulerOptions{
		Budget:  cfg.Streaming.Budget,
		Workers: cfg.Streaming.Workers,
		Metrics: m.Scheduler,
	})
	defer sched.Close()

	metric, err := anchor.ParseMetric(cfg.Streaming.Metric)
	if err != nil {
		return err
	}
	camera := flyingCamera(time.Now())
	a := sched.AddAnchor(camera, anchor.AnchorOptions{
		Radius:  cfg.Streaming.Radius,
		Cadence: cfg.Streaming.Cadence,
		Metric:  metric,
	})
	logging.Info("🎥 Камера-якорь %s: радиус %d, метрика %s", a.ID, a.Radius(), a.Metric())

	missing := mesh.MissingVisible
	if cfg.Mesh.Missing == "occludes" {
		missing = mesh.MissingOccludes
	}
	pipeline := streaming.NewPipeline[block.BlockID](w, sched, streaming.Options{
		Mesh:       mesh.Options{Missing: missing, Greedy: cfg.Mesh.Greedy},
		Workers:    cfg.Mesh.Workers,
		MaxRetries: cfg.Mesh.MaxRetries,
		Bus:        bus,
		Metrics:    m.Mesh,
	})

	// === REST API ===
	port := cfg.API.GetPort()
	server, err := api.NewRestServer(api.Config{
		Port:      fmt.Sprintf(":%d", port),
		World:     w,
		Scheduler: sched,
		Meshes:    pipeline,
		Registry:  reg,
	})
	if err != nil {
		return err
	}
	go func() {
		if err := server.Start(); err != nil {
			logging.Error("❌ Ошибка REST API: %v", err)
		}
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   ❤️  Health check: http://localhost:%d/health", port)
	logging.Info("   📊 Метрики: http://localhost:%d/metrics", port)

	go reportStats(ctx, w, pipeline)
	pipeline.Run(ctx, cfg.Streaming.Tick())

	// === GRACEFUL SHUTDOWN ===
	logging.Info("📡 Получен сигнал завершения, остановка сервисов...")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(sctx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	return nil
}

func newArchive(cfg config.ArchiveConfig) (storage.Archive[block.BlockID], error) {
	if cfg.Backend == "badger" {
		a, err := storage.NewBadgerArchive[block.BlockID](storage.JSONCodec[block.BlockID]{}, cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("открытие badger архива: %w", err)
		}
		logging.Info("💾 Архив выгруженных чанков: badger")
		return a, nil
	}
	return storage.NewMemoryArchive[block.BlockID](), nil
}

// flyingCamera летит вдоль +X над рельефом с постоянной скоростью
func flyingCamera(start time.Time) anchor.Entity {
	return anchor.EntityFunc(func() vec.Vec3Float {
		return vec.Vec3Float{
			X: time.Since(start).Seconds() * cameraSpeed,
			Y: 24,
			Z: 0,
		}
	})
}

func reportStats(ctx context.Context, w *world.VoxelWorld[block.BlockID], p *streaming.Pipeline[block.BlockID]) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := w.Stats()
			logging.Info("🌍 Чанков в памяти %d, в архиве %d, мешей %d, загрузок %d, выгрузок %d",
				s.Resident, s.Archived, p.MeshCount(), s.Loads, s.Unloads)
		}
	}
}
