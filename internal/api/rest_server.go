package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/middleware"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// WorldView состояние мира, доступное API
type WorldView interface {
	Stats() world.WorldStats
	LoadID(coords vec.Vec3) (uint64, bool)
	ChunkEdits(coords vec.Vec3) (uint64, bool)
	WasGenerated(coords vec.Vec3) bool
}

// SchedulerView состояние планировщика
type SchedulerView interface {
	Anchors() int
	Claimed(coords vec.Vec3) int
	IsPending(coords vec.Vec3) bool
}

// MeshView кэш мешей конвейера
type MeshView interface {
	MeshCount() int
	MeshQuads(coords vec.Vec3) (int, bool)
}

// Registry регистр метрик, который одновременно отдаётся на /metrics
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port      string // адрес для запуска сервера, например ":8088"
	World     WorldView
	Scheduler SchedulerView // может быть nil
	Meshes    MeshView      // может быть nil
	Registry  Registry
	Logger    *logging.Logger
}

// RestServer ops API демона
type RestServer struct {
	router  *gin.Engine
	server  *http.Server
	cfg     Config
	metrics *ServerMetrics
	log     *logging.Logger
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ChunkStatus состояние одного чанка
type ChunkStatus struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Z         int    `json:"z"`
	Resident  bool   `json:"resident"`
	Generated bool   `json:"generated"`
	LoadID    uint64 `json:"load_id,omitempty"`
	Edits     uint64 `json:"edits,omitempty"`
	Claims    int    `json:"claims"`
	Pending   bool   `json:"pending"`
	Meshed    bool   `json:"meshed"`
	Quads     int    `json:"quads,omitempty"`
}

// NewRestServer создает REST API сервер
func NewRestServer(cfg Config) (*RestServer, error) {
	if cfg.World == nil {
		return nil, errors.New("api: world is required")
	}
	if cfg.Port == "" {
		cfg.Port = ":8088"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetAPILogger()
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(middleware.NewRequestLogger(cfg.Logger).Handler())
	router.Use(otelgin.Middleware("voxel_api"))

	promMw, err := middleware.NewPrometheusMiddleware("voxel_api", cfg.Registry)
	if err != nil {
		return nil, fmt.Errorf("api: регистрация HTTP-метрик: %w", err)
	}
	router.Use(promMw.Handler())
	middleware.RegisterMetricsEndpoint(router, cfg.Registry)

	rs := &RestServer{
		router:  router,
		cfg:     cfg,
		metrics: NewServerMetrics(),
		log:     cfg.Logger,
	}
	rs.server = &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	rs.setupRoutes()
	return rs, nil
}

func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/chunks/:x/:y/:z", rs.handleChunk)
	}
}

// Handler возвращает http.Handler роутера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func (rs *RestServer) handleStats(c *gin.Context) {
	stats := map[string]interface{}{
		"world":  rs.cfg.World.Stats(),
		"server": rs.metrics.Snapshot(),
	}
	if rs.cfg.Scheduler != nil {
		stats["anchors"] = rs.cfg.Scheduler.Anchors()
	}
	if rs.cfg.Meshes != nil {
		stats["meshes"] = rs.cfg.Meshes.MeshCount()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

func (rs *RestServer) handleChunk(c *gin.Context) {
	var coords vec.Vec3
	for _, p := range []struct {
		name string
		dst  *int
	}{{"x", &coords.X}, {"y", &coords.Y}, {"z", &coords.Z}} {
		v, err := strconv.Atoi(c.Param(p.name))
		if err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: fmt.Sprintf("Неверная координата %s: %q", p.name, c.Param(p.name)),
			})
			return
		}
		*p.dst = v
	}

	status := ChunkStatus{
		X:         coords.X,
		Y:         coords.Y,
		Z:         coords.Z,
		Generated: rs.cfg.World.WasGenerated(coords),
	}
	status.LoadID, status.Resident = rs.cfg.World.LoadID(coords)
	status.Edits, _ = rs.cfg.World.ChunkEdits(coords)
	if rs.cfg.Scheduler != nil {
		status.Claims = rs.cfg.Scheduler.Claimed(coords)
		status.Pending = rs.cfg.Scheduler.IsPending(coords)
	}
	if rs.cfg.Meshes != nil {
		status.Quads, status.Meshed = rs.cfg.Meshes.MeshQuads(coords)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние чанка",
		Data:    status,
	})
}

// Start запускает HTTP сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	rs.log.Info("🌐 REST API слушает %s", rs.cfg.Port)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop завершает сервер, дожидаясь текущих запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}
