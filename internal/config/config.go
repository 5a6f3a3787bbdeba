package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации демона.
type Config struct {
	Streaming StreamingConfig `yaml:"streaming"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Mesh      MeshConfig      `yaml:"mesh"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Logging   LoggingConfig   `yaml:"logging"`
	API       APIConfig       `yaml:"api"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type StreamingConfig struct {
	Radius  int    `yaml:"radius"`
	Cadence int    `yaml:"cadence"`
	Metric  string `yaml:"metric"` // euclidean | chebyshev | manhattan
	Budget  int    `yaml:"budget"`
	Workers int    `yaml:"workers"`
	TickMS  int    `yaml:"tick_ms"`
}

// Tick период прохода планировщика
func (s *StreamingConfig) Tick() time.Duration {
	return time.Duration(s.TickMS) * time.Millisecond
}

type TerrainConfig struct {
	Seed     int64 `yaml:"seed"`
	SeaLevel int   `yaml:"sea_level"`
	Caves    bool  `yaml:"caves"`
}

type MeshConfig struct {
	Greedy     bool   `yaml:"greedy"`
	Missing    string `yaml:"missing"` // visible | occludes
	Workers    int    `yaml:"workers"`
	MaxRetries int    `yaml:"max_retries"`
}

type ArchiveConfig struct {
	Backend string `yaml:"backend"` // memory | badger
	// Dir пустой - badger работает в памяти
	Dir string `yaml:"dir"`
}

type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

type APIConfig struct {
	Port int `yaml:"port"`
}

// GetPort возвращает порт REST API с поддержкой fallback значений
func (a *APIConfig) GetPort() int {
	return getPortWithEnvFallback(a.Port, "VOXEL_API_PORT", 8088)
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

// Default возвращает конфигурацию демо-демона
func Default() *Config {
	return &Config{
		Streaming: StreamingConfig{
			Radius:  10,
			Cadence: 1,
			Metric:  "euclidean",
			Budget:  64,
			Workers: 4,
			TickMS:  50,
		},
		Terrain: TerrainConfig{Seed: 1, SeaLevel: -8, Caves: true},
		Mesh: MeshConfig{
			Greedy:     true,
			Missing:    "visible",
			Workers:    4,
			MaxRetries: 3,
		},
		Archive:   ArchiveConfig{Backend: "memory"},
		Logging:   LoggingConfig{Level: "INFO"},
		Telemetry: TelemetryConfig{ServiceName: "voxel-world"},
	}
}

// Validate проверяет значения после загрузки
func (c *Config) Validate() error {
	var errs []error
	if c.Streaming.Radius < 0 {
		errs = append(errs, fmt.Errorf("streaming.radius: отрицательное значение %d", c.Streaming.Radius))
	}
	if c.Streaming.Budget < 0 {
		errs = append(errs, fmt.Errorf("streaming.budget: отрицательное значение %d", c.Streaming.Budget))
	}
	if c.Streaming.Workers < 0 || c.Mesh.Workers < 0 {
		errs = append(errs, errors.New("workers: отрицательное значение"))
	}
	if c.Streaming.TickMS <= 0 {
		errs = append(errs, fmt.Errorf("streaming.tick_ms: должно быть > 0, получено %d", c.Streaming.TickMS))
	}
	switch c.Streaming.Metric {
	case "", "euclidean", "chebyshev", "manhattan":
	default:
		errs = append(errs, fmt.Errorf("streaming.metric: неизвестная метрика %q", c.Streaming.Metric))
	}
	switch c.Mesh.Missing {
	case "", "visible", "occludes":
	default:
		errs = append(errs, fmt.Errorf("mesh.missing: неизвестная политика %q", c.Mesh.Missing))
	}
	switch c.Archive.Backend {
	case "", "memory", "badger":
	default:
		errs = append(errs, fmt.Errorf("archive.backend: неизвестный backend %q", c.Archive.Backend))
	}
	return errors.Join(errs...)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл поверх Default().
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG, иначе возвращает дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
