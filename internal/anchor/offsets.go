package anchor

import (
	"fmt"
	"slices"
	"sync"

	"github.com/annel0/voxel-world/internal/vec"
)

// Metric метрика расстояния, задающая форму области вокруг якоря
type Metric uint8

const (
	Euclidean Metric = iota // Шар
	Chebyshev               // Куб
	Manhattan               // Октаэдр
)

func (m Metric) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case Chebyshev:
		return "chebyshev"
	case Manhattan:
		return "manhattan"
	default:
		return fmt.Sprintf("metric(%d)", uint8(m))
	}
}

// Valid сообщает, известна ли метрика
func (m Metric) Valid() bool {
	return m <= Manhattan
}

// ParseMetric разбирает имя метрики. Пустая строка означает Euclidean.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "", "euclidean":
		return Euclidean, nil
	case "chebyshev":
		return Chebyshev, nil
	case "manhattan":
		return Manhattan, nil
	default:
		return Euclidean, fmt.Errorf("неизвестная метрика: %q", s)
	}
}

// distance целочисленное расстояние: для Euclidean это квадрат длины
func (m Metric) distance(v vec.Vec3) int {
	switch m {
	case Chebyshev:
		return max(abs(v.X), abs(v.Y), abs(v.Z))
	case Manhattan:
		return abs(v.X) + abs(v.Y) + abs(v.Z)
	default:
		return v.X*v.X + v.Y*v.Y + v.Z*v.Z
	}
}

func (m Metric) limit(radius int) int {
	if m == Euclidean {
		return radius * radius
	}
	return radius
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

type offsetKey struct {
	radius int
	metric Metric
}

// Таблицы смещений общие для всего процесса и не меняются после построения
var (
	offsetMu    sync.Mutex
	offsetCache = make(map[offsetKey][]vec.Vec3)
)

// Offsets возвращает смещения чанков в пределах радиуса, отсортированные
// по возрастанию расстояния (при равенстве по Y, затем Z, затем X).
// Неизвестная метрика заменяется на Euclidean.
// Результат разделяется между вызывающими и не должен изменяться.
func Offsets(radius int, metric Metric) []vec.Vec3 {
	if radius < 0 {
		radius = 0
	}
	if !metric.Valid() {
		metric = Euclidean
	}
	key := offsetKey{radius: radius, metric: metric}

	offsetMu.Lock()
	defer offsetMu.Unlock()

	if table, ok := offsetCache[key]; ok {
		return table
	}
	table := buildOffsets(radius, metric)
	offsetCache[key] = table
	return table
}

func buildOffsets(radius int, metric Metric) []vec.Vec3 {
	limit := metric.limit(radius)
	var table []vec.Vec3

	for pos := range vec.NewRegion(vec.Vec3{X: -radius, Y: -radius, Z: -radius}, vec.Vec3{X: radius, Y: radius, Z: radius}).All() {
		if metric.distance(pos) <= limit {
			table = append(table, pos)
		}
	}

	slices.SortFunc(table, func(a, b vec.Vec3) int {
		if da, db := metric.distance(a), metric.distance(b); da != db {
			return da - db
		}
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		if a.Z != b.Z {
			return a.Z - b.Z
		}
		return a.X - b.X
	})
	return slices.Clip(table)
}

// cachedTables количество построенных таблиц
func cachedTables() int {
	offsetMu.Lock()
	defer offsetMu.Unlock()
	return len(offsetCache)
}
