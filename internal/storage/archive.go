// Package storage хранит данные выгруженных чанков.
// Архив живёт столько же, сколько мир, и не является долговременным хранилищем.
package storage

import (
	"slices"
	"sync"

	"github.com/annel0/voxel-world/internal/vec"
)

// Archive хранилище снимков выгруженных чанков
type Archive[T any] interface {
	// Store сохраняет снимок, заменяя предыдущий
	Store(coords vec.Vec3, blocks []T) error
	// Load возвращает снимок; found=false, если его нет
	Load(coords vec.Vec3) (blocks []T, found bool, err error)
	Delete(coords vec.Vec3) error
	Len() int
	Close() error
}

// MemoryArchive держит копии снимков в карте без сериализации,
// поэтому подходит для любого типа блока.
type MemoryArchive[T any] struct {
	mu        sync.RWMutex
	snapshots map[vec.Vec3][]T
}

// NewMemoryArchive создаёт архив в памяти
func NewMemoryArchive[T any]() *MemoryArchive[T] {
	return &MemoryArchive[T]{
		snapshots: make(map[vec.Vec3][]T),
	}
}

// Store сохраняет копию снимка чанка
func (a *MemoryArchive[T]) Store(coords vec.Vec3, blocks []T) error {
	data := slices.Clone(blocks)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshots[coords] = data
	return nil
}

// Load возвращает копию снимка чанка
func (a *MemoryArchive[T]) Load(coords vec.Vec3) ([]T, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	data, ok := a.snapshots[coords]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(data), true, nil
}

// Delete удаляет снимок
func (a *MemoryArchive[T]) Delete(coords vec.Vec3) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.snapshots, coords)
	return nil
}

// Len возвращает количество снимков
func (a *MemoryArchive[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.snapshots)
}

// Close освобождает память архива
func (a *MemoryArchive[T]) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshots = make(map[vec.Vec3][]T)
	return nil
}
