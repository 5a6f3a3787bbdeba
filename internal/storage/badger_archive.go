package storage

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/dgraph-io/badger/v3"
)

// BadgerArchive хранит сжатые снимки в BadgerDB. По умолчанию база открывается
// в режиме in-memory, данные не переживают процесс. Снимки проходят через
// codec, поэтому тип блока должен сериализоваться без потерь.
type BadgerArchive[T any] struct {
	db    *badger.DB
	codec Codec[T]
	count atomic.Int64

	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerArchive открывает архив. Пустой dir означает in-memory базу.
// Каталог dir служит только местом для вытеснения на диск: при открытии
// он очищается, снимки прошлых запусков не восстанавливаются.
func NewBadgerArchive[T any](codec Codec[T], dir string) (*BadgerArchive[T], error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{logging.GetStorageLogger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	if dir != "" {
		if err := db.DropAll(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("не удалось очистить BadgerDB в %s: %w", dir, err)
		}
	}

	return &BadgerArchive[T]{
		db:      db,
		codec:   codec,
		isReady: true,
	}, nil
}

func chunkKey(c vec.Vec3) []byte {
	return []byte(fmt.Sprintf("chunk:%d:%d:%d", c.X, c.Y, c.Z))
}

var errNotReady = errors.New("хранилище не готово")

// Store сохраняет снимок чанка
func (a *BadgerArchive[T]) Store(coords vec.Vec3, blocks []T) error {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	if !a.isReady {
		return errNotReady
	}

	data, err := encodeSnapshot(a.codec, blocks)
	if err != nil {
		return err
	}

	key := chunkKey(coords)
	created := false
	err = a.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			created = true
		} else if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	if created {
		a.count.Add(1)
	}
	return nil
}

// Load возвращает снимок чанка
func (a *BadgerArchive[T]) Load(coords vec.Vec3) ([]T, bool, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	if !a.isReady {
		return nil, false, errNotReady
	}

	var data []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(coords))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	blocks, err := decodeSnapshot(a.codec, data)
	if err != nil {
		return nil, false, err
	}
	return blocks, true, nil
}

// Delete удаляет снимок чанка
func (a *BadgerArchive[T]) Delete(coords vec.Vec3) error {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	if !a.isReady {
		return errNotReady
	}

	key := chunkKey(coords)
	deleted := false
	err := a.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		deleted = true
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	if deleted {
		a.count.Add(-1)
	}
	return nil
}

// Len возвращает количество снимков
func (a *BadgerArchive[T]) Len() int {
	return int(a.count.Load())
}

// Close закрывает базу
func (a *BadgerArchive[T]) Close() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if !a.isReady {
		return nil
	}
	a.isReady = false
	return a.db.Close()
}

// badgerLogger направляет журнал BadgerDB в логгер хранилища.
// Информационные сообщения Badger понижаются до DEBUG.
type badgerLogger struct {
	log *logging.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.log.Error("badger: %s", strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.log.Warn("badger: %s", strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.log.Debug("badger: %s", strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.log.Trace("badger: %s", strings.TrimSpace(fmt.Sprintf(format, args...)))
}
