package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Codec сериализует снимок блоков чанка
type Codec[T any] interface {
	Encode(blocks []T) ([]byte, error)
	Decode(data []byte) ([]T, error)
}

// JSONCodec кодирует снимок в JSON. Тип блока должен переживать
// json.Marshal и json.Unmarshal без потерь: неэкспортируемые поля структур
// при декодировании обнуляются.
type JSONCodec[T any] struct{}

// Encode сериализует блоки
func (JSONCodec[T]) Encode(blocks []T) ([]byte, error) {
	data, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	return data, nil
}

// Decode десериализует блоки
func (JSONCodec[T]) Decode(data []byte) ([]T, error) {
	var blocks []T
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("ошибка десериализации снимка: %w", err)
	}
	return blocks, nil
}

// Кодек zstd общий для всех архивов: EncodeAll и DecodeAll безопасны
// для параллельного вызова
var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func initZstd() error {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			zstdErr = fmt.Errorf("failed to create zstd encoder: %w", zstdErr)
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
		if zstdErr != nil {
			zstdErr = fmt.Errorf("failed to create zstd decoder: %w", zstdErr)
		}
	})
	return zstdErr
}

// encodeSnapshot сериализует и сжимает снимок
func encodeSnapshot[T any](codec Codec[T], blocks []T) ([]byte, error) {
	if err := initZstd(); err != nil {
		return nil, err
	}
	raw, err := codec.Encode(blocks)
	if err != nil {
		return nil, err
	}
	return zstdEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

// decodeSnapshot распаковывает и десериализует снимок
func decodeSnapshot[T any](codec Codec[T], data []byte) ([]T, error) {
	if err := initZstd(); err != nil {
		return nil, err
	}
	raw, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки снимка: %w", err)
	}
	return codec.Decode(raw)
}
