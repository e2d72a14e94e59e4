package storage

import (
	"context"
	"errors"
)

var (
	ErrKeyNotFound      = errors.New("no such key")
	ErrCapacityExceeded = errors.New("storage capacity exceeded")
	ErrStoreUnavailable = errors.New("storage unavailable")
)

// PersistentStore — строковое key/value хранилище, переживающее перезапуски.
// Единственный потребитель — кэш фотостены. Переполнение сигнализируется
// ошибкой ErrCapacityExceeded, отсутствие ключа — ErrKeyNotFound.
type PersistentStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
