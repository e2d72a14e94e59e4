package storage

import (
	"context"
	"sync"

	appstorage "photowall/internal/storage"
)

// Store — потокобезопасное key/value хранилище в памяти с ограничением
// по суммарному объему. Используется в локальном окружении и тестах,
// где настоящий persistent store недоступен.
type Store struct {
	mu       sync.RWMutex
	data     map[string]string
	capacity int // суммарный лимит в байтах, 0 = без лимита
	size     int
}

func New(capacityBytes int) *Store {
	return &Store{
		data:     make(map[string]string),
		capacity: capacityBytes,
	}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	if !ok {
		return "", appstorage.ErrKeyNotFound
	}
	return val, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta := len(key) + len(value)
	if old, ok := s.data[key]; ok {
		delta -= len(key) + len(old)
	}
	if s.capacity > 0 && s.size+delta > s.capacity {
		return appstorage.ErrCapacityExceeded
	}

	s.data[key] = value
	s.size += delta
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.data[key]; ok {
		s.size -= len(key) + len(old)
		delete(s.data, key)
	}
	return nil
}

// Len возвращает число живых ключей
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
