package persistence

import (
	"sync"
)

// MemoryStorage keeps blobs in process memory. Contents are lost on exit.
type MemoryStorage struct {
	data  map[string][]byte
	mutex sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	data, ok := m.data[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStorage) Set(key string, data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
