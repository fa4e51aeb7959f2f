package store

import (
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	updatedAt time.Time
}

// MemoryKV 内存键值存储
type MemoryKV struct {
	entries map[string]memoryEntry
	mu      sync.RWMutex
}

// NewMemoryKV 创建内存存储
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]memoryEntry)}
}

// Save 写入条目（保存副本）
func (m *MemoryKV) Save(key string, payload []byte, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{payload: append([]byte(nil), payload...), updatedAt: ts}
	return nil
}

// Load 读取条目
func (m *MemoryKV) Load(key string) ([]byte, time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, time.Time{}, false, nil
	}
	return append([]byte(nil), e.payload...), e.updatedAt, true, nil
}

// Delete 删除条目
func (m *MemoryKV) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}

// Count 条目数量
func (m *MemoryKV) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}
