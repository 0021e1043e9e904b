package kv

import (
	"context"
	"sync"
	"time"

	"github.com/yeisme/notesphere/pkg/configs"
)

type memoryEntry struct {
	value    []byte
	expireAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// MemoryKV 基于 sync.Map 的内存 KV 实现，过期条目在读取时惰性删除.
type MemoryKV struct {
	data sync.Map
	now  func() time.Time
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(_ context.Context, _ *configs.KVConfig) (KVStore, error) {
	return &MemoryKV{now: time.Now}, nil
}

func (m *MemoryKV) load(key string) ([]byte, bool) {
	v, ok := m.data.Load(key)
	if !ok {
		return nil, false
	}

	entry, ok := v.(*memoryEntry)
	if !ok {
		return nil, false
	}

	if entry.expired(m.now()) {
		// 只删除读到的这个条目，并发 Set 写入的新值保留
		m.data.CompareAndDelete(key, entry)
		return nil, false
	}

	return entry.value, true
}

// Get 获取键的值.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.load(key)
	if !ok {
		return nil, notFound(key)
	}

	result := make([]byte, len(data))
	copy(result, data)

	return result, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data := make([]byte, len(value))
	copy(data, value)

	entry := &memoryEntry{value: data}
	if ttl > 0 {
		entry.expireAt = m.now().Add(ttl)
	}

	m.data.Store(key, entry)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.load(key)
	return ok, nil
}

// Keys 获取所有匹配的键.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)

	m.data.Range(func(key, _ any) bool {
		k, ok := key.(string)
		if !ok {
			return true
		}

		if _, alive := m.load(k); alive && matchPattern(pattern, k) {
			keys = append(keys, k)
		}

		return true
	})

	return keys, nil
}

// Close 关闭存储（内存实现无需操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(configs.KVTypeMemory, NewMemoryKV)
}
