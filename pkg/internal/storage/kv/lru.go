package kv

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yeisme/notesphere/pkg/configs"
)

// LRUKV 基于 golang-lru 的进程内有界缓存.
// expirable.LRU 只支持统一 TTL，单键 TTL 通过 ttl 包装值实现.
type LRUKV struct {
	cache *expirable.LRU[string, []byte]
}

// NewLRUKV 创建 LRU KV 实例.
func NewLRUKV(_ context.Context, cfg *configs.KVConfig) (KVStore, error) {
	size := cfg.LRU.Size
	if size <= 0 {
		size = 1024
	}

	return &LRUKV{cache: expirable.NewLRU[string, []byte](size, nil, cfg.LRU.TTL)}, nil
}

// Get 获取键的值.
func (l *LRUKV) Get(_ context.Context, key string) ([]byte, error) {
	raw, ok := l.cache.Get(key)
	if !ok {
		return nil, notFound(key)
	}

	val, expired, _, err := decodeWithTTL(raw, time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		l.cache.Remove(key)
		return nil, notFound(key)
	}

	out := make([]byte, len(val))
	copy(out, val)

	return out, nil
}

// Set 设置键的值.
func (l *LRUKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, _, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	stored := make([]byte, len(encoded))
	copy(stored, encoded)
	l.cache.Add(key, stored)

	return nil
}

// Delete 删除键.
func (l *LRUKV) Delete(_ context.Context, key string) error {
	l.cache.Remove(key)
	return nil
}

// Exists 检查键是否存在.
func (l *LRUKV) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := l.Get(ctx, key); err != nil {
		return false, nil
	}

	return true, nil
}

// Keys 获取所有匹配的键.
func (l *LRUKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0, l.cache.Len())

	for _, k := range l.cache.Keys() {
		if matchPattern(pattern, k) {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

// Close 清空缓存.
func (l *LRUKV) Close() error {
	l.cache.Purge()
	return nil
}

func init() {
	RegisterKVFactory(configs.KVTypeLRU, NewLRUKV)
}
