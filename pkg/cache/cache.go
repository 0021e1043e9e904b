// Package cache 提供基于键值存储的泛型缓存实现.
//
// 值使用 sonic 序列化，写入底层 kv.KVStore；GetOrSet 通过 singleflight 合并并发回源.
//
// 基本用法:
//
//	c := cache.NewCache(kvClient)
//
//	page, err := cache.GetOrSet(ctx, c, "notes:page:1", func() (NotePage, error) {
//	    return store.Search(ctx, query)
//	}, 30*time.Second)
//
//	// 笔记变更后失效列表缓存
//	_, _ = c.DeletePattern(ctx, cache.NotesListPattern)
//
// 错误处理:
//   - 未命中返回 kv.ErrNotFound（可用 errors.Is 判断）
//   - 序列化/反序列化错误会被包装并返回
//   - GetOrSet 中写缓存失败不影响返回值
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/notesphere/pkg/internal/storage/kv"
)

// 笔记列表响应缓存的键前缀与匹配模式.
const (
	NotesListPrefix  = "rc:notes:"
	NotesListPattern = NotesListPrefix + "*"
)

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
	group   singleflight.Group
}

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore) *Cache {
	return &Cache{kvStore: kvStore}
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, key, data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, key)
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, key)
}

// GetOrSet 获取缓存值，如果不存在则回源并写入.
// 同一 key 的并发回源只执行一次 getter.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	var zero T

	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := getter()
		if err != nil {
			return zero, err
		}

		// 缓存失败，但仍返回值
		_ = Set(ctx, c, key, value, ttl)

		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected cached type %T", v)
	}

	return value, nil
}

// DeletePattern 删除匹配 glob 模式的所有键，返回删除数量.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	keys, err := c.kvStore.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}

	for i, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return i, delErr
		}
	}

	return len(keys), nil
}

// Clear 清空缓存.
func (c *Cache) Clear(ctx context.Context) error {
	_, err := c.DeletePattern(ctx, "*")
	return err
}
