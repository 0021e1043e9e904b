package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/notesphere/pkg/configs"
)

// GroupcacheKV 基于 Groupcache 的 KV 实现.
// 本节点写入保存在 data 中并优先读取；本地未命中时经 group 向对等节点取值.
type GroupcacheKV struct {
	group *groupcache.Group
	peers *groupcache.HTTPPool
	data  map[string][]byte
	mu    sync.RWMutex
}

var (
	groupsMu sync.Mutex
	groups   = map[string]*GroupcacheKV{}
)

// groupcacheGetter 实现 groupcache.Getter 接口，只对本节点的数据负责.
type groupcacheGetter struct {
	kv *GroupcacheKV
}

func (g *groupcacheGetter) Get(_ context.Context, key string, dest groupcache.Sink) error {
	value, ok := g.kv.local(key)
	if !ok {
		return notFound(key)
	}

	if err := dest.SetBytes(value); err != nil {
		return fmt.Errorf("failed to set bytes to sink: %w", err)
	}

	return nil
}

// NewGroupcacheKV 创建 Groupcache KV 实例.
// groupcache 的组名进程内全局唯一，同名重复创建返回同一实例.
func NewGroupcacheKV(_ context.Context, cfg *configs.KVConfig) (KVStore, error) {
	gc := cfg.Groupcache

	groupsMu.Lock()
	defer groupsMu.Unlock()

	if existing, ok := groups[gc.Name]; ok {
		return existing, nil
	}

	kv := &GroupcacheKV{data: make(map[string][]byte)}
	kv.group = groupcache.NewGroup(gc.Name, gc.CacheBytes, &groupcacheGetter{kv: kv})

	if len(gc.Peers) > 0 && gc.Self != "" {
		kv.peers = groupcache.NewHTTPPoolOpts(gc.Self, &groupcache.HTTPPoolOptions{})
		kv.peers.Set(gc.Peers...)
	}

	groups[gc.Name] = kv

	return kv, nil
}

func (g *GroupcacheKV) local(key string) ([]byte, bool) {
	g.mu.RLock()
	raw, ok := g.data[key]
	g.mu.RUnlock()

	if !ok {
		return nil, false
	}

	val, expired, _, err := decodeWithTTL(raw, time.Now())
	if err != nil || expired {
		if expired {
			g.mu.Lock()
			delete(g.data, key)
			g.mu.Unlock()
		}

		return nil, false
	}

	return val, true
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	if val, ok := g.local(key); ok {
		out := make([]byte, len(val))
		copy(out, val)

		return out, nil
	}

	if g.peers == nil {
		return nil, notFound(key)
	}

	var data []byte
	if err := g.group.Get(ctx, key, groupcache.AllocatingByteSliceSink(&data)); err != nil {
		return nil, notFound(key)
	}

	return data, nil
}

// Set 设置键的值.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, _, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	stored := make([]byte, len(encoded))
	copy(stored, encoded)

	g.mu.Lock()
	g.data[key] = stored
	g.mu.Unlock()

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.data, key)
	g.mu.Unlock()

	return nil
}

// Exists 检查键是否存在.
func (g *GroupcacheKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := g.local(key)
	return ok, nil
}

// Keys 获取本节点所有匹配的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	candidates := make([]string, 0, len(g.data))

	for key := range g.data {
		if matchPattern(pattern, key) {
			candidates = append(candidates, key)
		}
	}
	g.mu.RUnlock()

	keys := candidates[:0]

	for _, key := range candidates {
		if _, ok := g.local(key); ok {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Close 关闭缓存.
func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(configs.KVTypeGroupcache, NewGroupcacheKV)
}
