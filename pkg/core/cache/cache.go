// Package cache 提供带有效期的内存缓存
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache 缓存接口（对外导出）
type Cache[V any] interface {
	// Set 设置缓存值，ttl<=0 表示永不过期
	Set(key string, value V, ttl time.Duration)
	// Get 获取缓存值，过期或不存在时返回 false
	Get(key string) (V, bool)
	// Delete 删除缓存值
	Delete(key string)
	// Clear 清空所有缓存
	Clear()
}

// cacheEntry 缓存条目（内部使用）
type cacheEntry[V any] struct {
	value      V
	expireTime time.Time // 零值表示永不过期
}

func (e *cacheEntry[V]) expired(now time.Time) bool {
	return !e.expireTime.IsZero() && now.After(e.expireTime)
}

// MemoryCache 内存缓存实现（对外导出）
type MemoryCache[V any] struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry[V]
}

// NewMemoryCache 创建内存缓存实例（对外导出）
func NewMemoryCache[V any]() *MemoryCache[V] {
	return &MemoryCache[V]{
		cache: make(map[string]*cacheEntry[V]),
	}
}

// Set 设置缓存值
func (c *MemoryCache[V]) Set(key string, value V, ttl time.Duration) {
	if key == "" {
		return // 空key，忽略
	}
	entry := &cacheEntry[V]{value: value}
	if ttl > 0 {
		entry.expireTime = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.cache[key] = entry
	c.mu.Unlock()
}

// Get 获取缓存值
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	var zero V
	c.mu.RLock()
	entry, exists := c.cache[key]
	c.mu.RUnlock()
	if !exists {
		return zero, false
	}

	// 已过期，删除并返回不存在
	if entry.expired(time.Now()) {
		c.mu.Lock()
		if cur, ok := c.cache[key]; ok && cur == entry {
			delete(c.cache, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return entry.value, true
}

// Delete 删除缓存值
func (c *MemoryCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, key)
}

// Clear 清空所有缓存
func (c *MemoryCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*cacheEntry[V])
}

// Len 当前条目数（包含尚未清理的过期条目）
func (c *MemoryCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// StartCleanup 定期清理过期条目，直到 ctx 结束
func (c *MemoryCache[V]) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				c.purge(now)
			}
		}
	}()
}

// purge 删除在 now 之前过期的条目
func (c *MemoryCache[V]) purge(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.cache {
		if entry.expired(now) {
			delete(c.cache, key)
		}
	}
}
