package cache

import (
	"sync"
	"time"
)

// CodeCache 邮箱编码存在性缓存
//
// 编码一旦开通就不会注销，所以只缓存"已存在"这一正向结论，
// 不缓存负向结果，避免别的进程刚开通的邮箱被误判为不存在。
// 条目带 TTL，只是为了限制常驻内存量。
type CodeCache struct {
	data    sync.Map
	maxSize int
	size    int
	mu      sync.Mutex
	ttl     time.Duration
}

type codeEntry struct {
	expiresAt time.Time
}

// NewCodeCache 创建编码缓存
//
// 参数:
//   - maxSize: 最大缓存条目数，超过后不再接收新条目
//   - ttl: 条目过期时间
func NewCodeCache(maxSize int, ttl time.Duration) *CodeCache {
	cache := &CodeCache{
		maxSize: maxSize,
		ttl:     ttl,
	}

	// 启动定期清理
	go cache.cleanupLoop()

	return cache
}

// Contains 判断编码是否在缓存中（即已确认开通）
func (c *CodeCache) Contains(code string) bool {
	val, ok := c.data.Load(code)
	if !ok {
		return false
	}

	entry := val.(*codeEntry)
	if time.Now().After(entry.expiresAt) {
		c.data.Delete(code)
		c.decrement()
		return false
	}

	return true
}

// Mark 记录一个已确认开通的编码
func (c *CodeCache) Mark(code string) {
	c.mu.Lock()
	if c.size >= c.maxSize {
		c.mu.Unlock()
		return
	}
	if _, loaded := c.data.LoadOrStore(code, &codeEntry{expiresAt: time.Now().Add(c.ttl)}); !loaded {
		c.size++
	}
	c.mu.Unlock()
}

func (c *CodeCache) decrement() {
	c.mu.Lock()
	if c.size > 0 {
		c.size--
	}
	c.mu.Unlock()
}

// cleanupLoop 定期清理过期条目
func (c *CodeCache) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.data.Range(func(key, value interface{}) bool {
			entry := value.(*codeEntry)
			if now.After(entry.expiresAt) {
				c.data.Delete(key)
				c.decrement()
			}
			return true
		})
	}
}
