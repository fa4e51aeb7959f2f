package cache

import (
	"sync"
	"time"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
)

// 默认过期策略：30 分钟无访问过期，且写入 2 小时后强制过期
const (
	DefaultSliding  = 30 * time.Minute
	DefaultAbsolute = 2 * time.Hour
)

// Cache 进程内快照缓存
type Cache interface {
	Get() (*model.Snapshot, bool)
	Set(snap *model.Snapshot)
	Invalidate()
	// Version 每次 Set / Invalidate 后递增
	Version() uint64
	// SetIfVersion 仅当版本未变化时写入，用于从存储回填
	SetIfVersion(snap *model.Snapshot, version uint64) bool
}

// Stats 命中统计
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// TTLCache 单条目缓存，滑动过期 + 绝对过期
type TTLCache struct {
	mu         sync.Mutex
	snap       *model.Snapshot
	setAt      time.Time
	lastAccess time.Time
	sliding    time.Duration
	absolute   time.Duration
	now        func() time.Time
	stats      Stats
	version    uint64
}

// NewTTLCache 创建缓存；非正值使用默认值
func NewTTLCache(sliding, absolute time.Duration) *TTLCache {
	if sliding <= 0 {
		sliding = DefaultSliding
	}
	if absolute <= 0 {
		absolute = DefaultAbsolute
	}
	return &TTLCache{sliding: sliding, absolute: absolute, now: time.Now}
}

// WithClock 替换时钟
func (c *TTLCache) WithClock(now func() time.Time) *TTLCache {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now
	return c
}

// Get 命中时刷新滑动过期时间
func (c *TTLCache) Get() (*model.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap == nil {
		c.stats.Misses++
		return nil, false
	}

	now := c.now()
	if now.Sub(c.lastAccess) >= c.sliding || now.Sub(c.setAt) >= c.absolute {
		c.snap = nil
		c.stats.Evictions++
		c.stats.Misses++
		return nil, false
	}

	c.lastAccess = now
	c.stats.Hits++
	return c.snap, true
}

// Set 替换缓存内容并重置两个过期时钟
func (c *TTLCache) Set(snap *model.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.set(snap)
}

// SetIfVersion 期间若有更新的 Set / Invalidate，放弃写入
func (c *TTLCache) SetIfVersion(snap *model.Snapshot, version uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.version != version {
		return false
	}
	c.set(snap)
	return true
}

func (c *TTLCache) set(snap *model.Snapshot) {
	c.version++
	if snap == nil {
		c.snap = nil
		return
	}
	now := c.now()
	c.snap = snap
	c.setAt = now
	c.lastAccess = now
}

// Version 当前版本
func (c *TTLCache) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.version
}

// Invalidate 清空缓存
func (c *TTLCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap = nil
	c.version++
}

// Stats 当前命中统计
func (c *TTLCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats
}
