package cache

import (
	"context"
	"log/slog"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
)

// Loader 持久化快照的读取方（*store.SnapshotStore 实现）
type Loader interface {
	TryLoad() (*model.Snapshot, bool)
}

// Provider 读穿透：缓存 -> 持久化存储 -> nil，从不触发导入
type Provider struct {
	cache  Cache
	loader Loader
	logger *slog.Logger
}

// NewProvider 创建快照提供者
func NewProvider(cache Cache, loader Loader, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{cache: cache, loader: loader, logger: logger}
}

// Current 当前可用的快照，没有时返回 nil。
// 从存储回填期间若已发布了新快照，不写回缓存，直接返回新快照
func (p *Provider) Current(ctx context.Context) *model.Snapshot {
	version := p.cache.Version()
	if snap, ok := p.cache.Get(); ok {
		return snap
	}
	if ctx.Err() != nil || p.loader == nil {
		return nil
	}
	snap, ok := p.loader.TryLoad()
	if !ok {
		return nil
	}
	if !p.cache.SetIfVersion(snap, version) {
		p.logger.Debug("newer snapshot published during restore", "snapshot_id", snap.ID)
		if cur, ok := p.cache.Get(); ok {
			return cur
		}
		return snap
	}
	p.logger.Debug("snapshot restored from store", "snapshot_id", snap.ID)
	return snap
}

// Publish 发布新快照到缓存
func (p *Provider) Publish(snap *model.Snapshot) {
	p.cache.Set(snap)
}

// Invalidate 清空缓存，下次读取会回落到存储
func (p *Provider) Invalidate() {
	p.cache.Invalidate()
}
