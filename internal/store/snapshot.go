package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
)

// SnapshotKey 快照在缓存表中的键
const SnapshotKey = "dashboard_snapshot"

// KV 快照持久化所需的最小键值接口，*Store 与 *MemoryKV 均实现
type KV interface {
	Save(key string, payload []byte, ts time.Time) error
	Load(key string) ([]byte, time.Time, bool, error)
}

// SnapshotStore 将快照以 JSON 形式保存在 KV 中
type SnapshotStore struct {
	kv     KV
	key    string
	logger *slog.Logger
}

// NewSnapshotStore 创建快照存储
func NewSnapshotStore(kv KV, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{kv: kv, key: SnapshotKey, logger: logger}
}

// Save 序列化并覆盖保存快照
func (s *SnapshotStore) Save(snap *model.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot is nil")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", snap.ID, err)
	}
	ts := snap.GeneratedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return s.kv.Save(s.key, payload, ts)
}

// Load 读取快照；不存在返回 ErrNotFound，内容损坏返回解码错误
func (s *SnapshotStore) Load() (*model.Snapshot, error) {
	payload, _, ok, err := s.kv.Load(s.key)
	if err != nil {
		return nil, err
	}
	if !ok || len(payload) == 0 {
		return nil, ErrNotFound
	}
	var snap model.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// TryLoad 读取快照，任何失败都视为未命中（损坏内容记录警告）
func (s *SnapshotStore) TryLoad() (*model.Snapshot, bool) {
	snap, err := s.Load()
	switch {
	case err == nil:
		return snap, true
	case errors.Is(err, ErrNotFound):
		return nil, false
	default:
		s.logger.Warn("stored snapshot unusable, treating as miss", "key", s.key, "error", err)
		return nil, false
	}
}
