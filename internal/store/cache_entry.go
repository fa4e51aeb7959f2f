package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Save 写入缓存条目（同键覆盖，最后一次写入生效）
func (s *Store) Save(key string, payload []byte, ts time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO snapshot_cache (cache_key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, key, payload, formatTime(ts))
	if err != nil {
		return fmt.Errorf("failed to save cache entry %s: %w", key, err)
	}
	return nil
}

// Load 读取缓存条目，不存在时 ok 为 false
func (s *Store) Load(key string) ([]byte, time.Time, bool, error) {
	var (
		payload   []byte
		updatedAt string
	)
	err := s.db.QueryRow(
		"SELECT payload, updated_at FROM snapshot_cache WHERE cache_key = ?", key,
	).Scan(&payload, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, fmt.Errorf("failed to load cache entry %s: %w", key, err)
	}
	return payload, parseTime(updatedAt), true, nil
}

// Delete 删除缓存条目
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM snapshot_cache WHERE cache_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}
