package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
)

// 刷新周期状态
const (
	RefreshRunning   = "running"
	RefreshSucceeded = "succeeded"
	RefreshFailed    = "failed"
	RefreshCancelled = "cancelled"
)

// RefreshLog 一次刷新周期的记录
type RefreshLog struct {
	ID           int64     `json:"id"`
	CycleID      string    `json:"cycleId"`
	Origin       string    `json:"origin"`
	Status       string    `json:"status"`
	SnapshotID   string    `json:"snapshotId"`
	TotalRows    int       `json:"totalRows"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	CompletedAt  time.Time `json:"completedAt"`
}

// CreateRefreshLog 创建刷新日志，返回 refresh_log id
func (s *Store) CreateRefreshLog(cycleID, origin string, startedAt time.Time) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO refresh_log (cycle_id, origin, status, started_at)
		VALUES (?, ?, ?, ?)
	`, cycleID, origin, RefreshRunning, formatTime(startedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to create refresh log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get refresh log id: %w", err)
	}
	return id, nil
}

// FinishRefreshLog 完成刷新日志更新
func (s *Store) FinishRefreshLog(id int64, status, snapshotID string, totalRows int, errorMessage string, completedAt time.Time) error {
	res, err := s.db.Exec(`
		UPDATE refresh_log SET
			status = ?,
			snapshot_id = ?,
			total_rows = ?,
			error_message = ?,
			completed_at = ?
		WHERE id = ?
	`, status, snapshotID, totalRows, errorMessage, formatTime(completedAt), id)
	if err != nil {
		return fmt.Errorf("failed to update refresh log: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("refresh log %d: %w", id, ErrNotFound)
	}
	return nil
}

// InsertSourceReports 写入本周期各数据源的导入结果
func (s *Store) InsertSourceReports(refreshLogID int64, reports []model.SourceReport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO source_report (
			refresh_log_id, source, file, sheet, status,
			imported_rows, skipped_rows, undated_rows,
			fallbacks_json, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare source_report insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range reports {
		if _, err := stmt.Exec(
			refreshLogID, r.Source, r.File, r.Sheet, string(r.Status),
			r.ImportedRows, r.SkippedRows, r.UndatedRows,
			buildFallbacksJSON(r.Fallbacks), r.Error,
		); err != nil {
			return fmt.Errorf("failed to insert source_report %s: %w", r.Source, err)
		}
	}
	return tx.Commit()
}

// buildFallbacksJSON 将回退列序列化为 JSON
func buildFallbacksJSON(columns []string) string {
	if len(columns) == 0 {
		return "[]"
	}
	b, err := json.Marshal(columns)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// RecentRefreshLogs 最近的刷新日志（按开始时间倒序）
func (s *Store) RecentRefreshLogs(limit int) ([]RefreshLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, cycle_id, origin, status, snapshot_id, total_rows, error_message, started_at, completed_at
		FROM refresh_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh logs: %w", err)
	}
	defer rows.Close()

	var logs []RefreshLog
	for rows.Next() {
		l, err := scanRefreshLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// LastSuccessfulRefresh 最近一次成功的刷新
func (s *Store) LastSuccessfulRefresh() (RefreshLog, error) {
	row := s.db.QueryRow(`
		SELECT id, cycle_id, origin, status, snapshot_id, total_rows, error_message, started_at, completed_at
		FROM refresh_log
		WHERE status = ?
		ORDER BY id DESC
		LIMIT 1
	`, RefreshSucceeded)
	l, err := scanRefreshLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RefreshLog{}, ErrNotFound
	}
	return l, err
}

// SourceReports 读取某个刷新周期的数据源结果
func (s *Store) SourceReports(refreshLogID int64) ([]model.SourceReport, error) {
	rows, err := s.db.Query(`
		SELECT source, file, sheet, status, imported_rows, skipped_rows, undated_rows, fallbacks_json, error_message
		FROM source_report
		WHERE refresh_log_id = ?
		ORDER BY id
	`, refreshLogID)
	if err != nil {
		return nil, fmt.Errorf("failed to query source reports: %w", err)
	}
	defer rows.Close()

	var out []model.SourceReport
	for rows.Next() {
		var (
			r         model.SourceReport
			status    string
			fallbacks string
		)
		if err := rows.Scan(&r.Source, &r.File, &r.Sheet, &status,
			&r.ImportedRows, &r.SkippedRows, &r.UndatedRows, &fallbacks, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan source report: %w", err)
		}
		r.Status = model.SourceStatus(status)
		if err := json.Unmarshal([]byte(fallbacks), &r.Fallbacks); err != nil {
			r.Fallbacks = nil
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRefreshLog(row rowScanner) (RefreshLog, error) {
	var (
		l                    RefreshLog
		startedAt, completed string
	)
	if err := row.Scan(&l.ID, &l.CycleID, &l.Origin, &l.Status, &l.SnapshotID,
		&l.TotalRows, &l.ErrorMessage, &startedAt, &completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return l, err
		}
		return l, fmt.Errorf("failed to scan refresh log: %w", err)
	}
	l.StartedAt = parseTime(startedAt)
	l.CompletedAt = parseTime(completed)
	return l, nil
}
