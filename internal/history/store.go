package history

import (
	"context"
	"fmt"
	"time"
)

// Record 是一条完成任务的记录。
type Record struct {
	ID         string
	Text       string
	Class      string
	Runs       int
	SpeedTable string
	SpeedLevel int
	Voice      string
	Engine     string
	Path       string
	Duration   time.Duration
	Elapsed    time.Duration
	CreatedAt  time.Time
}

// Store 读写任务记录。
type Store struct {
	db *DB
}

// NewStore 基于已打开的数据库创建 Store。
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Add 写入一条记录。CreatedAt 为零时使用当前时间。
func (s *Store) Add(ctx context.Context, r Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, text, class, runs, speed_table, speed_level, voice, engine, path, duration_ms, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Text, r.Class, r.Runs, r.SpeedTable, r.SpeedLevel, r.Voice, r.Engine, r.Path,
		r.Duration.Milliseconds(), r.Elapsed.Milliseconds(), r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("[history] 写入记录失败: %w", err)
	}
	return nil
}

// Recent 按时间倒序返回最近 limit 条记录。
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, class, runs, speed_table, speed_level, voice, engine, path, duration_ms, elapsed_ms, created_at
		 FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("[history] 查询记录失败: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var durationMs, elapsedMs int64
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Text, &r.Class, &r.Runs, &r.SpeedTable, &r.SpeedLevel,
			&r.Voice, &r.Engine, &r.Path, &durationMs, &elapsedMs, &createdAt); err != nil {
			return nil, fmt.Errorf("[history] 读取记录失败: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count 返回记录总数。
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&n); err != nil {
		return 0, fmt.Errorf("[history] 统计记录失败: %w", err)
	}
	return n, nil
}
