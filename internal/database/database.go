// Package database 管理 PostgreSQL 连接池、事务和表结构
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/paiban/rescheduler/internal/config"
	"github.com/paiban/rescheduler/internal/metrics"
	"github.com/paiban/rescheduler/pkg/logger"

	_ "github.com/lib/pq" // PostgreSQL 驱动
)

const pingTimeout = 5 * time.Second

// DB 带慢查询记录的连接池
type DB struct {
	*sql.DB
	slow time.Duration
}

// New 打开连接池并确认数据库可达
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	pool, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("打开数据库连接失败: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("连接 %s:%d/%s 失败: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Int("max_open", cfg.MaxOpenConns).
		Msg("数据库已连接")

	return &DB{DB: pool, slow: cfg.SlowQuery}, nil
}

// Close 关闭连接池
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	logger.Info().Msg("关闭数据库连接")
	return db.DB.Close()
}

// Health 健康检查
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Transaction 在一个事务中执行 fn，fn 返回错误或 panic 时回滚
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error().Err(rbErr).Msg("事务回滚失败")
			return fmt.Errorf("事务回滚失败: %v (原始错误: %w)", rbErr, err)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("事务提交失败: %w", err)
	}
	return nil
}

// Migrate 依次执行建表语句，语句本身可重复执行
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("初始化表结构失败 (第 %d 条): %w", i+1, err)
		}
	}
	logger.Info().Int("statements", len(schema)).Msg("表结构已就绪")
	return nil
}

// ExecContext 执行写语句
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer db.observe("exec", query, time.Now())
	return db.DB.ExecContext(ctx, query, args...)
}

// QueryContext 执行多行查询
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	defer db.observe("query", query, time.Now())
	return db.DB.QueryContext(ctx, query, args...)
}

// QueryRowContext 执行单行查询
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	defer db.observe("query_row", query, time.Now())
	return db.DB.QueryRowContext(ctx, query, args...)
}

func (db *DB) observe(op, query string, start time.Time) {
	d := time.Since(start)
	if db.slow <= 0 || d < db.slow {
		return
	}
	metrics.RecordSlowQuery(op)
	logger.Warn().
		Str("op", op).
		Str("query", truncateQuery(query)).
		Dur("duration", d).
		Msg("慢查询")
}

func truncateQuery(query string) string {
	const max = 200
	if len(query) > max {
		return query[:max] + "..."
	}
	return query
}
