package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clima-data/common/config"

	"github.com/cenkalti/backoff"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	defaultConnectAttempts = 5
	defaultConnectDelay    = 2 * time.Second
	pingTimeout            = 5 * time.Second
)

// NewPostgresDB 创建PostgreSQL连接池
// 连接池由调用方持有并在退出时关闭；启动时按固定间隔重试连接，重试耗尽返回错误
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 设置连接池参数
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := WaitForDB(ctx, db, cfg.ConnectAttempts, cfg.ConnectDelay, logger); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// WaitForDB 对连接池做 SELECT 1 探测，固定次数、固定间隔重试
func WaitForDB(ctx context.Context, db *sql.DB, attempts int, delay time.Duration, logger *zap.Logger) error {
	if attempts <= 0 {
		attempts = defaultConnectAttempts
	}
	if delay <= 0 {
		delay = defaultConnectDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	attempt := 0
	op := func() error {
		attempt++
		return Ping(ctx, db)
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
	}

	// WithMaxRetries 计的是"重试"次数，首次尝试不算在内
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return fmt.Errorf("failed to connect database after %d attempts: %w", attempt, err)
	}
	return nil
}

// Ping 冒烟测试：SELECT 1
func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close 关闭数据库连接
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
