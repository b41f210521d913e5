package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig は起動時のDB疎通確認のリトライ設定。
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig はコンテナ起動時のDB待ち合わせ用のデフォルト設定を返す。
// 初回1秒、2倍ずつ増加、最大16秒で6回まで試行する。
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    6,
		InitialBackoff: time.Second,
		MaxBackoff:     16 * time.Second,
	}
}

// CalculateBackoff は失敗回数に基づいて指数バックオフ遅延を計算する。
func (c RetryConfig) CalculateBackoff(failures int) time.Duration {
	delay := c.InitialBackoff
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay > c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	return delay
}

// Pinger は疎通確認を行う。*Handleが実装する。
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingWithRetry はDBが応答するまで指数バックオフでPingを繰り返す。
// attemptTimeoutは1回のPingの上限時間。ctxがキャンセルされた場合は即座に返る。
func PingWithRetry(ctx context.Context, p Pinger, cfg RetryConfig, attemptTimeout time.Duration) error {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		lastErr = p.Ping(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		delay := cfg.CalculateBackoff(i)
		slog.Warn("database not ready, retrying",
			slog.Int("attempt", i+1),
			slog.Duration("backoff", delay),
			slog.String("error", lastErr.Error()),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("database wait canceled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("database not ready after %d attempts: %w", attempts, lastErr)
}
