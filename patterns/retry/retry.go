package retry

import (
	"context"
	"time"
)

// Operation 可重试的操作
type Operation func(ctx context.Context) error

// OperationWithInfo 带尝试次数的操作，attempt 从 1 开始
type OperationWithInfo func(ctx context.Context, attempt int) error

// Config 重试配置
type Config struct {
	MaxAttempts   int           // 最大尝试次数（包括首次）
	InitialDelay  time.Duration // 首次退避延迟
	BackoffFactor float64       // 退避倍数
	MaxDelay      time.Duration // 单次退避上限，0 表示不限

	// Retryable 判断错误是否值得重试；为 nil 时所有错误都重试。
	// 返回 false 的错误会立即原样返回。
	Retryable func(err error) bool
	// OnRetry 每次退避前调用，可用于记录日志
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultConfig 返回默认配置
//
// 默认值：
//   - MaxAttempts: 2（1 次初始 + 1 次重试）
//   - InitialDelay: 2ms
//   - BackoffFactor: 2.0
//   - MaxDelay: 1s
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   2,
		InitialDelay:  2 * time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      time.Second,
	}
}

// Do 执行带重试的操作，返回最后一次的错误；任意一次成功返回 nil。
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//	    return client.Ping(ctx).Err()
//	}, retry.DefaultConfig())
func Do(ctx context.Context, op Operation, cfg Config) error {
	return DoWithInfo(ctx, func(ctx context.Context, _ int) error { return op(ctx) }, cfg)
}

// DoWithInfo 与 Do 相同，但每次尝试都会传入当前尝试次数
func DoWithInfo(ctx context.Context, op OperationWithInfo, cfg Config) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if cfg.Retryable != nil && !cfg.Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay := cfg.backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, lastErr)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// backoff 第 attempt 次失败后的等待时间：InitialDelay * BackoffFactor^(attempt-1)，不超过 MaxDelay
func (c Config) backoff(attempt int) time.Duration {
	factor := c.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	delay := time.Duration(float64(c.InitialDelay) * pow(factor, attempt-1))
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
