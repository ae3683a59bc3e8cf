// Package redissource 从 Redis 读取方言发现清单。
//
// 每个键 <Prefix>:<name> 的值是一份 discover.yaml 内容，作为一个扩展单元参与发现，
// 单元标识为 redis://<key>。适用于集中下发方言定义的部署。
package redissource

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"dbadapter/errors"
	"dbadapter/extension"
	"dbadapter/logging"
	"dbadapter/patterns/retry"
)

// client captures the subset of go-redis commands we rely on (for easier testing).
type client interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Config 描述 Redis 来源的连接与扫描参数
type Config struct {
	Client    redis.UniversalClient
	Addr      string
	Username  string
	Password  string
	DB        int
	Prefix    string
	ScanCount int64
	Timeout   time.Duration
	Logger    logging.Logger

	// 单条命令的重试：MaxAttempts 包括首次，默认 2；RetryDelay 为首次退避，默认 20ms
	MaxAttempts int
	RetryDelay  time.Duration
}

// Source 实现 extension.Source
type Source struct {
	cfg    Config
	client client
	owned  *redis.Client
	logger logging.Logger
}

var _ extension.Source = (*Source)(nil)

// New 创建 Redis 来源；未提供 Client 时按 Addr 自建连接
func New(cfg Config) (*Source, error) {
	switch {
	case cfg.Client != nil:
		return newWithClient(cfg.Client, cfg), nil
	case cfg.Addr != "":
		rc := redis.NewClient(&redis.Options{Addr: cfg.Addr, Username: cfg.Username, Password: cfg.Password, DB: cfg.DB})
		s := newWithClient(rc, cfg)
		s.owned = rc
		return s, nil
	default:
		return nil, errors.NewError(errors.ErrCodeInvalidInput, "redis client not configured")
	}
}

func newWithClient(cl client, cfg Config) *Source {
	if cfg.Prefix == "" {
		cfg.Prefix = extension.DefaultNamespace + ":discover"
	}
	if cfg.ScanCount <= 0 {
		cfg.ScanCount = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 20 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetLogger().WithFields(logging.String("component", "extension.redissource"))
	}
	return &Source{cfg: cfg, client: cl, logger: cfg.Logger}
}

// Name 实现 extension.Source
func (s *Source) Name() string { return "redis:" + s.cfg.Prefix }

// Units 扫描 <Prefix>:* 并按键名排序返回；重试后仍失败的读取错误中止本次发现
func (s *Source) Units() ([]extension.Unit, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	keys, err := s.scan(ctx)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeNetwork, "redis scan "+s.cfg.Prefix)
	}
	sort.Strings(keys)

	units := make([]extension.Unit, 0, len(keys))
	for _, key := range keys {
		var val []byte
		err := retry.Do(ctx, func(ctx context.Context) (err error) {
			val, err = s.client.Get(ctx, key).Bytes()
			return err
		}, s.retryConfig(ctx, "get"))
		if stderrors.Is(err, redis.Nil) {
			// 扫描与读取之间被删除
			continue
		}
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrCodeNetwork, "redis get "+key).
				WithContext("key", key)
		}
		units = append(units, extension.ManifestBytes("redis://"+key, val))
	}
	s.logger.Debug(ctx, "redis discover units", logging.Int("count", len(units)))
	return units, nil
}

func (s *Source) scan(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var (
		keys   []string
		cursor uint64
	)
	for {
		var (
			batch []string
			next  uint64
		)
		err := retry.Do(ctx, func(ctx context.Context) (err error) {
			batch, next, err = s.client.Scan(ctx, cursor, s.cfg.Prefix+":*", s.cfg.ScanCount).Result()
			return err
		}, s.retryConfig(ctx, "scan"))
		if err != nil {
			return nil, err
		}
		for _, k := range batch {
			// SCAN 可能重复返回同一个键
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// retryConfig 单条命令的重试策略；redis.Nil 表示键不存在，不重试
func (s *Source) retryConfig(ctx context.Context, op string) retry.Config {
	return retry.Config{
		MaxAttempts:   s.cfg.MaxAttempts,
		InitialDelay:  s.cfg.RetryDelay,
		BackoffFactor: 2,
		MaxDelay:      time.Second,
		Retryable:     func(err error) bool { return !stderrors.Is(err, redis.Nil) },
		OnRetry: func(attempt int, delay time.Duration, err error) {
			s.logger.Debug(ctx, "redis 命令失败，稍后重试",
				logging.String("op", op),
				logging.Int("attempt", attempt),
				logging.Duration("delay", delay),
				logging.Error(err))
		},
	}
}

// Close 关闭自建连接；外部传入的 Client 由调用方负责
func (s *Source) Close() error {
	if s.owned != nil {
		return s.owned.Close()
	}
	return nil
}
