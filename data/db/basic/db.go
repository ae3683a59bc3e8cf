// Package basic 基于 database/sql 的 IDatabase 实现。
//
// 打开连接时通过 Binder 按驱动名解析方言，把方言能力绑定到连接上；
// 之后所有语句都经过该方言的占位符改写。
package basic

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	core "dbadapter/data/db"
	"dbadapter/data/db/dialect"
	"dbadapter/errors"
	"dbadapter/extension"
	"dbadapter/logging"
)

const defaultPingTimeout = 3 * time.Second

// Binder 按驱动名与连接配置解析方言行为；*extension.Registry 即为实现
type Binder interface {
	Bind(driverName string, cfg extension.Config) (dialect.Behavior, bool)
}

// Binding 连接与方言的绑定结果，随连接关闭而失效
type Binding struct {
	ID         uuid.UUID
	DriverName string
	Dialect    dialect.Name
	Matched    bool
	Behavior   dialect.Behavior
	BoundAt    time.Time
}

// DB 基于 database/sql 的实现，满足 core.IDatabase 抽象
type DB struct {
	db      *sql.DB
	binding Binding
	logger  logging.Logger
}

type options struct {
	logger      logging.Logger
	driverName  string
	pingTimeout time.Duration
}

// Option Open 选项
type Option func(*options)

// WithLogger 设置日志记录器
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDriverName 使用指定名称进行方言匹配，而不是 DBConfig.Driver。
// 适用于驱动名不足以区分产品的场景（例如 odbc 连接到 DB2）。
func WithDriverName(name string) Option {
	return func(o *options) { o.driverName = name }
}

// WithPingTimeout 设置打开连接时的可用性检查超时
func WithPingTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pingTimeout = d
		}
	}
}

// New 创建不绑定任何方言的数据库实例，所有语句使用通用行为
func New(config core.DBConfig) (core.IDatabase, error) {
	return Open(config, nil)
}

// Open 根据配置打开连接并绑定方言。
//
// 调用方必须确保所配置的 Driver 已通过空导入注册（例如 `_ "modernc.org/sqlite"`）。
// binder 为 nil 或未匹配任何方言时使用通用行为。
func Open(config core.DBConfig, binder Binder, opts ...Option) (*DB, error) {
	o := options{logger: logging.GetLogger(), pingTimeout: defaultPingTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	driver := config.Driver
	if driver == "" {
		driver = "sqlite"
	}
	config.Driver = driver

	db, err := sql.Open(driver, config.DataSource())
	if err != nil {
		return nil, errors.WrapDatabaseError(context.Background(), err, "open "+driver)
	}

	// 连接池配置（可选）
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(config.ConnMaxLifetime) * time.Second)
	}
	if config.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(time.Duration(config.ConnMaxIdleTime) * time.Second)
	}

	// 基础可用性检查
	ctx, cancel := context.WithTimeout(context.Background(), o.pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapDatabaseError(ctx, err, "ping "+driver)
	}

	matchName := driver
	if o.driverName != "" {
		matchName = o.driverName
	}
	binding := bind(binder, matchName, extension.Config(config.Map()))

	logger := o.logger.WithFields(
		logging.String("binding_id", binding.ID.String()),
		logging.String("dialect", string(binding.Dialect)),
	)
	logger.Info(ctx, "连接已绑定方言",
		logging.String("driver", matchName),
		logging.Bool("matched", binding.Matched))

	return &DB{db: db, binding: binding, logger: logger}, nil
}

func bind(binder Binder, driverName string, cfg extension.Config) Binding {
	beh, matched := dialect.Generic(), false
	if binder != nil {
		if b, ok := binder.Bind(driverName, cfg); ok && b != nil {
			beh, matched = b, true
		}
	}
	return Binding{
		ID:         uuid.New(),
		DriverName: driverName,
		Dialect:    beh.Name(),
		Matched:    matched,
		Behavior:   beh,
		BoundAt:    time.Now(),
	}
}

func (d *DB) Query(ctx context.Context, query string, args ...any) (core.IRows, error) {
	rows, err := d.db.QueryContext(ctx, d.binding.Behavior.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows}, nil
}

func (d *DB) QueryRow(ctx context.Context, query string, args ...any) core.IRow {
	return &Row{row: d.db.QueryRowContext(ctx, d.binding.Behavior.Rebind(query), args...)}
}

func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, d.binding.Behavior.Rebind(query), args...)
}

// Execute 按语句是否返回结果集选择 Query 或 Exec，二者只有一个非 nil
func (d *DB) Execute(ctx context.Context, query string, args ...any) (core.IRows, sql.Result, error) {
	return execute(ctx, d, d.binding.Behavior, query, args...)
}

func (d *DB) Begin(ctx context.Context) (core.ITransaction, error) {
	return d.BeginTx(ctx, nil)
}

func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.ITransaction, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, errors.WrapDatabaseError(ctx, err, "begin")
	}
	return &Tx{db: d.db, tx: tx, binding: d.binding}, nil
}

func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

func (d *DB) Close() error {
	d.logger.Debug(context.Background(), "连接已关闭")
	return d.db.Close()
}

func (d *DB) Raw() any { return d.db }

// Binding 返回连接的方言绑定
func (d *DB) Binding() Binding { return d.binding }

// Behavior 实现 dialect.BehaviorProvider
func (d *DB) Behavior() dialect.Behavior { return d.binding.Behavior }

// GetDialectName 实现 core.IDialectNameProvider；未匹配方言时返回空字符串
func (d *DB) GetDialectName() string {
	if !d.binding.Matched {
		return ""
	}
	return string(d.binding.Dialect)
}

type querier interface {
	Query(ctx context.Context, query string, args ...any) (core.IRows, error)
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execute(ctx context.Context, q querier, beh dialect.Behavior, query string, args ...any) (core.IRows, sql.Result, error) {
	if beh.IsQuery(query) {
		rows, err := q.Query(ctx, query, args...)
		return rows, nil, err
	}
	res, err := q.Exec(ctx, query, args...)
	return nil, res, err
}
