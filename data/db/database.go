// Package db 提供通用的数据库抽象接口
//
// 设计目标：
// 1. 隔离具体的数据库驱动，方言差异由 dialect 包在连接建立时绑定
// 2. 提供统一的数据库操作接口
// 3. 支持事务操作
// 4. 便于单元测试（Mock）
package db

import (
	"context"
	"database/sql"
	"strings"
)

// IDatabase 通用数据库接口
type IDatabase interface {
	// 查询操作
	Query(ctx context.Context, query string, args ...any) (IRows, error)
	QueryRow(ctx context.Context, query string, args ...any) IRow

	// 执行操作
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)

	// 事务操作
	Begin(ctx context.Context) (ITransaction, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (ITransaction, error)

	// 连接管理
	Ping(ctx context.Context) error
	Close() error

	// 获取原始连接（用于特殊场景）
	Raw() any
}

// IDialectNameProvider 可选接口：提供底层数据库方言名称
//
// 实现方返回连接绑定时匹配到的方言名（如 "mysql"、"db2"），
// 未匹配任何方言时返回空字符串。
type IDialectNameProvider interface {
	GetDialectName() string
}

// ITransaction 事务接口
type ITransaction interface {
	IDatabase

	Commit() error
	Rollback() error
}

// IRows 查询结果集接口
type IRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error

	Columns() ([]string, error)
	ColumnTypes() ([]*sql.ColumnType, error)
}

// IRow 单行结果接口
type IRow interface {
	Scan(dest ...any) error
	Err() error
}

// DBConfig 数据库连接配置
type DBConfig struct {
	Driver   string // database/sql 注册的驱动名：mysql, pgx, sqlserver, sqlite ...
	DSN      string // 直接传给 sql.Open 的数据源；为空时使用 Database
	URL      string // 原始连接 URL，仅用于方言匹配（例如区分 jdbc:derby:net: 与 db2）
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// 连接池配置
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒

	// Options 透传给方言匹配器的附加配置
	Options map[string]any
}

// DataSource 返回 sql.Open 使用的数据源
func (c DBConfig) DataSource() string {
	if c.DSN != "" {
		return c.DSN
	}
	return c.Database
}

// Map 将配置转换为方言匹配器使用的键值形式。
//
// 密码不会出现在结果中，Options 里的 password（不区分大小写）同样被丢弃；
// Options 中的其他键覆盖同名的固定字段。
func (c DBConfig) Map() map[string]any {
	m := map[string]any{
		"driver":   c.Driver,
		"database": c.Database,
	}
	if c.URL != "" {
		m["url"] = c.URL
	}
	if c.Host != "" {
		m["host"] = c.Host
	}
	if c.Port > 0 {
		m["port"] = c.Port
	}
	if c.Username != "" {
		m["username"] = c.Username
	}
	for k, v := range c.Options {
		if strings.EqualFold(k, "password") {
			continue
		}
		m[k] = v
	}
	return m
}
