package dialect

import (
	core "dbadapter/data/db"
)

// Name 方言的符号名称
type Name string

const (
	NameDB2      Name = "db2"
	NameDerby    Name = "derby"
	NameH2       Name = "h2"
	NameHSQLDB   Name = "hsqldb"
	NameMSSQL    Name = "mssql"
	NameMySQL    Name = "mysql"
	NameOracle   Name = "oracle"
	NamePostgres Name = "postgres"
	NameSQLite   Name = "sqlite"

	// NameGeneric 未匹配任何方言时使用的通用行为
	NameGeneric Name = "generic"
)

// Behavior 表示一个连接可用的方言能力。
//
// 通用实现见 Generic；具体方言通过 Bundle 覆盖其中一部分方法，
// 再由 Compose 叠加到通用实现之上。
type Behavior interface {
	// Name 返回方言名称
	Name() Name
	// Capabilities 返回方言支持的能力集合
	Capabilities() Capabilities

	// QuoteIdentifier 按方言为标识符加引号，支持 schema.table 形式
	QuoteIdentifier(name string) string
	// Rebind 将通用占位符 ? 转换为方言占位符
	Rebind(query string) string
	// Paginate 返回追加在 SELECT 之后的分页子句及其参数；ordered 表示语句已有 ORDER BY
	Paginate(limit, offset int, ordered bool) (clause string, args []any)
	// SupportsDeleteLimit 是否支持 DELETE ... LIMIT
	SupportsDeleteLimit() bool
	// LockClause 返回行锁子句，不支持时返回空字符串
	LockClause(skipLocked bool) string
	// IsUniqueViolation 判断错误是否为唯一键/主键冲突
	IsUniqueViolation(err error) bool

	// IsQuery 判断语句是否返回结果集
	IsQuery(query string) bool
	// LastInsertIDQuery 返回获取自增主键的语句；为空表示使用 sql.Result.LastInsertId
	LastInsertIDQuery() string
	// TableTypes 返回元数据查询时视为“表”的对象类型
	TableTypes() []string
}

// BehaviorProvider 可选接口：数据库连接对外暴露已绑定的方言能力
type BehaviorProvider interface {
	Behavior() Behavior
}

// FromDatabase 获取数据库连接绑定的方言能力。
//
// db 未实现 BehaviorProvider 时返回通用实现。
func FromDatabase(db core.IDatabase) Behavior {
	if db == nil {
		return Generic()
	}
	if p, ok := db.(BehaviorProvider); ok {
		if b := p.Behavior(); b != nil {
			return b
		}
	}
	return Generic()
}
