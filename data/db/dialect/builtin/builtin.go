// Package builtin 注册本包自带的方言。
//
// 导入本包即通过 extension.Provide 把内置方言作为编译期单元加入默认目录，
// 由 extension.Loader 在发现阶段加载；也可直接调用 Register 注册到指定注册表。
package builtin

import (
	"strings"

	"dbadapter/data/db/dialect"
	"dbadapter/extension"
)

// UnitID 内置方言单元的标识
const UnitID = extension.DefaultNamespace + "/discover"

func init() {
	extension.Provide(Unit())
}

// Unit 返回注册全部内置方言的扩展单元
func Unit() extension.Unit {
	return extension.NewUnit(UnitID, func(reg *extension.Registry) error {
		Register(reg)
		return nil
	})
}

// Register 按固定顺序注册内置方言。
// 顺序决定歧义驱动名的归属：先注册者优先。
func Register(reg *extension.Registry) {
	reg.Register(dialect.NameDB2, db2Matcher(), db2Options()...)
	reg.Register(dialect.NameDerby, extension.NamePattern(`derby`), derbyOptions()...)
	reg.Register(dialect.NameH2, extension.NamePattern(`\bh2\b`), h2Options()...)
	reg.Register(dialect.NameHSQLDB, extension.NamePattern(`hsqldb`), hsqldbOptions()...)
	reg.Register(dialect.NameMSSQL, extension.NamePattern(`sqlserver|mssql|tds|microsoft sql`), mssqlOptions()...)
	reg.Register(dialect.NameMySQL, extension.NamePattern(`mysql|mariadb`), mysqlOptions()...)
	reg.Register(dialect.NameOracle, extension.NamePattern(`oracle|godror|oci8`), oracleOptions()...)
	reg.Register(dialect.NamePostgres, extension.NamePattern(`postgres|pgx|^pq$`), postgresOptions()...)
	reg.Register(dialect.NameSQLite, extension.NamePattern(`sqlite`), sqliteOptions()...)
}

// db2Matcher DB2 驱动同时用于 Derby 网络协议，url 以 jdbc:derby:net: 开头时交给 derby
func db2Matcher() extension.Matcher {
	name := extension.NamePattern(`db2|ibm_db`)
	return extension.NameAndConfig(func(driverName string, cfg extension.Config) bool {
		if !name.Match(driverName, cfg) {
			return false
		}
		return !strings.HasPrefix(strings.ToLower(cfg.String("url")), "jdbc:derby:net:")
	})
}

func db2Options() []dialect.Option {
	return []dialect.Option{
		dialect.WithQuoteStyle(dialect.QuoteDouble),
		dialect.WithPagination(dialect.PaginateOffsetFetch),
		dialect.WithLocking(dialect.LockForUpdate),
		dialect.WithUniqueViolationMessages("SQL0803N", "SQLSTATE=23505"),
		dialect.WithQueryPrefixes("VALUES"),
		dialect.WithLastInsertIDQuery("VALUES IDENTITY_VAL_LOCAL()"),
		dialect.WithTableTypes("TABLE", "VIEW", "SYNONYM", "MATERIALIZED QUERY TABLE", "ALIAS"),
		dialect.WithCapabilities(
			dialect.CapabilitySchemas,
			dialect.CapabilityIdentity,
			dialect.CapabilitySequences,
			dialect.CapabilitySavepoints,
		),
	}
}

func derbyOptions() []dialect.Option {
	return []dialect.Option{
		dialect.WithQuoteStyle(dialect.QuoteDouble),
		dialect.WithPagination(dialect.PaginateOffsetFetch),
		dialect.WithLocking(dialect.LockForUpdate),
		dialect.WithUniqueViolationMessages("23505", "duplicate key value"),
		dialect.WithQueryPrefixes("VALUES"),
		dialect.WithLastInsertIDQuery("VALUES IDENTITY_VAL_LOCAL()"),
		dialect.WithTableTypes("TABLE", "VIEW", "SYNONYM"),
		dialect.WithCapabilities(
			dialect.CapabilitySchemas,
			dialect.CapabilityIdentity,
			dialect.CapabilitySequences,
			dialect.CapabilitySavepoints,
			dialect.CapabilityTransactionalDDL,
		),
	}
}

func h2Options() []dialect.Option {
	return []dialect.Option{
		dialect.WithQuoteStyle(dialect.QuoteDouble),
		dialect.WithPagination(dialect.PaginateLimitOffset),
		dialect.WithLocking(dialect.LockForUpdate),
		dialect.WithUniqueViolationMessages("23505", "unique index or primary key violation"),
		dialect.WithQueryPrefixes("VALUES", "CALL"),
		dialect.WithCapabilities(
			dialect.CapabilitySchemas,
			dialect.CapabilityIdentity,
			dialect.CapabilitySequences,
			dialect.CapabilitySavepoints,
			dialect.CapabilityUpsert,
		),
	}
}

func hsqldbOptions() []dialect.Option {
	return []dialect.Option{
		dialect.WithQuoteStyle(dialect.QuoteDouble),
		dialect.WithPagination(dialect.PaginateLimitOffset),
		dialect.WithLocking(dialect.LockForUpdate),
		dialect.WithUniqueViolationMessages("23505", "unique constraint or index violation"),
		dialect.WithQueryPrefixes("VALUES", "CALL"),
		dialect.WithLastInsertIDQuery("CALL IDENTITY()"),
		dialect.WithCapabilities(
			dialect.CapabilitySchemas,
			dialect.CapabilityIdentity,
			dialect.CapabilitySequences,
			dialect.CapabilitySavepoints,
		),
	}
}

func mssqlOptions() []dialect.Option {
	return []dialect.Option{
		dialect.WithQuoteStyle(dialect.QuoteBracket),
		dialect.WithPlaceholders(dialect.PlaceholderAtP),
		dialect.WithPagination(dialect.PaginateOffsetFetchOrdered),
		dialect.WithDeleteLimit(false),
		dialect.WithLocking(dialect.LockNone),
		dialect.WithUniqueViolation(mssqlUniqueViolation),
		dialect.WithQueryPrefixes("EXEC", "EXECUTE"),
		dialect.WithLastInsertIDQuery("SELECT SCOPE_IDENTITY()"),
		dialect.WithCapabilities(
			dialect.CapabilitySchemas,
			dialect.CapabilityIdentity,
			dialect.CapabilitySequences,
			dialect.CapabilitySavepoints,
			dialect.CapabilityReturning,
			dialect.CapabilityTransactionalDDL,
		),
	}
}

func mysqlOptions() []dialect.Option {
	return []dialect.Option{
		dialect.WithQuoteStyle(dialect.QuoteBacktick),
		dialect.WithPagination(dialect.PaginateLimitOffset),
		dialect.WithDeleteLimit(true),
		dialect.WithLocking(dialect.LockSkipLocked),
		dialect.WithUniqueViolation(mysqlUniqueViolation),
		dialect.WithCapabilities(
			dialect.CapabilityUpsert,
			dialect.CapabilitySavepoints,
			dialect.CapabilityIdentity,
		),
	}
}

func oracleOptions() []dialect.Option {
	return []dialect.Option{
		dialect.WithQuoteStyle(dialect.QuoteDouble),
		dialect.WithPlaceholders(dialect.PlaceholderColon),
		dialect.WithPagination(dialect.PaginateOffsetFetch),
		dialect.WithLocking(dialect.LockSkipLocked),
		dialect.WithUniqueViolationMessages("ORA-00001"),
		dialect.WithTableTypes("TABLE", "VIEW", "SYNONYM"),
		dialect.WithCapabilities(
			dialect.CapabilitySchemas,
			dialect.CapabilitySequences,
			dialect.CapabilityIdentity,
			dialect.CapabilitySavepoints,
			dialect.CapabilityBooleanEmulation,
		),
	}
}

func postgresOptions() []dialect.Option {
	return []dialect.Option{
		dialect.WithQuoteStyle(dialect.QuoteDouble),
		dialect.WithPlaceholders(dialect.PlaceholderDollar),
		dialect.WithPagination(dialect.PaginateLimitOffset),
		dialect.WithDeleteLimit(false),
		dialect.WithLocking(dialect.LockSkipLocked),
		dialect.WithUniqueViolation(postgresUniqueViolation),
		dialect.WithLastInsertIDQuery("SELECT lastval()"),
		dialect.WithTableTypes("TABLE", "VIEW", "MATERIALIZED VIEW"),
		dialect.WithCapabilities(
			dialect.CapabilitySchemas,
			dialect.CapabilityReturning,
			dialect.CapabilityUpsert,
			dialect.CapabilitySavepoints,
			dialect.CapabilitySequences,
			dialect.CapabilityIdentity,
			dialect.CapabilityTransactionalDDL,
		),
	}
}

func sqliteOptions() []dialect.Option {
	return []dialect.Option{
		dialect.WithQuoteStyle(dialect.QuoteDouble),
		dialect.WithPagination(dialect.PaginateLimitOffset),
		dialect.WithDeleteLimit(true),
		dialect.WithLocking(dialect.LockNone),
		dialect.WithUniqueViolation(sqliteUniqueViolation),
		dialect.WithQueryPrefixes("PRAGMA"),
		dialect.WithLastInsertIDQuery("SELECT last_insert_rowid()"),
		dialect.WithCapabilities(
			dialect.CapabilityReturning,
			dialect.CapabilityUpsert,
			dialect.CapabilitySavepoints,
			dialect.CapabilityTransactionalDDL,
		),
	}
}
