package builtin

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"dbadapter/data/db/dialect"
)

// 驱动未返回结构化错误时（例如错误已被包装成字符串）退回消息匹配
var (
	mysqlMessages    = dialect.MessageContains("duplicate entry", "duplicate key")
	postgresMessages = dialect.MessageContains("duplicate key value", "sqlstate 23505")
	mssqlMessages    = dialect.MessageContains("cannot insert duplicate key", "violation of unique key", "violation of primary key")
	sqliteMessages   = dialect.MessageContains("unique constraint failed")
)

const pgUniqueViolation = "23505"

// mysqlUniqueViolation ER_DUP_ENTRY(1062) 与 ER_DUP_ENTRY_WITH_KEY_NAME(1586)
func mysqlUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062 || myErr.Number == 1586
	}
	return mysqlMessages(err)
}

// postgresUniqueViolation 同时识别 pgx 与 lib/pq 的错误类型
func postgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	return postgresMessages(err)
}

// mssqlUniqueViolation 2601 唯一索引冲突，2627 唯一/主键约束冲突
func mssqlUniqueViolation(err error) bool {
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return msErr.Number == 2601 || msErr.Number == 2627
	}
	var msErrPtr *mssql.Error
	if errors.As(err, &msErrPtr) {
		return msErrPtr.Number == 2601 || msErrPtr.Number == 2627
	}
	return mssqlMessages(err)
}

func sqliteUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return sqliteMessages(err)
}
