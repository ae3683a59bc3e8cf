package basic

import (
	"context"
	"database/sql"
	"fmt"

	core "dbadapter/data/db"
	"dbadapter/data/db/dialect"
)

// Tx 事务实现，委托给 *sql.Tx，同时实现 core.IDatabase 以便透传给需要 DB 的接口
type Tx struct {
	db      *sql.DB
	tx      *sql.Tx
	binding Binding
}

func (t *Tx) Query(ctx context.Context, query string, args ...any) (core.IRows, error) {
	rows, err := t.tx.QueryContext(ctx, t.binding.Behavior.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows}, nil
}

func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) core.IRow {
	return &Row{row: t.tx.QueryRowContext(ctx, t.binding.Behavior.Rebind(query), args...)}
}

func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.binding.Behavior.Rebind(query), args...)
}

// Execute 按语句是否返回结果集选择 Query 或 Exec
func (t *Tx) Execute(ctx context.Context, query string, args ...any) (core.IRows, sql.Result, error) {
	return execute(ctx, t, t.binding.Behavior, query, args...)
}

// LastInsertID 返回本事务最近插入的自增主键。
//
// 方言提供了专用语句时在同一事务连接上执行，否则使用 res.LastInsertId。
func (t *Tx) LastInsertID(ctx context.Context, res sql.Result) (int64, error) {
	q := t.binding.Behavior.LastInsertIDQuery()
	if q == "" {
		if res == nil {
			return 0, fmt.Errorf("basic.Tx: result is nil")
		}
		return res.LastInsertId()
	}
	var id sql.NullInt64
	if err := t.QueryRow(ctx, q).Scan(&id); err != nil {
		return 0, err
	}
	return id.Int64, nil
}

// 嵌套事务：当前 basic.Tx 明确不支持嵌套事务，调用方应在上层协调事务边界。
func (t *Tx) Begin(ctx context.Context) (core.ITransaction, error) {
	return nil, fmt.Errorf("basic.Tx: nested transactions are not supported")
}

func (t *Tx) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.ITransaction, error) {
	return nil, fmt.Errorf("basic.Tx: nested transactions are not supported")
}

func (t *Tx) Ping(ctx context.Context) error { return t.db.PingContext(ctx) }
func (t *Tx) Close() error                   { return nil }
func (t *Tx) Raw() any                       { return t.tx }

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// Behavior 实现 dialect.BehaviorProvider，事务沿用所属连接的方言
func (t *Tx) Behavior() dialect.Behavior { return t.binding.Behavior }

// GetDialectName 实现 core.IDialectNameProvider，便于在事务上下文中复用方言能力。
func (t *Tx) GetDialectName() string {
	if !t.binding.Matched {
		return ""
	}
	return string(t.binding.Dialect)
}
