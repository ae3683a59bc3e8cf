package sql

import (
	"context"
	"strings"

	core "dbadapter/data/db"
	"dbadapter/data/db/dialect"
)

type selectBuilder struct {
	db      core.IDatabase
	dialect dialect.Behavior

	cols    []string
	table   string
	where   conditions
	groupBy []string
	orderBy string
	limit   int
	offset  int
	locking string
}

func (b *selectBuilder) From(table string) ISelectBuilder {
	b.table = table
	return b
}

func (b *selectBuilder) Where(cond string, args ...any) ISelectBuilder {
	b.where.and(cond, args)
	return b
}

func (b *selectBuilder) And(cond string, args ...any) ISelectBuilder {
	return b.Where(cond, args...)
}

func (b *selectBuilder) Or(cond string, args ...any) ISelectBuilder {
	b.where.or(cond, args)
	return b
}

func (b *selectBuilder) GroupBy(cols ...string) ISelectBuilder {
	b.groupBy = append(b.groupBy, cols...)
	return b
}

func (b *selectBuilder) OrderBy(expr string) ISelectBuilder {
	if expr != "" {
		b.orderBy = expr
	}
	return b
}

func (b *selectBuilder) Limit(n int) ISelectBuilder {
	b.limit = n
	return b
}

func (b *selectBuilder) Offset(n int) ISelectBuilder {
	b.offset = n
	return b
}

// ForUpdate 追加行锁子句；方言不支持行锁时忽略
func (b *selectBuilder) ForUpdate() ISelectBuilder {
	b.locking = b.dialect.LockClause(false)
	return b
}

// SkipLocked 追加跳过已锁定行的行锁子句；方言不支持时退化为 ForUpdate 或忽略
func (b *selectBuilder) SkipLocked() ISelectBuilder {
	b.locking = b.dialect.LockClause(true)
	return b
}

// Build 可重复调用，每次返回新的 args 切片
func (b *selectBuilder) Build() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.cols, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)

	args := b.where.write(&sb, make([]any, 0, len(b.where.args)+2))
	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}
	if b.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.orderBy)
	}

	// 分页子句由方言决定，例如 MSSQL 需要 ORDER BY 才能使用 OFFSET/FETCH
	clause, pageArgs := b.dialect.Paginate(b.limit, b.offset, b.orderBy != "")
	sb.WriteString(clause)
	args = append(args, pageArgs...)

	sb.WriteString(b.locking)
	return sb.String(), args
}

func (b *selectBuilder) Query(ctx context.Context) (core.IRows, error) {
	q, args := b.Build()
	return b.db.Query(ctx, q, args...)
}

func (b *selectBuilder) QueryRow(ctx context.Context) core.IRow {
	q, args := b.Build()
	return b.db.QueryRow(ctx, q, args...)
}
