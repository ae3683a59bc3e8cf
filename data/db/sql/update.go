package sql

import (
	"context"
	"database/sql"
	"strings"

	core "dbadapter/data/db"
	"dbadapter/data/db/dialect"
)

// assignment SET 子句中的一项：列赋值或原始表达式
type assignment struct {
	column string
	expr   string
	args   []any
}

type updateBuilder struct {
	db      core.IDatabase
	dialect dialect.Behavior

	table string
	sets  []assignment
	where conditions
}

func (b *updateBuilder) Set(col string, val any) IUpdateBuilder {
	if col != "" {
		b.sets = append(b.sets, assignment{column: col, args: []any{val}})
	}
	return b
}

// SetMap 按列名排序追加，保证生成的语句稳定
func (b *updateBuilder) SetMap(values map[string]any) IUpdateBuilder {
	for _, k := range sortedKeys(values) {
		b.Set(k, values[k])
	}
	return b
}

func (b *updateBuilder) SetExpr(expr string, args ...any) IUpdateBuilder {
	if expr != "" {
		b.sets = append(b.sets, assignment{expr: expr, args: args})
	}
	return b
}

func (b *updateBuilder) Where(cond string, args ...any) IUpdateBuilder {
	b.where.and(cond, args)
	return b
}

// Build 列赋值在前、表达式在后，参数顺序与之一致
func (b *updateBuilder) Build() (string, []any) {
	const name = "updateBuilder"
	if len(b.sets) == 0 {
		panic(name + ": no columns or expressions to set")
	}

	parts := make([]string, 0, len(b.sets))
	args := make([]any, 0, len(b.sets)+len(b.where.args))
	for _, s := range b.sets {
		if s.column != "" {
			parts = append(parts, quoteIdentifier(b.dialect, name, "column", s.column)+" = ?")
			args = append(args, s.args...)
		}
	}
	for _, s := range b.sets {
		if s.column == "" {
			parts = append(parts, s.expr)
			args = append(args, s.args...)
		}
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(quoteIdentifier(b.dialect, name, "table", b.table))
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(parts, ", "))
	args = b.where.write(&sb, args)
	return sb.String(), args
}

func (b *updateBuilder) Exec(ctx context.Context) (sql.Result, error) {
	q, args := b.Build()
	return b.db.Exec(ctx, q, args...)
}
