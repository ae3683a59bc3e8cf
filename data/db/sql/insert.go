package sql

import (
	"context"
	"database/sql"
	"strings"

	core "dbadapter/data/db"
	"dbadapter/data/db/dialect"
)

type insertBuilder struct {
	db      core.IDatabase
	dialect dialect.Behavior

	table   string
	columns []string
	rows    [][]any
}

func (b *insertBuilder) Columns(cols ...string) IInsertBuilder {
	b.columns = cols
	return b
}

// Values 追加一行；多次调用生成多行 VALUES
func (b *insertBuilder) Values(vals ...any) IInsertBuilder {
	if len(vals) > 0 {
		b.rows = append(b.rows, vals)
	}
	return b
}

func (b *insertBuilder) Build() (string, []any) {
	const name = "insertBuilder"
	switch {
	case len(b.columns) == 0:
		panic(name + ": Columns is required")
	case len(b.rows) == 0:
		panic(name + ": at least one row is required")
	}

	quoted := make([]string, len(b.columns))
	for i, col := range b.columns {
		quoted[i] = quoteIdentifier(b.dialect, name, "column", col)
	}
	row := "(?" + strings.Repeat(", ?", len(b.columns)-1) + ")"

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(quoteIdentifier(b.dialect, name, "table", b.table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(b.rows)*len(b.columns))
	for i, vals := range b.rows {
		if len(vals) != len(b.columns) {
			panic(name + ": values length mismatch columns length")
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(row)
		args = append(args, vals...)
	}
	return sb.String(), args
}

func (b *insertBuilder) Exec(ctx context.Context) (sql.Result, error) {
	q, args := b.Build()
	return b.db.Exec(ctx, q, args...)
}
