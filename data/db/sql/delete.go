package sql

import (
	"context"
	"database/sql"
	"strings"

	core "dbadapter/data/db"
	"dbadapter/data/db/dialect"
)

type deleteBuilder struct {
	db      core.IDatabase
	dialect dialect.Behavior

	table string
	where conditions
	limit int
}

func (b *deleteBuilder) Where(cond string, args ...any) IDeleteBuilder {
	b.where.and(cond, args)
	return b
}

// Limit 仅在方言支持 DELETE ... LIMIT 时生效
func (b *deleteBuilder) Limit(n int) IDeleteBuilder {
	b.limit = n
	return b
}

func (b *deleteBuilder) Build() (string, []any) {
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(quoteIdentifier(b.dialect, "deleteBuilder", "table", b.table))

	args := b.where.write(&sb, make([]any, 0, len(b.where.args)+1))
	if b.limit > 0 && b.dialect.SupportsDeleteLimit() {
		sb.WriteString(" LIMIT ?")
		args = append(args, b.limit)
	}
	return sb.String(), args
}

func (b *deleteBuilder) Exec(ctx context.Context) (sql.Result, error) {
	q, args := b.Build()
	return b.db.Exec(ctx, q, args...)
}
