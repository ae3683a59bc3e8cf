package sql

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	core "dbadapter/data/db"
	"dbadapter/data/db/dialect"
)

// upsertBuilder 先 INSERT，方言判定为唯一约束冲突时按 Key 列 UPDATE。
// 不依赖 ON CONFLICT / MERGE 语法，因此对所有方言可用；
// 冲突判定由方言的 IsUniqueViolation 决定。
type upsertBuilder struct {
	db      core.IDatabase
	dialect dialect.Behavior

	table        string
	columns      []string
	values       []any
	keyColumns   []string
	updateValues map[string]any
}

func (b *upsertBuilder) Columns(cols ...string) IUpsertBuilder {
	b.columns = cols
	return b
}

func (b *upsertBuilder) Values(vals ...any) IUpsertBuilder {
	b.values = vals
	return b
}

func (b *upsertBuilder) Key(cols ...string) IUpsertBuilder {
	b.keyColumns = cols
	return b
}

func (b *upsertBuilder) UpdateSet(col string, val any) IUpsertBuilder {
	return b.UpdateSetMap(map[string]any{col: val})
}

// UpdateSetMap 指定冲突时更新的列；未指定时更新除 Key 外的全部列
func (b *upsertBuilder) UpdateSetMap(values map[string]any) IUpsertBuilder {
	if b.updateValues == nil {
		b.updateValues = make(map[string]any, len(values))
	}
	for k, v := range values {
		b.updateValues[k] = v
	}
	return b
}

func (b *upsertBuilder) Exec(ctx context.Context) (sql.Result, error) {
	switch {
	case len(b.columns) == 0:
		return nil, fmt.Errorf("upsert: Columns is required")
	case len(b.values) != len(b.columns):
		return nil, fmt.Errorf("upsert: values length mismatch columns length")
	case len(b.keyColumns) == 0:
		return nil, fmt.Errorf("upsert: Key is required")
	}

	ins := &insertBuilder{db: b.db, dialect: b.dialect, table: b.table, columns: b.columns, rows: [][]any{b.values}}
	res, err := ins.Exec(ctx)
	if err == nil || !b.dialect.IsUniqueViolation(err) {
		return res, err
	}

	upd, err := b.conflictUpdate()
	if err != nil {
		return nil, err
	}
	return upd.Exec(ctx)
}

// conflictUpdate 构造冲突时执行的 UPDATE
func (b *upsertBuilder) conflictUpdate() (*updateBuilder, error) {
	upd := &updateBuilder{db: b.db, dialect: b.dialect, table: b.table}
	for _, key := range b.keyColumns {
		idx := slices.Index(b.columns, key)
		if idx < 0 {
			return nil, fmt.Errorf("upsert: key column %s not found in Columns", key)
		}
		if !isSafeIdentifier(key) {
			return nil, fmt.Errorf("upsert: unsafe key column %s", key)
		}
		upd.Where(b.dialect.QuoteIdentifier(key)+" = ?", b.values[idx])
	}

	if len(b.updateValues) > 0 {
		upd.SetMap(b.updateValues)
		return upd, nil
	}
	rest := make(map[string]any, len(b.columns))
	for i, col := range b.columns {
		if !slices.Contains(b.keyColumns, col) {
			rest[col] = b.values[i]
		}
	}
	if len(rest) == 0 {
		return nil, fmt.Errorf("upsert: no non-key columns to update")
	}
	upd.SetMap(rest)
	return upd, nil
}
