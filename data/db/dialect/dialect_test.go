package dialect

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "dbadapter/data/db"
)

func TestRebind_Dollar(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b IN (?, ?)"
	got := PlaceholderDollar.Rebind(q)
	want := "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)"
	if got != want {
		t.Fatalf("Rebind mismatch\nwant: %s\ngot:  %s", want, got)
	}
}

func TestRebind_StylesAndLiterals(t *testing.T) {
	q := "UPDATE t SET note = 'what?' WHERE id = ? AND tag = 'it''s ?' AND v = ?"
	tests := []struct {
		style PlaceholderStyle
		want  string
	}{
		{PlaceholderQuestion, q},
		{PlaceholderDollar, "UPDATE t SET note = 'what?' WHERE id = $1 AND tag = 'it''s ?' AND v = $2"},
		{PlaceholderColon, "UPDATE t SET note = 'what?' WHERE id = :1 AND tag = 'it''s ?' AND v = :2"},
		{PlaceholderAtP, "UPDATE t SET note = 'what?' WHERE id = @p1 AND tag = 'it''s ?' AND v = @p2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.style.Rebind(q))
	}
}

func TestQuoteStyles(t *testing.T) {
	tests := []struct {
		name  string
		style QuoteStyle
		in    string
		want  string
	}{
		{"none", QuoteNone, "schema.table", "schema.table"},
		{"double", QuoteDouble, "schema.table", `"schema"."table"`},
		{"double escape", QuoteDouble, `we"ird`, `"we""ird"`},
		{"backtick", QuoteBacktick, "db.users", "`db`.`users`"},
		{"bracket", QuoteBracket, "dbo.users", "[dbo].[users]"},
		{"bracket keeps quoted part", QuoteBracket, "[dbo].users", "[dbo].[users]"},
		{"bracket escape", QuoteBracket, "a]b", "[a]]b]"},
		{"star kept", QuoteDouble, "t.*", `"t".*`},
		{"empty", QuoteDouble, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.style.Quote(tt.in))
		})
	}
}

func TestPaginationClause(t *testing.T) {
	clause, args := PaginateLimitOffset.Clause(10, 20, false)
	assert.Equal(t, " LIMIT ? OFFSET ?", clause)
	assert.Equal(t, []any{10, 20}, args)

	clause, args = PaginateOffsetFetch.Clause(10, 0, true)
	assert.Equal(t, " OFFSET 0 ROWS FETCH NEXT ? ROWS ONLY", clause)
	assert.Equal(t, []any{10}, args)

	clause, args = PaginateOffsetFetchOrdered.Clause(5, 15, false)
	assert.Equal(t, " ORDER BY (SELECT NULL) OFFSET ? ROWS FETCH NEXT ? ROWS ONLY", clause)
	assert.Equal(t, []any{15, 5}, args)

	clause, args = PaginateOffsetFetchOrdered.Clause(5, 0, true)
	assert.Equal(t, " OFFSET 0 ROWS FETCH NEXT ? ROWS ONLY", clause)
	assert.Equal(t, []any{5}, args)

	clause, args = PaginateOffsetFetch.Clause(0, 0, false)
	assert.Empty(t, clause)
	assert.Nil(t, args)
}

func TestLockClause(t *testing.T) {
	assert.Equal(t, "", LockNone.Clause(true))
	assert.Equal(t, " FOR UPDATE", LockForUpdate.Clause(true))
	assert.Equal(t, " FOR UPDATE", LockSkipLocked.Clause(false))
	assert.Equal(t, " FOR UPDATE SKIP LOCKED", LockSkipLocked.Clause(true))
}

func TestParseStyles(t *testing.T) {
	q, ok := ParseQuoteStyle("Bracket")
	require.True(t, ok)
	assert.Equal(t, QuoteBracket, q)
	_, ok = ParseQuoteStyle("curly")
	assert.False(t, ok)

	p, ok := ParsePlaceholderStyle("colon")
	require.True(t, ok)
	assert.Equal(t, PlaceholderColon, p)

	pg, ok := ParsePaginationStyle("offset_fetch_ordered")
	require.True(t, ok)
	assert.Equal(t, PaginateOffsetFetchOrdered, pg)

	l, ok := ParseLockSupport("skip_locked")
	require.True(t, ok)
	assert.Equal(t, LockSkipLocked, l)
}

func TestGeneric(t *testing.T) {
	g := Generic()
	assert.Equal(t, NameGeneric, g.Name())
	assert.Equal(t, "a.b", g.QuoteIdentifier("a.b"))
	assert.Equal(t, "DELETE FROM t WHERE id = ?", g.Rebind("DELETE FROM t WHERE id = ?"))
	assert.False(t, g.SupportsDeleteLimit())
	assert.Empty(t, g.LockClause(true))
	assert.True(t, g.IsUniqueViolation(errors.New("ERROR: duplicate key value violates unique constraint")))
	assert.False(t, g.IsUniqueViolation(errors.New("connection reset")))
	assert.False(t, g.IsUniqueViolation(nil))
	assert.True(t, g.IsQuery("  (select 1)"))
	assert.True(t, g.IsQuery("WITH x AS (SELECT 1) SELECT * FROM x"))
	assert.False(t, g.IsQuery("VALUES 1"))
	assert.False(t, g.IsQuery("selection"))
	assert.Equal(t, []string{"TABLE", "VIEW"}, g.TableTypes())
	assert.Empty(t, g.LastInsertIDQuery())
	assert.Empty(t, g.Capabilities().List())
}

func TestCompose_OverridesAndFallback(t *testing.T) {
	b := NewBundle("megadb",
		WithQuoteStyle(QuoteBacktick),
		WithDeleteLimit(true),
		WithQueryPrefixes("VALUES"),
		WithCapabilities(CapabilitySchemas),
	)
	beh := Compose(Generic(), b)

	assert.Equal(t, Name("megadb"), beh.Name())
	assert.Equal(t, "`t`", beh.QuoteIdentifier("t"))
	assert.True(t, beh.SupportsDeleteLimit())
	assert.True(t, beh.IsQuery("values 1"))
	assert.True(t, beh.IsQuery("SELECT 1"))
	assert.True(t, beh.Capabilities().Supports(CapabilitySchemas))

	// 未覆盖项回落到通用实现
	assert.Equal(t, "x = ?", beh.Rebind("x = ?"))
	assert.Empty(t, beh.LockClause(true))
	clause, _ := beh.Paginate(1, 0, false)
	assert.Equal(t, " LIMIT ?", clause)
	assert.Equal(t, []string{"TABLE", "VIEW"}, beh.TableTypes())
}

func TestCompose_ParentChain(t *testing.T) {
	parent := NewBundle("postgres",
		WithQuoteStyle(QuoteDouble),
		WithPlaceholders(PlaceholderDollar),
		WithCapabilities(CapabilityReturning),
	)
	child := NewBundle("redshift",
		WithParent(parent),
		WithLocking(LockNone),
		WithCapabilities(CapabilitySchemas),
	)
	beh := Compose(Generic(), child)

	assert.Equal(t, Name("redshift"), beh.Name())
	assert.Equal(t, `"t"`, beh.QuoteIdentifier("t"))
	assert.Equal(t, "a = $1", beh.Rebind("a = ?"))
	assert.ElementsMatch(t, []Capability{CapabilityReturning, CapabilitySchemas}, beh.Capabilities().List())
	assert.Equal(t, []string{"capabilities", "locking", "placeholder", "quote"}, child.Overrides())
	assert.Same(t, parent, child.Parent())
}

func TestCompose_NilBundle(t *testing.T) {
	assert.Equal(t, Generic(), Compose(Generic(), nil))
	assert.Equal(t, NameGeneric, Compose(nil, nil).Name())
}

func TestBundle_Empty(t *testing.T) {
	b := NewBundle("Foo")
	assert.True(t, b.IsEmpty())
	assert.Equal(t, Name("Foo"), Compose(Generic(), b).Name())

	withUV := NewBundle("Bar", WithUniqueViolationMessages("SQL0803N"))
	assert.False(t, withUV.IsEmpty())
	beh := Compose(Generic(), withUV)
	assert.True(t, beh.IsUniqueViolation(errors.New("DB2 SQL Error: SQLCODE=-803, SQLSTATE=23505, sql0803n")))
	assert.False(t, beh.IsUniqueViolation(errors.New("duplicate key")))
}

type providerDB struct {
	core.IDatabase
	beh Behavior
}

func (p providerDB) Behavior() Behavior { return p.beh }

type plainDB struct{ core.IDatabase }

func (plainDB) Ping(context.Context) error { return nil }
func (plainDB) Exec(context.Context, string, ...any) (sql.Result, error) {
	return nil, nil
}

func TestFromDatabase(t *testing.T) {
	assert.Equal(t, NameGeneric, FromDatabase(nil).Name())
	assert.Equal(t, NameGeneric, FromDatabase(plainDB{}).Name())

	beh := Compose(Generic(), NewBundle(NameMySQL, WithQuoteStyle(QuoteBacktick)))
	assert.Equal(t, NameMySQL, FromDatabase(providerDB{beh: beh}).Name())
	assert.Equal(t, NameGeneric, FromDatabase(providerDB{}).Name())
}
