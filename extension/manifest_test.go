package extension

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbadapter/data/db/dialect"
	apperrors "dbadapter/errors"
)

const fullManifest = `
requires: [postgres]
dialects:
  - name: cockroach
    match: "(?i)cockroach"
    extends: postgres
    quote: double
    placeholder: dollar
    pagination: limit_offset
    delete_limit: true
    locking: skip_locked
    unique_violation: ["duplicate key value", "23505"]
    query_prefixes: [SHOW]
    last_insert_id: "SELECT lastval()"
    table_types: [TABLE, VIEW, SEQUENCE]
    capabilities: [returning, upsert]
  - name: legacy-acme
    match: "^acme"
    when:
      legacy: true
`

func TestManifest_ParseAndApply(t *testing.T) {
	reg, _ := newTestRegistry()
	pg := reg.Register("postgres", NamePattern("postgres"), dialect.WithCapabilities(dialect.CapabilitySchemas))

	m, err := ParseManifest([]byte(fullManifest))
	require.NoError(t, err)
	require.Len(t, m.Dialects, 2)
	require.NoError(t, m.Apply(reg))

	assert.Equal(t, []dialect.Name{"postgres", "cockroach", "legacy-acme"}, reg.Names())

	d, ok := reg.Lookup("cockroach")
	require.True(t, ok)
	assert.Same(t, pg.Bundle(), d.Bundle().Parent())
	assert.Equal(t, 1, d.Arity())

	beh, ok := reg.Bind("CockroachDB", nil)
	require.True(t, ok)
	assert.Equal(t, `"t"`, beh.QuoteIdentifier("t"))
	assert.Equal(t, "a = $1", beh.Rebind("a = ?"))
	assert.True(t, beh.SupportsDeleteLimit())
	assert.Equal(t, " FOR UPDATE SKIP LOCKED", beh.LockClause(true))
	assert.True(t, beh.IsUniqueViolation(errors.New("ERROR: duplicate key value violates ...")))
	assert.True(t, beh.IsQuery("show tables"))
	assert.Equal(t, "SELECT lastval()", beh.LastInsertIDQuery())
	assert.Equal(t, []string{"TABLE", "VIEW", "SEQUENCE"}, beh.TableTypes())
	caps := beh.Capabilities()
	assert.True(t, caps.Supports(dialect.CapabilitySchemas), "继承自 postgres")
	assert.True(t, caps.Supports(dialect.CapabilityUpsert))
}

func TestManifest_WhenBuildsConfigMatcher(t *testing.T) {
	reg, _ := newTestRegistry()
	reg.Register("postgres", NamePattern("postgres"))
	m, err := ParseManifest([]byte(fullManifest))
	require.NoError(t, err)
	require.NoError(t, m.Apply(reg))

	d, _ := reg.Lookup("legacy-acme")
	assert.Equal(t, 2, d.Arity())

	_, ok := reg.Resolve("acme-driver", Config{"legacy": true})
	assert.True(t, ok)
	_, ok = reg.Resolve("acme-driver", Config{"legacy": "true"})
	assert.True(t, ok)
	_, ok = reg.Resolve("acme-driver", Config{})
	assert.False(t, ok)
	_, ok = reg.Resolve("not-acme", Config{"legacy": true})
	assert.False(t, ok)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "dialects: [\n"},
		{"missing name", "dialects:\n  - match: x\n"},
		{"missing match", "dialects:\n  - name: x\n"},
		{"bad regexp", "dialects:\n  - name: x\n    match: \"(\"\n"},
		{"unknown quote", "dialects:\n  - name: x\n    match: x\n    quote: curly\n"},
		{"unknown placeholder", "dialects:\n  - name: x\n    match: x\n    placeholder: hash\n"},
		{"unknown pagination", "dialects:\n  - name: x\n    match: x\n    pagination: top\n"},
		{"unknown locking", "dialects:\n  - name: x\n    match: x\n    locking: always\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrCodeManifest))
		})
	}
}

func TestManifest_ApplyIsAllOrNothing(t *testing.T) {
	reg, _ := newTestRegistry()
	m, err := ParseManifest([]byte(`
dialects:
  - name: fine
    match: fine
  - name: child
    match: child
    extends: missing
`))
	require.NoError(t, err)

	err = m.Apply(reg)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrCodeDependency))
	assert.Equal(t, 0, reg.Len())
}

func TestManifest_ExtendsEarlierEntry(t *testing.T) {
	reg, _ := newTestRegistry()
	m, err := ParseManifest([]byte(`
dialects:
  - name: base
    match: "^base$"
    quote: backtick
  - name: derived
    match: derived
    extends: base
`))
	require.NoError(t, err)
	require.NoError(t, m.Apply(reg))

	beh, ok := reg.Bind("derived", nil)
	require.True(t, ok)
	assert.Equal(t, "`t`", beh.QuoteIdentifier("t"))
}
