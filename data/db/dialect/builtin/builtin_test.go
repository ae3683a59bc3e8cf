package builtin

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbadapter/data/db/dialect"
	"dbadapter/extension"
	"dbadapter/logging"
)

func newRegistry(t *testing.T) *extension.Registry {
	t.Helper()
	reg := extension.NewRegistry(extension.WithLogger(logging.NewNoopLogger()))
	Register(reg)
	return reg
}

func TestRegister_Order(t *testing.T) {
	reg := newRegistry(t)
	assert.Equal(t, []dialect.Name{
		dialect.NameDB2,
		dialect.NameDerby,
		dialect.NameH2,
		dialect.NameHSQLDB,
		dialect.NameMSSQL,
		dialect.NameMySQL,
		dialect.NameOracle,
		dialect.NamePostgres,
		dialect.NameSQLite,
	}, reg.Names())
}

func TestResolve_CommonDriverNames(t *testing.T) {
	reg := newRegistry(t)
	tests := []struct {
		driver string
		cfg    extension.Config
		want   dialect.Name
	}{
		{"mysql", nil, dialect.NameMySQL},
		{"MariaDB", nil, dialect.NameMySQL},
		{"pgx", nil, dialect.NamePostgres},
		{"postgres", nil, dialect.NamePostgres},
		{"PostgreSQL", nil, dialect.NamePostgres},
		{"pq", nil, dialect.NamePostgres},
		{"sqlserver", nil, dialect.NameMSSQL},
		{"Microsoft SQL Server", nil, dialect.NameMSSQL},
		{"sqlite", nil, dialect.NameSQLite},
		{"sqlite3", nil, dialect.NameSQLite},
		{"godror", nil, dialect.NameOracle},
		{"Oracle", nil, dialect.NameOracle},
		{"go_ibm_db", nil, dialect.NameDB2},
		{"DB2/LINUXX8664", extension.Config{"url": "jdbc:db2://h:50000/db"}, dialect.NameDB2},
		{"db2", extension.Config{"url": "jdbc:derby:net://h:1527/db"}, ""},
		{"Apache Derby", nil, dialect.NameDerby},
		{"H2", nil, dialect.NameH2},
		{"HSQL Database Engine hsqldb", nil, dialect.NameHSQLDB},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			bundle, ok := reg.Resolve(tt.driver, tt.cfg)
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, bundle.Name())
		})
	}
}

func TestResolve_NoFalsePositives(t *testing.T) {
	reg := newRegistry(t)
	for _, driver := range []string{"h2o", "pqx", "clickhouse", "unknown-driver"} {
		_, ok := reg.Resolve(driver, nil)
		assert.False(t, ok, driver)
	}
}

func TestBehaviors(t *testing.T) {
	reg := newRegistry(t)

	db2, _ := reg.Bind("db2", nil)
	assert.True(t, db2.IsQuery("VALUES CURRENT TIMESTAMP"))
	assert.Equal(t, "VALUES IDENTITY_VAL_LOCAL()", db2.LastInsertIDQuery())
	assert.Contains(t, db2.TableTypes(), "MATERIALIZED QUERY TABLE")
	assert.True(t, db2.IsUniqueViolation(errors.New("DB2 SQL Error: SQLCODE=-803, SQLSTATE=23505, SQLERRMC=1;T")))
	assert.True(t, db2.Capabilities().Supports(dialect.CapabilitySchemas))

	pg, _ := reg.Bind("pgx", nil)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1", pg.Rebind("SELECT * FROM t WHERE a = ?"))
	assert.Equal(t, `"public"."users"`, pg.QuoteIdentifier("public.users"))
	assert.Equal(t, " FOR UPDATE SKIP LOCKED", pg.LockClause(true))
	assert.False(t, pg.SupportsDeleteLimit())

	ms, _ := reg.Bind("sqlserver", nil)
	assert.Equal(t, "[dbo].[users]", ms.QuoteIdentifier("dbo.users"))
	assert.Equal(t, "a = @p1", ms.Rebind("a = ?"))
	clause, args := ms.Paginate(10, 0, false)
	assert.Equal(t, " ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT ? ROWS ONLY", clause)
	assert.Equal(t, []any{10}, args)

	my, _ := reg.Bind("mysql", nil)
	assert.Equal(t, "`users`", my.QuoteIdentifier("users"))
	assert.True(t, my.SupportsDeleteLimit())

	ora, _ := reg.Bind("godror", nil)
	assert.Equal(t, "a = :1 AND b = :2", ora.Rebind("a = ? AND b = ?"))
	assert.True(t, ora.IsUniqueViolation(errors.New("ORA-00001: unique constraint (APP.PK_USERS) violated")))

	lite, _ := reg.Bind("sqlite", nil)
	assert.Equal(t, "SELECT last_insert_rowid()", lite.LastInsertIDQuery())
	assert.True(t, lite.IsQuery("PRAGMA table_info(users)"))
}

func TestUniqueViolation_TypedDriverErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func(error) bool
		err  error
		want bool
	}{
		{"mysql 1062", mysqlUniqueViolation, &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql 1586", mysqlUniqueViolation, &mysql.MySQLError{Number: 1586}, true},
		{"mysql other", mysqlUniqueViolation, &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, false},
		{"mysql wrapped", mysqlUniqueViolation, fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062}), true},
		{"mysql message", mysqlUniqueViolation, errors.New("Error 1062: Duplicate entry 'a' for key 'uk'"), true},
		{"pgx", postgresUniqueViolation, &pgconn.PgError{Code: "23505"}, true},
		{"pgx fk", postgresUniqueViolation, &pgconn.PgError{Code: "23503"}, false},
		{"pq", postgresUniqueViolation, &pq.Error{Code: "23505"}, true},
		{"pq other", postgresUniqueViolation, &pq.Error{Code: "40001"}, false},
		{"mssql 2627", mssqlUniqueViolation, mssql.Error{Number: 2627}, true},
		{"mssql 2601 wrapped", mssqlUniqueViolation, fmt.Errorf("exec: %w", mssql.Error{Number: 2601}), true},
		{"mssql other", mssqlUniqueViolation, mssql.Error{Number: 1205}, false},
		{"sqlite message", sqliteUniqueViolation, errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), true},
		{"sqlite other", sqliteUniqueViolation, errors.New("no such table: users"), false},
		{"nil", mysqlUniqueViolation, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.err))
		})
	}
}

func TestUnit_IsProvided(t *testing.T) {
	units, err := extension.DefaultCatalog().Units()
	require.NoError(t, err)

	var found bool
	for _, u := range units {
		if u.ID() == UnitID {
			found = true
		}
	}
	assert.True(t, found)

	reg := extension.NewRegistry(extension.WithLogger(logging.NewNoopLogger()))
	loaded, err := extension.NewLoader(reg, extension.DefaultLoaderConfig(),
		extension.WithLoaderLogger(logging.NewNoopLogger())).Discover()
	require.NoError(t, err)
	assert.Contains(t, loaded, UnitID)
	assert.Equal(t, 9, reg.Len())
}
