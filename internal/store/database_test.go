package store

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *Database {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	db, err := NewDatabase("sqlite", filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableCount(t *testing.T, db *Database, name string) int {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1", name).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestRunMigrationsCreatesEveryTable(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	require.NoError(t, db.RunMigrations(ctx))
	for _, table := range append(append([]string{}, RecordTables...), jobTables...) {
		assert.Equal(t, 1, tableCount(t, db, table), table)
	}

	// Second run skips everything.
	require.NoError(t, db.RunMigrations(ctx))
	var applied int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, len(Migrations), applied)
}

func TestRunMigrationsMissingFile(t *testing.T) {
	db := openSQLite(t)
	fsys := fstest.MapFS{
		"migrations/001_a.sql": {Data: []byte("CREATE TABLE a (id __AUTO_ID__);")},
	}

	err := db.runMigrations(context.Background(), fsys, []string{"001_a.sql", "002_b.sql"})
	require.ErrorIs(t, err, ErrMigrationNotFound)
	assert.Equal(t, 1, tableCount(t, db, "a"))
}

func TestResetRecreatesTables(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	require.NoError(t, db.RunMigrations(ctx))

	_, err := db.ExecSQL(ctx, `INSERT INTO news (sport, subject, source, captured_at, label) VALUES ('MLB', 'Chicago Cubs', 'ESPN', '2025-06-01 12:00:00', 'Headline')`)
	require.NoError(t, err)

	require.NoError(t, db.Reset(ctx))
	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news").Scan(&n))
	assert.Zero(t, n)
}

func TestExecSQLReportsRowsAffected(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	_, err := db.ExecSQL(ctx, "CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)
	_, err = db.ExecSQL(ctx, "INSERT INTO t (v) VALUES (1), (2), (3)")
	require.NoError(t, err)

	n, err := db.ExecSQL(ctx, "DELETE FROM t WHERE v > 1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = db.ExecSQL(ctx, "SELECT * FROM missing")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &Database{dialect: Postgres}
	lite := &Database{dialect: SQLite}

	q := "UPDATE t SET a = $1 WHERE b = $2 OR c = $2"
	assert.Equal(t, q, pg.Rebind(q))
	assert.Equal(t, "UPDATE t SET a = ?1 WHERE b = ?2 OR c = ?2", lite.Rebind(q))
}

func TestNewDatabaseRejectsUnknownDriver(t *testing.T) {
	_, err := NewDatabase("mysql", "dsn", nil)
	assert.Error(t, err)
}
