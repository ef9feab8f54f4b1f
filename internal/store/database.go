// Package store owns the relational datastore: the connection, its SQL
// dialect and the embedded schema migrations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver
)

// Dialect is the SQL flavour of the connected datastore.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Database wraps the datastore connection.
type Database struct {
	conn    *sql.DB
	dialect Dialect
	log     logrus.FieldLogger
}

// NewDatabase opens and pings the datastore. driver is "postgres" or "sqlite".
func NewDatabase(driver, dsn string, log logrus.FieldLogger) (*Database, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	dialect := Dialect(driver)
	switch dialect {
	case Postgres, SQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == SQLite {
		// One writer; also keeps ":memory:" databases on a single connection.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(20)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(time.Hour)
		conn.SetConnMaxIdleTime(10 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{conn: conn, dialect: dialect, log: log.WithField("component", "store")}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for queries
func (db *Database) DB() *sql.DB {
	return db.conn
}

func (db *Database) Dialect() Dialect {
	return db.dialect
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// Rebind rewrites $n placeholders for the connected dialect. Queries are
// written in Postgres form; SQLite takes ?n.
func (db *Database) Rebind(query string) string {
	if db.dialect != SQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?$1")
}

// ExecContext runs a rebound statement.
func (db *Database) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.conn.ExecContext(ctx, db.Rebind(query), args...)
}

// QueryContext runs a rebound query.
func (db *Database) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, db.Rebind(query), args...)
}

// QueryRowContext runs a rebound single-row query.
func (db *Database) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRowContext(ctx, db.Rebind(query), args...)
}

// ExecSQL runs arbitrary SQL (DDL or DML) and reports the rows affected
// when the driver knows them.
func (db *Database) ExecSQL(ctx context.Context, statement string) (int64, error) {
	res, err := db.conn.ExecContext(ctx, statement)
	if err != nil {
		return 0, fmt.Errorf("exec sql: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// HealthCheck performs a health check on the database
func (db *Database) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return db.conn.PingContext(ctx)
}
