package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrMigrationNotFound is returned when a listed migration is not embedded.
var ErrMigrationNotFound = errors.New("migration file not found")

// Migrations are applied in order; applied versions are recorded in
// schema_migrations and skipped on later runs.
var Migrations = []string{
	"001_player_tables.sql",
	"002_team_tables.sql",
	"003_scrape_jobs.sql",
	"004_espn_league_tables.sql",
}

// RecordTables are the scrape output tables, in migration order.
var RecordTables = []string{
	"player_splits", "pitching_splits", "bat_vs_pitch", "player_stats", "pitcher_stats", "player_gamelog",
	"team_splits", "roster_data", "injuries", "team_schedule", "news", "odds_data", "team_stats", "team_trends",
	"team_batting_stats", "team_pitching_stats", "team_fielding_stats", "player_bio",
}

var jobTables = []string{"scrape_job_events", "scrape_jobs"}

// IsRecordTable reports whether name is a scrape output table.
func IsRecordTable(name string) bool {
	for _, t := range RecordTables {
		if t == name {
			return true
		}
	}
	return false
}

// RunMigrations executes all migration files in order
func (db *Database) RunMigrations(ctx context.Context) error {
	return db.runMigrations(ctx, migrationFS, Migrations)
}

func (db *Database) runMigrations(ctx context.Context, fsys fs.FS, names []string) error {
	db.log.Info("[store] running database migrations...")

	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, name := range names {
		if err := db.runMigration(ctx, fsys, name); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", name, err)
		}
	}

	db.log.Info("[store] ✓ all migrations completed")
	return nil
}

func (db *Database) createMigrationsTable(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, db.render(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at __TIMESTAMP__ NOT NULL
		)
	`))
	return err
}

// runMigration runs a single migration file if it hasn't been applied yet
func (db *Database) runMigration(ctx context.Context, fsys fs.FS, name string) error {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = $1", name).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		db.log.Debugf("[store]   ⊘ skipping %s (already applied)", name)
		return nil
	}

	content, err := fs.ReadFile(fsys, "migrations/"+name)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMigrationNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, db.render(string(content))); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, db.Rebind("INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)"), name, time.Now().UTC()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	db.log.Infof("[store]   ✓ applied %s", name)
	return nil
}

// Reset drops every table this package creates and re-applies the migrations.
func (db *Database) Reset(ctx context.Context) error {
	db.log.Warn("[store] ⚠️ dropping all tables")
	drop := append(append([]string{}, jobTables...), RecordTables...)
	drop = append(drop, "schema_migrations")
	for _, t := range drop {
		if _, err := db.conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
			return fmt.Errorf("drop %s: %w", t, err)
		}
	}
	return db.RunMigrations(ctx)
}

// render fills the dialect-specific placeholders of a migration.
func (db *Database) render(sql string) string {
	var r *strings.Replacer
	if db.dialect == SQLite {
		r = strings.NewReplacer(
			"__AUTO_ID__", "INTEGER PRIMARY KEY AUTOINCREMENT",
			"__TIMESTAMP__", "TIMESTAMP",
		)
	} else {
		r = strings.NewReplacer(
			"__AUTO_ID__", "BIGSERIAL PRIMARY KEY",
			"__TIMESTAMP__", "TIMESTAMPTZ",
		)
	}
	return r.Replace(sql)
}
