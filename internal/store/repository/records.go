// Package repository holds the datastore queries used by the sinks, the
// job runner and the REST API.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fortuna/diamond/internal/extract"
	"github.com/fortuna/diamond/internal/store"
)

// ErrUnknownTable is returned for a table that is not a scrape output table.
var ErrUnknownTable = errors.New("unknown record table")

// ContextColumns are present on every record table, ahead of the stat columns.
var ContextColumns = []string{
	"sport", "subject", "subject_id", "team", "season", "source", "captured_at", "category", "label",
}

// RecordRepository writes and reads normalized records.
type RecordRepository struct {
	db *store.Database
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *store.Database) *RecordRepository {
	return &RecordRepository{db: db}
}

// Insert writes one record.
func (r *RecordRepository) Insert(ctx context.Context, table string, rec extract.Record) error {
	if !store.IsRecordTable(table) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	cols := make([]string, 0, len(ContextColumns)+len(rec.Stats))
	cols = append(cols, ContextColumns...)
	args := []interface{}{
		rec.Sport,
		rec.Subject,
		nullIfEmpty(rec.SubjectID),
		nullIfEmpty(rec.Team),
		nullIfZero(rec.Season),
		rec.Source,
		rec.CapturedAt.UTC(),
		nullIfEmpty(rec.Category),
		rec.Label,
	}
	for _, s := range rec.Stats {
		cols = append(cols, s.Field.Column)
		args = append(args, s.Value.SQLValue(s.Field.Kind))
	}

	marks := make([]string, len(cols))
	for i := range marks {
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(marks, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// DeleteBySubject removes a subject's rows from table.
func (r *RecordRepository) DeleteBySubject(ctx context.Context, table, subject string) (int64, error) {
	if !store.IsRecordTable(table) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE subject = $1", subject)
	if err != nil {
		return 0, fmt.Errorf("delete %s rows for %s: %w", table, subject, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Filter narrows List and Count. Zero values match everything.
type Filter struct {
	Subject  string
	Category string
	Season   int
	Limit    int
	Offset   int
}

// Row is one stored record keyed by column name.
type Row map[string]interface{}

// List returns the newest rows of table first.
func (r *RecordRepository) List(ctx context.Context, table string, f Filter) ([]Row, error) {
	if !store.IsRecordTable(table) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	where, args := f.where()
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf("SELECT * FROM %s%s ORDER BY id DESC LIMIT $%d OFFSET $%d", table, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Count returns the number of rows of table matching f.
func (r *RecordRepository) Count(ctx context.Context, table string, f Filter) (int, error) {
	if !store.IsRecordTable(table) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	where, args := f.where()
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

func (f Filter) where() (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(col string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if f.Subject != "" {
		add("subject", f.Subject)
	}
	if f.Category != "" {
		add("category", f.Category)
	}
	if f.Season != 0 {
		add("season", f.Season)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}
