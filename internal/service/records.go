// Package service is the read side behind the REST API.
package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/fortuna/diamond/internal/store"
	"github.com/fortuna/diamond/internal/store/repository"
)

// MaxPageSize caps the rows returned by one query.
const MaxPageSize = 1000

// RecordQuery selects rows of one table.
type RecordQuery struct {
	Table    string
	Subject  string
	Category string
	Season   int
	Limit    int
	Offset   int
}

// RecordPage is one page of rows plus the total match count.
type RecordPage struct {
	Table  string           `json:"table"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Rows   []repository.Row `json:"rows"`
}

// RecordService handles record queries.
type RecordService struct {
	records *repository.RecordRepository
}

// NewRecordService creates a new record service
func NewRecordService(db *store.Database) *RecordService {
	return &RecordService{records: repository.NewRecordRepository(db)}
}

// Tables lists the queryable tables.
func (s *RecordService) Tables() []string {
	tables := append([]string(nil), store.RecordTables...)
	sort.Strings(tables)
	return tables
}

// ListRecords returns the newest matching rows first.
func (s *RecordService) ListRecords(ctx context.Context, q RecordQuery) (*RecordPage, error) {
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	f := repository.Filter{Subject: q.Subject, Category: q.Category, Season: q.Season, Limit: q.Limit, Offset: q.Offset}

	total, err := s.records.Count(ctx, q.Table, f)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	rows, err := s.records.List(ctx, q.Table, f)
	if err != nil {
		return nil, fmt.Errorf("fetching records: %w", err)
	}
	if rows == nil {
		rows = []repository.Row{}
	}

	return &RecordPage{Table: q.Table, Total: total, Limit: q.Limit, Offset: q.Offset, Rows: rows}, nil
}
