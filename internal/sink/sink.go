// Package sink persists scrape outputs: rows in the datastore, one CSV
// audit file per subject and category, and a console grid.
package sink

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/diamond/internal/extract"
	"github.com/fortuna/diamond/internal/ingest"
	"github.com/fortuna/diamond/internal/metrics"
)

// Repository is the datastore side of a Sink.
type Repository interface {
	Insert(ctx context.Context, table string, rec extract.Record) error
	DeleteBySubject(ctx context.Context, table, subject string) (int64, error)
}

// InsertError is one record that could not be written.
type InsertError struct {
	Table string
	Key   string
	Err   error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("insert %s %s: %v", e.Table, e.Key, e.Err)
}

func (e *InsertError) Unwrap() error {
	return e.Err
}

// Result counts the outcome of one write.
type Result struct {
	Inserted int
	Failed   int
	// Errors holds the first few failures.
	Errors []*InsertError
}

const maxKeptErrors = 10

func (r *Result) add(o Result) {
	r.Inserted += o.Inserted
	r.Failed += o.Failed
	for _, e := range o.Errors {
		if len(r.Errors) < maxKeptErrors {
			r.Errors = append(r.Errors, e)
		}
	}
}

// Sink writes records one insert at a time. A failed insert is logged
// with the record's key and the remaining records are still written.
type Sink struct {
	repo Repository
	log  logrus.FieldLogger
}

func New(repo Repository, log logrus.FieldLogger) *Sink {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Sink{repo: repo, log: log.WithField("component", "sink")}
}

// Write appends records to table. Records left unwritten by a cancelled
// ctx count as failed, so Inserted+Failed always equals len(records).
func (s *Sink) Write(ctx context.Context, table string, records []extract.Record) Result {
	var res Result
	for n, rec := range records {
		if err := ctx.Err(); err != nil {
			left := len(records) - n
			res.Failed += left
			s.log.WithField("table", table).WithError(err).Warnf("[sink] ⚠️ stopped, %d records not written", left)
			break
		}
		err := s.repo.Insert(ctx, table, rec)
		metrics.Inserts.WithLabelValues(table, metrics.Outcome(err)).Inc()
		if err != nil {
			ie := &InsertError{Table: table, Key: rec.Key(), Err: err}
			s.log.WithFields(logrus.Fields{"table": table, "key": ie.Key}).WithError(err).Error("[sink] ❌ insert failed")
			res.Failed++
			if len(res.Errors) < maxKeptErrors {
				res.Errors = append(res.Errors, ie)
			}
			continue
		}
		res.Inserted++
	}
	s.log.WithField("table", table).Infof("[sink] ✓ inserted %d/%d records", res.Inserted, len(records))
	return res
}

// Replace deletes table's rows for key, then writes records.
func (s *Sink) Replace(ctx context.Context, table, key string, records []extract.Record) (Result, error) {
	deleted, err := s.repo.DeleteBySubject(ctx, table, key)
	if err != nil {
		return Result{}, fmt.Errorf("replacing %s rows for %s: %w", table, key, err)
	}
	s.log.WithFields(logrus.Fields{"table": table, "subject": key}).Debugf("[sink] deleted %d previous rows", deleted)
	return s.Write(ctx, table, records), nil
}

// Persist writes every output, replacing by key where the output asks for it.
func (s *Sink) Persist(ctx context.Context, outs []ingest.Output) (Result, error) {
	var total Result
	for _, out := range outs {
		if out.Empty() {
			continue
		}
		if out.ReplaceKey != "" {
			res, err := s.Replace(ctx, out.Table, out.ReplaceKey, out.Records)
			if err != nil {
				return total, err
			}
			total.add(res)
			continue
		}
		total.add(s.Write(ctx, out.Table, out.Records))
	}
	return total, nil
}
