// Package batch runs scrape jobs: one registered category over a list of
// subjects, strictly in order, with a fixed pause between subjects.
package batch

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/fortuna/diamond/internal/ingest"
)

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further transitions happen from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Job models the database representation of a scrape job.
type Job struct {
	JobID           string           `json:"job_id"`
	JobName         string           `json:"job"`
	Subjects        []ingest.Subject `json:"subjects"`
	Status          JobStatus        `json:"status"`
	StatusMessage   sql.NullString   `json:"-"`
	ProgressCurrent int              `json:"progress_current"`
	ProgressTotal   int              `json:"progress_total"`
	RecordsInserted int              `json:"records_inserted"`
	RecordsFailed   int              `json:"records_failed"`
	DryRun          bool             `json:"dry_run"`
	LastError       sql.NullString   `json:"-"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	StartedAt       sql.NullTime     `json:"-"`
	CompletedAt     sql.NullTime     `json:"-"`
}

// Copy returns a shallow copy to prevent external mutation.
func (j *Job) Copy() *Job {
	if j == nil {
		return nil
	}
	cpy := *j
	cpy.Subjects = append([]ingest.Subject(nil), j.Subjects...)
	return &cpy
}

// MarshalJSON flattens the nullable columns.
func (j *Job) MarshalJSON() ([]byte, error) {
	type plain Job
	return json.Marshal(struct {
		*plain
		StatusMessage string     `json:"status_message,omitempty"`
		LastError     string     `json:"last_error,omitempty"`
		StartedAt     *time.Time `json:"started_at,omitempty"`
		CompletedAt   *time.Time `json:"completed_at,omitempty"`
	}{
		plain:         (*plain)(j),
		StatusMessage: j.StatusMessage.String,
		LastError:     j.LastError.String,
		StartedAt:     nullTime(j.StartedAt),
		CompletedAt:   nullTime(j.CompletedAt),
	})
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

// Spec describes the work to be performed by the runner.
type Spec struct {
	JobID    string
	Job      string
	Subjects []ingest.Subject
	// DryRun scrapes without writing rows, CSV files or events.
	DryRun bool
}

// SubjectResult is what one subject contributed to a run.
type SubjectResult struct {
	Outputs  int
	Records  int
	Inserted int
	Failed   int
	Skipped  bool
	CSVFiles []string
}

// Summary totals a run. Skipped subjects are included in Subjects.
type Summary struct {
	Subjects int `json:"subjects"`
	Skipped  int `json:"skipped"`
	Records  int `json:"records"`
	Inserted int `json:"inserted"`
	Failed   int `json:"failed"`
	CSVFiles int `json:"csv_files"`
}

func (s *Summary) add(r SubjectResult) {
	s.Subjects++
	if r.Skipped {
		s.Skipped++
	}
	s.Records += r.Records
	s.Inserted += r.Inserted
	s.Failed += r.Failed
	s.CSVFiles += len(r.CSVFiles)
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnJobStart(spec Spec)
	OnSubjectStart(subject ingest.Subject, index int, total int)
	OnSubjectDone(subject ingest.Subject, result SubjectResult, index int, total int)
	OnJobComplete(summary Summary)
	OnJobError(err error)
}

// Progress is one job update pushed to live listeners.
type Progress struct {
	JobID    string    `json:"job_id"`
	Job      string    `json:"job"`
	Status   JobStatus `json:"status"`
	Message  string    `json:"message"`
	Current  int       `json:"current"`
	Total    int       `json:"total"`
	Inserted int       `json:"inserted"`
	Failed   int       `json:"failed"`
	At       time.Time `json:"at"`
}

// Notifier receives job progress, e.g. the websocket hub.
type Notifier interface {
	Notify(p Progress)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *Job   `json:"active_job,omitempty"`
	History   []*Job `json:"recent_jobs,omitempty"`
}
