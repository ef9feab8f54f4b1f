package batch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fortuna/diamond/internal/store"
)

const jobColumns = `job_id, job_name, subjects, status, status_message,
	progress_current, progress_total, records_inserted, records_failed,
	dry_run, last_error, created_at, updated_at, started_at, completed_at`

// Repository handles persistence for scrape jobs and events.
type Repository struct {
	db  *store.Database
	now func() time.Time
}

// NewRepository constructs a Repository.
func NewRepository(db *store.Database) *Repository {
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// CreateJob inserts a new job row and returns the stored record.
func (r *Repository) CreateJob(ctx context.Context, job *Job) (*Job, error) {
	subjects, err := json.Marshal(job.Subjects)
	if err != nil {
		return nil, fmt.Errorf("encode subjects: %w", err)
	}
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	now := r.now()

	query := `
		INSERT INTO scrape_jobs (
			job_id, job_name, subjects, status, status_message,
			progress_current, progress_total, dry_run, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
	`

	_, err = r.db.ExecContext(ctx, query,
		job.JobID, job.JobName, string(subjects), string(job.Status), job.StatusMessage,
		job.ProgressCurrent, job.ProgressTotal, job.DryRun, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return r.GetJob(ctx, job.JobID)
}

// UpdateStatus updates status, message and optional error. Terminal
// statuses also stamp completed_at.
func (r *Repository) UpdateStatus(ctx context.Context, jobID string, status JobStatus, message string, lastErr error) error {
	query := `
		UPDATE scrape_jobs
		SET status = $2,
			status_message = $3,
			last_error = $4,
			updated_at = $5,
			completed_at = $6
		WHERE job_id = $1
	`

	var errText sql.NullString
	if lastErr != nil {
		errText = sql.NullString{String: lastErr.Error(), Valid: true}
	}
	now := r.now()
	var completed sql.NullTime
	if status.Terminal() {
		completed = sql.NullTime{Time: now, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query, jobID, string(status), message, errText, now, completed); err != nil {
		return fmt.Errorf("update job status: %w", err)
	}

	return nil
}

// UpdateProgress updates the progress counters and message.
func (r *Repository) UpdateProgress(ctx context.Context, jobID string, current, total int, message string) error {
	query := `
		UPDATE scrape_jobs
		SET progress_current = $2,
			progress_total = $3,
			status_message = $4,
			updated_at = $5
		WHERE job_id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, jobID, current, total, message, r.now()); err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}

	return nil
}

// UpdateCounts stores the running insert totals.
func (r *Repository) UpdateCounts(ctx context.Context, jobID string, inserted, failed int) error {
	query := `
		UPDATE scrape_jobs
		SET records_inserted = $2,
			records_failed = $3,
			updated_at = $4
		WHERE job_id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, jobID, inserted, failed, r.now()); err != nil {
		return fmt.Errorf("update job counts: %w", err)
	}
	return nil
}

// AppendEvent stores a log entry for a job.
func (r *Repository) AppendEvent(ctx context.Context, jobID string, eventType, message string, current, total *int) error {
	query := `
		INSERT INTO scrape_job_events (job_id, event_type, message, progress_current, progress_total, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`

	var currentVal interface{}
	if current != nil {
		currentVal = *current
	}
	var totalVal interface{}
	if total != nil {
		totalVal = *total
	}

	if _, err := r.db.ExecContext(ctx, query, jobID, eventType, message, currentVal, totalVal, r.now()); err != nil {
		return fmt.Errorf("insert job event: %w", err)
	}
	return nil
}

// Event is one row of a job's log.
type Event struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ListEvents returns a job's log, oldest first.
func (r *Repository) ListEvents(ctx context.Context, jobID string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_type, COALESCE(message, ''), created_at
		FROM scrape_job_events
		WHERE job_id = $1
		ORDER BY id
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list job events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Type, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ResetStuckJobs moves running jobs back to queued (used during service restarts).
func (r *Repository) ResetStuckJobs(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scrape_jobs
		SET status = 'queued',
			status_message = 'Reset after service restart',
			updated_at = $1
		WHERE status = 'running'
	`, r.now())
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// MarkNextJobRunning claims the oldest queued job. The claim is a
// conditional update, so a job taken by another worker in between is
// retried with the next one. It returns nil when the queue is empty.
func (r *Repository) MarkNextJobRunning(ctx context.Context) (*Job, error) {
	for {
		var jobID string
		err := r.db.QueryRowContext(ctx, `
			SELECT job_id
			FROM scrape_jobs
			WHERE status = 'queued'
			ORDER BY created_at
			LIMIT 1
		`).Scan(&jobID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("claim job: %w", err)
		}

		now := r.now()
		res, err := r.db.ExecContext(ctx, `
			UPDATE scrape_jobs
			SET status = 'running',
				status_message = 'Starting job...',
				started_at = COALESCE(started_at, $2),
				updated_at = $2
			WHERE job_id = $1 AND status = 'queued'
		`, jobID, now)
		if err != nil {
			return nil, fmt.Errorf("claim job %s: %w", jobID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		return r.GetJob(ctx, jobID)
	}
}

// GetJob returns one job, or nil when it does not exist.
func (r *Repository) GetJob(ctx context.Context, jobID string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM scrape_jobs WHERE job_id = $1`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// GetActiveJob returns the currently running job, if any.
func (r *Repository) GetActiveJob(ctx context.Context) (*Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM scrape_jobs
		WHERE status = 'running'
		ORDER BY started_at DESC
		LIMIT 1
	`

	row := r.db.QueryRowContext(ctx, query)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active job: %w", err)
	}
	return job, nil
}

// ListRecentJobs returns the most recently created jobs.
func (r *Repository) ListRecentJobs(ctx context.Context, limit int) ([]*Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM scrape_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func scanJob(scanner interface {
	Scan(dest ...interface{}) error
}) (*Job, error) {
	job := &Job{}
	var subjects string
	err := scanner.Scan(
		&job.JobID,
		&job.JobName,
		&subjects,
		&job.Status,
		&job.StatusMessage,
		&job.ProgressCurrent,
		&job.ProgressTotal,
		&job.RecordsInserted,
		&job.RecordsFailed,
		&job.DryRun,
		&job.LastError,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(subjects), &job.Subjects); err != nil {
		return nil, fmt.Errorf("decode subjects of job %s: %w", job.JobID, err)
	}
	return job, nil
}
