package batch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/diamond/internal/config"
	"github.com/fortuna/diamond/internal/ingest"
	"github.com/fortuna/diamond/internal/store"
)

// Request represents a scrape invocation request.
type Request struct {
	Job string `json:"job"`
	// Subjects narrows the job's catalog subjects by id, name or team.
	Subjects []string `json:"subjects,omitempty"`
	DryRun   bool     `json:"dry_run,omitempty"`
}

// ServiceOptions wires a Service.
type ServiceOptions struct {
	Runner   *Runner
	Registry *Registry
	Catalog  config.Catalog
	// Notifier, when set, receives every progress update.
	Notifier     Notifier
	PollInterval time.Duration
	Log          logrus.FieldLogger
}

// Service coordinates job persistence, execution, and status reporting.
type Service struct {
	repo     *Repository
	runner   *Runner
	registry *Registry
	catalog  config.Catalog
	notifier Notifier

	historyLimit int
	poll         time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log logrus.FieldLogger
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(db *store.Database, opts ServiceOptions) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = 3 * time.Second
	}

	return &Service{
		repo:         NewRepository(db),
		runner:       opts.Runner,
		registry:     opts.Registry,
		catalog:      opts.Catalog,
		notifier:     opts.Notifier,
		historyLimit: 10,
		poll:         poll,
		ctx:          ctx,
		cancel:       cancel,
		log:          log.WithField("component", "batch"),
	}
}

// Repository exposes the job store.
func (s *Service) Repository() *Repository {
	return s.repo
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if n, err := s.repo.ResetStuckJobs(s.ctx); err != nil {
		s.log.WithError(err).Error("[batch] ❌ failed to reset jobs")
	} else if n > 0 {
		s.log.Warnf("[batch] ⚠️ requeued %d interrupted jobs", n)
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops the worker and waits for the running job to stop.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue resolves the request's subjects and queues a job.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	def, subjects, err := s.registry.Select(req.Job, s.catalog, req.Subjects)
	if err != nil {
		return nil, err
	}

	message := "Queued"
	if req.DryRun {
		message = "Queued (dry run)"
	}
	job := &Job{
		JobName:       def.Name,
		Subjects:      subjects,
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: message, Valid: true},
		ProgressTotal: len(subjects),
		DryRun:        req.DryRun,
	}

	stored, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}

	_ = s.repo.AppendEvent(ctx, stored.JobID, "queued", message, nil, nil)
	s.notify(stored, message, 0)

	return stored, nil
}

// EnqueueAll queues one job per name, skipping the ones that fail to
// resolve.
func (s *Service) EnqueueAll(ctx context.Context, names []string) ([]*Job, error) {
	var jobs []*Job
	var errs []error
	for _, name := range names {
		job, err := s.Enqueue(ctx, Request{Job: name})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, errors.Join(errs...)
}

// GetJob returns one job with its event log, or nil when it does not exist.
func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, []Event, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil || job == nil {
		return nil, nil, err
	}
	events, err := s.repo.ListEvents(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	return job, events, nil
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		ran, err := s.ProcessNext(s.ctx)
		if err != nil && s.ctx.Err() == nil {
			s.log.WithError(err).Error("[batch] ❌ claim job error")
		}
		if ran {
			continue
		}
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ProcessNext claims and runs one queued job. It reports whether a job
// was run.
func (s *Service) ProcessNext(ctx context.Context) (bool, error) {
	job, err := s.repo.MarkNextJobRunning(ctx)
	if err != nil || job == nil {
		return false, err
	}
	s.executeJob(ctx, job)
	return true, nil
}

func (s *Service) executeJob(ctx context.Context, job *Job) {
	log := s.log.WithFields(logrus.Fields{"job": job.JobName, "job_id": job.JobID})
	spec := Spec{
		JobID:    job.JobID,
		Job:      job.JobName,
		Subjects: job.Subjects,
		DryRun:   job.DryRun,
	}

	reporter := &jobReporter{ctx: ctx, svc: s, job: job.Copy()}
	job.Status = JobStatusRunning

	summary, err := s.runner.Run(ctx, spec, reporter)
	// The run context may be cancelled; the final status still has to land.
	final := context.WithoutCancel(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		log.WithError(err).Warn("[batch] ⚠️ job cancelled")
		_ = s.repo.UpdateStatus(final, job.JobID, JobStatusCancelled, "Job cancelled", err)
		reporter.job.Status = JobStatusCancelled
		s.notify(reporter.job, "Job cancelled", reporter.current)
	case err != nil:
		log.WithError(err).Error("[batch] ❌ job failed")
		_ = s.repo.UpdateStatus(final, job.JobID, JobStatusFailed, "Job failed", err)
		reporter.job.Status = JobStatusFailed
		s.notify(reporter.job, "Job failed", reporter.current)
	default:
		message := fmt.Sprintf("Done: %d subjects (%d skipped), %d inserted, %d failed",
			summary.Subjects, summary.Skipped, summary.Inserted, summary.Failed)
		_ = s.repo.UpdateStatus(final, job.JobID, JobStatusCompleted, message, nil)
		reporter.job.Status = JobStatusCompleted
		s.notify(reporter.job, message, summary.Subjects)
	}
}

func (s *Service) notify(job *Job, message string, current int) {
	if s.notifier == nil || job == nil {
		return
	}
	s.notifier.Notify(Progress{
		JobID:    job.JobID,
		Job:      job.JobName,
		Status:   job.Status,
		Message:  message,
		Current:  current,
		Total:    job.ProgressTotal,
		Inserted: job.RecordsInserted,
		Failed:   job.RecordsFailed,
		At:       time.Now().UTC(),
	})
}

// jobReporter mirrors runner callbacks into the job row, its event log
// and the notifier.
type jobReporter struct {
	ctx     context.Context
	svc     *Service
	job     *Job
	current int
}

func (r *jobReporter) OnJobStart(spec Spec) {
	r.job.Status = JobStatusRunning
	r.progress(0, "Job starting")
}

func (r *jobReporter) OnSubjectStart(subject ingest.Subject, index int, total int) {
	r.progress(index, fmt.Sprintf("Scraping %s (%d/%d)", subject.Name, index+1, total))
}

func (r *jobReporter) OnSubjectDone(subject ingest.Subject, res SubjectResult, index int, total int) {
	r.job.RecordsInserted += res.Inserted
	r.job.RecordsFailed += res.Failed
	_ = r.svc.repo.UpdateCounts(r.ctx, r.job.JobID, r.job.RecordsInserted, r.job.RecordsFailed)

	msg := fmt.Sprintf("✓ %s: %d records, %d inserted, %d failed", subject.Name, res.Records, res.Inserted, res.Failed)
	if res.Skipped {
		msg = fmt.Sprintf("⚠️ %s skipped", subject.Name)
	}
	cur := index + 1
	_ = r.svc.repo.AppendEvent(r.ctx, r.job.JobID, "subject", msg, &cur, &total)
	r.progress(cur, msg)
}

func (r *jobReporter) OnJobComplete(summary Summary) {
	r.progress(r.job.ProgressTotal, "Job complete")
}

func (r *jobReporter) OnJobError(err error) {
	_ = r.svc.repo.AppendEvent(context.WithoutCancel(r.ctx), r.job.JobID, "error", err.Error(), nil, nil)
}

func (r *jobReporter) progress(current int, message string) {
	r.current = current
	_ = r.svc.repo.UpdateProgress(r.ctx, r.job.JobID, current, r.job.ProgressTotal, message)
	r.svc.notify(r.job, message, current)
}
