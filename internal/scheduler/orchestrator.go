// Package scheduler queues the catalog's scrape jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/diamond/internal/batch"
	"github.com/fortuna/diamond/internal/config"
)

// Enqueuer queues jobs by name; batch.Service implements it.
type Enqueuer interface {
	EnqueueAll(ctx context.Context, names []string) ([]*batch.Job, error)
}

// Config holds scheduler configuration
type Config struct {
	// Spec is a standard five-field cron expression.
	Spec       string
	Jobs       []string
	Location   *time.Location
	RunOnStart bool
}

// DefaultConfig refreshes every default job daily at 6 AM.
func DefaultConfig() *Config {
	return &Config{
		Spec:     "0 6 * * *",
		Jobs:     append([]string(nil), config.DefaultJobs...),
		Location: time.Local,
	}
}

// Orchestrator owns the cron refresh.
type Orchestrator struct {
	queue    Enqueuer
	config   *Config
	cron     *cron.Cron
	schedule cron.Schedule
	loc      *time.Location
	log      logrus.FieldLogger

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// NewOrchestrator validates the schedule and registers the refresh.
func NewOrchestrator(queue Enqueuer, cfg *Config, log logrus.FieldLogger) (*Orchestrator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	schedule, err := cron.ParseStandard(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", cfg.Spec, err)
	}

	o := &Orchestrator{
		queue:    queue,
		config:   cfg,
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		loc:      loc,
		log:      log.WithField("component", "scheduler"),
	}
	o.cron.Schedule(schedule, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		o.TriggerRefresh(ctx)
	}))
	return o, nil
}

// Start runs the schedule until ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	o.log.Info("╔════════════════════════════════════════╗")
	o.log.Info("║   Diamond Refresh Scheduler            ║")
	o.log.Info("╚════════════════════════════════════════╝")
	o.log.Infof("Schedule: %s, jobs: %v", o.config.Spec, o.config.Jobs)

	o.cron.Start()
	o.log.Infof("→ Next refresh: %s", o.Next().Format("2006-01-02 15:04:05"))

	if o.config.RunOnStart {
		go o.TriggerRefresh(ctx)
	}

	<-ctx.Done()
	o.Stop()
}

// Stop halts the schedule and waits for a running refresh to finish.
func (o *Orchestrator) Stop() {
	<-o.cron.Stop().Done()
	o.log.Info("✓ Scheduler stopped")
}

// TriggerRefresh queues every configured job now. Jobs that fail to
// queue are logged; the rest are still queued.
func (o *Orchestrator) TriggerRefresh(ctx context.Context) []*batch.Job {
	jobs, err := o.queue.EnqueueAll(ctx, o.config.Jobs)

	o.mu.Lock()
	o.lastRun, o.lastErr = time.Now(), err
	o.mu.Unlock()

	if err != nil {
		o.log.WithError(err).Warn("⚠️ some refresh jobs were not queued")
	}
	o.log.Infof("✓ Queued %d refresh jobs", len(jobs))
	return jobs
}

// Next is the time of the next scheduled refresh.
func (o *Orchestrator) Next() time.Time {
	return o.schedule.Next(time.Now().In(o.loc))
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	status := map[string]interface{}{
		"schedule": o.config.Spec,
		"jobs":     o.config.Jobs,
		"next_run": o.Next(),
	}
	if !o.lastRun.IsZero() {
		status["last_run"] = o.lastRun
	}
	if o.lastErr != nil {
		status["last_error"] = o.lastErr.Error()
	}
	return status
}
