package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/diamond/internal/ingest"
	"github.com/fortuna/diamond/internal/metrics"
	"github.com/fortuna/diamond/internal/publisher"
	"github.com/fortuna/diamond/internal/sink"
)

// RunnerOptions wires a Runner. Sink, CSV and Publisher are optional;
// a nil one is skipped.
type RunnerOptions struct {
	Registry  *Registry
	Sink      *sink.Sink
	CSV       *sink.CSVWriter
	Publisher publisher.Publisher
	// Delay is the pause between two subjects.
	Delay time.Duration
	// OnOutput sees every non-empty output, e.g. to print it.
	OnOutput func(subject ingest.Subject, out ingest.Output)
	Log      logrus.FieldLogger
}

// Runner executes scrape specs.
type Runner struct {
	registry *Registry
	sink     *sink.Sink
	csv      *sink.CSVWriter
	pub      publisher.Publisher
	delay    time.Duration
	onOutput func(ingest.Subject, ingest.Output)
	log      logrus.FieldLogger
}

// NewRunner constructs a runner.
func NewRunner(opts RunnerOptions) *Runner {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{
		registry: opts.Registry,
		sink:     opts.Sink,
		csv:      opts.CSV,
		pub:      opts.Publisher,
		delay:    opts.Delay,
		onOutput: opts.OnOutput,
		log:      log.WithField("component", "batch"),
	}
}

// Registry is the job registry the runner dispatches to.
func (r *Runner) Registry() *Registry { return r.registry }

// Run scrapes every subject of spec in order. A subject whose scrape
// fails is logged and counted as skipped; only cancellation and an
// unknown job stop the run.
func (r *Runner) Run(ctx context.Context, spec Spec, reporter Reporter) (Summary, error) {
	var summary Summary

	def, err := r.registry.Lookup(spec.Job)
	if err != nil {
		if reporter != nil {
			reporter.OnJobError(err)
		}
		return summary, err
	}

	metrics.ActiveJobs.Inc()
	defer metrics.ActiveJobs.Dec()

	if reporter != nil {
		reporter.OnJobStart(spec)
	}
	log := r.log.WithField("job", spec.Job)
	log.Infof("[batch] 🚀 %s: %d subjects", spec.Job, len(spec.Subjects))

	total := len(spec.Subjects)
	for idx, subject := range spec.Subjects {
		if idx > 0 && r.delay > 0 {
			if err := sleep(ctx, r.delay); err != nil {
				return r.cancelled(summary, reporter, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return r.cancelled(summary, reporter, err)
		}

		if reporter != nil {
			reporter.OnSubjectStart(subject, idx, total)
		}
		res, err := r.runSubject(ctx, def, spec, subject)
		if err != nil && ctx.Err() != nil {
			return r.cancelled(summary, reporter, ctx.Err())
		}
		summary.add(res)
		if reporter != nil {
			reporter.OnSubjectDone(subject, res, idx, total)
		}
	}

	log.Infof("[batch] ✓ Done: %d subjects (%d skipped), %d records, %d inserted, %d failed",
		summary.Subjects, summary.Skipped, summary.Records, summary.Inserted, summary.Failed)
	if reporter != nil {
		reporter.OnJobComplete(summary)
	}
	return summary, nil
}

func (r *Runner) runSubject(ctx context.Context, def Definition, spec Spec, subject ingest.Subject) (SubjectResult, error) {
	var res SubjectResult
	log := r.log.WithFields(logrus.Fields{"job": def.Name, "subject": subject.String()})

	started := time.Now()
	outs, err := def.Scrape(ctx, subject)
	metrics.ObserveSubject(def.Name, started)
	if err != nil {
		log.WithError(err).Errorf("[batch] ❌ scrape failed")
		res.Skipped = true
		return res, err
	}

	tables := map[string]int{}
	for _, out := range outs {
		if out.Empty() {
			continue
		}
		res.Outputs++
		res.Records += len(out.Records)
		tables[out.Table] += len(out.Records)
		if r.onOutput != nil {
			r.onOutput(subject, out)
		}
		if spec.DryRun || r.csv == nil {
			continue
		}
		path, err := r.csv.Write(subject.Name, out)
		if err != nil {
			log.WithError(err).Warnf("[batch] ⚠️ writing %s csv", out.Category)
			continue
		}
		res.CSVFiles = append(res.CSVFiles, path)
	}
	if res.Records == 0 {
		log.Warn("[batch] ⚠️ nothing extracted, skipped")
		res.Skipped = true
		return res, nil
	}
	if spec.DryRun {
		log.Infof("[batch] dry run: %d records not written", res.Records)
		return res, nil
	}

	if r.sink != nil {
		written, err := r.sink.Persist(ctx, outs)
		if err != nil {
			log.WithError(err).Error("[batch] ❌ persisting records")
		}
		res.Inserted, res.Failed = written.Inserted, written.Failed
	}

	if r.pub != nil {
		ev := publisher.ScrapeEvent{
			JobID:    spec.JobID,
			Job:      def.Name,
			Subject:  subject.Name,
			Tables:   tables,
			Inserted: res.Inserted,
			Failed:   res.Failed,
		}
		if err := r.pub.PublishScrape(ctx, ev); err != nil {
			log.WithError(err).Warn("[batch] ⚠️ publishing scrape event")
		}
	}

	log.Infof("[batch] ✓ %d records, %d inserted, %d failed", res.Records, res.Inserted, res.Failed)
	return res, nil
}

func (r *Runner) cancelled(summary Summary, reporter Reporter, err error) (Summary, error) {
	err = fmt.Errorf("job cancelled after %d subjects: %w", summary.Subjects, err)
	r.log.WithError(err).Warn("[batch] ⚠️ stopping")
	if reporter != nil {
		reporter.OnJobError(err)
	}
	return summary, err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
