package worker

import (
	"context"
	"time"

	"github.com/goalcheck/goalcheck/internal/enrich"
	"github.com/goalcheck/goalcheck/internal/events"
	"github.com/goalcheck/goalcheck/internal/generator"
	"github.com/goalcheck/goalcheck/internal/locale"
	"github.com/goalcheck/goalcheck/internal/logutil"
	"github.com/goalcheck/goalcheck/internal/metrics"
	"github.com/goalcheck/goalcheck/internal/queue"
)

// JobSource is the consumer side of the enrichment queue.
type JobSource interface {
	EnsureGroup(ctx context.Context) error
	Next(ctx context.Context) (*queue.EnrichJob, string, error)
	Ack(ctx context.Context, id string) error
}

// Publisher emits results on the event bus.
type Publisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

// Options configure the enricher process.
type Options struct {
	Jobs      JobSource
	Events    Publisher
	Generator *generator.Generator
	Logger    *logutil.Logger
	Backoff   time.Duration
}

// Runner consumes enrichment jobs and publishes one event per job.
type Runner struct {
	jobs    JobSource
	events  Publisher
	gen     *generator.Generator
	logger  *logutil.Logger
	backoff time.Duration
}

// New creates a new Runner.
func New(opts Options) *Runner {
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logutil.Default()
	}
	if opts.Generator == nil {
		opts.Generator = generator.New()
	}
	return &Runner{
		jobs:    opts.Jobs,
		events:  opts.Events,
		gen:     opts.Generator,
		logger:  opts.Logger,
		backoff: backoff,
	}
}

// Run consumes jobs until ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.jobs.EnsureGroup(ctx); err != nil {
		return err
	}
	r.logger.Info("enricher_started", nil)

	for {
		if ctx.Err() != nil {
			r.logger.Info("enricher_stopped", nil)
			return ctx.Err()
		}
		job, id, err := r.jobs.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			r.logger.Error("enricher_next", err, logutil.Fields{"message_id": id})
			if id != "" {
				// Undecodable messages would be redelivered forever.
				_ = r.jobs.Ack(ctx, id)
				continue
			}
			select {
			case <-ctx.Done():
			case <-time.After(r.backoff):
			}
			continue
		}
		if job == nil {
			continue
		}
		if err := r.Handle(ctx, job); err != nil {
			r.logger.Error("enricher_job_failed", err, logutil.Fields{"job_id": job.JobID, "stream_id": job.StreamID})
		}
		if err := r.jobs.Ack(ctx, id); err != nil {
			r.logger.Error("enricher_ack", err, logutil.Fields{"message_id": id})
		}
	}
}

// Handle enriches one job and publishes the result.
func (r *Runner) Handle(ctx context.Context, job *queue.EnrichJob) error {
	start := time.Now()
	loc, ok := locale.Parse(job.Locale)
	if !ok {
		loc = locale.Default()
	}
	res := enrich.Result{ItemID: job.Item.ID, Enrichment: r.gen.Enrich(job.Goal, job.Item, loc)}
	evt, err := events.New(events.TypeItemEnriched, job.StreamID, res)
	if err != nil {
		metrics.ObserveEnrichJob("failed", time.Since(start))
		return err
	}
	if err := r.events.Publish(ctx, evt); err != nil {
		metrics.ObserveEnrichJob("failed", time.Since(start))
		return err
	}
	metrics.ObserveEnrichJob("completed", time.Since(start))
	r.logger.Debug("enricher_job_done", logutil.Fields{"job_id": job.JobID, "item_id": job.Item.ID})
	return nil
}
