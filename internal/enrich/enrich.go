// Package enrich delivers per-item enrichments for a generation stream,
// either computed in process or through the Redis job queue and event bus.
package enrich

import (
	"context"
	"time"

	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/events"
	"github.com/goalcheck/goalcheck/internal/generator"
	"github.com/goalcheck/goalcheck/internal/locale"
	"github.com/goalcheck/goalcheck/internal/logutil"
	"github.com/goalcheck/goalcheck/internal/queue"
)

// Request lists the items of one stream that need enrichment.
type Request struct {
	StreamID string
	Goal     string
	Locale   locale.Locale
	Items    []checklist.Item
}

// Result is one enrichment. It is also the payload of item.enriched events.
type Result struct {
	ItemID     string               `json:"itemId"`
	Enrichment checklist.Enrichment `json:"enrichment"`
}

// Source produces enrichments. The returned channel is closed when every
// item was delivered, the source gave up, or ctx ended.
type Source interface {
	Enrich(ctx context.Context, req Request) (<-chan Result, error)
}

// Inline computes enrichments in process, spaced by delay.
type Inline struct {
	gen   *generator.Generator
	delay time.Duration
}

// NewInline returns an in-process source.
func NewInline(gen *generator.Generator, delay time.Duration) *Inline {
	if gen == nil {
		gen = generator.New()
	}
	return &Inline{gen: gen, delay: delay}
}

// Enrich implements Source. Items are enriched in reverse order.
func (s *Inline) Enrich(ctx context.Context, req Request) (<-chan Result, error) {
	out := make(chan Result, len(req.Items))
	go func() {
		defer close(out)
		for i := len(req.Items) - 1; i >= 0; i-- {
			if !sleep(ctx, s.delay) {
				return
			}
			it := req.Items[i]
			select {
			case out <- Result{ItemID: it.ID, Enrichment: s.gen.Enrich(req.Goal, it, req.Locale)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Enqueuer pushes jobs to the enricher.
type Enqueuer interface {
	Enqueue(ctx context.Context, job queue.EnrichJob) (string, error)
}

// Subscriber delivers bus events.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan events.Event, func(), error)
}

// Queued hands items to the enricher process and forwards the results it
// publishes for the same stream.
type Queued struct {
	jobs    Enqueuer
	bus     Subscriber
	timeout time.Duration
	logger  *logutil.Logger
}

// NewQueued returns a queue-backed source. timeout bounds how long the
// stream waits for all results.
func NewQueued(jobs Enqueuer, bus Subscriber, timeout time.Duration, logger *logutil.Logger) *Queued {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logutil.Discard()
	}
	return &Queued{jobs: jobs, bus: bus, timeout: timeout, logger: logger}
}

// Enrich implements Source.
func (s *Queued) Enrich(ctx context.Context, req Request) (<-chan Result, error) {
	// Subscribe before enqueueing so no result is published unseen.
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	feed, unsubscribe, err := s.bus.Subscribe(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	for _, it := range req.Items {
		job := queue.EnrichJob{StreamID: req.StreamID, Goal: req.Goal, Locale: req.Locale.String(), Item: it}
		if _, err := s.jobs.Enqueue(ctx, job); err != nil {
			unsubscribe()
			cancel()
			return nil, err
		}
	}

	out := make(chan Result, len(req.Items))
	go func() {
		defer close(out)
		defer cancel()
		defer unsubscribe()

		want := make(map[string]bool, len(req.Items))
		for _, it := range req.Items {
			want[it.ID] = true
		}
		for len(want) > 0 {
			select {
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					s.logger.Warn("enrich_timeout", logutil.Fields{"stream_id": req.StreamID, "missing": len(want)})
				}
				return
			case evt, ok := <-feed:
				if !ok {
					return
				}
				if evt.StreamID != req.StreamID {
					continue
				}
				var res Result
				if err := evt.Decode(&res); err != nil {
					s.logger.Warn("enrich_bad_event", logutil.Fields{"id": evt.ID, "error": err.Error()})
					continue
				}
				if !want[res.ItemID] {
					continue
				}
				delete(want, res.ItemID)
				if evt.Type != events.TypeItemEnriched {
					continue
				}
				select {
				case out <- res:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
