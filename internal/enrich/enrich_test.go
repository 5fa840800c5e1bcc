package enrich

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/events"
	"github.com/goalcheck/goalcheck/internal/locale"
	"github.com/goalcheck/goalcheck/internal/queue"
)

var items = []checklist.Item{
	{ID: "a", Title: "A", Order: 1},
	{ID: "b", Title: "B", Order: 2},
	{ID: "c", Title: "C", Order: 3},
}

func collect(ch <-chan Result) []Result {
	var out []Result
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestInlineEnrichesEveryItem(t *testing.T) {
	t.Parallel()

	ch, err := NewInline(nil, 0).Enrich(context.Background(), Request{StreamID: "s", Goal: "g", Locale: locale.Default(), Items: items})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	got := collect(ch)
	if len(got) != 3 || got[0].ItemID != "c" || got[2].ItemID != "a" {
		t.Fatalf("unexpected results %+v", got)
	}
	if got[0].Enrichment.Price == nil {
		t.Fatalf("third item should carry a price: %+v", got[0])
	}
}

func TestInlineStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := NewInline(nil, time.Hour).Enrich(ctx, Request{Items: items, Locale: locale.Default()})
	cancel()
	if got := collect(ch); len(got) != 0 {
		t.Fatalf("expected no results after cancel, got %+v", got)
	}
}

// loopback simulates the enricher: every enqueued job is answered on the bus.
type loopback struct {
	bus  *events.Bus
	skip string
	mu   sync.Mutex
	jobs []queue.EnrichJob
	fail error
}

func (l *loopback) Enqueue(ctx context.Context, job queue.EnrichJob) (string, error) {
	if l.fail != nil {
		return "", l.fail
	}
	l.mu.Lock()
	l.jobs = append(l.jobs, job)
	l.mu.Unlock()
	if job.Item.ID == l.skip {
		return "j", nil
	}
	other, _ := events.New(events.TypeItemEnriched, "other-stream", Result{ItemID: job.Item.ID})
	_ = l.bus.Publish(ctx, other)
	evt, _ := events.New(events.TypeItemEnriched, job.StreamID, Result{ItemID: job.Item.ID, Enrichment: checklist.Enrichment{Tips: []string{job.Item.Title}}})
	return "j", l.bus.Publish(ctx, evt)
}

func TestQueuedForwardsResultsForStream(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(events.Options{})
	lb := &loopback{bus: bus}
	ch, err := NewQueued(lb, bus, time.Second, nil).Enrich(context.Background(), Request{StreamID: "s1", Goal: "g", Locale: locale.Default(), Items: items})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	got := collect(ch)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %+v", got)
	}
	for _, r := range got {
		if len(r.Enrichment.Tips) != 1 {
			t.Fatalf("result from another stream leaked: %+v", r)
		}
	}
	if len(lb.jobs) != 3 || lb.jobs[0].Locale != "en-US" {
		t.Fatalf("unexpected jobs %+v", lb.jobs)
	}
}

func TestQueuedTimesOutOnMissingResult(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(events.Options{})
	lb := &loopback{bus: bus, skip: "b"}
	start := time.Now()
	ch, err := NewQueued(lb, bus, 100*time.Millisecond, nil).Enrich(context.Background(), Request{StreamID: "s2", Items: items, Locale: locale.Default()})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if got := collect(ch); len(got) != 2 {
		t.Fatalf("expected 2 results before timeout, got %+v", got)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout not honoured")
	}
}

func TestQueuedEnqueueFailure(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(events.Options{})
	boom := errors.New("redis down")
	if _, err := NewQueued(&loopback{bus: bus, fail: boom}, bus, time.Second, nil).Enrich(context.Background(), Request{Items: items}); !errors.Is(err, boom) {
		t.Fatalf("expected enqueue error, got %v", err)
	}
}
