package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveStreamAndEvents(t *testing.T) {
	before := testutil.ToFloat64(streamsTotal.WithLabelValues("checklist", "completed"))
	ObserveStream("checklist", "completed", 2*time.Second)
	if got := testutil.ToFloat64(streamsTotal.WithLabelValues("checklist", "completed")); got != before+1 {
		t.Fatalf("expected stream counter to grow by one, got %v -> %v", before, got)
	}

	ObserveEvent("questions", "question_ready")
	ObserveEvent("questions", "question_ready")
	if got := testutil.ToFloat64(streamEventsTotal.WithLabelValues("questions", "question_ready")); got < 2 {
		t.Fatalf("expected at least 2 events, got %v", got)
	}
}

func TestObserveEnrichJobDefaultsStatus(t *testing.T) {
	ObserveEnrichJob("", time.Millisecond)
	if got := testutil.ToFloat64(enrichTotal.WithLabelValues("unknown")); got < 1 {
		t.Fatalf("expected unknown status to be counted, got %v", got)
	}
}
