package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goalcheck/goalcheck/internal/metrics"
	"github.com/goalcheck/goalcheck/internal/stream"
)

// eventWriter frames events as `data:` lines and flushes each one.
type eventWriter struct {
	c     *gin.Context
	kind  string
	delay time.Duration
	start time.Time
}

func openStream(c *gin.Context, kind string, delay time.Duration) *eventWriter {
	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream; charset=utf-8")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()
	return &eventWriter{c: c, kind: kind, delay: delay, start: time.Now()}
}

func (w *eventWriter) send(ev stream.Event) error {
	line, err := ev.Encode()
	if err != nil {
		return err
	}
	if _, err := w.c.Writer.Write(line); err != nil {
		return err
	}
	w.c.Writer.Flush()
	metrics.ObserveEvent(w.kind, string(ev.Status))
	return nil
}

func (w *eventWriter) done() error {
	if _, err := w.c.Writer.Write(stream.EncodeDone()); err != nil {
		return err
	}
	w.c.Writer.Flush()
	return nil
}

// fail emits a terminal error event. Nothing follows it.
func (w *eventWriter) fail(msg string) {
	_ = w.send(stream.Event{Status: stream.StatusError, Message: msg})
	w.finish("error")
}

func (w *eventWriter) finish(outcome string) {
	metrics.ObserveStream(w.kind, outcome, time.Since(w.start))
}

// pause waits between events. It reports false when the client went away.
func (w *eventWriter) pause(ctx context.Context) bool {
	if w.delay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(w.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func raw(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
