package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goalcheck/goalcheck/internal/logutil"
)

const readBufferSize = 4096

// Progress is the state handed to OnUpdate.
type Progress[T any] struct {
	Status Status
	Items  []T
	Total  int
}

// Callbacks receive consumer notifications. All are optional. At most one of
// OnComplete and OnError fires per Consume call, and none fire once the
// context has been cancelled.
type Callbacks[T any] struct {
	OnStart    func()
	OnUpdate   func(Progress[T])
	OnChunk    func(chunk string)
	OnComplete func(items []T)
	OnError    func(err error)
}

// Result summarizes a Consume call. Items holds whatever was collected, even
// when the stream failed.
type Result[T any] struct {
	Items       []T
	Completed   bool
	Events      int
	Orphaned    []string
	StreamID    string
	ChecklistID string
}

// Option configures a Consumer.
type Option func(*settings)

type settings struct {
	parser   *Parser
	logger   *logutil.Logger
	observer func(Status)
}

// WithParser overrides the shared schema parser.
func WithParser(p *Parser) Option {
	return func(s *settings) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithLogger attaches a logger for malformed or dropped events.
func WithLogger(l *logutil.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver is called with the status of every dispatched event.
func WithObserver(fn func(Status)) Option {
	return func(s *settings) {
		s.observer = fn
	}
}

// Consumer folds one stream at a time into a Collection.
type Consumer[T any] struct {
	domain Domain[T]
	opts   settings
}

// NewConsumer builds a consumer for domain.
func NewConsumer[T any](domain Domain[T], opts ...Option) *Consumer[T] {
	s := settings{logger: logutil.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return &Consumer[T]{domain: domain, opts: s}
}

// Consume reads r until a terminal event, end of input, a read failure or
// cancellation of ctx. When r is an io.Closer it is closed on cancellation so
// a blocked read returns. A cancelled run returns ctx.Err() without invoking
// further callbacks.
func (c *Consumer[T]) Consume(ctx context.Context, r io.Reader, cb Callbacks[T]) (Result[T], error) {
	parser := c.opts.parser
	if parser == nil {
		var err error
		if parser, err = DefaultParser(); err != nil {
			return Result[T]{}, err
		}
	}
	if closer, ok := r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = closer.Close() })
		defer stop()
	}

	run := &run[T]{
		ctx:        ctx,
		cb:         cb,
		parser:     parser,
		domain:     c.domain,
		collection: NewCollection[T](c.domain),
		logger:     c.opts.logger,
		observer:   c.opts.observer,
	}

	var splitter LineSplitter
	buf := make([]byte, readBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return run.result(), err
		}
		n, readErr := r.Read(buf)
		if n > 0 {
			for _, line := range splitter.Feed(buf[:n]) {
				if done, err := run.line(line); done {
					return run.result(), err
				}
			}
		}
		if readErr == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return run.result(), err
		}
		if !errors.Is(readErr, io.EOF) {
			return run.result(), run.fail(fmt.Errorf("read stream: %w", readErr))
		}
		if line, ok := splitter.Flush(); ok {
			if done, err := run.line(line); done {
				return run.result(), err
			}
		}
		return run.result(), run.fail(ErrTruncated)
	}
}

type run[T any] struct {
	ctx        context.Context
	cb         Callbacks[T]
	parser     *Parser
	domain     Domain[T]
	collection *Collection[T]
	logger     *logutil.Logger
	observer   func(Status)

	total       int
	events      int
	completed   bool
	terminated  bool
	streamID    string
	checklistID string
}

// line handles one line and reports whether the stream is finished.
func (r *run[T]) line(line string) (bool, error) {
	if err := r.ctx.Err(); err != nil {
		return true, err
	}
	ev, kind := r.parser.ParseLine(line)
	switch kind {
	case LineSkip:
		return false, nil
	case LineDone:
		r.observe(StatusCompleted)
		return true, r.finish()
	case LineRaw:
		r.logger.Debug("stream_raw_chunk", logutil.Fields{"bytes": len(ev.Chunk)})
	}
	r.events++
	r.observe(ev.Status)
	if ev.StreamID != "" {
		r.streamID = ev.StreamID
	}
	return r.dispatch(ev)
}

func (r *run[T]) dispatch(ev Event) (bool, error) {
	switch ev.Status {
	case StatusStarted:
		r.collection.Reset()
		r.total = ev.Total
		if r.cb.OnStart != nil {
			r.cb.OnStart()
		}
		r.update(StatusStarted)
	case StatusGenerating:
		if ev.Total > 0 {
			r.total = ev.Total
		}
		if ev.Chunk != "" && r.cb.OnChunk != nil {
			r.cb.OnChunk(ev.Chunk)
		}
	case r.domain.Ready(), StatusItemReady, StatusQuestionReady:
		rec, err := r.domain.Decode(ev)
		if err != nil {
			r.logger.Warn("stream_record_undecodable", logutil.Fields{"status": string(ev.Status), "error": err.Error()})
			return false, nil
		}
		if !r.collection.Upsert(rec) {
			r.logger.Debug("stream_record_duplicate", logutil.Fields{"id": r.domain.ID(rec)})
			return false, nil
		}
		r.update(ev.Status)
	case StatusItemEnhanced:
		id, patch, err := r.domain.DecodeEnhancement(ev)
		if err != nil {
			r.logger.Warn("stream_enhancement_undecodable", logutil.Fields{"error": err.Error()})
			return false, nil
		}
		if !r.collection.Enhance(id, patch) {
			r.logger.Debug("stream_enhancement_parked", logutil.Fields{"id": id})
			return false, nil
		}
		r.update(StatusItemEnhanced)
	case StatusCompleted:
		for _, raw := range ev.Items {
			rec, err := r.domain.DecodeRecord(raw)
			if err != nil {
				r.logger.Warn("stream_final_record_undecodable", logutil.Fields{"error": err.Error()})
				continue
			}
			r.collection.Upsert(rec)
		}
		r.checklistID = ev.ChecklistID
		return true, r.finish()
	case StatusError:
		return true, r.fail(&EventError{Message: ev.Message})
	}
	return false, nil
}

func (r *run[T]) update(status Status) {
	if r.ctx.Err() != nil || r.cb.OnUpdate == nil {
		return
	}
	r.cb.OnUpdate(Progress[T]{Status: status, Items: r.collection.Items(), Total: r.total})
}

func (r *run[T]) finish() error {
	if r.terminated {
		return nil
	}
	r.terminated = true
	r.completed = true
	if orphaned := r.collection.Orphaned(); len(orphaned) > 0 {
		r.logger.Warn("stream_enhancements_orphaned", logutil.Fields{"ids": orphaned})
	}
	if r.ctx.Err() != nil {
		return r.ctx.Err()
	}
	if r.cb.OnComplete != nil {
		r.cb.OnComplete(r.collection.Items())
	}
	return nil
}

func (r *run[T]) fail(err error) error {
	if r.terminated {
		return err
	}
	r.terminated = true
	if r.ctx.Err() != nil {
		return r.ctx.Err()
	}
	if r.cb.OnError != nil {
		r.cb.OnError(err)
	}
	return err
}

func (r *run[T]) observe(status Status) {
	if r.observer != nil {
		r.observer(status)
	}
}

func (r *run[T]) result() Result[T] {
	return Result[T]{
		Items:       r.collection.Items(),
		Completed:   r.completed,
		Events:      r.events,
		Orphaned:    r.collection.Orphaned(),
		StreamID:    r.streamID,
		ChecklistID: r.checklistID,
	}
}
