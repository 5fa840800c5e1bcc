// Package flow runs the goal to questions to checklist sequence on top of the
// client: it owns the active stream and applies the fallback policy.
package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/client"
	"github.com/goalcheck/goalcheck/internal/logutil"
	"github.com/goalcheck/goalcheck/internal/session"
	"github.com/goalcheck/goalcheck/internal/stream"
)

// API is the subset of the client the runner needs.
type API interface {
	StreamQuestions(ctx context.Context, req checklist.QuestionsRequest) (io.ReadCloser, error)
	Questions(ctx context.Context, req checklist.QuestionsRequest) ([]checklist.Question, error)
	StreamChecklist(ctx context.Context, req checklist.ChecklistRequest) (io.ReadCloser, error)
	Checklist(ctx context.Context, req checklist.ChecklistRequest) (*checklist.Checklist, error)
}

// ErrLoginRequired is returned by RequireSession when the goal was parked.
var ErrLoginRequired = fmt.Errorf("login required: %w", client.ErrNotLoggedIn)

// Runner owns at most one active stream. Starting a stream cancels the one
// before it.
type Runner struct {
	api      API
	sessions session.Store
	logger   *logutil.Logger
	observer func(stream.Status)

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger shared with the consumers.
func WithLogger(l *logutil.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver receives the status of every stream event.
func WithObserver(fn func(stream.Status)) Option {
	return func(r *Runner) { r.observer = fn }
}

// NewRunner builds a runner. sessions may be nil when no login gating is
// needed.
func NewRunner(api API, sessions session.Store, opts ...Option) *Runner {
	r := &Runner{api: api, sessions: sessions, logger: logutil.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Questions streams clarifying questions for goal.
func (r *Runner) Questions(ctx context.Context, req checklist.QuestionsRequest, cb stream.Callbacks[checklist.Question]) (stream.Result[checklist.Question], error) {
	ctx, done := r.begin(ctx)
	defer done()

	consumer := stream.NewConsumer[checklist.Question](checklist.QuestionDomain{}, r.consumerOptions()...)
	body, err := r.api.StreamQuestions(ctx, req)
	if err != nil {
		if !ShouldFallback(err) {
			return stream.Result[checklist.Question]{}, r.fail(ctx, err, cb.OnError)
		}
		r.logger.Info("stream_fallback", logutil.Fields{"kind": "questions", "error": err.Error()})
		questions, ferr := r.api.Questions(ctx, req)
		if ferr != nil {
			return stream.Result[checklist.Question]{}, r.fail(ctx, ferr, cb.OnError)
		}
		body = replay(questionEvents(questions), "")
	}
	defer body.Close()
	return consumer.Consume(ctx, body, cb)
}

// Checklist streams a checklist for req.
func (r *Runner) Checklist(ctx context.Context, req checklist.ChecklistRequest, cb stream.Callbacks[checklist.Item]) (stream.Result[checklist.Item], error) {
	ctx, done := r.begin(ctx)
	defer done()

	consumer := stream.NewConsumer[checklist.Item](checklist.ItemDomain{}, r.consumerOptions()...)
	body, err := r.api.StreamChecklist(ctx, req)
	if err != nil {
		if !ShouldFallback(err) {
			return stream.Result[checklist.Item]{}, r.fail(ctx, err, cb.OnError)
		}
		r.logger.Info("stream_fallback", logutil.Fields{"kind": "checklist", "error": err.Error()})
		list, ferr := r.api.Checklist(ctx, req)
		if ferr != nil {
			return stream.Result[checklist.Item]{}, r.fail(ctx, ferr, cb.OnError)
		}
		body = replay(itemEvents(list.Items), list.ID)
	}
	defer body.Close()
	return consumer.Consume(ctx, body, cb)
}

// Cancel stops the active stream, if any.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// RequireSession parks goal as pending and returns ErrLoginRequired when no
// session is stored.
func (r *Runner) RequireSession(ctx context.Context, goal string) error {
	if r.sessions == nil {
		return nil
	}
	_, err := r.sessions.Token(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, session.ErrNoSession) {
		return err
	}
	if err := r.sessions.SetPendingGoal(ctx, goal); err != nil {
		return fmt.Errorf("save pending goal: %w", err)
	}
	return ErrLoginRequired
}

// Resume returns the pending goal saved by RequireSession, consuming it.
func (r *Runner) Resume(ctx context.Context) (string, error) {
	if r.sessions == nil {
		return "", nil
	}
	return r.sessions.TakePendingGoal(ctx)
}

// ShouldFallback reports whether a failure to open a stream warrants one
// non-streaming attempt: transport failures, 404 and 5xx do; auth, payment
// and cancellation do not.
func ShouldFallback(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *client.TransportError
	if errors.As(err, &te) {
		return true
	}
	var se *client.StatusError
	if errors.As(err, &se) {
		return se.StatusCode == 404 || se.Server()
	}
	return false
}

func (r *Runner) begin(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.seq++
	id := r.seq
	r.cancel = cancel
	r.mu.Unlock()
	return ctx, func() {
		cancel()
		r.mu.Lock()
		if r.seq == id {
			r.cancel = nil
		}
		r.mu.Unlock()
	}
}

func (r *Runner) consumerOptions() []stream.Option {
	return []stream.Option{stream.WithLogger(r.logger), stream.WithObserver(r.observer)}
}

func (r *Runner) fail(ctx context.Context, err error, onError func(error)) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if onError != nil {
		onError(err)
	}
	return err
}

func questionEvents(questions []checklist.Question) []stream.Event {
	events := make([]stream.Event, 0, len(questions))
	for _, q := range questions {
		events = append(events, stream.Event{Status: stream.StatusQuestionReady, Question: mustJSON(q)})
	}
	return events
}

func itemEvents(items []checklist.Item) []stream.Event {
	events := make([]stream.Event, 0, len(items))
	for _, it := range items {
		events = append(events, stream.Event{Status: stream.StatusItemReady, Item: mustJSON(it)})
	}
	return events
}

// replay frames a complete result as a stream so the fallback goes through
// the same consumer as a live stream.
func replay(events []stream.Event, checklistID string) io.ReadCloser {
	var buf bytes.Buffer
	write := func(ev stream.Event) {
		line, err := ev.Encode()
		if err == nil {
			buf.Write(line)
		}
	}
	write(stream.Event{Status: stream.StatusStarted, Total: len(events)})
	for _, ev := range events {
		write(ev)
	}
	write(stream.Event{Status: stream.StatusCompleted, ChecklistID: checklistID})
	return io.NopCloser(&buf)
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
