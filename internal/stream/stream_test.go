package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
)

type testItem struct {
	ID    string `json:"item_id"`
	Title string `json:"title"`
	Order int    `json:"order"`
	Tip   string `json:"tip,omitempty"`
}

type testDomain struct{ replace bool }

func (testDomain) Ready() Status { return StatusItemReady }

func (d testDomain) Decode(ev Event) (testItem, error) { return d.DecodeRecord(ev.Item) }

func (testDomain) DecodeRecord(raw []byte) (testItem, error) {
	var it testItem
	if err := json.Unmarshal(raw, &it); err != nil {
		return testItem{}, err
	}
	if it.ID == "" {
		return testItem{}, errors.New("no id")
	}
	return it, nil
}

func (d testDomain) DecodeEnhancement(ev Event) (string, testItem, error) {
	it, err := d.DecodeRecord(ev.Item)
	return it.ID, it, err
}

func (testDomain) ID(it testItem) string { return it.ID }
func (testDomain) Order(it testItem) int { return it.Order }
func (d testDomain) Replace() bool       { return d.replace }

func (testDomain) Merge(it, patch testItem) testItem {
	if patch.Tip != "" {
		it.Tip = patch.Tip
	}
	return it
}

func newTestConsumer() *Consumer[testItem] {
	return NewConsumer[testItem](testDomain{replace: true})
}

type recorder struct {
	updates   []Progress[testItem]
	chunks    []string
	completes [][]testItem
	errs      []error
}

func (r *recorder) callbacks() Callbacks[testItem] {
	return Callbacks[testItem]{
		OnUpdate:   func(p Progress[testItem]) { r.updates = append(r.updates, p) },
		OnChunk:    func(c string) { r.chunks = append(r.chunks, c) },
		OnComplete: func(items []testItem) { r.completes = append(r.completes, items) },
		OnError:    func(err error) { r.errs = append(r.errs, err) },
	}
}

func ids(items []testItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

const exampleStream = `data: {"status":"started"}
data: {"status":"item_ready","item":{"item_id":"a","title":"Alpha","order":2}}
data: {"status":"item_ready","item":{"item_id":"b","title":"Beta","order":1}}
data: [DONE]
`

func TestConsumeExampleOrdersByOrderField(t *testing.T) {
	t.Parallel()

	var rec recorder
	res, err := newTestConsumer().Consume(context.Background(), strings.NewReader(exampleStream), rec.callbacks())
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(rec.completes) != 1 || len(rec.errs) != 0 {
		t.Fatalf("expected one completion and no errors, got %d/%d", len(rec.completes), len(rec.errs))
	}
	if diff := cmp.Diff([]string{"b", "a"}, ids(rec.completes[0])); diff != "" {
		t.Fatalf("final order mismatch (-want +got):\n%s", diff)
	}
	if !res.Completed || res.Events != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if rec.updates[0].Status != StatusStarted || len(rec.updates[0].Items) != 0 {
		t.Fatalf("first update should report started with 0 items, got %+v", rec.updates[0])
	}
}

const chunkedStream = "data: {\"status\":\"started\",\"total\":3}\r\n" +
	": keep-alive\n" +
	"\n" +
	"data: {\"status\":\"generating\",\"chunk\":\"Überprüfe Pässe ✈\"}\n" +
	"data: {\"status\":\"item_ready\",\"item\":{\"item_id\":\"x\",\"title\":\"Été à Zürich\",\"order\":2}}\n" +
	"data: not json at all, raw ünïcode\n" +
	"data: {\"status\":\"item_enhanced\",\"item\":{\"item_id\":\"x\",\"tip\":\"日本語\"}}\n" +
	"data: {\"status\":\"item_ready\",\"item\":{\"item_id\":\"y\",\"title\":\"Ясно\",\"order\":1}}\n" +
	"data: {\"status\":\"completed\",\"checklistId\":\"c1\"}\n"

type outcome struct {
	Chunks    []string
	Updates   [][]testItem
	Completes [][]testItem
	Errs      int
}

func consumeAll(t *testing.T, r io.Reader) outcome {
	t.Helper()
	var rec recorder
	if _, err := newTestConsumer().Consume(context.Background(), r, rec.callbacks()); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	out := outcome{Chunks: rec.chunks, Completes: rec.completes, Errs: len(rec.errs)}
	for _, u := range rec.updates {
		out.Updates = append(out.Updates, u.Items)
	}
	return out
}

type splitReader struct {
	parts [][]byte
}

func (s *splitReader) Read(p []byte) (int, error) {
	if len(s.parts) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.parts[0])
	s.parts[0] = s.parts[0][n:]
	if len(s.parts[0]) == 0 {
		s.parts = s.parts[1:]
	}
	return n, nil
}

func TestConsumeIsIndependentOfChunkBoundaries(t *testing.T) {
	t.Parallel()

	whole := consumeAll(t, strings.NewReader(chunkedStream))
	if len(whole.Completes) != 1 {
		t.Fatalf("expected one completion, got %d", len(whole.Completes))
	}
	if diff := cmp.Diff([]string{"Überprüfe Pässe ✈", "not json at all, raw ünïcode"}, whole.Chunks); diff != "" {
		t.Fatalf("chunks mismatch (-want +got):\n%s", diff)
	}
	if got := whole.Completes[0]; len(got) != 2 || got[1].Tip != "日本語" || got[0].ID != "y" {
		t.Fatalf("unexpected final items %+v", got)
	}

	oneByte := consumeAll(t, iotest.OneByteReader(strings.NewReader(chunkedStream)))
	if diff := cmp.Diff(whole, oneByte); diff != "" {
		t.Fatalf("one-byte reads diverge (-whole +oneByte):\n%s", diff)
	}

	data := []byte(chunkedStream)
	for i := 1; i < len(data); i++ {
		r := &splitReader{parts: [][]byte{append([]byte(nil), data[:i]...), append([]byte(nil), data[i:]...)}}
		got := consumeAll(t, r)
		if diff := cmp.Diff(whole, got); diff != "" {
			t.Fatalf("split at byte %d diverges (-whole +split):\n%s", i, diff)
		}
	}
}

func TestDuplicateItemReplacesInPlace(t *testing.T) {
	t.Parallel()

	input := `data: {"status":"item_ready","item":{"item_id":"a","title":"first","order":1}}
data: {"status":"item_ready","item":{"item_id":"b","title":"other","order":2}}
data: {"status":"item_ready","item":{"item_id":"a","title":"second","order":1}}
data: [DONE]
`
	res, err := newTestConsumer().Consume(context.Background(), strings.NewReader(input), Callbacks[testItem]{})
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	want := []testItem{{ID: "a", Title: "second", Order: 1}, {ID: "b", Title: "other", Order: 2}}
	if diff := cmp.Diff(want, res.Items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestDuplicateIgnoredWhenDomainKeepsFirst(t *testing.T) {
	t.Parallel()

	input := `data: {"status":"item_ready","item":{"item_id":"a","title":"first"}}
data: {"status":"item_ready","item":{"item_id":"a","title":"second"}}
data: [DONE]
`
	c := NewConsumer[testItem](testDomain{replace: false})
	res, err := c.Consume(context.Background(), strings.NewReader(input), Callbacks[testItem]{})
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Title != "first" {
		t.Fatalf("expected first copy kept, got %+v", res.Items)
	}
}

func TestEnhancementForUnknownIDIsParked(t *testing.T) {
	t.Parallel()

	input := `data: {"status":"item_enhanced","item":{"item_id":"late","tip":"parked"}}
data: {"status":"item_enhanced","item":{"item_id":"ghost","tip":"never"}}
data: {"status":"item_ready","item":{"item_id":"late","title":"Late","order":1}}
data: {"status":"completed"}
`
	var rec recorder
	res, err := newTestConsumer().Consume(context.Background(), strings.NewReader(input), rec.callbacks())
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	want := []testItem{{ID: "late", Title: "Late", Order: 1, Tip: "parked"}}
	if diff := cmp.Diff(want, res.Items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ghost"}, res.Orphaned); diff != "" {
		t.Fatalf("orphaned mismatch (-want +got):\n%s", diff)
	}
	if len(rec.completes) != 1 {
		t.Fatalf("expected one completion, got %d", len(rec.completes))
	}
}

func TestCompletedEventItemsAreMerged(t *testing.T) {
	t.Parallel()

	input := `data: {"status":"item_ready","item":{"item_id":"a","order":2}}
data: {"status":"completed","items":[{"item_id":"c","order":0},{"item_id":"a","title":"final","order":2}]}
`
	res, err := newTestConsumer().Consume(context.Background(), strings.NewReader(input), Callbacks[testItem]{})
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if diff := cmp.Diff([]string{"c", "a"}, ids(res.Items)); diff != "" || res.Items[1].Title != "final" {
		t.Fatalf("unexpected items %+v", res.Items)
	}
}

func TestAbruptEndReportsSingleError(t *testing.T) {
	t.Parallel()

	input := `data: {"status":"started"}
data: {"status":"item_ready","item":{"item_id":"a","order":1}}
data: {"status":"item_re`
	var rec recorder
	res, err := newTestConsumer().Consume(context.Background(), strings.NewReader(input), rec.callbacks())
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if len(rec.errs) != 1 || len(rec.completes) != 0 {
		t.Fatalf("expected exactly one error callback, got errs=%d completes=%d", len(rec.errs), len(rec.completes))
	}
	if len(res.Items) != 1 || res.Completed {
		t.Fatalf("partial items should be preserved, got %+v", res)
	}
}

func TestErrorEventStopsReading(t *testing.T) {
	t.Parallel()

	input := `data: {"status":"error","message":"quota exceeded"}
data: {"status":"completed"}
`
	var rec recorder
	_, err := newTestConsumer().Consume(context.Background(), strings.NewReader(input), rec.callbacks())
	var evErr *EventError
	if !errors.As(err, &evErr) || evErr.Message != "quota exceeded" {
		t.Fatalf("expected EventError, got %v", err)
	}
	if len(rec.errs) != 1 || len(rec.completes) != 0 {
		t.Fatalf("expected one error callback, got errs=%d completes=%d", len(rec.errs), len(rec.completes))
	}
}

func TestReadFailureReportsSingleError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader("data: {\"status\":\"started\"}\n"), iotest.ErrReader(boom))
	var rec recorder
	_, err := newTestConsumer().Consume(context.Background(), r, rec.callbacks())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
	if len(rec.errs) != 1 || len(rec.completes) != 0 {
		t.Fatalf("expected one error callback, got errs=%d completes=%d", len(rec.errs), len(rec.completes))
	}
}

type blockingBody struct {
	first  []byte
	closed chan struct{}
}

func (b *blockingBody) Read(p []byte) (int, error) {
	if len(b.first) > 0 {
		n := copy(p, b.first)
		b.first = b.first[n:]
		return n, nil
	}
	<-b.closed
	return 0, errors.New("read on closed body")
}

func (b *blockingBody) Close() error {
	select {
	case <-b.closed:
	default:
		close(b.closed)
	}
	return nil
}

func TestCancelAfterFirstEventSuppressesCallbacks(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	body := &blockingBody{
		first:  []byte("data: {\"status\":\"item_ready\",\"item\":{\"item_id\":\"a\"}}\ndata: {\"status\":\"item_ready\",\"item\":{\"item_id\":\"b\"}}\n"),
		closed: make(chan struct{}),
	}
	calls := 0
	cb := Callbacks[testItem]{
		OnUpdate: func(Progress[testItem]) {
			calls++
			cancel()
		},
		OnComplete: func([]testItem) { calls++ },
		OnError:    func(error) { calls++ },
	}
	_, err := newTestConsumer().Consume(ctx, body, cb)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one callback before cancellation, got %d", calls)
	}
}

func TestCancelUnblocksPendingRead(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	body := &blockingBody{first: []byte("data: {\"status\":\"started\"}\n"), closed: make(chan struct{})}
	started := make(chan struct{})
	var rec recorder
	cb := rec.callbacks()
	cb.OnStart = func() { close(started) }
	done := make(chan error, 1)
	go func() {
		_, err := newTestConsumer().Consume(ctx, body, cb)
		done <- err
	}()
	<-started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(rec.errs) != 0 || len(rec.completes) != 0 {
		t.Fatalf("no terminal callbacks expected after cancel, got errs=%d completes=%d", len(rec.errs), len(rec.completes))
	}
}

func TestObserverSeesEveryStatus(t *testing.T) {
	t.Parallel()

	var seen []Status
	c := NewConsumer[testItem](testDomain{replace: true}, WithObserver(func(s Status) { seen = append(seen, s) }))
	if _, err := c.Consume(context.Background(), strings.NewReader(exampleStream), Callbacks[testItem]{}); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	want := []Status{StatusStarted, StatusItemReady, StatusItemReady, StatusCompleted}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeRoundTripsThroughParser(t *testing.T) {
	t.Parallel()

	p, err := DefaultParser()
	if err != nil {
		t.Fatalf("DefaultParser: %v", err)
	}
	line, err := Event{Status: StatusItemReady, Item: json.RawMessage(`{"item_id":"a"}`)}.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	ev, kind := p.ParseLine(strings.TrimSuffix(string(line), "\n"))
	if kind != LineEvent || ev.Status != StatusItemReady {
		t.Fatalf("unexpected parse kind=%v ev=%+v", kind, ev)
	}
	if _, kind := p.ParseLine(strings.TrimSuffix(string(EncodeDone()), "\n")); kind != LineDone {
		t.Fatalf("expected done, got %v", kind)
	}
}

func TestParseLineClassification(t *testing.T) {
	t.Parallel()

	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	cases := []struct {
		line string
		kind LineKind
	}{
		{"", LineSkip},
		{"   ", LineSkip},
		{": ping", LineSkip},
		{"event: message", LineSkip},
		{"id: 42", LineSkip},
		{"retry: 3000", LineSkip},
		{"identity: not a framing field", LineRaw},
		{"eventually the plan converges", LineRaw},
		{"data: [DONE]", LineDone},
		{`data: {"status":"started"}`, LineEvent},
		{`data:{"status":"completed"}`, LineEvent},
		{`data: {"status":"bogus"}`, LineRaw},
		{`data: {"status":"item_ready"}`, LineRaw},
		{`data: {"status":`, LineRaw},
		{"data: hello", LineRaw},
		{"plain text", LineRaw},
	}
	for _, tc := range cases {
		_, kind := p.ParseLine(tc.line)
		if kind != tc.kind {
			t.Errorf("ParseLine(%q) = %v, want %v", tc.line, kind, tc.kind)
		}
	}
}

func TestLineSplitterCarriesPartialUTF8(t *testing.T) {
	t.Parallel()

	var s LineSplitter
	full := []byte("héllo\nwörld")
	var lines []string
	for _, b := range full {
		lines = append(lines, s.Feed([]byte{b})...)
	}
	if diff := cmp.Diff([]string{"héllo"}, lines); diff != "" {
		t.Fatalf("lines mismatch:\n%s", diff)
	}
	if s.Pending() != len("wörld") {
		t.Fatalf("expected pending %d, got %d", len("wörld"), s.Pending())
	}
	rest, ok := s.Flush()
	if !ok || rest != "wörld" {
		t.Fatalf("Flush = %q, %v", rest, ok)
	}
	if _, ok := s.Flush(); ok {
		t.Fatalf("second flush should be empty")
	}
	if got := s.Feed([]byte{0xff, '\n'}); len(got) != 1 || got[0] != "�" {
		t.Fatalf("invalid byte not replaced: %q", got)
	}
}

func ExampleConsumer_Consume() {
	c := NewConsumer[testItem](testDomain{replace: true})
	res, _ := c.Consume(context.Background(), strings.NewReader(exampleStream), Callbacks[testItem]{})
	fmt.Println(ids(res.Items))
	// Output: [b a]
}
