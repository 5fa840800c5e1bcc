package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"

	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/locale"
	"github.com/goalcheck/goalcheck/internal/stream"
)

func items() []checklist.Item {
	return []checklist.Item{
		{ID: "a", Title: "Pick a course", Order: 1},
		{ID: "b", Title: "Buy gear", Order: 2, Enrichment: &checklist.Enrichment{
			Tips:  []string{"Rent first"},
			Price: &checklist.Price{Amount: 75, Currency: "EUR"},
		}},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return model, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestProgressAndCompletion(t *testing.T) {
	t.Parallel()

	m := New(Options{Goal: "learn to sail", Footer: "[footer ad placeholder]"})
	m, _ = update(t, m, startedMsg{})
	m, _ = update(t, m, chunkMsg("Thinking about sailing"))
	m, cmd := update(t, m, progressMsg{Status: stream.StatusItemReady, Items: items()[:1], Total: 2})
	if isQuit(cmd) {
		t.Fatal("progress should not quit")
	}
	view := m.View()
	for _, want := range []string{"learn to sail", "Thinking about sailing", "1/2", "Pick a course", "q: cancel", "Sponsored"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}

	m, cmd = update(t, m, doneMsg(items()))
	if !isQuit(cmd) || !m.Done() {
		t.Fatal("completion should quit")
	}
	view = m.View()
	for _, want := range []string{"Buy gear", "Rent first", "75.00 EUR", "Checklist ready: 2 items"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "q: cancel") {
		t.Fatal("cancel hint shown after completion")
	}
}

func TestQuitCancelsStream(t *testing.T) {
	t.Parallel()

	cancelled := 0
	m := New(Options{Goal: "g", Cancel: func() { cancelled++ }})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !isQuit(cmd) || !m.Cancelled() || cancelled != 1 {
		t.Fatalf("q should cancel: quit=%v cancelled=%v calls=%d", isQuit(cmd), m.Cancelled(), cancelled)
	}

	m = New(Options{Goal: "g", Cancel: func() { cancelled++ }})
	m, _ = update(t, m, doneMsg(items()))
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if !isQuit(cmd) || cancelled != 1 {
		t.Fatal("ctrl+c after completion must not cancel")
	}
}

func TestErrorBannerAndLocalizedTitle(t *testing.T) {
	t.Parallel()

	m := New(Options{Goal: "segeln", Locale: locale.Locale{Tag: language.German, Region: "DE"}})
	m, cmd := update(t, m, errMsg{err: errors.New("boom")})
	if !isQuit(cmd) || m.Err() == nil {
		t.Fatal("error should quit")
	}
	view := m.View()
	if !strings.Contains(view, "Erstelle Checkliste") || !strings.Contains(view, "Stream fehlgeschlagen: boom") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestThemes(t *testing.T) {
	t.Parallel()

	if ThemeFor("light").Name != "light" || ThemeFor("").Name != "dark" || ThemeFor("neon").Name != "dark" {
		t.Fatal("unexpected theme selection")
	}
}

func TestCallbacksSendMessages(t *testing.T) {
	t.Parallel()

	var got []tea.Msg
	cb := Callbacks(func(msg tea.Msg) { got = append(got, msg) })
	cb.OnStart()
	cb.OnChunk("x")
	cb.OnUpdate(stream.Progress[checklist.Item]{Total: 1})
	cb.OnComplete(nil)
	cb.OnError(errors.New("e"))
	if len(got) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(got))
	}
	if _, ok := got[4].(errMsg); !ok {
		t.Fatalf("expected errMsg, got %T", got[4])
	}
}

func TestRunDrivesProgramToCompletion(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	m, err := Run(context.Background(), Options{Goal: "g"}, func(ctx context.Context, cb stream.Callbacks[checklist.Item]) error {
		cb.OnStart()
		cb.OnComplete(items())
		return nil
	}, tea.WithInput(nil), tea.WithOutput(&out), tea.WithoutRenderer())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !m.Done() || len(m.Items()) != 2 {
		t.Fatalf("unexpected final model: done=%v items=%d", m.Done(), len(m.Items()))
	}
}

func TestTrackedCallbacksRecordStreamErrors(t *testing.T) {
	t.Parallel()

	var got []tea.Msg
	cb, reported := trackedCallbacks(func(msg tea.Msg) { got = append(got, msg) })
	cb.OnStart()
	if reported.Load() {
		t.Fatal("no error reported yet")
	}
	cb.OnError(errors.New("boom"))
	if !reported.Load() || len(got) != 2 {
		t.Fatalf("reported=%v messages=%d", reported.Load(), len(got))
	}
}

func TestRunReportsErrorsFromBeforeTheStream(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	openErr := errors.New("dial failed")
	m, err := Run(context.Background(), Options{Goal: "g"}, func(ctx context.Context, cb stream.Callbacks[checklist.Item]) error {
		return openErr
	}, tea.WithInput(nil), tea.WithOutput(&out), tea.WithoutRenderer())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !errors.Is(m.Err(), openErr) || m.Done() {
		t.Fatalf("unexpected final model: err=%v done=%v", m.Err(), m.Done())
	}
}

func TestRunKeepsStreamReportedError(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	streamErr := errors.New("server said no")
	m, err := Run(context.Background(), Options{Goal: "g"}, func(ctx context.Context, cb stream.Callbacks[checklist.Item]) error {
		cb.OnStart()
		cb.OnError(streamErr)
		return streamErr
	}, tea.WithInput(nil), tea.WithOutput(&out), tea.WithoutRenderer())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !errors.Is(m.Err(), streamErr) {
		t.Fatalf("expected stream error, got %v", m.Err())
	}
}
