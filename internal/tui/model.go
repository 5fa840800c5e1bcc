// Package tui renders a checklist stream as a full-screen terminal view.
//
// Consumer callbacks are converted to tea messages (see Callbacks), so the
// model only ever changes inside Update.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/message"

	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/locale"
	"github.com/goalcheck/goalcheck/internal/stream"
)

const defaultBarWidth = 40

type (
	startedMsg  struct{}
	progressMsg stream.Progress[checklist.Item]
	chunkMsg    string
	doneMsg     []checklist.Item
	errMsg      struct{ err error }
)

// Options configure the view.
type Options struct {
	Goal   string
	Theme  string
	Locale locale.Locale
	// Footer is the rendered ad text, empty hides the footer.
	Footer string
	// Cancel stops the stream when the user quits early.
	Cancel func()
}

// Model is the bubbletea model for one checklist stream.
type Model struct {
	opts    Options
	theme   Theme
	printer *message.Printer
	spinner spinner.Model
	bar     progress.Model

	started   bool
	chunk     string
	items     []checklist.Item
	total     int
	done      bool
	cancelled bool
	err       error
}

// New builds the model.
func New(opts Options) Model {
	theme := ThemeFor(opts.Theme)
	if opts.Locale.Tag.IsRoot() {
		opts.Locale = locale.Default()
	}
	return Model{
		opts:    opts,
		theme:   theme,
		printer: opts.Locale.Printer(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Spinner)),
		bar: progress.New(
			progress.WithGradient(theme.Gradient[0], theme.Gradient[1]),
			progress.WithWidth(defaultBarWidth),
			progress.WithoutPercentage(),
		),
	}
}

// Items returns the items collected so far.
func (m Model) Items() []checklist.Item { return m.items }

// Err returns the stream error, if any.
func (m Model) Err() error { return m.err }

// Cancelled reports whether the user quit before completion.
func (m Model) Cancelled() bool { return m.cancelled }

// Done reports whether the stream completed.
func (m Model) Done() bool { return m.done }

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if !m.done && m.err == nil {
				m.cancelled = true
				if m.opts.Cancel != nil {
					m.opts.Cancel()
				}
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := msg.Width - 4
		if width > defaultBarWidth*2 {
			width = defaultBarWidth * 2
		}
		if width > 10 {
			m.bar.Width = width
		}
	case startedMsg:
		m.started = true
	case chunkMsg:
		m.chunk = string(msg)
	case progressMsg:
		m.started = true
		m.items = msg.Items
		if msg.Total > 0 {
			m.total = msg.Total
		}
	case doneMsg:
		m.done = true
		m.items = msg
		if m.total < len(m.items) {
			m.total = len(m.items)
		}
		return m, tea.Quit
	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render(m.printer.Sprintf(locale.MsgGenerating, m.opts.Goal)))
	b.WriteString("\n\n")

	if !m.done && m.err == nil {
		line := m.spinner.View() + " "
		if m.chunk != "" {
			line += m.theme.Muted.Render(m.chunk)
		}
		b.WriteString(line + "\n")
	}
	if m.total > 0 {
		fmt.Fprintf(&b, "%s %d/%d\n", m.bar.ViewAs(m.fraction()), len(m.items), m.total)
	}
	b.WriteString("\n")

	for i, it := range m.items {
		b.WriteString(m.renderItem(i+1, it))
	}

	if m.err != nil {
		b.WriteString("\n" + m.theme.Error.Render(m.printer.Sprintf(locale.MsgStreamFailed, m.err)) + "\n")
	}
	if m.done {
		b.WriteString("\n" + m.theme.Accent.Render(m.printer.Sprintf(locale.MsgChecklistReady, len(m.items))) + "\n")
	}
	if m.opts.Footer != "" {
		b.WriteString("\n" + m.theme.Footer.Render(m.printer.Sprintf(locale.MsgSponsored)+": "+m.opts.Footer) + "\n")
	}
	if !m.done && m.err == nil {
		b.WriteString(m.theme.Muted.Render("q: cancel") + "\n")
	}
	return b.String()
}

func (m Model) fraction() float64 {
	if m.total == 0 {
		return 0
	}
	f := float64(len(m.items)) / float64(m.total)
	if f > 1 {
		return 1
	}
	return f
}

func (m Model) renderItem(n int, it checklist.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", m.theme.Item.Render(fmt.Sprintf("%d. %s", n, it.Title)))
	if it.Description != "" {
		fmt.Fprintf(&b, "   %s\n", m.theme.Muted.Render(it.Description))
	}
	if e := it.Enrichment; e != nil {
		for _, tip := range e.Tips {
			fmt.Fprintf(&b, "   %s %s\n", m.theme.Accent.Render("•"), tip)
		}
		for _, link := range e.Links {
			fmt.Fprintf(&b, "   %s %s\n", m.theme.Accent.Render("↗"), m.theme.Muted.Render(link.Title+" "+link.URL))
		}
		if e.Price != nil {
			fmt.Fprintf(&b, "   %s\n", m.printer.Sprintf("%s: %.2f %s", m.printer.Sprintf(locale.MsgEnrichmentPrice), e.Price.Amount, e.Price.Currency))
		}
	}
	return b.String()
}

// Callbacks converts consumer callbacks into messages for send, usually a
// program's Send method.
func Callbacks(send func(tea.Msg)) stream.Callbacks[checklist.Item] {
	return stream.Callbacks[checklist.Item]{
		OnStart:    func() { send(startedMsg{}) },
		OnUpdate:   func(p stream.Progress[checklist.Item]) { send(progressMsg(p)) },
		OnChunk:    func(chunk string) { send(chunkMsg(chunk)) },
		OnComplete: func(items []checklist.Item) { send(doneMsg(items)) },
		OnError:    func(err error) { send(errMsg{err: err}) },
	}
}

// trackedCallbacks wraps Callbacks and records whether OnError fired.
func trackedCallbacks(send func(tea.Msg)) (stream.Callbacks[checklist.Item], *atomic.Bool) {
	var reported atomic.Bool
	cb := Callbacks(send)
	onError := cb.OnError
	cb.OnError = func(err error) {
		reported.Store(true)
		onError(err)
	}
	return cb, &reported
}

// StreamFunc runs a stream, reporting through cb.
type StreamFunc func(ctx context.Context, cb stream.Callbacks[checklist.Item]) error

// Run shows the view while run drives the stream, and returns the final
// model once both have stopped.
func Run(ctx context.Context, opts Options, run StreamFunc, programOpts ...tea.ProgramOption) (Model, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	opts.Cancel = cancel

	p := tea.NewProgram(New(opts), programOpts...)
	var g errgroup.Group
	g.Go(func() error {
		cb, reported := trackedCallbacks(p.Send)
		err := run(ctx, cb)
		if ctx.Err() != nil {
			err = nil
		} else if err != nil && !reported.Load() {
			// Failed before the stream could report, e.g. while opening it.
			p.Send(errMsg{err: err})
		}
		p.Quit()
		return err
	})

	final, perr := p.Run()
	cancel()
	serr := g.Wait()

	m, _ := final.(Model)
	if perr != nil && !errors.Is(perr, tea.ErrProgramKilled) {
		return m, perr
	}
	if m.err == nil && serr != nil {
		m.err = serr
	}
	return m, nil
}
