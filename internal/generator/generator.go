// Package generator produces deterministic questions, checklist items and
// enrichments for the development backend. The same goal, answers and locale
// always yield the same content.
package generator

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"net/url"
	"strings"

	"golang.org/x/text/message"

	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/locale"
)

// Question ids understood by Items.
const (
	QuestionTimeline = "timeline"
	QuestionBudget   = "budget"
	QuestionFocus    = "focus"
	QuestionNotes    = "notes"
)

var currencies = map[string]string{
	"US": "USD", "GB": "GBP", "RU": "RUB", "CH": "CHF", "MX": "MXN",
	"DE": "EUR", "AT": "EUR", "FR": "EUR", "ES": "EUR", "BE": "EUR",
}

// Generator builds content. The zero value is ready to use.
type Generator struct{}

// New returns a Generator.
func New() *Generator { return &Generator{} }

// Questions returns the clarifying questions for goal, sorted by order.
func (g *Generator) Questions(goal string, loc locale.Locale) []checklist.Question {
	p := printer(loc)
	return []checklist.Question{
		{
			ID:       QuestionTimeline,
			Text:     p.Sprintf(qTimeline),
			Type:     checklist.QuestionSingle,
			Options:  []string{p.Sprintf(optWeek), p.Sprintf(optMonth), p.Sprintf(optQuarter), p.Sprintf(optLater)},
			Required: true,
			Order:    1,
		},
		{
			ID:       QuestionBudget,
			Text:     p.Sprintf(qBudget),
			Type:     checklist.QuestionSingle,
			Options:  []string{p.Sprintf(optLow), p.Sprintf(optMedium), p.Sprintf(optHigh)},
			Required: true,
			Order:    2,
		},
		{
			ID:      QuestionFocus,
			Text:    p.Sprintf(qFocus),
			Type:    checklist.QuestionMultiple,
			Options: []string{p.Sprintf(optSpeed), p.Sprintf(optCost), p.Sprintf(optQuality)},
			Order:   3,
		},
		{
			ID:    QuestionNotes,
			Text:  p.Sprintf(qNotes),
			Type:  checklist.QuestionText,
			Order: 4,
		},
	}
}

// Items returns the checklist for goal, sorted by order.
func (g *Generator) Items(goal string, answers checklist.Answers, loc locale.Locale) []checklist.Item {
	p := printer(loc)
	seed := hash(goal)

	budget := first(answers[QuestionBudget], p.Sprintf(optMedium))
	timeline := first(answers[QuestionTimeline], p.Sprintf(optMonth))
	tip := focusTip(p, answers[QuestionFocus])

	titles := []string{
		p.Sprintf(stepDefine, goal),
		p.Sprintf(stepResearch),
		p.Sprintf(stepBudget, strings.ToLower(budget)),
		p.Sprintf(stepSchedule, timeline),
		p.Sprintf(stepFirst),
	}
	extras := []string{p.Sprintf(stepGather), p.Sprintf(stepHelp)}
	titles = append(titles, extras[:seed%3]...)
	titles = append(titles, p.Sprintf(stepReview))

	prefix := fmt.Sprintf("%08x", seed)[:6]
	items := make([]checklist.Item, 0, len(titles))
	for i, title := range titles {
		desc := p.Sprintf(descDefault)
		if i == 4 && tip != "" {
			desc = tip
		}
		if notes := first(answers[QuestionNotes], ""); notes != "" && i == 0 {
			desc = notes
		}
		items = append(items, checklist.Item{
			ID:          fmt.Sprintf("%s-%d", prefix, i+1),
			Title:       title,
			Description: desc,
			Order:       i + 1,
		})
	}
	return items
}

// Enrich returns tips, links and, for budget items, a price estimate.
func (g *Generator) Enrich(goal string, item checklist.Item, loc locale.Locale) checklist.Enrichment {
	p := printer(loc)
	seed := hash(goal + "\x00" + item.ID)
	tips := []string{p.Sprintf(tipSmall), p.Sprintf(tipWriteDown), p.Sprintf(tipCompare)}
	start := int(seed % uint64(len(tips)))

	e := checklist.Enrichment{
		Tips: []string{tips[start], tips[(start+1)%len(tips)]},
		Links: []checklist.Link{
			{Title: p.Sprintf(linkSearch), URL: "https://duckduckgo.com/?q=" + url.QueryEscape(goal+" "+item.Title)},
			{Title: p.Sprintf(linkGuide), URL: fmt.Sprintf("https://%s.wikipedia.org/w/index.php?search=%s", loc.Language(), url.QueryEscape(goal))},
		},
	}
	if item.Order == 3 {
		e.Price = &checklist.Price{
			Amount:   float64(50 + seed%20*25),
			Currency: Currency(loc.Region),
		}
	}
	return e
}

// Chunks returns the progress text emitted while generating n items.
func (g *Generator) Chunks(goal string, n int, loc locale.Locale) []string {
	p := printer(loc)
	return []string{p.Sprintf(chunkThinking, goal), p.Sprintf(chunkPlanning, n)}
}

// EmissionOrder returns a deterministic permutation of [0, n) so streams
// deliver records out of their display order.
func EmissionOrder(goal string, n int) []int {
	r := rand.New(rand.NewPCG(hash(goal), uint64(n)))
	return r.Perm(n)
}

// Currency maps a region to its ISO 4217 code, USD when unknown.
func Currency(region string) string {
	if c, ok := currencies[strings.ToUpper(region)]; ok {
		return c
	}
	return "USD"
}

func printer(loc locale.Locale) *message.Printer {
	return message.NewPrinter(loc.Tag, message.Catalog(messages))
}

func focusTip(p *message.Printer, values []string) string {
	for _, v := range values {
		switch v {
		case p.Sprintf(optSpeed):
			return p.Sprintf(tipFocusSpeed)
		case p.Sprintf(optCost):
			return p.Sprintf(tipFocusCost)
		case p.Sprintf(optQuality):
			return p.Sprintf(tipFocusQual)
		}
	}
	return ""
}

func first(values []string, fallback string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return fallback
}

func hash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(s))))
	return h.Sum64()
}
