package cli

import (
	"fmt"
	"io"

	"golang.org/x/text/message"

	"github.com/goalcheck/goalcheck/internal/ads"
	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/locale"
)

func renderQuestion(w io.Writer, n int, q checklist.Question) {
	marker := ""
	if q.Required {
		marker = " *"
	}
	fmt.Fprintf(w, "%d. [%s] %s%s\n", n, q.ID, q.Text, marker)
	for i, opt := range q.Options {
		fmt.Fprintf(w, "     %d) %s\n", i+1, opt)
	}
}

func renderItems(w io.Writer, p *message.Printer, items []checklist.Item) {
	for i, it := range items {
		fmt.Fprintf(w, "%d. %s\n", i+1, it.Title)
		if it.Description != "" {
			fmt.Fprintf(w, "   %s\n", it.Description)
		}
		e := it.Enrichment
		if e == nil {
			continue
		}
		if len(e.Tips) > 0 {
			fmt.Fprintf(w, "   %s:\n", p.Sprintf(locale.MsgEnrichmentTips))
			for _, tip := range e.Tips {
				fmt.Fprintf(w, "     - %s\n", tip)
			}
		}
		if len(e.Links) > 0 {
			fmt.Fprintf(w, "   %s:\n", p.Sprintf(locale.MsgEnrichmentLinks))
			for _, link := range e.Links {
				fmt.Fprintf(w, "     - %s <%s>\n", link.Title, link.URL)
			}
		}
		if e.Price != nil {
			fmt.Fprintf(w, "   %s\n", formatPrice(p, e.Price))
		}
	}
}

func formatPrice(p *message.Printer, price *checklist.Price) string {
	return p.Sprintf("%s: %.2f %s", p.Sprintf(locale.MsgEnrichmentPrice), price.Amount, price.Currency)
}

func renderSlot(w io.Writer, p *message.Printer, slot ads.Slot) {
	line := fmt.Sprintf("-- %s: %s", p.Sprintf(locale.MsgSponsored), slot.Text)
	if slot.URL != "" {
		line += " " + slot.URL
	}
	fmt.Fprintln(w, line)
}
