// Package ads selects and renders sponsored slots.
package ads

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
)

// Kind is the placement of a slot.
type Kind string

const (
	KindBanner Kind = "banner"
	KindInline Kind = "inline"
	KindFooter Kind = "footer"
)

// Valid reports whether k is a known placement.
func (k Kind) Valid() bool {
	switch k {
	case KindBanner, KindInline, KindFooter:
		return true
	}
	return false
}

// Slot is a rendered placement. Text is used by terminal front ends, HTML by
// web front ends.
type Slot struct {
	Provider string `json:"provider"`
	Kind     Kind   `json:"kind"`
	Text     string `json:"text"`
	URL      string `json:"url,omitempty"`
	HTML     string `json:"html,omitempty"`
}

// Provider renders slots for one ad network.
type Provider interface {
	Name() string
	Render(kind Kind) (Slot, error)
}

// ErrUnknownKind is returned for unsupported placements.
var ErrUnknownKind = errors.New("unknown ad kind")

// Options configure provider selection.
type Options struct {
	AdSenseClient string
	AdSenseSlot   string
	PropellerZone string
}

// New returns the provider called name. An empty name selects Mock.
func New(name string, opts Options) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mock":
		return Mock{}, nil
	case "adsense":
		if opts.AdSenseClient == "" {
			return nil, errors.New("adsense requires a client id")
		}
		return AdSense{Client: opts.AdSenseClient, Slot: opts.AdSenseSlot}, nil
	case "propeller":
		if opts.PropellerZone == "" {
			return nil, errors.New("propeller requires a zone id")
		}
		return Propeller{Zone: opts.PropellerZone}, nil
	case "none", "off":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ad provider %q", name)
	}
}

// Visible reports whether ads are shown for a plan.
func Visible(p Provider, plan string) bool {
	return p != nil && !strings.EqualFold(plan, "premium")
}

// Mock renders placeholder slots.
type Mock struct{}

func (Mock) Name() string { return "mock" }

func (Mock) Render(kind Kind) (Slot, error) {
	if !kind.Valid() {
		return Slot{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	text := fmt.Sprintf("[%s ad placeholder]", kind)
	return Slot{
		Provider: "mock",
		Kind:     kind,
		Text:     text,
		HTML:     fmt.Sprintf(`<div class="ad ad-%s ad-mock">%s</div>`, kind, html.EscapeString(text)),
	}, nil
}

// AdSense renders Google AdSense units.
type AdSense struct {
	Client string
	Slot   string
}

func (AdSense) Name() string { return "adsense" }

func (a AdSense) Render(kind Kind) (Slot, error) {
	if !kind.Valid() {
		return Slot{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	format := "auto"
	if kind == KindInline {
		format = "fluid"
	}
	markup := fmt.Sprintf(`<ins class="adsbygoogle" style="display:block" data-ad-client="%s" data-ad-slot="%s" data-ad-format="%s"></ins>`,
		html.EscapeString(a.Client), html.EscapeString(a.Slot), format)
	return Slot{
		Provider: "adsense",
		Kind:     kind,
		Text:     "Ads by Google",
		HTML:     markup,
	}, nil
}

// Propeller renders PropellerAds zones.
type Propeller struct {
	Zone string
}

func (Propeller) Name() string { return "propeller" }

func (p Propeller) Render(kind Kind) (Slot, error) {
	if !kind.Valid() {
		return Slot{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	link := "https://propellerads.com/?zone=" + url.QueryEscape(p.Zone) + "&format=" + url.QueryEscape(string(kind))
	return Slot{
		Provider: "propeller",
		Kind:     kind,
		Text:     "Sponsored link",
		URL:      link,
		HTML:     fmt.Sprintf(`<div class="ad ad-%s" data-zone="%s"></div>`, kind, html.EscapeString(p.Zone)),
	}, nil
}
