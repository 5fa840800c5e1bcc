// Package locale resolves the user's language, region and timezone and
// attaches them to outgoing requests.
package locale

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/goalcheck/goalcheck/internal/session"
)

// Header names sent with every backend request.
const (
	HeaderLocale   = "X-User-Locale"
	HeaderRegion   = "X-User-Region"
	HeaderTimezone = "X-User-Timezone"
)

// Supported lists the languages the product ships, first is the fallback.
var Supported = []language.Tag{
	language.English,
	language.Spanish,
	language.German,
	language.French,
	language.Russian,
}

var matcher = language.NewMatcher(Supported)

// Locale is the resolved language context.
type Locale struct {
	Tag      language.Tag
	Region   string
	Timezone string
}

// Default is English in the United States on UTC.
func Default() Locale {
	return Locale{Tag: language.English, Region: "US", Timezone: "UTC"}
}

// Language returns the base language code, e.g. "de".
func (l Locale) Language() string {
	base, _ := l.Tag.Base()
	return base.String()
}

// String renders the locale as a BCP 47 tag with region, e.g. "de-AT".
func (l Locale) String() string {
	if l.Region == "" {
		return l.Language()
	}
	return l.Language() + "-" + l.Region
}

// AcceptLanguage renders an Accept-Language value preferring the locale and
// falling back to English.
func (l Locale) AcceptLanguage() string {
	parts := []string{l.String()}
	if l.Region != "" {
		parts = append(parts, l.Language()+";q=0.9")
	}
	if l.Language() != "en" {
		parts = append(parts, "en;q=0.5")
	}
	return strings.Join(parts, ",")
}

// Apply sets the locale headers on req.
func (l Locale) Apply(req *http.Request) {
	req.Header.Set(HeaderLocale, l.Language())
	if l.Region != "" {
		req.Header.Set(HeaderRegion, l.Region)
	}
	if l.Timezone != "" {
		req.Header.Set(HeaderTimezone, l.Timezone)
	}
	req.Header.Set("Accept-Language", l.AcceptLanguage())
}

// Parse matches raw (a BCP 47 tag or a POSIX locale such as "de_AT.UTF-8")
// against the supported languages. ok is false when nothing usable was found.
func Parse(raw string) (Locale, bool) {
	raw = posixToBCP47(raw)
	if raw == "" {
		return Locale{}, false
	}
	desired, err := language.Parse(raw)
	if err != nil {
		return Locale{}, false
	}
	_, idx, conf := matcher.Match(desired)
	if conf == language.No {
		return Locale{}, false
	}
	loc := Locale{Tag: Supported[idx]}
	if region, rconf := desired.Region(); rconf != language.No && region.IsCountry() {
		loc.Region = region.String()
	}
	return loc, true
}

// Detect resolves the locale from the environment. LC_ALL wins over
// LC_MESSAGES, which wins over LANG. The timezone comes from TZ.
func Detect(getenv func(string) string) Locale {
	loc := Default()
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if parsed, ok := Parse(getenv(key)); ok {
			loc = parsed
			break
		}
	}
	loc.Timezone = timezone(getenv("TZ"))
	return loc
}

// Resolve detects the locale and applies explicit settings on top.
func Resolve(settings session.Settings, getenv func(string) string) Locale {
	loc := Detect(getenv)
	if settings.Locale != "" {
		if parsed, ok := Parse(settings.Locale); ok {
			loc.Tag = parsed.Tag
			loc.Region = parsed.Region
		}
	}
	if settings.Region != "" {
		loc.Region = strings.ToUpper(settings.Region)
	}
	if settings.Timezone != "" {
		loc.Timezone = timezone(settings.Timezone)
	}
	return loc
}

// FromRequest resolves the locale the way the backend sees it: explicit
// headers first, then Accept-Language.
func FromRequest(req *http.Request) Locale {
	loc := Default()
	if parsed, ok := Parse(req.Header.Get(HeaderLocale)); ok {
		loc = parsed
	} else if tags, _, err := language.ParseAcceptLanguage(req.Header.Get("Accept-Language")); err == nil && len(tags) > 0 {
		_, idx, conf := matcher.Match(tags...)
		if conf != language.No {
			loc.Tag = Supported[idx]
			loc.Region = ""
		}
	}
	if region := req.Header.Get(HeaderRegion); region != "" {
		loc.Region = strings.ToUpper(region)
	}
	loc.Timezone = timezone(req.Header.Get(HeaderTimezone))
	return loc
}

func posixToBCP47(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, ".@"); i >= 0 {
		raw = raw[:i]
	}
	if raw == "C" || raw == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(raw, "_", "-")
}

func timezone(raw string) string {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), ":")
	if raw == "" {
		return "UTC"
	}
	if _, err := time.LoadLocation(raw); err != nil {
		return "UTC"
	}
	return raw
}
