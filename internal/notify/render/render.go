// Package render produces localized push copy for every notification kind.
// Rendering is a pure function of (kind, locale, args): no I/O, no clock, no
// randomness, so the same inputs always yield the same text.
package render

import (
	"golang.org/x/text/language"

	"accord/internal/types"
)

// supportedTags lists the locales with a full catalog, default first. The
// matcher falls back to the first entry for unknown or malformed locales.
var supportedTags = []language.Tag{
	language.English,
	language.Spanish,
}

var matcher = language.NewMatcher(supportedTags)

// localeKeys maps matcher results back to catalog keys, index-aligned with
// supportedTags.
var localeKeys = []string{"en", "es"}

// Content is a rendered title/body pair.
type Content struct {
	Title string
	Body  string
}

// Args is the bag of computed values a catalog entry may interpolate.
// Unused fields are ignored by entries that do not need them.
type Args struct {
	Name          string
	OtherName     string
	DaysRemaining int
	DaysInactive  int
	NewLikes      int
	LikesReceived int
	MatchesMade   int
	Messages      int
}

// ResolveLocale maps a recipient's preferred locale to a supported catalog
// key. Unknown, empty, or malformed locale strings resolve to the default
// language; this function never fails.
func ResolveLocale(locale string) string {
	if locale == "" {
		return localeKeys[0]
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return localeKeys[0]
	}
	_, idx, _ := matcher.Match(tag)
	return localeKeys[idx]
}

// Render produces the localized title and body for a notification kind.
// Locale fallback happens internally; an unsupported locale renders the
// default language rather than failing.
func Render(kind types.NotificationKind, locale string, a Args) Content {
	entries := catalog[ResolveLocale(locale)]
	e, ok := entries[kind]
	if !ok {
		// Catalog completeness is enforced by tests; an unknown kind here
		// means a new kind shipped without copy. Render a neutral fallback
		// rather than panicking inside a job loop.
		e = entries[types.KindInactiveReminder]
	}
	return Content{Title: e.title(a), Body: e.body(a)}
}
