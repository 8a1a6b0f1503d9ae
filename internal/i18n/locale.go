package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

// Locale identifies one of the storefront's supported languages.
type Locale string

const (
	ES Locale = "es"
	EN Locale = "en"

	// Default is used whenever no supported preference can be derived.
	Default = ES
)

// Supported lists the locales in matcher preference order.
var Supported = []Locale{ES, EN}

var matcher = language.NewMatcher([]language.Tag{language.Spanish, language.English})

// Parse returns the locale named by value. Region subtags are ignored.
func Parse(value string) (Locale, bool) {
	base := strings.ToLower(strings.TrimSpace(value))
	if i := strings.IndexAny(base, "-_"); i >= 0 {
		base = base[:i]
	}
	switch Locale(base) {
	case ES:
		return ES, true
	case EN:
		return EN, true
	default:
		return "", false
	}
}

// OrDefault returns l when it is supported, otherwise Default.
func (l Locale) OrDefault() Locale {
	if parsed, ok := Parse(string(l)); ok {
		return parsed
	}
	return Default
}

// Tag returns the language tag used for number formatting.
func (l Locale) Tag() language.Tag {
	if l == EN {
		return language.AmericanEnglish
	}
	return language.MustParse("es-CL")
}

// FromAcceptLanguage matches an Accept-Language header against the supported
// locales. Unparseable or unmatched headers yield Default.
func FromAcceptLanguage(header string) Locale {
	header = strings.TrimSpace(header)
	if header == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default
	}
	return Supported[idx]
}

type localeKey struct{}

// WithLocale stores the locale in the context.
func WithLocale(ctx context.Context, l Locale) context.Context {
	return context.WithValue(ctx, localeKey{}, l)
}

// FromContext returns the request locale, or Default when none was resolved.
func FromContext(ctx context.Context) Locale {
	if ctx == nil {
		return Default
	}
	if l, ok := ctx.Value(localeKey{}).(Locale); ok && l != "" {
		return l
	}
	return Default
}
