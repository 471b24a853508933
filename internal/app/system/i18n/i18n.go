// Package i18n holds the translated user-facing messages for API errors and
// resolves the locale a request asked for.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LangParam is the query parameter that overrides Accept-Language.
const LangParam = "lang"

var (
	English = language.English
	Hindi   = language.Hindi
	Marathi = language.Marathi
)

var supported = []language.Tag{English, Hindi, Marathi}

var matcher = language.NewMatcher(supported)

// Supported returns the tags we carry translations for. English is first and
// is the default.
func Supported() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// ParseTag matches value against the supported tags.
func ParseTag(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return English, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return English, false
	}
	return match(tag)
}

func match(tags ...language.Tag) (language.Tag, bool) {
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return English, false
	}
	return supported[idx], true
}

// ResolveTag picks the request's language from ?lang= first, then
// Accept-Language, falling back to English.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return English
	}
	if tag, ok := ParseTag(r.URL.Query().Get(LangParam)); ok {
		return tag
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			if tag, ok := match(tags...); ok {
				return tag
			}
		}
	}
	return English
}

// SecondaryTag returns the locale used for the parallel localized message in
// error responses: the request's language when it is a supported non-English
// one, else Hindi.
func SecondaryTag(r *http.Request) language.Tag {
	tag := ResolveTag(r)
	if tag == English {
		return Hindi
	}
	return tag
}

// Message returns the translation of key in tag. Unknown keys come back as
// the English text when one is registered, else the key itself.
func Message(tag language.Tag, key string) string {
	return message.NewPrinter(tag).Sprintf(key)
}
