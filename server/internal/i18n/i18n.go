package i18n

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Lang is a supported UI language.
type Lang string

const (
	English Lang = "en"
	Chinese Lang = "zh"
)

// Supported lists the languages in matcher preference order.
var Supported = []Lang{English, Chinese}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Chinese})

// Tag returns the BCP 47 tag of l.
func (l Lang) Tag() language.Tag {
	if l == Chinese {
		return language.Chinese
	}
	return language.English
}

// ParseLang accepts "en" or "zh" in any case and reports whether s was one
// of them.
func ParseLang(s string) (Lang, bool) {
	switch Lang(strings.ToLower(strings.TrimSpace(s))) {
	case English:
		return English, true
	case Chinese:
		return Chinese, true
	default:
		return "", false
	}
}

// Negotiate picks the language for a request: an explicit query value wins,
// then the Accept-Language header, then fallback.
func Negotiate(query, acceptLanguage string, fallback Lang) Lang {
	if query != "" {
		if tag, err := language.Parse(query); err == nil {
			if l, ok := match(tag); ok {
				return l
			}
		}
	}
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
			if l, ok := match(tags...); ok {
				return l
			}
		}
	}
	return fallback
}

func match(tags ...language.Tag) (Lang, bool) {
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	return Supported[idx], true
}

// Messages returns a copy of the label table for l. Unknown languages get
// English.
func Messages(l Lang) map[string]string {
	src := tables[English]
	if t, ok := tables[l]; ok {
		src = t
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// T returns the label for key in l, falling back to English and then to the
// key itself.
func T(l Lang, key string) string {
	if v, ok := tables[l][key]; ok {
		return v
	}
	if v, ok := tables[English][key]; ok {
		return v
	}
	return key
}

// Keys returns every English key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(tables[English]))
	for k := range tables[English] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
