// Package i18n resolves UI labels for the active locale and manages the
// per-client locale and theme preferences.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFiles embed.FS

// Supported locales
const (
	LocaleZH = "zh"
	LocaleEN = "en"

	DefaultLocale = LocaleZH
)

var (
	ErrUnsupportedLocale = errors.New("unsupported locale")
	ErrUnsupportedTheme  = errors.New("unsupported theme")
)

var localeTags = map[string]language.Tag{
	LocaleZH: language.SimplifiedChinese,
	LocaleEN: language.English,
}

var matcher = language.NewMatcher([]language.Tag{language.SimplifiedChinese, language.English})

// ValidLocale reports whether locale is one of the supported codes
func ValidLocale(locale string) bool {
	_, ok := localeTags[locale]
	return ok
}

// MatchLocale maps a BCP 47 tag such as "en-US" or "zh-Hans-CN" to a
// supported locale
func MatchLocale(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if ValidLocale(raw) {
		return raw, true
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", false
	}
	_, idx, confidence := matcher.Match(tag)
	if confidence == language.No {
		return "", false
	}
	if idx == 0 {
		return LocaleZH, true
	}
	return LocaleEN, true
}

// Tag returns the language tag used for collation and number formatting
func Tag(locale string) language.Tag {
	if tag, ok := localeTags[locale]; ok {
		return tag
	}
	return localeTags[DefaultLocale]
}

// Bundle holds a flat string table per locale
type Bundle struct {
	tables map[string]map[string]string
}

// LoadBundle reads the embedded locale tables
func LoadBundle() (*Bundle, error) {
	b := &Bundle{tables: make(map[string]map[string]string)}
	for locale := range localeTags {
		raw, err := localeFiles.ReadFile("locales/" + locale + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("load locale %s: %w", locale, err)
		}
		var table map[string]string
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("unmarshal locale %s: %w", locale, err)
		}
		b.tables[locale] = table
	}
	return b, nil
}

// Locales lists the loaded locales
func (b *Bundle) Locales() []string {
	return slices.Sorted(maps.Keys(b.tables))
}

// Table returns a copy of the string table for locale
func (b *Bundle) Table(locale string) map[string]string {
	return maps.Clone(b.tables[locale])
}

// Translator returns a translator bound to locale. Unsupported locales get
// the default locale's table.
func (b *Bundle) Translator(locale string) Translator {
	if !ValidLocale(locale) {
		locale = DefaultLocale
	}
	return Translator{locale: locale, table: b.tables[locale]}
}

// Translator looks up labels in one locale's table
type Translator struct {
	locale string
	table  map[string]string
}

// T returns the label for key, or key itself when the table has no entry.
// Call sites rely on passing already readable text as the key.
func (t Translator) T(key string) string {
	if v, ok := t.table[key]; ok && v != "" {
		return v
	}
	return key
}

// Locale returns the locale code this translator serves
func (t Translator) Locale() string {
	if t.locale == "" {
		return DefaultLocale
	}
	return t.locale
}

// Tag returns the language tag of the translator's locale
func (t Translator) Tag() language.Tag {
	return Tag(t.Locale())
}
