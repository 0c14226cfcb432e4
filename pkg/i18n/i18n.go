// Package i18n turns message keys and named parameters into user-facing text.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Translator resolves a message key with named parameters.
// Unknown keys come back as "[missing: key]".
type Translator interface {
	T(key string, params map[string]string) string
}

//go:embed locales/*.toml
var localeFS embed.FS

// DefaultLocale is used when nothing better matches
var DefaultLocale = language.English

var aliases = map[string]string{
	"zh-cn": "zh-Hans",
	"zh-sg": "zh-Hans",
	"zh-tw": "zh-Hant",
	"zh-hk": "zh-Hant",
	"zh-mo": "zh-Hant",
}

// Bundle is a Translator backed by go-i18n message files
type Bundle struct {
	bundle *goi18n.Bundle

	mu        sync.RWMutex
	localizer *goi18n.Localizer
	locale    language.Tag
}

// New loads the embedded locales and selects the best match for locale.
// An empty locale selects the default.
func New(locale string) (*Bundle, error) {
	return NewFromFS(localeFS, "locales", locale)
}

// NewFromFS is New with message files taken from dir in fsys
func NewFromFS(fsys fs.FS, dir, locale string) (*Bundle, error) {
	bundle := goi18n.NewBundle(DefaultLocale)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(fsys, path.Join(dir, e.Name())); err != nil {
			return nil, fmt.Errorf("load locale %s: %w", e.Name(), err)
		}
	}

	b := &Bundle{bundle: bundle}
	b.SetLocale(locale)
	return b, nil
}

// SetLocale switches the active locale
func (b *Bundle) SetLocale(locale string) {
	tag := ResolveLocale(locale, b.bundle.LanguageTags())
	localizer := goi18n.NewLocalizer(b.bundle, tag.String())

	b.mu.Lock()
	b.locale = tag
	b.localizer = localizer
	b.mu.Unlock()
	log.Printf("[DEBUG] locale %q resolved to %s", locale, tag)
}

// Locale returns the active locale
func (b *Bundle) Locale() language.Tag {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.locale
}

// T implements Translator. Messages missing in the active locale fall back to English.
func (b *Bundle) T(key string, params map[string]string) string {
	cfg := &goi18n.LocalizeConfig{MessageID: key}
	if params != nil {
		cfg.TemplateData = params
	}
	b.mu.RLock()
	localizer := b.localizer
	b.mu.RUnlock()

	msg, err := localizer.Localize(cfg)
	if msg != "" {
		return msg
	}
	if err != nil {
		log.Printf("[DEBUG] translate %s: %v", key, err)
	}
	return Missing(key)
}

// Missing is the text shown for an unknown key
func Missing(key string) string {
	return "[missing: " + key + "]"
}

// ResolveLocale picks the supported tag closest to locale, falling back to English
func ResolveLocale(locale string, supported []language.Tag) language.Tag {
	locale = strings.TrimSpace(strings.ToLower(strings.ReplaceAll(locale, "_", "-")))
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i] // POSIX forms like ja_JP.UTF-8
	}
	if alias, ok := aliases[locale]; ok {
		locale = alias
	}
	if locale == "" || locale == "c" || locale == "posix" || len(supported) == 0 {
		return DefaultLocale
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultLocale
	}

	matcher := language.NewMatcher(supported)
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return DefaultLocale
	}
	return supported[idx]
}

// Func adapts a plain function to Translator
type Func func(key string, params map[string]string) string

// T implements Translator
func (f Func) T(key string, params map[string]string) string {
	return f(key, params)
}

// Languages lists the locales the bundle has messages for
func (b *Bundle) Languages() []string {
	tags := b.bundle.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.String())
	}
	return out
}
