// Package i18n localizes the fixed strings stamped into exported documents
// (section headings, worksheet labels). Artifacts inherit the language the
// tool was started with; question content is never translated.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// mu guards bundle and localizer. Encoders translate from concurrent
// goroutines, and the first translation in a process that never called Init
// loads the bundle lazily.
var (
	mu        sync.RWMutex
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
)

// Init loads the translation bundle and selects the output language. Safe to
// call concurrently with translation; calls in flight keep the previous
// localizer.
func Init(lang string) error {
	mu.Lock()
	defer mu.Unlock()
	return initLocked(lang)
}

func initLocked(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		b.MustParseMessageFileBytes(data, e.Name())
	}

	bundle = b
	localizer = i18n.NewLocalizer(b, lang)
	return nil
}

// current returns the active localizer, loading the English bundle on first
// use when Init was never called.
func current() *i18n.Localizer {
	mu.RLock()
	loc := localizer
	mu.RUnlock()
	if loc != nil {
		return loc
	}

	mu.Lock()
	defer mu.Unlock()
	if localizer == nil {
		if err := initLocked("en"); err != nil {
			return nil
		}
	}
	return localizer
}

// T translates a message by ID, falling back to the ID itself when the
// message is unknown.
func T(msgID string) string {
	return Td(msgID, nil)
}

// Td translates a message by ID with template data.
func Td(msgID string, data map[string]any) string {
	loc := current()
	if loc == nil {
		return msgID
	}
	s, err := loc.Localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: data,
	})
	if err != nil {
		slog.Warn("missing translation", "id", msgID, "error", err)
		return msgID
	}
	return s
}

// TLang translates a message for a specific language, regardless of the
// language selected with Init.
func TLang(lang, msgID string, data map[string]any) string {
	current()
	mu.RLock()
	b := bundle
	mu.RUnlock()
	if b == nil {
		return msgID
	}
	s, err := i18n.NewLocalizer(b, lang).Localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: data,
	})
	if err != nil {
		return msgID
	}
	return s
}
