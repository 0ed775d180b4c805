// Package i18n renders user-facing messages in the caller's language.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type Translator struct {
	bundle      *goi18n.Bundle
	defaultLang string
}

// New loads every embedded locale. defaultLang is used when the caller
// sends no preference.
func New(defaultLang string) (*Translator, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := fs.Glob(localeFS, "locales/*.json")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(localeFS, f); err != nil {
			return nil, fmt.Errorf("load locale %s: %w", f, err)
		}
	}

	return &Translator{bundle: bundle, defaultLang: defaultLang}, nil
}

// Localize renders messageID for the first matching language in prefs
// (query param, Accept-Language header, ...). Unknown ids come back as is.
func (t *Translator) Localize(messageID string, data map[string]any, prefs ...string) string {
	langs := append(append([]string{}, prefs...), t.defaultLang)
	loc := goi18n.NewLocalizer(t.bundle, langs...)

	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil && msg == "" {
		return messageID
	}
	return msg
}

// Languages lists the tags that have a message file.
func (t *Translator) Languages() []string {
	tags := t.bundle.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.String())
	}
	return out
}
