// Package i18n localizes user-facing messages from embedded locale files.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

// Translator resolves message ids for the locale carried by a context.
type Translator struct {
	bundle        *i18n.Bundle
	defaultLocale string
	matcher       language.Matcher
}

// New loads every embedded locale file. defaultLocale is used when a context
// carries no locale.
func New(defaultLocale string) (*Translator, error) {
	if defaultLocale == "" {
		defaultLocale = "en"
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("i18n: read locales dir: %w", err)
	}
	tags := make([]language.Tag, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", e.Name(), err)
		}
		mf, err := bundle.ParseMessageFileBytes(data, e.Name())
		if err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", e.Name(), err)
		}
		tags = append(tags, mf.Tag)
	}

	return &Translator{
		bundle:        bundle,
		defaultLocale: defaultLocale,
		matcher:       language.NewMatcher(tags),
	}, nil
}

// WithLocale returns a context carrying locale (e.g. "fr", "en").
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext returns the locale stored in ctx or the default one.
func (t *Translator) LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return t.defaultLocale
}

// Match picks the best supported locale for an Accept-Language header value.
func (t *Translator) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return t.defaultLocale
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return t.defaultLocale
	}
	tag, _, confidence := t.matcher.Match(prefs...)
	if confidence == language.No {
		return t.defaultLocale
	}
	base, _ := tag.Base()
	return base.String()
}

// T translates messageID for the context's locale. Unknown ids are returned as-is.
func (t *Translator) T(ctx context.Context, messageID string, data map[string]any) string {
	l := i18n.NewLocalizer(t.bundle, t.LocaleFromContext(ctx), t.defaultLocale)

	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if data != nil {
		cfg.TemplateData = data
	}

	msg, err := l.Localize(cfg)
	if err != nil {
		return messageID
	}
	return msg
}
