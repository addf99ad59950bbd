// Package i18n renders user-facing messages (parse failures, CLI labels) in
// the languages shipped under locales/.
package i18n

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/tartampluch/go-nlcep/internal/config"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator holds the loaded message bundle. It is immutable after New and
// safe for concurrent use.
type Translator struct {
	bundle    *goi18n.Bundle
	languages []string
	matcher   language.Matcher
	logger    *slog.Logger
}

// New loads every embedded "active.<lang>.json" file. Files that fail to
// load are logged and skipped; an error is returned only when the embedded
// directory itself is unreadable.
func New(logger *slog.Logger) (*Translator, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With(config.LogKeyComponent, config.CompI18n)

	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		logger.Error(config.ErrLocalesAccess, config.LogKeyError, err)
		return nil, err
	}

	var detected []string
	tags := []language.Tag{language.English}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			logger.Debug(config.MsgLocaleSkip, config.LogKeyFile, name)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		tag, err := language.Parse(langCode)
		if langCode == "" || err != nil {
			logger.Warn(config.MsgLocaleBadName, config.LogKeyFile, name)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			logger.Error(config.ErrLocaleLoad,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		logger.Debug(config.MsgLocaleLoaded,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)

		detected = append(detected, langCode)
		if tag != language.English {
			tags = append(tags, tag)
		}
	}

	return &Translator{
		bundle:    bundle,
		languages: detected,
		matcher:   language.NewMatcher(tags),
		logger:    logger,
	}, nil
}

// Languages lists the language codes that were loaded, in file order.
func (t *Translator) Languages() []string {
	return append([]string(nil), t.languages...)
}

// Match picks the best loaded language for the given preferences. Each
// preference may be a plain tag ("fr") or a full Accept-Language header
// value. Without any usable preference the default language is returned.
func (t *Translator) Match(prefs ...string) string {
	tag, _ := language.MatchStrings(t.matcher, prefs...)
	base, _ := tag.Base()
	return base.String()
}

// Localize renders key in lang with the template data. Missing keys are
// logged and the key itself is returned, so callers always get text.
func (t *Translator) Localize(lang, key string, data map[string]any) string {
	localizer := goi18n.NewLocalizer(t.bundle, lang, config.DefaultLanguage)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		t.logger.Debug(config.MsgTransMissing,
			config.LogKeyKey, key,
			config.LogKeyLang, lang,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}
