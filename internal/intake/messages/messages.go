// Package messages renders the user-facing texts of the intake flow.
package messages

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"enrollment/internal/intake/models"
)

// Translator renders English text into another language.
type Translator interface {
	Translate(ctx context.Context, text string, lang models.Language) (string, error)
}

// Vars fills {name} placeholders.
type Vars map[string]string

type Catalog struct {
	translator Translator
	timeout    time.Duration
	logger     *slog.Logger
}

type Option func(*Catalog)

func WithTranslator(t Translator, timeout time.Duration) Option {
	return func(c *Catalog) {
		c.translator = t
		c.timeout = timeout
	}
}

func NewCatalog(logger *slog.Logger, opts ...Option) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{logger: logger, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Text renders id in lang. A regional template wins; otherwise the English
// text goes through the translator, and any translation failure falls back
// to English.
func (c *Catalog) Text(ctx context.Context, lang models.Language, id ID, vars Vars) string {
	if tpl, ok := regional[lang][id]; ok {
		return fill(tpl, vars)
	}
	text := fill(english[id], vars)
	if lang == models.LanguageEnglish || lang == "" || c.translator == nil {
		return text
	}

	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	translated, err := c.translator.Translate(tctx, text, lang)
	if err != nil || strings.TrimSpace(translated) == "" {
		c.logger.WarnContext(ctx, "translation failed, using english", "message", id, "language", lang, "error", err)
		return text
	}
	return translated
}

func fill(tpl string, vars Vars) string {
	if len(vars) == 0 {
		return tpl
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(vars))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
