package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	intakemodels "enrollment/internal/intake/models"
)

var languageNames = map[intakemodels.Language]string{
	intakemodels.LanguageHindi:   "Hindi",
	intakemodels.LanguageMarathi: "Marathi",
}

// Translate renders an English message of the intake conversation into lang.
// Placeholders in braces and digits are kept as written.
func (c *Client) Translate(ctx context.Context, text string, lang intakemodels.Language) (string, error) {
	name, ok := languageNames[lang]
	if !ok || strings.TrimSpace(text) == "" {
		return text, nil
	}
	start := time.Now()

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": 0,
		"messages": []map[string]any{
			{"role": "system", "content": "Translate the user's message from English to " + name +
				" for a government welfare applicant. Keep numbers, amounts, dates, option numbers and the words YES, NO, SUBMIT, EXIT unchanged. Reply with the translation only."},
			{"role": "user", "content": text},
		},
	}
	raw, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", body)
	if err != nil {
		c.log.WarnContext(ctx, "llm.translate.http_error", "lang", lang, "error", err)
		return "", err
	}
	out, err := firstChoice(raw)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", errors.New("empty translation")
	}
	c.log.DebugContext(ctx, "llm.translate.ok", "lang", lang, "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}
