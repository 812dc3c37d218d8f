// Package llm is an OpenAI-compatible chat-completions client that pulls a
// flat field map out of OCR text.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"enrollment/internal/document/models"
)

// maxPromptRunes bounds the OCR text sent in one request.
const maxPromptRunes = 4000

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// ExtractFields asks the model for the fields of kind and returns the
// non-empty ones. The reply must validate against the field schema.
func (c *Client) ExtractFields(ctx context.Context, rawText string, kind models.Kind, fields []string) (models.Fields, error) {
	rid := uuid.NewString()
	start := time.Now()
	c.log.InfoContext(ctx, "llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"kind", kind,
		"text_len", len(rawText),
	)

	schema := BuildSchema(fields)
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt(kind, fields)},
			{"role": "user", "content": userPrompt(rawText)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.ErrorContext(ctx, "llm.extract.http_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	reply, err := firstChoice(raw)
	if err != nil {
		return nil, err
	}
	content := []byte(reply)

	if err := Validate(schema, content); err != nil {
		c.log.WarnContext(ctx, "llm.extract.schema_validation_failed",
			"req_id", rid, "kind", kind, "error", err)
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var decoded map[string]*string
	if err := json.Unmarshal(content, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	out := make(models.Fields, len(decoded))
	for k, v := range decoded {
		if v == nil {
			continue
		}
		if s := strings.TrimSpace(*v); s != "" {
			out[k] = s
		}
	}

	c.log.InfoContext(ctx, "llm.extract.ok",
		"req_id", rid,
		"kind", kind,
		"fields", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func firstChoice(raw []byte) (string, error) {
	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in chat response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("chat response body close error", "error", err)
		}
	}(resp.Body)

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat status %d: %s", resp.StatusCode, truncate(string(buf), 512))
	}
	return buf, nil
}

func systemPrompt(kind models.Kind, fields []string) string {
	parts := []string{
		"You read OCR text from an Indian government document: " + kind.Label() + ".",
		"The text may mix English, Hindi and Marathi and contain OCR noise.",
		"Return ONLY a JSON object with these keys: " + strings.Join(fields, ", ") + ".",
		"Use null for any value that is not clearly present. Do not guess.",
		"Copy names as printed. Dates as DD/MM/YYYY. Amounts as digits only, without currency symbols or separators.",
	}
	return strings.Join(parts, " ")
}

func userPrompt(rawText string) string {
	r := []rune(rawText)
	if len(r) > maxPromptRunes {
		r = r[:maxPromptRunes]
	}
	return "OCR text:\n" + string(r)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
