// Package ocr turns an uploaded document into text. PDFs with a text layer
// are read directly; scanned PDFs are rasterized and every page and image
// goes through tesseract.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	pdf "github.com/ledongthuc/pdf"

	dErrors "enrollment/pkg/domain-errors"
)

// Recognizer extracts text from a document file.
type Recognizer interface {
	Recognize(ctx context.Context, file []byte) (string, error)
}

// Config names the external binaries and recognition languages.
type Config struct {
	Tesseract  string
	Rasterizer string
	Languages  string
	Timeout    time.Duration
	DPI        int
	MaxPages   int
}

// Engine implements Recognizer with tesseract.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Engine)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(e *Engine) { e.runner = r }
}

func NewEngine(cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Rasterizer == "" {
		cfg.Rasterizer = "pdftoppm"
	}
	if cfg.Languages == "" {
		cfg.Languages = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 4
	}
	e := &Engine{cfg: cfg, runner: ExecRunner{Logger: logger}, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recognize returns the document text. Engine failures come back as
// CodeUnavailable or CodeTimeout domain errors; an empty string with a nil
// error means nothing legible was found.
func (e *Engine) Recognize(ctx context.Context, file []byte) (string, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	start := time.Now()

	var (
		text   string
		method string
		err    error
	)
	if IsPDF(file) {
		text, err = TextLayer(file)
		method = "pdf-text"
		if err != nil {
			e.logger.WarnContext(ctx, "pdf text layer unreadable", "error", err)
		}
		if strings.TrimSpace(text) == "" {
			text, err = e.scannedPDF(ctx, file)
			method = "pdf-ocr"
		}
	} else {
		text, err = e.image(ctx, file)
		method = "image-ocr"
	}
	if err != nil {
		return "", classify(ctx, err)
	}

	e.logger.InfoContext(ctx, "ocr complete",
		"method", method,
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return strings.TrimSpace(text), nil
}

func (e *Engine) image(ctx context.Context, file []byte) (string, error) {
	dir, err := os.MkdirTemp("", "intake-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer e.cleanup(dir)

	path := filepath.Join(dir, "upload")
	if err := os.WriteFile(path, file, 0o600); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return e.tesseract(ctx, path)
}

func (e *Engine) scannedPDF(ctx context.Context, file []byte) (string, error) {
	dir, err := os.MkdirTemp("", "intake-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer e.cleanup(dir)

	path := filepath.Join(dir, "upload.pdf")
	if err := os.WriteFile(path, file, 0o600); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	prefix := filepath.Join(dir, "page")
	if _, stderr, err := e.runner.Run(ctx, e.cfg.Rasterizer, "-r", fmt.Sprint(e.cfg.DPI), "-png", path, prefix); err != nil {
		return "", fmt.Errorf("rasterize pdf: %w: %s", err, truncate(string(stderr), 512))
	}

	pages, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(pages)
	if len(pages) == 0 {
		return "", errors.New("rasterize pdf: no pages rendered")
	}
	if len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}

	var b strings.Builder
	for _, page := range pages {
		txt, err := e.tesseract(ctx, page)
		if err != nil {
			return "", err
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
	}
	return b.String(), nil
}

func (e *Engine) tesseract(ctx context.Context, path string) (string, error) {
	out, stderr, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.Languages)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(stderr), 512))
	}
	return string(out), nil
}

func (e *Engine) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		e.logger.Warn("failed to remove ocr temp dir", "dir", dir, "error", err)
	}
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "ocr timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "ocr engine unavailable")
}

// IsPDF sniffs the PDF magic bytes.
func IsPDF(file []byte) bool {
	return bytes.HasPrefix(file, []byte("%PDF-"))
}

// TextLayer returns the embedded text of a PDF, page by page.
func TextLayer(data []byte) (string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("new pdf reader: %w", err)
	}
	var b strings.Builder
	for page := 1; page <= doc.NumPage(); page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", page, err)
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}
