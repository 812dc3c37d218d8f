package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"enrollment/internal/document/extractor"
	"enrollment/internal/document/llm"
	"enrollment/internal/document/models"
	"enrollment/internal/document/ocr"
	"enrollment/internal/document/pipeline"
)

var (
	analyzeKind     string
	analyzeName     string
	analyzeLanguage string
	analyzeRawText  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run a document through OCR, validation and field extraction",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeKind, "kind", "k", "", "document kind, e.g. aadhaar or income_certificate (required)")
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "applicant name the document must carry")
	analyzeCmd.Flags().StringVar(&analyzeLanguage, "language", "en", "language of rejection messages")
	analyzeCmd.Flags().BoolVar(&analyzeRawText, "raw", false, "include the recognized text")
	_ = analyzeCmd.MarkFlagRequired("kind")
	rootCmd.AddCommand(analyzeCmd)
}

type analyzeOutput struct {
	Kind    models.Kind   `json:"kind"`
	Valid   bool          `json:"valid"`
	Reason  string        `json:"reason,omitempty"`
	Message string        `json:"message,omitempty"`
	Fields  models.Fields `json:"fields"`
	RawText string        `json:"raw_text,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	kind, ok := models.ParseKind(analyzeKind)
	if !ok {
		return fmt.Errorf("unknown document kind %q", analyzeKind)
	}
	file, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.OCR.Timeout+cfg.LLM.Timeout+10*time.Second)
	defer cancel()

	var chat extractor.LLM
	if cfg.LLM.APIKey != "" {
		chat = llm.NewClient(llm.Config{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		}, log)
	}
	p := pipeline.New(
		ocr.NewEngine(ocr.Config{
			Tesseract:  cfg.OCR.Binary,
			Rasterizer: cfg.OCR.Rasterizer,
			Languages:  cfg.OCR.Languages,
			Timeout:    cfg.OCR.Timeout,
		}, log),
		extractor.New(chat, log, extractor.WithTimeout(cfg.LLM.Timeout)),
		log,
	)

	res, err := p.Analyze(ctx, file, kind, analyzeName, analyzeLanguage)
	if err != nil {
		return err
	}
	out := analyzeOutput{
		Kind:    res.Kind,
		Valid:   res.Valid,
		Reason:  string(res.Reason),
		Message: res.Message,
		Fields:  res.Fields,
	}
	if analyzeRawText {
		out.RawText = res.RawText
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
