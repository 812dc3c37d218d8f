package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"enrollment/internal/document/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr <file>",
	Short: "Print the text the OCR engine reads from a PDF or image",
	Args:  cobra.ExactArgs(1),
	RunE:  runOCR,
}

func init() {
	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, args []string) error {
	file, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.OCR.Timeout)
	defer cancel()

	engine := ocr.NewEngine(ocr.Config{
		Tesseract:  cfg.OCR.Binary,
		Rasterizer: cfg.OCR.Rasterizer,
		Languages:  cfg.OCR.Languages,
		Timeout:    cfg.OCR.Timeout,
	}, log)
	text, err := engine.Recognize(ctx, file)
	if err != nil {
		return err
	}
	if text == "" {
		return errors.New("no legible text found")
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
