package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/question-engine/internal/container"
	"github.com/pdiddy/question-engine/internal/pdfio"
	"github.com/pdiddy/question-engine/internal/pipeline"
	"github.com/pdiddy/question-engine/internal/segment"
	"github.com/pdiddy/question-engine/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf-or-directory]",
	Short: "Convert question paper PDFs to structured JSON",
	Long: `Extract runs the conversion pipeline on a question paper PDF: page text
is segmented into numbered questions with their options, embedded images
are saved under deterministic names and attached to the question or
option they follow, and the records are written as a JSON array.

With --batch the argument is a directory; every PDF in it is converted
into its own subdirectory of the output directory, skipping documents
whose output is already up to date.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := extractionConfig(cmd)
	if err != nil {
		return err
	}

	pats, err := segment.New(cfg.Patterns)
	if err != nil {
		return err
	}

	backend, err := textBackend(cfg.Backend, setting(cmd, "poppler-image"))
	if err != nil {
		return err
	}
	open := pipeline.PDFOpener(backend)

	batch, _ := cmd.Flags().GetBool("batch")
	if batch {
		summary, err := pipeline.ExtractBatch(open, pats, args[0], cfg, os.Stdout)
		if err != nil {
			return err
		}
		fmt.Printf("\nconverted: %d, skipped: %d, failed: %d\n",
			summary.Converted, summary.Skipped, summary.Failed)
		if summary.HasFailures() {
			return fmt.Errorf("%d document(s) failed", summary.Failed)
		}
		return nil
	}

	res, err := pipeline.Extract(open, pats, args[0], cfg, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("converted %s (%d questions, %d images, %d warnings)\n",
		args[0], res.Questions, res.ImagesSaved, len(res.Warnings))
	return nil
}

// extractionConfig assembles the pipeline configuration from flags with
// config-file fallback.
func extractionConfig(cmd *cobra.Command) (types.ExtractionConfig, error) {
	cfg := types.ExtractionConfig{
		Patterns: types.PatternConfig{
			OptionLabels: setting(cmd, "labels"),
			Delimiters:   setting(cmd, "delimiters"),
		},
		OutputDir: setting(cmd, "out-dir"),
		ImagesDir: setting(cmd, "images-dir"),
		JSONPath:  setting(cmd, "json"),
		Backend:   types.TextBackend(setting(cmd, "text-backend")),
	}
	cfg.Force, _ = cmd.Flags().GetBool("force")
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	return cfg, nil
}

// textBackend builds the configured page-text backend.
func textBackend(name types.TextBackend, popplerImage string) (pdfio.TextBackend, error) {
	switch name {
	case types.BackendNative, "":
		return pdfio.NativeText{}, nil
	case types.BackendPdftotext:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		return pdfio.NewPdftotext(rt, popplerImage), nil
	default:
		return nil, fmt.Errorf("unknown text backend %q: use native or pdftotext", name)
	}
}

func init() {
	extractCmd.Flags().String("out-dir", "output", "output directory for images, JSON, and the run report")
	extractCmd.Flags().String("images-dir", "images", "images directory name under the output directory")
	extractCmd.Flags().String("json", "questions_structured.json", "output JSON file name under the output directory")
	extractCmd.Flags().String("labels", "ABCD", "option-label alphabet")
	extractCmd.Flags().String("delimiters", ".)", "numbering delimiter set")
	extractCmd.Flags().String("text-backend", "native", "page-text backend: native or pdftotext")
	extractCmd.Flags().String("poppler-image", "", "container image for the pdftotext backend")
	extractCmd.Flags().Bool("batch", false, "treat the argument as a directory of PDFs")
	extractCmd.Flags().Bool("force", false, "reconvert even when output is up to date")

	rootCmd.AddCommand(extractCmd)
}
