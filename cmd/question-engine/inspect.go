package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/question-engine/internal/pipeline"
	"github.com/pdiddy/question-engine/internal/segment"
	"github.com/pdiddy/question-engine/pkg/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [pdf]",
	Short: "Preview segmentation for a PDF without writing output",
	Long: `Inspect runs text extraction and segmentation on a question paper and
prints what the pipeline would produce: questions per page, option
counts, and any warnings. Nothing is written to disk, so it is the
quickest way to tune --labels and --delimiters for an unfamiliar paper
layout.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	pats, err := segment.New(types.PatternConfig{
		OptionLabels: setting(cmd, "labels"),
		Delimiters:   setting(cmd, "delimiters"),
	})
	if err != nil {
		return err
	}

	backend, err := textBackend(types.TextBackend(setting(cmd, "text-backend")), setting(cmd, "poppler-image"))
	if err != nil {
		return err
	}

	return pipeline.Inspect(pipeline.PDFOpener(backend), pats, args[0], os.Stdout)
}

func init() {
	inspectCmd.Flags().String("labels", "ABCD", "option-label alphabet")
	inspectCmd.Flags().String("delimiters", ".)", "numbering delimiter set")
	inspectCmd.Flags().String("text-backend", "native", "page-text backend: native or pdftotext")
	inspectCmd.Flags().String("poppler-image", "", "container image for the pdftotext backend")

	rootCmd.AddCommand(inspectCmd)
}
