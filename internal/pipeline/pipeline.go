// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives the single-pass conversion of question paper
// PDFs into structured JSON: per page, segment the text into question
// blocks, classify and save the page's images, and fold everything into
// output records written once at the end.
package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/question-engine/internal/classify"
	"github.com/pdiddy/question-engine/internal/pdfio"
	"github.com/pdiddy/question-engine/internal/records"
	"github.com/pdiddy/question-engine/internal/segment"
	"github.com/pdiddy/question-engine/pkg/types"
)

const (
	// DefaultImagesDir is the images directory name under the output
	// directory, and the prefix recorded in image paths.
	DefaultImagesDir = "images"

	// DefaultJSONName is the output JSON file name.
	DefaultJSONName = "questions_structured.json"

	// reportName is the per-run YAML report written next to the JSON.
	reportName = "extraction_report.yaml"
)

// Source yields the pages of one open document. *pdfio.Document is the
// production implementation; tests supply fakes.
type Source interface {
	Path() string
	PageCount() int
	EachPage(fn func(types.Page) error) error
	Warnings() []types.Warning
	Close() error
}

// Opener opens the document at path.
type Opener func(path string) (Source, error)

// PDFOpener returns an Opener producing real PDF sources with the given
// text backend.
func PDFOpener(backend pdfio.TextBackend) Opener {
	return func(path string) (Source, error) {
		return pdfio.Open(path, backend)
	}
}

// Result summarizes one document's conversion.
type Result struct {
	Questions    int
	ImagesSaved  int
	Unclassified int
	Warnings     []types.Warning
}

// BatchSummary holds counts from a batch run over a directory of PDFs.
type BatchSummary struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Converted + s.Skipped + s.Failed
}

// HasFailures reports whether any documents failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Extract converts the single document at pdfPath into cfg.OutputDir:
// saved images under the images directory, the record array as JSON, and
// a YAML run report. Document open failures and write failures are
// fatal; segmentation and classification problems are reported as
// warnings on w and in the report, and the run still succeeds.
func Extract(open Opener, pats *segment.Patterns, pdfPath string, cfg types.ExtractionConfig, w io.Writer) (Result, error) {
	imagesDir := cfg.ImagesDir
	if imagesDir == "" {
		imagesDir = DefaultImagesDir
	}
	jsonName := cfg.JSONPath
	if jsonName == "" {
		jsonName = DefaultJSONName
	}

	src, err := open(pdfPath)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	cls := classify.New(filepath.Join(cfg.OutputDir, imagesDir), imagesDir)
	builder := records.NewBuilder()

	var res Result
	err = src.EachPage(func(page types.Page) error {
		blocks, segWarnings := pats.Segment(page.Index, page.Text)
		res.Warnings = append(res.Warnings, segWarnings...)

		recIdx := make([]int, len(blocks))
		for i, b := range blocks {
			recIdx[i] = builder.Add(b)
		}

		assignments, clsWarnings, err := cls.ClassifyPage(page, blocks)
		if err != nil {
			return err
		}
		res.Warnings = append(res.Warnings, clsWarnings...)

		for _, a := range assignments {
			res.ImagesSaved++
			if a.Role == classify.RoleQuestion {
				builder.AddQuestionImage(recIdx[a.Block], a.Path)
			} else {
				builder.AddOptionImage(recIdx[a.Block], a.Path)
			}
		}
		if len(blocks) == 0 {
			res.Unclassified += len(page.Images)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	res.Warnings = append(res.Warnings, src.Warnings()...)
	res.Questions = builder.Len()

	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning %s: page %d: %s\n", warn.Kind, warn.Page, warn.Message)
	}

	if err := records.WriteJSON(filepath.Join(cfg.OutputDir, jsonName), builder.Records()); err != nil {
		return Result{}, err
	}

	report := records.Report{
		Source:       pdfPath,
		Pages:        src.PageCount(),
		Questions:    res.Questions,
		ImagesSaved:  res.ImagesSaved,
		Unclassified: res.Unclassified,
		Warnings:     res.Warnings,
		GeneratedAt:  time.Now().UTC(),
	}
	if err := records.WriteReport(filepath.Join(cfg.OutputDir, reportName), report); err != nil {
		return Result{}, err
	}

	return res, nil
}

// ExtractBatch converts every PDF in inputDir, each into its own
// subdirectory of cfg.OutputDir named after the file. Documents whose
// output is newer than the PDF are skipped unless cfg.Force is set.
// Per-document failures are reported on w and counted; they do not stop
// the batch.
func ExtractBatch(open Opener, pats *segment.Patterns, inputDir string, cfg types.ExtractionConfig, w io.Writer) (BatchSummary, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading input directory %s: %w", inputDir, err)
	}

	jsonName := cfg.JSONPath
	if jsonName == "" {
		jsonName = DefaultJSONName
	}

	var summary BatchSummary
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}

		docID := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		pdfPath := filepath.Join(inputDir, entry.Name())

		docCfg := cfg
		docCfg.OutputDir = filepath.Join(cfg.OutputDir, docID)

		if !cfg.Force {
			changed, err := hasChanged(pdfPath, filepath.Join(docCfg.OutputDir, jsonName))
			if err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
				summary.Failed++
				continue
			}
			if !changed {
				fmt.Fprintf(w, "skipped %s\n", docID)
				summary.Skipped++
				continue
			}
		}

		fmt.Fprintf(w, "converting %s\n", docID)

		res, err := Extract(open, pats, pdfPath, docCfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "converted %s (%d questions, %d images)\n", docID, res.Questions, res.ImagesSaved)
		summary.Converted++
	}

	return summary, nil
}

// hasChanged reports whether the PDF is newer than the existing output.
// Returns true when the output does not exist yet.
func hasChanged(pdfPath, outPath string) (bool, error) {
	pdfInfo, err := os.Stat(pdfPath)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", pdfPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat %s: %w", outPath, err)
	}

	return pdfInfo.ModTime().After(outInfo.ModTime()), nil
}
