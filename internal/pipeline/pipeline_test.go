// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/question-engine/internal/segment"
	"github.com/pdiddy/question-engine/pkg/types"
)

// fakeSource feeds prebuilt pages into the pipeline.
type fakeSource struct {
	path     string
	pages    []types.Page
	warnings []types.Warning
	closed   bool
}

func (f *fakeSource) Path() string   { return f.path }
func (f *fakeSource) PageCount() int { return len(f.pages) }

func (f *fakeSource) EachPage(fn func(types.Page) error) error {
	for _, p := range f.pages {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) Warnings() []types.Warning { return f.warnings }
func (f *fakeSource) Close() error              { f.closed = true; return nil }

func openerFor(src Source) Opener {
	return func(path string) (Source, error) { return src, nil }
}

func mustPatterns(t *testing.T) *segment.Patterns {
	t.Helper()
	pats, err := segment.New(types.PatternConfig{})
	if err != nil {
		t.Fatal(err)
	}
	return pats
}

func readRecords(t *testing.T, outDir string) []types.QuestionRecord {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outDir, DefaultJSONName))
	if err != nil {
		t.Fatal(err)
	}
	var recs []types.QuestionRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, data)
	}
	return recs
}

func TestExtractSinglePageNoImages(t *testing.T) {
	outDir := t.TempDir()
	src := &fakeSource{
		path:  "paper.pdf",
		pages: []types.Page{{Index: 0, Text: "1. What is 2+2?\nA. 3\nB. 4\nC. 5\nD. 6"}},
	}

	var log bytes.Buffer
	res, err := Extract(openerFor(src), mustPatterns(t), src.path, types.ExtractionConfig{OutputDir: outDir}, &log)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Questions != 1 || res.ImagesSaved != 0 || len(res.Warnings) != 0 {
		t.Errorf("result = %+v", res)
	}
	if !src.closed {
		t.Error("source not closed")
	}

	recs := readRecords(t, outDir)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.QuestionNumber != 1 || rec.Question != "What is 2+2?" {
		t.Errorf("record = %+v", rec)
	}
	if rec.QuestionImages == nil || len(rec.QuestionImages) != 0 {
		t.Errorf("question_images = %#v, want empty", rec.QuestionImages)
	}
	if rec.OptionImages == nil || len(rec.OptionImages) != 0 {
		t.Errorf("option_images = %#v, want empty", rec.OptionImages)
	}

	raw, err := os.ReadFile(filepath.Join(outDir, DefaultJSONName))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "null") {
		t.Errorf("output contains null:\n%s", raw)
	}

	if _, err := os.Stat(filepath.Join(outDir, "extraction_report.yaml")); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestExtractImageAfterFirstQuestion(t *testing.T) {
	outDir := t.TempDir()
	src := &fakeSource{
		path: "paper.pdf",
		pages: []types.Page{{
			Index:  0,
			Text:   "1. Identify the shape below.\n2. What is 3*3?\nA. 6\nB. 9\n",
			Images: []types.PageImage{{Ordinal: 0, Data: []byte("shape"), Ext: "png"}},
		}},
	}

	var log bytes.Buffer
	res, err := Extract(openerFor(src), mustPatterns(t), src.path, types.ExtractionConfig{OutputDir: outDir}, &log)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Questions != 2 || res.ImagesSaved != 1 {
		t.Errorf("result = %+v", res)
	}

	recs := readRecords(t, outDir)
	if len(recs[0].QuestionImages) != 1 || recs[0].QuestionImages[0] != "images/img_q1_0.png" {
		t.Errorf("q1 question_images = %v", recs[0].QuestionImages)
	}
	if len(recs[1].QuestionImages) != 0 || len(recs[1].OptionImages) != 0 {
		t.Errorf("q2 images = %v / %v, want none", recs[1].QuestionImages, recs[1].OptionImages)
	}
	if _, err := os.Stat(filepath.Join(outDir, "images", "img_q1_0.png")); err != nil {
		t.Errorf("image not saved: %v", err)
	}
}

func TestExtractNoMatchesSucceedsWithWarning(t *testing.T) {
	outDir := t.TempDir()
	src := &fakeSource{
		path:  "garbled.pdf",
		pages: []types.Page{{Index: 0, Text: "no numbering anywhere in this text"}},
	}

	var log bytes.Buffer
	res, err := Extract(openerFor(src), mustPatterns(t), src.path, types.ExtractionConfig{OutputDir: outDir}, &log)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Questions != 0 {
		t.Errorf("questions = %d, want 0", res.Questions)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Kind != types.WarnSegmentation {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if !strings.Contains(log.String(), "warning segmentation") {
		t.Errorf("warning not logged: %q", log.String())
	}

	raw, err := os.ReadFile(filepath.Join(outDir, DefaultJSONName))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Errorf("output = %q, want empty array", raw)
	}
}

// Every image written to disk must appear in exactly one record's image
// list, and every listed path must exist on disk.
func TestExtractImagePathRoundTrip(t *testing.T) {
	outDir := t.TempDir()
	src := &fakeSource{
		path: "paper.pdf",
		pages: []types.Page{
			{
				Index: 0,
				Text:  "1. First?\nA. one\nB. two\n",
				Images: []types.PageImage{
					{Ordinal: 0, Data: []byte("a"), Ext: "png"},
					{Ordinal: 1, Data: []byte("b"), Ext: "png"},
					{Ordinal: 2, Data: []byte("c"), Ext: "jpg"},
				},
			},
			{
				// Image on a page with no questions stays unwritten.
				Index:  1,
				Text:   "intentionally blank",
				Images: []types.PageImage{{Ordinal: 0, Data: []byte("x"), Ext: "png"}},
			},
		},
	}

	var log bytes.Buffer
	res, err := Extract(openerFor(src), mustPatterns(t), src.path, types.ExtractionConfig{OutputDir: outDir}, &log)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Unclassified != 1 {
		t.Errorf("unclassified = %d, want 1", res.Unclassified)
	}

	listed := map[string]int{}
	for _, rec := range readRecords(t, outDir) {
		for _, p := range rec.QuestionImages {
			listed[p]++
		}
		for _, p := range rec.OptionImages {
			listed[p]++
		}
	}

	entries, err := os.ReadDir(filepath.Join(outDir, "images"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(listed) {
		t.Errorf("%d files on disk, %d listed", len(entries), len(listed))
	}
	for _, e := range entries {
		p := "images/" + e.Name()
		if listed[p] != 1 {
			t.Errorf("path %s listed %d times, want exactly 1", p, listed[p])
		}
	}
}

func TestExtractBatch(t *testing.T) {
	inputDir := t.TempDir()
	outDir := t.TempDir()
	for _, name := range []string{"alpha.pdf", "beta.PDF", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(inputDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	sources := map[string]*fakeSource{}
	open := func(path string) (Source, error) {
		src := &fakeSource{
			path:  path,
			pages: []types.Page{{Index: 0, Text: "1. Question?\nA. yes\n"}},
		}
		sources[path] = src
		return src, nil
	}

	cfg := types.ExtractionConfig{OutputDir: outDir}
	var log bytes.Buffer

	summary, err := ExtractBatch(open, mustPatterns(t), inputDir, cfg, &log)
	if err != nil {
		t.Fatalf("ExtractBatch: %v", err)
	}
	if summary.Converted != 2 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Total() != 2 || summary.HasFailures() {
		t.Errorf("Total() = %d, HasFailures() = %v", summary.Total(), summary.HasFailures())
	}
	if len(sources) != 2 {
		t.Errorf("opened %d documents, want 2 (txt must be ignored)", len(sources))
	}
	for _, dir := range []string{"alpha", "beta"} {
		if _, err := os.Stat(filepath.Join(outDir, dir, DefaultJSONName)); err != nil {
			t.Errorf("missing output for %s: %v", dir, err)
		}
	}

	// A second run finds outputs newer than the PDFs and skips them.
	log.Reset()
	summary, err = ExtractBatch(open, mustPatterns(t), inputDir, cfg, &log)
	if err != nil {
		t.Fatalf("ExtractBatch rerun: %v", err)
	}
	if summary.Skipped != 2 || summary.Converted != 0 {
		t.Errorf("rerun summary = %+v", summary)
	}
	if !strings.Contains(log.String(), "skipped alpha") {
		t.Errorf("rerun log = %q", log.String())
	}

	// Force reconverts everything.
	cfg.Force = true
	summary, err = ExtractBatch(open, mustPatterns(t), inputDir, cfg, &log)
	if err != nil {
		t.Fatalf("ExtractBatch forced: %v", err)
	}
	if summary.Converted != 2 {
		t.Errorf("forced summary = %+v", summary)
	}
}

func TestExtractBatchContinuesAfterFailure(t *testing.T) {
	inputDir := t.TempDir()
	outDir := t.TempDir()
	for _, name := range []string{"bad.pdf", "good.pdf"} {
		if err := os.WriteFile(filepath.Join(inputDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	open := func(path string) (Source, error) {
		if strings.Contains(path, "bad") {
			return nil, os.ErrInvalid
		}
		return &fakeSource{path: path, pages: []types.Page{{Index: 0, Text: "1. Q?\n"}}}, nil
	}

	var log bytes.Buffer
	summary, err := ExtractBatch(open, mustPatterns(t), inputDir, types.ExtractionConfig{OutputDir: outDir}, &log)
	if err != nil {
		t.Fatalf("ExtractBatch: %v", err)
	}
	if summary.Failed != 1 || summary.Converted != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(log.String(), "failed  bad") {
		t.Errorf("log = %q", log.String())
	}
}

func TestInspectWritesPreview(t *testing.T) {
	src := &fakeSource{
		path: "paper.pdf",
		pages: []types.Page{{
			Index:  0,
			Text:   "1. What is 2+2?\nA. 3\nB. 4\n",
			Images: []types.PageImage{{Ordinal: 0, Data: []byte("i"), Ext: "png"}},
		}},
	}

	var out bytes.Buffer
	if err := Inspect(openerFor(src), mustPatterns(t), src.path, &out); err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	got := out.String()
	for _, want := range []string{"paper.pdf: 1 page(s)", "page 0: 1 question(s), 1 image(s)", "q1: What is 2+2?"} {
		if !strings.Contains(got, want) {
			t.Errorf("preview missing %q:\n%s", want, got)
		}
	}
	if !src.closed {
		t.Error("source not closed")
	}
}
