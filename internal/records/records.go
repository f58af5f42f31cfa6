// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records folds question blocks and classified image paths into
// output records and serializes them.
package records

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/question-engine/pkg/types"
)

// Builder accumulates question records in encounter order. Records keep
// the order blocks were produced in; duplicate or out-of-sequence
// question numbers are neither deduplicated nor resorted.
type Builder struct {
	recs []types.QuestionRecord
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a record for block and returns its index, used to attach
// image paths later. Image lists start empty, never nil, so they
// serialize as [] rather than null.
func (b *Builder) Add(block types.QuestionBlock) int {
	b.recs = append(b.recs, types.QuestionRecord{
		QuestionNumber: block.Number,
		Question:       block.Stem,
		QuestionImages: []string{},
		OptionImages:   []string{},
	})
	return len(b.recs) - 1
}

// AddQuestionImage attaches a saved image path to the record at idx.
func (b *Builder) AddQuestionImage(idx int, path string) {
	b.recs[idx].QuestionImages = append(b.recs[idx].QuestionImages, path)
}

// AddOptionImage attaches an option image path to the record at idx.
// Option images are a flattened list, not separated by label.
func (b *Builder) AddOptionImage(idx int, path string) {
	b.recs[idx].OptionImages = append(b.recs[idx].OptionImages, path)
}

// Records returns the accumulated records. The slice is never nil, so a
// run with no questions still serializes as an empty JSON array.
func (b *Builder) Records() []types.QuestionRecord {
	if b.recs == nil {
		return []types.QuestionRecord{}
	}
	return b.recs
}

// Len reports how many records have been added.
func (b *Builder) Len() int {
	return len(b.recs)
}

// WriteJSON serializes recs as an indented UTF-8 JSON array at path.
// The write is all-or-nothing: content goes to a temporary file in the
// same directory and is renamed into place, so a failure never leaves a
// corrupt partial file behind.
func WriteJSON(path string, recs []types.QuestionRecord) error {
	if recs == nil {
		recs = []types.QuestionRecord{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary output file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("finalizing %s: %w", path, err)
	}
	return nil
}

// Report summarizes one extraction run for the results file written
// alongside the JSON output.
type Report struct {
	Source       string          `yaml:"source"`
	Pages        int             `yaml:"pages"`
	Questions    int             `yaml:"questions"`
	ImagesSaved  int             `yaml:"images_saved"`
	Unclassified int             `yaml:"unclassified_images"`
	Warnings     []types.Warning `yaml:"warnings,omitempty"`
	GeneratedAt  time.Time       `yaml:"generated_at"`
}

// WriteReport writes the run report as YAML at path.
func WriteReport(path string, r Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
