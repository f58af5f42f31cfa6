// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify associates extracted page images with question stems
// or options and persists them under deterministic filenames.
//
// The association is a best-effort ordinal heuristic: the PDF backend
// provides no bounding-box-to-text linkage, so images are distributed
// over a page's question blocks in enumeration order. The first image
// attributed to a block is its question image; subsequent images fill the
// block's options in parse order. Misassociation is possible and is part
// of the observable contract — downstream consumers depend on the
// filename scheme, so the heuristic must not be "fixed" silently.
package classify

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pdiddy/question-engine/pkg/types"
)

// fallbackExt is used when neither the backend nor payload sniffing can
// determine the image format.
const fallbackExt = "png"

// Role says what a classified image belongs to.
type Role int

const (
	// RoleQuestion marks an image belonging to a question stem.
	RoleQuestion Role = iota
	// RoleOption marks an image belonging to a specific option.
	RoleOption
)

// Assignment records where one saved image landed.
type Assignment struct {
	// Block is the index of the owning block within the page's blocks.
	Block int

	// Role distinguishes question images from option images.
	Role Role

	// Option is the index of the owning option within the block when
	// Role is RoleOption; -1 otherwise.
	Option int

	// Path is the saved image path, forward-slash separated, relative
	// to the output directory (e.g. "images/img_q1_0.png").
	Path string
}

// Classifier writes classified images into a single images directory.
type Classifier struct {
	// imagesDir is the filesystem directory images are written to.
	imagesDir string

	// relDir is the forward-slash prefix recorded in assignments,
	// typically the images directory relative to the JSON output.
	relDir string
}

// New returns a Classifier writing into imagesDir. relDir is the path
// prefix stored in the output records for each saved image.
func New(imagesDir, relDir string) *Classifier {
	return &Classifier{imagesDir: imagesDir, relDir: path.Clean(filepath.ToSlash(relDir))}
}

// ClassifyPage distributes a page's images over its question blocks and
// writes each image exactly once. It returns the assignments in image
// order plus any classification warnings. A write failure is fatal and
// aborts the run; no partial-file cleanup is attempted.
//
// Slot order per block: one question slot, then one slot per option.
// Excess images append to the last option of the last block (or to its
// question images when the block has no options). Images on a page with
// no question blocks are not written; they are reported as unclassified
// so that every written path appears in exactly one output record.
func (c *Classifier) ClassifyPage(page types.Page, blocks []types.QuestionBlock) ([]Assignment, []types.Warning, error) {
	if len(page.Images) == 0 {
		return nil, nil, nil
	}

	var warnings []types.Warning

	if len(blocks) == 0 {
		warnings = append(warnings, types.Warning{
			Kind:    types.WarnClassification,
			Page:    page.Index,
			Message: fmt.Sprintf("%d image(s) on page with no questions left unclassified", len(page.Images)),
		})
		return nil, warnings, nil
	}

	slots := buildSlots(blocks)
	if len(page.Images) > len(slots) {
		warnings = append(warnings, types.Warning{
			Kind:    types.WarnClassification,
			Page:    page.Index,
			Message: fmt.Sprintf("%d image(s) but only %d question/option slot(s); excess appended to the last slot", len(page.Images), len(slots)),
		})
	}

	if err := os.MkdirAll(c.imagesDir, 0o755); err != nil {
		return nil, warnings, fmt.Errorf("creating images directory %s: %w", c.imagesDir, err)
	}

	assignments := make([]Assignment, 0, len(page.Images))
	for _, img := range page.Images {
		slot := slots[min(img.Ordinal, len(slots)-1)]
		block := blocks[slot.block]

		name := deriveName(block, slot, img)
		if err := os.WriteFile(filepath.Join(c.imagesDir, name), img.Data, 0o644); err != nil {
			return nil, warnings, fmt.Errorf("writing image %s (page %d): %w", name, page.Index, err)
		}

		assignments = append(assignments, Assignment{
			Block:  slot.block,
			Role:   slot.role,
			Option: slot.option,
			Path:   path.Join(c.relDir, name),
		})
	}

	return assignments, warnings, nil
}

// slot is one position in the per-page distribution order.
type slot struct {
	block  int
	role   Role
	option int // -1 for question slots
}

// buildSlots flattens a page's blocks into the ordinal distribution
// order: each block contributes a question slot followed by one slot per
// option.
func buildSlots(blocks []types.QuestionBlock) []slot {
	var slots []slot
	for bi, b := range blocks {
		slots = append(slots, slot{block: bi, role: RoleQuestion, option: -1})
		for oi := range b.Options {
			slots = append(slots, slot{block: bi, role: RoleOption, option: oi})
		}
	}
	return slots
}

// deriveName builds the deterministic filename for a classified image:
// img_q{n}_{ordinal}.{ext} for question images and
// q{n}_option{label}_{ordinal}.{ext} for option images. The ordinal is
// the image's zero-based position within its page, so reruns over the
// same input always produce the same names.
func deriveName(block types.QuestionBlock, s slot, img types.PageImage) string {
	ext := img.Ext
	if ext == "" {
		ext = sniffExt(img.Data)
	}
	if s.role == RoleQuestion {
		return fmt.Sprintf("img_q%d_%d.%s", block.Number, img.Ordinal, ext)
	}
	return fmt.Sprintf("q%d_option%s_%d.%s", block.Number, block.Options[s.option].Label, img.Ordinal, ext)
}

// sniffExt infers the image format from the payload via the registered
// decoders, falling back to png when the format is unknown.
func sniffExt(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || format == "" {
		return fallbackExt
	}
	if format == "jpeg" {
		return "jpg"
	}
	return format
}
