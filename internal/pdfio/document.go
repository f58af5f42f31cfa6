// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfio reads question paper PDFs: page text through a pluggable
// backend and embedded images through pdfcpu.
package pdfio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/question-engine/pkg/types"
)

// ErrDocument marks a PDF that cannot be opened or parsed at all. Callers
// treat it as fatal for the affected document; nothing is written.
var ErrDocument = errors.New("unreadable document")

// TextBackend extracts per-page text from a PDF. Implementations must
// return one string per page, in page order.
type TextBackend interface {
	// Name identifies the backend in logs and reports.
	Name() string

	// PageTexts returns the text of every page of the PDF at path.
	PageTexts(path string) ([]string, error)
}

// Document is an open question paper. Pages are produced lazily by
// EachPage; image decode problems on individual pages are collected as
// warnings rather than failing the document.
type Document struct {
	path     string
	file     *os.File
	ctx      *model.Context
	texts    []string
	warnings []types.Warning
}

// Open reads and validates the PDF at path and extracts its page text
// through backend. Any failure here wraps ErrDocument.
func Open(path string, backend TextBackend) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDocument, path, err)
	}

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrDocument, path, err)
	}

	texts, err := backend.PageTexts(path)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: extracting text from %s via %s: %v", ErrDocument, path, backend.Name(), err)
	}

	// The image reader and the text backend may disagree on page count
	// for damaged files; the image reader wins and missing text pages
	// are treated as empty.
	if len(texts) < ctx.PageCount {
		padded := make([]string, ctx.PageCount)
		copy(padded, texts)
		texts = padded
	}

	return &Document{path: path, file: f, ctx: ctx, texts: texts}, nil
}

// Close releases the underlying file handle.
func (d *Document) Close() error {
	return d.file.Close()
}

// Path returns the path the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int { return d.ctx.PageCount }

// EachPage calls fn once per page, in order, with that page's text and
// images. Returning a non-nil error from fn stops the iteration.
func (d *Document) EachPage(fn func(types.Page) error) error {
	for i := 0; i < d.ctx.PageCount; i++ {
		page := types.Page{Index: i, Text: d.texts[i]}
		page.Images = d.pageImages(i + 1)
		if err := fn(page); err != nil {
			return err
		}
	}
	return nil
}

// Warnings returns per-page image extraction problems accumulated so far.
func (d *Document) Warnings() []types.Warning {
	return d.warnings
}

// pageImages extracts the images embedded on the 1-based page pageNr.
// Object numbers order the images so that the zero-based ordinal of each
// image is stable across runs.
func (d *Document) pageImages(pageNr int) []types.PageImage {
	found, err := pdfcpu.ExtractPageImages(d.ctx, pageNr, false)
	if err != nil {
		d.warnings = append(d.warnings, types.Warning{
			Kind:    types.WarnClassification,
			Page:    pageNr - 1,
			Message: fmt.Sprintf("image extraction failed: %v", err),
		})
		return nil
	}
	if len(found) == 0 {
		return nil
	}

	objNrs := make([]int, 0, len(found))
	for objNr := range found {
		objNrs = append(objNrs, objNr)
	}
	sort.Ints(objNrs)

	images := make([]types.PageImage, 0, len(found))
	for _, objNr := range objNrs {
		img := found[objNr]
		data, err := io.ReadAll(img)
		if err != nil {
			d.warnings = append(d.warnings, types.Warning{
				Kind:    types.WarnClassification,
				Page:    pageNr - 1,
				Message: fmt.Sprintf("reading image object %d: %v", objNr, err),
			})
			continue
		}
		images = append(images, types.PageImage{
			Ordinal: len(images),
			Data:    data,
			Ext:     strings.TrimPrefix(img.FileType, "."),
		})
	}
	return images
}
