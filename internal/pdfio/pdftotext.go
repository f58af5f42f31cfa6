// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfio

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/question-engine/internal/container"
)

// DefaultPopplerImage is the container image used by the pdftotext
// backend when none is configured.
const DefaultPopplerImage = "minidocks/poppler:latest"

// PdftotextBackend extracts page text by piping the PDF through
// poppler's pdftotext inside a container. Its layout mode preserves
// line structure better than in-process extraction on papers with
// multi-column or heavily styled text.
type PdftotextBackend struct {
	runtime container.Runtime
	image   string
}

// NewPdftotext returns a backend running pdftotext in the given image
// via runtime. An empty image selects DefaultPopplerImage.
func NewPdftotext(runtime container.Runtime, image string) *PdftotextBackend {
	if image == "" {
		image = DefaultPopplerImage
	}
	return &PdftotextBackend{runtime: runtime, image: image}
}

func (b *PdftotextBackend) Name() string { return "pdftotext" }

func (b *PdftotextBackend) PageTexts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	cmd := []string{"pdftotext", "-layout", "-", "-"}
	if err := b.runtime.Run(b.image, cmd, f, &out); err != nil {
		return nil, fmt.Errorf("pdftotext on %s: %w", path, err)
	}
	return splitPages(out.String()), nil
}

// splitPages breaks pdftotext output on the form feed it emits after
// every page, dropping the empty trailer after the final one.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if n := len(pages); n > 0 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}
