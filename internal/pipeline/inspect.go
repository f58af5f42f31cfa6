// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"

	"github.com/pdiddy/question-engine/internal/segment"
	"github.com/pdiddy/question-engine/pkg/types"
)

// Inspect previews segmentation for the document at pdfPath without
// writing any output: per page, the questions that would be produced and
// the warnings that would be raised.
func Inspect(open Opener, pats *segment.Patterns, pdfPath string, w io.Writer) error {
	src, err := open(pdfPath)
	if err != nil {
		return err
	}
	defer src.Close()

	fmt.Fprintf(w, "%s: %d page(s)\n", src.Path(), src.PageCount())

	err = src.EachPage(func(page types.Page) error {
		blocks, warnings := pats.Segment(page.Index, page.Text)
		fmt.Fprintf(w, "page %d: %d question(s), %d image(s)\n", page.Index, len(blocks), len(page.Images))
		for _, b := range blocks {
			fmt.Fprintf(w, "  q%d: %s [%d option(s)]\n", b.Number, truncate(b.Stem, 60), len(b.Options))
		}
		for _, warn := range warnings {
			fmt.Fprintf(w, "  warning %s: %s\n", warn.Kind, warn.Message)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, warn := range src.Warnings() {
		fmt.Fprintf(w, "warning %s: page %d: %s\n", warn.Kind, warn.Page, warn.Message)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
