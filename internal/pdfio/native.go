// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// rowTolerance is the maximum vertical distance, in points, between two
// text fragments considered to lie on the same line.
const rowTolerance = 2.0

// NativeText extracts page text in-process. It reconstructs line breaks
// from glyph coordinates, which the segmenter's line-anchored patterns
// depend on.
type NativeText struct{}

func (NativeText) Name() string { return "native" }

func (NativeText) PageTexts(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	texts := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		texts = append(texts, assembleLines(page.Content().Text))
	}
	return texts, nil
}

// assembleLines rebuilds page text from positioned fragments: fragments
// within rowTolerance of each other vertically form one line, lines are
// emitted top to bottom, and fragments within a line left to right. A
// horizontal gap wider than a quarter of the font size becomes a space.
func assembleLines(frags []pdf.Text) string {
	if len(frags) == 0 {
		return ""
	}

	sorted := make([]pdf.Text, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y // PDF Y grows upward
		}
		return sorted[i].X < sorted[j].X
	})

	var b strings.Builder
	lineY := sorted[0].Y
	prevEnd := 0.0
	for i, t := range sorted {
		switch {
		case i == 0:
		case lineY-t.Y > rowTolerance:
			b.WriteByte('\n')
			lineY = t.Y
		case t.X-prevEnd > 0.25*t.FontSize && t.FontSize > 0:
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return b.String()
}
