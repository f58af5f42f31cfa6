// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment splits raw page text into question blocks using a
// numbering-pattern heuristic. Matching is regex-driven and inherently
// ambiguous (a number at line start mid-prose is indistinguishable from a
// real question start); all pattern rules live behind Patterns so the
// heuristics can be tuned and tested apart from the pipeline plumbing.
package segment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/question-engine/pkg/types"
)

// Patterns holds the compiled segmentation rules for one configuration.
type Patterns struct {
	question *regexp.Regexp
	option   *regexp.Regexp
	artifact *regexp.Regexp
	labels   string
}

// New compiles segmentation patterns from the given configuration.
// Option labels must be distinct uppercase ASCII letters.
func New(cfg types.PatternConfig) (*Patterns, error) {
	cfg = cfg.WithDefaults()

	seen := map[rune]bool{}
	for _, r := range cfg.OptionLabels {
		if r < 'A' || r > 'Z' {
			return nil, fmt.Errorf("segment: option label %q is not an uppercase letter", r)
		}
		if seen[r] {
			return nil, fmt.Errorf("segment: duplicate option label %q", r)
		}
		seen[r] = true
	}

	var delims strings.Builder
	for _, r := range cfg.Delimiters {
		delims.WriteString(regexp.QuoteMeta(string(r)))
	}

	labelClass := "[" + cfg.OptionLabels + "]"
	delimClass := "[" + delims.String() + "]"

	question, err := regexp.Compile(`(?m)^[ \t]*(\d{1,3})` + delimClass + `[ \t\r\n]`)
	if err != nil {
		return nil, fmt.Errorf("segment: compiling question pattern: %w", err)
	}
	option, err := regexp.Compile(`(?m)^[ \t]*(` + labelClass + `)` + delimClass + `[ \t\r\n]`)
	if err != nil {
		return nil, fmt.Errorf("segment: compiling option pattern: %w", err)
	}
	// Artifact tokens the source PDFs embed after the useful stem text:
	// answer keys ("Ans [B]"), bracketed option echoes, section headings.
	artifact, err := regexp.Compile(`(?s)(?:Ans\s*\[` + labelClass + `\]|\[` + labelClass + `\]|\bAns\b|\bSECTION\b).*$`)
	if err != nil {
		return nil, fmt.Errorf("segment: compiling artifact pattern: %w", err)
	}

	return &Patterns{
		question: question,
		option:   option,
		artifact: artifact,
		labels:   cfg.OptionLabels,
	}, nil
}

// Segment converts one page's raw text into zero or more question blocks.
// A page with no numbering matches yields zero blocks and a warning, not
// an error. Blocks whose number cannot be parsed are dropped with a
// warning.
func (p *Patterns) Segment(pageIndex int, text string) ([]types.QuestionBlock, []types.Warning) {
	matches := p.question.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, []types.Warning{{
			Kind:    types.WarnSegmentation,
			Page:    pageIndex,
			Message: "no question numbering matches on page",
		}}
	}

	var blocks []types.QuestionBlock
	var warnings []types.Warning

	for i, m := range matches {
		spanEnd := len(text)
		if i+1 < len(matches) {
			spanEnd = matches[i+1][0]
		}

		number, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			warnings = append(warnings, types.Warning{
				Kind:    types.WarnSegmentation,
				Page:    pageIndex,
				Message: fmt.Sprintf("unparseable question number %q, block dropped", text[m[2]:m[3]]),
			})
			continue
		}

		// Body starts past the number and delimiter.
		body := text[m[1]:spanEnd]
		block, blockWarnings := p.splitBlock(pageIndex, number, body)
		blocks = append(blocks, block)
		warnings = append(warnings, blockWarnings...)
	}

	return blocks, warnings
}

// splitBlock divides a question span into stem text and labeled options.
// A span with no option markers yields a block with no options. When an
// option label repeats within the span, the repeat's text is folded into
// the first occurrence and the ambiguity is flagged.
func (p *Patterns) splitBlock(pageIndex, number int, body string) (types.QuestionBlock, []types.Warning) {
	block := types.QuestionBlock{
		Number:    number,
		PageIndex: pageIndex,
	}
	var warnings []types.Warning

	optMatches := p.option.FindAllStringSubmatchIndex(body, -1)
	stemEnd := len(body)
	if len(optMatches) > 0 {
		stemEnd = optMatches[0][0]
	}
	block.Stem = p.CleanStem(body[:stemEnd])

	byLabel := map[string]int{}
	for j, om := range optMatches {
		textEnd := len(body)
		if j+1 < len(optMatches) {
			textEnd = optMatches[j+1][0]
		}
		label := body[om[2]:om[3]]
		optText := Clean(body[om[1]:textEnd])

		if idx, dup := byLabel[label]; dup {
			block.Options[idx].Text = Clean(block.Options[idx].Text + " " + optText)
			warnings = append(warnings, types.Warning{
				Kind:    types.WarnSegmentation,
				Page:    pageIndex,
				Message: fmt.Sprintf("question %d: repeated option label %q, folded into first occurrence", number, label),
			})
			continue
		}
		byLabel[label] = len(block.Options)
		block.Options = append(block.Options, types.Option{Label: label, Text: optText})
	}

	return block, warnings
}

// Clean normalizes extracted text: control characters are dropped and
// whitespace runs collapse to single spaces. Cleaning is idempotent.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CleanStem applies Clean after cutting trailing artifact tokens (answer
// keys, bracketed option echoes, section headings) from a question stem.
func (p *Patterns) CleanStem(s string) string {
	if loc := p.artifact.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return Clean(s)
}
